// Package session implements the Manager that ties backend transports
// together for their setup/stop lifecycle.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package session

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/benchctl/labcore/transport"
)

// framedTransport is the narrower capability Prep needs beyond
// transport.Transport: a fixed-size read, since IpPacket framing must
// be pulled in two steps (a 2-byte length prefix, then that many
// bytes). transport.TCPTransport satisfies this.
type framedTransport interface {
	transport.Transport
	ReadN(n int) ([]byte, error)
}

// PrepBackend adapts a framedTransport into prep/orch.Transport: it
// writes the IpPacket frame whole and reads the response by first
// pulling its 2-byte little-endian length prefix, then the body.
type PrepBackend struct {
	name string
	mgr  *Manager
	open func(ctx context.Context) (framedTransport, error)
	link framedTransport
}

// NewPrepBackend builds a backend named name over a framedTransport
// (e.g. transport.DialTCP's result), recording every exchange under
// mgr's transcript.
func NewPrepBackend(name string, mgr *Manager, open func(ctx context.Context) (framedTransport, error)) *PrepBackend {
	return &PrepBackend{name: name, mgr: mgr, open: open}
}

func (b *PrepBackend) Name() string { return b.name }

func (b *PrepBackend) Open(ctx context.Context) error {
	link, err := b.open(ctx)
	if err != nil {
		return err
	}
	b.link = link
	return nil
}

func (b *PrepBackend) Close() error {
	if b.link == nil {
		return nil
	}
	return b.link.Close()
}

// SendRecv implements prep/orch.Transport. Correlation is by the
// HarpPacket sequence field the orchestrator's call() assigns; Prep
// has no separate cancellation path, so unlike STAR there is no
// orphan-id guard consultation here; every write gets exactly one
// matching read.
func (b *PrepBackend) SendRecv(ctx context.Context, req []byte) ([]byte, error) {
	if err := b.link.Write(ctx, req); err != nil {
		b.mgr.log.Errorf("prep %s: write: %v", b.name, err)
		return nil, err
	}
	header, err := b.link.ReadN(2)
	if err != nil {
		_ = b.mgr.Record(b.name, "", req, nil, err)
		return nil, err
	}
	size := int(binary.LittleEndian.Uint16(header))
	body, err := b.link.ReadN(size)
	if err != nil {
		_ = b.mgr.Record(b.name, "", req, nil, err)
		return nil, err
	}
	resp := append(header, body...)
	_ = b.mgr.Record(b.name, fmt.Sprintf("%d", size), req, resp, nil)
	return resp, nil
}
