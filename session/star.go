// Package session implements the Manager that ties backend transports
// together for their setup/stop lifecycle.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package session

import (
	"context"
	"strconv"
	"strings"

	"github.com/benchctl/labcore/errs"
	"github.com/benchctl/labcore/transport"
)

// StarBackend adapts a transport.Transport into star/orch.Transport: it
// writes the ASCII frame, reads the correlated response line, and
// records both into the owning Manager's transcript.
type StarBackend struct {
	name string
	mgr  *Manager
	open func(ctx context.Context) (transport.Transport, error)
	link transport.Transport
}

// NewStarBackend builds a backend named name that dials via open on
// Manager.Open and records every exchange under mgr's transcript.
func NewStarBackend(name string, mgr *Manager, open func(ctx context.Context) (transport.Transport, error)) *StarBackend {
	return &StarBackend{name: name, mgr: mgr, open: open}
}

func (b *StarBackend) Name() string { return b.name }

func (b *StarBackend) Open(ctx context.Context) error {
	link, err := b.open(ctx)
	if err != nil {
		return err
	}
	b.link = link
	return nil
}

func (b *StarBackend) Close() error {
	if b.link == nil {
		return nil
	}
	return b.link.Close()
}

// SendRecv implements star/orch.Transport. The STAR ASCII protocol
// correlates request and response by the four-digit id embedded right
// after the command mnemonic; late responses for ids the caller has
// since abandoned are caught by the Manager's OrphanGuard rather than
// delivered to a new, unrelated request.
func (b *StarBackend) SendRecv(ctx context.Context, req string) (string, error) {
	id := requestID(req)
	for attempt := 0; attempt <= errs.MaxRetries; attempt++ {
		if err := b.link.Write(ctx, []byte(req)); err != nil {
			b.mgr.log.Errorf("star %s: write id=%s: %v", b.name, id, err)
			return "", err
		}
		raw, err := transport.ReadWithTimeout(ctx, b.link, transport.DefaultTimeouts().PacketReadTimeout)
		if err != nil {
			_ = b.mgr.Record(b.name, id, []byte(req), nil, err)
			return "", err
		}
		resp := string(raw)
		respID := requestID(resp)
		if respID != "" && respID != id && b.mgr.guard.IsOrphan(respID) {
			b.mgr.log.Warnf("star %s: discarding orphan response id=%s (awaited %s)", b.name, respID, id)
			continue
		}
		_ = b.mgr.Record(b.name, id, []byte(req), raw, nil)
		return resp, nil
	}
	return "", errs.Timeout("star %s: no correlated response for id=%s after retries", b.name, id)
}

// requestID extracts the 4-digit id STAR frames carry as their "id"
// parameter, e.g. "C0DSid0042th2450" -> "0042". It returns "" if the
// frame carries no id.
func requestID(frame string) string {
	trimmed := strings.TrimRight(frame, "\r\n")
	at := strings.Index(trimmed, "id")
	if at < 0 || at+6 > len(trimmed) {
		return ""
	}
	idPart := trimmed[at+2 : at+6]
	if _, err := strconv.Atoi(idPart); err != nil {
		return ""
	}
	return idPart
}
