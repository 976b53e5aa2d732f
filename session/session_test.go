// Package session implements the Manager that ties backend transports
// together for their setup/stop lifecycle.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package session

import (
	"context"
	"testing"

	"github.com/benchctl/labcore/cmn"
	"github.com/benchctl/labcore/transport"
)

// fakeLink is an in-memory transport.Transport that echoes back a
// queued response for each Write, used to exercise StarBackend without
// a real serial/TCP link.
type fakeLink struct {
	writes    [][]byte
	responses [][]byte
	next      int
	closed    bool
}

func (f *fakeLink) Write(_ context.Context, frame []byte) error {
	f.writes = append(f.writes, append([]byte(nil), frame...))
	return nil
}

func (f *fakeLink) Read(_ context.Context) ([]byte, error) {
	if f.next >= len(f.responses) {
		return nil, context.DeadlineExceeded
	}
	r := f.responses[f.next]
	f.next++
	return r, nil
}

func (f *fakeLink) Close() error {
	f.closed = true
	return nil
}

func TestStarBackendSendRecvCorrelatesAndRecords(t *testing.T) {
	link := &fakeLink{responses: [][]byte{[]byte("C0DSid0003\r\n")}}
	mgr, err := New(cmn.NopLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	backend := NewStarBackend("star", mgr, func(context.Context) (transport.Transport, error) {
		return link, nil
	})
	if err := backend.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	resp, err := backend.SendRecv(context.Background(), "C0DSid0003\r\n")
	if err != nil {
		t.Fatalf("SendRecv: %v", err)
	}
	if resp != "C0DSid0003\r\n" {
		t.Fatalf("unexpected response: %q", resp)
	}
	tr, err := mgr.Transcript("star")
	if err != nil {
		t.Fatalf("Transcript: %v", err)
	}
	if len(tr) != 1 {
		t.Fatalf("expected 1 transcript entry, got %d", len(tr))
	}
	if err := mgr.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !link.closed {
		t.Fatalf("expected backend link to be closed by Stop")
	}
}

func TestRequestIDExtractsFourDigitID(t *testing.T) {
	cases := map[string]string{
		"C0DSid0042th2450\r\n": "0042",
		"short":                "",
	}
	for frame, want := range cases {
		if got := requestID(frame); got != want {
			t.Errorf("requestID(%q) = %q, want %q", frame, got, want)
		}
	}
}

func TestManagerOpenClosesAllOnFailure(t *testing.T) {
	good := &stubBackend{name: "good"}
	bad := &stubBackend{name: "bad", openErr: context.DeadlineExceeded}
	mgr, err := New(cmn.NopLogger(), good, bad)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := mgr.Open(context.Background()); err == nil {
		t.Fatalf("expected Open to fail")
	}
	if !good.closed {
		t.Fatalf("expected good backend to be closed after a sibling failed to open")
	}
}

type stubBackend struct {
	name    string
	openErr error
	opened  bool
	closed  bool
}

func (s *stubBackend) Name() string { return s.name }
func (s *stubBackend) Open(context.Context) error {
	if s.openErr != nil {
		return s.openErr
	}
	s.opened = true
	return nil
}
func (s *stubBackend) Close() error {
	s.closed = true
	return nil
}
