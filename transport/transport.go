// Package transport implements the wire-level link both STAR and Prep
// orchestrators send framed commands over: a minimal interface plus TCP
// and USB-serial implementations, and an orphan-response-id guard.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package transport

import (
	"context"
	"sync"
	"time"

	cuckoo "github.com/seiflotfy/cuckoofilter"

	"github.com/benchctl/labcore/errs"
)

// Transport is the minimal duplex link a backend needs: write a frame,
// read the next frame (or timeout), close the underlying handle. It
// does not itself correlate requests to responses; the STAR/Prep orch
// layers do that by id/sequence, since only they know the framing.
type Transport interface {
	Write(ctx context.Context, frame []byte) error
	Read(ctx context.Context) ([]byte, error)
	Close() error
}

// Timeouts collects the three timeout classes: a full response
// (ReadTimeout), a single packet/read syscall (PacketReadTimeout), and
// a send (WriteTimeout).
type Timeouts struct {
	ReadTimeout       time.Duration
	PacketReadTimeout time.Duration
	WriteTimeout      time.Duration
}

// DefaultTimeouts returns the stock defaults.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		ReadTimeout:       30 * time.Second,
		PacketReadTimeout: 3 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// OrphanGuard flags response ids that arrive after their request was
// cancelled. The id counter still advances on cancellation, so a late
// response carrying an orphan id must be logged once and discarded,
// never double-processed.
// Backed by a cuckoo filter since the guard only needs approximate
// membership over a bounded recent window, not exact history.
type OrphanGuard struct {
	mu     sync.Mutex
	filter *cuckoo.Filter
}

// NewOrphanGuard builds a guard sized for capacity recently-cancelled
// ids (a cuckoo filter over-provisions internally, so an approximate
// capacity is fine).
func NewOrphanGuard(capacity uint) *OrphanGuard {
	return &OrphanGuard{filter: cuckoo.NewFilter(capacity)}
}

// MarkCancelled records that id was cancelled and any response
// carrying it should be treated as orphaned.
func (g *OrphanGuard) MarkCancelled(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.filter.InsertUnique([]byte(id))
}

// IsOrphan reports whether id was previously marked cancelled. A true
// result means the caller should log-and-discard the response rather
// than deliver it to whatever new request reused that id slot.
func (g *OrphanGuard) IsOrphan(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.filter.Lookup([]byte(id))
}

// Forget removes id from the guard once its window has passed
// (typically once a fresh request with the same id completes cleanly).
func (g *OrphanGuard) Forget(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.filter.Delete([]byte(id))
}

// ReadWithTimeout wraps t.Read with a per-packet timeout, translating
// a context deadline exceeded into errs.Timeout.
func ReadWithTimeout(ctx context.Context, t Transport, timeout time.Duration) ([]byte, error) {
	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	data, err := t.Read(rctx)
	if err != nil {
		if rctx.Err() != nil {
			return nil, errs.Timeout("transport: read timed out after %s", timeout)
		}
		return nil, err
	}
	return data, nil
}
