// Package session implements the Manager that ties one or more backend
// transports together for their setup/stop lifecycle, persists a
// compressed command transcript for replay, and exposes the
// orphan-response-id guard shared by its backends.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package session

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pierrec/lz4/v3"
	shortid "github.com/teris-io/shortid"
	"github.com/tidwall/buntdb"
	"golang.org/x/sync/errgroup"

	"github.com/benchctl/labcore/cmn"
	"github.com/benchctl/labcore/errs"
	"github.com/benchctl/labcore/transport"
)

// Backend is anything session.Manager can open/close: STAR and Prep
// orchestrators both satisfy this via a thin constructor-supplied
// adapter (see StarBackend/PrepBackend in this package).
type Backend interface {
	Name() string
	Open(ctx context.Context) error
	Close() error
}

// Manager owns a set of backends opened together and torn down
// together: every exit path from Stop must close every handle, even if
// an earlier Close failed.
type Manager struct {
	log      cmn.Logger
	backends []Backend
	guard    *transport.OrphanGuard

	mu        sync.Mutex
	transcript *buntdb.DB
	id        string
}

// New builds a Manager over backends, opening a correlation id and an
// in-memory transcript log immediately (persistence happens on Record).
func New(log cmn.Logger, backends ...Backend) (*Manager, error) {
	if log == nil {
		log = cmn.NopLogger()
	}
	sid, err := shortid.Generate()
	if err != nil {
		return nil, fmt.Errorf("session: generating id: %w", err)
	}
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("session: opening transcript store: %w", err)
	}
	return &Manager{
		log:        log,
		backends:   backends,
		guard:      transport.NewOrphanGuard(4096),
		transcript: db,
		id:         sid,
	}, nil
}

// ID returns the session's opaque debug/correlation id (not a wire id
// counter; those live per-backend in star/fw.IDCounter and prep/orch's
// sequence counter).
func (m *Manager) ID() string { return m.id }

// Open opens every backend concurrently via errgroup. If any fails,
// the others that did open are closed before returning.
func (m *Manager) Open(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, b := range m.backends {
		b := b
		g.Go(func() error {
			if err := b.Open(gctx); err != nil {
				return fmt.Errorf("session: opening backend %s: %w", b.Name(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		_ = m.Stop()
		return err
	}
	m.log.Infof("session %s: %d backends open", m.id, len(m.backends))
	return nil
}

// Stop closes every backend, continuing past individual failures so
// every exit path still attempts every handle, and returns the first
// error encountered (if any).
func (m *Manager) Stop() error {
	var firstErr error
	for _, b := range m.backends {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("session: closing backend %s: %w", b.Name(), err)
		}
	}
	if err := m.transcript.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("session: closing transcript store: %w", err)
	}
	return firstErr
}

// Guard returns the shared orphan-response-id guard backends consult
// before delivering a late response.
func (m *Manager) Guard() *transport.OrphanGuard { return m.guard }

// entry is one transcript record: a framed request, its response (or
// error text), and when it happened.
type entry struct {
	Backend  string
	Request  []byte
	Response []byte
	Err      string
	At       time.Time
}

// Record persists one command/response pair, lz4-compressed, keyed by
// backend, record time and id, for later replay or golden-sequence
// comparison (P12).
func (m *Manager) Record(backend, id string, req, resp []byte, callErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := entry{Backend: backend, Request: req, Response: resp, At: time.Now()}
	if callErr != nil {
		e.Err = callErr.Error()
	}
	raw := encodeEntry(e)

	var compressed bytes.Buffer
	w := lz4.NewWriter(&compressed)
	if _, err := w.Write(raw); err != nil {
		return errs.Wrap(errs.KindProtocolError, "session: compressing transcript entry", err)
	}
	if err := w.Close(); err != nil {
		return errs.Wrap(errs.KindProtocolError, "session: closing lz4 writer", err)
	}

	key := fmt.Sprintf("%s:%020d:%s", backend, e.At.UnixNano(), id)
	return m.transcript.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, compressed.String(), nil)
		return err
	})
}

// Transcript returns every recorded entry for backend, in key order
// (which, since each key carries the zero-padded record time, is also
// chronological per backend).
func (m *Manager) Transcript(backend string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	err := m.transcript.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(backend+":*", func(key, val string) bool {
			r := lz4.NewReader(bytes.NewReader([]byte(val)))
			var buf bytes.Buffer
			if _, err := buf.ReadFrom(r); err == nil {
				out = append(out, buf.String())
			}
			return true
		})
	})
	return out, err
}

func encodeEntry(e entry) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\t%s\t%q\t%q\t%s\n", e.At.Format(time.RFC3339Nano), e.Backend, e.Request, e.Response, e.Err)
	return buf.Bytes()
}
