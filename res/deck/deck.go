// Package deck implements the deck tree root, the Hamilton STAR rail
// layout, resource stacks, carriers, and collision/height checks.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package deck

import (
	"fmt"
	"sync"

	"github.com/tidwall/buntdb"

	"github.com/benchctl/labcore/cmn"
	"github.com/benchctl/labcore/errs"
	"github.com/benchctl/labcore/geo"
	"github.com/benchctl/labcore/res"
)

const (
	// ChannelTraversalHeightWarningMM and GripTraversalHeightWarningMM are
	// the heights above which the orchestrator warns (but does not refuse)
	// about a move.
	ChannelTraversalHeightWarningMM = 245.0
	GripTraversalHeightWarningMM    = 285.0

	// railPitchMM is the spacing between adjacent Hamilton STAR deck
	// rails; railZeroXMM/railYMM/railZMM locate rail 1's carrier origin.
	railPitchMM = 22.5
	railZeroXMM = 100.0
	railYMM     = 63.0
	railZMM     = 100.0
)

// NameIndex tracks every resource name currently assigned under a Deck,
// maintained via the resource tree's callback hooks so a lookup by name
// is O(1) instead of a tree walk.
type NameIndex struct {
	mu    sync.RWMutex
	byName map[string]*res.Resource
}

func newNameIndex() *NameIndex {
	return &NameIndex{byName: make(map[string]*res.Resource)}
}

func (idx *NameIndex) add(r *res.Resource) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.byName[r.Name] = r
	for _, c := range r.AllChildren() {
		idx.byName[c.Name] = c
	}
}

func (idx *NameIndex) remove(r *res.Resource) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.byName, r.Name)
	for _, c := range r.AllChildren() {
		delete(idx.byName, c.Name)
	}
}

// Get looks up a resource by name.
func (idx *NameIndex) Get(name string) (*res.Resource, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	r, ok := idx.byName[name]
	return r, ok
}

// Deck is the root of the resource tree: a flat Resource that owns a
// name index kept current via assign/unassign callbacks, and a spatial
// index (buntdb, in-memory) for fast AABB overlap queries.
type Deck struct {
	*res.Resource
	Names   *NameIndex
	log     cmn.Logger
	spatial *buntdb.DB
}

// New creates an empty deck of the given overall footprint. log may be
// nil to suppress placement warnings.
func New(name string, sizeX, sizeY, sizeZ float64, log cmn.Logger) (*Deck, error) {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("deck: opening spatial index: %w", err)
	}
	if log == nil {
		log = cmn.NopLogger()
	}
	d := &Deck{Resource: res.New(name, sizeX, sizeY, sizeZ), Names: newNameIndex(), log: log, spatial: db}
	d.OnDidAssign(func(child *res.Resource) {
		d.Names.add(child)
		if child.Parent == d.Resource {
			d.indexSpatial(child)
		}
	})
	d.OnDidUnassign(func(child *res.Resource) {
		d.Names.remove(child)
		d.unindexSpatial(child)
	})
	return d, nil
}

// GetResource looks up a resource anywhere under the deck by name.
func (d *Deck) GetResource(name string) (*res.Resource, error) {
	if r, ok := d.Names.Get(name); ok {
		return r, nil
	}
	return nil, errs.InvalidArgument("deck: no resource named %q", name)
}

// HasResource reports whether a resource with the given name is
// assigned anywhere under the deck.
func (d *Deck) HasResource(name string) bool {
	_, ok := d.Names.Get(name)
	return ok
}

func (d *Deck) indexSpatial(r *res.Resource) {
	loc := r.GetAbsoluteLocation()
	ex, ey, _ := r.AbsoluteAABB()
	rect := fmt.Sprintf("[%f %f],[%f %f]", loc.X, loc.Y, loc.X+ex, loc.Y+ey)
	_ = d.spatial.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(r.Name, rect, nil)
		return err
	})
}

func (d *Deck) unindexSpatial(r *res.Resource) {
	_ = d.spatial.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(r.Name)
		if err == buntdb.ErrNotFound {
			return nil
		}
		return err
	})
}

// Overlapping returns the names of every indexed resource whose AABB
// intersects r's, excluding r itself.
func (d *Deck) Overlapping(r *res.Resource) []string {
	loc := r.GetAbsoluteLocation()
	ex, ey, _ := r.AbsoluteAABB()
	minX, minY := loc.X, loc.Y
	maxX, maxY := loc.X+ex, loc.Y+ey

	var hits []string
	_ = d.spatial.CreateSpatialIndex("footprint", "*", buntdb.IndexRect)
	_ = d.spatial.View(func(tx *buntdb.Tx) error {
		return tx.Intersects("footprint", fmt.Sprintf("[%f %f],[%f %f]", minX, minY, maxX, maxY), func(key, val string) bool {
			if key != r.Name {
				hits = append(hits, key)
			}
			return true
		})
	})
	return hits
}

// CheckCollision returns an error if placing r where its current
// location/rotation puts it would overlap an existing top-level child.
// The authoritative check is the exact pairwise AABB test below; the
// buntdb index behind Overlapping serves range queries for tooling and
// is not consulted here.
func (d *Deck) CheckCollision(r *res.Resource) error {
	loc := r.GetAbsoluteLocation()
	ex, ey, _ := r.AbsoluteAABB()
	for _, c := range d.Children {
		if c == r {
			continue
		}
		cloc := c.GetAbsoluteLocation()
		cex, cey, _ := c.AbsoluteAABB()
		if rectsOverlap(loc.X, loc.Y, ex, ey, cloc.X, cloc.Y, cex, cey) {
			return errs.InvalidArgument("resource %q would overlap %q", r.Name, c.Name)
		}
	}
	return nil
}

// rectsOverlap is the corner-in-box test run both ways: two axis-
// aligned rectangles overlap iff each spans the other on both axes.
// Touching edges do not count as overlap.
func rectsOverlap(ax, ay, aw, ah, bx, by, bw, bh float64) bool {
	return ax < bx+bw && bx < ax+aw && ay < by+bh && by < ay+ah
}

// HamiltonSTARDeck is the 30-rail STAR worktable. Rail numbers are
// 1-indexed; RailsToLocation converts a rail number to the origin
// coordinate a carrier assigned at that rail would occupy.
type HamiltonSTARDeck struct {
	*Deck
	NumRails int
}

// NewHamiltonSTARDeck builds a STAR deck with the given rail count
// (30 on a standard worktable), sized to fit them. log may be nil.
func NewHamiltonSTARDeck(numRails int, log cmn.Logger) (*HamiltonSTARDeck, error) {
	sizeX := railZeroXMM + float64(numRails)*railPitchMM
	d, err := New("deck", sizeX, 497.0, 900.0, log)
	if err != nil {
		return nil, err
	}
	return &HamiltonSTARDeck{Deck: d, NumRails: numRails}, nil
}

// RailsToLocation converts a 1-indexed rail number to the deck-absolute
// carrier origin at that rail: (100 + (rail-1)*22.5, 63, 100).
func RailsToLocation(rail int) geo.Coordinate {
	return geo.NewCoordinate(railZeroXMM+float64(rail-1)*railPitchMM, railYMM, railZMM)
}

// AssignCarrierAtRail assigns carrier at the given rail number after
// bounds- and collision-checking: the carrier must not hang past the
// right edge of the worktable (one rail pitch beyond the last rail),
// and must not overlap any existing top-level child. A carrier whose
// top pokes above the channel-traversal or grip heights is accepted
// with a warning.
func (d *HamiltonSTARDeck) AssignCarrierAtRail(carrier *res.Resource, rail int, ignoreCollision bool) error {
	if rail < 1 || rail > d.NumRails {
		return errs.InvalidArgument("rail %d out of range [1, %d]", rail, d.NumRails)
	}
	return d.AssignCarrierAt(carrier, RailsToLocation(rail), ignoreCollision)
}

// AssignCarrierAt is AssignCarrierAtRail for an explicit deck location.
func (d *HamiltonSTARDeck) AssignCarrierAt(carrier *res.Resource, loc geo.Coordinate, ignoreCollision bool) error {
	extX, _, extZ := carrier.AbsoluteAABB()
	rightEdge := RailsToLocation(d.NumRails + 1).X
	if loc.X+extX > rightEdge {
		return errs.InvalidArgument("carrier %q at x=%.1f (width %.1f) overflows the deck right edge %.1f",
			carrier.Name, loc.X, extX, rightEdge)
	}
	carrier.Location = loc
	if !ignoreCollision {
		if err := d.CheckCollision(carrier); err != nil {
			return err
		}
	}
	if err := d.AssignChild(carrier, loc); err != nil {
		return err
	}
	top := loc.Z + extZ
	if top > GripTraversalHeightWarningMM {
		d.log.Warnf("deck: %q top at z=%.1f exceeds the grip height limit %.0f", carrier.Name, top, GripTraversalHeightWarningMM)
	} else if top > ChannelTraversalHeightWarningMM {
		d.log.Warnf("deck: %q top at z=%.1f exceeds the channel traversal height %.0f", carrier.Name, top, ChannelTraversalHeightWarningMM)
	}
	return nil
}
