// Package deck implements the deck tree root, the Hamilton STAR rail
// layout, resource stacks, carriers, and collision/height checks.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package deck

import "github.com/benchctl/labcore/res"

// Trash is a resource the orchestrator treats as a no-op sink for
// dropped tips: the STAR single-channel trash chute and the CoRe 96
// head's shared trash area.
type Trash struct {
	*res.Resource
}

// NewTrash creates a trash resource of the given footprint.
func NewTrash(name string, sizeX, sizeY, sizeZ float64) *Trash {
	return &Trash{Resource: res.New(name, sizeX, sizeY, sizeZ)}
}

// GetTrashArea returns the deck's single-channel trash resource by its
// conventional name, or nil if the deck has none assigned.
func (d *Deck) GetTrashArea() *res.Resource {
	r, _ := d.Names.Get("trash")
	return r
}

// GetTrashArea96 returns the deck's CoRe 96 head trash resource by its
// conventional name, or nil if the deck has none assigned.
func (d *Deck) GetTrashArea96() *res.Resource {
	r, _ := d.Names.Get("trash_core96")
	return r
}
