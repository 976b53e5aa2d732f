// Package tip implements pipette tip resources: the tip itself, tip
// spots that hold one, and the size/pickup/drop enumerations STAR and
// Prep orchestration consult.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package tip

import "github.com/benchctl/labcore/res"

// Size is the tip's nominal volume class, used as part of the
// liquid-class lookup key.
type Size int

const (
	SizeUnknown Size = iota
	SizeLowVolume
	SizeStandardVolume
	SizeHighVolume
	SizeCoRe96Filter
	SizeFourML
	SizeFiveML
)

// PickupMethod selects how a channel approaches a tip during pickup.
type PickupMethod int

const (
	PickupOutOfRack PickupMethod = iota
	PickupFromContainer
)

// DropMethod selects how a channel releases a tip.
type DropMethod int

const (
	DropToRack DropMethod = iota
	DropToWaste
	DropPlaceShift
)

// Tip is the physical consumable: its nominal volume, whether it has a
// filter, and its fitting/size class.
type Tip struct {
	TotalVolumeUl   float64
	HasFilter       bool
	TipLengthMM     float64
	FittingDepthMM  float64
	MaxVolumeUl     float64
	Size            Size
}

// Spot is a Resource that holds exactly one Tip, or is empty.
type Spot struct {
	*res.Resource
	Tip      *Tip
	HasTip   bool
}

// NewSpot creates an empty tip spot of the given footprint.
func NewSpot(name string, sizeX, sizeY, sizeZ float64) *Spot {
	s := &Spot{Resource: res.New(name, sizeX, sizeY, sizeZ)}
	s.Resource.Tracker = s
	return s
}

// StateDict implements res.Tracker: the spot's presence bit plus the
// tip recipe needed to rebuild it. Tip creation serializes as data,
// never as code.
func (s *Spot) StateDict() map[string]any {
	state := map[string]any{"has_tip": s.HasTip}
	if s.HasTip && s.Tip != nil {
		state["tip"] = map[string]any{
			"total_volume_ul":  s.Tip.TotalVolumeUl,
			"has_filter":       s.Tip.HasFilter,
			"tip_length_mm":    s.Tip.TipLengthMM,
			"fitting_depth_mm": s.Tip.FittingDepthMM,
			"max_volume_ul":    s.Tip.MaxVolumeUl,
			"size":             int(s.Tip.Size),
		}
	}
	return state
}

// LoadStateDict implements res.Tracker.
func (s *Spot) LoadStateDict(state map[string]any) error {
	hasTip, _ := state["has_tip"].(bool)
	if !hasTip {
		s.Tip = nil
		s.HasTip = false
		return nil
	}
	recipe, ok := state["tip"].(map[string]any)
	if !ok {
		return errSpotState(s.Name)
	}
	t := &Tip{}
	if v, ok := recipe["total_volume_ul"].(float64); ok {
		t.TotalVolumeUl = v
	}
	if v, ok := recipe["has_filter"].(bool); ok {
		t.HasFilter = v
	}
	if v, ok := recipe["tip_length_mm"].(float64); ok {
		t.TipLengthMM = v
	}
	if v, ok := recipe["fitting_depth_mm"].(float64); ok {
		t.FittingDepthMM = v
	}
	if v, ok := recipe["max_volume_ul"].(float64); ok {
		t.MaxVolumeUl = v
	}
	switch v := recipe["size"].(type) {
	case int:
		t.Size = Size(v)
	case float64:
		t.Size = Size(int(v))
	}
	s.Tip = t
	s.HasTip = true
	return nil
}

// GetTip returns the spot's tip and an ok bool.
func (s *Spot) GetTip() (*Tip, bool) {
	return s.Tip, s.HasTip
}

// Fill places t in the spot. It is an error to fill an already-filled spot.
func (s *Spot) Fill(t *Tip) error {
	if s.HasTip {
		return errNotEmpty(s.Name)
	}
	s.Tip = t
	s.HasTip = true
	return nil
}

// Empty removes and returns the spot's tip.
func (s *Spot) Empty() (*Tip, error) {
	if !s.HasTip {
		return nil, errEmpty(s.Name)
	}
	t := s.Tip
	s.Tip = nil
	s.HasTip = false
	return t, nil
}
