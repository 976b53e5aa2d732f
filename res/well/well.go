// Package well implements liquid-holding resources: a single Well with a
// liquid-volume tracker, and a Plate laying out a 2-D grid of wells with
// A1-style naming.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package well

import (
	"fmt"

	"github.com/benchctl/labcore/errs"
	"github.com/benchctl/labcore/res"
)

// Liquid is one pipetted volume tracked in a well, oldest first so the
// top of the stack is the most recently added liquid.
type Liquid struct {
	Name      string
	VolumeUl  float64
}

// Well is a Resource with a liquid-volume tracker: a stack of Liquid
// entries plus the well's maximum capacity.
type Well struct {
	*res.Resource
	MaxVolumeUl float64
	liquids     []Liquid
}

// NewWell creates an empty well of the given footprint and capacity.
func NewWell(name string, sizeX, sizeY, sizeZ, maxVolumeUl float64) *Well {
	w := &Well{Resource: res.New(name, sizeX, sizeY, sizeZ), MaxVolumeUl: maxVolumeUl}
	w.Resource.Tracker = w
	return w
}

// StateDict implements res.Tracker: the liquid stack, oldest first.
func (w *Well) StateDict() map[string]any {
	liquids := make([]any, 0, len(w.liquids))
	for _, l := range w.liquids {
		liquids = append(liquids, map[string]any{"name": l.Name, "volume_ul": l.VolumeUl})
	}
	return map[string]any{"liquids": liquids}
}

// LoadStateDict implements res.Tracker.
func (w *Well) LoadStateDict(state map[string]any) error {
	raw, ok := state["liquids"].([]any)
	if !ok {
		w.liquids = nil
		return nil
	}
	liquids := make([]Liquid, 0, len(raw))
	total := 0.0
	for i, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			return errs.InvalidArgument("well %s: liquid entry %d is not an object", w.Name, i)
		}
		l := Liquid{}
		l.Name, _ = m["name"].(string)
		l.VolumeUl, _ = m["volume_ul"].(float64)
		total += l.VolumeUl
		liquids = append(liquids, l)
	}
	if total > w.MaxVolumeUl+1e-6 {
		return errs.InvalidArgument("well %s: state volume %.2fuL exceeds capacity %.2fuL", w.Name, total, w.MaxVolumeUl)
	}
	w.liquids = liquids
	return nil
}

// Volume returns the total liquid currently tracked in the well.
func (w *Well) Volume() float64 {
	total := 0.0
	for _, l := range w.liquids {
		total += l.VolumeUl
	}
	return total
}

// AddLiquid pushes volumeUl of liquid named name onto the well, failing
// if it would exceed MaxVolumeUl.
func (w *Well) AddLiquid(name string, volumeUl float64) error {
	if w.Volume()+volumeUl > w.MaxVolumeUl+1e-6 {
		return errs.InvalidArgument("well %s: adding %.2fuL would exceed capacity %.2fuL", w.Name, volumeUl, w.MaxVolumeUl)
	}
	w.liquids = append(w.liquids, Liquid{Name: name, VolumeUl: volumeUl})
	return nil
}

// RemoveVolume removes volumeUl from the top of the liquid stack,
// failing with TooLittleLiquid if the well doesn't hold enough.
func (w *Well) RemoveVolume(volumeUl float64) error {
	remaining := volumeUl
	for remaining > 1e-9 && len(w.liquids) > 0 {
		top := &w.liquids[len(w.liquids)-1]
		if top.VolumeUl <= remaining+1e-9 {
			remaining -= top.VolumeUl
			w.liquids = w.liquids[:len(w.liquids)-1]
		} else {
			top.VolumeUl -= remaining
			remaining = 0
		}
	}
	if remaining > 1e-9 {
		return errs.New(errs.KindTooLittleLiquid, fmt.Sprintf("well %s: requested %.2fuL, short by %.2fuL", w.Name, volumeUl, remaining), nil)
	}
	return nil
}

// Plate lays out a grid of Wells: numRows x numCols, with a uniform
// well size/spacing, exposing A1-style naming (row letter or
// letter-pair then 1-indexed column number across the plate's own name
// space, matching common microplate nomenclature).
type Plate struct {
	*res.Resource
	NumRows, NumCols int
	Wells            [][]*Well
}

// NewPlate creates a plate with numRows x numCols wells of the given
// per-well footprint/capacity, spaced evenly across the plate footprint.
func NewPlate(name string, sizeX, sizeY, sizeZ float64, numRows, numCols int, wellSizeX, wellSizeY, wellSizeZ, wellMaxVolumeUl float64) *Plate {
	p := &Plate{Resource: res.New(name, sizeX, sizeY, sizeZ), NumRows: numRows, NumCols: numCols}
	p.Wells = make([][]*Well, numRows)
	spacingX := sizeX / float64(numCols)
	spacingY := sizeY / float64(numRows)
	for row := 0; row < numRows; row++ {
		p.Wells[row] = make([]*Well, numCols)
		for col := 0; col < numCols; col++ {
			wname := fmt.Sprintf("%s_well_%s", name, WellName(row, col))
			w := NewWell(wname, wellSizeX, wellSizeY, wellSizeZ, wellMaxVolumeUl)
			if err := p.Resource.AssignChild(w.Resource, coordAt(col, row, spacingX, spacingY)); err != nil {
				panic(err) // construction-time invariant: names are generated unique
			}
			p.Wells[row][col] = w
		}
	}
	return p
}

// WellName renders the conventional A1/H12-style well label for a
// 0-indexed (row, col) pair.
func WellName(row, col int) string {
	letter := rowLetter(row)
	return fmt.Sprintf("%s%d", letter, col+1)
}

func rowLetter(row int) string {
	// Single letters for the first 26 rows (A-Z); beyond that, AA, AB, ...
	if row < 26 {
		return string(rune('A' + row))
	}
	first := row/26 - 1
	second := row % 26
	return string(rune('A'+first)) + string(rune('A'+second))
}

// WellAt returns the well at 0-indexed (row, col), or nil if out of range.
func (p *Plate) WellAt(row, col int) *Well {
	if row < 0 || row >= p.NumRows || col < 0 || col >= p.NumCols {
		return nil
	}
	return p.Wells[row][col]
}

// WellNamed resolves an A1-style label ("A1", "H12", "AA3") to its
// well, or nil if the label is malformed or out of range.
func (p *Plate) WellNamed(label string) *Well {
	i := 0
	for i < len(label) && label[i] >= 'A' && label[i] <= 'Z' {
		i++
	}
	if i == 0 || i > 2 || i == len(label) {
		return nil
	}
	row := 0
	if i == 1 {
		row = int(label[0] - 'A')
	} else {
		row = (int(label[0]-'A')+1)*26 + int(label[1]-'A')
	}
	col := 0
	for _, c := range label[i:] {
		if c < '0' || c > '9' {
			return nil
		}
		col = col*10 + int(c-'0')
	}
	return p.WellAt(row, col-1)
}
