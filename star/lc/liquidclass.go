// Package lc implements the STAR liquid-class lookup the orchestrator
// consults before every aspirate/dispense to translate a nominal volume
// into the firmware's flow-rate, LLD, and blow-out parameters.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package lc

import (
	"fmt"

	"github.com/OneOfOne/xxhash"
)

// Key identifies a liquid class record. TipVolumeUl is the nominal tip
// capacity the class was calibrated for; the boolean axes distinguish
// CoRe-96, filtered-tip, jet, and blow-out calibrations.
type Key struct {
	TipVolumeUl int
	IsCoRe96    bool
	HasFilter   bool
	Liquid      string
	Jet         bool
	BlowOut     bool
}

// hash returns a cache key for Key, derived with xxhash rather than
// comparing the struct directly so lookup tables can use a plain map
// keyed by uint64 instead of a composite struct key with string content.
func (k Key) hash() uint64 {
	h := xxhash.New64()
	fmt.Fprintf(h, "%d|%t|%t|%s|%t|%t", k.TipVolumeUl, k.IsCoRe96, k.HasFilter, k.Liquid, k.Jet, k.BlowOut)
	return h.Sum64()
}

// Class holds the firmware parameters derived from a liquid class
// calibration: flow rates in 0.1ul/s (matching the wire unit), LLD
// height offsets in 0.1mm, and the blow-out volume.
type Class struct {
	Key Key

	AspirationFlowRateTenths int
	AspirationMixFlowRate    int
	AspirationAirTransportVolumeUl float64
	AspirationBlowOutVolumeUl      float64
	AspirationSwapSpeed            int
	AspirationSettlingTime         float64
	AspirationClotRetractHeightMM  float64

	DispenseFlowRateTenths int
	DispenseMixFlowRate    int
	DispenseBlowOutVolumeUl float64
	DispenseSwapSpeed       int
	DispenseSettlingTime    float64
	DispenseModeDefault     int

	CorrectionCurveUlPerUl float64
}

// Table is a flat lookup of calibration records, populated by Register,
// typically from a deckpreset-loaded calibration file or a built-in
// default table.
type Table struct {
	byHash map[uint64]*Class
}

// NewTable returns an empty liquid-class table.
func NewTable() *Table {
	return &Table{byHash: make(map[uint64]*Class)}
}

// Register adds or replaces a calibration record.
func (t *Table) Register(c *Class) {
	t.byHash[c.Key.hash()] = c
}

// Lookup finds the calibration for k, and a bool reporting whether an
// exact match existed. Callers fall back to DefaultClass on a miss.
func (t *Table) Lookup(k Key) (*Class, bool) {
	c, ok := t.byHash[k.hash()]
	return c, ok
}

// DefaultClass is the conservative fallback used when no calibration
// matches: slow flow rates, zero blow-out volumes, no correction curve.
func DefaultClass(k Key) *Class {
	return &Class{
		Key:                      k,
		AspirationFlowRateTenths: 1000,
		AspirationMixFlowRate:    1000,
		AspirationBlowOutVolumeUl: 0,
		AspirationSwapSpeed:       50,
		AspirationSettlingTime:    1.0,
		DispenseFlowRateTenths:    1200,
		DispenseMixFlowRate:       1000,
		DispenseBlowOutVolumeUl:   0,
		DispenseSwapSpeed:         50,
		DispenseSettlingTime:      0.5,
		DispenseModeDefault:       0,
		CorrectionCurveUlPerUl:    1.0,
	}
}

// Resolve returns the registered class for k, or DefaultClass(k) on a miss.
func (t *Table) Resolve(k Key) *Class {
	if c, ok := t.Lookup(k); ok {
		return c
	}
	return DefaultClass(k)
}
