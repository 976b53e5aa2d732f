// Package orch implements the Hamilton STAR orchestrator.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package orch

import (
	"context"

	"github.com/benchctl/labcore/cmn"
	"github.com/benchctl/labcore/errs"
	"github.com/benchctl/labcore/geo"
	"github.com/benchctl/labcore/res/well"
	"github.com/benchctl/labcore/star/fw"
	"github.com/benchctl/labcore/star/lc"
)

// LLDMode selects the liquid-level-detection strategy for an aspirate.
type LLDMode int

const (
	LLDOff LLDMode = iota
	LLDGamma
	LLDPressure
	LLDDual
	LLDZTouch
)

// materialThicknessMM approximates the well-bottom wall thickness added
// to a well's nominal Z when deriving the aspirate/dispense height
// (well bottom + offset.z + material thickness).
const materialThicknessMM = 0.5

// lldSearchClearanceMM is how far above the well bottom the LLD search
// height starts. Wells are shallow enough that bottom + clearance and
// top-anchored variants land close together for the liquid classes the
// table covers.
const lldSearchClearanceMM = 5.0

// AspirateOp is one well-anchored aspirate, in the orchestrator's native
// mm/uL units; VolumeUl and LiquidHeightMM are required. The override
// fields below fall back to the liquid-class value when zero; the LLD,
// mix and clot-detection fields are sent as given.
type AspirateOp struct {
	Well           *well.Well
	Offset         geo.Coordinate
	VolumeUl       float64
	LiquidHeightMM float64
	Liquid         string
	TipVolumeUl    int
	IsCoRe96       bool
	HasFilter      bool
	Jet            bool
	BlowOut        bool
	LLD            LLDMode
	MixCycles      int
	MixVolumeUl    float64
	ClotDetectHeightMM float64

	// FlowRateTenthsUlPerS/TransportAirVolumeUl override the resolved
	// liquid-class value when non-zero. SettlingTimeS is not sent to the
	// firmware.
	FlowRateTenthsUlPerS  int
	TransportAirVolumeUl  float64
	SettlingTimeS         float64
}

func (o *Orchestrator) resolveClass(tipVolumeUl int, isCoRe96, hasFilter bool, liquid string, jet, blowOut bool) *lc.Class {
	return o.liquid.Resolve(lc.Key{
		TipVolumeUl: tipVolumeUl,
		IsCoRe96:    isCoRe96,
		HasFilter:   hasFilter,
		Liquid:      liquid,
		Jet:         jet,
		BlowOut:     blowOut,
	})
}

// Aspirate issues an `AS` command for ops at channels (paired by
// index), resolving per-op liquid-class defaults and converting to
// firmware units at the codec boundary only.
func (o *Orchestrator) Aspirate(ctx context.Context, ops []AspirateOp, channels []int, traversalHeightMM *float64) error {
	if len(ops) != len(channels) {
		return errs.InvalidArgument("star: aspirate: %d ops but %d channels", len(ops), len(channels))
	}
	if len(ops) == 0 {
		return errs.InvalidArgument("star: aspirate: no operations")
	}

	xs := make([]int, len(ops))
	ys := make([]int, len(ops))
	zs := make([]int, len(ops))
	lldZs := make([]int, len(ops))
	vols := make([]int, len(ops))
	flowRates := make([]int, len(ops))
	airVols := make([]int, len(ops))
	lldModes := make([]int, len(ops))
	mixCycles := make([]int, len(ops))
	mixVols := make([]int, len(ops))
	clotHeights := make([]int, len(ops))

	for i, op := range ops {
		if op.VolumeUl <= 0 {
			return errs.InvalidArgument("star: aspirate: op %d has non-positive volume %.3f", i, op.VolumeUl)
		}
		class := o.resolveClass(op.TipVolumeUl, op.IsCoRe96, op.HasFilter, op.Liquid, op.Jet, op.BlowOut)

		loc := op.Well.GetAbsoluteLocation().Add(op.Offset)
		wellBottomZ := loc.Z + materialThicknessMM
		z := wellBottomZ + op.LiquidHeightMM
		lldZ := wellBottomZ + lldSearchClearanceMM

		xs[i] = cmn.MMToTenths(loc.X)
		ys[i] = cmn.MMToTenths(loc.Y)
		zs[i] = cmn.MMToTenths(z)
		lldZs[i] = cmn.MMToTenths(lldZ)
		vols[i] = cmn.UlToTenths(op.VolumeUl)

		flowRate := op.FlowRateTenthsUlPerS
		if flowRate == 0 {
			flowRate = class.AspirationFlowRateTenths
		}
		flowRates[i] = flowRate

		airVol := op.TransportAirVolumeUl
		if airVol == 0 {
			airVol = class.AspirationAirTransportVolumeUl
		}
		airVols[i] = cmn.UlToTenths(airVol)

		lldModes[i] = int(op.LLD)
		mixCycles[i] = op.MixCycles
		mixVols[i] = cmn.UlToTenths(op.MixVolumeUl)
		clotHeights[i] = cmn.MMToTenths(op.ClotDetectHeightMM)
	}

	th := cmn.MMToTenths(o.resolveTraversalHeight(traversalHeightMM))
	kwargs := []fw.KV{
		{Key: "tm", Value: channelPattern(channels, o.NumChannels)},
		{Key: "xp", Value: fw.FixedList(xs, 5)},
		{Key: "yp", Value: fw.FixedList(ys, 4)},
		{Key: "zp", Value: fw.FixedList(zs, 4)},
		{Key: "lp", Value: fw.FixedList(lldZs, 4)},
		{Key: "av", Value: fw.FixedList(vols, 5)},
		{Key: "sr", Value: fw.FixedList(flowRates, 4)},
		{Key: "ta", Value: fw.FixedList(airVols, 4)},
		{Key: "lm", Value: lldModes},
		{Key: "mc", Value: mixCycles},
		{Key: "mv", Value: fw.FixedList(mixVols, 5)},
		{Key: "ch", Value: fw.FixedList(clotHeights, 4)},
		{Key: "th", Value: fw.Fixed(th, 4)},
	}
	_, err := o.send(ctx, fw.ModuleMaster, "AS", kwargs)
	if err != nil {
		return err
	}
	for _, op := range ops {
		if err := op.Well.RemoveVolume(op.VolumeUl); err != nil {
			return err
		}
	}
	return nil
}

// DispenseOp mirrors AspirateOp for a dispense.
type DispenseOp struct {
	Well           *well.Well
	Offset         geo.Coordinate
	VolumeUl       float64
	LiquidHeightMM float64
	Liquid         string
	TipVolumeUl    int
	IsCoRe96       bool
	HasFilter      bool
	Jet            bool
	BlowOut        bool
	EmptyTip       bool
	FlowRateTenthsUlPerS int
}

// dispenseMode selects the firmware dispense mode: jet+blowOut -> 1,
// jet+!blowOut -> 0, !jet+blowOut -> 3, !jet+!blowOut -> 2; emptyTip
// forces mode 4 regardless of jet/blowOut.
func dispenseMode(jet, blowOut, emptyTip bool) int {
	if emptyTip {
		return 4
	}
	switch {
	case jet && blowOut:
		return 1
	case jet && !blowOut:
		return 0
	case !jet && blowOut:
		return 3
	default:
		return 2
	}
}

// Dispense issues a `DS` command for ops at channels.
func (o *Orchestrator) Dispense(ctx context.Context, ops []DispenseOp, channels []int, traversalHeightMM *float64) error {
	if len(ops) != len(channels) {
		return errs.InvalidArgument("star: dispense: %d ops but %d channels", len(ops), len(channels))
	}
	if len(ops) == 0 {
		return errs.InvalidArgument("star: dispense: no operations")
	}

	xs := make([]int, len(ops))
	ys := make([]int, len(ops))
	zs := make([]int, len(ops))
	vols := make([]int, len(ops))
	flowRates := make([]int, len(ops))
	modes := make([]int, len(ops))

	for i, op := range ops {
		if op.VolumeUl <= 0 {
			return errs.InvalidArgument("star: dispense: op %d has non-positive volume %.3f", i, op.VolumeUl)
		}
		class := o.resolveClass(op.TipVolumeUl, op.IsCoRe96, op.HasFilter, op.Liquid, op.Jet, op.BlowOut)

		loc := op.Well.GetAbsoluteLocation().Add(op.Offset)
		z := loc.Z + materialThicknessMM + op.LiquidHeightMM

		xs[i] = cmn.MMToTenths(loc.X)
		ys[i] = cmn.MMToTenths(loc.Y)
		zs[i] = cmn.MMToTenths(z)
		vols[i] = cmn.UlToTenths(op.VolumeUl)

		flowRate := op.FlowRateTenthsUlPerS
		if flowRate == 0 {
			flowRate = class.DispenseFlowRateTenths
		}
		flowRates[i] = flowRate
		modes[i] = dispenseMode(op.Jet, op.BlowOut, op.EmptyTip)
	}

	th := cmn.MMToTenths(o.resolveTraversalHeight(traversalHeightMM))
	kwargs := []fw.KV{
		{Key: "tm", Value: channelPattern(channels, o.NumChannels)},
		{Key: "xp", Value: fw.FixedList(xs, 5)},
		{Key: "yp", Value: fw.FixedList(ys, 4)},
		{Key: "zp", Value: fw.FixedList(zs, 4)},
		{Key: "dv", Value: fw.FixedList(vols, 5)},
		{Key: "dr", Value: fw.FixedList(flowRates, 4)},
		{Key: "dm", Value: modes},
		{Key: "th", Value: fw.Fixed(th, 4)},
	}
	_, err := o.send(ctx, fw.ModuleMaster, "DS", kwargs)
	if err != nil {
		return err
	}
	for _, op := range ops {
		if err := op.Well.AddLiquid(op.Liquid, op.VolumeUl); err != nil {
			return err
		}
	}
	return nil
}
