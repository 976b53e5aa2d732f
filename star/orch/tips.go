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
	"github.com/benchctl/labcore/res/tip"
	"github.com/benchctl/labcore/star/fw"
)

// TipSpotOp pairs a tip spot with the channel-local offset and tip type
// a pickup/drop targets.
type TipSpotOp struct {
	Spot   *tip.Spot
	Offset geo.Coordinate
	Tip    *tip.Tip
}

// tipTypeIndexFor resolves a tip type to its stateful allocation index
// (first seen tip type gets index 0, the next index 1, and so on),
// registering a new entry on first sight.
func (o *Orchestrator) tipTypeIndexFor(size tip.Size) int {
	if idx, ok := o.tipTypeIndex[size]; ok {
		return idx
	}
	idx := o.nextTipIndex
	o.tipTypeIndex[size] = idx
	o.nextTipIndex++
	return idx
}

// pickupZBounds computes the begin (top) and end (bottom) Z in mm for a
// tip pickup at absolute z, applying the 2mm adjustments observed in
// machine log files: +2mm for LowVolume, -2mm for anything that isn't
// StandardVolume, applied in this order.
func pickupZBounds(absZ float64, t *tip.Tip) (zTop, zBot float64) {
	zTop = absZ + t.TipLengthMM
	zBot = absZ + t.TipLengthMM - t.FittingDepthMM
	if t.Size == tip.SizeLowVolume {
		zTop += 2
		zBot += 2
	}
	if t.Size != tip.SizeStandardVolume {
		zTop -= 2
		zBot -= 2
	}
	return zTop, zBot
}

// channelPattern renders a bitmask over up to NumChannels channels as a
// firmware-style binary string, MSB first over the full channel count
// (unused high channels are 0), matching the `TP` command's tip
// pattern parameter.
func channelPattern(channels []int, numChannels int) string {
	bits := make([]byte, numChannels)
	for i := range bits {
		bits[i] = '0'
	}
	for _, ch := range channels {
		if ch >= 0 && ch < numChannels {
			bits[ch] = '1'
		}
	}
	return string(bits)
}

// PickUpTips picks up one tip per op at the given channels (same
// length and order as ops). All ops must carry the same tip type.
func (o *Orchestrator) PickUpTips(ctx context.Context, ops []TipSpotOp, channels []int, traversalHeightMM *float64) error {
	if len(ops) != len(channels) {
		return errs.InvalidArgument("star: pick_up_tips: %d ops but %d channels", len(ops), len(channels))
	}
	if len(ops) == 0 {
		return errs.InvalidArgument("star: pick_up_tips: no operations")
	}
	tipSize := ops[0].Tip.Size
	for _, op := range ops {
		if op.Tip.Size != tipSize {
			return errs.InvalidArgument("star: pick_up_tips: mixed tip types in one call")
		}
	}
	tipIndex := o.tipTypeIndexFor(tipSize)

	xs := make([]int, len(ops))
	ys := make([]int, len(ops))
	zTops := make([]int, len(ops))
	zBots := make([]int, len(ops))
	for i, op := range ops {
		loc := op.Spot.GetAbsoluteLocation().Add(op.Offset)
		xs[i] = cmn.MMToTenths(loc.X)
		ys[i] = cmn.MMToTenths(loc.Y)
		zTop, zBot := pickupZBounds(loc.Z, op.Tip)
		zTops[i] = cmn.MMToTenths(zTop)
		zBots[i] = cmn.MMToTenths(zBot)
	}

	th := cmn.MMToTenths(o.resolveTraversalHeight(traversalHeightMM))
	kwargs := []fw.KV{
		{Key: "tm", Value: channelPattern(channels, o.NumChannels)},
		{Key: "tt", Value: tipIndex},
		{Key: "xp", Value: fw.FixedList(xs, 5)},
		{Key: "yp", Value: fw.FixedList(ys, 4)},
		{Key: "tp", Value: fw.FixedList(zBots, 4)},
		{Key: "tz", Value: fw.FixedList(zTops, 4)},
		{Key: "th", Value: fw.Fixed(th, 4)},
	}
	_, err := o.send(ctx, fw.ModuleMaster, "TP", kwargs)
	if err != nil {
		return err
	}
	for _, op := range ops {
		if err := op.Spot.Fill(op.Tip); err != nil {
			return err
		}
	}
	return nil
}

// DropMethod selects the firmware tip-release method for DropTips.
type DropMethod int

const (
	// DropFast releases straight down, the default when every op
	// targets a tip spot.
	DropFast DropMethod = iota
	// DropPlaceShift uses the slower, safer shifted release, the
	// default when any op targets something other than a tip spot
	// (e.g. the trash), with the +59.9/+49.9mm offsets taken from
	// machine log files.
	DropPlaceShift
)

const (
	placeShiftTopOffsetMM = 59.9
	placeShiftBotOffsetMM = 49.9
)

// DropTips drops one tip per op at the given channels. method selects
// DropFast or DropPlaceShift explicitly; pass -1 to use the default
// rule (DropFast iff every op targets a tip spot).
func (o *Orchestrator) DropTips(ctx context.Context, ops []TipSpotOp, channels []int, method DropMethod, allTargetTipSpots bool, traversalHeightMM *float64) error {
	if len(ops) != len(channels) {
		return errs.InvalidArgument("star: drop_tips: %d ops but %d channels", len(ops), len(channels))
	}
	if method < 0 {
		method = DropFast
		if !allTargetTipSpots {
			method = DropPlaceShift
		}
	}

	xs := make([]int, len(ops))
	ys := make([]int, len(ops))
	zTops := make([]int, len(ops))
	zBots := make([]int, len(ops))
	for i, op := range ops {
		loc := op.Spot.GetAbsoluteLocation().Add(op.Offset)
		xs[i] = cmn.MMToTenths(loc.X)
		ys[i] = cmn.MMToTenths(loc.Y)
		if method == DropPlaceShift {
			zTops[i] = cmn.MMToTenths(loc.Z + placeShiftTopOffsetMM)
			zBots[i] = cmn.MMToTenths(loc.Z + placeShiftBotOffsetMM)
		} else {
			zTop, zBot := pickupZBounds(loc.Z, op.Tip)
			zTops[i] = cmn.MMToTenths(zTop)
			zBots[i] = cmn.MMToTenths(zBot)
		}
	}

	th := cmn.MMToTenths(o.resolveTraversalHeight(traversalHeightMM))
	kwargs := []fw.KV{
		{Key: "tm", Value: channelPattern(channels, o.NumChannels)},
		{Key: "xp", Value: fw.FixedList(xs, 5)},
		{Key: "yp", Value: fw.FixedList(ys, 4)},
		{Key: "tp", Value: fw.FixedList(zBots, 4)},
		{Key: "tz", Value: fw.FixedList(zTops, 4)},
		{Key: "th", Value: fw.Fixed(th, 4)},
		{Key: "ty", Value: int(method)},
	}
	_, err := o.send(ctx, fw.ModuleMaster, "TR", kwargs)
	if err != nil {
		return err
	}
	for _, op := range ops {
		if _, err := op.Spot.Empty(); err != nil {
			return err
		}
	}
	return nil
}
