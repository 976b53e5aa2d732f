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
)

// MoveChannelX moves the gantry X drive so channel sits over x (mm).
// X is shared across channels: moving one moves them all.
func (o *Orchestrator) MoveChannelX(ctx context.Context, xMM float64) error {
	_, err := o.send(ctx, fw.ModuleMaster, "JX", []fw.KV{
		{Key: "xs", Value: fw.Fixed(cmn.MMToTenths(xMM), 5)},
	})
	return err
}

// MoveChannelY moves a single channel to y (mm). The caller is
// responsible for the Y-monotonicity invariant; use
// MoveChannelsInYDirection to reposition several channels safely.
func (o *Orchestrator) MoveChannelY(ctx context.Context, channel int, yMM float64) error {
	if channel < 0 || channel >= o.NumChannels {
		return errs.InvalidArgument("star: channel %d out of range [0, %d)", channel, o.NumChannels)
	}
	_, err := o.send(ctx, fw.ChannelModule(channel+1), "JY", []fw.KV{
		{Key: "ya", Value: fw.Fixed(cmn.MMToTenths(yMM), 4)},
	})
	return err
}

// MoveChannelZ moves a single channel's Z drive to z (mm).
func (o *Orchestrator) MoveChannelZ(ctx context.Context, channel int, zMM float64) error {
	if channel < 0 || channel >= o.NumChannels {
		return errs.InvalidArgument("star: channel %d out of range [0, %d)", channel, o.NumChannels)
	}
	_, err := o.send(ctx, fw.ChannelModule(channel+1), "JZ", []fw.KV{
		{Key: "za", Value: fw.Fixed(cmn.MMToTenths(zMM), 4)},
	})
	return err
}

// MoveChannelsInYDirection computes a full Y assignment for every
// channel from the sparse requested map (propagating the minimum-pitch
// constraint when makeSpace is set) and issues the combined Y move.
// A request that cannot satisfy the monotonicity or travel bounds
// fails before anything is sent.
func (o *Orchestrator) MoveChannelsInYDirection(ctx context.Context, requested map[int]float64, makeSpace bool) ([]float64, error) {
	ys, err := o.PositionChannelsInYDirection(requested, makeSpace)
	if err != nil {
		return nil, err
	}
	yTenths := make([]int, len(ys))
	for i, y := range ys {
		yTenths[i] = cmn.MMToTenths(y)
	}
	if _, err := o.send(ctx, fw.ModuleMaster, "JY", []fw.KV{
		{Key: "yp", Value: fw.FixedList(yTenths, 4)},
	}); err != nil {
		return nil, err
	}
	return ys, nil
}

// PierceOp targets one well whose sealing foil a channel should
// puncture. The channel must already carry a piercing tip.
type PierceOp struct {
	Well   *well.Well
	Offset geo.Coordinate
}

// pierceOvershootMM is how far below the foil plane the piercing
// stroke drives before retracting.
const pierceOvershootMM = 2.0

// PierceFoil punctures the sealing foil over each op's well with the
// paired piercing channel, while holdDownChannels stay pressed on the
// plate seal frame so the retract stroke does not lift the plate.
// Piercing channels and hold-down channels must be disjoint.
func (o *Orchestrator) PierceFoil(ctx context.Context, ops []PierceOp, piercingChannels, holdDownChannels []int, traversalHeightMM *float64) error {
	if len(ops) == 0 {
		return errs.InvalidArgument("star: pierce_foil: no operations")
	}
	if len(ops) != len(piercingChannels) {
		return errs.InvalidArgument("star: pierce_foil: %d ops but %d piercing channels", len(ops), len(piercingChannels))
	}
	used := map[int]bool{}
	for _, ch := range piercingChannels {
		used[ch] = true
	}
	for _, ch := range holdDownChannels {
		if used[ch] {
			return errs.InvalidArgument("star: pierce_foil: channel %d is both piercing and holding down", ch)
		}
	}

	// Line the channels up over the wells (and the hold-down channels
	// over the seal frame beside them) in one combined Y move.
	yMap := map[int]float64{}
	for i, op := range ops {
		loc := op.Well.GetAbsoluteLocation().Add(op.Offset)
		yMap[piercingChannels[i]] = loc.Y
	}
	if _, err := o.MoveChannelsInYDirection(ctx, yMap, true); err != nil {
		return err
	}

	th := o.resolveTraversalHeight(traversalHeightMM)

	// Hold-down channels press onto the plate top first.
	for _, ch := range holdDownChannels {
		top := ops[0].Well.GetAbsoluteLocation().Z + ops[0].Well.SizeZ
		if err := o.MoveChannelZ(ctx, ch, top); err != nil {
			return err
		}
	}

	// Pierce: drive each channel through the foil plane, then retract
	// to the traversal height.
	for i, op := range ops {
		loc := op.Well.GetAbsoluteLocation().Add(op.Offset)
		foilZ := loc.Z + op.Well.SizeZ
		if err := o.MoveChannelZ(ctx, piercingChannels[i], foilZ-pierceOvershootMM); err != nil {
			return err
		}
		if err := o.MoveChannelZ(ctx, piercingChannels[i], th); err != nil {
			return err
		}
	}

	// Release the hold-down channels last.
	for _, ch := range holdDownChannels {
		if err := o.MoveChannelZ(ctx, ch, th); err != nil {
			return err
		}
	}
	return nil
}
