// Package orch implements the Hamilton STAR orchestrator.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package orch

import (
	"context"
	"math"

	"github.com/benchctl/labcore/cmn"
	"github.com/benchctl/labcore/errs"
	"github.com/benchctl/labcore/geo"
	"github.com/benchctl/labcore/res"
	"github.com/benchctl/labcore/star/fw"
)

// coreAdjustment renders o.CoreAdjustment as a Coordinate offset.
func (o *Orchestrator) coreAdjustment() geo.Coordinate {
	return geo.NewCoordinate(o.CoreAdjustment[0], o.CoreAdjustment[1], o.CoreAdjustment[2])
}

// GripDirection is the axis a gripper closes along when picking up a
// resource; width is measured on the perpendicular axis.
type GripDirection int

const (
	GripFrontBack GripDirection = iota
	GripLeftRight
)

// DeckWidthClass selects the CoRe-gripper X-base coordinate: the STAR
// and STARLet worktables differ in overall width.
type DeckWidthClass int

const (
	DeckWidthSTAR DeckWidthClass = iota
	DeckWidthSTARLet
)

const (
	coreXBaseSTARMM     = 475.0
	coreXBaseSTARLetMM  = 100.0
	wastebockCoreMountXMM = 30.0
)

// validateAxisAligned enforces that a gripped resource's rotation is
// axis-aligned: x and y angles are 0, z is a multiple of 90.
func validateAxisAligned(r *res.Resource) error {
	rot := r.GetAbsoluteRotation()
	if rot.X != 0 || rot.Y != 0 {
		return errs.InvalidArgument("star: resource %q rotation x/y must be 0 (got x=%.2f y=%.2f)", r.Name, rot.X, rot.Y)
	}
	if math.Mod(rot.Z, 90) != 0 {
		return errs.InvalidArgument("star: resource %q rotation z must be a multiple of 90 (got %.2f)", r.Name, rot.Z)
	}
	return nil
}

// gripWidth returns r's extent perpendicular to dir: the dimension the
// gripper must close to.
func gripWidth(r *res.Resource, dir GripDirection) float64 {
	extX, extY, _ := r.AbsoluteAABB()
	if dir == GripFrontBack {
		return extX
	}
	return extY
}

// ISWAPPickUp picks up r with the iSWAP arm, parking first if needed
// (the `@need_iswap_parked` invariant), and validating axis alignment.
func (o *Orchestrator) ISWAPPickUp(ctx context.Context, r *res.Resource, dir GripDirection, collisionControlLevel int) error {
	if !o.ISWAPInstalled {
		return errs.Unsupported("star: iswap not installed")
	}
	if err := validateAxisAligned(r); err != nil {
		return err
	}
	width := gripWidth(r, dir)
	loc := r.GetAbsoluteLocation()

	return o.needISWAPParked(ctx, func(ctx context.Context) error {
		th := cmn.MMToTenths(o.ISWAPTraversalHeightMM)
		kwargs := []fw.KV{
			{Key: "xs", Value: fw.Fixed(cmn.MMToTenths(loc.X), 5)},
			{Key: "yj", Value: fw.Fixed(cmn.MMToTenths(loc.Y), 4)},
			{Key: "zj", Value: fw.Fixed(cmn.MMToTenths(loc.Z), 4)},
			{Key: "gw", Value: fw.Fixed(cmn.MMToTenths(width), 4)},
			{Key: "th", Value: fw.Fixed(th, 4)},
			{Key: "cc", Value: collisionControlLevel},
		}
		_, err := o.send(ctx, fw.ModuleISWAP, "PP", kwargs)
		if err != nil {
			return err
		}
		o.ISWAPParked = false
		return nil
	})
}

// ISWAPDrop places the currently-gripped resource at target's absolute
// location. The gripper width is sent 33 (0.1mm units) narrower than
// the plate, an offset taken from machine log files.
func (o *Orchestrator) ISWAPDrop(ctx context.Context, target *res.Resource, dir GripDirection, collisionControlLevel int) error {
	if !o.ISWAPInstalled {
		return errs.Unsupported("star: iswap not installed")
	}
	if err := validateAxisAligned(target); err != nil {
		return err
	}
	width := gripWidth(target, dir)
	loc := target.GetAbsoluteLocation()

	th := cmn.MMToTenths(o.ISWAPTraversalHeightMM)
	kwargs := []fw.KV{
		{Key: "xs", Value: fw.Fixed(cmn.MMToTenths(loc.X), 5)},
		{Key: "yj", Value: fw.Fixed(cmn.MMToTenths(loc.Y), 4)},
		{Key: "zj", Value: fw.Fixed(cmn.MMToTenths(loc.Z), 4)},
		{Key: "gw", Value: fw.Fixed(cmn.MMToTenths(width)-33, 4)},
		{Key: "th", Value: fw.Fixed(th, 4)},
		{Key: "cc", Value: collisionControlLevel},
	}
	_, err := o.send(ctx, fw.ModuleISWAP, "PR", kwargs)
	return err
}

// HotelMove is a 3-phase off-deck "hotel" transport motion: down to
// clearance above the target, forward by hotelDepthMM, then down by
// clearanceHeightMM.
func (o *Orchestrator) HotelMove(ctx context.Context, r *res.Resource, dir GripDirection, hotelDepthMM, clearanceHeightMM float64, unsafe bool, collisionControlLevel int) error {
	if !o.ISWAPInstalled {
		return errs.Unsupported("star: iswap not installed")
	}
	if err := validateAxisAligned(r); err != nil {
		return err
	}
	loc := r.GetAbsoluteLocation()
	width := gripWidth(r, dir)

	// Hotel-mode open-gripper position: +5 in unsafe mode, +3
	// otherwise, values taken from machine log files.
	openOffset := 3.0
	if unsafe {
		openOffset = 5.0
	}

	return o.needISWAPParked(ctx, func(ctx context.Context) error {
		// Phase 1: down to clearance above the target.
		if _, err := o.send(ctx, fw.ModuleISWAP, "PM", []fw.KV{
			{Key: "xs", Value: fw.Fixed(cmn.MMToTenths(loc.X), 5)},
			{Key: "yj", Value: fw.Fixed(cmn.MMToTenths(loc.Y), 4)},
			{Key: "zj", Value: fw.Fixed(cmn.MMToTenths(loc.Z+clearanceHeightMM), 4)},
			{Key: "gw", Value: fw.Fixed(cmn.MMToTenths(width+openOffset), 4)},
			{Key: "cc", Value: collisionControlLevel},
		}); err != nil {
			return err
		}
		// Phase 2: forward by hotelDepthMM.
		if _, err := o.send(ctx, fw.ModuleISWAP, "PM", []fw.KV{
			{Key: "xs", Value: fw.Fixed(cmn.MMToTenths(loc.X+hotelDepthMM), 5)},
			{Key: "cc", Value: collisionControlLevel},
		}); err != nil {
			return err
		}
		// Phase 3: down by clearanceHeightMM to final grip height.
		_, err := o.send(ctx, fw.ModuleISWAP, "PP", []fw.KV{
			{Key: "zj", Value: fw.Fixed(cmn.MMToTenths(loc.Z), 4)},
			{Key: "gw", Value: fw.Fixed(cmn.MMToTenths(width), 4)},
			{Key: "cc", Value: collisionControlLevel},
		})
		if err != nil {
			return err
		}
		o.ISWAPParked = false
		return nil
	})
}

// CoReMount mounts the CoRe gripper from the wasteblock location if it
// is not already mounted.
func (o *Orchestrator) CoReMount(ctx context.Context, channelPairFront, channelPairRear int, deckWidth DeckWidthClass) error {
	if o.CoreParked {
		// Already mounted: nothing to do. "Parked" here doubles as
		// "mounted and stowed" for the CoRe tool.
		return nil
	}
	xBase := coreXBaseSTARMM
	if deckWidth == DeckWidthSTARLet {
		xBase = coreXBaseSTARLetMM
	}
	kwargs := []fw.KV{
		{Key: "xs", Value: fw.Fixed(cmn.MMToTenths(xBase+wastebockCoreMountXMM), 5)},
		{Key: "pa", Value: channelPairFront},
		{Key: "pb", Value: channelPairRear},
	}
	_, err := o.send(ctx, fw.ModuleMaster, "ZT", kwargs)
	if err != nil {
		return err
	}
	o.CoreParked = true
	return nil
}

// CoRePickUp picks up r using the CoRe gripper mounted on a channel
// pair, auto-mounting the tool first if needed.
func (o *Orchestrator) CoRePickUp(ctx context.Context, r *res.Resource, channelPairFront, channelPairRear int, deckWidth DeckWidthClass, dir GripDirection) error {
	if err := o.CoReMount(ctx, channelPairFront, channelPairRear, deckWidth); err != nil {
		return err
	}
	if err := validateAxisAligned(r); err != nil {
		return err
	}
	loc := r.GetAbsoluteLocation().Add(o.coreAdjustment())
	width := gripWidth(r, dir)

	kwargs := []fw.KV{
		{Key: "xs", Value: fw.Fixed(cmn.MMToTenths(loc.X), 5)},
		{Key: "yj", Value: fw.Fixed(cmn.MMToTenths(loc.Y), 4)},
		{Key: "zj", Value: fw.Fixed(cmn.MMToTenths(loc.Z), 4)},
		{Key: "gw", Value: fw.Fixed(cmn.MMToTenths(width), 4)},
		{Key: "pa", Value: channelPairFront},
		{Key: "pb", Value: channelPairRear},
	}
	_, err := o.send(ctx, fw.ModuleMaster, "ZP", kwargs)
	return err
}

// CoReDrop places the currently-gripped resource at target.
func (o *Orchestrator) CoReDrop(ctx context.Context, target *res.Resource, channelPairFront, channelPairRear int, dir GripDirection) error {
	if err := validateAxisAligned(target); err != nil {
		return err
	}
	loc := target.GetAbsoluteLocation().Add(o.coreAdjustment())
	width := gripWidth(target, dir)

	kwargs := []fw.KV{
		{Key: "xs", Value: fw.Fixed(cmn.MMToTenths(loc.X), 5)},
		{Key: "yj", Value: fw.Fixed(cmn.MMToTenths(loc.Y), 4)},
		{Key: "zj", Value: fw.Fixed(cmn.MMToTenths(loc.Z), 4)},
		{Key: "gw", Value: fw.Fixed(cmn.MMToTenths(width), 4)},
		{Key: "pa", Value: channelPairFront},
		{Key: "pb", Value: channelPairRear},
	}
	_, err := o.send(ctx, fw.ModuleMaster, "ZR", kwargs)
	return err
}
