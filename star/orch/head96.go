// Package orch implements the Hamilton STAR orchestrator.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package orch

import (
	"context"

	"github.com/benchctl/labcore/cmn"
	"github.com/benchctl/labcore/errs"
	"github.com/benchctl/labcore/res"
	"github.com/benchctl/labcore/star/fw"
)

// Head96 geometry constants: 9mm channel size, 9mm column pitch across
// 12 columns and 9mm row pitch across 8 rows, the fixed CoRe-96 head
// layout.
const (
	Head96ChannelSizeMM = 9.0
	Head96ColPitchMM    = 9.0
	Head96RowPitchMM    = 9.0
	Head96NumCols       = 12
	Head96NumRows       = 8
)

// head96Origin returns the absolute (x, y) of channel (0,0) of the
// 96-head when the head is centered over target.
func head96Origin(target *res.Resource) (x0, y0 float64) {
	loc := target.GetAbsoluteLocation()
	spanX := float64(Head96NumCols-1) * Head96ColPitchMM
	spanY := float64(Head96NumRows-1) * Head96RowPitchMM
	centerX := loc.X + target.SizeX/2
	centerY := loc.Y + target.SizeY/2
	return centerX - spanX/2, centerY - spanY/2
}

// Head96Pattern is a 96-bit channel mask, row-major (row 0 = A, col 0 =
// column 1), for 96-head aspirate/dispense.
type Head96Pattern [Head96NumRows][Head96NumCols]bool

func (p Head96Pattern) String() string {
	buf := make([]byte, 0, Head96NumRows*Head96NumCols)
	for r := 0; r < Head96NumRows; r++ {
		for c := 0; c < Head96NumCols; c++ {
			if p[r][c] {
				buf = append(buf, '1')
			} else {
				buf = append(buf, '0')
			}
		}
	}
	return string(buf)
}

// PickUpTips96 picks up a full plate of tips under the 96-head from
// tipRack, using every channel the pattern selects (typically all 96).
func (o *Orchestrator) PickUpTips96(ctx context.Context, tipRack *res.Resource, zOffsetMM float64, traversalHeightMM *float64) error {
	x0, y0 := head96Origin(tipRack)
	th := cmn.MMToTenths(o.resolveTraversalHeight(traversalHeightMM))
	kwargs := []fw.KV{
		{Key: "xp", Value: fw.Fixed(cmn.MMToTenths(x0), 5)},
		{Key: "yp", Value: fw.Fixed(cmn.MMToTenths(y0), 4)},
		{Key: "zp", Value: fw.Fixed(cmn.MMToTenths(tipRack.GetAbsoluteLocation().Z+zOffsetMM), 4)},
		{Key: "th", Value: fw.Fixed(th, 4)},
	}
	_, err := o.send(ctx, fw.ModuleCoRe96, "TP", kwargs)
	return err
}

// DropTips96 drops the 96-head's tips, either back to tipRack or to
// waste when tipRack is nil.
func (o *Orchestrator) DropTips96(ctx context.Context, tipRack *res.Resource, zOffsetMM float64, traversalHeightMM *float64) error {
	th := cmn.MMToTenths(o.resolveTraversalHeight(traversalHeightMM))
	kwargs := []fw.KV{{Key: "th", Value: fw.Fixed(th, 4)}}
	if tipRack != nil {
		x0, y0 := head96Origin(tipRack)
		kwargs = append(kwargs,
			fw.KV{Key: "xp", Value: fw.Fixed(cmn.MMToTenths(x0), 5)},
			fw.KV{Key: "yp", Value: fw.Fixed(cmn.MMToTenths(y0), 4)},
			fw.KV{Key: "zp", Value: fw.Fixed(cmn.MMToTenths(tipRack.GetAbsoluteLocation().Z+zOffsetMM), 4)},
		)
	}
	_, err := o.send(ctx, fw.ModuleCoRe96, "TR", kwargs)
	return err
}

// Aspirate96 aspirates volumeUl from every well of plate the pattern
// selects: parameters broadcast a single scalar onto a 96-bit channel
// pattern rather than varying per well.
func (o *Orchestrator) Aspirate96(ctx context.Context, plate *res.Resource, pattern Head96Pattern, volumeUl, liquidHeightMM float64, traversalHeightMM *float64) error {
	if volumeUl <= 0 {
		return errs.InvalidArgument("star: aspirate96: non-positive volume %.3f", volumeUl)
	}
	x0, y0 := head96Origin(plate)
	z := plate.GetAbsoluteLocation().Z + materialThicknessMM + liquidHeightMM
	class := o.resolveClass(0, true, false, "", false, false)

	th := cmn.MMToTenths(o.resolveTraversalHeight(traversalHeightMM))
	kwargs := []fw.KV{
		{Key: "cp", Value: pattern.String()},
		{Key: "xp", Value: fw.Fixed(cmn.MMToTenths(x0), 5)},
		{Key: "yp", Value: fw.Fixed(cmn.MMToTenths(y0), 4)},
		{Key: "zp", Value: fw.Fixed(cmn.MMToTenths(z), 4)},
		{Key: "av", Value: fw.Fixed(cmn.UlToTenths(volumeUl), 5)},
		{Key: "sr", Value: fw.Fixed(class.AspirationFlowRateTenths, 4)},
		{Key: "th", Value: fw.Fixed(th, 4)},
	}
	_, err := o.send(ctx, fw.ModuleCoRe96, "AS", kwargs)
	return err
}

// Dispense96 mirrors Aspirate96 for a dispense.
func (o *Orchestrator) Dispense96(ctx context.Context, plate *res.Resource, pattern Head96Pattern, volumeUl, liquidHeightMM float64, jet, blowOut bool, traversalHeightMM *float64) error {
	if volumeUl <= 0 {
		return errs.InvalidArgument("star: dispense96: non-positive volume %.3f", volumeUl)
	}
	x0, y0 := head96Origin(plate)
	z := plate.GetAbsoluteLocation().Z + materialThicknessMM + liquidHeightMM
	class := o.resolveClass(0, true, false, "", jet, blowOut)

	th := cmn.MMToTenths(o.resolveTraversalHeight(traversalHeightMM))
	kwargs := []fw.KV{
		{Key: "cp", Value: pattern.String()},
		{Key: "xp", Value: fw.Fixed(cmn.MMToTenths(x0), 5)},
		{Key: "yp", Value: fw.Fixed(cmn.MMToTenths(y0), 4)},
		{Key: "zp", Value: fw.Fixed(cmn.MMToTenths(z), 4)},
		{Key: "dv", Value: fw.Fixed(cmn.UlToTenths(volumeUl), 5)},
		{Key: "dr", Value: fw.Fixed(class.DispenseFlowRateTenths, 4)},
		{Key: "dm", Value: dispenseMode(jet, blowOut, false)},
		{Key: "th", Value: fw.Fixed(th, 4)},
	}
	_, err := o.send(ctx, fw.ModuleCoRe96, "DS", kwargs)
	return err
}

// FullPattern96 returns a Head96Pattern with every channel selected.
func FullPattern96() Head96Pattern {
	var p Head96Pattern
	for r := range p {
		for c := range p[r] {
			p[r][c] = true
		}
	}
	return p
}
