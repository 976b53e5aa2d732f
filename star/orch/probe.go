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
	"github.com/benchctl/labcore/res"
	"github.com/benchctl/labcore/star/fw"
)

// cLLD drive increments: fixed conversions between firmware drive
// increments and millimeters for the Z and Y drives a capacitive-LLD
// probe walks.
const (
	zDriveIncToMM = 0.01072765
	yDriveIncToMM = 0.046302082
)

// zDriveMinInc/zDriveMaxInc bound the firmware's raw Z-drive increments; a
// converted height outside this range cannot be reached.
const (
	zDriveMinInc = 0
	zDriveMaxInc = 20000
)

// ProbeZ performs a capacitive-LLD Z-height probe with channel at r's
// absolute (x, y), starting the search from startHeightMM and returning
// the detected liquid surface height in mm.
func (o *Orchestrator) ProbeZ(ctx context.Context, channel int, r *res.Resource, offset geo.Coordinate, startHeightMM float64) (float64, error) {
	loc := r.GetAbsoluteLocation().Add(offset)
	startInc := int(startHeightMM / zDriveIncToMM)
	if startInc < zDriveMinInc || startInc > zDriveMaxInc {
		return 0, errs.InvalidArgument("star: probe_z: start height %.2fmm outside drive range", startHeightMM)
	}

	kwargs := []fw.KV{
		{Key: "tm", Value: channelPattern([]int{channel}, o.NumChannels)},
		{Key: "xp", Value: fw.Fixed(cmn.MMToTenths(loc.X), 5)},
		{Key: "yp", Value: fw.Fixed(cmn.MMToTenths(loc.Y), 4)},
		{Key: "zs", Value: fw.Fixed(startInc, 5)},
	}
	resp, err := o.sendParsed(ctx, fw.ModuleMaster, "ZL", kwargs, "lh#####")
	if err != nil {
		return 0, err
	}
	heightInc, err := fw.RequireInt(resp.Fields, "lh")
	if err != nil {
		return 0, errs.Wrap(errs.KindProtocolError, "star: probe_z: parsing lh", err)
	}
	return float64(heightInc) * zDriveIncToMM, nil
}

// zTouchMinFirmwareYear is the oldest firmware build year that
// supports Z-touch probing.
const zTouchMinFirmwareYear = 2022

// SupportsZTouch reports whether the firmware identified by a PIP
// version-query response supports Z-touch probing.
func SupportsZTouch(versionResponse string) bool {
	year, ok := firmwareYear(versionResponse)
	return ok && year >= zTouchMinFirmwareYear
}

// ProbeZTouch performs a Z-touch probe (the `ZH` command), correcting
// for the probing tip's length, and returns the detected surface
// height in mm. Callers must confirm SupportsZTouch first; this method
// does not re-query firmware version on every call.
func (o *Orchestrator) ProbeZTouch(ctx context.Context, channel int, r *res.Resource, offset geo.Coordinate, tipLengthMM float64) (float64, error) {
	loc := r.GetAbsoluteLocation().Add(offset)
	kwargs := []fw.KV{
		{Key: "tm", Value: channelPattern([]int{channel}, o.NumChannels)},
		{Key: "xp", Value: fw.Fixed(cmn.MMToTenths(loc.X), 5)},
		{Key: "yp", Value: fw.Fixed(cmn.MMToTenths(loc.Y), 4)},
	}
	resp, err := o.sendParsed(ctx, fw.ModuleMaster, "ZH", kwargs, "zh#####")
	if err != nil {
		return 0, err
	}
	zhTenths, err := fw.RequireInt(resp.Fields, "zh")
	if err != nil {
		return 0, errs.Wrap(errs.KindProtocolError, "star: probe_z_touch: parsing zh", err)
	}
	return cmn.TenthsToMM(zhTenths) - tipLengthMM, nil
}
