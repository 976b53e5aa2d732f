// Package orch implements the Hamilton STAR orchestrator.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package orch

import (
	"context"
	"sort"

	"github.com/benchctl/labcore/cmn"
	"github.com/benchctl/labcore/errs"
	"github.com/benchctl/labcore/star/fw"
)

// minChannelPitchMM is the minimum pairwise Y gap between channels.
const minChannelPitchMM = 9.0

// yFrontLimitMM/yBackLimitMM are the mechanical Y travel limits: the
// frontmost channel may not be pushed past yFrontLimitMM, the rearmost
// not past yBackLimitMM.
const (
	yFrontLimitMM = 650.0
	yBackLimitMM  = 6.0
)

// SetChannelTraversalHeight validates and stores the channel traversal
// height (0 < h < 285).
func (o *Orchestrator) SetChannelTraversalHeight(mm float64) error {
	if !(mm > 0 && mm < 285) {
		return errs.InvalidArgument("star: channel traversal height %.2f out of bounds (0, 285)", mm)
	}
	o.ChannelTraversalHeightMM = mm
	return nil
}

// SetISWAPTraversalHeight validates and stores the iSWAP traversal
// height, same bound as the channel traversal height.
func (o *Orchestrator) SetISWAPTraversalHeight(mm float64) error {
	if !(mm > 0 && mm < 285) {
		return errs.InvalidArgument("star: iswap traversal height %.2f out of bounds (0, 285)", mm)
	}
	o.ISWAPTraversalHeightMM = mm
	return nil
}

// resolveTraversalHeight returns override if the caller supplied one
// (non-nil), else the channel traversal-height default.
func (o *Orchestrator) resolveTraversalHeight(override *float64) float64 {
	if override != nil {
		return *override
	}
	return o.ChannelTraversalHeightMM
}

// needISWAPParked parks the iSWAP (if installed and not already parked)
// before executing fn. Every operation that needs the arm out of the
// way runs through this wrapper.
func (o *Orchestrator) needISWAPParked(ctx context.Context, fn func(context.Context) error) error {
	if o.ISWAPInstalled && !o.ISWAPParked {
		if err := o.ParkISWAP(ctx); err != nil {
			return err
		}
	}
	return fn(ctx)
}

// ParkISWAP issues the iSWAP park command at the current iSWAP
// traversal height.
func (o *Orchestrator) ParkISWAP(ctx context.Context) error {
	th := cmn.MMToTenths(o.ISWAPTraversalHeightMM)
	_, err := o.send(ctx, fw.ModuleISWAP, "PA", []fw.KV{{Key: "th", Value: fw.Fixed(th, 4)}})
	if err != nil {
		return err
	}
	o.ISWAPParked = true
	return nil
}

// yMap is a sparse channel-index -> absolute-Y assignment, the input to
// PositionChannelsInYDirection.
type yMap map[int]float64

// PositionChannelsInYDirection resolves an absolute Y coordinate for
// every one of o.NumChannels channels given a sparse set of requested
// positions, keeping the Y ordering strictly monotonic. Unrequested
// channels default to being packed at minChannelPitchMM from their
// nearest requested neighbor. When makeSpace is true, the minimum-gap
// constraint is propagated outward from the requested channels:
// front-to-back on the front side (increasing Y, decreasing index) and
// back-to-front on the back side (decreasing Y, increasing index).
//
// Channel 0 is frontmost (largest Y); channel NumChannels-1 is rearmost
// (smallest Y): the result must satisfy y[0] > y[1] > ... > y[N-1].
func (o *Orchestrator) PositionChannelsInYDirection(requested map[int]float64, makeSpace bool) ([]float64, error) {
	n := o.NumChannels
	if n == 0 {
		return nil, errs.InvalidArgument("star: position_channels_in_y_direction: NumChannels is 0")
	}
	y := make([]float64, n)
	set := make([]bool, n)
	for ch, val := range requested {
		if ch < 0 || ch >= n {
			return nil, errs.InvalidArgument("star: channel %d out of range [0, %d)", ch, n)
		}
		y[ch] = val
		set[ch] = true
	}

	if makeSpace {
		// Find the requested indices in order and propagate the
		// minimum pitch outward from each, front side first (toward
		// index 0, increasing Y), then back side (toward index n-1,
		// decreasing Y).
		var indices []int
		for ch := range requested {
			indices = append(indices, ch)
		}
		sort.Ints(indices)

		for _, ch := range indices {
			for i := ch - 1; i >= 0; i-- {
				minY := y[i+1] + minChannelPitchMM
				if !set[i] || y[i] < minY {
					y[i] = minY
					set[i] = true
				} else {
					break
				}
			}
			for i := ch + 1; i < n; i++ {
				maxY := y[i-1] - minChannelPitchMM
				if !set[i] || y[i] > maxY {
					y[i] = maxY
					set[i] = true
				} else {
					break
				}
			}
		}
	}

	// Fill any channel the propagation didn't touch by packing it
	// against its nearest set neighbor.
	for i := 1; i < n; i++ {
		if !set[i] && set[i-1] {
			y[i] = y[i-1] - minChannelPitchMM
			set[i] = true
		}
	}
	for i := n - 2; i >= 0; i-- {
		if !set[i] {
			y[i] = y[i+1] + minChannelPitchMM
			set[i] = true
		}
	}

	for i := 1; i < n; i++ {
		if y[i-1]-y[i] < minChannelPitchMM-1e-9 {
			return nil, errs.InvalidArgument("star: channel pitch violated between %d and %d", i-1, i)
		}
	}
	if y[0] > yFrontLimitMM {
		return nil, errs.InvalidArgument("star: channel 0 Y %.2f exceeds front limit %.2f", y[0], yFrontLimitMM)
	}
	if y[n-1] < yBackLimitMM {
		return nil, errs.InvalidArgument("star: channel %d Y %.2f below back limit %.2f", n-1, y[n-1], yBackLimitMM)
	}
	return y, nil
}
