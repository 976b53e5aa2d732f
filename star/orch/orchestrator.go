// Package orch implements the Hamilton STAR orchestrator: it turns
// resource-anchored pipetting/transport operations into firmware
// parameter vectors, applies the traversal/parking invariants, and
// demultiplexes per-channel errors on the way back.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package orch

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/benchctl/labcore/cmn"
	"github.com/benchctl/labcore/errs"
	"github.com/benchctl/labcore/metrics"
	"github.com/benchctl/labcore/res/tip"
	"github.com/benchctl/labcore/star/fw"
	"github.com/benchctl/labcore/star/lc"
)

// MaxChannels is the largest pipetting-channel count the STAR firmware
// addresses (P1..PG).
const MaxChannels = 16

// Transport is the minimal wire interface the orchestrator needs: send
// a framed ASCII command, receive the correlated response line.
type Transport interface {
	SendRecv(ctx context.Context, req string) (resp string, err error)
}

// Orchestrator drives a STAR backend over Transport. It holds the
// session state: installation/parked flags, the channel count,
// traversal heights, and the stateful tip-type index table pickup
// geometry depends on.
type Orchestrator struct {
	t      Transport
	log    cmn.Logger
	ids    fw.IDCounter
	liquid *lc.Table

	NumChannels int

	ISWAPInstalled bool
	ISWAPParked    bool
	CoreParked     bool

	ChannelTraversalHeightMM float64
	ISWAPTraversalHeightMM   float64

	// CoreAdjustment is the CoRe-gripper mount offset relative to its
	// nominal channel position.
	CoreAdjustment [3]float64

	// ExtendedConf holds raw extended configuration values (deck width
	// class, installed modules). It starts empty: Setup does not fill it
	// and no orchestrator method reads it.
	ExtendedConf map[string]string

	tipTypeIndex map[tip.Size]int
	nextTipIndex int

	metrics *metrics.Set
}

// New builds an Orchestrator over t. reg may be nil to skip metrics
// registration (e.g. in tests).
func New(t Transport, log cmn.Logger, reg prometheus.Registerer) *Orchestrator {
	if log == nil {
		log = cmn.NopLogger()
	}
	return &Orchestrator{
		t:                        t,
		log:                      log,
		liquid:                   lc.NewTable(),
		ChannelTraversalHeightMM: 245,
		ISWAPTraversalHeightMM:   284,
		ExtendedConf:             map[string]string{},
		tipTypeIndex:             map[tip.Size]int{},
		metrics:                  metrics.NewSet(reg, "star"),
	}
}

// LiquidClasses exposes the mutable liquid-class table so callers can
// Register calibrations before issuing aspirate/dispense calls.
func (o *Orchestrator) LiquidClasses() *lc.Table { return o.liquid }

// send encodes module/cmd/kwargs, writes it, awaits the correlated
// response, and translates a firmware error (if any) into the unified
// taxonomy. Transient DeviceConnectionFailed errors are retried a
// bounded number of times.
func (o *Orchestrator) send(ctx context.Context, module fw.Module, cmd string, kwargs []fw.KV) (*fw.Response, error) {
	return o.sendParsed(ctx, module, cmd, kwargs, "")
}

func (o *Orchestrator) sendParsed(ctx context.Context, module fw.Module, cmd string, kwargs []fw.KV, respFormat string) (*fw.Response, error) {
	id := o.ids.Next()
	req := fw.Encode(module, cmd, id, kwargs)

	var lastErr error
	for attempt := 0; attempt <= errs.MaxRetries; attempt++ {
		start := time.Now()
		raw, err := o.t.SendRecv(ctx, req)
		if err != nil {
			lastErr = errs.Wrap(errs.KindTimeout, "star: transport send/recv", err)
			o.metrics.Observe(start, errs.KindTimeout.String())
			continue
		}
		if fe := fw.CheckError(raw); fe != nil {
			tax := fe.ToTaxonomy()
			o.metrics.Observe(start, tax.Kind.String())
			if tax.Kind == errs.KindDeviceConnectionFailed && attempt < errs.MaxRetries {
				lastErr = tax
				continue
			}
			return nil, tax
		}
		o.metrics.Observe(start, "")
		if respFormat == "" {
			return &fw.Response{Raw: raw}, nil
		}
		fields, err := fw.Parse(raw, respFormat)
		if err != nil {
			return nil, errs.Wrap(errs.KindProtocolError, "star: parsing response", err)
		}
		return &fw.Response{Raw: raw, Fields: fields}, nil
	}
	return nil, lastErr
}

// Setup records numChannels and iswapInstalled as given, without
// querying firmware for them, and initializes the master and, when
// installed, the iSWAP. It is non-transactional: on a mid-sequence
// failure the caller must inspect ISWAPParked/CoreParked/NumChannels
// to decide how to recover.
func (o *Orchestrator) Setup(ctx context.Context, numChannels int, iswapInstalled bool) error {
	if numChannels < 1 || numChannels > MaxChannels {
		return errs.InvalidArgument("star: setup: numChannels %d out of range [1, %d]", numChannels, MaxChannels)
	}
	o.NumChannels = numChannels
	o.ISWAPInstalled = iswapInstalled

	if _, err := o.send(ctx, fw.ModuleMaster, "ID", nil); err != nil {
		return fmt.Errorf("star: setup: initializing master: %w", err)
	}
	if iswapInstalled {
		if _, err := o.send(ctx, fw.ModuleISWAP, "ID", nil); err != nil {
			return fmt.Errorf("star: setup: initializing iswap: %w", err)
		}
		o.ISWAPParked = true
	}
	o.log.Infof("star: setup complete: %d channels, iswap=%v", numChannels, iswapInstalled)
	return nil
}

// firmwareYear reports the firmware build year reported by a PIP version
// query, by matching a 4-digit year in the raw response. Z-touch probing
// requires firmware year >= 2022.
func firmwareYear(raw string) (int, bool) {
	// The version string embeds the build date as YYYYMMDD somewhere in
	// the trailing free-text field; scan for the first run of 8 digits.
	digitsAt := -1
	for i := 0; i+8 <= len(raw); i++ {
		allDigits := true
		for j := 0; j < 8; j++ {
			if raw[i+j] < '0' || raw[i+j] > '9' {
				allDigits = false
				break
			}
		}
		if allDigits {
			digitsAt = i
			break
		}
	}
	if digitsAt < 0 {
		return 0, false
	}
	year := 0
	for j := 0; j < 4; j++ {
		year = year*10 + int(raw[digitsAt+j]-'0')
	}
	return year, true
}
