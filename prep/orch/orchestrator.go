// Package orch implements the Prep "Cavro" orchestrator: structured
// parameter objects per operation, fixed command ids with per-command
// HARP address pairs, and a 2-channel (front/rear) pipetting model.
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
	"github.com/benchctl/labcore/prep/proto"
)

// The device exposes several HARP endpoints; each command addresses a
// fixed (source, destination) pair.
var (
	// PipettorSource/PipettorDestination carry the plate-handling and
	// channel-level pipetting commands.
	PipettorSource      = proto.HarpAddress{Node: 0x0002, Unit: 0x0004, Sub: 0x0006}
	PipettorDestination = proto.HarpAddress{Node: 0xE000, Unit: 0x0001, Sub: 0x1000}

	// SystemSource/SystemDestination carry device lifecycle and
	// configuration commands (initialize, park, storage, lights).
	SystemSource      = proto.HarpAddress{Node: 0x0002, Unit: 0x0004, Sub: 0x0004}
	SystemDestination = proto.HarpAddress{Node: 0x0001, Unit: 0x0001, Sub: 0x1500}

	// GantrySource is the endpoint gantry-motion and tip-handling
	// commands originate from.
	GantrySource = proto.HarpAddress{Node: 0x0002, Unit: 0x0007, Sub: 0x0006}

	// DeckLightSource is the endpoint the set_deck_light command
	// originates from.
	DeckLightSource = proto.HarpAddress{Node: 0x0002, Unit: 0x0005, Sub: 0x0002}

	// TravelConfigSource/TravelConfigDestination carry the Z-travel
	// configuration command.
	TravelConfigSource      = proto.HarpAddress{Node: 0x0002, Unit: 0x0004, Sub: 0x0005}
	TravelConfigDestination = proto.HarpAddress{Node: 0x0001, Unit: 0x0001, Sub: 0xBEF0}
)

// HARP payload descriptions: every outgoing command carries
// CommandRequest with the response-required bit set, and expects
// CommandResponse back; CommandException marks a firmware-reported
// failure.
const (
	harpPayloadStatusRequest    = 0
	harpPayloadStatusResponse   = 1
	harpPayloadStatusException  = 2
	harpPayloadCommandRequest   = 3
	harpPayloadCommandResponse  = 4
	harpPayloadCommandException = 5
	harpPayloadCommandAck       = 6

	harpResponseRequiredBit = 1 << 4
)

// harpProtocolHoi2 marks a HARP payload as a HoiPacket2.
const harpProtocolHoi2 = 2

// ipProtocolHarp2 and the 3.0 version are the fixed IpPacket envelope
// the Prep bridge expects on every frame.
const (
	ipProtocolHarp2 = 6
	ipVersionMajor  = 3
	ipVersionMinor  = 0
)

// hoiInterfaceID is the single HOI interface the device exposes.
const hoiInterfaceID = 1

// hoiActionCommandRequest is the HoiPacket2-level request action.
const hoiActionCommandRequest = 3

// Transport is the minimal wire interface the orchestrator needs: send
// a framed request, receive the framed response.
type Transport interface {
	SendRecv(ctx context.Context, req []byte) (resp []byte, err error)
}

// Orchestrator drives a Prep device over Transport, framing every
// command as IpPacket(HarpPacket(HoiPacket2(fragments))).
type Orchestrator struct {
	t       Transport
	log     cmn.Logger
	seq     uint32
	metrics *metrics.Set
}

// New builds an Orchestrator over t. log and reg may be nil to skip
// logging and metrics registration (e.g. in tests).
func New(t Transport, log cmn.Logger, reg prometheus.Registerer) *Orchestrator {
	if log == nil {
		log = cmn.NopLogger()
	}
	return &Orchestrator{t: t, log: log, metrics: metrics.NewSet(reg, "prep")}
}

// nextSeq hands out HARP sequence numbers, wrapping at 0xFF exactly
// the way the device's own host software does.
func (o *Orchestrator) nextSeq() byte {
	o.seq++
	return byte(o.seq % 0xFF)
}

// call frames commandID with fragments, sends it from source to dest,
// and returns the response fragments after the leading HcResult. A
// retryable HcResult (busy) is retried a bounded number of times
// before surfacing.
func (o *Orchestrator) call(ctx context.Context, commandID int, source, dest proto.HarpAddress, fragments []proto.DataFragment) ([]proto.DataFragment, error) {
	hoi := &proto.HoiPacket2{
		InterfaceID: hoiInterfaceID,
		Action:      hoiActionCommandRequest,
		ActionID:    uint16(commandID),
		Version:     0,
		Fragments:   fragments,
	}
	hoiBytes, err := hoi.Encode()
	if err != nil {
		return nil, fmt.Errorf("prep: encoding command %d: %w", commandID, err)
	}
	harp := &proto.HarpPacket{
		SourceAddr: source,
		DestAddr:   dest,
		Sequence:   o.nextSeq(),
		Protocol:   harpProtocolHoi2,
		Action:     harpResponseRequiredBit | harpPayloadCommandRequest,
		Version:    0,
		Payload:    hoiBytes,
	}
	ip := &proto.IpPacket{
		Protocol:     ipProtocolHarp2,
		VersionMajor: ipVersionMajor,
		VersionMinor: ipVersionMinor,
		Payload:      harp.Encode(),
	}
	req := ip.Encode()

	for attempt := 0; ; attempt++ {
		start := time.Now()
		respBytes, err := o.t.SendRecv(ctx, req)
		if err != nil {
			o.metrics.Observe(start, errs.KindTimeout.String())
			return nil, err
		}
		respHoi, err := o.decodeResponse(respBytes, uint16(commandID))
		if err != nil {
			o.metrics.Observe(start, errs.KindProtocolError.String())
			return nil, err
		}
		if len(respHoi.Fragments) == 0 || respHoi.Fragments[0].Type != proto.TypeHcResult {
			o.metrics.Observe(start, "")
			return respHoi.Fragments, nil
		}
		resultCode, ok := respHoi.Fragments[0].Value.(int)
		if !ok {
			o.metrics.Observe(start, errs.KindProtocolError.String())
			return nil, errs.Wrap(errs.KindProtocolError, "prep: result fragment is not an integer", nil)
		}
		result := proto.HcResult(resultCode)
		if result.OK() {
			o.metrics.Observe(start, "")
			return respHoi.Fragments[1:], nil
		}
		if result.Retryable() && attempt < errs.MaxRetries {
			o.metrics.Observe(start, "retry")
			o.log.Warnf("prep: command %d busy, retrying (%d/%d)", commandID, attempt+1, errs.MaxRetries)
			continue
		}
		tax := result.ToTaxonomy()
		o.metrics.Observe(start, tax.Kind.String())
		return nil, tax
	}
}

// decodeResponse unwraps the three framing layers and checks the
// command-id echo; a CommandException HARP action is surfaced as a
// protocol error even before the HcResult is inspected.
func (o *Orchestrator) decodeResponse(respBytes []byte, wantID uint16) (*proto.HoiPacket2, error) {
	respIP, _, err := proto.DecodeIpPacket(respBytes)
	if err != nil {
		return nil, err
	}
	if respIP.Protocol != ipProtocolHarp2 {
		return nil, errs.Wrap(errs.KindProtocolError,
			fmt.Sprintf("prep: unexpected IP protocol %d", respIP.Protocol), nil)
	}
	respHarp, err := proto.DecodeHarpPacket(respIP.Payload)
	if err != nil {
		return nil, err
	}
	if respHarp.Protocol != harpProtocolHoi2 {
		return nil, errs.Wrap(errs.KindProtocolError,
			fmt.Sprintf("prep: unexpected HARP protocol %d", respHarp.Protocol), nil)
	}
	if respHarp.Action&0x0F == harpPayloadCommandException {
		return nil, errs.Wrap(errs.KindProtocolError, "prep: device reported a command exception", nil)
	}
	respHoi, err := proto.DecodeHoiPacket2(respHarp.Payload)
	if err != nil {
		return nil, err
	}
	if respHoi.ActionID != wantID {
		return nil, errs.Wrap(errs.KindProtocolError,
			fmt.Sprintf("prep: response echoes command id %d, want %d", respHoi.ActionID, wantID), nil)
	}
	return respHoi, nil
}
