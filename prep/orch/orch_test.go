// Package orch implements the Prep "Cavro" orchestrator.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package orch

import (
	"context"
	"testing"

	"github.com/benchctl/labcore/prep/proto"
	"github.com/benchctl/labcore/res/tip"
	"github.com/benchctl/labcore/res/well"
)

// fakeTransport replies to every SendRecv with a canned HcSuccess
// result, echoing the request's command id, and optionally appends the
// fragments next returns.
type fakeTransport struct {
	sent []sentFrame
	next func(commandID uint16) []proto.DataFragment
}

type sentFrame struct {
	raw    []byte
	source proto.HarpAddress
	dest   proto.HarpAddress
	id     uint16
	hoi    *proto.HoiPacket2
}

func (f *fakeTransport) SendRecv(_ context.Context, req []byte) ([]byte, error) {
	ip, _, err := proto.DecodeIpPacket(req)
	if err != nil {
		return nil, err
	}
	harp, err := proto.DecodeHarpPacket(ip.Payload)
	if err != nil {
		return nil, err
	}
	hoi, err := proto.DecodeHoiPacket2(harp.Payload)
	if err != nil {
		return nil, err
	}
	f.sent = append(f.sent, sentFrame{
		raw: req, source: harp.SourceAddr, dest: harp.DestAddr, id: hoi.ActionID, hoi: hoi,
	})

	var extra []proto.DataFragment
	if f.next != nil {
		extra = f.next(hoi.ActionID)
	}
	respFrags := append([]proto.DataFragment{{Type: proto.TypeHcResult, Value: int(proto.HcSuccess)}}, extra...)
	respHoi := &proto.HoiPacket2{
		InterfaceID: hoiInterfaceID,
		Action:      harpPayloadCommandResponse,
		ActionID:    hoi.ActionID,
		Fragments:   respFrags,
	}
	hoiBytes, err := respHoi.Encode()
	if err != nil {
		return nil, err
	}
	respHarp := &proto.HarpPacket{
		SourceAddr: harp.DestAddr,
		DestAddr:   harp.SourceAddr,
		Sequence:   harp.Sequence,
		Protocol:   harp.Protocol,
		Action:     harpPayloadCommandResponse,
		Payload:    hoiBytes,
	}
	respIP := &proto.IpPacket{
		Protocol:     ip.Protocol,
		VersionMajor: ip.VersionMajor,
		VersionMinor: ip.VersionMinor,
		Payload:      respHarp.Encode(),
	}
	return respIP.Encode(), nil
}

func newTestOrch() (*Orchestrator, *fakeTransport) {
	ft := &fakeTransport{}
	return New(ft, nil, nil), ft
}

func TestParkUsesSystemEndpoint(t *testing.T) {
	o, ft := newTestOrch()
	if err := o.Park(context.Background()); err != nil {
		t.Fatalf("Park: %v", err)
	}
	if len(ft.sent) != 1 {
		t.Fatalf("expected 1 sent frame, got %d", len(ft.sent))
	}
	got := ft.sent[0]
	if got.id != sysPark {
		t.Fatalf("expected command id %d, got %d", sysPark, got.id)
	}
	if got.source != SystemSource || got.dest != SystemDestination {
		t.Fatalf("expected system address pair, got %v -> %v", got.source, got.dest)
	}
}

func TestSetDeckLightFramesAndRoundTrips(t *testing.T) {
	o, ft := newTestOrch()
	if err := o.SetDeckLight(context.Background(), 255, 0, 0, 0); err != nil {
		t.Fatalf("SetDeckLight: %v", err)
	}
	got := ft.sent[0]
	if got.id != sysSetDeckLight {
		t.Fatalf("expected command id %d, got %d", sysSetDeckLight, got.id)
	}
	if got.source != DeckLightSource {
		t.Fatalf("expected deck-light source endpoint, got %v", got.source)
	}

	// The outgoing frame must decode back into 4 UInt8Bit fragments
	// carrying the requested channel values.
	if len(got.hoi.Fragments) != 4 {
		t.Fatalf("expected 4 fragments, got %d", len(got.hoi.Fragments))
	}
	want := []int{255, 0, 0, 0}
	for i, f := range got.hoi.Fragments {
		if f.Type != proto.TypeUInt8 {
			t.Fatalf("fragment %d has type %d, want UInt8Bit", i, f.Type)
		}
		if f.Value.(int) != want[i] {
			t.Fatalf("fragment %d = %v, want %d", i, f.Value, want[i])
		}
	}
}

func TestPickUpTipsUsesGantryEndpointAndFillsSpot(t *testing.T) {
	o, ft := newTestOrch()
	spot := tip.NewSpot("spot", 9, 9, 5)
	tp := &tip.Tip{MaxVolumeUl: 300, TipLengthMM: 59.9, FittingDepthMM: 8, Size: tip.SizeStandardVolume}
	ops := []PickUpTipOp{{Channel: ChannelFront, Spot: spot, Tip: tp}}
	if err := o.PickUpTips(context.Background(), ops, 0); err != nil {
		t.Fatalf("PickUpTips: %v", err)
	}
	got := ft.sent[0]
	if got.id != cmdPickUpTips {
		t.Fatalf("expected command id %d, got %d", cmdPickUpTips, got.id)
	}
	if got.source != GantrySource || got.dest != PipettorDestination {
		t.Fatalf("expected gantry -> pipettor pair, got %v -> %v", got.source, got.dest)
	}
	if len(got.hoi.Fragments) != 7 {
		t.Fatalf("expected 7 parameter fragments, got %d", len(got.hoi.Fragments))
	}
	if got.hoi.Fragments[0].Type != proto.TypeStructureArray {
		t.Fatalf("expected leading StructureArray of tip positions")
	}
	if _, err := spot.Empty(); err != nil {
		t.Fatalf("expected spot to hold a tip after pickup: %v", err)
	}
}

func TestPickUpTipsRejectsTooManyChannels(t *testing.T) {
	o, _ := newTestOrch()
	spot := tip.NewSpot("spot", 9, 9, 5)
	tp := &tip.Tip{MaxVolumeUl: 300}
	ops := []PickUpTipOp{
		{Channel: ChannelFront, Spot: spot, Tip: tp},
		{Channel: ChannelRear, Spot: spot, Tip: tp},
		{Channel: ChannelRear, Spot: spot, Tip: tp},
	}
	if err := o.PickUpTips(context.Background(), ops, 0); err == nil {
		t.Fatalf("expected error for 3 channels")
	}
}

func TestAspirateRejectsNonPositiveVolume(t *testing.T) {
	o, _ := newTestOrch()
	w := well.NewWell("A1", 9, 9, 12, 2000)
	ops := []AspirateOp{{Channel: ChannelFront, Well: w, VolumeUl: 0}}
	if err := o.Aspirate(context.Background(), ops, 0); err == nil {
		t.Fatalf("expected error for non-positive volume")
	}
}

func TestAspirateRejectsNonRoundWell(t *testing.T) {
	o, _ := newTestOrch()
	w := well.NewWell("A1", 9, 12, 12, 2000)
	ops := []AspirateOp{{Channel: ChannelFront, Well: w, VolumeUl: 10}}
	if err := o.Aspirate(context.Background(), ops, 0); err == nil {
		t.Fatalf("expected error for a non-round well")
	}
}

func TestDispenseAddsLiquidToWell(t *testing.T) {
	o, ft := newTestOrch()
	w := well.NewWell("A1", 9, 9, 12, 2000)
	ops := []DispenseOp{{Channel: ChannelFront, Well: w, VolumeUl: 50, Liquid: "water"}}
	if err := o.Dispense(context.Background(), ops, 0); err != nil {
		t.Fatalf("Dispense: %v", err)
	}
	if w.Volume() != 50 {
		t.Fatalf("expected well volume 50, got %v", w.Volume())
	}
	if ft.sent[0].id != cmdDispense {
		t.Fatalf("expected command id %d, got %d", cmdDispense, ft.sent[0].id)
	}
}

func TestGetDeckLightParsesFourChannels(t *testing.T) {
	o, _ := newTestOrch()
	// Reuse one transport but inject a reply for the query.
	o.t.(*fakeTransport).next = func(commandID uint16) []proto.DataFragment {
		if commandID != sysGetDeckLight {
			return nil
		}
		return []proto.DataFragment{
			{Type: proto.TypeUInt8, Value: 10},
			{Type: proto.TypeUInt8, Value: 20},
			{Type: proto.TypeUInt8, Value: 30},
			{Type: proto.TypeUInt8, Value: 40},
		}
	}
	w, r, g, b, err := o.GetDeckLight(context.Background())
	if err != nil {
		t.Fatalf("GetDeckLight: %v", err)
	}
	if w != 10 || r != 20 || g != 30 || b != 40 {
		t.Fatalf("unexpected light values %d %d %d %d", w, r, g, b)
	}
}

func TestSequenceWrapsBelow256(t *testing.T) {
	o, _ := newTestOrch()
	seen := map[byte]bool{}
	for i := 0; i < 600; i++ {
		seen[o.nextSeq()] = true
	}
	if seen[255] {
		t.Fatalf("sequence number 255 must never be issued (wraps at 0xFF)")
	}
}
