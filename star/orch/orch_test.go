// Package orch implements the Hamilton STAR orchestrator.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package orch

import (
	"context"
	"strings"
	"testing"

	"github.com/benchctl/labcore/errs"
	"github.com/benchctl/labcore/geo"
	"github.com/benchctl/labcore/res"
	"github.com/benchctl/labcore/res/tip"
	"github.com/benchctl/labcore/res/well"
	"github.com/benchctl/labcore/star/fw"
)

// fakeTransport records every request it's given and replies with a
// canned response (or echoes the request's id with no fields).
type fakeTransport struct {
	sent []string
	next func(req string) string
}

func (f *fakeTransport) SendRecv(_ context.Context, req string) (string, error) {
	f.sent = append(f.sent, req)
	if f.next != nil {
		return f.next(req), nil
	}
	return "C0ID" + req[4:8], nil
}

func newTestOrch(t *testing.T, numChannels int) (*Orchestrator, *fakeTransport) {
	t.Helper()
	ft := &fakeTransport{}
	o := New(ft, nil, nil)
	o.NumChannels = numChannels
	return o, ft
}

// After positioning channels in Y with makeSpace set, the
// result is strictly descending with >= 9mm pitch and within mechanical
// limits.
func TestPositionChannelsInYDirectionMakeSpace(t *testing.T) {
	o, _ := newTestOrch(t, 5)
	y, err := o.PositionChannelsInYDirection(map[int]float64{2: 100}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(y); i++ {
		if y[i-1]-y[i] < minChannelPitchMM-1e-9 {
			t.Fatalf("pitch violated at %d: %v", i, y)
		}
	}
	if y[2] != 100 {
		t.Fatalf("requested channel moved: %v", y)
	}
	if y[0] > yFrontLimitMM || y[len(y)-1] < yBackLimitMM {
		t.Fatalf("limits violated: %v", y)
	}
}

func TestPositionChannelsInYDirectionOutOfRange(t *testing.T) {
	o, _ := newTestOrch(t, 3)
	_, err := o.PositionChannelsInYDirection(map[int]float64{5: 10}, true)
	if !errs.Is(err, errs.KindInvalidArgument) {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestPositionChannelsInYDirectionExceedsFrontLimit(t *testing.T) {
	o, _ := newTestOrch(t, 2)
	_, err := o.PositionChannelsInYDirection(map[int]float64{0: 700}, true)
	if !errs.Is(err, errs.KindInvalidArgument) {
		t.Fatalf("expected InvalidArgument for front-limit violation, got %v", err)
	}
}

func TestDispenseModeSelection(t *testing.T) {
	cases := []struct {
		jet, blowOut, empty bool
		want                int
	}{
		{true, true, false, 1},
		{true, false, false, 0},
		{false, true, false, 3},
		{false, false, false, 2},
		{true, true, true, 4},
	}
	for _, c := range cases {
		got := dispenseMode(c.jet, c.blowOut, c.empty)
		if got != c.want {
			t.Errorf("dispenseMode(%v,%v,%v) = %d, want %d", c.jet, c.blowOut, c.empty, got, c.want)
		}
	}
}

func TestChannelPattern(t *testing.T) {
	got := channelPattern([]int{0, 2}, 4)
	if got != "1010" {
		t.Fatalf("channelPattern: got %q", got)
	}
}

func TestTipTypeIndexAllocation(t *testing.T) {
	o, _ := newTestOrch(t, 1)
	if idx := o.tipTypeIndexFor(tip.SizeStandardVolume); idx != 0 {
		t.Fatalf("first tip type should get index 0, got %d", idx)
	}
	if idx := o.tipTypeIndexFor(tip.SizeLowVolume); idx != 1 {
		t.Fatalf("second tip type should get index 1, got %d", idx)
	}
	if idx := o.tipTypeIndexFor(tip.SizeStandardVolume); idx != 0 {
		t.Fatalf("repeat lookup should reuse index 0, got %d", idx)
	}
}

// The ±2mm pickup geometry adjustment must apply exactly in sequence:
// +2mm for LowVolume, then -2mm for anything that isn't
// StandardVolume. For LowVolume both legs fire and cancel out, which
// is the intended (if surprising) net effect.
func TestPickupZBoundsAdjustment(t *testing.T) {
	standard := &tip.Tip{TipLengthMM: 50, FittingDepthMM: 8, Size: tip.SizeStandardVolume}
	zTop, zBot := pickupZBounds(10, standard)
	if zTop != 60 || zBot != 52 {
		t.Fatalf("standard volume: got top=%v bot=%v", zTop, zBot)
	}

	low := &tip.Tip{TipLengthMM: 50, FittingDepthMM: 8, Size: tip.SizeLowVolume}
	zTop, zBot = pickupZBounds(10, low)
	// +2mm then -2mm (since LowVolume != StandardVolume) cancels out.
	if zTop != 60 || zBot != 52 {
		t.Fatalf("low volume: got top=%v bot=%v", zTop, zBot)
	}

	high := &tip.Tip{TipLengthMM: 50, FittingDepthMM: 8, Size: tip.SizeHighVolume}
	zTop, zBot = pickupZBounds(10, high)
	if zTop != 58 || zBot != 50 {
		t.Fatalf("high volume: got top=%v bot=%v", zTop, zBot)
	}
}

func TestPickUpTipsRejectsMixedTipTypes(t *testing.T) {
	o, _ := newTestOrch(t, 2)
	spotA := tip.NewSpot("a", 9, 9, 10)
	spotB := tip.NewSpot("b", 9, 9, 10)
	ops := []TipSpotOp{
		{Spot: spotA, Tip: &tip.Tip{Size: tip.SizeStandardVolume}},
		{Spot: spotB, Tip: &tip.Tip{Size: tip.SizeLowVolume}},
	}
	err := o.PickUpTips(context.Background(), ops, []int{0, 1}, nil)
	if !errs.Is(err, errs.KindInvalidArgument) {
		t.Fatalf("expected InvalidArgument for mixed tip types, got %v", err)
	}
}

func TestPickUpTipsSendsTPCommand(t *testing.T) {
	o, ft := newTestOrch(t, 1)
	spot := tip.NewSpot("spot", 9, 9, 10)
	spot.Location = geo.NewCoordinate(100, 50, 0)
	op := TipSpotOp{Spot: spot, Tip: &tip.Tip{TipLengthMM: 50, FittingDepthMM: 8, Size: tip.SizeStandardVolume}}

	if err := o.PickUpTips(context.Background(), []TipSpotOp{op}, []int{0}, nil); err != nil {
		t.Fatalf("PickUpTips: %v", err)
	}
	if len(ft.sent) != 1 {
		t.Fatalf("expected 1 command sent, got %d", len(ft.sent))
	}
	if !strings.HasPrefix(ft.sent[0], string(fw.ModuleMaster)+"TP") {
		t.Fatalf("expected a TP command, got %q", ft.sent[0])
	}
	if !spot.HasTip {
		t.Fatalf("spot should now hold a tip")
	}
}

// A pickup's outgoing frame carries the spot geometry in 0.1mm units
// and the default traversal height th2450.
func TestPickUpTipsEncodesGeometryAndTraversal(t *testing.T) {
	o, ft := newTestOrch(t, 1)
	spot := tip.NewSpot("tip_rack_a1", 9, 9, 10)
	spot.Location = geo.NewCoordinate(140.9, 98.53, 49.57)
	op := TipSpotOp{Spot: spot, Tip: &tip.Tip{TipLengthMM: 50, FittingDepthMM: 8, Size: tip.SizeStandardVolume}}

	if err := o.PickUpTips(context.Background(), []TipSpotOp{op}, []int{0}, nil); err != nil {
		t.Fatalf("PickUpTips: %v", err)
	}
	sent := ft.sent[0]
	for _, want := range []string{"xp01409", "yp0985", "th2450"} {
		if !strings.Contains(sent, want) {
			t.Errorf("expected %q in the outgoing frame %q", want, sent)
		}
	}
}

// Any operation in the needs-iswap-parked set must park the arm first
// when it is installed and unparked; the firmware transcript matches
// the golden park-then-operate sequence.
func TestISWAPPickUpParksFirst(t *testing.T) {
	o, ft := newTestOrch(t, 8)
	o.ISWAPInstalled = true
	o.ISWAPParked = false

	plate := res.New("plate_1", 127, 86, 14)
	plate.Location = geo.NewCoordinate(300, 200, 100)
	if err := o.ISWAPPickUp(context.Background(), plate, GripFrontBack, 1); err != nil {
		t.Fatalf("ISWAPPickUp: %v", err)
	}

	if len(ft.sent) != 2 {
		t.Fatalf("expected park + pickup (2 frames), got %d: %v", len(ft.sent), ft.sent)
	}
	golden := []string{string(fw.ModuleISWAP) + "PA", string(fw.ModuleISWAP) + "PP"}
	for i, prefix := range golden {
		if !strings.HasPrefix(ft.sent[i], prefix) {
			t.Errorf("frame %d: expected prefix %q, got %q", i, prefix, ft.sent[i])
		}
	}
	if o.ISWAPParked {
		t.Fatal("the arm is holding a plate; it must not be marked parked")
	}

	// A second pickup from the parked state must not re-park.
	o.ISWAPParked = true
	ft.sent = nil
	if err := o.ISWAPPickUp(context.Background(), plate, GripFrontBack, 1); err != nil {
		t.Fatalf("second ISWAPPickUp: %v", err)
	}
	if len(ft.sent) != 1 || !strings.HasPrefix(ft.sent[0], string(fw.ModuleISWAP)+"PP") {
		t.Fatalf("expected a single PP frame from the parked state, got %v", ft.sent)
	}
}

// MoveChannelsInYDirection sends nothing when the requested map cannot
// be satisfied.
func TestMoveChannelsInYDirectionNoCommandOnFailure(t *testing.T) {
	o, ft := newTestOrch(t, 2)
	if _, err := o.MoveChannelsInYDirection(context.Background(), map[int]float64{0: 700}, true); err == nil {
		t.Fatal("expected front-limit violation")
	}
	if len(ft.sent) != 0 {
		t.Fatalf("no command may be sent on failure, got %v", ft.sent)
	}

	ys, err := o.MoveChannelsInYDirection(context.Background(), map[int]float64{0: 100}, true)
	if err != nil {
		t.Fatalf("MoveChannelsInYDirection: %v", err)
	}
	if len(ft.sent) != 1 || !strings.HasPrefix(ft.sent[0], string(fw.ModuleMaster)+"JY") {
		t.Fatalf("expected a single JY frame, got %v", ft.sent)
	}
	if ys[0] != 100 || ys[1] != 91 {
		t.Fatalf("unexpected positions %v", ys)
	}
}

func TestPierceFoilRejectsOverlappingChannelSets(t *testing.T) {
	o, _ := newTestOrch(t, 4)
	w := well.NewWell("well_a1", 9, 9, 12, 2000)
	ops := []PierceOp{{Well: w}}
	err := o.PierceFoil(context.Background(), ops, []int{1}, []int{1}, nil)
	if !errs.Is(err, errs.KindInvalidArgument) {
		t.Fatalf("expected InvalidArgument for overlapping channel sets, got %v", err)
	}
}

func TestPickUpTipsFailsOnAlreadyFilledSpot(t *testing.T) {
	o, _ := newTestOrch(t, 1)
	spot := tip.NewSpot("spot", 9, 9, 10)
	existing := &tip.Tip{TipLengthMM: 50, FittingDepthMM: 8, Size: tip.SizeStandardVolume}
	if err := spot.Fill(existing); err != nil {
		t.Fatalf("seed fill: %v", err)
	}
	op := TipSpotOp{Spot: spot, Tip: existing}
	err := o.PickUpTips(context.Background(), []TipSpotOp{op}, []int{0}, nil)
	if !errs.Is(err, errs.KindHasTip) {
		t.Fatalf("expected HasTip, got %v", err)
	}
}
