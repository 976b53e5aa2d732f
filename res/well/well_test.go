// Package well implements liquid-holding resources: wells and plates
// with A1-style naming.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package well

import (
	"testing"

	"github.com/benchctl/labcore/errs"
)

func TestPlateGridNamingAndLookup(t *testing.T) {
	p := NewPlate("plate_1", 127, 86, 14, 8, 12, 9, 9, 10, 400)
	if WellName(0, 0) != "A1" || WellName(7, 11) != "H12" {
		t.Fatalf("unexpected corner names: %s %s", WellName(0, 0), WellName(7, 11))
	}
	if p.WellNamed("A1") != p.WellAt(0, 0) {
		t.Error("A1 should resolve to (0,0)")
	}
	if p.WellNamed("H12") != p.WellAt(7, 11) {
		t.Error("H12 should resolve to (7,11)")
	}
	if p.WellNamed("I1") != nil {
		t.Error("row I is out of range on an 8-row plate")
	}
	if p.WellNamed("12") != nil || p.WellNamed("A") != nil {
		t.Error("malformed labels must not resolve")
	}
	// Wells are children of the plate with generated unique names.
	if len(p.Children) != 96 {
		t.Fatalf("expected 96 wells assigned, got %d", len(p.Children))
	}
}

func TestWellLiquidStack(t *testing.T) {
	w := NewWell("w", 9, 9, 10, 100)
	if err := w.AddLiquid("buffer", 60); err != nil {
		t.Fatalf("add buffer: %v", err)
	}
	if err := w.AddLiquid("sample", 30); err != nil {
		t.Fatalf("add sample: %v", err)
	}
	if err := w.AddLiquid("overflow", 20); err == nil {
		t.Fatal("expected capacity rejection")
	}
	// Removal comes off the top of the stack: sample first.
	if err := w.RemoveVolume(40); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if w.Volume() != 50 {
		t.Fatalf("expected 50uL left, got %v", w.Volume())
	}
	err := w.RemoveVolume(60)
	if !errs.Is(err, errs.KindTooLittleLiquid) {
		t.Fatalf("expected TooLittleLiquid, got %v", err)
	}
}

func TestWellStateRoundTrip(t *testing.T) {
	w := NewWell("w", 9, 9, 10, 100)
	if err := w.AddLiquid("buffer", 25); err != nil {
		t.Fatalf("add: %v", err)
	}
	state := w.StateDict()

	fresh := NewWell("w", 9, 9, 10, 100)
	if err := fresh.LoadStateDict(state); err != nil {
		t.Fatalf("load: %v", err)
	}
	if fresh.Volume() != 25 {
		t.Fatalf("expected 25uL after reload, got %v", fresh.Volume())
	}
}
