// Package tip implements pipette tip resources: tips, tip spots, and
// the size/pickup/drop enumerations.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package tip

import (
	"testing"

	"github.com/benchctl/labcore/errs"
)

func TestSpotFillEmptyCycle(t *testing.T) {
	s := NewSpot("spot_a1", 9, 9, 5)
	tp := &Tip{TotalVolumeUl: 300, TipLengthMM: 59.9, FittingDepthMM: 8, Size: SizeStandardVolume}

	if _, err := s.Empty(); !errs.Is(err, errs.KindNoTip) {
		t.Fatalf("emptying an empty spot: expected NoTip, got %v", err)
	}
	if err := s.Fill(tp); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if err := s.Fill(tp); !errs.Is(err, errs.KindHasTip) {
		t.Fatalf("double fill: expected HasTip, got %v", err)
	}
	got, err := s.Empty()
	if err != nil || got != tp {
		t.Fatalf("empty: got %v err %v", got, err)
	}
}

func TestSpotStateRoundTrip(t *testing.T) {
	s := NewSpot("spot_a1", 9, 9, 5)
	tp := &Tip{TotalVolumeUl: 300, HasFilter: true, TipLengthMM: 59.9, FittingDepthMM: 8, MaxVolumeUl: 300, Size: SizeHighVolume}
	if err := s.Fill(tp); err != nil {
		t.Fatalf("fill: %v", err)
	}
	state := s.StateDict()

	fresh := NewSpot("spot_a1", 9, 9, 5)
	if err := fresh.LoadStateDict(state); err != nil {
		t.Fatalf("load: %v", err)
	}
	got, ok := fresh.GetTip()
	if !ok {
		t.Fatal("expected a tip after reloading state")
	}
	if got.TipLengthMM != 59.9 || got.Size != SizeHighVolume || !got.HasFilter {
		t.Fatalf("tip recipe not restored: %+v", got)
	}

	empty := NewSpot("spot_b1", 9, 9, 5)
	if err := empty.LoadStateDict(map[string]any{"has_tip": false}); err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if _, ok := empty.GetTip(); ok {
		t.Fatal("expected no tip")
	}
}
