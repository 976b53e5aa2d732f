// Package deck implements the deck tree root, the Hamilton STAR rail
// layout, resource stacks, carriers, and collision/height checks.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package deck

import (
	"testing"

	"github.com/benchctl/labcore/geo"
	"github.com/benchctl/labcore/res"
)

// Placing two resources whose AABBs overlap is rejected.
func TestCheckCollisionRejectsOverlap(t *testing.T) {
	d, err := New("deck", 1000, 1000, 200, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a := res.New("a", 50, 50, 10)
	a.Location = geo.NewCoordinate(0, 0, 0)
	if err := d.CheckCollision(a); err != nil {
		t.Fatalf("first placement should not collide: %v", err)
	}
	if err := d.AssignChild(a, a.Location); err != nil {
		t.Fatalf("assign a: %v", err)
	}

	b := res.New("b", 50, 50, 10)
	b.Location = geo.NewCoordinate(10, 10, 0)
	if err := d.CheckCollision(b); err == nil {
		t.Fatal("expected overlap rejection")
	}

	c := res.New("c", 50, 50, 10)
	c.Location = geo.NewCoordinate(100, 100, 0)
	if err := d.CheckCollision(c); err != nil {
		t.Errorf("non-overlapping placement should be accepted: %v", err)
	}
}

// Rail layout: rail 1 sits at (100, 63, 100) and rails are spaced
// 22.5mm apart.
func TestRailsToLocationSpacing(t *testing.T) {
	r1 := RailsToLocation(1)
	if r1 != geo.NewCoordinate(100, 63, 100) {
		t.Errorf("expected rail 1 at (100, 63, 100), got %v", r1)
	}
	for n := 2; n <= 30; n++ {
		want := 100 + float64(n-1)*22.5
		if got := RailsToLocation(n).X; got != want {
			t.Errorf("rail %d: expected x=%v, got %v", n, want, got)
		}
	}
}

func TestAssignCarrierAtRailOutOfRange(t *testing.T) {
	d, err := NewHamiltonSTARDeck(30, nil)
	if err != nil {
		t.Fatalf("NewHamiltonSTARDeck: %v", err)
	}
	carrier := res.New("carrier_x", 50, 400, 100)
	if err := d.AssignCarrierAtRail(carrier, 31, false); err == nil {
		t.Fatal("expected out-of-range rail to be rejected")
	}
	if err := d.AssignCarrierAtRail(carrier, 1, false); err != nil {
		t.Fatalf("expected in-range rail to succeed: %v", err)
	}
}

// A duplicate name anywhere under the deck is rejected and the
// original stays resolvable by name.
func TestDeckRejectsDuplicateNameKeepsOriginal(t *testing.T) {
	d, err := New("deck", 1000, 1000, 200, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	original := res.New("tip_rack", 120, 80, 50)
	if err := d.AssignChild(original, geo.NewCoordinate(0, 0, 0)); err != nil {
		t.Fatalf("assign: %v", err)
	}
	dup := res.New("tip_rack", 120, 80, 50)
	if err := d.AssignChild(dup, geo.NewCoordinate(400, 0, 0)); err == nil {
		t.Fatal("expected duplicate name rejection")
	}
	got, err := d.GetResource("tip_rack")
	if err != nil {
		t.Fatalf("GetResource: %v", err)
	}
	if got != original {
		t.Fatal("expected the original resource to remain resolvable")
	}
	if !d.HasResource("tip_rack") {
		t.Fatal("HasResource should still report the original")
	}
}

func TestAssignCarrierRejectsRightEdgeOverflow(t *testing.T) {
	d, err := NewHamiltonSTARDeck(30, nil)
	if err != nil {
		t.Fatalf("NewHamiltonSTARDeck: %v", err)
	}
	wide := res.New("carrier_wide", 100, 400, 100)
	if err := d.AssignCarrierAtRail(wide, 30, false); err == nil {
		t.Fatal("expected a carrier hanging past the right edge to be rejected")
	}
	if err := d.AssignCarrierAtRail(wide, 2, false); err != nil {
		t.Fatalf("expected a carrier well inside the deck to succeed: %v", err)
	}
}

// Carriers expose evenly-spaced sites, and a stack accumulates
// height as resources are pushed.
func TestCarrierSitesAndStackHeight(t *testing.T) {
	c := NewCarrier("tip_carrier_1", 135, 497, 130, 5, 135, 90, 130)
	if len(c.Holders) != 5 {
		t.Fatalf("expected 5 sites, got %d", len(c.Holders))
	}
	rack := res.New("tip_rack_1", 120, 80, 20)
	if err := c.AssignResourceAtSite(0, rack); err != nil {
		t.Fatalf("assign at site 0: %v", err)
	}
	dup := res.New("tip_rack_2", 120, 80, 20)
	if err := c.AssignResourceAtSite(0, dup); err == nil {
		t.Fatal("expected occupied-site rejection")
	}
	if err := c.ReplaceResourceAtSite(0, dup); err != nil {
		t.Fatalf("explicit replace should succeed: %v", err)
	}
	if c.Holders[0].Children[0] != dup {
		t.Fatal("expected the replacement to be seated")
	}

	holder := NewPlateHolder("plate_holder_1", 135, 96, 20, 2.5)
	plate := res.New("assay_plate", 127, 86, 14)
	if err := holder.SetPlate(plate, false); err != nil {
		t.Fatalf("SetPlate: %v", err)
	}
	if plate.Location.Z != 2.5 {
		t.Errorf("expected the plate raised by the pedestal height, got z=%v", plate.Location.Z)
	}

	stack := NewResourceStack("lid_stack", StackZ)
	for i := 0; i < 3; i++ {
		lid := res.New("lid_"+string(rune('a'+i)), 130, 90, 8)
		if err := stack.Push(lid); err != nil {
			t.Fatalf("push lid %d: %v", i, err)
		}
	}
	if stack.Height() != 24 {
		t.Errorf("expected stack height 24, got %v", stack.Height())
	}
	top, err := stack.Pop()
	if err != nil || top.Name != "lid_c" {
		t.Errorf("expected to pop lid_c, got %+v err=%v", top, err)
	}
	if stack.Height() != 16 {
		t.Errorf("expected height 16 after pop, got %v", stack.Height())
	}
}

// A Z stack sums its children's heights, places each new resource at
// the running edge, and refuses to remove anything but the top.
func TestResourceStackZSemantics(t *testing.T) {
	stack := NewResourceStack("plate_stack", StackZ)
	bottom := res.New("plate_bottom", 127, 86, 10)
	middle := res.New("plate_middle", 127, 86, 10)
	if err := stack.Push(bottom); err != nil {
		t.Fatalf("push bottom: %v", err)
	}
	if err := stack.Push(middle); err != nil {
		t.Fatalf("push middle: %v", err)
	}
	if stack.SizeZ != 20 {
		t.Errorf("expected size_z 20, got %v", stack.SizeZ)
	}
	if middle.Location.Z != 10 {
		t.Errorf("expected middle at z=10, got %v", middle.Location.Z)
	}

	third := res.New("plate_top", 127, 86, 10)
	if err := stack.Push(third); err != nil {
		t.Fatalf("push top: %v", err)
	}
	if third.Location.Z != 20 {
		t.Errorf("expected third plate at z=20, got %v", third.Location.Z)
	}

	if err := stack.UnassignChild(bottom); err == nil {
		t.Fatal("expected unassigning the bottom of a Z stack to fail")
	}
	if len(stack.Children) != 3 {
		t.Fatalf("rejected unassign must not mutate the stack")
	}
	if err := stack.UnassignChild(third); err != nil {
		t.Fatalf("unassigning the top should succeed: %v", err)
	}
	if stack.SizeZ != 20 {
		t.Errorf("expected size_z 20 after removing the top, got %v", stack.SizeZ)
	}
}

// The stack's cross-axis size is the max of its children.
func TestResourceStackCrossAxisMax(t *testing.T) {
	stack := NewResourceStack("staging_row", StackX)
	if err := stack.Push(res.New("rack_narrow", 20, 80, 30)); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := stack.Push(res.New("rack_wide", 40, 120, 25)); err != nil {
		t.Fatalf("push: %v", err)
	}
	if stack.SizeX != 60 {
		t.Errorf("expected size_x 60, got %v", stack.SizeX)
	}
	if stack.SizeY != 120 {
		t.Errorf("expected size_y 120 (max), got %v", stack.SizeY)
	}
	if stack.SizeZ != 30 {
		t.Errorf("expected size_z 30 (max), got %v", stack.SizeZ)
	}
}
