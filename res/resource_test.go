// Package res implements the resource tree: positionable, nestable
// objects on a deck.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package res

import (
	"testing"

	"github.com/benchctl/labcore/geo"
)

// Assigning a subtree containing a name already present anywhere in
// the target tree is rejected, and the tree is left unmodified.
func TestAssignChildRejectsNameCollision(t *testing.T) {
	root := New("deck", 1000, 1000, 100)
	a := New("plate_1", 10, 10, 10)
	if err := root.AssignChild(a, geo.Zero()); err != nil {
		t.Fatalf("first assign: %v", err)
	}

	dup := New("plate_1", 10, 10, 10)
	if err := root.AssignChild(dup, geo.NewCoordinate(50, 0, 0)); err == nil {
		t.Fatal("expected name collision error")
	}
	if len(root.Children) != 1 {
		t.Fatalf("tree mutated after rejected assignment: %d children", len(root.Children))
	}
}

func TestAssignChildCollisionCheckedAgainstWholeTree(t *testing.T) {
	root := New("deck", 1000, 1000, 100)
	carrier := New("carrier_1", 200, 200, 50)
	if err := root.AssignChild(carrier, geo.Zero()); err != nil {
		t.Fatalf("assign carrier: %v", err)
	}
	plate := New("plate_1", 10, 10, 10)
	if err := carrier.AssignChild(plate, geo.Zero()); err != nil {
		t.Fatalf("assign plate: %v", err)
	}

	dup := New("plate_1", 10, 10, 10)
	other := New("other_carrier", 200, 200, 50)
	if err := root.AssignChild(other, geo.NewCoordinate(300, 0, 0)); err != nil {
		t.Fatalf("assign other carrier: %v", err)
	}
	if err := other.AssignChild(dup, geo.Zero()); err == nil {
		t.Fatal("expected collision against a name anywhere in the tree, not just siblings")
	}
}

// Absolute location composes every ancestor's rotation and offset.
func TestGetAbsoluteLocationComposesAncestors(t *testing.T) {
	root := New("deck", 1000, 1000, 100)
	carrier := New("carrier_1", 200, 200, 50)
	carrier.Rotation = geo.NewRotation(0, 0, 90)
	if err := root.AssignChild(carrier, geo.NewCoordinate(100, 0, 0)); err != nil {
		t.Fatalf("assign carrier: %v", err)
	}
	plate := New("plate_1", 10, 10, 10)
	if err := carrier.AssignChild(plate, geo.NewCoordinate(10, 0, 0)); err != nil {
		t.Fatalf("assign plate: %v", err)
	}

	got := plate.GetAbsoluteLocation()
	// plate's local (10,0,0) rotated 90deg about Z becomes (0,10,0), then
	// offset by the carrier's own (100,0,0).
	want := geo.NewCoordinate(100, 10, 0)
	if !got.AlmostEqual(want, 1e-6) {
		t.Errorf("got %+v want %+v", got, want)
	}
}

func TestAssignUnassignFiresCallbacksUpTheAncestorChain(t *testing.T) {
	root := New("deck", 1000, 1000, 100)
	carrier := New("carrier_1", 200, 200, 50)
	if err := root.AssignChild(carrier, geo.Zero()); err != nil {
		t.Fatalf("assign carrier: %v", err)
	}

	var rootSawAssign, carrierSawAssign bool
	root.OnDidAssign(func(child *Resource) { rootSawAssign = true })
	carrier.OnDidAssign(func(child *Resource) { carrierSawAssign = true })

	plate := New("plate_1", 10, 10, 10)
	if err := carrier.AssignChild(plate, geo.Zero()); err != nil {
		t.Fatalf("assign plate: %v", err)
	}
	if !rootSawAssign || !carrierSawAssign {
		t.Errorf("expected callback propagation to root and carrier, got root=%v carrier=%v", rootSawAssign, carrierSawAssign)
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	root := New("deck", 1000, 1000, 100)
	plate := New("plate_1", 10, 10, 10)
	if err := root.AssignChild(plate, geo.NewCoordinate(5, 5, 0)); err != nil {
		t.Fatalf("assign: %v", err)
	}

	data, err := root.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if got.Name != "deck" || len(got.Children) != 1 || got.Children[0].Name != "plate_1" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

// Round-tripping preserves child order, locations, and parent pointers.
func TestSerializePreservesChildOrderAndParents(t *testing.T) {
	root := New("deck", 1000, 1000, 100)
	names := []string{"zeta", "alpha", "mid"}
	for i, name := range names {
		if err := root.AssignChild(New(name, 10, 10, 10), geo.NewCoordinate(float64(i)*20, 0, 0)); err != nil {
			t.Fatalf("assign %s: %v", name, err)
		}
	}
	data, err := root.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if len(got.Children) != len(names) {
		t.Fatalf("expected %d children, got %d", len(names), len(got.Children))
	}
	for i, name := range names {
		c := got.Children[i]
		if c.Name != name {
			t.Errorf("child %d: expected %q, got %q (order not preserved)", i, name, c.Name)
		}
		if c.Parent != got {
			t.Errorf("child %q: parent pointer not restored", c.Name)
		}
		if !c.Location.AlmostEqual(geo.NewCoordinate(float64(i)*20, 0, 0), 1e-4) {
			t.Errorf("child %q: location %+v not restored", c.Name, c.Location)
		}
	}
}

// A will-assign veto rejects the assignment before anything mutates.
func TestWillAssignVetoLeavesTreeUnchanged(t *testing.T) {
	root := New("deck", 1000, 1000, 100)
	root.OnWillAssign(func(child *Resource) error {
		if child.Category == "forbidden" {
			return errVeto
		}
		return nil
	})

	bad := New("intruder", 10, 10, 10)
	bad.Category = "forbidden"
	if err := root.AssignChild(bad, geo.Zero()); err == nil {
		t.Fatal("expected veto to reject the assignment")
	}
	if len(root.Children) != 0 || bad.Parent != nil {
		t.Fatal("vetoed assignment must not mutate the tree")
	}

	ok := New("guest", 10, 10, 10)
	if err := root.AssignChild(ok, geo.Zero()); err != nil {
		t.Fatalf("non-vetoed assignment should succeed: %v", err)
	}
}

var errVeto = &vetoErr{}

type vetoErr struct{}

func (*vetoErr) Error() string { return "vetoed" }

// An owned child needs ReassignChild; AssignChild rejects it.
func TestReassignRequiresExplicitFlag(t *testing.T) {
	root := New("deck", 1000, 1000, 100)
	a := New("carrier_a", 100, 100, 50)
	b := New("carrier_b", 100, 100, 50)
	plate := New("plate_1", 10, 10, 10)
	if err := root.AssignChild(a, geo.Zero()); err != nil {
		t.Fatalf("assign a: %v", err)
	}
	if err := root.AssignChild(b, geo.NewCoordinate(200, 0, 0)); err != nil {
		t.Fatalf("assign b: %v", err)
	}
	if err := a.AssignChild(plate, geo.Zero()); err != nil {
		t.Fatalf("assign plate: %v", err)
	}

	if err := b.AssignChild(plate, geo.Zero()); err == nil {
		t.Fatal("expected AssignChild to reject a child that already has a parent")
	}
	if err := b.ReassignChild(plate, geo.Zero()); err != nil {
		t.Fatalf("ReassignChild: %v", err)
	}
	if plate.Parent != b || len(a.Children) != 0 {
		t.Fatal("expected the plate to have migrated from a to b")
	}
}

// AbsoluteAnchor resolves box reference points under rotation.
func TestAbsoluteAnchor(t *testing.T) {
	root := New("deck", 1000, 1000, 100)
	plate := New("plate_1", 100, 60, 20)
	if err := root.AssignChild(plate, geo.NewCoordinate(10, 20, 30)); err != nil {
		t.Fatalf("assign: %v", err)
	}
	top := plate.AbsoluteAnchor(AnchorCenter, AnchorCenter, AnchorHigh)
	want := geo.NewCoordinate(60, 50, 50)
	if !top.AlmostEqual(want, 1e-6) {
		t.Errorf("top-center anchor: got %+v want %+v", top, want)
	}
	origin := plate.AbsoluteAnchor(AnchorLow, AnchorLow, AnchorLow)
	if !origin.AlmostEqual(geo.NewCoordinate(10, 20, 30), 1e-6) {
		t.Errorf("low anchor should equal the absolute location, got %+v", origin)
	}
}

// Tracker state serializes separately from structure and reloads onto
// a matching walk.
func TestStateRoundTripSeparateFromStructure(t *testing.T) {
	root := New("deck", 1000, 1000, 100)
	holder := New("holder_1", 100, 100, 10)
	if err := root.AssignChild(holder, geo.Zero()); err != nil {
		t.Fatalf("assign: %v", err)
	}
	tracked := New("spot_1", 9, 9, 5)
	fake := &fakeTracker{state: map[string]any{"present": true}}
	tracked.Tracker = fake
	if err := holder.AssignChild(tracked, geo.Zero()); err != nil {
		t.Fatalf("assign tracked: %v", err)
	}

	state := root.SerializeAllState()
	if len(state) != 1 {
		t.Fatalf("expected exactly the tracked node's state, got %v", state)
	}
	if v, ok := state["spot_1"]["present"].(bool); !ok || !v {
		t.Fatalf("unexpected state payload: %v", state["spot_1"])
	}

	fake.state = map[string]any{"present": false}
	if err := root.LoadAllState(state); err != nil {
		t.Fatalf("LoadAllState: %v", err)
	}
	if v := fake.state["present"].(bool); !v {
		t.Fatal("expected the tracker to receive the serialized state back")
	}
}

type fakeTracker struct {
	state map[string]any
}

func (f *fakeTracker) StateDict() map[string]any { return f.state }
func (f *fakeTracker) LoadStateDict(s map[string]any) error {
	f.state = s
	return nil
}
