// Package geo implements the millimeter coordinate frame and rotation
// composition every deck resource is positioned in.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package geo

import (
	"math"
	"testing"
)

// Coordinate round-trips through vector conversion.
func TestCoordinateVectorRoundtrip(t *testing.T) {
	cases := []Coordinate{
		NewCoordinate(1.23456, -9.00001, 0),
		NewCoordinate(0, 0, 0),
		NewCoordinate(-140.9, 98.53, 49.5699),
	}
	for _, c := range cases {
		got := FromVector(c.Vector())
		if !c.AlmostEqual(got, 1e-4) {
			t.Errorf("roundtrip mismatch: want %+v got %+v", c, got)
		}
	}
}

func TestCoordinateRounding(t *testing.T) {
	c := NewCoordinate(1.00005, 2.000049, 3)
	if math.Abs(c.Y-2.0) > 1e-4 {
		t.Errorf("expected rounding to 4 decimals, got %v", c.Y)
	}
}

func TestCoordinateArith(t *testing.T) {
	a := NewCoordinate(1, 2, 3)
	b := NewCoordinate(4, 5, 6)
	if got := a.Add(b); got != NewCoordinate(5, 7, 9) {
		t.Errorf("Add: got %+v", got)
	}
	if got := b.Sub(a); got != NewCoordinate(3, 3, 3) {
		t.Errorf("Sub: got %+v", got)
	}
	if got := a.Neg(); got != NewCoordinate(-1, -2, -3) {
		t.Errorf("Neg: got %+v", got)
	}
}

// Four 90-degree rotations return the AABB to its original size.
func TestRotationFourQuartersIdentity(t *testing.T) {
	sizeX, sizeY, sizeZ := 10.0, 20.0, 5.0
	rot := NewRotation(0, 0, 0)
	for i := 0; i < 4; i++ {
		rot = rot.Compose(NewRotation(0, 0, 90))
	}
	ex, ey, ez := RotatedAABB(sizeX, sizeY, sizeZ, rot)
	if math.Abs(ex-sizeX) > 1e-6 || math.Abs(ey-sizeY) > 1e-6 || math.Abs(ez-sizeZ) > 1e-6 {
		t.Errorf("expected AABB back to (%v,%v,%v), got (%v,%v,%v)", sizeX, sizeY, sizeZ, ex, ey, ez)
	}
}

func TestRotationSingleQuarterSwapsXY(t *testing.T) {
	sizeX, sizeY, sizeZ := 10.0, 20.0, 5.0
	rot := NewRotation(0, 0, 90)
	ex, ey, ez := RotatedAABB(sizeX, sizeY, sizeZ, rot)
	if math.Abs(ex-sizeY) > 1e-6 || math.Abs(ey-sizeX) > 1e-6 || math.Abs(ez-sizeZ) > 1e-6 {
		t.Errorf("expected swapped extents (%v,%v,%v), got (%v,%v,%v)", sizeY, sizeX, sizeZ, ex, ey, ez)
	}
}

func TestRotationCompose(t *testing.T) {
	r := NewRotation(10, 20, 30).Compose(NewRotation(5, 5, 5))
	if r.X != 15 || r.Y != 25 || r.Z != 35 {
		t.Errorf("expected angle-wise sum, got %+v", r)
	}
}

func TestRotationAroundOrigin(t *testing.T) {
	// 90deg around X should send (0,1,0) -> (0,0,1) under a pure rotation.
	rot := NewRotation(90, 0, 0)
	v := rot.Rotate(NewCoordinate(0, 1, 0))
	expected := NewCoordinate(0, 0, 1)
	if !v.AlmostEqual(expected, 1e-6) {
		t.Errorf("expected %+v, got %+v", expected, v)
	}
}
