// Package geo implements the millimeter coordinate frame and rotation
// composition every deck resource is positioned in.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package geo

import "math"

// Matrix3 is a 3x3 row-major rotation matrix.
type Matrix3 [3][3]float64

// Rotation holds three angles in degrees around X, Y, Z, applied Rz*Ry*Rx.
type Rotation struct {
	X, Y, Z float64
}

// NewRotation stores angles modulo 360.
func NewRotation(x, y, z float64) Rotation {
	return Rotation{X: mod360(x), Y: mod360(y), Z: mod360(z)}
}

func mod360(deg float64) float64 {
	m := math.Mod(deg, 360)
	if m < 0 {
		m += 360
	}
	return m
}

// Compose returns the angle-wise sum of r and o (not matrix-multiplication
// composition).
func (r Rotation) Compose(o Rotation) Rotation {
	return NewRotation(r.X+o.X, r.Y+o.Y, r.Z+o.Z)
}

// Matrix returns Rz * Ry * Rx for this rotation.
func (r Rotation) Matrix() Matrix3 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	rz := Matrix3{
		{math.Cos(rad(r.Z)), -math.Sin(rad(r.Z)), 0},
		{math.Sin(rad(r.Z)), math.Cos(rad(r.Z)), 0},
		{0, 0, 1},
	}
	ry := Matrix3{
		{math.Cos(rad(r.Y)), 0, math.Sin(rad(r.Y))},
		{0, 1, 0},
		{-math.Sin(rad(r.Y)), 0, math.Cos(rad(r.Y))},
	}
	rx := Matrix3{
		{1, 0, 0},
		{0, math.Cos(rad(r.X)), -math.Sin(rad(r.X))},
		{0, math.Sin(rad(r.X)), math.Cos(rad(r.X))},
	}
	return MulMatrix3(MulMatrix3(rz, ry), rx)
}

// MulMatrix3 multiplies two 3x3 matrices.
func MulMatrix3(a, b Matrix3) Matrix3 {
	var out Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += a[i][k] * b[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

// MulVector3 applies m to vector v.
func MulVector3(m Matrix3, v [3]float64) [3]float64 {
	var out [3]float64
	for i := 0; i < 3; i++ {
		out[i] = m[i][0]*v[0] + m[i][1]*v[1] + m[i][2]*v[2]
	}
	return out
}

// Rotate applies this rotation's matrix to c, treating c as a vector
// (not a point, no translation).
func (r Rotation) Rotate(c Coordinate) Coordinate {
	return FromVector(MulVector3(r.Matrix(), c.Vector()))
}
