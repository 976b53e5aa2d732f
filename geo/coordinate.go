// Package geo implements the millimeter coordinate frame and rotation
// composition every Resource position is expressed in.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package geo

import "github.com/benchctl/labcore/cmn"

// Coordinate is an immutable 3-tuple of millimeters, rounded to 4 decimal
// places on construction.
type Coordinate struct {
	X, Y, Z float64
}

// Zero is the origin.
func Zero() Coordinate { return Coordinate{} }

// NewCoordinate rounds x, y, z to 4 decimal places (100nm).
func NewCoordinate(x, y, z float64) Coordinate {
	return Coordinate{X: cmn.Round4(x), Y: cmn.Round4(y), Z: cmn.Round4(z)}
}

// Add returns the vector sum of c and o.
func (c Coordinate) Add(o Coordinate) Coordinate {
	return NewCoordinate(c.X+o.X, c.Y+o.Y, c.Z+o.Z)
}

// Sub returns the vector difference c - o.
func (c Coordinate) Sub(o Coordinate) Coordinate {
	return NewCoordinate(c.X-o.X, c.Y-o.Y, c.Z-o.Z)
}

// Neg returns the unary negation of c.
func (c Coordinate) Neg() Coordinate {
	return NewCoordinate(-c.X, -c.Y, -c.Z)
}

// Vector returns [x, y, z].
func (c Coordinate) Vector() [3]float64 {
	return [3]float64{c.X, c.Y, c.Z}
}

// FromVector builds a Coordinate from a 3-vector, rounding as usual.
func FromVector(v [3]float64) Coordinate {
	return NewCoordinate(v[0], v[1], v[2])
}

// AlmostEqual reports whether c and o are equal to within eps per component.
func (c Coordinate) AlmostEqual(o Coordinate, eps float64) bool {
	return cmn.AlmostEqual(c.X, o.X, eps) && cmn.AlmostEqual(c.Y, o.Y, eps) && cmn.AlmostEqual(c.Z, o.Z, eps)
}
