// Package cmn holds the small cross-cutting pieces every other package
// in this module depends on.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package cmn

import "math"

// The firmware boundary trades in tenths of a millimeter and tenths of a
// microliter; orchestrators work in mm/uL throughout and convert exactly
// once, at the codec boundary.

// MMToTenths rounds a millimeter value to the nearest 0.1mm firmware unit.
func MMToTenths(mm float64) int {
	return int(math.Round(mm * 10))
}

// TenthsToMM converts a firmware 0.1mm unit back to millimeters.
func TenthsToMM(tenths int) float64 {
	return float64(tenths) / 10
}

// UlToTenths rounds a microliter volume to the nearest 0.1uL firmware unit.
func UlToTenths(ul float64) int {
	return int(math.Round(ul * 10))
}

// TenthsToUl converts a firmware 0.1uL unit back to microliters.
func TenthsToUl(tenths int) float64 {
	return float64(tenths) / 10
}

// Round4 rounds to 4 decimal places (100nm), the resolution Coordinate
// normalizes to at construction.
func Round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// AlmostEqual reports whether a and b differ by no more than eps.
func AlmostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}
