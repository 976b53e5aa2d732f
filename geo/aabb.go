// Package geo implements the millimeter coordinate frame and rotation
// composition every deck resource is positioned in.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package geo

import "math"

// Corners returns the 8 corners of an axis-aligned box with the given
// local size, in the canonical order the rotated-AABB computation walks:
// the four Z=0 corners then the four Z=sizeZ corners.
func Corners(sizeX, sizeY, sizeZ float64) [8]Coordinate {
	return [8]Coordinate{
		NewCoordinate(0, 0, 0),
		NewCoordinate(sizeX, 0, 0),
		NewCoordinate(0, sizeY, 0),
		NewCoordinate(sizeX, sizeY, 0),
		NewCoordinate(0, 0, sizeZ),
		NewCoordinate(sizeX, 0, sizeZ),
		NewCoordinate(0, sizeY, sizeZ),
		NewCoordinate(sizeX, sizeY, sizeZ),
	}
}

// RotatedAABB rotates the local box's 8 corners by rot and returns the
// per-axis (max-min) extents: the absolute size under rotation.
func RotatedAABB(sizeX, sizeY, sizeZ float64, rot Rotation) (extX, extY, extZ float64) {
	corners := Corners(sizeX, sizeY, sizeZ)
	m := rot.Matrix()
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	minZ, maxZ := math.Inf(1), math.Inf(-1)
	for _, c := range corners {
		rv := MulVector3(m, c.Vector())
		if rv[0] < minX {
			minX = rv[0]
		}
		if rv[0] > maxX {
			maxX = rv[0]
		}
		if rv[1] < minY {
			minY = rv[1]
		}
		if rv[1] > maxY {
			maxY = rv[1]
		}
		if rv[2] < minZ {
			minZ = rv[2]
		}
		if rv[2] > maxZ {
			maxZ = rv[2]
		}
	}
	return maxX - minX, maxY - minY, maxZ - minZ
}
