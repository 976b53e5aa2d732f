// Package well implements liquid-holding resources: wells and plates
// with A1-style naming.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package well

import "github.com/benchctl/labcore/geo"

func coordAt(col, row int, spacingX, spacingY float64) geo.Coordinate {
	return geo.NewCoordinate(float64(col)*spacingX, float64(row)*spacingY, 0)
}
