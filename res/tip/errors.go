// Package tip implements pipette tip resources: tips, tip spots, and
// the size/pickup/drop enumerations.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package tip

import "github.com/benchctl/labcore/errs"

func errNotEmpty(name string) error {
	return errs.New(errs.KindHasTip, "tip spot "+name+" already holds a tip", nil)
}

func errEmpty(name string) error {
	return errs.New(errs.KindNoTip, "tip spot "+name+" is empty", nil)
}

func errSpotState(name string) error {
	return errs.InvalidArgument("tip spot %s: state has has_tip=true but no tip recipe", name)
}
