// Package deck implements the deck tree root, the Hamilton STAR rail
// layout, resource stacks, carriers, and collision/height checks.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package deck

import (
	"fmt"

	"github.com/benchctl/labcore/errs"
	"github.com/benchctl/labcore/geo"
	"github.com/benchctl/labcore/res"
)

// ResourceHolder is a single labware slot on a Carrier: an empty
// Resource the orchestrator assigns a plate/tip-rack into.
type ResourceHolder struct {
	*res.Resource
}

// NewResourceHolder creates an empty slot of the given footprint.
func NewResourceHolder(name string, sizeX, sizeY, sizeZ float64) *ResourceHolder {
	return &ResourceHolder{Resource: res.New(name, sizeX, sizeY, sizeZ)}
}

// Occupied reports whether the holder already seats a resource.
func (h *ResourceHolder) Occupied() bool { return len(h.Children) > 0 }

// SetChild seats r in the holder. If the holder is occupied, the call
// fails unless replace is set, in which case the occupant is
// unassigned first.
func (h *ResourceHolder) SetChild(r *res.Resource, replace bool) error {
	if h.Occupied() {
		if !replace {
			return errs.InvalidArgument("holder %q is already occupied by %q", h.Name, h.Children[0].Name)
		}
		if err := h.UnassignChild(h.Children[0]); err != nil {
			return err
		}
	}
	return h.AssignChild(r, geo.Zero())
}

// PlateHolder is a ResourceHolder specialized for plates: a seated
// plate rests on the holder's pedestal, offset in Z by its height.
type PlateHolder struct {
	*ResourceHolder
	PedestalSizeZ float64
}

// NewPlateHolder creates a plate-specific holder.
func NewPlateHolder(name string, sizeX, sizeY, sizeZ, pedestalSizeZ float64) *PlateHolder {
	return &PlateHolder{ResourceHolder: NewResourceHolder(name, sizeX, sizeY, sizeZ), PedestalSizeZ: pedestalSizeZ}
}

// SetPlate seats plate on the pedestal, adjusting its Z accordingly.
func (h *PlateHolder) SetPlate(plate *res.Resource, replace bool) error {
	if h.Occupied() {
		if !replace {
			return errs.InvalidArgument("holder %q is already occupied by %q", h.Name, h.Children[0].Name)
		}
		if err := h.UnassignChild(h.Children[0]); err != nil {
			return err
		}
	}
	return h.AssignChild(plate, geo.NewCoordinate(0, 0, h.PedestalSizeZ))
}

// Site is one fixed slot position on a carrier, in the carrier's own
// frame.
type Site struct {
	Offset geo.Coordinate
	SizeX  float64
	SizeY  float64
	SizeZ  float64
}

// Carrier is a rail-mounted resource with a fixed ordered set of
// ResourceHolders at fixed local offsets, e.g. a tip-rack carrier or a
// plate carrier. Site offsets compose with the carrier's rotation when
// children resolve their absolute positions, since holders are
// ordinary children of the carrier.
type Carrier struct {
	*res.Resource
	Holders []*ResourceHolder
}

// NewCarrierWithSites creates a carrier with one holder per site.
func NewCarrierWithSites(name string, sizeX, sizeY, sizeZ float64, sites []Site) *Carrier {
	c := &Carrier{Resource: res.New(name, sizeX, sizeY, sizeZ)}
	for i, s := range sites {
		h := NewResourceHolder(fmt.Sprintf("%s_site_%d", name, i), s.SizeX, s.SizeY, s.SizeZ)
		if err := c.AssignChild(h.Resource, s.Offset); err != nil {
			panic(err) // construction-time invariant: generated names are unique
		}
		c.Holders = append(c.Holders, h)
	}
	return c
}

// NewCarrier creates a carrier with numSites holders spaced evenly
// along its Y axis, the common layout for rail carriers.
func NewCarrier(name string, sizeX, sizeY, sizeZ float64, numSites int, siteSizeX, siteSizeY, siteSizeZ float64) *Carrier {
	sites := make([]Site, numSites)
	spacing := sizeY / float64(numSites)
	for i := range sites {
		sites[i] = Site{
			Offset: geo.NewCoordinate(0, float64(i)*spacing, 0),
			SizeX:  siteSizeX, SizeY: siteSizeY, SizeZ: siteSizeZ,
		}
	}
	return NewCarrierWithSites(name, sizeX, sizeY, sizeZ, sites)
}

// AssignResourceAtSite seats a labware resource in holder index site
// (0-indexed), failing if the site is already occupied.
func (c *Carrier) AssignResourceAtSite(site int, r *res.Resource) error {
	return c.assignAtSite(site, r, false)
}

// ReplaceResourceAtSite seats r in holder index site, evicting any
// current occupant.
func (c *Carrier) ReplaceResourceAtSite(site int, r *res.Resource) error {
	return c.assignAtSite(site, r, true)
}

func (c *Carrier) assignAtSite(site int, r *res.Resource, replace bool) error {
	if site < 0 || site >= len(c.Holders) {
		return errs.InvalidArgument("site %d out of range [0, %d)", site, len(c.Holders))
	}
	return c.Holders[site].SetChild(r, replace)
}
