// Package deck implements the deck tree root, the Hamilton STAR rail
// layout, resource stacks, carriers, and collision/height checks.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package deck

import (
	"github.com/benchctl/labcore/errs"
	"github.com/benchctl/labcore/geo"
	"github.com/benchctl/labcore/res"
)

// StackAxis selects which axis a ResourceStack grows along: most
// commonly Z (plates stacked on a lid/hotel), occasionally X or Y for
// side-by-side staging racks.
type StackAxis int

const (
	StackZ StackAxis = iota
	StackX
	StackY
)

// ResourceStack holds child resources stacked along one axis, each
// offset by the running sum of its predecessors' extent on that axis.
// Its size along the stack axis is the sum of its children's extents;
// along the other axes, the max. In Z mode only the top resource may
// be removed.
type ResourceStack struct {
	*res.Resource
	Axis StackAxis
}

// NewResourceStack creates an empty stack.
func NewResourceStack(name string, axis StackAxis) *ResourceStack {
	s := &ResourceStack{Resource: res.New(name, 0, 0, 0), Axis: axis}
	s.OnWillUnassign(func(child *res.Resource) error {
		if s.Axis != StackZ || child.Parent != s.Resource {
			return nil
		}
		if len(s.Children) > 0 && child != s.Children[len(s.Children)-1] {
			return errs.InvalidArgument("stack %q: only the top resource may be unassigned in Z mode", s.Name)
		}
		return nil
	})
	s.OnDidAssign(func(*res.Resource) { s.recomputeSize() })
	s.OnDidUnassign(func(*res.Resource) { s.recomputeSize() })
	return s
}

func axisExtent(r *res.Resource, axis StackAxis) float64 {
	switch axis {
	case StackX:
		return r.SizeX
	case StackY:
		return r.SizeY
	default:
		return r.SizeZ
	}
}

func (s *ResourceStack) recomputeSize() {
	var sum, maxX, maxY, maxZ float64
	for _, c := range s.Children {
		sum += axisExtent(c, s.Axis)
		if c.SizeX > maxX {
			maxX = c.SizeX
		}
		if c.SizeY > maxY {
			maxY = c.SizeY
		}
		if c.SizeZ > maxZ {
			maxZ = c.SizeZ
		}
	}
	s.SizeX, s.SizeY, s.SizeZ = maxX, maxY, maxZ
	switch s.Axis {
	case StackX:
		s.SizeX = sum
	case StackY:
		s.SizeY = sum
	default:
		s.SizeZ = sum
	}
}

// Push appends r at the current stacking edge: the running sum of the
// extents already stacked.
func (s *ResourceStack) Push(r *res.Resource) error {
	offset := 0.0
	for _, c := range s.Children {
		offset += axisExtent(c, s.Axis)
	}
	var loc geo.Coordinate
	switch s.Axis {
	case StackX:
		loc = geo.NewCoordinate(offset, 0, 0)
	case StackY:
		loc = geo.NewCoordinate(0, offset, 0)
	default:
		loc = geo.NewCoordinate(0, 0, offset)
	}
	return s.AssignChild(r, loc)
}

// Pop removes and returns the top-most (last pushed) resource, or nil
// if the stack is empty.
func (s *ResourceStack) Pop() (*res.Resource, error) {
	if len(s.Children) == 0 {
		return nil, nil
	}
	top := s.Children[len(s.Children)-1]
	if err := s.UnassignChild(top); err != nil {
		return nil, err
	}
	return top, nil
}

// Height returns the stack's extent along its axis.
func (s *ResourceStack) Height() float64 {
	return axisExtent(s.Resource, s.Axis)
}
