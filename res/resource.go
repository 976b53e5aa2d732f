// Package res implements the resource tree: positionable, nestable
// objects on a deck, with will/did-assign/unassign callback propagation
// and collision-free subtree naming.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package res

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/benchctl/labcore/errs"
	"github.com/benchctl/labcore/geo"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// AssignCallback is invoked on a resource's ancestors after a child
// (sub)tree is attached or detached.
type AssignCallback func(child *Resource)

// VetoCallback is invoked on a resource's ancestors before a child
// (sub)tree is attached or detached; returning an error rejects the
// operation without mutating the tree.
type VetoCallback func(child *Resource) error

// Tracker is per-resource runtime state (tip presence, liquid volume)
// serialized separately from the tree structure.
type Tracker interface {
	StateDict() map[string]any
	LoadStateDict(state map[string]any) error
}

// Anchor selects a reference point on one axis of a resource's box.
type Anchor int

const (
	AnchorLow    Anchor = iota // left / front / bottom
	AnchorCenter               // center
	AnchorHigh                 // right / back / top
)

func (a Anchor) fraction() float64 {
	switch a {
	case AnchorCenter:
		return 0.5
	case AnchorHigh:
		return 1
	default:
		return 0
	}
}

// Resource is a node in the deck tree: it has a local size, a rotation,
// a location relative to its parent, and zero or more children.
type Resource struct {
	Name     string
	SizeX    float64
	SizeY    float64
	SizeZ    float64
	Location geo.Coordinate
	Rotation geo.Rotation
	Category string

	Parent   *Resource
	Children []*Resource

	// Tracker, when non-nil, holds the node's runtime state. Set by
	// wrapper types (tip spots, wells) at construction.
	Tracker Tracker

	willAssign   []VetoCallback
	didAssign    []AssignCallback
	willUnassign []VetoCallback
	didUnassign  []AssignCallback

	// Model is an opaque tag (e.g. a labware model name) carried through
	// serialization but not interpreted by the tree itself.
	Model string
}

// New builds a bare resource with the given local size.
func New(name string, sizeX, sizeY, sizeZ float64) *Resource {
	return &Resource{Name: name, SizeX: sizeX, SizeY: sizeY, SizeZ: sizeZ}
}

// OnWillAssign/OnDidAssign/OnWillUnassign/OnDidUnassign register a
// callback fired when this resource (as an ancestor) gains or loses a
// descendant, one list per phase. The will-phase callbacks may veto
// the operation.
func (r *Resource) OnWillAssign(cb VetoCallback)    { r.willAssign = append(r.willAssign, cb) }
func (r *Resource) OnDidAssign(cb AssignCallback)   { r.didAssign = append(r.didAssign, cb) }
func (r *Resource) OnWillUnassign(cb VetoCallback)  { r.willUnassign = append(r.willUnassign, cb) }
func (r *Resource) OnDidUnassign(cb AssignCallback) { r.didUnassign = append(r.didUnassign, cb) }

// fireUp walks from start up through every ancestor invoking the given
// did-phase list against child, propagating the callback the way the
// original tree notifies every ancestor, not just the immediate parent.
func fireUp(start *Resource, child *Resource, pick func(*Resource) []AssignCallback) {
	for n := start; n != nil; n = n.Parent {
		for _, cb := range pick(n) {
			cb(child)
		}
	}
}

// vetoUp runs the will-phase callbacks bottom-up; the first error wins
// and nothing has been mutated yet when it surfaces.
func vetoUp(start *Resource, child *Resource, pick func(*Resource) []VetoCallback) error {
	for n := start; n != nil; n = n.Parent {
		for _, cb := range pick(n) {
			if err := cb(child); err != nil {
				return err
			}
		}
	}
	return nil
}

// findByName returns the first descendant (including r itself) named
// name, or nil.
func (r *Resource) findByName(name string) *Resource {
	if r.Name == name {
		return r
	}
	for _, c := range r.Children {
		if found := c.findByName(name); found != nil {
			return found
		}
	}
	return nil
}

// GetResource returns the first node in r's subtree named name.
func (r *Resource) GetResource(name string) (*Resource, error) {
	if found := r.findByName(name); found != nil {
		return found, nil
	}
	return nil, errs.InvalidArgument("resource %q not found in tree rooted at %q", name, r.Name)
}

// checkNameCollision reports whether any name used in subtree collides
// with an existing name anywhere in root's tree, per the "no duplicate
// resource names" invariant.
func checkNameCollision(root *Resource, subtree *Resource) error {
	var names []string
	var walk func(*Resource)
	walk = func(n *Resource) {
		names = append(names, n.Name)
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(subtree)

	for _, name := range names {
		if root.findByName(name) != nil {
			return errs.InvalidArgument("resource name %q already exists in this tree", name)
		}
	}
	return nil
}

// AssignChild attaches child (and its subtree) to r at the given
// location. The name-collision check against the whole tree and the
// will-assign vetoes both run before any mutation, so a rejection
// leaves the tree exactly as it was. A child that already has a parent
// is rejected; use ReassignChild to migrate it.
func (r *Resource) AssignChild(child *Resource, location geo.Coordinate) error {
	return r.assignChild(child, location, false)
}

// ReassignChild is AssignChild with migration allowed: a child owned by
// another parent is unassigned from it first.
func (r *Resource) ReassignChild(child *Resource, location geo.Coordinate) error {
	return r.assignChild(child, location, true)
}

func (r *Resource) assignChild(child *Resource, location geo.Coordinate, reassign bool) error {
	if child == r {
		return errs.InvalidArgument("cannot assign %q to itself", r.Name)
	}
	if child.Parent != nil && !reassign {
		return errs.InvalidArgument("%q already has parent %q", child.Name, child.Parent.Name)
	}
	for n := r; n != nil; n = n.Parent {
		if n == child {
			return errs.InvalidArgument("cannot assign %q under its own subtree", child.Name)
		}
	}
	treeRoot := r.Root()
	if child.Parent == nil || child.Parent.Root() != treeRoot {
		if err := checkNameCollision(treeRoot, child); err != nil {
			return err
		}
	}
	if err := vetoUp(r, child, func(n *Resource) []VetoCallback { return n.willAssign }); err != nil {
		return err
	}
	if child.Parent != nil {
		if err := child.Parent.UnassignChild(child); err != nil {
			return err
		}
	}

	child.Location = location
	child.Parent = r
	r.Children = append(r.Children, child)

	fireUp(r, child, func(n *Resource) []AssignCallback { return n.didAssign })
	return nil
}

// UnassignChild detaches child from r, which must be its current parent.
func (r *Resource) UnassignChild(child *Resource) error {
	idx := -1
	for i, c := range r.Children {
		if c == child {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errs.InvalidArgument("%q is not a child of %q", child.Name, r.Name)
	}

	if err := vetoUp(r, child, func(n *Resource) []VetoCallback { return n.willUnassign }); err != nil {
		return err
	}

	r.Children = append(r.Children[:idx], r.Children[idx+1:]...)
	child.Parent = nil

	fireUp(r, child, func(n *Resource) []AssignCallback { return n.didUnassign })
	return nil
}

// Root walks up to the top-most ancestor.
func (r *Resource) Root() *Resource {
	n := r
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// GetAbsoluteLocation returns r's location in the root's coordinate
// frame, composing every ancestor's rotation and offset on the way up.
func (r *Resource) GetAbsoluteLocation() geo.Coordinate {
	loc := r.Location
	for n := r.Parent; n != nil; n = n.Parent {
		loc = n.Rotation.Rotate(loc).Add(n.Location)
	}
	return loc
}

// AbsoluteAnchor returns the absolute coordinate of the anchor point
// (ax on X, ay on Y, az on Z) of r's box, e.g. (Center, Center, High)
// for the top-center a tip pickup targets.
func (r *Resource) AbsoluteAnchor(ax, ay, az Anchor) geo.Coordinate {
	local := geo.NewCoordinate(
		ax.fraction()*r.SizeX,
		ay.fraction()*r.SizeY,
		az.fraction()*r.SizeZ,
	)
	offset := r.GetAbsoluteRotation().Rotate(local)
	return r.GetAbsoluteLocation().Add(offset)
}

// GetAbsoluteRotation returns r's rotation composed through every
// ancestor, outermost first.
func (r *Resource) GetAbsoluteRotation() geo.Rotation {
	rot := r.Rotation
	for n := r.Parent; n != nil; n = n.Parent {
		rot = n.Rotation.Compose(rot)
	}
	return rot
}

// AbsoluteAABB returns the rotated-extent bounding box under the
// resource's absolute rotation.
func (r *Resource) AbsoluteAABB() (extX, extY, extZ float64) {
	return geo.RotatedAABB(r.SizeX, r.SizeY, r.SizeZ, r.GetAbsoluteRotation())
}

// AllChildren returns every descendant, depth-first, children-before-
// grandchildren within each subtree.
func (r *Resource) AllChildren() []*Resource {
	var out []*Resource
	for _, c := range r.Children {
		out = append(out, c)
		out = append(out, c.AllChildren()...)
	}
	return out
}

// Copy deep-copies r and its subtree, detached from any parent.
// Trackers are not copied; wrapper types re-attach their own.
func (r *Resource) Copy() *Resource {
	cp := &Resource{
		Name: r.Name, SizeX: r.SizeX, SizeY: r.SizeY, SizeZ: r.SizeZ,
		Location: r.Location, Rotation: r.Rotation, Category: r.Category, Model: r.Model,
	}
	for _, c := range r.Children {
		childCopy := c.Copy()
		childCopy.Parent = cp
		cp.Children = append(cp.Children, childCopy)
	}
	return cp
}

// SerializeAllState walks r's subtree and collects every tracker's
// state keyed by resource name. Structure and state serialize
// separately so a layout file stays valid as liquids and tips move.
func (r *Resource) SerializeAllState() map[string]map[string]any {
	out := map[string]map[string]any{}
	var walk func(*Resource)
	walk = func(n *Resource) {
		if n.Tracker != nil {
			out[n.Name] = n.Tracker.StateDict()
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(r)
	return out
}

// LoadAllState applies state collected by SerializeAllState in a
// matching walk. Names present in state but absent from the tree are
// ignored; a tracker that rejects its state aborts the load.
func (r *Resource) LoadAllState(state map[string]map[string]any) error {
	var walk func(*Resource) error
	walk = func(n *Resource) error {
		if n.Tracker != nil {
			if s, ok := state[n.Name]; ok {
				if err := n.Tracker.LoadStateDict(s); err != nil {
					return fmt.Errorf("res: loading state for %q: %w", n.Name, err)
				}
			}
		}
		for _, c := range n.Children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(r)
}

// serializedCoord / serializedRotation are the JSON shapes for the
// location and rotation fields of a serialized node.
type serializedCoord struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type serializedRotation struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
}

// serializedResource is the on-wire JSON shape for Serialize/Deserialize.
// Child order is preserved: deserialization must reconstruct the same
// ordered tree.
type serializedResource struct {
	Name       string               `json:"name"`
	Type       string               `json:"type,omitempty"`
	SizeX      float64              `json:"size_x"`
	SizeY      float64              `json:"size_y"`
	SizeZ      float64              `json:"size_z"`
	Location   *serializedCoord     `json:"location"`
	Rotation   serializedRotation   `json:"rotation"`
	Category   string               `json:"category,omitempty"`
	Model      string               `json:"model,omitempty"`
	ParentName *string              `json:"parent_name"`
	Children   []serializedResource `json:"children,omitempty"`
}

func (r *Resource) toSerialized() serializedResource {
	s := serializedResource{
		Name: r.Name, Type: r.Category, SizeX: r.SizeX, SizeY: r.SizeY, SizeZ: r.SizeZ,
		Rotation: serializedRotation{Type: "Rotation", X: r.Rotation.X, Y: r.Rotation.Y, Z: r.Rotation.Z},
		Category: r.Category, Model: r.Model,
	}
	if r.Parent != nil {
		name := r.Parent.Name
		s.ParentName = &name
		s.Location = &serializedCoord{X: r.Location.X, Y: r.Location.Y, Z: r.Location.Z}
	}
	for _, c := range r.Children {
		s.Children = append(s.Children, c.toSerialized())
	}
	return s
}

func fromSerialized(s serializedResource) *Resource {
	r := &Resource{
		Name: s.Name, SizeX: s.SizeX, SizeY: s.SizeY, SizeZ: s.SizeZ,
		Rotation: geo.NewRotation(s.Rotation.X, s.Rotation.Y, s.Rotation.Z),
		Category: s.Category, Model: s.Model,
	}
	if s.Location != nil {
		r.Location = geo.NewCoordinate(s.Location.X, s.Location.Y, s.Location.Z)
	}
	for _, cs := range s.Children {
		child := fromSerialized(cs)
		child.Parent = r
		r.Children = append(r.Children, child)
	}
	return r
}

// Serialize renders r and its subtree as JSON.
func (r *Resource) Serialize() ([]byte, error) {
	return json.Marshal(r.toSerialized())
}

// Deserialize parses JSON produced by Serialize into a detached subtree.
func Deserialize(data []byte) (*Resource, error) {
	var s serializedResource
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("res: deserialize: %w", err)
	}
	return fromSerialized(s), nil
}
