// Package res implements the resource tree: positionable, nestable
// objects on a deck.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package res

import (
	"github.com/benchctl/labcore/geo"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Resource", func() {
	var root *Resource

	BeforeEach(func() {
		root = New("deck", 1000, 1000, 100)
	})

	Describe("AssignChild", func() {
		It("accepts a child with a unique name", func() {
			carrier := New("carrier_1", 200, 200, 50)
			Expect(root.AssignChild(carrier, geo.Zero())).To(Succeed())
			Expect(root.Children).To(HaveLen(1))
		})

		It("rejects a name already present anywhere in the tree", func() {
			carrier := New("carrier_1", 200, 200, 50)
			Expect(root.AssignChild(carrier, geo.Zero())).To(Succeed())
			plate := New("plate_1", 10, 10, 10)
			Expect(carrier.AssignChild(plate, geo.Zero())).To(Succeed())

			dup := New("plate_1", 10, 10, 10)
			Expect(root.AssignChild(dup, geo.NewCoordinate(500, 0, 0))).To(HaveOccurred())
			Expect(root.Children).To(HaveLen(1))
		})
	})

	Describe("UnassignChild", func() {
		It("removes the child and frees its name for reuse", func() {
			plate := New("plate_1", 10, 10, 10)
			Expect(root.AssignChild(plate, geo.Zero())).To(Succeed())
			Expect(root.UnassignChild(plate)).To(Succeed())
			Expect(root.Children).To(HaveLen(0))

			again := New("plate_1", 10, 10, 10)
			Expect(root.AssignChild(again, geo.Zero())).To(Succeed())
		})
	})

	Describe("GetAbsoluteLocation", func() {
		It("composes ancestor rotation and offset", func() {
			carrier := New("carrier_1", 200, 200, 50)
			carrier.Rotation = geo.NewRotation(0, 0, 90)
			Expect(root.AssignChild(carrier, geo.NewCoordinate(100, 0, 0))).To(Succeed())

			plate := New("plate_1", 10, 10, 10)
			Expect(carrier.AssignChild(plate, geo.NewCoordinate(10, 0, 0))).To(Succeed())

			got := plate.GetAbsoluteLocation()
			want := geo.NewCoordinate(100, 10, 0)
			Expect(got.AlmostEqual(want, 1e-6)).To(BeTrue())
		})
	})

	Describe("Serialize/Deserialize", func() {
		It("round-trips a subtree", func() {
			plate := New("plate_1", 10, 10, 10)
			Expect(root.AssignChild(plate, geo.NewCoordinate(5, 5, 0))).To(Succeed())

			data, err := root.Serialize()
			Expect(err).NotTo(HaveOccurred())

			got, err := Deserialize(data)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal("deck"))
			Expect(got.Children).To(HaveLen(1))
			Expect(got.Children[0].Name).To(Equal("plate_1"))
		})
	})
})
