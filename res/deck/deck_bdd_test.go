// Package deck implements the deck tree root, the Hamilton STAR rail
// layout, resource stacks, carriers, and collision/height checks.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package deck

import (
	"github.com/benchctl/labcore/geo"
	"github.com/benchctl/labcore/res"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("Deck collision", func() {
	var d *Deck

	BeforeEach(func() {
		var err error
		d, err = New("deck", 1000, 1000, 200, nil)
		Expect(err).NotTo(HaveOccurred())

		a := res.New("a", 50, 50, 10)
		a.Location = geo.NewCoordinate(0, 0, 0)
		Expect(d.AssignChild(a, a.Location)).To(Succeed())
	})

	DescribeTable("CheckCollision",
		func(x, y float64, shouldCollide bool) {
			candidate := res.New("candidate", 50, 50, 10)
			candidate.Location = geo.NewCoordinate(x, y, 0)
			err := d.CheckCollision(candidate)
			if shouldCollide {
				Expect(err).To(HaveOccurred())
			} else {
				Expect(err).NotTo(HaveOccurred())
			}
		},
		Entry("overlapping placement is rejected", 10.0, 10.0, true),
		Entry("adjacent non-overlapping placement is accepted", 50.0, 0.0, false),
		Entry("distant placement is accepted", 500.0, 500.0, false),
	)
})

var _ = Describe("HamiltonSTARDeck rails", func() {
	It("spaces rails evenly from the configured zero offset", func() {
		Expect(RailsToLocation(1)).To(Equal(geo.NewCoordinate(railZeroXMM, railYMM, railZMM)))
		Expect(RailsToLocation(2).X - RailsToLocation(1).X).To(Equal(railPitchMM))
	})

	It("rejects a rail outside [1, NumRails]", func() {
		d, err := NewHamiltonSTARDeck(30, nil)
		Expect(err).NotTo(HaveOccurred())
		carrier := res.New("carrier_x", 50, 400, 100)
		Expect(d.AssignCarrierAtRail(carrier, 31, false)).To(HaveOccurred())
		Expect(d.AssignCarrierAtRail(carrier, 1, false)).To(Succeed())
	})
})
