// Package deck implements the deck tree root, the Hamilton STAR rail
// layout, resource stacks, carriers, and collision/height checks.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package deck

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestDeck(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Deck Suite")
}
