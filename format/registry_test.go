// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package format

import (
	"testing"

	"github.com/gogpu/rendergraph/internal/vk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rgba(name string, depth uint8) Abstract {
	return Abstract{Name: name, Kind: KindUnorm, Order: OrderRGBA, Depths: [4]uint8{depth, depth, depth, depth}}
}

func newTestRegistry() *Registry {
	return &Registry{records: []record{
		{abstract: rgba("RGBA8", 8), backend: vk.FormatR8g8b8a8Unorm, features: Features{Optimal: vk.FormatFeatureSampledImage}},
		{abstract: rgba("RGBA16", 16), backend: vk.FormatR16g16b16a16Sfloat, features: Features{Optimal: vk.FormatFeatureSampledImage}},
		{abstract: Abstract{Name: "RGB8", Kind: KindUnorm, Order: OrderRGBA, Depths: [4]uint8{8, 8, 8, 0}}, backend: vk.FormatR8g8b8a8Unorm, features: Features{Optimal: vk.FormatFeatureSampledImage}},
	}}
}

// TestFuzzyContainmentPreference pins spec.md §8 invariant 8 and its
// end-to-end scenario: querying depths=10 with MIN_DEPTH picks the
// 16-bit variant (the smallest containing match), and MAX_DEPTH picks
// the 8-bit RGBA variant (the largest non-exceeding match).
func TestFuzzyContainmentPreference(t *testing.T) {
	registry := newTestRegistry()
	query := rgba("query", 10)

	got, ok := registry.Fuzzy(query, FuzzyFlags{BoundMin: true}, vk.FormatFeatureSampledImage)
	require.True(t, ok)
	assert.Equal(t, "RGBA16", got.Name)

	got, ok = registry.Fuzzy(query, FuzzyFlags{BoundMax: true}, vk.FormatFeatureSampledImage)
	require.True(t, ok)
	assert.Equal(t, "RGBA8", got.Name)
}

func TestFuzzyRejectsMissingFeature(t *testing.T) {
	registry := newTestRegistry()
	query := rgba("query", 8)
	_, ok := registry.Fuzzy(query, FuzzyFlags{}, vk.FormatFeatureStorageImage)
	assert.False(t, ok)
}

func TestResolveExactRejectsNonContaining(t *testing.T) {
	registry := newTestRegistry()
	// Depths=4 is not present in any record exactly, so Resolve must fail.
	query := rgba("query", 4)
	_, _, ok := registry.Resolve(query, Features{})
	assert.False(t, ok)
}

func TestResolvePicksMinimalDistance(t *testing.T) {
	registry := newTestRegistry()
	registry.records = append(registry.records, record{
		abstract: rgba("RGBA8-dup", 8),
		backend:  vk.FormatR8g8b8a8Snorm,
		features: Features{Optimal: vk.FormatFeatureSampledImage | vk.FormatFeatureStorageImage},
	})
	query := rgba("query", 8)
	got, _, ok := registry.Resolve(query, Features{Optimal: vk.FormatFeatureSampledImage})
	require.True(t, ok)
	assert.Equal(t, uint8(8), got.Depths[0])
}

func TestSupportUnionsContainingRecords(t *testing.T) {
	registry := newTestRegistry()
	mask := registry.Support(rgba("RGBA8", 8))
	assert.Equal(t, vk.FormatFeatureSampledImage, mask)
}
