// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package format

import "github.com/gogpu/rendergraph/internal/vk"

// Features is the feature triple a backend reports for a format:
// linear-tiling image features, optimal-tiling image features, and
// buffer features, mirroring VkFormatProperties (spec.md §4.B).
type Features struct {
	Linear  vk.FormatFeatureFlags
	Optimal vk.FormatFeatureFlags
	Buffer  vk.FormatFeatureFlags
}

// union combines all three feature sets; Fuzzy and Support both treat
// "the record's features" as this union rather than distinguishing
// tiling/buffer use at query time (the caller is expected to have
// already picked a usage-appropriate minimum mask).
func (f Features) union() vk.FormatFeatureFlags {
	return f.Linear | f.Optimal | f.Buffer
}

func (f Features) isZero() bool {
	return f.Linear == 0 && f.Optimal == 0 && f.Buffer == 0
}

// record is one row of the registry: an abstract format, its backend
// counterpart, and the feature triple the backend reported for it.
type record struct {
	abstract Abstract
	backend  vk.Format
	features Features
}

// Device is the external collaborator the registry queries during
// Initialize: a backend handle pair the Vulkan format-properties query
// needs. Implemented by the module-root Device type; kept as an
// interface here to avoid an import cycle, mirroring ref.Owners.
type Device interface {
	Instance() vk.Instance
	PhysicalDevice() vk.PhysicalDevice
}

// Registry is the per-device queryable format table spec.md §4.B
// describes: not a hash map, because Resolve/Fuzzy both need to search
// by partial specification rather than by exact key.
type Registry struct {
	records []record
}

// New returns an empty registry. Call Initialize before using it.
func New() *Registry {
	return &Registry{}
}

// Initialize enumerates the fixed abstract<->backend format table and
// queries dev for each pair's feature triple, skipping any pairing
// whose triple is entirely zero (spec.md §4.B: "skips insertion when
// all three are zero" — the backend simply doesn't support that
// format at all).
func (r *Registry) Initialize(dev Device) {
	r.records = r.records[:0]
	for _, pair := range formatTable {
		props := vk.GetPhysicalDeviceFormatProperties(dev.Instance(), dev.PhysicalDevice(), pair.backend)
		features := Features{
			Linear:  props.LinearTilingFeatures,
			Optimal: props.OptimalTilingFeatures,
			Buffer:  props.BufferFeatures,
		}
		if features.isZero() {
			continue
		}
		r.records = append(r.records, record{abstract: pair.abstract, backend: pair.backend, features: features})
	}
}

// Resolve performs the exact lookup spec.md §4.B describes: every
// record not containing fmtIn's type/order/declared-depths is
// rejected, every record whose feature triple does not cover
// minimumProps is rejected, and among the survivors the one minimizing
// L1 distance of the per-channel bit-depth vector wins.
func (r *Registry) Resolve(fmtIn Abstract, minimumProps Features) (Abstract, vk.Format, bool) {
	best := -1
	bestDist := 0
	for i, rec := range r.records {
		if !rec.abstract.Contains(fmtIn) {
			continue
		}
		if !covers(rec.features, minimumProps) {
			continue
		}
		dist := rec.abstract.l1Distance(fmtIn)
		if best == -1 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best == -1 {
		return Abstract{}, vk.FormatUndefined, false
	}
	rec := r.records[best]
	return rec.abstract, rec.backend, true
}

func covers(have, want Features) bool {
	return have.Linear&want.Linear == want.Linear &&
		have.Optimal&want.Optimal == want.Optimal &&
		have.Buffer&want.Buffer == want.Buffer
}

// FuzzyFlags bounds a Fuzzy query's bit-depth tolerance: by default
// depths are ignored entirely, BoundMin/BoundMax each add a one-sided
// bound against fmtIn's declared depths (spec.md §4.B's MIN_DEPTH /
// MAX_DEPTH flags).
type FuzzyFlags struct {
	BoundMin bool
	BoundMax bool
}

// Fuzzy performs the relaxed match spec.md §4.B and §8 invariant 8
// describe: type/order must match (compressed formats' distinct Order
// values make this an exact match for them), minimumFeatures must be a
// subset of the record's combined feature set, and depths are
// optionally bounded from above/below by flags. Among candidates, a
// *containing* match (every declared depth satisfied) beats a
// distance-only match; ties within the same containment class are
// broken by smallest L1 distance.
func (r *Registry) Fuzzy(fmtIn Abstract, flags FuzzyFlags, minimumFeatures vk.FormatFeatureFlags) (Abstract, bool) {
	var best *fuzzyCandidate

	for _, rec := range r.records {
		if !rec.abstract.SameOrderKind(fmtIn) {
			continue
		}
		if rec.features.union()&minimumFeatures != minimumFeatures {
			continue
		}
		if !rec.abstract.depthsBound(fmtIn, fmtIn, flags.BoundMin, flags.BoundMax) {
			continue
		}

		c := fuzzyCandidate{
			abstract: rec.abstract,
			contains: rec.abstract.Contains(fmtIn),
			dist:     rec.abstract.l1Distance(fmtIn),
		}
		if best == nil || c.better(*best) {
			best = &c
		}
	}
	if best == nil {
		return Abstract{}, false
	}
	return best.abstract, true
}

type fuzzyCandidate struct {
	abstract Abstract
	contains bool
	dist     int
}

// better reports whether c beats other under spec.md §8 invariant 8's
// tie-break: a containing match always beats a non-containing one;
// within the same containment class, smaller L1 distance wins.
func (c fuzzyCandidate) better(other fuzzyCandidate) bool {
	if c.contains != other.contains {
		return c.contains
	}
	return c.dist < other.dist
}

// Support returns the union of feature bits across every record whose
// abstract format contains fmt (spec.md §4.B).
func (r *Registry) Support(fmt Abstract) vk.FormatFeatureFlags {
	var mask vk.FormatFeatureFlags
	for _, rec := range r.records {
		if rec.abstract.Contains(fmt) {
			mask |= rec.features.union()
		}
	}
	return mask
}
