// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dep

import "github.com/gogpu/rendergraph/ref"

// Range is a normalized sub-resource range (spec.md §3's "Sync Object"
// fields): callers resolve a buffer range's size=0/an image range's
// mip-or-layer-count=0 ("to the end") against the owning resource's
// real extent before constructing a Range, so Overlaps never needs to
// know the resource's total size itself.
type Range struct {
	image bool
	buf   ref.BufferRange
	img   ref.ImageRange
}

// NewBufferRange builds a normalized buffer range; size must already
// be resolved to a concrete byte count.
func NewBufferRange(offset, size uint64) Range {
	return Range{buf: ref.BufferRange{Offset: offset, Size: size}}
}

// NewImageRange builds a normalized image range; mip/layer counts must
// already be resolved to concrete, non-zero counts.
func NewImageRange(img ref.ImageRange) Range {
	return Range{image: true, img: img}
}

// Overlaps reports whether r and o intersect. Buffer ranges never
// overlap image ranges (different resource kinds entirely); the
// "normalized" precondition means neither range's End()/endOf()
// remainder branch can trigger, so the unused total-size arguments to
// the underlying ref helpers are passed as zero.
func (r Range) Overlaps(o Range) bool {
	if r.image != o.image {
		return false
	}
	if r.image {
		return r.img.Overlaps(o.img, 0, 0)
	}
	return r.buf.Overlaps(o.buf, 0)
}
