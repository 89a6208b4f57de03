// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ref

import "github.com/gogpu/rendergraph/internal/vk"

// BufferRange is a sub-resource descriptor for a buffer: offset plus
// size, with size=0 meaning "to the end of the buffer" (spec.md §3).
type BufferRange struct {
	Offset uint64
	Size   uint64 // 0 = remainder
}

// End returns the exclusive end offset of r against a buffer of the
// given declared size, resolving size=0 to "remainder".
func (r BufferRange) End(bufferSize uint64) uint64 {
	if r.Size == 0 {
		return bufferSize
	}
	return r.Offset + r.Size
}

// Overlaps reports whether two buffer ranges intersect, resolving
// size=0 against the owning buffer's declared size first. This is the
// buffer half of spec.md §4.C's "range intersection."
func (r BufferRange) Overlaps(o BufferRange, bufferSize uint64) bool {
	rEnd, oEnd := r.End(bufferSize), o.End(bufferSize)
	return r.Offset < oEnd && o.Offset < rEnd
}

// ImageRange is a sub-resource descriptor for an image: aspect mask
// plus mip and layer sub-ranges, with count=0 meaning "remainder from
// base" in each dimension (spec.md §3).
type ImageRange struct {
	Aspect       vk.ImageAspectFlags
	BaseMipLevel uint32
	MipCount     uint32 // 0 = remainder
	BaseLayer    uint32
	LayerCount   uint32 // 0 = remainder
}

func endOf(base, count, total uint32) uint32 {
	if count == 0 {
		return total
	}
	return base + count
}

// Overlaps reports whether two image ranges intersect: their aspect
// masks, mip ranges, and layer ranges must each have a non-empty
// intersection (spec.md §4.C — "any empty sub-intersection means no
// overlap").
func (r ImageRange) Overlaps(o ImageRange, totalMips, totalLayers uint32) bool {
	if r.Aspect&o.Aspect == 0 {
		return false
	}
	rMipEnd, oMipEnd := endOf(r.BaseMipLevel, r.MipCount, totalMips), endOf(o.BaseMipLevel, o.MipCount, totalMips)
	if r.BaseMipLevel >= oMipEnd || o.BaseMipLevel >= rMipEnd {
		return false
	}
	rLayerEnd, oLayerEnd := endOf(r.BaseLayer, r.LayerCount, totalLayers), endOf(o.BaseLayer, o.LayerCount, totalLayers)
	if r.BaseLayer >= oLayerEnd || o.BaseLayer >= rLayerEnd {
		return false
	}
	return true
}

// Region additionally carries the 2D/3D extent and row-pitch packing
// spec.md §3 describes for copy-shaped operations. NumLayers must be
// non-zero (unlike ImageRange.LayerCount, a region never means
// "remainder"). Region aspect masks cannot mix color with
// depth/stencil — callers construct a Region through NewRegion, which
// enforces the invariant.
type Region struct {
	Image      ImageRange
	Extent     vk.Extent3D
	Offset     vk.Offset3D
	RowPitch   uint32 // texels; 0 = tightly packed
	NumLayers  uint32
}

const (
	colorAspects        = vk.ImageAspectColor
	depthStencilAspects = vk.ImageAspectDepth | vk.ImageAspectStencil
)

// NewRegion validates the color/depth-stencil exclusivity invariant
// and the non-zero NumLayers invariant before returning a Region.
func NewRegion(img ImageRange, extent vk.Extent3D, offset vk.Offset3D, rowPitch, numLayers uint32) (Region, bool) {
	hasColor := img.Aspect&colorAspects != 0
	hasDepthStencil := img.Aspect&depthStencilAspects != 0
	if hasColor && hasDepthStencil {
		return Region{}, false
	}
	if numLayers == 0 {
		return Region{}, false
	}
	return Region{Image: img, Extent: extent, Offset: offset, RowPitch: rowPitch, NumLayers: numLayers}, true
}
