// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ref

// Unpacked is the elementary reference produced by Unpack: a resolved
// owner (buffer, image, or attachment) plus a byte offset that has
// already been bounds-checked against the owner's declared size
// (spec.md §4.A).
type Unpacked struct {
	Tag    Tag
	Owner  RawHandle
	Offset int64
}

// Equal compares two unpacked references by owner identity and tag
// only, ignoring Offset: spec.md §9 calls out that two sub-ranges of
// the same buffer are "the same resource" for dependency-tracking
// purposes even when their offsets differ.
func (u Unpacked) Equal(o Unpacked) bool {
	return u.Tag == o.Tag && u.Owner == o.Owner
}

// Unpack resolves r down to an elementary reference and bounds-checks
// its byte offset. For TagPrimitiveIndices, the offset is additionally
// augmented by numVertices*stride when the primitive's vertex
// reference is null — the index buffer is then understood to be
// packed immediately after the (absent) vertex data in the same
// backing buffer.
//
// spec.md §9 flags the reference implementation's index-offset
// expression as an operator-precedence bug: `is_null ? vtxOffset : 0 +
// extra` parses as `is_null ? vtxOffset : (0 + extra)`, silently
// dropping `extra` whenever the vertex reference is null. This port
// makes the intended grouping explicit — `(is_null ? vtxOffset : 0) +
// extra` — rather than reproducing the bug; ref_test.go's null-vertex
// case pins the corrected behavior.
func Unpack(owners Owners, r Reference) (Unpacked, bool) {
	if r.Tag == TagPrimitiveIndices {
		return unpackIndices(owners, r)
	}

	resolved, ok := Resolve(owners, r)
	if !ok {
		return Unpacked{}, false
	}
	return boundsCheck(owners, resolved)
}

func unpackIndices(owners Owners, r Reference) (Unpacked, bool) {
	p := Handle[primitiveMarker]{raw: r.Owner}
	stored, ok := owners.PrimitiveIndices(p)
	if !ok {
		return Unpacked{}, false
	}

	numVertices, stride, ok := owners.PrimitiveVertexInfo(p)
	if !ok {
		return Unpacked{}, false
	}
	vtxRef, _ := owners.PrimitiveVertices(p, 0)
	isNull := vtxRef.IsEmpty()

	var base int64
	if isNull {
		base = int64(numVertices) * int64(stride)
	}
	stored.Offset += base + r.Offset

	resolved, ok := Resolve(owners, stored)
	if !ok {
		return Unpacked{}, false
	}
	return boundsCheck(owners, resolved)
}

func boundsCheck(owners Owners, r Reference) (Unpacked, bool) {
	if !r.Tag.IsElementary() {
		return Unpacked{}, false
	}
	if r.Tag == TagBuffer {
		size, ok := owners.BufferSize(Handle[bufferMarker]{raw: r.Owner})
		if !ok {
			return Unpacked{}, false
		}
		if r.Offset < 0 || uint64(r.Offset) > size {
			return Unpacked{}, false
		}
	}
	return Unpacked{Tag: r.Tag, Owner: r.Owner, Offset: r.Offset}, true
}
