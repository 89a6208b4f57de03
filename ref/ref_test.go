// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOwners is a minimal in-memory Owners implementation for testing
// resolution and unpacking without a real renderer.
type fakeOwners struct {
	bufferSizes map[RawHandle]uint64
	groups      map[RawHandle]map[int32]groupBinding
	primVerts   map[RawHandle]map[int32]Reference
	primIndices map[RawHandle]Reference
	primInfo    map[RawHandle]vertexInfo
	attachments map[RawHandle]map[int32]Reference
}

type groupBinding struct {
	ref    Reference
	stride uint32
}

type vertexInfo struct {
	numVertices uint32
	stride      uint32
}

func newFakeOwners() *fakeOwners {
	return &fakeOwners{
		bufferSizes: map[RawHandle]uint64{},
		groups:      map[RawHandle]map[int32]groupBinding{},
		primVerts:   map[RawHandle]map[int32]Reference{},
		primIndices: map[RawHandle]Reference{},
		primInfo:    map[RawHandle]vertexInfo{},
		attachments: map[RawHandle]map[int32]Reference{},
	}
}

func (f *fakeOwners) GroupBinding(g GroupHandle, binding, elementIndex int32) (Reference, uint32, bool) {
	bindings, ok := f.groups[g.Raw()]
	if !ok {
		return Empty, 0, false
	}
	b, ok := bindings[binding]
	if !ok {
		return Empty, 0, false
	}
	return b.ref, b.stride, true
}

func (f *fakeOwners) PrimitiveVertices(p PrimitiveHandle, attribute int32) (Reference, bool) {
	attrs, ok := f.primVerts[p.Raw()]
	if !ok {
		return Empty, false
	}
	r, ok := attrs[attribute]
	return r, ok
}

func (f *fakeOwners) PrimitiveIndices(p PrimitiveHandle) (Reference, bool) {
	r, ok := f.primIndices[p.Raw()]
	return r, ok
}

func (f *fakeOwners) PrimitiveVertexInfo(p PrimitiveHandle) (uint32, uint32, bool) {
	info, ok := f.primInfo[p.Raw()]
	if !ok {
		return 0, 0, false
	}
	return info.numVertices, info.stride, true
}

func (f *fakeOwners) Attachment(a AttachmentHandle, index int32) (Reference, bool) {
	bindings, ok := f.attachments[a.Raw()]
	if !ok {
		return Empty, false
	}
	r, ok := bindings[index]
	return r, ok
}

func (f *fakeOwners) BufferSize(b BufferHandle) (uint64, bool) {
	size, ok := f.bufferSizes[b.Raw()]
	return size, ok
}

func TestResolveElementaryPassesThrough(t *testing.T) {
	owners := newFakeOwners()
	buf := NewHandle[bufferMarker](3, 1)
	r := Reference{Tag: TagBuffer, Owner: buf.Raw(), Offset: 64}

	got, ok := Resolve(owners, r)
	require.True(t, ok)
	assert.Equal(t, r, got)
}

func TestResolveEmptyFails(t *testing.T) {
	owners := newFakeOwners()
	got, ok := Resolve(owners, Empty)
	assert.False(t, ok)
	assert.Equal(t, Empty, got)
}

func TestResolveGroupBufferAddsElementOffset(t *testing.T) {
	owners := newFakeOwners()
	buf := NewHandle[bufferMarker](5, 0)
	group := NewHandle[groupMarker](1, 0)
	owners.groups[group.Raw()] = map[int32]groupBinding{
		2: {ref: Reference{Tag: TagBuffer, Owner: buf.Raw(), Offset: 16}, stride: 32},
	}

	r := Reference{Tag: TagGroupBuffer, Owner: group.Raw(), Sel: [2]int32{2, 3}}
	got, ok := Resolve(owners, r)
	require.True(t, ok)
	assert.Equal(t, TagBuffer, got.Tag)
	assert.Equal(t, int64(16+3*32), got.Offset)
}

func TestResolveUnknownGroupBindingFails(t *testing.T) {
	owners := newFakeOwners()
	group := NewHandle[groupMarker](9, 0)
	r := Reference{Tag: TagGroupBuffer, Owner: group.Raw(), Sel: [2]int32{0, 0}}
	_, ok := Resolve(owners, r)
	assert.False(t, ok)
}

func TestUnpackBufferBoundsCheck(t *testing.T) {
	owners := newFakeOwners()
	buf := NewHandle[bufferMarker](0, 0)
	owners.bufferSizes[buf.Raw()] = 128

	inBounds := Reference{Tag: TagBuffer, Owner: buf.Raw(), Offset: 128}
	_, ok := Unpack(owners, inBounds)
	assert.True(t, ok, "offset equal to size is the empty-remainder case and must be accepted")

	outOfBounds := Reference{Tag: TagBuffer, Owner: buf.Raw(), Offset: 129}
	_, ok = Unpack(owners, outOfBounds)
	assert.False(t, ok)
}

// TestUnpackIndicesOffsetPrecedence covers the non-null branch of the
// corrected grouping for the index-buffer packing offset: (isNull ?
// vtxOffset : 0) + extra. With a vertex reference present both
// groupings give stored+extra; the test pins that numVertices*stride
// is not added.
func TestUnpackIndicesOffsetPrecedence(t *testing.T) {
	owners := newFakeOwners()
	buf := NewHandle[bufferMarker](0, 0)
	owners.bufferSizes[buf.Raw()] = 4096

	prim := NewHandle[primitiveMarker](0, 0)
	owners.primInfo[prim.Raw()] = vertexInfo{numVertices: 100, stride: 12}
	// A non-null vertex reference: isNull must be false, so the
	// vertex-count*stride term must NOT appear in the final offset.
	owners.primVerts[prim.Raw()] = map[int32]Reference{
		0: {Tag: TagBuffer, Owner: buf.Raw(), Offset: 0},
	}
	owners.primIndices[prim.Raw()] = Reference{Tag: TagBuffer, Owner: buf.Raw(), Offset: 2000}

	extra := int64(48)
	r := Reference{Tag: TagPrimitiveIndices, Owner: prim.Raw(), Offset: extra}
	got, ok := Unpack(owners, r)
	require.True(t, ok)
	assert.Equal(t, int64(2000+48), got.Offset, "vertex reference is present, so numVertices*stride must not be added")
}

// TestUnpackIndicesOffsetNullVertex exercises the other branch: when
// the vertex reference IS null, the packed-index offset is augmented
// by numVertices*stride in addition to the caller's extra offset. This
// is the branch where the reference implementation's
// `is_null ? vtxOffset : 0 + extra` would drop extra.
func TestUnpackIndicesOffsetNullVertex(t *testing.T) {
	owners := newFakeOwners()
	buf := NewHandle[bufferMarker](0, 0)
	owners.bufferSizes[buf.Raw()] = 4096

	prim := NewHandle[primitiveMarker](1, 0)
	owners.primInfo[prim.Raw()] = vertexInfo{numVertices: 100, stride: 12}
	owners.primVerts[prim.Raw()] = map[int32]Reference{0: Empty}
	owners.primIndices[prim.Raw()] = Reference{Tag: TagBuffer, Owner: buf.Raw(), Offset: 0}

	r := Reference{Tag: TagPrimitiveIndices, Owner: prim.Raw(), Offset: 48}
	got, ok := Unpack(owners, r)
	require.True(t, ok)
	assert.Equal(t, int64(100*12+48), got.Offset)
}

func TestBufferRangeOverlaps(t *testing.T) {
	a := BufferRange{Offset: 0, Size: 64}
	b := BufferRange{Offset: 32, Size: 0} // remainder
	assert.True(t, a.Overlaps(b, 128))

	c := BufferRange{Offset: 64, Size: 16}
	assert.False(t, a.Overlaps(c, 128))
}

func TestImageRangeOverlapsRespectsAspect(t *testing.T) {
	color := ImageRange{Aspect: 0x1, BaseMipLevel: 0, MipCount: 1, BaseLayer: 0, LayerCount: 0}
	depth := ImageRange{Aspect: 0x2, BaseMipLevel: 0, MipCount: 1, BaseLayer: 0, LayerCount: 0}
	assert.False(t, color.Overlaps(depth, 4, 1))

	colorOther := ImageRange{Aspect: 0x1, BaseMipLevel: 2, MipCount: 1, BaseLayer: 0, LayerCount: 0}
	assert.False(t, color.Overlaps(colorOther, 4, 1), "mip 0 and mip 2 do not overlap")
}
