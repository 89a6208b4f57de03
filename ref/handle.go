// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package ref implements the unified resource reference model: a
// tagged value that addresses heap-allocated buffers/images, primitive
// sub-buffers, resource groups, and renderer attachments through one
// value type, plus the recursive unpacking that resolves a composite
// reference down to an elementary (buffer, image, or renderer
// attachment) handle.
package ref

import "fmt"

// Index is the slot component of a Handle; Epoch is the generation
// component that invalidates handles after their slot is reused.
// Grounded on core/id.go's RawID, kept nearly verbatim: the spec's
// "owning object handle" has no domain-specific shape to impose on it.
type Index = uint32
type Epoch = uint32

// RawHandle is the zipped (index, epoch) pair: lower 32 bits index,
// upper 32 bits epoch.
type RawHandle uint64

func zip(index Index, epoch Epoch) RawHandle {
	return RawHandle(index) | (RawHandle(epoch) << 32)
}

func (h RawHandle) unzip() (Index, Epoch) {
	return Index(h & 0xFFFFFFFF), Epoch(h >> 32)
}

// Index returns the slot component of a RawHandle.
func (h RawHandle) Index() Index { i, _ := h.unzip(); return i }

// Epoch returns the generation component of a RawHandle.
func (h RawHandle) Epoch() Epoch { _, e := h.unzip(); return e }

// IsZero reports whether h is the zero handle (never a valid allocation).
func (h RawHandle) IsZero() bool { return h == 0 }

func (h RawHandle) String() string {
	i, e := h.unzip()
	return fmt.Sprintf("Handle(%d,%d)", i, e)
}

// Marker is the phantom-type constraint distinguishing handle kinds
// (Buffer, Image, Attachment, ...) at compile time even though they
// share the same RawHandle representation underneath.
type Marker interface{ marker() }

// Handle is a type-safe resource handle parameterized by marker M.
type Handle[M Marker] struct{ raw RawHandle }

// NewHandle builds a Handle from its index/epoch parts.
func NewHandle[M Marker](index Index, epoch Epoch) Handle[M] {
	return Handle[M]{raw: zip(index, epoch)}
}

// Raw returns the handle's zipped representation.
func (h Handle[M]) Raw() RawHandle { return h.raw }

// Index returns the handle's slot index.
func (h Handle[M]) Index() Index { return h.raw.Index() }

// Epoch returns the handle's generation.
func (h Handle[M]) Epoch() Epoch { return h.raw.Epoch() }

// IsZero reports whether h is the zero handle.
func (h Handle[M]) IsZero() bool { return h.raw.IsZero() }

// Marker types for each owner kind a Reference can name.
type (
	bufferMarker     struct{}
	imageMarker      struct{}
	primitiveMarker  struct{}
	groupMarker      struct{}
	attachmentMarker struct{}
)

func (bufferMarker) marker()     {}
func (imageMarker) marker()      {}
func (primitiveMarker) marker()  {}
func (groupMarker) marker()      {}
func (attachmentMarker) marker() {}

type (
	BufferHandle     = Handle[bufferMarker]
	ImageHandle      = Handle[imageMarker]
	PrimitiveHandle  = Handle[primitiveMarker]
	GroupHandle      = Handle[groupMarker]
	AttachmentHandle = Handle[attachmentMarker]
)

// BufferHandleFromRaw, ImageHandleFromRaw, and AttachmentHandleFromRaw
// reconstruct a typed handle from the RawHandle an Unpacked reference
// carries in its Owner field — the three elementary tags Unpack ever
// produces (spec.md §4.A). Exported for the same reason as
// NewBufferStore and friends: callers outside this package see
// Unpacked.Owner as an opaque RawHandle and need a way back to a typed
// Handle for a second store lookup without the marker types being
// exported themselves.
func BufferHandleFromRaw(raw RawHandle) BufferHandle         { return Handle[bufferMarker]{raw: raw} }
func ImageHandleFromRaw(raw RawHandle) ImageHandle           { return Handle[imageMarker]{raw: raw} }
func AttachmentHandleFromRaw(raw RawHandle) AttachmentHandle { return Handle[attachmentMarker]{raw: raw} }
