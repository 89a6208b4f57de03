// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ref

// Tag identifies which of the seven reference variants a Reference
// holds. Grounded on spec.md §9's note that a type-tagged union maps
// to a Go sum type; Owner/Offset/Sel stay inline (no interface
// boxing) so resolving a chain of composite references allocates
// nothing.
type Tag int

const (
	TagEmpty Tag = iota
	TagBuffer
	TagImage
	TagPrimitiveVertices
	TagPrimitiveIndices
	TagGroupBuffer
	TagGroupImage
	TagAttachment
)

func (t Tag) String() string {
	switch t {
	case TagEmpty:
		return "empty"
	case TagBuffer:
		return "buffer"
	case TagImage:
		return "image"
	case TagPrimitiveVertices:
		return "primitive-vertices"
	case TagPrimitiveIndices:
		return "primitive-indices"
	case TagGroupBuffer:
		return "group-buffer"
	case TagGroupImage:
		return "group-image"
	case TagAttachment:
		return "attachment"
	default:
		return "unknown"
	}
}

// IsElementary reports whether t is one of the three variants Unpack
// ultimately produces (buffer, image, or renderer attachment).
func (t Tag) IsElementary() bool {
	return t == TagBuffer || t == TagImage || t == TagAttachment
}

// Reference is the tagged POD value described in spec.md §3/§6: one of
// seven variants, an owning object handle, a byte offset (buffers
// only), and up to two integer selectors. A Reference is only
// meaningful while its owner is alive and is not safe against
// concurrent mutation of that owner.
type Reference struct {
	Tag    Tag
	Owner  RawHandle
	Offset int64
	Sel    [2]int32
}

// Empty is the null reference: resolution failures and unset bindings
// both produce this value.
var Empty = Reference{Tag: TagEmpty}

// IsEmpty reports whether r is the null reference.
func (r Reference) IsEmpty() bool { return r.Tag == TagEmpty }

// Owners is the external resolution surface a Reference's composite
// variants are resolved against: the renderer's stores for groups,
// primitives, and attachments. Implemented by the module-root Renderer
// and Heap types; kept as an interface here so package ref has no
// dependency on them (avoiding an import cycle, since those types
// themselves hold ref.Reference values).
type Owners interface {
	// GroupBinding returns the stored Reference at a Group's buffer or
	// image binding, and that binding's declared element stride (0 for
	// an image binding; for a buffer binding Resolve multiplies it by
	// elementIndex, and a non-zero stride requires a buffer-typed stored
	// reference, per spec.md §9's "element-size validation" supplement).
	GroupBinding(g GroupHandle, binding int32, elementIndex int32) (Reference, uint32, bool)

	// PrimitiveVertices/PrimitiveIndices return the stored Reference
	// for a Primitive's vertex attribute or index buffer.
	PrimitiveVertices(p PrimitiveHandle, attribute int32) (Reference, bool)
	PrimitiveIndices(p PrimitiveHandle) (Reference, bool)

	// PrimitiveVertexInfo returns a primitive's vertex count and
	// stride, used to offset a packed index buffer when the vertex
	// reference is null (spec.md §4.A).
	PrimitiveVertexInfo(p PrimitiveHandle) (numVertices uint32, stride uint32, ok bool)

	// Attachment returns the stored Reference for an image-backed
	// renderer attachment; ok is false if the attachment does not
	// exist or is window-backed (spec.md §4.A's "attachment not
	// image-backed" validation failure).
	Attachment(a AttachmentHandle, index int32) (Reference, bool)

	// BufferSize returns a buffer's declared size, for Unpack's bounds
	// check.
	BufferSize(b BufferHandle) (uint64, bool)
}

// Resolve recurses through a composite reference chain to an
// elementary reference (buffer, image, attachment, or empty on
// failure). The source repository's invariant that no reference cycle
// exists is assumed, not defended against (spec.md §4.A).
func Resolve(owners Owners, r Reference) (Reference, bool) {
	switch r.Tag {
	case TagEmpty:
		return Empty, false
	case TagBuffer, TagImage, TagAttachment:
		return r, true
	case TagGroupBuffer, TagGroupImage:
		g := Handle[groupMarker]{raw: r.Owner}
		binding := r.Sel[0]
		elementIndex := r.Sel[1]
		stored, stride, ok := owners.GroupBinding(g, binding, elementIndex)
		if !ok {
			return Empty, false
		}
		if r.Tag == TagGroupBuffer {
			if stride != 0 {
				// Element-size validation (supplemented from
				// groufix's ref.c): a binding with a declared stride
				// must store a buffer or group-buffer reference; any
				// other stored tag is a bind mismatch. The element
				// index itself is not range-checked here; only
				// Unpack's final bounds check against the buffer
				// size limits the resulting offset.
				if stored.Tag != TagBuffer && stored.Tag != TagGroupBuffer {
					return Empty, false
				}
			}
			stored.Offset += int64(elementIndex) * int64(stride) + r.Offset
		}
		return Resolve(owners, stored)
	case TagPrimitiveVertices:
		p := Handle[primitiveMarker]{raw: r.Owner}
		stored, ok := owners.PrimitiveVertices(p, r.Sel[0])
		if !ok {
			return Empty, false
		}
		stored.Offset += r.Offset
		return Resolve(owners, stored)
	case TagPrimitiveIndices:
		p := Handle[primitiveMarker]{raw: r.Owner}
		stored, ok := owners.PrimitiveIndices(p)
		if !ok {
			return Empty, false
		}
		stored.Offset += r.Offset
		return Resolve(owners, stored)
	default:
		return Empty, false
	}
}
