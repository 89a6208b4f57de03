// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package rendergraph

import (
	"fmt"
	"sync"

	"github.com/gogpu/rendergraph/dep"
	"github.com/gogpu/rendergraph/internal/suballoc"
	"github.com/gogpu/rendergraph/internal/vk"
	"github.com/gogpu/rendergraph/ref"
)

// bufferRecord is one Heap-owned buffer allocation: the suballocator's
// block (for Free), the declared size Unpack bounds-checks against,
// and the backend buffer a dependency injection's RefAccess barriers
// against. Heap never creates the VkBuffer itself — that belongs to
// whatever out-of-scope layer actually binds device memory — it only
// suballocates the byte range and keeps the handle for lookups.
type bufferRecord struct {
	block   suballoc.Block
	size    uint64
	backend vk.Buffer
}

type imageRecord struct {
	format  vk.Format
	extent  vk.Extent3D
	backend vk.Image
	view    vk.ImageView
}

type primitiveRecord struct {
	vertices    []ref.Reference
	indices     ref.Reference
	numVertices uint32
	stride      uint32
}

// GroupBufferBinding is one buffer slot of a resource group, paired
// with the element stride GroupBinding bounds-checks element indices
// against (spec.md §4.A's element-size validation supplement).
type GroupBufferBinding struct {
	Ref    ref.Reference
	Stride uint32
}

type groupRecord struct {
	buffers map[int32]GroupBufferBinding
	images  map[int32]ref.Reference
}

// Heap is the resource table spec.md §3/§6 calls "Heap": a buffer
// suballocator plus the buffer/image/primitive/group stores a
// Reference resolves against. One Heap backs one or more Renderers
// through ref.Owners — Renderer implements the full interface by
// delegating the buffer/primitive/group methods here and handling
// Attachment itself.
type Heap struct {
	device *Device

	mu    sync.Mutex
	alloc *suballoc.Allocator

	buffers    *ref.BufferStore[bufferRecord]
	images     *ref.ImageStore[imageRecord]
	primitives *ref.PrimitiveStore[primitiveRecord]
	groups     *ref.GroupStore[groupRecord]

	waitRecycleCap int
}

// CreateHeap builds a Heap over a region of totalSize bytes, suballocated
// in minBlockSize granules via the default buddy allocator (spec.md
// §6 "CreateHeap"). waitRecycleCap configures how many times a
// dependency signal may be caught before its semaphore returns to the
// pool (dep.New); 0 picks dep's own default of 1.
func CreateHeap(device *Device, totalSize, minBlockSize uint64, waitRecycleCap int) (*Heap, error) {
	alloc, err := suballoc.New(totalSize, minBlockSize)
	if err != nil {
		return nil, fmt.Errorf("rendergraph: creating heap: %w", err)
	}
	return &Heap{
		device:         device,
		alloc:          alloc,
		buffers:        ref.NewBufferStore[bufferRecord](),
		images:         ref.NewImageStore[imageRecord](),
		primitives:     ref.NewPrimitiveStore[primitiveRecord](),
		groups:         ref.NewGroupStore[groupRecord](),
		waitRecycleCap: waitRecycleCap,
	}, nil
}

// DestroyHeap is a documented no-op beyond dropping the heap's
// in-process bookkeeping: Heap never owns backend buffer/image
// objects (the caller created them), so there is nothing for it to
// tear down on the device side.
func DestroyHeap(h *Heap) {}

// AllocBuffer suballocates size bytes and registers backendBuffer
// against the returned handle (spec.md §6 "AllocBuffer").
func (h *Heap) AllocBuffer(backendBuffer vk.Buffer, size uint64) (ref.BufferHandle, error) {
	h.mu.Lock()
	block, err := h.alloc.Alloc(size)
	h.mu.Unlock()
	if err != nil {
		return ref.BufferHandle{}, fmt.Errorf("rendergraph: alloc buffer: %w", err)
	}
	handle := h.buffers.Register(bufferRecord{block: block, size: size, backend: backendBuffer})
	return handle, nil
}

// FreeBuffer releases a buffer allocated by AllocBuffer.
func (h *Heap) FreeBuffer(handle ref.BufferHandle) error {
	rec, ok := h.buffers.Lookup(handle)
	if !ok {
		return ErrReleased
	}
	h.mu.Lock()
	h.alloc.Free(rec.block)
	h.mu.Unlock()
	h.buffers.Release(handle)
	return nil
}

// AllocImage registers a caller-created backend image+view of the
// given format/extent under a new handle (spec.md §6 "AllocImage").
// Unlike AllocBuffer, no suballocation happens here: image memory
// layout is backend/tiling-dependent in a way this module's scope
// (spec.md §1) never reaches into.
func (h *Heap) AllocImage(backendImage vk.Image, view vk.ImageView, format vk.Format, extent vk.Extent3D) ref.ImageHandle {
	return h.images.Register(imageRecord{format: format, extent: extent, backend: backendImage, view: view})
}

// FreeImage releases an image allocated by AllocImage.
func (h *Heap) FreeImage(handle ref.ImageHandle) error {
	if _, ok := h.images.Lookup(handle); !ok {
		return ErrReleased
	}
	h.images.Release(handle)
	return nil
}

// AllocPrim registers a primitive's vertex attribute references, index
// reference, and vertex count/stride (spec.md §6 "AllocPrim",
// §4.A's primitive vertex/index resolution).
func (h *Heap) AllocPrim(vertices []ref.Reference, indices ref.Reference, numVertices, stride uint32) ref.PrimitiveHandle {
	return h.primitives.Register(primitiveRecord{
		vertices:    append([]ref.Reference(nil), vertices...),
		indices:     indices,
		numVertices: numVertices,
		stride:      stride,
	})
}

// FreePrim releases a primitive allocated by AllocPrim.
func (h *Heap) FreePrim(handle ref.PrimitiveHandle) error {
	if _, ok := h.primitives.Lookup(handle); !ok {
		return ErrReleased
	}
	h.primitives.Release(handle)
	return nil
}

// AllocGroup registers a resource group's buffer and image bindings
// (spec.md §6 "AllocGroup").
func (h *Heap) AllocGroup(buffers map[int32]GroupBufferBinding, images map[int32]ref.Reference) ref.GroupHandle {
	rec := groupRecord{buffers: make(map[int32]GroupBufferBinding, len(buffers)), images: make(map[int32]ref.Reference, len(images))}
	for k, v := range buffers {
		rec.buffers[k] = v
	}
	for k, v := range images {
		rec.images[k] = v
	}
	return h.groups.Register(rec)
}

// FreeGroup releases a group allocated by AllocGroup.
func (h *Heap) FreeGroup(handle ref.GroupHandle) error {
	if _, ok := h.groups.Lookup(handle); !ok {
		return ErrReleased
	}
	h.groups.Release(handle)
	return nil
}

// GroupBinding implements ref.Owners.
func (h *Heap) GroupBinding(g ref.GroupHandle, binding, elementIndex int32) (ref.Reference, uint32, bool) {
	rec, ok := h.groups.Lookup(g)
	if !ok {
		return ref.Empty, 0, false
	}
	if b, ok := rec.buffers[binding]; ok {
		r := b.Ref
		r.Offset += int64(elementIndex) * int64(b.Stride)
		return r, b.Stride, true
	}
	if r, ok := rec.images[binding]; ok {
		return r, 0, true
	}
	return ref.Empty, 0, false
}

// PrimitiveVertices implements ref.Owners.
func (h *Heap) PrimitiveVertices(p ref.PrimitiveHandle, attribute int32) (ref.Reference, bool) {
	rec, ok := h.primitives.Lookup(p)
	if !ok || attribute < 0 || int(attribute) >= len(rec.vertices) {
		return ref.Empty, false
	}
	return rec.vertices[attribute], true
}

// PrimitiveIndices implements ref.Owners.
func (h *Heap) PrimitiveIndices(p ref.PrimitiveHandle) (ref.Reference, bool) {
	rec, ok := h.primitives.Lookup(p)
	if !ok {
		return ref.Empty, false
	}
	return rec.indices, true
}

// PrimitiveVertexInfo implements ref.Owners.
func (h *Heap) PrimitiveVertexInfo(p ref.PrimitiveHandle) (uint32, uint32, bool) {
	rec, ok := h.primitives.Lookup(p)
	if !ok {
		return 0, 0, false
	}
	return rec.numVertices, rec.stride, true
}

// BufferSize implements ref.Owners.
func (h *Heap) BufferSize(b ref.BufferHandle) (uint64, bool) {
	rec, ok := h.buffers.Lookup(b)
	if !ok {
		return 0, false
	}
	return rec.size, true
}

// Attachment implements ref.Owners. A Heap holds no renderer
// attachments, so every lookup reports not found.
func (h *Heap) Attachment(a ref.AttachmentHandle, index int32) (ref.Reference, bool) {
	return ref.Empty, false
}

// backendBuffer/backendImage resolve an elementary Unpacked reference
// down to the backend handle PassUse's dep.RefAccess needs for barrier
// emission.
func (h *Heap) backendBuffer(u ref.Unpacked) vk.Buffer {
	rec, ok := h.buffers.Lookup(ref.BufferHandleFromRaw(u.Owner))
	if !ok {
		return 0
	}
	return rec.backend
}

func (h *Heap) backendImage(u ref.Unpacked) vk.Image {
	rec, ok := h.images.Lookup(ref.ImageHandleFromRaw(u.Owner))
	if !ok {
		return 0
	}
	return rec.backend
}

// CreateDep creates a Dependency bound to this heap's device and wait
// recycle policy (spec.md §6 "CreateDep").
func (h *Heap) CreateDep() *dep.Dependency {
	info := h.device.info
	return dep.New(h.device.cmds, info.GraphicsFamily, info.computeFamily(), info.transferFamily(), h.waitRecycleCap)
}

// DestroyDep tears down d.
func (h *Heap) DestroyDep(d *dep.Dependency) { d.Destroy() }

// DepSig records a producer-side PREPARE slot for every ref in inj,
// wrapping dep.Prepare — spec.md §6's "DepSig" is the heap-level
// simplification of the general catch/prepare protocol for the
// single-dependency, non-blocking case.
func (h *Heap) DepSig(cmd vk.CommandBuffer, d *dep.Dependency, inj *dep.Injection) error {
	return dep.Prepare(cmd, false, []*dep.Dependency{d}, inj)
}

// DepWait catches any pending signal overlapping inj's declared refs,
// wrapping dep.Catch — spec.md §6's "DepWait".
func (h *Heap) DepWait(cmd vk.CommandBuffer, d *dep.Dependency, inj *dep.Injection) error {
	return dep.Catch(cmd, []*dep.Dependency{d}, inj)
}
