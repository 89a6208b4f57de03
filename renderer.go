// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package rendergraph

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/rendergraph/backing"
	"github.com/gogpu/rendergraph/dep"
	"github.com/gogpu/rendergraph/frame"
	"github.com/gogpu/rendergraph/graph"
	"github.com/gogpu/rendergraph/internal/vk"
	"github.com/gogpu/rendergraph/ref"
)

// attachmentRecord backs a Renderer-issued ref.AttachmentHandle: the
// dense backing-package index graph.Consume addresses it by, plus the
// heap Reference it resolves to when it's image-backed (empty for a
// window-backed attachment — Attachment then reports not-found, per
// ref.Owners' documented "window-backed" failure mode).
type attachmentRecord struct {
	backingIndex int
	heapRef      ref.Reference
}

// Consume is the Renderer-level mirror of graph.Consume, addressing
// the attachment by its opaque handle rather than backing's internal
// dense index — the index translation happens once, in PassConsume.
type Consume struct {
	Attachment ref.AttachmentHandle
	Access     dep.AccessMask
	Stages     dep.ShaderStage
	Clear      bool
}

// Renderer is a renderer's full state: its attachments (backing), its
// passes (graph), and its virtual frame deque (frame), plus the
// dependency-injection bookkeeping PassUse/Submit thread through one
// frame's worth of resource touches (spec.md §3 "Renderer", §6).
type Renderer struct {
	device *Device
	heap   *Heap

	backing *backing.Backing
	graph   *graph.Graph
	deque   *frame.Deque

	attachments *ref.AttachmentStore[attachmentRecord]

	numFrames int
	dep       *dep.Dependency

	pendingInjection *dep.Injection
	degraded         atomic.Bool
}

// CreateRenderer builds a Renderer against device and heap. allocator
// backs image-attachment allocation the same way backing.New takes
// one directly; numFrames sets the virtual frame deque's depth once
// the renderer's first Acquire builds it (spec.md §6 "CreateRenderer").
func CreateRenderer(device *Device, heap *Heap, allocator backing.ImageAllocator, numFrames int) *Renderer {
	b := backing.New(allocator)
	g := graph.New(b, device.cmds)
	return &Renderer{
		device:      device,
		heap:        heap,
		backing:     b,
		graph:       g,
		attachments: ref.NewAttachmentStore[attachmentRecord](),
		numFrames:   numFrames,
		dep:         heap.CreateDep(),
	}
}

// DestroyRenderer tears down r's frame deque (after draining every
// in-flight frame) and its dependency object.
func DestroyRenderer(r *Renderer) error {
	if r.deque != nil {
		if err := r.deque.SyncFrames(); err != nil {
			return fmt.Errorf("rendergraph: destroying renderer: %w", err)
		}
		r.deque.Destroy()
	}
	r.heap.DestroyDep(r.dep)
	return nil
}

// AttachWindow registers a window-backed attachment (spec.md §6
// "AttachWindow").
func (r *Renderer) AttachWindow(window backing.Window, role backing.Role) ref.AttachmentHandle {
	idx := r.backing.AttachWindow(window, role)
	return r.attachments.Register(attachmentRecord{backingIndex: idx})
}

// AttachImage registers an image-backed attachment, optionally backed
// by a heap allocation (heapRef, used to resolve the attachment as a
// Reference elsewhere — e.g. a later pass sampling a prior pass's
// output; pass ref.Empty if the attachment is never referenced that
// way) (spec.md §6 "AttachImage").
func (r *Renderer) AttachImage(format vk.Format, extent vk.Extent3D, role backing.Role, heapRef ref.Reference) ref.AttachmentHandle {
	idx := r.backing.AttachImage(format, extent, role)
	return r.attachments.Register(attachmentRecord{backingIndex: idx, heapRef: heapRef})
}

// AddPass adds a pass to the render graph (spec.md §6 "AddPass").
func (r *Renderer) AddPass(parents ...*graph.Pass) *graph.Pass {
	return r.graph.AddPass(parents...)
}

// PassConsume declares p's attachment consumes, translating each
// Renderer-level attachment handle to the dense index graph.Pass
// stores internally (spec.md §6 "PassConsume").
func (r *Renderer) PassConsume(p *graph.Pass, consumes []Consume) error {
	out := make([]graph.Consume, len(consumes))
	for i, c := range consumes {
		rec, ok := r.attachments.Lookup(c.Attachment)
		if !ok {
			return fmt.Errorf("%w: attachment", ErrReleased)
		}
		out[i] = graph.Consume{Attachment: rec.backingIndex, Access: c.Access, Stages: c.Stages, Clear: c.Clear}
	}
	p.SetConsumes(out)
	return nil
}

// PassUse declares that the pass currently being recorded touches r
// with the given access, accumulating it into the dependency injection
// Submit resolves against (spec.md §6 "PassUse"). May be called
// repeatedly for one frame's worth of touches, same as dep.Catch/
// dep.Prepare allow (spec.md §4.C).
func (r *Renderer) PassUse(reference ref.Reference, rng dep.Range, access dep.AccessMask, stages dep.ShaderStage) error {
	u, ok := ref.Unpack(r, reference)
	if !ok {
		return ErrInvalidReference
	}
	buf, img := r.backendHandles(u)
	if r.pendingInjection == nil {
		r.pendingInjection = dep.NewInjection(dep.QueueGraphics)
	}
	r.pendingInjection.AddRef(dep.RefAccess{
		Ref: u, Range: rng, Access: access, ShaderStages: stages,
		BackendBuffer: buf, BackendImage: img,
	})
	return nil
}

// backendHandles resolves an elementary reference down to the backend
// vk.Buffer/vk.Image pair a dependency injection's barrier emission
// needs. A window-backed attachment has no heap-owned backend image
// (its image comes from the swapchain, already load/store-managed by
// the render pass itself), so it resolves to the zero handle — a
// deliberate simplification: its ref.Unpacked identity is still enough
// for Catch's resource-equality check to find same-attachment overlaps.
func (r *Renderer) backendHandles(u ref.Unpacked) (vk.Buffer, vk.Image) {
	switch u.Tag {
	case ref.TagBuffer:
		return r.heap.backendBuffer(u), 0
	case ref.TagImage:
		return 0, r.heap.backendImage(u)
	case ref.TagAttachment:
		stored, ok := r.Attachment(ref.AttachmentHandleFromRaw(u.Owner), 0)
		if !ok {
			return 0, 0
		}
		inner, ok := ref.Unpack(r, stored)
		if !ok {
			return 0, 0
		}
		return r.backendHandles(inner)
	default:
		return 0, 0
	}
}

// NumSinks and Sink expose the render graph's sink passes (spec.md §6
// "NumSinks"/"Sink").
func (r *Renderer) NumSinks() int          { return r.graph.NumSinks() }
func (r *Renderer) Sink(i int) *graph.Pass { return r.graph.Sink(i) }

func (r *Renderer) windowAttachments() []int {
	var out []int
	for i := 0; i < r.backing.NumAttachments(); i++ {
		if r.backing.IsWindow(i) {
			out = append(out, i)
		}
	}
	return out
}

// ensureDeque builds the backing, the graph, and the frame deque on
// first use: a renderer accumulates attachments/passes before anyone
// can Acquire, so the deque cannot be constructed (it needs the final
// window-attachment list) until the first Acquire call commits to it.
func (r *Renderer) ensureDeque() error {
	if r.deque != nil {
		return nil
	}
	if err := r.backing.Build(); err != nil {
		return fmt.Errorf("rendergraph: building backing: %w", err)
	}
	if err := r.graph.Build(); err != nil {
		return fmt.Errorf("rendergraph: building graph: %w", err)
	}
	info := r.device.info
	d, err := frame.New(r.device.cmds, r.backing, r.graph, info.GraphicsFamily, info.GraphicsQueue, info.PresentQueue, r.numFrames, r.windowAttachments())
	if err != nil {
		return fmt.Errorf("rendergraph: building frame deque: %w", err)
	}
	r.deque = d
	return nil
}

// Acquire begins a frame, blocking until that frame slot's previous
// submission has completed (spec.md §6 "Acquire").
func (r *Renderer) Acquire() (*frame.VirtualFrame, error) {
	if r.degraded.Load() {
		return nil, ErrDegraded
	}
	if err := r.ensureDeque(); err != nil {
		return nil, err
	}
	f, err := r.deque.Acquire()
	if err != nil {
		return nil, fmt.Errorf("rendergraph: acquire: %w", err)
	}
	return f, nil
}

// Submit records every pass via recorder and submits the frame,
// resolving any PassUse touches accumulated since the last Submit
// (spec.md §6 "Submit"). Any error from the frame deque's Submit — a
// backend failure, a Recorder error, or dependency-protocol misuse —
// latches the renderer degraded: it returns ErrDegraded on every
// subsequent call rather
// than risk driving a backend further into an inconsistent state
// (spec.md §7).
func (r *Renderer) Submit(f *frame.VirtualFrame, recorder frame.Recorder) error {
	if r.degraded.Load() {
		return ErrDegraded
	}

	inj := r.pendingInjection
	r.pendingInjection = nil
	var deps []*dep.Dependency
	if inj != nil {
		deps = []*dep.Dependency{r.dep}
	}

	if err := r.deque.Submit(f, deps, inj, recorder); err != nil {
		r.degraded.Store(true)
		return fmt.Errorf("rendergraph: submit: %w", err)
	}
	return nil
}

// Wait drains every frame slot's "done" fence (spec.md §6 "Wait"),
// guaranteeing no frame has work in flight — e.g. before destroying
// the renderer or a resource it references.
func (r *Renderer) Wait() error {
	if r.deque == nil {
		return nil
	}
	return r.deque.SyncFrames()
}

// Attachment implements ref.Owners, resolving an image-backed
// attachment to its heap Reference.
func (r *Renderer) Attachment(a ref.AttachmentHandle, index int32) (ref.Reference, bool) {
	rec, ok := r.attachments.Lookup(a)
	if !ok || rec.heapRef.IsEmpty() {
		return ref.Empty, false
	}
	return rec.heapRef, true
}

// GroupBinding implements ref.Owners by delegating to the renderer's heap.
func (r *Renderer) GroupBinding(g ref.GroupHandle, binding, elementIndex int32) (ref.Reference, uint32, bool) {
	return r.heap.GroupBinding(g, binding, elementIndex)
}

// PrimitiveVertices implements ref.Owners by delegating to the renderer's heap.
func (r *Renderer) PrimitiveVertices(p ref.PrimitiveHandle, attribute int32) (ref.Reference, bool) {
	return r.heap.PrimitiveVertices(p, attribute)
}

// PrimitiveIndices implements ref.Owners by delegating to the renderer's heap.
func (r *Renderer) PrimitiveIndices(p ref.PrimitiveHandle) (ref.Reference, bool) {
	return r.heap.PrimitiveIndices(p)
}

// PrimitiveVertexInfo implements ref.Owners by delegating to the renderer's heap.
func (r *Renderer) PrimitiveVertexInfo(p ref.PrimitiveHandle) (uint32, uint32, bool) {
	return r.heap.PrimitiveVertexInfo(p)
}

// BufferSize implements ref.Owners by delegating to the renderer's heap.
func (r *Renderer) BufferSize(b ref.BufferHandle) (uint64, bool) {
	return r.heap.BufferSize(b)
}
