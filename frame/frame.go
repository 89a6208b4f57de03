// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package frame implements the virtual frame deque of spec.md §4.G: an
// N-deep ring of in-flight frame slots, each owning its own command
// pool/buffer, "rendered" semaphore, "done" fence, and per-window
// acquire state, grounded on the teacher's hal/vulkan/fence_pool.go
// fencePool idiom generalized from a flat handle pool into a richer
// per-slot record.
package frame

import (
	"github.com/gogpu/rendergraph/graph"
	"github.com/gogpu/rendergraph/internal/vk"
)

// windowSlot is one window attachment's acquire state within a
// VirtualFrame: the "available" semaphore signaled by
// vkAcquireNextImageKHR, and the image index it resolved to this
// cycle.
type windowSlot struct {
	attachment int
	available  vk.Semaphore
	imageIndex uint32
	valid      bool
}

// VirtualFrame is one slot of the deque (spec.md §3 "Virtual frame").
// It implements backing.StaleSink (PushStale) so a Backing rebuild can
// defer destruction of a retired generation to this frame's next
// acquire, and graph.FrameView (AcquiredImageIndex) so Pass.Framebuffer
// can resolve which per-swapchain-image framebuffer to bind.
type VirtualFrame struct {
	pool vk.CommandPool
	cmd  vk.CommandBuffer

	rendered vk.Semaphore
	done     vk.Fence

	windows []windowSlot

	// stale holds destructor closures pushed against this exact slot by
	// backing.Rebuild while this frame was in flight. They run at the
	// start of this slot's next Acquire, once its done fence has been
	// waited on — spec.md §4.G / §8 invariant 7: "the destroy call
	// happens during the acquire of some later frame whose done fence
	// is signaled, never before."
	stale []func()
}

// CommandBuffer returns the frame's primary command buffer, for a
// Recorder to record draw commands into during Submit.
func (f *VirtualFrame) CommandBuffer() vk.CommandBuffer { return f.cmd }

// PushStale implements backing.StaleSink: it queues destroy for
// deferred execution at the start of this frame slot's next Acquire.
func (f *VirtualFrame) PushStale(destroy func()) {
	f.stale = append(f.stale, destroy)
}

// AcquiredImageIndex implements graph.FrameView: it reports the
// swapchain image index most recently acquired for windowAttachment,
// if any (false before the first successful Acquire, or if
// windowAttachment is not one of this deque's window attachments).
func (f *VirtualFrame) AcquiredImageIndex(windowAttachment int) (int, bool) {
	for _, s := range f.windows {
		if s.attachment == windowAttachment && s.valid {
			return int(s.imageIndex), true
		}
	}
	return 0, false
}

// Recorder is the caller-supplied draw-command collaborator (spec.md
// §1 places shader/draw-command authoring out of scope, the same way
// the windowing surface and memory allocator are out-of-scope
// collaborators for package backing). Submit calls Record once per
// graph pass, in submission order, with the pass's framebuffer for the
// currently acquired image already resolved.
type Recorder interface {
	Record(cmd vk.CommandBuffer, pass *graph.Pass, framebuffer vk.Framebuffer) error
}
