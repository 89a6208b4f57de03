// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package backing

import "github.com/gogpu/rendergraph/internal/vk"

// ImageAllocator is the caller-supplied memory-allocator collaborator
// spec.md §1 lists as out of scope ("the memory allocator"). Backing
// never touches device memory itself: it asks ImageAllocator for a
// backend image + view when an image-backed attachment needs a fresh
// generation, and hands resources it no longer needs back to it.
type ImageAllocator interface {
	AllocateImage(format vk.Format, extent vk.Extent3D, role Role) (vk.Image, vk.ImageView, error)
	FreeImage(image vk.Image, view vk.ImageView)
}

// Window is the caller-supplied windowing/surface collaborator
// spec.md §1 lists as out of scope ("the windowing/event layer").
// Backing never creates a VkSurfaceKHR; it asks Window to (re)resolve
// a swapchain against whatever surface the window already owns.
type Window interface {
	// EnsureSwapchain (re)creates the swapchain if old is stale
	// (zero handle, or the window's extent/surface changed), reusing
	// old as VkSwapchainCreateInfoKHR.oldSwapchain when non-zero so
	// presentation can hand off without a gap.
	EnsureSwapchain(old vk.SwapchainKHR) (Swapchain, error)
	// DestroySwapchain tears down a swapchain handing ownership back
	// to the window; called only once no frame can reference it.
	DestroySwapchain(vk.SwapchainKHR)
}

// StaleSink is where backing pushes a destroy closure for a resource
// generation that must outlive whatever frame is currently in flight
// (spec.md §3's Stale Entry, §9's "type-erased destructor closures").
// Declared here — rather than importing package frame's Deque
// directly — because frame also calls back into backing (Rebuild) on
// swapchain recreation; the interface seam avoids the resulting
// import cycle, matching the pattern package ref uses for Owners and
// package dep uses for Commands.
type StaleSink interface {
	PushStale(destroy func())
}

// GraphSink is backing's narrow view of package graph: notified
// whenever an attachment's backing is destructed or rebuilt so that
// passes consuming it can tear down or reconstruct their framebuffers
// (spec.md §4.D "notifies the graph"). Declared here for the same
// import-cycle reason as StaleSink; package graph implements it.
type GraphSink interface {
	Destruct(attachmentIndex int)
	Rebuild(attachmentIndex int, flags RecreateFlags) error
}
