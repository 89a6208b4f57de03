// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package backing

import "github.com/gogpu/rendergraph/internal/vk"

// Kind distinguishes an attachment's backing store (spec.md §3
// "Attachment": one of empty/image-backed/window-backed).
type Kind uint8

const (
	KindEmpty Kind = iota
	KindImage
	KindWindow
)

// Role is the attachment's use inside a render pass, passed through to
// the image allocator so it can pick the right VkImageUsageFlags; kept
// as a small enum here rather than a raw Vulkan usage bitmask so
// backing stays ignorant of the allocator's backend details.
type Role uint8

const (
	RoleColor Role = iota
	RoleDepthStencil
)

// RecreateFlags distinguishes why an attachment is being rebuilt,
// supplementing the spec's single implicit "RECREATE" signal
// (groufix's objects.h keeps separate _GFX_RECREATE/_GFX_RESIZE bits
// per window attachment so rebuild can tell a same-size present
// failure apart from an actual resize).
type RecreateFlags uint32

const (
	// RecreateSwapchain means the swapchain object itself must be torn
	// down and recreated (e.g. after VK_ERROR_OUT_OF_DATE_KHR).
	RecreateSwapchain RecreateFlags = 1 << iota
	// RecreateSize means only the resolved extent needs re-querying;
	// the existing swapchain/image may still be valid.
	RecreateSize
)

// imageBacking is a single generation of an image-attachment's
// storage (spec.md GLOSSARY "Backing"). Old generations are kept
// reachable via next until explicitly retired, so that in-flight
// frames referencing them through a cached framebuffer stay valid.
type imageBacking struct {
	image vk.Image
	view  vk.ImageView
	next  *imageBacking
}

// Swapchain is the resolved state of a window attachment's swapchain:
// the handle, its per-image views, pixel format and current extent.
type Swapchain struct {
	Handle vk.SwapchainKHR
	Images []vk.Image
	Views  []vk.ImageView
	Format vk.Format
	Extent vk.Extent2D
}

// Attachment is one addressable image slot of a renderer (spec.md §3
// / GLOSSARY). Exactly one of the image-backed or window-backed paths
// is populated, selected by kind.
type Attachment struct {
	kind Kind
	role Role

	// image-backed
	format vk.Format
	extent vk.Extent3D
	current *imageBacking

	// window-backed
	window    Window
	swapchain Swapchain
}
