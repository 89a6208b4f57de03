// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package graph

import "github.com/gogpu/rendergraph/internal/vk"

// Commands is the slice of internal/vk's Commands surface the render
// graph calls directly: render-pass and framebuffer lifecycle.
// Declared as an interface, not a dependency on *vk.Commands, purely
// so graph_test.go can exercise Warmup/Build/Rebuild/Destruct without
// a live Vulkan device — the same seam package dep uses for barrier
// emission. *vk.Commands satisfies it unmodified.
type Commands interface {
	CreateRenderPass(info *vk.RenderPassCreateInfo) (vk.RenderPass, error)
	DestroyRenderPass(vk.RenderPass)
	CreateFramebuffer(info *vk.FramebufferCreateInfo) (vk.Framebuffer, error)
	DestroyFramebuffer(vk.Framebuffer)
}
