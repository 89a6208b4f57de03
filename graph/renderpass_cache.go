// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package graph

import (
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"github.com/gogpu/rendergraph/internal/vk"
)

// renderPassKey identifies a render pass by the ordered attachment
// descriptions and references that fully determine its
// VkRenderPassCreateInfo — two passes with identical consume lists
// share one backend render pass (spec.md §4.F).
type renderPassKey string

func buildRenderPassKey(descs []vk.AttachmentDescription, colorRefs []vk.AttachmentReference, depthRef *vk.AttachmentReference) renderPassKey {
	var b strings.Builder
	for _, d := range descs {
		fmt.Fprintf(&b, "a(%d,%d,%d,%d,%d,%d,%d)", d.Format, d.Samples, d.LoadOp, d.StoreOp, d.StencilLoadOp, d.InitialLayout, d.FinalLayout)
	}
	for _, r := range colorRefs {
		fmt.Fprintf(&b, "c(%d,%d)", r.Attachment, r.Layout)
	}
	if depthRef != nil {
		fmt.Fprintf(&b, "d(%d,%d)", depthRef.Attachment, depthRef.Layout)
	}
	return renderPassKey(b.String())
}

// framebufferKey identifies a framebuffer by the render pass it is
// compatible with, its ordered image views, and its extent (spec.md
// §4.F's "FramebufferKey").
type framebufferKey struct {
	pass   vk.RenderPass
	views  string
	width  uint32
	height uint32
}

func buildFramebufferKey(pass vk.RenderPass, views []vk.ImageView, width, height uint32) framebufferKey {
	var b strings.Builder
	for _, v := range views {
		fmt.Fprintf(&b, "%d,", v)
	}
	return framebufferKey{pass: pass, views: b.String(), width: width, height: height}
}

// RenderPassCache de-duplicates render passes across passes with
// identical descriptions and caches framebuffers by their backing
// views, grounded on hal/vulkan/renderpass.go's RenderPassCache with
// its RWMutex double-checked-lock idiom: a read lock serves the common
// "already cached" path, escalating to a write lock only to insert a
// freshly created handle. Render-pass entries are never evicted (they
// outlive any single pass's rebuilds, per spec.md §4.F "leaves the
// render-pass cache entry alive"); framebuffer entries are removed
// explicitly by Pass.destruct via releaseFramebuffer.
type RenderPassCache struct {
	mu    sync.RWMutex
	cmds  Commands
	passes       map[renderPassKey]vk.RenderPass
	framebuffers map[framebufferKey]vk.Framebuffer
}

func NewRenderPassCache(cmds Commands) *RenderPassCache {
	return &RenderPassCache{
		cmds:         cmds,
		passes:       make(map[renderPassKey]vk.RenderPass),
		framebuffers: make(map[framebufferKey]vk.Framebuffer),
	}
}

func (c *RenderPassCache) getOrCreateRenderPass(descs []vk.AttachmentDescription, colorRefs []vk.AttachmentReference, depthRef *vk.AttachmentReference) (vk.RenderPass, error) {
	key := buildRenderPassKey(descs, colorRefs, depthRef)

	c.mu.RLock()
	if rp, ok := c.passes[key]; ok {
		c.mu.RUnlock()
		return rp, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if rp, ok := c.passes[key]; ok {
		return rp, nil
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    uint32(len(colorRefs)),
		PDepthStencilAttachment: depthRef,
	}
	if len(colorRefs) > 0 {
		subpass.PColorAttachments = &colorRefs[0]
	}

	info := vk.RenderPassCreateInfo{
		SType:        vk.StructureTypeRenderPassCreateInfo,
		SubpassCount: 1,
		PSubpasses:   &subpass,
	}
	if len(descs) > 0 {
		info.AttachmentCount = uint32(len(descs))
		info.PAttachments = &descs[0]
	}

	rp, err := c.cmds.CreateRenderPass(&info)
	if err != nil {
		return 0, err
	}
	c.passes[key] = rp
	return rp, nil
}

func (c *RenderPassCache) getOrCreateFramebuffer(pass vk.RenderPass, views []vk.ImageView, width, height uint32) (vk.Framebuffer, framebufferKey, error) {
	key := buildFramebufferKey(pass, views, width, height)

	c.mu.RLock()
	if fb, ok := c.framebuffers[key]; ok {
		c.mu.RUnlock()
		return fb, key, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if fb, ok := c.framebuffers[key]; ok {
		return fb, key, nil
	}

	info := vk.FramebufferCreateInfo{
		SType:      vk.StructureTypeFramebufferCreateInfo,
		RenderPass: pass,
		Width:      width,
		Height:     height,
		Layers:     1,
	}
	if len(views) > 0 {
		info.AttachmentCount = uint32(len(views))
		info.PAttachments = (*vk.ImageView)(unsafe.Pointer(&views[0]))
	}

	fb, err := c.cmds.CreateFramebuffer(&info)
	if err != nil {
		return 0, framebufferKey{}, err
	}
	c.framebuffers[key] = fb
	return fb, key, nil
}

// releaseFramebuffer destroys and forgets a cached framebuffer; called
// by Pass.destruct, which owns the full set of keys it created.
func (c *RenderPassCache) releaseFramebuffer(key framebufferKey, fb vk.Framebuffer) {
	c.mu.Lock()
	if cur, ok := c.framebuffers[key]; ok && cur == fb {
		delete(c.framebuffers, key)
	}
	c.mu.Unlock()
	c.cmds.DestroyFramebuffer(fb)
}
