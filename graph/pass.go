// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package graph

import (
	"fmt"

	"github.com/gogpu/rendergraph/backing"
	"github.com/gogpu/rendergraph/dep"
	"github.com/gogpu/rendergraph/internal/vk"
)

// Consume is a pass's declaration that it reads or writes a specific
// attachment with a given access mask and shader-stage hint (spec.md
// §3 Pass, GLOSSARY "Consume").
type Consume struct {
	Attachment int
	Access     dep.AccessMask
	Stages     dep.ShaderStage
	// Clear requests VK_ATTACHMENT_LOAD_OP_CLEAR instead of LOAD for
	// this attachment at the start of the pass.
	Clear bool
}

// FrameView is the narrow slice of a virtual frame's state
// Pass.Framebuffer needs: which swapchain image index is currently
// acquired for a given window attachment. Declared here — rather than
// importing package frame — because frame will itself call into graph
// to record passes; the interface seam avoids the cycle, matching
// package backing's StaleSink/GraphSink pattern.
type FrameView interface {
	AcquiredImageIndex(windowAttachment int) (int, bool)
}

// Pass is a node in the render graph's DAG (spec.md §3/§4.F).
type Pass struct {
	graph   *Graph
	parents []*Pass

	level int
	order int
	gen   uint64

	consumes []Consume

	windowBacking int
	depthStencil  int
	width, height uint32

	renderPass      vk.RenderPass
	framebuffers    []vk.Framebuffer
	framebufferKeys []framebufferKey
}

// Level returns the pass's longest-parent-chain length.
func (p *Pass) Level() int { return p.level }

// Order returns the pass's dense submission-order index, assigned by
// the most recent Warmup/Build.
func (p *Pass) Order() int { return p.order }

// Gen returns the pass's rebuild generation counter.
func (p *Pass) Gen() uint64 { return p.gen }

// Parents returns the pass's parent passes (weak references: Pass
// never holds a strong/owning pointer back to its children).
func (p *Pass) Parents() []*Pass { return append([]*Pass(nil), p.parents...) }

// SetConsumes replaces the pass's consume declarations. Must be called
// before Warmup/Build for them to take effect.
func (p *Pass) SetConsumes(consumes []Consume) {
	p.consumes = append([]Consume(nil), consumes...)
}

func (p *Pass) usesAttachment(index int) bool {
	for _, c := range p.consumes {
		if c.Attachment == index {
			return true
		}
	}
	return false
}

// resolveAttachments picks the window-backing and depth/stencil
// attachment indices out of the consume list and resolves the
// framebuffer extent from whichever attachment determines it (spec.md
// §4.F: "resolves the framebuffer extent from the chosen attachment's
// resolved size").
func (p *Pass) resolveAttachments() error {
	b := p.graph.backing
	windowBacking, depthStencil := -1, -1
	for _, c := range p.consumes {
		if b.IsWindow(c.Attachment) {
			windowBacking = c.Attachment
		} else if b.Role(c.Attachment) == backing.RoleDepthStencil {
			depthStencil = c.Attachment
		}
	}

	extentSource := windowBacking
	if extentSource < 0 {
		extentSource = depthStencil
	}
	if extentSource < 0 && len(p.consumes) > 0 {
		extentSource = p.consumes[0].Attachment
	}
	if extentSource < 0 {
		return fmt.Errorf("graph: pass has no consumes to resolve a framebuffer extent from")
	}

	extent := b.Extent(extentSource)
	if extent.Width == 0 || extent.Height == 0 {
		return fmt.Errorf("graph: attachment %d is not built", extentSource)
	}

	p.windowBacking = windowBacking
	p.depthStencil = depthStencil
	p.width, p.height = extent.Width, extent.Height
	return nil
}

// warmup materializes the pass's cached backend render-pass
// description (spec.md §4.F), sharing one VkRenderPass across every
// pass with an identical consume shape.
func (p *Pass) warmup() error {
	b := p.graph.backing
	descs := make([]vk.AttachmentDescription, len(p.consumes))
	colorRefs := make([]vk.AttachmentReference, 0, len(p.consumes))
	var depthRef *vk.AttachmentReference

	for i, c := range p.consumes {
		isDepth := b.Role(c.Attachment) == backing.RoleDepthStencil
		layout := vk.ImageLayoutColorAttachmentOptimal
		if isDepth {
			layout = vk.ImageLayoutDepthStencilAttachmentOptimal
		}
		loadOp := vk.AttachmentLoadOpLoad
		if c.Clear {
			loadOp = vk.AttachmentLoadOpClear
		}

		descs[i] = vk.AttachmentDescription{
			Format:         b.Format(c.Attachment),
			Samples:        vk.SampleCount1,
			LoadOp:         loadOp,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  layout,
			FinalLayout:    layout,
		}

		ref := vk.AttachmentReference{Attachment: uint32(i), Layout: layout}
		if isDepth {
			r := ref
			depthRef = &r
		} else {
			colorRefs = append(colorRefs, ref)
		}
	}

	rp, err := p.graph.cache.getOrCreateRenderPass(descs, colorRefs, depthRef)
	if err != nil {
		return err
	}
	p.renderPass = rp
	return nil
}

// viewSets returns one ordered view-per-consume list per framebuffer
// to create: N lists (N = swapchain image count) if the pass has a
// window-backed consume, otherwise exactly one.
func (p *Pass) viewSets() ([][]vk.ImageView, error) {
	b := p.graph.backing
	if p.windowBacking < 0 {
		views := make([]vk.ImageView, len(p.consumes))
		for i, c := range p.consumes {
			views[i] = b.ImageView(c.Attachment)
		}
		return [][]vk.ImageView{views}, nil
	}

	swapViews := b.SwapchainViews(p.windowBacking)
	if len(swapViews) == 0 {
		return nil, fmt.Errorf("graph: window attachment %d has no swapchain images yet", p.windowBacking)
	}
	sets := make([][]vk.ImageView, len(swapViews))
	for img, swapView := range swapViews {
		views := make([]vk.ImageView, len(p.consumes))
		for i, c := range p.consumes {
			if c.Attachment == p.windowBacking {
				views[i] = swapView
			} else {
				views[i] = b.ImageView(c.Attachment)
			}
		}
		sets[img] = views
	}
	return sets, nil
}

// build selects the pass's backing attachments, resolves its
// framebuffer extent, and creates one framebuffer per swapchain image
// (or a single one for an entirely image-backed pass) (spec.md §4.F).
func (p *Pass) build(flags backing.RecreateFlags) error {
	if err := p.resolveAttachments(); err != nil {
		return err
	}
	if err := p.warmup(); err != nil {
		return err
	}

	sets, err := p.viewSets()
	if err != nil {
		return err
	}

	p.destroyFramebuffers()

	fbs := make([]vk.Framebuffer, 0, len(sets))
	keys := make([]framebufferKey, 0, len(sets))
	for _, views := range sets {
		fb, key, err := p.graph.cache.getOrCreateFramebuffer(p.renderPass, views, p.width, p.height)
		if err != nil {
			for i, created := range fbs {
				p.graph.cache.releaseFramebuffer(keys[i], created)
			}
			return err
		}
		fbs = append(fbs, fb)
		keys = append(keys, key)
	}

	p.framebuffers = fbs
	p.framebufferKeys = keys
	p.gen++
	return nil
}

func (p *Pass) destroyFramebuffers() {
	for i, fb := range p.framebuffers {
		p.graph.cache.releaseFramebuffer(p.framebufferKeys[i], fb)
	}
	p.framebuffers = nil
	p.framebufferKeys = nil
}

// destruct tears down the pass's framebuffers but leaves its
// render-pass cache entry alive, so a future rebuild that lands on an
// identical consume shape reuses it (spec.md §4.F).
func (p *Pass) destruct() {
	p.destroyFramebuffers()
}

// Framebuffer returns the framebuffer matching frame's currently
// acquired swapchain image for this pass's window backing, or the
// null handle if unknown (e.g. before Acquire, or if the pass has no
// window-backed consume and hasn't built yet) (spec.md §4.F).
func (p *Pass) Framebuffer(frame FrameView) vk.Framebuffer {
	if len(p.framebuffers) == 0 {
		return 0
	}
	if p.windowBacking < 0 {
		return p.framebuffers[0]
	}
	idx, ok := frame.AcquiredImageIndex(p.windowBacking)
	if !ok || idx < 0 || idx >= len(p.framebuffers) {
		return 0
	}
	return p.framebuffers[idx]
}
