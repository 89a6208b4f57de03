// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package backing implements the render backing of spec.md §4.D: the
// vector of attachments a renderer exposes to its render graph, each
// either empty, image-backed, or borrowed from a window's swapchain.
package backing

import (
	"fmt"

	"github.com/gogpu/rendergraph/internal/vk"
)

// State is the backing's lifecycle state (spec.md §4.D: "State machine
// INVALID → VALIDATED → BUILT").
type State int

const (
	StateInvalid State = iota
	StateValidated
	StateBuilt
)

func (s State) String() string {
	switch s {
	case StateInvalid:
		return "invalid"
	case StateValidated:
		return "validated"
	case StateBuilt:
		return "built"
	default:
		return "state(?)"
	}
}

// Backing owns a renderer's attachment vector plus the collaborators
// it needs to resolve them: an allocator for image-backed attachments,
// and optionally a stale sink and graph sink wired in by the caller
// once those packages exist (nil is valid — Rebuild/Destruct simply
// skip the notification).
type Backing struct {
	allocator ImageAllocator
	stale     StaleSink
	graph     GraphSink

	state       State
	attachments []Attachment
}

// New creates an empty backing against allocator. stale and graph may
// be set later via SetStaleSink/SetGraphSink once those collaborators
// exist — a fresh renderer attaches windows/images before either the
// frame deque or the graph has anything to notify.
func New(allocator ImageAllocator) *Backing {
	return &Backing{allocator: allocator, state: StateInvalid}
}

func (b *Backing) SetStaleSink(s StaleSink) { b.stale = s }
func (b *Backing) SetGraphSink(g GraphSink) { b.graph = g }

func (b *Backing) State() State         { return b.state }
func (b *Backing) NumAttachments() int  { return len(b.attachments) }

func (b *Backing) checkIndex(index int) error {
	if index < 0 || index >= len(b.attachments) {
		return fmt.Errorf("backing: attachment index %d out of range [0,%d)", index, len(b.attachments))
	}
	return nil
}

// AttachImage registers a new image-backed attachment and returns its
// index. Invalidates the backing: the next Build re-resolves every
// attachment, mirroring the render graph's "a structural edit drops
// the state" rule (spec.md §4.E, applied here by analogy since §4.D
// is silent on attach-time state).
func (b *Backing) AttachImage(format vk.Format, extent vk.Extent3D, role Role) int {
	b.attachments = append(b.attachments, Attachment{
		kind:   KindImage,
		role:   role,
		format: format,
		extent: extent,
	})
	b.state = StateInvalid
	return len(b.attachments) - 1
}

// AttachWindow registers a new window-backed attachment and returns
// its index.
func (b *Backing) AttachWindow(window Window, role Role) int {
	b.attachments = append(b.attachments, Attachment{
		kind:   KindWindow,
		role:   role,
		window: window,
	})
	b.state = StateInvalid
	return len(b.attachments) - 1
}

// validate checks every attachment has enough information to build
// (spec.md §4.D names no explicit validation step; this mirrors the
// graph's analyze no-op, catching the one failure mode backing can
// detect before touching the backend: a zero image extent).
func (b *Backing) validate() error {
	for i, a := range b.attachments {
		if a.kind == KindImage && (a.extent.Width == 0 || a.extent.Height == 0) {
			return fmt.Errorf("backing: attachment %d has zero extent", i)
		}
	}
	b.state = StateValidated
	return nil
}

// Build allocates image backings for every image-attachment that does
// not already have one, and ensures every window-attachment has a
// valid swapchain (spec.md §4.D). Idempotent: once BUILT, a second
// call is a no-op. Existing image-backed generations are left alone —
// Build only fills in attachments that have never been resolved;
// Rebuild is the entry point for forcing a fresh generation.
func (b *Backing) Build() error {
	if b.state == StateInvalid {
		if err := b.validate(); err != nil {
			return err
		}
	}
	if b.state == StateBuilt {
		return nil
	}

	for i := range b.attachments {
		if err := b.buildOne(i); err != nil {
			return err
		}
	}
	b.state = StateBuilt
	return nil
}

func (b *Backing) buildOne(i int) error {
	a := &b.attachments[i]
	switch a.kind {
	case KindImage:
		if a.current != nil {
			return nil
		}
		img, view, err := b.allocator.AllocateImage(a.format, a.extent, a.role)
		if err != nil {
			return err
		}
		a.current = &imageBacking{image: img, view: view}
	case KindWindow:
		if a.swapchain.Handle != 0 {
			return nil
		}
		sc, err := a.window.EnsureSwapchain(a.swapchain.Handle)
		if err != nil {
			return err
		}
		a.swapchain = sc
	}
	return nil
}

// Rebuild forces re-resolution of one attachment — called on window
// resize or an explicit backend transient result (spec.md §4.D). An
// image attachment's previous generation, if any, is pushed to the
// stale sink rather than freed immediately, so in-flight frames that
// cached its image/view keep reading valid memory until a later frame
// acquire retires it. A window attachment's old swapchain is pushed to
// the stale sink only when flags include RecreateSwapchain and the
// window returned a different handle. On success the graph sink (if wired) is told to
// rebuild every pass consuming this attachment.
func (b *Backing) Rebuild(index int, flags RecreateFlags) error {
	if err := b.checkIndex(index); err != nil {
		return err
	}
	a := &b.attachments[index]

	switch a.kind {
	case KindImage:
		old := a.current
		img, view, err := b.allocator.AllocateImage(a.format, a.extent, a.role)
		if err != nil {
			b.downgrade()
			return err
		}
		a.current = &imageBacking{image: img, view: view, next: old}
		if old != nil && b.stale != nil {
			allocator := b.allocator
			b.stale.PushStale(func() { allocator.FreeImage(old.image, old.view) })
		}
	case KindWindow:
		oldHandle := a.swapchain.Handle
		sc, err := a.window.EnsureSwapchain(oldHandle)
		if err != nil {
			b.downgrade()
			return err
		}
		a.swapchain = sc
		if oldHandle != 0 && oldHandle != sc.Handle && flags&RecreateSwapchain != 0 && b.stale != nil {
			win := a.window
			b.stale.PushStale(func() { win.DestroySwapchain(oldHandle) })
		}
	default:
		return nil
	}

	if b.graph != nil {
		return b.graph.Rebuild(index, flags)
	}
	return nil
}

// downgrade drops a BUILT backing to VALIDATED after a failed Rebuild,
// matching the graph's "failures downgrade state but do not purge"
// rule (spec.md §4.E, applied here since §4.D describes the same
// partial-failure posture for the backing).
func (b *Backing) downgrade() {
	if b.state == StateBuilt {
		b.state = StateValidated
	}
}

// Destruct immediately retires attachment index's current backing —
// no stale-queue deferral, unlike Rebuild — and notifies the graph
// sink so passes consuming it tear down (spec.md §4.D).
func (b *Backing) Destruct(index int) error {
	if err := b.checkIndex(index); err != nil {
		return err
	}
	a := &b.attachments[index]

	switch a.kind {
	case KindImage:
		if a.current != nil {
			b.allocator.FreeImage(a.current.image, a.current.view)
			a.current = nil
		}
	case KindWindow:
		if a.swapchain.Handle != 0 {
			a.window.DestroySwapchain(a.swapchain.Handle)
			a.swapchain = Swapchain{}
		}
	}

	b.downgrade()
	if b.graph != nil {
		b.graph.Destruct(index)
	}
	return nil
}

// Role returns attachment index's declared role (color vs
// depth/stencil), used by package graph to classify consumes without
// duplicating the attachment table.
func (b *Backing) Role(index int) Role {
	if index < 0 || index >= len(b.attachments) {
		return RoleColor
	}
	return b.attachments[index].role
}

// IsWindow reports whether attachment index is window-backed.
func (b *Backing) IsWindow(index int) bool {
	if index < 0 || index >= len(b.attachments) {
		return false
	}
	return b.attachments[index].kind == KindWindow
}

// Format returns the attachment's resolved pixel format (zero if not
// yet built).
func (b *Backing) Format(index int) vk.Format {
	if index < 0 || index >= len(b.attachments) {
		return 0
	}
	a := &b.attachments[index]
	if a.kind == KindWindow {
		return a.swapchain.Format
	}
	return a.format
}

// Extent returns the attachment's resolved 2D extent (zero if not yet
// built): the swapchain's current extent for window attachments, the
// declared extent for image attachments.
func (b *Backing) Extent(index int) vk.Extent2D {
	if index < 0 || index >= len(b.attachments) {
		return vk.Extent2D{}
	}
	a := &b.attachments[index]
	if a.kind == KindWindow {
		return a.swapchain.Extent
	}
	return vk.Extent2D{Width: a.extent.Width, Height: a.extent.Height}
}

// ImageView returns the current generation's image view for an
// image-backed attachment, or the null handle if unbuilt or
// window-backed (use SwapchainViews for those).
func (b *Backing) ImageView(index int) vk.ImageView {
	if index < 0 || index >= len(b.attachments) {
		return 0
	}
	a := &b.attachments[index]
	if a.kind != KindImage || a.current == nil {
		return 0
	}
	return a.current.view
}

// SwapchainViews returns the per-swapchain-image views of a
// window-backed attachment, used by package graph to build one
// framebuffer per swapchain image (spec.md §4.F).
func (b *Backing) SwapchainViews(index int) []vk.ImageView {
	if index < 0 || index >= len(b.attachments) {
		return nil
	}
	return b.attachments[index].swapchain.Views
}

// SwapchainHandle returns a window attachment's current swapchain
// handle, or zero if unbuilt or image-backed.
func (b *Backing) SwapchainHandle(index int) vk.SwapchainKHR {
	if index < 0 || index >= len(b.attachments) {
		return 0
	}
	return b.attachments[index].swapchain.Handle
}
