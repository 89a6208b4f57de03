// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package graph

import (
	"testing"

	"github.com/gogpu/rendergraph/backing"
	"github.com/gogpu/rendergraph/internal/vk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCommands struct {
	nextPass vk.RenderPass
	nextFB   vk.Framebuffer
	createdPasses int
	createdFBs    int
	destroyedFBs  []vk.Framebuffer
}

func (f *fakeCommands) CreateRenderPass(info *vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	f.nextPass++
	f.createdPasses++
	return f.nextPass, nil
}
func (f *fakeCommands) DestroyRenderPass(vk.RenderPass) {}
func (f *fakeCommands) CreateFramebuffer(info *vk.FramebufferCreateInfo) (vk.Framebuffer, error) {
	f.nextFB++
	f.createdFBs++
	return f.nextFB, nil
}
func (f *fakeCommands) DestroyFramebuffer(fb vk.Framebuffer) {
	f.destroyedFBs = append(f.destroyedFBs, fb)
}

type fakeAllocator struct{ n vk.Image }

func (a *fakeAllocator) AllocateImage(format vk.Format, extent vk.Extent3D, role backing.Role) (vk.Image, vk.ImageView, error) {
	a.n++
	return a.n, vk.ImageView(a.n), nil
}
func (a *fakeAllocator) FreeImage(vk.Image, vk.ImageView) {}

type fakeWindow struct {
	n vk.SwapchainKHR
}

func (w *fakeWindow) EnsureSwapchain(old vk.SwapchainKHR) (backing.Swapchain, error) {
	w.n++
	return backing.Swapchain{
		Handle: w.n,
		Images: []vk.Image{1, 2},
		Views:  []vk.ImageView{100, 200},
		Format: vk.FormatB8g8r8a8Unorm,
		Extent: vk.Extent2D{Width: 640, Height: 480},
	}, nil
}
func (w *fakeWindow) DestroySwapchain(vk.SwapchainKHR) {}

func newTestGraph(t *testing.T) (*Graph, *backing.Backing, int) {
	t.Helper()
	b := backing.New(&fakeAllocator{})
	win := b.AttachWindow(&fakeWindow{}, backing.RoleColor)
	require.NoError(t, b.Build())
	g := New(b, &fakeCommands{})
	return g, b, win
}

func colorConsume(attachment int) []Consume {
	return []Consume{{Attachment: attachment, Clear: true}}
}

// TestTopologicalOrderAndSinkClosure pins spec.md §8 invariants 1 and 2
// via the "Linear chain" end-to-end scenario.
func TestTopologicalOrderAndSinkClosure(t *testing.T) {
	g, _, win := newTestGraph(t)

	a := g.AddPass()
	a.SetConsumes(colorConsume(win))
	b := g.AddPass(a)
	b.SetConsumes(colorConsume(win))
	c := g.AddPass(b)
	c.SetConsumes(colorConsume(win))

	require.Equal(t, 1, g.NumSinks())
	assert.Same(t, c, g.Sink(0))

	for i := 0; i < g.NumPasses(); i++ {
		p := g.Pass(i)
		for _, parent := range p.Parents() {
			parentIdx := -1
			for j := 0; j < g.NumPasses(); j++ {
				if g.Pass(j) == parent {
					parentIdx = j
					break
				}
			}
			assert.Less(t, parentIdx, i, "parent must appear at a strictly smaller index")
			assert.Less(t, parent.Level(), p.Level())
		}
	}

	require.NoError(t, g.Build())
	assert.Equal(t, 0, a.Order())
	assert.Equal(t, 1, b.Order())
	assert.Equal(t, 2, c.Order())
}

// TestDiamondInsertionOrderAndSingleSink pins the "Diamond" end-to-end
// scenario: A -> {B, C} -> D yields pass vector [A, B, C, D] and a
// single sink D.
func TestDiamondInsertionOrderAndSingleSink(t *testing.T) {
	g, _, win := newTestGraph(t)

	a := g.AddPass()
	a.SetConsumes(colorConsume(win))
	b := g.AddPass(a)
	b.SetConsumes(colorConsume(win))
	c := g.AddPass(a)
	c.SetConsumes(colorConsume(win))
	d := g.AddPass(b, c)
	d.SetConsumes(colorConsume(win))

	require.Equal(t, 4, g.NumPasses())
	assert.Same(t, a, g.Pass(0))
	assert.Same(t, b, g.Pass(1))
	assert.Same(t, c, g.Pass(2))
	assert.Same(t, d, g.Pass(3))

	require.Equal(t, 1, g.NumSinks())
	assert.Same(t, d, g.Sink(0))
}

// TestStateMonotonicity pins spec.md §8 invariant 3.
func TestStateMonotonicity(t *testing.T) {
	g, _, win := newTestGraph(t)
	assert.Equal(t, StateEmpty, g.State())

	a := g.AddPass()
	a.SetConsumes(colorConsume(win))
	assert.Equal(t, StateEmpty, g.State(), "an edit to a graph with no prior passes stays EMPTY")

	require.NoError(t, g.Build())
	assert.Equal(t, StateBuilt, g.State())

	b := g.AddPass(a)
	b.SetConsumes(colorConsume(win))
	assert.Equal(t, StateInvalid, g.State(), "a structural edit to a non-empty graph drops to INVALID")

	require.NoError(t, g.Build())
	assert.Equal(t, StateBuilt, g.State(), "warmup/build never decreases state between edits")
}

// TestInvalidateRebuildPreservesOrderAndIncrementsGen pins the "Linear
// chain" scenario's second half: after invalidate + build, orders are
// identical and every pass's gen has incremented by exactly 1.
func TestInvalidateRebuildPreservesOrderAndIncrementsGen(t *testing.T) {
	g, _, win := newTestGraph(t)
	a := g.AddPass()
	a.SetConsumes(colorConsume(win))
	b := g.AddPass(a)
	b.SetConsumes(colorConsume(win))
	c := g.AddPass(b)
	c.SetConsumes(colorConsume(win))

	require.NoError(t, g.Build())
	gens := []uint64{a.Gen(), b.Gen(), c.Gen()}

	g.Invalidate()
	require.NoError(t, g.Build())

	assert.Equal(t, 0, a.Order())
	assert.Equal(t, 1, b.Order())
	assert.Equal(t, 2, c.Order())
	assert.Equal(t, gens[0]+1, a.Gen())
	assert.Equal(t, gens[1]+1, b.Gen())
	assert.Equal(t, gens[2]+1, c.Gen())
}

// TestRebuildTargetsOnlyConsumingPasses checks that Rebuild targets
// only passes referencing the given attachment and leaves the state
// alone when every targeted pass succeeds.
func TestRebuildTargetsOnlyConsumingPasses(t *testing.T) {
	g, b, win := newTestGraph(t)
	img := b.AttachImage(vk.FormatR8g8b8a8Unorm, vk.Extent3D{Width: 4, Height: 4, Depth: 1}, backing.RoleColor)
	require.NoError(t, b.Build())

	winPass := g.AddPass()
	winPass.SetConsumes(colorConsume(win))
	imgPass := g.AddPass()
	imgPass.SetConsumes(colorConsume(img))

	require.NoError(t, g.Build())
	winGen, imgGen := winPass.Gen(), imgPass.Gen()

	require.NoError(t, g.Rebuild(img, backing.RecreateSize))
	assert.Equal(t, StateBuilt, g.State())
	assert.Equal(t, winGen, winPass.Gen(), "a pass not consuming the attachment must not rebuild")
	assert.Equal(t, imgGen+1, imgPass.Gen())
}

// TestDestructDowngradesState pins backing.GraphSink's Destruct half.
func TestDestructDowngradesState(t *testing.T) {
	g, _, win := newTestGraph(t)
	a := g.AddPass()
	a.SetConsumes(colorConsume(win))
	require.NoError(t, g.Build())

	g.Destruct(win)
	assert.Equal(t, StateValidated, g.State())
	assert.Empty(t, a.framebuffers)
}

// TestClearDestructsInReverseOrder exercises §4.E's Clear contract.
func TestClearDestructsInReverseOrder(t *testing.T) {
	g, _, win := newTestGraph(t)
	a := g.AddPass()
	a.SetConsumes(colorConsume(win))
	b := g.AddPass(a)
	b.SetConsumes(colorConsume(win))
	require.NoError(t, g.Build())

	g.Clear()
	assert.Equal(t, 0, g.NumPasses())
	assert.Equal(t, 0, g.NumSinks())
	assert.Equal(t, StateEmpty, g.State())
}
