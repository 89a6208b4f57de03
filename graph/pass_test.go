// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFrame struct {
	acquired map[int]int
}

func (f *fakeFrame) AcquiredImageIndex(windowAttachment int) (int, bool) {
	idx, ok := f.acquired[windowAttachment]
	return idx, ok
}

// TestIdenticalConsumeShapesShareOneRenderPass pins spec.md §4.F:
// "multiple passes with identical descriptions share one [render
// pass]."
func TestIdenticalConsumeShapesShareOneRenderPass(t *testing.T) {
	g, _, win := newTestGraph(t)
	cmds := g.cache.cmds.(*fakeCommands)

	a := g.AddPass()
	a.SetConsumes(colorConsume(win))
	b := g.AddPass()
	b.SetConsumes(colorConsume(win))

	require.NoError(t, g.Build())
	assert.Equal(t, a.renderPass, b.renderPass)
	assert.Equal(t, 1, cmds.createdPasses, "identical consume shapes must share one render pass")
}

// TestWindowBackedPassGetsOneFramebufferPerSwapchainImage pins §4.F's
// "creates per-swapchain-image framebuffers."
func TestWindowBackedPassGetsOneFramebufferPerSwapchainImage(t *testing.T) {
	g, b, win := newTestGraph(t)
	_ = b

	p := g.AddPass()
	p.SetConsumes(colorConsume(win))
	require.NoError(t, g.Build())

	require.Len(t, p.framebuffers, 2, "the fake window reports 2 swapchain images")

	frame := &fakeFrame{acquired: map[int]int{win: 1}}
	assert.Equal(t, p.framebuffers[1], p.Framebuffer(frame))

	unknownFrame := &fakeFrame{acquired: map[int]int{}}
	assert.Zero(t, p.Framebuffer(unknownFrame), "unknown acquisition returns the null handle")
}

// TestDestructLeavesRenderPassCacheEntryAlive pins §4.F: "destruct
// tears down framebuffers but leaves the render-pass cache entry
// alive."
func TestDestructLeavesRenderPassCacheEntryAlive(t *testing.T) {
	g, _, win := newTestGraph(t)
	cmds := g.cache.cmds.(*fakeCommands)

	p := g.AddPass()
	p.SetConsumes(colorConsume(win))
	require.NoError(t, g.Build())

	rp := p.renderPass
	require.NotZero(t, rp)
	fbCount := len(p.framebuffers)

	p.destruct()
	assert.Empty(t, p.framebuffers)
	assert.Len(t, cmds.destroyedFBs, fbCount)

	require.NoError(t, p.warmup())
	assert.Equal(t, rp, p.renderPass, "render pass must be reused from cache, not recreated")
	assert.Equal(t, 1, cmds.createdPasses)
}
