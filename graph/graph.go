// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package graph implements the render graph and its passes (spec.md
// §4.E/§4.F), kept as one package the way the teacher keeps
// RenderPassCache/FramebufferKey inside package vulkan rather than
// splitting render-pass caching out on its own.
package graph

import (
	"fmt"

	"github.com/gogpu/rendergraph/backing"
)

// State is the render graph's lifecycle state (spec.md §3 "Graph
// state": a totally-ordered enumeration).
type State int

const (
	StateEmpty State = iota
	StateInvalid
	StateValidated
	StateWarmed
	StateBuilt
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateInvalid:
		return "invalid"
	case StateValidated:
		return "validated"
	case StateWarmed:
		return "warmed"
	case StateBuilt:
		return "built"
	default:
		return "state(?)"
	}
}

// Graph owns a renderer's pass set: their parent/child ordering, sink
// tracking, and the state machine governing warmup/build/rebuild
// (spec.md §4.E). It implements backing.GraphSink so a Backing can
// notify it of attachment rebuild/destruct without graph depending on
// backing for anything but the types it already imports to resolve
// framebuffers.
type Graph struct {
	backing *backing.Backing
	cache   *RenderPassCache

	state State
	passes []*Pass

	sinkOrder []*Pass
	isSink    map[*Pass]bool
}

// New creates an empty graph against b (for attachment resolution) and
// cmds (for render-pass/framebuffer creation).
func New(b *backing.Backing, cmds Commands) *Graph {
	return &Graph{
		backing: b,
		cache:   NewRenderPassCache(cmds),
		state:   StateEmpty,
		isSink:  make(map[*Pass]bool),
	}
}

func (g *Graph) State() State    { return g.state }
func (g *Graph) NumPasses() int  { return len(g.passes) }
func (g *Graph) Pass(i int) *Pass { return g.passes[i] }

// NumSinks and Sink expose the sink set in a stable, insertion-derived
// order (spec.md §6 get_num_sinks/get_sink).
func (g *Graph) NumSinks() int    { return len(g.sinkOrder) }
func (g *Graph) Sink(i int) *Pass { return g.sinkOrder[i] }

func (g *Graph) addSink(p *Pass) {
	if g.isSink[p] {
		return
	}
	g.isSink[p] = true
	g.sinkOrder = append(g.sinkOrder, p)
}

func (g *Graph) removeSink(p *Pass) {
	if !g.isSink[p] {
		return
	}
	delete(g.isSink, p)
	for i, s := range g.sinkOrder {
		if s == p {
			g.sinkOrder = append(g.sinkOrder[:i], g.sinkOrder[i+1:]...)
			break
		}
	}
}

// AddPass creates a pass whose level is 1+max(parent.level) (0 for a
// root pass), inserts it at the rightmost position among passes of
// equal-or-lower level — preserving insertion order within a level —
// pushes it onto the sink set, and removes any now-non-sink parents
// (spec.md §4.E invariants 1/2). If the graph was non-empty before,
// the state drops to INVALID; an edit to a graph with no prior passes
// leaves it EMPTY.
func (g *Graph) AddPass(parents ...*Pass) *Pass {
	maxParentLevel := 0
	for _, p := range parents {
		if p.level > maxParentLevel {
			maxParentLevel = p.level
		}
	}

	pass := &Pass{
		graph:         g,
		parents:       append([]*Pass(nil), parents...),
		level:         maxParentLevel + 1,
		windowBacking: -1,
		depthStencil:  -1,
	}

	wasEmpty := len(g.passes) == 0

	insertAt := len(g.passes)
	for i, p := range g.passes {
		if p.level > pass.level {
			insertAt = i
			break
		}
	}
	g.passes = append(g.passes, nil)
	copy(g.passes[insertAt+1:], g.passes[insertAt:])
	g.passes[insertAt] = pass

	g.addSink(pass)
	for _, p := range parents {
		g.removeSink(p)
	}

	if wasEmpty {
		g.state = StateEmpty
	} else {
		g.state = StateInvalid
	}
	return pass
}

// maybePurge destructs every pass's build outputs if the state is
// INVALID, dropping the state to EMPTY so the following analyze step
// re-validates from scratch (spec.md §4.E). Passes themselves are not
// removed from the vector — only their framebuffers are torn down;
// each pass keeps its render-pass handle, mirroring Pass.destruct's
// "leaves the render-pass cache entry alive" contract.
func (g *Graph) maybePurge() {
	if g.state != StateInvalid {
		return
	}
	for _, p := range g.passes {
		p.destruct()
	}
	g.state = StateEmpty
}

// analyze is reserved for future pass-merging (spec.md §9's first open
// question: preserved as a no-op, documented as a stable state).
func (g *Graph) analyze() {
	g.state = StateValidated
}

// Warmup materializes every pass's cached render-pass description,
// assigning dense submission order. Idempotent once WARMED/BUILT.
func (g *Graph) Warmup() error {
	g.maybePurge()
	if g.state < StateValidated {
		g.analyze()
	}

	failed := 0
	for i, p := range g.passes {
		p.order = i
		if err := p.warmup(); err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("graph: %d pass(es) failed to warm up", failed)
	}
	if g.state < StateWarmed {
		g.state = StateWarmed
	}
	return nil
}

// Build materializes every pass's framebuffers, assigning dense
// submission order. Succeeds only if every pass builds; on partial
// failure the state stays VALIDATED (spec.md §4.E).
func (g *Graph) Build() error {
	g.maybePurge()
	if g.state < StateValidated {
		g.analyze()
	}

	failed := 0
	for i, p := range g.passes {
		p.order = i
		if err := p.build(0); err != nil {
			failed++
		}
	}
	if failed > 0 {
		if g.state > StateValidated {
			g.state = StateValidated
		}
		return fmt.Errorf("graph: %d pass(es) failed to build", failed)
	}
	g.state = StateBuilt
	return nil
}

// Rebuild rebuilds every pass whose consume list references
// attachment index (spec.md §9's resolved open question: not only a
// pass's chosen window-backing index, any consume). Failures downgrade
// the state from BUILT/WARMED back to VALIDATED but never purge.
func (g *Graph) Rebuild(index int, flags backing.RecreateFlags) error {
	failed := 0
	for _, p := range g.passes {
		if !p.usesAttachment(index) {
			continue
		}
		if err := p.build(flags); err != nil {
			failed++
		}
	}
	if failed > 0 {
		if g.state == StateBuilt || g.state == StateWarmed {
			g.state = StateValidated
		}
		return fmt.Errorf("graph: %d pass(es) failed to rebuild against attachment %d", failed, index)
	}
	return nil
}

// Destruct tears down the framebuffers of every pass referencing
// attachment index, without rebuilding, and downgrades the state to at
// most VALIDATED (spec.md §4.E).
func (g *Graph) Destruct(index int) {
	for _, p := range g.passes {
		if p.usesAttachment(index) {
			p.destruct()
		}
	}
	if g.state > StateValidated {
		g.state = StateValidated
	}
}

// Invalidate sets INVALID if the graph has at least one pass; the
// next Warmup/Build purges and re-analyzes (spec.md §4.E).
func (g *Graph) Invalidate() {
	if len(g.passes) > 0 {
		g.state = StateInvalid
	}
}

// Clear destroys every pass in reverse submission order, preserving
// the invariant that no parent is freed before its children (spec.md
// §4.E, §9's "pass parent back-edges are weak" note).
func (g *Graph) Clear() {
	for i := len(g.passes) - 1; i >= 0; i-- {
		g.passes[i].destruct()
	}
	g.passes = nil
	g.sinkOrder = nil
	g.isSink = make(map[*Pass]bool)
	g.state = StateEmpty
}
