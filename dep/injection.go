// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dep

import (
	"github.com/gogpu/rendergraph/internal/vk"
	"github.com/gogpu/rendergraph/ref"
)

// QueueFamily identifies which queue an injection's command buffer
// will be submitted to.
type QueueFamily uint8

const (
	QueueGraphics QueueFamily = iota
	QueueCompute
	QueueTransfer
)

// RefAccess is one resource touch an injection declares: the
// (already-unpacked) resource, the normalized range within it, the
// access mask, and an optional shader-stage hint (spec.md §4.C). The
// backend handle pair is supplied alongside the unpacked ref because
// package dep never looks resources up in the heap's tables itself —
// it only ever sees what the caller (Heap, Renderer) hands it, the
// same dependency-inversion seam package ref uses for Owners.
type RefAccess struct {
	Ref          ref.Unpacked
	Range        Range
	Access       AccessMask
	ShaderStages ShaderStage

	BackendBuffer vk.Buffer
	BackendImage  vk.Image
}

// WaitSemaphore pairs a semaphore an injection's submission must wait
// on with the pipeline stage at which the wait applies.
type WaitSemaphore struct {
	Semaphore vk.Semaphore
	Stage     vk.PipelineStageFlags
}

// Injection is the scratch state of one operation as it passes through
// catch -> prepare -> (abort | finish) (spec.md §3/§4.C). Callers
// allocate one per operation (heap transfer, frame submission, ...)
// and must not reuse it across finish/abort.
type Injection struct {
	Family         QueueFamily
	RendererFilter *uint64

	Refs []RefAccess

	Waits   []WaitSemaphore
	Signals []vk.Semaphore

	// claims tracks, per Dependency touched by this injection, the
	// slot indices it prepared or caught — needed by Finish/Abort to
	// walk back only the slots this injection owns, across possibly
	// several Dependency objects in a single catch/prepare call.
	claims map[*Dependency][]int
	done   bool
}

// NewInjection starts a fresh injection for the given queue family.
func NewInjection(family QueueFamily) *Injection {
	return &Injection{Family: family, claims: make(map[*Dependency][]int)}
}

// AddRef appends a resource touch to the injection's input set.
// Catch/Prepare may be called repeatedly as refs grow (spec.md §4.C:
// "May be called repeatedly with growing inp.refs").
func (inj *Injection) AddRef(r RefAccess) {
	inj.Refs = append(inj.Refs, r)
}

func (inj *Injection) claim(d *Dependency, idx int) {
	inj.claims[d] = append(inj.claims[d], idx)
}
