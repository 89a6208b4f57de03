// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dep

import (
	"github.com/gogpu/rendergraph/internal/vk"
	"github.com/gogpu/rendergraph/ref"
)

// Stage is a sync slot's lifecycle state (spec.md §3/§4.C).
type Stage uint8

const (
	StageUnused Stage = iota
	StagePrepare
	StagePrepareCatch
	StagePending
	StageCatch
	StageUsed
)

func (s Stage) String() string {
	switch s {
	case StageUnused:
		return "unused"
	case StagePrepare:
		return "prepare"
	case StagePrepareCatch:
		return "prepare-catch"
	case StagePending:
		return "pending"
	case StageCatch:
		return "catch"
	case StageUsed:
		return "used"
	default:
		return "stage(?)"
	}
}

// SlotFlags are the sync slot flag bits from spec.md §3.
type SlotFlags uint32

const (
	SlotSemaphore SlotFlags = 1 << iota
	SlotAcquire
)

// slot is one element of a Dependency's sync vector (spec.md §3's
// "Sync Object"). Unexported: callers interact with slots only through
// Catch/Prepare/Finish/Abort.
type slot struct {
	ref   ref.Unpacked
	rng   Range
	waits int // wait-recycle counter
	owner *Injection

	stage Stage
	flags SlotFlags

	srcAccess, dstAccess         vk.AccessFlags
	oldLayout, newLayout         vk.ImageLayout
	srcQueueFamily, dstQueueFamily uint32
	srcStage, dstStage           vk.PipelineStageFlags

	buffer vk.Buffer
	image  vk.Image
	sem    vk.Semaphore
}

func (s *slot) resourceEqual(other ref.Unpacked) bool {
	return s.ref.Equal(other)
}
