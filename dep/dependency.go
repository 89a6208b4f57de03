// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dep

import (
	"sync"

	"github.com/gogpu/rendergraph/internal/vk"
)

// Commands is the slice of internal/vk's Commands surface the
// dependency engine calls directly: semaphore lifecycle and barrier
// emission. Declared as an interface — rather than depending on
// *vk.Commands directly — purely so protocol_test.go can exercise
// Catch/Prepare/Finish/Abort without a live Vulkan device; *vk.Commands
// satisfies it unmodified.
type Commands interface {
	CreateSemaphore() (vk.Semaphore, error)
	DestroySemaphore(vk.Semaphore)
	CmdPipelineBarrier(cb vk.CommandBuffer, srcStage, dstStage vk.PipelineStageFlags,
		mem []vk.MemoryBarrier, buf []vk.BufferMemoryBarrier, img []vk.ImageMemoryBarrier)
}

// Dependency is the opaque cross-op synchronization object of spec.md
// §3/§4.C: a mutex-guarded vector of sync slots plus the fixed
// graphics/compute/transfer queue-family indices ops submitted against
// it may run on. Grounded on core/track/tracking_data.go's
// allocate-on-create / free-on-release slot discipline, generalized
// from a single dense index into a richer sync-slot record.
type Dependency struct {
	mu sync.Mutex

	cmds Commands

	graphicsFamily uint32
	computeFamily  uint32
	transferFamily uint32
	waitRecycleCap int

	slots []slot
	free  []int

	semaphorePool []vk.Semaphore
}

// New creates a Dependency bound to cmds (used to allocate/free
// binary semaphores) with the backend's three queue-family indices and
// a wait-recycle capacity: how many times a signal's semaphore may be
// waited on by different consumers before it is returned to the pool.
func New(cmds Commands, graphicsFamily, computeFamily, transferFamily uint32, waitRecycleCap int) *Dependency {
	if waitRecycleCap <= 0 {
		waitRecycleCap = 1
	}
	return &Dependency{
		cmds:           cmds,
		graphicsFamily: graphicsFamily,
		computeFamily:  computeFamily,
		transferFamily: transferFamily,
		waitRecycleCap: waitRecycleCap,
	}
}

func (d *Dependency) queueFamily(q QueueFamily) uint32 {
	switch q {
	case QueueCompute:
		return d.computeFamily
	case QueueTransfer:
		return d.transferFamily
	default:
		return d.graphicsFamily
	}
}

// allocSlot reuses a freed slot index or appends a new one. Caller
// holds d.mu.
func (d *Dependency) allocSlot() int {
	if n := len(d.free); n > 0 {
		idx := d.free[n-1]
		d.free = d.free[:n-1]
		d.slots[idx] = slot{}
		return idx
	}
	d.slots = append(d.slots, slot{})
	return len(d.slots) - 1
}

// freeSlot resets a slot to UNUSED and returns it to the free list.
// Caller holds d.mu.
func (d *Dependency) freeSlot(idx int) {
	d.slots[idx] = slot{}
	d.free = append(d.free, idx)
}

// acquireSemaphore pops a semaphore from the recycle pool or creates a
// fresh one. Caller holds d.mu.
func (d *Dependency) acquireSemaphore() (vk.Semaphore, error) {
	if n := len(d.semaphorePool); n > 0 {
		sem := d.semaphorePool[n-1]
		d.semaphorePool = d.semaphorePool[:n-1]
		return sem, nil
	}
	return d.cmds.CreateSemaphore()
}

// releaseSemaphore returns sem to the recycle pool for reuse by a
// future Prepare. Caller holds d.mu.
func (d *Dependency) releaseSemaphore(sem vk.Semaphore) {
	d.semaphorePool = append(d.semaphorePool, sem)
}

// Destroy tears down every pooled semaphore. Callers must have
// sync_frames-equivalent drained all in-flight use of this dependency
// first (spec.md §5).
func (d *Dependency) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, sem := range d.semaphorePool {
		d.cmds.DestroySemaphore(sem)
	}
	d.semaphorePool = nil
	for i := range d.slots {
		if d.slots[i].sem != 0 {
			d.cmds.DestroySemaphore(d.slots[i].sem)
		}
	}
	d.slots = nil
	d.free = nil
}
