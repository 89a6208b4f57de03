// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dep

import (
	"errors"

	"github.com/gogpu/rendergraph/internal/vk"
)

// ErrInjectionDone is the misuse error spec.md §7 calls "Dependency
// protocol misuse": calling Catch or Prepare on an injection that
// already went through Finish or Abort.
var ErrInjectionDone = errors.New("dep: catch/prepare called after finish/abort")

// Catch scans every dependency in deps for signal slots already made
// visible (state PENDING), slots an earlier finished injection caught
// that still have waits left (state USED), or — shortcutting through
// PREPARE_CATCH —
// slots this same injection itself prepared earlier in this call
// chain, that overlap one of inj's declared refs by resource identity
// and range intersection. For each match it emits a matching pipeline
// barrier into cmd and, for a true cross-injection catch, appends the
// producer's semaphore to inj.Waits. May be called repeatedly as
// inj.Refs grows (spec.md §4.C).
func Catch(cmd vk.CommandBuffer, deps []*Dependency, inj *Injection) error {
	if inj.done {
		return ErrInjectionDone
	}

	for _, d := range deps {
		d.mu.Lock()
		catchOne(cmd, d, inj)
		d.mu.Unlock()
	}
	return nil
}

func catchOne(cmd vk.CommandBuffer, d *Dependency, inj *Injection) {
	for idx := range d.slots {
		s := &d.slots[idx]
		if s.stage != StagePending && s.stage != StageUsed && !(s.stage == StagePrepare && s.owner == inj) {
			continue
		}
		for _, want := range inj.Refs {
			if !s.resourceEqual(want.Ref) || !s.rng.Overlaps(want.Range) {
				continue
			}
			dstAccess, dstLayout, dstStage := mapAccess(want.Access, want.ShaderStages)
			emitBarrier(cmd, d, s, dstAccess, dstLayout, dstStage, inj.Family)

			sameInjection := s.stage == StagePrepare
			if sameInjection {
				s.stage = StagePrepareCatch
			} else {
				s.stage = StageCatch
				if s.flags&SlotSemaphore != 0 && s.sem != 0 {
					inj.Waits = append(inj.Waits, WaitSemaphore{Semaphore: s.sem, Stage: dstStage})
				}
				inj.claim(d, idx)
			}
			break
		}
	}
}

// emitBarrier records the pipeline barrier for s's producer access
// transitioning to (dstAccess, dstLayout, dstStage), and updates s's
// recorded dst-half so Finish/inspection can see what was last
// resolved against it.
func emitBarrier(cmd vk.CommandBuffer, d *Dependency, s *slot, dstAccess vk.AccessFlags, dstLayout vk.ImageLayout, dstStage vk.PipelineStageFlags, consumer QueueFamily) {
	s.dstAccess = dstAccess
	s.newLayout = dstLayout
	s.dstStage = dstStage
	s.dstQueueFamily = d.queueFamily(consumer)

	// Same-family src/dst both report IGNORED, as Vulkan requires for a
	// barrier that transfers no ownership; when the producer's and the
	// consumer's families differ, both families are named in the
	// barrier.
	srcFamily, dstFamily := vk.QueueFamilyIgnored, vk.QueueFamilyIgnored
	if s.srcQueueFamily != s.dstQueueFamily {
		srcFamily, dstFamily = s.srcQueueFamily, s.dstQueueFamily
	}

	if s.image != 0 {
		barrier := vk.ImageMemoryBarrier{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       s.srcAccess,
			DstAccessMask:       s.dstAccess,
			OldLayout:           s.oldLayout,
			NewLayout:           s.newLayout,
			SrcQueueFamilyIndex: srcFamily,
			DstQueueFamilyIndex: dstFamily,
			Image:               s.image,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectColor,
				LevelCount: 1,
				LayerCount: 1,
			},
		}
		d.cmds.CmdPipelineBarrier(cmd, s.srcStage, s.dstStage, nil, nil, []vk.ImageMemoryBarrier{barrier})
		return
	}

	barrier := vk.BufferMemoryBarrier{
		SType:               vk.StructureTypeBufferMemoryBarrier,
		SrcAccessMask:       s.srcAccess,
		DstAccessMask:       s.dstAccess,
		SrcQueueFamilyIndex: srcFamily,
		DstQueueFamilyIndex: dstFamily,
		Buffer:              s.buffer,
		Offset:              uint64(s.ref.Offset),
		Size:                vk.WholeSize,
	}
	d.cmds.CmdPipelineBarrier(cmd, s.srcStage, s.dstStage, nil, []vk.BufferMemoryBarrier{barrier}, nil)
}

// Prepare allocates a fresh PREPARE slot for every ref in inj.Refs on
// each call (a ref prepared by an earlier call gets another slot),
// recording the src-half of the barrier a
// future catch will complete. Unless blocking, each slot also gets a
// recycled or newly-created binary semaphore appended to inj.Signals
// (spec.md §4.C).
func Prepare(cmd vk.CommandBuffer, blocking bool, deps []*Dependency, inj *Injection) error {
	if inj.done {
		return ErrInjectionDone
	}

	for _, d := range deps {
		d.mu.Lock()
		err := prepareOne(d, blocking, inj)
		d.mu.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

func prepareOne(d *Dependency, blocking bool, inj *Injection) error {
	for _, ra := range inj.Refs {
		idx := d.allocSlot()
		s := &d.slots[idx]

		srcAccess, srcLayout, srcStage := mapAccess(ra.Access, ra.ShaderStages)
		s.ref = ra.Ref
		s.rng = ra.Range
		s.buffer = ra.BackendBuffer
		s.image = ra.BackendImage
		s.srcAccess = srcAccess
		s.oldLayout = srcLayout
		s.srcStage = srcStage
		s.srcQueueFamily = d.queueFamily(inj.Family)
		s.stage = StagePrepare
		s.owner = inj
		s.waits = d.waitRecycleCap

		if !blocking {
			sem, err := d.acquireSemaphore()
			if err != nil {
				d.freeSlot(idx)
				return err
			}
			s.sem = sem
			s.flags |= SlotSemaphore
			inj.Signals = append(inj.Signals, sem)
		}

		inj.claim(d, idx)
	}
	return nil
}

// Finish commits inj: every PREPARE/PREPARE_CATCH slot becomes visible
// (PENDING) for future catches, and every CATCH slot it collected
// becomes USED, decrementing its wait-recycle counter and returning
// its semaphore to the pool once that counter reaches zero (spec.md
// §4.C). After Finish, inj must not be reused.
func Finish(deps []*Dependency, inj *Injection) {
	if inj.done {
		return
	}
	inj.done = true

	for d, indices := range inj.claims {
		d.mu.Lock()
		for _, idx := range indices {
			s := &d.slots[idx]
			switch s.stage {
			case StagePrepare, StagePrepareCatch:
				s.stage = StagePending
				s.owner = nil
			case StageCatch:
				s.stage = StageUsed
				s.waits--
				if s.waits <= 0 {
					if s.flags&SlotSemaphore != 0 && s.sem != 0 {
						d.releaseSemaphore(s.sem)
					}
					d.freeSlot(idx)
				}
			}
		}
		d.mu.Unlock()
	}
}

// Abort reverts every PREPARE/PREPARE_CATCH slot inj allocated back to
// UNUSED (releasing any semaphore it held) and discards inj's output
// arrays. CATCH slots are left untouched: the barriers they already
// recorded were harmless even though the operation never submitted
// (spec.md §4.C).
func Abort(deps []*Dependency, inj *Injection) {
	if inj.done {
		return
	}
	inj.done = true

	for d, indices := range inj.claims {
		d.mu.Lock()
		for _, idx := range indices {
			s := &d.slots[idx]
			if s.stage == StagePrepare || s.stage == StagePrepareCatch {
				if s.flags&SlotSemaphore != 0 && s.sem != 0 {
					d.releaseSemaphore(s.sem)
				}
				d.freeSlot(idx)
			}
		}
		d.mu.Unlock()
	}

	inj.Waits = nil
	inj.Signals = nil
}
