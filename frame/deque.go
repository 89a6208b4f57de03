// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package frame

import (
	"fmt"

	"github.com/gogpu/rendergraph/backing"
	"github.com/gogpu/rendergraph/dep"
	"github.com/gogpu/rendergraph/graph"
	"github.com/gogpu/rendergraph/internal/vk"
)

// noTimeout waits indefinitely: spec.md §4.G does not give the virtual
// frame deque its own timeout policy for the "done" fence, so Acquire
// blocks until the backend signals it, matching sync_frames' own
// unbounded drain.
const noTimeout = ^uint64(0)

// Deque is the N-deep ring of virtual frames (spec.md §3/§4.G). It
// wires a Backing (for window swapchain handles and Rebuild) and a
// Graph (for submission order and framebuffer resolution, and as the
// target backing notifies through its GraphSink).
type Deque struct {
	cmds    Commands
	backing *backing.Backing
	graph   *graph.Graph

	queueFamily   uint32
	graphicsQueue vk.Queue
	presentQueue  vk.Queue

	windowAttachments []int
	frames            []*VirtualFrame
	cur               int

	// currentFrame is whichever frame Acquire most recently returned —
	// the target of PushStale while this deque acts as the backing's
	// StaleSink, so a rebuild triggered mid-acquire or mid-submit defers
	// its old generation's destruction to this exact slot's next
	// acquire (spec.md §8 invariant 7).
	currentFrame *VirtualFrame
}

// New creates a deque of numFrames virtual frames. windowAttachments
// lists the backing attachment indices this deque acquires/presents
// each cycle, in the order a frame's AcquiredImageIndex reports them.
// graphicsQueue and presentQueue may be the same queue (the common
// case for a single-queue-family device); each frame's command pool is
// created on queueFamily, and present records no commands.
func New(cmds Commands, b *backing.Backing, g *graph.Graph, queueFamily uint32, graphicsQueue, presentQueue vk.Queue, numFrames int, windowAttachments []int) (*Deque, error) {
	d := &Deque{
		cmds:              cmds,
		backing:           b,
		graph:             g,
		queueFamily:       queueFamily,
		graphicsQueue:     graphicsQueue,
		presentQueue:      presentQueue,
		windowAttachments: append([]int(nil), windowAttachments...),
	}
	b.SetGraphSink(g)
	b.SetStaleSink(d)

	for i := 0; i < numFrames; i++ {
		f, err := d.newFrame()
		if err != nil {
			d.destroyFrames()
			return nil, err
		}
		d.frames = append(d.frames, f)
	}
	return d, nil
}

func (d *Deque) newFrame() (f *VirtualFrame, err error) {
	f = &VirtualFrame{}
	cleanup := func() {
		if f.pool != 0 {
			d.cmds.DestroyCommandPool(f.pool)
		}
		if f.rendered != 0 {
			d.cmds.DestroySemaphore(f.rendered)
		}
		if f.done != 0 {
			d.cmds.DestroyFence(f.done)
		}
		for _, s := range f.windows {
			if s.available != 0 {
				d.cmds.DestroySemaphore(s.available)
			}
		}
	}
	defer func() {
		if err != nil {
			cleanup()
		}
	}()

	if f.pool, err = d.cmds.CreateCommandPool(d.queueFamily); err != nil {
		return nil, err
	}
	if f.cmd, err = d.cmds.AllocateCommandBuffer(f.pool); err != nil {
		return nil, err
	}
	if f.rendered, err = d.cmds.CreateSemaphore(); err != nil {
		return nil, err
	}
	// Created pre-signaled so the first Acquire of a freshly built
	// deque does not block waiting on a submission that never happened.
	if f.done, err = d.cmds.CreateFence(true); err != nil {
		return nil, err
	}

	f.windows = make([]windowSlot, len(d.windowAttachments))
	for i, attachment := range d.windowAttachments {
		var sem vk.Semaphore
		if sem, err = d.cmds.CreateSemaphore(); err != nil {
			return nil, err
		}
		f.windows[i] = windowSlot{attachment: attachment, available: sem}
	}
	return f, nil
}

func (d *Deque) destroyFrames() {
	for _, f := range d.frames {
		d.destroyFrame(f)
	}
	d.frames = nil
}

func (d *Deque) destroyFrame(f *VirtualFrame) {
	d.cmds.DestroyCommandPool(f.pool)
	d.cmds.DestroySemaphore(f.rendered)
	d.cmds.DestroyFence(f.done)
	for _, s := range f.windows {
		d.cmds.DestroySemaphore(s.available)
	}
}

// SyncFrames drains every frame's "done" fence (spec.md §4.G
// sync_frames), guaranteeing no frame has work in flight. Called
// before a swapchain recreation so the old swapchain's images are no
// longer referenced by any pending submission.
func (d *Deque) SyncFrames() error {
	for _, f := range d.frames {
		if _, err := d.cmds.WaitForFences(f.done, noTimeout); err != nil {
			return err
		}
	}
	return nil
}

// recreate synchronizes every frame, then asks the backing to rebuild
// attachment (which cascades into the graph via backing's wired
// GraphSink) — spec.md §4.G's OUT_OF_DATE/SUBOPTIMAL handling.
func (d *Deque) recreate(attachment int) error {
	if err := d.SyncFrames(); err != nil {
		return err
	}
	return d.backing.Rebuild(attachment, backing.RecreateSwapchain)
}

// Acquire takes the current frame slot (Submit advances to the next
// one), retires its stale resources once its prior submission has
// completed, resets its command pool, and acquires a swapchain image
// for every window attachment (spec.md §4.G acquire). An OUT_OF_DATE
// result triggers a swapchain rebuild and one retry; SUBOPTIMAL is
// accepted as-is here, whereas Submit rebuilds on both OUT_OF_DATE and
// SUBOPTIMAL from present.
func (d *Deque) Acquire() (*VirtualFrame, error) {
	f := d.frames[d.cur]

	if _, err := d.cmds.WaitForFences(f.done, noTimeout); err != nil {
		return nil, fmt.Errorf("frame: waiting on done fence: %w", err)
	}

	for _, destroy := range f.stale {
		destroy()
	}
	f.stale = nil

	if err := d.cmds.ResetFences(f.done); err != nil {
		return nil, err
	}
	if err := d.cmds.ResetCommandPool(f.pool); err != nil {
		return nil, err
	}

	d.currentFrame = f

	for i := range f.windows {
		if err := d.acquireWindow(f, i); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// PushStale implements backing.StaleSink by forwarding to whichever
// frame Acquire most recently returned.
func (d *Deque) PushStale(destroy func()) {
	if d.currentFrame != nil {
		d.currentFrame.PushStale(destroy)
	}
}

func (d *Deque) acquireWindow(f *VirtualFrame, slotIndex int) error {
	slot := &f.windows[slotIndex]
	slot.valid = false

	swapchain := d.backing.SwapchainHandle(slot.attachment)
	idx, result := d.cmds.AcquireNextImageKHR(swapchain, noTimeout, slot.available, 0)

	if result == vk.ErrorOutOfDateKHR {
		if err := d.recreate(slot.attachment); err != nil {
			return fmt.Errorf("frame: recreating swapchain for attachment %d: %w", slot.attachment, err)
		}
		swapchain = d.backing.SwapchainHandle(slot.attachment)
		idx, result = d.cmds.AcquireNextImageKHR(swapchain, noTimeout, slot.available, 0)
	}

	switch result {
	case vk.Success, vk.SuboptimalKHR:
		slot.imageIndex = idx
		slot.valid = true
		return nil
	default:
		return fmt.Errorf("frame: vkAcquireNextImageKHR failed on attachment %d: result %d", slot.attachment, result)
	}
}

// Submit records every pass of the graph in submission order via
// recorder, resolves deps/inj's catch+prepare barriers against the
// frame's command buffer, submits waiting on every acquired window's
// availability semaphore plus inj's own waits, signals the frame's
// "rendered" semaphore plus inj's own signals, fences on "done",
// presents every window attachment, runs deps_finish, and advances to
// the next frame slot (spec.md §4.G submit). deps/inj may be nil for a
// frame with no dependency-engine-tracked resources.
func (d *Deque) Submit(f *VirtualFrame, deps []*dep.Dependency, inj *dep.Injection, recorder Recorder) error {
	if err := d.cmds.BeginCommandBuffer(f.cmd); err != nil {
		return err
	}

	if inj != nil {
		if err := dep.Catch(f.cmd, deps, inj); err != nil {
			return err
		}
		if err := dep.Prepare(f.cmd, false, deps, inj); err != nil {
			return err
		}
	}

	for i := 0; i < d.graph.NumPasses(); i++ {
		pass := d.graph.Pass(i)
		fb := pass.Framebuffer(f)
		if err := recorder.Record(f.cmd, pass, fb); err != nil {
			return err
		}
	}

	if err := d.cmds.EndCommandBuffer(f.cmd); err != nil {
		return err
	}

	waits := make([]vk.Semaphore, 0, len(f.windows)+4)
	stages := make([]vk.PipelineStageFlags, 0, cap(waits))
	for _, s := range f.windows {
		if s.valid {
			waits = append(waits, s.available)
			stages = append(stages, vk.PipelineStageColorAttachmentOutput)
		}
	}
	signals := []vk.Semaphore{f.rendered}
	if inj != nil {
		for _, w := range inj.Waits {
			waits = append(waits, w.Semaphore)
			stages = append(stages, w.Stage)
		}
		signals = append(signals, inj.Signals...)
	}

	cmd := f.cmd
	info := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(waits)),
		PWaitSemaphores:      firstSemaphore(waits),
		PWaitDstStageMask:    firstStage(stages),
		CommandBufferCount:   1,
		PCommandBuffers:      &cmd,
		SignalSemaphoreCount: uint32(len(signals)),
		PSignalSemaphores:    firstSemaphore(signals),
	}

	if err := d.cmds.QueueSubmit(d.graphicsQueue, &info, f.done); err != nil {
		if inj != nil {
			dep.Abort(deps, inj)
		}
		return err
	}

	presentErr := d.present(f)

	if inj != nil {
		dep.Finish(deps, inj)
	}

	d.cur = (d.cur + 1) % len(d.frames)
	return presentErr
}

// present queues every acquired window's image. An OUT_OF_DATE or
// SUBOPTIMAL result rebuilds the affected attachment synchronously,
// before Submit returns, so the next Acquire always sees an
// already-fresh swapchain rather than discovering the stale one itself
// — spec.md §4.G "on OUT_OF_DATE/SUBOPTIMAL the affected attachment is
// marked for recreation."
func (d *Deque) present(f *VirtualFrame) error {
	var firstErr error
	for i := range f.windows {
		s := &f.windows[i]
		if !s.valid {
			continue
		}
		swapchain := d.backing.SwapchainHandle(s.attachment)
		imgIdx := s.imageIndex
		rendered := f.rendered
		info := vk.PresentInfoKHR{
			SType:              vk.StructureTypePresentInfoKHR,
			WaitSemaphoreCount: 1,
			PWaitSemaphores:    &rendered,
			SwapchainCount:     1,
			PSwapchains:        &swapchain,
			PImageIndices:      &imgIdx,
		}
		result := d.cmds.QueuePresentKHR(d.presentQueue, &info)
		switch result {
		case vk.Success:
		case vk.ErrorOutOfDateKHR, vk.SuboptimalKHR:
			if err := d.recreate(s.attachment); err != nil && firstErr == nil {
				firstErr = err
			}
		default:
			if firstErr == nil {
				firstErr = fmt.Errorf("frame: vkQueuePresentKHR failed on attachment %d: result %d", s.attachment, result)
			}
		}
	}
	return firstErr
}

func firstSemaphore(s []vk.Semaphore) *vk.Semaphore {
	if len(s) == 0 {
		return nil
	}
	return &s[0]
}

func firstStage(s []vk.PipelineStageFlags) *vk.PipelineStageFlags {
	if len(s) == 0 {
		return nil
	}
	return &s[0]
}

// Destroy tears down every frame slot. Callers must SyncFrames first.
func (d *Deque) Destroy() {
	d.destroyFrames()
}
