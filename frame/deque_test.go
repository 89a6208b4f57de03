// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package frame

import (
	"testing"

	"github.com/gogpu/rendergraph/backing"
	"github.com/gogpu/rendergraph/graph"
	"github.com/gogpu/rendergraph/internal/vk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCommands struct {
	nextHandle vk.Handle

	fences     map[vk.Fence]bool // true = signaled
	submitted  int
	presented  int

	acquireResults []vk.Result // consumed one per AcquireNextImageKHR call, last repeats
	presentResults []vk.Result

	destroyedPools []vk.CommandPool
}

func newFakeCommands() *fakeCommands {
	return &fakeCommands{fences: make(map[vk.Fence]bool)}
}

func (f *fakeCommands) handle() vk.Handle {
	f.nextHandle++
	return f.nextHandle
}

func (f *fakeCommands) CreateCommandPool(uint32) (vk.CommandPool, error) {
	return vk.CommandPool(f.handle()), nil
}
func (f *fakeCommands) DestroyCommandPool(p vk.CommandPool) {
	f.destroyedPools = append(f.destroyedPools, p)
}
func (f *fakeCommands) ResetCommandPool(vk.CommandPool) error { return nil }
func (f *fakeCommands) AllocateCommandBuffer(vk.CommandPool) (vk.CommandBuffer, error) {
	return vk.CommandBuffer(f.handle()), nil
}
func (f *fakeCommands) BeginCommandBuffer(vk.CommandBuffer) error { return nil }
func (f *fakeCommands) EndCommandBuffer(vk.CommandBuffer) error   { return nil }

func (f *fakeCommands) CreateFence(signaled bool) (vk.Fence, error) {
	fence := vk.Fence(f.handle())
	f.fences[fence] = signaled
	return fence, nil
}
func (f *fakeCommands) DestroyFence(fence vk.Fence) { delete(f.fences, fence) }
func (f *fakeCommands) ResetFences(fence vk.Fence) error {
	f.fences[fence] = false
	return nil
}
func (f *fakeCommands) WaitForFences(fence vk.Fence, timeoutNs uint64) (vk.Result, error) {
	return vk.Success, nil
}

func (f *fakeCommands) CreateSemaphore() (vk.Semaphore, error) {
	return vk.Semaphore(f.handle()), nil
}
func (f *fakeCommands) DestroySemaphore(vk.Semaphore) {}

func (f *fakeCommands) QueueSubmit(queue vk.Queue, info *vk.SubmitInfo, fence vk.Fence) error {
	f.submitted++
	f.fences[fence] = true
	return nil
}

func (f *fakeCommands) AcquireNextImageKHR(swapchain vk.SwapchainKHR, timeoutNs uint64, semaphore vk.Semaphore, fence vk.Fence) (uint32, vk.Result) {
	if len(f.acquireResults) == 0 {
		return 0, vk.Success
	}
	result := f.acquireResults[0]
	if len(f.acquireResults) > 1 {
		f.acquireResults = f.acquireResults[1:]
	}
	return 0, result
}

func (f *fakeCommands) QueuePresentKHR(queue vk.Queue, info *vk.PresentInfoKHR) vk.Result {
	f.presented++
	if len(f.presentResults) == 0 {
		return vk.Success
	}
	result := f.presentResults[0]
	if len(f.presentResults) > 1 {
		f.presentResults = f.presentResults[1:]
	}
	return result
}

// The remaining methods satisfy graph.Commands: this fake doubles as
// both the frame deque's and the graph's backend seam, the way a real
// *vk.Commands serves every package from one Vulkan device.
func (f *fakeCommands) CreateRenderPass(info *vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	return vk.RenderPass(f.handle()), nil
}
func (f *fakeCommands) DestroyRenderPass(vk.RenderPass) {}
func (f *fakeCommands) CreateFramebuffer(info *vk.FramebufferCreateInfo) (vk.Framebuffer, error) {
	return vk.Framebuffer(f.handle()), nil
}
func (f *fakeCommands) DestroyFramebuffer(vk.Framebuffer) {}

type fakeAllocator struct{ n vk.Image }

func (a *fakeAllocator) AllocateImage(format vk.Format, extent vk.Extent3D, role backing.Role) (vk.Image, vk.ImageView, error) {
	a.n++
	return a.n, vk.ImageView(a.n), nil
}
func (a *fakeAllocator) FreeImage(vk.Image, vk.ImageView) {}

type fakeWindow struct {
	n       vk.SwapchainKHR
	ensured int
}

func (w *fakeWindow) EnsureSwapchain(old vk.SwapchainKHR) (backing.Swapchain, error) {
	w.n++
	w.ensured++
	return backing.Swapchain{
		Handle: w.n,
		Images: []vk.Image{1, 2},
		Views:  []vk.ImageView{100, 200},
		Format: vk.FormatB8g8r8a8Unorm,
		Extent: vk.Extent2D{Width: 640, Height: 480},
	}, nil
}
func (w *fakeWindow) DestroySwapchain(vk.SwapchainKHR) {}

type nopRecorder struct{ calls int }

func (r *nopRecorder) Record(cmd vk.CommandBuffer, pass *graph.Pass, fb vk.Framebuffer) error {
	r.calls++
	return nil
}

func newTestDeque(t *testing.T, numFrames int) (*Deque, *fakeCommands, *backing.Backing, int) {
	t.Helper()
	b := backing.New(&fakeAllocator{})
	win := b.AttachWindow(&fakeWindow{}, backing.RoleColor)
	require.NoError(t, b.Build())

	cmds := newFakeCommands()
	g := graph.New(b, cmds)
	p := g.AddPass()
	p.SetConsumes([]graph.Consume{{Attachment: win, Clear: true}})
	require.NoError(t, g.Build())

	d, err := New(cmds, b, g, 0, 1, 1, numFrames, []int{win})
	require.NoError(t, err)
	return d, cmds, b, win
}

func TestAcquireThenSubmitRoundTrip(t *testing.T) {
	d, cmds, _, _ := newTestDeque(t, 2)

	f, err := d.Acquire()
	require.NoError(t, err)
	require.Len(t, f.windows, 1)
	assert.True(t, f.windows[0].valid)

	rec := &nopRecorder{}
	require.NoError(t, d.Submit(f, nil, nil, rec))
	assert.Equal(t, 1, rec.calls, "recorder must be called once per graph pass")
	assert.Equal(t, 1, cmds.submitted)
	assert.Equal(t, 1, cmds.presented)
	assert.Equal(t, 1, d.cur, "submit advances to the next frame slot")
}

// TestStaleRetiredOnlyAtNextAcquireOfSameSlot pins spec.md §8 invariant
// 7: a destroy pushed against a frame slot runs at the start of that
// same slot's NEXT acquire, never before.
func TestStaleRetiredOnlyAtNextAcquireOfSameSlot(t *testing.T) {
	d, _, _, _ := newTestDeque(t, 2)

	f0, err := d.Acquire()
	require.NoError(t, err)

	destroyed := false
	f0.PushStale(func() { destroyed = true })

	rec := &nopRecorder{}
	require.NoError(t, d.Submit(f0, nil, nil, rec))
	assert.False(t, destroyed, "stale entry must not run at submit time")

	f1, err := d.Acquire()
	require.NoError(t, err)
	require.NoError(t, d.Submit(f1, nil, nil, rec))
	assert.False(t, destroyed, "stale entry must not run on a different slot's acquire")

	_, err = d.Acquire() // back to slot 0
	require.NoError(t, err)
	assert.True(t, destroyed, "stale entry must run once slot 0 is acquired again")
}

// TestAcquireOutOfDateRebuildsSwapchainAndRetries pins spec.md §4.G's
// "Swapchain recreate" scenario: an OUT_OF_DATE acquire result
// synchronizes every frame, rebuilds the backing (and, transitively,
// every pass consuming it), and retries the acquire against the
// rebuilt swapchain.
func TestAcquireOutOfDateRebuildsSwapchainAndRetries(t *testing.T) {
	d, cmds, b, win := newTestDeque(t, 2)
	win1 := b.SwapchainHandle(win)

	cmds.acquireResults = []vk.Result{vk.ErrorOutOfDateKHR, vk.Success}

	f, err := d.Acquire()
	require.NoError(t, err)
	assert.True(t, f.windows[0].valid)
	assert.NotEqual(t, win1, b.SwapchainHandle(win), "backing must have a fresh swapchain handle after recreation")
}

// TestSubmitOutOfDatePresentTriggersRecreateOnReturn pins the present
// half of the same scenario: an OUT_OF_DATE/SUBOPTIMAL present result
// triggers a backing rebuild before Submit returns, so the next
// Acquire sees an already-fresh swapchain.
func TestSubmitOutOfDatePresentTriggersRecreateOnReturn(t *testing.T) {
	d, cmds, b, win := newTestDeque(t, 2)
	winHandleBefore := b.SwapchainHandle(win)
	cmds.presentResults = []vk.Result{vk.ErrorOutOfDateKHR}

	f, err := d.Acquire()
	require.NoError(t, err)

	rec := &nopRecorder{}
	require.NoError(t, d.Submit(f, nil, nil, rec))
	assert.NotEqual(t, winHandleBefore, b.SwapchainHandle(win))
}

func TestSyncFramesDrainsEveryFence(t *testing.T) {
	d, _, _, _ := newTestDeque(t, 3)
	require.NoError(t, d.SyncFrames())
}
