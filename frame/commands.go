// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package frame

import "github.com/gogpu/rendergraph/internal/vk"

// Commands is the slice of internal/vk's Commands surface the virtual
// frame deque calls directly: command pool/buffer lifecycle, fence and
// semaphore lifecycle, submission, and swapchain acquire/present.
// Declared as an interface — the same dependency-inversion seam as
// dep.Commands and graph.Commands — so deque_test.go can drive
// Acquire/Submit/SyncFrames without a live device; *vk.Commands
// satisfies it unmodified.
type Commands interface {
	CreateCommandPool(queueFamily uint32) (vk.CommandPool, error)
	DestroyCommandPool(vk.CommandPool)
	ResetCommandPool(vk.CommandPool) error
	AllocateCommandBuffer(vk.CommandPool) (vk.CommandBuffer, error)
	BeginCommandBuffer(vk.CommandBuffer) error
	EndCommandBuffer(vk.CommandBuffer) error

	CreateFence(signaled bool) (vk.Fence, error)
	DestroyFence(vk.Fence)
	ResetFences(vk.Fence) error
	WaitForFences(fence vk.Fence, timeoutNs uint64) (vk.Result, error)

	CreateSemaphore() (vk.Semaphore, error)
	DestroySemaphore(vk.Semaphore)

	QueueSubmit(queue vk.Queue, info *vk.SubmitInfo, fence vk.Fence) error

	AcquireNextImageKHR(swapchain vk.SwapchainKHR, timeoutNs uint64, semaphore vk.Semaphore, fence vk.Fence) (uint32, vk.Result)
	QueuePresentKHR(queue vk.Queue, info *vk.PresentInfoKHR) vk.Result
}
