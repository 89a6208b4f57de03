// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

import (
	"fmt"
	"syscall"
	"unsafe"
)

// Commands holds the device-level Vulkan proc addresses this package
// calls. Grounded on hal/vulkan/vk/commands.go's three-stage loading
// scheme, trimmed to device-level entry points only — instance/physical
// device creation is out of this core's scope, so LoadGlobal/LoadInstance
// have no equivalent here; the caller hands us an already-open Device.
type Commands struct {
	device Device

	createFence     ProcAddr
	destroyFence    ProcAddr
	resetFences     ProcAddr
	waitForFences   ProcAddr
	getFenceStatus  ProcAddr

	createSemaphore  ProcAddr
	destroySemaphore ProcAddr

	queueSubmit ProcAddr

	createCommandPool  ProcAddr
	destroyCommandPool ProcAddr
	resetCommandPool   ProcAddr
	allocateCommandBuffers ProcAddr
	beginCommandBuffer ProcAddr
	endCommandBuffer   ProcAddr

	cmdPipelineBarrier ProcAddr

	createRenderPass  ProcAddr
	destroyRenderPass ProcAddr
	createFramebuffer ProcAddr
	destroyFramebuffer ProcAddr

	acquireNextImageKHR ProcAddr
	queuePresentKHR     ProcAddr
	destroySwapchainKHR ProcAddr
	getSwapchainImagesKHR ProcAddr
}

// LoadDevice resolves every device-level proc address this package uses.
// Missing optional entry points (e.g. a non-KHR-swapchain build) are left
// as zero; calls through them return an "entry point not loaded" error,
// or ErrorDeviceLost from the wrappers that return only a Result.
func LoadDevice(device Device) *Commands {
	c := &Commands{device: device}
	c.createFence = GetDeviceProcAddr(device, "vkCreateFence")
	c.destroyFence = GetDeviceProcAddr(device, "vkDestroyFence")
	c.resetFences = GetDeviceProcAddr(device, "vkResetFences")
	c.waitForFences = GetDeviceProcAddr(device, "vkWaitForFences")
	c.getFenceStatus = GetDeviceProcAddr(device, "vkGetFenceStatus")

	c.createSemaphore = GetDeviceProcAddr(device, "vkCreateSemaphore")
	c.destroySemaphore = GetDeviceProcAddr(device, "vkDestroySemaphore")

	c.queueSubmit = GetDeviceProcAddr(device, "vkQueueSubmit")

	c.createCommandPool = GetDeviceProcAddr(device, "vkCreateCommandPool")
	c.destroyCommandPool = GetDeviceProcAddr(device, "vkDestroyCommandPool")
	c.resetCommandPool = GetDeviceProcAddr(device, "vkResetCommandPool")
	c.allocateCommandBuffers = GetDeviceProcAddr(device, "vkAllocateCommandBuffers")
	c.beginCommandBuffer = GetDeviceProcAddr(device, "vkBeginCommandBuffer")
	c.endCommandBuffer = GetDeviceProcAddr(device, "vkEndCommandBuffer")

	c.cmdPipelineBarrier = GetDeviceProcAddr(device, "vkCmdPipelineBarrier")

	c.createRenderPass = GetDeviceProcAddr(device, "vkCreateRenderPass")
	c.destroyRenderPass = GetDeviceProcAddr(device, "vkDestroyRenderPass")
	c.createFramebuffer = GetDeviceProcAddr(device, "vkCreateFramebuffer")
	c.destroyFramebuffer = GetDeviceProcAddr(device, "vkDestroyFramebuffer")

	c.acquireNextImageKHR = GetDeviceProcAddr(device, "vkAcquireNextImageKHR")
	c.queuePresentKHR = GetDeviceProcAddr(device, "vkQueuePresentKHR")
	c.destroySwapchainKHR = GetDeviceProcAddr(device, "vkDestroySwapchainKHR")
	c.getSwapchainImagesKHR = GetDeviceProcAddr(device, "vkGetSwapchainImagesKHR")
	return c
}

func (c *Commands) call(proc ProcAddr, args ...uintptr) (uintptr, error) {
	if proc == 0 {
		return 0, fmt.Errorf("vk: entry point not loaded")
	}
	r, _, _ := syscall.SyscallN(uintptr(proc), args...)
	return r, nil
}

// CreateFence wraps vkCreateFence.
func (c *Commands) CreateFence(signaled bool) (Fence, error) {
	var flags uint32
	if signaled {
		flags = 1
	}
	info := FenceCreateInfo{SType: StructureTypeFenceCreateInfo, Flags: flags}
	var fence Fence
	r, err := c.call(c.createFence, uintptr(c.device), uintptr(unsafe.Pointer(&info)), 0, uintptr(unsafe.Pointer(&fence)))
	if err != nil {
		return 0, err
	}
	if Result(r) != Success {
		return 0, fmt.Errorf("vk: vkCreateFence failed: %s", Result(r))
	}
	return fence, nil
}

// DestroyFence wraps vkDestroyFence.
func (c *Commands) DestroyFence(fence Fence) {
	_, _ = c.call(c.destroyFence, uintptr(c.device), uintptr(fence), 0)
}

// ResetFences wraps vkResetFences for a single fence.
func (c *Commands) ResetFences(fence Fence) error {
	r, err := c.call(c.resetFences, uintptr(c.device), 1, uintptr(unsafe.Pointer(&fence)))
	if err != nil {
		return err
	}
	if Result(r) != Success {
		return fmt.Errorf("vk: vkResetFences failed: %s", Result(r))
	}
	return nil
}

// WaitForFences wraps vkWaitForFences for a single fence, blocking
// indefinitely (timeoutNs = ^uint64(0)) unless a shorter timeout is given.
func (c *Commands) WaitForFences(fence Fence, timeoutNs uint64) (Result, error) {
	r, err := c.call(c.waitForFences, uintptr(c.device), 1, uintptr(unsafe.Pointer(&fence)), 1, uintptr(timeoutNs))
	if err != nil {
		return 0, err
	}
	return Result(r), nil
}

// GetFenceStatus wraps vkGetFenceStatus: non-blocking poll.
func (c *Commands) GetFenceStatus(fence Fence) Result {
	r, err := c.call(c.getFenceStatus, uintptr(c.device), uintptr(fence))
	if err != nil {
		return ErrorDeviceLost
	}
	return Result(r)
}

// CreateSemaphore wraps vkCreateSemaphore (binary semaphore).
func (c *Commands) CreateSemaphore() (Semaphore, error) {
	info := SemaphoreCreateInfo{SType: StructureTypeSemaphoreCreateInfo}
	var sem Semaphore
	r, err := c.call(c.createSemaphore, uintptr(c.device), uintptr(unsafe.Pointer(&info)), 0, uintptr(unsafe.Pointer(&sem)))
	if err != nil {
		return 0, err
	}
	if Result(r) != Success {
		return 0, fmt.Errorf("vk: vkCreateSemaphore failed: %s", Result(r))
	}
	return sem, nil
}

// DestroySemaphore wraps vkDestroySemaphore.
func (c *Commands) DestroySemaphore(sem Semaphore) {
	_, _ = c.call(c.destroySemaphore, uintptr(c.device), uintptr(sem), 0)
}

// QueueSubmit wraps vkQueueSubmit for a single VkSubmitInfo.
func (c *Commands) QueueSubmit(queue Queue, info *SubmitInfo, fence Fence) error {
	r, err := c.call(c.queueSubmit, uintptr(queue), 1, uintptr(unsafe.Pointer(info)), uintptr(fence))
	if err != nil {
		return err
	}
	if Result(r) != Success {
		return fmt.Errorf("vk: vkQueueSubmit failed: %s", Result(r))
	}
	return nil
}

// CreateCommandPool wraps vkCreateCommandPool, reset-individually-capable.
func (c *Commands) CreateCommandPool(queueFamily uint32) (CommandPool, error) {
	info := CommandPoolCreateInfo{
		SType:            StructureTypeCommandPoolCreateInfo,
		Flags:            CommandPoolCreateResetCommandBuffer,
		QueueFamilyIndex: queueFamily,
	}
	var pool CommandPool
	r, err := c.call(c.createCommandPool, uintptr(c.device), uintptr(unsafe.Pointer(&info)), 0, uintptr(unsafe.Pointer(&pool)))
	if err != nil {
		return 0, err
	}
	if Result(r) != Success {
		return 0, fmt.Errorf("vk: vkCreateCommandPool failed: %s", Result(r))
	}
	return pool, nil
}

// DestroyCommandPool wraps vkDestroyCommandPool.
func (c *Commands) DestroyCommandPool(pool CommandPool) {
	_, _ = c.call(c.destroyCommandPool, uintptr(c.device), uintptr(pool), 0)
}

// ResetCommandPool wraps vkResetCommandPool.
func (c *Commands) ResetCommandPool(pool CommandPool) error {
	r, err := c.call(c.resetCommandPool, uintptr(c.device), uintptr(pool), 0)
	if err != nil {
		return err
	}
	if Result(r) != Success {
		return fmt.Errorf("vk: vkResetCommandPool failed: %s", Result(r))
	}
	return nil
}

// AllocateCommandBuffer wraps vkAllocateCommandBuffers for a single
// primary command buffer (§3's Virtual Frame owns exactly one).
func (c *Commands) AllocateCommandBuffer(pool CommandPool) (CommandBuffer, error) {
	info := CommandBufferAllocateInfo{
		SType:              StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	var cb CommandBuffer
	r, err := c.call(c.allocateCommandBuffers, uintptr(c.device), uintptr(unsafe.Pointer(&info)), uintptr(unsafe.Pointer(&cb)))
	if err != nil {
		return 0, err
	}
	if Result(r) != Success {
		return 0, fmt.Errorf("vk: vkAllocateCommandBuffers failed: %s", Result(r))
	}
	return cb, nil
}

// BeginCommandBuffer wraps vkBeginCommandBuffer (one-time-submit).
func (c *Commands) BeginCommandBuffer(cb CommandBuffer) error {
	info := CommandBufferBeginInfo{SType: StructureTypeCommandBufferBeginInfo, Flags: CommandBufferUsageOneTimeSubmit}
	r, err := c.call(c.beginCommandBuffer, uintptr(cb), uintptr(unsafe.Pointer(&info)))
	if err != nil {
		return err
	}
	if Result(r) != Success {
		return fmt.Errorf("vk: vkBeginCommandBuffer failed: %s", Result(r))
	}
	return nil
}

// EndCommandBuffer wraps vkEndCommandBuffer.
func (c *Commands) EndCommandBuffer(cb CommandBuffer) error {
	r, err := c.call(c.endCommandBuffer, uintptr(cb))
	if err != nil {
		return err
	}
	if Result(r) != Success {
		return fmt.Errorf("vk: vkEndCommandBuffer failed: %s", Result(r))
	}
	return nil
}

// CmdPipelineBarrier wraps vkCmdPipelineBarrier, grounded on
// hal/vulkan/command.go's TransitionBuffers/TransitionTextures.
func (c *Commands) CmdPipelineBarrier(cb CommandBuffer, srcStage, dstStage PipelineStageFlags,
	memBarriers []MemoryBarrier, bufBarriers []BufferMemoryBarrier, imgBarriers []ImageMemoryBarrier) {

	var memPtr, bufPtr, imgPtr unsafe.Pointer
	if len(memBarriers) > 0 {
		memPtr = unsafe.Pointer(&memBarriers[0])
	}
	if len(bufBarriers) > 0 {
		bufPtr = unsafe.Pointer(&bufBarriers[0])
	}
	if len(imgBarriers) > 0 {
		imgPtr = unsafe.Pointer(&imgBarriers[0])
	}

	syscall.SyscallN(uintptr(c.cmdPipelineBarrier),
		uintptr(cb),
		uintptr(srcStage),
		uintptr(dstStage),
		0, // dependencyFlags
		uintptr(len(memBarriers)), uintptr(memPtr),
		uintptr(len(bufBarriers)), uintptr(bufPtr),
		uintptr(len(imgBarriers)), uintptr(imgPtr),
	)
}

// CreateRenderPass wraps vkCreateRenderPass.
func (c *Commands) CreateRenderPass(info *RenderPassCreateInfo) (RenderPass, error) {
	var rp RenderPass
	r, err := c.call(c.createRenderPass, uintptr(c.device), uintptr(unsafe.Pointer(info)), 0, uintptr(unsafe.Pointer(&rp)))
	if err != nil {
		return 0, err
	}
	if Result(r) != Success {
		return 0, fmt.Errorf("vk: vkCreateRenderPass failed: %s", Result(r))
	}
	return rp, nil
}

// DestroyRenderPass wraps vkDestroyRenderPass.
func (c *Commands) DestroyRenderPass(rp RenderPass) {
	_, _ = c.call(c.destroyRenderPass, uintptr(c.device), uintptr(rp), 0)
}

// CreateFramebuffer wraps vkCreateFramebuffer.
func (c *Commands) CreateFramebuffer(info *FramebufferCreateInfo) (Framebuffer, error) {
	var fb Framebuffer
	r, err := c.call(c.createFramebuffer, uintptr(c.device), uintptr(unsafe.Pointer(info)), 0, uintptr(unsafe.Pointer(&fb)))
	if err != nil {
		return 0, err
	}
	if Result(r) != Success {
		return 0, fmt.Errorf("vk: vkCreateFramebuffer failed: %s", Result(r))
	}
	return fb, nil
}

// DestroyFramebuffer wraps vkDestroyFramebuffer.
func (c *Commands) DestroyFramebuffer(fb Framebuffer) {
	_, _ = c.call(c.destroyFramebuffer, uintptr(c.device), uintptr(fb), 0)
}

// AcquireNextImageKHR wraps vkAcquireNextImageKHR.
func (c *Commands) AcquireNextImageKHR(swapchain SwapchainKHR, timeoutNs uint64, semaphore Semaphore, fence Fence) (uint32, Result) {
	var index uint32
	r, err := c.call(c.acquireNextImageKHR, uintptr(c.device), uintptr(swapchain), uintptr(timeoutNs),
		uintptr(semaphore), uintptr(fence), uintptr(unsafe.Pointer(&index)))
	if err != nil {
		return 0, ErrorDeviceLost
	}
	return index, Result(r)
}

// QueuePresentKHR wraps vkQueuePresentKHR.
func (c *Commands) QueuePresentKHR(queue Queue, info *PresentInfoKHR) Result {
	r, err := c.call(c.queuePresentKHR, uintptr(queue), uintptr(unsafe.Pointer(info)))
	if err != nil {
		return ErrorDeviceLost
	}
	return Result(r)
}

// DestroySwapchainKHR wraps vkDestroySwapchainKHR.
func (c *Commands) DestroySwapchainKHR(swapchain SwapchainKHR) {
	_, _ = c.call(c.destroySwapchainKHR, uintptr(c.device), uintptr(swapchain), 0)
}

// GetSwapchainImagesKHR wraps vkGetSwapchainImagesKHR (two-call idiom).
func (c *Commands) GetSwapchainImagesKHR(swapchain SwapchainKHR) ([]Image, error) {
	var count uint32
	r, err := c.call(c.getSwapchainImagesKHR, uintptr(c.device), uintptr(swapchain), uintptr(unsafe.Pointer(&count)), 0)
	if err != nil {
		return nil, err
	}
	if Result(r) != Success || count == 0 {
		return nil, fmt.Errorf("vk: vkGetSwapchainImagesKHR (count) failed: %s", Result(r))
	}
	images := make([]Image, count)
	r, err = c.call(c.getSwapchainImagesKHR, uintptr(c.device), uintptr(swapchain), uintptr(unsafe.Pointer(&count)), uintptr(unsafe.Pointer(&images[0])))
	if err != nil {
		return nil, err
	}
	if Result(r) != Success {
		return nil, fmt.Errorf("vk: vkGetSwapchainImagesKHR (images) failed: %s", Result(r))
	}
	return images, nil
}

// GetPhysicalDeviceFormatProperties wraps vkGetPhysicalDeviceFormatProperties.
// This is an instance-level entry point (queried once during
// format.Registry.Initialize, §4.B), resolved separately from the
// device-level Commands table.
func GetPhysicalDeviceFormatProperties(instance Instance, pdev PhysicalDevice, format Format) FormatProperties {
	proc := GetInstanceProcAddr(instance, "vkGetPhysicalDeviceFormatProperties")
	if proc == 0 {
		return FormatProperties{}
	}
	var props FormatProperties
	syscall.SyscallN(uintptr(proc), uintptr(pdev), uintptr(format), uintptr(unsafe.Pointer(&props)))
	return props
}
