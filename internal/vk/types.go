// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package vk provides the narrow slice of Vulkan 1.x bindings that the
// dependency engine, render backing, render graph and virtual frame
// deque call directly: pipeline barriers, fences, binary semaphores,
// render passes, framebuffers, command pools and swapchain
// acquire/present. Instance and device creation are out of scope (the
// caller supplies an already-open Device); so is every entry point
// outside that list.
package vk

// Handle is the common representation for every Vulkan dispatchable and
// non-dispatchable handle: a 64-bit opaque value.
type Handle uint64

type (
	Instance       Handle
	PhysicalDevice Handle
	Device         Handle
	Queue          Handle
	CommandPool    Handle
	CommandBuffer  Handle
	RenderPass     Handle
	Framebuffer    Handle
	Fence          Handle
	Semaphore      Handle
	Image          Handle
	ImageView      Handle
	Buffer         Handle
	DeviceMemory   Handle
	SurfaceKHR     Handle
	SwapchainKHR   Handle
)

// Result mirrors VkResult. Only the values the core branches on are named.
type Result int32

const (
	Success       Result = 0
	NotReady      Result = 1
	Timeout       Result = 2
	EventSet      Result = 3
	EventReset    Result = 4
	Incomplete    Result = 5
	ErrorOutOfHostMemory   Result = -1
	ErrorOutOfDeviceMemory Result = -2
	ErrorDeviceLost        Result = -4
	ErrorExtensionNotPresent Result = -7
	ErrorSurfaceLostKHR  Result = -1000000000
	ErrorOutOfDateKHR    Result = -1000001004
	SuboptimalKHR        Result = 1000001003
)

func (r Result) String() string {
	switch r {
	case Success:
		return "VK_SUCCESS"
	case NotReady:
		return "VK_NOT_READY"
	case Timeout:
		return "VK_TIMEOUT"
	case ErrorDeviceLost:
		return "VK_ERROR_DEVICE_LOST"
	case ErrorOutOfDateKHR:
		return "VK_ERROR_OUT_OF_DATE_KHR"
	case SuboptimalKHR:
		return "VK_SUBOPTIMAL_KHR"
	default:
		return "VK_RESULT(" + itoa(int32(r)) + ")"
	}
}

func itoa(v int32) string {
	neg := v < 0
	if neg {
		v = -v
	}
	if v == 0 {
		return "0"
	}
	var buf [12]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// StructureType mirrors VkStructureType for the structs this package defines.
type StructureType uint32

const (
	StructureTypeSubmitInfo                StructureType = 4
	StructureTypeFenceCreateInfo            StructureType = 8
	StructureTypeSemaphoreCreateInfo        StructureType = 9
	StructureTypeCommandPoolCreateInfo      StructureType = 39
	StructureTypeCommandBufferAllocateInfo  StructureType = 40
	StructureTypeRenderPassCreateInfo       StructureType = 38
	StructureTypeFramebufferCreateInfo      StructureType = 37
	StructureTypeMemoryBarrier              StructureType = 46
	StructureTypeBufferMemoryBarrier        StructureType = 44
	StructureTypeImageMemoryBarrier         StructureType = 45
	StructureTypePresentInfoKHR             StructureType = 1000001001
	StructureTypeCommandBufferBeginInfo     StructureType = 42
)

// AccessFlags mirrors VkAccessFlags. Named subset used by the
// access-mask-to-barrier mapping in package dep.
type AccessFlags uint32

const (
	AccessIndirectCommandRead      AccessFlags = 1 << 0
	AccessIndexRead                AccessFlags = 1 << 1
	AccessVertexAttributeRead      AccessFlags = 1 << 2
	AccessUniformRead              AccessFlags = 1 << 3
	AccessInputAttachmentRead      AccessFlags = 1 << 4
	AccessShaderRead               AccessFlags = 1 << 5
	AccessShaderWrite              AccessFlags = 1 << 6
	AccessColorAttachmentRead      AccessFlags = 1 << 7
	AccessColorAttachmentWrite     AccessFlags = 1 << 8
	AccessDepthStencilAttachmentRead  AccessFlags = 1 << 9
	AccessDepthStencilAttachmentWrite AccessFlags = 1 << 10
	AccessTransferRead             AccessFlags = 1 << 11
	AccessTransferWrite            AccessFlags = 1 << 12
	AccessHostRead                 AccessFlags = 1 << 13
	AccessHostWrite                AccessFlags = 1 << 14
	AccessMemoryRead               AccessFlags = 1 << 15
	AccessMemoryWrite              AccessFlags = 1 << 16
)

// PipelineStageFlags mirrors VkPipelineStageFlags.
type PipelineStageFlags uint32

const (
	PipelineStageTopOfPipe          PipelineStageFlags = 1 << 0
	PipelineStageDrawIndirect       PipelineStageFlags = 1 << 1
	PipelineStageVertexInput        PipelineStageFlags = 1 << 2
	PipelineStageVertexShader       PipelineStageFlags = 1 << 3
	PipelineStageFragmentShader     PipelineStageFlags = 1 << 7
	PipelineStageEarlyFragmentTests PipelineStageFlags = 1 << 8
	PipelineStageLateFragmentTests  PipelineStageFlags = 1 << 9
	PipelineStageColorAttachmentOutput PipelineStageFlags = 1 << 10
	PipelineStageComputeShader      PipelineStageFlags = 1 << 11
	PipelineStageTransfer           PipelineStageFlags = 1 << 12
	PipelineStageBottomOfPipe       PipelineStageFlags = 1 << 13
	PipelineStageHost               PipelineStageFlags = 1 << 14
	PipelineStageAllGraphics        PipelineStageFlags = 1 << 15
	PipelineStageAllCommands        PipelineStageFlags = 1 << 16
)

// ImageLayout mirrors VkImageLayout.
type ImageLayout uint32

const (
	ImageLayoutUndefined                     ImageLayout = 0
	ImageLayoutGeneral                       ImageLayout = 1
	ImageLayoutColorAttachmentOptimal        ImageLayout = 2
	ImageLayoutDepthStencilAttachmentOptimal ImageLayout = 3
	ImageLayoutDepthStencilReadOnlyOptimal   ImageLayout = 4
	ImageLayoutShaderReadOnlyOptimal         ImageLayout = 5
	ImageLayoutTransferSrcOptimal            ImageLayout = 6
	ImageLayoutTransferDstOptimal            ImageLayout = 7
	ImageLayoutPresentSrcKHR                 ImageLayout = 1000001002
)

// ImageAspectFlags mirrors VkImageAspectFlags.
type ImageAspectFlags uint32

const (
	ImageAspectColor   ImageAspectFlags = 1 << 0
	ImageAspectDepth   ImageAspectFlags = 1 << 1
	ImageAspectStencil ImageAspectFlags = 1 << 2
)

// Format mirrors the subset of VkFormat the format registry converts
// to/from. Numeric values match the Vulkan core enum (not backend
// opinion), so they are hard-coded rather than grounded on any one
// example repo.
type Format uint32

const (
	FormatUndefined Format = 0

	FormatR8Unorm Format = 9
	FormatR8Snorm Format = 10
	FormatR8Uint  Format = 13
	FormatR8Sint  Format = 14

	FormatR8g8Unorm Format = 16
	FormatR8g8Snorm Format = 17
	FormatR8g8Uint  Format = 20
	FormatR8g8Sint  Format = 21

	FormatR16Uint  Format = 74
	FormatR16Sint  Format = 75
	FormatR16Sfloat Format = 76

	FormatR8g8b8a8Unorm Format = 37
	FormatR8g8b8a8Srgb  Format = 43
	FormatR8g8b8a8Snorm Format = 38
	FormatR8g8b8a8Uint  Format = 41
	FormatR8g8b8a8Sint  Format = 42

	FormatB8g8r8a8Unorm Format = 44
	FormatB8g8r8a8Srgb  Format = 50

	FormatA2b10g10r10UintPack32  Format = 68
	FormatA2b10g10r10UnormPack32 Format = 64
	FormatB10g11r11UfloatPack32  Format = 122
	FormatE5b9g9r9UfloatPack32   Format = 123

	FormatR16g16Uint   Format = 81
	FormatR16g16Sint   Format = 82
	FormatR16g16Sfloat Format = 83

	FormatR32Uint   Format = 98
	FormatR32Sint   Format = 99
	FormatR32Sfloat Format = 100

	FormatR32g32Uint   Format = 101
	FormatR32g32Sint   Format = 102
	FormatR32g32Sfloat Format = 103

	FormatR16g16b16a16Uint   Format = 95
	FormatR16g16b16a16Sint   Format = 96
	FormatR16g16b16a16Sfloat Format = 97

	FormatR32g32b32a32Uint   Format = 107
	FormatR32g32b32a32Sint   Format = 108
	FormatR32g32b32a32Sfloat Format = 109

	FormatD16Unorm        Format = 124
	FormatX8D24UnormPack32 Format = 125
	FormatD32Sfloat       Format = 126
	FormatS8Uint          Format = 127
	FormatD24UnormS8Uint  Format = 129
	FormatD32SfloatS8Uint Format = 130

	FormatBc1RgbaUnormBlock Format = 133
	FormatBc1RgbaSrgbBlock  Format = 134
	FormatBc3UnormBlock     Format = 137
	FormatBc3SrgbBlock      Format = 138
	FormatBc4UnormBlock     Format = 139
	FormatBc4SnormBlock     Format = 140
	FormatBc5UnormBlock     Format = 141
	FormatBc5SnormBlock     Format = 142
	FormatBc7UnormBlock     Format = 145
	FormatBc7SrgbBlock      Format = 146
)

// AttachmentLoadOp / AttachmentStoreOp mirror their Vulkan counterparts.
type AttachmentLoadOp uint32
type AttachmentStoreOp uint32

const (
	AttachmentLoadOpLoad     AttachmentLoadOp = 0
	AttachmentLoadOpClear    AttachmentLoadOp = 1
	AttachmentLoadOpDontCare AttachmentLoadOp = 2
)

const (
	AttachmentStoreOpStore    AttachmentStoreOp = 0
	AttachmentStoreOpDontCare AttachmentStoreOp = 1
)

// SampleCountFlagBits mirrors VkSampleCountFlagBits.
type SampleCountFlagBits uint32

const SampleCount1 SampleCountFlagBits = 1

// Extent2D / Extent3D mirror their Vulkan counterparts.
type Extent2D struct {
	Width, Height uint32
}

type Extent3D struct {
	Width, Height, Depth uint32
}

// Offset3D mirrors VkOffset3D.
type Offset3D struct {
	X, Y, Z int32
}

// MemoryBarrier, BufferMemoryBarrier, ImageMemoryBarrier mirror their
// Vulkan counterparts, trimmed to the fields package dep populates.
type MemoryBarrier struct {
	SType         StructureType
	PNext         uintptr
	SrcAccessMask AccessFlags
	DstAccessMask AccessFlags
}

type BufferMemoryBarrier struct {
	SType               StructureType
	PNext               uintptr
	SrcAccessMask       AccessFlags
	DstAccessMask       AccessFlags
	SrcQueueFamilyIndex uint32
	DstQueueFamilyIndex uint32
	Buffer              Buffer
	Offset              uint64
	Size                uint64
}

type ImageSubresourceRange struct {
	AspectMask     ImageAspectFlags
	BaseMipLevel   uint32
	LevelCount     uint32
	BaseArrayLayer uint32
	LayerCount     uint32
}

type ImageMemoryBarrier struct {
	SType               StructureType
	PNext               uintptr
	SrcAccessMask       AccessFlags
	DstAccessMask       AccessFlags
	OldLayout           ImageLayout
	NewLayout           ImageLayout
	SrcQueueFamilyIndex uint32
	DstQueueFamilyIndex uint32
	Image               Image
	SubresourceRange    ImageSubresourceRange
}

// QueueFamilyIgnored mirrors VK_QUEUE_FAMILY_IGNORED.
const QueueFamilyIgnored uint32 = 0xFFFFFFFF

// WholeSize mirrors VK_WHOLE_SIZE, used by barrier emission to cover a
// sub-range from its offset to the end of the buffer.
const WholeSize uint64 = 0xFFFFFFFFFFFFFFFF

// FenceCreateInfo / SemaphoreCreateInfo mirror their Vulkan counterparts.
type FenceCreateInfo struct {
	SType StructureType
	PNext uintptr
	Flags uint32
}

type SemaphoreCreateInfo struct {
	SType StructureType
	PNext uintptr
	Flags uint32
}

// SubmitInfo mirrors VkSubmitInfo.
type SubmitInfo struct {
	SType                StructureType
	PNext                uintptr
	WaitSemaphoreCount   uint32
	PWaitSemaphores      *Semaphore
	PWaitDstStageMask    *PipelineStageFlags
	CommandBufferCount   uint32
	PCommandBuffers      *CommandBuffer
	SignalSemaphoreCount uint32
	PSignalSemaphores    *Semaphore
}

// PresentInfoKHR mirrors VkPresentInfoKHR.
type PresentInfoKHR struct {
	SType              StructureType
	PNext              uintptr
	WaitSemaphoreCount uint32
	PWaitSemaphores    *Semaphore
	SwapchainCount     uint32
	PSwapchains        *SwapchainKHR
	PImageIndices      *uint32
	PResults           *Result
}

// CommandPoolCreateInfo / CommandBufferAllocateInfo mirror their
// Vulkan counterparts.
type CommandPoolCreateInfo struct {
	SType            StructureType
	PNext            uintptr
	Flags            uint32
	QueueFamilyIndex uint32
}

const CommandPoolCreateResetCommandBuffer uint32 = 1 << 1

type CommandBufferAllocateInfo struct {
	SType              StructureType
	PNext              uintptr
	CommandPool        CommandPool
	Level              uint32
	CommandBufferCount uint32
}

const CommandBufferLevelPrimary uint32 = 0

type CommandBufferBeginInfo struct {
	SType StructureType
	PNext uintptr
	Flags uint32
	PInheritanceInfo uintptr
}

const CommandBufferUsageOneTimeSubmit uint32 = 1 << 0

// AttachmentDescription / AttachmentReference / SubpassDescription /
// SubpassDependency / RenderPassCreateInfo mirror their Vulkan
// counterparts, trimmed to single-subpass usage (§4.F never needs
// multi-subpass render passes).
type AttachmentDescription struct {
	Flags          uint32
	Format         Format
	Samples        SampleCountFlagBits
	LoadOp         AttachmentLoadOp
	StoreOp        AttachmentStoreOp
	StencilLoadOp  AttachmentLoadOp
	StencilStoreOp AttachmentStoreOp
	InitialLayout  ImageLayout
	FinalLayout    ImageLayout
}

const AttachmentUnused uint32 = 0xFFFFFFFF

type AttachmentReference struct {
	Attachment uint32
	Layout     ImageLayout
}

const PipelineBindPointGraphics uint32 = 0

type SubpassDescription struct {
	Flags                   uint32
	PipelineBindPoint       uint32
	InputAttachmentCount    uint32
	PInputAttachments       *AttachmentReference
	ColorAttachmentCount    uint32
	PColorAttachments       *AttachmentReference
	PResolveAttachments     *AttachmentReference
	PDepthStencilAttachment *AttachmentReference
	PreserveAttachmentCount uint32
	PPreserveAttachments    *uint32
}

type SubpassDependency struct {
	SrcSubpass      uint32
	DstSubpass      uint32
	SrcStageMask    PipelineStageFlags
	DstStageMask    PipelineStageFlags
	SrcAccessMask   AccessFlags
	DstAccessMask   AccessFlags
	DependencyFlags uint32
}

const SubpassExternal uint32 = 0xFFFFFFFF

type RenderPassCreateInfo struct {
	SType           StructureType
	PNext           uintptr
	Flags           uint32
	AttachmentCount uint32
	PAttachments    *AttachmentDescription
	SubpassCount    uint32
	PSubpasses      *SubpassDescription
	DependencyCount uint32
	PDependencies   *SubpassDependency
}

type FramebufferCreateInfo struct {
	SType           StructureType
	PNext           uintptr
	Flags           uint32
	RenderPass      RenderPass
	AttachmentCount uint32
	PAttachments    *ImageView
	Width           uint32
	Height          uint32
	Layers          uint32
}

// FormatFeatureFlags mirrors VkFormatFeatureFlags.
type FormatFeatureFlags uint32

const (
	FormatFeatureSampledImage          FormatFeatureFlags = 1 << 0
	FormatFeatureStorageImage          FormatFeatureFlags = 1 << 1
	FormatFeatureColorAttachment       FormatFeatureFlags = 1 << 7
	FormatFeatureDepthStencilAttachment FormatFeatureFlags = 1 << 9
	FormatFeatureVertexBuffer          FormatFeatureFlags = 1 << 6
)

// FormatProperties mirrors VkFormatProperties.
type FormatProperties struct {
	LinearTilingFeatures  FormatFeatureFlags
	OptimalTilingFeatures FormatFeatureFlags
	BufferFeatures        FormatFeatureFlags
}
