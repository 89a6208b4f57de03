// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package dep implements the cross-queue dependency injection protocol:
// sync objects, catch/prepare/finish/abort, barrier emission, and
// binary-semaphore ownership (spec.md §4.C). Grounded on the teacher's
// hal/vulkan/command.go access/stage mapping tables and
// core/track/tracking_data.go's claim/release slot discipline.
package dep

import "github.com/gogpu/rendergraph/internal/vk"

// AccessMask is the abstract access vocabulary a caller declares when
// touching a resource through the dependency engine: the union of
// read/write intents listed in spec.md §4.C, independent of any
// backend's access-bit encoding.
type AccessMask uint32

const (
	AccessVertexRead AccessMask = 1 << iota
	AccessIndexRead
	AccessUniformRead
	AccessIndirectRead
	AccessSampledRead
	AccessStorageRead
	AccessStorageWrite
	AccessInputRead
	AccessAttachmentRead
	AccessAttachmentWrite
	AccessTransferRead
	AccessTransferWrite
	AccessHostRead
	AccessHostWrite
)

func (a AccessMask) has(bit AccessMask) bool { return a&bit != 0 }

// isWrite reports whether any bit in a is a write access.
func (a AccessMask) isWrite() bool {
	const writes = AccessStorageWrite | AccessAttachmentWrite | AccessTransferWrite | AccessHostWrite
	return a&writes != 0
}

// ShaderStage is the optional hint narrowing which shader stages an
// AccessSampledRead/AccessStorageRead/AccessStorageWrite/
// AccessUniformRead access applies to. Zero means "all stages that
// could plausibly use this access" (the teacher's behavior absent a
// narrower usage hint).
type ShaderStage uint32

const (
	ShaderStageVertex ShaderStage = 1 << iota
	ShaderStageFragment
	ShaderStageCompute
)

// mapAccess translates an access mask (plus an optional shader-stage
// hint) into backend access bits, the tightest image layout every bit
// in the mask permits, and the union of pipeline stages the access
// bits and hint imply. Grounded on hal/vulkan/command.go's
// bufferUsageToAccessAndStage / textureUsageToAccessStageLayout,
// generalized from a single-usage switch into an accumulating mask
// walk so multiple access bits combine cleanly (spec.md §4.C).
func mapAccess(mask AccessMask, stages ShaderStage) (vk.AccessFlags, vk.ImageLayout, vk.PipelineStageFlags) {
	var access vk.AccessFlags
	var stage vk.PipelineStageFlags
	var layouts []vk.ImageLayout

	shaderStageBits := func(fallback vk.PipelineStageFlags) vk.PipelineStageFlags {
		if stages == 0 {
			return fallback
		}
		var s vk.PipelineStageFlags
		if stages&ShaderStageVertex != 0 {
			s |= vk.PipelineStageVertexShader
		}
		if stages&ShaderStageFragment != 0 {
			s |= vk.PipelineStageFragmentShader
		}
		if stages&ShaderStageCompute != 0 {
			s |= vk.PipelineStageComputeShader
		}
		if s == 0 {
			return fallback
		}
		return s
	}

	if mask.has(AccessVertexRead) {
		access |= vk.AccessVertexAttributeRead
		stage |= vk.PipelineStageVertexInput
	}
	if mask.has(AccessIndexRead) {
		access |= vk.AccessIndexRead
		stage |= vk.PipelineStageVertexInput
	}
	if mask.has(AccessUniformRead) {
		access |= vk.AccessUniformRead
		stage |= shaderStageBits(vk.PipelineStageVertexShader | vk.PipelineStageFragmentShader)
	}
	if mask.has(AccessIndirectRead) {
		access |= vk.AccessIndirectCommandRead
		stage |= vk.PipelineStageDrawIndirect
	}
	if mask.has(AccessSampledRead) {
		access |= vk.AccessShaderRead
		stage |= shaderStageBits(vk.PipelineStageFragmentShader)
		layouts = append(layouts, vk.ImageLayoutShaderReadOnlyOptimal)
	}
	if mask.has(AccessStorageRead) {
		access |= vk.AccessShaderRead
		stage |= shaderStageBits(vk.PipelineStageComputeShader)
		layouts = append(layouts, vk.ImageLayoutGeneral)
	}
	if mask.has(AccessStorageWrite) {
		access |= vk.AccessShaderWrite
		stage |= shaderStageBits(vk.PipelineStageComputeShader)
		layouts = append(layouts, vk.ImageLayoutGeneral)
	}
	if mask.has(AccessInputRead) {
		access |= vk.AccessInputAttachmentRead
		stage |= vk.PipelineStageFragmentShader
		layouts = append(layouts, vk.ImageLayoutShaderReadOnlyOptimal)
	}
	if mask.has(AccessAttachmentRead) {
		access |= vk.AccessColorAttachmentRead
		stage |= vk.PipelineStageColorAttachmentOutput
		layouts = append(layouts, vk.ImageLayoutColorAttachmentOptimal)
	}
	if mask.has(AccessAttachmentWrite) {
		access |= vk.AccessColorAttachmentWrite
		stage |= vk.PipelineStageColorAttachmentOutput
		layouts = append(layouts, vk.ImageLayoutColorAttachmentOptimal)
	}
	if mask.has(AccessTransferRead) {
		access |= vk.AccessTransferRead
		stage |= vk.PipelineStageTransfer
		layouts = append(layouts, vk.ImageLayoutTransferSrcOptimal)
	}
	if mask.has(AccessTransferWrite) {
		access |= vk.AccessTransferWrite
		stage |= vk.PipelineStageTransfer
		layouts = append(layouts, vk.ImageLayoutTransferDstOptimal)
	}
	if mask.has(AccessHostRead) {
		access |= vk.AccessHostRead
		stage |= vk.PipelineStageHost
	}
	if mask.has(AccessHostWrite) {
		access |= vk.AccessHostWrite
		stage |= vk.PipelineStageHost
	}

	if stage == 0 {
		stage = vk.PipelineStageTopOfPipe
	}

	layout := tightestLayout(layouts)
	return access, layout, stage
}

// tightestLayout returns the one image layout every entry in layouts
// agrees on, falling back to GENERAL when the access mix spans
// incompatible layouts (spec.md §4.C: "falling back to the general
// layout when mixed").
func tightestLayout(layouts []vk.ImageLayout) vk.ImageLayout {
	if len(layouts) == 0 {
		return vk.ImageLayoutUndefined
	}
	first := layouts[0]
	for _, l := range layouts[1:] {
		if l != first {
			return vk.ImageLayoutGeneral
		}
	}
	return first
}
