// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package format

import "github.com/gogpu/rendergraph/internal/vk"

type pairing struct {
	abstract Abstract
	backend  vk.Format
}

// formatTable is the fixed abstract<->backend pairing table Initialize
// walks. A representative slice of the teacher's ~130-entry
// textureFormatMap (hal/vulkan/convert.go), re-expressed as structured
// Abstract descriptors instead of a flat TextureFormat enum so Resolve
// and Fuzzy can reason about type/order/depth instead of switching on
// opaque enum values.
var formatTable = []pairing{
	{Abstract{Name: "R8Unorm", Kind: KindUnorm, Order: OrderR, Depths: [4]uint8{8}}, vk.FormatR8Unorm},
	{Abstract{Name: "R8Snorm", Kind: KindSnorm, Order: OrderR, Depths: [4]uint8{8}}, vk.FormatR8Snorm},
	{Abstract{Name: "R8Uint", Kind: KindUint, Order: OrderR, Depths: [4]uint8{8}}, vk.FormatR8Uint},
	{Abstract{Name: "R8Sint", Kind: KindSint, Order: OrderR, Depths: [4]uint8{8}}, vk.FormatR8Sint},

	{Abstract{Name: "RG8Unorm", Kind: KindUnorm, Order: OrderRG, Depths: [4]uint8{8, 8}}, vk.FormatR8g8Unorm},
	{Abstract{Name: "RG8Snorm", Kind: KindSnorm, Order: OrderRG, Depths: [4]uint8{8, 8}}, vk.FormatR8g8Snorm},
	{Abstract{Name: "RG8Uint", Kind: KindUint, Order: OrderRG, Depths: [4]uint8{8, 8}}, vk.FormatR8g8Uint},
	{Abstract{Name: "RG8Sint", Kind: KindSint, Order: OrderRG, Depths: [4]uint8{8, 8}}, vk.FormatR8g8Sint},

	{Abstract{Name: "R16Uint", Kind: KindUint, Order: OrderR, Depths: [4]uint8{16}}, vk.FormatR16Uint},
	{Abstract{Name: "R16Sint", Kind: KindSint, Order: OrderR, Depths: [4]uint8{16}}, vk.FormatR16Sint},
	{Abstract{Name: "R16Float", Kind: KindFloat, Order: OrderR, Depths: [4]uint8{16}}, vk.FormatR16Sfloat},

	{Abstract{Name: "RG16Uint", Kind: KindUint, Order: OrderRG, Depths: [4]uint8{16, 16}}, vk.FormatR16g16Uint},
	{Abstract{Name: "RG16Sint", Kind: KindSint, Order: OrderRG, Depths: [4]uint8{16, 16}}, vk.FormatR16g16Sint},
	{Abstract{Name: "RG16Float", Kind: KindFloat, Order: OrderRG, Depths: [4]uint8{16, 16}}, vk.FormatR16g16Sfloat},

	{Abstract{Name: "RGBA8Unorm", Kind: KindUnorm, Order: OrderRGBA, Depths: [4]uint8{8, 8, 8, 8}}, vk.FormatR8g8b8a8Unorm},
	{Abstract{Name: "RGBA8UnormSrgb", Kind: KindSrgb, Order: OrderRGBA, Depths: [4]uint8{8, 8, 8, 8}}, vk.FormatR8g8b8a8Srgb},
	{Abstract{Name: "RGBA8Snorm", Kind: KindSnorm, Order: OrderRGBA, Depths: [4]uint8{8, 8, 8, 8}}, vk.FormatR8g8b8a8Snorm},
	{Abstract{Name: "RGBA8Uint", Kind: KindUint, Order: OrderRGBA, Depths: [4]uint8{8, 8, 8, 8}}, vk.FormatR8g8b8a8Uint},
	{Abstract{Name: "RGBA8Sint", Kind: KindSint, Order: OrderRGBA, Depths: [4]uint8{8, 8, 8, 8}}, vk.FormatR8g8b8a8Sint},

	{Abstract{Name: "BGRA8Unorm", Kind: KindUnorm, Order: OrderBGRA, Depths: [4]uint8{8, 8, 8, 8}}, vk.FormatB8g8r8a8Unorm},
	{Abstract{Name: "BGRA8UnormSrgb", Kind: KindSrgb, Order: OrderBGRA, Depths: [4]uint8{8, 8, 8, 8}}, vk.FormatB8g8r8a8Srgb},

	{Abstract{Name: "RGB10A2Uint", Kind: KindUint, Order: OrderPacked1010102, Depths: [4]uint8{10, 10, 10, 2}}, vk.FormatA2b10g10r10UintPack32},
	{Abstract{Name: "RGB10A2Unorm", Kind: KindUnorm, Order: OrderPacked1010102, Depths: [4]uint8{10, 10, 10, 2}}, vk.FormatA2b10g10r10UnormPack32},
	{Abstract{Name: "RG11B10Ufloat", Kind: KindFloat, Order: OrderPackedFloat, Depths: [4]uint8{11, 11, 10}}, vk.FormatB10g11r11UfloatPack32},
	{Abstract{Name: "RGB9E5Ufloat", Kind: KindFloat, Order: OrderPackedFloat, Depths: [4]uint8{9, 9, 9}}, vk.FormatE5b9g9r9UfloatPack32},

	{Abstract{Name: "RG32Uint", Kind: KindUint, Order: OrderRG, Depths: [4]uint8{32, 32}}, vk.FormatR32g32Uint},
	{Abstract{Name: "RG32Sint", Kind: KindSint, Order: OrderRG, Depths: [4]uint8{32, 32}}, vk.FormatR32g32Sint},
	{Abstract{Name: "RG32Float", Kind: KindFloat, Order: OrderRG, Depths: [4]uint8{32, 32}}, vk.FormatR32g32Sfloat},
	{Abstract{Name: "R32Uint", Kind: KindUint, Order: OrderR, Depths: [4]uint8{32}}, vk.FormatR32Uint},
	{Abstract{Name: "R32Sint", Kind: KindSint, Order: OrderR, Depths: [4]uint8{32}}, vk.FormatR32Sint},
	{Abstract{Name: "R32Float", Kind: KindFloat, Order: OrderR, Depths: [4]uint8{32}}, vk.FormatR32Sfloat},

	{Abstract{Name: "RGBA16Uint", Kind: KindUint, Order: OrderRGBA, Depths: [4]uint8{16, 16, 16, 16}}, vk.FormatR16g16b16a16Uint},
	{Abstract{Name: "RGBA16Sint", Kind: KindSint, Order: OrderRGBA, Depths: [4]uint8{16, 16, 16, 16}}, vk.FormatR16g16b16a16Sint},
	{Abstract{Name: "RGBA16Float", Kind: KindFloat, Order: OrderRGBA, Depths: [4]uint8{16, 16, 16, 16}}, vk.FormatR16g16b16a16Sfloat},

	{Abstract{Name: "RGBA32Uint", Kind: KindUint, Order: OrderRGBA, Depths: [4]uint8{32, 32, 32, 32}}, vk.FormatR32g32b32a32Uint},
	{Abstract{Name: "RGBA32Sint", Kind: KindSint, Order: OrderRGBA, Depths: [4]uint8{32, 32, 32, 32}}, vk.FormatR32g32b32a32Sint},
	{Abstract{Name: "RGBA32Float", Kind: KindFloat, Order: OrderRGBA, Depths: [4]uint8{32, 32, 32, 32}}, vk.FormatR32g32b32a32Sfloat},

	{Abstract{Name: "Stencil8", Kind: KindUint, Order: OrderStencil, Depths: [4]uint8{0, 0, 0, 8}}, vk.FormatS8Uint},
	{Abstract{Name: "Depth16Unorm", Kind: KindUnorm, Order: OrderDepth, Depths: [4]uint8{16}}, vk.FormatD16Unorm},
	{Abstract{Name: "Depth24Plus", Kind: KindUnorm, Order: OrderDepth, Depths: [4]uint8{24}}, vk.FormatX8D24UnormPack32},
	{Abstract{Name: "Depth24PlusStencil8", Kind: KindUnorm, Order: OrderDepthStencil, Depths: [4]uint8{24, 0, 0, 8}}, vk.FormatD24UnormS8Uint},
	{Abstract{Name: "Depth32Float", Kind: KindFloat, Order: OrderDepth, Depths: [4]uint8{32}}, vk.FormatD32Sfloat},
	{Abstract{Name: "Depth32FloatStencil8", Kind: KindFloat, Order: OrderDepthStencil, Depths: [4]uint8{32, 0, 0, 8}}, vk.FormatD32SfloatS8Uint},

	{Abstract{Name: "BC1RGBAUnorm", Kind: KindUnorm, Order: OrderBC1}, vk.FormatBc1RgbaUnormBlock},
	{Abstract{Name: "BC1RGBAUnormSrgb", Kind: KindSrgb, Order: OrderBC1}, vk.FormatBc1RgbaSrgbBlock},
	{Abstract{Name: "BC3RGBAUnorm", Kind: KindUnorm, Order: OrderBC3}, vk.FormatBc3UnormBlock},
	{Abstract{Name: "BC3RGBAUnormSrgb", Kind: KindSrgb, Order: OrderBC3}, vk.FormatBc3SrgbBlock},
	{Abstract{Name: "BC4RUnorm", Kind: KindUnorm, Order: OrderBC4}, vk.FormatBc4UnormBlock},
	{Abstract{Name: "BC4RSnorm", Kind: KindSnorm, Order: OrderBC4}, vk.FormatBc4SnormBlock},
	{Abstract{Name: "BC5RGUnorm", Kind: KindUnorm, Order: OrderBC5}, vk.FormatBc5UnormBlock},
	{Abstract{Name: "BC5RGSnorm", Kind: KindSnorm, Order: OrderBC5}, vk.FormatBc5SnormBlock},
	{Abstract{Name: "BC7RGBAUnorm", Kind: KindUnorm, Order: OrderBC7}, vk.FormatBc7UnormBlock},
	{Abstract{Name: "BC7RGBAUnormSrgb", Kind: KindSrgb, Order: OrderBC7}, vk.FormatBc7SrgbBlock},
}
