// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package rendergraph

import (
	"testing"

	"github.com/gogpu/rendergraph/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Without a real Vulkan library loaded in-process (vk.Init is never
// called here), every proc address internal/vk's loader resolves is
// the zero address, so NewDevice and format.Registry.Initialize run
// their full code paths against an all-zero backend safely: this pins
// that registration/enumeration logic itself, not any live GPU query.
func TestNewDeviceRegistersAndEnumerates(t *testing.T) {
	before := NumDevices()

	d := NewDevice(DeviceInfo{GraphicsFamily: 0, PresentFamily: 0})
	require.NotNil(t, d)

	assert.Equal(t, before+1, NumDevices())

	got, err := GetDevice(before)
	require.NoError(t, err)
	assert.Same(t, d, got)

	primary, err := PrimaryDevice()
	require.NoError(t, err)
	assert.NotNil(t, primary)
}

func TestGetDeviceOutOfRange(t *testing.T) {
	_, err := GetDevice(NumDevices() + 100)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestDeviceInfoQueueFamilyDefaults(t *testing.T) {
	info := DeviceInfo{GraphicsFamily: 3}
	assert.Equal(t, uint32(3), info.computeFamily())
	assert.Equal(t, uint32(3), info.transferFamily())

	info.ComputeFamily = 7
	info.TransferFamily = 9
	assert.Equal(t, uint32(7), info.computeFamily())
	assert.Equal(t, uint32(9), info.transferFamily())
}

// Without a loaded Vulkan library, every format query returns a
// zero feature triple, so Initialize skips every pairing and the
// registry ends up empty — FormatSupport must reflect that rather
// than panic.
func TestDeviceFormatSupportEmptyWithoutBackend(t *testing.T) {
	d := NewDevice(DeviceInfo{})
	mask := d.FormatSupport(format.Abstract{Kind: format.KindUnorm, Order: format.OrderRGBA, Depths: [4]uint8{8, 8, 8, 8}})
	assert.Equal(t, uint32(0), uint32(mask))
}
