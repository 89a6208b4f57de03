// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package rendergraph

import (
	"fmt"
	"sync"

	"github.com/gogpu/rendergraph/format"
	"github.com/gogpu/rendergraph/internal/vk"
)

// DeviceInfo is the already-open Vulkan instance/device the caller
// hands this module — instance creation, physical device selection,
// and logical device creation are all out-of-scope collaborators per
// spec.md §1, the same boundary backing.Window and
// backing.ImageAllocator draw for windowing and memory allocation.
type DeviceInfo struct {
	Instance       vk.Instance
	PhysicalDevice vk.PhysicalDevice
	Device         vk.Device

	GraphicsFamily uint32
	PresentFamily  uint32
	GraphicsQueue  vk.Queue
	PresentQueue   vk.Queue

	// ComputeFamily/TransferFamily default to GraphicsFamily when left
	// zero and no distinct queue exists for them — the common
	// single-queue-family case dep.New's three-family signature
	// otherwise forces every caller to spell out.
	ComputeFamily  uint32
	TransferFamily uint32
}

func (info DeviceInfo) computeFamily() uint32 {
	if info.ComputeFamily != 0 {
		return info.ComputeFamily
	}
	return info.GraphicsFamily
}

func (info DeviceInfo) transferFamily() uint32 {
	if info.TransferFamily != 0 {
		return info.TransferFamily
	}
	return info.GraphicsFamily
}

// Device wraps one logical device's command surface and format
// registry (spec.md §6 "Device"). format.Registry.Initialize is called
// once at construction, consistent with spec.md §4.B describing format
// support as a per-device fixed table rather than a per-query live
// call.
type Device struct {
	info    DeviceInfo
	cmds    *vk.Commands
	formats *format.Registry
}

// Instance implements format.Device.
func (d *Device) Instance() vk.Instance { return d.info.Instance }

// PhysicalDevice implements format.Device.
func (d *Device) PhysicalDevice() vk.PhysicalDevice { return d.info.PhysicalDevice }

// Info returns the DeviceInfo this Device was constructed from.
func (d *Device) Info() DeviceInfo { return d.info }

// FormatSupport returns the union of feature bits every registered
// backend format pairing with fmt supports (spec.md §6 "FormatSupport").
func (d *Device) FormatSupport(fmt format.Abstract) vk.FormatFeatureFlags {
	return d.formats.Support(fmt)
}

// FormatFuzzy performs a relaxed format match against this device's
// registry (spec.md §6 "FormatFuzzy").
func (d *Device) FormatFuzzy(fmtIn format.Abstract, flags format.FuzzyFlags, minimumFeatures vk.FormatFeatureFlags) (format.Abstract, bool) {
	return d.formats.Fuzzy(fmtIn, flags, minimumFeatures)
}

// FormatResolve performs the exact backend-format lookup package
// format exposes, for callers that need the concrete vk.Format rather
// than just a feature check.
func (d *Device) FormatResolve(fmtIn format.Abstract, minimumProps format.Features) (format.Abstract, vk.Format, bool) {
	return d.formats.Resolve(fmtIn, minimumProps)
}

var deviceRegistry struct {
	mu      sync.Mutex
	devices []*Device
}

// NewDevice builds a Device from info, loads its command proc table,
// initializes its format registry, and registers it so
// NumDevices/GetDevice/PrimaryDevice can enumerate it (spec.md §6
// get_num_devices/get_device/get_primary_device). The first device
// ever registered becomes the primary device.
func NewDevice(info DeviceInfo) *Device {
	d := &Device{
		info:    info,
		cmds:    vk.LoadDevice(info.Device),
		formats: format.New(),
	}
	d.formats.Initialize(d)

	deviceRegistry.mu.Lock()
	deviceRegistry.devices = append(deviceRegistry.devices, d)
	deviceRegistry.mu.Unlock()
	return d
}

// NumDevices returns the number of devices registered via NewDevice.
func NumDevices() int {
	deviceRegistry.mu.Lock()
	defer deviceRegistry.mu.Unlock()
	return len(deviceRegistry.devices)
}

// GetDevice returns the i'th registered device.
func GetDevice(i int) (*Device, error) {
	deviceRegistry.mu.Lock()
	defer deviceRegistry.mu.Unlock()
	if i < 0 || i >= len(deviceRegistry.devices) {
		return nil, fmt.Errorf("%w: device %d", ErrOutOfRange, i)
	}
	return deviceRegistry.devices[i], nil
}

// PrimaryDevice returns the first device ever registered.
func PrimaryDevice() (*Device, error) {
	deviceRegistry.mu.Lock()
	defer deviceRegistry.mu.Unlock()
	if len(deviceRegistry.devices) == 0 {
		return nil, ErrNoDevices
	}
	return deviceRegistry.devices[0], nil
}
