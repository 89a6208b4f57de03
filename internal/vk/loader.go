// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vk

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"
)

// goffi expects args[] to hold pointers to WHERE each argument value is
// stored, never the values themselves — see hal/vulkan/vk/loader.go in
// the upstream wgpu HAL this package is ported from for the long-form
// explanation of why that convention exists.

var (
	vulkanLib             unsafe.Pointer
	vkGetInstanceProcAddr unsafe.Pointer
	vkGetDeviceProcAddr   unsafe.Pointer
	cifGetInstanceProcAddr types.CallInterface
	cifGetDeviceProcAddr   types.CallInterface

	initOnce sync.Once
	initErr  error
)

func libraryName() string {
	switch runtime.GOOS {
	case "windows":
		return "vulkan-1.dll"
	case "darwin":
		return "libvulkan.dylib"
	default:
		return "libvulkan.so.1"
	}
}

// Init loads the Vulkan loader library. Safe to call more than once.
func Init() error {
	initOnce.Do(func() { initErr = doInit() })
	return initErr
}

func doInit() error {
	var err error
	vulkanLib, err = ffi.LoadLibrary(libraryName())
	if err != nil {
		return fmt.Errorf("vk: failed to load %s: %w", libraryName(), err)
	}

	vkGetInstanceProcAddr, err = ffi.GetSymbol(vulkanLib, "vkGetInstanceProcAddr")
	if err != nil {
		return fmt.Errorf("vk: vkGetInstanceProcAddr not found: %w", err)
	}

	if err := ffi.PrepareCallInterface(&cifGetInstanceProcAddr, types.DefaultCall,
		types.PointerTypeDescriptor,
		[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor},
	); err != nil {
		return fmt.Errorf("vk: preparing vkGetInstanceProcAddr call interface: %w", err)
	}

	return nil
}

// SetDeviceProcAddr caches vkGetDeviceProcAddr once a device exists,
// mirroring the Intel-driver workaround documented in the upstream
// loader: some ICDs return nil for
// vkGetInstanceProcAddr(NULL, "vkGetDeviceProcAddr").
func SetDeviceProcAddr(instance Instance) {
	proc := GetInstanceProcAddr(instance, "vkGetDeviceProcAddr")
	if proc != 0 {
		vkGetDeviceProcAddr = unsafe.Pointer(uintptr(proc))
		_ = ffi.PrepareCallInterface(&cifGetDeviceProcAddr, types.DefaultCall,
			types.PointerTypeDescriptor,
			[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor})
	}
}

// ProcAddr is a raw Vulkan PFN, stored as a uintptr so callers can feed
// it straight into syscall.SyscallN.
type ProcAddr uintptr

// GetInstanceProcAddr resolves a global or instance-level Vulkan entry
// point. instance may be 0 for the handful of functions loadable
// before an instance exists.
func GetInstanceProcAddr(instance Instance, name string) ProcAddr {
	if vkGetInstanceProcAddr == nil {
		return 0
	}
	cname := append([]byte(name), 0)
	namePtr := unsafe.Pointer(&cname[0])
	inst := uint64(instance)

	args := [2]unsafe.Pointer{unsafe.Pointer(&inst), unsafe.Pointer(&namePtr)}
	var ret uintptr
	ffi.Call(&cifGetInstanceProcAddr, vkGetInstanceProcAddr, unsafe.Pointer(&ret), args[:])
	return ProcAddr(ret)
}

// GetDeviceProcAddr resolves a device-level Vulkan entry point.
func GetDeviceProcAddr(device Device, name string) ProcAddr {
	if vkGetDeviceProcAddr == nil {
		return 0
	}
	cname := append([]byte(name), 0)
	namePtr := unsafe.Pointer(&cname[0])
	dev := uint64(device)

	args := [2]unsafe.Pointer{unsafe.Pointer(&dev), unsafe.Pointer(&namePtr)}
	var ret uintptr
	ffi.Call(&cifGetDeviceProcAddr, vkGetDeviceProcAddr, unsafe.Pointer(&ret), args[:])
	return ProcAddr(ret)
}
