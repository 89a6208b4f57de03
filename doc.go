// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package rendergraph is the public entry point of a single-backend
// (Vulkan 1.x) render graph core: a reference/heap/renderer surface
// wiring packages ref, format, dep, backing, graph, and frame into the
// object model an engine actually programs against (spec.md §6).
//
// A caller creates a Device from an already-open Vulkan instance and
// logical device (instance/device creation and windowing are
// out-of-scope collaborators per spec.md §1), allocates resources from
// a Heap, builds up a Renderer's attachments and passes, and then
// drives the acquire/submit loop every frame.
package rendergraph
