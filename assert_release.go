// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build !gfxdebug

package rendergraph

// assertProtocolImpl is a documented no-op outside gfxdebug builds —
// dependency-protocol misuse is a programming error, not a condition
// release builds recover from.
func assertProtocolImpl(cond bool, msg string) {}
