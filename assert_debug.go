// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build gfxdebug

package rendergraph

func assertProtocolImpl(cond bool, msg string) {
	if !cond {
		panic("rendergraph: " + msg)
	}
}
