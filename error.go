// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package rendergraph

import "errors"

// Sentinel errors for the invalid-argument and resource-exhaustion
// kinds spec.md §7 describes; each is returned wrapped with
// fmt.Errorf("%w", ...) so callers can errors.Is against the sentinel
// while still getting a specific message.
var (
	// ErrReleased is returned when a handle names a slot that was
	// never allocated, or was allocated and since freed.
	ErrReleased = errors.New("rendergraph: handle released or never allocated")
	// ErrOutOfRange is returned for an index argument outside its
	// collection's current bounds; GetDevice returns it for a device
	// index out of range.
	ErrOutOfRange = errors.New("rendergraph: index out of range")
	// ErrInvalidReference is returned when a Reference fails to
	// resolve — an empty reference, a broken chain, or a bounds-check
	// failure in ref.Unpack.
	ErrInvalidReference = errors.New("rendergraph: reference does not resolve")
	// ErrDegraded is returned by Renderer.Acquire/Submit once a Submit
	// has failed and latched the renderer degraded; the renderer is no
	// longer usable.
	ErrDegraded = errors.New("rendergraph: renderer is degraded")
	// ErrNoDevices is returned by PrimaryDevice when no device has
	// been registered yet.
	ErrNoDevices = errors.New("rendergraph: no devices registered")
)

// assertProtocol panics with msg when cond is false in builds with the
// gfxdebug build tag and does nothing otherwise. Package dep does not
// go through it: Catch and Prepare on an injection that already went
// through Finish or Abort return dep.ErrInjectionDone in every build.
func assertProtocol(cond bool, msg string) {
	assertProtocolImpl(cond, msg)
}
