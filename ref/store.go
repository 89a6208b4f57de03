// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ref

import (
	"fmt"
	"sync"
)

// Store is a dense, epoch-checked registry of owner objects, the
// generic shape adapted from core/hub.go's Registry[T,M]/Hub pair. It
// backs the buffer/image/primitive/group/attachment tables a Reference
// resolves against: Register hands back a Handle, Lookup fails closed
// on a stale or out-of-range handle (the root cause of a "reference is
// only meaningful while its owner is alive" violation, spec.md §3),
// and Release recycles the slot for reuse with a bumped epoch.
type Store[T any, M Marker] struct {
	mu    sync.RWMutex
	slots []slot[T]
	free  []Index
}

type slot[T any] struct {
	value T
	epoch Epoch
	live  bool
}

// NewStore creates an empty store.
func NewStore[T any, M Marker]() *Store[T, M] {
	return &Store[T, M]{}
}

// BufferStore, ImageStore, PrimitiveStore, GroupStore, and
// AttachmentStore name a Store specialized to each owner kind a
// Reference can name, so a field declaration outside this package
// never has to spell the unexported marker type out. Generic type
// aliases (Go 1.24+) rather than defined types: a Heap's
// *ref.BufferStore[bufferRecord] field is exactly a
// *Store[bufferRecord, bufferMarker], not a distinct type requiring
// its own conversion.
type (
	BufferStore[T any]     = Store[T, bufferMarker]
	ImageStore[T any]      = Store[T, imageMarker]
	PrimitiveStore[T any]  = Store[T, primitiveMarker]
	GroupStore[T any]      = Store[T, groupMarker]
	AttachmentStore[T any] = Store[T, attachmentMarker]
)

// NewBufferStore, NewImageStore, NewPrimitiveStore, NewGroupStore, and
// NewAttachmentStore construct a Store for each owner kind a Reference
// can name. Exported as factories — rather than exporting the marker
// types themselves — because the marker types exist purely to make
// Handle[M] a distinct Go type per owner kind; the module-root Heap
// and Renderer types that hold these stores have no business naming
// the marker type directly, only the record type they store.
func NewBufferStore[T any]() *BufferStore[T]         { return NewStore[T, bufferMarker]() }
func NewImageStore[T any]() *ImageStore[T]           { return NewStore[T, imageMarker]() }
func NewPrimitiveStore[T any]() *PrimitiveStore[T]   { return NewStore[T, primitiveMarker]() }
func NewGroupStore[T any]() *GroupStore[T]           { return NewStore[T, groupMarker]() }
func NewAttachmentStore[T any]() *AttachmentStore[T] { return NewStore[T, attachmentMarker]() }

// Register allocates a slot for value and returns its handle.
func (s *Store[T, M]) Register(value T) Handle[M] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.free); n > 0 {
		idx := s.free[n-1]
		s.free = s.free[:n-1]
		sl := &s.slots[idx]
		sl.value = value
		sl.live = true
		return NewHandle[M](idx, sl.epoch)
	}

	idx := Index(len(s.slots))
	s.slots = append(s.slots, slot[T]{value: value, epoch: 1, live: true})
	return NewHandle[M](idx, 1)
}

// Lookup returns the value for h, failing if h is out of range, its
// epoch is stale, or the slot was released.
func (s *Store[T, M]) Lookup(h Handle[M]) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var zero T
	idx := h.Index()
	if int(idx) >= len(s.slots) {
		return zero, false
	}
	sl := &s.slots[idx]
	if !sl.live || sl.epoch != h.Epoch() {
		return zero, false
	}
	return sl.value, true
}

// Update replaces the value at h in place, failing the same way Lookup
// does for a stale handle.
func (s *Store[T, M]) Update(h Handle[M], value T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := h.Index()
	if int(idx) >= len(s.slots) {
		return fmt.Errorf("ref: handle %s out of range", h.Raw())
	}
	sl := &s.slots[idx]
	if !sl.live || sl.epoch != h.Epoch() {
		return fmt.Errorf("ref: handle %s stale", h.Raw())
	}
	sl.value = value
	return nil
}

// Release frees h's slot, bumping its epoch so any outstanding
// Reference naming the old handle fails Lookup from now on.
func (s *Store[T, M]) Release(h Handle[M]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := h.Index()
	if int(idx) >= len(s.slots) {
		return
	}
	sl := &s.slots[idx]
	if !sl.live || sl.epoch != h.Epoch() {
		return
	}
	var zero T
	sl.value = zero
	sl.live = false
	sl.epoch++
	s.free = append(s.free, idx)
}

// Len returns the number of live entries.
func (s *Store[T, M]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots) - len(s.free)
}
