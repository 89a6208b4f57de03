// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dep

import (
	"testing"

	"github.com/gogpu/rendergraph/internal/vk"
	"github.com/gogpu/rendergraph/ref"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCommands records every barrier it is asked to emit and hands out
// monotonically increasing fake semaphore handles, so tests can assert
// on barrier count/fields without a live Vulkan device.
type fakeCommands struct {
	nextSem      vk.Semaphore
	bufBarriers  []vk.BufferMemoryBarrier
	imgBarriers  []vk.ImageMemoryBarrier
	destroyed    []vk.Semaphore
}

func (f *fakeCommands) CreateSemaphore() (vk.Semaphore, error) {
	f.nextSem++
	return f.nextSem, nil
}

func (f *fakeCommands) DestroySemaphore(s vk.Semaphore) {
	f.destroyed = append(f.destroyed, s)
}

func (f *fakeCommands) CmdPipelineBarrier(cb vk.CommandBuffer, srcStage, dstStage vk.PipelineStageFlags,
	mem []vk.MemoryBarrier, buf []vk.BufferMemoryBarrier, img []vk.ImageMemoryBarrier) {
	f.bufBarriers = append(f.bufBarriers, buf...)
	f.imgBarriers = append(f.imgBarriers, img...)
}

func bufferTouch(owner ref.RawHandle, offset int64, size uint64, access AccessMask, backend vk.Buffer) RefAccess {
	return RefAccess{
		Ref:           ref.Unpacked{Tag: 1, Owner: owner, Offset: offset},
		Range:         NewBufferRange(uint64(offset), size),
		Access:        access,
		BackendBuffer: backend,
	}
}

// TestDependencyVisibility pins spec.md §8 invariant 5 and its
// end-to-end scenario: a transfer-write signal that finishes before a
// vertex-read catch begins produces exactly one barrier with the
// recorded src/dst access and stages.
func TestDependencyVisibility(t *testing.T) {
	fc := &fakeCommands{}
	d := New(fc, 0, 1, 2, 1)

	producer := NewInjection(QueueTransfer)
	producer.AddRef(bufferTouch(42, 0, 1024, AccessTransferWrite, 7))
	require.NoError(t, Prepare(0, true, []*Dependency{d}, producer))
	Finish([]*Dependency{d}, producer)

	consumer := NewInjection(QueueGraphics)
	consumer.AddRef(bufferTouch(42, 512, 1024, AccessVertexRead, 7))
	require.NoError(t, Catch(0, []*Dependency{d}, consumer))

	require.Len(t, fc.bufBarriers, 1)
	b := fc.bufBarriers[0]
	assert.Equal(t, vk.AccessTransferWrite, b.SrcAccessMask)
	assert.Equal(t, vk.AccessVertexAttributeRead, b.DstAccessMask)
}

// TestNoOverlapNoBarrier pins spec.md §8 invariant 6: a signal on
// X[0,100) and a wait on X[200,300) of the same buffer must not
// produce any barrier or wait semaphore.
func TestNoOverlapNoBarrier(t *testing.T) {
	fc := &fakeCommands{}
	d := New(fc, 0, 1, 2, 1)

	producer := NewInjection(QueueTransfer)
	producer.AddRef(bufferTouch(9, 0, 100, AccessTransferWrite, 3))
	require.NoError(t, Prepare(0, true, []*Dependency{d}, producer))
	Finish([]*Dependency{d}, producer)

	consumer := NewInjection(QueueGraphics)
	consumer.AddRef(bufferTouch(9, 200, 100, AccessVertexRead, 3))
	require.NoError(t, Catch(0, []*Dependency{d}, consumer))

	assert.Empty(t, fc.bufBarriers)
	assert.Empty(t, consumer.Waits)
}

// TestPrepareNonBlockingSignalsSemaphore checks that a non-blocking
// Prepare call allocates and returns a semaphore via inj.Signals.
func TestPrepareNonBlockingSignalsSemaphore(t *testing.T) {
	fc := &fakeCommands{}
	d := New(fc, 0, 1, 2, 1)

	inj := NewInjection(QueueTransfer)
	inj.AddRef(bufferTouch(1, 0, 64, AccessTransferWrite, 1))
	require.NoError(t, Prepare(0, false, []*Dependency{d}, inj))

	assert.Len(t, inj.Signals, 1)
	assert.NotZero(t, inj.Signals[0])
}

// TestAbortRollback pins the "abort rollback" end-to-end scenario: a
// subsequent injection's catch must not see any signal from an
// injection that prepared then aborted.
func TestAbortRollback(t *testing.T) {
	fc := &fakeCommands{}
	d := New(fc, 0, 1, 2, 1)

	producer := NewInjection(QueueTransfer)
	producer.AddRef(bufferTouch(5, 0, 512, AccessTransferWrite, 2))
	require.NoError(t, Prepare(0, false, []*Dependency{d}, producer))
	Abort([]*Dependency{d}, producer)

	consumer := NewInjection(QueueGraphics)
	consumer.AddRef(bufferTouch(5, 0, 512, AccessVertexRead, 2))
	require.NoError(t, Catch(0, []*Dependency{d}, consumer))

	assert.Empty(t, fc.bufBarriers)
	assert.Empty(t, consumer.Waits)
}

// TestCatchOrPrepareAfterFinishFails pins spec.md §7's "Dependency
// protocol misuse" error kind.
func TestCatchOrPrepareAfterFinishFails(t *testing.T) {
	fc := &fakeCommands{}
	d := New(fc, 0, 1, 2, 1)

	inj := NewInjection(QueueTransfer)
	Finish([]*Dependency{d}, inj)

	err := Catch(0, []*Dependency{d}, inj)
	assert.ErrorIs(t, err, ErrInjectionDone)

	err = Prepare(0, true, []*Dependency{d}, inj)
	assert.ErrorIs(t, err, ErrInjectionDone)
}

// TestSameInjectionShortcutsThroughPrepareCatch pins that a prepare
// command is visible to a subsequent catch on the *same* injection
// pointer without requiring finish or a semaphore (spec.md §5).
func TestSameInjectionShortcutsThroughPrepareCatch(t *testing.T) {
	fc := &fakeCommands{}
	d := New(fc, 0, 1, 2, 1)

	inj := NewInjection(QueueTransfer)
	inj.AddRef(bufferTouch(3, 0, 128, AccessTransferWrite, 4))
	require.NoError(t, Prepare(0, false, []*Dependency{d}, inj))

	inj.AddRef(bufferTouch(3, 0, 128, AccessTransferRead, 4))
	require.NoError(t, Catch(0, []*Dependency{d}, inj))

	require.Len(t, fc.bufBarriers, 1)
	assert.Empty(t, inj.Waits, "same-injection shortcut must not consume a semaphore wait")
}
