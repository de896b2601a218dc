// Package ringbuffer implements a fixed-capacity FIFO buffer with a
// configurable overflow policy (spec §3/§4.3 RingBuffer), adapted from the
// teacher's catrate/ring.go circular-index bookkeeping, generalized from an
// ordered-element specialization to an arbitrary generic element type and
// stripped of the power-of-2 sizing constraint (capacity here is any
// positive int) since callers pick arbitrary buffer sizes.
package ringbuffer

import (
	asyncerrors "github.com/joeycumines/asyncrt/errors"
)

// Policy is the behavior applied when Write would exceed capacity.
type Policy int

const (
	// Fixed raises BufferFullError on overflow, leaving existing contents
	// untouched.
	Fixed Policy = iota
	// Drop silently discards the new value, leaving existing contents
	// untouched.
	Drop
	// Latest evicts the oldest value to make room for the new one.
	Latest
)

// RingBuffer is a fixed-capacity FIFO buffer (spec §3 RingBuffer<T>).
type RingBuffer[T any] struct {
	buf    []T
	policy Policy
	r, w   int
	size   int
}

// New creates a RingBuffer with the given capacity and overflow policy.
// Panics if capacity <= 0.
func New[T any](capacity int, policy Policy) *RingBuffer[T] {
	if capacity <= 0 {
		panic("ringbuffer: capacity must be positive")
	}
	return &RingBuffer[T]{buf: make([]T, capacity), policy: policy}
}

// Cap returns the fixed capacity.
func (b *RingBuffer[T]) Cap() int { return len(b.buf) }

// Size returns the number of elements currently buffered.
func (b *RingBuffer[T]) Size() int { return b.size }

// IsEmpty reports whether the buffer holds no elements.
func (b *RingBuffer[T]) IsEmpty() bool { return b.size == 0 }

// IsFull reports whether the buffer is at capacity.
func (b *RingBuffer[T]) IsFull() bool { return b.size == len(b.buf) }

// Write appends v, applying the configured overflow policy if the buffer is
// full. Returns asyncerrors.BufferFullError under the Fixed policy when
// full; otherwise nil (Drop silently discards v, Latest evicts the oldest
// element to make room).
func (b *RingBuffer[T]) Write(v T) error {
	if b.IsFull() {
		switch b.policy {
		case Fixed:
			return &asyncerrors.BufferFullError{Capacity: len(b.buf)}
		case Drop:
			return nil
		case Latest:
			b.r = (b.r + 1) % len(b.buf)
			b.size--
		}
	}
	b.buf[b.w] = v
	b.w = (b.w + 1) % len(b.buf)
	b.size++
	return nil
}

// Read removes and returns the oldest element. ok is false if the buffer is
// empty.
func (b *RingBuffer[T]) Read() (v T, ok bool) {
	if b.size == 0 {
		return v, false
	}
	v = b.buf[b.r]
	var zero T
	b.buf[b.r] = zero
	b.r = (b.r + 1) % len(b.buf)
	b.size--
	return v, true
}

// Peek returns the oldest element without removing it. ok is false if the
// buffer is empty.
func (b *RingBuffer[T]) Peek() (v T, ok bool) {
	if b.size == 0 {
		return v, false
	}
	return b.buf[b.r], true
}

// Clear removes all elements.
func (b *RingBuffer[T]) Clear() {
	var zero T
	for i := range b.buf {
		b.buf[i] = zero
	}
	b.r, b.w, b.size = 0, 0, 0
}

// Slice returns the buffered elements in FIFO order, oldest first.
func (b *RingBuffer[T]) Slice() []T {
	out := make([]T, 0, b.size)
	for i := 0; i < b.size; i++ {
		out = append(out, b.buf[(b.r+i)%len(b.buf)])
	}
	return out
}

// Iterator returns a function that yields buffered elements in FIFO order
// on successive calls, consuming them as it goes (ok is false once
// exhausted). It is a snapshot-free live view over the buffer: concurrent
// writes during iteration are not supported by this type and must be
// serialized by the caller.
func (b *RingBuffer[T]) Iterator() func() (T, bool) {
	return b.Read
}
