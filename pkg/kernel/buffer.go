package kernel

import (
	"errors"
	"fmt"
)

var (
	// ErrReleased is returned when a released buffer is read or written.
	ErrReleased = errors.New("buffer released")
	// ErrSize is returned when a host slice does not match a buffer's length.
	ErrSize = errors.New("buffer size mismatch")
)

// Buffer is a fixed-length device allocation. Release is idempotent and
// safe on a nil *Buffer.
type Buffer[T any] struct {
	dev  *Device
	data []T
}

// Alloc allocates a zeroed buffer of n elements on dev.
func Alloc[T any](dev *Device, n int) *Buffer[T] {
	dev.live.Add(1)
	return &Buffer[T]{dev: dev, data: make([]T, n)}
}

// Len returns the element count, or 0 for a nil or released buffer.
func (b *Buffer[T]) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Released reports whether the buffer is nil or has been released.
func (b *Buffer[T]) Released() bool {
	return b == nil || b.data == nil
}

// Data exposes the backing store to kernel programs. It is nil once the
// buffer is released.
func (b *Buffer[T]) Data() []T {
	if b == nil {
		return nil
	}
	return b.data
}

// Fill sets every element to v.
func (b *Buffer[T]) Fill(v T) error {
	if b.Released() {
		return ErrReleased
	}
	for i := range b.data {
		b.data[i] = v
	}
	return nil
}

// Read copies the buffer into dst, which must have exactly Len elements.
func (b *Buffer[T]) Read(dst []T) error {
	if b.Released() {
		return ErrReleased
	}
	if len(dst) != len(b.data) {
		return fmt.Errorf("%w: got %d, want %d", ErrSize, len(dst), len(b.data))
	}
	copy(dst, b.data)
	return nil
}

// ReadPrefix copies the first n elements into a new slice.
func (b *Buffer[T]) ReadPrefix(n int) ([]T, error) {
	if b.Released() {
		return nil, ErrReleased
	}
	if n < 0 || n > len(b.data) {
		return nil, fmt.Errorf("%w: prefix %d of %d", ErrSize, n, len(b.data))
	}
	out := make([]T, n)
	copy(out, b.data[:n])
	return out, nil
}

// Write copies src into the buffer, which must have exactly Len elements.
func (b *Buffer[T]) Write(src []T) error {
	if b.Released() {
		return ErrReleased
	}
	if len(src) != len(b.data) {
		return fmt.Errorf("%w: got %d, want %d", ErrSize, len(src), len(b.data))
	}
	copy(b.data, src)
	return nil
}

// Release frees the allocation. Later calls are no-ops.
func (b *Buffer[T]) Release() {
	if b.Released() {
		return
	}
	b.data = nil
	b.dev.live.Add(-1)
}
