package ringbuffer

import (
	"sync"

	"github.com/tinytelemetry/packetstream/internal/model"
)

// Buffer is a fixed-capacity FIFO of accepted packages.
// Appending beyond capacity evicts the oldest entry.
//
// Thread-safe for concurrent use.
type Buffer struct {
	mu    sync.RWMutex
	items []model.Package
	head  int // index of the oldest entry
	size  int
	total uint64
}

// New creates an empty buffer holding at most capacity packages.
// A non-positive capacity falls back to model.DefaultBufferCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = model.DefaultBufferCapacity
	}
	return &Buffer{
		items: make([]model.Package, capacity),
	}
}

// Append stores p as the newest entry and reports whether an older entry was evicted.
func (b *Buffer) Append(p model.Package) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.total++
	capacity := len(b.items)
	if b.size < capacity {
		b.items[(b.head+b.size)%capacity] = p
		b.size++
		return false
	}

	b.items[b.head] = p
	b.head = (b.head + 1) % capacity
	return true
}

// Snapshot returns the buffered packages, oldest first.
func (b *Buffer) Snapshot() []model.Package {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]model.Package, b.size)
	capacity := len(b.items)
	for i := 0; i < b.size; i++ {
		out[i] = b.items[(b.head+i)%capacity]
	}
	return out
}

// Len returns the number of buffered packages.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Cap returns the retention window size.
func (b *Buffer) Cap() int {
	return len(b.items)
}

// Total returns how many packages were ever appended.
func (b *Buffer) Total() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.total
}

// Reset drops every buffered package. Total is kept.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.items {
		b.items[i] = nil
	}
	b.head = 0
	b.size = 0
}
