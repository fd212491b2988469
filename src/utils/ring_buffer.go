package utils

import (
	"portfolio-observer/src/models"
)

// -----------------------------------------------------------------------------
// RingBuffer is a fixed-size circular buffer of instrument snapshots.
// Appends overwrite the oldest entry once full; no implicit resizing.
// -----------------------------------------------------------------------------

type RingBuffer struct {
	data     []models.MInstrumentSnapshot
	capacity int
	index    int // Next write position
	size     int // Current number of elements
}

// -----------------------------------------------------------------------------

// NewRingBuffer creates a new buffer with fixed capacity
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 500 // Default reasonable size
	}

	return &RingBuffer{
		data:     make([]models.MInstrumentSnapshot, capacity),
		capacity: capacity,
	}
}

// -----------------------------------------------------------------------------

// Append adds a snapshot, overwriting the oldest once full.
func (rb *RingBuffer) Append(snap models.MInstrumentSnapshot) {
	rb.data[rb.index] = snap
	rb.index = (rb.index + 1) % rb.capacity

	// Update size (never exceeds capacity)
	if rb.size < rb.capacity {
		rb.size++
	}
}

// -----------------------------------------------------------------------------

// GetLatest returns up to n latest snapshots, oldest first.
func (rb *RingBuffer) GetLatest(n int) []models.MInstrumentSnapshot {
	if rb.size == 0 || n <= 0 {
		return []models.MInstrumentSnapshot{}
	}

	count := n
	if n > rb.size {
		count = rb.size
	}

	result := make([]models.MInstrumentSnapshot, count)

	// Latest data sits just before the write index.
	startIdx := (rb.index - count + rb.capacity) % rb.capacity

	for i := 0; i < count; i++ {
		result[i] = rb.data[(startIdx+i)%rb.capacity]
	}

	return result
}

// -----------------------------------------------------------------------------

// Latest returns the most recent snapshot, if any.
func (rb *RingBuffer) Latest() (models.MInstrumentSnapshot, bool) {
	if rb.size == 0 {
		return models.MInstrumentSnapshot{}, false
	}
	idx := (rb.index - 1 + rb.capacity) % rb.capacity
	return rb.data[idx], true
}

// -----------------------------------------------------------------------------

// GetAll returns all data in insertion order (oldest to newest)
func (rb *RingBuffer) GetAll() []models.MInstrumentSnapshot {
	if rb.size == 0 {
		return []models.MInstrumentSnapshot{}
	}

	result := make([]models.MInstrumentSnapshot, rb.size)

	// Oldest element: current index when full (wrap-around), else 0.
	var startIdx int
	if rb.size == rb.capacity {
		startIdx = rb.index
	}

	for i := 0; i < rb.size; i++ {
		result[i] = rb.data[(startIdx+i)%rb.capacity]
	}

	return result
}

// -----------------------------------------------------------------------------

// Size returns current number of elements
func (rb *RingBuffer) Size() int {
	return rb.size
}

// -----------------------------------------------------------------------------

// Capacity returns buffer capacity (fixed)
func (rb *RingBuffer) Capacity() int {
	return rb.capacity
}

// -----------------------------------------------------------------------------

// Resize changes the capacity of the buffer
// If newCapacity < size, oldest data is dropped
func (rb *RingBuffer) Resize(newCapacity int) {
	if newCapacity <= 0 || newCapacity == rb.capacity {
		return
	}

	existing := rb.GetAll()
	if len(existing) > newCapacity {
		existing = existing[len(existing)-newCapacity:]
	}

	rb.data = make([]models.MInstrumentSnapshot, newCapacity)
	rb.capacity = newCapacity
	rb.index = 0
	rb.size = 0
	for _, snap := range existing {
		rb.Append(snap)
	}
}

// -----------------------------------------------------------------------------

// IsFull reports whether the buffer has reached capacity.
func (rb *RingBuffer) IsFull() bool {
	return rb.size == rb.capacity
}

// -----------------------------------------------------------------------------

// Clear resets the buffer without reallocating.
func (rb *RingBuffer) Clear() {
	rb.index = 0
	rb.size = 0
}
