// Package queue provides the bounded mix-block queue between the mixing
// worker and the output callback.
//
// Both ends are non-blocking: the producer skips a cycle when the queue is
// full and the consumer substitutes silence when it is empty. The fixed
// capacity is the engine's only backpressure mechanism.
package queue

import "sync"

// BlockQueue is a bounded FIFO of stereo mix blocks. It is safe for one
// producer and one consumer running concurrently; all operations are
// non-blocking.
type BlockQueue struct {
	mu    sync.Mutex
	ring  [][]float32
	head  int
	count int
}

// New creates a queue holding at most capacity blocks.
func New(capacity int) *BlockQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &BlockQueue{ring: make([][]float32, capacity)}
}

// TryPush appends block without blocking. It reports false and leaves the
// queue untouched when the queue is full. The queue takes ownership of the
// slice until it is popped.
func (q *BlockQueue) TryPush(block []float32) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == len(q.ring) {
		return false
	}
	q.ring[(q.head+q.count)%len(q.ring)] = block
	q.count++
	return true
}

// TryPop removes and returns the oldest block without blocking. It reports
// false when the queue is empty.
func (q *BlockQueue) TryPop() ([]float32, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return nil, false
	}
	block := q.ring[q.head]
	q.ring[q.head] = nil
	q.head = (q.head + 1) % len(q.ring)
	q.count--
	return block, true
}

// Len returns the number of queued blocks.
func (q *BlockQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the configured capacity.
func (q *BlockQueue) Cap() int {
	return len(q.ring)
}

// Clear drops all queued blocks.
func (q *BlockQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.ring {
		q.ring[i] = nil
	}
	q.head = 0
	q.count = 0
}
