// Package queue implements the bounded inter-stage queues that couple
// pipeline stages: a buffered Go channel plus the target/low-water
// bookkeeping every worker's loop consults. Go channels don't expose
// occupancy through a dedicated API beyond len/cap, so Queue centralizes
// the comparison every stage repeats instead of each worker reimplementing
// it.
package queue

// Queue[T] wraps a buffered channel of T with its configured target
// capacity. Low-water W is always T/2.
type Queue[T any] struct {
	ch     chan T
	target int
}

// New returns a Queue with the given target capacity. The underlying
// channel is buffered to 2*target, so the channel's own buffer is the hard
// ceiling that guarantees no queue ever exceeds 2*T in steady state.
func New[T any](target int) *Queue[T] {
	if target <= 0 {
		target = 1
	}
	return &Queue[T]{ch: make(chan T, 2*target), target: target}
}

// Target returns the configured target capacity T.
func (q *Queue[T]) Target() int {
	return q.target
}

// LowWater returns W = T/2.
func (q *Queue[T]) LowWater() int {
	return q.target / 2
}

// Len returns the current number of buffered items.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}

// AboveTarget reports whether the queue currently holds more than its
// target capacity — the condition a worker's loop waits out before pulling
// its next item.
func (q *Queue[T]) AboveTarget() bool {
	return q.Len() > q.target
}

// BelowLowWater reports whether the queue is starved enough to raise a
// need-more-upstream signal.
func (q *Queue[T]) BelowLowWater() bool {
	return q.Len() < q.LowWater()
}

// Send enqueues v, blocking if the channel's buffer is full (the in-steady-
// state upper bound 2*T is never exceeded because the buffer itself caps
// it). Returns false if done fires first.
func (q *Queue[T]) Send(v T, done <-chan struct{}) bool {
	select {
	case q.ch <- v:
		return true
	case <-done:
		return false
	}
}

// Recv dequeues the next value, returning ok=false if done fires first or
// the queue is closed and drained.
func (q *Queue[T]) Recv(done <-chan struct{}) (v T, ok bool) {
	select {
	case v, ok = <-q.ch:
		return v, ok
	case <-done:
		return v, false
	}
}

// Close closes the underlying channel. Only the producer side should call
// this, once, after it has stopped sending.
func (q *Queue[T]) Close() {
	close(q.ch)
}
