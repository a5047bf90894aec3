package loadtest

import (
	"context"
	"sync"
)

// Queue is a bounded FIFO of pending work units shared between the dispatcher and the workers.
// Push blocks while the queue is full and Pop blocks while it is empty
type Queue struct {
	units     chan string
	closeOnce sync.Once
}

// NewQueue creates a queue that holds at most capacity pending units. Capacities below 1 are raised to 1
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{units: make(chan string, capacity)}
}

// Push adds unit to the queue, waiting for space if the queue is full. ctx.Err() is returned if the
// context ends before the unit is accepted. Push must not be called after Close
func (q *Queue) Push(ctx context.Context, unit string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.units <- unit:
		return nil
	}
}

// Pop removes the next unit. ok is false once the queue has been closed and drained, or the context ends
func (q *Queue) Pop(ctx context.Context) (unit string, ok bool) {
	select {
	case <-ctx.Done():
		return "", false
	case unit, ok = <-q.units:
		return unit, ok
	}
}

// Close marks the end of dispatch. Units already queued can still be popped. Calling Close more than once
// is a no-op
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.units)
	})
}

// Len returns the number of units waiting to be popped
func (q *Queue) Len() int {
	return len(q.units)
}

func (q *Queue) Cap() int {
	return cap(q.units)
}
