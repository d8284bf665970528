package lirc

import (
	"context"
	"sync"
)

type task func(context.Context) error

// queue runs tasks one at a time in the order they were enqueued.
type queue struct {
	mu     sync.Mutex
	closed bool
	ch     chan task
}

func newQueue(size int) *queue {
	if size < 1 {
		size = 1
	}
	return &queue{ch: make(chan task, size)}
}

// run executes tasks until the queue is closed and drained, or ctx ends.
func (q *queue) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-q.ch:
			if !ok {
				return
			}
			if t != nil {
				_ = t(ctx)
			}
		}
	}
}

// enqueue hands t to the worker without blocking. It fails with
// ErrClosed after close and with ErrQueueFull when the buffer is full.
func (q *queue) enqueue(t task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.ch <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}
