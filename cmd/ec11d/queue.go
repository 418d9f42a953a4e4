package main

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrQueueClosed is returned by Publish and Receive after Close.
var ErrQueueClosed = errors.New("event queue closed")

// EventQueue is an unbounded FIFO between the scan loop and its consumer.
//
// Publish never blocks and never drops; Receive blocks until an event is
// available, the queue is closed and drained, or ctx is done.
type EventQueue struct {
	mu     sync.Mutex
	items  []Event
	closed bool

	// notify holds at most one pending wakeup for Receive.
	notify chan struct{}

	warnBacklog int
	warned      bool
	logger      *slog.Logger
}

// NewEventQueue creates a queue. A backlog above warnBacklog is logged once
// per excursion; zero disables the warning.
func NewEventQueue(warnBacklog int, logger *slog.Logger) *EventQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventQueue{
		items:       make([]Event, 0, 16),
		notify:      make(chan struct{}, 1),
		warnBacklog: warnBacklog,
		logger:      logger,
	}
}

// Publish appends ev to the queue.
func (q *EventQueue) Publish(ev Event) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.items = append(q.items, ev)
	n := len(q.items)
	warn := q.warnBacklog > 0 && n > q.warnBacklog && !q.warned
	if warn {
		q.warned = true
	}
	q.mu.Unlock()

	if warn {
		q.logger.Warn("event queue backlog growing", "len", n, "warn_backlog", q.warnBacklog)
	}

	q.wake()
	return nil
}

// Receive returns the oldest event.
func (q *EventQueue) Receive(ctx context.Context) (Event, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			ev := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			if len(q.items) == 0 {
				// Drop the consumed prefix once drained.
				q.items = nil
				q.warned = false
			}
			q.mu.Unlock()
			return ev, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return nil, ErrQueueClosed
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.notify:
		}
	}
}

// Len returns the current backlog.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close rejects further publishes. Events already queued can still be received.
func (q *EventQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wake()
}

func (q *EventQueue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
