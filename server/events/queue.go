package events

import (
	"context"
	"errors"
	"sync"

	types "github.com/inference-gateway/a2a/types"
)

// DefaultQueueSize is the buffer size for event queues.
const DefaultQueueSize = 1024

var (
	// ErrQueueClosed is returned when enqueueing on a closed queue, or when
	// dequeueing from a closed queue whose buffer has been drained.
	ErrQueueClosed = errors.New("event queue is closed")

	// ErrQueueEmpty is returned by a non-blocking dequeue when no event is
	// available.
	ErrQueueEmpty = errors.New("event queue is empty")
)

// queueCore is the backing stream shared by a queue and all its taps.
type queueCore struct {
	mu       sync.Mutex
	channels []chan types.Event
	closed   bool
	size     int
}

// EventQueue is a broadcast queue for task events. One producer enqueues;
// Tap creates additional consumer handles over the same stream so every
// event is visible to all taps in enqueue order. A tap observes only events
// enqueued after its creation; the backlog is not replayed.
type EventQueue struct {
	core *queueCore
	ch   chan types.Event
}

// NewEventQueue creates an event queue with the given buffer size per
// consumer handle. A size of zero or less uses DefaultQueueSize.
func NewEventQueue(size int) *EventQueue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	ch := make(chan types.Event, size)
	return &EventQueue{
		core: &queueCore{
			channels: []chan types.Event{ch},
			size:     size,
		},
		ch: ch,
	}
}

// Enqueue broadcasts an event to this queue and all of its taps. It never
// blocks: a consumer whose buffer is full misses the event. The only error
// is ErrQueueClosed.
func (q *EventQueue) Enqueue(event types.Event) error {
	q.core.mu.Lock()
	defer q.core.mu.Unlock()

	if q.core.closed {
		return ErrQueueClosed
	}

	for _, ch := range q.core.channels {
		select {
		case ch <- event:
		default:
			// Slow consumer, drop for this handle only.
		}
	}
	return nil
}

// Dequeue retrieves the next event for this handle. When block is false it
// returns ErrQueueEmpty immediately if nothing is buffered. When block is
// true it waits until an event arrives, the queue is closed and drained
// (ErrQueueClosed), or the context is done.
func (q *EventQueue) Dequeue(ctx context.Context, block bool) (types.Event, error) {
	if !block {
		select {
		case event, ok := <-q.ch:
			if !ok {
				return nil, ErrQueueClosed
			}
			return event, nil
		default:
			if q.IsClosed() {
				return nil, ErrQueueClosed
			}
			return nil, ErrQueueEmpty
		}
	}

	select {
	case event, ok := <-q.ch:
		if !ok {
			return nil, ErrQueueClosed
		}
		return event, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Tap creates a new consumer handle over the same backing stream. Events
// enqueued from now on are delivered to the new handle as well; events
// already enqueued are not replayed. Tapping a closed queue returns a
// handle that reports ErrQueueClosed on dequeue.
func (q *EventQueue) Tap() *EventQueue {
	q.core.mu.Lock()
	defer q.core.mu.Unlock()

	ch := make(chan types.Event, q.core.size)
	if q.core.closed {
		close(ch)
		return &EventQueue{core: q.core, ch: ch}
	}

	q.core.channels = append(q.core.channels, ch)
	return &EventQueue{core: q.core, ch: ch}
}

// Close marks the stream complete and wakes all blocked consumers. Events
// already buffered remain readable; subsequent enqueues fail with
// ErrQueueClosed. Closing twice is a no-op.
func (q *EventQueue) Close() {
	q.core.mu.Lock()
	defer q.core.mu.Unlock()

	if q.core.closed {
		return
	}
	q.core.closed = true
	for _, ch := range q.core.channels {
		close(ch)
	}
}

// IsClosed reports whether the stream has been closed.
func (q *EventQueue) IsClosed() bool {
	q.core.mu.Lock()
	defer q.core.mu.Unlock()
	return q.core.closed
}

// Len returns the number of buffered events for this handle.
func (q *EventQueue) Len() int {
	return len(q.ch)
}
