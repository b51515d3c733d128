package events

import (
	"context"
	"errors"
	"sync"

	types "github.com/inference-gateway/a2a/types"
)

// Consumer reads events off an EventQueue until the stream completes: a
// final status update, a plain message, or queue close. An error raised by
// the producing agent can be attached and takes precedence over further
// consumption.
type Consumer struct {
	mu       sync.Mutex
	queue    *EventQueue
	agentErr error
}

// NewConsumer creates a consumer over the given queue handle.
func NewConsumer(queue *EventQueue) *Consumer {
	return &Consumer{queue: queue}
}

// SetAgentError records an error from the producing agent. Subsequent
// consumption surfaces it instead of events.
func (c *Consumer) SetAgentError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.agentErr = err
}

func (c *Consumer) agentError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.agentErr
}

// ConsumeOne retrieves a single buffered event without blocking.
func (c *Consumer) ConsumeOne(ctx context.Context) (types.Event, error) {
	if err := c.agentError(); err != nil {
		return nil, err
	}
	return c.queue.Dequeue(ctx, false)
}

// ConsumeAll streams events until a final event is seen, the queue closes,
// or the context is done. Both returned channels are closed when
// consumption finishes; at most one error is delivered.
func (c *Consumer) ConsumeAll(ctx context.Context) (<-chan types.Event, <-chan error) {
	eventChan := make(chan types.Event, 16)
	errChan := make(chan error, 1)

	go func() {
		defer close(eventChan)
		defer close(errChan)

		for {
			if err := c.agentError(); err != nil {
				errChan <- err
				return
			}

			event, err := c.queue.Dequeue(ctx, true)
			if err != nil {
				if errors.Is(err, ErrQueueClosed) || ctx.Err() != nil {
					// A producer failure may close the queue before the
					// consumer loops back to the agentError check.
					if agentErr := c.agentError(); agentErr != nil && ctx.Err() == nil {
						errChan <- agentErr
					}
					return
				}
				errChan <- err
				return
			}

			select {
			case eventChan <- event:
			case <-ctx.Done():
				return
			}

			if types.IsFinalEvent(event) {
				return
			}
		}
	}()

	return eventChan, errChan
}
