package client

import (
	"context"
	"fmt"

	zap "go.uber.org/zap"

	types "github.com/inference-gateway/a2a/types"
)

// ClientEvent is one item of the normalized stream returned by
// Client.SendMessage and Client.Resubscribe. Exactly one of Task or
// Message is set on a successful item: Task carries the folded snapshot
// with Update holding the wire event that produced it (nil when the
// snapshot came from a full Task event), Message carries a terminal
// non-task result. Err reports a mid-stream failure; the channel is
// closed after it.
type ClientEvent struct {
	Task    *types.Task
	Update  types.Event
	Message *types.Message
	Err     error
}

// Consumer observes every event the client yields, before the caller
// receives it.
type Consumer func(ctx context.Context, event ClientEvent)

// Client wraps exactly one transport and normalizes streaming and
// blocking interactions into a single event channel.
type Client struct {
	transport Transport
	card      *types.AgentCard
	config    *ClientConfig
	consumers []Consumer
	logger    *zap.Logger
}

// NewClient wraps a transport. A nil config gets defaults.
func NewClient(transport Transport, card *types.AgentCard, config *ClientConfig, logger *zap.Logger) *Client {
	if config == nil {
		config = DefaultClientConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		transport: transport,
		card:      card,
		config:    config,
		logger:    logger,
	}
}

// AddConsumer registers a callback invoked with every yielded event.
// Not safe to call concurrently with an in-flight SendMessage.
func (c *Client) AddConsumer(consumer Consumer) {
	c.consumers = append(c.consumers, consumer)
}

// Transport exposes the underlying transport, mainly for tests.
func (c *Client) Transport() Transport {
	return c.transport
}

func (c *Client) streamingEnabled() bool {
	if !c.config.Streaming {
		return false
	}
	return c.card == nil || c.card.SupportsStreaming()
}

func (c *Client) yield(ctx context.Context, out chan<- ClientEvent, event ClientEvent) bool {
	for _, consumer := range c.consumers {
		consumer(ctx, event)
	}
	select {
	case out <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

// fold runs a wire event through the task manager and builds the
// normalized item for it.
func fold(manager *taskManager, event types.Event) ClientEvent {
	processed, err := manager.Process(event)
	if err != nil {
		return ClientEvent{Err: err}
	}
	switch e := processed.(type) {
	case *types.Message:
		return ClientEvent{Message: e}
	case *types.Task:
		return ClientEvent{Task: manager.Task()}
	default:
		return ClientEvent{Task: manager.Task(), Update: processed}
	}
}

// SendMessage sends a message and returns a channel of normalized
// events. With streaming enabled on both sides the channel follows the
// live stream; otherwise one blocking call produces a single item. The
// channel is closed when the interaction ends or ctx is cancelled.
func (c *Client) SendMessage(ctx context.Context, params *types.MessageSendParams) (<-chan ClientEvent, error) {
	if params == nil {
		return nil, fmt.Errorf("params must not be nil")
	}
	c.config.applyDefaults(params)

	if !c.streamingEnabled() {
		return c.sendBlocking(ctx, params)
	}

	stream, err := c.transport.SendMessageStream(ctx, params)
	if err != nil {
		return nil, err
	}
	return c.relay(ctx, stream), nil
}

func (c *Client) sendBlocking(ctx context.Context, params *types.MessageSendParams) (<-chan ClientEvent, error) {
	event, err := c.transport.SendMessage(ctx, params)
	if err != nil {
		return nil, err
	}

	manager := newTaskManager(c.logger)
	out := make(chan ClientEvent, 1)
	go func() {
		defer close(out)
		c.yield(ctx, out, fold(manager, event))
	}()
	return out, nil
}

func (c *Client) relay(ctx context.Context, stream <-chan StreamResult) <-chan ClientEvent {
	manager := newTaskManager(c.logger)
	out := make(chan ClientEvent)
	go func() {
		defer close(out)
		for result := range stream {
			if result.Err != nil {
				c.yield(ctx, out, ClientEvent{Err: result.Err})
				return
			}
			item := fold(manager, result.Event)
			if !c.yield(ctx, out, item) {
				return
			}
			if item.Err != nil {
				return
			}
		}
	}()
	return out
}

// GetTask fetches the current snapshot of a task.
func (c *Client) GetTask(ctx context.Context, params *types.TaskQueryParams) (*types.Task, error) {
	return c.transport.GetTask(ctx, params)
}

// CancelTask requests cancellation of a task.
func (c *Client) CancelTask(ctx context.Context, params *types.TaskIDParams) (*types.Task, error) {
	return c.transport.CancelTask(ctx, params)
}

// SetTaskCallback registers a push notification config for a task.
func (c *Client) SetTaskCallback(ctx context.Context, config *types.TaskPushNotificationConfig) (*types.TaskPushNotificationConfig, error) {
	return c.transport.SetTaskCallback(ctx, config)
}

// GetTaskCallback fetches a push notification config.
func (c *Client) GetTaskCallback(ctx context.Context, params *types.GetTaskPushNotificationConfigParams) (*types.TaskPushNotificationConfig, error) {
	return c.transport.GetTaskCallback(ctx, params)
}

// ListTaskCallbacks lists the push notification configs of a task.
func (c *Client) ListTaskCallbacks(ctx context.Context, params *types.ListTaskPushNotificationConfigParams) ([]types.TaskPushNotificationConfig, error) {
	return c.transport.ListTaskCallbacks(ctx, params)
}

// DeleteTaskCallback removes a push notification config.
func (c *Client) DeleteTaskCallback(ctx context.Context, params *types.DeleteTaskPushNotificationConfigParams) error {
	return c.transport.DeleteTaskCallback(ctx, params)
}

// Resubscribe reattaches to the live stream of an existing task and
// returns the same normalized channel as SendMessage.
func (c *Client) Resubscribe(ctx context.Context, params *types.TaskIDParams) (<-chan ClientEvent, error) {
	stream, err := c.transport.Resubscribe(ctx, params)
	if err != nil {
		return nil, err
	}
	return c.relay(ctx, stream), nil
}

// GetCard returns the agent card, refreshing through the transport when
// an authenticated extended card is advertised.
func (c *Client) GetCard(ctx context.Context) (*types.AgentCard, error) {
	card, err := c.transport.GetCard(ctx)
	if err != nil {
		return nil, err
	}
	c.card = card
	return card, nil
}

// Close releases the transport.
func (c *Client) Close() error {
	return c.transport.Close()
}
