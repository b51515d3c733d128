package client

import (
	"context"
	"net/http"

	types "github.com/inference-gateway/a2a/types"
)

// StreamResult is one frame of a streaming response: an event, or the
// error that ended the stream.
type StreamResult struct {
	Event types.Event
	Err   error
}

// Transport is a protocol binding for the A2A operations. Implementations
// exist for JSON-RPC, gRPC and REST; the Client is transport-agnostic on
// top of this interface.
type Transport interface {
	// SendMessage sends a message and returns the terminal Task or Message.
	SendMessage(ctx context.Context, params *types.MessageSendParams) (types.Event, error)

	// SendMessageStream sends a message and streams events until the final
	// one. The channel closes when the stream ends; a mid-stream failure is
	// delivered as a StreamResult carrying the error.
	SendMessageStream(ctx context.Context, params *types.MessageSendParams) (<-chan StreamResult, error)

	// GetTask fetches the current snapshot of a task.
	GetTask(ctx context.Context, params *types.TaskQueryParams) (*types.Task, error)

	// CancelTask requests cancellation and returns the resulting snapshot.
	CancelTask(ctx context.Context, params *types.TaskIDParams) (*types.Task, error)

	// SetTaskCallback registers a push notification config for a task.
	SetTaskCallback(ctx context.Context, config *types.TaskPushNotificationConfig) (*types.TaskPushNotificationConfig, error)

	// GetTaskCallback fetches a registered push notification config.
	GetTaskCallback(ctx context.Context, params *types.GetTaskPushNotificationConfigParams) (*types.TaskPushNotificationConfig, error)

	// ListTaskCallbacks lists the push notification configs of a task.
	ListTaskCallbacks(ctx context.Context, params *types.ListTaskPushNotificationConfigParams) ([]types.TaskPushNotificationConfig, error)

	// DeleteTaskCallback removes a push notification config.
	DeleteTaskCallback(ctx context.Context, params *types.DeleteTaskPushNotificationConfigParams) error

	// Resubscribe reattaches to the live event stream of a task.
	Resubscribe(ctx context.Context, params *types.TaskIDParams) (<-chan StreamResult, error)

	// GetCard returns the agent card, fetching the authenticated extended
	// card when the agent advertises one.
	GetCard(ctx context.Context) (*types.AgentCard, error)

	// Close releases transport resources.
	Close() error
}

// applyInterceptors runs the interceptor chain and returns the headers to
// attach to the outgoing call.
func applyInterceptors(ctx context.Context, interceptors []CallInterceptor, method string, card *types.AgentCard) (http.Header, error) {
	headers := make(http.Header)
	for _, interceptor := range interceptors {
		if err := interceptor.Intercept(ctx, method, headers, card); err != nil {
			return nil, err
		}
	}
	return headers, nil
}
