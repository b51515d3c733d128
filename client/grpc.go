package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	a2apb "github.com/a2aproject/a2a-go/a2apb"
	zap "go.uber.org/zap"
	grpc "google.golang.org/grpc"
	metadata "google.golang.org/grpc/metadata"

	protoconv "github.com/inference-gateway/a2a/protoconv"
	types "github.com/inference-gateway/a2a/types"
)

// GRPCTransport implements Transport over the a2a.v1.A2AService gRPC
// service.
type GRPCTransport struct {
	conn         *grpc.ClientConn
	service      a2apb.A2AServiceClient
	card         *types.AgentCard
	interceptors []CallInterceptor
	logger       *zap.Logger
}

var _ Transport = (*GRPCTransport)(nil)

// NewGRPCTransport creates a gRPC transport over an established connection.
func NewGRPCTransport(conn *grpc.ClientConn, card *types.AgentCard, interceptors []CallInterceptor, logger *zap.Logger) *GRPCTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCTransport{
		conn:         conn,
		service:      a2apb.NewA2AServiceClient(conn),
		card:         card,
		interceptors: interceptors,
		logger:       logger,
	}
}

// callContext runs the interceptor chain and attaches resulting headers as
// outgoing gRPC metadata.
func (t *GRPCTransport) callContext(ctx context.Context, method string) (context.Context, error) {
	headers, err := applyInterceptors(ctx, t.interceptors, method, t.card)
	if err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return ctx, nil
	}

	var pairs []string
	for key, values := range headers {
		for _, value := range values {
			pairs = append(pairs, key, value)
		}
	}
	return metadata.AppendToOutgoingContext(ctx, pairs...), nil
}

func (t *GRPCTransport) relayStream(ctx context.Context, stream grpc.ServerStreamingClient[a2apb.StreamResponse]) <-chan StreamResult {
	results := make(chan StreamResult, 16)
	go func() {
		defer close(results)
		for {
			frame, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				if ctx.Err() == nil {
					results <- StreamResult{Err: fmt.Errorf("stream recv failed: %w", err)}
				}
				return
			}

			event, err := protoconv.EventFromStreamResponse(frame)
			if err != nil {
				results <- StreamResult{Err: err}
				return
			}
			select {
			case results <- StreamResult{Event: event}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return results
}

// SendMessage sends a message and returns the terminal Task or Message.
func (t *GRPCTransport) SendMessage(ctx context.Context, params *types.MessageSendParams) (types.Event, error) {
	req, err := protoconv.SendParamsToProto(params)
	if err != nil {
		return nil, err
	}
	ctx, err = t.callContext(ctx, types.MethodMessageSend)
	if err != nil {
		return nil, err
	}

	resp, err := t.service.SendMessage(ctx, req)
	if err != nil {
		return nil, err
	}
	return protoconv.EventFromSendResponse(resp)
}

// SendMessageStream sends a message and streams events.
func (t *GRPCTransport) SendMessageStream(ctx context.Context, params *types.MessageSendParams) (<-chan StreamResult, error) {
	req, err := protoconv.SendParamsToProto(params)
	if err != nil {
		return nil, err
	}
	ctx, err = t.callContext(ctx, types.MethodMessageStream)
	if err != nil {
		return nil, err
	}

	stream, err := t.service.SendStreamingMessage(ctx, req)
	if err != nil {
		return nil, err
	}
	return t.relayStream(ctx, stream), nil
}

// GetTask fetches the current snapshot of a task.
func (t *GRPCTransport) GetTask(ctx context.Context, params *types.TaskQueryParams) (*types.Task, error) {
	ctx, err := t.callContext(ctx, types.MethodTasksGet)
	if err != nil {
		return nil, err
	}

	req := &a2apb.GetTaskRequest{Name: protoconv.TaskName(params.ID)}
	if params.HistoryLength != nil {
		req.HistoryLength = int32(*params.HistoryLength)
	}

	task, err := t.service.GetTask(ctx, req)
	if err != nil {
		return nil, err
	}
	return protoconv.TaskFromProto(task)
}

// CancelTask requests task cancellation.
func (t *GRPCTransport) CancelTask(ctx context.Context, params *types.TaskIDParams) (*types.Task, error) {
	ctx, err := t.callContext(ctx, types.MethodTasksCancel)
	if err != nil {
		return nil, err
	}

	task, err := t.service.CancelTask(ctx, &a2apb.CancelTaskRequest{Name: protoconv.TaskName(params.ID)})
	if err != nil {
		return nil, err
	}
	return protoconv.TaskFromProto(task)
}

// SetTaskCallback registers a push notification config.
func (t *GRPCTransport) SetTaskCallback(ctx context.Context, config *types.TaskPushNotificationConfig) (*types.TaskPushNotificationConfig, error) {
	ctx, err := t.callContext(ctx, types.MethodTasksPushNotificationConfigSet)
	if err != nil {
		return nil, err
	}

	configID := config.TaskID
	if config.PushNotificationConfig.ID != nil && *config.PushNotificationConfig.ID != "" {
		configID = *config.PushNotificationConfig.ID
	}

	resp, err := t.service.CreateTaskPushNotificationConfig(ctx, &a2apb.CreateTaskPushNotificationConfigRequest{
		Parent:   protoconv.TaskName(config.TaskID),
		ConfigId: configID,
		Config:   protoconv.TaskPushConfigToProto(*config),
	})
	if err != nil {
		return nil, err
	}

	out, err := protoconv.TaskPushConfigFromProto(resp)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTaskCallback fetches a registered push notification config.
func (t *GRPCTransport) GetTaskCallback(ctx context.Context, params *types.GetTaskPushNotificationConfigParams) (*types.TaskPushNotificationConfig, error) {
	ctx, err := t.callContext(ctx, types.MethodTasksPushNotificationConfigGet)
	if err != nil {
		return nil, err
	}

	configID := params.ID
	if params.PushNotificationConfigID != nil && *params.PushNotificationConfigID != "" {
		configID = *params.PushNotificationConfigID
	}

	resp, err := t.service.GetTaskPushNotificationConfig(ctx, &a2apb.GetTaskPushNotificationConfigRequest{
		Name: protoconv.PushConfigName(params.ID, configID),
	})
	if err != nil {
		return nil, err
	}

	out, err := protoconv.TaskPushConfigFromProto(resp)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTaskCallbacks lists a task's push notification configs.
func (t *GRPCTransport) ListTaskCallbacks(ctx context.Context, params *types.ListTaskPushNotificationConfigParams) ([]types.TaskPushNotificationConfig, error) {
	ctx, err := t.callContext(ctx, types.MethodPushNotificationConfigList)
	if err != nil {
		return nil, err
	}

	resp, err := t.service.ListTaskPushNotificationConfig(ctx, &a2apb.ListTaskPushNotificationConfigRequest{
		Parent: protoconv.TaskName(params.ID),
	})
	if err != nil {
		return nil, err
	}

	configs := make([]types.TaskPushNotificationConfig, 0, len(resp.GetConfigs()))
	for _, config := range resp.GetConfigs() {
		converted, err := protoconv.TaskPushConfigFromProto(config)
		if err != nil {
			return nil, err
		}
		configs = append(configs, converted)
	}
	return configs, nil
}

// DeleteTaskCallback removes a push notification config.
func (t *GRPCTransport) DeleteTaskCallback(ctx context.Context, params *types.DeleteTaskPushNotificationConfigParams) error {
	ctx, err := t.callContext(ctx, types.MethodPushNotificationConfigDelete)
	if err != nil {
		return err
	}

	_, err = t.service.DeleteTaskPushNotificationConfig(ctx, &a2apb.DeleteTaskPushNotificationConfigRequest{
		Name: protoconv.PushConfigName(params.ID, params.PushNotificationConfigID),
	})
	return err
}

// Resubscribe reattaches to the live event stream of a task.
func (t *GRPCTransport) Resubscribe(ctx context.Context, params *types.TaskIDParams) (<-chan StreamResult, error) {
	ctx, err := t.callContext(ctx, types.MethodTasksResubscribe)
	if err != nil {
		return nil, err
	}

	stream, err := t.service.TaskSubscription(ctx, &a2apb.TaskSubscriptionRequest{Name: protoconv.TaskName(params.ID)})
	if err != nil {
		return nil, err
	}
	return t.relayStream(ctx, stream), nil
}

// GetCard returns the agent card over the service.
func (t *GRPCTransport) GetCard(ctx context.Context) (*types.AgentCard, error) {
	ctx, err := t.callContext(ctx, "card/get")
	if err != nil {
		return nil, err
	}

	card, err := t.service.GetAgentCard(ctx, &a2apb.GetAgentCardRequest{})
	if err != nil {
		return nil, err
	}
	converted := protoconv.CardFromProto(card)
	t.card = converted
	return converted, nil
}

// Close tears down the underlying connection.
func (t *GRPCTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}
