package server

import (
	"context"

	a2apb "github.com/a2aproject/a2a-go/a2apb"
	zap "go.uber.org/zap"
	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"
	emptypb "google.golang.org/protobuf/types/known/emptypb"

	protoconv "github.com/inference-gateway/a2a/protoconv"
	types "github.com/inference-gateway/a2a/types"
)

// GRPCHandler exposes a RequestHandler as the a2a.v1.A2AService gRPC
// service.
type GRPCHandler struct {
	a2apb.UnimplementedA2AServiceServer

	handler RequestHandler
	card    func() *types.AgentCard
	logger  *zap.Logger
}

// NewGRPCHandler creates the gRPC protocol surface. card supplies the
// agent card served by GetAgentCard and may be nil.
func NewGRPCHandler(handler RequestHandler, card func() *types.AgentCard, logger *zap.Logger) *GRPCHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCHandler{
		handler: handler,
		card:    card,
		logger:  logger,
	}
}

// SendMessage handles the unary message send RPC.
func (h *GRPCHandler) SendMessage(ctx context.Context, req *a2apb.SendMessageRequest) (*a2apb.SendMessageResponse, error) {
	params, err := protoconv.SendParamsFromProto(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := h.handler.OnMessageSend(ctx, params)
	if err != nil {
		return nil, h.grpcError(err)
	}
	resp, err := protoconv.EventToSendResponse(result)
	if err != nil {
		return nil, h.grpcError(err)
	}
	return resp, nil
}

// SendStreamingMessage handles the server-streaming message send RPC.
func (h *GRPCHandler) SendStreamingMessage(req *a2apb.SendMessageRequest, stream grpc.ServerStreamingServer[a2apb.StreamResponse]) error {
	params, err := protoconv.SendParamsFromProto(req)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	events, err := h.handler.OnMessageSendStream(stream.Context(), params)
	if err != nil {
		return h.grpcError(err)
	}
	return h.relayStream(events, stream)
}

// GetTask handles the task snapshot RPC.
func (h *GRPCHandler) GetTask(ctx context.Context, req *a2apb.GetTaskRequest) (*a2apb.Task, error) {
	taskID, err := protoconv.ParseTaskName(req.GetName())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	params := &types.TaskQueryParams{ID: taskID}
	if length := req.GetHistoryLength(); length > 0 {
		params.HistoryLength = types.IntPtr(int(length))
	}

	task, err := h.handler.OnGetTask(ctx, params)
	if err != nil {
		return nil, h.grpcError(err)
	}
	return protoconv.TaskToProto(task)
}

// CancelTask handles the task cancellation RPC.
func (h *GRPCHandler) CancelTask(ctx context.Context, req *a2apb.CancelTaskRequest) (*a2apb.Task, error) {
	taskID, err := protoconv.ParseTaskName(req.GetName())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	task, err := h.handler.OnCancelTask(ctx, &types.TaskIDParams{ID: taskID})
	if err != nil {
		return nil, h.grpcError(err)
	}
	return protoconv.TaskToProto(task)
}

// TaskSubscription handles the resubscribe RPC.
func (h *GRPCHandler) TaskSubscription(req *a2apb.TaskSubscriptionRequest, stream grpc.ServerStreamingServer[a2apb.StreamResponse]) error {
	taskID, err := protoconv.ParseTaskName(req.GetName())
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	events, err := h.handler.OnResubscribe(stream.Context(), &types.TaskIDParams{ID: taskID})
	if err != nil {
		return h.grpcError(err)
	}
	return h.relayStream(events, stream)
}

// CreateTaskPushNotificationConfig handles push config registration.
func (h *GRPCHandler) CreateTaskPushNotificationConfig(ctx context.Context, req *a2apb.CreateTaskPushNotificationConfigRequest) (*a2apb.TaskPushNotificationConfig, error) {
	taskID, err := protoconv.ParseTaskName(req.GetParent())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	config := types.TaskPushNotificationConfig{
		TaskID:                 taskID,
		PushNotificationConfig: protoconv.PushConfigFromProto(req.GetConfig().GetPushNotificationConfig()),
	}
	if configID := req.GetConfigId(); configID != "" && config.PushNotificationConfig.ID == nil {
		config.PushNotificationConfig.ID = types.StringPtr(configID)
	}

	stored, err := h.handler.OnSetTaskPushNotificationConfig(ctx, &config)
	if err != nil {
		return nil, h.grpcError(err)
	}
	return protoconv.TaskPushConfigToProto(*stored), nil
}

// GetTaskPushNotificationConfig handles push config retrieval.
func (h *GRPCHandler) GetTaskPushNotificationConfig(ctx context.Context, req *a2apb.GetTaskPushNotificationConfigRequest) (*a2apb.TaskPushNotificationConfig, error) {
	taskID, configID, err := protoconv.ParsePushConfigName(req.GetName())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	config, err := h.handler.OnGetTaskPushNotificationConfig(ctx, &types.GetTaskPushNotificationConfigParams{
		ID:                       taskID,
		PushNotificationConfigID: types.StringPtr(configID),
	})
	if err != nil {
		return nil, h.grpcError(err)
	}
	return protoconv.TaskPushConfigToProto(*config), nil
}

// ListTaskPushNotificationConfig handles push config listing.
func (h *GRPCHandler) ListTaskPushNotificationConfig(ctx context.Context, req *a2apb.ListTaskPushNotificationConfigRequest) (*a2apb.ListTaskPushNotificationConfigResponse, error) {
	taskID, err := protoconv.ParseTaskName(req.GetParent())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	configs, err := h.handler.OnListTaskPushNotificationConfig(ctx, &types.ListTaskPushNotificationConfigParams{ID: taskID})
	if err != nil {
		return nil, h.grpcError(err)
	}

	resp := &a2apb.ListTaskPushNotificationConfigResponse{}
	for _, config := range configs {
		resp.Configs = append(resp.Configs, protoconv.TaskPushConfigToProto(config))
	}
	return resp, nil
}

// DeleteTaskPushNotificationConfig handles push config removal.
func (h *GRPCHandler) DeleteTaskPushNotificationConfig(ctx context.Context, req *a2apb.DeleteTaskPushNotificationConfigRequest) (*emptypb.Empty, error) {
	taskID, configID, err := protoconv.ParsePushConfigName(req.GetName())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := h.handler.OnDeleteTaskPushNotificationConfig(ctx, &types.DeleteTaskPushNotificationConfigParams{
		ID:                       taskID,
		PushNotificationConfigID: configID,
	}); err != nil {
		return nil, h.grpcError(err)
	}
	return &emptypb.Empty{}, nil
}

// GetAgentCard serves the agent card over the service.
func (h *GRPCHandler) GetAgentCard(ctx context.Context, req *a2apb.GetAgentCardRequest) (*a2apb.AgentCard, error) {
	var card *types.AgentCard
	if h.card != nil {
		card = h.card()
	}
	if card == nil {
		return nil, status.Error(codes.NotFound, "no agent card configured")
	}
	return protoconv.CardToProto(card), nil
}

// relayStream forwards handler events onto a gRPC server stream.
func (h *GRPCHandler) relayStream(events <-chan StreamEvent, stream grpc.ServerStreamingServer[a2apb.StreamResponse]) error {
	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-events:
			if !ok {
				return nil
			}
			if frame.Err != nil {
				return h.grpcError(frame.Err)
			}

			resp, err := protoconv.EventToStreamResponse(frame.Event)
			if err != nil {
				return h.grpcError(err)
			}
			if err := stream.Send(resp); err != nil {
				return err
			}
		}
	}
}

// grpcError maps protocol errors to gRPC status codes.
func (h *GRPCHandler) grpcError(err error) error {
	rpcErr := toJSONRPCError(err)
	if rpcErr.Code == types.ErrorCodeInternalError {
		h.logger.Error("request failed", zap.Error(err))
	} else {
		h.logger.Warn("request rejected",
			zap.Int("code", rpcErr.Code),
			zap.String("message", rpcErr.Message))
	}

	switch rpcErr.Code {
	case types.ErrorCodeTaskNotFound:
		return status.Error(codes.NotFound, rpcErr.Message)
	case types.ErrorCodeTaskNotCancelable:
		return status.Error(codes.FailedPrecondition, rpcErr.Message)
	case types.ErrorCodeJSONParse, types.ErrorCodeInvalidRequest, types.ErrorCodeInvalidParams, types.ErrorCodeContentTypeNotSupported:
		return status.Error(codes.InvalidArgument, rpcErr.Message)
	case types.ErrorCodePushNotificationNotSupported, types.ErrorCodeUnsupportedOperation, types.ErrorCodeMethodNotFound:
		return status.Error(codes.Unimplemented, rpcErr.Message)
	default:
		return status.Error(codes.Internal, rpcErr.Message)
	}
}
