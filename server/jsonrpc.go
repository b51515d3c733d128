package server

import (
	"encoding/json"
	"errors"
	"fmt"

	gin "github.com/gin-gonic/gin"
	uuid "github.com/google/uuid"
	zap "go.uber.org/zap"

	types "github.com/inference-gateway/a2a/types"
)

// JSONRPCHandler exposes a RequestHandler on the JSON-RPC transport: a
// single POST endpoint dispatching on the method field, with streaming
// methods answered as server-sent events.
type JSONRPCHandler struct {
	handler RequestHandler
	logger  *zap.Logger
}

// NewJSONRPCHandler creates the JSON-RPC protocol surface.
func NewJSONRPCHandler(handler RequestHandler, logger *zap.Logger) *JSONRPCHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONRPCHandler{
		handler: handler,
		logger:  logger,
	}
}

// HandleRequest processes one A2A JSON-RPC request.
func (h *JSONRPCHandler) HandleRequest(c *gin.Context) {
	var req types.JSONRPCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("failed to parse json request", zap.Error(err))
		h.writeError(c, req.ID, types.NewJSONParseError(err))
		return
	}

	if req.JSONRPC == "" {
		req.JSONRPC = types.JSONRPCVersion
	}
	if req.ID == nil {
		req.ID = uuid.New().String()
	}

	h.logger.Info("received a2a request",
		zap.String("method", req.Method),
		zap.Any("id", req.ID))

	switch req.Method {
	case types.MethodMessageSend:
		h.handleMessageSend(c, req)
	case types.MethodMessageStream:
		h.handleMessageStream(c, req)
	case types.MethodTasksGet:
		h.handleTaskGet(c, req)
	case types.MethodTasksCancel:
		h.handleTaskCancel(c, req)
	case types.MethodTasksResubscribe:
		h.handleTaskResubscribe(c, req)
	case types.MethodTasksPushNotificationConfigSet:
		h.handlePushNotificationConfigSet(c, req)
	case types.MethodTasksPushNotificationConfigGet:
		h.handlePushNotificationConfigGet(c, req)
	case types.MethodPushNotificationConfigList:
		h.handlePushNotificationConfigList(c, req)
	case types.MethodPushNotificationConfigDelete:
		h.handlePushNotificationConfigDelete(c, req)
	default:
		h.logger.Warn("unknown method requested", zap.String("method", req.Method))
		h.writeError(c, req.ID, types.NewMethodNotFoundError(req.Method))
	}
}

// handleMessageSend processes message/send requests.
func (h *JSONRPCHandler) handleMessageSend(c *gin.Context, req types.JSONRPCRequest) {
	var params types.MessageSendParams
	if !h.bindParams(c, req, &params) {
		return
	}

	result, err := h.handler.OnMessageSend(c.Request.Context(), &params)
	if err != nil {
		h.writeError(c, req.ID, err)
		return
	}
	h.writeEventResult(c, req.ID, result)
}

// handleMessageStream processes message/stream requests over SSE.
func (h *JSONRPCHandler) handleMessageStream(c *gin.Context, req types.JSONRPCRequest) {
	var params types.MessageSendParams
	if !h.bindParams(c, req, &params) {
		return
	}

	stream, err := h.handler.OnMessageSendStream(c.Request.Context(), &params)
	if err != nil {
		h.writeError(c, req.ID, err)
		return
	}
	h.relayStream(c, req.ID, stream)
}

// handleTaskGet processes tasks/get requests.
func (h *JSONRPCHandler) handleTaskGet(c *gin.Context, req types.JSONRPCRequest) {
	var params types.TaskQueryParams
	if !h.bindParams(c, req, &params) {
		return
	}

	task, err := h.handler.OnGetTask(c.Request.Context(), &params)
	if err != nil {
		h.writeError(c, req.ID, err)
		return
	}
	h.writeEventResult(c, req.ID, task)
}

// handleTaskCancel processes tasks/cancel requests.
func (h *JSONRPCHandler) handleTaskCancel(c *gin.Context, req types.JSONRPCRequest) {
	var params types.TaskIDParams
	if !h.bindParams(c, req, &params) {
		return
	}

	task, err := h.handler.OnCancelTask(c.Request.Context(), &params)
	if err != nil {
		h.writeError(c, req.ID, err)
		return
	}
	h.writeEventResult(c, req.ID, task)
}

// handleTaskResubscribe processes tasks/resubscribe requests over SSE.
func (h *JSONRPCHandler) handleTaskResubscribe(c *gin.Context, req types.JSONRPCRequest) {
	var params types.TaskIDParams
	if !h.bindParams(c, req, &params) {
		return
	}

	stream, err := h.handler.OnResubscribe(c.Request.Context(), &params)
	if err != nil {
		h.writeError(c, req.ID, err)
		return
	}
	h.relayStream(c, req.ID, stream)
}

// handlePushNotificationConfigSet processes tasks/pushNotificationConfig/set.
func (h *JSONRPCHandler) handlePushNotificationConfigSet(c *gin.Context, req types.JSONRPCRequest) {
	var params types.TaskPushNotificationConfig
	if !h.bindParams(c, req, &params) {
		return
	}

	config, err := h.handler.OnSetTaskPushNotificationConfig(c.Request.Context(), &params)
	if err != nil {
		h.writeError(c, req.ID, err)
		return
	}
	h.writeResult(c, req.ID, config)
}

// handlePushNotificationConfigGet processes tasks/pushNotificationConfig/get.
func (h *JSONRPCHandler) handlePushNotificationConfigGet(c *gin.Context, req types.JSONRPCRequest) {
	var params types.GetTaskPushNotificationConfigParams
	if !h.bindParams(c, req, &params) {
		return
	}

	config, err := h.handler.OnGetTaskPushNotificationConfig(c.Request.Context(), &params)
	if err != nil {
		h.writeError(c, req.ID, err)
		return
	}
	h.writeResult(c, req.ID, config)
}

// handlePushNotificationConfigList processes tasks/pushNotificationConfig/list.
func (h *JSONRPCHandler) handlePushNotificationConfigList(c *gin.Context, req types.JSONRPCRequest) {
	var params types.ListTaskPushNotificationConfigParams
	if !h.bindParams(c, req, &params) {
		return
	}

	configs, err := h.handler.OnListTaskPushNotificationConfig(c.Request.Context(), &params)
	if err != nil {
		h.writeError(c, req.ID, err)
		return
	}
	h.writeResult(c, req.ID, configs)
}

// handlePushNotificationConfigDelete processes tasks/pushNotificationConfig/delete.
func (h *JSONRPCHandler) handlePushNotificationConfigDelete(c *gin.Context, req types.JSONRPCRequest) {
	var params types.DeleteTaskPushNotificationConfigParams
	if !h.bindParams(c, req, &params) {
		return
	}

	if err := h.handler.OnDeleteTaskPushNotificationConfig(c.Request.Context(), &params); err != nil {
		h.writeError(c, req.ID, err)
		return
	}
	h.writeResult(c, req.ID, nil)
}

// bindParams unmarshals request params, answering an invalid params error
// on failure.
func (h *JSONRPCHandler) bindParams(c *gin.Context, req types.JSONRPCRequest, out any) bool {
	if len(req.Params) == 0 {
		h.logger.Warn("missing params", zap.String("method", req.Method))
		h.writeError(c, req.ID, types.NewInvalidParamsError("missing params"))
		return false
	}
	if err := json.Unmarshal(req.Params, out); err != nil {
		h.logger.Warn("failed to parse params",
			zap.String("method", req.Method),
			zap.Error(err))
		h.writeError(c, req.ID, types.NewInvalidParamsError(err.Error()))
		return false
	}
	return true
}

// writeResult sends a JSON-RPC success envelope.
func (h *JSONRPCHandler) writeResult(c *gin.Context, id any, result any) {
	raw, err := json.Marshal(result)
	if err != nil {
		h.writeError(c, id, fmt.Errorf("failed to marshal result: %w", err))
		return
	}
	c.JSON(200, types.JSONRPCResponse{
		JSONRPC: types.JSONRPCVersion,
		ID:      id,
		Result:  raw,
	})
}

// writeEventResult sends a success envelope whose result is a Task or
// Message, stamped with its kind discriminator.
func (h *JSONRPCHandler) writeEventResult(c *gin.Context, id any, event types.Event) {
	raw, err := types.MarshalEvent(event)
	if err != nil {
		h.writeError(c, id, fmt.Errorf("failed to marshal result: %w", err))
		return
	}
	c.JSON(200, types.JSONRPCResponse{
		JSONRPC: types.JSONRPCVersion,
		ID:      id,
		Result:  raw,
	})
}

// writeError sends a JSON-RPC error envelope. Protocol errors pass
// through unchanged; anything else becomes an internal error.
// JSON-RPC always answers 200, errors live in the response body.
func (h *JSONRPCHandler) writeError(c *gin.Context, id any, err error) {
	rpcErr := toJSONRPCError(err)
	if rpcErr.Code == types.ErrorCodeInternalError {
		h.logger.Error("request failed", zap.Error(err))
	} else {
		h.logger.Warn("request rejected",
			zap.Int("code", rpcErr.Code),
			zap.String("message", rpcErr.Message))
	}
	c.JSON(200, types.JSONRPCResponse{
		JSONRPC: types.JSONRPCVersion,
		ID:      id,
		Error:   rpcErr,
	})
}

// relayStream forwards handler events to the client as SSE frames, each
// one a complete JSON-RPC envelope. The connection closes when the
// stream ends; a stream failure is delivered as a final error frame.
func (h *JSONRPCHandler) relayStream(c *gin.Context, id any, stream <-chan StreamEvent) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(200)
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-stream:
			if !ok {
				return
			}
			if frame.Err != nil {
				envelope := types.JSONRPCResponse{
					JSONRPC: types.JSONRPCVersion,
					ID:      id,
					Error:   toJSONRPCError(frame.Err),
				}
				if err := h.writeSSEFrame(c, &envelope); err != nil {
					h.logger.Error("failed to write streaming error response", zap.Error(err))
				}
				return
			}

			raw, err := types.MarshalEvent(frame.Event)
			if err != nil {
				h.logger.Error("failed to marshal stream event", zap.Error(err))
				return
			}
			envelope := types.JSONRPCResponse{
				JSONRPC: types.JSONRPCVersion,
				ID:      id,
				Result:  raw,
			}
			if err := h.writeSSEFrame(c, &envelope); err != nil {
				h.logger.Error("failed to write streaming response", zap.Error(err))
				return
			}
		}
	}
}

// writeSSEFrame writes one "data: <json>\n\n" frame and flushes it.
func (h *JSONRPCHandler) writeSSEFrame(c *gin.Context, envelope *types.JSONRPCResponse) error {
	raw, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", raw); err != nil {
		return fmt.Errorf("failed to write SSE frame: %w", err)
	}
	c.Writer.Flush()
	return nil
}

// toJSONRPCError maps any error onto the protocol error taxonomy.
func toJSONRPCError(err error) *types.JSONRPCError {
	var rpcErr *types.JSONRPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return types.NewInternalError(err)
}
