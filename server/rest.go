package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	a2apb "github.com/a2aproject/a2a-go/a2apb"
	gin "github.com/gin-gonic/gin"
	zap "go.uber.org/zap"
	protojson "google.golang.org/protobuf/encoding/protojson"
	proto "google.golang.org/protobuf/proto"

	protoconv "github.com/inference-gateway/a2a/protoconv"
	types "github.com/inference-gateway/a2a/types"
)

// RESTHandler exposes a RequestHandler on the HTTP+JSON binding: resource
// routes under /v1 with proto-JSON bodies and SSE streams of
// StreamResponse frames.
type RESTHandler struct {
	handler RequestHandler
	card    func() *types.AgentCard
	logger  *zap.Logger
}

// NewRESTHandler creates the HTTP+JSON protocol surface. card supplies
// the agent card served at /v1/card and may be nil.
func NewRESTHandler(handler RequestHandler, card func() *types.AgentCard, logger *zap.Logger) *RESTHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RESTHandler{
		handler: handler,
		card:    card,
		logger:  logger,
	}
}

// RegisterRoutes attaches the /v1 surface to the router. Custom verb
// suffixes like ":send" and ":cancel" are not expressible as gin route
// patterns, so a wildcard route dispatches on the parsed path.
func (h *RESTHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/v1/*path", h.dispatchPost)
	router.GET("/v1/*path", h.dispatchGet)
	router.DELETE("/v1/*path", h.dispatchDelete)
}

func (h *RESTHandler) dispatchPost(c *gin.Context) {
	path := strings.TrimPrefix(c.Param("path"), "/")

	switch path {
	case "message:send":
		h.handleMessageSend(c)
		return
	case "message:stream":
		h.handleMessageStream(c)
		return
	}

	if rest, ok := strings.CutPrefix(path, "tasks/"); ok {
		switch {
		case strings.HasSuffix(rest, ":cancel"):
			h.handleTaskCancel(c, strings.TrimSuffix(rest, ":cancel"))
			return
		case strings.HasSuffix(rest, ":subscribe"):
			h.handleTaskResubscribe(c, strings.TrimSuffix(rest, ":subscribe"))
			return
		case strings.HasSuffix(rest, "/pushNotificationConfigs"):
			h.handlePushConfigSet(c, strings.TrimSuffix(rest, "/pushNotificationConfigs"))
			return
		}
	}

	h.writeNotFound(c)
}

func (h *RESTHandler) dispatchGet(c *gin.Context) {
	path := strings.TrimPrefix(c.Param("path"), "/")

	if path == "card" {
		h.handleCard(c)
		return
	}

	if rest, ok := strings.CutPrefix(path, "tasks/"); ok {
		parts := strings.Split(rest, "/")
		switch {
		case len(parts) == 1:
			h.handleTaskGet(c, parts[0])
			return
		case len(parts) == 2 && parts[1] == "pushNotificationConfigs":
			h.handlePushConfigList(c, parts[0])
			return
		case len(parts) == 3 && parts[1] == "pushNotificationConfigs":
			h.handlePushConfigGet(c, parts[0], parts[2])
			return
		}
	}

	h.writeNotFound(c)
}

func (h *RESTHandler) dispatchDelete(c *gin.Context) {
	path := strings.TrimPrefix(c.Param("path"), "/")

	if rest, ok := strings.CutPrefix(path, "tasks/"); ok {
		parts := strings.Split(rest, "/")
		if len(parts) == 3 && parts[1] == "pushNotificationConfigs" {
			h.handlePushConfigDelete(c, parts[0], parts[2])
			return
		}
	}

	h.writeNotFound(c)
}

// handleMessageSend processes POST /v1/message:send.
func (h *RESTHandler) handleMessageSend(c *gin.Context) {
	var req a2apb.SendMessageRequest
	if !h.bindProto(c, &req) {
		return
	}
	params, err := protoconv.SendParamsFromProto(&req)
	if err != nil {
		h.writeError(c, types.NewInvalidParamsError(err.Error()))
		return
	}

	result, err := h.handler.OnMessageSend(c.Request.Context(), params)
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp, err := protoconv.EventToSendResponse(result)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.writeProto(c, http.StatusOK, resp)
}

// handleMessageStream processes POST /v1/message:stream.
func (h *RESTHandler) handleMessageStream(c *gin.Context) {
	var req a2apb.SendMessageRequest
	if !h.bindProto(c, &req) {
		return
	}
	params, err := protoconv.SendParamsFromProto(&req)
	if err != nil {
		h.writeError(c, types.NewInvalidParamsError(err.Error()))
		return
	}

	stream, err := h.handler.OnMessageSendStream(c.Request.Context(), params)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.relayStream(c, stream)
}

// handleTaskGet processes GET /v1/tasks/{id}.
func (h *RESTHandler) handleTaskGet(c *gin.Context, taskID string) {
	params := &types.TaskQueryParams{ID: taskID}
	if raw := c.Query("historyLength"); raw != "" {
		length, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(c, types.NewInvalidParamsError("invalid historyLength: "+raw))
			return
		}
		params.HistoryLength = &length
	}

	task, err := h.handler.OnGetTask(c.Request.Context(), params)
	if err != nil {
		h.writeError(c, err)
		return
	}
	converted, err := protoconv.TaskToProto(task)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.writeProto(c, http.StatusOK, converted)
}

// handleTaskCancel processes POST /v1/tasks/{id}:cancel.
func (h *RESTHandler) handleTaskCancel(c *gin.Context, taskID string) {
	task, err := h.handler.OnCancelTask(c.Request.Context(), &types.TaskIDParams{ID: taskID})
	if err != nil {
		h.writeError(c, err)
		return
	}
	converted, err := protoconv.TaskToProto(task)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.writeProto(c, http.StatusOK, converted)
}

// handleTaskResubscribe processes POST /v1/tasks/{id}:subscribe.
func (h *RESTHandler) handleTaskResubscribe(c *gin.Context, taskID string) {
	stream, err := h.handler.OnResubscribe(c.Request.Context(), &types.TaskIDParams{ID: taskID})
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.relayStream(c, stream)
}

// handlePushConfigSet processes POST /v1/tasks/{id}/pushNotificationConfigs.
func (h *RESTHandler) handlePushConfigSet(c *gin.Context, taskID string) {
	var req a2apb.TaskPushNotificationConfig
	if !h.bindProto(c, &req) {
		return
	}

	// The path, not the resource name, is authoritative for the task id.
	config := types.TaskPushNotificationConfig{
		TaskID:                 taskID,
		PushNotificationConfig: protoconv.PushConfigFromProto(req.GetPushNotificationConfig()),
	}

	stored, err := h.handler.OnSetTaskPushNotificationConfig(c.Request.Context(), &config)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.writeProto(c, http.StatusOK, protoconv.TaskPushConfigToProto(*stored))
}

// handlePushConfigGet processes GET /v1/tasks/{id}/pushNotificationConfigs/{configID}.
func (h *RESTHandler) handlePushConfigGet(c *gin.Context, taskID, configID string) {
	params := &types.GetTaskPushNotificationConfigParams{
		ID:                       taskID,
		PushNotificationConfigID: types.StringPtr(configID),
	}

	config, err := h.handler.OnGetTaskPushNotificationConfig(c.Request.Context(), params)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.writeProto(c, http.StatusOK, protoconv.TaskPushConfigToProto(*config))
}

// handlePushConfigList processes GET /v1/tasks/{id}/pushNotificationConfigs.
func (h *RESTHandler) handlePushConfigList(c *gin.Context, taskID string) {
	configs, err := h.handler.OnListTaskPushNotificationConfig(c.Request.Context(), &types.ListTaskPushNotificationConfigParams{ID: taskID})
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := &a2apb.ListTaskPushNotificationConfigResponse{}
	for _, config := range configs {
		resp.Configs = append(resp.Configs, protoconv.TaskPushConfigToProto(config))
	}
	h.writeProto(c, http.StatusOK, resp)
}

// handlePushConfigDelete processes DELETE /v1/tasks/{id}/pushNotificationConfigs/{configID}.
func (h *RESTHandler) handlePushConfigDelete(c *gin.Context, taskID, configID string) {
	params := &types.DeleteTaskPushNotificationConfigParams{
		ID:                       taskID,
		PushNotificationConfigID: configID,
	}
	if err := h.handler.OnDeleteTaskPushNotificationConfig(c.Request.Context(), params); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleCard processes GET /v1/card.
func (h *RESTHandler) handleCard(c *gin.Context) {
	var card *types.AgentCard
	if h.card != nil {
		card = h.card()
	}
	if card == nil {
		h.logger.Error("no agent card configured")
		h.writeNotFound(c)
		return
	}
	h.writeProto(c, http.StatusOK, protoconv.CardToProto(card))
}

// bindProto decodes a proto-JSON request body.
func (h *RESTHandler) bindProto(c *gin.Context, out proto.Message) bool {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.writeError(c, types.NewInvalidRequestError("failed to read request body"))
		return false
	}
	if err := protojson.Unmarshal(raw, out); err != nil {
		h.logger.Warn("failed to parse request body", zap.Error(err))
		h.writeError(c, types.NewJSONParseError(err))
		return false
	}
	return true
}

// writeProto sends a proto-JSON response body.
func (h *RESTHandler) writeProto(c *gin.Context, status int, payload proto.Message) {
	raw, err := protojson.Marshal(payload)
	if err != nil {
		h.writeError(c, fmt.Errorf("failed to marshal response: %w", err))
		return
	}
	c.Data(status, "application/json", raw)
}

// writeError maps an error onto an HTTP status with the protocol error as
// the body.
func (h *RESTHandler) writeError(c *gin.Context, err error) {
	rpcErr := toJSONRPCError(err)
	if rpcErr.Code == types.ErrorCodeInternalError {
		h.logger.Error("request failed", zap.Error(err))
	} else {
		h.logger.Warn("request rejected",
			zap.Int("code", rpcErr.Code),
			zap.String("message", rpcErr.Message))
	}
	c.JSON(restStatus(rpcErr.Code), rpcErr)
}

func (h *RESTHandler) writeNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

// restStatus maps protocol error codes onto HTTP statuses.
func restStatus(code int) int {
	switch code {
	case types.ErrorCodeJSONParse, types.ErrorCodeInvalidRequest, types.ErrorCodeInvalidParams, types.ErrorCodeContentTypeNotSupported:
		return http.StatusBadRequest
	case types.ErrorCodeTaskNotFound, types.ErrorCodeMethodNotFound:
		return http.StatusNotFound
	case types.ErrorCodeTaskNotCancelable:
		return http.StatusConflict
	case types.ErrorCodePushNotificationNotSupported, types.ErrorCodeUnsupportedOperation:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// relayStream forwards handler events as SSE frames of proto-JSON
// StreamResponse payloads. The HTTP+JSON stream format has no error
// frame, a failure closes the connection.
func (h *RESTHandler) relayStream(c *gin.Context, stream <-chan StreamEvent) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
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
				h.logger.Warn("stream ended with error", zap.Error(frame.Err))
				return
			}

			resp, err := protoconv.EventToStreamResponse(frame.Event)
			if err != nil {
				h.logger.Error("failed to convert stream event", zap.Error(err))
				return
			}
			raw, err := protojson.Marshal(resp)
			if err != nil {
				h.logger.Error("failed to marshal stream event", zap.Error(err))
				return
			}
			if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", raw); err != nil {
				h.logger.Error("failed to write streaming response", zap.Error(err))
				return
			}
			c.Writer.Flush()
		}
	}
}
