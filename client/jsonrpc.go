package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	uuid "github.com/google/uuid"
	zap "go.uber.org/zap"

	types "github.com/inference-gateway/a2a/types"
)

// JSONRPCTransport implements Transport over JSON-RPC 2.0 with SSE
// streaming responses.
type JSONRPCTransport struct {
	httpClient   *http.Client
	url          string
	card         *types.AgentCard
	interceptors []CallInterceptor
	logger       *zap.Logger

	needsExtendedCard bool
}

var _ Transport = (*JSONRPCTransport)(nil)

// NewJSONRPCTransport creates a JSON-RPC transport for the given endpoint.
// The card may be nil when only the URL is known.
func NewJSONRPCTransport(httpClient *http.Client, card *types.AgentCard, url string, interceptors []CallInterceptor, logger *zap.Logger) *JSONRPCTransport {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if card != nil && url == "" {
		url = card.TransportURL(types.TransportJSONRPC)
	}
	return &JSONRPCTransport{
		httpClient:        httpClient,
		url:               strings.TrimSuffix(url, "/"),
		card:              card,
		interceptors:      interceptors,
		logger:            logger,
		needsExtendedCard: card == nil || (card.SupportsAuthenticatedExtendedCard != nil && *card.SupportsAuthenticatedExtendedCard),
	}
}

func (t *JSONRPCTransport) newHTTPRequest(ctx context.Context, method string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	headers, err := applyInterceptors(ctx, t.interceptors, method, t.card)
	if err != nil {
		return nil, err
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Set(key, value)
		}
	}
	return req, nil
}

// doCall performs a unary JSON-RPC call and decodes the result into out.
func (t *JSONRPCTransport) doCall(ctx context.Context, method string, params any, out any) error {
	rpcReq, err := types.NewJSONRPCRequest(uuid.New().String(), method, params)
	if err != nil {
		return err
	}
	body, err := json.Marshal(rpcReq)
	if err != nil {
		return &JSONError{Message: "failed to marshal request", Cause: err}
	}

	req, err := t.newHTTPRequest(ctx, method, body)
	if err != nil {
		return err
	}

	t.logger.Debug("sending jsonrpc request",
		zap.String("method", method),
		zap.String("url", t.url))

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			t.logger.Warn("failed to close response body", zap.Error(closeErr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return NewHTTPError(resp.StatusCode, string(raw))
	}

	var envelope types.JSONRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return &JSONError{Message: "failed to decode response", Cause: err}
	}
	if envelope.Error != nil {
		return &ServerError{Err: envelope.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return &JSONError{Message: "failed to decode result", Cause: err}
	}
	return nil
}

// doStream performs a streaming JSON-RPC call and emits each SSE event.
func (t *JSONRPCTransport) doStream(ctx context.Context, method string, params any) (<-chan StreamResult, error) {
	rpcReq, err := types.NewJSONRPCRequest(uuid.New().String(), method, params)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(rpcReq)
	if err != nil {
		return nil, &JSONError{Message: "failed to marshal request", Cause: err}
	}

	req, err := t.newHTTPRequest(ctx, method, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, NewHTTPError(resp.StatusCode, string(raw))
	}

	results := make(chan StreamResult, 16)
	go func() {
		defer close(results)
		defer func() {
			if closeErr := resp.Body.Close(); closeErr != nil {
				t.logger.Warn("failed to close stream body", zap.Error(closeErr))
			}
		}()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := strings.TrimPrefix(line, "data: ")

			var envelope types.JSONRPCResponse
			if err := json.Unmarshal([]byte(data), &envelope); err != nil {
				results <- StreamResult{Err: &JSONError{Message: "failed to decode stream event", Cause: err}}
				return
			}
			if envelope.Error != nil {
				results <- StreamResult{Err: &ServerError{Err: envelope.Error}}
				return
			}

			event, err := types.UnmarshalEvent(envelope.Result)
			if err != nil {
				results <- StreamResult{Err: &JSONError{Message: "failed to decode stream event", Cause: err}}
				return
			}

			select {
			case results <- StreamResult{Event: event}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			results <- StreamResult{Err: fmt.Errorf("stream read failed: %w", err)}
		}
	}()

	return results, nil
}

// SendMessage sends a message and returns the terminal Task or Message.
func (t *JSONRPCTransport) SendMessage(ctx context.Context, params *types.MessageSendParams) (types.Event, error) {
	var result json.RawMessage
	if err := t.doCall(ctx, types.MethodMessageSend, params, &result); err != nil {
		return nil, err
	}
	return types.UnmarshalEvent(result)
}

// SendMessageStream sends a message and streams events over SSE.
func (t *JSONRPCTransport) SendMessageStream(ctx context.Context, params *types.MessageSendParams) (<-chan StreamResult, error) {
	return t.doStream(ctx, types.MethodMessageStream, params)
}

// GetTask fetches the current snapshot of a task.
func (t *JSONRPCTransport) GetTask(ctx context.Context, params *types.TaskQueryParams) (*types.Task, error) {
	var task types.Task
	if err := t.doCall(ctx, types.MethodTasksGet, params, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CancelTask requests task cancellation.
func (t *JSONRPCTransport) CancelTask(ctx context.Context, params *types.TaskIDParams) (*types.Task, error) {
	var task types.Task
	if err := t.doCall(ctx, types.MethodTasksCancel, params, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// SetTaskCallback registers a push notification config.
func (t *JSONRPCTransport) SetTaskCallback(ctx context.Context, config *types.TaskPushNotificationConfig) (*types.TaskPushNotificationConfig, error) {
	var out types.TaskPushNotificationConfig
	if err := t.doCall(ctx, types.MethodTasksPushNotificationConfigSet, config, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTaskCallback fetches a registered push notification config.
func (t *JSONRPCTransport) GetTaskCallback(ctx context.Context, params *types.GetTaskPushNotificationConfigParams) (*types.TaskPushNotificationConfig, error) {
	var out types.TaskPushNotificationConfig
	if err := t.doCall(ctx, types.MethodTasksPushNotificationConfigGet, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTaskCallbacks lists a task's push notification configs.
func (t *JSONRPCTransport) ListTaskCallbacks(ctx context.Context, params *types.ListTaskPushNotificationConfigParams) ([]types.TaskPushNotificationConfig, error) {
	var out []types.TaskPushNotificationConfig
	if err := t.doCall(ctx, types.MethodPushNotificationConfigList, params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteTaskCallback removes a push notification config.
func (t *JSONRPCTransport) DeleteTaskCallback(ctx context.Context, params *types.DeleteTaskPushNotificationConfigParams) error {
	return t.doCall(ctx, types.MethodPushNotificationConfigDelete, params, nil)
}

// Resubscribe reattaches to the live event stream of a task.
func (t *JSONRPCTransport) Resubscribe(ctx context.Context, params *types.TaskIDParams) (<-chan StreamResult, error) {
	return t.doStream(ctx, types.MethodTasksResubscribe, params)
}

// GetCard returns the agent card, upgrading to the authenticated extended
// card when the agent advertises one.
func (t *JSONRPCTransport) GetCard(ctx context.Context) (*types.AgentCard, error) {
	if t.card != nil && !t.needsExtendedCard {
		return t.card, nil
	}

	resolver := NewCardResolver(t.httpClient, t.url, t.logger)
	card := t.card
	if card == nil {
		resolved, err := resolver.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		card = resolved
		t.card = card
		t.needsExtendedCard = card.SupportsAuthenticatedExtendedCard != nil && *card.SupportsAuthenticatedExtendedCard
	}

	if !t.needsExtendedCard {
		return card, nil
	}

	headers, err := applyInterceptors(ctx, t.interceptors, "card/get", card)
	if err != nil {
		return nil, err
	}
	extended, err := resolver.ResolvePath(ctx, types.ExtendedAgentCardPath, headers)
	if err != nil {
		return nil, err
	}
	t.card = extended
	t.needsExtendedCard = false
	return extended, nil
}

// Close releases transport resources.
func (t *JSONRPCTransport) Close() error {
	t.httpClient.CloseIdleConnections()
	return nil
}
