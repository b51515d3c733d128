package client

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	a2apb "github.com/a2aproject/a2a-go/a2apb"
	zap "go.uber.org/zap"
	protojson "google.golang.org/protobuf/encoding/protojson"
	proto "google.golang.org/protobuf/proto"

	protoconv "github.com/inference-gateway/a2a/protoconv"
	types "github.com/inference-gateway/a2a/types"
)

// RESTTransport implements Transport over the HTTP+JSON binding: resource
// routes under /v1 with proto-JSON bodies.
type RESTTransport struct {
	httpClient   *http.Client
	url          string
	card         *types.AgentCard
	interceptors []CallInterceptor
	logger       *zap.Logger
}

var _ Transport = (*RESTTransport)(nil)

// NewRESTTransport creates an HTTP+JSON transport for the given endpoint.
func NewRESTTransport(httpClient *http.Client, card *types.AgentCard, url string, interceptors []CallInterceptor, logger *zap.Logger) *RESTTransport {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if card != nil && url == "" {
		url = card.TransportURL(types.TransportREST)
	}
	return &RESTTransport{
		httpClient:   httpClient,
		url:          strings.TrimSuffix(url, "/"),
		card:         card,
		interceptors: interceptors,
		logger:       logger,
	}
}

func (t *RESTTransport) newRequest(ctx context.Context, method, httpMethod, path string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, httpMethod, t.url+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

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

// do performs a unary call and decodes the proto-JSON response into out.
func (t *RESTTransport) do(ctx context.Context, method, httpMethod, path string, payload, out proto.Message) error {
	var body []byte
	if payload != nil {
		encoded, err := protojson.Marshal(payload)
		if err != nil {
			return &JSONError{Message: "failed to marshal request", Cause: err}
		}
		body = encoded
	}

	req, err := t.newRequest(ctx, method, httpMethod, path, body)
	if err != nil {
		return err
	}

	t.logger.Debug("sending rest request",
		zap.String("http_method", httpMethod),
		zap.String("path", path))

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			t.logger.Warn("failed to close response body", zap.Error(closeErr))
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return NewHTTPError(resp.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return &JSONError{Message: "failed to decode response", Cause: err}
	}
	return nil
}

// doStream performs a streaming call and emits each SSE StreamResponse.
func (t *RESTTransport) doStream(ctx context.Context, method, path string, payload proto.Message) (<-chan StreamResult, error) {
	body, err := protojson.Marshal(payload)
	if err != nil {
		return nil, &JSONError{Message: "failed to marshal request", Cause: err}
	}

	req, err := t.newRequest(ctx, method, http.MethodPost, path, body)
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

			var frame a2apb.StreamResponse
			if err := protojson.Unmarshal([]byte(data), &frame); err != nil {
				results <- StreamResult{Err: &JSONError{Message: "failed to decode stream event", Cause: err}}
				return
			}
			event, err := protoconv.EventFromStreamResponse(&frame)
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
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			results <- StreamResult{Err: fmt.Errorf("stream read failed: %w", err)}
		}
	}()

	return results, nil
}

// SendMessage sends a message and returns the terminal Task or Message.
func (t *RESTTransport) SendMessage(ctx context.Context, params *types.MessageSendParams) (types.Event, error) {
	payload, err := protoconv.SendParamsToProto(params)
	if err != nil {
		return nil, err
	}

	var resp a2apb.SendMessageResponse
	if err := t.do(ctx, types.MethodMessageSend, http.MethodPost, "/v1/message:send", payload, &resp); err != nil {
		return nil, err
	}
	return protoconv.EventFromSendResponse(&resp)
}

// SendMessageStream sends a message and streams events over SSE.
func (t *RESTTransport) SendMessageStream(ctx context.Context, params *types.MessageSendParams) (<-chan StreamResult, error) {
	payload, err := protoconv.SendParamsToProto(params)
	if err != nil {
		return nil, err
	}
	return t.doStream(ctx, types.MethodMessageStream, "/v1/message:stream", payload)
}

// GetTask fetches the current snapshot of a task.
func (t *RESTTransport) GetTask(ctx context.Context, params *types.TaskQueryParams) (*types.Task, error) {
	path := "/v1/" + protoconv.TaskName(params.ID)
	if params.HistoryLength != nil {
		path += "?historyLength=" + strconv.Itoa(*params.HistoryLength)
	}

	var task a2apb.Task
	if err := t.do(ctx, types.MethodTasksGet, http.MethodGet, path, nil, &task); err != nil {
		return nil, err
	}
	return protoconv.TaskFromProto(&task)
}

// CancelTask requests task cancellation.
func (t *RESTTransport) CancelTask(ctx context.Context, params *types.TaskIDParams) (*types.Task, error) {
	path := "/v1/" + protoconv.TaskName(params.ID) + ":cancel"

	var task a2apb.Task
	if err := t.do(ctx, types.MethodTasksCancel, http.MethodPost, path, &a2apb.CancelTaskRequest{Name: protoconv.TaskName(params.ID)}, &task); err != nil {
		return nil, err
	}
	return protoconv.TaskFromProto(&task)
}

// SetTaskCallback registers a push notification config.
func (t *RESTTransport) SetTaskCallback(ctx context.Context, config *types.TaskPushNotificationConfig) (*types.TaskPushNotificationConfig, error) {
	path := "/v1/" + protoconv.TaskName(config.TaskID) + "/pushNotificationConfigs"
	payload := protoconv.TaskPushConfigToProto(*config)

	var resp a2apb.TaskPushNotificationConfig
	if err := t.do(ctx, types.MethodTasksPushNotificationConfigSet, http.MethodPost, path, payload, &resp); err != nil {
		return nil, err
	}
	out, err := protoconv.TaskPushConfigFromProto(&resp)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTaskCallback fetches a registered push notification config.
func (t *RESTTransport) GetTaskCallback(ctx context.Context, params *types.GetTaskPushNotificationConfigParams) (*types.TaskPushNotificationConfig, error) {
	configID := params.ID
	if params.PushNotificationConfigID != nil && *params.PushNotificationConfigID != "" {
		configID = *params.PushNotificationConfigID
	}
	path := "/v1/" + protoconv.PushConfigName(params.ID, configID)

	var resp a2apb.TaskPushNotificationConfig
	if err := t.do(ctx, types.MethodTasksPushNotificationConfigGet, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	out, err := protoconv.TaskPushConfigFromProto(&resp)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTaskCallbacks lists a task's push notification configs.
func (t *RESTTransport) ListTaskCallbacks(ctx context.Context, params *types.ListTaskPushNotificationConfigParams) ([]types.TaskPushNotificationConfig, error) {
	path := "/v1/" + protoconv.TaskName(params.ID) + "/pushNotificationConfigs"

	var resp a2apb.ListTaskPushNotificationConfigResponse
	if err := t.do(ctx, types.MethodPushNotificationConfigList, http.MethodGet, path, nil, &resp); err != nil {
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
func (t *RESTTransport) DeleteTaskCallback(ctx context.Context, params *types.DeleteTaskPushNotificationConfigParams) error {
	path := "/v1/" + protoconv.PushConfigName(params.ID, params.PushNotificationConfigID)
	return t.do(ctx, types.MethodPushNotificationConfigDelete, http.MethodDelete, path, nil, nil)
}

// Resubscribe reattaches to the live event stream of a task.
func (t *RESTTransport) Resubscribe(ctx context.Context, params *types.TaskIDParams) (<-chan StreamResult, error) {
	path := "/v1/" + protoconv.TaskName(params.ID) + ":subscribe"
	return t.doStream(ctx, types.MethodTasksResubscribe, path, &a2apb.TaskSubscriptionRequest{Name: protoconv.TaskName(params.ID)})
}

// GetCard returns the agent card from the /v1/card route.
func (t *RESTTransport) GetCard(ctx context.Context) (*types.AgentCard, error) {
	var card a2apb.AgentCard
	if err := t.do(ctx, "card/get", http.MethodGet, "/v1/card", nil, &card); err != nil {
		return nil, err
	}
	converted := protoconv.CardFromProto(&card)
	t.card = converted
	return converted, nil
}

// Close releases transport resources.
func (t *RESTTransport) Close() error {
	t.httpClient.CloseIdleConnections()
	return nil
}
