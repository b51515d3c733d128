package client_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	a2apb "github.com/a2aproject/a2a-go/a2apb"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
	protojson "google.golang.org/protobuf/encoding/protojson"
	proto "google.golang.org/protobuf/proto"

	client "github.com/inference-gateway/a2a/client"
	types "github.com/inference-gateway/a2a/types"
)

func writeProtoJSON(t *testing.T, w http.ResponseWriter, msg proto.Message) {
	t.Helper()
	raw, err := protojson.Marshal(msg)
	require.NoError(t, err)
	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(raw)
	require.NoError(t, err)
}

func TestRESTTransportSendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/message:send", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req a2apb.SendMessageRequest
		require.NoError(t, protojson.Unmarshal(body, &req))
		require.Equal(t, "msg-1", req.GetRequest().GetMessageId())

		writeProtoJSON(t, w, &a2apb.SendMessageResponse{
			Payload: &a2apb.SendMessageResponse_Task{
				Task: &a2apb.Task{
					Id:        "task-1",
					ContextId: "ctx-1",
					Status:    &a2apb.TaskStatus{State: a2apb.TaskState_TASK_STATE_SUBMITTED},
				},
			},
		})
	}))
	defer server.Close()

	transport := client.NewRESTTransport(server.Client(), nil, server.URL, nil, nil)
	event, err := transport.SendMessage(context.Background(), &types.MessageSendParams{
		Message: types.Message{Kind: types.KindMessage, MessageID: "msg-1", Role: types.RoleUser, Parts: []types.Part{types.NewTextPart("hello")}},
	})
	require.NoError(t, err)

	task, ok := event.(*types.Task)
	require.True(t, ok, "expected a task event, got %T", event)
	assert.Equal(t, "task-1", task.ID)
	assert.Equal(t, types.TaskStateSubmitted, task.Status.State)
}

func TestRESTTransportGetTaskWithHistoryLength(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/tasks/task-1", r.URL.Path)
		require.Equal(t, "3", r.URL.Query().Get("historyLength"))

		writeProtoJSON(t, w, &a2apb.Task{
			Id:        "task-1",
			ContextId: "ctx-1",
			Status:    &a2apb.TaskStatus{State: a2apb.TaskState_TASK_STATE_WORKING},
		})
	}))
	defer server.Close()

	transport := client.NewRESTTransport(server.Client(), nil, server.URL, nil, nil)
	historyLength := 3
	task, err := transport.GetTask(context.Background(), &types.TaskQueryParams{ID: "task-1", HistoryLength: &historyLength})
	require.NoError(t, err)
	assert.Equal(t, types.TaskStateWorking, task.Status.State)
}

func TestRESTTransportCancelTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/tasks/task-1:cancel", r.URL.Path)

		writeProtoJSON(t, w, &a2apb.Task{
			Id:        "task-1",
			ContextId: "ctx-1",
			Status:    &a2apb.TaskStatus{State: a2apb.TaskState_TASK_STATE_CANCELLED},
		})
	}))
	defer server.Close()

	transport := client.NewRESTTransport(server.Client(), nil, server.URL, nil, nil)
	task, err := transport.CancelTask(context.Background(), &types.TaskIDParams{ID: "task-1"})
	require.NoError(t, err)
	assert.Equal(t, types.TaskStateCanceled, task.Status.State)
}

func TestRESTTransportStreamDeliversEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/message:stream", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)

		frames := []*a2apb.StreamResponse{
			{Payload: &a2apb.StreamResponse_StatusUpdate{StatusUpdate: &a2apb.TaskStatusUpdateEvent{
				TaskId:    "task-1",
				ContextId: "ctx-1",
				Status:    &a2apb.TaskStatus{State: a2apb.TaskState_TASK_STATE_WORKING},
			}}},
			{Payload: &a2apb.StreamResponse_StatusUpdate{StatusUpdate: &a2apb.TaskStatusUpdateEvent{
				TaskId:    "task-1",
				ContextId: "ctx-1",
				Status:    &a2apb.TaskStatus{State: a2apb.TaskState_TASK_STATE_COMPLETED},
				Final:     true,
			}}},
		}
		for _, frame := range frames {
			raw, err := protojson.Marshal(frame)
			require.NoError(t, err)
			fmt.Fprintf(w, "data: %s\n\n", raw)
			flusher.Flush()
		}
	}))
	defer server.Close()

	transport := client.NewRESTTransport(server.Client(), nil, server.URL, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := transport.SendMessageStream(ctx, &types.MessageSendParams{
		Message: *types.NewUserTextMessage("stream it"),
	})
	require.NoError(t, err)

	var states []types.TaskState
	for result := range stream {
		require.NoError(t, result.Err)
		update, ok := result.Event.(*types.TaskStatusUpdateEvent)
		require.True(t, ok, "expected status update, got %T", result.Event)
		states = append(states, update.Status.State)
	}
	assert.Equal(t, []types.TaskState{types.TaskStateWorking, types.TaskStateCompleted}, states)
}

func TestRESTTransportPushNotificationConfigs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/tasks/task-1/pushNotificationConfigs":
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			var config a2apb.TaskPushNotificationConfig
			require.NoError(t, protojson.Unmarshal(body, &config))
			writeProtoJSON(t, w, &config)
		case r.Method == http.MethodGet && r.URL.Path == "/v1/tasks/task-1/pushNotificationConfigs":
			writeProtoJSON(t, w, &a2apb.ListTaskPushNotificationConfigResponse{
				Configs: []*a2apb.TaskPushNotificationConfig{{
					Name:                   "tasks/task-1/pushNotificationConfigs/task-1",
					PushNotificationConfig: &a2apb.PushNotificationConfig{Url: "https://hooks.example.com/task-1"},
				}},
			})
		case r.Method == http.MethodDelete && r.URL.Path == "/v1/tasks/task-1/pushNotificationConfigs/task-1":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	transport := client.NewRESTTransport(server.Client(), nil, server.URL, nil, nil)
	ctx := context.Background()

	created, err := transport.SetTaskCallback(ctx, &types.TaskPushNotificationConfig{
		TaskID:                 "task-1",
		PushNotificationConfig: types.PushNotificationConfig{URL: "https://hooks.example.com/task-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "task-1", created.TaskID)

	configs, err := transport.ListTaskCallbacks(ctx, &types.ListTaskPushNotificationConfigParams{ID: "task-1"})
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, "https://hooks.example.com/task-1", configs[0].PushNotificationConfig.URL)

	err = transport.DeleteTaskCallback(ctx, &types.DeleteTaskPushNotificationConfigParams{
		ID:                       "task-1",
		PushNotificationConfigID: "task-1",
	})
	require.NoError(t, err)
}
