package client_test

import (
	"context"
	"testing"
	"time"

	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"

	client "github.com/inference-gateway/a2a/client"
	types "github.com/inference-gateway/a2a/types"
)

// fakeTransport scripts transport responses for client tests.
type fakeTransport struct {
	sendResult    types.Event
	streamEvents  []types.Event
	sendCalls     int
	streamCalls   int
	lastSendParam *types.MessageSendParams
}

var _ client.Transport = (*fakeTransport)(nil)

func (f *fakeTransport) SendMessage(_ context.Context, params *types.MessageSendParams) (types.Event, error) {
	f.sendCalls++
	f.lastSendParam = params
	return f.sendResult, nil
}

func (f *fakeTransport) SendMessageStream(_ context.Context, params *types.MessageSendParams) (<-chan client.StreamResult, error) {
	f.streamCalls++
	f.lastSendParam = params
	out := make(chan client.StreamResult, len(f.streamEvents))
	for _, event := range f.streamEvents {
		out <- client.StreamResult{Event: event}
	}
	close(out)
	return out, nil
}

func (f *fakeTransport) GetTask(context.Context, *types.TaskQueryParams) (*types.Task, error) {
	return nil, nil
}

func (f *fakeTransport) CancelTask(context.Context, *types.TaskIDParams) (*types.Task, error) {
	return nil, nil
}

func (f *fakeTransport) SetTaskCallback(context.Context, *types.TaskPushNotificationConfig) (*types.TaskPushNotificationConfig, error) {
	return nil, nil
}

func (f *fakeTransport) GetTaskCallback(context.Context, *types.GetTaskPushNotificationConfigParams) (*types.TaskPushNotificationConfig, error) {
	return nil, nil
}

func (f *fakeTransport) ListTaskCallbacks(context.Context, *types.ListTaskPushNotificationConfigParams) ([]types.TaskPushNotificationConfig, error) {
	return nil, nil
}

func (f *fakeTransport) DeleteTaskCallback(context.Context, *types.DeleteTaskPushNotificationConfigParams) error {
	return nil
}

func (f *fakeTransport) Resubscribe(_ context.Context, _ *types.TaskIDParams) (<-chan client.StreamResult, error) {
	return f.SendMessageStream(context.Background(), nil)
}

func (f *fakeTransport) GetCard(context.Context) (*types.AgentCard, error) { return nil, nil }

func (f *fakeTransport) Close() error { return nil }

func streamingCard() *types.AgentCard {
	streaming := true
	return &types.AgentCard{
		Name:         "agent",
		URL:          "https://agent.example.com",
		Capabilities: types.AgentCapabilities{Streaming: &streaming},
	}
}

func collect(t *testing.T, events <-chan client.ClientEvent) []client.ClientEvent {
	t.Helper()
	var out []client.ClientEvent
	deadline := time.After(5 * time.Second)
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, event)
		case <-deadline:
			t.Fatal("timed out collecting client events")
		}
	}
}

func TestClientSendMessageStreamsSnapshots(t *testing.T) {
	transport := &fakeTransport{
		streamEvents: []types.Event{
			&types.Task{Kind: types.KindTask, ID: "task-1", ContextID: "ctx-1", Status: types.TaskStatus{State: types.TaskStateSubmitted}},
			types.NewStatusUpdateEvent("task-1", "ctx-1", types.TaskStatus{State: types.TaskStateWorking}, false),
			types.NewStatusUpdateEvent("task-1", "ctx-1", types.TaskStatus{State: types.TaskStateCompleted}, true),
		},
	}
	c := client.NewClient(transport, streamingCard(), nil, nil)

	events, err := c.SendMessage(context.Background(), &types.MessageSendParams{
		Message: *types.NewUserTextMessage("do the thing"),
	})
	require.NoError(t, err)

	items := collect(t, events)
	require.Len(t, items, 3)
	assert.Equal(t, 1, transport.streamCalls)

	assert.Nil(t, items[0].Update, "full task snapshots carry no update event")
	require.NotNil(t, items[1].Update)
	assert.Equal(t, types.TaskStateWorking, items[1].Task.Status.State)
	assert.Equal(t, types.TaskStateCompleted, items[2].Task.Status.State)
}

func TestClientSendMessageBlockingWhenStreamingDisabled(t *testing.T) {
	transport := &fakeTransport{
		sendResult: &types.Task{Kind: types.KindTask, ID: "task-1", ContextID: "ctx-1", Status: types.TaskStatus{State: types.TaskStateCompleted}},
	}
	c := client.NewClient(transport, streamingCard(), &client.ClientConfig{Streaming: false}, nil)

	events, err := c.SendMessage(context.Background(), &types.MessageSendParams{
		Message: *types.NewUserTextMessage("do the thing"),
	})
	require.NoError(t, err)

	items := collect(t, events)
	require.Len(t, items, 1)
	assert.Equal(t, 1, transport.sendCalls)
	assert.Zero(t, transport.streamCalls)
	assert.Equal(t, types.TaskStateCompleted, items[0].Task.Status.State)
}

func TestClientSendMessageBlockingWhenServerLacksStreaming(t *testing.T) {
	transport := &fakeTransport{
		sendResult: types.NewAgentTextMessage("direct answer", "", ""),
	}
	card := streamingCard()
	noStreaming := false
	card.Capabilities.Streaming = &noStreaming

	c := client.NewClient(transport, card, nil, nil)
	events, err := c.SendMessage(context.Background(), &types.MessageSendParams{
		Message: *types.NewUserTextMessage("hi"),
	})
	require.NoError(t, err)

	items := collect(t, events)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Message)
	assert.Equal(t, "direct answer", items[0].Message.Parts[0].Text)
	assert.Zero(t, transport.streamCalls)
}

func TestClientInvokesConsumersBeforeYield(t *testing.T) {
	transport := &fakeTransport{
		streamEvents: []types.Event{
			types.NewStatusUpdateEvent("task-1", "ctx-1", types.TaskStatus{State: types.TaskStateCompleted}, true),
		},
	}
	c := client.NewClient(transport, streamingCard(), nil, nil)

	var observed []client.ClientEvent
	c.AddConsumer(func(_ context.Context, event client.ClientEvent) {
		observed = append(observed, event)
	})

	events, err := c.SendMessage(context.Background(), &types.MessageSendParams{
		Message: *types.NewUserTextMessage("hi"),
	})
	require.NoError(t, err)

	items := collect(t, events)
	require.Len(t, items, 1)
	require.Len(t, observed, 1)
	assert.Equal(t, items[0].Task.ID, observed[0].Task.ID)
}

func TestClientAppliesSendDefaults(t *testing.T) {
	transport := &fakeTransport{
		streamEvents: []types.Event{
			types.NewStatusUpdateEvent("task-1", "ctx-1", types.TaskStatus{State: types.TaskStateCompleted}, true),
		},
	}
	config := &client.ClientConfig{
		Streaming:           true,
		AcceptedOutputModes: []string{"text/plain"},
	}
	c := client.NewClient(transport, streamingCard(), config, nil)

	events, err := c.SendMessage(context.Background(), &types.MessageSendParams{
		Message: *types.NewUserTextMessage("hi"),
	})
	require.NoError(t, err)
	collect(t, events)

	require.NotNil(t, transport.lastSendParam.Configuration)
	assert.Equal(t, []string{"text/plain"}, transport.lastSendParam.Configuration.AcceptedOutputModes)
}

func TestClientResubscribeFoldsEvents(t *testing.T) {
	transport := &fakeTransport{
		streamEvents: []types.Event{
			types.NewStatusUpdateEvent("task-1", "ctx-1", types.TaskStatus{State: types.TaskStateWorking}, false),
			types.NewStatusUpdateEvent("task-1", "ctx-1", types.TaskStatus{State: types.TaskStateCompleted}, true),
		},
	}
	c := client.NewClient(transport, streamingCard(), nil, nil)

	events, err := c.Resubscribe(context.Background(), &types.TaskIDParams{ID: "task-1"})
	require.NoError(t, err)

	items := collect(t, events)
	require.Len(t, items, 2)
	assert.Equal(t, types.TaskStateCompleted, items[1].Task.Status.State)
}
