package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-gateway/a2a/server/events"
	"github.com/inference-gateway/a2a/types"
)

func collectEvents(t *testing.T, eventChan <-chan types.Event, errChan <-chan error) ([]types.Event, error) {
	t.Helper()

	var collected []types.Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return collected, <-errChan
			}
			collected = append(collected, event)
		case <-timeout:
			t.Fatal("timed out collecting events")
		}
	}
}

func TestConsumerConsumeOne(t *testing.T) {
	queue := events.NewEventQueue(8)
	defer queue.Close()
	consumer := events.NewConsumer(queue)

	msg := types.NewUserTextMessage("hello")
	require.NoError(t, queue.Enqueue(msg))

	event, err := consumer.ConsumeOne(context.Background())
	require.NoError(t, err)
	assert.Equal(t, msg, event)

	_, err = consumer.ConsumeOne(context.Background())
	assert.ErrorIs(t, err, events.ErrQueueEmpty)
}

func TestConsumerConsumeAllStopsOnFinalStatus(t *testing.T) {
	queue := events.NewEventQueue(8)
	defer queue.Close()
	consumer := events.NewConsumer(queue)

	working := types.NewStatusUpdateEvent("task-1", "ctx-1", types.TaskStatus{State: types.TaskStateWorking}, false)
	completed := types.NewStatusUpdateEvent("task-1", "ctx-1", types.TaskStatus{State: types.TaskStateCompleted}, true)
	require.NoError(t, queue.Enqueue(working))
	require.NoError(t, queue.Enqueue(completed))

	eventChan, errChan := consumer.ConsumeAll(context.Background())
	collected, err := collectEvents(t, eventChan, errChan)
	require.NoError(t, err)
	require.Len(t, collected, 2)
	assert.Equal(t, working, collected[0])
	assert.Equal(t, completed, collected[1])
}

func TestConsumerConsumeAllStopsOnMessage(t *testing.T) {
	queue := events.NewEventQueue(8)
	defer queue.Close()
	consumer := events.NewConsumer(queue)

	msg := types.NewAgentTextMessage("done", "task-1", "ctx-1")
	require.NoError(t, queue.Enqueue(msg))
	require.NoError(t, queue.Enqueue(types.NewUserTextMessage("never seen")))

	eventChan, errChan := consumer.ConsumeAll(context.Background())
	collected, err := collectEvents(t, eventChan, errChan)
	require.NoError(t, err)
	require.Len(t, collected, 1)
	assert.Equal(t, msg, collected[0])
}

func TestConsumerConsumeAllStopsOnQueueClose(t *testing.T) {
	queue := events.NewEventQueue(8)
	consumer := events.NewConsumer(queue)

	working := types.NewStatusUpdateEvent("task-1", "ctx-1", types.TaskStatus{State: types.TaskStateWorking}, false)
	require.NoError(t, queue.Enqueue(working))
	queue.Close()

	eventChan, errChan := consumer.ConsumeAll(context.Background())
	collected, err := collectEvents(t, eventChan, errChan)
	require.NoError(t, err)
	require.Len(t, collected, 1)
	assert.Equal(t, working, collected[0])
}

func TestConsumerAgentErrorSurfaces(t *testing.T) {
	queue := events.NewEventQueue(8)
	defer queue.Close()
	consumer := events.NewConsumer(queue)

	agentErr := errors.New("agent exploded")
	consumer.SetAgentError(agentErr)

	eventChan, errChan := consumer.ConsumeAll(context.Background())
	collected, err := collectEvents(t, eventChan, errChan)
	assert.Empty(t, collected)
	assert.ErrorIs(t, err, agentErr)
}

func TestConsumerConsumeAllContextCanceled(t *testing.T) {
	queue := events.NewEventQueue(8)
	defer queue.Close()
	consumer := events.NewConsumer(queue)

	ctx, cancel := context.WithCancel(context.Background())
	eventChan, errChan := consumer.ConsumeAll(ctx)
	cancel()

	collected, err := collectEvents(t, eventChan, errChan)
	assert.Empty(t, collected)
	assert.NoError(t, err)
}
