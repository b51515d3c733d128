package events_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-gateway/a2a/server/events"
	"github.com/inference-gateway/a2a/types"
)

func TestInMemoryQueueManagerAddAndGet(t *testing.T) {
	manager := events.NewInMemoryQueueManager(nil)
	ctx := context.Background()

	queue := events.NewEventQueue(8)
	require.NoError(t, manager.Add(ctx, "task-1", queue))

	got, err := manager.Get(ctx, "task-1")
	require.NoError(t, err)
	assert.Same(t, queue, got)
}

func TestInMemoryQueueManagerAddDuplicate(t *testing.T) {
	manager := events.NewInMemoryQueueManager(nil)
	ctx := context.Background()

	require.NoError(t, manager.Add(ctx, "task-1", events.NewEventQueue(8)))
	err := manager.Add(ctx, "task-1", events.NewEventQueue(8))
	assert.ErrorIs(t, err, events.ErrTaskQueueExists)
}

func TestInMemoryQueueManagerGetUnknown(t *testing.T) {
	manager := events.NewInMemoryQueueManager(nil)

	_, err := manager.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, events.ErrNoTaskQueue)
}

func TestInMemoryQueueManagerTap(t *testing.T) {
	manager := events.NewInMemoryQueueManager(nil)
	ctx := context.Background()

	queue := events.NewEventQueue(8)
	require.NoError(t, manager.Add(ctx, "task-1", queue))

	tap, err := manager.Tap(ctx, "task-1")
	require.NoError(t, err)
	require.NotSame(t, queue, tap)

	msg := types.NewUserTextMessage("broadcast")
	require.NoError(t, queue.Enqueue(msg))

	event, err := tap.Dequeue(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, msg, event)

	_, err = manager.Tap(ctx, "missing")
	assert.ErrorIs(t, err, events.ErrNoTaskQueue)
}

func TestInMemoryQueueManagerClose(t *testing.T) {
	manager := events.NewInMemoryQueueManager(nil)
	ctx := context.Background()

	queue := events.NewEventQueue(8)
	require.NoError(t, manager.Add(ctx, "task-1", queue))
	require.NoError(t, manager.Close(ctx, "task-1"))

	assert.True(t, queue.IsClosed())

	_, err := manager.Get(ctx, "task-1")
	assert.ErrorIs(t, err, events.ErrNoTaskQueue)

	err = manager.Close(ctx, "task-1")
	assert.ErrorIs(t, err, events.ErrNoTaskQueue)
}

func TestInMemoryQueueManagerCreateOrTap(t *testing.T) {
	manager := events.NewInMemoryQueueManager(nil)
	ctx := context.Background()

	queue, err := manager.CreateOrTap(ctx, "task-1")
	require.NoError(t, err)
	require.NotNil(t, queue)

	tap, err := manager.CreateOrTap(ctx, "task-1")
	require.NoError(t, err)
	require.NotSame(t, queue, tap)

	msg := types.NewUserTextMessage("shared stream")
	require.NoError(t, queue.Enqueue(msg))

	event, err := tap.Dequeue(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, msg, event)
}
