package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-gateway/a2a/server/events"
	"github.com/inference-gateway/a2a/types"
)

func TestEventQueueEnqueueDequeue(t *testing.T) {
	queue := events.NewEventQueue(8)
	defer queue.Close()

	msg := types.NewUserTextMessage("hello")
	require.NoError(t, queue.Enqueue(msg))

	event, err := queue.Dequeue(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, msg, event)
}

func TestEventQueueDequeueEmptyNonBlocking(t *testing.T) {
	queue := events.NewEventQueue(8)
	defer queue.Close()

	event, err := queue.Dequeue(context.Background(), false)
	assert.Nil(t, event)
	assert.ErrorIs(t, err, events.ErrQueueEmpty)
}

func TestEventQueueDequeueBlocksUntilEnqueue(t *testing.T) {
	queue := events.NewEventQueue(8)
	defer queue.Close()

	msg := types.NewUserTextMessage("later")
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = queue.Enqueue(msg)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	event, err := queue.Dequeue(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, msg, event)
}

func TestEventQueueDequeueContextCanceled(t *testing.T) {
	queue := events.NewEventQueue(8)
	defer queue.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	event, err := queue.Dequeue(ctx, true)
	assert.Nil(t, event)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEventQueueTapReceivesSubsequentEvents(t *testing.T) {
	queue := events.NewEventQueue(8)
	defer queue.Close()

	before := types.NewUserTextMessage("before tap")
	require.NoError(t, queue.Enqueue(before))

	tap := queue.Tap()

	after := types.NewUserTextMessage("after tap")
	require.NoError(t, queue.Enqueue(after))

	event, err := queue.Dequeue(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, before, event)

	event, err = queue.Dequeue(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, after, event)

	event, err = tap.Dequeue(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, after, event, "tap must not replay the backlog")

	_, err = tap.Dequeue(context.Background(), false)
	assert.ErrorIs(t, err, events.ErrQueueEmpty)
}

func TestEventQueueBroadcastOrder(t *testing.T) {
	queue := events.NewEventQueue(8)
	defer queue.Close()

	tap := queue.Tap()

	first := types.NewUserTextMessage("first")
	second := types.NewUserTextMessage("second")
	require.NoError(t, queue.Enqueue(first))
	require.NoError(t, queue.Enqueue(second))

	for _, handle := range []*events.EventQueue{queue, tap} {
		event, err := handle.Dequeue(context.Background(), false)
		require.NoError(t, err)
		assert.Equal(t, first, event)

		event, err = handle.Dequeue(context.Background(), false)
		require.NoError(t, err)
		assert.Equal(t, second, event)
	}
}

func TestEventQueueEnqueueAfterClose(t *testing.T) {
	queue := events.NewEventQueue(8)
	queue.Close()

	err := queue.Enqueue(types.NewUserTextMessage("too late"))
	assert.ErrorIs(t, err, events.ErrQueueClosed)
}

func TestEventQueueCloseDrainsBufferedEvents(t *testing.T) {
	queue := events.NewEventQueue(8)

	msg := types.NewUserTextMessage("buffered")
	require.NoError(t, queue.Enqueue(msg))
	queue.Close()

	event, err := queue.Dequeue(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, msg, event)

	_, err = queue.Dequeue(context.Background(), true)
	assert.ErrorIs(t, err, events.ErrQueueClosed)
}

func TestEventQueueCloseWakesBlockedConsumer(t *testing.T) {
	queue := events.NewEventQueue(8)

	done := make(chan error, 1)
	go func() {
		_, err := queue.Dequeue(context.Background(), true)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	queue.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, events.ErrQueueClosed)
	case <-time.After(time.Second):
		t.Fatal("blocked consumer was not woken by close")
	}
}

func TestEventQueueTapAfterClose(t *testing.T) {
	queue := events.NewEventQueue(8)
	queue.Close()

	tap := queue.Tap()
	_, err := tap.Dequeue(context.Background(), true)
	assert.ErrorIs(t, err, events.ErrQueueClosed)
}

func TestEventQueueCloseIsIdempotent(t *testing.T) {
	queue := events.NewEventQueue(8)
	queue.Close()
	assert.NotPanics(t, queue.Close)
	assert.True(t, queue.IsClosed())
}

func TestEventQueueDropsWhenConsumerFull(t *testing.T) {
	queue := events.NewEventQueue(1)
	defer queue.Close()

	require.NoError(t, queue.Enqueue(types.NewUserTextMessage("kept")))
	require.NoError(t, queue.Enqueue(types.NewUserTextMessage("dropped")))

	assert.Equal(t, 1, queue.Len())
}
