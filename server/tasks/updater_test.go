package tasks_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-gateway/a2a/server/events"
	"github.com/inference-gateway/a2a/server/tasks"
	"github.com/inference-gateway/a2a/types"
)

func TestTaskUpdaterStatusLifecycle(t *testing.T) {
	queue := events.NewEventQueue(16)
	defer queue.Close()
	updater := tasks.NewTaskUpdater(queue, "task-1", "ctx-1")

	require.NoError(t, updater.StartWork(nil))
	require.NoError(t, updater.Complete(nil))

	event, err := queue.Dequeue(context.Background(), false)
	require.NoError(t, err)
	working, ok := event.(*types.TaskStatusUpdateEvent)
	require.True(t, ok)
	assert.Equal(t, "task-1", working.TaskID)
	assert.Equal(t, "ctx-1", working.ContextID)
	assert.Equal(t, types.TaskStateWorking, working.Status.State)
	assert.False(t, working.Final)
	assert.NotNil(t, working.Status.Timestamp)

	event, err = queue.Dequeue(context.Background(), false)
	require.NoError(t, err)
	completed, ok := event.(*types.TaskStatusUpdateEvent)
	require.True(t, ok)
	assert.Equal(t, types.TaskStateCompleted, completed.Status.State)
	assert.True(t, completed.Final)
}

func TestTaskUpdaterRefusesUpdatesAfterTerminal(t *testing.T) {
	queue := events.NewEventQueue(16)
	defer queue.Close()
	updater := tasks.NewTaskUpdater(queue, "task-1", "ctx-1")

	require.NoError(t, updater.Failed(nil))

	assert.Error(t, updater.StartWork(nil))
	assert.Error(t, updater.Complete(nil))

	_, err := updater.AddArtifact([]types.Part{types.NewTextPart("late")}, tasks.ArtifactOptions{})
	assert.Error(t, err)
}

func TestTaskUpdaterAddArtifact(t *testing.T) {
	queue := events.NewEventQueue(16)
	defer queue.Close()
	updater := tasks.NewTaskUpdater(queue, "task-1", "ctx-1")

	id, err := updater.AddArtifact([]types.Part{types.NewTextPart("chunk")}, tasks.ArtifactOptions{
		Name:      "report",
		Append:    true,
		LastChunk: false,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	event, err := queue.Dequeue(context.Background(), false)
	require.NoError(t, err)
	update, ok := event.(*types.TaskArtifactUpdateEvent)
	require.True(t, ok)
	assert.Equal(t, id, update.Artifact.ArtifactID)
	require.NotNil(t, update.Artifact.Name)
	assert.Equal(t, "report", *update.Artifact.Name)
	require.NotNil(t, update.Append)
	assert.True(t, *update.Append)
	require.NotNil(t, update.LastChunk)
	assert.False(t, *update.LastChunk)
}

func TestTaskUpdaterAddArtifactKeepsExplicitID(t *testing.T) {
	queue := events.NewEventQueue(16)
	defer queue.Close()
	updater := tasks.NewTaskUpdater(queue, "task-1", "ctx-1")

	id, err := updater.AddArtifact([]types.Part{types.NewTextPart("chunk")}, tasks.ArtifactOptions{
		ArtifactID: "art-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "art-1", id)
}

func TestTaskUpdaterNewAgentMessage(t *testing.T) {
	queue := events.NewEventQueue(16)
	defer queue.Close()
	updater := tasks.NewTaskUpdater(queue, "task-1", "ctx-1")

	msg := updater.NewAgentMessage([]types.Part{types.NewTextPart("hi")})
	assert.Equal(t, types.RoleAgent, msg.Role)
	require.NotNil(t, msg.TaskID)
	assert.Equal(t, "task-1", *msg.TaskID)
	require.NotNil(t, msg.ContextID)
	assert.Equal(t, "ctx-1", *msg.ContextID)
	assert.NotEmpty(t, msg.MessageID)
}

func TestTaskUpdaterRequiresInput(t *testing.T) {
	queue := events.NewEventQueue(16)
	defer queue.Close()
	updater := tasks.NewTaskUpdater(queue, "task-1", "ctx-1")

	prompt := updater.NewAgentMessage([]types.Part{types.NewTextPart("which account?")})
	require.NoError(t, updater.RequiresInput(prompt, false))

	event, err := queue.Dequeue(context.Background(), false)
	require.NoError(t, err)
	update, ok := event.(*types.TaskStatusUpdateEvent)
	require.True(t, ok)
	assert.Equal(t, types.TaskStateInputRequired, update.Status.State)
	require.NotNil(t, update.Status.Message)
	assert.Equal(t, prompt.MessageID, update.Status.Message.MessageID)

	require.NoError(t, updater.StartWork(nil))
}
