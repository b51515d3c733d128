package types

import (
	"time"

	uuid "github.com/google/uuid"
)

// NewMessage creates a message with a generated id.
func NewMessage(role Role, parts []Part) *Message {
	return &Message{
		Kind:      KindMessage,
		MessageID: uuid.New().String(),
		Role:      role,
		Parts:     parts,
	}
}

// NewUserTextMessage creates a user message with a single text part.
func NewUserTextMessage(text string) *Message {
	return NewMessage(RoleUser, []Part{NewTextPart(text)})
}

// NewAgentTextMessage creates an agent message with a single text part,
// threaded onto the given task and context when non-empty.
func NewAgentTextMessage(text, taskID, contextID string) *Message {
	msg := NewMessage(RoleAgent, []Part{NewTextPart(text)})
	if taskID != "" {
		msg.TaskID = &taskID
	}
	if contextID != "" {
		msg.ContextID = &contextID
	}
	return msg
}

// NewTask creates a task in the submitted state from the triggering message.
// Missing task and context ids are minted; the message is recorded as the
// first history entry.
func NewTask(message Message) *Task {
	taskID := uuid.New().String()
	if message.TaskID != nil && *message.TaskID != "" {
		taskID = *message.TaskID
	}
	contextID := uuid.New().String()
	if message.ContextID != nil && *message.ContextID != "" {
		contextID = *message.ContextID
	}

	message.TaskID = &taskID
	message.ContextID = &contextID

	now := time.Now().UTC()
	return &Task{
		Kind:      KindTask,
		ID:        taskID,
		ContextID: contextID,
		Status: TaskStatus{
			State:     TaskStateSubmitted,
			Timestamp: &now,
		},
		History: []Message{message},
	}
}

// NewStatusUpdateEvent creates a status update event for a task.
func NewStatusUpdateEvent(taskID, contextID string, status TaskStatus, final bool) *TaskStatusUpdateEvent {
	return &TaskStatusUpdateEvent{
		Kind:      KindStatusUpdate,
		TaskID:    taskID,
		ContextID: contextID,
		Status:    status,
		Final:     final,
	}
}

// NewArtifactUpdateEvent creates an artifact update event for a task.
func NewArtifactUpdateEvent(taskID, contextID string, artifact Artifact, append, lastChunk bool) *TaskArtifactUpdateEvent {
	return &TaskArtifactUpdateEvent{
		Kind:      KindArtifactUpdate,
		TaskID:    taskID,
		ContextID: contextID,
		Artifact:  artifact,
		Append:    &append,
		LastChunk: &lastChunk,
	}
}

// NewTextArtifact creates a single-part text artifact.
func NewTextArtifact(name, text string) Artifact {
	return Artifact{
		ArtifactID: uuid.New().String(),
		Name:       &name,
		Parts:      []Part{NewTextPart(text)},
	}
}
