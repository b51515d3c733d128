package tasks

import (
	"fmt"
	"sync"
	"time"

	uuid "github.com/google/uuid"

	events "github.com/inference-gateway/a2a/server/events"
	types "github.com/inference-gateway/a2a/types"
)

// TaskUpdater is the executor-facing helper for publishing task progress.
// It stamps task and context ids onto every event and refuses updates after
// a terminal state has been emitted.
type TaskUpdater struct {
	queue     *events.EventQueue
	taskID    string
	contextID string

	mu         sync.Mutex
	terminated bool
}

// NewTaskUpdater creates an updater publishing to the given queue.
func NewTaskUpdater(queue *events.EventQueue, taskID, contextID string) *TaskUpdater {
	return &TaskUpdater{queue: queue, taskID: taskID, contextID: contextID}
}

// UpdateStatus publishes a status update. The message is optional; final
// marks the end of the stream and latches the updater so any further
// update fails.
func (u *TaskUpdater) UpdateStatus(state types.TaskState, message *types.Message, final bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.terminated {
		return fmt.Errorf("task %s already reached a terminal state", u.taskID)
	}

	now := time.Now().UTC()
	event := types.NewStatusUpdateEvent(u.taskID, u.contextID, types.TaskStatus{
		State:     state,
		Message:   message,
		Timestamp: &now,
	}, final)

	if err := u.queue.Enqueue(event); err != nil {
		return err
	}
	if final {
		u.terminated = true
	}
	return nil
}

// StartWork moves the task to the working state.
func (u *TaskUpdater) StartWork(message *types.Message) error {
	return u.UpdateStatus(types.TaskStateWorking, message, false)
}

// Complete finishes the task successfully.
func (u *TaskUpdater) Complete(message *types.Message) error {
	return u.UpdateStatus(types.TaskStateCompleted, message, true)
}

// Failed finishes the task with a failure.
func (u *TaskUpdater) Failed(message *types.Message) error {
	return u.UpdateStatus(types.TaskStateFailed, message, true)
}

// Canceled finishes the task as canceled.
func (u *TaskUpdater) Canceled(message *types.Message) error {
	return u.UpdateStatus(types.TaskStateCanceled, message, true)
}

// Reject finishes the task as rejected.
func (u *TaskUpdater) Reject(message *types.Message) error {
	return u.UpdateStatus(types.TaskStateRejected, message, true)
}

// RequiresInput pauses the task until the client sends more input.
func (u *TaskUpdater) RequiresInput(message *types.Message, final bool) error {
	return u.UpdateStatus(types.TaskStateInputRequired, message, final)
}

// RequiresAuth pauses the task until the client completes authentication.
func (u *TaskUpdater) RequiresAuth(message *types.Message, final bool) error {
	return u.UpdateStatus(types.TaskStateAuthRequired, message, final)
}

// ArtifactOptions tune an artifact update.
type ArtifactOptions struct {
	// ArtifactID identifies the artifact; generated when empty.
	ArtifactID string
	// Name is an optional display name.
	Name string
	// Append appends the parts to a previously published artifact of the
	// same id instead of replacing it.
	Append bool
	// LastChunk marks the artifact complete.
	LastChunk bool
}

// AddArtifact publishes an artifact update carrying the given parts and
// returns the artifact id.
func (u *TaskUpdater) AddArtifact(parts []types.Part, opts ArtifactOptions) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.terminated {
		return "", fmt.Errorf("task %s already reached a terminal state", u.taskID)
	}

	artifactID := opts.ArtifactID
	if artifactID == "" {
		artifactID = uuid.New().String()
	}

	artifact := types.Artifact{
		ArtifactID: artifactID,
		Parts:      parts,
	}
	if opts.Name != "" {
		artifact.Name = &opts.Name
	}

	event := types.NewArtifactUpdateEvent(u.taskID, u.contextID, artifact, opts.Append, opts.LastChunk)
	if err := u.queue.Enqueue(event); err != nil {
		return "", err
	}
	return artifactID, nil
}

// NewAgentMessage creates an agent message threaded onto the updater's task
// and context.
func (u *TaskUpdater) NewAgentMessage(parts []types.Part) *types.Message {
	msg := types.NewMessage(types.RoleAgent, parts)
	msg.TaskID = &u.taskID
	msg.ContextID = &u.contextID
	return msg
}
