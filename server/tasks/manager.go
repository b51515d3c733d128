package tasks

import (
	"context"
	"fmt"

	zap "go.uber.org/zap"

	types "github.com/inference-gateway/a2a/types"
)

// TaskManager folds task events into a persisted task snapshot. One manager
// serves one request; its task id is fixed on first use and every event it
// processes must reference that id.
type TaskManager struct {
	taskID         string
	contextID      string
	store          TaskStore
	initialMessage *types.Message
	logger         *zap.Logger
}

// NewTaskManager creates a manager bound to the given ids. Either id may be
// empty when the request addresses a task that does not exist yet; the ids
// are then adopted from the first event.
func NewTaskManager(taskID, contextID string, store TaskStore, initialMessage *types.Message, logger *zap.Logger) *TaskManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskManager{
		taskID:         taskID,
		contextID:      contextID,
		store:          store,
		initialMessage: initialMessage,
		logger:         logger,
	}
}

// TaskID returns the bound task id, empty until an event establishes one.
func (m *TaskManager) TaskID() string { return m.taskID }

// GetTask loads the current task snapshot, or nil without error when no
// task has been persisted yet.
func (m *TaskManager) GetTask(ctx context.Context) (*types.Task, error) {
	if m.taskID == "" {
		return nil, nil
	}
	task, err := m.store.Get(ctx, m.taskID)
	if err == ErrTaskNotFound {
		return nil, nil
	}
	return task, err
}

func (m *TaskManager) checkIDs(taskID, contextID string) error {
	if m.taskID != "" && taskID != m.taskID {
		return fmt.Errorf("event task id %q does not match managed task %q", taskID, m.taskID)
	}
	if m.taskID == "" {
		m.taskID = taskID
	}
	if m.contextID == "" {
		m.contextID = contextID
	}
	return nil
}

// ensureTask returns the persisted task, creating a submitted one from the
// triggering message when none exists.
func (m *TaskManager) ensureTask(ctx context.Context, taskID, contextID string) (*types.Task, error) {
	task, err := m.GetTask(ctx)
	if err != nil {
		return nil, err
	}
	if task != nil {
		return task, nil
	}

	task = &types.Task{
		Kind:      types.KindTask,
		ID:        taskID,
		ContextID: contextID,
		Status:    types.TaskStatus{State: types.TaskStateSubmitted},
	}
	if m.initialMessage != nil {
		task.History = []types.Message{*m.initialMessage}
	}

	if err := m.store.Save(ctx, task); err != nil {
		return nil, err
	}
	m.logger.Debug("created task",
		zap.String("task_id", taskID),
		zap.String("context_id", contextID))
	return task, nil
}

// SaveTaskEvent applies a task-scoped event to the snapshot and persists
// the result. Plain messages are not task events and are rejected.
func (m *TaskManager) SaveTaskEvent(ctx context.Context, event types.Event) (*types.Task, error) {
	switch ev := event.(type) {
	case *types.Task:
		if err := m.checkIDs(ev.ID, ev.ContextID); err != nil {
			return nil, err
		}
		if err := m.store.Save(ctx, ev); err != nil {
			return nil, err
		}
		return ev, nil

	case *types.TaskStatusUpdateEvent:
		if err := m.checkIDs(ev.TaskID, ev.ContextID); err != nil {
			return nil, err
		}
		task, err := m.ensureTask(ctx, ev.TaskID, ev.ContextID)
		if err != nil {
			return nil, err
		}
		ApplyStatusUpdate(task, ev, m.logger)
		if err := m.store.Save(ctx, task); err != nil {
			return nil, err
		}
		return task, nil

	case *types.TaskArtifactUpdateEvent:
		if err := m.checkIDs(ev.TaskID, ev.ContextID); err != nil {
			return nil, err
		}
		task, err := m.ensureTask(ctx, ev.TaskID, ev.ContextID)
		if err != nil {
			return nil, err
		}
		ApplyArtifactUpdate(task, ev)
		if err := m.store.Save(ctx, task); err != nil {
			return nil, err
		}
		return task, nil

	default:
		return nil, fmt.Errorf("event kind %q is not a task event", event.EventKind())
	}
}

// Process applies a task-scoped event and passes the event through
// unchanged. Plain messages pass through without touching the store.
func (m *TaskManager) Process(ctx context.Context, event types.Event) (types.Event, error) {
	if _, ok := event.(*types.Message); ok {
		return event, nil
	}
	if _, err := m.SaveTaskEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// ApplyStatusUpdate folds a status update into the task in place. A message
// carried by the previous status moves into history before the overwrite.
// Once the task is in a terminal state the state is latched: later updates
// cannot move it to another state.
func ApplyStatusUpdate(task *types.Task, event *types.TaskStatusUpdateEvent, logger *zap.Logger) {
	if task.Status.Message != nil {
		task.History = append(task.History, *task.Status.Message)
	}

	if task.Status.State.Terminal() && event.Status.State != task.Status.State {
		if logger != nil {
			logger.Warn("ignoring status update for task in terminal state",
				zap.String("task_id", task.ID),
				zap.String("current_state", string(task.Status.State)),
				zap.String("requested_state", string(event.Status.State)))
		}
		return
	}

	task.Status = event.Status
}

// ApplyArtifactUpdate folds an artifact update into the task in place. An
// unknown artifact id creates the artifact; append concatenates parts onto
// the existing artifact, otherwise the parts are replaced wholesale.
func ApplyArtifactUpdate(task *types.Task, event *types.TaskArtifactUpdateEvent) {
	appendParts := event.Append != nil && *event.Append

	for i := range task.Artifacts {
		if task.Artifacts[i].ArtifactID != event.Artifact.ArtifactID {
			continue
		}
		if appendParts {
			task.Artifacts[i].Parts = append(task.Artifacts[i].Parts, event.Artifact.Parts...)
		} else {
			task.Artifacts[i] = event.Artifact
		}
		return
	}

	task.Artifacts = append(task.Artifacts, event.Artifact)
}
