package client

import (
	"fmt"

	zap "go.uber.org/zap"

	types "github.com/inference-gateway/a2a/types"
)

// taskManager folds events received over a transport into a local Task
// snapshot so callers always see the most recent aggregate state.
type taskManager struct {
	task   *types.Task
	logger *zap.Logger
}

func newTaskManager(logger *zap.Logger) *taskManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &taskManager{logger: logger}
}

// Task returns the current snapshot, nil before the first task event.
func (m *taskManager) Task() *types.Task {
	return m.task
}

// Process folds an event into the snapshot and returns the event
// unchanged. Messages pass through without touching task state.
func (m *taskManager) Process(event types.Event) (types.Event, error) {
	switch e := event.(type) {
	case *types.Message:
		return event, nil
	case *types.Task:
		snapshot := *e
		m.task = &snapshot
		return event, nil
	case *types.TaskStatusUpdateEvent:
		if err := m.ensureTask(e.TaskID, e.ContextID); err != nil {
			return nil, err
		}
		m.applyStatus(e)
		return event, nil
	case *types.TaskArtifactUpdateEvent:
		if err := m.ensureTask(e.TaskID, e.ContextID); err != nil {
			return nil, err
		}
		m.applyArtifact(e)
		return event, nil
	default:
		return nil, fmt.Errorf("unsupported event kind %q", event.EventKind())
	}
}

func (m *taskManager) ensureTask(taskID, contextID string) error {
	if m.task == nil {
		m.task = &types.Task{
			Kind:      types.KindTask,
			ID:        taskID,
			ContextID: contextID,
			Status:    types.TaskStatus{State: types.TaskStateSubmitted},
		}
		return nil
	}
	if taskID != "" && taskID != m.task.ID {
		return fmt.Errorf("event task id %q does not match task %q", taskID, m.task.ID)
	}
	return nil
}

func (m *taskManager) applyStatus(event *types.TaskStatusUpdateEvent) {
	if m.task.Status.State.Terminal() && event.Status.State != m.task.Status.State {
		m.logger.Warn("ignoring status update for task in terminal state",
			zap.String("task_id", m.task.ID),
			zap.String("state", string(m.task.Status.State)))
		return
	}
	if prev := m.task.Status.Message; prev != nil {
		m.task.History = append(m.task.History, *prev)
	}
	m.task.Status = event.Status
}

func (m *taskManager) applyArtifact(event *types.TaskArtifactUpdateEvent) {
	incoming := event.Artifact
	for i := range m.task.Artifacts {
		if m.task.Artifacts[i].ArtifactID != incoming.ArtifactID {
			continue
		}
		if event.Append != nil && *event.Append {
			m.task.Artifacts[i].Parts = append(m.task.Artifacts[i].Parts, incoming.Parts...)
		} else {
			m.task.Artifacts[i] = incoming
		}
		return
	}
	m.task.Artifacts = append(m.task.Artifacts, incoming)
}
