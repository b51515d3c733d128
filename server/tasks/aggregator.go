package tasks

import (
	"context"

	zap "go.uber.org/zap"

	events "github.com/inference-gateway/a2a/server/events"
	types "github.com/inference-gateway/a2a/types"
)

// ResultAggregator drains a consumer's event stream into the task manager
// and produces the request result: the final task snapshot, or a plain
// message when the agent answered without creating a task.
type ResultAggregator struct {
	taskManager *TaskManager
	logger      *zap.Logger
	message     *types.Message
}

// NewResultAggregator creates an aggregator folding events through the
// given task manager.
func NewResultAggregator(taskManager *TaskManager, logger *zap.Logger) *ResultAggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultAggregator{taskManager: taskManager, logger: logger}
}

// CurrentResult returns the terminal message when one was seen, otherwise
// the current task snapshot.
func (a *ResultAggregator) CurrentResult(ctx context.Context) (types.Event, error) {
	if a.message != nil {
		return a.message, nil
	}
	task, err := a.taskManager.GetTask(ctx)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, nil
	}
	return task, nil
}

// ConsumeAll drains the stream to completion and returns the final result.
// A plain message short-circuits aggregation and is returned directly.
func (a *ResultAggregator) ConsumeAll(ctx context.Context, consumer *events.Consumer) (types.Event, error) {
	eventChan, errChan := consumer.ConsumeAll(ctx)

	for event := range eventChan {
		if msg, ok := event.(*types.Message); ok {
			a.message = msg
			return msg, nil
		}
		if _, err := a.taskManager.Process(ctx, event); err != nil {
			return nil, err
		}
	}
	if err := <-errChan; err != nil {
		return nil, err
	}

	return a.CurrentResult(ctx)
}

// ConsumeAndEmit folds each event into the task manager and passes it
// through, for streaming responses that persist as they forward.
func (a *ResultAggregator) ConsumeAndEmit(ctx context.Context, consumer *events.Consumer) (<-chan types.Event, <-chan error) {
	out := make(chan types.Event, 16)
	errOut := make(chan error, 1)

	eventChan, errChan := consumer.ConsumeAll(ctx)

	go func() {
		defer close(out)
		defer close(errOut)

		for event := range eventChan {
			if _, err := a.taskManager.Process(ctx, event); err != nil {
				errOut <- err
				return
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
		if err := <-errChan; err != nil {
			errOut <- err
		}
	}()

	return out, errOut
}

func isInterruptState(state types.TaskState) bool {
	return state == types.TaskStateAuthRequired || state == types.TaskStateInputRequired
}

// ConsumeAndBreakOnInterrupt drains the stream like ConsumeAll but returns
// early when the task pauses for auth or input. The second return reports
// whether consumption was interrupted; when it was, the rest of the stream
// keeps draining into the store in the background so the snapshot stays
// current.
func (a *ResultAggregator) ConsumeAndBreakOnInterrupt(ctx context.Context, consumer *events.Consumer) (types.Event, bool, error) {
	eventChan, errChan := consumer.ConsumeAll(ctx)

	for event := range eventChan {
		if msg, ok := event.(*types.Message); ok {
			a.message = msg
			return msg, false, nil
		}
		if _, err := a.taskManager.Process(ctx, event); err != nil {
			return nil, false, err
		}

		update, ok := event.(*types.TaskStatusUpdateEvent)
		if !ok || !isInterruptState(update.Status.State) {
			continue
		}

		go a.drainInBackground(eventChan, errChan)
		result, err := a.CurrentResult(ctx)
		return result, true, err
	}
	if err := <-errChan; err != nil {
		return nil, false, err
	}

	result, err := a.CurrentResult(ctx)
	return result, false, err
}

// drainInBackground keeps persisting events after an interrupt handed the
// result back to the caller.
func (a *ResultAggregator) drainInBackground(eventChan <-chan types.Event, errChan <-chan error) {
	ctx := context.Background()
	for event := range eventChan {
		if _, err := a.taskManager.Process(ctx, event); err != nil {
			a.logger.Error("failed to persist event after interrupt",
				zap.String("task_id", a.taskManager.TaskID()),
				zap.Error(err))
			return
		}
	}
	if err := <-errChan; err != nil {
		a.logger.Warn("consumer stopped after interrupt",
			zap.String("task_id", a.taskManager.TaskID()),
			zap.Error(err))
	}
}
