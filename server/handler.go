package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	zap "go.uber.org/zap"

	events "github.com/inference-gateway/a2a/server/events"
	tasks "github.com/inference-gateway/a2a/server/tasks"
	types "github.com/inference-gateway/a2a/types"
)

// StreamEvent is one frame of a server-side event stream: an event, or
// the error that ended it.
type StreamEvent struct {
	Event types.Event
	Err   error
}

// RequestHandler is the transport-agnostic boundary all three protocol
// surfaces dispatch into. Protocol errors are returned as
// *types.JSONRPCError; anything else maps to an internal error at the
// transport layer.
type RequestHandler interface {
	OnMessageSend(ctx context.Context, params *types.MessageSendParams) (types.Event, error)
	OnMessageSendStream(ctx context.Context, params *types.MessageSendParams) (<-chan StreamEvent, error)
	OnGetTask(ctx context.Context, params *types.TaskQueryParams) (*types.Task, error)
	OnCancelTask(ctx context.Context, params *types.TaskIDParams) (*types.Task, error)
	OnSetTaskPushNotificationConfig(ctx context.Context, config *types.TaskPushNotificationConfig) (*types.TaskPushNotificationConfig, error)
	OnGetTaskPushNotificationConfig(ctx context.Context, params *types.GetTaskPushNotificationConfigParams) (*types.TaskPushNotificationConfig, error)
	OnListTaskPushNotificationConfig(ctx context.Context, params *types.ListTaskPushNotificationConfigParams) ([]types.TaskPushNotificationConfig, error)
	OnDeleteTaskPushNotificationConfig(ctx context.Context, params *types.DeleteTaskPushNotificationConfigParams) error
	OnResubscribe(ctx context.Context, params *types.TaskIDParams) (<-chan StreamEvent, error)
}

// RequestHandlerOptions tune the default handler's collaborators. Nil
// fields fall back to in-memory implementations.
type RequestHandlerOptions struct {
	QueueManager           events.QueueManager
	PushConfigStore        tasks.PushConfigStore
	PushNotificationSender tasks.PushNotificationSender
	QueueSize              int
	Logger                 *zap.Logger
}

// DefaultRequestHandler owns task creation, queue lifecycle, persistence
// and push notification delivery around an AgentExecutor.
type DefaultRequestHandler struct {
	executor   AgentExecutor
	taskStore  tasks.TaskStore
	queues     events.QueueManager
	pushStore  tasks.PushConfigStore
	pushSender tasks.PushNotificationSender
	queueSize  int
	logger     *zap.Logger
}

var _ RequestHandler = (*DefaultRequestHandler)(nil)

// NewDefaultRequestHandler creates a handler around an executor and task
// store.
func NewDefaultRequestHandler(executor AgentExecutor, store tasks.TaskStore, opts *RequestHandlerOptions) *DefaultRequestHandler {
	if opts == nil {
		opts = &RequestHandlerOptions{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	queues := opts.QueueManager
	if queues == nil {
		queues = events.NewInMemoryQueueManager(logger)
	}
	pushStore := opts.PushConfigStore
	if pushStore == nil {
		pushStore = tasks.NewInMemoryPushConfigStore()
	}
	pushSender := opts.PushNotificationSender
	if pushSender == nil {
		pushSender = tasks.NewHTTPPushNotificationSender(pushStore, nil, logger)
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = events.DefaultQueueSize
	}

	return &DefaultRequestHandler{
		executor:   executor,
		taskStore:  store,
		queues:     queues,
		pushStore:  pushStore,
		pushSender: pushSender,
		queueSize:  queueSize,
		logger:     logger,
	}
}

// setup resolves the task for a send request, registers its queue and
// builds the execution collaborators.
func (h *DefaultRequestHandler) setup(ctx context.Context, params *types.MessageSendParams) (*RequestContext, *tasks.TaskManager, *events.EventQueue, error) {
	var task *types.Task
	if params.Message.TaskID != nil && *params.Message.TaskID != "" {
		existing, err := h.taskStore.Get(ctx, *params.Message.TaskID)
		if err != nil {
			if errors.Is(err, tasks.ErrTaskNotFound) {
				return nil, nil, nil, types.NewTaskNotFoundError(*params.Message.TaskID)
			}
			return nil, nil, nil, err
		}
		if existing.Status.State.Terminal() {
			return nil, nil, nil, types.NewInvalidParamsError(
				fmt.Sprintf("task %s is already in terminal state %s", existing.ID, existing.Status.State))
		}
		task = existing
	}

	reqCtx := NewRequestContext(params, task)
	taskManager := tasks.NewTaskManager(reqCtx.TaskID, reqCtx.ContextID, h.taskStore, reqCtx.Message, h.logger)

	queue := events.NewEventQueue(h.queueSize)
	if err := h.queues.Add(ctx, reqCtx.TaskID, queue); err != nil {
		if !errors.Is(err, events.ErrTaskQueueExists) {
			return nil, nil, nil, err
		}
		tapped, err := h.queues.Tap(ctx, reqCtx.TaskID)
		if err != nil {
			return nil, nil, nil, err
		}
		queue = tapped
	}

	return reqCtx, taskManager, queue, nil
}

// runExecutor invokes the agent and routes its failure into the consumer.
// The queue is closed on failure so blocked consumers wake up.
func (h *DefaultRequestHandler) runExecutor(ctx context.Context, reqCtx *RequestContext, queue *events.EventQueue, consumer *events.Consumer) {
	if err := h.executor.Execute(ctx, reqCtx, queue); err != nil {
		h.logger.Error("agent execution failed",
			zap.String("task_id", reqCtx.TaskID),
			zap.Error(err))
		consumer.SetAgentError(err)
		queue.Close()
	}
}

// notifyPush delivers the current task snapshot to registered webhooks.
func (h *DefaultRequestHandler) notifyPush(ctx context.Context, task *types.Task) {
	if task == nil {
		return
	}
	h.pushSender.SendNotification(ctx, task)
}

// OnMessageSend handles message/send: run the executor and drain its
// event stream to a terminal result, pausing early when the task asks for
// input or auth.
func (h *DefaultRequestHandler) OnMessageSend(ctx context.Context, params *types.MessageSendParams) (types.Event, error) {
	reqCtx, taskManager, queue, err := h.setup(ctx, params)
	if err != nil {
		return nil, err
	}

	consumer := events.NewConsumer(queue)
	go h.runExecutor(ctx, reqCtx, queue, consumer)

	aggregator := tasks.NewResultAggregator(taskManager, h.logger)
	result, interrupted, err := aggregator.ConsumeAndBreakOnInterrupt(ctx, consumer)
	if err != nil {
		_ = h.queues.Close(ctx, reqCtx.TaskID)
		return nil, err
	}
	if !interrupted {
		if closeErr := h.queues.Close(ctx, reqCtx.TaskID); closeErr != nil && !errors.Is(closeErr, events.ErrNoTaskQueue) {
			h.logger.Warn("failed to close task queue",
				zap.String("task_id", reqCtx.TaskID),
				zap.Error(closeErr))
		}
	}

	if task, ok := result.(*types.Task); ok {
		h.notifyPush(ctx, task)
		if params.Configuration != nil {
			return trimHistory(task, params.Configuration.HistoryLength), nil
		}
	}
	return result, nil
}

// OnMessageSendStream handles message/stream: every event the executor
// enqueues is persisted and forwarded to the caller as it happens.
func (h *DefaultRequestHandler) OnMessageSendStream(ctx context.Context, params *types.MessageSendParams) (<-chan StreamEvent, error) {
	reqCtx, taskManager, queue, err := h.setup(ctx, params)
	if err != nil {
		return nil, err
	}

	consumer := events.NewConsumer(queue)
	go h.runExecutor(ctx, reqCtx, queue, consumer)

	aggregator := tasks.NewResultAggregator(taskManager, h.logger)
	eventChan, errChan := aggregator.ConsumeAndEmit(ctx, consumer)

	out := make(chan StreamEvent, 16)
	go func() {
		defer close(out)
		defer func() {
			if closeErr := h.queues.Close(context.Background(), reqCtx.TaskID); closeErr != nil && !errors.Is(closeErr, events.ErrNoTaskQueue) {
				h.logger.Warn("failed to close task queue",
					zap.String("task_id", reqCtx.TaskID),
					zap.Error(closeErr))
			}
		}()

		for event := range eventChan {
			if _, isMessage := event.(*types.Message); !isMessage {
				snapshot, snapErr := taskManager.GetTask(ctx)
				if snapErr == nil {
					h.notifyPush(ctx, snapshot)
				}
			}
			select {
			case out <- StreamEvent{Event: event}:
			case <-ctx.Done():
				return
			}
		}
		if err := <-errChan; err != nil {
			select {
			case out <- StreamEvent{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

// OnGetTask handles tasks/get.
func (h *DefaultRequestHandler) OnGetTask(ctx context.Context, params *types.TaskQueryParams) (*types.Task, error) {
	task, err := h.taskStore.Get(ctx, params.ID)
	if err != nil {
		if errors.Is(err, tasks.ErrTaskNotFound) {
			return nil, types.NewTaskNotFoundError(params.ID)
		}
		return nil, err
	}
	return trimHistory(task, params.HistoryLength), nil
}

// OnCancelTask handles tasks/cancel: ask the executor to stop and drain
// the stream to the resulting snapshot. A task with no live queue is
// canceled directly in the store.
func (h *DefaultRequestHandler) OnCancelTask(ctx context.Context, params *types.TaskIDParams) (*types.Task, error) {
	task, err := h.taskStore.Get(ctx, params.ID)
	if err != nil {
		if errors.Is(err, tasks.ErrTaskNotFound) {
			return nil, types.NewTaskNotFoundError(params.ID)
		}
		return nil, err
	}
	if task.Status.State.Terminal() {
		return nil, types.NewTaskNotCancelableError(params.ID)
	}

	queue, err := h.queues.Tap(ctx, params.ID)
	if err != nil {
		if !errors.Is(err, events.ErrNoTaskQueue) {
			return nil, err
		}
		return h.cancelStoredTask(ctx, task)
	}

	reqCtx := &RequestContext{TaskID: task.ID, ContextID: task.ContextID, Task: task}
	consumer := events.NewConsumer(queue)
	go func() {
		if cancelErr := h.executor.Cancel(ctx, reqCtx, queue); cancelErr != nil {
			h.logger.Error("agent cancellation failed",
				zap.String("task_id", task.ID),
				zap.Error(cancelErr))
			consumer.SetAgentError(cancelErr)
			queue.Close()
		}
	}()

	taskManager := tasks.NewTaskManager(task.ID, task.ContextID, h.taskStore, nil, h.logger)
	aggregator := tasks.NewResultAggregator(taskManager, h.logger)
	result, err := aggregator.ConsumeAll(ctx, consumer)
	if err != nil {
		return nil, err
	}

	snapshot, ok := result.(*types.Task)
	if !ok {
		snapshot, err = taskManager.GetTask(ctx)
		if err != nil {
			return nil, err
		}
	}
	h.notifyPush(ctx, snapshot)
	return snapshot, nil
}

// cancelStoredTask marks a task with no live execution as canceled.
func (h *DefaultRequestHandler) cancelStoredTask(ctx context.Context, task *types.Task) (*types.Task, error) {
	now := time.Now().UTC()
	task.Status = types.TaskStatus{State: types.TaskStateCanceled, Timestamp: &now}
	if err := h.taskStore.Save(ctx, task); err != nil {
		return nil, err
	}
	h.notifyPush(ctx, task)
	return task, nil
}

// OnSetTaskPushNotificationConfig handles tasks/pushNotificationConfig/set.
func (h *DefaultRequestHandler) OnSetTaskPushNotificationConfig(ctx context.Context, config *types.TaskPushNotificationConfig) (*types.TaskPushNotificationConfig, error) {
	if _, err := h.taskStore.Get(ctx, config.TaskID); err != nil {
		if errors.Is(err, tasks.ErrTaskNotFound) {
			return nil, types.NewTaskNotFoundError(config.TaskID)
		}
		return nil, err
	}

	stored, err := h.pushStore.Set(ctx, config.TaskID, config.PushNotificationConfig)
	if err != nil {
		return nil, err
	}
	return &types.TaskPushNotificationConfig{TaskID: config.TaskID, PushNotificationConfig: stored}, nil
}

// OnGetTaskPushNotificationConfig handles tasks/pushNotificationConfig/get.
func (h *DefaultRequestHandler) OnGetTaskPushNotificationConfig(ctx context.Context, params *types.GetTaskPushNotificationConfigParams) (*types.TaskPushNotificationConfig, error) {
	configID := ""
	if params.PushNotificationConfigID != nil {
		configID = *params.PushNotificationConfigID
	}

	config, err := h.pushStore.Get(ctx, params.ID, configID)
	if err != nil {
		if errors.Is(err, tasks.ErrPushConfigNotFound) {
			return nil, types.NewInvalidParamsError(
				fmt.Sprintf("no push notification config for task %s", params.ID))
		}
		return nil, err
	}
	return &types.TaskPushNotificationConfig{TaskID: params.ID, PushNotificationConfig: config}, nil
}

// OnListTaskPushNotificationConfig handles tasks/pushNotificationConfig/list.
func (h *DefaultRequestHandler) OnListTaskPushNotificationConfig(ctx context.Context, params *types.ListTaskPushNotificationConfigParams) ([]types.TaskPushNotificationConfig, error) {
	configs, err := h.pushStore.List(ctx, params.ID)
	if err != nil {
		return nil, err
	}

	out := make([]types.TaskPushNotificationConfig, 0, len(configs))
	for _, config := range configs {
		out = append(out, types.TaskPushNotificationConfig{TaskID: params.ID, PushNotificationConfig: config})
	}
	return out, nil
}

// OnDeleteTaskPushNotificationConfig handles tasks/pushNotificationConfig/delete.
func (h *DefaultRequestHandler) OnDeleteTaskPushNotificationConfig(ctx context.Context, params *types.DeleteTaskPushNotificationConfigParams) error {
	if err := h.pushStore.Delete(ctx, params.ID, params.PushNotificationConfigID); err != nil {
		if errors.Is(err, tasks.ErrPushConfigNotFound) {
			return types.NewInvalidParamsError(
				fmt.Sprintf("no push notification config %s for task %s", params.PushNotificationConfigID, params.ID))
		}
		return err
	}
	return nil
}

// OnResubscribe handles tasks/resubscribe: tap the live stream of an
// in-flight task and forward its remaining events.
func (h *DefaultRequestHandler) OnResubscribe(ctx context.Context, params *types.TaskIDParams) (<-chan StreamEvent, error) {
	task, err := h.taskStore.Get(ctx, params.ID)
	if err != nil {
		if errors.Is(err, tasks.ErrTaskNotFound) {
			return nil, types.NewTaskNotFoundError(params.ID)
		}
		return nil, err
	}

	queue, err := h.queues.Tap(ctx, params.ID)
	if err != nil {
		if errors.Is(err, events.ErrNoTaskQueue) {
			return nil, types.NewTaskNotFoundError(params.ID)
		}
		return nil, err
	}

	taskManager := tasks.NewTaskManager(task.ID, task.ContextID, h.taskStore, nil, h.logger)
	aggregator := tasks.NewResultAggregator(taskManager, h.logger)
	consumer := events.NewConsumer(queue)
	eventChan, errChan := aggregator.ConsumeAndEmit(ctx, consumer)

	out := make(chan StreamEvent, 16)
	go func() {
		defer close(out)
		for event := range eventChan {
			select {
			case out <- StreamEvent{Event: event}:
			case <-ctx.Done():
				return
			}
		}
		if err := <-errChan; err != nil {
			select {
			case out <- StreamEvent{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

// trimHistory applies a history length limit to a task snapshot, keeping
// the most recent entries.
func trimHistory(task *types.Task, historyLength *int) *types.Task {
	if task == nil || historyLength == nil || *historyLength < 0 || len(task.History) <= *historyLength {
		return task
	}
	trimmed := *task
	trimmed.History = task.History[len(task.History)-*historyLength:]
	return &trimmed
}
