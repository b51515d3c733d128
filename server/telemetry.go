package server

import (
	"context"

	otel "github.com/inference-gateway/a2a/server/otel"
	types "github.com/inference-gateway/a2a/types"
)

// instrumentedHandler decorates a RequestHandler with task lifecycle and
// stream metrics.
type instrumentedHandler struct {
	RequestHandler

	telemetry otel.OpenTelemetry
}

func newInstrumentedHandler(handler RequestHandler, telemetry otel.OpenTelemetry) *instrumentedHandler {
	return &instrumentedHandler{
		RequestHandler: handler,
		telemetry:      telemetry,
	}
}

func (h *instrumentedHandler) recordTerminal(ctx context.Context, method string, event types.Event) {
	task, ok := event.(*types.Task)
	if !ok || !task.Status.State.Terminal() {
		return
	}
	attrs := otel.TelemetryAttributes{Method: method, TaskID: task.ID}
	h.telemetry.RecordTaskTerminal(ctx, attrs, string(task.Status.State))
}

func (h *instrumentedHandler) OnMessageSend(ctx context.Context, params *types.MessageSendParams) (types.Event, error) {
	result, err := h.RequestHandler.OnMessageSend(ctx, params)
	if err == nil {
		h.recordTerminal(ctx, types.MethodMessageSend, result)
	}
	return result, err
}

func (h *instrumentedHandler) OnMessageSendStream(ctx context.Context, params *types.MessageSendParams) (<-chan StreamEvent, error) {
	stream, err := h.RequestHandler.OnMessageSendStream(ctx, params)
	if err != nil {
		return nil, err
	}
	return h.instrumentStream(ctx, types.MethodMessageStream, stream), nil
}

func (h *instrumentedHandler) OnCancelTask(ctx context.Context, params *types.TaskIDParams) (*types.Task, error) {
	task, err := h.RequestHandler.OnCancelTask(ctx, params)
	if err == nil {
		h.recordTerminal(ctx, types.MethodTasksCancel, task)
	}
	return task, err
}

func (h *instrumentedHandler) OnResubscribe(ctx context.Context, params *types.TaskIDParams) (<-chan StreamEvent, error) {
	stream, err := h.RequestHandler.OnResubscribe(ctx, params)
	if err != nil {
		return nil, err
	}
	return h.instrumentStream(ctx, types.MethodTasksResubscribe, stream), nil
}

// instrumentStream counts emitted events and terminal task states as they
// pass through, without altering the stream contract.
func (h *instrumentedHandler) instrumentStream(ctx context.Context, method string, stream <-chan StreamEvent) <-chan StreamEvent {
	out := make(chan StreamEvent, 16)
	go func() {
		defer close(out)
		attrs := otel.TelemetryAttributes{Method: method}
		for frame := range stream {
			if frame.Err == nil {
				h.telemetry.RecordStreamEvent(ctx, attrs, frame.Event.EventKind())
				if update, ok := frame.Event.(*types.TaskStatusUpdateEvent); ok && update.Status.State.Terminal() {
					h.telemetry.RecordTaskTerminal(ctx, attrs, string(update.Status.State))
				}
			}
			select {
			case out <- frame:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
