package server

import (
	"context"

	uuid "github.com/google/uuid"

	events "github.com/inference-gateway/a2a/server/events"
	types "github.com/inference-gateway/a2a/types"
)

// AgentExecutor is the collaborator that carries out the agent's actual
// work. Execute consumes the request and publishes status, artifact and
// message events onto the queue; it must end the stream with a final
// status update or a plain message. Cancel requests cooperative
// cancellation of an in-flight task; the queue closing is the only
// forced stop the contract defines.
type AgentExecutor interface {
	Execute(ctx context.Context, reqCtx *RequestContext, queue *events.EventQueue) error
	Cancel(ctx context.Context, reqCtx *RequestContext, queue *events.EventQueue) error
}

// RequestContext carries everything an executor needs about one request:
// the resolved ids, the inbound message and the current task snapshot when
// the request continues an existing task.
type RequestContext struct {
	TaskID    string
	ContextID string
	Message   *types.Message
	Task      *types.Task
	Params    *types.MessageSendParams
}

// NewRequestContext resolves the task and context ids from the send
// params, minting ids for a fresh task, and threads them back onto the
// message so downstream events stay correlated.
func NewRequestContext(params *types.MessageSendParams, task *types.Task) *RequestContext {
	taskID := uuid.New().String()
	if params.Message.TaskID != nil && *params.Message.TaskID != "" {
		taskID = *params.Message.TaskID
	} else if task != nil {
		taskID = task.ID
	}

	contextID := uuid.New().String()
	if params.Message.ContextID != nil && *params.Message.ContextID != "" {
		contextID = *params.Message.ContextID
	} else if task != nil {
		contextID = task.ContextID
	}

	params.Message.TaskID = &taskID
	params.Message.ContextID = &contextID

	return &RequestContext{
		TaskID:    taskID,
		ContextID: contextID,
		Message:   &params.Message,
		Task:      task,
		Params:    params,
	}
}
