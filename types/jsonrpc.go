package types

import (
	"encoding/json"
	"fmt"
)

// JSON-RPC protocol version used by all A2A requests and responses.
const JSONRPCVersion = "2.0"

// A2A JSON-RPC method names.
const (
	MethodMessageSend                    = "message/send"
	MethodMessageStream                  = "message/stream"
	MethodTasksGet                       = "tasks/get"
	MethodTasksCancel                    = "tasks/cancel"
	MethodTasksResubscribe               = "tasks/resubscribe"
	MethodTasksPushNotificationConfigSet = "tasks/pushNotificationConfig/set"
	MethodTasksPushNotificationConfigGet = "tasks/pushNotificationConfig/get"
	MethodPushNotificationConfigList     = "tasks/pushNotificationConfig/list"
	MethodPushNotificationConfigDelete   = "tasks/pushNotificationConfig/delete"
)

// Standard JSON-RPC error codes.
const (
	ErrorCodeJSONParse      = -32700
	ErrorCodeInvalidRequest = -32600
	ErrorCodeMethodNotFound = -32601
	ErrorCodeInvalidParams  = -32602
	ErrorCodeInternalError  = -32603
)

// A2A-specific error codes.
const (
	ErrorCodeTaskNotFound                 = -32001
	ErrorCodeTaskNotCancelable            = -32002
	ErrorCodePushNotificationNotSupported = -32003
	ErrorCodeUnsupportedOperation         = -32004
	ErrorCodeContentTypeNotSupported      = -32005
	ErrorCodeInvalidAgentResponse         = -32006
)

// JSONRPCRequest is the request envelope for all A2A JSON-RPC methods.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCError is a structured protocol error, reused verbatim across all
// three transports.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *JSONRPCError) Error() string {
	return fmt.Sprintf("a2a error %d: %s", e.Code, e.Message)
}

// JSONRPCResponse is the response envelope: exactly one of Result and Error
// is set.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// NewJSONRPCRequest assembles a request envelope, marshaling params.
func NewJSONRPCRequest(id any, method string, params any) (*JSONRPCRequest, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s params: %w", method, err)
	}
	return &JSONRPCRequest{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Method:  method,
		Params:  raw,
	}, nil
}

// Error constructors for the protocol error taxonomy.

// NewTaskNotFoundError reports that the referenced task does not exist.
func NewTaskNotFoundError(taskID string) *JSONRPCError {
	return &JSONRPCError{
		Code:    ErrorCodeTaskNotFound,
		Message: fmt.Sprintf("task not found: %s", taskID),
	}
}

// NewTaskNotCancelableError reports that the task is already terminal.
func NewTaskNotCancelableError(taskID string) *JSONRPCError {
	return &JSONRPCError{
		Code:    ErrorCodeTaskNotCancelable,
		Message: fmt.Sprintf("task cannot be canceled: %s", taskID),
	}
}

// NewUnsupportedOperationError reports an operation the agent does not
// implement.
func NewUnsupportedOperationError(operation string) *JSONRPCError {
	return &JSONRPCError{
		Code:    ErrorCodeUnsupportedOperation,
		Message: fmt.Sprintf("unsupported operation: %s", operation),
	}
}

// NewPushNotificationNotSupportedError reports that the agent does not
// support push notifications.
func NewPushNotificationNotSupportedError() *JSONRPCError {
	return &JSONRPCError{
		Code:    ErrorCodePushNotificationNotSupported,
		Message: "push notifications are not supported",
	}
}

// NewJSONParseError reports a request body that is not valid JSON.
func NewJSONParseError(err error) *JSONRPCError {
	return &JSONRPCError{
		Code:    ErrorCodeJSONParse,
		Message: "failed to parse request",
		Data:    err.Error(),
	}
}

// NewInvalidRequestError reports a structurally invalid request, carrying
// the validation detail.
func NewInvalidRequestError(detail string) *JSONRPCError {
	return &JSONRPCError{
		Code:    ErrorCodeInvalidRequest,
		Message: "invalid request",
		Data:    detail,
	}
}

// NewInvalidParamsError reports invalid method parameters.
func NewInvalidParamsError(detail string) *JSONRPCError {
	return &JSONRPCError{
		Code:    ErrorCodeInvalidParams,
		Message: "invalid params",
		Data:    detail,
	}
}

// NewMethodNotFoundError reports an unknown JSON-RPC method.
func NewMethodNotFoundError(method string) *JSONRPCError {
	return &JSONRPCError{
		Code:    ErrorCodeMethodNotFound,
		Message: fmt.Sprintf("method not found: %s", method),
	}
}

// NewInternalError wraps an unexpected failure as a protocol error.
func NewInternalError(err error) *JSONRPCError {
	return &JSONRPCError{
		Code:    ErrorCodeInternalError,
		Message: "internal error",
		Data:    err.Error(),
	}
}
