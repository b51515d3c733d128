package client

import (
	"errors"
	"fmt"

	types "github.com/inference-gateway/a2a/types"
)

// ErrTransportUnsupported is returned by the factory when no transport
// acceptable to both sides could be negotiated.
var ErrTransportUnsupported = errors.New("no transport supported by both client and server")

// HTTPError reports a non-success HTTP status from the agent endpoint.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error %d: %s", e.StatusCode, e.Message)
}

// NewHTTPError creates an HTTPError for the given status.
func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{StatusCode: statusCode, Message: message}
}

// JSONError reports a response body that could not be decoded.
type JSONError struct {
	Message string
	Cause   error
}

func (e *JSONError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("json error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("json error: %s", e.Message)
}

func (e *JSONError) Unwrap() error { return e.Cause }

// ServerError wraps a JSON-RPC error returned by the agent.
type ServerError struct {
	Err *types.JSONRPCError
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Err.Code, e.Err.Message)
}

func (e *ServerError) Unwrap() error { return e.Err }
