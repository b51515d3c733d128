package client

import (
	"context"
	"net/http"
	"sync"

	types "github.com/inference-gateway/a2a/types"
)

// CallContext carries per-call state across a client call, such as the
// session identity used to look up credentials. It is safe for concurrent
// use.
type CallContext struct {
	mu    sync.RWMutex
	state map[string]any
}

// NewCallContext creates an empty call context.
func NewCallContext() *CallContext {
	return &CallContext{state: make(map[string]any)}
}

// Set stores a state value.
func (c *CallContext) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state[key] = value
}

// Get returns a state value.
func (c *CallContext) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.state[key]
	return value, ok
}

// GetString returns a state value as a string, empty when absent or not a
// string.
func (c *CallContext) GetString(key string) string {
	value, ok := c.Get(key)
	if !ok {
		return ""
	}
	s, _ := value.(string)
	return s
}

type callContextKey struct{}

// WithCallContext attaches a call context to the request context so
// transports and interceptors can reach it.
func WithCallContext(ctx context.Context, callCtx *CallContext) context.Context {
	return context.WithValue(ctx, callContextKey{}, callCtx)
}

// CallContextFrom extracts the call context, or nil when none is attached.
func CallContextFrom(ctx context.Context) *CallContext {
	callCtx, _ := ctx.Value(callContextKey{}).(*CallContext)
	return callCtx
}

// CallInterceptor runs before every outgoing client call. Implementations
// may mutate the outgoing headers, typically to attach credentials.
type CallInterceptor interface {
	Intercept(ctx context.Context, method string, headers http.Header, card *types.AgentCard) error
}
