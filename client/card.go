package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	zap "go.uber.org/zap"

	types "github.com/inference-gateway/a2a/types"
)

// CardResolver fetches agent cards from an agent's base URL.
type CardResolver struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// NewCardResolver creates a resolver for the agent at baseURL.
func NewCardResolver(httpClient *http.Client, baseURL string, logger *zap.Logger) *CardResolver {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CardResolver{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		logger:     logger,
	}
}

// Resolve fetches the public agent card from the well-known path.
func (r *CardResolver) Resolve(ctx context.Context) (*types.AgentCard, error) {
	return r.ResolvePath(ctx, types.AgentCardWellKnownPath, nil)
}

// ResolvePath fetches an agent card from a path relative to the base URL,
// attaching the given headers. Used for authenticated extended cards.
func (r *CardResolver) ResolvePath(ctx context.Context, path string, headers http.Header) (*types.AgentCard, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create card request: %w", err)
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agent card: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			r.logger.Warn("failed to close response body", zap.Error(closeErr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, NewHTTPError(resp.StatusCode, string(body))
	}

	var card types.AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, &JSONError{Message: "failed to decode agent card", Cause: err}
	}

	r.logger.Debug("resolved agent card",
		zap.String("agent", card.Name),
		zap.String("url", card.URL))
	return &card, nil
}
