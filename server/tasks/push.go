package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	zap "go.uber.org/zap"

	types "github.com/inference-gateway/a2a/types"
)

// NotificationTokenHeader carries the client-chosen token on webhook
// deliveries so the receiver can validate the source.
const NotificationTokenHeader = "X-A2A-Notification-Token"

// PushConfigStore persists push notification configs. A task may hold
// several configs, keyed by config id.
type PushConfigStore interface {
	// Set stores a config for the task. A config without an id adopts the
	// task id. An existing config with the same id is replaced.
	Set(ctx context.Context, taskID string, config types.PushNotificationConfig) (types.PushNotificationConfig, error)

	// Get returns the config with the given id, or the task's only config
	// when configID is empty. ErrPushConfigNotFound when absent.
	Get(ctx context.Context, taskID, configID string) (types.PushNotificationConfig, error)

	// List returns all configs for the task, possibly empty.
	List(ctx context.Context, taskID string) ([]types.PushNotificationConfig, error)

	// Delete removes the config with the given id. Unknown ids are not an
	// error.
	Delete(ctx context.Context, taskID, configID string) error
}

// ErrPushConfigNotFound is returned when no config matches the request.
var ErrPushConfigNotFound = fmt.Errorf("push notification config not found")

// InMemoryPushConfigStore implements PushConfigStore with a mutex-guarded
// two-level map.
type InMemoryPushConfigStore struct {
	mu      sync.RWMutex
	configs map[string]map[string]types.PushNotificationConfig
}

var _ PushConfigStore = (*InMemoryPushConfigStore)(nil)

// NewInMemoryPushConfigStore creates an empty in-memory config store.
func NewInMemoryPushConfigStore() *InMemoryPushConfigStore {
	return &InMemoryPushConfigStore{
		configs: make(map[string]map[string]types.PushNotificationConfig),
	}
}

// Set stores a config for the task.
func (s *InMemoryPushConfigStore) Set(_ context.Context, taskID string, config types.PushNotificationConfig) (types.PushNotificationConfig, error) {
	if config.ID == nil || *config.ID == "" {
		config.ID = types.StringPtr(taskID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.configs[taskID]
	if !ok {
		byID = make(map[string]types.PushNotificationConfig)
		s.configs[taskID] = byID
	}
	byID[*config.ID] = config
	return config, nil
}

// Get returns a stored config for the task.
func (s *InMemoryPushConfigStore) Get(_ context.Context, taskID, configID string) (types.PushNotificationConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID, ok := s.configs[taskID]
	if !ok || len(byID) == 0 {
		return types.PushNotificationConfig{}, ErrPushConfigNotFound
	}

	if configID == "" {
		if config, ok := byID[taskID]; ok {
			return config, nil
		}
		for _, config := range byID {
			return config, nil
		}
	}

	config, ok := byID[configID]
	if !ok {
		return types.PushNotificationConfig{}, ErrPushConfigNotFound
	}
	return config, nil
}

// List returns all configs stored for the task.
func (s *InMemoryPushConfigStore) List(_ context.Context, taskID string) ([]types.PushNotificationConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := s.configs[taskID]
	configs := make([]types.PushNotificationConfig, 0, len(byID))
	for _, config := range byID {
		configs = append(configs, config)
	}
	return configs, nil
}

// Delete removes a config from the task.
func (s *InMemoryPushConfigStore) Delete(_ context.Context, taskID, configID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.configs[taskID]
	if !ok {
		return nil
	}
	delete(byID, configID)
	if len(byID) == 0 {
		delete(s.configs, taskID)
	}
	return nil
}

// PushNotificationSender delivers task snapshots to registered webhooks.
type PushNotificationSender interface {
	// SendNotification posts the task to every webhook registered for it.
	// Delivery failures are logged and swallowed; a broken webhook must
	// never fail the request that triggered it.
	SendNotification(ctx context.Context, task *types.Task)
}

// HTTPPushNotificationSender implements PushNotificationSender over plain
// HTTP POST.
type HTTPPushNotificationSender struct {
	store      PushConfigStore
	httpClient *http.Client
	logger     *zap.Logger
}

var _ PushNotificationSender = (*HTTPPushNotificationSender)(nil)

// NewHTTPPushNotificationSender creates a sender reading webhook configs
// from the given store. A nil httpClient gets a 30 second timeout default.
func NewHTTPPushNotificationSender(store PushConfigStore, httpClient *http.Client, logger *zap.Logger) *HTTPPushNotificationSender {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPPushNotificationSender{
		store:      store,
		httpClient: httpClient,
		logger:     logger,
	}
}

// SendNotification posts the task JSON to every registered webhook.
func (s *HTTPPushNotificationSender) SendNotification(ctx context.Context, task *types.Task) {
	configs, err := s.store.List(ctx, task.ID)
	if err != nil {
		s.logger.Error("failed to list push notification configs",
			zap.String("task_id", task.ID),
			zap.Error(err))
		return
	}

	if len(configs) == 0 {
		return
	}

	payload, err := json.Marshal(task)
	if err != nil {
		s.logger.Error("failed to marshal task for push notification",
			zap.String("task_id", task.ID),
			zap.Error(err))
		return
	}

	for _, config := range configs {
		if err := s.deliver(ctx, config, payload); err != nil {
			s.logger.Error("push notification delivery failed",
				zap.String("task_id", task.ID),
				zap.String("url", config.URL),
				zap.Error(err))
			continue
		}
		s.logger.Debug("push notification delivered",
			zap.String("task_id", task.ID),
			zap.String("url", config.URL),
			zap.String("state", string(task.Status.State)))
	}
}

func (s *HTTPPushNotificationSender) deliver(ctx context.Context, config types.PushNotificationConfig, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if config.Token != nil && *config.Token != "" {
		req.Header.Set(NotificationTokenHeader, *config.Token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post notification: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			s.logger.Warn("failed to close response body", zap.Error(closeErr))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
