package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	redis "github.com/redis/go-redis/v9"
	zap "go.uber.org/zap"

	types "github.com/inference-gateway/a2a/types"
)

// ErrTaskNotFound is returned when no task exists for the requested id.
var ErrTaskNotFound = errors.New("task not found")

// TaskStore persists task snapshots keyed by task id.
type TaskStore interface {
	// Save stores or overwrites the task.
	Save(ctx context.Context, task *types.Task) error

	// Get returns the task for the id, or ErrTaskNotFound.
	Get(ctx context.Context, taskID string) (*types.Task, error)

	// Delete removes the task. Deleting an unknown id is not an error.
	Delete(ctx context.Context, taskID string) error
}

// cloneTask deep-copies a task through its JSON form so stored snapshots
// never alias caller-held slices and maps.
func cloneTask(task *types.Task) (*types.Task, error) {
	data, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize task: %w", err)
	}
	var clone types.Task
	if err := json.Unmarshal(data, &clone); err != nil {
		return nil, fmt.Errorf("failed to deserialize task: %w", err)
	}
	return &clone, nil
}

// InMemoryTaskStore implements TaskStore with a mutex-guarded map.
type InMemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*types.Task
}

var _ TaskStore = (*InMemoryTaskStore)(nil)

// NewInMemoryTaskStore creates an empty in-memory task store.
func NewInMemoryTaskStore() *InMemoryTaskStore {
	return &InMemoryTaskStore{tasks: make(map[string]*types.Task)}
}

// Save stores a deep copy of the task.
func (s *InMemoryTaskStore) Save(_ context.Context, task *types.Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}

	clone, err := cloneTask(task)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = clone
	return nil
}

// Get returns a deep copy of the stored task.
func (s *InMemoryTaskStore) Get(_ context.Context, taskID string) (*types.Task, error) {
	s.mu.RLock()
	task, ok := s.tasks[taskID]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrTaskNotFound
	}
	return cloneTask(task)
}

// Delete removes the task for the id.
func (s *InMemoryTaskStore) Delete(_ context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, taskID)
	return nil
}

const redisTaskKeyPrefix = "a2a:task:"

// RedisTaskStore implements TaskStore on Redis, one JSON value per task.
type RedisTaskStore struct {
	client redis.UniversalClient
	logger *zap.Logger
}

var _ TaskStore = (*RedisTaskStore)(nil)

// NewRedisTaskStore creates a task store over an existing Redis client.
func NewRedisTaskStore(client redis.UniversalClient, logger *zap.Logger) *RedisTaskStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisTaskStore{client: client, logger: logger}
}

// NewRedisTaskStoreFromURL connects to Redis at the given URL and verifies
// the connection before returning the store.
func NewRedisTaskStoreFromURL(ctx context.Context, url string, logger *zap.Logger) (*RedisTaskStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("connected to redis task store",
		zap.String("addr", opt.Addr),
		zap.Int("db", opt.DB))

	return &RedisTaskStore{client: client, logger: logger}, nil
}

func redisTaskKey(taskID string) string {
	return redisTaskKeyPrefix + taskID
}

// Save stores the task as JSON.
func (s *RedisTaskStore) Save(ctx context.Context, task *types.Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to serialize task: %w", err)
	}

	if err := s.client.Set(ctx, redisTaskKey(task.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store task: %w", err)
	}

	s.logger.Debug("stored task",
		zap.String("task_id", task.ID),
		zap.String("state", string(task.Status.State)))
	return nil
}

// Get loads and decodes the task for the id.
func (s *RedisTaskStore) Get(ctx context.Context, taskID string) (*types.Task, error) {
	data, err := s.client.Get(ctx, redisTaskKey(taskID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}

	var task types.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("failed to deserialize task: %w", err)
	}
	return &task, nil
}

// Delete removes the task for the id.
func (s *RedisTaskStore) Delete(ctx context.Context, taskID string) error {
	if err := s.client.Del(ctx, redisTaskKey(taskID)).Err(); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}
