package events

import (
	"context"
	"errors"
	"sync"

	zap "go.uber.org/zap"
)

var (
	// ErrTaskQueueExists is returned by Add when a queue is already
	// registered for the task id.
	ErrTaskQueueExists = errors.New("task queue already exists")

	// ErrNoTaskQueue is returned when no queue is registered for the task id.
	ErrNoTaskQueue = errors.New("no queue for task")
)

// QueueManager owns the mapping of task id to live event queue. It is the
// only component permitted to create and destroy queues.
type QueueManager interface {
	// Add registers a queue for a task id. Fails with ErrTaskQueueExists if
	// the id is already registered.
	Add(ctx context.Context, taskID string, queue *EventQueue) error

	// Get returns the queue registered for the task id, or ErrNoTaskQueue.
	Get(ctx context.Context, taskID string) (*EventQueue, error)

	// Tap returns a new consumer handle over the task's stream, or
	// ErrNoTaskQueue.
	Tap(ctx context.Context, taskID string) (*EventQueue, error)

	// Close closes the task's queue and removes it from the manager.
	Close(ctx context.Context, taskID string) error

	// CreateOrTap returns a fresh queue for an unknown task id, or a tap of
	// the existing stream.
	CreateOrTap(ctx context.Context, taskID string) (*EventQueue, error)
}

// InMemoryQueueManager is a mutex-guarded map of task id to queue, suitable
// for single-process deployments.
type InMemoryQueueManager struct {
	mu     sync.Mutex
	queues map[string]*EventQueue
	logger *zap.Logger
}

var _ QueueManager = (*InMemoryQueueManager)(nil)

// NewInMemoryQueueManager creates an empty in-memory queue manager.
func NewInMemoryQueueManager(logger *zap.Logger) *InMemoryQueueManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryQueueManager{
		queues: make(map[string]*EventQueue),
		logger: logger,
	}
}

// Add registers a queue for the task id.
func (m *InMemoryQueueManager) Add(_ context.Context, taskID string, queue *EventQueue) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.queues[taskID]; ok {
		return ErrTaskQueueExists
	}
	m.queues[taskID] = queue
	m.logger.Debug("registered task queue", zap.String("task_id", taskID))
	return nil
}

// Get returns the queue registered for the task id.
func (m *InMemoryQueueManager) Get(_ context.Context, taskID string) (*EventQueue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	queue, ok := m.queues[taskID]
	if !ok {
		return nil, ErrNoTaskQueue
	}
	return queue, nil
}

// Tap returns a new consumer handle over the task's stream.
func (m *InMemoryQueueManager) Tap(_ context.Context, taskID string) (*EventQueue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	queue, ok := m.queues[taskID]
	if !ok {
		return nil, ErrNoTaskQueue
	}
	return queue.Tap(), nil
}

// Close closes the task's queue and removes it from the manager.
func (m *InMemoryQueueManager) Close(_ context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	queue, ok := m.queues[taskID]
	if !ok {
		return ErrNoTaskQueue
	}
	delete(m.queues, taskID)
	queue.Close()
	m.logger.Debug("closed task queue", zap.String("task_id", taskID))
	return nil
}

// CreateOrTap returns a fresh queue for an unknown task id, or a tap of the
// existing stream.
func (m *InMemoryQueueManager) CreateOrTap(_ context.Context, taskID string) (*EventQueue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if queue, ok := m.queues[taskID]; ok {
		return queue.Tap(), nil
	}

	queue := NewEventQueue(DefaultQueueSize)
	m.queues[taskID] = queue
	m.logger.Debug("created task queue", zap.String("task_id", taskID))
	return queue, nil
}
