package events

import (
	"context"
	"fmt"
	"sync"

	redis "github.com/redis/go-redis/v9"
	zap "go.uber.org/zap"

	types "github.com/inference-gateway/a2a/types"
)

const (
	defaultRelayChannelPrefix = "a2a:event:relay:"
	defaultTaskRegistryKey    = "a2a:event:registry"
)

// RedisQueueManagerOptions tunes the Redis key layout.
type RedisQueueManagerOptions struct {
	// RelayChannelPrefix prefixes the per-task pub/sub channel names.
	RelayChannelPrefix string
	// TaskRegistryKey is the set key recording which task ids are live
	// across all processes.
	TaskRegistryKey string
}

// RedisQueueManager implements QueueManager across processes. Task ids are
// recorded in a shared Redis set; events enqueued on a local (origin) queue
// are relayed onto a per-task pub/sub channel, and processes without the
// origin queue observe the stream through a proxy queue subscribed to that
// channel.
type RedisQueueManager struct {
	client redis.UniversalClient
	logger *zap.Logger

	channelPrefix string
	registryKey   string

	// mu serializes all registry mutation and local/proxy map access to
	// avoid races between concurrent Add/Get/Close on the same task id.
	mu          sync.Mutex
	localQueues map[string]*EventQueue
	proxyQueues map[string]*EventQueue
	relayStops  map[string]context.CancelFunc
	proxySubs   map[string]*redis.PubSub
}

var _ QueueManager = (*RedisQueueManager)(nil)

// NewRedisQueueManager creates a queue manager backed by the given Redis
// client. Options may be nil for the default key layout.
func NewRedisQueueManager(client redis.UniversalClient, logger *zap.Logger, opts *RedisQueueManagerOptions) *RedisQueueManager {
	if logger == nil {
		logger = zap.NewNop()
	}

	channelPrefix := defaultRelayChannelPrefix
	registryKey := defaultTaskRegistryKey
	if opts != nil {
		if opts.RelayChannelPrefix != "" {
			channelPrefix = opts.RelayChannelPrefix
		}
		if opts.TaskRegistryKey != "" {
			registryKey = opts.TaskRegistryKey
		}
	}

	return &RedisQueueManager{
		client:        client,
		logger:        logger,
		channelPrefix: channelPrefix,
		registryKey:   registryKey,
		localQueues:   make(map[string]*EventQueue),
		proxyQueues:   make(map[string]*EventQueue),
		relayStops:    make(map[string]context.CancelFunc),
		proxySubs:     make(map[string]*redis.PubSub),
	}
}

func (m *RedisQueueManager) taskChannel(taskID string) string {
	return m.channelPrefix + taskID
}

func (m *RedisQueueManager) hasTaskID(ctx context.Context, taskID string) (bool, error) {
	exists, err := m.client.SIsMember(ctx, m.registryKey, taskID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check task registry: %w", err)
	}
	return exists, nil
}

// registerTaskID adds the task id to the global registry and starts the
// relay that publishes every local event onto the task's channel.
// Caller holds m.mu.
func (m *RedisQueueManager) registerTaskID(ctx context.Context, taskID string, queue *EventQueue) error {
	if err := m.client.SAdd(ctx, m.registryKey, taskID).Err(); err != nil {
		return fmt.Errorf("failed to register task id: %w", err)
	}

	relayCtx, cancel := context.WithCancel(context.Background())
	m.relayStops[taskID] = cancel
	go m.listenAndRelay(relayCtx, taskID, queue.Tap())

	return nil
}

// listenAndRelay publishes every event of the origin stream onto the
// task's pub/sub channel until the stream completes or the relay is
// canceled.
func (m *RedisQueueManager) listenAndRelay(ctx context.Context, taskID string, tap *EventQueue) {
	consumer := NewConsumer(tap)
	eventChan, errChan := consumer.ConsumeAll(ctx)

	channel := m.taskChannel(taskID)
	for event := range eventChan {
		payload, err := types.MarshalEvent(event)
		if err != nil {
			m.logger.Error("failed to marshal relay event",
				zap.String("task_id", taskID),
				zap.Error(err))
			continue
		}
		if err := m.client.Publish(ctx, channel, payload).Err(); err != nil {
			m.logger.Error("failed to publish relay event",
				zap.String("task_id", taskID),
				zap.String("channel", channel),
				zap.Error(err))
		}
	}
	if err := <-errChan; err != nil {
		m.logger.Warn("relay consumer stopped",
			zap.String("task_id", taskID),
			zap.Error(err))
	}
}

// subscribeRemoteTaskEvents creates a proxy queue fed from the task's
// pub/sub channel. Caller holds m.mu.
func (m *RedisQueueManager) subscribeRemoteTaskEvents(ctx context.Context, taskID string) (*EventQueue, error) {
	proxy := NewEventQueue(DefaultQueueSize)
	sub := m.client.Subscribe(ctx, m.taskChannel(taskID))

	m.proxyQueues[taskID] = proxy
	m.proxySubs[taskID] = sub

	go func() {
		for msg := range sub.Channel() {
			event, err := types.UnmarshalEvent([]byte(msg.Payload))
			if err != nil {
				m.logger.Error("failed to decode relayed event",
					zap.String("task_id", taskID),
					zap.Error(err))
				continue
			}
			if err := proxy.Enqueue(event); err != nil {
				// Proxy closed locally, stop re-injecting.
				return
			}
		}
	}()

	m.logger.Debug("subscribed proxy queue",
		zap.String("task_id", taskID),
		zap.String("channel", m.taskChannel(taskID)))
	return proxy, nil
}

// Add registers a local origin queue for the task id and makes the id
// globally visible.
func (m *RedisQueueManager) Add(ctx context.Context, taskID string, queue *EventQueue) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	exists, err := m.hasTaskID(ctx, taskID)
	if err != nil {
		return err
	}
	if exists {
		return ErrTaskQueueExists
	}

	m.localQueues[taskID] = queue
	if err := m.registerTaskID(ctx, taskID, queue); err != nil {
		delete(m.localQueues, taskID)
		return err
	}

	m.logger.Debug("registered origin queue", zap.String("task_id", taskID))
	return nil
}

// Get returns the local origin queue, an existing proxy, or a fresh proxy
// subscribed to the task's relay channel when the id is live in another
// process. ErrNoTaskQueue when the id is unknown everywhere.
func (m *RedisQueueManager) Get(ctx context.Context, taskID string) (*EventQueue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if queue, ok := m.localQueues[taskID]; ok {
		return queue, nil
	}

	exists, err := m.hasTaskID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNoTaskQueue
	}

	if proxy, ok := m.proxyQueues[taskID]; ok {
		return proxy, nil
	}
	return m.subscribeRemoteTaskEvents(ctx, taskID)
}

// Tap returns a new consumer handle over the task's stream, creating a
// proxy first when the origin lives in another process.
func (m *RedisQueueManager) Tap(ctx context.Context, taskID string) (*EventQueue, error) {
	queue, err := m.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return queue.Tap(), nil
}

// Close closes the task's queue. Closing an origin queue removes the task
// id from the global registry and cancels its relay; closing a proxy only
// unsubscribes, leaving the registry entry and other proxies intact.
func (m *RedisQueueManager) Close(ctx context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if queue, ok := m.localQueues[taskID]; ok {
		delete(m.localQueues, taskID)
		queue.Close()
		if cancel, ok := m.relayStops[taskID]; ok {
			cancel()
			delete(m.relayStops, taskID)
		}
		if err := m.client.SRem(ctx, m.registryKey, taskID).Err(); err != nil {
			return fmt.Errorf("failed to deregister task id: %w", err)
		}
		m.logger.Debug("closed origin queue", zap.String("task_id", taskID))
		return nil
	}

	if queue, ok := m.proxyQueues[taskID]; ok {
		delete(m.proxyQueues, taskID)
		queue.Close()
		if sub, ok := m.proxySubs[taskID]; ok {
			delete(m.proxySubs, taskID)
			if err := sub.Close(); err != nil {
				m.logger.Warn("failed to close proxy subscription",
					zap.String("task_id", taskID),
					zap.Error(err))
			}
		}
		m.logger.Debug("closed proxy queue", zap.String("task_id", taskID))
		return nil
	}

	return ErrNoTaskQueue
}

// CreateOrTap returns a fresh origin queue for an unknown task id, or a
// tap over the existing local or proxied stream.
func (m *RedisQueueManager) CreateOrTap(ctx context.Context, taskID string) (*EventQueue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exists, err := m.hasTaskID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if exists {
		if queue, ok := m.localQueues[taskID]; ok {
			return queue.Tap(), nil
		}
		if proxy, ok := m.proxyQueues[taskID]; ok {
			return proxy.Tap(), nil
		}
		return m.subscribeRemoteTaskEvents(ctx, taskID)
	}

	queue := NewEventQueue(DefaultQueueSize)
	m.localQueues[taskID] = queue
	if err := m.registerTaskID(ctx, taskID, queue); err != nil {
		delete(m.localQueues, taskID)
		return nil, err
	}
	m.logger.Debug("created origin queue", zap.String("task_id", taskID))
	return queue, nil
}
