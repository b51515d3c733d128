package server

import (
	"fmt"

	config "github.com/inference-gateway/a2a/server/config"
	events "github.com/inference-gateway/a2a/server/events"
	otel "github.com/inference-gateway/a2a/server/otel"
	tasks "github.com/inference-gateway/a2a/server/tasks"
	types "github.com/inference-gateway/a2a/types"
	zap "go.uber.org/zap"
)

// A2AServerBuilder provides a fluent interface for building A2A servers with
// custom components. Use NewA2AServerBuilder to create an instance, then
// chain method calls to configure the server before Build.
//
// Example:
//
//	server, err := NewA2AServerBuilder(cfg, logger).
//	  WithAgentExecutor(executor).
//	  WithAgentCard(card).
//	  Build()
type A2AServerBuilder interface {
	// WithAgentExecutor sets the executor that processes incoming messages.
	// An executor is required; Build fails without one.
	WithAgentExecutor(executor AgentExecutor) A2AServerBuilder

	// WithTaskStore sets a custom task store, overriding the provider
	// selected by the storage configuration.
	WithTaskStore(store tasks.TaskStore) A2AServerBuilder

	// WithQueueManager sets a custom event queue manager, overriding the
	// provider selected by the queue configuration.
	WithQueueManager(queues events.QueueManager) A2AServerBuilder

	// WithTelemetry sets a pre-built telemetry instance. When the telemetry
	// configuration is enabled and no instance is provided, Build creates
	// one.
	WithTelemetry(telemetry otel.OpenTelemetry) A2AServerBuilder

	// WithAgentCard sets a custom agent card that overrides the default
	// card generation.
	WithAgentCard(agentCard types.AgentCard) A2AServerBuilder

	// WithAgentCardFromFile loads and sets an agent card from a JSON file.
	// The optional overrides map allows dynamic replacement of JSON
	// attribute values.
	WithAgentCardFromFile(filePath string, overrides map[string]any) A2AServerBuilder

	// WithSecurityConfiguredAgentCard sets an agent card and automatically
	// configures its security schemes from the server's authentication
	// configuration.
	WithSecurityConfiguredAgentCard(agentCard types.AgentCard) A2AServerBuilder

	// WithExtendedAgentCard sets the card served to authenticated callers
	// on the extended card endpoint.
	WithExtendedAgentCard(agentCard types.AgentCard) A2AServerBuilder

	// WithLogger sets a custom logger for the builder and resulting server.
	WithLogger(logger *zap.Logger) A2AServerBuilder

	// Build creates and returns the configured A2A server.
	Build() (A2AServer, error)
}

var _ A2AServerBuilder = (*A2AServerBuilderImpl)(nil)

// A2AServerBuilderImpl is the concrete implementation of the
// A2AServerBuilder interface. It holds the configuration and optional
// components that will be used to create the server.
type A2AServerBuilderImpl struct {
	cfg              config.Config
	logger           *zap.Logger
	executor         AgentExecutor
	taskStore        tasks.TaskStore
	queues           events.QueueManager
	telemetry        otel.OpenTelemetry
	agentCard        *types.AgentCard
	extendedCard     *types.AgentCard
	agentCardFile    string
	cardFileOverride map[string]any
}

// NewA2AServerBuilder creates a new server builder with required
// dependencies. The configuration passed here will be used to configure the
// server; the logger should match the configured Debug level.
func NewA2AServerBuilder(cfg config.Config, logger *zap.Logger) A2AServerBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &A2AServerBuilderImpl{
		cfg:    cfg,
		logger: logger,
	}
}

func (b *A2AServerBuilderImpl) WithAgentExecutor(executor AgentExecutor) A2AServerBuilder {
	b.executor = executor
	return b
}

func (b *A2AServerBuilderImpl) WithTaskStore(store tasks.TaskStore) A2AServerBuilder {
	b.taskStore = store
	return b
}

func (b *A2AServerBuilderImpl) WithQueueManager(queues events.QueueManager) A2AServerBuilder {
	b.queues = queues
	return b
}

func (b *A2AServerBuilderImpl) WithTelemetry(telemetry otel.OpenTelemetry) A2AServerBuilder {
	b.telemetry = telemetry
	return b
}

func (b *A2AServerBuilderImpl) WithAgentCard(agentCard types.AgentCard) A2AServerBuilder {
	b.agentCard = &agentCard
	return b
}

// WithAgentCardFromFile records the file path; the card is loaded during
// Build so read errors surface instead of being swallowed mid-chain.
func (b *A2AServerBuilderImpl) WithAgentCardFromFile(filePath string, overrides map[string]any) A2AServerBuilder {
	b.agentCardFile = filePath
	b.cardFileOverride = overrides
	return b
}

// WithSecurityConfiguredAgentCard sets an agent card with security schemes
// derived from the auth configuration.
func (b *A2AServerBuilderImpl) WithSecurityConfiguredAgentCard(agentCard types.AgentCard) A2AServerBuilder {
	securityConfig := SecurityConfigFromAuthConfig(b.cfg.AuthConfig)
	ConfigureAgentCardSecurity(&agentCard, securityConfig)

	b.agentCard = &agentCard
	return b
}

func (b *A2AServerBuilderImpl) WithExtendedAgentCard(agentCard types.AgentCard) A2AServerBuilder {
	b.extendedCard = &agentCard
	return b
}

func (b *A2AServerBuilderImpl) WithLogger(logger *zap.Logger) A2AServerBuilder {
	b.logger = logger
	return b
}

// Build creates and returns the configured A2A server.
func (b *A2AServerBuilderImpl) Build() (A2AServer, error) {
	if b.executor == nil {
		return nil, fmt.Errorf("agent executor must be configured before building the server - use WithAgentExecutor()")
	}

	telemetryInstance := b.telemetry
	if telemetryInstance == nil && b.cfg.TelemetryConfig.Enable {
		var err error
		telemetryInstance, err = otel.NewOpenTelemetry(&b.cfg, b.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		metricsAddr := b.cfg.TelemetryConfig.MetricsConfig.Host + ":" + b.cfg.TelemetryConfig.MetricsConfig.Port
		b.logger.Info("telemetry enabled - metrics will be available", zap.String("metrics_url", metricsAddr+"/metrics"))
	}

	server := assembleA2AServer(&b.cfg, b.logger, telemetryInstance, b.executor, b.taskStore, b.queues)

	if b.agentCardFile != "" {
		if err := server.LoadAgentCardFromFile(b.agentCardFile, b.cardFileOverride); err != nil {
			return nil, fmt.Errorf("failed to load agent card from file: %w", err)
		}
	}
	if b.agentCard != nil {
		server.SetAgentCard(*b.agentCard)
	}
	if b.extendedCard != nil {
		server.SetExtendedAgentCard(*b.extendedCard)
	}

	return server, nil
}

// SimpleA2AServer creates a basic A2A server around an executor with the
// default task store and queue manager. This is a convenience function for
// the common case.
func SimpleA2AServer(cfg config.Config, logger *zap.Logger, executor AgentExecutor, agentCard types.AgentCard) (A2AServer, error) {
	return NewA2AServerBuilder(cfg, logger).
		WithAgentExecutor(executor).
		WithAgentCard(agentCard).
		Build()
}
