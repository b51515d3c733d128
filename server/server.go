package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"

	a2apb "github.com/a2aproject/a2a-go/a2apb"
	gin "github.com/gin-gonic/gin"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	envconfig "github.com/sethvargo/go-envconfig"
	zap "go.uber.org/zap"
	grpc "google.golang.org/grpc"

	config "github.com/inference-gateway/a2a/server/config"
	events "github.com/inference-gateway/a2a/server/events"
	middlewares "github.com/inference-gateway/a2a/server/middlewares"
	otel "github.com/inference-gateway/a2a/server/otel"
	tasks "github.com/inference-gateway/a2a/server/tasks"
	types "github.com/inference-gateway/a2a/types"
)

// A2AServer defines the interface for an A2A-compatible server
type A2AServer interface {
	// Start starts the A2A server on the configured port
	Start(ctx context.Context) error

	// Stop gracefully stops the A2A server
	Stop(ctx context.Context) error

	// GetAgentCard returns the agent's capabilities and metadata
	GetAgentCard() *types.AgentCard

	// SetAgentCard sets a custom agent card that overrides the default card generation
	SetAgentCard(agentCard types.AgentCard)

	// SetExtendedAgentCard sets the card served to authenticated callers
	SetExtendedAgentCard(agentCard types.AgentCard)

	// LoadAgentCardFromFile loads and sets an agent card from a JSON file
	// The optional overrides map allows dynamic replacement of JSON attribute values
	LoadAgentCardFromFile(filePath string, overrides map[string]any) error

	// SetAgentName sets the agent's name dynamically
	SetAgentName(name string)

	// SetAgentDescription sets the agent's description dynamically
	SetAgentDescription(description string)

	// SetAgentURL sets the agent's URL dynamically
	SetAgentURL(url string)

	// SetAgentVersion sets the agent's version dynamically
	SetAgentVersion(version string)

	// Handler returns the transport-agnostic request handler
	Handler() RequestHandler
}

type A2AServerImpl struct {
	cfg    *config.Config
	logger *zap.Logger
	otel   otel.OpenTelemetry

	taskStore tasks.TaskStore
	queues    events.QueueManager
	handler   RequestHandler

	jsonrpcHandler *JSONRPCHandler
	restHandler    *RESTHandler
	grpcHandler    *GRPCHandler

	// Server state
	httpServer    *http.Server
	metricsServer *http.Server
	grpcServer    *grpc.Server

	// Custom agent cards
	customAgentCard   *types.AgentCard
	extendedAgentCard *types.AgentCard
}

var _ A2AServer = (*A2AServerImpl)(nil)

// NewA2AServer creates a new A2A server around an agent executor with the
// provided configuration and logger.
func NewA2AServer(cfg *config.Config, logger *zap.Logger, telemetry otel.OpenTelemetry, executor AgentExecutor) *A2AServerImpl {
	return assembleA2AServer(cfg, logger, telemetry, executor, nil, nil)
}

// assembleA2AServer wires the request handler, protocol handlers and server
// state. A nil taskStore or queues selects the configured provider.
func assembleA2AServer(cfg *config.Config, logger *zap.Logger, telemetry otel.OpenTelemetry, executor AgentExecutor, taskStore tasks.TaskStore, queues events.QueueManager) *A2AServerImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.AgentName == "" {
		cfg.AgentName = BuildAgentName
	}
	if cfg.AgentDescription == "" {
		cfg.AgentDescription = BuildAgentDescription
	}
	if cfg.AgentVersion == "" {
		cfg.AgentVersion = BuildAgentVersion
	}

	ctx := context.Background()

	if taskStore == nil {
		taskStore = createTaskStore(ctx, cfg.StorageConfig, logger)
	}
	if queues == nil {
		queues = createQueueManager(ctx, cfg.QueueConfig, logger)
	}

	handler := RequestHandler(NewDefaultRequestHandler(executor, taskStore, &RequestHandlerOptions{
		QueueManager: queues,
		QueueSize:    cfg.QueueConfig.MaxSize,
		Logger:       logger,
	}))
	if cfg.TelemetryConfig.Enable && telemetry != nil {
		handler = newInstrumentedHandler(handler, telemetry)
	}

	server := &A2AServerImpl{
		cfg:       cfg,
		logger:    logger,
		otel:      telemetry,
		taskStore: taskStore,
		queues:    queues,
		handler:   handler,
	}

	server.jsonrpcHandler = NewJSONRPCHandler(handler, logger)
	server.restHandler = NewRESTHandler(handler, server.GetAgentCard, logger)
	server.grpcHandler = NewGRPCHandler(handler, server.GetAgentCard, logger)

	return server
}

// NewDefaultA2AServer creates a new A2A server with environment-loaded
// configuration and a production logger.
func NewDefaultA2AServer(cfg *config.Config, executor AgentExecutor) *A2AServerImpl {
	finalCfg, err := config.LoadWithLookuper(context.Background(), cfg, envconfig.OsLookuper())
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	var logger *zap.Logger
	if finalCfg.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	var telemetryInstance otel.OpenTelemetry
	if finalCfg.TelemetryConfig.Enable {
		telemetryInstance, err = otel.NewOpenTelemetry(finalCfg, logger)
		if err != nil {
			logger.Fatal("failed to initialize telemetry", zap.Error(err))
		}
		metricsAddr := finalCfg.TelemetryConfig.MetricsConfig.Host + ":" + finalCfg.TelemetryConfig.MetricsConfig.Port
		logger.Info("telemetry enabled - metrics will be available", zap.String("metrics_url", metricsAddr+"/metrics"))
	}

	return NewA2AServer(finalCfg, logger, telemetryInstance, executor)
}

// createTaskStore builds the configured task store, falling back to the
// in-memory store when the provider cannot be reached.
func createTaskStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) tasks.TaskStore {
	switch cfg.Provider {
	case config.ProviderRedis:
		store, err := tasks.NewRedisTaskStoreFromURL(ctx, cfg.URL, logger)
		if err != nil {
			logger.Warn("failed to create redis task store, falling back to in-memory",
				zap.String("provider", cfg.Provider),
				zap.Error(err))
			return tasks.NewInMemoryTaskStore()
		}
		return store
	default:
		logger.Info("using in-memory task store")
		return tasks.NewInMemoryTaskStore()
	}
}

// createQueueManager builds the configured queue manager, falling back to
// the in-memory manager when the provider cannot be reached.
func createQueueManager(ctx context.Context, cfg config.QueueConfig, logger *zap.Logger) events.QueueManager {
	switch cfg.Provider {
	case config.ProviderRedis:
		opt, err := redis.ParseURL(cfg.URL)
		if err == nil {
			client := redis.NewClient(opt)
			err = client.Ping(ctx).Err()
			if err == nil {
				logger.Info("connected to redis queue manager", zap.String("addr", opt.Addr))
				return events.NewRedisQueueManager(client, logger, nil)
			}
		}
		logger.Warn("failed to create redis queue manager, falling back to in-memory",
			zap.String("provider", cfg.Provider),
			zap.Error(err))
		return events.NewInMemoryQueueManager(logger)
	default:
		logger.Info("using in-memory queue manager")
		return events.NewInMemoryQueueManager(logger)
	}
}

// Handler returns the transport-agnostic request handler.
func (s *A2AServerImpl) Handler() RequestHandler {
	return s.handler
}

// SetAgentName sets the agent's name dynamically
func (s *A2AServerImpl) SetAgentName(name string) {
	s.cfg.AgentName = name
}

// SetAgentDescription sets the agent's description dynamically
func (s *A2AServerImpl) SetAgentDescription(description string) {
	s.cfg.AgentDescription = description
}

// SetAgentURL sets the agent's URL dynamically
func (s *A2AServerImpl) SetAgentURL(url string) {
	s.cfg.AgentURL = url
}

// SetAgentVersion sets the agent's version dynamically
func (s *A2AServerImpl) SetAgentVersion(version string) {
	s.cfg.AgentVersion = version
}

// SetAgentCard sets a custom agent card that overrides the default card generation
func (s *A2AServerImpl) SetAgentCard(agentCard types.AgentCard) {
	s.customAgentCard = &agentCard
}

// SetExtendedAgentCard sets the card served to authenticated callers on
// the extended card route.
func (s *A2AServerImpl) SetExtendedAgentCard(agentCard types.AgentCard) {
	s.extendedAgentCard = &agentCard
}

// GetAgentCard returns the agent's capabilities and metadata. A custom
// card takes precedence over the card assembled from configuration.
func (s *A2AServerImpl) GetAgentCard() *types.AgentCard {
	if s.customAgentCard != nil {
		return s.customAgentCard
	}
	card := s.buildAgentCard()
	return &card
}

// buildAgentCard assembles the default agent card from configuration.
func (s *A2AServerImpl) buildAgentCard() types.AgentCard {
	card := types.AgentCard{
		Name:               s.cfg.AgentName,
		Description:        s.cfg.AgentDescription,
		Version:            s.cfg.AgentVersion,
		URL:                s.cfg.AgentURL,
		ProtocolVersion:    types.ProtocolVersion,
		PreferredTransport: types.TransportJSONRPC,
		Capabilities: types.AgentCapabilities{
			Streaming:              types.BoolPtr(s.cfg.CapabilitiesConfig.Streaming),
			PushNotifications:      types.BoolPtr(s.cfg.CapabilitiesConfig.PushNotifications),
			StateTransitionHistory: types.BoolPtr(s.cfg.CapabilitiesConfig.StateTransitionHistory),
		},
		DefaultInputModes:  []string{"text/plain"},
		DefaultOutputModes: []string{"text/plain"},
		Skills:             []types.AgentSkill{},
	}

	card.AdditionalInterfaces = append(card.AdditionalInterfaces, types.AgentInterface{
		Transport: types.TransportREST,
		URL:       s.cfg.AgentURL,
	})
	if s.cfg.ServerConfig.GRPCPort != "" {
		card.AdditionalInterfaces = append(card.AdditionalInterfaces, types.AgentInterface{
			Transport: types.TransportGRPC,
			URL:       net.JoinHostPort("", s.cfg.ServerConfig.GRPCPort),
		})
	}
	if s.extendedAgentCard != nil {
		card.SupportsAuthenticatedExtendedCard = types.BoolPtr(true)
	}
	return card
}

// LoadAgentCardFromFile loads and sets an agent card from a JSON file
// The optional overrides map allows dynamic replacement of JSON attribute values
func (s *A2AServerImpl) LoadAgentCardFromFile(filePath string, overrides map[string]any) error {
	if filePath == "" {
		return nil
	}

	s.logger.Info("loading agent card from file", zap.String("file_path", filePath))

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read agent card file: %w", err)
	}

	var rawData map[string]any
	if err := json.Unmarshal(data, &rawData); err != nil {
		return fmt.Errorf("failed to parse agent card JSON: %w", err)
	}

	for key, value := range overrides {
		s.logger.Debug("overriding agent card attribute",
			zap.String("key", key),
			zap.Any("value", value))
		rawData[key] = value
	}

	modifiedData, err := json.Marshal(rawData)
	if err != nil {
		return fmt.Errorf("failed to marshal modified agent card data: %w", err)
	}

	var agentCard types.AgentCard
	if err := json.Unmarshal(modifiedData, &agentCard); err != nil {
		return fmt.Errorf("failed to parse modified agent card JSON: %w", err)
	}

	s.logger.Info("successfully loaded agent card from file",
		zap.String("name", agentCard.Name),
		zap.String("version", agentCard.Version),
		zap.Int("overrides_count", len(overrides)))
	s.customAgentCard = &agentCard
	return nil
}

// handleAgentInfo returns agent capabilities and metadata
func (s *A2AServerImpl) handleAgentInfo(c *gin.Context) {
	agentCard := s.GetAgentCard()
	if agentCard == nil {
		s.logger.Error("no agent card configured")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Agent card not configured",
		})
		return
	}
	c.JSON(http.StatusOK, *agentCard)
}

// handleExtendedAgentCard returns the authenticated extended card,
// falling back to the public card when no extended card is set.
func (s *A2AServerImpl) handleExtendedAgentCard(c *gin.Context) {
	if s.extendedAgentCard != nil {
		c.JSON(http.StatusOK, *s.extendedAgentCard)
		return
	}
	s.handleAgentInfo(c)
}

// setupRouter configures the HTTP router with the A2A endpoints
func (s *A2AServerImpl) setupRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middlewares.LoggingMiddleware(cfg.ServerConfig.DisableHealthcheckLog))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	r.GET(types.AgentCardWellKnownPath, s.handleAgentInfo)

	var protocolMiddlewares []gin.HandlerFunc
	if s.cfg.TelemetryConfig.Enable && s.otel != nil {
		telemetryMw, err := middlewares.NewTelemetryMiddleware(*s.cfg, s.otel, s.logger)
		if err != nil {
			s.logger.Error("failed to create telemetry middleware", zap.Error(err))
		} else {
			protocolMiddlewares = append(protocolMiddlewares, telemetryMw.Middleware())
		}
	}

	if cfg.AuthConfig.Enable {
		oidcAuthenticator, err := middlewares.NewOIDCAuthenticatorMiddleware(s.logger, *s.cfg)
		if err != nil {
			s.logger.Error("failed to create OIDC authenticator", zap.Error(err))
			return r
		}
		s.logger.Info("oidcAuthenticator is valid, setting up authentication")
		protocolMiddlewares = append(protocolMiddlewares, oidcAuthenticator.Middleware())

		validator := middlewares.NewSecurityValidator(s.logger, *s.cfg)
		protocolMiddlewares = append(protocolMiddlewares, validator.ValidateSecurityRequirements(s.GetAgentCard()))
		r.GET(types.ExtendedAgentCardPath, append(append([]gin.HandlerFunc{}, protocolMiddlewares...), s.handleExtendedAgentCard)...)
	} else {
		s.logger.Warn("authentication is disabled, extended card is served unauthenticated")
		r.GET(types.ExtendedAgentCardPath, s.handleExtendedAgentCard)
	}

	r.POST("/a2a", append(append([]gin.HandlerFunc{}, protocolMiddlewares...), s.jsonrpcHandler.HandleRequest)...)

	group := r.Group("", protocolMiddlewares...)
	s.restHandler.RegisterRoutes(group)

	return r
}

// Start starts the A2A server
func (s *A2AServerImpl) Start(ctx context.Context) error {
	router := s.setupRouter(s.cfg)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", s.cfg.ServerConfig.Port),
		Handler:      router,
		ReadTimeout:  s.cfg.ServerConfig.ReadTimeout,
		WriteTimeout: s.cfg.ServerConfig.WriteTimeout,
		IdleTimeout:  s.cfg.ServerConfig.IdleTimeout,
	}

	s.logger.Info("starting A2A server",
		zap.String("port", s.cfg.ServerConfig.Port),
		zap.String("agent_name", s.cfg.AgentName),
		zap.String("agent_version", s.cfg.AgentVersion))

	if s.cfg.TelemetryConfig.Enable && s.otel != nil {
		go func() {
			metricsRouter := gin.Default()
			metricsRouter.GET("/metrics", gin.WrapH(promhttp.Handler()))

			metricsAddr := s.cfg.TelemetryConfig.MetricsConfig.Host + ":" + s.cfg.TelemetryConfig.MetricsConfig.Port
			s.metricsServer = &http.Server{
				Addr:         metricsAddr,
				Handler:      metricsRouter,
				ReadTimeout:  s.cfg.TelemetryConfig.MetricsConfig.ReadTimeout,
				WriteTimeout: s.cfg.TelemetryConfig.MetricsConfig.WriteTimeout,
				IdleTimeout:  s.cfg.TelemetryConfig.MetricsConfig.IdleTimeout,
			}

			s.logger.Info("starting metrics server", zap.String("port", s.cfg.TelemetryConfig.MetricsConfig.Port))
			if err := s.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	if s.cfg.ServerConfig.GRPCPort != "" {
		listener, err := net.Listen("tcp", ":"+s.cfg.ServerConfig.GRPCPort)
		if err != nil {
			return fmt.Errorf("failed to listen on grpc port: %w", err)
		}

		s.grpcServer = grpc.NewServer()
		a2apb.RegisterA2AServiceServer(s.grpcServer, s.grpcHandler)

		go func() {
			s.logger.Info("starting gRPC server", zap.String("port", s.cfg.ServerConfig.GRPCPort))
			if err := s.grpcServer.Serve(listener); err != nil {
				s.logger.Error("grpc server failed", zap.Error(err))
			}
		}()
	}

	if s.cfg.ServerConfig.TLSConfig.Enable {
		return s.httpServer.ListenAndServeTLS(s.cfg.ServerConfig.TLSConfig.CertPath, s.cfg.ServerConfig.TLSConfig.KeyPath)
	}

	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the A2A server
func (s *A2AServerImpl) Stop(ctx context.Context) error {
	s.logger.Info("stopping A2A server")

	var err error

	if s.httpServer != nil {
		if shutdownErr := s.httpServer.Shutdown(ctx); shutdownErr != nil {
			s.logger.Error("error stopping HTTP server", zap.Error(shutdownErr))
			err = shutdownErr
		}
	}

	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}

	if s.metricsServer != nil {
		if shutdownErr := s.metricsServer.Shutdown(ctx); shutdownErr != nil {
			s.logger.Error("error stopping metrics server", zap.Error(shutdownErr))
			if err == nil {
				err = shutdownErr
			}
		}
	}

	if s.otel != nil {
		if shutdownErr := s.otel.ShutDown(ctx); shutdownErr != nil {
			s.logger.Error("error shutting down telemetry", zap.Error(shutdownErr))
			if err == nil {
				err = shutdownErr
			}
		}
	}

	defer func() {
		if syncErr := s.logger.Sync(); syncErr != nil {
			s.logger.Error("failed to sync logger on shutdown", zap.Error(syncErr))
		}
	}()

	return err
}
