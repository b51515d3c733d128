package client

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	zap "go.uber.org/zap"
	grpc "google.golang.org/grpc"
	insecure "google.golang.org/grpc/credentials/insecure"

	types "github.com/inference-gateway/a2a/types"
)

// ErrNoCompatibleTransport reports an empty intersection between the
// transports a client supports and those a server advertises.
var ErrNoCompatibleTransport = errors.New("no compatible transport")

// ClientConfig tunes client construction and per-message defaults.
type ClientConfig struct {
	// Streaming enables message/stream when the server supports it.
	Streaming bool
	// SupportedTransports is the ordered client preference list used
	// during negotiation. Empty means JSON-RPC only.
	SupportedTransports []string
	// UseClientPreference makes negotiation walk the client list first
	// instead of the server's advertised order.
	UseClientPreference bool
	// AcceptedOutputModes is applied to outgoing send configurations
	// that do not set their own.
	AcceptedOutputModes []string
	// PushNotificationConfig is applied to outgoing send configurations
	// that do not set their own.
	PushNotificationConfig *types.PushNotificationConfig

	// HTTPClient overrides the client used by HTTP based transports.
	HTTPClient *http.Client
	// GRPCDialOptions override the options used to dial gRPC endpoints.
	// Default is an insecure connection.
	GRPCDialOptions []grpc.DialOption
	// Interceptors run before every outgoing call on every transport.
	Interceptors []CallInterceptor
}

// DefaultClientConfig returns a streaming JSON-RPC configuration.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Streaming:           true,
		SupportedTransports: []string{types.TransportJSONRPC},
	}
}

func (c *ClientConfig) supportedTransports() []string {
	if len(c.SupportedTransports) == 0 {
		return []string{types.TransportJSONRPC}
	}
	return c.SupportedTransports
}

func (c *ClientConfig) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 60 * time.Second}
}

// applyDefaults fills the send configuration from the config without
// overriding values the caller set explicitly.
func (c *ClientConfig) applyDefaults(params *types.MessageSendParams) {
	if params.Configuration == nil {
		params.Configuration = &types.MessageSendConfiguration{}
	}
	if len(params.Configuration.AcceptedOutputModes) == 0 {
		params.Configuration.AcceptedOutputModes = c.AcceptedOutputModes
	}
	if params.Configuration.PushNotificationConfig == nil {
		params.Configuration.PushNotificationConfig = c.PushNotificationConfig
	}
}

// TransportProducer builds a transport for a negotiated protocol label
// and endpoint URL.
type TransportProducer func(card *types.AgentCard, url string, config *ClientConfig, logger *zap.Logger) (Transport, error)

// Factory negotiates a transport with an agent card and assembles a
// Client around it.
type Factory struct {
	config    *ClientConfig
	producers map[string]TransportProducer
	logger    *zap.Logger
}

// NewFactory creates a factory with producers for the three protocol
// transports registered. A nil config gets defaults.
func NewFactory(config *ClientConfig, logger *zap.Logger) *Factory {
	if config == nil {
		config = DefaultClientConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Factory{
		config:    config,
		producers: make(map[string]TransportProducer),
		logger:    logger,
	}
	f.Register(types.TransportJSONRPC, newJSONRPCProducer())
	f.Register(types.TransportREST, newRESTProducer())
	f.Register(types.TransportGRPC, newGRPCProducer())
	return f
}

// Register installs or replaces the producer for a protocol label.
func (f *Factory) Register(label string, producer TransportProducer) {
	f.producers[label] = producer
}

// NegotiateTransport resolves the protocol label to use for a card. With
// UseClientPreference set the client's order wins, otherwise the
// server's advertised order does.
func (f *Factory) NegotiateTransport(card *types.AgentCard) (string, error) {
	server := card.ServerPreferredTransports()
	client := f.config.supportedTransports()

	preferred, available := server, client
	if f.config.UseClientPreference {
		preferred, available = client, server
	}
	for _, candidate := range preferred {
		for _, supported := range available {
			if candidate == supported {
				return candidate, nil
			}
		}
	}
	return "", fmt.Errorf("%w: server offers %v, client supports %v", ErrNoCompatibleTransport, server, client)
}

// Create negotiates a transport for the card and returns a Client bound
// to it.
func (f *Factory) Create(card *types.AgentCard) (*Client, error) {
	label, err := f.NegotiateTransport(card)
	if err != nil {
		return nil, err
	}

	producer, ok := f.producers[label]
	if !ok {
		return nil, fmt.Errorf("%w: no producer registered for %q", ErrTransportUnsupported, label)
	}

	url := card.TransportURL(label)
	if url == "" {
		return nil, fmt.Errorf("agent card advertises no url for transport %q", label)
	}

	f.logger.Debug("negotiated transport", zap.String("transport", label), zap.String("url", url))

	transport, err := producer(card, url, f.config, f.logger)
	if err != nil {
		return nil, err
	}
	return NewClient(transport, card, f.config, f.logger), nil
}

func newJSONRPCProducer() TransportProducer {
	return func(card *types.AgentCard, url string, config *ClientConfig, logger *zap.Logger) (Transport, error) {
		return NewJSONRPCTransport(config.httpClient(), card, url, config.Interceptors, logger), nil
	}
}

func newRESTProducer() TransportProducer {
	return func(card *types.AgentCard, url string, config *ClientConfig, logger *zap.Logger) (Transport, error) {
		return NewRESTTransport(config.httpClient(), card, url, config.Interceptors, logger), nil
	}
}

func newGRPCProducer() TransportProducer {
	return func(card *types.AgentCard, url string, config *ClientConfig, logger *zap.Logger) (Transport, error) {
		opts := config.GRPCDialOptions
		if len(opts) == 0 {
			opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
		}
		conn, err := grpc.NewClient(url, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to dial grpc endpoint: %w", err)
		}
		return NewGRPCTransport(conn, card, config.Interceptors, logger), nil
	}
}

// MinimalAgentCard builds a card good enough to construct a client when
// the real card has not been fetched yet.
func MinimalAgentCard(url string, transport string, streaming bool) *types.AgentCard {
	if transport == "" {
		transport = types.TransportJSONRPC
	}
	return &types.AgentCard{
		Name:               "unknown",
		URL:                url,
		PreferredTransport: transport,
		Capabilities:       types.AgentCapabilities{Streaming: &streaming},
	}
}
