package server_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	server "github.com/inference-gateway/a2a/server"
	config "github.com/inference-gateway/a2a/server/config"
	"github.com/inference-gateway/a2a/types"
)

func testConfig() *config.Config {
	return &config.Config{
		AgentName:        "test-agent",
		AgentDescription: "A test agent",
		AgentVersion:     "1.0.0",
		AgentURL:         "http://localhost:8080/a2a",
		CapabilitiesConfig: config.CapabilitiesConfig{
			Streaming:         true,
			PushNotifications: true,
		},
		QueueConfig:   config.QueueConfig{Provider: config.ProviderMemory, MaxSize: 64},
		StorageConfig: config.StorageConfig{Provider: config.ProviderMemory},
		ServerConfig:  config.ServerConfig{Port: "8080"},
	}
}

func TestServerDefaultAgentCard(t *testing.T) {
	s := server.NewA2AServer(testConfig(), nil, nil, completingExecutor())

	card := s.GetAgentCard()
	require.NotNil(t, card)
	assert.Equal(t, "test-agent", card.Name)
	assert.Equal(t, "A test agent", card.Description)
	assert.Equal(t, "1.0.0", card.Version)
	assert.Equal(t, "http://localhost:8080/a2a", card.URL)
	assert.Equal(t, types.ProtocolVersion, card.ProtocolVersion)
	assert.Equal(t, types.TransportJSONRPC, card.PreferredTransport)
	assert.True(t, card.SupportsStreaming())
	assert.True(t, card.SupportsPushNotifications())
}

func TestServerCardAdvertisesRESTInterface(t *testing.T) {
	s := server.NewA2AServer(testConfig(), nil, nil, completingExecutor())

	card := s.GetAgentCard()
	require.NotEmpty(t, card.AdditionalInterfaces)
	assert.Equal(t, types.TransportREST, card.AdditionalInterfaces[0].Transport)
}

func TestServerCardAdvertisesGRPCInterface(t *testing.T) {
	cfg := testConfig()
	cfg.ServerConfig.GRPCPort = "50051"
	s := server.NewA2AServer(cfg, nil, nil, completingExecutor())

	card := s.GetAgentCard()
	transports := make([]string, 0, len(card.AdditionalInterfaces))
	for _, iface := range card.AdditionalInterfaces {
		transports = append(transports, iface.Transport)
	}
	assert.Contains(t, transports, types.TransportGRPC)
}

func TestServerAgentMetadataSetters(t *testing.T) {
	s := server.NewA2AServer(testConfig(), nil, nil, completingExecutor())

	s.SetAgentName("renamed")
	s.SetAgentDescription("updated description")
	s.SetAgentURL("http://example.com/a2a")
	s.SetAgentVersion("2.0.0")

	card := s.GetAgentCard()
	assert.Equal(t, "renamed", card.Name)
	assert.Equal(t, "updated description", card.Description)
	assert.Equal(t, "http://example.com/a2a", card.URL)
	assert.Equal(t, "2.0.0", card.Version)
}

func TestServerCustomAgentCardOverrides(t *testing.T) {
	s := server.NewA2AServer(testConfig(), nil, nil, completingExecutor())

	s.SetAgentCard(types.AgentCard{
		Name:    "custom",
		URL:     "http://custom/a2a",
		Version: "9.9.9",
	})

	card := s.GetAgentCard()
	assert.Equal(t, "custom", card.Name)
	assert.Equal(t, "9.9.9", card.Version)
}

func TestServerExtendedAgentCard(t *testing.T) {
	s := server.NewA2AServer(testConfig(), nil, nil, completingExecutor())

	card := s.GetAgentCard()
	assert.Nil(t, card.SupportsAuthenticatedExtendedCard)

	s.SetExtendedAgentCard(types.AgentCard{Name: "extended"})

	card = s.GetAgentCard()
	require.NotNil(t, card.SupportsAuthenticatedExtendedCard)
	assert.True(t, *card.SupportsAuthenticatedExtendedCard)
}

func TestServerLoadAgentCardFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "card.json")
	content := `{"name":"file-agent","description":"from file","url":"http://file/a2a","version":"3.0.0","capabilities":{},"defaultInputModes":["text/plain"],"defaultOutputModes":["text/plain"],"skills":[]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	s := server.NewA2AServer(testConfig(), nil, nil, completingExecutor())
	require.NoError(t, s.LoadAgentCardFromFile(path, map[string]any{"version": "3.0.1"}))

	card := s.GetAgentCard()
	assert.Equal(t, "file-agent", card.Name)
	assert.Equal(t, "3.0.1", card.Version)
}

func TestServerLoadAgentCardFromFileMissing(t *testing.T) {
	s := server.NewA2AServer(testConfig(), nil, nil, completingExecutor())

	err := s.LoadAgentCardFromFile(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.Error(t, err)
}

func TestServerHandlerExposed(t *testing.T) {
	s := server.NewA2AServer(testConfig(), nil, nil, completingExecutor())
	assert.NotNil(t, s.Handler())
}

func TestServerBuildMetadataDefaults(t *testing.T) {
	cfg := &config.Config{
		QueueConfig:   config.QueueConfig{Provider: config.ProviderMemory},
		StorageConfig: config.StorageConfig{Provider: config.ProviderMemory},
	}
	s := server.NewA2AServer(cfg, nil, nil, completingExecutor())

	card := s.GetAgentCard()
	assert.Equal(t, server.BuildAgentName, card.Name)
	assert.Equal(t, server.BuildAgentDescription, card.Description)
	assert.Equal(t, server.BuildAgentVersion, card.Version)
}
