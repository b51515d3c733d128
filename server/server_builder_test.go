package server_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	server "github.com/inference-gateway/a2a/server"
	config "github.com/inference-gateway/a2a/server/config"
	"github.com/inference-gateway/a2a/server/events"
	"github.com/inference-gateway/a2a/server/tasks"
	"github.com/inference-gateway/a2a/types"
)

func TestBuilderRequiresExecutor(t *testing.T) {
	_, err := server.NewA2AServerBuilder(*testConfig(), nil).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "executor")
}

func TestBuilderBuildsServer(t *testing.T) {
	s, err := server.NewA2AServerBuilder(*testConfig(), nil).
		WithAgentExecutor(completingExecutor()).
		Build()
	require.NoError(t, err)
	assert.NotNil(t, s.Handler())
	assert.Equal(t, "test-agent", s.GetAgentCard().Name)
}

func TestBuilderWithAgentCard(t *testing.T) {
	s, err := server.NewA2AServerBuilder(*testConfig(), nil).
		WithAgentExecutor(completingExecutor()).
		WithAgentCard(types.AgentCard{Name: "custom", Version: "2.0.0"}).
		Build()
	require.NoError(t, err)

	card := s.GetAgentCard()
	assert.Equal(t, "custom", card.Name)
	assert.Equal(t, "2.0.0", card.Version)
}

func TestBuilderWithCustomCollaborators(t *testing.T) {
	store := tasks.NewInMemoryTaskStore()
	queues := events.NewInMemoryQueueManager(nil)

	s, err := server.NewA2AServerBuilder(*testConfig(), nil).
		WithAgentExecutor(completingExecutor()).
		WithTaskStore(store).
		WithQueueManager(queues).
		Build()
	require.NoError(t, err)
	assert.NotNil(t, s.Handler())
}

func TestBuilderWithSecurityConfiguredAgentCard(t *testing.T) {
	cfg := *testConfig()
	cfg.AuthConfig = config.AuthConfig{
		Enable:    true,
		IssuerURL: "https://keycloak.example.com/realms/a2a",
	}

	s, err := server.NewA2AServerBuilder(cfg, nil).
		WithAgentExecutor(completingExecutor()).
		WithSecurityConfiguredAgentCard(types.AgentCard{Name: "secured"}).
		Build()
	require.NoError(t, err)

	card := s.GetAgentCard()
	require.Contains(t, card.SecuritySchemes, "oidc")
	assert.Equal(t, types.SecuritySchemeOpenIDConnect, card.SecuritySchemes["oidc"].Type)
	require.Len(t, card.Security, 1)
	assert.Contains(t, card.Security[0], "oidc")
}

func TestBuilderWithExtendedAgentCard(t *testing.T) {
	s, err := server.NewA2AServerBuilder(*testConfig(), nil).
		WithAgentExecutor(completingExecutor()).
		WithExtendedAgentCard(types.AgentCard{Name: "extended"}).
		Build()
	require.NoError(t, err)

	card := s.GetAgentCard()
	require.NotNil(t, card.SupportsAuthenticatedExtendedCard)
	assert.True(t, *card.SupportsAuthenticatedExtendedCard)
}

func TestBuilderWithAgentCardFromFileMissing(t *testing.T) {
	_, err := server.NewA2AServerBuilder(*testConfig(), nil).
		WithAgentExecutor(completingExecutor()).
		WithAgentCardFromFile("/does/not/exist.json", nil).
		Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent card")
}

func TestSimpleA2AServer(t *testing.T) {
	s, err := server.SimpleA2AServer(*testConfig(), nil, completingExecutor(), types.AgentCard{Name: "simple"})
	require.NoError(t, err)
	assert.Equal(t, "simple", s.GetAgentCard().Name)
}
