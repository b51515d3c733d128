package config_test

import (
	"context"
	"testing"
	"time"

	envconfig "github.com/sethvargo/go-envconfig"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"

	config "github.com/inference-gateway/a2a/server/config"
)

func TestNewWithDefaults(t *testing.T) {
	cfg, err := config.NewWithDefaults(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerConfig.Port)
	assert.Equal(t, "memory", cfg.QueueConfig.Provider)
	assert.Equal(t, "memory", cfg.StorageConfig.Provider)
	assert.Equal(t, 1024, cfg.QueueConfig.MaxSize)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.True(t, cfg.CapabilitiesConfig.Streaming)
	assert.False(t, cfg.AuthConfig.Enable)
	assert.False(t, cfg.TelemetryConfig.Enable)
}

func TestLoadFromEnvironment(t *testing.T) {
	lookuper := envconfig.MapLookuper(map[string]string{
		"AGENT_URL":           "https://agent.example.com",
		"DEBUG":               "true",
		"SERVER_PORT":         "9000",
		"SERVER_GRPC_PORT":    "50051",
		"SERVER_READ_TIMEOUT": "30s",
		"QUEUE_PROVIDER":      "redis",
		"QUEUE_URL":           "redis://localhost:6379",
		"STORAGE_PROVIDER":    "redis",
		"STORAGE_URL":         "redis://localhost:6379",
		"AUTH_ENABLE":         "true",
		"AUTH_ISSUER_URL":     "https://issuer.example.com/realms/test",
	})

	cfg, err := config.LoadWithLookuper(context.Background(), nil, lookuper)
	require.NoError(t, err)

	assert.Equal(t, "https://agent.example.com", cfg.AgentURL)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "9000", cfg.ServerConfig.Port)
	assert.Equal(t, "50051", cfg.ServerConfig.GRPCPort)
	assert.Equal(t, "redis", cfg.QueueConfig.Provider)
	assert.Equal(t, "redis://localhost:6379", cfg.QueueConfig.URL)
	assert.True(t, cfg.AuthConfig.Enable)
	assert.Equal(t, 30*time.Second, cfg.ServerConfig.ReadTimeout)
}

func TestLoadMergesBaseConfig(t *testing.T) {
	base := &config.Config{
		AgentName:        "weather-agent",
		AgentDescription: "answers weather questions",
		AgentVersion:     "1.2.3",
	}

	cfg, err := config.NewWithDefaults(context.Background(), base)
	require.NoError(t, err)

	assert.Equal(t, "weather-agent", cfg.AgentName)
	assert.Equal(t, "1.2.3", cfg.AgentVersion)
	assert.Equal(t, "8080", cfg.ServerConfig.Port)
}

func TestValidateRejectsUnknownProviders(t *testing.T) {
	lookuper := envconfig.MapLookuper(map[string]string{
		"QUEUE_PROVIDER": "kafka",
	})
	_, err := config.LoadWithLookuper(context.Background(), nil, lookuper)
	assert.Error(t, err)

	lookuper = envconfig.MapLookuper(map[string]string{
		"STORAGE_PROVIDER": "postgres",
	})
	_, err = config.LoadWithLookuper(context.Background(), nil, lookuper)
	assert.Error(t, err)
}

func TestValidateRejectsBadTimezone(t *testing.T) {
	lookuper := envconfig.MapLookuper(map[string]string{
		"TIMEZONE": "Mars/Olympus",
	})
	_, err := config.LoadWithLookuper(context.Background(), nil, lookuper)
	assert.Error(t, err)
}
