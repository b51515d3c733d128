package otel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	zap "go.uber.org/zap"

	config "github.com/inference-gateway/a2a/server/config"
	otel "github.com/inference-gateway/a2a/server/otel"
)

func TestNewOpenTelemetryRecordsWithoutError(t *testing.T) {
	cfg := &config.Config{
		AgentName:       "test-agent",
		AgentVersion:    "1.0.0",
		TelemetryConfig: config.TelemetryConfig{Enable: true},
	}

	telemetry, err := otel.NewOpenTelemetry(cfg, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	attrs := otel.TelemetryAttributes{Transport: "JSONRPC", Method: "message/send", TaskID: "task-1"}

	telemetry.RecordRequestCount(ctx, attrs, "POST")
	telemetry.RecordResponseStatus(ctx, attrs, "POST", "/a2a", 200)
	telemetry.RecordRequestDuration(ctx, attrs, "POST", "/a2a", 12.5)
	telemetry.RecordTaskTerminal(ctx, attrs, "completed")
	telemetry.RecordStreamEvent(ctx, attrs, "status-update")

	require.NoError(t, telemetry.ShutDown(ctx))
}
