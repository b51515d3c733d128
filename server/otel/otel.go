package otel

import (
	"context"
	"fmt"

	otel "go.opentelemetry.io/otel"
	attribute "go.opentelemetry.io/otel/attribute"
	prometheus "go.opentelemetry.io/otel/exporters/prometheus"
	metric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	resource "go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	zap "go.uber.org/zap"

	config "github.com/inference-gateway/a2a/server/config"
)

// OpenTelemetry defines the operations for telemetry
type OpenTelemetry interface {
	// Protocol surface metrics
	RecordRequestCount(ctx context.Context, attrs TelemetryAttributes, requestType string)
	RecordResponseStatus(ctx context.Context, attrs TelemetryAttributes, requestType, requestPath string, statusCode int)
	RecordRequestDuration(ctx context.Context, attrs TelemetryAttributes, requestType, requestPath string, durationMs float64)

	// Task lifecycle metrics
	RecordTaskTerminal(ctx context.Context, attrs TelemetryAttributes, state string)
	RecordStreamEvent(ctx context.Context, attrs TelemetryAttributes, eventKind string)

	// Shutdown the telemetry system
	ShutDown(ctx context.Context) error
}

type OpenTelemetryImpl struct {
	logger        *zap.Logger
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter

	// Metrics
	requestCounter           metric.Int64Counter
	responseStatusCounter    metric.Int64Counter
	requestDurationHistogram metric.Float64Histogram
	taskTerminalCounter      metric.Int64Counter
	streamEventCounter       metric.Int64Counter
}

type TelemetryAttributes struct {
	Transport string
	Method    string
	TaskID    string
}

// NewOpenTelemetry creates a new OpenTelemetry implementation with proper dependency injection
func NewOpenTelemetry(cfg *config.Config, logger *zap.Logger) (OpenTelemetry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	o := &OpenTelemetryImpl{
		logger: logger,
	}

	if err := o.initialize(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize opentelemetry: %w", err)
	}

	return o, nil
}

func (o *OpenTelemetryImpl) initialize(cfg *config.Config) error {
	o.logger.Info("initializing opentelemetry",
		zap.String("agent_name", cfg.AgentName),
		zap.String("version", cfg.AgentVersion))

	exporter, err := prometheus.New()
	if err != nil {
		o.logger.Error("failed to create prometheus exporter", zap.Error(err))
		return err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.AgentName),
		semconv.ServiceVersion(cfg.AgentVersion),
	)

	histogramBoundaries := []float64{1, 5, 10, 25, 50, 75, 100, 250, 500, 750, 1000, 2500, 5000, 7500, 10000}

	latencyView := sdkmetric.NewView(
		sdkmetric.Instrument{
			Kind: sdkmetric.InstrumentKindHistogram,
		},
		sdkmetric.Stream{
			Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
				Boundaries: histogramBoundaries,
			},
		},
	)

	o.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
		sdkmetric.WithView(latencyView),
	)
	otel.SetMeterProvider(o.meterProvider)

	o.meter = o.meterProvider.Meter(cfg.AgentName)

	if err := o.initializeMetrics(); err != nil {
		o.logger.Error("failed to initialize metrics", zap.Error(err))
		return err
	}

	o.logger.Info("opentelemetry initialized successfully")
	return nil
}

func (o *OpenTelemetryImpl) RecordRequestCount(ctx context.Context, attrs TelemetryAttributes, requestType string) {
	attributes := []attribute.KeyValue{
		attribute.String("transport", attrs.Transport),
		attribute.String("request_type", requestType),
	}
	if attrs.Method != "" {
		attributes = append(attributes, attribute.String("method", attrs.Method))
	}

	o.requestCounter.Add(ctx, 1, metric.WithAttributes(attributes...))
}

func (o *OpenTelemetryImpl) RecordResponseStatus(ctx context.Context, attrs TelemetryAttributes, requestType, requestPath string, statusCode int) {
	attributes := []attribute.KeyValue{
		attribute.String("transport", attrs.Transport),
		attribute.String("request_method", requestType),
		attribute.String("request_path", requestPath),
		attribute.Int("status_code", statusCode),
	}

	o.responseStatusCounter.Add(ctx, 1, metric.WithAttributes(attributes...))
}

func (o *OpenTelemetryImpl) RecordRequestDuration(ctx context.Context, attrs TelemetryAttributes, requestType, requestPath string, durationMs float64) {
	attributes := []attribute.KeyValue{
		attribute.String("transport", attrs.Transport),
		attribute.String("request_method", requestType),
		attribute.String("request_path", requestPath),
	}

	o.requestDurationHistogram.Record(ctx, durationMs, metric.WithAttributes(attributes...))
}

func (o *OpenTelemetryImpl) RecordTaskTerminal(ctx context.Context, attrs TelemetryAttributes, state string) {
	attributes := []attribute.KeyValue{
		attribute.String("state", state),
	}
	if attrs.Method != "" {
		attributes = append(attributes, attribute.String("method", attrs.Method))
	}

	o.taskTerminalCounter.Add(ctx, 1, metric.WithAttributes(attributes...))
}

func (o *OpenTelemetryImpl) RecordStreamEvent(ctx context.Context, attrs TelemetryAttributes, eventKind string) {
	attributes := []attribute.KeyValue{
		attribute.String("event_kind", eventKind),
	}
	if attrs.Method != "" {
		attributes = append(attributes, attribute.String("method", attrs.Method))
	}

	o.streamEventCounter.Add(ctx, 1, metric.WithAttributes(attributes...))
}

func (o *OpenTelemetryImpl) ShutDown(ctx context.Context) error {
	return o.meterProvider.Shutdown(ctx)
}

// initializeMetrics initializes all the OpenTelemetry metrics
func (o *OpenTelemetryImpl) initializeMetrics() error {
	var err error

	o.requestCounter, err = o.meter.Int64Counter(
		"a2a.requests.total",
		metric.WithDescription("Total number of A2A requests processed"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create request counter: %w", err)
	}

	o.responseStatusCounter, err = o.meter.Int64Counter(
		"a2a.response_status.total",
		metric.WithDescription("Total number of responses by status code"),
		metric.WithUnit("{response}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create response status counter: %w", err)
	}

	o.requestDurationHistogram, err = o.meter.Float64Histogram(
		"a2a.request_duration",
		metric.WithDescription("Duration of A2A request processing"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return fmt.Errorf("failed to create request duration histogram: %w", err)
	}

	o.taskTerminalCounter, err = o.meter.Int64Counter(
		"a2a.tasks_terminal.total",
		metric.WithDescription("Total number of tasks reaching a terminal state"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create task terminal counter: %w", err)
	}

	o.streamEventCounter, err = o.meter.Int64Counter(
		"a2a.stream_events.total",
		metric.WithDescription("Total number of events emitted on message streams"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create stream event counter: %w", err)
	}

	o.logger.Debug("all opentelemetry metrics initialized successfully")
	return nil
}
