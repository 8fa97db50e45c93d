// Package telemetry wires OpenTelemetry tracing for the patchbay service.
// Transform passes and tool invocations record spans through the global tracer
// provider installed here.
package telemetry

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	serviceName    = "patchbay"
	serviceVersion = "1.0.0"
)

// Config holds the configuration for telemetry
type Config struct {
	Enabled      bool
	OTLPEndpoint string
}

// Provider manages the tracer provider lifecycle
type Provider struct {
	enabled  bool
	provider *sdktrace.TracerProvider
}

// NewProvider creates a new telemetry provider. When enabled it installs a
// global tracer provider exporting over OTLP/HTTP to the configured endpoint
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	if !config.Enabled {
		log.Printf("Telemetry disabled")
		return &Provider{enabled: false}, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(config.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to build telemetry resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	log.Printf("Telemetry enabled, exporting to %s", config.OTLPEndpoint)
	return &Provider{enabled: true, provider: tp}, nil
}

// Shutdown flushes pending spans and shuts down the tracer provider
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.enabled {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.provider.Shutdown(ctx)
}

// TransformToolName qualifies a tool name with its command for span naming
// (e.g. str_replace_based_edit_tool[view])
func TransformToolName(toolName string, toolInput map[string]interface{}) string {
	if toolName == "str_replace_based_edit_tool" {
		if command, ok := toolInput["command"].(string); ok && command != "" {
			return fmt.Sprintf("%s[%s]", toolName, command)
		}
	}
	return toolName
}

// NewPassID generates a unique ID for one transform pass
func NewPassID() string {
	return uuid.New().String()
}
