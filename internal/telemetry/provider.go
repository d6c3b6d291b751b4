package telemetry

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc/credentials"
)

// newResource creates a resource describing the service.
func newResource(cfg *Config) *resource.Resource {
	// Standalone resource; resource.Default() carries a different schema URL.
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	)
}

// TracerProviderOption configures TracerProvider creation.
type TracerProviderOption func(*tracerProviderOptions)

type tracerProviderOptions struct {
	exporter trace.SpanExporter
}

// WithTraceExporter overrides the OTLP exporter.
func WithTraceExporter(exp trace.SpanExporter) TracerProviderOption {
	return func(opts *tracerProviderOptions) {
		opts.exporter = exp
	}
}

// newTracerProvider creates a TracerProvider exporting over OTLP.
func newTracerProvider(ctx context.Context, cfg *Config, res *resource.Resource, opts ...TracerProviderOption) (*trace.TracerProvider, error) {
	o := &tracerProviderOptions{}
	for _, opt := range opts {
		opt(o)
	}

	exporter := o.exporter
	if exporter == nil {
		var err error
		exporter, err = newTraceExporter(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("creating trace exporter: %w", err)
		}
	}

	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(newSampler(cfg.Sampling.Rate)),
	), nil
}

func newTraceExporter(ctx context.Context, cfg *Config) (trace.SpanExporter, error) {
	skipVerify := &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for internal CAs

	if cfg.Protocol == ProtocolHTTP {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(stripScheme(cfg.Endpoint))}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		} else if cfg.TLSSkipVerify {
			opts = append(opts, otlptracehttp.WithTLSClientConfig(skipVerify))
		}
		return otlptracehttp.New(ctx, opts...)
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(stripScheme(cfg.Endpoint))}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else if cfg.TLSSkipVerify {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(skipVerify)))
	}
	return otlptracegrpc.New(ctx, opts...)
}

// newSampler honors the parent's decision and samples roots at rate.
func newSampler(rate float64) trace.Sampler {
	var root trace.Sampler
	switch {
	case rate >= 1.0:
		root = trace.AlwaysSample()
	case rate <= 0:
		root = trace.NeverSample()
	default:
		root = trace.TraceIDRatioBased(rate)
	}
	return trace.ParentBased(root)
}

// stripScheme removes http:// or https:// from an endpoint.
func stripScheme(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	return strings.TrimPrefix(endpoint, "http://")
}
