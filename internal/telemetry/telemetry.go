package telemetry

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Telemetry owns the tracer provider and its shutdown.
//
// Export failures never fail the caller; the instance degrades to no-op
// tracing instead.
type Telemetry struct {
	config *Config
	logger *zap.Logger

	tracerProvider *trace.TracerProvider

	healthy  atomic.Bool
	degraded atomic.Bool

	mu     sync.Mutex
	reason string
}

// New creates Telemetry from cfg. A disabled config yields a no-op instance.
func New(ctx context.Context, cfg *Config, logger *zap.Logger, opts ...TracerProviderOption) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	t := &Telemetry{config: cfg, logger: logger}
	t.healthy.Store(true)

	if !cfg.Enabled {
		return t, nil
	}

	tp, err := newTracerProvider(ctx, cfg, newResource(cfg), opts...)
	if err != nil {
		t.setDegraded("tracer provider failed: %v", err)
		return t, nil
	}
	t.tracerProvider = tp
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return t, nil
}

// Tracer returns a tracer for the instrumentation scope, or a no-op tracer
// when tracing is disabled or degraded.
func (t *Telemetry) Tracer(name string, opts ...oteltrace.TracerOption) oteltrace.Tracer {
	if t == nil || t.tracerProvider == nil || t.degraded.Load() {
		return noop.NewTracerProvider().Tracer(name, opts...)
	}
	return t.tracerProvider.Tracer(name, opts...)
}

// Shutdown flushes pending spans and stops the provider, bounded by the
// configured timeout when ctx has no deadline.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok && t.config != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.Shutdown.Timeout.Duration())
		defer cancel()
	}

	t.healthy.Store(false)
	if t.tracerProvider == nil {
		return nil
	}
	if err := t.tracerProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("trace provider shutdown: %w", err)
	}
	return nil
}

// ForceFlush exports all pending spans.
func (t *Telemetry) ForceFlush(ctx context.Context) error {
	if t == nil || t.tracerProvider == nil {
		return nil
	}
	if err := t.tracerProvider.ForceFlush(ctx); err != nil {
		return fmt.Errorf("trace flush: %w", err)
	}
	return nil
}

// HealthStatus reports telemetry state.
type HealthStatus struct {
	Healthy  bool   `json:"healthy"`
	Degraded bool   `json:"degraded"`
	Reason   string `json:"reason,omitempty"`
}

// Health returns the current telemetry health status.
func (t *Telemetry) Health() HealthStatus {
	if t == nil {
		return HealthStatus{Degraded: true}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return HealthStatus{
		Healthy:  t.healthy.Load(),
		Degraded: t.degraded.Load(),
		Reason:   t.reason,
	}
}

// IsEnabled returns true if tracing is enabled and healthy.
func (t *Telemetry) IsEnabled() bool {
	if t == nil || t.config == nil {
		return false
	}
	return t.config.Enabled && t.healthy.Load() && !t.degraded.Load()
}

func (t *Telemetry) setDegraded(format string, args ...interface{}) {
	reason := fmt.Sprintf(format, args...)
	t.degraded.Store(true)
	t.mu.Lock()
	t.reason = reason
	t.mu.Unlock()
	t.logger.Warn("telemetry degraded", zap.String("reason", reason))
}
