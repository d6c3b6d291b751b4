// Package telemetry provides OpenTelemetry tracing for problemsolver.
//
// Spans are exported over OTLP (gRPC or HTTP/protobuf). Export is disabled
// by default; a disabled or degraded instance hands out no-op tracers so
// instrumentation never fails the pipeline.
//
// # Usage
//
//	cfg := telemetry.NewDefaultConfig()
//	tel, err := telemetry.New(ctx, cfg, logger)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(ctx)
//
//	svc, err := solver.New(store, logger, solver.WithTracer(tel.Tracer(solver.InstrumentationName)))
//
// # Testing
//
//	tt := telemetry.NewTestTelemetry()
//	tt.AssertSpanExists(t, "solver.solve")
package telemetry
