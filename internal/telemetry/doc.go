// Package telemetry provides OpenTelemetry instrumentation for intentd.
//
// # Overview
//
// This package implements distributed tracing and metrics collection using the
// OpenTelemetry Go SDK. It exports telemetry data to an OTEL Collector over
// OTLP (gRPC by default, http/protobuf optionally).
//
// # Usage
//
// Create telemetry instance:
//
//	cfg := telemetry.FromObservability(appCfg.Observability, version)
//	tel, err := telemetry.New(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(ctx)
//
// Use tracer and meter:
//
//	tracer := tel.Tracer("intentd.coordinator")
//	ctx, span := tracer.Start(ctx, "recognize")
//	defer span.End()
//
//	meter := tel.Meter("intentd.pipeline")
//	counter, _ := meter.Int64Counter("pipeline.invocations")
//	counter.Add(ctx, 1)
//
// # Error Handling
//
// Telemetry failures do not crash the daemon. If a provider cannot be
// initialized, the instance degrades gracefully and hands out no-op
// tracers and meters.
//
// # Testing
//
// Use TestTelemetry for tests:
//
//	tt := telemetry.NewTestTelemetry()
//	tracer := tt.Tracer("test")
//	_, span := tracer.Start(ctx, "test-span")
//	span.End()
//	tt.AssertSpanExists(t, "test-span")
package telemetry
