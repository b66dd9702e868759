// Package telemetry provides observability instrumentation for osmoflow.
//
// The telemetry package integrates structured logging (zerolog), tracing
// (OpenTelemetry), and metrics (Prometheus) into a unified system for
// monitoring flowsheet builds, solves, and costing runs.
//
// # Usage
//
// Initialize telemetry at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceVersion = "1.0.0"
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
// Add telemetry to context:
//
//	ctx = tel.WithContext(ctx)
//
// # Structured Logging
//
// The logger provides component-specific logging with automatic context
// propagation:
//
//	logger := tel.Logger.NewComponentLogger("solver")
//	logger = logger.WithRunID("run-123").WithCase("seawater-bypass")
//	logger.Info("starting solve")
//	logger.WithError(err).Error("solve failed")
//
// Log levels: trace, debug, info, warn, error, fatal
//
// # Tracing
//
// Tracing provides visibility into the build/solve/cost pipeline:
//
//	ctx, span := tel.Tracer.StartBuildSpan(ctx, caseName, nfType, basis)
//	defer span.End()
//
//	if err != nil {
//	    telemetry.RecordError(span, err)
//	}
//
// For solves, WithSolveContext and EndSolveContext bundle the span, the
// case-scoped logger, and the solve counters:
//
//	ctx = telemetry.WithSolveContext(ctx, caseName)
//	res, err := solver.Solve(ctx, fs, opts)
//	telemetry.EndSolveContext(ctx, res.RunID, "converged", res.Iterations, err)
//
// Supported exporters: stdout (development), none (testing).
//
// # Metrics
//
// Prometheus metrics track solver behavior:
//
//	tel.Metrics.RecordSolveStarted("seawater-bypass")
//	tel.Metrics.RecordSolveCompleted("converged", duration, iterations)
//	tel.Metrics.SetLCOW("seawater-bypass", lcow)
//	tel.Metrics.RecordError("solver", "NOT_CONVERGED")
//
// Metrics are exposed via HTTP at /metrics when enabled (default :9090).
package telemetry
