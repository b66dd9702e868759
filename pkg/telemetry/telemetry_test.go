package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/trace"
)

func testTelemetry(t *testing.T) *Telemetry {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Tracing.Enabled = true
	cfg.Tracing.Exporter = "none"
	cfg.Metrics.Enabled = true

	tel, err := NewTelemetry(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })
	return tel
}

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	return testutil.ToFloat64(c)
}

func TestSolveContext_RecordsLifecycle(t *testing.T) {
	tel := testTelemetry(t)
	ctx := tel.WithContext(context.Background())

	sctx := WithSolveContext(ctx, "seawater")

	if got := counterValue(t, tel.Metrics.solvesStarted.WithLabelValues("seawater")); got != 1 {
		t.Errorf("Expected 1 started solve, got %g", got)
	}
	if _, ok := sctx.Value(solveSpanKey{}).(trace.Span); !ok {
		t.Fatal("Expected a solve span stored in the context")
	}
	if _, ok := sctx.Value(solveTimerKey{}).(*Timer); !ok {
		t.Fatal("Expected a solve timer stored in the context")
	}

	EndSolveContext(sctx, "run-1", "converged", 3, nil)

	if got := counterValue(t, tel.Metrics.solvesCompleted.WithLabelValues("converged")); got != 1 {
		t.Errorf("Expected 1 converged completion, got %g", got)
	}
}

func TestSolveContext_RecordsFailureStatus(t *testing.T) {
	tel := testTelemetry(t)
	ctx := tel.WithContext(context.Background())

	sctx := WithSolveContext(ctx, "seawater")
	// a solve that never produced a run ID still completes the context
	EndSolveContext(sctx, "", "failed", 25, errors.New("did not converge"))

	if got := counterValue(t, tel.Metrics.solvesCompleted.WithLabelValues("failed")); got != 1 {
		t.Errorf("Expected 1 failed completion, got %g", got)
	}
	if got := counterValue(t, tel.Metrics.solvesCompleted.WithLabelValues("converged")); got != 0 {
		t.Errorf("Expected no converged completions, got %g", got)
	}
}

func TestSolveContext_NoTelemetryIsNoOp(t *testing.T) {
	ctx := context.Background()

	sctx := WithSolveContext(ctx, "seawater")
	if sctx != ctx {
		t.Error("Expected the context unchanged without telemetry")
	}
	// must not panic
	EndSolveContext(sctx, "run-1", "converged", 1, nil)
}

func TestStartOperation_WithTelemetry(t *testing.T) {
	tel := testTelemetry(t)
	ctx := tel.WithContext(context.Background())

	op := StartOperation(ctx, "flowsheet.cost", AttrCaseName.String("seawater"))
	if op.Span == nil {
		t.Fatal("Expected a span on the instrumented operation")
	}
	if op.Logger == nil {
		t.Fatal("Expected a logger on the instrumented operation")
	}
	op.End(errors.New("costing failed"))
}

func TestStartOperation_WithoutTelemetry(t *testing.T) {
	op := StartOperation(context.Background(), "flowsheet.cost")
	if op.Logger == nil {
		t.Fatal("Expected a fallback logger without telemetry")
	}
	// nil span, must not panic
	op.End(nil)
}

func TestMetrics_CostingAndErrors(t *testing.T) {
	tel := testTelemetry(t)

	tel.Metrics.RecordCostingCompleted("succeeded")
	tel.Metrics.SetLCOW("seawater", 1.234)
	tel.Metrics.RecordError("solver", "NOT_CONVERGED")
	tel.Metrics.RecordError("config", "")

	if got := counterValue(t, tel.Metrics.costingsCompleted.WithLabelValues("succeeded")); got != 1 {
		t.Errorf("Expected 1 costing run, got %g", got)
	}
	if got := counterValue(t, tel.Metrics.lcow.WithLabelValues("seawater")); got != 1.234 {
		t.Errorf("Expected LCOW gauge 1.234, got %g", got)
	}
	if got := counterValue(t, tel.Metrics.errorsByClass.WithLabelValues("solver")); got != 1 {
		t.Errorf("Expected 1 solver error, got %g", got)
	}
	if got := counterValue(t, tel.Metrics.errorsByCode.WithLabelValues("NOT_CONVERGED")); got != 1 {
		t.Errorf("Expected 1 NOT_CONVERGED error, got %g", got)
	}
	// empty codes are not counted by code
	if got := counterValue(t, tel.Metrics.errorsByClass.WithLabelValues("config")); got != 1 {
		t.Errorf("Expected 1 config error, got %g", got)
	}
}

func TestMetrics_DisabledIsNoOp(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{Enabled: false})
	if err != nil {
		t.Fatal(err)
	}

	// every recorder must tolerate the disabled instance
	m.RecordSolveStarted("seawater")
	m.RecordSolveCompleted("converged", time.Second, 3)
	m.RecordBuildCompleted("ZO", "succeeded")
	m.SetUnitsBuilt("seawater", 4)
	m.SetDegreesOfFreedom("seawater", 0)
	m.RecordCostingCompleted("succeeded")
	m.SetLCOW("seawater", 1.0)
	m.RecordError("solver", "NOT_CONVERGED")
}
