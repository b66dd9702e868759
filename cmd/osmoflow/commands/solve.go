package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/osmoflow/osmoflow/pkg/config"
	"github.com/osmoflow/osmoflow/pkg/flowsheet"
	"github.com/osmoflow/osmoflow/pkg/pretreatment"
	"github.com/osmoflow/osmoflow/pkg/solver"
	"github.com/osmoflow/osmoflow/pkg/telemetry"
)

func newSolveCommand() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Build and solve the pretreatment flowsheet",
		Long: `Build the pretreatment network, expand its arcs, verify zero
degrees of freedom, and run the sequential-modular solve with user
scaling. A non-converged solve is reported as a failure.`,
		Example: `  # Solve the default case
  osmoflow solve

  # Solve a case file and expose Prometheus metrics while running
  osmoflow solve --case seawater.yaml --metrics :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCase()
			if err != nil {
				return err
			}
			res, err := runSolve(cmd.Context(), c, metricsAddr)
			if err != nil {
				return err
			}

			if jsonOutput {
				out, err := json.MarshalIndent(res.Solve, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics", "", "expose Prometheus metrics on this address")

	return cmd
}

// runSolve is the shared build-and-solve path used by solve and watch. It
// owns the telemetry lifecycle for the run; cost keeps telemetry alive
// past the solve and calls solveCase directly.
func runSolve(ctx context.Context, c *config.Case, metricsAddr string) (*pretreatment.Result, error) {
	tel, err := newTelemetry(metricsAddr)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tel.Shutdown(context.Background()) }()

	return solveCase(tel.WithContext(ctx), tel, c)
}

// solveCase builds and solves one case with spans around the build and
// solve phases and metrics recorded at the matching points. The caller
// owns the telemetry lifecycle.
func solveCase(ctx context.Context, tel *telemetry.Telemetry, c *config.Case) (*pretreatment.Result, error) {
	opts := c.PretreatmentOptions()
	logger := tel.Logger.NewComponentLogger("solve").
		WithCase(c.Name).
		WithBasis(string(opts.NFBase))
	logger.Infof("Building pretreatment flowsheet (bypass=%t, nf_type=%s)",
		opts.HasBypass, opts.NFType)

	fs := flowsheet.New(c.Name)

	buildCtx, buildSpan := tel.Tracer.StartBuildSpan(ctx, c.Name, string(opts.NFType), string(opts.NFBase))
	ports, err := pretreatment.Build(buildCtx, fs, opts)
	if err != nil {
		telemetry.RecordError(buildSpan, err)
		buildSpan.End()
		tel.Metrics.RecordBuildCompleted(string(opts.NFType), "failed")
		recordErrorMetrics(tel, err)
		logger.WithError(err).Error("Build failed")
		return nil, err
	}
	telemetry.RecordSuccess(buildSpan)
	buildSpan.End()
	tel.Metrics.RecordBuildCompleted(string(opts.NFType), "succeeded")
	tel.Metrics.SetUnitsBuilt(c.Name, float64(len(fs.UnitNames())))

	fs.ExpandArcs()
	tel.Metrics.SetDegreesOfFreedom(c.Name, float64(fs.DegreesOfFreedom()))
	if err := fs.CheckDegreesOfFreedom(); err != nil {
		recordErrorMetrics(tel, err)
		logger.WithError(err).Error("Flowsheet is not fully specified")
		return nil, err
	}

	solveCtx := telemetry.WithSolveContext(ctx, c.Name)
	res, err := solver.Solve(solveCtx, fs, c.SolverOptions())
	if err != nil {
		// A non-converged solve still carries a partial result with the
		// run ID and iteration count.
		runID := ""
		iterations := 0
		if res != nil {
			runID = res.RunID
			iterations = res.Iterations
		}
		telemetry.EndSolveContext(solveCtx, runID, "failed", iterations, err)
		recordErrorMetrics(tel, err)
		logger.WithError(err).Error("Solve failed")
		return nil, err
	}
	telemetry.EndSolveContext(solveCtx, res.RunID, "converged", res.Iterations, nil)

	product := ports[pretreatment.PortProduct]
	logger.WithRunID(res.RunID).Infof(
		"Solve converged in %d sweeps (residual %.3e, product %.4f kg/s)",
		res.Iterations, res.Residual, product.State.TotalFlow())

	return &pretreatment.Result{Flowsheet: fs, Ports: ports, Solve: res}, nil
}

// recordErrorMetrics feeds the error counters from a classified error.
func recordErrorMetrics(tel *telemetry.Telemetry, err error) {
	var me *flowsheet.ModelError
	if errors.As(err, &me) {
		tel.Metrics.RecordError(string(me.Class), me.Code)
		return
	}
	tel.Metrics.RecordError("unknown", "")
}

// newTelemetry builds telemetry from the global flags. Metrics are only
// enabled when an address is given.
func newTelemetry(metricsAddr string) (*telemetry.Telemetry, error) {
	cfg := telemetry.DefaultConfig()
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.ListenAddress = metricsAddr
	}

	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		return nil, err
	}
	if err := tel.StartMetricsServer(); err != nil {
		return nil, err
	}
	return tel, nil
}
