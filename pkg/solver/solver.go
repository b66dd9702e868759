// Package solver runs the sequential-modular solve of an assembled
// flowsheet. The network is acyclic, so the solve is a small number of
// sweeps in flow order until stream residuals settle; any non-converged
// result is surfaced as a hard failure, never retried.
package solver

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/osmoflow/osmoflow/pkg/flowsheet"
)

// ScalingMode selects how residuals are scaled during the solve.
type ScalingMode string

const (
	// ScalingUser scales each residual by the flowsheet's computed scaling
	// factor for the variable.
	ScalingUser ScalingMode = "user"

	// ScalingNone leaves residuals unscaled.
	ScalingNone ScalingMode = "none"
)

// Options configures a solve.
type Options struct {
	// Scaling selects residual scaling. Defaults to ScalingUser.
	Scaling ScalingMode

	// Tolerance is the convergence tolerance on the largest scaled stream
	// residual. Defaults to 1e-8.
	Tolerance float64

	// MaxIterations bounds the number of sweeps. Defaults to 25.
	MaxIterations int

	// FailOnNonConverge surfaces a non-converged solve as an error.
	// Defaults to true; set SuppressFailure to disable.
	SuppressFailure bool
}

func (o *Options) withDefaults() Options {
	opts := *o
	if opts.Scaling == "" {
		opts.Scaling = ScalingUser
	}
	if opts.Tolerance == 0 {
		opts.Tolerance = 1e-8
	}
	if opts.MaxIterations == 0 {
		opts.MaxIterations = 25
	}
	return opts
}

// Result describes a completed solve.
type Result struct {
	// RunID is the unique identifier of this solve.
	RunID string `json:"run_id"`

	// Converged reports whether the residual dropped below tolerance.
	Converged bool `json:"converged"`

	// Iterations is the number of sweeps performed.
	Iterations int `json:"iterations"`

	// Residual is the final largest scaled stream residual.
	Residual float64 `json:"residual"`

	// Duration is the wall-clock solve time.
	Duration time.Duration `json:"duration"`
}

// CheckDegreesOfFreedom verifies that the flowsheet has exactly zero
// remaining degrees of freedom, as required before any solve attempt.
func CheckDegreesOfFreedom(fs *flowsheet.Flowsheet) error {
	return fs.CheckDegreesOfFreedom()
}

// Solve performs the sequential-modular solve. The flowsheet must already
// have its arcs expanded and its degrees of freedom checked; Solve
// re-verifies both before sweeping.
func Solve(ctx context.Context, fs *flowsheet.Flowsheet, opts Options) (*Result, error) {
	o := opts.withDefaults()

	for _, a := range fs.Arcs() {
		if !a.Expanded {
			return nil, flowsheet.NewModelError(
				fmt.Sprintf("arc %s has not been expanded", a.Name), nil).
				WithCode(flowsheet.ErrCodeValidation)
		}
	}
	if err := fs.CheckDegreesOfFreedom(); err != nil {
		return nil, err
	}

	graph, err := flowsheet.NewGraphBuilder().BuildGraph(fs)
	if err != nil {
		return nil, err
	}

	result := &Result{RunID: uuid.New().String()}
	start := time.Now()

	for result.Iterations < o.MaxIterations {
		select {
		case <-ctx.Done():
			return nil, flowsheet.NewSolverError("solve cancelled", ctx.Err())
		default:
		}

		residual, err := sweep(ctx, fs, graph, o)
		if err != nil {
			return nil, err
		}
		result.Iterations++
		result.Residual = residual

		if residual <= o.Tolerance {
			result.Converged = true
			break
		}
	}

	result.Duration = time.Since(start)

	if !result.Converged && !o.SuppressFailure {
		return result, flowsheet.NewSolverError(
			fmt.Sprintf("solve did not converge after %d iterations (residual %.3e)",
				result.Iterations, result.Residual), nil).
			WithCode(flowsheet.ErrCodeNotConverged)
	}
	return result, nil
}

// sweep performs one pass over the flowsheet in flow order, propagating
// each arc and recomputing each unit, and returns the largest scaled
// stream residual observed across the arcs.
func sweep(ctx context.Context, fs *flowsheet.Flowsheet, graph *flowsheet.FlowGraph, o Options) (float64, error) {
	var residual float64

	for _, level := range graph.Levels {
		for _, name := range level {
			u, ok := fs.Unit(name)
			if !ok {
				return 0, flowsheet.NewModelError(
					fmt.Sprintf("unit %s not on flowsheet", name), nil).
					WithCode(flowsheet.ErrCodeNotFound)
			}

			for _, arc := range fs.Arcs() {
				if arc.Destination.Unit != name {
					continue
				}
				if r := arcResidual(fs, arc, o); r > residual {
					residual = r
				}
				if err := flowsheet.PropagateState(arc); err != nil {
					return 0, err
				}
			}

			if skipper, ok := u.(flowsheet.InitializationSkipper); ok && skipper.SkipInitialization() {
				// Skipped variants still enforce their split equations
				// against the propagated inlet.
				if rc, ok := u.(flowsheet.OutletRecomputer); ok {
					if err := rc.Recompute(); err != nil {
						return 0, err
					}
				}
				continue
			}
			if err := u.Initialize(ctx); err != nil {
				return 0, err
			}
		}
	}

	return residual, nil
}

// arcResidual measures the scaled mismatch between an arc's source state
// and the state currently held at its destination.
func arcResidual(fs *flowsheet.Flowsheet, arc *flowsheet.Arc, o Options) float64 {
	if !arc.Source.Resolved || !arc.Destination.Resolved {
		// First sweep; treat as unconverged but measurable next pass.
		return math.Inf(1)
	}
	var max float64
	for c, f := range arc.Source.State.Flows {
		d := math.Abs(f - arc.Destination.State.Flows[c])
		if o.Scaling == ScalingUser {
			d *= fs.ScalingFactor(fmt.Sprintf("%s.%s", arc.Destination.Key(), c))
		}
		if d > max {
			max = d
		}
	}
	return max
}
