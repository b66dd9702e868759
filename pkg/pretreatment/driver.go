package pretreatment

import (
	"context"

	"github.com/osmoflow/osmoflow/pkg/flowsheet"
	"github.com/osmoflow/osmoflow/pkg/solver"
)

// Result is the outcome of a standalone build-and-solve run.
type Result struct {
	// Flowsheet is the assembled and solved network.
	Flowsheet *flowsheet.Flowsheet

	// Ports are the product and waste boundary ports.
	Ports Ports

	// Solve is the solver outcome.
	Solve *solver.Result
}

// Run assembles a standalone pretreatment flowsheet, expands its arcs,
// verifies zero degrees of freedom, and solves with user scaling. This is
// the packaging around Build used by the command line and by tests.
func Run(ctx context.Context, name string, opts Options, solveOpts solver.Options) (*Result, error) {
	fs := flowsheet.New(name)

	ports, err := Build(ctx, fs, opts)
	if err != nil {
		return nil, err
	}

	fs.ExpandArcs()
	if err := fs.CheckDegreesOfFreedom(); err != nil {
		return nil, err
	}

	res, err := solver.Solve(ctx, fs, solveOpts)
	if err != nil {
		return nil, err
	}

	return &Result{Flowsheet: fs, Ports: ports, Solve: res}, nil
}
