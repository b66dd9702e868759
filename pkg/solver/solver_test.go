package solver

import (
	"context"
	"math"
	"testing"

	"github.com/osmoflow/osmoflow/pkg/flowsheet"
	"github.com/osmoflow/osmoflow/pkg/properties"
	"github.com/osmoflow/osmoflow/pkg/units"
)

// buildTrain assembles feed -> pump -> RO with arcs declared but not
// expanded.
func buildTrain(t *testing.T) (*flowsheet.Flowsheet, *units.ReverseOsmosis) {
	t.Helper()
	prop, err := properties.Get(properties.BasisIon)
	if err != nil {
		t.Fatal(err)
	}

	fs := flowsheet.New("train")
	feed := units.NewFeed("feed", prop)
	pump, err := units.NewPump("pump_RO", prop, 50e5)
	if err != nil {
		t.Fatal(err)
	}
	ro := units.NewReverseOsmosis("RO", prop)

	if err := fs.Attach(flowsheet.UnitFeed, feed); err != nil {
		t.Fatal(err)
	}
	if err := fs.Attach(flowsheet.UnitPumpRO, pump); err != nil {
		t.Fatal(err)
	}
	if err := fs.Attach(flowsheet.UnitRO, ro); err != nil {
		t.Fatal(err)
	}

	feedOut, _ := feed.Port(units.PortOutlet)
	pumpIn, _ := pump.Port(units.PortInlet)
	pumpOut, _ := pump.Port(units.PortOutlet)
	roIn, _ := ro.Port(units.PortInlet)

	if _, err := fs.Connect("feed_to_pump", feedOut, pumpIn); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Connect("pump_to_ro", pumpOut, roIn); err != nil {
		t.Fatal(err)
	}

	fs.CalculateScalingFactors(feed, pump, ro)
	return fs, ro
}

func TestSolve_Converges(t *testing.T) {
	fs, ro := buildTrain(t)
	fs.ExpandArcs()

	res, err := Solve(context.Background(), fs, Options{})
	if err != nil {
		t.Fatalf("Expected solve to converge, got: %v", err)
	}

	if !res.Converged {
		t.Error("Expected converged result")
	}
	if res.RunID == "" {
		t.Error("Expected a run ID")
	}
	if res.Iterations < 2 {
		t.Errorf("Expected at least 2 sweeps, got %d", res.Iterations)
	}
	if res.Residual > 1e-8 {
		t.Errorf("Expected residual within tolerance, got %g", res.Residual)
	}

	permeate, _ := ro.Port(units.PortPermeate)
	if !permeate.Resolved {
		t.Fatal("Expected RO permeate resolved after solve")
	}
	// half the feed water passes the membrane
	prop, _ := properties.Get(properties.BasisIon)
	want := prop.DefaultFeedState().Flows[properties.Water] * ro.Recovery()
	if got := permeate.State.Flows[properties.Water]; math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected permeate water flow %g, got %g", want, got)
	}
	if ro.Area() == 0 {
		t.Error("Expected nonzero membrane area after solve")
	}
}

func TestSolve_RequiresExpandedArcs(t *testing.T) {
	fs, _ := buildTrain(t)

	_, err := Solve(context.Background(), fs, Options{})
	if err == nil {
		t.Fatal("Expected error solving with unexpanded arcs")
	}
}

func TestSolve_RequiresZeroDegreesOfFreedom(t *testing.T) {
	prop, err := properties.Get(properties.BasisIon)
	if err != nil {
		t.Fatal(err)
	}
	fs := flowsheet.New("dangling")
	ro := units.NewReverseOsmosis("RO", prop)
	if err := fs.Attach(flowsheet.UnitRO, ro); err != nil {
		t.Fatal(err)
	}

	_, err = Solve(context.Background(), fs, Options{})
	if err == nil {
		t.Fatal("Expected error for unbound inlet")
	}
	if !flowsheet.IsUnderSpecified(err) {
		t.Errorf("Expected UNDER_SPECIFIED, got: %v", err)
	}
}

func TestSolve_NonConvergence(t *testing.T) {
	fs, _ := buildTrain(t)
	fs.ExpandArcs()

	// one sweep cannot settle the residual
	_, err := Solve(context.Background(), fs, Options{MaxIterations: 1})
	if err == nil {
		t.Fatal("Expected non-convergence error")
	}
	if !flowsheet.IsNotConverged(err) {
		t.Errorf("Expected NOT_CONVERGED, got: %v", err)
	}
}

func TestSolve_SuppressFailure(t *testing.T) {
	fs, _ := buildTrain(t)
	fs.ExpandArcs()

	res, err := Solve(context.Background(), fs, Options{MaxIterations: 1, SuppressFailure: true})
	if err != nil {
		t.Fatalf("Expected suppressed failure, got: %v", err)
	}
	if res.Converged {
		t.Error("Expected non-converged result")
	}
	if res.Iterations != 1 {
		t.Errorf("Expected 1 iteration, got %d", res.Iterations)
	}
}

func TestSolve_Cancellation(t *testing.T) {
	fs, _ := buildTrain(t)
	fs.ExpandArcs()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Solve(ctx, fs, Options{})
	if err == nil {
		t.Fatal("Expected cancellation error")
	}
}
