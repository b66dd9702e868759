package flowsheet

import "context"

// UnitType identifies the kind of unit block attached to a flowsheet.
type UnitType string

const (
	UnitTypeFeed           UnitType = "feed"
	UnitTypeNanofiltration UnitType = "nanofiltration"
	UnitTypeReverseOsmosis UnitType = "reverse_osmosis"
	UnitTypePump           UnitType = "pump"
	UnitTypeSplitter       UnitType = "splitter"
	UnitTypeMixer          UnitType = "mixer"
)

// Unit is the interface implemented by every unit block. Units are built
// fully specified except where documented (a splitter carries one free
// split fraction until fixed); Initialize computes outlet states from
// resolved inlet states.
type Unit interface {
	// Name returns the unit's flowsheet-unique name.
	Name() string

	// Type returns the unit type.
	Type() UnitType

	// Ports returns the unit's ports keyed by port name.
	Ports() map[string]*Port

	// Port returns the named port, if present.
	Port(name string) (*Port, bool)

	// DegreesOfFreedom returns the number of unspecified local variables
	// on this unit. Inlet specifications are accounted separately by the
	// flowsheet, which knows which inlets are bound by arcs.
	DegreesOfFreedom() int

	// CalculateScalingFactors returns scaling factors for the unit's
	// stream variables, keyed "unit.port.component" (or "unit.port.T",
	// "unit.port.P"). Factors are the reciprocal of the expected
	// magnitude of each variable.
	CalculateScalingFactors() map[string]float64

	// Initialize computes the unit's outlet states from its resolved
	// inlet states (or from its specification, for source units). It is
	// an error to initialize a unit whose inlets are unresolved.
	Initialize(ctx context.Context) error
}

// InitializationSkipper is implemented by unit variants that cannot be
// initialized through the standard call and must be skipped by the
// sequential initializer while still being wired and scaled normally.
type InitializationSkipper interface {
	// SkipInitialization reports whether Initialize must not be called.
	SkipInitialization() bool
}

// OutletRecomputer is implemented by skipped unit variants whose outlet
// states must still track the propagated inlet during solver sweeps.
// Without it a skipped unit's construction-time outlet presets would
// survive into the converged solution and break the mass balance.
type OutletRecomputer interface {
	// Recompute refreshes the outlet states from the current inlet
	// states. A unit with unresolved inlets leaves its outlets untouched.
	Recompute() error
}
