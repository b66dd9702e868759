package units

import (
	"context"
	"fmt"

	"github.com/osmoflow/osmoflow/pkg/flowsheet"
	"github.com/osmoflow/osmoflow/pkg/properties"
)

// ROType selects the reverse osmosis model variant.
type ROType string

const (
	// ROZeroDimensional is the 0D finite-difference-free model. Supported
	// for both flow simulation and costing.
	ROZeroDimensional ROType = "0D"

	// ROSeparator is the idealized separator stand-in. Supported for flow
	// simulation only; it has no costing implementation.
	ROSeparator ROType = "Sep"
)

// roWaterFlux is the design permeate water flux of the 0D model,
// m3/(m2 s). Roughly 20 L/(m2 h).
const roWaterFlux = 5.6e-6

const (
	roDefaultRecovery  = 0.5
	roDefaultRejection = 0.99
)

// ReverseOsmosis is the 0D reverse osmosis model: fixed water recovery
// and a single solute rejection applied to every dissolved species. The
// unit operates at the pressure delivered by its upstream high-pressure
// pump.
type ReverseOsmosis struct {
	block
	recovery  float64
	rejection float64
}

// NewReverseOsmosis creates a 0D RO unit.
func NewReverseOsmosis(name string, prop *properties.Package) *ReverseOsmosis {
	ro := &ReverseOsmosis{
		block:     newBlock(name, flowsheet.UnitTypeReverseOsmosis, prop),
		recovery:  roDefaultRecovery,
		rejection: roDefaultRejection,
	}
	ro.addPort(PortInlet, flowsheet.PortInlet)
	ro.addPort(PortPermeate, flowsheet.PortOutlet)
	ro.addPort(PortRetentate, flowsheet.PortOutlet)
	return ro
}

// Recovery returns the water recovery fraction.
func (ro *ReverseOsmosis) Recovery() float64 {
	return ro.recovery
}

// SetRecovery overrides the default water recovery.
func (ro *ReverseOsmosis) SetRecovery(r float64) error {
	if r <= 0 || r >= 1 {
		return flowsheet.NewConfigError(
			fmt.Sprintf("RO recovery %g out of (0,1)", r), nil).
			WithCode(flowsheet.ErrCodeInvalidArgument).WithUnit(ro.name)
	}
	ro.recovery = r
	return nil
}

// DegreesOfFreedom returns 0: recovery and rejection are fixed.
func (ro *ReverseOsmosis) DegreesOfFreedom() int {
	return 0
}

// CalculateScalingFactors returns scaling factors for every port stream.
func (ro *ReverseOsmosis) CalculateScalingFactors() map[string]float64 {
	return ro.scalingFactors()
}

// Initialize computes permeate and retentate from the resolved inlet.
func (ro *ReverseOsmosis) Initialize(_ context.Context) error {
	inlet := ro.ports[PortInlet]
	if err := requireResolved(inlet, "initialize"); err != nil {
		return err
	}

	permeate := flowsheet.NewStreamState(ro.prop.Components)
	retentate := flowsheet.NewStreamState(ro.prop.Components)
	for c, f := range inlet.State.Flows {
		var passed float64
		if c == properties.Water {
			passed = f * ro.recovery
		} else {
			passed = f * (1 - ro.rejection) * ro.recovery
		}
		permeate.Flows[c] = passed
		retentate.Flows[c] = f - passed
	}

	permeate.Temperature = inlet.State.Temperature
	retentate.Temperature = inlet.State.Temperature
	permeate.Pressure = 101325
	retentate.Pressure = inlet.State.Pressure

	ro.ports[PortPermeate].SetState(permeate)
	ro.ports[PortRetentate].SetState(retentate)
	return nil
}

// Area returns the membrane area in m2 implied by the permeate flow and
// the design water flux. Zero before initialization.
func (ro *ReverseOsmosis) Area() float64 {
	permeate := ro.ports[PortPermeate]
	if !permeate.Resolved {
		return 0
	}
	return volumetricFlow(permeate.State) / roWaterFlux
}

// SeparatorReverseOsmosis is the idealized separator stand-in for RO.
// Like the NF separator it is excluded from costing and skipped by the
// sequential initializer, with outlet states preset at construction.
type SeparatorReverseOsmosis struct {
	block
}

// NewSeparatorReverseOsmosis creates a separator RO unit.
func NewSeparatorReverseOsmosis(name string, prop *properties.Package) *SeparatorReverseOsmosis {
	sep := &SeparatorReverseOsmosis{
		block: newBlock(name, flowsheet.UnitTypeReverseOsmosis, prop),
	}
	sep.addPort(PortInlet, flowsheet.PortInlet)
	permeate := sep.addPort(PortPermeate, flowsheet.PortOutlet)
	retentate := sep.addPort(PortRetentate, flowsheet.PortOutlet)

	feed := prop.DefaultFeedState()
	p := flowsheet.NewStreamState(prop.Components)
	r := flowsheet.NewStreamState(prop.Components)
	for c, f := range feed.Flows {
		var passed float64
		if c == properties.Water {
			passed = f * roDefaultRecovery
		} else {
			passed = f * (1 - roDefaultRejection) * roDefaultRecovery
		}
		p.Flows[c] = passed
		r.Flows[c] = f - passed
	}
	p.Temperature, r.Temperature = feed.Temperature, feed.Temperature
	p.Pressure, r.Pressure = feed.Pressure, feed.Pressure
	permeate.SetState(p)
	retentate.SetState(r)

	return sep
}

// DegreesOfFreedom returns 0.
func (sep *SeparatorReverseOsmosis) DegreesOfFreedom() int {
	return 0
}

// CalculateScalingFactors returns scaling factors for every port stream.
func (sep *SeparatorReverseOsmosis) CalculateScalingFactors() map[string]float64 {
	return sep.scalingFactors()
}

// SkipInitialization reports that the separator variant must be skipped by
// the sequential initializer.
func (sep *SeparatorReverseOsmosis) SkipInitialization() bool {
	return true
}

// Initialize is not implemented for the separator variant.
func (sep *SeparatorReverseOsmosis) Initialize(_ context.Context) error {
	return flowsheet.NewModelError(
		"initialize is not implemented for the RO separator model", nil).
		WithCode(flowsheet.ErrCodeUnimplemented).WithUnit(sep.name).WithOperation("initialize")
}

// Recompute enforces the separator's split equations against the current
// inlet, replacing the construction-time presets once the solver has
// propagated a real inlet state. A no-op while the inlet is unresolved.
func (sep *SeparatorReverseOsmosis) Recompute() error {
	inlet := sep.ports[PortInlet]
	if !inlet.Resolved {
		return nil
	}

	p := flowsheet.NewStreamState(sep.prop.Components)
	r := flowsheet.NewStreamState(sep.prop.Components)
	for c, f := range inlet.State.Flows {
		var passed float64
		if c == properties.Water {
			passed = f * roDefaultRecovery
		} else {
			passed = f * (1 - roDefaultRejection) * roDefaultRecovery
		}
		p.Flows[c] = passed
		r.Flows[c] = f - passed
	}
	p.Temperature, r.Temperature = inlet.State.Temperature, inlet.State.Temperature
	p.Pressure = 101325
	r.Pressure = inlet.State.Pressure

	sep.ports[PortPermeate].SetState(p)
	sep.ports[PortRetentate].SetState(r)
	return nil
}
