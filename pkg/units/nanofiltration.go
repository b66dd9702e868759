package units

import (
	"context"
	"fmt"

	"github.com/osmoflow/osmoflow/pkg/flowsheet"
	"github.com/osmoflow/osmoflow/pkg/properties"
)

// Membrane port names.
const (
	PortPermeate  = "permeate"
	PortRetentate = "retentate"
)

// NFType selects the nanofiltration model variant.
type NFType string

const (
	// NFZeroOrder is the correlation-based zero-order model. Supported for
	// both flow simulation and costing.
	NFZeroOrder NFType = "ZO"

	// NFSeparator is the idealized separator stand-in. Supported for flow
	// simulation only; it has no costing implementation and cannot be
	// initialized through the standard call.
	NFSeparator NFType = "Sep"
)

// nfWaterFlux is the design permeate water flux of the zero-order
// correlation, m3/(m2 s). Roughly 60 L/(m2 h).
const nfWaterFlux = 1.67e-5

// nfDefaultRecovery is the default solvent (water) recovery of the
// zero-order model.
const nfDefaultRecovery = 0.85

// nfRejection holds the observed solute rejections of the zero-order
// correlation per chemistry basis. Multivalent species are rejected
// strongly; monovalent rejections are low and balance electroneutrality.
var nfRejection = map[properties.Basis]map[flowsheet.Component]float64{
	properties.BasisIon: {
		properties.Sodium:    0.10,
		properties.Chloride:  0.15,
		properties.Calcium:   0.79,
		properties.Magnesium: 0.94,
		properties.Sulfate:   0.87,
	},
	properties.BasisSalt: {
		properties.SodiumChloride:    0.10,
		properties.CalciumSulfate:    0.87,
		properties.MagnesiumSulfate:  0.93,
		properties.MagnesiumChloride: 0.94,
	},
}

// ZONanofiltration is the zero-order nanofiltration model: fixed water
// recovery plus per-solute rejection, with permeate discharged at
// atmospheric pressure.
type ZONanofiltration struct {
	block
	recovery  float64
	rejection map[flowsheet.Component]float64
}

// NewZONanofiltration creates a zero-order NF unit for the given basis.
func NewZONanofiltration(name string, prop *properties.Package) (*ZONanofiltration, error) {
	rejection, ok := nfRejection[prop.Basis]
	if !ok {
		return nil, flowsheet.NewConfigError(
			fmt.Sprintf("no NF rejection correlation for basis %s", prop.Basis), nil).
			WithCode(flowsheet.ErrCodeInvalidArgument).WithUnit(name)
	}
	nf := &ZONanofiltration{
		block:     newBlock(name, flowsheet.UnitTypeNanofiltration, prop),
		recovery:  nfDefaultRecovery,
		rejection: rejection,
	}
	nf.addPort(PortInlet, flowsheet.PortInlet)
	nf.addPort(PortPermeate, flowsheet.PortOutlet)
	nf.addPort(PortRetentate, flowsheet.PortOutlet)
	return nf, nil
}

// Recovery returns the solvent recovery fraction.
func (nf *ZONanofiltration) Recovery() float64 {
	return nf.recovery
}

// SetRecovery overrides the default solvent recovery.
func (nf *ZONanofiltration) SetRecovery(r float64) error {
	if r <= 0 || r >= 1 {
		return flowsheet.NewConfigError(
			fmt.Sprintf("NF recovery %g out of (0,1)", r), nil).
			WithCode(flowsheet.ErrCodeInvalidArgument).WithUnit(nf.name)
	}
	nf.recovery = r
	return nil
}

// DegreesOfFreedom returns 0: recovery and rejections are fixed.
func (nf *ZONanofiltration) DegreesOfFreedom() int {
	return 0
}

// CalculateScalingFactors returns scaling factors for every port stream.
func (nf *ZONanofiltration) CalculateScalingFactors() map[string]float64 {
	return nf.scalingFactors()
}

// Initialize computes permeate and retentate from the resolved inlet via
// the recovery/rejection correlation.
func (nf *ZONanofiltration) Initialize(_ context.Context) error {
	inlet := nf.ports[PortInlet]
	if err := requireResolved(inlet, "initialize"); err != nil {
		return err
	}

	permeate := flowsheet.NewStreamState(nf.prop.Components)
	retentate := flowsheet.NewStreamState(nf.prop.Components)
	for c, f := range inlet.State.Flows {
		var passed float64
		if c == properties.Water {
			passed = f * nf.recovery
		} else {
			passed = f * (1 - nf.rejection[c]) * nf.recovery
		}
		permeate.Flows[c] = passed
		retentate.Flows[c] = f - passed
	}

	permeate.Temperature = inlet.State.Temperature
	retentate.Temperature = inlet.State.Temperature
	permeate.Pressure = 101325 // permeate side discharges at atmospheric
	retentate.Pressure = inlet.State.Pressure

	nf.ports[PortPermeate].SetState(permeate)
	nf.ports[PortRetentate].SetState(retentate)
	return nil
}

// Area returns the membrane area in m2 implied by the permeate flow and
// the design water flux. Zero before initialization.
func (nf *ZONanofiltration) Area() float64 {
	permeate := nf.ports[PortPermeate]
	if !permeate.Resolved {
		return 0
	}
	return volumetricFlow(permeate.State) / nfWaterFlux
}

// SeparatorNanofiltration is the idealized separator stand-in for NF: a
// fixed per-component split with no physical model behind it. The variant
// cannot be initialized through the standard call; its outlet states are
// preset at construction from the property package defaults so that
// downstream propagation still has values to carry.
type SeparatorNanofiltration struct {
	block
	splitFractions map[flowsheet.Component]float64
}

// NewSeparatorNanofiltration creates a separator NF unit for the given
// basis. Permeate-side split fractions reuse the zero-order correlation's
// passage values.
func NewSeparatorNanofiltration(name string, prop *properties.Package) (*SeparatorNanofiltration, error) {
	rejection, ok := nfRejection[prop.Basis]
	if !ok {
		return nil, flowsheet.NewConfigError(
			fmt.Sprintf("no NF rejection correlation for basis %s", prop.Basis), nil).
			WithCode(flowsheet.ErrCodeInvalidArgument).WithUnit(name)
	}

	splits := make(map[flowsheet.Component]float64, len(prop.Components))
	for _, c := range prop.Components {
		if c == properties.Water {
			splits[c] = nfDefaultRecovery
		} else {
			splits[c] = (1 - rejection[c]) * nfDefaultRecovery
		}
	}

	sep := &SeparatorNanofiltration{
		block:          newBlock(name, flowsheet.UnitTypeNanofiltration, prop),
		splitFractions: splits,
	}
	sep.addPort(PortInlet, flowsheet.PortInlet)
	permeate := sep.addPort(PortPermeate, flowsheet.PortOutlet)
	retentate := sep.addPort(PortRetentate, flowsheet.PortOutlet)

	// Preset outlet states from the default feed so wiring and scaling
	// work identically to the zero-order variant.
	feed := prop.DefaultFeedState()
	p := flowsheet.NewStreamState(prop.Components)
	r := flowsheet.NewStreamState(prop.Components)
	for c, f := range feed.Flows {
		p.Flows[c] = f * splits[c]
		r.Flows[c] = f * (1 - splits[c])
	}
	p.Temperature, r.Temperature = feed.Temperature, feed.Temperature
	p.Pressure, r.Pressure = feed.Pressure, feed.Pressure
	permeate.SetState(p)
	retentate.SetState(r)

	return sep, nil
}

// DegreesOfFreedom returns 0: all split fractions are fixed.
func (sep *SeparatorNanofiltration) DegreesOfFreedom() int {
	return 0
}

// CalculateScalingFactors returns scaling factors for every port stream.
func (sep *SeparatorNanofiltration) CalculateScalingFactors() map[string]float64 {
	return sep.scalingFactors()
}

// SkipInitialization reports that the separator variant must be skipped by
// the sequential initializer.
func (sep *SeparatorNanofiltration) SkipInitialization() bool {
	return true
}

// Initialize is not implemented for the separator variant.
func (sep *SeparatorNanofiltration) Initialize(_ context.Context) error {
	return flowsheet.NewModelError(
		"initialize is not implemented for the NF separator model", nil).
		WithCode(flowsheet.ErrCodeUnimplemented).WithUnit(sep.name).WithOperation("initialize")
}

// Recompute enforces the separator's split equations against the current
// inlet, replacing the construction-time presets once the solver has
// propagated a real inlet state. A no-op while the inlet is unresolved.
func (sep *SeparatorNanofiltration) Recompute() error {
	inlet := sep.ports[PortInlet]
	if !inlet.Resolved {
		return nil
	}

	p := flowsheet.NewStreamState(sep.prop.Components)
	r := flowsheet.NewStreamState(sep.prop.Components)
	for c, f := range inlet.State.Flows {
		p.Flows[c] = f * sep.splitFractions[c]
		r.Flows[c] = f - p.Flows[c]
	}
	p.Temperature, r.Temperature = inlet.State.Temperature, inlet.State.Temperature
	p.Pressure = 101325
	r.Pressure = inlet.State.Pressure

	sep.ports[PortPermeate].SetState(p)
	sep.ports[PortRetentate].SetState(r)
	return nil
}
