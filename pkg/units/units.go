// Package units implements the unit operation blocks attached to a
// flowsheet: feed sources, membrane separations (nanofiltration, reverse
// osmosis), pumps, splitters, and mixers. Each unit computes its outlet
// states from resolved inlet states; the physics are simplified
// correlation models, not rate-based simulations.
package units

import (
	"github.com/osmoflow/osmoflow/pkg/flowsheet"
	"github.com/osmoflow/osmoflow/pkg/properties"
)

// densityWater is the liquid density used to convert mass flows to
// volumetric flows, kg/m3.
const densityWater = 1000.0

// block carries the state common to every unit model.
type block struct {
	name  string
	utype flowsheet.UnitType
	ports map[string]*flowsheet.Port
	prop  *properties.Package
}

func newBlock(name string, utype flowsheet.UnitType, prop *properties.Package) block {
	return block{
		name:  name,
		utype: utype,
		ports: make(map[string]*flowsheet.Port),
		prop:  prop,
	}
}

// Name returns the unit's flowsheet-unique name.
func (b *block) Name() string {
	return b.name
}

// Type returns the unit type.
func (b *block) Type() flowsheet.UnitType {
	return b.utype
}

// Ports returns the unit's ports keyed by port name.
func (b *block) Ports() map[string]*flowsheet.Port {
	return b.ports
}

// Port returns the named port, if present.
func (b *block) Port(name string) (*flowsheet.Port, bool) {
	p, ok := b.ports[name]
	return p, ok
}

// addPort creates and registers a port on the unit.
func (b *block) addPort(name string, dir flowsheet.PortDirection) *flowsheet.Port {
	p := flowsheet.NewPort(b.name, name, dir, b.prop.Components)
	b.ports[name] = p
	return p
}

// scalingFactors collects the property package's scaling factors for every
// port on the unit.
func (b *block) scalingFactors() map[string]float64 {
	factors := make(map[string]float64)
	for _, p := range b.ports {
		for k, v := range b.prop.ScalingFactors(p.Key()) {
			factors[k] = v
		}
	}
	return factors
}

// requireResolved returns a not-initialized error unless the port holds
// computed values.
func requireResolved(p *flowsheet.Port, op string) error {
	if !p.Resolved {
		return flowsheet.NewModelError(
			"inlet "+p.Key()+" not resolved", nil).
			WithCode(flowsheet.ErrCodeNotInitialized).
			WithUnit(p.Unit).WithOperation(op)
	}
	return nil
}

// volumetricFlow converts a stream's total mass flow to m3/s.
func volumetricFlow(s *flowsheet.StreamState) float64 {
	return s.TotalFlow() / densityWater
}
