package units

import (
	"context"
	"fmt"

	"github.com/osmoflow/osmoflow/pkg/flowsheet"
	"github.com/osmoflow/osmoflow/pkg/properties"
)

// pumpDefaultEfficiency is the default isentropic efficiency.
const pumpDefaultEfficiency = 0.75

// Pump raises a stream to a specified outlet pressure. The outlet
// pressure is part of the pump's construction-time specification, so the
// unit carries zero degrees of freedom.
type Pump struct {
	block
	outletPressure float64
	efficiency     float64
}

// NewPump creates a pump with the given outlet pressure in Pa.
func NewPump(name string, prop *properties.Package, outletPressure float64) (*Pump, error) {
	if outletPressure <= 0 {
		return nil, flowsheet.NewConfigError(
			fmt.Sprintf("pump %s outlet pressure %g must be positive", name, outletPressure),
			nil).WithCode(flowsheet.ErrCodeInvalidArgument)
	}
	p := &Pump{
		block:          newBlock(name, flowsheet.UnitTypePump, prop),
		outletPressure: outletPressure,
		efficiency:     pumpDefaultEfficiency,
	}
	p.addPort(PortInlet, flowsheet.PortInlet)
	p.addPort(PortOutlet, flowsheet.PortOutlet)
	return p, nil
}

// OutletPressure returns the specified outlet pressure in Pa.
func (p *Pump) OutletPressure() float64 {
	return p.outletPressure
}

// DegreesOfFreedom returns 0: outlet pressure and efficiency are fixed.
func (p *Pump) DegreesOfFreedom() int {
	return 0
}

// CalculateScalingFactors returns scaling factors for every port stream.
func (p *Pump) CalculateScalingFactors() map[string]float64 {
	return p.scalingFactors()
}

// Initialize passes the resolved inlet through at the specified outlet
// pressure.
func (p *Pump) Initialize(_ context.Context) error {
	inlet := p.ports[PortInlet]
	if err := requireResolved(inlet, "initialize"); err != nil {
		return err
	}
	out := inlet.State.Clone()
	out.Pressure = p.outletPressure
	p.ports[PortOutlet].SetState(out)
	return nil
}

// Power returns the hydraulic shaft power demand in W. Zero before
// initialization or when the pump does not raise pressure.
func (p *Pump) Power() float64 {
	inlet := p.ports[PortInlet]
	if !inlet.Resolved {
		return 0
	}
	deltaP := p.outletPressure - inlet.State.Pressure
	if deltaP <= 0 {
		return 0
	}
	return volumetricFlow(inlet.State) * deltaP / p.efficiency
}
