package units

import (
	"context"
	"fmt"

	"github.com/osmoflow/osmoflow/pkg/flowsheet"
	"github.com/osmoflow/osmoflow/pkg/properties"
)

// Mixer combines N inlet streams into one outlet stream: component-wise
// flow sums, flow-weighted temperature, and the minimum inlet pressure.
// A mixer has zero degrees of freedom.
type Mixer struct {
	block
	inletNames []string
}

// NewMixer creates a mixer with the given inlet names.
func NewMixer(name string, prop *properties.Package, inlets []string) (*Mixer, error) {
	if len(inlets) < 1 {
		return nil, flowsheet.NewConfigError(
			fmt.Sprintf("mixer %s needs at least 1 inlet", name), nil).
			WithCode(flowsheet.ErrCodeInvalidArgument)
	}
	m := &Mixer{
		block:      newBlock(name, flowsheet.UnitTypeMixer, prop),
		inletNames: append([]string(nil), inlets...),
	}
	for _, in := range inlets {
		m.addPort(in, flowsheet.PortInlet)
	}
	m.addPort(PortOutlet, flowsheet.PortOutlet)
	return m, nil
}

// DegreesOfFreedom returns 0: a mixer is determined by its inlets.
func (m *Mixer) DegreesOfFreedom() int {
	return 0
}

// CalculateScalingFactors returns scaling factors for every port stream.
func (m *Mixer) CalculateScalingFactors() map[string]float64 {
	return m.scalingFactors()
}

// Initialize combines the resolved inlet streams into the outlet stream.
func (m *Mixer) Initialize(_ context.Context) error {
	out := flowsheet.NewStreamState(m.prop.Components)
	var totalFlow, weightedTemp float64
	minPressure := 0.0

	for i, name := range m.inletNames {
		inlet := m.ports[name]
		if err := requireResolved(inlet, "initialize"); err != nil {
			return err
		}
		for c, f := range inlet.State.Flows {
			out.Flows[c] += f
		}
		flow := inlet.State.TotalFlow()
		totalFlow += flow
		weightedTemp += flow * inlet.State.Temperature
		if i == 0 || inlet.State.Pressure < minPressure {
			minPressure = inlet.State.Pressure
		}
	}

	if totalFlow > 0 {
		out.Temperature = weightedTemp / totalFlow
	}
	out.Pressure = minPressure
	m.ports[PortOutlet].SetState(out)
	return nil
}

// OutletVolumetricFlow returns the outlet volumetric flow in m3/s, used by
// the mixer cost correlations. Zero if the mixer is not yet initialized.
func (m *Mixer) OutletVolumetricFlow() float64 {
	out := m.ports[PortOutlet]
	if !out.Resolved {
		return 0
	}
	return volumetricFlow(out.State)
}
