package flowsheet

import (
	"fmt"
	"math"
	"sort"
)

// Component identifies a chemical species carried by a stream, e.g. "H2O",
// "Na_+", "NaCl". The component set of a stream is fixed by the property
// package that created it.
type Component string

// StreamState holds the resolved state of a material stream: per-component
// mass flows plus temperature and pressure.
type StreamState struct {
	// Flows maps each component to its mass flow in kg/s.
	Flows map[Component]float64 `json:"flows"`

	// Temperature is the stream temperature in K.
	Temperature float64 `json:"temperature"`

	// Pressure is the stream pressure in Pa.
	Pressure float64 `json:"pressure"`
}

// NewStreamState creates an empty stream state over the given components.
func NewStreamState(components []Component) *StreamState {
	flows := make(map[Component]float64, len(components))
	for _, c := range components {
		flows[c] = 0
	}
	return &StreamState{Flows: flows}
}

// Clone returns a deep copy of the stream state.
func (s *StreamState) Clone() *StreamState {
	flows := make(map[Component]float64, len(s.Flows))
	for c, f := range s.Flows {
		flows[c] = f
	}
	return &StreamState{
		Flows:       flows,
		Temperature: s.Temperature,
		Pressure:    s.Pressure,
	}
}

// TotalFlow returns the total mass flow in kg/s.
func (s *StreamState) TotalFlow() float64 {
	var total float64
	for _, f := range s.Flows {
		total += f
	}
	return total
}

// Components returns the stream's component set in deterministic order.
func (s *StreamState) Components() []Component {
	comps := make([]Component, 0, len(s.Flows))
	for c := range s.Flows {
		comps = append(comps, c)
	}
	sort.Slice(comps, func(i, j int) bool { return comps[i] < comps[j] })
	return comps
}

// MaxDelta returns the largest absolute component-flow difference between
// two states. Used by the solver as a convergence residual.
func (s *StreamState) MaxDelta(other *StreamState) float64 {
	var max float64
	for c, f := range s.Flows {
		d := math.Abs(f - other.Flows[c])
		if d > max {
			max = d
		}
	}
	return max
}

// PortDirection distinguishes unit inlets from outlets.
type PortDirection string

const (
	// PortInlet marks a port that receives material from an upstream unit.
	PortInlet PortDirection = "inlet"

	// PortOutlet marks a port that supplies material to a downstream unit.
	PortOutlet PortDirection = "outlet"
)

// Port is a named connection point on a unit block. An arc joins one unit's
// outlet port to another unit's inlet port. A port's state is resolved once
// its owning unit has been initialized (outlets) or once state has been
// propagated into it along an expanded arc (inlets).
type Port struct {
	// Name is the port name, unique within the owning unit ("inlet",
	// "permeate", "bypass", ...).
	Name string `json:"name"`

	// Unit is the name of the owning unit block.
	Unit string `json:"unit"`

	// Direction is the port direction.
	Direction PortDirection `json:"direction"`

	// State is the stream state held at this port.
	State *StreamState `json:"state"`

	// Resolved reports whether State holds computed values.
	Resolved bool `json:"resolved"`

	// Specified reports whether the port's state was fixed externally (a
	// feed specification). Specified inlets contribute no degrees of
	// freedom even without an arc.
	Specified bool `json:"specified"`
}

// NewPort creates a port owned by the named unit over the given components.
func NewPort(unit, name string, dir PortDirection, components []Component) *Port {
	return &Port{
		Name:      name,
		Unit:      unit,
		Direction: dir,
		State:     NewStreamState(components),
	}
}

// Key returns the port's flowsheet-unique key, "unit.port".
func (p *Port) Key() string {
	return fmt.Sprintf("%s.%s", p.Unit, p.Name)
}

// SetState replaces the port state and marks the port resolved.
func (p *Port) SetState(s *StreamState) {
	p.State = s.Clone()
	p.Resolved = true
}
