package units

import (
	"context"
	"fmt"

	"github.com/osmoflow/osmoflow/pkg/flowsheet"
	"github.com/osmoflow/osmoflow/pkg/properties"
)

// PortInlet is the single inlet port of splitters, pumps, and membranes.
const PortInlet = "inlet"

// Splitter divides one inlet stream across N outlet streams on a
// total-flow basis with equal temperature and pressure on every outlet.
// It carries N-1 free split fractions; each must be fixed before the
// flowsheet is solved, else the system is under-specified.
type Splitter struct {
	block
	outletNames []string
	fractions   map[string]float64
	fixed       map[string]bool
}

// NewSplitter creates a splitter with the given outlet names.
func NewSplitter(name string, prop *properties.Package, outlets []string) (*Splitter, error) {
	if len(outlets) < 2 {
		return nil, flowsheet.NewConfigError(
			fmt.Sprintf("splitter %s needs at least 2 outlets, got %d", name, len(outlets)),
			nil).WithCode(flowsheet.ErrCodeInvalidArgument)
	}
	s := &Splitter{
		block:       newBlock(name, flowsheet.UnitTypeSplitter, prop),
		outletNames: append([]string(nil), outlets...),
		fractions:   make(map[string]float64, len(outlets)),
		fixed:       make(map[string]bool, len(outlets)),
	}
	s.addPort(PortInlet, flowsheet.PortInlet)
	for _, o := range outlets {
		s.addPort(o, flowsheet.PortOutlet)
	}
	return s, nil
}

// FixSplitFraction fixes the split fraction of one outlet. With two
// outlets this removes the splitter's only degree of freedom; the
// remaining outlet takes the residual fraction.
func (s *Splitter) FixSplitFraction(outlet string, fraction float64) error {
	if _, ok := s.ports[outlet]; !ok || outlet == PortInlet {
		return flowsheet.NewConfigError(
			fmt.Sprintf("splitter %s has no outlet %s", s.name, outlet), nil).
			WithCode(flowsheet.ErrCodeNotFound).WithUnit(s.name)
	}
	if fraction < 0 || fraction > 1 {
		return flowsheet.NewConfigError(
			fmt.Sprintf("split fraction %g out of [0,1]", fraction), nil).
			WithCode(flowsheet.ErrCodeInvalidArgument).WithUnit(s.name)
	}

	// The fixed fractions must leave a nonnegative residual for the
	// remaining outlet.
	sum := fraction
	for o := range s.fixed {
		if o != outlet {
			sum += s.fractions[o]
		}
	}
	if sum > 1 {
		return flowsheet.NewConfigError(
			fmt.Sprintf("fixed split fractions sum to %g, over 1", sum), nil).
			WithCode(flowsheet.ErrCodeInvalidArgument).WithUnit(s.name)
	}

	s.fractions[outlet] = fraction
	s.fixed[outlet] = true
	return nil
}

// SplitFraction returns the split fraction assigned to an outlet.
func (s *Splitter) SplitFraction(outlet string) float64 {
	return s.fractions[outlet]
}

// DegreesOfFreedom returns the number of unfixed split fractions. N
// outlets carry N-1 independent fractions.
func (s *Splitter) DegreesOfFreedom() int {
	dof := len(s.outletNames) - 1 - len(s.fixed)
	if dof < 0 {
		dof = 0
	}
	return dof
}

// CalculateScalingFactors returns scaling factors for every port stream.
func (s *Splitter) CalculateScalingFactors() map[string]float64 {
	return s.scalingFactors()
}

// Initialize splits the resolved inlet stream across the outlets. The one
// unfixed outlet, if any, takes the residual fraction.
func (s *Splitter) Initialize(_ context.Context) error {
	if dof := s.DegreesOfFreedom(); dof != 0 {
		return flowsheet.NewModelError(
			fmt.Sprintf("splitter %s has %d unfixed split fractions", s.name, dof), nil).
			WithCode(flowsheet.ErrCodeUnderSpecified).WithUnit(s.name).WithOperation("initialize")
	}
	inlet := s.ports[PortInlet]
	if err := requireResolved(inlet, "initialize"); err != nil {
		return err
	}

	var fixedSum float64
	residualOutlet := ""
	for _, o := range s.outletNames {
		if s.fixed[o] {
			fixedSum += s.fractions[o]
		} else {
			residualOutlet = o
		}
	}
	if residualOutlet != "" {
		s.fractions[residualOutlet] = 1 - fixedSum
	}

	for _, o := range s.outletNames {
		out := inlet.State.Clone()
		for c := range out.Flows {
			out.Flows[c] *= s.fractions[o]
		}
		// equal temperature and pressure on every outlet
		s.ports[o].SetState(out)
	}
	return nil
}
