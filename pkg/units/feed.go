package units

import (
	"context"

	"github.com/osmoflow/osmoflow/pkg/flowsheet"
	"github.com/osmoflow/osmoflow/pkg/properties"
)

// PortOutlet is the single outlet port of a feed block.
const PortOutlet = "outlet"

// Feed is a source block holding a fully specified feed stream. It has no
// inlets and zero degrees of freedom; Initialize publishes the
// specification on the outlet port.
type Feed struct {
	block
	spec *flowsheet.StreamState
}

// NewFeed creates a feed block specified from the property package's
// default feed composition.
func NewFeed(name string, prop *properties.Package) *Feed {
	f := &Feed{
		block: newBlock(name, flowsheet.UnitTypeFeed, prop),
		spec:  prop.DefaultFeedState(),
	}
	out := f.addPort(PortOutlet, flowsheet.PortOutlet)
	out.Specified = true
	return f
}

// SetSpecification replaces the default feed specification.
func (f *Feed) SetSpecification(s *flowsheet.StreamState) {
	f.spec = s.Clone()
}

// Specification returns a copy of the feed specification.
func (f *Feed) Specification() *flowsheet.StreamState {
	return f.spec.Clone()
}

// DegreesOfFreedom returns 0: a feed is fully specified at construction.
func (f *Feed) DegreesOfFreedom() int {
	return 0
}

// CalculateScalingFactors returns scaling factors for the outlet stream.
func (f *Feed) CalculateScalingFactors() map[string]float64 {
	return f.scalingFactors()
}

// Initialize publishes the feed specification on the outlet port.
func (f *Feed) Initialize(_ context.Context) error {
	f.ports[PortOutlet].SetState(f.spec)
	return nil
}
