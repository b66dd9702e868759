// Package properties defines the property packages shared by all unit
// models: the component set for a chemistry basis, the default feed
// composition, and the expected magnitudes used for scaling.
package properties

import (
	"fmt"
	"sync"

	"github.com/osmoflow/osmoflow/pkg/flowsheet"
)

// Basis selects the chemistry basis a property package is written in.
type Basis string

const (
	// BasisIon tracks individual seawater ions.
	BasisIon Basis = "ion"

	// BasisSalt tracks dissolved salts as apparent species.
	BasisSalt Basis = "salt"

	// BasisTDS lumps all dissolved solids into a single pseudo-component.
	BasisTDS Basis = "TDS"
)

// Package is a property package: the component set and default state for a
// chemistry basis. Packages are immutable after registration.
type Package struct {
	// Basis is the chemistry basis this package is written in.
	Basis Basis

	// Components is the ordered component set, water last.
	Components []flowsheet.Component

	// FeedMassFractions is the default feed composition. Water's fraction
	// is the remainder to 1.
	FeedMassFractions map[flowsheet.Component]float64

	// FeedMassFlow is the default total feed mass flow in kg/s.
	FeedMassFlow float64

	// FeedTemperature is the default feed temperature in K.
	FeedTemperature float64

	// FeedPressure is the default feed pressure in Pa.
	FeedPressure float64
}

// DefaultFeedState returns a resolved stream state holding the package's
// default feed specification.
func (p *Package) DefaultFeedState() *flowsheet.StreamState {
	s := flowsheet.NewStreamState(p.Components)
	var solutes float64
	for c, frac := range p.FeedMassFractions {
		s.Flows[c] = frac * p.FeedMassFlow
		solutes += frac * p.FeedMassFlow
	}
	s.Flows[Water] = p.FeedMassFlow - solutes
	s.Temperature = p.FeedTemperature
	s.Pressure = p.FeedPressure
	return s
}

// ScalingFactors returns scaling factors for the package's stream
// variables at the given port key prefix. Factors are the reciprocal of
// the default magnitude of each variable.
func (p *Package) ScalingFactors(portKey string) map[string]float64 {
	factors := make(map[string]float64, len(p.Components)+2)
	for _, c := range p.Components {
		magnitude := p.FeedMassFractions[c] * p.FeedMassFlow
		if c == Water || magnitude == 0 {
			magnitude = p.FeedMassFlow
		}
		factors[fmt.Sprintf("%s.%s", portKey, c)] = 1 / magnitude
	}
	factors[portKey+".T"] = 1 / p.FeedTemperature
	factors[portKey+".P"] = 1 / p.FeedPressure
	return factors
}

// Water is the solvent component, present in every basis.
const Water flowsheet.Component = "H2O"

// Ion-basis components.
const (
	Sodium    flowsheet.Component = "Na_+"
	Calcium   flowsheet.Component = "Ca_2+"
	Magnesium flowsheet.Component = "Mg_2+"
	Sulfate   flowsheet.Component = "SO4_2-"
	Chloride  flowsheet.Component = "Cl_-"
)

// Salt-basis components.
const (
	SodiumChloride    flowsheet.Component = "NaCl"
	CalciumSulfate    flowsheet.Component = "CaSO4"
	MagnesiumSulfate  flowsheet.Component = "MgSO4"
	MagnesiumChloride flowsheet.Component = "MgCl2"
)

// TDS-basis pseudo-component.
const TDS flowsheet.Component = "TDS"

var (
	registryMu sync.RWMutex
	registry   = make(map[Basis]*Package)
)

// Register adds a property package to the registry. Registering a basis
// twice is a programming error.
func Register(p *Package) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[p.Basis]; exists {
		panic(fmt.Sprintf("properties: basis %s registered twice", p.Basis))
	}
	registry[p.Basis] = p
}

// Get resolves the property package for the requested chemistry basis.
func Get(basis Basis) (*Package, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[basis]
	if !ok {
		return nil, flowsheet.NewConfigError(
			fmt.Sprintf("unknown property basis %q", basis), nil).
			WithCode(flowsheet.ErrCodeInvalidArgument)
	}
	return p, nil
}

func init() {
	// Standard seawater, per-ion mass fractions.
	Register(&Package{
		Basis: BasisIon,
		Components: []flowsheet.Component{
			Sodium, Calcium, Magnesium, Sulfate, Chloride, Water,
		},
		FeedMassFractions: map[flowsheet.Component]float64{
			Sodium:    1.0556e-2,
			Calcium:   4.0e-4,
			Magnesium: 1.262e-3,
			Sulfate:   2.649e-3,
			Chloride:  1.898e-2,
		},
		FeedMassFlow:    1.0,
		FeedTemperature: 298.15,
		FeedPressure:    101325,
	})

	// Same seawater expressed as apparent salts.
	Register(&Package{
		Basis: BasisSalt,
		Components: []flowsheet.Component{
			SodiumChloride, CalciumSulfate, MagnesiumSulfate, MagnesiumChloride, Water,
		},
		FeedMassFractions: map[flowsheet.Component]float64{
			SodiumChloride:    2.827e-2,
			CalciumSulfate:    1.298e-3,
			MagnesiumSulfate:  1.529e-3,
			MagnesiumChloride: 4.251e-3,
		},
		FeedMassFlow:    1.0,
		FeedTemperature: 298.15,
		FeedPressure:    101325,
	})

	// Lumped dissolved solids, used by the RO stages.
	Register(&Package{
		Basis:      BasisTDS,
		Components: []flowsheet.Component{TDS, Water},
		FeedMassFractions: map[flowsheet.Component]float64{
			TDS: 3.5e-2,
		},
		FeedMassFlow:    1.0,
		FeedTemperature: 298.15,
		FeedPressure:    101325,
	})
}
