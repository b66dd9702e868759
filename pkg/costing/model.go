// Package costing assigns capital and operating costs to the costable
// unit blocks of a solved flowsheet and aggregates them into system-level
// figures, ending in the levelized cost of water (LCOW).
//
// Cost model methods take the concrete costable unit types. The separator
// membrane variants have no costing implementation, so they cannot be
// passed to a cost model at all; the dispatcher rejects them before any
// aggregation happens.
package costing

import (
	"github.com/osmoflow/osmoflow/pkg/flowsheet"
	"github.com/osmoflow/osmoflow/pkg/units"
)

// UnitCost is the cost assigned to a single unit block: capital in $ and
// operating in $/year.
type UnitCost struct {
	Capital   float64 `json:"capital"`
	Operating float64 `json:"operating"`
}

// PumpClass selects the pump cost correlation.
type PumpClass string

const (
	// PumpHighPressure is the correlation for RO feed pumps.
	PumpHighPressure PumpClass = "high_pressure"

	// PumpLowPressure is the correlation for transfer pumps.
	PumpLowPressure PumpClass = "low_pressure"
)

// MixerClass selects the chemical-addition mixer cost correlation.
type MixerClass string

const (
	// MixerLimeSoftening is the lime softening pretreatment mixer.
	MixerLimeSoftening MixerClass = "lime_softening"

	// MixerChlorination is the sodium hypochlorite posttreatment mixer.
	MixerChlorination MixerClass = "naocl_mixer"
)

// Breakdown holds the per-unit costs computed by a cost model, keyed by
// the unit's flowsheet name, plus the annual water production used to
// levelize them. Units absent from the map contribute zero; lookups never
// mutate the breakdown.
type Breakdown struct {
	Units map[string]UnitCost `json:"units"`

	// AnnualWaterProduction is the levelization basis in m3/year.
	AnnualWaterProduction float64 `json:"annual_water_production"`
}

// Unit returns the cost recorded for the named unit, or a zero cost if
// the unit was never costed.
func (b *Breakdown) Unit(name string) UnitCost {
	if b == nil || b.Units == nil {
		return UnitCost{}
	}
	return b.Units[name]
}

// add records a unit cost under the given flowsheet name.
func (b *Breakdown) add(name string, c UnitCost) {
	if b.Units == nil {
		b.Units = make(map[string]UnitCost)
	}
	b.Units[name] = c
}

// SystemCosts is the flowsheet-level cost summary produced by
// aggregation.
type SystemCosts struct {
	// CapitalTotal is the direct capital cost of all costed units, $.
	CapitalTotal float64 `json:"capital_total"`

	// InvestmentTotal is direct plus indirect capital, $.
	InvestmentTotal float64 `json:"investment_total"`

	// OperatingTotal is the total operating cost, $/year.
	OperatingTotal float64 `json:"operating_total"`

	// OperatingMLC is the maintenance, labor and chemical share of the
	// operating cost, $/year.
	OperatingMLC float64 `json:"operating_mlc"`

	// AnnualWaterProduction is the levelization basis in m3/year.
	AnnualWaterProduction float64 `json:"annual_water_production"`

	// CapitalRecoveryFactor annualizes the investment, 1/year.
	CapitalRecoveryFactor float64 `json:"capital_recovery_factor"`

	// LCOW is the levelized cost of water, $/m3.
	LCOW float64 `json:"lcow"`
}

// CostModel computes unit and system costs. Implementations hold the
// financial assumptions; the dispatcher decides which units to cost.
type CostModel interface {
	// NanofiltrationCost costs a zero-order NF unit from its membrane area.
	NanofiltrationCost(nf *units.ZONanofiltration) (UnitCost, error)

	// ReverseOsmosisCost costs a 0D RO stage from its membrane area.
	ReverseOsmosisCost(ro *units.ReverseOsmosis) (UnitCost, error)

	// PumpCost costs a pump from its shaft power.
	PumpCost(p *units.Pump, class PumpClass) (UnitCost, error)

	// MixerCost costs a chemical-addition mixer from its outlet flow.
	MixerCost(m *units.Mixer, class MixerClass) (UnitCost, error)

	// AnnualWaterProduction converts a resolved product port into the
	// levelization basis, m3/year.
	AnnualWaterProduction(product *flowsheet.Port) (float64, error)

	// Aggregate rolls a breakdown up into system costs.
	Aggregate(b *Breakdown) (*SystemCosts, error)
}
