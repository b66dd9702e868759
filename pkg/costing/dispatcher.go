package costing

import (
	"fmt"

	"github.com/osmoflow/osmoflow/pkg/flowsheet"
	"github.com/osmoflow/osmoflow/pkg/units"
)

// Kind identifies which cost correlation a plan entry applies.
type Kind string

const (
	KindNanofiltration     Kind = "nanofiltration"
	KindReverseOsmosis     Kind = "reverse_osmosis"
	KindHighPressurePump   Kind = "high_pressure_pump"
	KindLimeSofteningMixer Kind = "lime_softening_mixer"
	KindChlorinationMixer  Kind = "chlorination_mixer"
)

// PlanEntry names one unit to cost and the correlation to use. Costing is
// driven by an explicit plan rather than probing the flowsheet for units
// at cost time, so a caller can always see and adjust exactly what will
// be costed.
type PlanEntry struct {
	Unit string `json:"unit"`
	Kind Kind   `json:"kind"`
}

// planOrder fixes the reporting order of the costable reserved names.
var planOrder = []PlanEntry{
	{flowsheet.UnitNF, KindNanofiltration},
	{flowsheet.UnitRO, KindReverseOsmosis},
	{flowsheet.UnitPumpRO, KindHighPressurePump},
	{flowsheet.UnitPumpRO2, KindHighPressurePump},
	{flowsheet.UnitRO2, KindReverseOsmosis},
	{flowsheet.UnitSofteningMixer, KindLimeSofteningMixer},
	{flowsheet.UnitChlorinationMixer, KindChlorinationMixer},
}

// DefaultPlan returns the plan covering every costable reserved unit name
// present on the flowsheet. Units attached under other names are not
// costed unless the caller adds them explicitly.
func DefaultPlan(fs *flowsheet.Flowsheet) []PlanEntry {
	plan := make([]PlanEntry, 0, len(planOrder))
	for _, e := range planOrder {
		if fs.HasUnit(e.Unit) {
			plan = append(plan, e)
		}
	}
	return plan
}

// Apply costs every unit named in the plan, levelizes against the product
// port, and aggregates. A separator membrane variant anywhere in the plan
// fails the whole call before any aggregation.
func Apply(fs *flowsheet.Flowsheet, model CostModel, product *flowsheet.Port, plan []PlanEntry) (*Breakdown, *SystemCosts, error) {
	b := &Breakdown{}

	for _, entry := range plan {
		u, ok := fs.Unit(entry.Unit)
		if !ok {
			return nil, nil, flowsheet.NewConfigError(
				fmt.Sprintf("plan names unit %s which is not on the flowsheet", entry.Unit), nil).
				WithCode(flowsheet.ErrCodeNotFound).WithUnit(entry.Unit)
		}

		c, err := costUnit(model, u, entry)
		if err != nil {
			return nil, nil, err
		}
		b.add(entry.Unit, c)
	}

	awp, err := model.AnnualWaterProduction(product)
	if err != nil {
		return nil, nil, err
	}
	b.AnnualWaterProduction = awp

	sc, err := model.Aggregate(b)
	if err != nil {
		return nil, nil, err
	}
	return b, sc, nil
}

// costUnit dispatches one plan entry to the matching cost model method.
// The separator variants are distinct types with no corresponding method,
// so they surface here as unimplemented.
func costUnit(model CostModel, u flowsheet.Unit, entry PlanEntry) (UnitCost, error) {
	switch entry.Kind {
	case KindNanofiltration:
		switch nf := u.(type) {
		case *units.ZONanofiltration:
			return model.NanofiltrationCost(nf)
		case *units.SeparatorNanofiltration:
			return UnitCost{}, flowsheet.NewModelError(
				"costing is not implemented for the NF separator model", nil).
				WithCode(flowsheet.ErrCodeUnimplemented).WithUnit(entry.Unit).WithOperation("cost")
		}
	case KindReverseOsmosis:
		switch ro := u.(type) {
		case *units.ReverseOsmosis:
			return model.ReverseOsmosisCost(ro)
		case *units.SeparatorReverseOsmosis:
			return UnitCost{}, flowsheet.NewModelError(
				"costing is not implemented for the RO separator model", nil).
				WithCode(flowsheet.ErrCodeUnimplemented).WithUnit(entry.Unit).WithOperation("cost")
		}
	case KindHighPressurePump:
		if p, ok := u.(*units.Pump); ok {
			return model.PumpCost(p, PumpHighPressure)
		}
	case KindLimeSofteningMixer:
		if m, ok := u.(*units.Mixer); ok {
			return model.MixerCost(m, MixerLimeSoftening)
		}
	case KindChlorinationMixer:
		if m, ok := u.(*units.Mixer); ok {
			return model.MixerCost(m, MixerChlorination)
		}
	default:
		return UnitCost{}, flowsheet.NewConfigError(
			fmt.Sprintf("unknown cost kind %q", entry.Kind), nil).
			WithCode(flowsheet.ErrCodeInvalidArgument).WithUnit(entry.Unit)
	}

	return UnitCost{}, flowsheet.NewConfigError(
		fmt.Sprintf("unit %s does not match cost kind %s", entry.Unit, entry.Kind), nil).
		WithCode(flowsheet.ErrCodeInvalidArgument).WithUnit(entry.Unit).WithOperation("cost")
}
