package costing

import (
	"fmt"
	"math"

	"github.com/osmoflow/osmoflow/pkg/flowsheet"
	"github.com/osmoflow/osmoflow/pkg/units"
)

const (
	hoursPerYear    = 8760.0
	secondsPerHour  = 3600.0
	densityWaterKgM3 = 1000.0
)

// mixerParams are the parameters of a chemical-addition mixer cost
// correlation: a power law on outlet volumetric flow in m3/h for capital,
// and a dose times reagent price for operating cost.
type mixerParams struct {
	capitalBase     float64 // $ at 1 m3/h
	capitalExponent float64
	dose            float64 // reagent dose, kg per m3 treated
	reagentPrice    float64 // $/kg
}

// Financials is the default cost model. All assumptions are exported so a
// case file can override them before costing.
type Financials struct {
	// FactorTotalInvestment converts direct capital to total investment.
	FactorTotalInvestment float64

	// FactorMLC is the maintenance, labor and chemical operating cost as a
	// fraction of total investment, per year.
	FactorMLC float64

	// FactorMembraneReplacement is the annual membrane replacement rate as
	// a fraction of membrane capital.
	FactorMembraneReplacement float64

	// CapitalRecoveryFactor annualizes investment, 1/year.
	CapitalRecoveryFactor float64

	// LoadFactor is the fraction of the year the plant operates.
	LoadFactor float64

	// ElectricityPrice in $/kWh.
	ElectricityPrice float64

	// NFMembranePrice and ROMembranePrice in $/m2.
	NFMembranePrice float64
	ROMembranePrice float64

	// HighPressurePumpPrice in $/W of shaft power.
	HighPressurePumpPrice float64

	// LowPressurePumpPrice in $ per L/s of pumped flow.
	LowPressurePumpPrice float64

	mixers map[MixerClass]mixerParams
}

// DefaultFinancials returns the standard seawater RO financial
// assumptions.
func DefaultFinancials() *Financials {
	return &Financials{
		FactorTotalInvestment:     2.0,
		FactorMLC:                 0.03,
		FactorMembraneReplacement: 0.1,
		CapitalRecoveryFactor:     0.1,
		LoadFactor:                0.9,
		ElectricityPrice:          0.07,
		NFMembranePrice:           15,
		ROMembranePrice:           30,
		HighPressurePumpPrice:     1.908,
		LowPressurePumpPrice:      889,
		mixers: map[MixerClass]mixerParams{
			MixerLimeSoftening: {
				capitalBase:     16972,
				capitalExponent: 0.5435,
				dose:            0.01,
				reagentPrice:    0.12,
			},
			MixerChlorination: {
				capitalBase:     1200,
				capitalExponent: 0.6,
				dose:            0.002,
				reagentPrice:    0.54,
			},
		},
	}
}

// annualVolume converts a volumetric flow in m3/s to m3/year at the load
// factor.
func (f *Financials) annualVolume(flowM3s float64) float64 {
	return flowM3s * secondsPerHour * hoursPerYear * f.LoadFactor
}

// NanofiltrationCost implements CostModel.
func (f *Financials) NanofiltrationCost(nf *units.ZONanofiltration) (UnitCost, error) {
	area := nf.Area()
	if area == 0 {
		return UnitCost{}, flowsheet.NewModelError(
			"NF membrane area unavailable before initialization", nil).
			WithCode(flowsheet.ErrCodeNotInitialized).WithUnit(nf.Name()).WithOperation("cost")
	}
	capital := area * f.NFMembranePrice
	return UnitCost{
		Capital:   capital,
		Operating: f.FactorMembraneReplacement * capital,
	}, nil
}

// ReverseOsmosisCost implements CostModel.
func (f *Financials) ReverseOsmosisCost(ro *units.ReverseOsmosis) (UnitCost, error) {
	area := ro.Area()
	if area == 0 {
		return UnitCost{}, flowsheet.NewModelError(
			"RO membrane area unavailable before initialization", nil).
			WithCode(flowsheet.ErrCodeNotInitialized).WithUnit(ro.Name()).WithOperation("cost")
	}
	capital := area * f.ROMembranePrice
	return UnitCost{
		Capital:   capital,
		Operating: f.FactorMembraneReplacement * capital,
	}, nil
}

// PumpCost implements CostModel. Operating cost is the annual electricity
// bill for the pump's shaft power.
func (f *Financials) PumpCost(p *units.Pump, class PumpClass) (UnitCost, error) {
	power := p.Power()
	if power == 0 {
		return UnitCost{}, flowsheet.NewModelError(
			"pump power unavailable before initialization", nil).
			WithCode(flowsheet.ErrCodeNotInitialized).WithUnit(p.Name()).WithOperation("cost")
	}

	var capital float64
	switch class {
	case PumpHighPressure:
		capital = power * f.HighPressurePumpPrice
	case PumpLowPressure:
		inlet, _ := p.Port(units.PortInlet)
		flowLs := inlet.State.TotalFlow() / densityWaterKgM3 * 1000
		capital = flowLs * f.LowPressurePumpPrice
	default:
		return UnitCost{}, flowsheet.NewConfigError(
			fmt.Sprintf("unknown pump class %q", class), nil).
			WithCode(flowsheet.ErrCodeInvalidArgument).WithUnit(p.Name())
	}

	energyKWh := power / 1000 * hoursPerYear * f.LoadFactor
	return UnitCost{
		Capital:   capital,
		Operating: energyKWh * f.ElectricityPrice,
	}, nil
}

// MixerCost implements CostModel. Capital follows a power law on outlet
// flow; operating cost is the annual reagent bill.
func (f *Financials) MixerCost(m *units.Mixer, class MixerClass) (UnitCost, error) {
	params, ok := f.mixers[class]
	if !ok {
		return UnitCost{}, flowsheet.NewConfigError(
			fmt.Sprintf("unknown mixer class %q", class), nil).
			WithCode(flowsheet.ErrCodeInvalidArgument).WithUnit(m.Name())
	}
	flow := m.OutletVolumetricFlow()
	if flow == 0 {
		return UnitCost{}, flowsheet.NewModelError(
			"mixer outlet flow unavailable before initialization", nil).
			WithCode(flowsheet.ErrCodeNotInitialized).WithUnit(m.Name()).WithOperation("cost")
	}

	flowM3h := flow * secondsPerHour
	return UnitCost{
		Capital:   params.capitalBase * math.Pow(flowM3h, params.capitalExponent),
		Operating: params.dose * params.reagentPrice * f.annualVolume(flow),
	}, nil
}

// AnnualWaterProduction implements CostModel: the product port's
// volumetric flow levelized over a load-factored year.
func (f *Financials) AnnualWaterProduction(product *flowsheet.Port) (float64, error) {
	if product == nil || !product.Resolved {
		return 0, flowsheet.NewModelError(
			"product port not resolved", nil).
			WithCode(flowsheet.ErrCodeNotInitialized).WithOperation("cost")
	}
	return f.annualVolume(product.State.TotalFlow() / densityWaterKgM3), nil
}

// Aggregate implements CostModel.
func (f *Financials) Aggregate(b *Breakdown) (*SystemCosts, error) {
	if b.AnnualWaterProduction <= 0 {
		return nil, flowsheet.NewModelError(
			"annual water production must be positive", nil).
			WithCode(flowsheet.ErrCodeInvalidArgument).WithOperation("aggregate")
	}

	sc := &SystemCosts{
		AnnualWaterProduction: b.AnnualWaterProduction,
		CapitalRecoveryFactor: f.CapitalRecoveryFactor,
	}
	for _, c := range b.Units {
		sc.CapitalTotal += c.Capital
		sc.OperatingTotal += c.Operating
	}
	sc.InvestmentTotal = f.FactorTotalInvestment * sc.CapitalTotal
	sc.OperatingMLC = f.FactorMLC * sc.InvestmentTotal
	sc.OperatingTotal += sc.OperatingMLC
	sc.LCOW = (sc.InvestmentTotal*sc.CapitalRecoveryFactor + sc.OperatingTotal) /
		sc.AnnualWaterProduction
	return sc, nil
}
