package costing

import (
	"fmt"
	"strings"

	"github.com/osmoflow/osmoflow/pkg/flowsheet"
)

// Item is one labelled line of the cost report. Values are $/m3 of
// product water unless the label says otherwise.
type Item struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Report is the structured cost report: the fixed sequence of labelled
// per-volume figures followed by the fixed-precision currency lines.
// Rendering is left to the caller; nothing here writes to stdout.
type Report struct {
	Items    []Item   `json:"items"`
	Currency []string `json:"currency"`
}

// NewReport levelizes a breakdown into the report layout. Optional units
// missing from the breakdown contribute zero to the lines that mention
// them; their dedicated currency lines are omitted entirely.
func NewReport(b *Breakdown, sc *SystemCosts) *Report {
	crf := sc.CapitalRecoveryFactor
	awp := sc.AnnualWaterProduction

	pumpRO := b.Unit(flowsheet.UnitPumpRO)
	pumpRO2 := b.Unit(flowsheet.UnitPumpRO2)
	nf := b.Unit(flowsheet.UnitNF)
	ro := b.Unit(flowsheet.UnitRO)
	ro2 := b.Unit(flowsheet.UnitRO2)

	r := &Report{
		Items: []Item{
			{"LCOW", sc.LCOW},
			{"Total CAPEX", sc.InvestmentTotal * crf / awp},
			{"Direct CAPEX", sc.CapitalTotal * crf / awp},
			{"Indirect CAPEX", (sc.InvestmentTotal - sc.CapitalTotal) * crf / awp},
			{"Total OPEX", sc.OperatingTotal / awp},
			{"Maintenance/Labor/Chemical Costs", sc.OperatingMLC},
			{"Total Electricity Cost", (pumpRO.Operating + pumpRO2.Operating) / awp},
			{"Stage 1 HP Pump Electricity Cost", pumpRO.Operating / awp},
			{"Stage 2 HP Pump Electricity Cost", pumpRO2.Operating / awp},
			{"Total Membrane Replacement Cost", (nf.Operating + ro.Operating + ro2.Operating) / awp},
			{"NF Membrane Replacement Cost", nf.Operating / awp},
			{"Stage 1 RO Membrane Replacement Cost", ro.Operating / awp},
			{"Stage 2 RO Membrane Replacement Cost", ro2.Operating / awp},
		},
	}

	r.Currency = append(r.Currency, fmt.Sprintf("LCOW = $%.5f/m3", sc.LCOW))

	if _, ok := b.Units[flowsheet.UnitPumpRO]; ok {
		r.Currency = append(r.Currency,
			fmt.Sprintf("RO Pump 1 specific Opex = $%.3f/m3", pumpRO.Operating/awp))
	}
	if _, ok := b.Units[flowsheet.UnitPumpRO2]; ok {
		r.Currency = append(r.Currency,
			fmt.Sprintf("RO Pump 2 specific Opex = $%.3f/m3", pumpRO2.Operating/awp))
	}
	if c, ok := b.Units[flowsheet.UnitSofteningMixer]; ok {
		r.Currency = append(r.Currency,
			fmt.Sprintf("Lime Softening specific CAPEX = $%.5f/m3", c.Capital*crf/awp),
			fmt.Sprintf("Lime Softening specific OPEX = $%.5f/m3", c.Operating/awp))
	}
	if c, ok := b.Units[flowsheet.UnitChlorinationMixer]; ok {
		r.Currency = append(r.Currency,
			fmt.Sprintf("Chlorination specific CAPEX = $%.5f/m3", c.Capital*crf/awp),
			fmt.Sprintf("Chlorination specific OPEX = $%.5f/m3", c.Operating/awp))
	}

	return r
}

// Render returns the report as text, one line per item followed by the
// currency lines.
func (r *Report) Render() string {
	var sb strings.Builder
	for _, item := range r.Items {
		fmt.Fprintf(&sb, "%s = %g\n", item.Label, item.Value)
	}
	for _, line := range r.Currency {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}
