package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/osmoflow/osmoflow/pkg/costing"
	"github.com/osmoflow/osmoflow/pkg/pretreatment"
	"github.com/osmoflow/osmoflow/pkg/telemetry"
)

func newCostCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cost",
		Short: "Solve the flowsheet and report its costs",
		Long: `Build and solve the pretreatment flowsheet, then cost every
costable unit, aggregate to system level, and print the cost report
ending in the levelized cost of water (LCOW).

The idealized separator NF variant has no costing implementation;
costing a Sep case fails before any aggregation.`,
		Example: `  # Cost the default case
  osmoflow cost

  # Cost a case file and emit the structured report as JSON
  osmoflow cost --case seawater.cue --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCase()
			if err != nil {
				return err
			}

			tel, err := newTelemetry("")
			if err != nil {
				return err
			}
			defer func() { _ = tel.Shutdown(context.Background()) }()
			ctx := tel.WithContext(cmd.Context())

			res, err := solveCase(ctx, tel, c)
			if err != nil {
				return err
			}

			model := c.Financials()
			product := res.Ports[pretreatment.PortProduct]
			plan := costing.DefaultPlan(res.Flowsheet)

			op := telemetry.StartOperation(ctx, "flowsheet.cost",
				telemetry.AttrCaseName.String(c.Name))
			breakdown, system, err := costing.Apply(res.Flowsheet, model, product, plan)
			op.End(err)
			if err != nil {
				tel.Metrics.RecordCostingCompleted("failed")
				recordErrorMetrics(tel, err)
				op.Logger.WithError(err).Error("Costing failed")
				return err
			}
			tel.Metrics.RecordCostingCompleted("succeeded")
			tel.Metrics.SetLCOW(c.Name, system.LCOW)

			report := costing.NewReport(breakdown, system)

			if jsonOutput {
				out, err := json.MarshalIndent(struct {
					Breakdown *costing.Breakdown   `json:"breakdown"`
					System    *costing.SystemCosts `json:"system"`
					Report    *costing.Report      `json:"report"`
				}{breakdown, system, report}, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			fmt.Print(report.Render())
			op.Logger.WithCase(c.Name).Infof(
				"Costing complete (LCOW $%.5f/m3, %.0f m3/year water)",
				system.LCOW, system.AnnualWaterProduction)
			return nil
		},
	}

	return cmd
}
