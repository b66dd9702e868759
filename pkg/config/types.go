// Package config loads and validates case files. A case file describes
// one flowsheet run: the pretreatment network layout, solver settings,
// and optional financial overrides. Case files are written in CUE or
// YAML; both decode into the same Case struct and pass through the same
// struct-tag validation.
package config

import (
	"github.com/osmoflow/osmoflow/pkg/costing"
	"github.com/osmoflow/osmoflow/pkg/pretreatment"
	"github.com/osmoflow/osmoflow/pkg/properties"
	"github.com/osmoflow/osmoflow/pkg/solver"
	"github.com/osmoflow/osmoflow/pkg/units"
)

// Case is a fully described flowsheet run.
type Case struct {
	// Name identifies the case in logs and reports.
	Name string `json:"name" yaml:"name" validate:"required"`

	// Pretreatment configures the network builder.
	Pretreatment PretreatmentConfig `json:"pretreatment" yaml:"pretreatment"`

	// Solver configures the sequential-modular solve.
	Solver SolverConfig `json:"solver,omitempty" yaml:"solver,omitempty"`

	// Costing configures the cost model. Omitting the section skips
	// costing entirely.
	Costing *CostingConfig `json:"costing,omitempty" yaml:"costing,omitempty"`
}

// PretreatmentConfig mirrors pretreatment.Options with case-file
// defaults: bypass on, zero-order NF, ion basis.
type PretreatmentConfig struct {
	// HasBypass defaults to true when omitted.
	HasBypass *bool `json:"has_bypass,omitempty" yaml:"has_bypass,omitempty"`

	NFType string `json:"nf_type,omitempty" yaml:"nf_type,omitempty" validate:"omitempty,oneof=ZO Sep"`
	NFBase string `json:"nf_base,omitempty" yaml:"nf_base,omitempty" validate:"omitempty,oneof=ion salt"`

	BypassFraction float64 `json:"bypass_fraction,omitempty" yaml:"bypass_fraction,omitempty" validate:"gte=0,lte=1"`
}

// SolverConfig mirrors solver.Options. Zero values fall back to the
// solver defaults.
type SolverConfig struct {
	Scaling       string  `json:"scaling,omitempty" yaml:"scaling,omitempty" validate:"omitempty,oneof=user none"`
	Tolerance     float64 `json:"tolerance,omitempty" yaml:"tolerance,omitempty" validate:"gte=0"`
	MaxIterations int     `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty" validate:"gte=0"`
}

// CostingConfig carries optional overrides of the default financial
// assumptions. Nil fields keep the defaults.
type CostingConfig struct {
	ElectricityPrice      *float64 `json:"electricity_price,omitempty" yaml:"electricity_price,omitempty" validate:"omitempty,gt=0"`
	LoadFactor            *float64 `json:"load_factor,omitempty" yaml:"load_factor,omitempty" validate:"omitempty,gt=0,lte=1"`
	CapitalRecoveryFactor *float64 `json:"capital_recovery_factor,omitempty" yaml:"capital_recovery_factor,omitempty" validate:"omitempty,gt=0"`
	FactorTotalInvestment *float64 `json:"factor_total_investment,omitempty" yaml:"factor_total_investment,omitempty" validate:"omitempty,gte=1"`
	FactorMLC             *float64 `json:"factor_mlc,omitempty" yaml:"factor_mlc,omitempty" validate:"omitempty,gte=0"`
}

// PretreatmentOptions converts the case section to builder options.
func (c *Case) PretreatmentOptions() pretreatment.Options {
	opts := pretreatment.DefaultOptions()
	p := c.Pretreatment
	if p.HasBypass != nil {
		opts.HasBypass = *p.HasBypass
	}
	if p.NFType != "" {
		opts.NFType = units.NFType(p.NFType)
	}
	if p.NFBase != "" {
		opts.NFBase = properties.Basis(p.NFBase)
	}
	if p.BypassFraction != 0 {
		opts.BypassFraction = p.BypassFraction
	}
	return opts
}

// SolverOptions converts the case section to solver options.
func (c *Case) SolverOptions() solver.Options {
	return solver.Options{
		Scaling:       solver.ScalingMode(c.Solver.Scaling),
		Tolerance:     c.Solver.Tolerance,
		MaxIterations: c.Solver.MaxIterations,
	}
}

// Financials builds the cost model with any case overrides applied.
func (c *Case) Financials() *costing.Financials {
	f := costing.DefaultFinancials()
	if c.Costing == nil {
		return f
	}
	if v := c.Costing.ElectricityPrice; v != nil {
		f.ElectricityPrice = *v
	}
	if v := c.Costing.LoadFactor; v != nil {
		f.LoadFactor = *v
	}
	if v := c.Costing.CapitalRecoveryFactor; v != nil {
		f.CapitalRecoveryFactor = *v
	}
	if v := c.Costing.FactorTotalInvestment; v != nil {
		f.FactorTotalInvestment = *v
	}
	if v := c.Costing.FactorMLC; v != nil {
		f.FactorMLC = *v
	}
	return f
}
