// Package pretreatment builds the nanofiltration pretreatment network:
// a specified feed, an NF unit, and optionally a bypass splitter/mixer
// pair around it. The built network is fully initialized in flow order
// and exposed to the enclosing flowsheet through named product and waste
// ports.
package pretreatment

import (
	"context"
	"fmt"

	"github.com/osmoflow/osmoflow/pkg/flowsheet"
	"github.com/osmoflow/osmoflow/pkg/properties"
	"github.com/osmoflow/osmoflow/pkg/units"
)

// Port mapping keys returned by Build.
const (
	PortProduct = "product"
	PortWaste   = "waste"
)

// Splitter/mixer branch names of the bypass train.
const (
	branchPretreatment = "pretreatment"
	branchBypass       = "bypass"
)

// defaultBypassFraction is the fraction of feed routed around the NF
// unit when bypass is enabled.
const defaultBypassFraction = 0.1

// Options configures the pretreatment network.
type Options struct {
	// HasBypass adds a splitter/mixer pair routing part of the feed
	// around the NF unit.
	HasBypass bool `json:"has_bypass" validate:"-"`

	// NFType selects the NF model variant.
	NFType units.NFType `json:"nf_type" validate:"oneof=ZO Sep"`

	// NFBase selects the chemistry basis.
	NFBase properties.Basis `json:"nf_base" validate:"oneof=ion salt"`

	// BypassFraction overrides the default 0.1 bypass split fraction.
	BypassFraction float64 `json:"bypass_fraction,omitempty" validate:"gte=0,lte=1"`
}

// DefaultOptions returns the standard configuration: bypass enabled,
// zero-order NF on the ion basis.
func DefaultOptions() Options {
	return Options{
		HasBypass:      true,
		NFType:         units.NFZeroOrder,
		NFBase:         properties.BasisIon,
		BypassFraction: defaultBypassFraction,
	}
}

// Ports maps the named boundary ports of a built network.
type Ports map[string]*flowsheet.Port

// Build constructs the pretreatment network on the given flowsheet and
// initializes it in flow order. It returns the product and waste ports
// for composition by a larger flowsheet. An unrecognized NF variant
// fails before any unit is constructed.
func Build(ctx context.Context, fs *flowsheet.Flowsheet, opts Options) (Ports, error) {
	if opts.NFType != units.NFZeroOrder && opts.NFType != units.NFSeparator {
		return nil, flowsheet.NewConfigError(
			fmt.Sprintf("unexpected NF model type %q", opts.NFType), nil).
			WithCode(flowsheet.ErrCodeInvalidArgument)
	}

	prop, err := properties.Get(opts.NFBase)
	if err != nil {
		return nil, err
	}

	feed := units.NewFeed(flowsheet.UnitFeed, prop)
	if err := fs.Attach(flowsheet.UnitFeed, feed); err != nil {
		return nil, err
	}

	var nf flowsheet.Unit
	switch opts.NFType {
	case units.NFZeroOrder:
		nf, err = units.NewZONanofiltration(flowsheet.UnitNF, prop)
	case units.NFSeparator:
		nf, err = units.NewSeparatorNanofiltration(flowsheet.UnitNF, prop)
	}
	if err != nil {
		return nil, err
	}
	if err := fs.Attach(flowsheet.UnitNF, nf); err != nil {
		return nil, err
	}
	fs.CalculateScalingFactors(feed, nf)

	if opts.HasBypass {
		return buildBypass(ctx, fs, prop, feed, nf, opts)
	}
	return buildNoBypass(ctx, fs, feed, nf)
}

// buildBypass wires the four-arc bypass train around the NF unit:
// feed -> splitter, splitter.bypass -> mixer.bypass,
// splitter.pretreatment -> NF, NF.permeate -> mixer.pretreatment.
func buildBypass(ctx context.Context, fs *flowsheet.Flowsheet, prop *properties.Package, feed *units.Feed, nf flowsheet.Unit, opts Options) (Ports, error) {
	splitter, err := units.NewSplitter(flowsheet.UnitSplitter, prop,
		[]string{branchPretreatment, branchBypass})
	if err != nil {
		return nil, err
	}
	mixer, err := units.NewMixer(flowsheet.UnitMixer, prop,
		[]string{branchPretreatment, branchBypass})
	if err != nil {
		return nil, err
	}
	if err := fs.Attach(flowsheet.UnitSplitter, splitter); err != nil {
		return nil, err
	}
	if err := fs.Attach(flowsheet.UnitMixer, mixer); err != nil {
		return nil, err
	}

	feedOut := mustPort(feed, units.PortOutlet)
	if _, err := fs.Connect("feed_to_splitter", feedOut, mustPort(splitter, units.PortInlet)); err != nil {
		return nil, err
	}
	if _, err := fs.Connect("splitter_to_mixer", mustPort(splitter, branchBypass), mustPort(mixer, branchBypass)); err != nil {
		return nil, err
	}
	if _, err := fs.Connect("splitter_to_nf", mustPort(splitter, branchPretreatment), mustPort(nf, units.PortInlet)); err != nil {
		return nil, err
	}
	if _, err := fs.Connect("nf_to_mixer", mustPort(nf, units.PortPermeate), mustPort(mixer, branchPretreatment)); err != nil {
		return nil, err
	}

	// The bypass split fraction is the network's one remaining degree of
	// freedom; every other unit is fully specified at construction.
	frac := opts.BypassFraction
	if frac == 0 {
		frac = defaultBypassFraction
	}
	if err := splitter.FixSplitFraction(branchBypass, frac); err != nil {
		return nil, err
	}

	fs.CalculateScalingFactors(splitter, mixer)

	init, err := flowsheet.NewInitializer(fs)
	if err != nil {
		return nil, err
	}
	if err := init.Run(ctx); err != nil {
		return nil, err
	}

	return Ports{
		PortProduct: mustPort(mixer, units.PortOutlet),
		PortWaste:   mustPort(nf, units.PortRetentate),
	}, nil
}

// buildNoBypass wires the feed straight into the NF unit.
func buildNoBypass(ctx context.Context, fs *flowsheet.Flowsheet, feed *units.Feed, nf flowsheet.Unit) (Ports, error) {
	if _, err := fs.Connect("feed_to_nf", mustPort(feed, units.PortOutlet), mustPort(nf, units.PortInlet)); err != nil {
		return nil, err
	}

	init, err := flowsheet.NewInitializer(fs)
	if err != nil {
		return nil, err
	}
	if err := init.Run(ctx); err != nil {
		return nil, err
	}

	return Ports{
		PortProduct: mustPort(nf, units.PortPermeate),
		PortWaste:   mustPort(nf, units.PortRetentate),
	}, nil
}

// mustPort returns a port that the unit is known to expose. Ports are
// created at unit construction, so a miss is a programming error.
func mustPort(u flowsheet.Unit, name string) *flowsheet.Port {
	p, ok := u.Port(name)
	if !ok {
		panic(fmt.Sprintf("pretreatment: unit %s has no port %s", u.Name(), name))
	}
	return p
}
