package units

import (
	"context"
	"math"
	"testing"

	"github.com/osmoflow/osmoflow/pkg/flowsheet"
	"github.com/osmoflow/osmoflow/pkg/properties"
)

func ionPackage(t *testing.T) *properties.Package {
	t.Helper()
	p, err := properties.Get(properties.BasisIon)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestFeed_Initialize(t *testing.T) {
	prop := ionPackage(t)
	feed := NewFeed("feed", prop)

	out, ok := feed.Port(PortOutlet)
	if !ok {
		t.Fatal("Expected feed to have an outlet port")
	}
	if !out.Specified {
		t.Error("Expected feed outlet to be specified at construction")
	}
	if feed.DegreesOfFreedom() != 0 {
		t.Errorf("Expected 0 DOF, got %d", feed.DegreesOfFreedom())
	}

	if err := feed.Initialize(context.Background()); err != nil {
		t.Fatalf("Expected initialize to succeed, got: %v", err)
	}
	if !out.Resolved {
		t.Fatal("Expected outlet resolved after initialize")
	}
	if math.Abs(out.State.TotalFlow()-1.0) > 1e-12 {
		t.Errorf("Expected total feed flow 1.0 kg/s, got %g", out.State.TotalFlow())
	}
}

func TestSplitter_NeedsTwoOutlets(t *testing.T) {
	prop := ionPackage(t)
	if _, err := NewSplitter("splitter", prop, []string{"only"}); err == nil {
		t.Error("Expected error building splitter with one outlet")
	}
}

func TestSplitter_DegreesOfFreedom(t *testing.T) {
	prop := ionPackage(t)
	s, err := NewSplitter("splitter", prop, []string{"pretreatment", "bypass"})
	if err != nil {
		t.Fatal(err)
	}

	if s.DegreesOfFreedom() != 1 {
		t.Errorf("Expected 1 DOF before fixing, got %d", s.DegreesOfFreedom())
	}
	if err := s.FixSplitFraction("bypass", 0.1); err != nil {
		t.Fatal(err)
	}
	if s.DegreesOfFreedom() != 0 {
		t.Errorf("Expected 0 DOF after fixing, got %d", s.DegreesOfFreedom())
	}
	if got := s.SplitFraction("bypass"); got != 0.1 {
		t.Errorf("Expected bypass fraction 0.1, got %g", got)
	}
}

func TestSplitter_FixSplitFraction_Validation(t *testing.T) {
	prop := ionPackage(t)
	s, err := NewSplitter("splitter", prop, []string{"pretreatment", "bypass"})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.FixSplitFraction("missing", 0.1); err == nil {
		t.Error("Expected error fixing unknown outlet")
	}
	if err := s.FixSplitFraction("bypass", 1.5); err == nil {
		t.Error("Expected error for fraction outside [0,1]")
	}
}

func TestSplitter_FixSplitFraction_SumOverOne(t *testing.T) {
	prop := ionPackage(t)
	s, err := NewSplitter("splitter", prop, []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.FixSplitFraction("a", 0.6); err != nil {
		t.Fatal(err)
	}
	// 0.6 + 0.5 would leave a negative residual for outlet c
	if err := s.FixSplitFraction("b", 0.5); err == nil {
		t.Error("Expected error for fixed fractions summing over 1")
	}
	if err := s.FixSplitFraction("b", 0.4); err != nil {
		t.Errorf("Expected exact sum of 1 to be accepted, got: %v", err)
	}
	// re-fixing an outlet replaces its old value instead of stacking
	if err := s.FixSplitFraction("a", 0.3); err != nil {
		t.Errorf("Expected re-fix to replace the old fraction, got: %v", err)
	}
}

func TestSplitter_Initialize(t *testing.T) {
	prop := ionPackage(t)
	s, err := NewSplitter("splitter", prop, []string{"pretreatment", "bypass"})
	if err != nil {
		t.Fatal(err)
	}

	// unfixed fraction: under-specified
	err = s.Initialize(context.Background())
	if err == nil {
		t.Fatal("Expected under-specification error")
	}
	if !flowsheet.IsUnderSpecified(err) {
		t.Errorf("Expected UNDER_SPECIFIED, got: %v", err)
	}

	if err := s.FixSplitFraction("bypass", 0.1); err != nil {
		t.Fatal(err)
	}

	inlet, _ := s.Port(PortInlet)
	inlet.SetState(prop.DefaultFeedState())

	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Expected initialize to succeed, got: %v", err)
	}

	bypass, _ := s.Port("bypass")
	pretrt, _ := s.Port("pretreatment")
	if math.Abs(bypass.State.TotalFlow()-0.1) > 1e-12 {
		t.Errorf("Expected bypass flow 0.1, got %g", bypass.State.TotalFlow())
	}
	if math.Abs(pretrt.State.TotalFlow()-0.9) > 1e-12 {
		t.Errorf("Expected pretreatment flow 0.9, got %g", pretrt.State.TotalFlow())
	}
	if bypass.State.Temperature != pretrt.State.Temperature {
		t.Error("Expected equal outlet temperatures")
	}
}

func TestMixer_Initialize(t *testing.T) {
	prop := ionPackage(t)
	m, err := NewMixer("mixer", prop, []string{"pretreatment", "bypass"})
	if err != nil {
		t.Fatal(err)
	}
	if m.DegreesOfFreedom() != 0 {
		t.Errorf("Expected 0 DOF, got %d", m.DegreesOfFreedom())
	}

	a := prop.DefaultFeedState()
	b := prop.DefaultFeedState()
	b.Pressure = 90000

	in1, _ := m.Port("pretreatment")
	in2, _ := m.Port("bypass")
	in1.SetState(a)
	in2.SetState(b)

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Expected initialize to succeed, got: %v", err)
	}

	out, _ := m.Port(PortOutlet)
	if math.Abs(out.State.TotalFlow()-2.0) > 1e-12 {
		t.Errorf("Expected combined flow 2.0, got %g", out.State.TotalFlow())
	}
	if out.State.Pressure != 90000 {
		t.Errorf("Expected minimum inlet pressure 90000, got %g", out.State.Pressure)
	}
	if math.Abs(out.State.Temperature-298.15) > 1e-9 {
		t.Errorf("Expected flow-weighted temperature 298.15, got %g", out.State.Temperature)
	}
}

func TestMixer_Initialize_UnresolvedInlet(t *testing.T) {
	prop := ionPackage(t)
	m, err := NewMixer("mixer", prop, []string{"pretreatment", "bypass"})
	if err != nil {
		t.Fatal(err)
	}

	in1, _ := m.Port("pretreatment")
	in1.SetState(prop.DefaultFeedState())

	err = m.Initialize(context.Background())
	if err == nil {
		t.Fatal("Expected error with one unresolved inlet")
	}
	var me *flowsheet.ModelError
	if !errorsAs(err, &me) || me.Code != flowsheet.ErrCodeNotInitialized {
		t.Errorf("Expected NOT_INITIALIZED, got: %v", err)
	}
}

func TestPump_Initialize_AndPower(t *testing.T) {
	prop := ionPackage(t)
	p, err := NewPump("pump_RO", prop, 50e5)
	if err != nil {
		t.Fatal(err)
	}
	if p.DegreesOfFreedom() != 0 {
		t.Errorf("Expected 0 DOF, got %d", p.DegreesOfFreedom())
	}
	if p.Power() != 0 {
		t.Error("Expected zero power before initialization")
	}

	inlet, _ := p.Port(PortInlet)
	inlet.SetState(prop.DefaultFeedState())

	if err := p.Initialize(context.Background()); err != nil {
		t.Fatalf("Expected initialize to succeed, got: %v", err)
	}

	out, _ := p.Port(PortOutlet)
	if out.State.Pressure != 50e5 {
		t.Errorf("Expected outlet pressure 50e5, got %g", out.State.Pressure)
	}
	if math.Abs(out.State.TotalFlow()-1.0) > 1e-12 {
		t.Errorf("Expected pass-through flow 1.0, got %g", out.State.TotalFlow())
	}

	// 1 kg/s at 1000 kg/m3 through ~49 bar rise at 75% efficiency
	wantPower := (1.0 / 1000) * (50e5 - 101325) / 0.75
	if math.Abs(p.Power()-wantPower) > 1e-6 {
		t.Errorf("Expected power %g W, got %g", wantPower, p.Power())
	}
}

func TestPump_RejectsNonPositivePressure(t *testing.T) {
	prop := ionPackage(t)
	if _, err := NewPump("pump", prop, 0); err == nil {
		t.Error("Expected error for zero outlet pressure")
	}
}

// errorsAs walks the unwrap chain looking for a *flowsheet.ModelError.
func errorsAs(err error, target **flowsheet.ModelError) bool {
	for err != nil {
		if me, ok := err.(*flowsheet.ModelError); ok {
			*target = me
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
