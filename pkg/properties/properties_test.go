package properties

import (
	"math"
	"testing"

	"github.com/osmoflow/osmoflow/pkg/flowsheet"
)

func TestGet_KnownBases(t *testing.T) {
	for _, basis := range []Basis{BasisIon, BasisSalt, BasisTDS} {
		p, err := Get(basis)
		if err != nil {
			t.Fatalf("Expected package for basis %s, got: %v", basis, err)
		}
		if p.Basis != basis {
			t.Errorf("Expected basis %s, got %s", basis, p.Basis)
		}
	}
}

func TestGet_UnknownBasis(t *testing.T) {
	_, err := Get("brine")
	if err == nil {
		t.Fatal("Expected error for unknown basis")
	}
	if !flowsheet.IsInvalidArgument(err) {
		t.Errorf("Expected INVALID_ARGUMENT, got: %v", err)
	}
}

func TestDefaultFeedState_MassBalance(t *testing.T) {
	for _, basis := range []Basis{BasisIon, BasisSalt, BasisTDS} {
		p, err := Get(basis)
		if err != nil {
			t.Fatal(err)
		}
		s := p.DefaultFeedState()

		if math.Abs(s.TotalFlow()-p.FeedMassFlow) > 1e-12 {
			t.Errorf("basis %s: expected total flow %g, got %g", basis, p.FeedMassFlow, s.TotalFlow())
		}
		if s.Flows[Water] <= 0.9 {
			t.Errorf("basis %s: expected water to dominate the feed, got %g", basis, s.Flows[Water])
		}
		if s.Temperature != 298.15 {
			t.Errorf("basis %s: expected 298.15 K, got %g", basis, s.Temperature)
		}
		if s.Pressure != 101325 {
			t.Errorf("basis %s: expected 101325 Pa, got %g", basis, s.Pressure)
		}
	}
}

func TestDefaultFeedState_IonComposition(t *testing.T) {
	p, err := Get(BasisIon)
	if err != nil {
		t.Fatal(err)
	}
	s := p.DefaultFeedState()

	if got := s.Flows[Sodium]; math.Abs(got-1.0556e-2) > 1e-12 {
		t.Errorf("Expected Na flow 1.0556e-2, got %g", got)
	}
	if got := s.Flows[Chloride]; math.Abs(got-1.898e-2) > 1e-12 {
		t.Errorf("Expected Cl flow 1.898e-2, got %g", got)
	}
}

func TestScalingFactors(t *testing.T) {
	p, err := Get(BasisIon)
	if err != nil {
		t.Fatal(err)
	}

	factors := p.ScalingFactors("NF.inlet")

	// one factor per component plus T and P
	if len(factors) != len(p.Components)+2 {
		t.Fatalf("Expected %d factors, got %d", len(p.Components)+2, len(factors))
	}

	// factor is the reciprocal of the default magnitude
	na := factors["NF.inlet.Na_+"]
	if math.Abs(na-1/1.0556e-2) > 1e-6 {
		t.Errorf("Expected Na factor %g, got %g", 1/1.0556e-2, na)
	}
	if factors["NF.inlet.T"] != 1/298.15 {
		t.Errorf("Unexpected temperature factor %g", factors["NF.inlet.T"])
	}
	if factors["NF.inlet.P"] != 1.0/101325 {
		t.Errorf("Unexpected pressure factor %g", factors["NF.inlet.P"])
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic registering a duplicate basis")
		}
	}()
	Register(&Package{Basis: BasisIon})
}
