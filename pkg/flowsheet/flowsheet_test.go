package flowsheet

import (
	"context"
	"testing"
)

var testComponents = []Component{"NaCl", "H2O"}

// testUnit is a minimal unit block for flowsheet tests: one inlet, one
// outlet, pass-through initialization.
type testUnit struct {
	name  string
	ports map[string]*Port
	dof   int
	inits int
}

func newTestUnit(name string) *testUnit {
	u := &testUnit{name: name, ports: make(map[string]*Port)}
	u.ports["inlet"] = NewPort(name, "inlet", PortInlet, testComponents)
	u.ports["outlet"] = NewPort(name, "outlet", PortOutlet, testComponents)
	return u
}

func (u *testUnit) Name() string            { return u.name }
func (u *testUnit) Type() UnitType          { return UnitTypeMixer }
func (u *testUnit) Ports() map[string]*Port { return u.ports }
func (u *testUnit) Port(name string) (*Port, bool) {
	p, ok := u.ports[name]
	return p, ok
}
func (u *testUnit) DegreesOfFreedom() int { return u.dof }
func (u *testUnit) CalculateScalingFactors() map[string]float64 {
	return map[string]float64{u.name + ".outlet.H2O": 2.0}
}
func (u *testUnit) Initialize(_ context.Context) error {
	u.inits++
	u.ports["outlet"].SetState(u.ports["inlet"].State)
	return nil
}

// sourceUnit has only a specified outlet.
type sourceUnit struct {
	testUnit
}

func newSourceUnit(name string) *sourceUnit {
	u := &sourceUnit{}
	u.name = name
	u.ports = map[string]*Port{
		"outlet": NewPort(name, "outlet", PortOutlet, testComponents),
	}
	u.ports["outlet"].Specified = true
	return u
}

func (u *sourceUnit) Initialize(_ context.Context) error {
	u.inits++
	s := NewStreamState(testComponents)
	s.Flows["H2O"] = 1.0
	s.Temperature = 298.15
	s.Pressure = 101325
	u.ports["outlet"].SetState(s)
	return nil
}

func TestFlowsheet_Attach_Duplicate(t *testing.T) {
	fs := New("test")
	if err := fs.Attach("a", newTestUnit("a")); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	err := fs.Attach("a", newTestUnit("a"))
	if err == nil {
		t.Fatal("Expected error attaching duplicate unit name")
	}
	var me *ModelError
	if !asModelError(err, &me) || me.Code != ErrCodeAlreadyExists {
		t.Errorf("Expected ALREADY_EXISTS, got: %v", err)
	}
}

func TestFlowsheet_Attach_EmptyName(t *testing.T) {
	fs := New("test")
	if err := fs.Attach("", newTestUnit("a")); err == nil {
		t.Fatal("Expected error attaching unit with empty name")
	}
}

func TestFlowsheet_Connect_DirectionChecks(t *testing.T) {
	fs := New("test")
	a := newTestUnit("a")
	b := newTestUnit("b")
	if err := fs.Attach("a", a); err != nil {
		t.Fatal(err)
	}
	if err := fs.Attach("b", b); err != nil {
		t.Fatal(err)
	}

	// inlet as source
	if _, err := fs.Connect("bad1", a.ports["inlet"], b.ports["inlet"]); err == nil {
		t.Error("Expected error connecting from an inlet")
	}

	// outlet as destination
	if _, err := fs.Connect("bad2", a.ports["outlet"], b.ports["outlet"]); err == nil {
		t.Error("Expected error connecting into an outlet")
	}

	if _, err := fs.Connect("good", a.ports["outlet"], b.ports["inlet"]); err != nil {
		t.Errorf("Expected valid connection, got: %v", err)
	}
}

func TestFlowsheet_Connect_DuplicateNameAndInlet(t *testing.T) {
	fs := New("test")
	a := newTestUnit("a")
	b := newTestUnit("b")
	c := newTestUnit("c")
	for name, u := range map[string]Unit{"a": a, "b": b, "c": c} {
		if err := fs.Attach(name, u); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := fs.Connect("arc1", a.ports["outlet"], b.ports["inlet"]); err != nil {
		t.Fatal(err)
	}

	if _, err := fs.Connect("arc1", c.ports["outlet"], b.ports["inlet"]); err == nil {
		t.Error("Expected error reusing arc name")
	}

	if _, err := fs.Connect("arc2", c.ports["outlet"], b.ports["inlet"]); err == nil {
		t.Error("Expected error feeding an inlet twice")
	}
}

func TestFlowsheet_DegreesOfFreedom(t *testing.T) {
	fs := New("test")
	src := newSourceUnit("src")
	sink := newTestUnit("sink")
	if err := fs.Attach("src", src); err != nil {
		t.Fatal(err)
	}
	if err := fs.Attach("sink", sink); err != nil {
		t.Fatal(err)
	}

	// sink inlet is unbound: 2 component flows + T + P
	if dof := fs.DegreesOfFreedom(); dof != 4 {
		t.Errorf("Expected 4 degrees of freedom, got %d", dof)
	}

	if _, err := fs.Connect("arc", src.ports["outlet"], sink.ports["inlet"]); err != nil {
		t.Fatal(err)
	}

	// declared but not expanded: still unbound
	if dof := fs.DegreesOfFreedom(); dof != 4 {
		t.Errorf("Expected 4 degrees of freedom before expansion, got %d", dof)
	}

	fs.ExpandArcs()
	if dof := fs.DegreesOfFreedom(); dof != 0 {
		t.Errorf("Expected 0 degrees of freedom after expansion, got %d", dof)
	}

	if err := fs.CheckDegreesOfFreedom(); err != nil {
		t.Errorf("Expected zero-DOF check to pass, got: %v", err)
	}
}

func TestFlowsheet_CheckDegreesOfFreedom_UnderSpecified(t *testing.T) {
	fs := New("test")
	sink := newTestUnit("sink")
	if err := fs.Attach("sink", sink); err != nil {
		t.Fatal(err)
	}

	err := fs.CheckDegreesOfFreedom()
	if err == nil {
		t.Fatal("Expected under-specification error")
	}
	if !IsUnderSpecified(err) {
		t.Errorf("Expected UNDER_SPECIFIED, got: %v", err)
	}
}

func TestPropagateState(t *testing.T) {
	fs := New("test")
	src := newSourceUnit("src")
	sink := newTestUnit("sink")
	if err := fs.Attach("src", src); err != nil {
		t.Fatal(err)
	}
	if err := fs.Attach("sink", sink); err != nil {
		t.Fatal(err)
	}
	arc, err := fs.Connect("arc", src.ports["outlet"], sink.ports["inlet"])
	if err != nil {
		t.Fatal(err)
	}

	// source not yet initialized
	err = PropagateState(arc)
	if err == nil {
		t.Fatal("Expected error propagating from uninitialized source")
	}
	var me *ModelError
	if !asModelError(err, &me) || me.Code != ErrCodeNotInitialized {
		t.Errorf("Expected NOT_INITIALIZED, got: %v", err)
	}

	if err := src.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := PropagateState(arc); err != nil {
		t.Fatalf("Expected propagation to succeed, got: %v", err)
	}

	if !sink.ports["inlet"].Resolved {
		t.Error("Expected destination port to be resolved")
	}
	if got := sink.ports["inlet"].State.Flows["H2O"]; got != 1.0 {
		t.Errorf("Expected propagated H2O flow 1.0, got %g", got)
	}

	// propagation copies, it does not alias
	sink.ports["inlet"].State.Flows["H2O"] = 5.0
	if got := src.ports["outlet"].State.Flows["H2O"]; got != 1.0 {
		t.Errorf("Expected source state unchanged, got %g", got)
	}
}

func TestFlowsheet_ScalingFactors(t *testing.T) {
	fs := New("test")
	u := newTestUnit("u")
	if err := fs.Attach("u", u); err != nil {
		t.Fatal(err)
	}

	if f := fs.ScalingFactor("u.outlet.H2O"); f != 1 {
		t.Errorf("Expected default factor 1, got %g", f)
	}

	fs.CalculateScalingFactors(u)
	if f := fs.ScalingFactor("u.outlet.H2O"); f != 2.0 {
		t.Errorf("Expected factor 2.0, got %g", f)
	}

	keys := fs.ScalingKeys()
	if len(keys) != 1 || keys[0] != "u.outlet.H2O" {
		t.Errorf("Unexpected scaling keys: %v", keys)
	}
}

func TestInitializer_Run_FlowOrder(t *testing.T) {
	fs := New("test")
	src := newSourceUnit("src")
	mid := newTestUnit("mid")
	sink := newTestUnit("sink")
	for _, name := range []string{"src", "mid", "sink"} {
		var u Unit
		switch name {
		case "src":
			u = src
		case "mid":
			u = mid
		default:
			u = sink
		}
		if err := fs.Attach(name, u); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := fs.Connect("a1", src.ports["outlet"], mid.ports["inlet"]); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Connect("a2", mid.ports["outlet"], sink.ports["inlet"]); err != nil {
		t.Fatal(err)
	}

	init, err := NewInitializer(fs)
	if err != nil {
		t.Fatalf("Expected initializer, got: %v", err)
	}
	if err := init.Run(context.Background()); err != nil {
		t.Fatalf("Expected run to succeed, got: %v", err)
	}

	for _, u := range []*testUnit{mid, sink} {
		if u.inits != 1 {
			t.Errorf("Expected %s initialized once, got %d", u.name, u.inits)
		}
	}
	if got := sink.ports["outlet"].State.Flows["H2O"]; got != 1.0 {
		t.Errorf("Expected feed flow to reach sink outlet, got %g", got)
	}
}

// skippingUnit never initializes but presets its outlet.
type skippingUnit struct {
	testUnit
}

func (u *skippingUnit) SkipInitialization() bool { return true }

func (u *skippingUnit) Initialize(_ context.Context) error {
	return NewModelError("initialize is not implemented", nil).WithCode(ErrCodeUnimplemented)
}

func TestInitializer_Run_SkipsMarkedUnits(t *testing.T) {
	fs := New("test")
	src := newSourceUnit("src")
	skip := &skippingUnit{}
	skip.name = "skip"
	skip.ports = map[string]*Port{
		"inlet":  NewPort("skip", "inlet", PortInlet, testComponents),
		"outlet": NewPort("skip", "outlet", PortOutlet, testComponents),
	}
	preset := NewStreamState(testComponents)
	preset.Flows["H2O"] = 0.5
	skip.ports["outlet"].SetState(preset)

	sink := newTestUnit("sink")

	if err := fs.Attach("src", src); err != nil {
		t.Fatal(err)
	}
	if err := fs.Attach("skip", skip); err != nil {
		t.Fatal(err)
	}
	if err := fs.Attach("sink", sink); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Connect("a1", src.ports["outlet"], skip.ports["inlet"]); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Connect("a2", skip.ports["outlet"], sink.ports["inlet"]); err != nil {
		t.Fatal(err)
	}

	init, err := NewInitializer(fs)
	if err != nil {
		t.Fatal(err)
	}
	if err := init.Run(context.Background()); err != nil {
		t.Fatalf("Expected run to skip marked unit, got: %v", err)
	}

	if got := sink.ports["outlet"].State.Flows["H2O"]; got != 0.5 {
		t.Errorf("Expected preset state to flow through, got %g", got)
	}
}

// asModelError is a test helper around errors.As.
func asModelError(err error, target **ModelError) bool {
	for err != nil {
		if me, ok := err.(*ModelError); ok {
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
