package flowsheet

import (
	"strings"
	"testing"
)

func buildLinearFlowsheet(t *testing.T, names ...string) (*Flowsheet, []*testUnit) {
	t.Helper()
	fs := New("test")
	units := make([]*testUnit, len(names))
	for i, name := range names {
		units[i] = newTestUnit(name)
		if err := fs.Attach(name, units[i]); err != nil {
			t.Fatal(err)
		}
	}
	for i := 1; i < len(units); i++ {
		_, err := fs.Connect("arc_"+names[i], units[i-1].ports["outlet"], units[i].ports["inlet"])
		if err != nil {
			t.Fatal(err)
		}
	}
	return fs, units
}

func TestGraphBuilder_BuildGraph_Empty(t *testing.T) {
	fs := New("empty")
	graph, err := NewGraphBuilder().BuildGraph(fs)
	if err != nil {
		t.Fatalf("Expected no error for empty flowsheet, got: %v", err)
	}
	if graph.Depth != 0 {
		t.Errorf("Expected depth 0, got %d", graph.Depth)
	}
}

func TestGraphBuilder_BuildGraph_Linear(t *testing.T) {
	fs, _ := buildLinearFlowsheet(t, "a", "b", "c")

	graph, err := NewGraphBuilder().BuildGraph(fs)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if graph.Depth != 3 {
		t.Errorf("Expected depth 3, got %d", graph.Depth)
	}
	if len(graph.Roots) != 1 || graph.Roots[0] != "a" {
		t.Errorf("Expected roots [a], got %v", graph.Roots)
	}
	for i, want := range []string{"a", "b", "c"} {
		if len(graph.Levels[i]) != 1 || graph.Levels[i][0] != want {
			t.Errorf("Expected level %d = [%s], got %v", i, want, graph.Levels[i])
		}
	}
}

func TestGraphBuilder_BuildGraph_Diamond(t *testing.T) {
	// src feeds two parallel branches that merge into sink. The merge
	// unit needs a second inlet.
	fs := New("diamond")
	src := newTestUnit("src")
	left := newTestUnit("left")
	right := newTestUnit("right")
	sink := newTestUnit("sink")
	sink.ports["inlet2"] = NewPort("sink", "inlet2", PortInlet, testComponents)
	srcOut2 := NewPort("src", "outlet2", PortOutlet, testComponents)
	src.ports["outlet2"] = srcOut2

	for name, u := range map[string]Unit{"src": src, "left": left, "right": right, "sink": sink} {
		if err := fs.Attach(name, u); err != nil {
			t.Fatal(err)
		}
	}
	connects := []struct {
		name     string
		src, dst *Port
	}{
		{"a1", src.ports["outlet"], left.ports["inlet"]},
		{"a2", src.ports["outlet2"], right.ports["inlet"]},
		{"a3", left.ports["outlet"], sink.ports["inlet"]},
		{"a4", right.ports["outlet"], sink.ports["inlet2"]},
	}
	for _, c := range connects {
		if _, err := fs.Connect(c.name, c.src, c.dst); err != nil {
			t.Fatal(err)
		}
	}

	graph, err := NewGraphBuilder().BuildGraph(fs)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if graph.Depth != 3 {
		t.Errorf("Expected depth 3, got %d", graph.Depth)
	}
	if len(graph.Levels[1]) != 2 {
		t.Errorf("Expected 2 units at level 1, got %v", graph.Levels[1])
	}
	if len(graph.Levels[2]) != 1 || graph.Levels[2][0] != "sink" {
		t.Errorf("Expected level 2 = [sink], got %v", graph.Levels[2])
	}
}

func TestGraphBuilder_BuildGraph_DetectsRecycle(t *testing.T) {
	fs, units := buildLinearFlowsheet(t, "a", "b")

	// close the loop: b -> a
	extra := NewPort("a", "inlet2", PortInlet, testComponents)
	units[0].ports["inlet2"] = extra
	if _, err := fs.Connect("back", units[1].ports["outlet"], extra); err != nil {
		t.Fatal(err)
	}

	_, err := NewGraphBuilder().BuildGraph(fs)
	if err == nil {
		t.Fatal("Expected recycle loop to be rejected")
	}
	if !strings.Contains(err.Error(), "recycle loop detected") {
		t.Errorf("Expected recycle loop error, got: %v", err)
	}
}

func TestGraphBuilder_ToDOT(t *testing.T) {
	fs, _ := buildLinearFlowsheet(t, "a", "b")

	gb := NewGraphBuilder()
	if _, err := gb.BuildGraph(fs); err != nil {
		t.Fatal(err)
	}

	dot := gb.ToDOT()
	if !strings.Contains(dot, "digraph FlowGraph") {
		t.Error("Expected DOT header")
	}
	if !strings.Contains(dot, `"a" -> "b"`) {
		t.Errorf("Expected edge a -> b in DOT output:\n%s", dot)
	}
}
