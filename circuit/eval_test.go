package circuit

import (
	"testing"

	"github.com/cellwire/gologic/state"
)

func mustState(t *testing.T, s string) state.LogicState {
	t.Helper()
	v, err := state.Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return v
}

func TestGateTruthTables(t *testing.T) {
	cases := []struct {
		op   func(a, b state.LogicState) state.LogicState
		a, b string
		want string
	}{
		{state.And, "0", "X", "0"},
		{state.And, "1", "X", "X"},
		{state.And, "1", "1", "1"},
		{state.And, "Z", "1", "X"},
		{state.Or, "1", "X", "1"},
		{state.Or, "0", "X", "X"},
		{state.Or, "0", "0", "0"},
		{state.Xor, "1", "0", "1"},
		{state.Xor, "1", "X", "X"},
		{state.Xor, "1", "1", "0"},
	}
	for _, c := range cases {
		a, b := mustState(t, c.a), mustState(t, c.b)
		got := c.op(a, b)
		want := mustState(t, c.want)
		if !state.Eq(got, want, 1) {
			t.Errorf("op(%s,%s) = %s, want %s", c.a, c.b, got, want)
		}
	}
}

func TestNot(t *testing.T) {
	cases := map[string]string{"0": "1", "1": "0", "X": "X", "Z": "X"}
	for in, want := range cases {
		got := state.Not(mustState(t, in))
		if !state.Eq(got, mustState(t, want), 1) {
			t.Errorf("Not(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestShiftLeftByTwo(t *testing.T) {
	g, c := oneShifter(t, KindShl, 8, 2)
	got := evalShift(shiftLeft)(g, c)[0]
	v, err := got.ToInt(8)
	if err != nil {
		t.Fatalf("ToInt: %v", err)
	}
	if v != (1<<2)&0xFF {
		t.Errorf("got %d, want %d", v, (1<<2)&0xFF)
	}
}

func TestShiftByWidthOrMoreIsZero(t *testing.T) {
	// width=5 is not a power of two, so its shift-amount width (3 bits)
	// can represent values past the operand width (here, 6 >= 5).
	g, c := oneShifter(t, KindShl, 5, 6)
	got := evalShift(shiftLeft)(g, c)[0]
	v, _ := got.ToInt(5)
	if v != 0 {
		t.Errorf("got %d, want 0", v)
	}
}

// oneShifter builds a minimal two-input graph (a, shamt -> out) for testing
// a shift transfer function directly, without going through Builder/Build.
func oneShifter(t *testing.T, kind Kind, width int, shamt int) (*Graph, *Component) {
	t.Helper()
	aVal, err := state.FromUint64(width, 1)
	if err != nil {
		t.Fatal(err)
	}
	shamtWidth := shiftAmountWidth(width)
	sVal, err := state.FromUint64(shamtWidth, uint64(shamt))
	if err != nil {
		t.Fatal(err)
	}

	g := &Graph{
		wires:    []Wire{{ID: 0, Width: width}, {ID: 1, Width: shamtWidth}, {ID: 2, Width: width}},
		resolved: []state.LogicState{aVal, sVal, state.AllZ(width)},
	}
	c := &Component{Inputs: []WireID{0, 1}, Outputs: []WireID{2}}
	return g, c
}
