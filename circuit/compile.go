package circuit

import (
	"log/slog"
	"unicode/utf8"

	"github.com/sarchlab/akita/v4/monitoring"

	"github.com/cellwire/gologic/state"
)

// maxGraphBytes bounds the total dense cell storage a single compiled graph
// may hold across all its RAM/ROM components. A single AddRAM/AddROM call is
// already capped by maxCellAddrWidth; this is the cross-component invariant
// that only Build can check, since it's the sum over every stateful memory
// component in the graph.
const maxGraphBytes = 64 << 20 // 64 MiB

// Graph is the frozen, compiled form of a Builder: dense component and wire
// arrays plus the fan-out index (wire -> components that read it) needed by
// the scheduler. Wires never reference the components that read them, only
// the ones that drive them (Wire.Drivers); fan-out is derived once at
// compile time and lives only here.
type Graph struct {
	wires      []Wire
	components []Component

	// fanout[w] lists the components that have w in their fanoutSources():
	// every input for combinational kinds, only readAddr for RAM, and
	// nothing for Register. A change in w's resolved value enqueues fanout[w].
	fanout [][]ComponentID

	// resolved is the current settled value of every wire, merging its
	// BaseDrive with every live driver contribution.
	resolved []state.LogicState
	// conflict is the most recently computed conflict mask for each wire;
	// it reflects the CURRENT resolved state, not any historical one.
	conflict [][4]uint64

	// contribs[w] holds one LogicState per entry in wires[w].Drivers, the
	// last value that driver produced. Each component's outSlot field
	// (component.go) says, for each of its Outputs, which index into
	// contribs[wire] is its own.
	contribs [][]state.LogicState

	// clockWires has one entry per component, in the same order as
	// components: the wire read as its clock input, or InvalidWireID for
	// components without a clock (everything except Register and RAM).
	clockWires []WireID

	// lastClock is each clocked component's clock-wire bit as of the end
	// of the previous RunSim call (or Build, for the first call). Edge
	// detection compares this against the current resolved bit rather
	// than a snapshot taken at the start of the call, since callers
	// change a clock wire's drive with SetWireDrive *before* calling
	// RunSim, not during it.
	lastClock []state.BitState

	// levels and acyclic cache the static wavefront partition RunSimParallel
	// needs, computed once on first use since the dependency topology never
	// changes after Build.
	levelsComputed bool
	levels         [][]ComponentID
	acyclic        bool
}

// Simulator is the compiled, runnable form of a circuit: a Graph plus the
// scheduler's bookkeeping. Produced by Builder.Build, never constructed
// directly.
type Simulator struct {
	g         *Graph
	logger    *slog.Logger
	monitor   *monitoring.Monitor
	lastStats RunStats
}

// Builder is a mutable graph under construction. Every Add* method
// validates its arguments immediately (widths, arities, ID bounds) and
// never defers a structural error to Build: argument and structural errors
// are checked at the operation that receives the bad input. Build only
// re-checks invariants that are inherently cross-component (see
// maxGraphBytes).
type Builder struct {
	wires      []Wire
	components []Component
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) validWire(w WireID) bool {
	return int(w) < len(b.wires)
}

func (b *Builder) validComponent(c ComponentID) bool {
	return int(c) < len(b.components)
}

func validUTF8(op, s string) error {
	if !utf8.ValidString(s) {
		return state.NewError(op, state.Utf8Encoding, "name is not valid UTF-8")
	}
	return nil
}

// AddWire allocates a new wire of the given width, initially driven only by
// its all-Z base drive.
func (b *Builder) AddWire(width int) (WireID, error) {
	if width < 1 || width > state.MaxWidth {
		return InvalidWireID, state.NewError("AddWire", state.ArgumentOutOfRange,
			"width must be in [1,255]")
	}
	id := WireID(len(b.wires))
	b.wires = append(b.wires, Wire{
		ID:        id,
		Width:     width,
		BaseDrive: state.AllZ(width),
	})
	return id, nil
}

// SetWireDrive replaces a wire's base drive. The replacement must match the
// wire's width.
func (b *Builder) SetWireDrive(w WireID, s state.LogicState) error {
	if !b.validWire(w) {
		return state.NewError("SetWireDrive", state.InvalidWireId, "unknown wire id")
	}
	wr := &b.wires[w]
	if s.Width() != wr.Width {
		return state.NewError("SetWireDrive", state.WireWidthMismatch,
			"drive width does not match wire width")
	}
	wr.BaseDrive = s
	return nil
}

// SetWireName assigns a wire a human-readable name. Names need not be
// unique; they exist for diagnostics (Dump, logging), not lookup.
func (b *Builder) SetWireName(w WireID, name string) error {
	if !b.validWire(w) {
		return state.NewError("SetWireName", state.InvalidWireId, "unknown wire id")
	}
	if err := validUTF8("SetWireName", name); err != nil {
		return err
	}
	b.wires[w].Name = name
	return nil
}

// WireName returns a wire's name, and whether one was ever set.
func (b *Builder) WireName(w WireID) (string, bool) {
	if !b.validWire(w) {
		return "", false
	}
	return b.wires[w].Name, b.wires[w].Name != ""
}

// WireWidth returns a wire's width.
func (b *Builder) WireWidth(w WireID) (int, error) {
	if !b.validWire(w) {
		return 0, state.NewError("WireWidth", state.InvalidWireId, "unknown wire id")
	}
	return b.wires[w].Width, nil
}

// SetComponentName assigns a component a human-readable name.
func (b *Builder) SetComponentName(c ComponentID, name string) error {
	if !b.validComponent(c) {
		return state.NewError("SetComponentName", state.InvalidComponentId, "unknown component id")
	}
	if err := validUTF8("SetComponentName", name); err != nil {
		return err
	}
	b.components[c].Name = name
	return nil
}

// ComponentName returns a component's name, and whether one was ever set.
func (b *Builder) ComponentName(c ComponentID) (string, bool) {
	if !b.validComponent(c) {
		return "", false
	}
	return b.components[c].Name, b.components[c].Name != ""
}

func (b *Builder) addComponent(kind Kind, inputs, outputs []WireID) ComponentID {
	id := ComponentID(len(b.components))
	b.components = append(b.components, Component{
		ID:      id,
		Kind:    kind,
		Inputs:  inputs,
		Outputs: outputs,
	})
	for outIdx, w := range outputs {
		b.wires[w].Drivers = append(b.wires[w].Drivers, driverRef{Component: id, OutIndex: outIdx})
	}
	return id
}

// Build freezes the Builder into a compiled, runnable Simulator. A failed
// Build leaves the Builder untouched and safe to retry after fixing the
// problem; Build never mutates b on the error path because it only ever
// reads from it.
func (b *Builder) Build() (*Simulator, error) {
	if err := b.checkResourceBudget(); err != nil {
		return nil, err
	}

	g := &Graph{
		wires:      append([]Wire(nil), b.wires...),
		components: append([]Component(nil), b.components...),
	}
	n := len(g.wires)
	g.fanout = make([][]ComponentID, n)
	g.resolved = make([]state.LogicState, n)
	g.conflict = make([][4]uint64, n)
	g.contribs = make([][]state.LogicState, n)
	g.clockWires = make([]WireID, len(g.components))

	for i, w := range g.wires {
		g.contribs[i] = make([]state.LogicState, len(w.Drivers))
		for d := range w.Drivers {
			g.contribs[i][d] = state.AllZ(w.Width)
		}
		g.resolved[i] = w.BaseDrive
	}

	for ci := range g.components {
		c := &g.components[ci]
		c.outSlot = make([]int, len(c.Outputs))
		for outIdx, w := range c.Outputs {
			slot := -1
			for d, ref := range g.wires[w].Drivers {
				if ref.Component == c.ID && ref.OutIndex == outIdx {
					slot = d
					break
				}
			}
			c.outSlot[outIdx] = slot
		}
		g.clockWires[ci] = c.clockWire()
		for _, w := range c.fanoutSources() {
			g.fanout[w] = append(g.fanout[w], c.ID)
		}
	}

	g.lastClock = make([]state.BitState, len(g.components))
	for i, w := range g.clockWires {
		if w != InvalidWireID {
			g.lastClock[i] = g.resolved[w].GetBitState(0)
		}
	}

	return &Simulator{g: g}, nil
}

func (b *Builder) checkResourceBudget() error {
	var total uint64
	for _, c := range b.components {
		switch {
		case c.ram != nil:
			total += c.ram.cells.cellCount * c.ram.cells.cellBytes * 2
		case c.rom != nil:
			total += c.rom.cellCount * c.rom.cellBytes * 2
		}
	}
	if total > maxGraphBytes {
		return state.NewError("Build", state.ResourceLimitReached,
			"combined RAM/ROM storage exceeds the implementation's memory budget")
	}
	return nil
}
