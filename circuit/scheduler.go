package circuit

import "github.com/cellwire/gologic/state"

// RunStatus is the outcome of a RunSim call.
type RunStatus int

const (
	// Ok reports that the circuit settled with no unresolved driver
	// conflicts before maxSteps was exhausted.
	Ok RunStatus = iota
	// MaxStepsReached reports that the settle loop did not reach a
	// fixpoint within the step budget. The graph's resolved wire states
	// are left exactly as they stood at the point of exhaustion, and a
	// later RunSim call may continue settling from there.
	MaxStepsReached
	// Conflict reports that the circuit settled, but one or more wires
	// have two or more disagreeing non-Z drivers.
	Conflict
)

func (r RunStatus) String() string {
	switch r {
	case Ok:
		return "Ok"
	case MaxStepsReached:
		return "MaxStepsReached"
	case Conflict:
		return "Conflict"
	default:
		return "?"
	}
}

// RunResult is RunSim's outcome: how many component evaluations it took,
// its status, and (for Conflict) which wires are unresolved.
type RunResult struct {
	Steps         int
	Status        RunStatus
	ConflictWires []WireID
}

// SetWireDrive changes a wire's base drive after Build, the Simulator-level
// counterpart to Builder.SetWireDrive used to pulse inputs between RunSim
// calls (e.g. raising a clock, changing a data bus). The change takes
// effect on the next RunSim call.
func (s *Simulator) SetWireDrive(w WireID, v state.LogicState) error {
	g := s.g
	if int(w) >= len(g.wires) {
		return state.NewError("SetWireDrive", state.InvalidWireId, "unknown wire id")
	}
	if v.Width() != g.wires[w].Width {
		return state.NewError("SetWireDrive", state.WireWidthMismatch,
			"drive width does not match wire width")
	}
	g.wires[w].BaseDrive = v
	g.recomputeWire(w)
	return nil
}

// WireState returns a wire's current resolved value.
func (s *Simulator) WireState(w WireID) (state.LogicState, error) {
	if int(w) >= len(s.g.wires) {
		return state.LogicState{}, state.NewError("WireState", state.InvalidWireId, "unknown wire id")
	}
	return s.g.resolved[w], nil
}

// RegisterState returns a register component's currently latched value.
func (s *Simulator) RegisterState(c ComponentID) (state.LogicState, error) {
	if int(c) >= len(s.g.components) || s.g.components[c].reg == nil {
		return state.LogicState{}, state.NewError("RegisterState", state.InvalidComponentId, "not a register component")
	}
	return s.g.components[c].reg.value, nil
}

// RAMCell returns the current contents of one RAM cell.
func (s *Simulator) RAMCell(c ComponentID, addr uint64) (state.LogicState, error) {
	if int(c) >= len(s.g.components) || s.g.components[c].ram == nil {
		return state.LogicState{}, state.NewError("RAMCell", state.InvalidComponentId, "not a RAM component")
	}
	cells := s.g.components[c].ram.cells
	if addr >= cells.cellCount {
		return state.LogicState{}, state.NewError("RAMCell", state.OffsetOutOfRange, "address out of range")
	}
	return cells.read(addr), nil
}

// workQueue is a FIFO of pending component IDs with membership tracking so
// a component already queued isn't queued twice.
type workQueue struct {
	pending []ComponentID
	queued  []bool
}

func newWorkQueue(n int) *workQueue {
	return &workQueue{queued: make([]bool, n)}
}

func (q *workQueue) push(c ComponentID) {
	if q.queued[c] {
		return
	}
	q.queued[c] = true
	q.pending = append(q.pending, c)
}

func (q *workQueue) pop() (ComponentID, bool) {
	if len(q.pending) == 0 {
		return 0, false
	}
	c := q.pending[0]
	q.pending = q.pending[1:]
	q.queued[c] = false
	return c, true
}

func (q *workQueue) enqueueAll(ids []ComponentID) {
	for _, id := range ids {
		q.push(id)
	}
}

// recomputeWire re-derives a wire's resolved value and conflict mask from
// its base drive and current driver contributions. It does not enqueue
// anything; callers decide whether the result changed enough to matter.
func (g *Graph) recomputeWire(w WireID) (changed bool) {
	old := g.resolved[w]
	width := g.wires[w].Width
	merged, conflict := state.MergeAll(width, append([]state.LogicState{g.wires[w].BaseDrive}, g.contribs[w]...)...)
	g.resolved[w] = merged
	g.conflict[w] = conflict
	return !state.Eq(old, merged, width)
}

// evaluate runs one component's transfer function and folds its outputs
// into the wires it drives, returning the set of wires whose resolved
// value changed as a result.
func (g *Graph) evaluate(cid ComponentID) []WireID {
	c := &g.components[cid]
	outputs := transferTable[c.Kind](g, c)
	var changed []WireID
	for i, w := range c.Outputs {
		slot := c.outSlot[i]
		g.contribs[w][slot] = outputs[i]
		if g.recomputeWire(w) {
			changed = append(changed, w)
		}
	}
	return changed
}

// refreshClockBaseline records each clocked component's current clock-wire
// bit into lastClock, the baseline the next RunSim call's edge detection
// will compare against.
func (g *Graph) refreshClockBaseline() {
	for i, w := range g.clockWires {
		if w != InvalidWireID {
			g.lastClock[i] = g.resolved[w].GetBitState(0)
		}
	}
}

// RunSim settles the circuit: components are evaluated and their outputs
// merged into wire state until no further change propagates (a fixpoint)
// or maxSteps component evaluations have been spent, whichever comes
// first. Once the combinational fixpoint is reached, any clocked
// component (Register, RAM) whose clock wire made the transition its
// Polarity names commits its scheduled update, and the whole settle loop
// runs again in case that unlatches further combinational changes. Each
// clocked component commits at most once per RunSim call, matching a
// single clock pulse; a second edge on the same call is not possible since
// nothing re-drives the clock wire mid-call.
func (s *Simulator) RunSim(maxSteps int) (RunResult, error) {
	if maxSteps <= 0 {
		return RunResult{}, state.NewError("RunSim", state.ArgumentOutOfRange, "maxSteps must be positive")
	}
	g := s.g
	logger := s.logger
	if logger == nil {
		logger = defaultLogger
	}
	steps := 0
	committed := make([]bool, len(g.components))

	for {
		q := newWorkQueue(len(g.components))
		for i := range g.components {
			q.push(ComponentID(i))
		}

		for {
			cid, ok := q.pop()
			if !ok {
				break
			}
			if steps >= maxSteps {
				result := RunResult{Steps: steps, Status: MaxStepsReached}
				s.lastStats = RunStats{LastSteps: result.Steps, LastStatus: result.Status}
				return result, nil
			}
			steps++
			traceEval(logger, cid, &g.components[cid])
			changed := g.evaluate(cid)
			for _, w := range changed {
				q.enqueueAll(g.fanout[w])
			}
		}

		edgeComponents := g.detectEdges(committed)
		if len(edgeComponents) == 0 {
			break
		}
		for _, cid := range edgeComponents {
			committed[cid] = true
		}
		g.commitEdges(edgeComponents)
	}

	g.refreshClockBaseline()

	conflicts := g.collectConflicts()
	result := RunResult{Steps: steps, Status: Ok}
	if len(conflicts) > 0 {
		result = RunResult{Steps: steps, Status: Conflict, ConflictWires: conflicts}
	}
	s.lastStats = RunStats{LastSteps: result.Steps, LastStatus: result.Status, ConflictWires: len(result.ConflictWires)}
	return result, nil
}

// detectEdges reports the (not-yet-committed) clocked components whose
// clock wire just made the transition their Polarity requires, measured
// against lastClock (the baseline left by the previous RunSim call).
func (g *Graph) detectEdges(committed []bool) []ComponentID {
	var edges []ComponentID
	for i, w := range g.clockWires {
		if w == InvalidWireID || committed[i] {
			continue
		}
		prev := g.lastClock[i]
		curr := g.resolved[w].GetBitState(0)
		c := &g.components[i]
		fires := (c.Polarity == Rising && prev == state.Zero && curr == state.One) ||
			(c.Polarity == Falling && prev == state.One && curr == state.Zero)
		if fires {
			edges = append(edges, ComponentID(i))
		}
	}
	return edges
}

// commitEdges applies each edge-triggered component's scheduled update,
// all at once (reading every component's current, pre-commit inputs
// before any of them latch), matching the "internal state latches at the
// end of the current settle pass" rule.
func (g *Graph) commitEdges(edges []ComponentID) {
	type pending struct {
		reg    *registerState
		newVal state.LogicState
		ram    *ramState
		ramAll bool
		ramIdx uint64
		ramVal state.LogicState
		write  bool
	}
	plans := make([]pending, len(edges))
	for i, cid := range edges {
		c := &g.components[cid]
		switch c.Kind {
		case KindRegister:
			enable := g.resolved[c.Inputs[regEnable]].GetBitState(0)
			width := c.reg.value.Width()
			switch enable {
			case state.One:
				plans[i] = pending{reg: c.reg, newVal: g.resolved[c.Inputs[regDataIn]], write: true}
			case state.Zero:
				// held; nothing to commit
			default:
				plans[i] = pending{reg: c.reg, newVal: state.AllX(width), write: true}
			}
		case KindRAM:
			we := g.resolved[c.Inputs[ramWriteEnable]].GetBitState(0)
			addr := g.resolved[c.Inputs[ramWriteAddr]]
			dataWidth := c.ram.cells.width
			idx, addrErr := addr.ToInt(addr.Width())
			switch we {
			case state.One:
				if addrErr != nil {
					plans[i] = pending{ram: c.ram, ramAll: true, ramVal: state.AllX(dataWidth), write: true}
				} else {
					plans[i] = pending{ram: c.ram, ramIdx: uint64(idx), ramVal: g.resolved[c.Inputs[ramDataIn]], write: true}
				}
			case state.Zero:
				// held
			default:
				if addrErr != nil {
					plans[i] = pending{ram: c.ram, ramAll: true, ramVal: state.AllX(dataWidth), write: true}
				} else {
					plans[i] = pending{ram: c.ram, ramIdx: uint64(idx), ramVal: state.AllX(dataWidth), write: true}
				}
			}
		}
	}
	for _, p := range plans {
		if !p.write {
			continue
		}
		switch {
		case p.reg != nil:
			p.reg.value = p.newVal
		case p.ramAll:
			p.ram.cells.writeAll(p.ramVal)
		case p.ram != nil:
			p.ram.cells.write(p.ramIdx, p.ramVal)
		}
	}
}

// collectConflicts lists every wire whose current resolved state has at
// least one conflicting bit.
func (g *Graph) collectConflicts() []WireID {
	var wires []WireID
	for i, c := range g.conflict {
		if state.AnyConflict(c) {
			wires = append(wires, WireID(i))
		}
	}
	return wires
}
