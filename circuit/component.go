package circuit

import "github.com/cellwire/gologic/state"

// Component is the tagged variant over every component kind.
// Every kind has a fixed input/output arity and width-compatibility rule,
// validated by the Builder at Add time (never deferred to Build). Ports are
// addressed positionally: Inputs[i]/Outputs[i] mean whatever the Kind's
// transfer function (eval.go) says they mean for that Kind.
type Component struct {
	ID      ComponentID
	Kind    Kind
	Name    string
	Inputs  []WireID
	Outputs []WireID

	// Offset is the bit offset for KindSlice.
	Offset int

	// Polarity is the clock edge for KindRegister and KindRAM.
	Polarity Polarity

	// reg/ram/rom hold the internal state for stateful kinds, owned
	// exclusively by the compiled graph: there are no back-references from
	// wires to components. Exactly one is non-nil, matching Kind.
	reg *registerState
	ram *ramState
	rom *cellStore

	// outSlot[i] is the index into the owning Graph's contribs[Outputs[i]]
	// slice that belongs to this component's i'th output. Filled in by
	// Build; unused before then.
	outSlot []int
}

// Input port positions for the multi-input kinds the scheduler and
// evaluator need to pick apart by position rather than just folding over
// every input (registers, RAM, mux, buffer, adder). K-ary gates, compares,
// and the purely positional kinds (NOT, NEG, ZEXT, SEXT, SLICE, ROM) just
// index Inputs directly and don't need named constants.
const (
	regDataIn  = 0
	regEnable  = 1
	regClock   = 2
	ramWriteAddr  = 0
	ramDataIn     = 1
	ramReadAddr   = 2
	ramWriteEnable = 3
	ramClock      = 4
	bufData   = 0
	bufEnable = 1
	adderA       = 0
	adderB       = 1
	adderCarryIn = 2
)

// clockWire returns the wire this component reacts to on a clock edge, or
// InvalidWireID if it isn't clocked.
func (c *Component) clockWire() WireID {
	switch c.Kind {
	case KindRegister:
		return c.Inputs[regClock]
	case KindRAM:
		return c.Inputs[ramClock]
	default:
		return InvalidWireID
	}
}

// fanoutSources lists the wires whose resolved-value change should enqueue
// this component for re-evaluation. For Register, nothing does: its output
// only changes via a clock-edge commit, which re-queues it directly. For
// RAM, only readAddr does, since reads are asynchronous while writes are
// clocked. Every other kind depends combinationally on all of its Inputs.
func (c *Component) fanoutSources() []WireID {
	switch c.Kind {
	case KindRegister:
		return nil
	case KindRAM:
		return []WireID{c.Inputs[ramReadAddr]}
	default:
		return c.Inputs
	}
}

// registerState is the internal state of a KindRegister component: the
// currently-latched value. Its scheduled update (if any) is computed and
// applied entirely within Graph.commitEdges, which batches every
// edge-triggered component's plan before committing any of them.
type registerState struct {
	value state.LogicState
}

// ramState is the internal state of a KindRAM component.
type ramState struct {
	cells *cellStore
}

func (c *Component) outputWidth(g *Graph) int { return g.wires[c.Outputs[0]].Width }
func (c *Component) inputWidth(g *Graph, i int) int { return g.wires[c.Inputs[i]].Width }
