// Package circuit implements the circuit builder, the compiled graph it
// freezes into, the per-component-kind evaluator, and the settling
// scheduler. It uses a tagged-variant-over-a-dispatch-table design: Kind is
// a small closed enumeration and every behavior keyed on it lives in a
// map[Kind]transferFunc rather than in per-kind types with methods.
package circuit

import "github.com/cellwire/gologic/state"

// WireID identifies a wire. IDs are dense and assigned monotonically from 0
// by the Builder. InvalidWireID is never returned by a successful operation.
type WireID uint32

// InvalidWireID is the reserved "no wire" sentinel.
const InvalidWireID WireID = 0xFFFFFFFF

// ComponentID identifies a component the same way WireID identifies a wire.
type ComponentID uint32

// InvalidComponentID is the reserved "no component" sentinel.
const InvalidComponentID ComponentID = 0xFFFFFFFF

// Kind tags the variant a Component is. It is a closed enumeration: eval.go's
// transferTable map has an entry for every Kind.
type Kind string

// The complete list of component kinds.
const (
	KindAnd  Kind = "AND"
	KindOr   Kind = "OR"
	KindXor  Kind = "XOR"
	KindNand Kind = "NAND"
	KindNor  Kind = "NOR"
	KindXnor Kind = "XNOR"
	KindNot  Kind = "NOT"

	KindHorizontalAnd  Kind = "HAND"
	KindHorizontalOr   Kind = "HOR"
	KindHorizontalXor  Kind = "HXOR"
	KindHorizontalNand Kind = "HNAND"
	KindHorizontalNor  Kind = "HNOR"
	KindHorizontalXnor Kind = "HXNOR"

	KindAdd Kind = "ADD"
	KindSub Kind = "SUB"
	KindMul Kind = "MUL"
	KindNeg Kind = "NEG"

	KindShl Kind = "SHL" // logical left
	KindShr Kind = "SHR" // logical right
	KindSar Kind = "SAR" // arithmetic right

	KindEq  Kind = "EQ"
	KindNe  Kind = "NE"
	KindLtu Kind = "LTU"
	KindGtu Kind = "GTU"
	KindLeu Kind = "LEU"
	KindGeu Kind = "GEU"
	KindLts Kind = "LTS"
	KindGts Kind = "GTS"
	KindLes Kind = "LES"
	KindGes Kind = "GES"

	KindZeroExtend Kind = "ZEXT"
	KindSignExtend Kind = "SEXT"

	KindSlice Kind = "SLICE"
	KindMerge Kind = "MERGE"

	KindPriorityDecoder Kind = "PRIORITY"

	KindBuffer Kind = "BUFFER"
	KindMux    Kind = "MUX"
	KindAdder  Kind = "ADDER"

	KindRegister Kind = "REGISTER"
	KindRAM      Kind = "RAM"
	KindROM      Kind = "ROM"
)

// Polarity selects which clock transition a Register or RAM reacts to.
type Polarity int

const (
	// Rising triggers on a clock wire's 0->1 transition.
	Rising Polarity = iota
	// Falling triggers on a clock wire's 1->0 transition.
	Falling
)

func (p Polarity) String() string {
	if p == Rising {
		return "rising"
	}
	return "falling"
}

// Wire is a single wire in the circuit: a width, an optional name, a base
// drive, and (once compiled) the set of component outputs that also drive
// it. Width is immutable once the wire is created.
type Wire struct {
	ID    WireID
	Width int
	Name  string

	// BaseDrive is the wire's own drive, independent of any component
	// output. Defaults to all-Z.
	BaseDrive state.LogicState

	// Drivers lists the component outputs that target this wire, in the
	// order they were added. Populated by the Builder, read by compile.
	Drivers []driverRef
}

// driverRef names one component output that drives a wire: component c's
// output-port index outIdx.
type driverRef struct {
	Component ComponentID
	OutIndex  int
}
