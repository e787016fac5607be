package circuit

import (
	"math/big"

	"github.com/cellwire/gologic/state"
)

// transferFunc computes a component's output states from the graph's
// current resolved wire values and the component's own internal state
// (register/RAM/ROM contents). It is pure with respect to the graph: it
// never mutates g or c. The scheduler is solely responsible for writing the
// results back into wire contributions.
type transferFunc func(g *Graph, c *Component) []state.LogicState

// transferTable is the dispatch table every component Kind is looked up in:
// one pure function per Kind, built once at package init.
var transferTable = map[Kind]transferFunc{
	KindAnd:  evalNaryGate(state.FoldAnd),
	KindOr:   evalNaryGate(state.FoldOr),
	KindXor:  evalNaryGate(state.FoldXor),
	KindNand: evalNaryGateInverted(state.FoldAnd),
	KindNor:  evalNaryGateInverted(state.FoldOr),
	KindXnor: evalNaryGateInverted(state.FoldXor),
	KindNot:  evalNot,

	KindHorizontalAnd:  evalHorizontal(state.BitAnd, false),
	KindHorizontalOr:   evalHorizontal(state.BitOr, false),
	KindHorizontalXor:  evalHorizontal(state.BitXor, false),
	KindHorizontalNand: evalHorizontal(state.BitAnd, true),
	KindHorizontalNor:  evalHorizontal(state.BitOr, true),
	KindHorizontalXnor: evalHorizontal(state.BitXor, true),

	KindAdd: evalArith2(func(a, b *big.Int) *big.Int { return new(big.Int).Add(a, b) }),
	KindSub: evalArith2(func(a, b *big.Int) *big.Int { return new(big.Int).Sub(a, b) }),
	KindMul: evalArith2(func(a, b *big.Int) *big.Int { return new(big.Int).Mul(a, b) }),
	KindNeg: evalArith1(func(a *big.Int) *big.Int { return new(big.Int).Neg(a) }),

	KindShl: evalShift(shiftLeft),
	KindShr: evalShift(shiftRightLogical),
	KindSar: evalShift(shiftRightArithmetic),

	KindEq:  evalCompareUnsigned(func(c int) bool { return c == 0 }),
	KindNe:  evalCompareUnsigned(func(c int) bool { return c != 0 }),
	KindLtu: evalCompareUnsigned(func(c int) bool { return c < 0 }),
	KindGtu: evalCompareUnsigned(func(c int) bool { return c > 0 }),
	KindLeu: evalCompareUnsigned(func(c int) bool { return c <= 0 }),
	KindGeu: evalCompareUnsigned(func(c int) bool { return c >= 0 }),
	KindLts: evalCompareSigned(func(c int) bool { return c < 0 }),
	KindGts: evalCompareSigned(func(c int) bool { return c > 0 }),
	KindLes: evalCompareSigned(func(c int) bool { return c <= 0 }),
	KindGes: evalCompareSigned(func(c int) bool { return c >= 0 }),

	KindZeroExtend: evalExtend(false),
	KindSignExtend: evalExtend(true),

	KindSlice: evalSlice,
	KindMerge: evalMerge,

	KindPriorityDecoder: evalPriorityDecoder,

	KindBuffer: evalBuffer,
	KindMux:    evalMux,
	KindAdder:  evalAdder,

	KindRegister: evalRegister,
	KindRAM:      evalRAM,
	KindROM:      evalROM,
}

func inputsOf(g *Graph, c *Component) []state.LogicState {
	ins := make([]state.LogicState, len(c.Inputs))
	for i, w := range c.Inputs {
		ins[i] = g.resolved[w]
	}
	return ins
}

func evalNaryGate(fold func([]state.LogicState) state.LogicState) transferFunc {
	return func(g *Graph, c *Component) []state.LogicState {
		return []state.LogicState{fold(inputsOf(g, c))}
	}
}

func evalNaryGateInverted(fold func([]state.LogicState) state.LogicState) transferFunc {
	return func(g *Graph, c *Component) []state.LogicState {
		return []state.LogicState{state.Not(fold(inputsOf(g, c)))}
	}
}

func evalNot(g *Graph, c *Component) []state.LogicState {
	return []state.LogicState{state.Not(g.resolved[c.Inputs[0]])}
}

// evalHorizontal folds op across every bit of the single input, producing a
// 1-bit output, inverting the fold's result when invert is set (the N*
// horizontal-reduce variants).
func evalHorizontal(op func(a, b state.BitState) state.BitState, invert bool) transferFunc {
	return func(g *Graph, c *Component) []state.LogicState {
		in := g.resolved[c.Inputs[0]]
		acc := in.GetBitState(0)
		for i := 1; i < in.Width(); i++ {
			acc = op(acc, in.GetBitState(i))
		}
		if invert {
			acc = state.BitNot(acc)
		}
		return []state.LogicState{oneBit(acc)}
	}
}

func oneBit(b state.BitState) state.LogicState {
	return state.AllZ(1).WithBit(0, b)
}

// definedBigInt returns the unsigned value of s, and false if any of its
// width bits is X or Z: an undefined input bit undefines the whole result
// for arithmetic/comparison kinds.
func definedBigInt(s state.LogicState) (*big.Int, bool) {
	v, err := s.ToBigInt(s.Width())
	if err != nil {
		return nil, false
	}
	return v, true
}

func definedSignedBigInt(s state.LogicState) (*big.Int, bool) {
	v, err := s.ToSignedBigInt(s.Width())
	if err != nil {
		return nil, false
	}
	return v, true
}

func evalArith2(op func(a, b *big.Int) *big.Int) transferFunc {
	return func(g *Graph, c *Component) []state.LogicState {
		width := c.outputWidth(g)
		a, ok1 := definedBigInt(g.resolved[c.Inputs[0]])
		b, ok2 := definedBigInt(g.resolved[c.Inputs[1]])
		if !ok1 || !ok2 {
			return []state.LogicState{state.AllX(width)}
		}
		out, _ := state.FromBigInt(width, op(a, b))
		return []state.LogicState{out}
	}
}

func evalArith1(op func(a *big.Int) *big.Int) transferFunc {
	return func(g *Graph, c *Component) []state.LogicState {
		width := c.outputWidth(g)
		a, ok := definedBigInt(g.resolved[c.Inputs[0]])
		if !ok {
			return []state.LogicState{state.AllX(width)}
		}
		out, _ := state.FromBigInt(width, op(a))
		return []state.LogicState{out}
	}
}

func shiftLeft(v *big.Int, amount, width int) *big.Int {
	if amount >= width {
		return big.NewInt(0)
	}
	return new(big.Int).Lsh(v, uint(amount))
}

func shiftRightLogical(v *big.Int, amount, width int) *big.Int {
	if amount >= width {
		return big.NewInt(0)
	}
	return new(big.Int).Rsh(v, uint(amount))
}

func shiftRightArithmetic(v *big.Int, amount, width int) *big.Int {
	// v here is the unsigned bit pattern; reinterpret signed, shift, and
	// let FromBigInt's modulo wrap it back into the output's bit pattern.
	signed := new(big.Int).Set(v)
	top := new(big.Int).Rsh(v, uint(width-1))
	if top.Bit(0) == 1 {
		signed.Sub(signed, new(big.Int).Lsh(big.NewInt(1), uint(width)))
	}
	if amount >= width {
		amount = width - 1
	}
	return new(big.Int).Rsh(signed, uint(amount))
}

func evalShift(shift func(v *big.Int, amount, width int) *big.Int) transferFunc {
	return func(g *Graph, c *Component) []state.LogicState {
		width := c.outputWidth(g)
		a := g.resolved[c.Inputs[0]]
		shamt := g.resolved[c.Inputs[1]]
		av, ok := definedBigInt(a)
		amt, amtErr := shamt.ToInt(shamt.Width())
		if !ok || amtErr != nil {
			return []state.LogicState{state.AllX(width)}
		}
		out, _ := state.FromBigInt(width, shift(av, int(amt), width))
		return []state.LogicState{out}
	}
}

func evalCompareUnsigned(pass func(cmp int) bool) transferFunc {
	return func(g *Graph, c *Component) []state.LogicState {
		a, ok1 := definedBigInt(g.resolved[c.Inputs[0]])
		b, ok2 := definedBigInt(g.resolved[c.Inputs[1]])
		if !ok1 || !ok2 {
			return []state.LogicState{state.AllX(1)}
		}
		return []state.LogicState{boolBit(pass(a.Cmp(b)))}
	}
}

func evalCompareSigned(pass func(cmp int) bool) transferFunc {
	return func(g *Graph, c *Component) []state.LogicState {
		a, ok1 := definedSignedBigInt(g.resolved[c.Inputs[0]])
		b, ok2 := definedSignedBigInt(g.resolved[c.Inputs[1]])
		if !ok1 || !ok2 {
			return []state.LogicState{state.AllX(1)}
		}
		return []state.LogicState{boolBit(pass(a.Cmp(b)))}
	}
}

func boolBit(v bool) state.LogicState {
	if v {
		s, _ := state.FromUint64(1, 1)
		return s
	}
	s, _ := state.FromUint64(1, 0)
	return s
}

// evalExtend implements zero/sign extension structurally (per bit, no
// definedness requirement): the low bits are copied as-is and the high
// bits are padding (Zero for zext, a replica of the input's top bit for
// sext, whatever state that bit happens to be in).
func evalExtend(signed bool) transferFunc {
	return func(g *Graph, c *Component) []state.LogicState {
		in := g.resolved[c.Inputs[0]]
		ow := c.outputWidth(g)
		iw := in.Width()
		pad := state.Zero
		if signed {
			pad = in.GetBitState(iw - 1)
		}
		out := state.AllZ(ow)
		out = copyBits(out, in, 0, 0, iw)
		for i := iw; i < ow; i++ {
			out = setBit(out, i, pad)
		}
		return []state.LogicState{out}
	}
}

func evalSlice(g *Graph, c *Component) []state.LogicState {
	in := g.resolved[c.Inputs[0]]
	ow := c.outputWidth(g)
	out := state.AllZ(ow)
	out = copyBits(out, in, 0, c.Offset, ow)
	return []state.LogicState{out}
}

func evalMerge(g *Graph, c *Component) []state.LogicState {
	ow := c.outputWidth(g)
	out := state.AllZ(ow)
	pos := 0
	for _, w := range c.Inputs {
		in := g.resolved[w]
		out = copyBits(out, in, pos, 0, in.Width())
		pos += in.Width()
	}
	return []state.LogicState{out}
}

// copyBits copies n bits from src starting at srcOffset into dst starting
// at dstOffset, returning the updated dst. Used by slice/merge/extend,
// which are purely structural rearrangements of bit-planes.
func copyBits(dst, src state.LogicState, dstOffset, srcOffset, n int) state.LogicState {
	for i := 0; i < n; i++ {
		dst = setBit(dst, dstOffset+i, src.GetBitState(srcOffset+i))
	}
	return dst
}

func setBit(s state.LogicState, i int, b state.BitState) state.LogicState {
	return s.WithBit(i, b)
}

// evalPriorityDecoder scans inputs from index 0 up. The first input found
// at logic-1 wins, regardless of any later input's value. An input found
// at X or Z before any logic-1 makes the result undefined, since a later
// logic-1 could still be hiding behind it. Zero inputs are skipped. No
// request at all (everything logic-0) yields 0.
func evalPriorityDecoder(g *Graph, c *Component) []state.LogicState {
	ow := c.outputWidth(g)
	for i, w := range c.Inputs {
		b := g.resolved[w].GetBitState(0)
		switch b {
		case state.One:
			out, _ := state.FromUint64(ow, uint64(i+1))
			return []state.LogicState{out}
		case state.Undefined, state.HiZ:
			return []state.LogicState{state.AllX(ow)}
		}
	}
	out, _ := state.FromUint64(ow, 0)
	return []state.LogicState{out}
}

// evalBuffer is a tri-state buffer: enable=1 passes data through, enable=0
// drives high-Z, and enable=X/Z makes the output undefined (an
// indeterminate enable signal could be either, so the output can't be
// trusted to be either data or Z).
func evalBuffer(g *Graph, c *Component) []state.LogicState {
	data := g.resolved[c.Inputs[bufData]]
	enable := g.resolved[c.Inputs[bufEnable]].GetBitState(0)
	width := data.Width()
	switch enable {
	case state.One:
		return []state.LogicState{data}
	case state.Zero:
		return []state.LogicState{state.AllZ(width)}
	default:
		return []state.LogicState{state.AllX(width)}
	}
}

// evalMux selects data[sel] when sel is fully defined, else the whole
// output is undefined (an undefined select could pick any of the inputs).
func evalMux(g *Graph, c *Component) []state.LogicState {
	sel := g.resolved[c.Inputs[0]]
	data := c.Inputs[1:]
	width := g.wires[data[0]].Width
	idx, err := sel.ToInt(sel.Width())
	if err != nil {
		return []state.LogicState{state.AllX(width)}
	}
	if int(idx) >= len(data) {
		return []state.LogicState{state.AllX(width)}
	}
	return []state.LogicState{g.resolved[data[idx]]}
}

// evalAdder is a full adder: sum and carryOut both go undefined if any of
// a, b, or carryIn is undefined.
func evalAdder(g *Graph, c *Component) []state.LogicState {
	width := c.outputWidth(g)
	a, ok1 := definedBigInt(g.resolved[c.Inputs[adderA]])
	b, ok2 := definedBigInt(g.resolved[c.Inputs[adderB]])
	cin, ok3 := definedBigInt(g.resolved[c.Inputs[adderCarryIn]])
	if !ok1 || !ok2 || !ok3 {
		return []state.LogicState{state.AllX(width), state.AllX(1)}
	}
	total := new(big.Int).Add(a, b)
	total.Add(total, cin)
	sum, _ := state.FromBigInt(width, total)
	carry := new(big.Int).Rsh(total, uint(width))
	carryBit := boolBit(carry.Bit(0) == 1)
	return []state.LogicState{sum, carryBit}
}

func evalRegister(g *Graph, c *Component) []state.LogicState {
	return []state.LogicState{c.reg.value}
}

func evalRAM(g *Graph, c *Component) []state.LogicState {
	width := c.outputWidth(g)
	addr := g.resolved[c.Inputs[ramReadAddr]]
	idx, err := addr.ToInt(addr.Width())
	if err != nil {
		return []state.LogicState{state.AllX(width)}
	}
	return []state.LogicState{c.ram.cells.read(uint64(idx))}
}

func evalROM(g *Graph, c *Component) []state.LogicState {
	width := c.outputWidth(g)
	addr := g.resolved[c.Inputs[0]]
	idx, err := addr.ToInt(addr.Width())
	if err != nil {
		return []state.LogicState{state.AllX(width)}
	}
	return []state.LogicState{c.rom.read(uint64(idx))}
}
