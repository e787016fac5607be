package state

// Gates do not follow the "any undefined input bit undefines the whole
// result" rule that arithmetic and comparison kinds use. Gates use the
// standard IEEE-1164-style per-bit extension instead: a logic-0 input
// dominates an AND regardless of the other operand's value, a logic-1
// dominates an OR, and an undefined operand on either side of an XOR makes
// the result undefined. High-impedance inputs are treated the same as
// undefined inputs for gate propagation purposes: a gate driven by a
// floating net has no defined output to produce.
//
// Each op is computed word-parallel directly over the two bit-planes, the
// same style as Merge, so that folding a gate over many inputs stays cheap
// on wide wires.

// And computes the bitwise AND of a and b (equal width).
func And(a, b LogicState) LogicState {
	return binaryGate(a, b, func(av, ap, bv, bp uint64) (uint64, uint64) {
		aZero, bZero := ap&^av, bp&^bv
		aOne, bOne := ap&av, bp&bv
		rOne := aOne & bOne
		rZero := aZero | bZero
		rUndef := ^rZero & ^rOne
		return rOne | rUndef, rZero | rOne
	})
}

// Or computes the bitwise OR of a and b (equal width).
func Or(a, b LogicState) LogicState {
	return binaryGate(a, b, func(av, ap, bv, bp uint64) (uint64, uint64) {
		aOne, bOne := ap&av, bp&bv
		aZero, bZero := ap&^av, bp&^bv
		rOne := aOne | bOne
		rZero := aZero & bZero
		rUndef := ^rZero & ^rOne
		return rOne | rUndef, rZero | rOne
	})
}

// Xor computes the bitwise XOR of a and b (equal width).
func Xor(a, b LogicState) LogicState {
	return binaryGate(a, b, func(av, ap, bv, bp uint64) (uint64, uint64) {
		definedBoth := ap & bp
		rUndef := ^definedBoth
		v := (definedBoth & (av ^ bv)) | rUndef
		p := definedBoth
		return v, p
	})
}

// Not computes the bitwise NOT (inverter) of a.
func Not(a LogicState) LogicState {
	width := a.width
	return newState(width, func(i int) (uint64, uint64) {
		av, ap := a.value[i], a.plane[i]
		aZero := ap &^ av
		aUndef := ^ap
		v := aZero | aUndef
		p := ap
		return v, p
	})
}

func binaryGate(a, b LogicState, op func(av, ap, bv, bp uint64) (uint64, uint64)) LogicState {
	width := a.width
	return newState(width, func(i int) (uint64, uint64) {
		return op(a.value[i], a.plane[i], b.value[i], b.plane[i])
	})
}

// FoldAnd/FoldOr/FoldXor fold And/Or/Xor across inputs[1:] starting from
// inputs[0]. Callers (the k-ary gate evaluators) guarantee len(inputs) >= 2.
func FoldAnd(inputs []LogicState) LogicState { return fold(inputs, And) }
func FoldOr(inputs []LogicState) LogicState  { return fold(inputs, Or) }
func FoldXor(inputs []LogicState) LogicState { return fold(inputs, Xor) }

func fold(inputs []LogicState, op func(a, b LogicState) LogicState) LogicState {
	result := inputs[0]
	for _, in := range inputs[1:] {
		result = op(result, in)
	}
	return result
}

// BitAnd/BitOr/BitXor/BitNot are the scalar (single-bit) counterparts of the
// gate ops above, used by horizontal-reduce, where the output is always 1
// bit and a per-bit loop is simpler than a word-parallel formula.
func BitAnd(a, b BitState) BitState { return bitOp(a, b, true) }
func BitOr(a, b BitState) BitState  { return bitOp(a, b, false) }

func bitOp(a, b BitState, isAnd bool) BitState {
	dominant := Zero
	if !isAnd {
		dominant = One
	}
	if a == dominant || b == dominant {
		return dominant
	}
	if a == One && b == One && isAnd {
		return One
	}
	if a == Zero && b == Zero && !isAnd {
		return Zero
	}
	return Undefined
}

func BitXor(a, b BitState) BitState {
	if a == Undefined || a == HiZ || b == Undefined || b == HiZ {
		return Undefined
	}
	if a == b {
		return Zero
	}
	return One
}

func BitNot(a BitState) BitState {
	switch a {
	case Zero:
		return One
	case One:
		return Zero
	default:
		return Undefined
	}
}
