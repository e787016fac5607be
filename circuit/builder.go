package circuit

import "github.com/cellwire/gologic/state"

func sameWidth(g func(WireID) (int, error), ids ...WireID) (int, error) {
	w, err := g(ids[0])
	if err != nil {
		return 0, err
	}
	for _, id := range ids[1:] {
		ww, err := g(id)
		if err != nil {
			return 0, err
		}
		if ww != w {
			return 0, state.NewError("Add", state.WireWidthMismatch, "operand widths must match")
		}
	}
	return w, nil
}

func (b *Builder) width(w WireID) (int, error) {
	if !b.validWire(w) {
		return 0, state.NewError("Add", state.InvalidWireId, "unknown wire id")
	}
	return b.wires[w].Width, nil
}

// addNaryGate implements AND/OR/XOR/NAND/NOR/XNOR: k >= 2 equal-width
// inputs, one output of that same width.
func (b *Builder) addNaryGate(kind Kind, inputs []WireID, output WireID) (ComponentID, error) {
	if len(inputs) < 2 {
		return InvalidComponentID, state.NewError("Add"+string(kind), state.TooFewInputs,
			"gate needs at least 2 inputs")
	}
	w, err := sameWidth(b.width, append(append([]WireID(nil), inputs...), output)...)
	if err != nil {
		return InvalidComponentID, err
	}
	_ = w
	return b.addComponent(kind, append([]WireID(nil), inputs...), []WireID{output}), nil
}

func (b *Builder) AddAnd(inputs []WireID, output WireID) (ComponentID, error) {
	return b.addNaryGate(KindAnd, inputs, output)
}
func (b *Builder) AddOr(inputs []WireID, output WireID) (ComponentID, error) {
	return b.addNaryGate(KindOr, inputs, output)
}
func (b *Builder) AddXor(inputs []WireID, output WireID) (ComponentID, error) {
	return b.addNaryGate(KindXor, inputs, output)
}
func (b *Builder) AddNand(inputs []WireID, output WireID) (ComponentID, error) {
	return b.addNaryGate(KindNand, inputs, output)
}
func (b *Builder) AddNor(inputs []WireID, output WireID) (ComponentID, error) {
	return b.addNaryGate(KindNor, inputs, output)
}
func (b *Builder) AddXnor(inputs []WireID, output WireID) (ComponentID, error) {
	return b.addNaryGate(KindXnor, inputs, output)
}

// AddNot is the single unary bitwise gate: 1 input, equal-width output.
func (b *Builder) AddNot(input, output WireID) (ComponentID, error) {
	if _, err := sameWidth(b.width, input, output); err != nil {
		return InvalidComponentID, err
	}
	return b.addComponent(KindNot, []WireID{input}, []WireID{output}), nil
}

func (b *Builder) addHorizontal(kind Kind, input, output WireID) (ComponentID, error) {
	if !b.validWire(input) || !b.validWire(output) {
		return InvalidComponentID, state.NewError("Add"+string(kind), state.InvalidWireId, "unknown wire id")
	}
	if b.wires[output].Width != 1 {
		return InvalidComponentID, state.NewError("Add"+string(kind), state.WireWidthMismatch,
			"horizontal-reduce output must be 1 bit wide")
	}
	return b.addComponent(kind, []WireID{input}, []WireID{output}), nil
}

func (b *Builder) AddHorizontalAnd(input, output WireID) (ComponentID, error) {
	return b.addHorizontal(KindHorizontalAnd, input, output)
}
func (b *Builder) AddHorizontalOr(input, output WireID) (ComponentID, error) {
	return b.addHorizontal(KindHorizontalOr, input, output)
}
func (b *Builder) AddHorizontalXor(input, output WireID) (ComponentID, error) {
	return b.addHorizontal(KindHorizontalXor, input, output)
}
func (b *Builder) AddHorizontalNand(input, output WireID) (ComponentID, error) {
	return b.addHorizontal(KindHorizontalNand, input, output)
}
func (b *Builder) AddHorizontalNor(input, output WireID) (ComponentID, error) {
	return b.addHorizontal(KindHorizontalNor, input, output)
}
func (b *Builder) AddHorizontalXnor(input, output WireID) (ComponentID, error) {
	return b.addHorizontal(KindHorizontalXnor, input, output)
}

// addBinaryArith implements ADD/SUB/MUL: two equal-width inputs, equal-width
// output (wraps on overflow).
func (b *Builder) addBinaryArith(kind Kind, a, bWire, output WireID) (ComponentID, error) {
	if _, err := sameWidth(b.width, a, bWire, output); err != nil {
		return InvalidComponentID, err
	}
	return b.addComponent(kind, []WireID{a, bWire}, []WireID{output}), nil
}

func (b *Builder) AddAdd(a, bWire, output WireID) (ComponentID, error) {
	return b.addBinaryArith(KindAdd, a, bWire, output)
}
func (b *Builder) AddSub(a, bWire, output WireID) (ComponentID, error) {
	return b.addBinaryArith(KindSub, a, bWire, output)
}
func (b *Builder) AddMul(a, bWire, output WireID) (ComponentID, error) {
	return b.addBinaryArith(KindMul, a, bWire, output)
}

// AddNeg is two's-complement negation: 1 input, equal-width output.
func (b *Builder) AddNeg(input, output WireID) (ComponentID, error) {
	if _, err := sameWidth(b.width, input, output); err != nil {
		return InvalidComponentID, err
	}
	return b.addComponent(KindNeg, []WireID{input}, []WireID{output}), nil
}

// shiftAmountWidth is the minimum width needed to name every shift amount
// from 0 to width-1: ceil(log2(width)), at least 1 bit.
func shiftAmountWidth(width int) int {
	n := 1
	bits := 0
	for n < width {
		n <<= 1
		bits++
	}
	if bits == 0 {
		bits = 1
	}
	return bits
}

func (b *Builder) addShift(kind Kind, a, shamt, output WireID) (ComponentID, error) {
	w, err := sameWidth(b.width, a, output)
	if err != nil {
		return InvalidComponentID, err
	}
	sw, err := b.width(shamt)
	if err != nil {
		return InvalidComponentID, err
	}
	if want := shiftAmountWidth(w); sw != want {
		return InvalidComponentID, state.NewError("Add"+string(kind), state.WireWidthIncompatible,
			"shift-amount operand width must be ceil(log2(operand width))")
	}
	return b.addComponent(kind, []WireID{a, shamt}, []WireID{output}), nil
}

func (b *Builder) AddShl(a, shamt, output WireID) (ComponentID, error) {
	return b.addShift(KindShl, a, shamt, output)
}
func (b *Builder) AddShr(a, shamt, output WireID) (ComponentID, error) {
	return b.addShift(KindShr, a, shamt, output)
}
func (b *Builder) AddSar(a, shamt, output WireID) (ComponentID, error) {
	return b.addShift(KindSar, a, shamt, output)
}

func (b *Builder) addCompare(kind Kind, a, bWire, output WireID) (ComponentID, error) {
	if _, err := sameWidth(b.width, a, bWire); err != nil {
		return InvalidComponentID, err
	}
	ow, err := b.width(output)
	if err != nil {
		return InvalidComponentID, err
	}
	if ow != 1 {
		return InvalidComponentID, state.NewError("Add"+string(kind), state.WireWidthMismatch,
			"comparison output must be 1 bit wide")
	}
	return b.addComponent(kind, []WireID{a, bWire}, []WireID{output}), nil
}

func (b *Builder) AddEq(a, bWire, output WireID) (ComponentID, error)  { return b.addCompare(KindEq, a, bWire, output) }
func (b *Builder) AddNe(a, bWire, output WireID) (ComponentID, error)  { return b.addCompare(KindNe, a, bWire, output) }
func (b *Builder) AddLtu(a, bWire, output WireID) (ComponentID, error) { return b.addCompare(KindLtu, a, bWire, output) }
func (b *Builder) AddGtu(a, bWire, output WireID) (ComponentID, error) { return b.addCompare(KindGtu, a, bWire, output) }
func (b *Builder) AddLeu(a, bWire, output WireID) (ComponentID, error) { return b.addCompare(KindLeu, a, bWire, output) }
func (b *Builder) AddGeu(a, bWire, output WireID) (ComponentID, error) { return b.addCompare(KindGeu, a, bWire, output) }
func (b *Builder) AddLts(a, bWire, output WireID) (ComponentID, error) { return b.addCompare(KindLts, a, bWire, output) }
func (b *Builder) AddGts(a, bWire, output WireID) (ComponentID, error) { return b.addCompare(KindGts, a, bWire, output) }
func (b *Builder) AddLes(a, bWire, output WireID) (ComponentID, error) { return b.addCompare(KindLes, a, bWire, output) }
func (b *Builder) AddGes(a, bWire, output WireID) (ComponentID, error) { return b.addCompare(KindGes, a, bWire, output) }

func (b *Builder) addExtend(kind Kind, input, output WireID) (ComponentID, error) {
	iw, err := b.width(input)
	if err != nil {
		return InvalidComponentID, err
	}
	ow, err := b.width(output)
	if err != nil {
		return InvalidComponentID, err
	}
	if ow < iw {
		return InvalidComponentID, state.NewError("Add"+string(kind), state.WireWidthIncompatible,
			"extend output must be at least as wide as its input")
	}
	return b.addComponent(kind, []WireID{input}, []WireID{output}), nil
}

func (b *Builder) AddZeroExtend(input, output WireID) (ComponentID, error) {
	return b.addExtend(KindZeroExtend, input, output)
}
func (b *Builder) AddSignExtend(input, output WireID) (ComponentID, error) {
	return b.addExtend(KindSignExtend, input, output)
}

// AddSlice extracts output.Width bits from input starting at bit offset.
func (b *Builder) AddSlice(input WireID, offset int, output WireID) (ComponentID, error) {
	iw, err := b.width(input)
	if err != nil {
		return InvalidComponentID, err
	}
	ow, err := b.width(output)
	if err != nil {
		return InvalidComponentID, err
	}
	if offset < 0 || offset+ow > iw {
		return InvalidComponentID, state.NewError("AddSlice", state.OffsetOutOfRange,
			"offset+output width must fit within the input width")
	}
	c := b.addComponent(KindSlice, []WireID{input}, []WireID{output})
	b.components[c].Offset = offset
	return c, nil
}

// AddMerge concatenates k >= 2 inputs (inputs[0] least significant) into an
// output whose width is the sum of the input widths.
func (b *Builder) AddMerge(inputs []WireID, output WireID) (ComponentID, error) {
	if len(inputs) < 2 {
		return InvalidComponentID, state.NewError("AddMerge", state.TooFewInputs,
			"merge needs at least 2 inputs")
	}
	sum := 0
	for _, w := range inputs {
		iw, err := b.width(w)
		if err != nil {
			return InvalidComponentID, err
		}
		sum += iw
	}
	ow, err := b.width(output)
	if err != nil {
		return InvalidComponentID, err
	}
	if ow != sum {
		return InvalidComponentID, state.NewError("AddMerge", state.WireWidthMismatch,
			"output width must equal the sum of the input widths")
	}
	return b.addComponent(KindMerge, append([]WireID(nil), inputs...), []WireID{output}), nil
}

// AddPriorityDecoder takes k >= 1 one-bit request inputs and outputs the
// 1-based index of the lowest-indexed asserted input (0 if none are
// asserted), in an output wide enough to hold that range.
func (b *Builder) AddPriorityDecoder(inputs []WireID, output WireID) (ComponentID, error) {
	if len(inputs) < 1 {
		return InvalidComponentID, state.NewError("AddPriorityDecoder", state.TooFewInputs,
			"priority decoder needs at least 1 input")
	}
	for _, w := range inputs {
		iw, err := b.width(w)
		if err != nil {
			return InvalidComponentID, err
		}
		if iw != 1 {
			return InvalidComponentID, state.NewError("AddPriorityDecoder", state.WireWidthMismatch,
				"priority decoder inputs must be 1 bit wide")
		}
	}
	ow, err := b.width(output)
	if err != nil {
		return InvalidComponentID, err
	}
	if want := shiftAmountWidth(len(inputs) + 1); ow != want {
		return InvalidComponentID, state.NewError("AddPriorityDecoder", state.WireWidthIncompatible,
			"output width must be wide enough to hold [0,len(inputs)]")
	}
	return b.addComponent(KindPriorityDecoder, append([]WireID(nil), inputs...), []WireID{output}), nil
}

// AddBuffer is a tri-state buffer: data passes through to output when enable
// is logic-1, output is high-Z when enable is logic-0, and undefined when
// enable is X or Z.
func (b *Builder) AddBuffer(data, enable, output WireID) (ComponentID, error) {
	if _, err := sameWidth(b.width, data, output); err != nil {
		return InvalidComponentID, err
	}
	ew, err := b.width(enable)
	if err != nil {
		return InvalidComponentID, err
	}
	if ew != 1 {
		return InvalidComponentID, state.NewError("AddBuffer", state.WireWidthMismatch,
			"enable must be 1 bit wide")
	}
	inputs := make([]WireID, 2)
	inputs[bufData], inputs[bufEnable] = data, enable
	return b.addComponent(KindBuffer, inputs, []WireID{output}), nil
}

// AddMux selects one of 2^s data inputs, sel.Width == s, all data inputs and
// the output sharing one width.
func (b *Builder) AddMux(sel WireID, data []WireID, output WireID) (ComponentID, error) {
	if len(data) < 2 || len(data)&(len(data)-1) != 0 {
		return InvalidComponentID, state.NewError("AddMux", state.InvalidInputCount,
			"mux needs a power-of-two number of data inputs, at least 2")
	}
	w, err := sameWidth(b.width, append(append([]WireID(nil), data...), output)...)
	if err != nil {
		return InvalidComponentID, err
	}
	_ = w
	sw, err := b.width(sel)
	if err != nil {
		return InvalidComponentID, err
	}
	if want := shiftAmountWidth(len(data)); sw != want {
		return InvalidComponentID, state.NewError("AddMux", state.WireWidthIncompatible,
			"select width must equal log2(number of data inputs)")
	}
	inputs := append([]WireID{sel}, data...)
	return b.addComponent(KindMux, inputs, []WireID{output}), nil
}

// AddAdder is a full adder with carry: a, b and sum share a width;
// carryIn/carryOut are 1 bit.
func (b *Builder) AddAdder(a, bWire, carryIn, sum, carryOut WireID) (ComponentID, error) {
	if _, err := sameWidth(b.width, a, bWire, sum); err != nil {
		return InvalidComponentID, err
	}
	for _, w := range []WireID{carryIn, carryOut} {
		ww, err := b.width(w)
		if err != nil {
			return InvalidComponentID, err
		}
		if ww != 1 {
			return InvalidComponentID, state.NewError("AddAdder", state.WireWidthMismatch,
				"carry in/out must be 1 bit wide")
		}
	}
	inputs := make([]WireID, 3)
	inputs[adderA], inputs[adderB], inputs[adderCarryIn] = a, bWire, carryIn
	return b.addComponent(KindAdder, inputs, []WireID{sum, carryOut}), nil
}

// AddRegister adds an edge-triggered register: dataIn/dataOut share a
// width, enable/clock are 1 bit, and initial must match dataIn's width.
func (b *Builder) AddRegister(dataIn, enable, clock, dataOut WireID, polarity Polarity, initial state.LogicState) (ComponentID, error) {
	w, err := sameWidth(b.width, dataIn, dataOut)
	if err != nil {
		return InvalidComponentID, err
	}
	if initial.Width() != w {
		return InvalidComponentID, state.NewError("AddRegister", state.WireWidthMismatch,
			"initial state width must match dataIn/dataOut width")
	}
	for _, ctrl := range []WireID{enable, clock} {
		cw, err := b.width(ctrl)
		if err != nil {
			return InvalidComponentID, err
		}
		if cw != 1 {
			return InvalidComponentID, state.NewError("AddRegister", state.WireWidthMismatch,
				"enable/clock must be 1 bit wide")
		}
	}
	inputs := make([]WireID, 3)
	inputs[regDataIn], inputs[regEnable], inputs[regClock] = dataIn, enable, clock
	c := b.addComponent(KindRegister, inputs, []WireID{dataOut})
	b.components[c].Polarity = polarity
	b.components[c].reg = &registerState{value: initial}
	return c, nil
}

// AddRAM adds a RAM with an asynchronous read port and a clocked write port.
// writeAddr/readAddr share an address width; dataIn/dataOut share a data
// width. The cell count is 2^addressWidth, capped by maxCellAddrWidth.
func (b *Builder) AddRAM(writeAddr, dataIn, readAddr, writeEnable, clock, dataOut WireID, polarity Polarity) (ComponentID, error) {
	addrWidth, err := sameWidth(b.width, writeAddr, readAddr)
	if err != nil {
		return InvalidComponentID, err
	}
	dataWidth, err := sameWidth(b.width, dataIn, dataOut)
	if err != nil {
		return InvalidComponentID, err
	}
	for _, ctrl := range []WireID{writeEnable, clock} {
		cw, err := b.width(ctrl)
		if err != nil {
			return InvalidComponentID, err
		}
		if cw != 1 {
			return InvalidComponentID, state.NewError("AddRAM", state.WireWidthMismatch,
				"writeEnable/clock must be 1 bit wide")
		}
	}
	cells, err := newCellStore(dataWidth, addrWidth)
	if err != nil {
		return InvalidComponentID, err
	}
	inputs := make([]WireID, 5)
	inputs[ramWriteAddr], inputs[ramDataIn], inputs[ramReadAddr], inputs[ramWriteEnable], inputs[ramClock] =
		writeAddr, dataIn, readAddr, writeEnable, clock
	c := b.addComponent(KindRAM, inputs, []WireID{dataOut})
	b.components[c].Polarity = polarity
	b.components[c].ram = &ramState{cells: cells}
	return c, nil
}

// SetRAMCell overrides one cell's initial contents before Build.
func (b *Builder) SetRAMCell(c ComponentID, addr uint64, val state.LogicState) error {
	if !b.validComponent(c) || b.components[c].ram == nil {
		return state.NewError("SetRAMCell", state.InvalidComponentId, "not a RAM component")
	}
	cells := b.components[c].ram.cells
	if addr >= cells.cellCount {
		return state.NewError("SetRAMCell", state.OffsetOutOfRange, "address out of range")
	}
	if val.Width() != cells.width {
		return state.NewError("SetRAMCell", state.WireWidthMismatch, "value width must match data width")
	}
	cells.write(addr, val)
	return nil
}

// AddROM adds a read-only memory: a pure combinational lookup from addr to
// dataOut, with contents fixed once Build runs.
func (b *Builder) AddROM(addr, dataOut WireID) (ComponentID, error) {
	addrWidth, err := b.width(addr)
	if err != nil {
		return InvalidComponentID, err
	}
	dataWidth, err := b.width(dataOut)
	if err != nil {
		return InvalidComponentID, err
	}
	cells, err := newCellStore(dataWidth, addrWidth)
	if err != nil {
		return InvalidComponentID, err
	}
	c := b.addComponent(KindROM, []WireID{addr}, []WireID{dataOut})
	b.components[c].rom = cells
	return c, nil
}

// SetROMCell sets one cell's contents before Build.
func (b *Builder) SetROMCell(c ComponentID, addr uint64, val state.LogicState) error {
	if !b.validComponent(c) || b.components[c].rom == nil {
		return state.NewError("SetROMCell", state.InvalidComponentId, "not a ROM component")
	}
	cells := b.components[c].rom
	if addr >= cells.cellCount {
		return state.NewError("SetROMCell", state.OffsetOutOfRange, "address out of range")
	}
	if val.Width() != cells.width {
		return state.NewError("SetROMCell", state.WireWidthMismatch, "value width must match data width")
	}
	cells.write(addr, val)
	return nil
}

// SetROMContents bulk-initializes a ROM's cells starting at address 0.
func (b *Builder) SetROMContents(c ComponentID, vals []state.LogicState) error {
	for i, v := range vals {
		if err := b.SetROMCell(c, uint64(i), v); err != nil {
			return err
		}
	}
	return nil
}
