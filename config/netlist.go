// Package config loads a circuit description from a YAML netlist file,
// the declarative front end over circuit.Builder. It uses a two-layer
// IR: an unexported YAML-tagged struct tree decoded with gopkg.in/yaml.v3,
// converted into the real graph via a circuit.Builder rather than
// returned as-is.
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cellwire/gologic/circuit"
	"github.com/cellwire/gologic/state"
)

type yamlWire struct {
	Name  string `yaml:"name"`
	Width int    `yaml:"width"`
	Drive string `yaml:"drive"`
}

type yamlComponent struct {
	Name     string   `yaml:"name"`
	Kind     string   `yaml:"kind"`
	Inputs   []string `yaml:"inputs"`
	Outputs  []string `yaml:"outputs"`
	Offset   int      `yaml:"offset"`
	Polarity string   `yaml:"polarity"`
	Initial  string   `yaml:"initial"`
	Contents []string `yaml:"contents"`
}

type yamlNetlist struct {
	Wires      []yamlWire      `yaml:"wires"`
	Components []yamlComponent `yaml:"components"`
}

// NameTable resolves the names a netlist file assigned to wires and
// components back to their circuit.WireID/ComponentID, since Builder
// itself only deals in dense integer IDs.
type NameTable struct {
	Wires      map[string]circuit.WireID
	Components map[string]circuit.ComponentID
}

// LoadFile reads a YAML netlist from path and compiles it into a running
// Simulator. Every structural problem (bad width, unknown wire name,
// unknown component kind, duplicate name) is reported as a state.Error
// with the op name the YAML entry that caused it, not a panic: a
// malformed netlist file is exactly the kind of external input §7
// classifies as an ordinary, locally-reported error.
func LoadFile(path string) (*circuit.Simulator, *NameTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, state.Wrap("LoadFile", state.Io, "reading netlist file", err)
	}
	return Load(data)
}

// Load parses YAML netlist content already in memory.
func Load(data []byte) (*circuit.Simulator, *NameTable, error) {
	var doc yamlNetlist
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, state.Wrap("Load", state.MalformedFormat, "parsing netlist YAML", err)
	}

	b := circuit.NewBuilder()
	names := &NameTable{
		Wires:      make(map[string]circuit.WireID),
		Components: make(map[string]circuit.ComponentID),
	}

	for _, w := range doc.Wires {
		if _, dup := names.Wires[w.Name]; dup {
			return nil, nil, state.NewError("Load", state.InvalidArgument, "duplicate wire name "+w.Name)
		}
		id, err := b.AddWire(w.Width)
		if err != nil {
			return nil, nil, err
		}
		if err := b.SetWireName(id, w.Name); err != nil {
			return nil, nil, err
		}
		if w.Drive != "" {
			drive, err := state.Parse(w.Drive)
			if err != nil {
				return nil, nil, err
			}
			if err := b.SetWireDrive(id, drive); err != nil {
				return nil, nil, err
			}
		}
		names.Wires[w.Name] = id
	}

	for _, comp := range doc.Components {
		id, err := addComponent(b, names, comp)
		if err != nil {
			return nil, nil, err
		}
		if comp.Name != "" {
			if _, dup := names.Components[comp.Name]; dup {
				return nil, nil, state.NewError("Load", state.InvalidArgument, "duplicate component name "+comp.Name)
			}
			if err := b.SetComponentName(id, comp.Name); err != nil {
				return nil, nil, err
			}
			names.Components[comp.Name] = id
		}
	}

	sim, err := b.Build()
	if err != nil {
		return nil, nil, err
	}
	return sim, names, nil
}

func (names *NameTable) wire(op, name string) (circuit.WireID, error) {
	id, ok := names.Wires[name]
	if !ok {
		return circuit.InvalidWireID, state.NewError(op, state.InvalidWireId, "unknown wire name "+name)
	}
	return id, nil
}

func (names *NameTable) wires(op string, list []string) ([]circuit.WireID, error) {
	ids := make([]circuit.WireID, len(list))
	for i, n := range list {
		id, err := names.wire(op, n)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

func parsePolarity(op, s string) (circuit.Polarity, error) {
	switch strings.ToLower(s) {
	case "", "rising":
		return circuit.Rising, nil
	case "falling":
		return circuit.Falling, nil
	default:
		return 0, state.NewError(op, state.InvalidArgument, "polarity must be \"rising\" or \"falling\"")
	}
}

func addComponent(b *circuit.Builder, names *NameTable, comp yamlComponent) (circuit.ComponentID, error) {
	op := "Load:" + comp.Name
	kind := strings.ToUpper(comp.Kind)

	in, err := names.wires(op, comp.Inputs)
	if err != nil {
		return circuit.InvalidComponentID, err
	}
	out, err := names.wires(op, comp.Outputs)
	if err != nil {
		return circuit.InvalidComponentID, err
	}
	one := func(ws []circuit.WireID, what string) (circuit.WireID, error) {
		if len(ws) != 1 {
			return circuit.InvalidWireID, state.NewError(op, state.InvalidInputCount, what+" must name exactly one wire")
		}
		return ws[0], nil
	}

	switch kind {
	case "AND":
		o, err := one(out, "outputs")
		if err != nil {
			return circuit.InvalidComponentID, err
		}
		return b.AddAnd(in, o)
	case "OR":
		o, err := one(out, "outputs")
		if err != nil {
			return circuit.InvalidComponentID, err
		}
		return b.AddOr(in, o)
	case "XOR":
		o, err := one(out, "outputs")
		if err != nil {
			return circuit.InvalidComponentID, err
		}
		return b.AddXor(in, o)
	case "NAND":
		o, err := one(out, "outputs")
		if err != nil {
			return circuit.InvalidComponentID, err
		}
		return b.AddNand(in, o)
	case "NOR":
		o, err := one(out, "outputs")
		if err != nil {
			return circuit.InvalidComponentID, err
		}
		return b.AddNor(in, o)
	case "XNOR":
		o, err := one(out, "outputs")
		if err != nil {
			return circuit.InvalidComponentID, err
		}
		return b.AddXnor(in, o)
	case "NOT":
		i, err := one(in, "inputs")
		if err != nil {
			return circuit.InvalidComponentID, err
		}
		o, err := one(out, "outputs")
		if err != nil {
			return circuit.InvalidComponentID, err
		}
		return b.AddNot(i, o)
	case "HAND":
		return oneToOne(b.AddHorizontalAnd, in, out, op)
	case "HOR":
		return oneToOne(b.AddHorizontalOr, in, out, op)
	case "HXOR":
		return oneToOne(b.AddHorizontalXor, in, out, op)
	case "HNAND":
		return oneToOne(b.AddHorizontalNand, in, out, op)
	case "HNOR":
		return oneToOne(b.AddHorizontalNor, in, out, op)
	case "HXNOR":
		return oneToOne(b.AddHorizontalXnor, in, out, op)
	case "ADD":
		return twoToOne(b.AddAdd, in, out, op)
	case "SUB":
		return twoToOne(b.AddSub, in, out, op)
	case "MUL":
		return twoToOne(b.AddMul, in, out, op)
	case "NEG":
		return oneToOne(b.AddNeg, in, out, op)
	case "SHL":
		return twoToOne(b.AddShl, in, out, op)
	case "SHR":
		return twoToOne(b.AddShr, in, out, op)
	case "SAR":
		return twoToOne(b.AddSar, in, out, op)
	case "EQ":
		return twoToOne(b.AddEq, in, out, op)
	case "NE":
		return twoToOne(b.AddNe, in, out, op)
	case "LTU":
		return twoToOne(b.AddLtu, in, out, op)
	case "GTU":
		return twoToOne(b.AddGtu, in, out, op)
	case "LEU":
		return twoToOne(b.AddLeu, in, out, op)
	case "GEU":
		return twoToOne(b.AddGeu, in, out, op)
	case "LTS":
		return twoToOne(b.AddLts, in, out, op)
	case "GTS":
		return twoToOne(b.AddGts, in, out, op)
	case "LES":
		return twoToOne(b.AddLes, in, out, op)
	case "GES":
		return twoToOne(b.AddGes, in, out, op)
	case "ZEXT":
		return oneToOne(b.AddZeroExtend, in, out, op)
	case "SEXT":
		return oneToOne(b.AddSignExtend, in, out, op)
	case "SLICE":
		i, err := one(in, "inputs")
		if err != nil {
			return circuit.InvalidComponentID, err
		}
		o, err := one(out, "outputs")
		if err != nil {
			return circuit.InvalidComponentID, err
		}
		return b.AddSlice(i, comp.Offset, o)
	case "MERGE":
		o, err := one(out, "outputs")
		if err != nil {
			return circuit.InvalidComponentID, err
		}
		return b.AddMerge(in, o)
	case "PRIORITY":
		o, err := one(out, "outputs")
		if err != nil {
			return circuit.InvalidComponentID, err
		}
		return b.AddPriorityDecoder(in, o)
	case "BUFFER":
		if len(in) != 2 {
			return circuit.InvalidComponentID, state.NewError(op, state.InvalidInputCount, "buffer needs data,enable inputs")
		}
		o, err := one(out, "outputs")
		if err != nil {
			return circuit.InvalidComponentID, err
		}
		return b.AddBuffer(in[0], in[1], o)
	case "MUX":
		if len(in) < 2 {
			return circuit.InvalidComponentID, state.NewError(op, state.TooFewInputs, "mux needs sel plus at least one data input")
		}
		o, err := one(out, "outputs")
		if err != nil {
			return circuit.InvalidComponentID, err
		}
		return b.AddMux(in[0], in[1:], o)
	case "ADDER":
		if len(in) != 3 || len(out) != 2 {
			return circuit.InvalidComponentID, state.NewError(op, state.InvalidInputCount, "adder needs a,b,carryIn inputs and sum,carryOut outputs")
		}
		return b.AddAdder(in[0], in[1], in[2], out[0], out[1])
	case "REGISTER":
		if len(in) != 3 || len(out) != 1 {
			return circuit.InvalidComponentID, state.NewError(op, state.InvalidInputCount, "register needs dataIn,enable,clock inputs and one output")
		}
		polarity, err := parsePolarity(op, comp.Polarity)
		if err != nil {
			return circuit.InvalidComponentID, err
		}
		var initial state.LogicState
		if comp.Initial != "" {
			initial, err = state.Parse(comp.Initial)
			if err != nil {
				return circuit.InvalidComponentID, err
			}
		} else {
			width, werr := b.WireWidth(in[0])
			if werr != nil {
				return circuit.InvalidComponentID, werr
			}
			initial = state.AllZ(width)
		}
		return b.AddRegister(in[0], in[1], in[2], out[0], polarity, initial)
	case "RAM":
		if len(in) != 5 || len(out) != 1 {
			return circuit.InvalidComponentID, state.NewError(op, state.InvalidInputCount,
				"ram needs writeAddr,dataIn,readAddr,writeEnable,clock inputs and one output")
		}
		polarity, err := parsePolarity(op, comp.Polarity)
		if err != nil {
			return circuit.InvalidComponentID, err
		}
		return b.AddRAM(in[0], in[1], in[2], in[3], in[4], out[0], polarity)
	case "ROM":
		i, err := one(in, "inputs")
		if err != nil {
			return circuit.InvalidComponentID, err
		}
		o, err := one(out, "outputs")
		if err != nil {
			return circuit.InvalidComponentID, err
		}
		id, err := b.AddROM(i, o)
		if err != nil {
			return circuit.InvalidComponentID, err
		}
		if len(comp.Contents) > 0 {
			width, werr := b.WireWidth(o)
			if werr != nil {
				return circuit.InvalidComponentID, werr
			}
			vals := make([]state.LogicState, len(comp.Contents))
			for i, c := range comp.Contents {
				v, perr := state.Parse(c)
				if perr != nil {
					return circuit.InvalidComponentID, perr
				}
				if v.Width() != width {
					return circuit.InvalidComponentID, state.NewError(op, state.WireWidthMismatch, "ROM content width mismatch")
				}
				vals[i] = v
			}
			if err := b.SetROMContents(id, vals); err != nil {
				return circuit.InvalidComponentID, err
			}
		}
		return id, nil
	default:
		return circuit.InvalidComponentID, state.NewError(op, state.Unsupported, "unknown component kind "+comp.Kind)
	}
}

func oneToOne(add func(circuit.WireID, circuit.WireID) (circuit.ComponentID, error), in, out []circuit.WireID, op string) (circuit.ComponentID, error) {
	if len(in) != 1 || len(out) != 1 {
		return circuit.InvalidComponentID, state.NewError(op, state.InvalidInputCount, "must name exactly one input and one output")
	}
	return add(in[0], out[0])
}

func twoToOne(add func(circuit.WireID, circuit.WireID, circuit.WireID) (circuit.ComponentID, error), in, out []circuit.WireID, op string) (circuit.ComponentID, error) {
	if len(in) != 2 || len(out) != 1 {
		return circuit.InvalidComponentID, state.NewError(op, state.InvalidInputCount, "must name exactly two inputs and one output")
	}
	return add(in[0], in[1], out[0])
}
