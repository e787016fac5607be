package circuit_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/akita/v4/monitoring"

	"github.com/cellwire/gologic/circuit"
	"github.com/cellwire/gologic/state"
)

func one(width int) state.LogicState {
	s, err := state.FromUint64(width, 1)
	Expect(err).NotTo(HaveOccurred())
	return s
}

func zero(width int) state.LogicState {
	s, err := state.FromUint64(width, 0)
	Expect(err).NotTo(HaveOccurred())
	return s
}

func fromUint(width int, v uint64) state.LogicState {
	s, err := state.FromUint64(width, v)
	Expect(err).NotTo(HaveOccurred())
	return s
}

var _ = Describe("end-to-end scenarios", func() {
	It("settles a two-input AND gate", func() {
		b := circuit.NewBuilder()
		a, _ := b.AddWire(1)
		bw, _ := b.AddWire(1)
		out, _ := b.AddWire(1)
		_, err := b.AddAnd([]circuit.WireID{a, bw}, out)
		Expect(err).NotTo(HaveOccurred())
		Expect(b.SetWireDrive(a, one(1))).To(Succeed())
		Expect(b.SetWireDrive(bw, one(1))).To(Succeed())

		sim, err := b.Build()
		Expect(err).NotTo(HaveOccurred())
		res, err := sim.RunSim(1000)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Status).To(Equal(circuit.Ok))

		got, err := sim.WireState(out)
		Expect(err).NotTo(HaveOccurred())
		Expect(state.Eq(got, one(1), 1)).To(BeTrue())
	})

	It("reports a driver conflict between a base drive and a component output", func() {
		b := circuit.NewBuilder()
		data, _ := b.AddWire(1)
		en, _ := b.AddWire(1)
		w, _ := b.AddWire(1)
		_, err := b.AddBuffer(data, en, w)
		Expect(err).NotTo(HaveOccurred())
		Expect(b.SetWireDrive(data, zero(1))).To(Succeed())
		Expect(b.SetWireDrive(en, one(1))).To(Succeed())
		Expect(b.SetWireDrive(w, one(1))).To(Succeed())

		sim, err := b.Build()
		Expect(err).NotTo(HaveOccurred())
		res, err := sim.RunSim(1000)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Status).To(Equal(circuit.Conflict))
		Expect(res.ConflictWires).To(ContainElement(w))
	})

	It("reports the most recent run through an attached monitor's Stats", func() {
		b := circuit.NewBuilder()
		a, _ := b.AddWire(1)
		bw, _ := b.AddWire(1)
		out, _ := b.AddWire(1)
		_, err := b.AddAnd([]circuit.WireID{a, bw}, out)
		Expect(err).NotTo(HaveOccurred())
		Expect(b.SetWireDrive(a, one(1))).To(Succeed())
		Expect(b.SetWireDrive(bw, one(1))).To(Succeed())

		sim, err := b.Build()
		Expect(err).NotTo(HaveOccurred())
		sim = sim.WithMonitor(monitoring.NewMonitor())

		res, err := sim.RunSim(1000)
		Expect(err).NotTo(HaveOccurred())

		stats := sim.Stats()
		Expect(stats.LastStatus).To(Equal(res.Status))
		Expect(stats.LastSteps).To(Equal(res.Steps))
		Expect(stats.ConflictWires).To(Equal(len(res.ConflictWires)))
	})

	It("computes a ripple-carry sum via the full adder", func() {
		b := circuit.NewBuilder()
		a, _ := b.AddWire(8)
		bw, _ := b.AddWire(8)
		cin, _ := b.AddWire(1)
		sum, _ := b.AddWire(8)
		cout, _ := b.AddWire(1)
		_, err := b.AddAdder(a, bw, cin, sum, cout)
		Expect(err).NotTo(HaveOccurred())
		Expect(b.SetWireDrive(a, fromUint(8, 200))).To(Succeed())
		Expect(b.SetWireDrive(bw, fromUint(8, 100))).To(Succeed())
		Expect(b.SetWireDrive(cin, zero(1))).To(Succeed())

		sim, err := b.Build()
		Expect(err).NotTo(HaveOccurred())
		_, err = sim.RunSim(1000)
		Expect(err).NotTo(HaveOccurred())

		gotSum, _ := sim.WireState(sum)
		v, err := gotSum.ToInt(8)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(BeEquivalentTo(300 % 256))

		gotCarry, _ := sim.WireState(cout)
		Expect(state.Eq(gotCarry, one(1), 1)).To(BeTrue())
	})

	It("latches a register on the rising clock edge", func() {
		b := circuit.NewBuilder()
		dataIn, _ := b.AddWire(8)
		enable, _ := b.AddWire(1)
		clock, _ := b.AddWire(1)
		dataOut, _ := b.AddWire(8)
		regID, err := b.AddRegister(dataIn, enable, clock, dataOut, circuit.Rising, zero(8))
		Expect(err).NotTo(HaveOccurred())
		Expect(b.SetWireDrive(clock, zero(1))).To(Succeed())
		Expect(b.SetWireDrive(enable, one(1))).To(Succeed())
		Expect(b.SetWireDrive(dataIn, fromUint(8, 0xA))).To(Succeed())

		sim, err := b.Build()
		Expect(err).NotTo(HaveOccurred())
		_, err = sim.RunSim(1000)
		Expect(err).NotTo(HaveOccurred())

		regVal, _ := sim.RegisterState(regID)
		Expect(state.Eq(regVal, zero(8), 8)).To(BeTrue())

		Expect(sim.SetWireDrive(clock, one(1))).To(Succeed())
		_, err = sim.RunSim(1000)
		Expect(err).NotTo(HaveOccurred())

		regVal, _ = sim.RegisterState(regID)
		Expect(state.Eq(regVal, fromUint(8, 0xA), 8)).To(BeTrue())
	})

	It("lets two tri-state buffers share a bus without conflict when only one is enabled", func() {
		b := circuit.NewBuilder()
		dataA, _ := b.AddWire(4)
		dataB, _ := b.AddWire(4)
		enA, _ := b.AddWire(1)
		enB, _ := b.AddWire(1)
		bus, _ := b.AddWire(4)
		_, err := b.AddBuffer(dataA, enA, bus)
		Expect(err).NotTo(HaveOccurred())
		_, err = b.AddBuffer(dataB, enB, bus)
		Expect(err).NotTo(HaveOccurred())
		Expect(b.SetWireDrive(dataA, fromUint(4, 5))).To(Succeed())
		Expect(b.SetWireDrive(dataB, fromUint(4, 9))).To(Succeed())
		Expect(b.SetWireDrive(enA, one(1))).To(Succeed())
		Expect(b.SetWireDrive(enB, zero(1))).To(Succeed())

		sim, err := b.Build()
		Expect(err).NotTo(HaveOccurred())
		res, err := sim.RunSim(1000)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Status).To(Equal(circuit.Ok))

		got, _ := sim.WireState(bus)
		Expect(state.Eq(got, fromUint(4, 5), 4)).To(BeTrue())
	})

	It("undefines a mux output when the select line is X", func() {
		b := circuit.NewBuilder()
		sel, _ := b.AddWire(1)
		d0, _ := b.AddWire(4)
		d1, _ := b.AddWire(4)
		out, _ := b.AddWire(4)
		_, err := b.AddMux(sel, []circuit.WireID{d0, d1}, out)
		Expect(err).NotTo(HaveOccurred())
		Expect(b.SetWireDrive(d0, fromUint(4, 0))).To(Succeed())
		Expect(b.SetWireDrive(d1, fromUint(4, 1))).To(Succeed())
		Expect(b.SetWireDrive(sel, state.AllX(1))).To(Succeed())

		sim, err := b.Build()
		Expect(err).NotTo(HaveOccurred())
		_, err = sim.RunSim(1000)
		Expect(err).NotTo(HaveOccurred())

		got, _ := sim.WireState(out)
		Expect(state.Eq(got, state.AllX(4), 4)).To(BeTrue())
	})
})

var _ = Describe("RunSimParallel", func() {
	It("settles a ripple-carry adder the same way the serial scheduler does", func() {
		b := circuit.NewBuilder()
		a, _ := b.AddWire(8)
		bw, _ := b.AddWire(8)
		cin, _ := b.AddWire(1)
		sum, _ := b.AddWire(8)
		cout, _ := b.AddWire(1)
		_, err := b.AddAdder(a, bw, cin, sum, cout)
		Expect(err).NotTo(HaveOccurred())
		Expect(b.SetWireDrive(a, fromUint(8, 200))).To(Succeed())
		Expect(b.SetWireDrive(bw, fromUint(8, 100))).To(Succeed())
		Expect(b.SetWireDrive(cin, zero(1))).To(Succeed())

		sim, err := b.Build()
		Expect(err).NotTo(HaveOccurred())
		res, err := sim.RunSimParallel(1000)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Status).To(Equal(circuit.Ok))

		gotSum, _ := sim.WireState(sum)
		v, err := gotSum.ToInt(8)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(BeEquivalentTo(300 % 256))
	})

	It("latches a register across two RunSimParallel calls the same way RunSim does", func() {
		b := circuit.NewBuilder()
		dataIn, _ := b.AddWire(8)
		enable, _ := b.AddWire(1)
		clock, _ := b.AddWire(1)
		dataOut, _ := b.AddWire(8)
		regID, err := b.AddRegister(dataIn, enable, clock, dataOut, circuit.Rising, zero(8))
		Expect(err).NotTo(HaveOccurred())
		Expect(b.SetWireDrive(clock, zero(1))).To(Succeed())
		Expect(b.SetWireDrive(enable, one(1))).To(Succeed())
		Expect(b.SetWireDrive(dataIn, fromUint(8, 0xA))).To(Succeed())

		sim, err := b.Build()
		Expect(err).NotTo(HaveOccurred())
		_, err = sim.RunSimParallel(1000)
		Expect(err).NotTo(HaveOccurred())

		Expect(sim.SetWireDrive(clock, one(1))).To(Succeed())
		_, err = sim.RunSimParallel(1000)
		Expect(err).NotTo(HaveOccurred())

		regVal, _ := sim.RegisterState(regID)
		Expect(state.Eq(regVal, fromUint(8, 0xA), 8)).To(BeTrue())
	})
})
