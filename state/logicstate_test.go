package state_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cellwire/gologic/state"
)

var _ = Describe("LogicState", func() {
	Describe("constructors", func() {
		It("builds all-Z states", func() {
			s := state.AllZ(4)
			for i := 0; i < 4; i++ {
				Expect(s.GetBitState(i)).To(Equal(state.HiZ))
			}
		})

		It("builds all-X states", func() {
			s := state.AllX(4)
			for i := 0; i < 4; i++ {
				Expect(s.GetBitState(i)).To(Equal(state.Undefined))
			}
		})

		It("builds from an unsigned integer, high bits zero", func() {
			s, err := state.FromUint64(8, 0x5A)
			Expect(err).NotTo(HaveOccurred())
			v, err := s.ToInt(8)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(uint32(0x5A)))
		})

		It("rejects widths outside [1,255]", func() {
			_, err := state.FromUint64(0, 1)
			Expect(err).To(HaveOccurred())
			Expect(err).To(MatchError(state.NewError("", state.ArgumentOutOfRange, "")))

			_, err = state.FromUint64(256, 1)
			Expect(err).To(HaveOccurred())
		})

		It("parses the textual alphabet, leftmost char highest bit", func() {
			s, err := state.Parse("1Z0X")
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Width()).To(Equal(4))
			Expect(s.GetBitState(3)).To(Equal(state.One))
			Expect(s.GetBitState(2)).To(Equal(state.HiZ))
			Expect(s.GetBitState(1)).To(Equal(state.Zero))
			Expect(s.GetBitState(0)).To(Equal(state.Undefined))
		})

		It("rejects characters outside zZxX01 with MalformedFormat", func() {
			_, err := state.Parse("102")
			Expect(err).To(HaveOccurred())
			code, ok := state.CodeOf(err)
			Expect(ok).To(BeTrue())
			Expect(code).To(Equal(state.MalformedFormat))
		})

		It("rejects empty or over-long strings with InvalidArgument", func() {
			_, err := state.Parse("")
			Expect(err).To(HaveOccurred())
			code, _ := state.CodeOf(err)
			Expect(code).To(Equal(state.InvalidArgument))

			long := make([]byte, 256)
			for i := range long {
				long[i] = '0'
			}
			_, err = state.Parse(string(long))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ToInt/ToBigInt", func() {
		It("fails with Unsupported when a bit is X or Z", func() {
			s, _ := state.Parse("1X01")
			_, err := s.ToInt(4)
			Expect(err).To(HaveOccurred())
			code, _ := state.CodeOf(err)
			Expect(code).To(Equal(state.Unsupported))
		})

		It("round-trips wide values through ToBigInt", func() {
			s, err := state.Parse("1" + repeat("0", 199))
			Expect(err).NotTo(HaveOccurred())
			big, err := s.ToBigInt(200)
			Expect(err).NotTo(HaveOccurred())
			Expect(big.BitLen()).To(Equal(200))
		})
	})

	Describe("Eq", func() {
		It("treats Z, X, 0 and 1 as pairwise distinct", func() {
			z := state.AllZ(1)
			zero, _ := state.FromUint64(1, 0)
			Expect(state.Eq(z, zero, 1)).To(BeFalse())

			x := state.AllX(1)
			Expect(state.Eq(z, x, 1)).To(BeFalse())
		})
	})

	Describe("Merge (driver resolution)", func() {
		It("is the identity on Z", func() {
			a, _ := state.FromUint64(4, 0xA)
			z := state.AllZ(4)
			merged, conflict := state.Merge(a, z)
			Expect(state.Eq(merged, a, 4)).To(BeTrue())
			Expect(state.AnyConflict(conflict)).To(BeFalse())
		})

		It("is idempotent", func() {
			a, _ := state.FromUint64(4, 0xA)
			merged, conflict := state.Merge(a, a)
			Expect(state.Eq(merged, a, 4)).To(BeTrue())
			Expect(state.AnyConflict(conflict)).To(BeFalse())
		})

		It("is commutative", func() {
			a, _ := state.FromUint64(1, 1)
			b := state.AllX(1)
			ab, _ := state.Merge(a, b)
			ba, _ := state.Merge(b, a)
			Expect(state.Eq(ab, ba, 1)).To(BeTrue())
		})

		It("is associative", func() {
			a, _ := state.FromUint64(1, 1)
			b, _ := state.FromUint64(1, 0)
			c := state.AllX(1)

			ab, _ := state.Merge(a, b)
			abc1, _ := state.Merge(ab, c)

			bc, _ := state.Merge(b, c)
			abc2, _ := state.Merge(a, bc)

			Expect(state.Eq(abc1, abc2, 1)).To(BeTrue())
		})

		It("flags a conflict when two non-Z drivers disagree", func() {
			one, _ := state.FromUint64(1, 1)
			zero, _ := state.FromUint64(1, 0)
			merged, conflict := state.Merge(one, zero)
			Expect(merged.GetBitState(0)).To(Equal(state.Undefined))
			Expect(state.AnyConflict(conflict)).To(BeTrue())
		})

		It("does not conflict two Z drivers", func() {
			z1 := state.AllZ(1)
			z2 := state.AllZ(1)
			merged, conflict := state.Merge(z1, z2)
			Expect(merged.GetBitState(0)).To(Equal(state.HiZ))
			Expect(state.AnyConflict(conflict)).To(BeFalse())
		})
	})
})

func repeat(s string, n int) string {
	out := make([]byte, 0, n*len(s))
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
