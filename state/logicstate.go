// Package state implements the four-valued logic value representation that
// is the foundation of the circuit simulator: LogicState, its constructors,
// comparisons, integer/string conversions, and the driver-merge operation
// that resolves multiple drivers targeting the same wire.
package state

import (
	"math/big"
	"strings"
)

// MaxWidth is the widest a LogicState (and therefore a Wire) may be.
const MaxWidth = 255

const wordBits = 64
const maxWords = (MaxWidth + wordBits - 1) / wordBits // 4

// BitState is the value of a single bit under four-valued logic.
type BitState int

const (
	// HiZ is high-impedance: no driver is asserting this bit.
	HiZ BitState = iota
	// Undefined is an unresolved or conflicting bit.
	Undefined
	// Zero is logic-0.
	Zero
	// One is logic-1.
	One
)

func (b BitState) String() string {
	switch b {
	case HiZ:
		return "Z"
	case Undefined:
		return "X"
	case Zero:
		return "0"
	case One:
		return "1"
	default:
		return "?"
	}
}

// LogicState is a four-valued vector of up to MaxWidth bits, stored as two
// parallel bit-planes: value and plane. Bit i's state is derived from
// (value bit i, plane bit i): (0,0)=Z (1,0)=X (0,1)=0 (1,1)=1. This layout
// is the whole reason driver-merge is fast: merging two states is a handful
// of word-parallel bitwise ops, not a per-bit branch.
type LogicState struct {
	width int
	value [maxWords]uint64
	plane [maxWords]uint64
}

func numWords(width int) int { return (width + wordBits - 1) / wordBits }

// tailMask returns a mask with the bits belonging to width set, within word
// index wordIdx (words beyond the last used word are all zero).
func tailMask(width, wordIdx int) uint64 {
	lo := wordIdx * wordBits
	if lo >= width {
		return 0
	}
	hi := width - lo
	if hi >= wordBits {
		return ^uint64(0)
	}
	return (uint64(1) << uint(hi)) - 1
}

func (s LogicState) mask(wordIdx int) uint64 { return tailMask(s.width, wordIdx) }

// Width returns the number of bits in the state.
func (s LogicState) Width() int { return s.width }

func newState(width int, fill func(wordIdx int) (value, plane uint64)) LogicState {
	s := LogicState{width: width}
	for i := 0; i < numWords(width); i++ {
		m := tailMask(width, i)
		v, p := fill(i)
		s.value[i] = v & m
		s.plane[i] = p & m
	}
	return s
}

// AllZ returns a width-bit state with every bit high-impedance.
func AllZ(width int) LogicState {
	return newState(width, func(int) (uint64, uint64) { return 0, 0 })
}

// AllX returns a width-bit state with every bit undefined.
func AllX(width int) LogicState {
	return newState(width, func(int) (uint64, uint64) { return ^uint64(0), 0 })
}

// AllZero returns a width-bit state with every bit logic-0.
func AllZero(width int) LogicState {
	return newState(width, func(int) (uint64, uint64) { return 0, ^uint64(0) })
}

// AllOne returns a width-bit state with every bit logic-1.
func AllOne(width int) LogicState {
	return newState(width, func(int) (uint64, uint64) { return ^uint64(0), ^uint64(0) })
}

// FromUint64 builds a width-bit defined state from an unsigned integer; bits
// beyond the integer's 64 bits (when width > 64) are logic-0.
func FromUint64(width int, v uint64) (LogicState, error) {
	if width < 1 || width > MaxWidth {
		return LogicState{}, NewError("FromUint64", ArgumentOutOfRange, "width must be in [1,255]")
	}
	return newState(width, func(wordIdx int) (uint64, uint64) {
		if wordIdx == 0 {
			return v, ^uint64(0)
		}
		return 0, ^uint64(0)
	}), nil
}

// FromWords builds a width-bit defined state from a little-endian array of
// 1 to 8 machine words; bits beyond the supplied words are logic-0.
func FromWords(width int, words []uint64) (LogicState, error) {
	if width < 1 || width > MaxWidth {
		return LogicState{}, NewError("FromWords", ArgumentOutOfRange, "width must be in [1,255]")
	}
	if len(words) < 1 || len(words) > 8 {
		return LogicState{}, NewError("FromWords", InvalidArgument, "words length must be in [1,8]")
	}
	return newState(width, func(wordIdx int) (uint64, uint64) {
		if wordIdx < len(words) {
			return words[wordIdx], ^uint64(0)
		}
		return 0, ^uint64(0)
	}), nil
}

// Parse builds a state from a textual representation over {z,Z,x,X,0,1},
// the leftmost character being the highest-indexed bit. Characters outside
// that alphabet report MalformedFormat; empty or over-long strings report
// InvalidArgument.
func Parse(s string) (LogicState, error) {
	n := len(s)
	if n < 1 || n > MaxWidth {
		return LogicState{}, NewError("Parse", InvalidArgument, "string length must be in [1,255]")
	}
	out := LogicState{width: n}
	for i := 0; i < n; i++ {
		ch := s[n-1-i] // leftmost char is highest-indexed bit
		var v, p uint64
		switch ch {
		case 'z', 'Z':
			v, p = 0, 0
		case 'x', 'X':
			v, p = 1, 0
		case '0':
			v, p = 0, 1
		case '1':
			v, p = 1, 1
		default:
			return LogicState{}, NewError("Parse", MalformedFormat,
				"unexpected character '"+string(ch)+"'; expected one of zZxX01")
		}
		wordIdx, bit := i/wordBits, uint(i%wordBits)
		out.value[wordIdx] |= v << bit
		out.plane[wordIdx] |= p << bit
	}
	return out, nil
}

// GetBitState returns the state of bit i. i must be < Width().
func (s LogicState) GetBitState(i int) BitState {
	wordIdx, bit := i/wordBits, uint(i%wordBits)
	v := (s.value[wordIdx] >> bit) & 1
	p := (s.plane[wordIdx] >> bit) & 1
	switch {
	case p == 0 && v == 0:
		return HiZ
	case p == 0 && v == 1:
		return Undefined
	case p == 1 && v == 0:
		return Zero
	default:
		return One
	}
}

// withBit returns a copy of s with bit i set to the given state.
func (s LogicState) withBit(i int, b BitState) LogicState {
	wordIdx, bit := i/wordBits, uint(i%wordBits)
	clear := ^(uint64(1) << bit)
	s.value[wordIdx] &= clear
	s.plane[wordIdx] &= clear
	var v, p uint64
	switch b {
	case HiZ:
		v, p = 0, 0
	case Undefined:
		v, p = 1, 0
	case Zero:
		v, p = 0, 1
	case One:
		v, p = 1, 1
	}
	s.value[wordIdx] |= v << bit
	s.plane[wordIdx] |= p << bit
	return s
}

// WithBit returns a copy of s with bit i set to b, for callers outside the
// package that need to assemble a state bit-by-bit (e.g. circuit.Graph's
// slice/merge/extend transfer functions, which are pure bit-plane
// rearrangements).
func (s LogicState) WithBit(i int, b BitState) LogicState {
	return s.withBit(i, b)
}

// Print writes exactly Width() bytes into buffer (which must be at least
// that long), highest-indexed bit first, no terminator. It returns the
// number of bytes written.
func (s LogicState) Print(buffer []byte) int {
	w := s.width
	for i := 0; i < w; i++ {
		buffer[i] = s.GetBitState(w - 1 - i).String()[0]
	}
	return w
}

// String renders the state the way Print does, for logging and tests.
func (s LogicState) String() string {
	var b strings.Builder
	buf := make([]byte, s.width)
	s.Print(buf)
	b.Write(buf)
	return b.String()
}

// ToInt returns the value plane of the first width bits as an unsigned
// integer. width must be <= 32. Fails with Unsupported if any of those bits
// is X or Z.
func (s LogicState) ToInt(width int) (uint32, error) {
	if width < 1 || width > 32 || width > s.width {
		return 0, NewError("ToInt", ArgumentOutOfRange, "width must be in [1,32] and <= state width")
	}
	for i := 0; i < width; i++ {
		if b := s.GetBitState(i); b == Undefined || b == HiZ {
			return 0, NewError("ToInt", Unsupported, "state has an undefined or high-Z bit")
		}
	}
	mask := tailMask(width, 0)
	return uint32(s.value[0] & mask), nil
}

// ToBigInt returns the value plane of the first width bits (width <= 255)
// as a big.Int. Fails with Unsupported if any of those bits is X or Z.
func (s LogicState) ToBigInt(width int) (*big.Int, error) {
	if width < 1 || width > MaxWidth || width > s.width {
		return nil, NewError("ToBigInt", ArgumentOutOfRange, "width must be in [1,255] and <= state width")
	}
	for i := 0; i < width; i++ {
		if b := s.GetBitState(i); b == Undefined || b == HiZ {
			return nil, NewError("ToBigInt", Unsupported, "state has an undefined or high-Z bit")
		}
	}
	out := new(big.Int)
	for i := numWords(width) - 1; i >= 0; i-- {
		word := s.value[i] & tailMask(width, i)
		out.Lsh(out, wordBits)
		out.Or(out, new(big.Int).SetUint64(word))
	}
	return out, nil
}

// FromBigInt builds a width-bit defined state from an arbitrary-precision
// integer, reduced modulo 2^width (two's-complement wraparound, matching
// the ADD/SUB/MUL/NEG/shift transfer functions' wraparound rule).
func FromBigInt(width int, v *big.Int) (LogicState, error) {
	if width < 1 || width > MaxWidth {
		return LogicState{}, NewError("FromBigInt", ArgumentOutOfRange, "width must be in [1,255]")
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(width))
	m := new(big.Int).Mod(v, mod)
	if m.Sign() < 0 {
		m.Add(m, mod)
	}
	wordMask := new(big.Int).SetUint64(^uint64(0))
	return newState(width, func(i int) (uint64, uint64) {
		word := new(big.Int).Rsh(m, uint(i*wordBits))
		word.And(word, wordMask)
		return word.Uint64(), ^uint64(0)
	}), nil
}

// ToSignedBigInt is ToBigInt's two's-complement counterpart: the same
// value, reinterpreted as signed (bit width-1 is the sign bit).
func (s LogicState) ToSignedBigInt(width int) (*big.Int, error) {
	v, err := s.ToBigInt(width)
	if err != nil {
		return nil, err
	}
	if s.GetBitState(width-1) == One {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(width)))
	}
	return v, nil
}

// Eq reports whether the first width bits of a and b are bitwise equal
// across both planes (Z != X != 0 != 1, all pairwise distinct).
func Eq(a, b LogicState, width int) bool {
	for i := 0; i < numWords(width); i++ {
		m := tailMask(width, i)
		if a.value[i]&m != b.value[i]&m || a.plane[i]&m != b.plane[i]&m {
			return false
		}
	}
	return true
}

// Merge resolves two drivers of equal width into one, an associative,
// commutative operation with Z as identity: both Z -> Z; exactly one Z ->
// the other; both non-Z and equal -> that value; otherwise -> X, with the
// corresponding bit marked as conflicting.
// conflict has one set bit per bit position where two non-Z drivers
// disagreed.
func Merge(a, b LogicState) (result LogicState, conflict [maxWords]uint64) {
	width := a.width
	result.width = width
	for i := 0; i < numWords(width); i++ {
		m := tailMask(width, i)
		av, ap := a.value[i], a.plane[i]
		bv, bp := b.value[i], b.plane[i]

		isZa := ^ap & ^av
		isZb := ^bp & ^bv
		agree := ^(av ^ bv) & ^(ap ^ bp)

		useB := isZa
		useA := isZb &^ isZa
		useAgree := agree &^ isZa &^ isZb
		useConflict := (^isZa) & (^isZb) & (^agree)

		rv := (useB & bv) | (useA & av) | (useAgree & av) | useConflict
		rp := (useB & bp) | (useA & ap) | (useAgree & ap) // useConflict contributes 0 to plane (X)

		result.value[i] = rv & m
		result.plane[i] = rp & m
		conflict[i] = useConflict & m
	}
	return result, conflict
}

// MergeAll folds Merge over a sequence of drivers, starting from the
// identity AllZ(width). An empty slice returns AllZ(width).
func MergeAll(width int, drivers ...LogicState) (result LogicState, conflict [maxWords]uint64) {
	result = AllZ(width)
	for _, d := range drivers {
		var c [maxWords]uint64
		result, c = Merge(result, d)
		for i := range conflict {
			conflict[i] |= c[i]
		}
	}
	return result, conflict
}

// Words exposes the raw value/plane backing words, for storage backends
// (e.g. RAM/ROM cell stores) that need to serialize a LogicState themselves
// rather than go through Print/Parse.
func (s LogicState) Words() (value, plane [maxWords]uint64) {
	return s.value, s.plane
}

// FromRawWords reconstructs a LogicState from words previously obtained via
// Words, masking them down to width bits.
func FromRawWords(width int, value, plane [maxWords]uint64) LogicState {
	return newState(width, func(i int) (uint64, uint64) { return value[i], plane[i] })
}

// AnyConflict reports whether any bit in a conflict mask is set.
func AnyConflict(c [maxWords]uint64) bool {
	for _, w := range c {
		if w != 0 {
			return true
		}
	}
	return false
}
