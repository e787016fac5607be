package state_test

import (
	"strings"
	"testing"

	"github.com/cellwire/gologic/state"
)

func TestRoundTripInt(t *testing.T) {
	cases := []struct {
		width int
		value uint64
	}{
		{1, 0}, {1, 1}, {8, 0x5A}, {8, 0xFF}, {16, 0xBEEF}, {32, 0xDEADBEEF},
	}
	for _, c := range cases {
		s, err := state.FromUint64(c.width, c.value)
		if err != nil {
			t.Fatalf("FromUint64(%d,%d): %v", c.width, c.value, err)
		}
		got, err := s.ToInt(c.width)
		if err != nil {
			t.Fatalf("ToInt: %v", err)
		}
		mask := uint64(1)<<uint(c.width) - 1
		if uint64(got) != c.value&mask {
			t.Errorf("width=%d value=%d: got %d", c.width, c.value, got)
		}
	}
}

func TestRoundTripString(t *testing.T) {
	cases := []string{
		"0", "1", "X", "Z",
		"10XZ", "111111110000000",
		strings.Repeat("1", 255),
	}
	for _, s := range cases {
		ls, err := state.Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		buf := make([]byte, len(s))
		ls.Print(buf)
		if string(buf) != s {
			t.Errorf("Parse/Print round trip: want %q got %q", s, string(buf))
		}
	}
}

func TestMergeLaws(t *testing.T) {
	widths := []int{1, 4, 8, 64, 65, 200, 255}
	for _, w := range widths {
		a, _ := state.FromUint64(w, 0x1)
		b := state.AllX(w)
		c := state.AllZ(w)

		ab, _ := state.Merge(a, b)
		ba, _ := state.Merge(b, a)
		if !state.Eq(ab, ba, w) {
			t.Errorf("width %d: merge not commutative", w)
		}

		az, _ := state.Merge(a, c)
		if !state.Eq(az, a, w) {
			t.Errorf("width %d: Z is not identity", w)
		}

		aa, _ := state.Merge(a, a)
		if !state.Eq(aa, a, w) {
			t.Errorf("width %d: merge not idempotent", w)
		}
	}
}
