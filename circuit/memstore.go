package circuit

import (
	"encoding/binary"

	"github.com/sarchlab/akita/v4/mem/mem"

	"github.com/cellwire/gologic/state"
)

// maxCellAddrWidth bounds how large a RAM/ROM's address space may be. Cell
// storage is dense (every addressable cell gets real backing bytes), so an
// unbounded address width would let a single AddRAM call request an
// unreasonable amount of memory; this is reported as ResourceLimitReached,
// raised at add-time like every other structural error.
const maxCellAddrWidth = 20

// cellStore is the dense internal cell array backing a RAM or ROM. It
// mirrors LogicState's own two-bit-plane design at the storage layer: the
// value plane and the validity/impedance plane of every cell are kept in
// two separate byte-addressable akita mem.Storage buffers, so a
// never-written or conflict-marked cell reads back as X/Z instead of
// silently aliasing to zero.
type cellStore struct {
	width     int
	words     int // numWords(width), bounded by maxWords
	cellBytes uint64
	cellCount uint64

	value *mem.Storage
	plane *mem.Storage
}

func newCellStore(width, addrWidth int) (*cellStore, error) {
	if addrWidth > maxCellAddrWidth {
		return nil, state.NewError("newCellStore", state.ResourceLimitReached,
			"address width exceeds the implementation's addressable-cell limit")
	}

	cellCount := uint64(1) << uint(addrWidth)
	words := (width + 63) / 64
	cellBytes := uint64(words) * 8

	return &cellStore{
		width:     width,
		words:     words,
		cellBytes: cellBytes,
		cellCount: cellCount,
		value:     mem.NewStorage(cellCount * cellBytes),
		plane:     mem.NewStorage(cellCount * cellBytes),
	}, nil
}

func (cs *cellStore) read(index uint64) state.LogicState {
	addr := index * cs.cellBytes
	vb, _ := cs.value.Read(addr, cs.cellBytes)
	pb, _ := cs.plane.Read(addr, cs.cellBytes)

	var v, p [4]uint64
	for i := 0; i < cs.words; i++ {
		v[i] = binary.LittleEndian.Uint64(vb[i*8 : i*8+8])
		p[i] = binary.LittleEndian.Uint64(pb[i*8 : i*8+8])
	}
	return state.FromRawWords(cs.width, v, p)
}

func (cs *cellStore) write(index uint64, s state.LogicState) {
	addr := index * cs.cellBytes
	v, p := s.Words()

	vb := make([]byte, cs.cellBytes)
	pb := make([]byte, cs.cellBytes)
	for i := 0; i < cs.words; i++ {
		binary.LittleEndian.PutUint64(vb[i*8:i*8+8], v[i])
		binary.LittleEndian.PutUint64(pb[i*8:i*8+8], p[i])
	}
	_ = cs.value.Write(addr, vb)
	_ = cs.plane.Write(addr, pb)
}

// writeAll sets every cell in the store to s. Used when a RAM write occurs
// with an undefined write-enable: either the single addressed cell can be
// conservatively marked, if the address is defined, or the whole store, if
// it isn't. This implementation marks the whole store only when the address
// itself is undefined, and a single cell otherwise.
func (cs *cellStore) writeAll(s state.LogicState) {
	for i := uint64(0); i < cs.cellCount; i++ {
		cs.write(i, s)
	}
}
