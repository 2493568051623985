package bigmerkle

import (
	"encoding/binary"
	"fmt"

	"github.com/colorfulnotion/poseidon-merkle/poseidon"
)

// Coord identifies a node in the persisted tree. Level 0 is the leaf level;
// the root sits alone at the highest level.
type Coord struct {
	Level uint32
	Index uint64
}

// Key returns the store key for the coordinate: big-endian level followed by
// big-endian index. Keys of one level are contiguous and ordered by index.
func (c Coord) Key() []byte {
	key := make([]byte, 12)
	binary.BigEndian.PutUint32(key[:4], c.Level)
	binary.BigEndian.PutUint64(key[4:], c.Index)
	return key
}

// metaKey is the store key holding the tree geometry written after a
// successful build. Its presence is the completion marker: a store without
// it must not be trusted as a tree.
var metaKey = []byte("bigmerkle:meta")

const metaMagic = "PMT1"

// meta records the parameter set and geometry of a completed build.
type meta struct {
	params poseidon.Params
	width  uint64 // number of leaves
	height uint32 // hashing levels above the leaves
}

func (m meta) encode() []byte {
	buf := make([]byte, 4+4+4+4+8+4)
	copy(buf[:4], metaMagic)
	binary.BigEndian.PutUint32(buf[4:8], uint32(m.params.Arity))
	binary.BigEndian.PutUint32(buf[8:12], uint32(m.params.FullRounds))
	binary.BigEndian.PutUint32(buf[12:16], uint32(m.params.PartialRounds))
	binary.BigEndian.PutUint64(buf[16:24], m.width)
	binary.BigEndian.PutUint32(buf[24:28], m.height)
	return buf
}

func decodeMeta(buf []byte) (meta, error) {
	if len(buf) != 28 || string(buf[:4]) != metaMagic {
		return meta{}, fmt.Errorf("bigmerkle: malformed meta entry (%d bytes)", len(buf))
	}
	return meta{
		params: poseidon.Params{
			Arity:         int(binary.BigEndian.Uint32(buf[4:8])),
			FullRounds:    int(binary.BigEndian.Uint32(buf[8:12])),
			PartialRounds: int(binary.BigEndian.Uint32(buf[12:16])),
		},
		width:  binary.BigEndian.Uint64(buf[16:24]),
		height: binary.BigEndian.Uint32(buf[24:28]),
	}, nil
}
