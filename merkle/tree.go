// Package merkle builds fixed-arity Merkle trees whose internal nodes are
// Poseidon hashes of their children. Incomplete groups at the end of a level
// are padded with the zero element, so every internal node conceptually has
// exactly arity children.
package merkle

import (
	"errors"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/colorfulnotion/poseidon-merkle/poseidon"
)

var (
	// ErrEmptyTree is returned when a build is requested over zero leaves.
	ErrEmptyTree = errors.New("merkle: cannot build a tree with no leaves")

	// ErrIndexOutOfBounds is returned when a leaf index does not exist.
	ErrIndexOutOfBounds = errors.New("merkle: index out of bounds")
)

// Tree is an in-memory fixed-arity Merkle tree. Level 0 holds the leaves;
// each higher level holds the Poseidon hashes of consecutive arity-sized
// groups of the level below. A Tree is immutable once built.
type Tree struct {
	params poseidon.Params
	levels [][]fr.Element
}

// Build constructs the tree bottom-up from the given leaves. Building from
// zero leaves fails with ErrEmptyTree; a single leaf is its own root and no
// hashing is performed. The leaf slice is copied.
func Build(p poseidon.Params, leaves []fr.Element) (*Tree, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}

	levels := [][]fr.Element{append([]fr.Element(nil), leaves...)}
	for len(levels[len(levels)-1]) > 1 {
		levels = append(levels, hashLevel(p, levels[len(levels)-1]))
	}

	return &Tree{params: p, levels: levels}, nil
}

// hashLevel computes the parent level for one level of nodes. The final
// group is implicitly padded with zero elements by the sponge's Replace.
func hashLevel(p poseidon.Params, level []fr.Element) []fr.Element {
	arity := p.Arity
	parents := make([]fr.Element, 0, (len(level)+arity-1)/arity)

	h := poseidon.NewWithParams(p)
	for i := 0; i < len(level); i += arity {
		end := i + arity
		if end > len(level) {
			end = len(level)
		}
		h.Replace(level[i:end])
		parents = append(parents, h.Hash())
	}
	return parents
}

// Params returns the parameter set the tree was built with.
func (t *Tree) Params() poseidon.Params {
	return t.params
}

// Root returns the tree root.
func (t *Tree) Root() fr.Element {
	return t.levels[len(t.levels)-1][0]
}

// Height returns the number of hashing levels above the leaves. A
// single-leaf tree has height 0.
func (t *Tree) Height() int {
	return len(t.levels) - 1
}

// Width returns the number of leaves.
func (t *Tree) Width() int {
	return len(t.levels[0])
}

// Node returns the digest at (level, index), level 0 being the leaves.
// The second return is false when no such node exists.
func (t *Tree) Node(level, index int) (fr.Element, bool) {
	if level < 0 || level >= len(t.levels) {
		return fr.Element{}, false
	}
	if index < 0 || index >= len(t.levels[level]) {
		return fr.Element{}, false
	}
	return t.levels[level][index], true
}

// Leaves returns a copy of the leaf level.
func (t *Tree) Leaves() []fr.Element {
	return append([]fr.Element(nil), t.levels[0]...)
}
