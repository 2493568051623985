package merkle

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/colorfulnotion/poseidon-merkle/poseidon"
)

// ProofLevel records one step of a membership proof: the full arity-sized
// sibling group at that level (padding included) and the position of the
// path node inside it.
type ProofLevel struct {
	Index    int
	Siblings []fr.Element
}

// Proof is a Merkle membership proof: one sibling group per hashing level,
// leaves first.
type Proof struct {
	params poseidon.Params
	levels []ProofLevel
}

// NewProof assembles a proof from per-level sibling groups, leaves first.
// Used by tree implementations that materialize sibling groups from other
// sources, such as a persistent store.
func NewProof(p poseidon.Params, levels []ProofLevel) *Proof {
	return &Proof{params: p, levels: levels}
}

// Levels returns the proof's per-level sibling groups, leaves first.
func (p *Proof) Levels() []ProofLevel {
	return p.levels
}

// Proof generates a membership proof for the leaf at the given index.
func (t *Tree) Proof(index int) (*Proof, error) {
	if index < 0 || index >= t.Width() {
		return nil, ErrIndexOutOfBounds
	}

	arity := t.params.Arity
	proof := &Proof{params: t.params}

	needle := index
	for level := 0; level < t.Height(); level++ {
		from := arity * (needle / arity)

		group := make([]fr.Element, arity)
		copy(group, t.levels[level][from:min(from+arity, len(t.levels[level]))])

		proof.levels = append(proof.levels, ProofLevel{
			Index:    needle % arity,
			Siblings: group,
		})
		needle /= arity
	}

	return proof, nil
}

// Verify recomputes the path from leaf to root and reports whether the proof
// binds leaf to root. Each level's group must contain the running digest at
// the recorded position, and hashing the group must produce the next level's
// path node.
func (p *Proof) Verify(root, leaf fr.Element) bool {
	h := poseidon.NewWithParams(p.params)

	current := leaf
	for _, lvl := range p.levels {
		if lvl.Index < 0 || lvl.Index >= len(lvl.Siblings) {
			return false
		}
		if !lvl.Siblings[lvl.Index].Equal(&current) {
			return false
		}
		h.Replace(lvl.Siblings)
		current = h.Hash()
	}

	return current.Equal(&root)
}
