package poseidon

import (
	"fmt"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"golang.org/x/crypto/blake2b"
)

// Round constants are derived from a BLAKE2b-256 hash chain seeded with a
// label that binds the parameter set. Changing any of width/rf/rp changes
// the label and therefore the whole table, so tables generated under
// different parameters can never be mixed.
const constantsLabel = "poseidon-merkle:ark:v1:width=%d,rf=%d,rp=%d"

// tables holds the round constants and MDS matrix for one parameter set.
// Immutable once built; shared read-only across all permutation calls.
type tables struct {
	ark []fr.Element   // (rf+rp)*width constants, round-major
	mds [][]fr.Element // width x width Cauchy matrix
}

var (
	tablesMu    sync.RWMutex
	tablesCache = make(map[Params]*tables)
)

// lookupTables returns the cached tables for p, computing them on first use.
// The double-checked locking keeps the common path a shared read lock; the
// first caller for a parameter set computes, everyone else reads.
func lookupTables(p Params) *tables {
	tablesMu.RLock()
	t, ok := tablesCache[p]
	tablesMu.RUnlock()
	if ok {
		return t
	}

	tablesMu.Lock()
	defer tablesMu.Unlock()
	if t, ok = tablesCache[p]; ok {
		return t
	}
	t = &tables{
		ark: generateRoundConstants(p),
		mds: generateMDSMatrix(p.Width()),
	}
	tablesCache[p] = t
	return t
}

// RoundConstants returns the round constant table for p: one field element
// per (round, state position) pair, in round-major order. The returned slice
// is shared and must not be modified.
func RoundConstants(p Params) []fr.Element {
	return lookupTables(p).ark
}

// MDSMatrix returns the width x width MDS matrix for p. The returned matrix
// is shared and must not be modified.
func MDSMatrix(p Params) [][]fr.Element {
	return lookupTables(p).mds
}

// generateRoundConstants derives (rf+rp)*width constants from the labelled
// hash chain. Each chain state is taken big-endian and reduced mod r, then
// rehashed for the next constant.
func generateRoundConstants(p Params) []fr.Element {
	label := fmt.Sprintf(constantsLabel, p.Width(), p.FullRounds, p.PartialRounds)
	state := blake2b.Sum256([]byte(label))

	n := p.Rounds() * p.Width()
	ark := make([]fr.Element, n)
	for i := 0; i < n; i++ {
		ark[i].SetBytes(state[:])
		state = blake2b.Sum256(state[:])
	}
	return ark
}

// generateMDSMatrix builds a t x t Cauchy matrix with entry (i,j) equal to
// 1/(x_i + y_j) for x_i = i and y_j = t + j. The x and y sequences are
// pairwise disjoint, so every square submatrix has a non-zero determinant
// and the matrix is MDS (invertible by construction, no runtime check).
func generateMDSMatrix(t int) [][]fr.Element {
	mds := make([][]fr.Element, t)
	for i := 0; i < t; i++ {
		mds[i] = make([]fr.Element, t)
		for j := 0; j < t; j++ {
			var e fr.Element
			e.SetUint64(uint64(i + j + t))
			mds[i][j].Inverse(&e)
		}
	}
	return mds
}
