// Package poseidon implements the Poseidon algebraic permutation over the
// BN254 scalar field, and a bounded-arity sponge hash on top of it.
//
// The permutation is parameterized by Params (arity and round schedule);
// round constants and the MDS matrix are derived deterministically from the
// parameter set and cached process-wide, so identical parameters always
// yield bit-identical hashes across processes.
package poseidon

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Poseidon is a sponge accumulating up to Arity field elements. A fresh
// sponge is open; Push appends inputs in order, Hash pads the state and runs
// the permutation. Push order is part of the hash input.
//
// A Poseidon is not safe for concurrent use; create one per hash
// computation (they are cheap).
type Poseidon struct {
	params Params
	buf    []fr.Element
	n      int
}

// New returns an empty sponge with the default parameters.
func New() *Poseidon {
	return NewWithParams(DefaultParams())
}

// NewWithParams returns an empty sponge for the given parameter set.
func NewWithParams(p Params) *Poseidon {
	return &Poseidon{
		params: p,
		buf:    make([]fr.Element, p.Arity),
	}
}

// Params returns the sponge's parameter set.
func (h *Poseidon) Params() Params {
	return h.params
}

// Len returns the number of elements pushed so far.
func (h *Poseidon) Len() int {
	return h.n
}

// Push appends one field element to the input buffer. It returns
// ErrFullBuffer when the buffer already holds Arity elements; the rejected
// input leaves the buffer untouched.
func (h *Poseidon) Push(v fr.Element) error {
	if h.n == h.params.Arity {
		return ErrFullBuffer
	}
	h.buf[h.n] = v
	h.n++
	return nil
}

// Reset empties the input buffer, reopening the sponge.
func (h *Poseidon) Reset() {
	for i := range h.buf {
		h.buf[i].SetZero()
	}
	h.n = 0
}

// Replace resets the sponge and fills the buffer with the given values. It
// panics if more than Arity values are provided.
func (h *Poseidon) Replace(values []fr.Element) {
	if len(values) > h.params.Arity {
		panic("poseidon: replace exceeds arity")
	}
	h.Reset()
	copy(h.buf, values)
	h.n = len(values)
}

// Hash pads the state and runs the permutation, returning the digest.
//
// The state layout is fixed: slot 0 is the capacity element, set to the
// arity, and slots 1..width-1 carry the pushed inputs in order, with unused
// slots left at zero. The digest is slot 1 of the permuted state.
//
// Unlike sponge constructions that consume their input on extraction, Hash
// leaves the buffer intact: it is a pure function of the buffer contents
// and may be called repeatedly. Callers wanting fresh input must Reset or
// Replace explicitly; there is no auto-reset.
func (h *Poseidon) Hash() fr.Element {
	state := make([]fr.Element, h.params.Width())
	state[0].SetUint64(uint64(h.params.Arity))
	copy(state[1:], h.buf)

	Permute(h.params, state)
	return state[1]
}
