package poseidon

import "github.com/consensys/gnark-crypto/ecc/bn254/fr"

// Permute runs the full round schedule over state in place. The state must
// hold exactly p.Width() elements. The schedule is rf/2 full rounds, rp
// partial rounds, then rf/2 full rounds; every round adds the next width
// round constants, applies the quintic S-box (to every slot in a full round,
// to slot 0 only in a partial round) and multiplies the state by the MDS
// matrix.
//
// Permute has no hidden state: callers may run any number of permutations
// concurrently as long as each call owns its state slice.
func Permute(p Params, state []fr.Element) {
	if len(state) != p.Width() {
		panic("poseidon: state length does not match params width")
	}
	t := lookupTables(p)

	half := p.FullRounds / 2
	ark := t.ark
	for r := 0; r < half; r++ {
		ark = applyRound(t, state, ark, true)
	}
	for r := 0; r < p.PartialRounds; r++ {
		ark = applyRound(t, state, ark, false)
	}
	for r := 0; r < half; r++ {
		ark = applyRound(t, state, ark, true)
	}
}

// applyRound consumes one round's worth of constants from ark and returns
// the remainder.
func applyRound(t *tables, state []fr.Element, ark []fr.Element, full bool) []fr.Element {
	w := len(state)

	for i := 0; i < w; i++ {
		state[i].Add(&state[i], &ark[i])
	}

	if full {
		for i := 0; i < w; i++ {
			quintic(&state[i])
		}
	} else {
		quintic(&state[0])
	}

	mixState(t.mds, state)
	return ark[w:]
}

// quintic applies the S-box x -> x^5 in place.
func quintic(x *fr.Element) {
	var x2, x4 fr.Element
	x2.Square(x)
	x4.Square(&x2)
	x.Mul(&x4, x)
}

// mixState replaces state with mds * state.
func mixState(mds [][]fr.Element, state []fr.Element) {
	w := len(state)
	mixed := make([]fr.Element, w)
	var prod fr.Element
	for i := 0; i < w; i++ {
		row := mds[i]
		for j := 0; j < w; j++ {
			prod.Mul(&row[j], &state[j])
			mixed[i].Add(&mixed[i], &prod)
		}
	}
	copy(state, mixed)
}
