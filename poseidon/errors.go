package poseidon

import "errors"

var (
	// ErrFullBuffer is returned by Push when the sponge already holds Arity
	// inputs. The rejected input is not absorbed; the caller should start a
	// new sponge.
	ErrFullBuffer = errors.New("poseidon: input buffer already holds arity elements")

	// ErrInvalidParams is returned when a Params value cannot parameterize
	// the permutation.
	ErrInvalidParams = errors.New("poseidon: invalid parameters")
)
