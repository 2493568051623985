package poseidon

import (
	"fmt"
	"os"
	"strconv"
)

// Defaults match the reference parameterization for a quintic S-box over the
// BN254 scalar field: arity 4 (state width 5), 8 full rounds split evenly
// around 59 partial rounds.
const (
	DefaultArity         = 4
	DefaultFullRounds    = 8
	DefaultPartialRounds = 59
)

// Environment variables recognized by ParamsFromEnv.
const (
	EnvArity         = "POSEIDON_MERKLE_ARITY"
	EnvFullRounds    = "POSEIDON_FULL_ROUNDS"
	EnvPartialRounds = "POSEIDON_PARTIAL_ROUNDS"
)

// Params fixes the shape of the permutation: the hash arity (and with it the
// state width, arity+1) and the round schedule. Params values are used as
// cache keys for the round constant and MDS tables, so two Params with the
// same fields always see the same tables.
type Params struct {
	Arity         int
	FullRounds    int
	PartialRounds int
}

// DefaultParams returns the default parameterization (arity 4, 8 full and 59
// partial rounds).
func DefaultParams() Params {
	return Params{
		Arity:         DefaultArity,
		FullRounds:    DefaultFullRounds,
		PartialRounds: DefaultPartialRounds,
	}
}

// ParamsFromEnv builds Params from the POSEIDON_MERKLE_ARITY,
// POSEIDON_FULL_ROUNDS and POSEIDON_PARTIAL_ROUNDS environment variables,
// falling back to the defaults for any that are unset.
func ParamsFromEnv() (Params, error) {
	p := DefaultParams()

	var err error
	if p.Arity, err = envInt(EnvArity, p.Arity); err != nil {
		return Params{}, err
	}
	if p.FullRounds, err = envInt(EnvFullRounds, p.FullRounds); err != nil {
		return Params{}, err
	}
	if p.PartialRounds, err = envInt(EnvPartialRounds, p.PartialRounds); err != nil {
		return Params{}, err
	}

	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

func envInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse %s=%q: %w", name, s, err)
	}
	return v, nil
}

// Width returns the permutation state width: the arity data slots plus the
// capacity slot.
func (p Params) Width() int {
	return p.Arity + 1
}

// Rounds returns the total number of rounds in the schedule.
func (p Params) Rounds() int {
	return p.FullRounds + p.PartialRounds
}

// Validate rejects parameter sets the permutation cannot be built for.
// FullRounds must be even since the full rounds are split into two equal
// halves around the partial phase.
func (p Params) Validate() error {
	if p.Arity < 1 {
		return fmt.Errorf("%w: arity %d, must be >= 1", ErrInvalidParams, p.Arity)
	}
	if p.FullRounds < 2 || p.FullRounds%2 != 0 {
		return fmt.Errorf("%w: full rounds %d, must be even and >= 2", ErrInvalidParams, p.FullRounds)
	}
	if p.PartialRounds < 0 {
		return fmt.Errorf("%w: partial rounds %d, must be >= 0", ErrInvalidParams, p.PartialRounds)
	}
	return nil
}

func (p Params) String() string {
	return fmt.Sprintf("poseidon(arity=%d,rf=%d,rp=%d)", p.Arity, p.FullRounds, p.PartialRounds)
}
