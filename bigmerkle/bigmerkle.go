// Package bigmerkle builds large fixed-arity Poseidon Merkle trees on top of
// an external key-value store, hashing each level in parallel across a
// worker pool. Within a level, workers own disjoint index ranges and need no
// synchronization; a barrier between levels guarantees every node's children
// are fully written before they are read.
//
// A build either completes and writes a meta entry, or fails and leaves the
// store untrusted; there is no partial-success state. Builds are
// deterministic: the same leaves and parameters yield the same root for any
// worker count.
package bigmerkle

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/colorfulnotion/poseidon-merkle/merkle"
	"github.com/colorfulnotion/poseidon-merkle/poseidon"
	"github.com/colorfulnotion/poseidon-merkle/storage"
)

var (
	// ErrNoTree is returned by Open when the store holds no completed build.
	ErrNoTree = errors.New("bigmerkle: store holds no completed tree")

	// ErrParamsMismatch is returned when the configured parameters disagree
	// with the parameters a persisted tree was built under. This is a fatal
	// configuration error: hashes from mismatched tables must never be mixed.
	ErrParamsMismatch = errors.New("bigmerkle: store was built under different parameters")
)

type config struct {
	workers int
	log     zerolog.Logger
}

// Option configures a build.
type Option func(*config)

// WithWorkers overrides the worker pool size, which defaults to the host's
// logical core count.
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger attaches a logger to the build. The default discards.
func WithLogger(log zerolog.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// BigTree is a handle to a fully built persistent tree.
type BigTree struct {
	params poseidon.Params
	store  storage.Store
	width  uint64
	height uint32
	root   fr.Element
}

// Build constructs the tree over the given leaves inside store. Level 0 is
// written directly from the leaves; each subsequent level is computed by the
// worker pool from the previous level and committed before the next level
// starts. Any store failure aborts the build with the error surfaced; the
// store must then be cleared or rebuilt, never read as a tree.
func Build(p poseidon.Params, leaves []fr.Element, store storage.Store, opts ...Option) (*BigTree, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(leaves) == 0 {
		return nil, merkle.ErrEmptyTree
	}

	cfg := config{
		workers: runtime.NumCPU(),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	// Level 0: the leaves themselves.
	if err := writeLevel(store, 0, 0, leaves); err != nil {
		return nil, err
	}
	cfg.log.Debug().Int("leaves", len(leaves)).Int("workers", cfg.workers).Msg("leaf level committed")

	level := append([]fr.Element(nil), leaves...)
	height := uint32(0)
	for len(level) > 1 {
		parents, err := hashLevelParallel(p, level, store, height+1, cfg)
		if err != nil {
			return nil, err
		}
		level = parents
		height++
		cfg.log.Debug().Uint32("level", height).Int("nodes", len(level)).Msg("level committed")
	}

	m := meta{params: p, width: uint64(len(leaves)), height: height}
	if err := store.Put(metaKey, m.encode()); err != nil {
		return nil, fmt.Errorf("bigmerkle: commit meta: %w", err)
	}

	return &BigTree{
		params: p,
		store:  store,
		width:  m.width,
		height: height,
		root:   level[0],
	}, nil
}

// hashLevelParallel computes and persists one parent level. Parent indices
// are statically partitioned into contiguous ranges, one per worker; each
// worker hashes and writes only its own range, and the errgroup Wait is the
// barrier making the whole level visible before the caller proceeds.
func hashLevelParallel(p poseidon.Params, children []fr.Element, store storage.Store, level uint32, cfg config) ([]fr.Element, error) {
	arity := p.Arity
	count := (len(children) + arity - 1) / arity
	parents := make([]fr.Element, count)

	workers := cfg.workers
	if workers > count {
		workers = count
	}
	chunk := (count + workers - 1) / workers

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > count {
			end = count
		}
		if start >= end {
			break
		}

		g.Go(func() error {
			h := poseidon.NewWithParams(p)
			for i := start; i < end; i++ {
				from := i * arity
				to := from + arity
				if to > len(children) {
					to = len(children)
				}
				h.Replace(children[from:to])
				parents[i] = h.Hash()
			}
			if err := writeLevel(store, level, uint64(start), parents[start:end]); err != nil {
				return fmt.Errorf("bigmerkle: level %d range [%d,%d): %w", level, start, end, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return parents, nil
}

// writeLevel persists a contiguous run of nodes starting at the given index.
func writeLevel(store storage.Store, level uint32, startIndex uint64, nodes []fr.Element) error {
	keys := make([][]byte, len(nodes))
	values := make([][]byte, len(nodes))
	for i := range nodes {
		keys[i] = Coord{Level: level, Index: startIndex + uint64(i)}.Key()
		b := nodes[i].Bytes()
		values[i] = b[:]
	}
	if err := store.WriteBatch(keys, values); err != nil {
		return fmt.Errorf("write level %d: %w", level, err)
	}
	return nil
}

// Open reattaches to a completed build in store. It fails with ErrNoTree if
// no meta entry exists, and with ErrParamsMismatch if the store was built
// under a different parameter set than p.
func Open(p poseidon.Params, store storage.Store) (*BigTree, error) {
	buf, found, err := store.Get(metaKey)
	if err != nil {
		return nil, fmt.Errorf("bigmerkle: read meta: %w", err)
	}
	if !found {
		return nil, ErrNoTree
	}

	m, err := decodeMeta(buf)
	if err != nil {
		return nil, err
	}
	if m.params != p {
		return nil, fmt.Errorf("%w: store has %s, configured %s", ErrParamsMismatch, m.params, p)
	}

	t := &BigTree{params: p, store: store, width: m.width, height: m.height}
	root, found, err := t.Node(int(m.height), 0)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: meta present but root missing", ErrNoTree)
	}
	t.root = root
	return t, nil
}

// Params returns the parameter set the tree was built with.
func (t *BigTree) Params() poseidon.Params {
	return t.params
}

// Root returns the tree root.
func (t *BigTree) Root() fr.Element {
	return t.root
}

// Height returns the number of hashing levels above the leaves.
func (t *BigTree) Height() int {
	return int(t.height)
}

// Width returns the number of leaves.
func (t *BigTree) Width() uint64 {
	return t.width
}

// Proof generates a membership proof for the leaf at the given index,
// reading each level's arity-sized sibling group back from the store. Slots
// past the end of a level are the zero padding and are never persisted, so
// absent nodes stay at zero in the group. The returned proof verifies
// exactly like one from the in-memory tree.
func (t *BigTree) Proof(index int) (*merkle.Proof, error) {
	if index < 0 || uint64(index) >= t.width {
		return nil, merkle.ErrIndexOutOfBounds
	}

	arity := t.params.Arity
	levels := make([]merkle.ProofLevel, 0, t.height)

	needle := index
	for level := 0; level < int(t.height); level++ {
		from := arity * (needle / arity)

		group := make([]fr.Element, arity)
		for i := 0; i < arity; i++ {
			node, found, err := t.Node(level, from+i)
			if err != nil {
				return nil, err
			}
			if found {
				group[i] = node
			}
		}

		levels = append(levels, merkle.ProofLevel{
			Index:    needle % arity,
			Siblings: group,
		})
		needle /= arity
	}

	return merkle.NewProof(t.params, levels), nil
}

// Node reads the digest at (level, index) back from the store, level 0
// being the leaves. The second return is false when no such node exists.
func (t *BigTree) Node(level, index int) (fr.Element, bool, error) {
	if level < 0 || level > int(t.height) || index < 0 {
		return fr.Element{}, false, nil
	}

	buf, found, err := t.store.Get(Coord{Level: uint32(level), Index: uint64(index)}.Key())
	if err != nil {
		return fr.Element{}, false, fmt.Errorf("bigmerkle: read node (%d,%d): %w", level, index, err)
	}
	if !found {
		return fr.Element{}, false, nil
	}

	var e fr.Element
	e.SetBytes(buf)
	return e, true, nil
}
