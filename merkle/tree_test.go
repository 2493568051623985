package merkle

import (
	"encoding/hex"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/poseidon-merkle/poseidon"
)

func uintLeaves(n int) []fr.Element {
	leaves := make([]fr.Element, n)
	for i := range leaves {
		leaves[i].SetUint64(uint64(i))
	}
	return leaves
}

func hexElement(t *testing.T, s string) fr.Element {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	var e fr.Element
	e.SetBytes(b)
	return e
}

func TestBuildEmpty(t *testing.T) {
	_, err := Build(poseidon.DefaultParams(), nil)
	require.ErrorIs(t, err, ErrEmptyTree)
}

func TestBuildSingleLeaf(t *testing.T) {
	var leaf fr.Element
	leaf.SetUint64(77)

	tree, err := Build(poseidon.DefaultParams(), []fr.Element{leaf})
	require.NoError(t, err)

	root := tree.Root()
	assert.True(t, leaf.Equal(&root), "single leaf must be its own root")
	assert.Equal(t, 0, tree.Height())
	assert.Equal(t, 1, tree.Width())
}

func TestBuildSingleGroupMatchesHash(t *testing.T) {
	// A tree over exactly arity leaves has one hashing level, and its root
	// is the sponge digest of the leaves in order.
	p := poseidon.DefaultParams()
	leaves := uintLeaves(p.Arity)

	tree, err := Build(p, leaves)
	require.NoError(t, err)

	h := poseidon.NewWithParams(p)
	h.Replace(leaves)
	want := h.Hash()
	root := tree.Root()
	assert.True(t, want.Equal(&root))
	assert.Equal(t, 1, tree.Height())
}

func TestBuildRegressionVectors(t *testing.T) {
	p := poseidon.DefaultParams()

	// Pinned roots for the default parameters; leaves are the field
	// encodings of 0..n-1.
	cases := []struct {
		leaves int
		hex    string
	}{
		{4, "1c4beb5e832949b34dee75a05f7032d44160482a70579f1957c4b56e86ee7c32"},
		{10, "266b2141cd55e2a3d2092225ae5567a68207e6e3e5d10a45ef22cd1e0fc29140"},
	}

	for _, tc := range cases {
		tree, err := Build(p, uintLeaves(tc.leaves))
		require.NoError(t, err)
		want := hexElement(t, tc.hex)
		root := tree.Root()
		assert.True(t, want.Equal(&root), "root mismatch for %d leaves", tc.leaves)
	}
}

func TestBuildDeterminism(t *testing.T) {
	p := poseidon.DefaultParams()
	leaves := uintLeaves(23)

	t1, err := Build(p, leaves)
	require.NoError(t, err)
	t2, err := Build(p, leaves)
	require.NoError(t, err)

	r1, r2 := t1.Root(), t2.Root()
	assert.True(t, r1.Equal(&r2))
}

func TestBuildLeafSensitivity(t *testing.T) {
	p := poseidon.DefaultParams()
	leaves := uintLeaves(17)

	base, err := Build(p, leaves)
	require.NoError(t, err)
	baseRoot := base.Root()

	for _, idx := range []int{0, 7, 16} {
		mutated := append([]fr.Element(nil), leaves...)
		mutated[idx].SetUint64(1 << 40)

		tree, err := Build(p, mutated)
		require.NoError(t, err)
		root := tree.Root()
		assert.False(t, baseRoot.Equal(&root), "changing leaf %d must change root", idx)
	}
}

func TestBuildPaddingMatters(t *testing.T) {
	// An explicit zero leaf is distinct from an absent one when it forces an
	// extra slot into the tree shape, but a trailing zero leaf inside the
	// same group hashes identically to padding. Verify both directions.
	p := poseidon.DefaultParams()

	var one fr.Element
	one.SetOne()

	t1, err := Build(p, []fr.Element{one})
	require.NoError(t, err)

	t2, err := Build(p, []fr.Element{one, {}})
	require.NoError(t, err)

	r1, r2 := t1.Root(), t2.Root()
	// Single leaf short-circuits to the leaf itself; two leaves hash.
	assert.False(t, r1.Equal(&r2))

	t3, err := Build(p, []fr.Element{one, {}, {}})
	require.NoError(t, err)
	r3 := t3.Root()
	// Both trees hash one group of [one, 0, 0, 0].
	assert.True(t, r2.Equal(&r3))
}

func TestNodeLookup(t *testing.T) {
	p := poseidon.DefaultParams()
	tree, err := Build(p, uintLeaves(10))
	require.NoError(t, err)

	// 10 leaves, arity 4: levels of 10, 3, 1.
	assert.Equal(t, 2, tree.Height())

	leaf, ok := tree.Node(0, 9)
	require.True(t, ok)
	var nine fr.Element
	nine.SetUint64(9)
	assert.True(t, nine.Equal(&leaf))

	_, ok = tree.Node(0, 10)
	assert.False(t, ok)
	_, ok = tree.Node(1, 3)
	assert.False(t, ok)
	_, ok = tree.Node(3, 0)
	assert.False(t, ok)
	_, ok = tree.Node(-1, 0)
	assert.False(t, ok)

	root, ok := tree.Node(2, 0)
	require.True(t, ok)
	want := tree.Root()
	assert.True(t, want.Equal(&root))
}

func TestBuildArity2(t *testing.T) {
	p := poseidon.Params{Arity: 2, FullRounds: 8, PartialRounds: 59}
	tree, err := Build(p, uintLeaves(5))
	require.NoError(t, err)

	// 5 leaves, arity 2: levels of 5, 3, 2, 1.
	assert.Equal(t, 3, tree.Height())

	t2, err := Build(p, uintLeaves(5))
	require.NoError(t, err)
	r1, r2 := tree.Root(), t2.Root()
	assert.True(t, r1.Equal(&r2))
}

func BenchmarkBuild(b *testing.B) {
	p := poseidon.DefaultParams()
	leaves := uintLeaves(1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Build(p, leaves); err != nil {
			b.Fatal(err)
		}
	}
}
