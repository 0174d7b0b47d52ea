package simulate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/netlist"
)

func mustParse(t *testing.T, src string) *netlist.Netlist {
	t.Helper()
	nl, err := netlist.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return nl
}

func TestEvaluateAnd(t *testing.T) {
	nl := mustParse(t, `
INPUT(a)
INPUT(b)
g = AND(a, b)
OUTPUT(g)
`)
	a, b, g := nl.Lookup("a"), nl.Lookup("b"), nl.Lookup("g")

	a.Value, b.Value = netlist.One, netlist.One
	assert.Equal(t, netlist.One, Evaluate(g))

	ClearValues(nl)
	a.Value, b.Value = netlist.One, netlist.Zero
	assert.Equal(t, netlist.Zero, Evaluate(g))
}

func TestEvaluateAlwaysResolved(t *testing.T) {
	nl := mustParse(t, `
INPUT(a)
INPUT(b)
n1 = NAND(a, b)
n2 = XOR(a, b)
o = OR(n1, n2)
OUTPUT(o)
`)
	rng := NewRand(42)
	for i := 0; i < 50; i++ {
		ClearValues(nl)
		for _, in := range nl.PrimaryInputs {
			in.Value = rng.Bit()
		}
		for _, n := range nl.Nodes {
			v := Evaluate(n)
			assert.True(t, v == netlist.Zero || v == netlist.One)
		}
	}
}

// Scenario 1 (spec.md §8): g = AND(a,b). At theta=0.2, AND's ~25% ones
// rate is above the limit and not rare; at theta=0.3 it falls under the
// limit and is rare-1.
func TestFindRareNodesThresholdEdge(t *testing.T) {
	nl := mustParse(t, `
INPUT(a)
INPUT(b)
g = AND(a, b)
OUTPUT(g)
`)
	rng := NewRand(1)
	FindRareNodes(nl, 10000, 0.2, rng)
	g := nl.Lookup("g")
	assert.Equal(t, netlist.NotRare, g.RarePolarity, "~25%% ones rate should not clear a 20%% threshold")

	nl2 := mustParse(t, `
INPUT(a)
INPUT(b)
g = AND(a, b)
OUTPUT(g)
`)
	rng2 := NewRand(1)
	FindRareNodes(nl2, 10000, 0.3, rng2)
	g2 := nl2.Lookup("g")
	assert.Equal(t, netlist.Rare1, g2.RarePolarity, "~25%% ones rate should fall under a 30%% threshold as rare-1")
}

// Scenario 2 (spec.md §8): a 4-input XOR tree settles near 50% ones,
// so no node is rare at any theta < 0.5.
func TestFindRareNodesXorTreeNotRare(t *testing.T) {
	nl := mustParse(t, `
INPUT(a)
INPUT(b)
INPUT(c)
INPUT(d)
x = XOR(a, b, c, d)
OUTPUT(x)
`)
	rng := NewRand(7)
	FindRareNodes(nl, 10000, 0.2, rng)
	x := nl.Lookup("x")
	assert.Equal(t, netlist.NotRare, x.RarePolarity)
}

func TestFindRareNodesReproducible(t *testing.T) {
	nl1 := mustParse(t, `
INPUT(a)
INPUT(b)
g = AND(a, b)
OUTPUT(g)
`)
	nl2 := mustParse(t, `
INPUT(a)
INPUT(b)
g = AND(a, b)
OUTPUT(g)
`)
	FindRareNodes(nl1, 2000, 0.2, NewRand(99))
	FindRareNodes(nl2, 2000, 0.2, NewRand(99))
	assert.Equal(t, nl1.Lookup("g").RarePolarity, nl2.Lookup("g").RarePolarity)
}

func TestDFFTreatedAsPseudoInput(t *testing.T) {
	nl := mustParse(t, `
INPUT(in)
q = DFF(d)
d = AND(in, q)
OUTPUT(q)
`)
	q := nl.Lookup("q")
	in := nl.Lookup("in")

	q.Value = netlist.One
	in.Value = netlist.Zero
	d := nl.Lookup("d")
	assert.Equal(t, netlist.Zero, Evaluate(d))
}

func TestFindRareNodesAgainstGoldenC17(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "c17.bench"))
	require.NoError(t, err)
	defer f.Close()

	nl, err := netlist.Parse(f)
	require.NoError(t, err)

	FindRareNodes(nl, 5000, 0.2, NewRand(13))
	for _, name := range []string{"10", "11", "16", "19", "22", "23"} {
		n := nl.Lookup(name)
		require.NotNil(t, n)
		assert.Contains(t, []netlist.RarePolarity{netlist.Rare0, netlist.Rare1, netlist.NotRare}, n.RarePolarity)
	}
}
