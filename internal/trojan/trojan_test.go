package trojan

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/netlist"
	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/simulate"
)

func mustParse(t *testing.T, src string) *netlist.Netlist {
	t.Helper()
	nl, err := netlist.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return nl
}

// A numerically-named netlist so the "downstream" ID heuristics this
// package relies on are exercised the way they would be against bench
// fixtures emitted by internal/netlist.
const numericNetlist = `
INPUT(1)
INPUT(2)
INPUT(3)
4 = AND(1, 2)
5 = OR(2, 3)
6 = XOR(4, 5)
OUTPUT(4)
OUTPUT(5)
OUTPUT(6)
`

func TestGenerateTriggerFlat(t *testing.T) {
	nl := mustParse(t, numericNetlist)
	n1, n2, n3 := nl.Lookup("1"), nl.Lookup("2"), nl.Lookup("3")
	n1.RarePolarity = netlist.Rare1
	n2.RarePolarity = netlist.Rare1
	n3.RarePolarity = netlist.Rare0

	g := NewGenerator(nl, 1)
	trigger := g.GenerateTrigger([]*netlist.Node{n1, n2, n3})
	require.NotNil(t, trigger)
	assert.Equal(t, netlist.AND, trigger.Kind, "rare-1 and rare-0 parts both present, combined by AND")
	assert.Len(t, trigger.Fanin, 2)
}

func TestGenerateTriggerAllRare1(t *testing.T) {
	nl := mustParse(t, numericNetlist)
	n1, n2 := nl.Lookup("1"), nl.Lookup("2")
	n1.RarePolarity = netlist.Rare1
	n2.RarePolarity = netlist.Rare1

	g := NewGenerator(nl, 1)
	trigger := g.GenerateTrigger([]*netlist.Node{n1, n2})
	require.NotNil(t, trigger)
	assert.Equal(t, netlist.AND, trigger.Kind)
	assert.Len(t, trigger.Fanin, 2)
}

func TestGenerateTriggerChunked(t *testing.T) {
	nl := netlist.New()
	var clique []*netlist.Node
	for i := 0; i < 10; i++ {
		n := nl.CreateGate(string(rune('a'+i)), netlist.AND, nil)
		n.RarePolarity = netlist.Rare1
		clique = append(clique, n)
	}
	g := NewGenerator(nl, 1)
	trigger := g.GenerateTrigger(clique)
	require.NotNil(t, trigger)
	// 10 nodes / chunk of 4 -> 3 level-3 chunk outputs feeding final AND.
	assert.Len(t, trigger.Fanin, 3)
}

func TestInsertPayloadFunctionalXORFlipsOutputUnderTrigger(t *testing.T) {
	// Only node 6 is a declared output, so victim selection is
	// deterministic; node 6 reads the trigger's rare-node sources 1 and
	// 2 only indirectly, through nodes 4 and 5.
	nl := mustParse(t, `
INPUT(1)
INPUT(2)
INPUT(3)
4 = AND(1, 2)
5 = OR(2, 3)
6 = XOR(4, 5)
OUTPUT(6)
`)
	n1, n2 := nl.Lookup("1"), nl.Lookup("2")
	n1.RarePolarity = netlist.Rare1
	n2.RarePolarity = netlist.Rare1

	g := NewGenerator(nl, 7)
	trigger := g.GenerateTrigger([]*netlist.Node{n1, n2})
	require.NotNil(t, trigger)

	report := g.InsertPayload(trigger, Config{Kind: FunctionalXOR})
	require.NotNil(t, report)
	assert.Equal(t, FunctionalXOR, report.Kind)
	assert.NotEmpty(t, report.VictimRenamedName)
	assert.NotEmpty(t, report.OutputLocationName)

	finalOut := nl.Lookup(report.OutputLocationName)
	require.NotNil(t, finalOut)
	assert.Contains(t, nl.PrimaryOutputs, finalOut)

	// Drive the trigger's inputs to activate it (n1=n2=1), then
	// confirm the spliced output differs from the un-triggered run.
	n3 := nl.Lookup("3")

	simulate.ClearValues(nl)
	n1.Value, n2.Value, n3.Value = netlist.Zero, netlist.Zero, netlist.Zero
	for _, gate := range nl.Gates {
		simulate.Evaluate(gate)
	}
	untriggered := simulate.Evaluate(finalOut)

	simulate.ClearValues(nl)
	n1.Value, n2.Value, n3.Value = netlist.One, netlist.One, netlist.Zero
	for _, gate := range nl.Gates {
		simulate.Evaluate(gate)
	}
	triggered := simulate.Evaluate(finalOut)

	// Triggering forces an XOR with the (now active) trigger signal,
	// so driving the activating vector must flip the victim's value
	// relative to whatever the untouched logic would have produced.
	assert.NotEqual(t, untriggered, triggered, "functional XOR payload must visibly change output under trigger")
}

func TestInsertPayloadDOSStuckAt0(t *testing.T) {
	nl := mustParse(t, numericNetlist)
	n1 := nl.Lookup("1")
	n1.RarePolarity = netlist.Rare1

	g := NewGenerator(nl, 3)
	trigger := g.GenerateTrigger([]*netlist.Node{n1})
	require.NotNil(t, trigger)

	report := g.InsertPayload(trigger, Config{Kind: DOSStuckAt0})
	require.NotNil(t, report)

	finalOut := nl.Lookup(report.OutputLocationName)
	require.NotNil(t, finalOut)

	simulate.ClearValues(nl)
	n1.Value = netlist.One
	nl.Lookup("2").Value = netlist.One
	nl.Lookup("3").Value = netlist.One
	for _, gate := range nl.Gates {
		simulate.Evaluate(gate)
	}
	assert.Equal(t, netlist.Zero, simulate.Evaluate(finalOut), "DoS SA0 payload must force 0 once the trigger fires")
}

func TestInsertPayloadLeakInfoPicksDistinctSecret(t *testing.T) {
	nl := mustParse(t, numericNetlist)
	n1 := nl.Lookup("1")
	n1.RarePolarity = netlist.Rare1

	g := NewGenerator(nl, 11)
	trigger := g.GenerateTrigger([]*netlist.Node{n1})
	require.NotNil(t, trigger)

	report := g.InsertPayload(trigger, Config{Kind: LeakInfo})
	require.NotNil(t, report)
	assert.NotEmpty(t, report.SecretNodeName)
	assert.NotEqual(t, report.VictimRenamedName, report.SecretNodeName)
}

func TestInsertPayloadReservesFreshIdentifierSpace(t *testing.T) {
	nl := mustParse(t, numericNetlist)
	n1 := nl.Lookup("1")
	n1.RarePolarity = netlist.Rare1

	g := NewGenerator(nl, 5)
	trigger := g.GenerateTrigger([]*netlist.Node{n1})
	report := g.InsertPayload(trigger, Config{Kind: DOSStuckAt1})
	require.NotNil(t, report)

	// Every node name must still be unique after ID shifting/renaming.
	seen := make(map[string]bool)
	for _, n := range nl.Nodes {
		assert.False(t, seen[n.Name], "duplicate node name %s after trojan insertion", n.Name)
		seen[n.Name] = true
	}
}

func TestInsertPayloadAgainstGoldenC17(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "c17.bench"))
	require.NoError(t, err)
	defer f.Close()

	nl, err := netlist.Parse(f)
	require.NoError(t, err)
	originalGates := len(nl.Gates)

	n10 := nl.Lookup("10")
	n10.RarePolarity = netlist.Rare1

	g := NewGenerator(nl, 7)
	trigger := g.GenerateTrigger([]*netlist.Node{n10})
	require.NotNil(t, trigger)

	report := g.InsertPayload(trigger, Config{Kind: FunctionalXOR, TriggerSize: 1})
	require.NotNil(t, report)
	assert.Greater(t, len(nl.Gates), originalGates, "insertion must add at least the trigger and payload gates")
}
