// Package trojan synthesizes a trigger network from a compatibility
// clique of rare nodes and splices one of five payload kinds onto a
// downstream output, reserving fresh identifier space for every gate
// it adds (spec.md §4.5).
package trojan

import (
	"math/rand/v2"
	"sort"
	"strconv"

	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/netlist"
)

// Kind identifies one of the five payload effects this synthesizer
// can splice onto a victim output.
type Kind int

const (
	FunctionalXOR Kind = iota
	DOSStuckAt0
	DOSStuckAt1
	DelayParametric
	LeakInfo
)

// Config selects a payload kind. TriggerSize records the size of the
// clique the trigger was built from; InsertPayload does not read it.
type Config struct {
	Kind        Kind
	TriggerSize int
}

// Report summarizes one insertion for downstream reporting (spec.md §7).
type Report struct {
	Kind               Kind
	TriggerName        string
	TriggerGateCount   int
	VictimOriginalName string
	VictimRenamedName  string
	OutputLocationName string
	SecretNodeName     string // set only for LeakInfo
}

const chunkSize = 4

// Generator synthesizes trigger/payload logic against one netlist. It
// tracks the netlist's original maximum numeric ID so that inserted
// gates can always be told apart from pre-existing ones.
type Generator struct {
	nl           *netlist.Netlist
	nextID       int
	initialMaxID int
	rng          *rand.Rand
}

// NewGenerator scans nl for its highest numeric node name and returns
// a Generator seeded to mint fresh names above it. seed drives victim
// and secret-node selection reproducibly.
func NewGenerator(nl *netlist.Netlist, seed uint64) *Generator {
	maxID := 0
	for _, n := range nl.Nodes {
		if id, ok := netlist.NumericName(n.Name); ok && id > maxID {
			maxID = id
		}
	}
	return &Generator{
		nl:           nl,
		nextID:       maxID + 1,
		initialMaxID: maxID,
		rng:          rand.New(rand.NewPCG(seed, seed^0x2545F4914F6CDD1D)),
	}
}

func (g *Generator) genName() string {
	name := strconv.Itoa(g.nextID)
	g.nextID++
	return name
}

// GenerateTrigger builds the trigger gate for clique. Cliques of size
// <= 8 get a flat AND(rare-1s) / NOR(rare-0s) combined by one more
// AND. Larger cliques are chunked into groups of chunkSize to avoid
// an oversized single gate's fan-in (spec.md §4.5).
func (g *Generator) GenerateTrigger(clique []*netlist.Node) *netlist.Node {
	if len(clique) > 8 {
		return g.generateChunkedTrigger(clique)
	}
	return g.generateFlatTrigger(clique)
}

func splitByPolarity(nodes []*netlist.Node) (rare1, rare0 []*netlist.Node) {
	for _, n := range nodes {
		if n.RarePolarity == netlist.Rare1 {
			rare1 = append(rare1, n)
		} else {
			rare0 = append(rare0, n)
		}
	}
	return rare1, rare0
}

func (g *Generator) generateFlatTrigger(clique []*netlist.Node) *netlist.Node {
	rare1, rare0 := splitByPolarity(clique)

	var part1, part0 *netlist.Node
	if len(rare1) > 0 {
		part1 = g.nl.CreateGate(g.genName(), netlist.AND, rare1)
	}
	if len(rare0) > 0 {
		part0 = g.nl.CreateGate(g.genName(), netlist.NOR, rare0)
	}

	switch {
	case part1 != nil && part0 != nil:
		return g.nl.CreateGate(g.genName(), netlist.AND, []*netlist.Node{part1, part0})
	case part1 != nil:
		return part1
	case part0 != nil:
		return part0
	default:
		return nil
	}
}

func (g *Generator) generateChunkedTrigger(clique []*netlist.Node) *netlist.Node {
	var level3 []*netlist.Node

	for i := 0; i < len(clique); i += chunkSize {
		end := i + chunkSize
		if end > len(clique) {
			end = len(clique)
		}
		rare1, rare0 := splitByPolarity(clique[i:end])

		var l2And, l2Nor *netlist.Node
		if len(rare1) > 0 {
			l2And = g.nl.CreateGate(g.genName(), netlist.AND, rare1)
		}
		if len(rare0) > 0 {
			l2Nor = g.nl.CreateGate(g.genName(), netlist.NOR, rare0)
		}

		var l2outs []*netlist.Node
		if l2And != nil {
			l2outs = append(l2outs, l2And)
		}
		if l2Nor != nil {
			l2outs = append(l2outs, l2Nor)
		}

		if len(l2outs) == 0 {
			continue
		}
		var chunkResult *netlist.Node
		if len(l2outs) == 2 {
			chunkResult = g.nl.CreateGate(g.genName(), netlist.AND, l2outs)
		} else {
			chunkResult = l2outs[0]
		}
		level3 = append(level3, chunkResult)
	}

	return g.nl.CreateGate(g.genName(), netlist.AND, level3)
}

// InsertPayload selects a downstream victim output, reserves fresh
// identifier space for the trigger cone plus the payload's gate
// overhead, renames everything into that space, splices the payload
// in place of the victim, and returns a summary for reporting.
func (g *Generator) InsertPayload(trigger *netlist.Node, cfg Config) *Report {
	if trigger == nil || len(g.nl.PrimaryOutputs) == 0 {
		return nil
	}

	targetOutput := g.selectVictim(trigger)
	originalName := targetOutput.Name

	maxIDVal := 0
	for _, n := range g.nl.Nodes {
		if id, ok := netlist.NumericName(n.Name); ok && id > maxIDVal {
			maxIDVal = id
		}
	}
	if maxIDVal < len(g.nl.Nodes) {
		maxIDVal = len(g.nl.Nodes) + 10000
	}
	currentID := maxIDVal + 1000
	targetID := currentID

	trojanGates := g.collectTrojanGates(trigger)

	payloadOverhead := map[Kind]int{
		FunctionalXOR:   1,
		DOSStuckAt0:     2,
		DOSStuckAt1:     1,
		DelayParametric: 8,
		LeakInfo:        4,
	}[cfg.Kind]

	numNeeded := len(trojanGates) + payloadOverhead
	g.nl.ShiftIDs(targetID, numNeeded)

	currentID = targetID
	sort.Slice(trojanGates, func(i, j int) bool { return trojanGates[i].ID < trojanGates[j].ID })
	for _, t := range trojanGates {
		g.nl.RenameNode(t, strconv.Itoa(currentID))
		currentID++
	}

	internalName := strconv.Itoa(currentID)
	currentID++
	g.nl.RenameNode(targetOutput, internalName)

	finalOutputName := strconv.Itoa(targetID + numNeeded)

	report := &Report{
		Kind:               cfg.Kind,
		TriggerName:        trigger.Name,
		TriggerGateCount:   len(trojanGates),
		VictimOriginalName: originalName,
		VictimRenamedName:  internalName,
		OutputLocationName: finalOutputName,
	}

	var payloadNode *netlist.Node
	switch cfg.Kind {
	case FunctionalXOR:
		payloadNode = g.nl.CreateGate(finalOutputName, netlist.XOR, []*netlist.Node{targetOutput, trigger})

	case DOSStuckAt0:
		notTrigger := g.nl.CreateGate(strconv.Itoa(currentID), netlist.NOT, []*netlist.Node{trigger})
		currentID++
		payloadNode = g.nl.CreateGate(finalOutputName, netlist.AND, []*netlist.Node{targetOutput, notTrigger})

	case DOSStuckAt1:
		payloadNode = g.nl.CreateGate(finalOutputName, netlist.OR, []*netlist.Node{targetOutput, trigger})

	case DelayParametric:
		curr := targetOutput
		for i := 0; i < 4; i++ {
			curr = g.nl.CreateGate(strconv.Itoa(currentID), netlist.BUF, []*netlist.Node{curr})
			currentID++
		}
		delayedSignal := curr
		notTrigger := g.nl.CreateGate(strconv.Itoa(currentID), netlist.NOT, []*netlist.Node{trigger})
		currentID++
		term1 := g.nl.CreateGate(strconv.Itoa(currentID), netlist.AND, []*netlist.Node{targetOutput, notTrigger})
		currentID++
		term2 := g.nl.CreateGate(strconv.Itoa(currentID), netlist.AND, []*netlist.Node{delayedSignal, trigger})
		currentID++
		payloadNode = g.nl.CreateGate(finalOutputName, netlist.OR, []*netlist.Node{term1, term2})

	case LeakInfo:
		secret := g.selectSecret(targetOutput, trigger)
		report.SecretNodeName = secret.Name

		notTrigger := g.nl.CreateGate(strconv.Itoa(currentID), netlist.NOT, []*netlist.Node{trigger})
		currentID++
		term1 := g.nl.CreateGate(strconv.Itoa(currentID), netlist.AND, []*netlist.Node{targetOutput, notTrigger})
		currentID++
		term2 := g.nl.CreateGate(strconv.Itoa(currentID), netlist.AND, []*netlist.Node{secret, trigger})
		currentID++
		payloadNode = g.nl.CreateGate(finalOutputName, netlist.OR, []*netlist.Node{term1, term2})
	}

	g.nl.ReplaceOutput(targetOutput, payloadNode)
	return report
}

// selectVictim walks the trigger's fanin cone to find the highest
// numeric ID among original (pre-Trojan) nodes it depends on, then
// picks uniformly among primary outputs whose own numeric ID is
// strictly greater — i.e. topologically downstream of everything the
// trigger reads. Falls back to all outputs if none qualify.
func (g *Generator) selectVictim(trigger *netlist.Node) *netlist.Node {
	maxSourceID := -1
	visited := make(map[*netlist.Node]bool)

	var traverse func(n *netlist.Node)
	traverse = func(n *netlist.Node) {
		if visited[n] {
			return
		}
		visited[n] = true
		id := -1
		if v, ok := netlist.NumericName(n.Name); ok {
			id = v
		}
		if id <= g.initialMaxID {
			if id > maxSourceID {
				maxSourceID = id
			}
			return
		}
		for _, in := range n.Fanin {
			traverse(in)
		}
	}
	traverse(trigger)

	var candidates []*netlist.Node
	for _, out := range g.nl.PrimaryOutputs {
		id := -1
		if v, ok := netlist.NumericName(out.Name); ok {
			id = v
		}
		if id > maxSourceID {
			candidates = append(candidates, out)
		}
	}
	if len(candidates) == 0 {
		candidates = g.nl.PrimaryOutputs
	}

	return candidates[g.rng.IntN(len(candidates))]
}

// collectTrojanGates walks trigger's fanin cone, gathering every node
// whose numeric ID exceeds the netlist's original maximum — i.e.
// every gate generateTrigger added.
func (g *Generator) collectTrojanGates(trigger *netlist.Node) []*netlist.Node {
	var gates []*netlist.Node
	visited := make(map[*netlist.Node]bool)

	var collect func(n *netlist.Node)
	collect = func(n *netlist.Node) {
		if visited[n] {
			return
		}
		visited[n] = true
		id := -1
		if v, ok := netlist.NumericName(n.Name); ok {
			id = v
		}
		if id > g.initialMaxID {
			gates = append(gates, n)
			for _, in := range n.Fanin {
				collect(in)
			}
		}
	}
	collect(trigger)
	return gates
}

// selectSecret samples up to 100 random nodes for one that predates
// the Trojan and is neither the victim nor the trigger, falling back
// to leaking the trigger itself if none is found.
func (g *Generator) selectSecret(targetOutput, trigger *netlist.Node) *netlist.Node {
	for attempts := 0; attempts < 100; attempts++ {
		cand := g.nl.Nodes[g.rng.IntN(len(g.nl.Nodes))]
		id := -1
		if v, ok := netlist.NumericName(cand.Name); ok {
			id = v
		}
		if id <= g.initialMaxID && cand != targetOutput && cand != trigger {
			return cand
		}
	}
	return trigger
}
