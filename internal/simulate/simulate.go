// Package simulate provides the 2-valued combinational evaluator and
// the Monte-Carlo rare-node miner (spec.md §4.2).
package simulate

import (
	"math/rand/v2"

	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/netlist"
)

// ClearValues resets the memoized Value on every node to Unevaluated.
func ClearValues(nl *netlist.Netlist) {
	for _, n := range nl.Nodes {
		n.Value = netlist.Unevaluated
	}
}

// Evaluate computes node's 2-valued output, memoizing on Value and
// recursing through fanin. Primary inputs (and DFF pseudo-PIs) must
// already carry a driven Value; Evaluate never overwrites them.
func Evaluate(n *netlist.Node) netlist.Tri {
	if n.IsPseudoPrimaryInput() {
		return n.Value
	}
	if n.Value != netlist.Unevaluated {
		return n.Value
	}

	vals := make([]netlist.Tri, len(n.Fanin))
	for i, in := range n.Fanin {
		vals[i] = Evaluate(in)
	}

	n.Value = compute(n.Kind, vals)
	return n.Value
}

func compute(kind netlist.GateKind, vals []netlist.Tri) netlist.Tri {
	if len(vals) == 0 {
		return netlist.Zero
	}
	switch kind {
	case netlist.AND:
		for _, v := range vals {
			if v == netlist.Zero {
				return netlist.Zero
			}
		}
		return netlist.One
	case netlist.NAND:
		for _, v := range vals {
			if v == netlist.Zero {
				return netlist.One
			}
		}
		return netlist.Zero
	case netlist.OR:
		for _, v := range vals {
			if v == netlist.One {
				return netlist.One
			}
		}
		return netlist.Zero
	case netlist.NOR:
		for _, v := range vals {
			if v == netlist.One {
				return netlist.Zero
			}
		}
		return netlist.One
	case netlist.XOR, netlist.XNOR:
		acc := netlist.Zero
		for _, v := range vals {
			if v == netlist.One {
				acc = flip(acc)
			}
		}
		if kind == netlist.XNOR {
			acc = flip(acc)
		}
		return acc
	case netlist.NOT:
		return flip(vals[0])
	case netlist.BUF:
		return vals[0]
	default:
		return netlist.Zero
	}
}

func flip(v netlist.Tri) netlist.Tri {
	if v == netlist.One {
		return netlist.Zero
	}
	return netlist.One
}

// Rand is the PRNG source threaded through Monte-Carlo mining, so a
// run is reproducible for a fixed seed (spec.md §9 "Randomness").
type Rand struct {
	src *rand.Rand
}

// NewRand seeds a Rand deterministically.
func NewRand(seed uint64) *Rand {
	return &Rand{src: rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))}
}

// Bit returns an independent uniform random bit.
func (r *Rand) Bit() netlist.Tri {
	if r.src.IntN(2) == 1 {
		return netlist.One
	}
	return netlist.Zero
}

// FindRareNodes runs numVectors Monte-Carlo vectors and annotates every
// internal node's RarePolarity per spec.md §4.2. INPUT-kind nodes are
// skipped and keep their RarePolarity. A declared primary output driven
// by a gate carries that gate's kind, so it is classified like any
// other node.
func FindRareNodes(nl *netlist.Netlist, numVectors int, thresholdRatio float64, rng *Rand) {
	limit := int(float64(numVectors) * thresholdRatio)

	ones := make([]int, len(nl.Nodes))

	for i := 0; i < numVectors; i++ {
		ClearValues(nl)

		for _, in := range nl.PrimaryInputs {
			in.Value = rng.Bit()
		}
		for _, g := range nl.Gates {
			Evaluate(g)
		}
		for _, out := range nl.PrimaryOutputs {
			Evaluate(out)
		}

		for _, n := range nl.Nodes {
			if n.Value == netlist.One {
				ones[n.ID]++
			}
		}
	}

	for _, n := range nl.Nodes {
		if n.Kind == netlist.INPUT || n.Kind == netlist.OUTPUT {
			continue
		}
		switch {
		case ones[n.ID] <= limit:
			n.RarePolarity = netlist.Rare1
		case numVectors-ones[n.ID] <= limit:
			n.RarePolarity = netlist.Rare0
		default:
			n.RarePolarity = netlist.NotRare
		}
	}
}
