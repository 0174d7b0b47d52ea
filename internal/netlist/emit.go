package netlist

import (
	"container/heap"
	"fmt"
	"io"
	"sort"
)

const effectiveIDSentinel = 1000000

// Write emits a deterministic, topologically valid bench-format
// rendering of nl: sorted primary inputs, a blank line, sorted primary
// outputs, a blank line, then gates in effective-ID order (spec.md
// §4.1). BUF is emitted as BUFF to round-trip the alias.
func (nl *Netlist) Write(w io.Writer) error {
	ins := append([]*Node(nil), nl.PrimaryInputs...)
	sort.Slice(ins, func(i, j int) bool { return ins[i].Name < ins[j].Name })
	for _, n := range ins {
		if _, err := fmt.Fprintf(w, "INPUT(%s)\n", n.Name); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	outs := append([]*Node(nil), nl.PrimaryOutputs...)
	sort.Slice(outs, func(i, j int) bool { return outs[i].Name < outs[j].Name })
	for _, n := range outs {
		if _, err := fmt.Fprintf(w, "OUTPUT(%s)\n", n.Name); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	for _, g := range nl.emitOrder() {
		var buf []byte
		buf = append(buf, g.Name...)
		buf = append(buf, " = "...)
		buf = append(buf, g.Kind.String()...)
		buf = append(buf, '(')
		for i, in := range g.Fanin {
			if i > 0 {
				buf = append(buf, ", "...)
			}
			buf = append(buf, in.Name...)
		}
		buf = append(buf, ")\n"...)
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// emitOrder computes the effective-ID, priority-ordered Kahn schedule
// over nl.Gates, treating DFF drivers as pseudo-primary-inputs so
// sequential feedback loops never block topological progress.
func (nl *Netlist) emitOrder() []*Node {
	fanoutGraph := make(map[*Node][]*Node)
	dependencyCount := make(map[*Node]int)

	for _, g := range nl.Gates {
		if g.Kind == INPUT {
			continue
		}
		dependencyCount[g] = 0
	}
	for _, g := range nl.Gates {
		if g.Kind == INPUT || g.Kind == DFF {
			continue
		}
		for _, in := range g.Fanin {
			if in.Kind != INPUT {
				fanoutGraph[in] = append(fanoutGraph[in], g)
				dependencyCount[g]++
			}
		}
	}

	effectiveIDs := make(map[*Node]int)
	visited := make(map[*Node]bool)
	onStack := make(map[*Node]bool)

	var effectiveID func(n *Node) int
	effectiveID = func(n *Node) int {
		if n.Kind == INPUT {
			return 0
		}
		if visited[n] {
			return effectiveIDs[n]
		}
		if onStack[n] {
			if v, ok := parseNumeric(n.Name); ok {
				return v
			}
			return effectiveIDSentinel
		}
		onStack[n] = true

		myID := effectiveIDSentinel
		if v, ok := parseNumeric(n.Name); ok {
			myID = v
		}
		minNext := myID
		for _, out := range fanoutGraph[n] {
			if id := effectiveID(out); id < minNext {
				minNext = id
			}
		}

		onStack[n] = false
		visited[n] = true
		effectiveIDs[n] = minNext
		return minNext
	}

	for _, g := range nl.Gates {
		if g.Kind == INPUT {
			continue
		}
		effectiveID(g)
	}

	pq := &nodeHeap{effectiveIDs: effectiveIDs}
	for n, count := range dependencyCount {
		if count == 0 {
			heap.Push(pq, n)
		}
	}

	var order []*Node
	for pq.Len() > 0 {
		curr := heap.Pop(pq).(*Node)
		order = append(order, curr)
		for _, dependent := range fanoutGraph[curr] {
			dependencyCount[dependent]--
			if dependencyCount[dependent] == 0 {
				heap.Push(pq, dependent)
			}
		}
	}
	return order
}

// nodeHeap is a container/heap min-heap over *Node keyed by
// (effectiveID, name) ascending — the Go idiom for the teacher's
// priority-queue scheduling, generalized from the single-input-output
// gate shapes the teacher's bench package modeled.
type nodeHeap struct {
	items        []*Node
	effectiveIDs map[*Node]int
}

func (h *nodeHeap) Len() int { return len(h.items) }
func (h *nodeHeap) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	ia, ib := h.effectiveIDs[a], h.effectiveIDs[b]
	if ia != ib {
		return ia < ib
	}
	return a.Name < b.Name
}
func (h *nodeHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *nodeHeap) Push(x any)    { h.items = append(h.items, x.(*Node)) }
func (h *nodeHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}
