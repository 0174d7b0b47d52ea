package podem

import "github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/netlist"

// Justifier runs PODEM-style 5-valued search against a fixed netlist.
// One Justifier can serve many GenerateTest calls; each call clears and
// re-derives its own node-value state.
type Justifier struct {
	nl    *netlist.Netlist
	state map[*netlist.Node]LogicVal

	faultNode *netlist.Node
	faultVal  LogicVal
}

// New returns a Justifier bound to nl.
func New(nl *netlist.Netlist) *Justifier {
	return &Justifier{nl: nl}
}

// GenerateTest searches for a primary-input assignment that forces
// target to targetVal (0 or 1) and propagates a detectable difference
// to some primary output. On success it returns a map from every
// primary input (including DFF pseudo-PIs) to 0 or 1; inputs PODEM
// never had to assign default to 0. On failure it returns an empty
// map (spec.md §4.3).
func (j *Justifier) GenerateTest(target *netlist.Node, targetVal int) map[*netlist.Node]int {
	j.clear()

	faultVal := D
	if targetVal == 0 {
		faultVal = DBar
	}
	j.faultNode = target
	j.faultVal = faultVal

	ok := j.search()
	j.faultNode = nil

	if !ok {
		return map[*netlist.Node]int{}
	}

	result := make(map[*netlist.Node]int, len(j.nl.PrimaryInputs))
	for _, in := range j.nl.PrimaryInputs {
		if j.get(in) == One {
			result[in] = 1
		} else {
			result[in] = 0
		}
	}
	return result
}

func (j *Justifier) clear() {
	j.state = make(map[*netlist.Node]LogicVal, len(j.nl.Nodes))
}

func (j *Justifier) get(n *netlist.Node) LogicVal {
	if v, ok := j.state[n]; ok {
		return v
	}
	return X
}

func (j *Justifier) set(n *netlist.Node, v LogicVal) {
	j.state[n] = v
}

func (j *Justifier) snapshot() map[*netlist.Node]LogicVal {
	cp := make(map[*netlist.Node]LogicVal, len(j.state))
	for k, v := range j.state {
		cp[k] = v
	}
	return cp
}

func (j *Justifier) restore(snap map[*netlist.Node]LogicVal) {
	j.state = snap
}

// search is the canonical PODEM recursion: check success, pick one
// objective, backtrace it to a primary input, try one value and then
// (on failure, after restoring) its complement.
func (j *Justifier) search() bool {
	if j.faultAtOutput() {
		return true
	}

	objNode, objVal, ok := j.objective()
	if !ok {
		return false
	}

	pi, piVal := j.backtrace(objNode, objVal)
	snap := j.snapshot()

	j.assign(pi, piVal)
	j.imply()
	if j.search() {
		return true
	}

	j.restore(snap)
	j.assign(pi, 1-piVal)
	j.imply()
	if j.search() {
		return true
	}

	j.restore(snap)
	return false
}

func (j *Justifier) assign(n *netlist.Node, val int) {
	if val == 1 {
		j.set(n, One)
	} else {
		j.set(n, Zero)
	}
}

func (j *Justifier) faultAtOutput() bool {
	for _, out := range j.nl.PrimaryOutputs {
		if v := j.get(out); v == D || v == DBar {
			return true
		}
	}
	return false
}

// objective picks the next value to justify: activate the fault if it
// hasn't been yet, otherwise drive an X input of a D-frontier gate
// towards its non-controlling value.
func (j *Justifier) objective() (node *netlist.Node, val int, ok bool) {
	if j.get(j.faultNode) == X {
		v := 1
		if j.faultVal == DBar {
			v = 0
		}
		return j.faultNode, v, true
	}

	for _, g := range j.nl.Gates {
		if g.Kind == netlist.INPUT || g.Kind == netlist.DFF {
			continue
		}
		if j.get(g) != X {
			continue
		}
		hasD := false
		for _, in := range g.Fanin {
			if v := j.get(in); v == D || v == DBar {
				hasD = true
				break
			}
		}
		if !hasD {
			continue
		}
		for _, in := range g.Fanin {
			if j.get(in) == X {
				return in, nonControllingValue(g.Kind), true
			}
		}
	}

	return nil, 0, false
}

// backtrace walks from k towards a primary input along a path of
// currently-X fanin, tracking value inversion through inverting
// gates, per spec.md §4.3.
func (j *Justifier) backtrace(k *netlist.Node, val int) (*netlist.Node, int) {
	curr := k
	for len(curr.Fanin) > 0 && curr.Kind != netlist.DFF {
		var next *netlist.Node
		for _, in := range curr.Fanin {
			if j.get(in) == X {
				next = in
				break
			}
		}
		if next == nil {
			break
		}
		if isInverting(curr.Kind) {
			val = 1 - val
		}
		curr = next
	}
	return curr, val
}

// imply forward-propagates every determined node to a fixed point.
// DFF and INPUT nodes are pseudo-primary-inputs and are never
// recomputed here; they carry whatever value a decision assigned.
func (j *Justifier) imply() {
	for changed := true; changed; {
		changed = false
		for _, g := range j.nl.Gates {
			if g.Kind == netlist.INPUT || g.Kind == netlist.DFF {
				continue
			}
			if j.get(g) != X {
				continue
			}

			inVals := make([]LogicVal, len(g.Fanin))
			for i, in := range g.Fanin {
				inVals[i] = j.get(in)
			}
			newVal := computeGateObj(g.Kind, inVals)

			if g == j.faultNode {
				if j.faultVal == D && newVal == One {
					newVal = D
				} else if j.faultVal == DBar && newVal == Zero {
					newVal = DBar
				}
			}

			if newVal != X {
				j.set(g, newVal)
				changed = true
			}
		}
	}
}
