package netlist

import "fmt"

// Netlist owns the dense node set, the name index, and the three
// ordered views (primary inputs, primary outputs, gates) described in
// spec.md §3.
type Netlist struct {
	Nodes []*Node // dense, position == ID

	PrimaryInputs  []*Node
	PrimaryOutputs []*Node
	Gates          []*Node // all internal drivers, including DFFs

	byName map[string]*Node
}

// New returns an empty Netlist ready for parsing or programmatic
// construction.
func New() *Netlist {
	return &Netlist{byName: make(map[string]*Node)}
}

// Lookup returns the Node registered under name, or nil if none exists.
func (nl *Netlist) Lookup(name string) *Node {
	return nl.byName[name]
}

// getOrCreate returns the Node named name, creating it (with a fresh
// dense ID and UNKNOWN kind) if it does not yet exist.
func (nl *Netlist) getOrCreate(name string) *Node {
	if n, ok := nl.byName[name]; ok {
		return n
	}
	n := &Node{Name: name, ID: len(nl.Nodes), Kind: UNKNOWN}
	nl.Nodes = append(nl.Nodes, n)
	nl.byName[name] = n
	return n
}

func wire(driver *Node, ins []*Node) {
	driver.Fanin = append(driver.Fanin, ins...)
	for _, in := range ins {
		in.Fanout = append(in.Fanout, driver)
	}
}

// CreateGate creates a new driver node named name with the given kind
// and fanin, wiring fanout on every fanin node and appending the new
// node to Gates. Used by the trojan synthesizer to splice in trigger
// and payload logic.
func (nl *Netlist) CreateGate(name string, kind GateKind, fanin []*Node) *Node {
	n := nl.getOrCreate(name)
	n.Kind = kind
	wire(n, fanin)
	nl.Gates = append(nl.Gates, n)
	return n
}

// RenameNode updates the name→Node index atomically so it remains a
// bijection onto the live name set.
func (nl *Netlist) RenameNode(n *Node, newName string) {
	delete(nl.byName, n.Name)
	n.Name = newName
	nl.byName[newName] = n
}

// ReplaceOutput substitutes oldNode by newNode in PrimaryOutputs (first
// occurrence only). No-op if oldNode is not a primary output.
func (nl *Netlist) ReplaceOutput(oldNode, newNode *Node) {
	for i, o := range nl.PrimaryOutputs {
		if o == oldNode {
			nl.PrimaryOutputs[i] = newNode
			return
		}
	}
}

// ShiftIDs renames every node whose name parses as an integer >=
// threshold to name (integer + delta), processing in decreasing
// numeric order so intermediate renames never collide.
func (nl *Netlist) ShiftIDs(threshold, delta int) {
	type numbered struct {
		n   *Node
		num int
	}
	var toShift []numbered
	for _, n := range nl.Nodes {
		if num, ok := parseNumeric(n.Name); ok && num >= threshold {
			toShift = append(toShift, numbered{n, num})
		}
	}
	// Decreasing numeric order.
	for i := 0; i < len(toShift); i++ {
		for j := i + 1; j < len(toShift); j++ {
			if toShift[j].num > toShift[i].num {
				toShift[i], toShift[j] = toShift[j], toShift[i]
			}
		}
	}
	for _, ns := range toShift {
		nl.RenameNode(ns.n, fmt.Sprintf("%d", ns.num+delta))
	}
}

// NumericName parses a node name as a decimal integer, reporting
// success. Exported so callers (the trojan synthesizer's victim and
// identifier-space logic) can apply the same "numeric name" heuristic
// spec.md §4.1/§4.5 describes.
func NumericName(name string) (int, bool) {
	return parseNumeric(name)
}

// parseNumeric parses name as a decimal integer, reporting success.
func parseNumeric(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	neg := false
	i := 0
	if name[0] == '-' {
		neg = true
		i = 1
		if len(name) == 1 {
			return 0, false
		}
	}
	n := 0
	for ; i < len(name); i++ {
		c := name[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	if neg {
		n = -n
	}
	return n, true
}
