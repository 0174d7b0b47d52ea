// Package podem implements the 5-valued PODEM justification engine:
// given a target node and desired rare value, it searches for a
// primary-input assignment that forces the target to that value and
// propagates a differentiating effect to an observable output
// (spec.md §4.3).
package podem

import "github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/netlist"

// LogicVal is the 5-valued PODEM domain: {0, 1, X, D, D̄}.
type LogicVal int

const (
	Zero LogicVal = iota
	One
	X
	D    // good-1 / faulty-0
	DBar // good-0 / faulty-1
)

func notVal(v LogicVal) LogicVal {
	switch v {
	case Zero:
		return One
	case One:
		return Zero
	case D:
		return DBar
	case DBar:
		return D
	default:
		return X
	}
}

func andVal(a, b LogicVal) LogicVal {
	if a == Zero || b == Zero {
		return Zero
	}
	if a == One {
		return b
	}
	if b == One {
		return a
	}
	if (a == D && b == DBar) || (a == DBar && b == D) {
		return Zero
	}
	return X
}

func orVal(a, b LogicVal) LogicVal {
	if a == One || b == One {
		return One
	}
	if a == Zero {
		return b
	}
	if b == Zero {
		return a
	}
	if (a == D && b == DBar) || (a == DBar && b == D) {
		return One
	}
	return X
}

func xorVal(a, b LogicVal) LogicVal {
	if a == X || b == X {
		return X
	}
	if a == Zero {
		return b
	}
	if b == Zero {
		return a
	}
	if a == One {
		return notVal(b)
	}
	if b == One {
		return notVal(a)
	}
	if a == D && b == D {
		return Zero
	}
	if a == D && b == DBar {
		return One
	}
	if a == DBar && b == D {
		return One
	}
	if a == DBar && b == DBar {
		return Zero
	}
	return X
}

// computeGateObj evaluates kind's 5-valued output given its ordered
// input values. Empty inputs (should not occur on a well-formed
// gate) yield X.
func computeGateObj(kind netlist.GateKind, inputs []LogicVal) LogicVal {
	if len(inputs) == 0 {
		return X
	}

	switch kind {
	case netlist.AND, netlist.NAND:
		res := One
		for _, v := range inputs {
			res = andVal(res, v)
		}
		if kind == netlist.NAND {
			res = notVal(res)
		}
		return res
	case netlist.OR, netlist.NOR:
		res := Zero
		for _, v := range inputs {
			res = orVal(res, v)
		}
		if kind == netlist.NOR {
			res = notVal(res)
		}
		return res
	case netlist.XOR, netlist.XNOR:
		res := inputs[0]
		for _, v := range inputs[1:] {
			res = xorVal(res, v)
		}
		if kind == netlist.XNOR {
			res = notVal(res)
		}
		return res
	case netlist.BUF:
		return inputs[0]
	case netlist.NOT:
		return notVal(inputs[0])
	default:
		return X
	}
}

func nonControllingValue(kind netlist.GateKind) int {
	switch kind {
	case netlist.AND, netlist.NAND:
		return 1
	case netlist.OR, netlist.NOR:
		return 0
	default:
		// XOR/XNOR frontier gates: 0 by convention (spec.md §4.3).
		return 0
	}
}

func isInverting(kind netlist.GateKind) bool {
	switch kind {
	case netlist.NAND, netlist.NOR, netlist.NOT, netlist.XNOR:
		return true
	default:
		return false
	}
}
