// Command trojanforge mines rare internal nodes from a gate-level bench
// netlist, synthesizes a stealthy trigger network from a clique of
// jointly-justifiable rare nodes, and splices one of five payload
// effects onto a downstream victim output.
package main

func main() {
	Execute()
}
