// Package callgraph converts reconstructed subroutines into lattice graphs
// for call-graph and control-flow rendering.
package callgraph

import (
	"github.com/zboralski/lattice"

	"notida/internal/disasm"
)

// BuildCallGraph constructs a lattice.Graph from built subroutines.
// Each non-empty subroutine becomes a node. Each resolved call site inside
// its blocks becomes an edge; indirect calls are skipped.
func BuildCallGraph(prog *disasm.Program, subs []*disasm.Subroutine) *lattice.Graph {
	g := &lattice.Graph{}
	for _, sub := range subs {
		if sub.Empty() {
			continue
		}
		caller := disasm.SubName(sub.Entry)
		g.Nodes = append(g.Nodes, caller)
		for _, tgt := range disasm.Callees(prog, sub) {
			g.Edges = append(g.Edges, lattice.Edge{
				Caller: caller,
				Callee: disasm.SubName(tgt),
			})
		}
	}
	g.Dedup()
	return g
}
