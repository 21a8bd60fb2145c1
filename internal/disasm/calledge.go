package disasm

import "sort"

// CallEdge is a call site found inside a subroutine.
type CallEdge struct {
	FromPC   uint64 `json:"from_pc"`
	TargetPC uint64 `json:"target_pc,omitempty"`
	Resolved bool   `json:"resolved"`
	Operand  string `json:"operand,omitempty"` // raw operand for unresolved calls
}

// ExtractCallEdges lists the call instructions claimed by sub's segments,
// ordered by address. Unresolved (indirect) calls are kept with their operand.
func ExtractCallEdges(prog *Program, sub *Subroutine) []CallEdge {
	var edges []CallEdge
	for _, seg := range sub.Segments {
		for _, seq := range seg.Insts {
			inst := prog.Insts[seq]
			bi := DecodeBranch(inst)
			if bi == nil || !bi.IsCall {
				continue
			}
			e := CallEdge{FromPC: inst.Addr, Resolved: bi.Resolved}
			if bi.Resolved {
				e.TargetPC = bi.Target
			} else {
				e.Operand = inst.Op1
			}
			edges = append(edges, e)
		}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].FromPC < edges[j].FromPC })
	return edges
}

// Callees returns the distinct resolved call targets of sub, ascending.
func Callees(prog *Program, sub *Subroutine) []uint64 {
	seen := make(map[uint64]bool)
	var out []uint64
	for _, e := range ExtractCallEdges(prog, sub) {
		if !e.Resolved || seen[e.TargetPC] {
			continue
		}
		seen[e.TargetPC] = true
		out = append(out, e.TargetPC)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
