package callgraph

import (
	"fmt"

	"github.com/zboralski/lattice"

	"notida/internal/disasm"
)

// BuildCFG constructs a lattice.CFGGraph with one FuncCFG per non-empty
// subroutine.
func BuildCFG(prog *disasm.Program, subs []*disasm.Subroutine) *lattice.CFGGraph {
	cg := &lattice.CFGGraph{}
	for _, sub := range subs {
		if sub.Empty() {
			continue
		}
		cg.Funcs = append(cg.Funcs, BuildFuncCFG(prog, sub))
	}
	return cg
}

// BuildFuncCFG maps one subroutine onto lattice types. Block ranges are
// sequence indices, End exclusive. Successors of a block ending in a
// conditional branch are tagged "T" (taken) or "F" (fallthrough).
func BuildFuncCFG(prog *disasm.Program, sub *disasm.Subroutine) *lattice.FuncCFG {
	callByPC := make(map[uint64]disasm.CallEdge)
	for _, e := range disasm.ExtractCallEdges(prog, sub) {
		callByPC[e.FromPC] = e
	}

	lcfg := &lattice.FuncCFG{Name: disasm.SubName(sub.Entry)}
	for _, seg := range sub.Segments {
		lb := &lattice.BasicBlock{
			ID:    seg.ID,
			Start: seg.Insts[0],
			End:   seg.Insts[len(seg.Insts)-1] + 1,
			Term:  seg.IsTerm(),
		}

		taken, cond := branchOf(prog, seg)
		for _, id := range seg.Succs {
			s := lattice.Successor{BlockID: id}
			if cond {
				s.Cond = "F"
				if sub.Segments[id].Start == taken {
					s.Cond = "T"
				}
			}
			lb.Succs = append(lb.Succs, s)
		}

		for _, seq := range seg.Insts {
			e, ok := callByPC[prog.Insts[seq].Addr]
			if !ok {
				continue
			}
			callee := e.Operand
			if e.Resolved {
				callee = disasm.SubName(e.TargetPC)
			}
			if callee == "" {
				callee = fmt.Sprintf("0x%x", e.TargetPC)
			}
			lb.Calls = append(lb.Calls, lattice.CallSite{
				Offset: seq,
				Callee: callee,
			})
		}

		lcfg.Blocks = append(lcfg.Blocks, lb)
	}
	return lcfg
}

// branchOf returns the target of the last conditional branch in seg.
func branchOf(prog *disasm.Program, seg *disasm.Segment) (uint64, bool) {
	for i := len(seg.Insts) - 1; i >= 0; i-- {
		inst := prog.Insts[seg.Insts[i]]
		if !inst.Branch {
			continue
		}
		bi := disasm.DecodeBranch(inst)
		if bi == nil || !bi.Cond {
			return 0, false
		}
		return bi.Target, true
	}
	return 0, false
}
