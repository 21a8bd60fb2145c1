package disasm

import "fmt"

// Annotator returns an optional inline comment for an instruction.
// Empty string means no annotation.
type Annotator func(inst Inst) string

// XrefAnnotator comments call and branch instructions with their recorded
// target, and call targets with the number of callers.
func XrefAnnotator(t *XrefTable) Annotator {
	return func(inst Inst) string {
		if tgt, ok := t.Target(inst.Addr, KindCall); ok {
			return fmt.Sprintf("call %s", SubName(tgt))
		}
		if tgt, ok := t.Target(inst.Addr, KindBranch); ok {
			return fmt.Sprintf("-> 0x%x", tgt)
		}
		if n := len(t.Sources(inst.Addr, KindCall)); n > 0 {
			return fmt.Sprintf("%s, %d caller(s)", SubName(inst.Addr), n)
		}
		if n := len(t.Sources(inst.Addr, KindBranch)); n > 0 {
			return fmt.Sprintf("<- %d branch(es)", n)
		}
		return ""
	}
}

// SegmentAnnotator marks the first instruction of every segment of sub.
func SegmentAnnotator(sub *Subroutine) Annotator {
	starts := make(map[uint64]int, len(sub.Segments))
	for _, seg := range sub.Segments {
		starts[seg.Start] = seg.ID
	}
	return func(inst Inst) string {
		if id, ok := starts[inst.Addr]; ok {
			return fmt.Sprintf("block %d", id)
		}
		return ""
	}
}

// SubName is the display name of the subroutine entered at addr.
func SubName(addr uint64) string {
	return fmt.Sprintf("sub_%04x", addr)
}
