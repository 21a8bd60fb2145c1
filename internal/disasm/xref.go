package disasm

import (
	"fmt"
	"sort"
)

// EdgeKind distinguishes call and branch cross-references.
type EdgeKind string

const (
	KindCall   EdgeKind = "call"
	KindBranch EdgeKind = "branch"
)

// XrefTable holds forward (source → target) and reverse (target → sources)
// cross-references. Every forward entry has a matching reverse entry.
type XrefTable struct {
	Forward map[uint64]map[EdgeKind]uint64
	Reverse map[uint64]map[EdgeKind]map[uint64]struct{}
}

// NewXrefTable returns an empty table.
func NewXrefTable() *XrefTable {
	return &XrefTable{
		Forward: make(map[uint64]map[EdgeKind]uint64),
		Reverse: make(map[uint64]map[EdgeKind]map[uint64]struct{}),
	}
}

// Add records src → tgt of the given kind. A source has at most one target
// per kind; a later Add replaces the earlier target and its reverse entry.
func (t *XrefTable) Add(src uint64, kind EdgeKind, tgt uint64) {
	fwd, ok := t.Forward[src]
	if !ok {
		fwd = make(map[EdgeKind]uint64, 1)
		t.Forward[src] = fwd
	}
	if old, ok := fwd[kind]; ok && old != tgt {
		delete(t.Reverse[old][kind], src)
		if len(t.Reverse[old][kind]) == 0 {
			delete(t.Reverse[old], kind)
		}
		if len(t.Reverse[old]) == 0 {
			delete(t.Reverse, old)
		}
	}
	fwd[kind] = tgt

	rev, ok := t.Reverse[tgt]
	if !ok {
		rev = make(map[EdgeKind]map[uint64]struct{}, 1)
		t.Reverse[tgt] = rev
	}
	srcs, ok := rev[kind]
	if !ok {
		srcs = make(map[uint64]struct{})
		rev[kind] = srcs
	}
	srcs[src] = struct{}{}
}

// Observe records the cross-reference carried by inst, if any.
// Returns the call target when inst is a resolvable call.
func (t *XrefTable) Observe(inst Inst) (callTarget uint64, isCall bool) {
	bi := DecodeBranch(inst)
	if bi == nil || bi.IsRet || !bi.Resolved {
		return 0, false
	}
	if bi.IsCall {
		t.Add(inst.Addr, KindCall, bi.Target)
		return bi.Target, true
	}
	t.Add(inst.Addr, KindBranch, bi.Target)
	return 0, false
}

// Target returns the recorded target of src for kind.
func (t *XrefTable) Target(src uint64, kind EdgeKind) (uint64, bool) {
	tgt, ok := t.Forward[src][kind]
	return tgt, ok
}

// Sources returns the sources referencing tgt with kind, in ascending order.
func (t *XrefTable) Sources(tgt uint64, kind EdgeKind) []uint64 {
	srcs := t.Reverse[tgt][kind]
	if len(srcs) == 0 {
		return nil
	}
	out := make([]uint64, 0, len(srcs))
	for s := range srcs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsTarget reports whether any source references tgt with kind.
func (t *XrefTable) IsTarget(tgt uint64, kind EdgeKind) bool {
	return len(t.Reverse[tgt][kind]) > 0
}

// XrefEdge is one forward cross-reference.
type XrefEdge struct {
	Src    uint64
	Kind   EdgeKind
	Target uint64
}

// Edges returns all forward entries ordered by source, then kind.
func (t *XrefTable) Edges() []XrefEdge {
	var out []XrefEdge
	for src, m := range t.Forward {
		for kind, tgt := range m {
			out = append(out, XrefEdge{Src: src, Kind: kind, Target: tgt})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Src != out[j].Src {
			return out[i].Src < out[j].Src
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// Verify checks that forward and reverse maps mirror each other.
func (t *XrefTable) Verify() error {
	for src, m := range t.Forward {
		for kind, tgt := range m {
			if _, ok := t.Reverse[tgt][kind][src]; !ok {
				return fmt.Errorf("disasm: xref 0x%x -%s-> 0x%x has no reverse entry", src, kind, tgt)
			}
		}
	}
	for tgt, m := range t.Reverse {
		for kind, srcs := range m {
			for src := range srcs {
				if got, ok := t.Forward[src][kind]; !ok || got != tgt {
					return fmt.Errorf("disasm: reverse xref 0x%x <-%s- 0x%x has no forward entry", tgt, kind, src)
				}
			}
		}
	}
	return nil
}
