package disasm

import (
	"context"
	"fmt"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Segment is a basic block: a run of consecutive instructions with a single entry.
type Segment struct {
	ID    int
	Start uint64 // address of the first instruction
	End   uint64 // address of the last instruction
	Insts []int  // sequence indices, ascending and contiguous
	Succs []int  // successor segment IDs
}

// Subroutine is the basic-block graph reachable from one entry point.
type Subroutine struct {
	Entry    uint64
	End      uint64     // highest address visited
	Segments []*Segment // indexed by Segment.ID
}

// Empty reports whether the entry matched no instruction.
func (s *Subroutine) Empty() bool { return len(s.Segments) == 0 }

// SegmentAt returns the segment starting at addr, or nil.
func (s *Subroutine) SegmentAt(addr uint64) *Segment {
	for _, seg := range s.Segments {
		if seg.Start == addr {
			return seg
		}
	}
	return nil
}

// EntrySegment returns the segment holding the entry instruction.
func (s *Subroutine) EntrySegment() *Segment { return s.SegmentAt(s.Entry) }

// IsTerm reports whether seg has no successors inside the subroutine.
func (seg *Segment) IsTerm() bool { return len(seg.Succs) == 0 }

// BuildOptions controls CFG construction.
type BuildOptions struct {
	Workers int         // parallel subroutine runs; 0 = GOMAXPROCS
	Logger  *log.Logger // optional; splits are logged at debug level
}

// workItem is a pending visit. from is the sequence index of the
// instruction control came from (-1 for the entry). The segments it refers
// to are resolved through the claim table when the item is popped, so a
// split between push and pop needs no fix-up.
type workItem struct {
	inst int
	from int
	cont bool // extend the segment holding from instead of starting a new one
}

// cfgRun is the private state of one subroutine build. Claims map an
// instruction's sequence index to the segment that currently holds it and
// are dropped with the run.
type cfgRun struct {
	prog   *Program
	sub    *Subroutine
	claims map[int]int
	stack  []workItem
	logger *log.Logger
}

// BuildSubroutine reconstructs the basic-block graph reachable from entry.
// Expansion is depth-first: items are pushed and popped at the same end.
func BuildSubroutine(prog *Program, entry uint64, opts BuildOptions) *Subroutine {
	sub := &Subroutine{Entry: entry, End: entry}
	seq, ok := prog.Lookup(entry)
	if !ok {
		return sub
	}

	r := &cfgRun{
		prog:   prog,
		sub:    sub,
		claims: make(map[int]int),
		logger: opts.Logger,
	}
	r.stack = append(r.stack, workItem{inst: seq, from: -1})
	for len(r.stack) > 0 {
		it := r.stack[len(r.stack)-1]
		r.stack = r.stack[:len(r.stack)-1]
		r.visit(it)
	}
	return sub
}

// BuildAll builds every seeded subroutine. Runs share only the read-only
// Program, so they execute concurrently; results keep seed order.
func BuildAll(ctx context.Context, prog *Program, opts BuildOptions) ([]*Subroutine, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	subs := make([]*Subroutine, len(prog.Seeds))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, entry := range prog.Seeds {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			subs[i] = BuildSubroutine(prog, entry, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("disasm: build cfg: %w", err)
	}
	return subs, nil
}

// segmentOf resolves the segment currently holding seq, or -1.
func (r *cfgRun) segmentOf(seq int) int {
	if seq < 0 {
		return -1
	}
	if id, ok := r.claims[seq]; ok {
		return id
	}
	return -1
}

func (r *cfgRun) visit(it workItem) {
	inst := r.prog.Insts[it.inst]

	// Revisit: control merges into an instruction already in a block.
	if id, ok := r.claims[it.inst]; ok {
		if r.sub.Segments[id].Start != inst.Addr {
			id = r.split(id, it.inst)
		}
		if pred := r.segmentOf(it.from); pred >= 0 {
			r.link(pred, id)
		}
		return
	}

	pred := r.segmentOf(it.from)
	cur := -1
	if it.cont {
		cur = pred
	}
	if cur < 0 {
		cur = r.newSegment(inst.Addr)
		if pred >= 0 {
			r.link(pred, cur)
		}
	}
	r.claim(cur, it.inst)

	if inst.Branch {
		bi := DecodeBranch(inst)
		if bi.Resolved {
			if tseq, ok := r.prog.Lookup(bi.Target); ok {
				r.stack = append(r.stack, workItem{inst: tseq, from: it.inst})
			}
		}
		if !bi.Cond {
			return
		}
	}

	// A ret reached by fallthrough closes the block. One reached as a branch
	// target or entry is an ordinary instruction and falls through.
	next := it.inst + 1
	if next >= len(r.prog.Insts) {
		return
	}
	if r.prog.Insts[next].IsRet() {
		if _, claimed := r.claims[next]; !claimed {
			r.claim(cur, next)
			return
		}
	}
	r.stack = append(r.stack, workItem{inst: next, from: it.inst, cont: !inst.Branch})
}

func (r *cfgRun) newSegment(addr uint64) int {
	id := len(r.sub.Segments)
	r.sub.Segments = append(r.sub.Segments, &Segment{ID: id, Start: addr, End: addr})
	return id
}

func (r *cfgRun) claim(id, seq int) {
	seg := r.sub.Segments[id]
	addr := r.prog.Insts[seq].Addr
	seg.Insts = append(seg.Insts, seq)
	seg.End = addr
	r.claims[seq] = id
	if addr > r.sub.End {
		r.sub.End = addr
	}
}

// link adds from → to unless the edge already exists.
func (r *cfgRun) link(from, to int) {
	seg := r.sub.Segments[from]
	for _, s := range seg.Succs {
		if s == to {
			return
		}
	}
	seg.Succs = append(seg.Succs, to)
}

// split cuts segment id before seq. The new segment takes the tail
// instructions and every outgoing edge; the old one falls through into it.
func (r *cfgRun) split(id, seq int) int {
	old := r.sub.Segments[id]
	k := seq - old.Insts[0]

	nid := r.newSegment(r.prog.Insts[seq].Addr)
	nseg := r.sub.Segments[nid]
	nseg.Insts = append(nseg.Insts, old.Insts[k:]...)
	nseg.End = old.End
	nseg.Succs = old.Succs

	old.Insts = old.Insts[:k:k]
	old.End = r.prog.Insts[old.Insts[k-1]].Addr
	old.Succs = []int{nid}

	for _, s := range nseg.Insts {
		r.claims[s] = nid
	}

	if r.logger != nil {
		r.logger.Debug("split segment",
			"sub", fmt.Sprintf("0x%x", r.sub.Entry),
			"block", fmt.Sprintf("0x%x", old.Start),
			"at", fmt.Sprintf("0x%x", nseg.Start))
	}
	return nid
}

// Verify checks the segment invariants: each segment is non-empty, starts
// at its first instruction's address, holds consecutive instructions, and
// no instruction belongs to two segments.
func (s *Subroutine) Verify(prog *Program) error {
	owner := make(map[int]int)
	for _, seg := range s.Segments {
		if len(seg.Insts) == 0 {
			return fmt.Errorf("disasm: sub 0x%x: segment %d is empty", s.Entry, seg.ID)
		}
		if first := prog.Insts[seg.Insts[0]].Addr; first != seg.Start {
			return fmt.Errorf("disasm: sub 0x%x: segment %d starts at 0x%x, first inst at 0x%x",
				s.Entry, seg.ID, seg.Start, first)
		}
		if last := prog.Insts[seg.Insts[len(seg.Insts)-1]].Addr; last != seg.End {
			return fmt.Errorf("disasm: sub 0x%x: segment %d ends at 0x%x, last inst at 0x%x",
				s.Entry, seg.ID, seg.End, last)
		}
		for i, seq := range seg.Insts {
			if i > 0 && seq != seg.Insts[i-1]+1 {
				return fmt.Errorf("disasm: sub 0x%x: segment %d has a gap before seq %d", s.Entry, seg.ID, seq)
			}
			if other, dup := owner[seq]; dup {
				return fmt.Errorf("disasm: sub 0x%x: seq %d in segments %d and %d", s.Entry, seq, other, seg.ID)
			}
			owner[seq] = seg.ID
		}
		for _, succ := range seg.Succs {
			if succ < 0 || succ >= len(s.Segments) {
				return fmt.Errorf("disasm: sub 0x%x: segment %d has dangling edge %d", s.Entry, seg.ID, succ)
			}
		}
	}
	return nil
}

// InstsOf returns the instructions of seg.
func (seg *Segment) InstsOf(prog *Program) []Inst {
	out := make([]Inst, len(seg.Insts))
	for i, seq := range seg.Insts {
		out[i] = prog.Insts[seq]
	}
	return out
}
