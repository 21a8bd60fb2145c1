package disasm

import "io"

// Program is the result of one pass over a listing.
type Program struct {
	Dialect Dialect
	Insts   []Inst
	Xrefs   *XrefTable
	Seeds   []uint64 // subroutine entries in discovery order
	Skipped int      // lines that did not match the listing grammar

	seqByAddr map[uint64]int
}

// Analyze parses a listing, building the cross-reference table and the
// subroutine seeds in the same pass.
func Analyze(r io.Reader) (*Program, error) {
	var p Parser
	prog := &Program{
		Xrefs:     NewXrefTable(),
		seqByAddr: make(map[uint64]int),
	}
	seeder := NewSeeder()

	err := scanLines(r, func(line string) {
		inst, ok := p.ParseLine(line)
		if !ok {
			prog.Skipped++
			return
		}
		prog.add(inst)
		if inst.Seq == 0 {
			seeder.Add(inst.Addr)
		}
		if tgt, ok := prog.Xrefs.Observe(inst); ok {
			seeder.Add(tgt)
		}
	})
	prog.Dialect = p.Dialect()
	prog.Seeds = seeder.Seeds()
	return prog, err
}

// NewProgram builds a Program from already-parsed instructions. Sequence
// numbers are reassigned in slice order.
func NewProgram(insts []Inst) *Program {
	prog := &Program{
		Xrefs:     NewXrefTable(),
		seqByAddr: make(map[uint64]int, len(insts)),
	}
	seeder := NewSeeder()
	for i, inst := range insts {
		inst.Seq = i
		prog.add(inst)
		if i == 0 {
			seeder.Add(inst.Addr)
		}
		if tgt, ok := prog.Xrefs.Observe(inst); ok {
			seeder.Add(tgt)
		}
	}
	prog.Seeds = seeder.Seeds()
	return prog
}

func (p *Program) add(inst Inst) {
	p.Insts = append(p.Insts, inst)
	if _, dup := p.seqByAddr[inst.Addr]; !dup {
		p.seqByAddr[inst.Addr] = inst.Seq
	}
}

// Lookup returns the sequence index of the instruction at addr.
// With duplicate addresses the first one wins.
func (p *Program) Lookup(addr uint64) (int, bool) {
	seq, ok := p.seqByAddr[addr]
	return seq, ok
}
