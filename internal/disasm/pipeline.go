package disasm

import "fmt"

// Document is the machine-readable export of one analysis run.
type Document struct {
	Dialect      string             `json:"dialect" jsonschema:"enum=data,enum=generic,enum=unknown"`
	Instructions int                `json:"instructions"`
	Skipped      int                `json:"skipped,omitempty"`
	Xrefs        []XrefRecord       `json:"xrefs"`
	Subroutines  []SubroutineRecord `json:"subroutines"`
}

// XrefRecord is one forward cross-reference.
type XrefRecord struct {
	Src    string `json:"src"`
	Kind   string `json:"kind" jsonschema:"enum=call,enum=branch"`
	Target string `json:"target"`
}

// SubroutineRecord summarizes one subroutine graph.
type SubroutineRecord struct {
	Name   string        `json:"name"`
	Entry  string        `json:"entry"`
	End    string        `json:"end"`
	Blocks []BlockRecord `json:"blocks"`
	Calls  []CallEdge    `json:"calls,omitempty"`
}

// BlockRecord is one segment of a subroutine.
type BlockRecord struct {
	ID    int    `json:"id"`
	Start string `json:"start"`
	End   string `json:"end"`
	Insts int    `json:"insts"`
	Succs []int  `json:"succs"`
}

func hexAddr(a uint64) string { return fmt.Sprintf("0x%x", a) }

// Export flattens a program and its subroutines into a Document.
// Empty subroutines are omitted.
func Export(prog *Program, subs []*Subroutine) Document {
	doc := Document{
		Dialect:      prog.Dialect.String(),
		Instructions: len(prog.Insts),
		Skipped:      prog.Skipped,
		Xrefs:        []XrefRecord{},
		Subroutines:  []SubroutineRecord{},
	}
	for _, e := range prog.Xrefs.Edges() {
		doc.Xrefs = append(doc.Xrefs, XrefRecord{
			Src:    hexAddr(e.Src),
			Kind:   string(e.Kind),
			Target: hexAddr(e.Target),
		})
	}
	for _, sub := range subs {
		if sub.Empty() {
			continue
		}
		rec := SubroutineRecord{
			Name:  SubName(sub.Entry),
			Entry: hexAddr(sub.Entry),
			End:   hexAddr(sub.End),
			Calls: ExtractCallEdges(prog, sub),
		}
		for _, seg := range sub.Segments {
			succs := seg.Succs
			if succs == nil {
				succs = []int{}
			}
			rec.Blocks = append(rec.Blocks, BlockRecord{
				ID:    seg.ID,
				Start: hexAddr(seg.Start),
				End:   hexAddr(seg.End),
				Insts: len(seg.Insts),
				Succs: succs,
			})
		}
		doc.Subroutines = append(doc.Subroutines, rec)
	}
	return doc
}
