package render

import (
	"fmt"
	"strings"

	"github.com/awalterschulze/gographviz"
	"github.com/zboralski/lattice"
	lrender "github.com/zboralski/lattice/render"

	"notida/internal/callgraph"
	"notida/internal/disasm"
)

const maxBlockLines = 24

// SubroutineDOT renders one subroutine as a DOT digraph: a node per block
// labelled with its address and instructions, an edge per successor.
// Conditional edges are colored and labelled T/F. Returns "" for an empty
// subroutine.
func SubroutineDOT(prog *disasm.Program, sub *disasm.Subroutine, t Theme) (string, error) {
	if sub.Empty() {
		return "", nil
	}
	lcfg := callgraph.BuildFuncCFG(prog, sub)

	g := gographviz.NewGraph()
	name := disasm.SubName(sub.Entry)
	if err := g.SetName(name); err != nil {
		return "", fmt.Errorf("render: dot %s: %w", name, err)
	}
	if err := g.SetDir(true); err != nil {
		return "", fmt.Errorf("render: dot %s: %w", name, err)
	}
	if err := g.SetStrict(true); err != nil {
		return "", fmt.Errorf("render: dot %s: %w", name, err)
	}
	for attr, val := range map[string]string{
		"rankdir":   "TB",
		"bgcolor":   dotQuote(t.Background),
		"labelloc":  "t",
		"labeljust": "l",
		"label":     dotQuote(fmt.Sprintf("%s (0x%x..0x%x)", name, sub.Entry, sub.End)),
	} {
		if err := g.AddAttr(name, attr, val); err != nil {
			return "", fmt.Errorf("render: dot %s: %w", name, err)
		}
	}

	for _, seg := range sub.Segments {
		attrs := map[string]string{
			"label":     dotQuote(blockLabel(prog, seg)),
			"shape":     "box",
			"style":     "filled",
			"fillcolor": dotQuote(t.NodeFill),
			"color":     dotQuote(t.NodeBorder),
			"fontcolor": dotQuote(t.TextColor),
			"fontname":  dotQuote("Courier,monospace"),
			"fontsize":  "9",
		}
		if seg.Start == sub.Entry {
			attrs["color"] = dotQuote(t.EntryBorder)
			attrs["penwidth"] = "1.5"
		}
		if seg.IsTerm() {
			attrs["fillcolor"] = dotQuote(t.TermFill)
		}
		if err := g.AddNode(name, blockID(seg.ID), attrs); err != nil {
			return "", fmt.Errorf("render: dot %s: block %d: %w", name, seg.ID, err)
		}
	}

	for _, lb := range lcfg.Blocks {
		for _, s := range lb.Succs {
			if err := g.AddEdge(blockID(lb.ID), blockID(s.BlockID), true, edgeAttrs(s, t)); err != nil {
				return "", fmt.Errorf("render: dot %s: edge %d->%d: %w", name, lb.ID, s.BlockID, err)
			}
		}
	}
	return g.String(), nil
}

// SubroutineLatticeDOT renders one subroutine with the lattice CFG renderer.
func SubroutineLatticeDOT(prog *disasm.Program, sub *disasm.Subroutine) string {
	if sub.Empty() {
		return ""
	}
	cg := &lattice.CFGGraph{Funcs: []*lattice.FuncCFG{callgraph.BuildFuncCFG(prog, sub)}}
	return lrender.DOTCFG(cg, disasm.SubName(sub.Entry))
}

// CallgraphDOT renders the subroutine call graph.
func CallgraphDOT(prog *disasm.Program, subs []*disasm.Subroutine, title string) string {
	return lrender.DOT(callgraph.BuildCallGraph(prog, subs), title)
}

// ProgramCFGDOT renders every non-empty subroutine into one lattice CFG
// digraph, one cluster per subroutine.
func ProgramCFGDOT(prog *disasm.Program, subs []*disasm.Subroutine, title string) string {
	cg := callgraph.BuildCFG(prog, subs)
	if len(cg.Funcs) == 0 {
		return ""
	}
	return lrender.DOTCFG(cg, title)
}

func blockID(id int) string { return fmt.Sprintf("bb%d", id) }

func blockLabel(prog *disasm.Program, seg *disasm.Segment) string {
	lines := []string{fmt.Sprintf("0x%04x:", seg.Start)}
	var body []string
	for _, inst := range seg.InstsOf(prog) {
		body = append(body, fmt.Sprintf("0x%08x  %s", inst.Addr, inst.Text()))
	}
	lines = append(lines, truncLines(body, maxBlockLines/2)...)
	return strings.Join(lines, "\n") + "\n"
}

func edgeAttrs(s lattice.Successor, t Theme) map[string]string {
	switch s.Cond {
	case "T":
		return map[string]string{"color": dotQuote(t.EdgeTaken), "label": dotQuote("T")}
	case "F":
		return map[string]string{"color": dotQuote(t.EdgeFall), "label": dotQuote("F")}
	}
	return map[string]string{"color": dotQuote(t.EdgePlain)}
}
