package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"notida/internal/disasm"
)

// DefaultTitle is the page title of the annotated table.
const DefaultTitle = "I Can't Believe It's Not IDA!"

// TableOptions controls WriteTableHTML.
type TableOptions struct {
	Title string // DefaultTitle when empty
	Theme Theme
}

// WriteTableHTML writes the annotated listing: one row per instruction,
// tagged with xref classes and carrying the forward and reverse xrefs as
// JSON data attributes. Resolved targets link to the target row.
func WriteTableHTML(w io.Writer, prog *disasm.Program, opts TableOptions) {
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	t := opts.Theme

	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { background: %s; color: %s; }
.pre { font-family: monospace; padding-top: 0; padding-bottom: 0; }
td.addr, td.bytes { font-family: monospace; padding-right: 1.5em; }
.callee { color: %s; }
.call { color: %s; }
.ret { color: %s; }
.branch { color: %s; }
.branch-target { color: %s; }
a { color: inherit; }
</style>
</head>
<body>
<table>
`, htmlEscape(title), t.Background, t.TextColor, t.Callee, t.Call, t.Ret, t.Branch, t.BranchTarget)

	for _, inst := range prog.Insts {
		writeRow(w, prog, inst)
	}

	fmt.Fprintln(w, "</table>")
	fmt.Fprintln(w, "</body></html>")
}

func writeRow(w io.Writer, prog *disasm.Program, inst disasm.Inst) {
	xt := prog.Xrefs
	fwd := xt.Forward[inst.Addr]
	rev := xt.Reverse[inst.Addr]

	classes := []string{"line"}
	addClass := func(c string) {
		for _, have := range classes {
			if have == c {
				return
			}
		}
		classes = append(classes, c)
	}
	if len(fwd) > 0 {
		if inst.Branch {
			addClass("branch")
		} else {
			addClass("call")
		}
	}
	if len(rev) > 0 {
		if xt.IsTarget(inst.Addr, disasm.KindCall) {
			addClass("callee")
		} else {
			addClass("branch-target")
		}
	}
	if inst.Branch {
		addClass("branch")
	}
	if inst.IsRet() {
		addClass("ret")
	}

	fmt.Fprintf(w, `<tr id="a%08x" class="%s"`, inst.Addr, strings.Join(classes, " "))
	if len(fwd) > 0 {
		fmt.Fprintf(w, ` data-xref-info="%s"`, htmlEscape(forwardInfo(fwd)))
	}
	if len(rev) > 0 {
		fmt.Fprintf(w, ` data-rev-xref-info="%s"`, htmlEscape(reverseInfo(xt, inst.Addr)))
	}
	fmt.Fprint(w, ">")

	fmt.Fprintf(w, `<td class="addr">%08x</td>`, inst.Addr)
	fmt.Fprintf(w, `<td class="bytes">%s</td>`, htmlEscape(inst.Bytes))
	fmt.Fprintf(w, `<td class="pre"><span class="op">%s</span>`, htmlEscape(inst.Mnemonic))

	// The operand holding a resolved target links to the target row.
	linkOp := ""
	var target uint64
	if bi := disasm.DecodeBranch(inst); bi != nil && bi.Resolved {
		if _, ok := prog.Lookup(bi.Target); ok {
			target = bi.Target
			if bi.IsCall {
				linkOp = "arg1"
			} else if inst.Op2 != "" {
				linkOp = "arg2"
			} else {
				linkOp = "arg1"
			}
		}
	}
	operand := func(class, text string) {
		body := htmlEscape(text)
		if class == linkOp {
			body = fmt.Sprintf(`<a href="#a%08x">%s</a>`, target, body)
		}
		fmt.Fprintf(w, `<span class="%s">%s</span>`, class, body)
	}
	if inst.Op1 != "" {
		fmt.Fprint(w, " ")
		operand("arg1", inst.Op1)
		if inst.Op2 != "" {
			fmt.Fprint(w, ", ")
			operand("arg2", inst.Op2)
		}
	}
	fmt.Fprintln(w, "</td></tr>")
}

// forwardInfo encodes {"kind": target} with numeric addresses.
func forwardInfo(fwd map[disasm.EdgeKind]uint64) string {
	m := make(map[string]uint64, len(fwd))
	for k, v := range fwd {
		m[string(k)] = v
	}
	b, _ := json.Marshal(m)
	return string(b)
}

// reverseInfo encodes {"kind": [sources...]} with sources ascending.
func reverseInfo(xt *disasm.XrefTable, addr uint64) string {
	m := make(map[string][]uint64)
	for _, k := range []disasm.EdgeKind{disasm.KindBranch, disasm.KindCall} {
		if srcs := xt.Sources(addr, k); len(srcs) > 0 {
			m[string(k)] = srcs
		}
	}
	b, _ := json.Marshal(m)
	return string(b)
}

// SubroutineSummary is one row of the index page.
type SubroutineSummary struct {
	Name    string
	Entry   uint64
	End     uint64
	Blocks  int
	Callers int
	Callees int
	DOTHref string // "" when no graph was written
}

// Summarize builds index rows for the non-empty subroutines. dotHref maps an
// entry to the relative path of its graph file.
func Summarize(prog *disasm.Program, subs []*disasm.Subroutine, dotHref func(entry uint64) string) []SubroutineSummary {
	var out []SubroutineSummary
	for _, sub := range subs {
		if sub.Empty() {
			continue
		}
		s := SubroutineSummary{
			Name:    disasm.SubName(sub.Entry),
			Entry:   sub.Entry,
			End:     sub.End,
			Blocks:  len(sub.Segments),
			Callers: len(prog.Xrefs.Sources(sub.Entry, disasm.KindCall)),
			Callees: len(disasm.Callees(prog, sub)),
		}
		if dotHref != nil {
			s.DOTHref = dotHref(sub.Entry)
		}
		out = append(out, s)
	}
	return out
}

// WriteIndexHTML writes a small HTML page summarizing the analysis run.
func WriteIndexHTML(w io.Writer, prog *disasm.Program, rows []SubroutineSummary, tableHref, title string) {
	if title == "" {
		title = DefaultTitle
	}
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: "Helvetica Neue", Helvetica, Arial, sans-serif; font-size: 14px; color: %s; background: %s; margin: 2em; max-width: 900px; }
h1 { font-size: 18px; font-weight: 600; margin-bottom: 0.5em; }
h2 { font-size: 14px; font-weight: 600; margin-top: 1.5em; border-bottom: 1px solid #ddd; padding-bottom: 4px; }
table { border-collapse: collapse; margin: 0.5em 0; }
th, td { text-align: left; padding: 3px 12px 3px 0; font-size: 13px; }
th { font-weight: 600; }
td.num { text-align: right; font-variant-numeric: tabular-nums; }
a { color: %s; }
.ep { font-family: "Courier New", monospace; font-size: 12px; }
</style>
</head>
<body>
`, htmlEscape(title), NASA.TextColor, NASA.Background, NASA.EntryBorder)

	fmt.Fprintf(w, "<h1>%s</h1>\n", htmlEscape(title))

	fmt.Fprintln(w, "<h2>Summary</h2>")
	fmt.Fprintln(w, "<table>")
	fmt.Fprintf(w, "<tr><td>Dialect</td><td class=\"num\">%s</td></tr>\n", prog.Dialect)
	fmt.Fprintf(w, "<tr><td>Instructions</td><td class=\"num\">%d</td></tr>\n", len(prog.Insts))
	fmt.Fprintf(w, "<tr><td>Skipped lines</td><td class=\"num\">%d</td></tr>\n", prog.Skipped)
	fmt.Fprintf(w, "<tr><td>Cross-references</td><td class=\"num\">%d</td></tr>\n", len(prog.Xrefs.Edges()))
	fmt.Fprintf(w, "<tr><td>Subroutines</td><td class=\"num\">%d</td></tr>\n", len(rows))
	fmt.Fprintln(w, "</table>")

	if tableHref != "" {
		fmt.Fprintf(w, "<p><a href=\"%s\">Annotated listing</a></p>\n", htmlEscape(tableHref))
	}

	if len(rows) > 0 {
		fmt.Fprintln(w, "<h2>Subroutines</h2>")
		fmt.Fprintln(w, "<table>")
		fmt.Fprintln(w, "<tr><th>Name</th><th>Range</th><th>Blocks</th><th>Callers</th><th>Callees</th><th></th></tr>")
		for _, r := range rows {
			name := htmlEscape(r.Name)
			if tableHref != "" {
				name = fmt.Sprintf("<a href=\"%s#a%08x\">%s</a>", htmlEscape(tableHref), r.Entry, name)
			}
			graph := ""
			if r.DOTHref != "" {
				graph = fmt.Sprintf("<a href=\"%s\">dot</a>", htmlEscape(r.DOTHref))
			}
			fmt.Fprintf(w, "<tr><td class=\"ep\">%s</td><td class=\"ep\">0x%x..0x%x</td><td class=\"num\">%d</td><td class=\"num\">%d</td><td class=\"num\">%d</td><td>%s</td></tr>\n",
				name, r.Entry, r.End, r.Blocks, r.Callers, r.Callees, graph)
		}
		fmt.Fprintln(w, "</table>")
	}

	fmt.Fprintln(w, "</body></html>")
}
