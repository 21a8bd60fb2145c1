package render

import (
	"bytes"
	"strings"
	"testing"

	"notida/internal/disasm"
)

func listing(t *testing.T, lines ...string) *disasm.Program {
	t.Helper()
	prog, err := disasm.Analyze(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		t.Fatal(err)
	}
	return prog
}

func sample(t *testing.T) *disasm.Program {
	return listing(t,
		"  .data:00000100  12 34    call    $0x200",
		"  .data:00000104  12 35    bz      r1, $0x110",
		"  .data:00000108  12 36    mov     r2, <r3>",
		"  .data:0000010C  00 01    ret",
		"  .data:00000110  00 01    ret",
		"  .data:00000200  00 01    ret",
	)
}

func TestSubroutineDOT(t *testing.T) {
	prog := sample(t)
	sub := disasm.BuildSubroutine(prog, 0x100, disasm.BuildOptions{})
	dot, err := SubroutineDOT(prog, sub, NASA)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"digraph", "sub_0100", "bb0", "bb1", "bb2", `"0x0100:`, `\l`, `"T"`, `"F"`} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "bb3") {
		t.Errorf("unexpected fourth block:\n%s", dot)
	}
}

func TestSubroutineDOT_Empty(t *testing.T) {
	prog := sample(t)
	sub := disasm.BuildSubroutine(prog, 0x900, disasm.BuildOptions{})
	dot, err := SubroutineDOT(prog, sub, NASA)
	if err != nil || dot != "" {
		t.Errorf("got (%q, %v), want empty", dot, err)
	}
	if SubroutineLatticeDOT(prog, sub) != "" {
		t.Error("lattice DOT for empty subroutine should be empty")
	}
}

func TestSubroutineLatticeDOT(t *testing.T) {
	prog := sample(t)
	sub := disasm.BuildSubroutine(prog, 0x100, disasm.BuildOptions{})
	if dot := SubroutineLatticeDOT(prog, sub); dot == "" {
		t.Error("expected non-empty DOT output")
	}
}

func TestCallgraphDOT(t *testing.T) {
	prog := sample(t)
	var subs []*disasm.Subroutine
	for _, e := range prog.Seeds {
		subs = append(subs, disasm.BuildSubroutine(prog, e, disasm.BuildOptions{}))
	}
	dot := CallgraphDOT(prog, subs, "callgraph")
	if !strings.Contains(dot, "sub_0200") {
		t.Errorf("callgraph missing callee:\n%s", dot)
	}
}

func TestProgramCFGDOT(t *testing.T) {
	prog := sample(t)
	var subs []*disasm.Subroutine
	for _, e := range prog.Seeds {
		subs = append(subs, disasm.BuildSubroutine(prog, e, disasm.BuildOptions{}))
	}
	dot := ProgramCFGDOT(prog, subs, "cfg")
	for _, want := range []string{"sub_0100", "sub_0200"} {
		if !strings.Contains(dot, want) {
			t.Errorf("combined cfg missing %q:\n%s", want, dot)
		}
	}
	if got := ProgramCFGDOT(prog, nil, "cfg"); got != "" {
		t.Errorf("no subroutines: got %q", got)
	}
}

func TestWriteTableHTML(t *testing.T) {
	prog := sample(t)
	var buf bytes.Buffer
	WriteTableHTML(&buf, prog, TableOptions{Theme: Classic})
	html := buf.String()

	if !strings.Contains(html, "<title>I Can&#39;t Believe It&#39;s Not IDA!</title>") {
		t.Error("missing default title")
	}
	if got := strings.Count(html, "<tr "); got != 6 {
		t.Errorf("rows = %d, want 6", got)
	}
	for _, want := range []string{
		`<tr id="a00000100" class="line call" data-xref-info="{&quot;call&quot;:512}">`,
		`<tr id="a00000104" class="line branch" data-xref-info="{&quot;branch&quot;:272}">`,
		`<tr id="a00000110" class="line branch-target ret" data-rev-xref-info="{&quot;branch&quot;:[260]}">`,
		`<tr id="a00000200" class="line callee ret" data-rev-xref-info="{&quot;call&quot;:[256]}">`,
		`<span class="arg1"><a href="#a00000200">$0x200</a></span>`,
		`<span class="arg1">r1</span>, <span class="arg2"><a href="#a00000110">$0x110</a></span>`,
		`<span class="arg2">&lt;r3&gt;</span>`,
		`<td class="addr">0000010c</td>`,
		".callee { color: red; }",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %s", want)
		}
	}
}

func TestWriteTableHTML_UnresolvedNotLinked(t *testing.T) {
	prog := listing(t,
		"  .data:00000100  12 34    call    $0x900",
		"  .data:00000104  12 35    call    [r4]",
	)
	var buf bytes.Buffer
	WriteTableHTML(&buf, prog, TableOptions{Title: "t", Theme: NASA})
	html := buf.String()
	if strings.Contains(html, "<a href") {
		t.Errorf("links to missing rows:\n%s", html)
	}
	if !strings.Contains(html, `data-xref-info="{&quot;call&quot;:2304}"`) {
		t.Error("xref to missing target should still be recorded")
	}
}

func TestWriteIndexHTML(t *testing.T) {
	prog := sample(t)
	var subs []*disasm.Subroutine
	for _, e := range prog.Seeds {
		subs = append(subs, disasm.BuildSubroutine(prog, e, disasm.BuildOptions{}))
	}
	rows := Summarize(prog, subs, func(entry uint64) string { return "dot/x.dot" })
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[1].Name != "sub_0200" || rows[1].Callers != 1 || rows[0].Callees != 1 {
		t.Errorf("rows = %+v", rows)
	}
	var buf bytes.Buffer
	WriteIndexHTML(&buf, prog, rows, "table.html", "")
	html := buf.String()
	for _, want := range []string{`<a href="table.html#a00000200">sub_0200</a>`, `<a href="dot/x.dot">dot</a>`, "Instructions"} {
		if !strings.Contains(html, want) {
			t.Errorf("index missing %q", want)
		}
	}
}

func TestColorize(t *testing.T) {
	out, err := Colorize("0x00000100  mov r1, r2\n", false)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "mov") {
		t.Errorf("colorized output lost text: %q", out)
	}
}

func TestDotQuote(t *testing.T) {
	if got := dotQuote("a \"b\"\nc\n"); got != `"a \"b\"\lc\l"` {
		t.Errorf("dotQuote = %s", got)
	}
}

func TestTruncLines(t *testing.T) {
	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, "x")
	}
	got := truncLines(lines, 5)
	if len(got) != 11 || got[5] != "... (20 more)" {
		t.Errorf("truncLines = %v", got)
	}
	if len(truncLines(lines[:12], 5)) != 12 {
		t.Error("short block should not be truncated")
	}
}
