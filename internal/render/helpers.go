// Package render produces Graphviz DOT, HTML and terminal output from a
// reconstructed program.
package render

import (
	"fmt"
	"strings"
)

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"'", "&#39;",
)

func htmlEscape(s string) string { return htmlReplacer.Replace(s) }

// dotQuote quotes s as a DOT string. Newlines become left-justified breaks.
func dotQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\l`)
	return `"` + s + `"`
}

// truncLines keeps the first and last keep lines of a long block.
func truncLines(lines []string, keep int) []string {
	if len(lines) <= 2*keep+2 {
		return lines
	}
	out := append([]string{}, lines[:keep]...)
	out = append(out, fmt.Sprintf("... (%d more)", len(lines)-2*keep))
	return append(out, lines[len(lines)-keep:]...)
}
