package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"notida/internal/disasm"
	"notida/internal/logging"
	"notida/internal/render"
)

func newBlocksCmd(debug *bool) *cobra.Command {
	var (
		entry   string
		workers int
		color   string
		linear  bool
	)
	cmd := &cobra.Command{
		Use:   "blocks [listing]",
		Short: "Print the basic blocks of every subroutine",
		Example: `
# All subroutines
notida blocks fw.lst

# One subroutine
notida blocks fw.lst --entry 0x100

# Listing order with block starts marked
notida blocks fw.lst --entry 0x100 --linear
  `,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lg := newLogger(cmd, *debug)
			prog, err := loadProgram(args[0], lg)
			if err != nil {
				return err
			}

			var subs []*disasm.Subroutine
			if entry != "" {
				addr, err := parseAddr(entry)
				if err != nil {
					return err
				}
				subs = []*disasm.Subroutine{disasm.BuildSubroutine(prog, addr, disasm.BuildOptions{Logger: lg})}
			} else {
				subs, err = buildSubroutines(cmd.Context(), prog, workers, *debug, lg)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			var text string
			if linear {
				text = formatLinear(prog, subs)
			} else {
				text = formatBlocks(prog, subs)
			}
			if useColor(color, out) {
				colored, err := render.Colorize(text, os.Getenv("COLORTERM") == "truecolor")
				if err != nil {
					lg.Warn("colorize", "err", err)
				} else {
					text = colored
				}
			}
			_, err = io.WriteString(out, text)
			return err
		},
	}
	cmd.Flags().StringVar(&entry, "entry", "", "Only build the subroutine at this hex address")
	cmd.Flags().IntVarP(&workers, "workers", "j", 0, "Parallel subroutine builds (default: GOMAXPROCS)")
	cmd.Flags().BoolVar(&linear, "linear", false, "List instructions in listing order, marking where each block starts")
	cmd.Flags().StringVar(&color, "color", "auto", "Colorize output: auto, always or never")
	return cmd
}

// parseAddr parses a hex address with optional 0x prefix.
func parseAddr(s string) (uint64, error) {
	t := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	addr, err := strconv.ParseUint(t, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("bad address %q: %w", s, err)
	}
	return addr, nil
}

func useColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	return !logging.NoColor() && isTerminal(w)
}

// formatBlocks renders each subroutine's segments in creation order.
func formatBlocks(prog *disasm.Program, subs []*disasm.Subroutine) string {
	var b strings.Builder
	for _, sub := range subs {
		if sub.Empty() {
			fmt.Fprintf(&b, "; %s: no instruction at entry\n\n", disasm.SubName(sub.Entry))
			continue
		}
		writeSubHeader(&b, sub)
		xann := disasm.XrefAnnotator(prog.Xrefs)
		for _, seg := range sub.Segments {
			fmt.Fprintf(&b, "; block %d 0x%x..0x%x", seg.ID, seg.Start, seg.End)
			if len(seg.Succs) > 0 {
				ids := make([]string, len(seg.Succs))
				for i, s := range seg.Succs {
					ids[i] = strconv.Itoa(s)
				}
				fmt.Fprintf(&b, " -> %s", strings.Join(ids, ", "))
			}
			b.WriteByte('\n')
			b.WriteString(disasm.Format(seg.InstsOf(prog), xann))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// formatLinear renders each subroutine's instructions in listing order.
// Block starts are marked in place of the xref comment.
func formatLinear(prog *disasm.Program, subs []*disasm.Subroutine) string {
	var b strings.Builder
	xann := disasm.XrefAnnotator(prog.Xrefs)
	for _, sub := range subs {
		if sub.Empty() {
			fmt.Fprintf(&b, "; %s: no instruction at entry\n\n", disasm.SubName(sub.Entry))
			continue
		}
		writeSubHeader(&b, sub)
		var seqs []int
		for _, seg := range sub.Segments {
			seqs = append(seqs, seg.Insts...)
		}
		sort.Ints(seqs)
		insts := make([]disasm.Inst, len(seqs))
		for i, seq := range seqs {
			insts[i] = prog.Insts[seq]
		}
		b.WriteString(disasm.Format(insts, disasm.SegmentAnnotator(sub), xann))
		b.WriteByte('\n')
	}
	return b.String()
}

func writeSubHeader(b *strings.Builder, sub *disasm.Subroutine) {
	fmt.Fprintf(b, "; %s 0x%x..0x%x, %d blocks\n", disasm.SubName(sub.Entry), sub.Entry, sub.End, len(sub.Segments))
}
