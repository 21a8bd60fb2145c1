package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"notida/internal/disasm"
	"notida/internal/logging"
	"notida/internal/output"
	"notida/internal/render"
)

var errUsage = errors.New("usage: notida [listing] [out]")

// openError reports an input listing that could not be opened.
type openError struct {
	path string
	err  error
}

func (e *openError) Error() string { return fmt.Sprintf("could not open file '%s'", e.path) }
func (e *openError) Unwrap() error { return e.err }

type rootOptions struct {
	dotDir    string
	format    string
	callgraph string
	cfgPath   string
	jsonPath  string
	indexPath string
	asmPath   string
	title     string
	theme     string
	workers   int
	debug     bool
}

func newRootCmd() *cobra.Command {
	var o rootOptions
	cmd := &cobra.Command{
		Use:   "notida [listing] [out]",
		Short: "Annotate a disassembly listing and reconstruct subroutine graphs",
		Long: `notida reads a textual disassembly listing, links every call and branch to
its target, writes an annotated HTML table and one Graphviz file per subroutine.`,
		Example: `
# Annotated table plus 0xNNNN.dot files next to it
notida fw.lst out/table.html

# Lattice-rendered graphs, call graph and JSON export
notida fw.lst out/table.html --format lattice --callgraph out/calls.dot --json out/xrefs.json
  `,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return errUsage
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, args[0], args[1], &o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.dotDir, "dot-dir", "", "Directory for per-subroutine .dot files (default: directory of out)")
	f.StringVar(&o.format, "format", "gographviz", "Graph renderer: gographviz or lattice")
	f.StringVar(&o.callgraph, "callgraph", "", "Write the subroutine call graph DOT to this path")
	f.StringVar(&o.cfgPath, "cfg", "", "Write all subroutine graphs as one lattice CFG DOT to this path")
	f.StringVar(&o.jsonPath, "json", "", "Write the xref and subroutine export to this path")
	f.StringVar(&o.indexPath, "index", "", "Write an HTML summary of subroutines to this path")
	f.StringVar(&o.asmPath, "asm", "", "Write the annotated flat listing to this path")
	f.StringVar(&o.title, "title", render.DefaultTitle, "Title of the annotated table")
	f.StringVar(&o.theme, "theme", "nasa", "Color theme: nasa or classic")
	f.IntVarP(&o.workers, "workers", "j", 0, "Parallel subroutine builds (default: GOMAXPROCS)")
	cmd.PersistentFlags().BoolVarP(&o.debug, "debug", "d", false, "Debug logging and invariant checks")

	cmd.AddCommand(newBlocksCmd(&o.debug))
	cmd.AddCommand(newSchemaCmd())
	return cmd
}

func newLogger(cmd *cobra.Command, debug bool) *log.Logger {
	lg := logging.New(cmd.ErrOrStderr())
	if debug {
		lg.SetLevel(log.DebugLevel)
	}
	return lg
}

// loadProgram opens and analyzes a listing.
func loadProgram(path string, lg *log.Logger) (*disasm.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &openError{path: path, err: err}
	}
	defer f.Close()

	prog, err := disasm.Analyze(f)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", path, err)
	}
	lg.Info("parsed listing",
		"path", path,
		"dialect", prog.Dialect,
		"insts", len(prog.Insts),
		"skipped", prog.Skipped,
		"seeds", len(prog.Seeds))
	if len(prog.Insts) == 0 {
		lg.Warn("no line matched the listing grammar", "path", path)
	}
	return prog, nil
}

// buildSubroutines runs BuildAll. With --debug or NOTIDA_LOG_LEVEL=debug the
// xref and segment invariants are checked and violations logged.
func buildSubroutines(ctx context.Context, prog *disasm.Program, workers int, debug bool, lg *log.Logger) ([]*disasm.Subroutine, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	debug = debug || logging.IsDebug()
	if debug {
		if err := prog.Xrefs.Verify(); err != nil {
			lg.Error("xref table", "err", err)
		}
	}
	subs, err := disasm.BuildAll(ctx, prog, disasm.BuildOptions{Workers: workers, Logger: lg})
	if err != nil {
		return nil, err
	}
	for _, sub := range subs {
		if sub.Empty() {
			lg.Debug("seed has no instruction", "entry", fmt.Sprintf("0x%x", sub.Entry))
			continue
		}
		lg.Debug("built subroutine",
			"sub", disasm.SubName(sub.Entry),
			"blocks", len(sub.Segments),
			"end", fmt.Sprintf("0x%x", sub.End))
		if debug {
			if err := sub.Verify(prog); err != nil {
				lg.Error("segment invariant", "err", err)
			}
		}
	}
	if debug {
		lg.Debug("checked invariants", "subs", len(subs))
	}
	return subs, nil
}

func runRoot(cmd *cobra.Command, in, out string, o *rootOptions) error {
	lg := newLogger(cmd, o.debug)

	if o.format != "gographviz" && o.format != "lattice" {
		return fmt.Errorf("unknown --format %q (want gographviz or lattice)", o.format)
	}

	prog, err := loadProgram(in, lg)
	if err != nil {
		return err
	}
	subs, err := buildSubroutines(cmd.Context(), prog, o.workers, o.debug, lg)
	if err != nil {
		return err
	}

	theme := render.ThemeByName(o.theme)
	if err := output.WriteTableHTML(out, prog, render.TableOptions{Title: o.title, Theme: theme}); err != nil {
		return err
	}
	lg.Info("wrote table", "path", out, "rows", len(prog.Insts))

	dotDir := o.dotDir
	if dotDir == "" {
		dotDir = filepath.Dir(out)
	}
	written := make(map[uint64]string)
	for _, sub := range subs {
		var dot string
		if o.format == "lattice" {
			dot = render.SubroutineLatticeDOT(prog, sub)
		} else {
			dot, err = render.SubroutineDOT(prog, sub, theme)
			if err != nil {
				return err
			}
		}
		path, err := output.WriteSubroutineDOT(dotDir, sub.Entry, dot)
		if err != nil {
			return err
		}
		if path != "" {
			written[sub.Entry] = path
		}
	}
	lg.Info("wrote graphs", "dir", dotDir, "files", len(written), "format", o.format)

	if o.callgraph != "" {
		if err := output.WriteCallgraph(o.callgraph, render.CallgraphDOT(prog, subs, "callgraph")); err != nil {
			return err
		}
		lg.Info("wrote call graph", "path", o.callgraph)
	}
	if o.cfgPath != "" {
		if err := output.WriteCFG(o.cfgPath, render.ProgramCFGDOT(prog, subs, "cfg")); err != nil {
			return err
		}
		lg.Info("wrote combined cfg", "path", o.cfgPath)
	}
	if o.jsonPath != "" {
		if err := output.WriteXrefJSON(o.jsonPath, disasm.Export(prog, subs)); err != nil {
			return err
		}
		lg.Info("wrote export", "path", o.jsonPath, "xrefs", len(prog.Xrefs.Forward))
	}
	if o.asmPath != "" {
		if err := output.WriteASM(o.asmPath, prog.Insts, disasm.XrefAnnotator(prog.Xrefs)); err != nil {
			return err
		}
		lg.Info("wrote listing", "path", o.asmPath)
	}
	if o.indexPath != "" {
		base := filepath.Dir(o.indexPath)
		rows := render.Summarize(prog, subs, func(entry uint64) string {
			return relHref(base, written[entry])
		})
		if err := output.WriteIndexHTML(o.indexPath, prog, rows, relHref(base, out), o.title); err != nil {
			return err
		}
		lg.Info("wrote index", "path", o.indexPath, "subroutines", len(rows))
	}
	return nil
}

// relHref returns target relative to base with forward slashes, or "" if
// target is empty or unrelated.
func relHref(base, target string) string {
	if target == "" {
		return ""
	}
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return ""
	}
	return filepath.ToSlash(rel)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

// Execute runs the root command. fang renders help and errors on a terminal;
// piped output gets plain cobra with the bare error line.
func Execute() {
	root := newRootCmd()
	ctx := context.Background()

	if !isTerminal(os.Stdout) {
		if err := root.ExecuteContext(ctx); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}
	if err := fang.Execute(ctx, root, fang.WithNotifySignal(os.Interrupt)); err != nil {
		os.Exit(1)
	}
}
