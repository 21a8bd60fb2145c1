// Package output writes notida analysis results to files.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"notida/internal/disasm"
	"notida/internal/render"
)

// DOTName is the file name of the graph for the subroutine entered at entry.
func DOTName(entry uint64) string {
	return fmt.Sprintf("0x%04x.dot", entry)
}

// WriteTableHTML writes the annotated listing table to path.
func WriteTableHTML(path string, prog *disasm.Program, opts render.TableOptions) error {
	var buf bytes.Buffer
	render.WriteTableHTML(&buf, prog, opts)
	return writeFile(path, buf.Bytes())
}

// WriteIndexHTML writes the run summary page to path.
func WriteIndexHTML(path string, prog *disasm.Program, rows []render.SubroutineSummary, tableHref, title string) error {
	var buf bytes.Buffer
	render.WriteIndexHTML(&buf, prog, rows, tableHref, title)
	return writeFile(path, buf.Bytes())
}

// WriteSubroutineDOT writes dir/0x%04x.dot for the subroutine entered at
// entry. An empty dot text writes nothing and returns "".
func WriteSubroutineDOT(dir string, entry uint64, dot string) (string, error) {
	if dot == "" {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("output: mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, DOTName(entry))
	if err := writeFile(path, []byte(dot)); err != nil {
		return "", err
	}
	return path, nil
}

// WriteCallgraph writes the call graph DOT to path.
func WriteCallgraph(path, dot string) error {
	return writeFile(path, []byte(dot))
}

// WriteCFG writes the combined control-flow graph DOT to path.
func WriteCFG(path, dot string) error {
	return writeFile(path, []byte(dot))
}

// WriteXrefJSON writes the export document to path.
func WriteXrefJSON(path string, doc disasm.Document) error {
	return writeJSON(path, doc)
}

// WriteASM writes the formatted listing of insts to path.
func WriteASM(path string, insts []disasm.Inst, annotators ...disasm.Annotator) error {
	return writeFile(path, []byte(disasm.Format(insts, annotators...)))
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("output: mkdir %s: %w", dir, err)
		}
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("output: write %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("output: encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("output: close %s: %w", path, err)
	}
	return nil
}
