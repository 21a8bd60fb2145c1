package disasm

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Dialect identifies the line grammar of a listing.
type Dialect int

const (
	DialectUnknown Dialect = iota
	DialectData            // "  .data:00000100  12 34  call  $0x200"
	DialectGeneric         // "  100:\t12 34\tcall\t$0x200"
)

func (d Dialect) String() string {
	switch d {
	case DialectData:
		return "data"
	case DialectGeneric:
		return "generic"
	}
	return "unknown"
}

// Both grammars capture: address, bytes, mnemonic, operand1, operand2.
var dialectPatterns = []struct {
	dialect Dialect
	re      *regexp.Regexp
}{
	{DialectData, regexp.MustCompile(
		`^\s+\.data:([0-9A-Fa-f]+)\s+((?:[0-9A-Fa-f]{2}[ \t]?){1,16})\s+([A-Za-z0-9]+)(?:\s+([^,]+))?(?:,\s*(.+))?$`)},
	{DialectGeneric, regexp.MustCompile(
		`^\s+((?:0[xX])?[0-9A-Fa-f]+):\t([0-9A-Fa-f ]{2,48})\t\s*([A-Za-z0-9]+)(?:\s+([^,]+))?(?:,\s*(.+))?$`)},
}

const maxLineBytes = 1 << 20

// Parser converts listing lines into instructions. The first line matching
// either grammar fixes the dialect for every following line.
type Parser struct {
	dialect Dialect
	re      *regexp.Regexp
	seq     int
}

// Dialect returns the detected dialect, or DialectUnknown before the first match.
func (p *Parser) Dialect() Dialect { return p.dialect }

// ParseLine parses one line. Returns false for lines that do not match the
// listing grammar; those are not errors.
func (p *Parser) ParseLine(line string) (Inst, bool) {
	line = strings.TrimSuffix(line, "\r")

	var m []string
	if p.re != nil {
		m = p.re.FindStringSubmatch(line)
	} else {
		for _, dp := range dialectPatterns {
			if m = dp.re.FindStringSubmatch(line); m != nil {
				p.dialect, p.re = dp.dialect, dp.re
				break
			}
		}
	}
	if m == nil {
		return Inst{}, false
	}

	addrText := strings.TrimSpace(m[1])
	addrText = strings.TrimPrefix(strings.TrimPrefix(addrText, "0x"), "0X")
	addr, err := strconv.ParseUint(addrText, 16, 64)
	if err != nil {
		return Inst{}, false
	}

	mnemonic := strings.TrimSpace(m[3])
	inst := Inst{
		Seq:      p.seq,
		Addr:     addr,
		Bytes:    strings.TrimSpace(m[2]),
		Mnemonic: mnemonic,
		Op1:      strings.TrimSpace(m[4]),
		Op2:      strings.TrimSpace(m[5]),
		Branch:   IsBranchMnemonic(mnemonic),
		Uncond:   IsUncondMnemonic(mnemonic),
	}
	p.seq++
	return inst, true
}

// Parse reads a whole listing and returns its instructions in file order.
func Parse(r io.Reader) ([]Inst, Dialect, error) {
	var p Parser
	var insts []Inst
	err := scanLines(r, func(line string) {
		if inst, ok := p.ParseLine(line); ok {
			insts = append(insts, inst)
		}
	})
	return insts, p.Dialect(), err
}

func scanLines(r io.Reader, fn func(line string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		fn(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("disasm: read listing: %w", err)
	}
	return nil
}
