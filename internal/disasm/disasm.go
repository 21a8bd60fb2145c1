// Package disasm reconstructs program structure from a textual disassembly
// listing: instructions, call/branch cross-references, subroutine entry points
// and per-subroutine basic-block graphs.
package disasm

import (
	"fmt"
	"strings"
)

// Inst is one parsed listing line.
type Inst struct {
	Seq      int    // 0-based position in file order
	Addr     uint64 // instruction address
	Bytes    string // raw byte text as printed by the disassembler
	Mnemonic string
	Op1      string
	Op2      string // "" when the line has no second operand
	Branch   bool   // one of the branch mnemonics
	Uncond   bool   // unconditional branch (no fallthrough)
}

// IsCall reports whether the instruction is a call.
func (i Inst) IsCall() bool { return strings.EqualFold(i.Mnemonic, mnemonicCall) }

// IsRet reports whether the instruction is a return.
func (i Inst) IsRet() bool { return strings.EqualFold(i.Mnemonic, mnemonicRet) }

// Text renders mnemonic and operands the way the listing printed them.
func (i Inst) Text() string {
	var b strings.Builder
	b.WriteString(i.Mnemonic)
	if i.Op1 != "" {
		b.WriteByte(' ')
		b.WriteString(i.Op1)
	}
	if i.Op2 != "" {
		b.WriteString(", ")
		b.WriteString(i.Op2)
	}
	return b.String()
}

// Format renders instructions as stable text output.
// Each line: <addr>  <bytes>  <mnemonic operands>  ; <comment>
// Annotators are checked in order; first non-empty result is used.
func Format(insts []Inst, annotators ...Annotator) string {
	var b strings.Builder
	for _, inst := range insts {
		fmt.Fprintf(&b, "0x%08x  %-24s  %s", inst.Addr, inst.Bytes, inst.Text())
		for _, ann := range annotators {
			if s := ann(inst); s != "" {
				fmt.Fprintf(&b, "  ; %s", s)
				break
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
