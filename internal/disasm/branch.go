package disasm

import (
	"math"
	"strings"
)

// Mnemonic recognition is purely syntactic.
// These helpers identify block terminators and extract literal targets.

const (
	mnemonicCall = "call"
	mnemonicRet  = "ret"
	mnemonicBr   = "br"
)

var branchMnemonics = map[string]bool{
	"br": true, "bz": true, "bnz": true, "bt": true, "bf": true,
	"bh": true, "bnh": true, "bc": true, "bnc": true,
}

// IsBranchMnemonic reports whether m is one of the recognized branch mnemonics.
func IsBranchMnemonic(m string) bool {
	return branchMnemonics[strings.ToLower(m)]
}

// IsUncondMnemonic reports whether m is the unconditional branch.
func IsUncondMnemonic(m string) bool {
	return strings.EqualFold(m, mnemonicBr)
}

// BranchInfo describes a call, branch or return.
type BranchInfo struct {
	Target   uint64 // literal target address (valid if Resolved)
	Resolved bool   // operand carried an immediate marker and a hex number
	Cond     bool   // true if conditional (has fallthrough)
	IsCall   bool
	IsRet    bool
}

// DecodeBranch classifies inst. Returns nil if it is not a call, branch or return.
func DecodeBranch(inst Inst) *BranchInfo {
	switch {
	case inst.IsRet():
		return &BranchInfo{IsRet: true}
	case inst.IsCall():
		bi := &BranchInfo{IsCall: true, Cond: true}
		bi.Target, bi.Resolved = ParseTarget(inst.Op1)
		return bi
	case inst.Branch:
		bi := &BranchInfo{Cond: !inst.Uncond}
		bi.Target, bi.Resolved = ParseTarget(inst.TargetOperand())
		return bi
	}
	return nil
}

// TargetOperand returns the operand holding a branch target: the second
// operand when present, otherwise the first.
func (i Inst) TargetOperand() string {
	if i.Op2 != "" {
		return i.Op2
	}
	return i.Op1
}

// StripImmediate removes any run of leading immediate markers ('!' or '$').
// The bool reports whether at least one marker was removed, i.e. whether the
// operand names a literal address rather than an indirect reference.
func StripImmediate(op string) (string, bool) {
	trimmed := strings.TrimLeft(op, "!$")
	return trimmed, len(trimmed) != len(op)
}

// ParseTarget resolves an immediate operand to an address. Operands without
// an immediate marker, or without leading hex digits, do not resolve.
// Like strtoul, an optional 0x prefix is accepted and parsing stops at the
// first non-hex character.
func ParseTarget(op string) (uint64, bool) {
	s, imm := StripImmediate(strings.TrimSpace(op))
	if !imm {
		return 0, false
	}
	return parseHexPrefix(s)
}

// parseHexPrefix reads leading hex digits, after an optional 0x prefix.
// Values that do not fit in 64 bits saturate at math.MaxUint64.
func parseHexPrefix(s string) (uint64, bool) {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') && isHexDigit(s[2]) {
		s = s[2:]
	}
	const cutoff = math.MaxUint64 >> 4
	var v uint64
	n := 0
	for n < len(s) && isHexDigit(s[n]) {
		if v > cutoff {
			v = math.MaxUint64
		} else {
			v = v<<4 | uint64(hexVal(s[n]))
		}
		n++
	}
	return v, n > 0
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
