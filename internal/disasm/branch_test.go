package disasm

import (
	"math"
	"testing"
)

func TestStripImmediate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		imm  bool
	}{
		{"$0x200", "0x200", true},
		{"!200", "200", true},
		{"!$!$1f", "1f", true},
		{"0x200", "0x200", false},
		{"r1", "r1", false},
		{"[r2]", "[r2]", false},
		{"", "", false},
		{"$", "", true},
	}
	for _, tt := range tests {
		got, imm := StripImmediate(tt.in)
		if got != tt.want || imm != tt.imm {
			t.Errorf("StripImmediate(%q) = (%q, %v), want (%q, %v)", tt.in, got, imm, tt.want, tt.imm)
		}
	}
}

func TestStripImmediate_Idempotent(t *testing.T) {
	for _, op := range []string{"$0x200", "!!$10", "r3", "$$"} {
		once, _ := StripImmediate(op)
		twice, imm := StripImmediate(once)
		if twice != once {
			t.Errorf("StripImmediate(%q) not idempotent: %q then %q", op, once, twice)
		}
		if imm {
			t.Errorf("second strip of %q reported immediate", op)
		}
	}
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		op   string
		want uint64
		ok   bool
	}{
		{"$0x200", 0x200, true},
		{"!1F0", 0x1f0, true},
		{"$100h", 0x100, true}, // stops at first non-hex
		{"$0X10", 0x10, true},
		{" $40 ", 0x40, true},
		{"0x200", 0, false}, // no marker: indirect
		{"r1", 0, false},
		{"$r1", 0, false}, // marker but no digits
		{"$", 0, false},
		{"$0xffffffffffffffff", math.MaxUint64, true},
		{"$0x10000000000000000", math.MaxUint64, true}, // saturates
		{"!123456789abcdef0123", math.MaxUint64, true},
	}
	for _, tt := range tests {
		got, ok := ParseTarget(tt.op)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseTarget(%q) = (0x%x, %v), want (0x%x, %v)", tt.op, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIsBranchMnemonic(t *testing.T) {
	for _, m := range []string{"br", "bz", "bnz", "bt", "bf", "bh", "bnh", "bc", "bnc", "BZ"} {
		if !IsBranchMnemonic(m) {
			t.Errorf("%s should be a branch", m)
		}
	}
	for _, m := range []string{"call", "ret", "mov", "b", "bra"} {
		if IsBranchMnemonic(m) {
			t.Errorf("%s should not be a branch", m)
		}
	}
	if !IsUncondMnemonic("br") || IsUncondMnemonic("bz") {
		t.Error("only br is unconditional")
	}
}

func TestDecodeBranch_Ret(t *testing.T) {
	bi := DecodeBranch(Inst{Mnemonic: "ret"})
	if bi == nil {
		t.Fatal("expected ret")
	}
	if !bi.IsRet {
		t.Error("expected IsRet=true")
	}
}

func TestDecodeBranch_Call(t *testing.T) {
	bi := DecodeBranch(Inst{Mnemonic: "call", Op1: "$0x200"})
	if bi == nil {
		t.Fatal("expected call")
	}
	if !bi.IsCall || !bi.Resolved || bi.Target != 0x200 {
		t.Errorf("call = %+v, want resolved call to 0x200", *bi)
	}

	bi = DecodeBranch(Inst{Mnemonic: "call", Op1: "[r4]"})
	if bi == nil || bi.Resolved {
		t.Errorf("indirect call = %+v, want unresolved", bi)
	}
}

func TestDecodeBranch_Conditional(t *testing.T) {
	// Second operand holds the target when present.
	inst := Inst{Mnemonic: "bz", Op1: "r1", Op2: "$0x110", Branch: true}
	bi := DecodeBranch(inst)
	if bi == nil {
		t.Fatal("expected branch")
	}
	if !bi.Cond {
		t.Error("bz should be conditional")
	}
	if !bi.Resolved || bi.Target != 0x110 {
		t.Errorf("target = 0x%x (resolved=%v), want 0x110", bi.Target, bi.Resolved)
	}
}

func TestDecodeBranch_Unconditional(t *testing.T) {
	inst := Inst{Mnemonic: "br", Op1: "!0x40", Branch: true, Uncond: true}
	bi := DecodeBranch(inst)
	if bi == nil {
		t.Fatal("expected branch")
	}
	if bi.Cond {
		t.Error("br should not be conditional")
	}
	if bi.Target != 0x40 {
		t.Errorf("target = 0x%x, want 0x40", bi.Target)
	}
}

func TestDecodeBranch_NotBranch(t *testing.T) {
	if bi := DecodeBranch(Inst{Mnemonic: "mov", Op1: "r1", Op2: "$0x10"}); bi != nil {
		t.Errorf("mov decoded as %+v", *bi)
	}
}
