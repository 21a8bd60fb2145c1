package disasm

import (
	"strings"
	"testing"
)

func TestParseLine_Data(t *testing.T) {
	var p Parser
	inst, ok := p.ParseLine("  .data:00000100  12 34 56 78    bz      r1, $0x110\r")
	if !ok {
		t.Fatal("line did not parse")
	}
	if p.Dialect() != DialectData {
		t.Errorf("dialect = %v, want data", p.Dialect())
	}
	if inst.Addr != 0x100 {
		t.Errorf("addr = 0x%x, want 0x100", inst.Addr)
	}
	if inst.Bytes != "12 34 56 78" {
		t.Errorf("bytes = %q", inst.Bytes)
	}
	if inst.Mnemonic != "bz" || inst.Op1 != "r1" || inst.Op2 != "$0x110" {
		t.Errorf("got %q %q, %q", inst.Mnemonic, inst.Op1, inst.Op2)
	}
	if !inst.Branch || inst.Uncond {
		t.Errorf("branch=%v uncond=%v, want conditional branch", inst.Branch, inst.Uncond)
	}
}

func TestParseLine_DataHexMnemonic(t *testing.T) {
	// "add" and "bc" are made of hex digits; they must not be eaten by the byte run.
	var p Parser
	inst, ok := p.ParseLine("  .data:00000200 12 34 add r1, r2")
	if !ok {
		t.Fatal("line did not parse")
	}
	if inst.Bytes != "12 34" || inst.Mnemonic != "add" || inst.Op1 != "r1" || inst.Op2 != "r2" {
		t.Errorf("got bytes=%q mnemonic=%q op1=%q op2=%q", inst.Bytes, inst.Mnemonic, inst.Op1, inst.Op2)
	}

	inst, ok = p.ParseLine("  .data:00000204 56 78  bc $0x10")
	if !ok {
		t.Fatal("line did not parse")
	}
	if inst.Mnemonic != "bc" || inst.Op1 != "$0x10" || inst.Op2 != "" {
		t.Errorf("got mnemonic=%q op1=%q op2=%q", inst.Mnemonic, inst.Op1, inst.Op2)
	}
}

func TestParseLine_NoOperands(t *testing.T) {
	var p Parser
	inst, ok := p.ParseLine("  .data:00000104  00 01    ret")
	if !ok {
		t.Fatal("line did not parse")
	}
	if inst.Mnemonic != "ret" || inst.Op1 != "" || inst.Op2 != "" {
		t.Errorf("got %q %q %q", inst.Mnemonic, inst.Op1, inst.Op2)
	}
	if !inst.IsRet() {
		t.Error("expected IsRet")
	}
}

func TestParseLine_Generic(t *testing.T) {
	var p Parser
	inst, ok := p.ParseLine("  1a0:\t12 34 56 78 \tcall\t$0x200")
	if !ok {
		t.Fatal("line did not parse")
	}
	if p.Dialect() != DialectGeneric {
		t.Errorf("dialect = %v, want generic", p.Dialect())
	}
	if inst.Addr != 0x1a0 || inst.Bytes != "12 34 56 78" || inst.Mnemonic != "call" || inst.Op1 != "$0x200" {
		t.Errorf("got %+v", inst)
	}
	if !inst.IsCall() {
		t.Error("expected IsCall")
	}
}

func TestParseLine_Skips(t *testing.T) {
	var p Parser
	for _, line := range []string{
		"",
		"; comment",
		".data:00000100 12 34 ret", // no leading whitespace
		"0000000000000100 <main>:",
		"  .text:00000100  12 34  ret",
	} {
		if _, ok := p.ParseLine(line); ok {
			t.Errorf("line %q should not parse", line)
		}
	}
	if p.Dialect() != DialectUnknown {
		t.Errorf("dialect = %v, want unknown", p.Dialect())
	}
}

func TestParse_DialectFixedByFirstMatch(t *testing.T) {
	src := strings.Join([]string{
		"header",
		"  .data:00000100  12 34    mov     r1, r2",
		"  104:\t12 34\tret", // generic line after data dialect is fixed: skipped
		"  .data:00000108  00 01    ret",
	}, "\n")
	insts, dialect, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if dialect != DialectData {
		t.Errorf("dialect = %v, want data", dialect)
	}
	if len(insts) != 2 {
		t.Fatalf("got %d instructions, want 2", len(insts))
	}
	if insts[0].Seq != 0 || insts[1].Seq != 1 {
		t.Errorf("seq = %d,%d, want 0,1", insts[0].Seq, insts[1].Seq)
	}
	if insts[1].Addr != 0x108 {
		t.Errorf("addr[1] = 0x%x, want 0x108", insts[1].Addr)
	}
}

func TestParse_Empty(t *testing.T) {
	insts, dialect, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if len(insts) != 0 || dialect != DialectUnknown {
		t.Errorf("got %d instructions, dialect %v", len(insts), dialect)
	}
}
