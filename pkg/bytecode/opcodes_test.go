package bytecode

import (
	"strings"
	"testing"
)

func TestAllOpcodesHaveMetadata(t *testing.T) {
	// Ensure every defined opcode has metadata
	for _, op := range AllOpcodes() {
		info := GetOpcodeInfo(op)
		if info.Name == "" || strings.HasPrefix(info.Name, "UNKNOWN") {
			t.Errorf("Opcode 0x%02X has no metadata", byte(op))
		}
		if len(info.Operands) == 0 {
			t.Errorf("%s has no operand layout", op)
		}
		if !op.IsValid() {
			t.Errorf("%s should be valid", op)
		}
	}
}

func TestOpcodeCount(t *testing.T) {
	if got := OpcodeCount(); got != 7 {
		t.Errorf("Expected 7 opcodes, got %d", got)
	}
}

func TestOpcodeString(t *testing.T) {
	tests := []struct {
		op   Opcode
		want string
	}{
		{OpLoad, "LOAD"},
		{OpBind, "BIND"},
		{OpAdd, "ADD"},
		{OpSub, "SUB"},
		{OpMul, "MUL"},
		{OpDiv, "DIV"},
		{OpMod, "MOD"},
	}

	for _, tt := range tests {
		got := tt.op.String()
		if got != tt.want {
			t.Errorf("Opcode(0x%02X).String() = %q, want %q", byte(tt.op), got, tt.want)
		}
	}
}

func TestUnknownOpcodeString(t *testing.T) {
	op := Opcode(0xEE) // Not defined
	if got := op.String(); got != "UNKNOWN(0xEE)" {
		t.Errorf("Unknown opcode should return UNKNOWN(0xEE), got %q", got)
	}
	if op.IsValid() {
		t.Error("0xEE should not be valid")
	}
}

func TestIsArithmetic(t *testing.T) {
	for _, op := range AllOpcodes() {
		want := op != OpLoad && op != OpBind
		if op.IsArithmetic() != want {
			t.Errorf("%s.IsArithmetic() = %v, want %v", op, op.IsArithmetic(), want)
		}
		if want && GetOpcodeInfo(op).Consumes != 2 {
			t.Errorf("%s should consume both operands", op)
		}
	}
}

func TestEveryArithmeticOpcodeIsDispatched(t *testing.T) {
	for _, op := range AllOpcodes() {
		if op.IsArithmetic() && arithmetic[op] == nil {
			t.Errorf("%s has no value operation", op)
		}
	}
	for src, op := range binaryOps {
		if !op.IsArithmetic() {
			t.Errorf("operator %q maps to non-arithmetic %s", src, op)
		}
	}
}
