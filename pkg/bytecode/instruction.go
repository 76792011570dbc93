package bytecode

import (
	"fmt"
	"strings"

	"github.com/chazu/regvm/pkg/value"
)

// Register is an index into the VM register file.
type Register uint8

func (r Register) String() string {
	return fmt.Sprintf("r%d", r)
}

// Instruction is one decoded bytecode operation. Which operands are used
// depends on Op, see OpcodeInfo.Operands:
//
//	LOAD  A=register Value=literal
//	BIND  A=register Name=identifier
//	ADD   A=dest     B=src        (and SUB, MUL, DIV, MOD)
type Instruction struct {
	Op    Opcode
	A     Register
	B     Register
	Value value.Value
	Name  string
}

// Load returns LOAD r, v.
func Load(r Register, v value.Value) Instruction {
	return Instruction{Op: OpLoad, A: r, Value: v}
}

// Bind returns BIND r, name.
func Bind(r Register, name string) Instruction {
	return Instruction{Op: OpBind, A: r, Name: name}
}

// Binary returns a two-register arithmetic instruction.
func Binary(op Opcode, dest, src Register) Instruction {
	return Instruction{Op: op, A: dest, B: src}
}

// Add returns ADD dest, src.
func Add(dest, src Register) Instruction {
	return Binary(OpAdd, dest, src)
}

// Registers returns the registers the instruction references.
func (in Instruction) Registers() []Register {
	info := GetOpcodeInfo(in.Op)
	regs := make([]Register, 0, 2)
	for i, kind := range info.Operands {
		if kind != OperandRegister {
			continue
		}
		if i == 0 {
			regs = append(regs, in.A)
		} else {
			regs = append(regs, in.B)
		}
	}
	return regs
}

// Equal reports whether two instructions have the same opcode and operands.
func (in Instruction) Equal(o Instruction) bool {
	return in.Op == o.Op && in.A == o.A && in.B == o.B &&
		in.Name == o.Name && in.Value.Equal(o.Value)
}

// String renders the instruction as "MNEMONIC operand, operand".
func (in Instruction) String() string {
	info := GetOpcodeInfo(in.Op)
	if len(info.Operands) == 0 {
		return fmt.Sprintf("%s a=%d b=%d", info.Name, in.A, in.B)
	}

	ops := make([]string, 0, len(info.Operands))
	for i, kind := range info.Operands {
		switch kind {
		case OperandRegister:
			r := in.A
			if i > 0 {
				r = in.B
			}
			ops = append(ops, r.String())
		case OperandValue:
			ops = append(ops, in.Value.String())
		case OperandName:
			ops = append(ops, in.Name)
		}
	}
	return fmt.Sprintf("%-5s %s", info.Name, strings.Join(ops, ", "))
}
