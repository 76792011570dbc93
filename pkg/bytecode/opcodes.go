package bytecode

import "fmt"

// Opcode represents a bytecode instruction.
// Opcodes are organized into ranges by category for easy identification.
type Opcode byte

const (
	// ========================================================================
	// Register loads (0x10-0x1F)
	// ========================================================================

	OpLoad Opcode = 0x10 // Load literal into register: LOAD <r> <value>

	// ========================================================================
	// Environment bindings (0x40-0x4F)
	// ========================================================================

	OpBind Opcode = 0x40 // Bind register value to identifier: BIND <r> <name>

	// ========================================================================
	// Arithmetic (0x50-0x5F)
	// All take <dest> <src>, consume both and leave the result in dest.
	// ========================================================================

	OpAdd Opcode = 0x50 // dest = dest + src
	OpSub Opcode = 0x51 // dest = dest - src
	OpMul Opcode = 0x52 // dest = dest * src
	OpDiv Opcode = 0x53 // dest = dest / src
	OpMod Opcode = 0x54 // dest = dest % src
)

// OperandKind describes what an instruction operand holds.
type OperandKind uint8

const (
	OperandRegister OperandKind = iota
	OperandValue
	OperandName
)

// OpcodeInfo contains metadata about an opcode.
type OpcodeInfo struct {
	Name     string        // Human-readable mnemonic
	Operands []OperandKind // Operand layout, in listing order
	Consumes int           // Registers read and reset to undefined
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpLoad: {"LOAD", []OperandKind{OperandRegister, OperandValue}, 0},
	OpBind: {"BIND", []OperandKind{OperandRegister, OperandName}, 1},

	OpAdd: {"ADD", []OperandKind{OperandRegister, OperandRegister}, 2},
	OpSub: {"SUB", []OperandKind{OperandRegister, OperandRegister}, 2},
	OpMul: {"MUL", []OperandKind{OperandRegister, OperandRegister}, 2},
	OpDiv: {"DIV", []OperandKind{OperandRegister, OperandRegister}, 2},
	OpMod: {"MOD", []OperandKind{OperandRegister, OperandRegister}, 2},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns an OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// IsValid returns true if the opcode is defined.
func (op Opcode) IsValid() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// IsArithmetic returns true if this opcode is a two-register arithmetic operation.
func (op Opcode) IsArithmetic() bool {
	return op >= OpAdd && op <= OpMod
}

// AllOpcodes returns a slice of all defined opcodes.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
