package bytecode

// DefaultRegisterCount is the register file size used when none is configured.
const DefaultRegisterCount = 8

// MaxRegisterCount is the largest register file a Register can address.
const MaxRegisterCount = 256

// Program is the ordered instruction sequence produced by one compile pass.
// It is never modified after compilation and may be run any number of times.
type Program struct {
	code          []Instruction
	registersUsed int
	registerCount int
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.code)
}

// At returns a copy of the instruction at index i.
func (p *Program) At(i int) Instruction {
	return p.code[i]
}

// Instructions returns a copy of the instruction sequence.
func (p *Program) Instructions() []Instruction {
	out := make([]Instruction, len(p.code))
	copy(out, p.code)
	return out
}

// RegistersUsed returns the highest register index referenced plus one.
func (p *Program) RegistersUsed() int {
	return p.registersUsed
}

// RegisterCount returns the register file size the program was compiled for.
func (p *Program) RegisterCount() int {
	return p.registerCount
}

// Equal reports whether two programs hold the same instruction sequence.
func (p *Program) Equal(o *Program) bool {
	if len(p.code) != len(o.code) {
		return false
	}
	for i := range p.code {
		if !p.code[i].Equal(o.code[i]) {
			return false
		}
	}
	return true
}

// NewProgram assembles a program from raw instructions without compiling.
// Hosts and tests use it to hand-build sequences; the VM still validates
// every operand at dispatch.
func NewProgram(registerCount int, code ...Instruction) *Program {
	p := &Program{code: append([]Instruction(nil), code...), registerCount: registerCount}
	for _, in := range code {
		for _, r := range in.Registers() {
			if int(r)+1 > p.registersUsed {
				p.registersUsed = int(r) + 1
			}
		}
	}
	return p
}
