package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the program.
func (p *Program) Disassemble() string {
	return p.DisassembleWithName("")
}

// DisassembleWithName returns a human-readable listing with a name header.
func (p *Program) DisassembleWithName(name string) string {
	var sb strings.Builder

	// Header
	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}
	sb.WriteString(fmt.Sprintf("; Instructions: %d\n", len(p.code)))
	sb.WriteString(fmt.Sprintf("; Registers: %d of %d\n", p.registersUsed, p.registerCount))

	if bound := p.bindings(); len(bound) > 0 {
		sb.WriteString("; Binds: " + strings.Join(bound, ", ") + "\n")
	}
	sb.WriteString("\n")

	// Code section
	sb.WriteString("; Code:\n")
	for i, in := range p.code {
		sb.WriteString(fmt.Sprintf("[%04d] %s\n", i, in))
	}

	return sb.String()
}

// bindings lists the names the program binds, in first-bind order.
func (p *Program) bindings() []string {
	var names []string
	seen := make(map[string]bool)
	for _, in := range p.code {
		if in.Op == OpBind && !seen[in.Name] {
			seen[in.Name] = true
			names = append(names, in.Name)
		}
	}
	return names
}
