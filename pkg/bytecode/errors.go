package bytecode

import (
	"errors"
	"fmt"

	"github.com/chazu/regvm/pkg/ast"
)

// Compile error kinds.
var (
	ErrUnsupportedConstruct = errors.New("unsupported construct")
	ErrRegisterOverflow     = errors.New("register overflow")
	ErrMalformedTree        = errors.New("malformed tree")
)

// Runtime fault kinds.
var (
	ErrUnsupportedOpcode  = errors.New("unsupported opcode")
	ErrInvalidRegister    = errors.New("invalid register")
	ErrEnvironmentBinding = errors.New("environment binding error")
	ErrInterrupted        = errors.New("interrupted")
)

// VM lifecycle errors.
var (
	ErrVMFaulted = errors.New("vm has faulted and cannot run again")
	ErrVMBusy    = errors.New("vm is already running")
)

// CompileError aborts compilation of one unit.
type CompileError struct {
	Kind      error      // ErrUnsupportedConstruct, ErrRegisterOverflow or ErrMalformedTree
	Node      ast.NodeID // Node being compiled when the error occurred
	Construct string     // Offending node kind or operator, for unsupported constructs
	Register  int        // Register that would have been used, for overflows
	Limit     int        // Register file size, for overflows
	Detail    string
}

func (e *CompileError) Error() string {
	switch {
	case errors.Is(e.Kind, ErrUnsupportedConstruct):
		return fmt.Sprintf("CompileError: %s: %s", e.Kind, e.Construct)
	case errors.Is(e.Kind, ErrRegisterOverflow):
		return fmt.Sprintf("CompileError: %s: expression needs r%d but only %d registers are available",
			e.Kind, e.Register, e.Limit)
	default:
		return fmt.Sprintf("CompileError: %s: node %d: %s", e.Kind, e.Node, e.Detail)
	}
}

func (e *CompileError) Unwrap() error {
	return e.Kind
}

// Fault is a terminal runtime error. It names the instruction that failed.
type Fault struct {
	Index    int    // Instruction index
	Op       Opcode // Opcode at Index
	Kind     error  // ErrUnsupportedOpcode, ErrInvalidRegister, ErrEnvironmentBinding or ErrInterrupted
	Register int    // Offending register for ErrInvalidRegister, -1 otherwise
	Err      error  // Underlying cause, if any
}

func (f *Fault) Error() string {
	msg := fmt.Sprintf("RuntimeFault at [%04d] %s: %s", f.Index, f.Op, f.Kind)
	if errors.Is(f.Kind, ErrInvalidRegister) {
		msg += fmt.Sprintf(" r%d", f.Register)
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Fault) Unwrap() []error {
	if f.Err == nil {
		return []error{f.Kind}
	}
	return []error{f.Kind, f.Err}
}
