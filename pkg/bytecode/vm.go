package bytecode

import (
	"sync/atomic"

	"github.com/tliron/commonlog"

	"github.com/chazu/regvm/pkg/realm"
	"github.com/chazu/regvm/pkg/value"
)

// State is the VM lifecycle state.
type State uint8

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateFaulted
)

// String returns a human-readable name for State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// StepHook is called before each instruction is dispatched. Returning an
// error stops execution with an ErrInterrupted fault; hosts use this to
// enforce deadlines between dispatches.
type StepHook func(ip int, in Instruction) error

// arithmetic maps two-register opcodes to value operations.
var arithmetic = map[Opcode]func(a, b value.Value) value.Value{
	OpAdd: value.Add,
	OpSub: value.Sub,
	OpMul: value.Mul,
	OpDiv: value.Div,
	OpMod: value.Mod,
}

// VM executes Programs against a fixed register file and an Environment.
type VM struct {
	env   realm.Environment
	regs  []value.Value
	state State
	fault *Fault
	busy  atomic.Bool

	hook StepHook
	log  commonlog.Logger

	// Trace logs every dispatched instruction at debug level
	Trace bool
}

// NewVM creates a VM with a register file of registerCount slots, all
// undefined. registerCount is normalized the same way NewCompiler does it.
// A nil env gets a private realm.Lexical.
func NewVM(env realm.Environment, registerCount int) *VM {
	registerCount = NewCompiler(registerCount).RegisterCount()
	if env == nil {
		env = realm.NewLexical()
	}
	return &VM{
		env:  env,
		regs: make([]value.Value, registerCount),
		log:  commonlog.GetLogger("regvm.vm"),
	}
}

// SetStepHook installs a hook run before every dispatch.
func (vm *VM) SetStepHook(hook StepHook) {
	vm.hook = hook
}

// SetLogger replaces the VM's logger.
func (vm *VM) SetLogger(log commonlog.Logger) {
	vm.log = log
}

// State returns the current lifecycle state.
func (vm *VM) State() State {
	return vm.state
}

// Fault returns the fault that stopped the VM, or nil.
func (vm *VM) Fault() *Fault {
	return vm.fault
}

// RegisterCount returns the size of the register file.
func (vm *VM) RegisterCount() int {
	return len(vm.regs)
}

// Register returns the current content of register i.
func (vm *VM) Register(i int) (value.Value, bool) {
	if i < 0 || i >= len(vm.regs) {
		return value.Undefined(), false
	}
	return vm.regs[i], true
}

// Run executes prog from the first instruction and returns the value left
// in register 0. Registers are reset to undefined before the first
// dispatch. Bindings committed before a fault are not rolled back.
func (vm *VM) Run(prog *Program) (value.Value, error) {
	if !vm.busy.CompareAndSwap(false, true) {
		return value.Undefined(), ErrVMBusy
	}
	defer vm.busy.Store(false)

	if vm.state == StateFaulted {
		return value.Undefined(), ErrVMFaulted
	}

	for i := range vm.regs {
		vm.regs[i] = value.Undefined()
	}
	vm.state = StateRunning

	for ip, in := range prog.code {
		if vm.hook != nil {
			if err := vm.hook(ip, in); err != nil {
				return vm.fail(&Fault{Index: ip, Op: in.Op, Kind: ErrInterrupted, Register: -1, Err: err})
			}
		}
		if vm.Trace {
			vm.log.Debugf("[%04d] %s", ip, in)
		}
		if f := vm.step(ip, in); f != nil {
			return vm.fail(f)
		}
	}

	vm.state = StateCompleted
	vm.log.Debugf("completed %d instructions", len(prog.code))
	return vm.regs[0], nil
}

// step dispatches a single instruction.
func (vm *VM) step(ip int, in Instruction) *Fault {
	switch in.Op {
	case OpLoad:
		if f := vm.checkRegister(ip, in, in.A); f != nil {
			return f
		}
		vm.regs[in.A] = in.Value

	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		if f := vm.checkRegister(ip, in, in.A); f != nil {
			return f
		}
		if f := vm.checkRegister(ip, in, in.B); f != nil {
			return f
		}
		lhs := vm.clear(in.A)
		rhs := vm.clear(in.B)
		vm.regs[in.A] = arithmetic[in.Op](lhs, rhs)

	case OpBind:
		if f := vm.checkRegister(ip, in, in.A); f != nil {
			return f
		}
		v := vm.clear(in.A)
		if err := vm.bind(in.Name, v); err != nil {
			return &Fault{Index: ip, Op: in.Op, Kind: ErrEnvironmentBinding, Register: -1, Err: err}
		}

	default:
		return &Fault{Index: ip, Op: in.Op, Kind: ErrUnsupportedOpcode, Register: -1}
	}
	return nil
}

// bind assigns to an existing binding or declares a new function-scoped one.
func (vm *VM) bind(name string, v value.Value) error {
	if vm.env.HasBinding(name) {
		return vm.env.SetMutableBinding(name, v, true)
	}
	if err := vm.env.CreateMutableBinding(name, true, realm.ScopeFunction); err != nil {
		return err
	}
	return vm.env.InitializeBinding(name, v)
}

// clear resets a register to undefined and returns its previous value.
func (vm *VM) clear(r Register) value.Value {
	v := vm.regs[r]
	vm.regs[r] = value.Undefined()
	return v
}

func (vm *VM) checkRegister(ip int, in Instruction, r Register) *Fault {
	if int(r) >= len(vm.regs) {
		return &Fault{Index: ip, Op: in.Op, Kind: ErrInvalidRegister, Register: int(r)}
	}
	return nil
}

func (vm *VM) fail(f *Fault) (value.Value, error) {
	vm.state = StateFaulted
	vm.fault = f
	vm.log.Debugf("faulted: %s", f)
	return value.Undefined(), f
}
