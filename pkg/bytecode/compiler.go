package bytecode

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/regvm/pkg/ast"
	"github.com/chazu/regvm/pkg/value"
)

// binaryOps maps source operators to their two-register opcodes.
// Adding an operator here is all the compiler needs; every entry uses the
// same dest/src register shape.
var binaryOps = map[string]Opcode{
	"+": OpAdd,
	"-": OpSub,
	"*": OpMul,
	"/": OpDiv,
	"%": OpMod,
}

// Compiler converts an ast.Tree to a Program.
//
// Registers are allocated with stack discipline: every compile call receives
// the base register its result must land in, and a binary operator compiles
// its right operand at base+1. Nothing about allocation is stored on the
// Compiler, so sibling subtrees can never leak registers into each other.
type Compiler struct {
	registerCount int
	log           commonlog.Logger

	// Per-compile state
	tree    *ast.Tree
	code    []Instruction
	maxUsed int
}

// NewCompiler creates a compiler targeting a register file of registerCount
// slots. Values outside 1..MaxRegisterCount fall back to the nearest bound,
// and zero selects DefaultRegisterCount.
func NewCompiler(registerCount int) *Compiler {
	switch {
	case registerCount == 0:
		registerCount = DefaultRegisterCount
	case registerCount < 1:
		registerCount = 1
	case registerCount > MaxRegisterCount:
		registerCount = MaxRegisterCount
	}
	return &Compiler{
		registerCount: registerCount,
		log:           commonlog.GetLogger("regvm.compiler"),
	}
}

// SetLogger replaces the compiler's logger.
func (c *Compiler) SetLogger(log commonlog.Logger) {
	c.log = log
}

// RegisterCount returns the register file size the compiler targets.
func (c *Compiler) RegisterCount() int {
	return c.registerCount
}

// Compile compiles the tree rooted at tree.Root into a Program.
// It is the main entry point for compilation.
func Compile(tree *ast.Tree) (*Program, error) {
	return NewCompiler(DefaultRegisterCount).Compile(tree)
}

// Compile compiles one unit. The Compiler may be reused afterwards.
func (c *Compiler) Compile(tree *ast.Tree) (*Program, error) {
	c.tree = tree
	c.code = make([]Instruction, 0, 16)
	c.maxUsed = 0
	defer func() {
		c.tree = nil
		c.code = nil
	}()

	if tree == nil {
		return nil, &CompileError{Kind: ErrMalformedTree, Node: ast.NoNode, Detail: "nil tree"}
	}

	if err := c.compileNode(tree.Root, 0); err != nil {
		c.log.Debugf("compile failed: %s", err)
		return nil, err
	}

	prog := &Program{
		code:          c.code,
		registersUsed: c.maxUsed,
		registerCount: c.registerCount,
	}
	c.log.Debugf("compiled %d instructions using %d of %d registers",
		len(prog.code), prog.registersUsed, c.registerCount)
	return prog, nil
}

// compileNode compiles the node with the given id so that its result, if it
// has one, is left in register base.
func (c *Compiler) compileNode(id ast.NodeID, base int) error {
	n, ok := c.tree.Node(id)
	if !ok {
		return &CompileError{Kind: ErrMalformedTree, Node: id, Detail: "node id out of range"}
	}

	switch n.Kind {
	case ast.KindStatementList:
		for _, stmt := range n.Children {
			if err := c.compileChild(id, stmt, base); err != nil {
				return err
			}
		}
		return nil

	case ast.KindNumber, ast.KindInteger, ast.KindString,
		ast.KindBoolean, ast.KindNull, ast.KindUndefined:
		return c.compileLiteral(id, n, base)

	case ast.KindBinaryOp:
		return c.compileBinary(id, n, base)

	case ast.KindDeclList:
		return c.compileDeclList(id, n, base)

	default:
		// Identifier, Assign, Call, If, Return and kinds outside the enum
		return unsupported(id, n.Kind.String())
	}
}

// compileChild compiles a child of parent. Trees are built bottom up, so a
// child always has a smaller id than its parent; anything else is a cycle.
func (c *Compiler) compileChild(parent, child ast.NodeID, base int) error {
	if child < 0 || child >= parent {
		return &CompileError{Kind: ErrMalformedTree, Node: parent,
			Detail: fmt.Sprintf("child %d does not precede its parent", child)}
	}
	return c.compileNode(child, base)
}

// compileLiteral compiles a literal into LOAD base, value.
func (c *Compiler) compileLiteral(id ast.NodeID, n *ast.Node, base int) error {
	r, err := c.register(id, base)
	if err != nil {
		return err
	}
	v, _ := n.Literal()
	c.emit(Load(r, v))
	return nil
}

// compileBinary compiles lhs into base and rhs into base+1, then combines
// them into base.
func (c *Compiler) compileBinary(id ast.NodeID, n *ast.Node, base int) error {
	op, ok := binaryOps[n.Op]
	if !ok {
		return unsupported(id, fmt.Sprintf("%s(%s)", n.Kind, n.Op))
	}
	if len(n.Children) != 2 {
		return &CompileError{Kind: ErrMalformedTree, Node: id,
			Detail: fmt.Sprintf("BinaryOp has %d operands", len(n.Children))}
	}

	dest, err := c.register(id, base)
	if err != nil {
		return err
	}
	if err := c.compileChild(id, n.Children[0], base); err != nil {
		return err
	}
	if err := c.compileChild(id, n.Children[1], base+1); err != nil {
		return err
	}
	src, err := c.register(id, base+1)
	if err != nil {
		return err
	}

	c.emit(Binary(op, dest, src))
	return nil
}

// compileDeclList compiles each initializer into base and binds it.
func (c *Compiler) compileDeclList(id ast.NodeID, n *ast.Node, base int) error {
	for _, d := range n.Decls {
		r, err := c.register(id, base)
		if err != nil {
			return err
		}
		if d.Init == ast.NoNode {
			c.emit(Load(r, value.Undefined()))
		} else if err := c.compileChild(id, d.Init, base); err != nil {
			return err
		}
		c.emit(Bind(r, d.Name))
	}
	return nil
}

// register checks that base fits the register file and records its use.
func (c *Compiler) register(id ast.NodeID, base int) (Register, error) {
	if base >= c.registerCount {
		return 0, &CompileError{Kind: ErrRegisterOverflow, Node: id, Register: base, Limit: c.registerCount}
	}
	if base+1 > c.maxUsed {
		c.maxUsed = base + 1
	}
	return Register(base), nil
}

func (c *Compiler) emit(in Instruction) {
	c.code = append(c.code, in)
}

func unsupported(id ast.NodeID, construct string) error {
	return &CompileError{Kind: ErrUnsupportedConstruct, Node: id, Construct: construct}
}
