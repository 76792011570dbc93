package bytecode

import (
	"errors"
	"strings"
	"testing"

	"github.com/chazu/regvm/pkg/ast"
	"github.com/chazu/regvm/pkg/value"
)

// sumTree builds 7 + 4 + 1.1, which parses as (7 + 4) + 1.1.
func sumTree() *ast.Tree {
	tree := ast.NewTree()
	inner := tree.Bin("+", tree.Num(7), tree.Num(4))
	return tree.SetRoot(tree.Bin("+", inner, tree.Num(1.1)))
}

// rightNested builds 1 + (1 + (1 + ...)) with the given number of operators.
func rightNested(ops int) *ast.Tree {
	tree := ast.NewTree()
	id := tree.Int(1)
	for i := 0; i < ops; i++ {
		id = tree.Bin("+", tree.Int(1), id)
	}
	return tree.SetRoot(id)
}

func expectCode(t *testing.T, prog *Program, want ...Instruction) {
	t.Helper()
	got := prog.Instructions()
	if len(got) != len(want) {
		t.Fatalf("Expected %d instructions, got %d:\n%s", len(want), len(got), prog.Disassemble())
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("[%04d] got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestCompileLiterals(t *testing.T) {
	tests := []struct {
		name  string
		build func(*ast.Tree) ast.NodeID
		want  value.Value
	}{
		{"number", func(t *ast.Tree) ast.NodeID { return t.Num(1.5) }, value.Number(1.5)},
		{"integer", func(t *ast.Tree) ast.NodeID { return t.Int(42) }, value.Integer(42)},
		{"string", func(t *ast.Tree) ast.NodeID { return t.Str("hello") }, value.String("hello")},
		{"boolean", func(t *ast.Tree) ast.NodeID { return t.Bool(true) }, value.Bool(true)},
		{"null", func(t *ast.Tree) ast.NodeID { return t.Null() }, value.Null()},
		{"undefined", func(t *ast.Tree) ast.NodeID { return t.Undef() }, value.Undefined()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := ast.NewTree()
			tree.SetRoot(tt.build(tree))
			prog, err := Compile(tree)
			if err != nil {
				t.Fatalf("Compile failed: %v", err)
			}
			expectCode(t, prog, Load(0, tt.want))
			if prog.RegistersUsed() != 1 {
				t.Errorf("RegistersUsed = %d, want 1", prog.RegistersUsed())
			}
		})
	}
}

func TestCompileSum(t *testing.T) {
	prog, err := Compile(sumTree())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	expectCode(t, prog,
		Load(0, value.Number(7)),
		Load(1, value.Number(4)),
		Add(0, 1),
		Load(1, value.Number(1.1)),
		Add(0, 1),
	)
	if prog.RegistersUsed() != 2 {
		t.Errorf("RegistersUsed = %d, want 2", prog.RegistersUsed())
	}
}

func TestCompileBinaryOperators(t *testing.T) {
	tests := []struct {
		op   string
		want Opcode
	}{
		{"+", OpAdd},
		{"-", OpSub},
		{"*", OpMul},
		{"/", OpDiv},
		{"%", OpMod},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			tree := ast.NewTree()
			tree.SetRoot(tree.Bin(tt.op, tree.Int(6), tree.Int(3)))
			prog, err := Compile(tree)
			if err != nil {
				t.Fatalf("Compile failed: %v", err)
			}
			// every operator shares the same register shape
			expectCode(t, prog,
				Load(0, value.Integer(6)),
				Load(1, value.Integer(3)),
				Binary(tt.want, 0, 1),
			)
		})
	}
}

func TestCompileDeclList(t *testing.T) {
	tree := ast.NewTree()
	decl := tree.Declare(ast.DeclConst,
		ast.Decl{Name: "x", Init: tree.Bin("+", tree.Num(1), tree.Num(2))},
		ast.Decl{Name: "y", Init: ast.NoNode},
		ast.Decl{Name: "z", Init: tree.Str("s")},
	)
	tree.SetRoot(tree.List(decl))

	prog, err := Compile(tree)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	expectCode(t, prog,
		Load(0, value.Number(1)),
		Load(1, value.Number(2)),
		Add(0, 1),
		Bind(0, "x"),
		Load(0, value.Undefined()),
		Bind(0, "y"),
		Load(0, value.String("s")),
		Bind(0, "z"),
	)
}

func TestCompileStatementListReusesRegisters(t *testing.T) {
	tree := ast.NewTree()
	a := tree.Declare(ast.DeclLet, ast.Decl{Name: "a", Init: tree.Bin("*", tree.Int(2), tree.Int(3))})
	b := tree.Declare(ast.DeclVar, ast.Decl{Name: "b", Init: tree.Int(4)})
	expr := tree.Bin("-", tree.Int(9), tree.Int(1))
	tree.SetRoot(tree.List(a, b, expr))

	prog, err := Compile(tree)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	for i, in := range prog.Instructions() {
		for _, r := range in.Registers() {
			if r > 1 {
				t.Errorf("[%04d] %s uses %s; siblings should restart at r0", i, in, r)
			}
		}
	}
	if prog.RegistersUsed() != 2 {
		t.Errorf("RegistersUsed = %d, want 2", prog.RegistersUsed())
	}
}

func TestCompileDeterministic(t *testing.T) {
	tree := sumTree()
	c := NewCompiler(DefaultRegisterCount)

	first, err := c.Compile(tree)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	second, err := c.Compile(tree)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if !first.Equal(second) {
		t.Errorf("Compiling twice gave different programs:\n%s\n%s", first.Disassemble(), second.Disassemble())
	}
	if first.Len() != 5 {
		t.Errorf("Reusing the compiler should not leak code, got %d instructions", first.Len())
	}
}

func TestCompileLeftNestedUsesTwoRegisters(t *testing.T) {
	tree := ast.NewTree()
	id := tree.Int(0)
	for i := 0; i < 50; i++ {
		id = tree.Bin("+", id, tree.Int(1))
	}
	tree.SetRoot(id)

	prog, err := Compile(tree)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if prog.RegistersUsed() != 2 {
		t.Errorf("RegistersUsed = %d, want 2", prog.RegistersUsed())
	}
}

func TestCompileRegisterOverflow(t *testing.T) {
	// seven operators put the deepest operand in r7, the last register
	prog, err := Compile(rightNested(DefaultRegisterCount - 1))
	if err != nil {
		t.Fatalf("Compile of %d nested operators failed: %v", DefaultRegisterCount-1, err)
	}
	if prog.RegistersUsed() != DefaultRegisterCount {
		t.Errorf("RegistersUsed = %d, want %d", prog.RegistersUsed(), DefaultRegisterCount)
	}

	_, err = Compile(rightNested(DefaultRegisterCount))
	if !errors.Is(err, ErrRegisterOverflow) {
		t.Fatalf("Expected ErrRegisterOverflow, got %v", err)
	}

	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected *CompileError, got %T", err)
	}
	if ce.Register != DefaultRegisterCount || ce.Limit != DefaultRegisterCount {
		t.Errorf("Overflow at r%d of %d, want r%d of %d", ce.Register, ce.Limit, DefaultRegisterCount, DefaultRegisterCount)
	}
	if !strings.HasPrefix(err.Error(), "CompileError: register overflow") {
		t.Errorf("Unexpected message: %q", err)
	}
}

func TestCompileRegisterOverflowSmallFile(t *testing.T) {
	c := NewCompiler(1)
	tree := ast.NewTree()
	tree.SetRoot(tree.Bin("+", tree.Int(1), tree.Int(2)))

	if _, err := c.Compile(tree); !errors.Is(err, ErrRegisterOverflow) {
		t.Errorf("A binary operator needs two registers, got %v", err)
	}
}

func TestCompileUnsupported(t *testing.T) {
	tests := []struct {
		name  string
		build func(*ast.Tree) ast.NodeID
		want  string
	}{
		{"identifier", func(t *ast.Tree) ast.NodeID { return t.Ident("x") }, "Identifier"},
		{"call", func(t *ast.Tree) ast.NodeID {
			return t.Add(ast.Node{Kind: ast.KindCall, Children: []ast.NodeID{t.Ident("f")}})
		}, "Call"},
		{"return", func(t *ast.Tree) ast.NodeID { return t.Add(ast.Node{Kind: ast.KindReturn}) }, "Return"},
		{"comparison", func(t *ast.Tree) ast.NodeID { return t.Bin("==", t.Int(1), t.Int(1)) }, "BinaryOp(==)"},
		{"nested in operand", func(t *ast.Tree) ast.NodeID { return t.Bin("+", t.Int(1), t.Ident("y")) }, "Identifier"},
		{"nested in decl", func(t *ast.Tree) ast.NodeID {
			return t.List(t.Declare(ast.DeclConst, ast.Decl{Name: "a", Init: t.Add(ast.Node{Kind: ast.KindIf})}))
		}, "If"},
		{"unknown kind", func(t *ast.Tree) ast.NodeID { return t.Add(ast.Node{Kind: ast.Kind(99)}) }, "Kind(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := ast.NewTree()
			tree.SetRoot(tt.build(tree))

			prog, err := Compile(tree)
			if prog != nil {
				t.Error("Expected no program on error")
			}
			if !errors.Is(err, ErrUnsupportedConstruct) {
				t.Fatalf("Expected ErrUnsupportedConstruct, got %v", err)
			}
			var ce *CompileError
			errors.As(err, &ce)
			if ce.Construct != tt.want {
				t.Errorf("Construct = %q, want %q", ce.Construct, tt.want)
			}
			if want := "CompileError: unsupported construct: " + tt.want; err.Error() != want {
				t.Errorf("Error() = %q, want %q", err, want)
			}
		})
	}
}

func TestCompileMalformedTree(t *testing.T) {
	if _, err := Compile(nil); !errors.Is(err, ErrMalformedTree) {
		t.Errorf("nil tree: got %v", err)
	}

	empty := ast.NewTree()
	if _, err := Compile(empty); !errors.Is(err, ErrMalformedTree) {
		t.Errorf("tree without root: got %v", err)
	}

	tree := ast.NewTree()
	tree.SetRoot(tree.Add(ast.Node{Kind: ast.KindBinaryOp, Op: "+", Children: []ast.NodeID{tree.Int(1)}}))
	if _, err := Compile(tree); !errors.Is(err, ErrMalformedTree) {
		t.Errorf("one-operand BinaryOp: got %v", err)
	}

	self := ast.NewTree()
	id := self.Add(ast.Node{Kind: ast.KindStatementList})
	self.Nodes[id].Children = []ast.NodeID{id}
	self.SetRoot(id)
	if _, err := Compile(self); !errors.Is(err, ErrMalformedTree) {
		t.Errorf("self-referencing StatementList: got %v", err)
	}

	// two nodes pointing at each other
	loop := ast.NewTree()
	a := loop.Add(ast.Node{Kind: ast.KindBinaryOp, Op: "+"})
	b := loop.Add(ast.Node{Kind: ast.KindBinaryOp, Op: "+", Children: []ast.NodeID{loop.Int(1), a}})
	loop.Nodes[a].Children = []ast.NodeID{loop.Int(2), b}
	loop.SetRoot(b)
	if _, err := Compile(loop); !errors.Is(err, ErrMalformedTree) {
		t.Errorf("BinaryOp cycle: got %v", err)
	}

	decl := ast.NewTree()
	d := decl.Add(ast.Node{Kind: ast.KindDeclList})
	decl.Nodes[d].Decls = []ast.Decl{{Name: "x", Init: d}}
	decl.SetRoot(d)
	if _, err := Compile(decl); !errors.Is(err, ErrMalformedTree) {
		t.Errorf("DeclList initializer pointing at itself: got %v", err)
	}
}

func TestNewCompilerRegisterCount(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultRegisterCount},
		{-3, 1},
		{4, 4},
		{1000, MaxRegisterCount},
	}
	for _, tt := range tests {
		if got := NewCompiler(tt.in).RegisterCount(); got != tt.want {
			t.Errorf("NewCompiler(%d).RegisterCount() = %d, want %d", tt.in, got, tt.want)
		}
	}
}
