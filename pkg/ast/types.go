// Package ast defines the arena-indexed syntax tree consumed by the
// bytecode compiler. Trees are produced by an external parser, either
// directly through the builder methods on Tree or as JSON via Decode.
package ast

import (
	"fmt"
	"strings"

	"github.com/chazu/regvm/pkg/value"
)

// NodeID indexes a node in its Tree's arena.
type NodeID int32

// NoNode marks an absent child, such as a declaration without initializer.
const NoNode NodeID = -1

// Kind is the closed set of node kinds an input tree may contain.
// Only some of them are compilable; the rest still decode so that
// the compiler can reject them by name.
type Kind uint8

const (
	KindStatementList Kind = iota
	KindNumber
	KindInteger
	KindString
	KindBoolean
	KindNull
	KindUndefined
	KindBinaryOp
	KindDeclList
	KindIdentifier
	KindAssign
	KindCall
	KindIf
	KindReturn

	kindCount
)

var kindNames = [kindCount]string{
	KindStatementList: "StatementList",
	KindNumber:        "NumberLiteral",
	KindInteger:       "IntegerLiteral",
	KindString:        "StringLiteral",
	KindBoolean:       "BooleanLiteral",
	KindNull:          "NullLiteral",
	KindUndefined:     "UndefinedLiteral",
	KindBinaryOp:      "BinaryOp",
	KindDeclList:      "DeclList",
	KindIdentifier:    "Identifier",
	KindAssign:        "Assign",
	KindCall:          "Call",
	KindIf:            "If",
	KindReturn:        "Return",
}

// String returns the node kind name, which is also its JSON "type".
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsLiteral returns true for the literal kinds.
func (k Kind) IsLiteral() bool {
	return k >= KindNumber && k <= KindUndefined
}

// KindFromString looks up a kind by name.
func KindFromString(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return 0, false
}

// DeclKind distinguishes const, let and var declaration lists.
type DeclKind uint8

const (
	DeclConst DeclKind = iota
	DeclLet
	DeclVar
)

// String returns the declaration keyword.
func (d DeclKind) String() string {
	switch d {
	case DeclConst:
		return "const"
	case DeclLet:
		return "let"
	case DeclVar:
		return "var"
	default:
		return fmt.Sprintf("DeclKind(%d)", d)
	}
}

func declKindFromString(s string) (DeclKind, bool) {
	switch s {
	case "const":
		return DeclConst, true
	case "let":
		return DeclLet, true
	case "var":
		return DeclVar, true
	}
	return 0, false
}

// Decl is one name = init pair in a declaration list.
type Decl struct {
	Name string
	Init NodeID // NoNode when there is no initializer
}

// Node is a single tree node. Which fields are meaningful depends on Kind:
//
//   - literals: Num, Int, Str or Bool
//   - BinaryOp: Op, Children = [lhs, rhs]
//   - Assign: Op, Name, Children = [value]
//   - StatementList: Children = statements
//   - DeclList: DeclKind, Decls
//   - Identifier: Name
//   - Call: Children = [callee, args...]
//   - If: Children = [test, consequent] or [test, consequent, alternate]
//   - Return: Children = [] or [argument]
type Node struct {
	Kind     Kind
	Op       string
	Num      float64
	Int      int32
	Str      string
	Bool     bool
	Name     string
	DeclKind DeclKind
	Children []NodeID
	Decls    []Decl
}

// Literal returns the value of a literal node.
func (n *Node) Literal() (value.Value, bool) {
	switch n.Kind {
	case KindNumber:
		return value.Number(n.Num), true
	case KindInteger:
		return value.Integer(n.Int), true
	case KindString:
		return value.String(n.Str), true
	case KindBoolean:
		return value.Bool(n.Bool), true
	case KindNull:
		return value.Null(), true
	case KindUndefined:
		return value.Undefined(), true
	}
	return value.Undefined(), false
}

// Tree owns every node of one program. Nodes refer to each other by NodeID,
// so a Tree can be copied, compared and walked without pointer chasing.
type Tree struct {
	Nodes []Node
	Root  NodeID
}

// NewTree returns an empty tree with no root.
func NewTree() *Tree {
	return &Tree{Root: NoNode}
}

// Add appends a node and returns its id.
func (t *Tree) Add(n Node) NodeID {
	t.Nodes = append(t.Nodes, n)
	return NodeID(len(t.Nodes) - 1)
}

// Node returns the node with the given id.
func (t *Tree) Node(id NodeID) (*Node, bool) {
	if id < 0 || int(id) >= len(t.Nodes) {
		return nil, false
	}
	return &t.Nodes[id], true
}

// SetRoot marks id as the entry node and returns the tree.
func (t *Tree) SetRoot(id NodeID) *Tree {
	t.Root = id
	return t
}

// Num adds a number literal.
func (t *Tree) Num(f float64) NodeID {
	return t.Add(Node{Kind: KindNumber, Num: f})
}

// Int adds an integer literal.
func (t *Tree) Int(n int32) NodeID {
	return t.Add(Node{Kind: KindInteger, Int: n})
}

// Str adds a string literal.
func (t *Tree) Str(s string) NodeID {
	return t.Add(Node{Kind: KindString, Str: s})
}

// Bool adds a boolean literal.
func (t *Tree) Bool(b bool) NodeID {
	return t.Add(Node{Kind: KindBoolean, Bool: b})
}

// Null adds a null literal.
func (t *Tree) Null() NodeID {
	return t.Add(Node{Kind: KindNull})
}

// Undef adds an undefined literal.
func (t *Tree) Undef() NodeID {
	return t.Add(Node{Kind: KindUndefined})
}

// Bin adds a binary operator node.
func (t *Tree) Bin(op string, lhs, rhs NodeID) NodeID {
	return t.Add(Node{Kind: KindBinaryOp, Op: op, Children: []NodeID{lhs, rhs}})
}

// Declare adds a declaration list.
func (t *Tree) Declare(kind DeclKind, decls ...Decl) NodeID {
	return t.Add(Node{Kind: KindDeclList, DeclKind: kind, Decls: decls})
}

// List adds a statement list.
func (t *Tree) List(stmts ...NodeID) NodeID {
	return t.Add(Node{Kind: KindStatementList, Children: stmts})
}

// Ident adds an identifier reference.
func (t *Tree) Ident(name string) NodeID {
	return t.Add(Node{Kind: KindIdentifier, Name: name})
}

// Describe renders the subtree rooted at id as a compact s-expression,
// e.g. (+ (+ 7 4) 1.1). Used in diagnostics and the -dump-ast output.
func (t *Tree) Describe(id NodeID) string {
	var sb strings.Builder
	t.describe(&sb, id)
	return sb.String()
}

func (t *Tree) describe(sb *strings.Builder, id NodeID) {
	n, ok := t.Node(id)
	if !ok {
		fmt.Fprintf(sb, "<bad node %d>", id)
		return
	}
	if v, ok := n.Literal(); ok {
		sb.WriteString(v.String())
		return
	}
	switch n.Kind {
	case KindIdentifier:
		sb.WriteString(n.Name)
	case KindBinaryOp:
		sb.WriteString("(" + n.Op)
		for _, c := range n.Children {
			sb.WriteByte(' ')
			t.describe(sb, c)
		}
		sb.WriteByte(')')
	case KindDeclList:
		sb.WriteString("(" + n.DeclKind.String())
		for _, d := range n.Decls {
			sb.WriteString(" (" + d.Name)
			if d.Init != NoNode {
				sb.WriteByte(' ')
				t.describe(sb, d.Init)
			}
			sb.WriteByte(')')
		}
		sb.WriteByte(')')
	case KindAssign:
		sb.WriteString("(" + n.Op + " " + n.Name)
		for _, c := range n.Children {
			sb.WriteByte(' ')
			t.describe(sb, c)
		}
		sb.WriteByte(')')
	default:
		sb.WriteString("(" + n.Kind.String())
		for _, c := range n.Children {
			sb.WriteByte(' ')
			t.describe(sb, c)
		}
		sb.WriteByte(')')
	}
}
