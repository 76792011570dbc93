package ast

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

// jsonNode is the nested wire form of a node as emitted by the external
// parser. Decode flattens it into a Tree arena.
type jsonNode struct {
	Type         string          `json:"type"`
	Op           string          `json:"op,omitempty"`
	Name         string          `json:"name,omitempty"`
	Kind         string          `json:"kind,omitempty"`
	Value        json.RawMessage `json:"value,omitempty"`
	Left         *jsonNode       `json:"left,omitempty"`
	Right        *jsonNode       `json:"right,omitempty"`
	Body         []*jsonNode     `json:"body,omitempty"`
	Declarations []jsonDecl      `json:"declarations,omitempty"`
	Callee       *jsonNode       `json:"callee,omitempty"`
	Arguments    []*jsonNode     `json:"arguments,omitempty"`
	Test         *jsonNode       `json:"test,omitempty"`
	Consequent   *jsonNode       `json:"consequent,omitempty"`
	Alternate    *jsonNode       `json:"alternate,omitempty"`
	Argument     *jsonNode       `json:"argument,omitempty"`
}

type jsonDecl struct {
	Name string    `json:"name"`
	Init *jsonNode `json:"init,omitempty"`
}

// Decode reads exactly one JSON document and returns the Tree it
// describes. Anything but whitespace after the document is an error.
func Decode(r io.Reader) (*Tree, error) {
	dec := json.NewDecoder(r)
	var root jsonNode
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decoding ast: empty input")
		}
		return nil, fmt.Errorf("decoding ast: %w", err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding ast: trailing data after document")
	}

	t := NewTree()
	id, err := t.fromJSON(&root, "$")
	if err != nil {
		return nil, err
	}
	t.Root = id
	return t, nil
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(data []byte) (*Tree, error) {
	return Decode(bytes.NewReader(data))
}

func (t *Tree) fromJSON(j *jsonNode, path string) (NodeID, error) {
	if j == nil {
		return NoNode, fmt.Errorf("decoding ast: %s: missing node", path)
	}
	kind, ok := KindFromString(j.Type)
	if !ok {
		return NoNode, fmt.Errorf("decoding ast: %s: unknown node type %q", path, j.Type)
	}

	n := Node{Kind: kind, Op: j.Op, Name: j.Name}
	var err, valErr error

	switch kind {
	case KindNumber:
		valErr = decodeValue(j.Value, &n.Num)
	case KindInteger:
		var f float64
		if valErr = decodeValue(j.Value, &f); valErr == nil {
			if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
				valErr = fmt.Errorf("%v is not a 32-bit integer", f)
			}
			n.Int = int32(f)
		}
	case KindString:
		valErr = decodeValue(j.Value, &n.Str)
	case KindBoolean:
		valErr = decodeValue(j.Value, &n.Bool)
	case KindNull, KindUndefined, KindIdentifier:
	case KindBinaryOp:
		if j.Op == "" {
			return NoNode, fmt.Errorf("decoding ast: %s: BinaryOp without op", path)
		}
		n.Children, err = t.children(path, []string{"left", "right"}, j.Left, j.Right)
	case KindAssign:
		if n.Op == "" {
			n.Op = "="
		}
		n.Children, err = t.children(path, []string{"right"}, j.Right)
	case KindStatementList:
		n.Children, err = t.list(path+".body", j.Body)
	case KindDeclList:
		dk, ok := declKindFromString(j.Kind)
		if !ok {
			return NoNode, fmt.Errorf("decoding ast: %s: unknown declaration kind %q", path, j.Kind)
		}
		n.DeclKind = dk
		for i, d := range j.Declarations {
			decl := Decl{Name: d.Name, Init: NoNode}
			if d.Name == "" {
				return NoNode, fmt.Errorf("decoding ast: %s.declarations[%d]: missing name", path, i)
			}
			if d.Init != nil {
				decl.Init, err = t.fromJSON(d.Init, fmt.Sprintf("%s.declarations[%d].init", path, i))
				if err != nil {
					return NoNode, err
				}
			}
			n.Decls = append(n.Decls, decl)
		}
	case KindCall:
		n.Children, err = t.children(path, []string{"callee"}, j.Callee)
		if err == nil {
			var args []NodeID
			args, err = t.list(path+".arguments", j.Arguments)
			n.Children = append(n.Children, args...)
		}
	case KindIf:
		names := []string{"test", "consequent"}
		nodes := []*jsonNode{j.Test, j.Consequent}
		if j.Alternate != nil {
			names = append(names, "alternate")
			nodes = append(nodes, j.Alternate)
		}
		n.Children, err = t.children(path, names, nodes...)
	case KindReturn:
		if j.Argument != nil {
			n.Children, err = t.children(path, []string{"argument"}, j.Argument)
		}
	}
	if valErr != nil {
		return NoNode, fmt.Errorf("decoding ast: %s: %w", path, valErr)
	}
	if err != nil {
		return NoNode, err
	}

	return t.Add(n), nil
}

func (t *Tree) children(path string, names []string, nodes ...*jsonNode) ([]NodeID, error) {
	ids := make([]NodeID, 0, len(nodes))
	for i, c := range nodes {
		id, err := t.fromJSON(c, path+"."+names[i])
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (t *Tree) list(path string, nodes []*jsonNode) ([]NodeID, error) {
	ids := make([]NodeID, 0, len(nodes))
	for i, c := range nodes {
		id, err := t.fromJSON(c, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func decodeValue(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return errors.New("missing value")
	}
	return json.Unmarshal(raw, dst)
}
