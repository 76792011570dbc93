package realm

import (
	"github.com/chazu/regvm/pkg/value"
)

type binding struct {
	value       value.Value
	mutable     bool
	deletable   bool
	initialized bool
}

type scope struct {
	kind     ScopeKind
	bindings map[string]*binding
	parent   *scope
}

func newScope(kind ScopeKind, parent *scope) *scope {
	return &scope{kind: kind, bindings: make(map[string]*binding), parent: parent}
}

// Lexical is an in-memory scope chain of declarative environment records.
// The outermost scope is the global function scope and is never popped.
// Lexical does no locking; one goroutine owns it at a time.
type Lexical struct {
	current *scope
	global  *scope
}

// NewLexical creates an environment holding only the global scope.
func NewLexical() *Lexical {
	g := newScope(ScopeFunction, nil)
	return &Lexical{current: g, global: g}
}

// PushScope enters a new innermost scope.
func (l *Lexical) PushScope(kind ScopeKind) {
	l.current = newScope(kind, l.current)
}

// PopScope leaves the innermost scope. Popping the global scope is a no-op.
func (l *Lexical) PopScope() {
	if l.current.parent != nil {
		l.current = l.current.parent
	}
}

// Depth returns the number of scopes in the chain, including the global one.
func (l *Lexical) Depth() int {
	n := 0
	for s := l.current; s != nil; s = s.parent {
		n++
	}
	return n
}

func (l *Lexical) lookup(name string) *binding {
	for s := l.current; s != nil; s = s.parent {
		if b, ok := s.bindings[name]; ok {
			return b
		}
	}
	return nil
}

func (l *Lexical) target(kind ScopeKind) *scope {
	if kind == ScopeBlock {
		return l.current
	}
	s := l.current
	for s.kind != ScopeFunction && s.parent != nil {
		s = s.parent
	}
	return s
}

// HasBinding reports whether name resolves in the scope chain.
func (l *Lexical) HasBinding(name string) bool {
	return l.lookup(name) != nil
}

// CreateMutableBinding declares name in the scope selected by kind.
func (l *Lexical) CreateMutableBinding(name string, deletable bool, kind ScopeKind) error {
	s := l.target(kind)
	if _, exists := s.bindings[name]; exists {
		return bindingError(name, ErrAlreadyDeclared)
	}
	s.bindings[name] = &binding{value: value.Undefined(), mutable: true, deletable: deletable}
	return nil
}

// CreateImmutableBinding declares a binding that strict assignment rejects
// once initialized.
func (l *Lexical) CreateImmutableBinding(name string, kind ScopeKind) error {
	s := l.target(kind)
	if _, exists := s.bindings[name]; exists {
		return bindingError(name, ErrAlreadyDeclared)
	}
	s.bindings[name] = &binding{value: value.Undefined()}
	return nil
}

// InitializeBinding sets the first value of a declared binding.
func (l *Lexical) InitializeBinding(name string, v value.Value) error {
	b := l.lookup(name)
	if b == nil {
		return bindingError(name, ErrUnresolvable)
	}
	b.value = v
	b.initialized = true
	return nil
}

// SetMutableBinding assigns v to name.
func (l *Lexical) SetMutableBinding(name string, v value.Value, strict bool) error {
	b := l.lookup(name)
	if b == nil {
		if strict {
			return bindingError(name, ErrUnresolvable)
		}
		l.global.bindings[name] = &binding{value: v, mutable: true, deletable: true, initialized: true}
		return nil
	}
	if !b.initialized {
		return bindingError(name, ErrUninitialized)
	}
	if !b.mutable {
		if strict {
			return bindingError(name, ErrImmutableBinding)
		}
		return nil
	}
	b.value = v
	return nil
}

// GetBindingValue reads name. Unresolvable names read as undefined unless strict.
func (l *Lexical) GetBindingValue(name string, strict bool) (value.Value, error) {
	b := l.lookup(name)
	if b == nil {
		if strict {
			return value.Undefined(), bindingError(name, ErrUnresolvable)
		}
		return value.Undefined(), nil
	}
	if !b.initialized {
		return value.Undefined(), bindingError(name, ErrUninitialized)
	}
	return b.value, nil
}

// DeleteBinding removes a deletable binding from the innermost scope that
// holds it. It reports whether the name is gone afterwards.
func (l *Lexical) DeleteBinding(name string) bool {
	for s := l.current; s != nil; s = s.parent {
		if b, ok := s.bindings[name]; ok {
			if !b.deletable {
				return false
			}
			delete(s.bindings, name)
			return true
		}
	}
	return true
}
