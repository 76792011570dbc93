// Package realm provides the binding environment the VM resolves
// identifiers against: the Environment capability set, an in-memory
// lexical scope chain implementing it, and the Realm that owns one.
package realm

import (
	"errors"
	"fmt"

	"github.com/chazu/regvm/pkg/value"
)

// ScopeKind selects which scope a new binding lands in.
type ScopeKind uint8

const (
	// ScopeFunction binds in the nearest function (var) scope.
	ScopeFunction ScopeKind = iota
	// ScopeBlock binds in the innermost scope.
	ScopeBlock
)

// String returns a human-readable name for ScopeKind.
func (k ScopeKind) String() string {
	switch k {
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	default:
		return fmt.Sprintf("ScopeKind(%d)", k)
	}
}

var (
	// ErrImmutableBinding is returned when a strict assignment targets an immutable binding.
	ErrImmutableBinding = errors.New("assignment to immutable binding")
	// ErrUninitialized is returned when a binding is used before initialization.
	ErrUninitialized = errors.New("binding is not initialized")
	// ErrUnresolvable is returned when no scope holds the name.
	ErrUnresolvable = errors.New("unresolvable reference")
	// ErrAlreadyDeclared is returned when a scope already holds the name.
	ErrAlreadyDeclared = errors.New("binding already declared")
)

// BindingError names the binding an environment operation failed on.
type BindingError struct {
	Name string
	Err  error
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("%s: %q", e.Err, e.Name)
}

func (e *BindingError) Unwrap() error {
	return e.Err
}

func bindingError(name string, err error) error {
	return &BindingError{Name: name, Err: err}
}

// Environment is the binding capability set the VM invokes from BIND.
// Implementations own every binding; callers only hold names and values.
type Environment interface {
	// HasBinding reports whether name resolves anywhere in the scope chain.
	HasBinding(name string) bool
	// CreateMutableBinding declares an uninitialized mutable binding.
	CreateMutableBinding(name string, deletable bool, scope ScopeKind) error
	// SetMutableBinding assigns to an existing binding. With strict set, an
	// immutable or missing target is an error; otherwise a missing target is
	// created in the outermost scope and immutable targets are left alone.
	SetMutableBinding(name string, v value.Value, strict bool) error
	// InitializeBinding gives a declared binding its first value.
	InitializeBinding(name string, v value.Value) error
	// GetBindingValue reads a binding.
	GetBindingValue(name string, strict bool) (value.Value, error)
}
