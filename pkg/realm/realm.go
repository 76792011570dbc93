package realm

import (
	"github.com/google/uuid"
)

// Realm owns the global environment for one embedding of the VM.
type Realm struct {
	ID          string
	Environment *Lexical
}

// New creates a realm with a fresh global scope.
func New() *Realm {
	return &Realm{
		ID:          "realm_" + uuid.New().String(),
		Environment: NewLexical(),
	}
}
