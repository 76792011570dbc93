package manifest

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

var (
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	schemaDef  cue.Value
	schemaErr  error

	// guards schemaCtx, which is not safe for concurrent use
	schemaMu sync.Mutex
)

func loadSchema() {
	schemaCtx = cuecontext.New()
	v := schemaCtx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		schemaErr = fmt.Errorf("compiling schema: %w", err)
		return
	}
	schemaDef = v.LookupPath(cue.ParsePath("#Manifest"))
	if err := schemaDef.Err(); err != nil {
		schemaErr = fmt.Errorf("schema has no #Manifest: %w", err)
	}
}

// Validate checks m against the embedded CUE schema. It is safe to call
// from multiple goroutines.
func Validate(m *Manifest) error {
	schemaOnce.Do(loadSchema)
	if schemaErr != nil {
		return schemaErr
	}

	schemaMu.Lock()
	defer schemaMu.Unlock()

	val := schemaCtx.Encode(m)
	if err := val.Err(); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := schemaDef.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %s", errors.Details(err, nil))
	}
	return nil
}
