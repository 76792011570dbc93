// Package store provides a SQLite-backed realm.Environment. Bindings are
// kept in a single global scope per realm and survive process restarts, so
// running the same unit twice against one store declares on the first run
// and updates on the second.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/regvm/pkg/realm"
	"github.com/chazu/regvm/pkg/value"
)

// DefaultRealm is the realm name used when Open is given none.
const DefaultRealm = "global"

// Environment persists bindings for one realm in a SQLite database.
type Environment struct {
	db     *sql.DB
	dbPath string
	realm  string
	mu     sync.Mutex
	log    commonlog.Logger
}

var _ realm.Environment = (*Environment)(nil)

// Open opens (creating if needed) the database at dbPath and returns the
// environment for realmName.
func Open(dbPath, realmName string) (*Environment, error) {
	if realmName == "" {
		realmName = DefaultRealm
	}
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS bindings (
		realm       TEXT    NOT NULL,
		name        TEXT    NOT NULL,
		scope       INTEGER NOT NULL,
		deletable   INTEGER NOT NULL,
		mutable     INTEGER NOT NULL,
		initialized INTEGER NOT NULL,
		data        BLOB,
		PRIMARY KEY (realm, name)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Environment{
		db:     db,
		dbPath: dbPath,
		realm:  realmName,
		log:    commonlog.GetLogger("regvm.store"),
	}, nil
}

// Close closes the database connection
func (e *Environment) Close() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}

// Realm returns the realm name this environment stores bindings for.
func (e *Environment) Realm() string {
	return e.realm
}

// Path returns the database file path.
func (e *Environment) Path() string {
	return e.dbPath
}

type row struct {
	mutable     bool
	initialized bool
	data        []byte
}

func (e *Environment) load(name string) (*row, error) {
	var r row
	err := e.db.QueryRow(
		"SELECT mutable, initialized, data FROM bindings WHERE realm = ? AND name = ?",
		e.realm, name,
	).Scan(&r.mutable, &r.initialized, &r.data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying binding: %w", err)
	}
	return &r, nil
}

// HasBinding reports whether name is stored. Query failures are logged and
// report false.
func (e *Environment) HasBinding(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, err := e.load(name)
	if err != nil {
		e.log.Errorf("has binding %q: %s", name, err)
		return false
	}
	return r != nil
}

// CreateMutableBinding stores an uninitialized mutable binding.
func (e *Environment) CreateMutableBinding(name string, deletable bool, scope realm.ScopeKind) error {
	return e.create(name, deletable, true, scope)
}

// CreateImmutableBinding stores an uninitialized immutable binding.
func (e *Environment) CreateImmutableBinding(name string, scope realm.ScopeKind) error {
	return e.create(name, false, false, scope)
}

func (e *Environment) create(name string, deletable, mutable bool, scope realm.ScopeKind) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	res, err := e.db.Exec(
		`INSERT INTO bindings (realm, name, scope, deletable, mutable, initialized, data)
		 VALUES (?, ?, ?, ?, ?, 0, NULL)
		 ON CONFLICT (realm, name) DO NOTHING`,
		e.realm, name, int(scope), deletable, mutable,
	)
	if err != nil {
		return fmt.Errorf("creating binding: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &realm.BindingError{Name: name, Err: realm.ErrAlreadyDeclared}
	}
	e.log.Debugf("created binding %q in realm %s", name, e.realm)
	return nil
}

// InitializeBinding stores the first value of a declared binding.
func (e *Environment) InitializeBinding(name string, v value.Value) error {
	data, err := MarshalValue(v)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	res, err := e.db.Exec(
		"UPDATE bindings SET data = ?, initialized = 1 WHERE realm = ? AND name = ?",
		data, e.realm, name,
	)
	if err != nil {
		return fmt.Errorf("initializing binding: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &realm.BindingError{Name: name, Err: realm.ErrUnresolvable}
	}
	return nil
}

// SetMutableBinding assigns to a stored binding, with the same strict and
// sloppy behavior as realm.Lexical.
func (e *Environment) SetMutableBinding(name string, v value.Value, strict bool) error {
	data, err := MarshalValue(v)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	r, err := e.load(name)
	if err != nil {
		return err
	}
	switch {
	case r == nil:
		if strict {
			return &realm.BindingError{Name: name, Err: realm.ErrUnresolvable}
		}
		_, err = e.db.Exec(
			`INSERT INTO bindings (realm, name, scope, deletable, mutable, initialized, data)
			 VALUES (?, ?, ?, 1, 1, 1, ?)`,
			e.realm, name, int(realm.ScopeFunction), data,
		)
	case !r.initialized:
		return &realm.BindingError{Name: name, Err: realm.ErrUninitialized}
	case !r.mutable:
		if strict {
			return &realm.BindingError{Name: name, Err: realm.ErrImmutableBinding}
		}
		return nil
	default:
		_, err = e.db.Exec(
			"UPDATE bindings SET data = ? WHERE realm = ? AND name = ?",
			data, e.realm, name,
		)
	}
	if err != nil {
		return fmt.Errorf("setting binding: %w", err)
	}
	return nil
}

// GetBindingValue reads a stored binding.
func (e *Environment) GetBindingValue(name string, strict bool) (value.Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, err := e.load(name)
	if err != nil {
		return value.Undefined(), err
	}
	if r == nil {
		if strict {
			return value.Undefined(), &realm.BindingError{Name: name, Err: realm.ErrUnresolvable}
		}
		return value.Undefined(), nil
	}
	if !r.initialized {
		return value.Undefined(), &realm.BindingError{Name: name, Err: realm.ErrUninitialized}
	}
	return UnmarshalValue(r.data)
}

// Names returns the names bound in this realm, sorted.
func (e *Environment) Names() ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rows, err := e.db.Query("SELECT name FROM bindings WHERE realm = ? ORDER BY name", e.realm)
	if err != nil {
		return nil, fmt.Errorf("listing bindings: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning binding: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
