// Package manifest handles regvm.toml configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up by FindAndLoad.
const FileName = "regvm.toml"

// Defaults applied to fields the file leaves unset.
const (
	DefaultRegisters = 8
	DefaultVerbosity = 0
	DefaultRealm     = "global"
)

// Manifest represents a regvm.toml configuration.
type Manifest struct {
	VM    VMConfig    `toml:"vm" json:"vm"`
	Store StoreConfig `toml:"store" json:"store"`
	Log   LogConfig   `toml:"log" json:"log"`

	// Dir is the directory containing the regvm.toml file (set at load time).
	Dir string `toml:"-" json:"-"`
}

// VMConfig configures the compiler and VM.
type VMConfig struct {
	Registers int  `toml:"registers" json:"registers"`
	Trace     bool `toml:"trace" json:"trace"`
}

// StoreConfig configures the persistent binding store. An empty Path keeps
// bindings in memory.
type StoreConfig struct {
	Path  string `toml:"path" json:"path"`
	Realm string `toml:"realm" json:"realm"`
}

// LogConfig configures commonlog verbosity.
type LogConfig struct {
	Verbosity int `toml:"verbosity" json:"verbosity"`
}

// Default returns the configuration used when no file is found.
func Default() *Manifest {
	m := &Manifest{}
	m.applyDefaults()
	return m
}

// Load parses a regvm.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// Parse decodes, defaults and validates configuration text.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	m.applyDefaults()
	if err := Validate(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) applyDefaults() {
	if m.VM.Registers == 0 {
		m.VM.Registers = DefaultRegisters
	}
	if m.Store.Realm == "" {
		m.Store.Realm = DefaultRealm
	}
}

// FindAndLoad walks up from startDir to find a regvm.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// StorePath returns the store path resolved against the manifest directory,
// or "" when bindings are kept in memory.
func (m *Manifest) StorePath() string {
	if m.Store.Path == "" || filepath.IsAbs(m.Store.Path) || m.Dir == "" {
		return m.Store.Path
	}
	return filepath.Join(m.Dir, m.Store.Path)
}
