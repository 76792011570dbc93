// regvm CLI - compiles and runs JSON-encoded syntax trees on the register VM
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/regvm/manifest"
	"github.com/chazu/regvm/pkg/realm"
	"github.com/chazu/regvm/pkg/realm/store"
)

func main() {
	configPath := flag.String("config", "", "Config directory containing regvm.toml (default: search upward from cwd)")
	registers := flag.Int("registers", 0, "Register file size (default from config, else 8)")
	dumpBytecode := flag.Bool("dump-bytecode", false, "Print the compiled bytecode instead of running")
	dumpAST := flag.Bool("dump-ast", false, "Print the decoded syntax tree instead of running")
	storePath := flag.String("store", "", "SQLite file for persistent bindings (default: in memory)")
	realmName := flag.String("realm", "", "Realm name inside the store")
	trace := flag.Bool("trace", false, "Log every dispatched instruction")
	timeout := flag.Duration("timeout", 0, "Per-unit execution deadline (0 = none)")
	verbose := flag.Int("v", 0, "Log verbosity (-4 to 2)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: regvm [options] [file.json...]\n\n")
		fmt.Fprintf(os.Stderr, "Each file holds one syntax tree. With no files, each line of stdin is a tree.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  regvm sum.json                       # Run and print the result\n")
		fmt.Fprintf(os.Stderr, "  regvm -dump-bytecode sum.json        # Show the listing\n")
		fmt.Fprintf(os.Stderr, "  regvm -store state.db -realm s1 a.json b.json\n")
	}
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Flags override file values
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["registers"] {
		cfg.VM.Registers = *registers
	}
	if set["trace"] {
		cfg.VM.Trace = *trace
	}
	if set["store"] {
		cfg.Store.Path = *storePath
		cfg.Dir = ""
	}
	if set["realm"] {
		cfg.Store.Realm = *realmName
	}
	if set["v"] {
		cfg.Log.Verbosity = *verbose
	}
	if err := manifest.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	commonlog.Configure(cfg.Log.Verbosity, nil)
	log := commonlog.GetLogger("regvm")

	env, closeEnv, err := openEnvironment(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := &runner{
		env:          env,
		registers:    cfg.VM.Registers,
		trace:        cfg.VM.Trace,
		dumpBytecode: *dumpBytecode,
		dumpAST:      *dumpAST,
		timeout:      *timeout,
		out:          os.Stdout,
		errOut:       os.Stderr,
		log:          log,
	}

	start := time.Now()
	var failed int
	if flag.NArg() == 0 {
		failed = r.runLines(ctx, "<stdin>", os.Stdin)
	} else {
		failed = r.runFiles(ctx, flag.Args())
	}
	log.Infof("finished in %s, %d unit(s) failed", time.Since(start), failed)

	if failed > 0 {
		closeEnv()
		os.Exit(1)
	}
}

func loadConfig(dir string) (*manifest.Manifest, error) {
	if dir != "" {
		return manifest.Load(dir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := manifest.FindAndLoad(cwd)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = manifest.Default()
	}
	return cfg, nil
}

// openEnvironment returns the SQLite store when a path is configured and a
// fresh in-memory realm otherwise.
func openEnvironment(cfg *manifest.Manifest) (realm.Environment, func(), error) {
	path := cfg.StorePath()
	if path == "" {
		return realm.New().Environment, func() {}, nil
	}
	env, err := store.Open(path, cfg.Store.Realm)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	var closed bool
	return env, func() {
		if !closed {
			closed = true
			env.Close()
		}
	}, nil
}
