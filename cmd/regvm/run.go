package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/regvm/pkg/ast"
	"github.com/chazu/regvm/pkg/bytecode"
	"github.com/chazu/regvm/pkg/realm"
)

// runner processes units against one shared environment. A failing unit is
// reported and the next one still runs.
type runner struct {
	env          realm.Environment
	registers    int
	trace        bool
	dumpBytecode bool
	dumpAST      bool
	timeout      time.Duration

	out    io.Writer
	errOut io.Writer
	log    commonlog.Logger
}

// runFiles runs each file as one unit and returns the number that failed.
func (r *runner) runFiles(ctx context.Context, paths []string) int {
	var failed int
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(r.errOut, "%s: %v\n", path, err)
			failed++
			continue
		}
		if err := r.runUnit(ctx, path, data); err != nil {
			failed++
		}
	}
	return failed
}

// runLines treats every non-blank line of in as a unit.
func (r *runner) runLines(ctx context.Context, name string, in io.Reader) int {
	var failed, line int
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		if err := r.runUnit(ctx, fmt.Sprintf("%s:%d", name, line), data); err != nil {
			failed++
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(r.errOut, "%s: %v\n", name, err)
		failed++
	}
	return failed
}

// runUnit decodes, compiles and runs one tree, printing the result or a
// diagnostic labeled with the unit name.
func (r *runner) runUnit(ctx context.Context, name string, data []byte) error {
	err := r.execute(ctx, name, data)
	if err != nil {
		fmt.Fprintf(r.errOut, "%s: %v\n", name, err)
	}
	return err
}

func (r *runner) execute(ctx context.Context, name string, data []byte) error {
	runID := uuid.New().String()
	r.log.Debugf("unit %s: run %s", name, runID)

	tree, err := ast.DecodeBytes(data)
	if err != nil {
		return err
	}
	if r.dumpAST {
		fmt.Fprintln(r.out, tree.Describe(tree.Root))
		return nil
	}

	prog, err := bytecode.NewCompiler(r.registers).Compile(tree)
	if err != nil {
		return err
	}
	if r.dumpBytecode {
		fmt.Fprint(r.out, prog.DisassembleWithName(name))
		return nil
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	vm := bytecode.NewVM(r.env, r.registers)
	vm.Trace = r.trace
	vm.SetStepHook(func(int, bytecode.Instruction) error {
		return ctx.Err()
	})

	result, err := vm.Run(prog)
	if err != nil {
		return err
	}
	r.log.Debugf("unit %s: run %s completed", name, runID)
	fmt.Fprintln(r.out, result)
	return nil
}
