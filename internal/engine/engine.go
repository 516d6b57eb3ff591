// Package engine dispatches to the external Snakemake executable: it
// assembles the invocation, stages declared resources around the call and
// propagates the engine's exit status.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"snk/internal/logger"
)

// ExecError carries the engine's own nonzero exit status so it can be
// propagated unchanged as this tool's exit code.
type ExecError struct {
	Code int
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("engine exited with status %d", e.Code)
}

// Engine runs the external workflow engine.
type Engine struct {
	Command    string // engine executable, normally "snakemake"
	DotCommand string // graphviz renderer used for DAG output
	Stdout     io.Writer
	Stderr     io.Writer
	Log        *logger.Logger
}

// New returns an Engine wired to the process's standard streams.
func New(log *logger.Logger) *Engine {
	return &Engine{
		Command:    "snakemake",
		DotCommand: "dot",
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Log:        log,
	}
}

// Run executes the engine with the given argument vector. A nonzero engine
// exit becomes an ExecError; failing to start the engine at all is an
// ordinary error.
func (e *Engine) Run(ctx context.Context, argv []string) error {
	e.Log.Debug("invoking engine", "command", e.Command, "args", strings.Join(argv, " "))

	cmd := exec.CommandContext(ctx, e.Command, argv...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	err := cmd.Run()
	var exit *exec.ExitError
	if errors.As(err, &exit) {
		return &ExecError{Code: exit.ExitCode()}
	}
	if err != nil {
		return fmt.Errorf("running %s: %w", e.Command, err)
	}
	return nil
}

// capture runs the engine collecting stdout. Engine exit status is ignored:
// some informational modes report nonzero while still producing usable
// output.
func (e *Engine) capture(ctx context.Context, argv []string) ([]byte, error) {
	e.Log.Debug("capturing engine output", "command", e.Command, "args", strings.Join(argv, " "))

	var buf bytes.Buffer
	cmd := exec.CommandContext(ctx, e.Command, argv...)
	cmd.Stdout = &buf
	cmd.Stderr = e.Stderr

	err := cmd.Run()
	var exit *exec.ExitError
	if err != nil && !errors.As(err, &exit) {
		return nil, fmt.Errorf("running %s: %w", e.Command, err)
	}
	return buf.Bytes(), nil
}

// CommandAvailable reports whether an executable is on PATH. Used to pick
// the conda frontend.
func CommandAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
