// Package runner executes external commands with bounded lifetimes and
// fully captured output.
package runner

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
)

// ExecutionResult holds the outcome of one completed process run.
type ExecutionResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// CommandRunner is an interface for executing commands and getting the
// captured output. A nil error with a non-zero ExitCode means the process
// ran and failed; a non-nil error means it never produced a usable result
// (start failure or context cancellation).
type CommandRunner interface {
	Run(ctx context.Context, dir string, name string, args ...string) (*ExecutionResult, error)
}

// DefaultCommandRunner runs commands via os/exec. Stdout and stderr are
// captured into separate buffers and never interleaved with the server's
// own stdio, which belongs to the MCP transport.
type DefaultCommandRunner struct {
	logger *slog.Logger
}

var _ CommandRunner = &DefaultCommandRunner{}

func NewDefaultCommandRunner(logger *slog.Logger) *DefaultCommandRunner {
	return &DefaultCommandRunner{logger: logger.With("component", "runner")}
}

func (d *DefaultCommandRunner) Run(ctx context.Context, dir string, name string, args ...string) (*ExecutionResult, error) {
	d.logger.Debug("running command", "name", name, "args", args, "dir", dir)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	// Context expiry kills the process (SIGKILL, no escalation) and
	// surfaces as the context error; partial output is discarded.
	if ctxErr := ctx.Err(); ctxErr != nil {
		d.logger.Debug("command cancelled", "name", name, "cause", ctxErr)
		return nil, ctxErr
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			d.logger.Debug("command exited non-zero", "name", name, "exit_code", exitErr.ExitCode())
			return &ExecutionResult{
				ExitCode: exitErr.ExitCode(),
				Stdout:   stdout.Bytes(),
				Stderr:   stderr.Bytes(),
			}, nil
		}
		// Start failure (executable missing etc.), distinct from a
		// non-zero exit.
		return nil, err
	}

	d.logger.Debug("command completed", "name", name, "stdout_bytes", stdout.Len())
	return &ExecutionResult{
		ExitCode: 0,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
	}, nil
}
