// Package pipeline implements the validated external-command execution
// pipeline: stage untrusted input files into an isolated directory, run
// bedtools under a timeout, and translate the process outcome into a typed
// result.
package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/bio-mcp/bedtools-mcp/pkg/config"
	"github.com/bio-mcp/bedtools-mcp/pkg/domain/errors"
	"github.com/bio-mcp/bedtools-mcp/pkg/runner"
	"github.com/bio-mcp/bedtools-mcp/pkg/telemetry"
	"github.com/bio-mcp/bedtools-mcp/pkg/tools"
)

const domain = "pipeline"

// Pipeline runs tool invocations. It is safe for concurrent use: the only
// shared state is the read-only configuration and the metrics counters.
type Pipeline struct {
	cfg     *config.Config
	runner  runner.CommandRunner
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

func New(cfg *config.Config, run runner.CommandRunner, logger *slog.Logger, metrics *telemetry.Metrics) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		runner:  run,
		logger:  logger.With("component", "pipeline"),
		metrics: metrics,
	}
}

// Run executes one invocation of the given tool: validate, stage, execute,
// translate. Every failure returns a typed *errors.Error; no fault escapes,
// panics included. The staging directory is removed on every exit path.
func (p *Pipeline) Run(ctx context.Context, tool *tools.Tool, args map[string]any) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("panic during invocation", "tool", tool.Name, "panic", r)
			out = ""
			err = errors.New(errors.CodeInternalError, domain, fmt.Sprintf("Error: %v", r), nil)
		}
	}()

	files, err := p.validate(tool, args)
	if err != nil {
		return "", err
	}

	dir, staged, stageErr := p.stage(files)
	if dir != "" {
		defer p.cleanup(dir)
	}
	if stageErr != nil {
		return "", stageErr
	}

	argv := tool.BuildArgs(staged, args)

	result, runErr := p.execute(ctx, dir, argv)
	if runErr != nil {
		return "", runErr
	}

	return p.translate(result)
}

// execute runs the external tool under the configured timeout.
func (p *Pipeline) execute(ctx context.Context, dir string, argv []string) (*runner.ExecutionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	result, err := p.runner.Run(ctx, dir, p.cfg.BedtoolsPath, argv...)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.New(errors.CodeTimeout, domain,
				fmt.Sprintf("Command timed out after %d seconds", p.cfg.TimeoutSeconds()), err)
		}
		// Launch failure, distinct from a non-zero exit.
		return nil, errors.New(errors.CodeExecutionFailed, domain,
			fmt.Sprintf("Error: %v", err), err)
	}
	return result, nil
}

// translate maps the process result to the typed outcome. Stdout passes
// through byte-for-byte; no trimming, no reformatting.
func (p *Pipeline) translate(result *runner.ExecutionResult) (string, error) {
	if result.ExitCode != 0 {
		return "", errors.New(errors.CodeExecutionFailed, domain,
			fmt.Sprintf("Command failed: %s", result.Stderr), nil)
	}
	return string(result.Stdout), nil
}

func (p *Pipeline) cleanup(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		p.logger.Warn("failed to remove staging directory", "dir", dir, "error", err)
	}
}
