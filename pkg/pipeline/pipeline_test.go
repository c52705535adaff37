package pipeline

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bio-mcp/bedtools-mcp/pkg/config"
	"github.com/bio-mcp/bedtools-mcp/pkg/domain/errors"
	"github.com/bio-mcp/bedtools-mcp/pkg/runner"
	"github.com/bio-mcp/bedtools-mcp/pkg/tools"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.TempDir = t.TempDir()
	cfg.Timeout = 5 * time.Second
	return cfg
}

func newPipeline(t *testing.T, cfg *config.Config, fake *runner.FakeCommandRunner) *Pipeline {
	t.Helper()
	return New(cfg, fake, testLogger(), nil)
}

func writeBed(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func toolByName(t *testing.T, name string) *tools.Tool {
	t.Helper()
	tool, ok := tools.Registry()[name]
	require.True(t, ok)
	return tool
}

// requireTyped asserts the error is a typed pipeline error with the given
// status code.
func requireTyped(t *testing.T, err error, status int) *errors.Error {
	t.Helper()
	var typed *errors.Error
	require.ErrorAs(t, err, &typed)
	require.Equal(t, status, typed.Code.HTTPStatus())
	return typed
}

// requireStagingEmpty asserts no staging directory survived the invocation.
func requireStagingEmpty(t *testing.T, cfg *config.Config) {
	t.Helper()
	entries, err := os.ReadDir(cfg.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staging directory must not exist after the invocation returns")
}

func TestIntersectSuccessPassesStdoutThrough(t *testing.T) {
	cfg := testConfig(t)
	fake := &runner.FakeCommandRunner{Stdout: "chr1\t150\t200\tf1"}
	p := newPipeline(t, cfg, fake)

	fileA := writeBed(t, "a.bed", "chr1\t100\t200\tf1\n")
	fileB := writeBed(t, "b.bed", "chr1\t150\t250\tf2\n")

	out, err := p.Run(context.Background(), toolByName(t, "bedtools_intersect"), map[string]any{
		"input_file_a": fileA,
		"input_file_b": fileB,
	})
	require.NoError(t, err)
	assert.Equal(t, "chr1\t150\t200\tf1", out, "stdout must pass through byte-for-byte")

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, cfg.BedtoolsPath, calls[0].Name)
	assert.Equal(t, "intersect", calls[0].Args[0])
	requireStagingEmpty(t, cfg)
}

func TestSuccessPreservesTrailingWhitespace(t *testing.T) {
	cfg := testConfig(t)
	fake := &runner.FakeCommandRunner{Stdout: "chr1\t1\t5\n\n"}
	p := newPipeline(t, cfg, fake)

	out, err := p.Run(context.Background(), toolByName(t, "bedtools_sort"), map[string]any{
		"input_file": writeBed(t, "in.bed", "chr1\t1\t5\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, "chr1\t1\t5\n\n", out, "no trimming of tool output")
}

func TestMissingFileFailsBeforeSpawn(t *testing.T) {
	cfg := testConfig(t)
	fake := &runner.FakeCommandRunner{}
	p := newPipeline(t, cfg, fake)

	_, err := p.Run(context.Background(), toolByName(t, "bedtools_merge"), map[string]any{
		"input_file": "/no/such/file",
	})

	typed := requireTyped(t, err, 404)
	assert.Equal(t, "Input file not found: /no/such/file", typed.Message)
	assert.Empty(t, fake.Calls(), "no subprocess may be spawned for invalid input")
	requireStagingEmpty(t, cfg)
}

func TestIntersectMissingFileBUsesLabel(t *testing.T) {
	cfg := testConfig(t)
	fake := &runner.FakeCommandRunner{}
	p := newPipeline(t, cfg, fake)

	fileA := writeBed(t, "a.bed", "chr1\t100\t200\n")
	_, err := p.Run(context.Background(), toolByName(t, "bedtools_intersect"), map[string]any{
		"input_file_a": fileA,
		"input_file_b": "/missing/b.bed",
	})

	typed := requireTyped(t, err, 404)
	assert.Equal(t, "Input file B not found: /missing/b.bed", typed.Message)
	assert.Empty(t, fake.Calls())
}

func TestOversizedFileFailsBeforeSpawn(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxFileSize = 10
	fake := &runner.FakeCommandRunner{}
	p := newPipeline(t, cfg, fake)

	big := writeBed(t, "big.bed", "chr1\t100\t200\tway-too-long\n")
	_, err := p.Run(context.Background(), toolByName(t, "bedtools_sort"), map[string]any{
		"input_file": big,
	})

	typed := requireTyped(t, err, 413)
	assert.Equal(t, "File too large. Maximum size: 10 bytes", typed.Message)
	assert.Empty(t, fake.Calls(), "the external tool must not be invoked")
	requireStagingEmpty(t, cfg)
}

func TestIntersectOversizedFileAUsesLabel(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxFileSize = 5
	p := newPipeline(t, cfg, &runner.FakeCommandRunner{})

	fileA := writeBed(t, "a.bed", "chr1\t100\t200\n")
	fileB := writeBed(t, "b.bed", "tiny")
	_, err := p.Run(context.Background(), toolByName(t, "bedtools_intersect"), map[string]any{
		"input_file_a": fileA,
		"input_file_b": fileB,
	})

	typed := requireTyped(t, err, 413)
	assert.Equal(t, "File A too large. Maximum size: 5 bytes", typed.Message)
}

func TestNonZeroExitSurfacesStderr(t *testing.T) {
	cfg := testConfig(t)
	fake := &runner.FakeCommandRunner{ExitCode: 1, Stderr: "Error: unable to open file b.bed\n"}
	p := newPipeline(t, cfg, fake)

	_, err := p.Run(context.Background(), toolByName(t, "bedtools_sort"), map[string]any{
		"input_file": writeBed(t, "in.bed", "chr1\t1\t5\n"),
	})

	typed := requireTyped(t, err, 500)
	assert.Equal(t, errors.CodeExecutionFailed, typed.Code)
	assert.Contains(t, typed.Message, "Command failed: ")
	assert.Contains(t, typed.Message, "unable to open file b.bed")
	requireStagingEmpty(t, cfg)
}

func TestTimeoutKillsAndReportsConfiguredSeconds(t *testing.T) {
	cfg := testConfig(t)
	cfg.Timeout = time.Second
	fake := &runner.FakeCommandRunner{Delay: 30 * time.Second}
	p := newPipeline(t, cfg, fake)

	start := time.Now()
	_, err := p.Run(context.Background(), toolByName(t, "bedtools_sort"), map[string]any{
		"input_file": writeBed(t, "in.bed", "chr1\t1\t5\n"),
	})
	elapsed := time.Since(start)

	typed := requireTyped(t, err, 504)
	assert.Equal(t, errors.CodeTimeout, typed.Code)
	assert.Equal(t, "Command timed out after 1 seconds", typed.Message)
	assert.Less(t, elapsed, 5*time.Second, "the deadline must cut the invocation short")
	requireStagingEmpty(t, cfg)
}

func TestLaunchFailureIsExecutionFailure(t *testing.T) {
	cfg := testConfig(t)
	fake := &runner.FakeCommandRunner{Err: stderrors.New(`exec: "bedtools": executable file not found in $PATH`)}
	p := newPipeline(t, cfg, fake)

	_, err := p.Run(context.Background(), toolByName(t, "bedtools_sort"), map[string]any{
		"input_file": writeBed(t, "in.bed", "chr1\t1\t5\n"),
	})

	typed := requireTyped(t, err, 500)
	assert.Equal(t, errors.CodeExecutionFailed, typed.Code)
	assert.Contains(t, typed.Message, "executable file not found")
	requireStagingEmpty(t, cfg)
}

func TestMissingParameterIsInternalError(t *testing.T) {
	cfg := testConfig(t)
	fake := &runner.FakeCommandRunner{}
	p := newPipeline(t, cfg, fake)

	_, err := p.Run(context.Background(), toolByName(t, "bedtools_merge"), map[string]any{})

	typed := requireTyped(t, err, 500)
	assert.Equal(t, errors.CodeInternalError, typed.Code)
	assert.Contains(t, typed.Message, "input_file")
	assert.Empty(t, fake.Calls())
}

func TestPanicBecomesInternalError(t *testing.T) {
	cfg := testConfig(t)
	p := newPipeline(t, cfg, &runner.FakeCommandRunner{})

	boom := &tools.Tool{
		Name:  "bedtools_sort",
		Files: []tools.FileParam{{Name: "input_file"}},
		BuildArgs: func([]string, map[string]any) []string {
			panic("argv builder exploded")
		},
	}

	_, err := p.Run(context.Background(), boom, map[string]any{
		"input_file": writeBed(t, "in.bed", "chr1\t1\t5\n"),
	})

	typed := requireTyped(t, err, 500)
	assert.Equal(t, errors.CodeInternalError, typed.Code)
	assert.Equal(t, "Error: argv builder exploded", typed.Message)
	requireStagingEmpty(t, cfg)
}

func TestCommandRunsAgainstStagedCopies(t *testing.T) {
	cfg := testConfig(t)
	fake := &runner.FakeCommandRunner{Stdout: "chr1\t1\t10\n"}
	p := newPipeline(t, cfg, fake)

	src := writeBed(t, "regions.bed", "chr1\t1\t10\n")
	_, err := p.Run(context.Background(), toolByName(t, "bedtools_merge"), map[string]any{
		"input_file": src,
		"distance":   float64(50),
	})
	require.NoError(t, err)

	calls := fake.Calls()
	require.Len(t, calls, 1)

	// The argv references the staged copy inside the working directory,
	// never the caller's path.
	require.Equal(t, []string{"merge", "-i", filepath.Join(calls[0].Dir, "regions.bed"), "-d", "50"}, calls[0].Args)
	assert.NotContains(t, calls[0].Args[2], filepath.Dir(src))
	assert.Contains(t, calls[0].Dir, cfg.TempDir)
}

func TestConcurrentInvocationsGetDistinctStagingDirs(t *testing.T) {
	cfg := testConfig(t)
	fake := &runner.FakeCommandRunner{Stdout: "ok\n", Delay: 50 * time.Millisecond}
	p := newPipeline(t, cfg, fake)

	src := writeBed(t, "in.bed", "chr1\t1\t5\n")

	const n = 8
	done := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := p.Run(context.Background(), toolByName(t, "bedtools_sort"), map[string]any{
				"input_file": src,
			})
			done <- err
		}()
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-done)
	}

	dirs := make(map[string]bool)
	for _, call := range fake.Calls() {
		dirs[call.Dir] = true
	}
	assert.Len(t, dirs, n, "every invocation owns its staging directory exclusively")
	requireStagingEmpty(t, cfg)
}

func TestStagedCopyPreservesBytes(t *testing.T) {
	cfg := testConfig(t)

	var stagedContent []byte
	fake := &runner.FakeCommandRunner{Stdout: "ok"}
	p := newPipeline(t, cfg, fake)

	content := "chr2\t300\t400\tname\t0\t+\n"
	src := writeBed(t, "in.bed", content)

	// Capture the staged copy before cleanup by reading it from inside a
	// BuildArgs hook.
	tool := &tools.Tool{
		Name:  "bedtools_sort",
		Files: []tools.FileParam{{Name: "input_file"}},
		BuildArgs: func(staged []string, _ map[string]any) []string {
			stagedContent, _ = os.ReadFile(staged[0])
			return []string{"sort", "-i", staged[0]}
		},
	}

	_, err := p.Run(context.Background(), tool, map[string]any{"input_file": src})
	require.NoError(t, err)
	assert.Equal(t, content, string(stagedContent))
}
