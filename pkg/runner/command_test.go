package runner

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDefaultCommandRunnerCapturesStdout(t *testing.T) {
	r := NewDefaultCommandRunner(testLogger())

	res, err := r.Run(context.Background(), t.TempDir(), "sh", "-c", "printf 'chr1\t100\t200\n'")
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "chr1\t100\t200\n", string(res.Stdout))
	assert.Empty(t, res.Stderr)
}

func TestDefaultCommandRunnerSplitsStderr(t *testing.T) {
	r := NewDefaultCommandRunner(testLogger())

	res, err := r.Run(context.Background(), t.TempDir(), "sh", "-c", "echo out; echo err >&2")
	require.NoError(t, err)

	assert.Equal(t, "out\n", string(res.Stdout))
	assert.Equal(t, "err\n", string(res.Stderr))
}

func TestDefaultCommandRunnerNonZeroExit(t *testing.T) {
	r := NewDefaultCommandRunner(testLogger())

	res, err := r.Run(context.Background(), t.TempDir(), "sh", "-c", "echo broken >&2; exit 3")
	require.NoError(t, err, "non-zero exit is a result, not an error")

	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "broken\n", string(res.Stderr))
}

func TestDefaultCommandRunnerUsesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	r := NewDefaultCommandRunner(testLogger())

	res, err := r.Run(context.Background(), dir, "pwd")
	require.NoError(t, err)
	assert.Contains(t, string(res.Stdout), dir)
}

func TestDefaultCommandRunnerStartFailure(t *testing.T) {
	r := NewDefaultCommandRunner(testLogger())

	res, err := r.Run(context.Background(), t.TempDir(), "/no/such/binary")
	require.Error(t, err)
	assert.Nil(t, res)
}

func TestDefaultCommandRunnerTimeoutKillsProcess(t *testing.T) {
	r := NewDefaultCommandRunner(testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	res, err := r.Run(ctx, t.TempDir(), "sh", "-c", "sleep 30")
	elapsed := time.Since(start)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, res, "partial output is discarded on timeout")
	assert.Less(t, elapsed, 5*time.Second, "process must be killed, not waited for")
}

func TestFakeCommandRunnerRecordsCalls(t *testing.T) {
	f := &FakeCommandRunner{Stdout: "ok\n"}

	res, err := f.Run(context.Background(), "/work", "bedtools", "sort", "-i", "a.bed")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", string(res.Stdout))

	calls := f.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/work", calls[0].Dir)
	assert.Equal(t, "bedtools", calls[0].Name)
	assert.Equal(t, []string{"sort", "-i", "a.bed"}, calls[0].Args)
}

func TestFakeCommandRunnerDelayHonorsContext(t *testing.T) {
	f := &FakeCommandRunner{Delay: 10 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.Run(ctx, "", "bedtools")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
