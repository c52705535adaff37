package runner

import (
	"context"
	"sync"
	"time"
)

// Call records one invocation observed by the fake.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// FakeCommandRunner is a test double returning canned results.
type FakeCommandRunner struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
	// Delay makes Run block until the delay elapses or the context
	// expires, for exercising timeout paths.
	Delay time.Duration

	mu    sync.Mutex
	calls []Call
}

var _ CommandRunner = &FakeCommandRunner{}

func (f *FakeCommandRunner) Run(ctx context.Context, dir string, name string, args ...string) (*ExecutionResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Dir: dir, Name: name, Args: args})
	f.mu.Unlock()

	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Err != nil {
		return nil, f.Err
	}

	return &ExecutionResult{
		ExitCode: f.ExitCode,
		Stdout:   []byte(f.Stdout),
		Stderr:   []byte(f.Stderr),
	}, nil
}

// Calls returns a copy of all recorded invocations.
func (f *FakeCommandRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}
