package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// CommandRunner executes external commands. It returns stdout; on failure
// the error carries stderr.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Env is appended to the inherited environment.
	Env []string
}

// NewExecRunner returns a runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements CommandRunner.
func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return stdout.String(), &Error{
			Op:     "run",
			Cmd:    commandLine(name, args),
			Output: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return stdout.String(), nil
}

func commandLine(name string, args []string) string {
	return strings.TrimSpace(name + " " + strings.Join(args, " "))
}

// MockCall records one invocation of a mock runner.
type MockCall struct {
	Dir  string
	Name string
	Args []string
}

// String renders the call as a command line.
func (c MockCall) String() string {
	return commandLine(c.Name, c.Args)
}

type mockResult struct {
	output string
	err    error
}

// SequentialMockRunner replays queued results in call order. Calls past
// the end of the queue fail.
type SequentialMockRunner struct {
	mu      sync.Mutex
	results []mockResult
	Calls   []MockCall
}

// NewSequentialMockRunner returns an empty sequential mock.
func NewSequentialMockRunner() *SequentialMockRunner {
	return &SequentialMockRunner{}
}

// AddOutput queues a result.
func (m *SequentialMockRunner) AddOutput(output string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, mockResult{output: output, err: err})
}

// AddOutputError queues a failure carrying stderr. A nil err defaults to a
// generic command failure.
func (m *SequentialMockRunner) AddOutputError(output, stderr string, err error) {
	if err == nil {
		err = ErrCommandFailed
	}
	m.AddOutput(output, &Error{Op: "run", Output: stderr, Err: err})
}

// Run implements CommandRunner.
func (m *SequentialMockRunner) Run(_ context.Context, dir, name string, args ...string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{Dir: dir, Name: name, Args: args})
	idx := len(m.Calls) - 1
	if idx >= len(m.results) {
		return "", fmt.Errorf("unexpected call %d: %s", idx, commandLine(name, args))
	}
	r := m.results[idx]
	return r.output, r.err
}

// MockRunner answers by command line. Unregistered commands fail with
// ErrCommandFailed.
type MockRunner struct {
	mu        sync.Mutex
	responses map[string]mockResult
	Calls     []MockCall
}

// NewMockRunner returns an empty keyed mock.
func NewMockRunner() *MockRunner {
	return &MockRunner{responses: make(map[string]mockResult)}
}

// On registers the result for a command line such as "git status --porcelain".
func (m *MockRunner) On(cmdline, output string, err error) *MockRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[cmdline] = mockResult{output: output, err: err}
	return m
}

// Count returns how many times cmdline was run.
func (m *MockRunner) Count(cmdline string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c.String() == cmdline {
			n++
		}
	}
	return n
}

// Run implements CommandRunner.
func (m *MockRunner) Run(_ context.Context, dir, name string, args ...string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := MockCall{Dir: dir, Name: name, Args: args}
	m.Calls = append(m.Calls, call)
	r, ok := m.responses[call.String()]
	if !ok {
		return "", &Error{Op: "run", Cmd: call.String(), Err: ErrCommandFailed}
	}
	return r.output, r.err
}

// IsCommandError reports whether err came from a failed command.
func IsCommandError(err error) bool {
	var gitErr *Error
	return errors.As(err, &gitErr)
}
