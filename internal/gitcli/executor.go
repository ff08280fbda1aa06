// pattern: Imperative Shell

package gitcli

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// Executor runs external commands. Production code uses RealExecutor;
// tests inject MockExecutor with canned responses.
type Executor interface {
	// Run executes a command and returns stdout, stderr, and any error.
	Run(ctx context.Context, dir string, name string, args ...string) (stdout, stderr []byte, err error)
}

// RealExecutor executes commands using os/exec.
type RealExecutor struct{}

// Run executes a command in dir and captures both output streams.
func (RealExecutor) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// MockResponse is a canned result for MockExecutor.
type MockResponse struct {
	Stdout []byte
	Stderr []byte
	Err    error
}

// MockCall records one invocation seen by MockExecutor.
type MockCall struct {
	Dir  string
	Name string
	Args []string
}

// String renders the call the way a shell would show it.
func (c MockCall) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// MockExecutor returns responses keyed by the full command line
// ("git worktree list --porcelain"). Unknown commands fail.
type MockExecutor struct {
	mu        sync.Mutex
	responses map[string]MockResponse
	calls     []MockCall
}

// NewMockExecutor returns an empty MockExecutor.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{responses: make(map[string]MockResponse)}
}

// AddResponse registers the response for a command line.
func (m *MockExecutor) AddResponse(cmdline string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[cmdline] = resp
}

// Run implements Executor.
func (m *MockExecutor) Run(_ context.Context, dir string, name string, args ...string) ([]byte, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := MockCall{Dir: dir, Name: name, Args: append([]string(nil), args...)}
	m.calls = append(m.calls, call)

	resp, ok := m.responses[call.String()]
	if !ok {
		return nil, []byte("unexpected command"), fmt.Errorf("mock: no response for %q", call.String())
	}
	return resp.Stdout, resp.Stderr, resp.Err
}

// Calls returns every recorded invocation in order.
func (m *MockExecutor) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}
