// pattern: Imperative Shell

// Package gitcli is the only code that talks to git. Queries answer what the
// repository looks like right now (nothing is cached between calls) and the
// mutating calls map one-to-one onto git subcommands.
package gitcli

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"agentwt/internal/logging"
)

// Git runs git commands against the repository containing Dir.
type Git struct {
	dir    string
	remote string
	exec   Executor
	logger *logging.ScopedLogger
}

// Option configures a Git.
type Option func(*Git)

// WithExecutor replaces the command executor.
func WithExecutor(e Executor) Option {
	return func(g *Git) { g.exec = e }
}

// WithLogger sets the logger used for command tracing.
func WithLogger(l *logging.ScopedLogger) Option {
	return func(g *Git) { g.logger = l }
}

// WithRemote sets the remote probed for base refs. Defaults to "origin".
func WithRemote(remote string) Option {
	return func(g *Git) {
		if remote != "" {
			g.remote = remote
		}
	}
}

// New returns a Git bound to dir, which may be any directory inside the
// repository or one of its worktrees.
func New(dir string, opts ...Option) *Git {
	g := &Git{
		dir:    dir,
		remote: "origin",
		exec:   RealExecutor{},
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CommandError is a failed git invocation. Stderr is kept verbatim so it can
// be shown to the user unchanged.
type CommandError struct {
	Args     []string
	Stderr   string
	ExitCode int
	Err      error
}

func (e *CommandError) Error() string {
	msg := "git " + strings.Join(e.Args, " ")
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %s", msg, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// run executes git and returns trimmed stdout.
func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	start := time.Now()
	stdout, stderr, err := g.exec.Run(ctx, g.dir, "git", args...)
	g.logger.Debug("git", "args", strings.Join(args, " "), "took", time.Since(start), "ok", err == nil)
	if err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return "", &CommandError{
			Args:     args,
			Stderr:   strings.TrimSpace(string(stderr)),
			ExitCode: code,
			Err:      err,
		}
	}
	return strings.TrimSpace(string(stdout)), nil
}

// AddWorktreeNewBranch runs `git worktree add -b <branch> <path> <base>`.
func (g *Git) AddWorktreeNewBranch(ctx context.Context, path, branch, base string) error {
	_, err := g.run(ctx, "worktree", "add", "-b", branch, path, base)
	return err
}

// AddWorktreeExistingBranch runs `git worktree add <path> <branch>`.
func (g *Git) AddWorktreeExistingBranch(ctx context.Context, path, branch string) error {
	_, err := g.run(ctx, "worktree", "add", path, branch)
	return err
}

// RemoveWorktree runs `git worktree remove [--force] <path>`. Without force
// git refuses when the worktree has uncommitted changes.
func (g *Git) RemoveWorktree(ctx context.Context, path string, force bool) error {
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	_, err := g.run(ctx, append(args, path)...)
	return err
}

// DeleteBranch runs `git branch -d` or, with force, `git branch -D`.
func (g *Git) DeleteBranch(ctx context.Context, name string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := g.run(ctx, "branch", flag, name)
	return err
}

// FetchPrune fetches every remote and prunes deleted remote-tracking refs.
func (g *Git) FetchPrune(ctx context.Context) error {
	_, err := g.run(ctx, "fetch", "--all", "--prune")
	return err
}
