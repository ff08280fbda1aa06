// pattern: Imperative Shell

// Package worktree creates and removes isolated worktree/branch pairs for
// independent actors sharing one repository. Every operation validates
// against the live repository state before its single mutating git call and
// never compensates for a failure after that call.
//
// By default nothing is locked and the collision checks race with other
// callers: they are a snapshot read followed by a mutation, so two
// concurrent creates for the same name can both pass the checks and the
// later one then fails inside git. Settings.Lock (off unless --lock or the
// config enables it) opts into an advisory lock under the worktree root that
// closes this window.
package worktree

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"agentwt/internal/config"
	"agentwt/internal/failure"
	"agentwt/internal/gitcli"
	"agentwt/internal/instance"
	"agentwt/internal/logging"
	"agentwt/internal/naming"
)

// Inspector answers read-only questions about the repository.
type Inspector interface {
	IsInsideRepository(ctx context.Context) bool
	TopLevel(ctx context.Context) (string, error)
	ResolveBaseRef(ctx context.Context, explicit string) (string, error)
	VerifyCommit(ctx context.Context, ref string) bool
	BranchExists(ctx context.Context, name string) (bool, error)
	BranchWorktreePath(ctx context.Context, branch string) (string, bool, error)
	WorktreeAt(ctx context.Context, path string) (gitcli.Worktree, bool, error)
	Worktrees(ctx context.Context) ([]gitcli.Worktree, error)
	IsDirty(ctx context.Context) (bool, error)
	LocalBranches(ctx context.Context) ([]string, error)
	CheckBranchName(name string) error
}

// Mutator performs the calls that change repository state.
type Mutator interface {
	AddWorktreeNewBranch(ctx context.Context, path, branch, base string) error
	AddWorktreeExistingBranch(ctx context.Context, path, branch string) error
	RemoveWorktree(ctx context.Context, path string, force bool) error
	DeleteBranch(ctx context.Context, name string, force bool) error
	FetchPrune(ctx context.Context) error
}

// Repository is everything the controller needs from git. *gitcli.Git
// satisfies it.
type Repository interface {
	Inspector
	Mutator
}

// Reporter receives user-facing progress lines and advisory warnings.
type Reporter interface {
	Info(msg string)
	Warn(msg string)
}

// LockFunc takes the advisory lock for a worktree root and returns its release.
type LockFunc func(root string) (unlock func(), err error)

// Controller runs the create and remove protocols.
type Controller struct {
	repo     Repository
	settings config.Settings
	reporter Reporter
	logger   *logging.ScopedLogger
	lock     LockFunc
}

// Option configures a Controller.
type Option func(*Controller)

// WithReporter sets where progress and warnings go.
func WithReporter(r Reporter) Option {
	return func(c *Controller) { c.reporter = r }
}

// WithLogger sets the controller's logger.
func WithLogger(l *logging.ScopedLogger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithLockFunc replaces the advisory lock implementation.
func WithLockFunc(fn LockFunc) Option {
	return func(c *Controller) { c.lock = fn }
}

// New returns a Controller for repo using the resolved settings.
func New(repo Repository, settings config.Settings, opts ...Option) *Controller {
	c := &Controller{
		repo:     repo,
		settings: settings,
		reporter: nopReporter{},
		logger:   logging.NopLogger(),
		lock:     fileLock,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Root returns the absolute directory worktrees are created under.
func (c *Controller) Root(ctx context.Context) (string, error) {
	if err := c.requireRepository(ctx, "root"); err != nil {
		return "", err
	}
	return c.root(ctx)
}

func (c *Controller) root(ctx context.Context) (string, error) {
	var top string
	if c.settings.Root == "" {
		var err error
		top, err = c.repo.TopLevel(ctx)
		if err != nil {
			return "", failure.New(failure.Environment, "root", fmt.Errorf("locating repository top level: %w", err))
		}
	}
	root, err := c.settings.WorktreeRoot(top)
	if err != nil {
		return "", failure.New(failure.Input, "root", err)
	}
	return root, nil
}

func (c *Controller) requireRepository(ctx context.Context, op string) error {
	if !c.repo.IsInsideRepository(ctx) {
		return failure.New(failure.Environment, op, failure.ErrNotInRepository).
			WithHint("run agentwt from inside the repository or one of its worktrees")
	}
	return nil
}

func (c *Controller) resolveNames(taskName, explicitBranch, root string, checker naming.BranchChecker) (naming.Names, error) {
	return naming.Resolve(naming.Request{
		TaskName:       taskName,
		DirPrefix:      c.settings.DirPrefix,
		BranchPrefix:   c.settings.BranchPrefix,
		ExplicitBranch: explicitBranch,
		Root:           root,
	}, checker)
}

// withLock runs fn while holding the advisory lock when it is enabled.
func (c *Controller) withLock(root string, fn func() error) error {
	if !c.settings.Lock {
		return fn()
	}
	unlock, err := c.lock(root)
	if err != nil {
		return err
	}
	defer unlock()
	c.logger.Debug("advisory lock held", "root", root)
	return fn()
}

// pathExists reports whether anything (file, dir or dangling symlink) is at path.
func pathExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func fileLock(root string) (func(), error) {
	fl, err := instance.Lock(root)
	if err != nil {
		return nil, err
	}
	return func() { instance.Unlock(fl) }, nil
}

type nopReporter struct{}

func (nopReporter) Info(string) {}
func (nopReporter) Warn(string) {}

// ListEntry is a worktree annotated with whether agentwt manages it.
type ListEntry struct {
	gitcli.Worktree
	Managed bool
}

// List returns every worktree of the repository, primary first. Managed
// entries live directly under the root with the configured directory prefix.
func (c *Controller) List(ctx context.Context) ([]ListEntry, error) {
	if err := c.requireRepository(ctx, "list"); err != nil {
		return nil, err
	}
	root, err := c.root(ctx)
	if err != nil {
		return nil, err
	}
	wts, err := c.repo.Worktrees(ctx)
	if err != nil {
		return nil, failure.New(failure.ExternalTool, "list", err)
	}

	entries := make([]ListEntry, 0, len(wts))
	for _, wt := range wts {
		entries = append(entries, ListEntry{Worktree: wt, Managed: c.isManaged(root, wt.Path)})
	}
	return entries, nil
}

func (c *Controller) isManaged(root, path string) bool {
	if !gitcli.SamePath(filepath.Dir(path), root) {
		return false
	}
	return strings.HasPrefix(filepath.Base(path), c.settings.DirPrefix)
}

// OrphanBranches returns local branches carrying the branch prefix that no
// worktree has checked out, typically left behind by a plain remove.
func (c *Controller) OrphanBranches(ctx context.Context) ([]string, error) {
	if err := c.requireRepository(ctx, "list"); err != nil {
		return nil, err
	}
	branches, err := c.repo.LocalBranches(ctx)
	if err != nil {
		return nil, failure.New(failure.ExternalTool, "list", err)
	}
	wts, err := c.repo.Worktrees(ctx)
	if err != nil {
		return nil, failure.New(failure.ExternalTool, "list", err)
	}
	checkedOut := make(map[string]bool, len(wts))
	for _, wt := range wts {
		checkedOut[wt.Branch] = true
	}

	var orphans []string
	for _, b := range branches {
		if strings.HasPrefix(b, c.settings.BranchPrefix) && !checkedOut[b] {
			orphans = append(orphans, b)
		}
	}
	return orphans, nil
}
