package worktree

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"testing"

	"agentwt/internal/config"
	"agentwt/internal/failure"
	"agentwt/internal/gitcli"
	"agentwt/internal/logging"
)

// fakeRepo is an in-memory repository. Mutations touch the real filesystem
// only to create and delete worktree directories so path checks behave.
type fakeRepo struct {
	outside   bool
	top       string
	branches  map[string]bool
	worktrees []gitcli.Worktree
	base      string // what ResolveBaseRef picks without an explicit ref
	commits   map[string]bool
	dirty     bool

	fetchErr  error
	addErr    error
	removeErr error
	deleteErr error

	calls []string
}

func newFakeRepo(t *testing.T) *fakeRepo {
	t.Helper()
	return &fakeRepo{
		top:       "/src/repo",
		branches:  map[string]bool{"main": true},
		worktrees: []gitcli.Worktree{{Path: "/src/repo", Branch: "main"}},
		base:      "main",
		commits:   map[string]bool{"main": true, "HEAD": true},
	}
}

func (f *fakeRepo) IsInsideRepository(context.Context) bool { return !f.outside }

func (f *fakeRepo) TopLevel(context.Context) (string, error) { return f.top, nil }

func (f *fakeRepo) ResolveBaseRef(_ context.Context, explicit string) (string, error) {
	if explicit == "" {
		return f.base, nil
	}
	if !f.commits[explicit] {
		return "", failure.New(failure.Ref, "resolve base", failure.ErrBaseRefNotFound).About(explicit)
	}
	return explicit, nil
}

func (f *fakeRepo) VerifyCommit(_ context.Context, ref string) bool { return f.commits[ref] }

func (f *fakeRepo) BranchExists(_ context.Context, name string) (bool, error) {
	return f.branches[name], nil
}

func (f *fakeRepo) BranchWorktreePath(_ context.Context, branch string) (string, bool, error) {
	for _, wt := range f.worktrees {
		if wt.Branch == branch {
			return wt.Path, true, nil
		}
	}
	return "", false, nil
}

func (f *fakeRepo) WorktreeAt(_ context.Context, path string) (gitcli.Worktree, bool, error) {
	for _, wt := range f.worktrees {
		if gitcli.SamePath(wt.Path, path) {
			return wt, true, nil
		}
	}
	return gitcli.Worktree{}, false, nil
}

func (f *fakeRepo) Worktrees(context.Context) ([]gitcli.Worktree, error) {
	return append([]gitcli.Worktree(nil), f.worktrees...), nil
}

func (f *fakeRepo) IsDirty(context.Context) (bool, error) { return f.dirty, nil }

func (f *fakeRepo) LocalBranches(context.Context) ([]string, error) {
	out := make([]string, 0, len(f.branches))
	for b := range f.branches {
		out = append(out, b)
	}
	slices.Sort(out)
	return out, nil
}

func (f *fakeRepo) CheckBranchName(name string) error {
	if strings.ContainsAny(name, " ~^:") || strings.HasPrefix(name, "-") {
		return fmt.Errorf("'%s' is not a valid branch name", name)
	}
	return nil
}

func (f *fakeRepo) AddWorktreeNewBranch(_ context.Context, path, branch, base string) error {
	f.calls = append(f.calls, fmt.Sprintf("add -b %s %s %s", branch, path, base))
	if f.addErr != nil {
		return f.addErr
	}
	f.branches[branch] = true
	return f.addWorktree(path, branch)
}

func (f *fakeRepo) AddWorktreeExistingBranch(_ context.Context, path, branch string) error {
	f.calls = append(f.calls, fmt.Sprintf("add %s %s", path, branch))
	if f.addErr != nil {
		return f.addErr
	}
	return f.addWorktree(path, branch)
}

func (f *fakeRepo) addWorktree(path, branch string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return err
	}
	f.worktrees = append(f.worktrees, gitcli.Worktree{Path: path, Branch: branch})
	return nil
}

func (f *fakeRepo) RemoveWorktree(_ context.Context, path string, force bool) error {
	f.calls = append(f.calls, fmt.Sprintf("remove force=%v %s", force, path))
	if f.removeErr != nil {
		return f.removeErr
	}
	kept := f.worktrees[:0]
	for _, wt := range f.worktrees {
		if !gitcli.SamePath(wt.Path, path) {
			kept = append(kept, wt)
		}
	}
	f.worktrees = kept
	return os.RemoveAll(path)
}

func (f *fakeRepo) DeleteBranch(_ context.Context, name string, force bool) error {
	f.calls = append(f.calls, fmt.Sprintf("branch delete force=%v %s", force, name))
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.branches, name)
	return nil
}

func (f *fakeRepo) FetchPrune(context.Context) error {
	f.calls = append(f.calls, "fetch")
	return f.fetchErr
}

func (f *fakeRepo) mutations() []string {
	var out []string
	for _, c := range f.calls {
		if c != "fetch" {
			out = append(out, c)
		}
	}
	return out
}

type recorder struct {
	infos []string
	warns []string
}

func (r *recorder) Info(msg string) { r.infos = append(r.infos, msg) }
func (r *recorder) Warn(msg string) { r.warns = append(r.warns, msg) }

func (r *recorder) warned(substr string) bool {
	for _, w := range r.warns {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

// harness wires a controller to a fake repository rooted in a temp dir.
type harness struct {
	repo *fakeRepo
	rep  *recorder
	logs *logging.TestLogManager
	root string
	ctrl *Controller
}

func newHarness(t *testing.T, mutate ...func(*config.Settings)) *harness {
	t.Helper()
	h := &harness{
		repo: newFakeRepo(t),
		rep:  &recorder{},
		logs: logging.NewTestLogManager(),
		root: t.TempDir(),
	}
	settings := config.Resolve(config.DefaultConfig(), func(string) (string, bool) { return "", false }, config.Overrides{Root: &h.root})
	for _, m := range mutate {
		m(&settings)
	}
	h.ctrl = New(h.repo, settings, WithReporter(h.rep), WithLogger(h.logs.For("worktree")))
	return h
}

func assertFailure(t *testing.T, err error, kind failure.Kind, sentinel error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v failure, got nil", kind)
	}
	if got := failure.KindOf(err); got != kind {
		t.Errorf("kind = %v, want %v (err: %v)", got, kind, err)
	}
	if sentinel != nil && !errors.Is(err, sentinel) {
		t.Errorf("error %v does not wrap %v", err, sentinel)
	}
}

func gitcliWorktree(path, branch string) gitcli.Worktree {
	return gitcli.Worktree{Path: path, Branch: branch}
}
