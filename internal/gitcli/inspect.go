// pattern: Imperative Shell

package gitcli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"agentwt/internal/failure"
)

// Worktree is one entry of `git worktree list --porcelain`.
type Worktree struct {
	Path     string
	Head     string
	Branch   string // short branch name; empty when detached or bare
	Detached bool
	Bare     bool
	Locked   bool
	Prunable bool
}

// ParseWorktreeList parses porcelain output into worktrees. Records are
// separated by blank lines; unknown attribute lines are ignored.
func ParseWorktreeList(out string) []Worktree {
	var (
		res []Worktree
		cur *Worktree
	)
	flush := func() {
		if cur != nil && cur.Path != "" {
			res = append(res, *cur)
		}
		cur = nil
	}

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		key, value, _ := strings.Cut(line, " ")
		if key == "worktree" {
			flush()
			cur = &Worktree{Path: value}
			continue
		}
		if cur == nil {
			continue
		}
		switch key {
		case "HEAD":
			cur.Head = value
		case "branch":
			cur.Branch = strings.TrimPrefix(value, "refs/heads/")
		case "detached":
			cur.Detached = true
		case "bare":
			cur.Bare = true
		case "locked":
			cur.Locked = true
		case "prunable":
			cur.Prunable = true
		}
	}
	flush()
	return res
}

// IsInsideRepository reports whether Dir is inside a git work tree.
func (g *Git) IsInsideRepository(ctx context.Context) bool {
	out, err := g.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// TopLevel returns the primary worktree's directory. Invoked from a linked
// worktree it still answers with the main checkout, so default roots derived
// from it are the same no matter where the command runs.
func (g *Git) TopLevel(ctx context.Context) (string, error) {
	wts, err := g.Worktrees(ctx)
	if err == nil && len(wts) > 0 {
		return wts[0].Path, nil
	}
	out, err := g.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return out, nil
}

// Worktrees lists every worktree git currently knows about, primary first.
func (g *Git) Worktrees(ctx context.Context) ([]Worktree, error) {
	out, err := g.run(ctx, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}
	return ParseWorktreeList(out), nil
}

// BranchWorktreePath returns the path of the worktree that has branch
// checked out, if any.
func (g *Git) BranchWorktreePath(ctx context.Context, branch string) (string, bool, error) {
	wts, err := g.Worktrees(ctx)
	if err != nil {
		return "", false, err
	}
	for _, wt := range wts {
		if wt.Branch == branch {
			return wt.Path, true, nil
		}
	}
	return "", false, nil
}

// WorktreeAt returns the worktree registered at path, if any.
func (g *Git) WorktreeAt(ctx context.Context, path string) (Worktree, bool, error) {
	wts, err := g.Worktrees(ctx)
	if err != nil {
		return Worktree{}, false, err
	}
	for _, wt := range wts {
		if SamePath(wt.Path, path) {
			return wt, true, nil
		}
	}
	return Worktree{}, false, nil
}

// IsDirty reports whether Dir has uncommitted or untracked changes.
func (g *Git) IsDirty(ctx context.Context) (bool, error) {
	out, err := g.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// VerifyCommit reports whether ref resolves to a commit.
func (g *Git) VerifyCommit(ctx context.Context, ref string) bool {
	_, err := g.run(ctx, "rev-parse", "--verify", "--quiet", "--end-of-options", ref+"^{commit}")
	return err == nil
}

// CheckBranchName validates name with git's own branch name rules.
func (g *Git) CheckBranchName(name string) error {
	_, err := g.run(context.Background(), "check-ref-format", "--branch", name)
	if err != nil {
		var ce *CommandError
		if errors.As(err, &ce) && ce.Stderr != "" {
			return errors.New(ce.Stderr)
		}
		return err
	}
	return nil
}

// ResolveBaseRef validates an explicit base, or picks the first existing of
// local main, local master, <remote>/main, <remote>/master, falling back to HEAD.
// A picked default is returned fully qualified (refs/heads/main).
func (g *Git) ResolveBaseRef(ctx context.Context, explicit string) (string, error) {
	if explicit != "" {
		if !g.VerifyCommit(ctx, explicit) {
			return "", failure.New(failure.Ref, "resolve base", failure.ErrBaseRefNotFound).
				About(explicit).
				WithHint("pass a branch, tag or commit that exists; try --fetch if it only exists on a remote")
		}
		return explicit, nil
	}

	// Fully qualified so a tag or a local branch named <remote>/main cannot
	// shadow the ref that was probed.
	candidates := []string{
		"refs/heads/main",
		"refs/heads/master",
		"refs/remotes/" + g.remote + "/main",
		"refs/remotes/" + g.remote + "/master",
	}
	for _, ref := range candidates {
		ok, err := g.refExists(ctx, ref)
		if err != nil {
			return "", fmt.Errorf("probing %s: %w", ref, err)
		}
		if ok {
			return ref, nil
		}
	}
	return "HEAD", nil
}

// BranchExists reports whether refs/heads/<name> exists.
func (g *Git) BranchExists(ctx context.Context, name string) (bool, error) {
	return g.refExists(ctx, "refs/heads/"+name)
}

// SamePath compares two filesystem paths after cleaning and, where possible,
// resolving symlinks (git reports /private/var on macOS for /var paths).
func SamePath(a, b string) bool {
	return canonical(a) == canonical(b)
}

func canonical(p string) string {
	p = filepath.Clean(p)
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	dir, base := filepath.Split(p)
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		return filepath.Join(resolved, base)
	}
	return p
}
