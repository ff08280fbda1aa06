// pattern: Imperative Shell

package worktree

import (
	"context"
	"fmt"

	"agentwt/internal/failure"
)

// RemoveRequest is one remove invocation.
type RemoveRequest struct {
	TaskName          string
	Force             bool
	DeleteBranch      bool
	DeleteBranchForce bool
}

// BranchOutcome is what happened to the branch after the worktree went away.
type BranchOutcome int

const (
	BranchKept    BranchOutcome = iota // deletion not requested
	BranchDeleted                      // deleted
	BranchSkipped                      // requested but nothing to delete
	BranchRefused                      // requested and refused
)

func (o BranchOutcome) String() string {
	switch o {
	case BranchDeleted:
		return "deleted"
	case BranchSkipped:
		return "skipped"
	case BranchRefused:
		return "refused"
	default:
		return "kept"
	}
}

// RemoveResult reports the worktree and branch outcomes separately: the
// worktree can be gone while the branch deletion was refused.
type RemoveResult struct {
	Path            string
	Branch          string
	WorktreeRemoved bool
	BranchOutcome   BranchOutcome
}

// Remove removes the worktree a task name resolves to and, when asked,
// its branch. The returned error describes the first step that failed;
// the result is meaningful even when an error is returned.
func (c *Controller) Remove(ctx context.Context, req RemoveRequest) (RemoveResult, error) {
	const op = "remove"
	log := c.logger.With("op", op, "task", req.TaskName)

	if err := c.requireRepository(ctx, op); err != nil {
		return RemoveResult{}, err
	}

	// Locating
	root, err := c.root(ctx)
	if err != nil {
		return RemoveResult{}, err
	}
	names, err := c.resolveNames(req.TaskName, "", root, nil)
	if err != nil {
		return RemoveResult{}, err
	}
	result := RemoveResult{Path: names.FullPath}
	log = log.With("path", names.FullPath)

	exists, err := pathExists(names.FullPath)
	if err != nil {
		return result, failure.New(failure.ExternalTool, op, fmt.Errorf("checking path: %w", err)).About(names.FullPath)
	}
	if !exists {
		return result, failure.New(failure.NotFound, op, failure.ErrPathNotFound).
			About(names.FullPath).
			WithHint("run `agentwt list` to see existing worktrees")
	}

	if wt, ok, err := c.repo.WorktreeAt(ctx, names.FullPath); err != nil {
		log.Warn("could not look up worktree branch", "error", err)
	} else if ok {
		result.Branch = wt.Branch
	}
	log.Info("located worktree", "branch", result.Branch)

	err = c.withLock(root, func() error {
		// Removing
		if err := c.repo.RemoveWorktree(ctx, names.FullPath, req.Force); err != nil {
			fe := failure.New(failure.ExternalTool, op, err).About(names.FullPath)
			if !req.Force {
				fe.WithHint("if it has uncommitted changes you want to discard, re-run with --force")
			}
			return fe
		}
		result.WorktreeRemoved = true
		c.reporter.Info("removed worktree " + names.FullPath)
		log.Info("worktree removed")

		// BranchDeleting
		if !req.DeleteBranch && !req.DeleteBranchForce {
			return nil
		}
		outcome, err := c.deleteBranch(ctx, result.Branch, names.FullPath, req.DeleteBranchForce)
		result.BranchOutcome = outcome
		return err
	})
	if err != nil {
		log.Warn("remove failed", "error", err, "worktree_removed", result.WorktreeRemoved)
	}
	return result, err
}

func (c *Controller) deleteBranch(ctx context.Context, branch, removedPath string, force bool) (BranchOutcome, error) {
	const op = "delete branch"

	if branch == "" {
		c.reporter.Warn(fmt.Sprintf("could not determine the branch of %s; skipping branch deletion", removedPath))
		return BranchSkipped, nil
	}

	if inUse, ok, err := c.repo.BranchWorktreePath(ctx, branch); err != nil {
		return BranchRefused, failure.New(failure.ExternalTool, op, fmt.Errorf("listing worktrees: %w", err)).About(branch)
	} else if ok {
		return BranchRefused, failure.New(failure.PolicyRefusal, op, failure.ErrBranchInUse).
			About(branch).
			WithHint("it is still checked out at " + inUse + "; the worktree was removed but the branch is kept")
	}

	exists, err := c.repo.BranchExists(ctx, branch)
	if err != nil {
		return BranchRefused, failure.New(failure.ExternalTool, op, err).About(branch)
	}
	if !exists {
		c.reporter.Warn(fmt.Sprintf("branch %s no longer exists; nothing to delete", branch))
		return BranchSkipped, nil
	}

	if err := c.repo.DeleteBranch(ctx, branch, force); err != nil {
		if force {
			return BranchRefused, failure.New(failure.ExternalTool, op, err).About(branch)
		}
		return BranchRefused, failure.New(failure.PolicyRefusal, op, fmt.Errorf("%w: %v", failure.ErrBranchUnmerged, err)).
			About(branch).
			WithHint("the worktree was removed; use --delete-branch-force to delete the branch anyway")
	}
	c.reporter.Info("deleted branch " + branch)
	return BranchDeleted, nil
}
