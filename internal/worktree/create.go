// pattern: Imperative Shell

package worktree

import (
	"context"
	"fmt"
	"strings"

	"agentwt/internal/failure"
	"agentwt/internal/naming"
)

// CreateRequest is one create invocation. Prefixes and root come from the
// controller's settings.
type CreateRequest struct {
	TaskName          string
	BaseRef           string // optional; ignored with UseExistingBranch
	Branch            string // optional explicit branch name
	UseExistingBranch bool
	AutoChangeDir     bool
	FetchFirst        bool

	// CanChangeDir is true when the caller's context can switch directory
	// (the shell wrapper). Otherwise the path is reported by value.
	CanChangeDir bool
}

// CreateResult describes the worktree that was created.
type CreateResult struct {
	Path      string
	Branch    string
	Base      string // empty when an existing branch was attached
	NewBranch bool
	ChangeDir bool // caller should switch into Path
}

// Create validates the request against the live repository and adds the
// worktree with exactly one git call. Nothing is mutated unless every
// check passes.
func (c *Controller) Create(ctx context.Context, req CreateRequest) (CreateResult, error) {
	const op = "create"
	log := c.logger.With("op", op, "task", req.TaskName)

	// Validating
	if err := c.requireRepository(ctx, op); err != nil {
		return CreateResult{}, err
	}
	if strings.TrimSpace(req.TaskName) == "" {
		return CreateResult{}, failure.New(failure.Input, op, fmt.Errorf("task name is required"))
	}

	// Resolving
	root, err := c.root(ctx)
	if err != nil {
		return CreateResult{}, err
	}
	names, err := c.resolveNames(req.TaskName, req.Branch, root, c.repo)
	if err != nil {
		return CreateResult{}, err
	}
	log = log.With("path", names.FullPath, "branch", names.BranchName)
	log.Info("resolved names", "root", root, "root_source", c.settings.RootSource)

	if req.FetchFirst {
		c.reporter.Info("fetching remotes")
		if err := c.repo.FetchPrune(ctx); err != nil {
			return CreateResult{}, failure.New(failure.ExternalTool, op, fmt.Errorf("fetch failed: %w", err)).
				WithHint("fix the remote or drop --fetch to work from local refs")
		}
	}

	// Resolving base
	base := ""
	if req.UseExistingBranch {
		if req.BaseRef != "" {
			c.reporter.Warn(fmt.Sprintf("--from %s is ignored with --use-existing-branch; %s keeps its own history", req.BaseRef, names.BranchName))
		}
	} else {
		base, err = c.resolveBase(ctx, req.BaseRef)
		if err != nil {
			return CreateResult{}, err
		}
		log = log.With("base", base)
	}

	result := CreateResult{
		Path:      names.FullPath,
		Branch:    names.BranchName,
		Base:      base,
		NewBranch: !req.UseExistingBranch,
	}

	err = c.withLock(root, func() error {
		// Checking
		if err := c.checkCreate(ctx, op, names, req.UseExistingBranch); err != nil {
			return err
		}
		log.Info("collision checks passed")

		// Mutating
		var addErr error
		if req.UseExistingBranch {
			c.reporter.Info(fmt.Sprintf("attaching existing branch %s at %s", names.BranchName, names.FullPath))
			addErr = c.repo.AddWorktreeExistingBranch(ctx, names.FullPath, names.BranchName)
		} else {
			c.reporter.Info(fmt.Sprintf("creating branch %s from %s at %s", names.BranchName, base, names.FullPath))
			addErr = c.repo.AddWorktreeNewBranch(ctx, names.FullPath, names.BranchName, base)
		}
		if addErr != nil {
			return failure.New(failure.ExternalTool, op, addErr).About(names.FullPath)
		}
		return nil
	})
	if err != nil {
		log.Warn("create failed", "error", err)
		return CreateResult{}, err
	}
	log.Info("worktree created")

	// Reporting
	result.ChangeDir = req.AutoChangeDir && req.CanChangeDir
	return result, nil
}

// resolveBase picks the base ref and confirms it is a commit. A HEAD base
// on a dirty checkout gets a warning since uncommitted work stays behind.
func (c *Controller) resolveBase(ctx context.Context, explicit string) (string, error) {
	base, err := c.repo.ResolveBaseRef(ctx, explicit)
	if err != nil {
		if failure.KindOf(err) == failure.Ref {
			return "", err
		}
		return "", failure.New(failure.ExternalTool, "create", err)
	}
	if !c.repo.VerifyCommit(ctx, base) {
		return "", failure.New(failure.Ref, "create", failure.ErrBaseRefNotFound).
			About(base).
			WithHint("the repository has no commits yet; commit something or pass --from")
	}

	if base == "HEAD" {
		if dirty, err := c.repo.IsDirty(ctx); err == nil && dirty {
			c.reporter.Warn("base is HEAD and the working tree has uncommitted changes; they will not be in the new worktree")
		} else if err != nil {
			c.logger.Debug("dirty check failed", "error", err)
		}
	}
	return base, nil
}

// checkCreate is the collision gate: the path must be free, and the branch
// must exist (or not) according to mode and must not be checked out elsewhere.
func (c *Controller) checkCreate(ctx context.Context, op string, names naming.Names, useExisting bool) error {
	exists, err := pathExists(names.FullPath)
	if err != nil {
		return failure.New(failure.ExternalTool, op, fmt.Errorf("checking path: %w", err)).About(names.FullPath)
	}
	if exists {
		return failure.New(failure.Collision, op, failure.ErrPathExists).
			About(names.FullPath).
			WithHint("pick another task name or remove the existing worktree first")
	}

	branchExists, err := c.repo.BranchExists(ctx, names.BranchName)
	if err != nil {
		return failure.New(failure.ExternalTool, op, fmt.Errorf("checking branch: %w", err)).About(names.BranchName)
	}

	if useExisting && !branchExists {
		return failure.New(failure.NotFound, op, failure.ErrBranchNotFound).
			About(names.BranchName).
			WithHint("drop --use-existing-branch to create it")
	}

	if branchExists {
		inUse, ok, err := c.repo.BranchWorktreePath(ctx, names.BranchName)
		if err != nil {
			return failure.New(failure.ExternalTool, op, fmt.Errorf("listing worktrees: %w", err))
		}
		if ok {
			return failure.New(failure.Collision, op, failure.ErrBranchInUse).
				About(names.BranchName).
				WithHint("it is checked out at " + inUse)
		}
	}

	if !useExisting && branchExists {
		return failure.New(failure.Collision, op, failure.ErrBranchExists).
			About(names.BranchName).
			WithHint("pass --use-existing-branch to attach it, or choose another name")
	}
	return nil
}
