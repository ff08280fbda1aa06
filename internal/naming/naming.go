// pattern: Functional Core

// Package naming turns a task name into the directory and branch a worktree
// will use. Create and Remove both go through Resolve, so a name always maps
// to the same path.
package naming

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"agentwt/internal/failure"
)

var (
	unsafeCharRe = regexp.MustCompile(`[^A-Za-z0-9._-]`)
	underscoreRe = regexp.MustCompile(`_+`)
)

// BranchChecker validates branch name syntax. The git wrapper implements it
// with `git check-ref-format --branch` so the rules stay git's own.
type BranchChecker interface {
	CheckBranchName(name string) error
}

// BranchCheckerFunc adapts a function to BranchChecker.
type BranchCheckerFunc func(name string) error

func (f BranchCheckerFunc) CheckBranchName(name string) error { return f(name) }

// Request is the naming input of a create or remove.
type Request struct {
	TaskName       string
	DirPrefix      string
	BranchPrefix   string
	ExplicitBranch string
	Root           string
}

// Names is what a Request resolves to.
type Names struct {
	DirectorySuffix string
	BranchName      string
	FullPath        string
}

// Sanitize replaces every character outside [A-Za-z0-9._-] with an
// underscore, collapses runs of underscores and trims them from both ends.
// It fails when nothing is left.
func Sanitize(taskName string) (string, error) {
	s := unsafeCharRe.ReplaceAllString(taskName, "_")
	s = underscoreRe.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "", failure.New(failure.Input, "resolve name", failure.ErrEmptyName).About(taskName)
	}
	return s, nil
}

// BranchName returns the explicit branch when set, otherwise prefix+taskName.
// The task name is used verbatim since branch names may contain '/'.
func BranchName(taskName, branchPrefix, explicitBranch string) string {
	if explicitBranch != "" {
		return explicitBranch
	}
	return branchPrefix + taskName
}

// Resolve computes the directory suffix, branch name and full worktree path.
// It performs no I/O of its own; branch syntax is delegated to checker.
func Resolve(req Request, checker BranchChecker) (Names, error) {
	suffix, err := Sanitize(req.TaskName)
	if err != nil {
		return Names{}, err
	}

	dirName := req.DirPrefix + suffix
	if dirName == "." || dirName == ".." || strings.ContainsAny(req.DirPrefix, `/\`) {
		return Names{}, failure.New(failure.Input, "resolve name",
			fmt.Errorf("directory name %q would escape the worktree root", dirName)).About(req.TaskName)
	}

	branch := BranchName(req.TaskName, req.BranchPrefix, req.ExplicitBranch)
	if checker != nil {
		if err := checker.CheckBranchName(branch); err != nil {
			return Names{}, failure.New(failure.Input, "resolve name",
				fmt.Errorf("%w: %v", failure.ErrInvalidBranchName, err)).About(branch)
		}
	}

	return Names{
		DirectorySuffix: suffix,
		BranchName:      branch,
		FullPath:        filepath.Join(req.Root, dirName),
	}, nil
}
