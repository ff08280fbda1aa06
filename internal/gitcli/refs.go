// pattern: Imperative Shell

package gitcli

import (
	"context"
	"errors"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Ref lookups read the ref store directly through go-git. The repository is
// opened per call so every answer reflects the current on-disk state. When
// go-git cannot open the repository (unsupported extensions, reftable) the
// same question is answered by the git binary.

func (g *Git) openRepository() (*git.Repository, error) {
	return git.PlainOpenWithOptions(g.dir, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
}

func (g *Git) refExists(ctx context.Context, name string) (bool, error) {
	repo, err := g.openRepository()
	if err == nil {
		_, err = repo.Reference(plumbing.ReferenceName(name), false)
		if err == nil {
			return true, nil
		}
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return false, nil
		}
	}
	g.logger.Debug("go-git ref lookup unavailable, using git", "ref", name, "error", err)

	_, err = g.run(ctx, "show-ref", "--verify", "--quiet", name)
	if err == nil {
		return true, nil
	}
	var ce *CommandError
	if errors.As(err, &ce) && ce.ExitCode == 1 {
		return false, nil
	}
	return false, err
}

// LocalBranches returns the short names of all local branches, sorted.
func (g *Git) LocalBranches(ctx context.Context) ([]string, error) {
	repo, err := g.openRepository()
	if err == nil {
		var names []string
		iter, iterErr := repo.Branches()
		if iterErr == nil {
			iterErr = iter.ForEach(func(ref *plumbing.Reference) error {
				names = append(names, ref.Name().Short())
				return nil
			})
		}
		if iterErr == nil {
			sort.Strings(names)
			return names, nil
		}
		err = iterErr
	}
	g.logger.Debug("go-git branch listing unavailable, using git", "error", err)

	out, err := g.run(ctx, "for-each-ref", "--format=%(refname:short)", "refs/heads/")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	sort.Strings(names)
	return names, nil
}
