// Package gittest builds throwaway git repositories for tests.
package gittest

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// RequireGit skips the test when the git binary is unavailable.
func RequireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

// Run executes git in dir and fails the test on error. It returns trimmed stdout.
func Run(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=agentwt", "GIT_AUTHOR_EMAIL=agentwt@example.com",
		"GIT_COMMITTER_NAME=agentwt", "GIT_COMMITTER_EMAIL=agentwt@example.com",
		"GIT_CONFIG_NOSYSTEM=1",
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

// InitRepo creates <tmp>/<name> with one commit on branch and returns its
// path with symlinks resolved, so it compares equal to paths git reports.
func InitRepo(t *testing.T, name, branch string) string {
	t.Helper()
	RequireGit(t)

	base, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("resolving temp dir: %v", err)
	}
	dir := filepath.Join(base, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating repo dir: %v", err)
	}

	Run(t, dir, "init", "--quiet")
	Run(t, dir, "symbolic-ref", "HEAD", "refs/heads/"+branch)
	Commit(t, dir, "README.md", "initial\n")
	return dir
}

// Commit writes file and commits it.
func Commit(t *testing.T, dir, file, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, file), []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", file, err)
	}
	Run(t, dir, "add", file)
	Run(t, dir, "-c", "commit.gpgsign=false", "commit", "--quiet", "-m", "update "+file)
}
