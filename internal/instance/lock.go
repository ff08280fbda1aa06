// pattern: Imperative Shell
package instance

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"agentwt/internal/failure"
)

const lockFileName = ".agentwt.lock"

// LockPath returns the lock file location for a worktree root.
func LockPath(root string) string {
	return filepath.Join(root, lockFileName)
}

// Lock takes the advisory lock for root without blocking. A second create
// or remove against the same root fails with a Collision while it is held.
// The caller must call Unlock.
func Lock(root string) (*flock.Flock, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating worktree root: %w", err)
	}

	fl := flock.New(LockPath(root))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return nil, failure.New(failure.Collision, "lock",
			fmt.Errorf("another agentwt create or remove holds the lock")).
			About(LockPath(root)).
			WithHint("retry once it finishes")
	}
	return fl, nil
}

// Unlock releases the lock. The lock file itself is left in place so that
// concurrent holders never race on its inode.
func Unlock(fl *flock.Flock) {
	if fl != nil {
		_ = fl.Unlock()
	}
}
