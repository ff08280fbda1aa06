package instance

import (
	"os"
	"path/filepath"
	"testing"

	"agentwt/internal/failure"
)

func TestLockAndUnlock(t *testing.T) {
	root := filepath.Join(t.TempDir(), ".worktrees", "repo")

	// First lock should succeed and create the root
	fl, err := Lock(root)
	if err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}
	if fl == nil {
		t.Fatal("Lock() returned nil flock")
	}
	if _, err := os.Stat(LockPath(root)); err != nil {
		t.Fatalf("lock file not created: %v", err)
	}

	// Second lock should fail with a collision
	_, err = Lock(root)
	if err == nil {
		t.Fatal("second Lock() should have failed")
	}
	if failure.KindOf(err) != failure.Collision {
		t.Errorf("second Lock() kind = %v, want Collision", failure.KindOf(err))
	}

	Unlock(fl)

	// Lock should be available again
	fl2, err := Lock(root)
	if err != nil {
		t.Fatalf("Lock() after Unlock should succeed: %v", err)
	}
	Unlock(fl2)
}

func TestUnlock_Nil(t *testing.T) {
	// Should not panic
	Unlock(nil)
}
