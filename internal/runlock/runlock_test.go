package runlock_test

import (
	"errors"
	"path/filepath"
	"testing"

	"pixship/internal/runlock"
)

func TestAcquireIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "pixship.lock")

	first, err := runlock.Acquire(path)
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}

	if _, err := runlock.Acquire(path); !errors.Is(err, runlock.ErrHeld) {
		t.Fatalf("expected ErrHeld for second acquire, got %v", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	again, err := runlock.Acquire(path)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	if again.Path() != path {
		t.Fatalf("unexpected path %q", again.Path())
	}
	if err := again.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := again.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
}
