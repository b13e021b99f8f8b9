package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStageWritesAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	staging, err := NewStaging(dir)
	if err != nil {
		t.Fatalf("NewStaging() error = %v", err)
	}

	cleanup, err := staging.Stage([][]byte{[]byte("one"), []byte("two")})
	if err != nil {
		t.Fatalf("Stage() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("staged files = %d, want 2", len(entries))
	}
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Fatalf("staged file mode = %v, want 0600", info.Mode().Perm())
		}
	}

	cleanup()

	entries, err = os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("files remain after cleanup: %d", len(entries))
	}
}

func TestNewStagingRejectsBlockedPath(t *testing.T) {
	dir := t.TempDir()
	// A regular file where a directory component must go makes MkdirAll fail.
	file := filepath.Join(dir, "occupied")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStaging(filepath.Join(file, "nested")); err == nil {
		t.Fatal("expected an error when the base path is blocked by a file")
	}
}

func TestNewStagingRequiresPath(t *testing.T) {
	if _, err := NewStaging("  "); err == nil {
		t.Fatal("expected an error for a blank base path")
	}
}

func TestStageNilReceiver(t *testing.T) {
	var staging *Staging
	cleanup, err := staging.Stage([][]byte{[]byte("one")})
	if err != nil {
		t.Fatalf("nil staging must be a no-op, got %v", err)
	}
	cleanup()
}
