package preflight_test

import (
	"context"
	"path/filepath"
	"testing"

	"ocat/internal/preflight"
	"ocat/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()

	result := preflight.CheckDirectoryAccess("Catalog directory", dir)
	if !result.Passed {
		t.Fatalf("check failed for writable dir: %+v", result)
	}

	missing := preflight.CheckDirectoryAccess("Catalog directory", filepath.Join(dir, "absent"))
	if missing.Passed {
		t.Fatalf("check passed for missing dir: %+v", missing)
	}
}

func TestCheckFreeSpace(t *testing.T) {
	result := preflight.CheckFreeSpace("Catalog volume", t.TempDir())
	// Temp dirs in CI always have more than the floor free.
	if !result.Passed {
		t.Fatalf("check failed: %+v", result)
	}
}

func TestRunAllWithStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	results := preflight.RunAll(context.Background(), cfg, store)
	if len(results) != 5 {
		t.Fatalf("got %d results, want 5", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Fatalf("check %q failed: %s", r.Name, r.Detail)
		}
	}
}
