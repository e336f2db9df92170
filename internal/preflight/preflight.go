// Package preflight provides readiness checks for the directories and
// database the catalog depends on. The CLI runs these before mutating
// commands so a doomed batch fails before any file is touched.
package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"ocat/internal/catalog"
	"ocat/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// minFreeBytes is the floor below which a volume is considered too full to
// take rewritten program files safely.
const minFreeBytes = 64 * 1024 * 1024

// RunAll executes every applicable check for the given config.
func RunAll(ctx context.Context, cfg *config.Config, store *catalog.Store) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Catalog directory", cfg.Paths.CatalogDir),
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckFreeSpace("Catalog volume", cfg.Paths.CatalogDir),
	}
	if store != nil {
		results = append(results, CheckDatabase(ctx, store))
	}
	return results
}

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the volume holding path has headroom for rewritten
// files. A rename writes the new file before removing the old one, so the
// volume briefly holds both.
func CheckFreeSpace(name, path string) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minFreeBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: only %d MiB free)", path, free/(1024*1024))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d MiB free)", path, free/(1024*1024))}
}

// CheckDatabase verifies the catalog database is reachable and intact.
func CheckDatabase(ctx context.Context, store *catalog.Store) Result {
	const name = "Catalog database"

	health, err := store.CheckHealth(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("health check failed (%v)", err)}
	}
	if !health.DatabaseExists {
		return Result{Name: name, Detail: "database not created yet"}
	}
	if len(health.MissingTables) > 0 {
		return Result{Name: name, Detail: fmt.Sprintf("missing tables: %v", health.MissingTables)}
	}
	if !health.IntegrityCheck {
		return Result{Name: name, Detail: "integrity check failed"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d programs, %d registry rows", health.ProgramCount, health.RegistryCount)}
}
