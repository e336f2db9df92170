package testsupport

import (
	"context"
	"testing"

	"ocat/internal/catalog"
	"ocat/internal/config"
	"ocat/internal/ident"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// InsertProgram creates a minimal catalog record for tests. The identifier
// may carry a disambiguation suffix; the numeric core is derived from it.
func InsertProgram(t testing.TB, store *catalog.Store, identifier, filePath string, mutate ...func(*catalog.Program)) *catalog.Program {
	t.Helper()

	id, err := ident.Parse(identifier)
	if err != nil {
		t.Fatalf("parse identifier %q: %v", identifier, err)
	}
	p := &catalog.Program{
		Identifier:       id.String(),
		NumericCore:      id.Core,
		FilePath:         filePath,
		ValidationStatus: catalog.StatusPass,
	}
	for _, fn := range mutate {
		fn(p)
	}
	if err := store.InsertProgram(context.Background(), p); err != nil {
		t.Fatalf("InsertProgram %q: %v", identifier, err)
	}
	return p
}
