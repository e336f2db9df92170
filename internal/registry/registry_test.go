package registry_test

import (
	"context"
	"errors"
	"testing"

	"ocat/internal/catalog"
	"ocat/internal/faults"
	"ocat/internal/ranges"
	"ocat/internal/registry"
	"ocat/internal/testsupport"
)

func newRegistry(t *testing.T) (*registry.Registry, *catalog.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	table, err := ranges.NewTable(cfg)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return registry.New(store, table, nil), store
}

func TestInitializeEnumeratesEveryIdentifierOnce(t *testing.T) {
	reg, store := newRegistry(t)
	ctx := context.Background()

	testsupport.InsertProgram(t, store, "o01010", "/programs/o01010.nc")
	testsupport.InsertProgram(t, store, "o62500", "/programs/o62500.nc")

	result, err := reg.Initialize(ctx)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	// free1 50 + free2 50 + 52500..52504 + 62500..62504 + 70000..70004 plus
	// the fused 9.5/9.625 interval counted once.
	want := 50 + 50 + 5 + 5 + 5 + 5
	if result.TotalIdentifiers != want {
		t.Fatalf("total = %d, want %d", result.TotalIdentifiers, want)
	}
	count, err := store.CountRegistryRows(ctx)
	if err != nil {
		t.Fatalf("CountRegistryRows: %v", err)
	}
	if count != want {
		t.Fatalf("registry rows = %d, want %d", count, want)
	}
	if result.InUse != 2 {
		t.Fatalf("in use = %d, want 2", result.InUse)
	}
	if result.Available != want-2 {
		t.Fatalf("available = %d, want %d", result.Available, want-2)
	}

	row, err := store.GetRegistryRow(ctx, "o62500")
	if err != nil {
		t.Fatalf("GetRegistryRow: %v", err)
	}
	if row.Status != catalog.RegistryInUse || row.FilePath != "/programs/o62500.nc" {
		t.Fatalf("row = %+v", row)
	}
}

func TestInitializeFlagsMultiOwnerIdentifiers(t *testing.T) {
	reg, store := newRegistry(t)
	ctx := context.Background()

	// Two records with the same numeric core claim one identifier.
	testsupport.InsertProgram(t, store, "o01010", "/programs/o01010.nc")
	testsupport.InsertProgram(t, store, "o01010(1)", "/programs/o01010(1).nc")

	result, err := reg.Initialize(ctx)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if result.MultiOwner != 1 {
		t.Fatalf("multi owner = %d, want 1", result.MultiOwner)
	}

	row, err := store.GetRegistryRow(ctx, "o01010")
	if err != nil {
		t.Fatalf("GetRegistryRow: %v", err)
	}
	if row.DuplicateCount != 2 {
		t.Fatalf("duplicate count = %d, want 2", row.DuplicateCount)
	}
	if row.Notes == "" {
		t.Fatal("expected a warning note on the multi-owner row")
	}
}

func TestInitializeIsRerunnable(t *testing.T) {
	reg, store := newRegistry(t)
	ctx := context.Background()

	first, err := reg.Initialize(ctx)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	second, err := reg.Initialize(ctx)
	if err != nil {
		t.Fatalf("Initialize again: %v", err)
	}
	if first != second {
		t.Fatalf("results differ: %+v vs %+v", first, second)
	}
	count, err := store.CountRegistryRows(ctx)
	if err != nil {
		t.Fatalf("CountRegistryRows: %v", err)
	}
	if count != first.TotalIdentifiers {
		t.Fatalf("rows = %d after rerun, want %d", count, first.TotalIdentifiers)
	}
}

func TestFindNextAvailableAscendingOrder(t *testing.T) {
	reg, store := newRegistry(t)
	ctx := context.Background()

	testsupport.InsertProgram(t, store, "o62500", "/programs/o62500.nc")
	if _, err := reg.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	got, err := reg.FindNextAvailable(ctx, 6.25, "", nil)
	if err != nil {
		t.Fatalf("FindNextAvailable: %v", err)
	}
	if got != "o62501" {
		t.Fatalf("got %q, want o62501", got)
	}
}

func TestFindNextAvailableHonorsPreferred(t *testing.T) {
	reg, _ := newRegistry(t)
	ctx := context.Background()

	if _, err := reg.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	got, err := reg.FindNextAvailable(ctx, 6.25, "o62503", nil)
	if err != nil {
		t.Fatalf("FindNextAvailable: %v", err)
	}
	if got != "o62503" {
		t.Fatalf("got %q, want preferred o62503", got)
	}

	// Preferred outside the interval is ignored.
	got, err = reg.FindNextAvailable(ctx, 6.25, "o70001", nil)
	if err != nil {
		t.Fatalf("FindNextAvailable: %v", err)
	}
	if got != "o62500" {
		t.Fatalf("got %q, want o62500", got)
	}
}

func TestFindNextAvailableSkipsReserved(t *testing.T) {
	reg, _ := newRegistry(t)
	ctx := context.Background()

	if _, err := reg.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	skip := map[string]bool{"o62500": true, "o62501": true}
	got, err := reg.FindNextAvailable(ctx, 6.25, "o62500", skip)
	if err != nil {
		t.Fatalf("FindNextAvailable: %v", err)
	}
	if got != "o62502" {
		t.Fatalf("got %q, want o62502", got)
	}
}

func TestNoDoubleAllocation(t *testing.T) {
	reg, _ := newRegistry(t)
	ctx := context.Background()

	if _, err := reg.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		id, err := reg.FindNextAvailable(ctx, 7.0, "", nil)
		if err != nil {
			t.Fatalf("FindNextAvailable #%d: %v", i, err)
		}
		if seen[id] {
			t.Fatalf("identifier %q allocated twice", id)
		}
		seen[id] = true
		if err := reg.Occupy(ctx, id, "/programs/"+id+".nc"); err != nil {
			t.Fatalf("Occupy %q: %v", id, err)
		}
	}

	// The 7.0 interval holds exactly five identifiers.
	if _, err := reg.FindNextAvailable(ctx, 7.0, "", nil); !errors.Is(err, faults.ErrNoAvailableIdentifier) {
		t.Fatalf("expected ErrNoAvailableIdentifier, got %v", err)
	}
}

func TestOccupyRejectsInUse(t *testing.T) {
	reg, _ := newRegistry(t)
	ctx := context.Background()

	if _, err := reg.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := reg.Occupy(ctx, "o70000", "/programs/o70000.nc"); err != nil {
		t.Fatalf("Occupy: %v", err)
	}
	err := reg.Occupy(ctx, "o70000", "/programs/other.nc")
	if !errors.Is(err, faults.ErrRegistryInconsistency) {
		t.Fatalf("expected ErrRegistryInconsistency, got %v", err)
	}
}

func TestReleaseMakesIdentifierAvailable(t *testing.T) {
	reg, store := newRegistry(t)
	ctx := context.Background()

	if _, err := reg.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := reg.Occupy(ctx, "o70000", "/programs/o70000.nc"); err != nil {
		t.Fatalf("Occupy: %v", err)
	}
	if err := reg.Release(ctx, "o70000"); err != nil {
		t.Fatalf("Release: %v", err)
	}

	row, err := store.GetRegistryRow(ctx, "o70000")
	if err != nil {
		t.Fatalf("GetRegistryRow: %v", err)
	}
	if row.Status != catalog.RegistryAvailable || row.FilePath != "" {
		t.Fatalf("row after release = %+v", row)
	}

	// Release then re-occupy is legal.
	if err := reg.Occupy(ctx, "o70000", "/programs/again.nc"); err != nil {
		t.Fatalf("re-Occupy: %v", err)
	}
}

func TestReserveSkippedByAllocation(t *testing.T) {
	reg, _ := newRegistry(t)
	ctx := context.Background()

	if _, err := reg.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := reg.Reserve(ctx, "o70000", "held for migration"); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	got, err := reg.FindNextAvailable(ctx, 7.0, "o70000", nil)
	if err != nil {
		t.Fatalf("FindNextAvailable: %v", err)
	}
	if got != "o70001" {
		t.Fatalf("got %q, want o70001", got)
	}
}

func TestVerifyReportsOrphanedInUse(t *testing.T) {
	reg, store := newRegistry(t)
	ctx := context.Background()

	if _, err := reg.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	// Occupied with no catalog record behind it.
	if err := reg.Occupy(ctx, "o70000", "/programs/ghost.nc"); err != nil {
		t.Fatalf("Occupy: %v", err)
	}

	findings, err := reg.Verify(ctx)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("findings = %v, want one orphan", findings)
	}

	// A real owner clears the finding.
	testsupport.InsertProgram(t, store, "o70000", "/programs/ghost.nc")
	findings, err = reg.Verify(ctx)
	if err != nil {
		t.Fatalf("Verify again: %v", err)
	}
	if len(findings) != 0 {
		t.Fatalf("findings = %v, want none", findings)
	}
}
