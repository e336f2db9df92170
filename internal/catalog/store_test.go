package catalog_test

import (
	"context"
	"testing"

	"ocat/internal/catalog"
	"ocat/internal/ident"
	"ocat/internal/testsupport"
)

func TestInsertAndGetProgram(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	p := &catalog.Program{
		Identifier:          "o62500",
		NumericCore:         62500,
		Title:               "6-1/4 ROUND SPACER",
		Material:            "4140",
		OBValue:             6.25,
		FilePath:            "/programs/o62500.nc",
		ContentDigest:       "abc123",
		DetectionConfidence: catalog.ConfidenceHigh,
		ValidationStatus:    catalog.StatusPass,
		RoundSize:           6.25,
		RoundSizeConfidence: catalog.ConfidenceHigh,
		RoundSizeSource:     catalog.SourceTitle,
		InCorrectRange:      true,
	}
	if err := store.InsertProgram(ctx, p); err != nil {
		t.Fatalf("InsertProgram: %v", err)
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set on insert")
	}

	got, err := store.GetProgram(ctx, "o62500")
	if err != nil {
		t.Fatalf("GetProgram: %v", err)
	}
	if got == nil {
		t.Fatal("expected record, got nil")
	}
	if got.Title != p.Title {
		t.Fatalf("title = %q, want %q", got.Title, p.Title)
	}
	if got.RoundSize != 6.25 {
		t.Fatalf("round size = %v, want 6.25", got.RoundSize)
	}
	if got.RoundSizeSource != catalog.SourceTitle {
		t.Fatalf("round size source = %q, want TITLE", got.RoundSizeSource)
	}
	if !got.InCorrectRange {
		t.Fatal("expected in_correct_range to survive the round trip")
	}

	missing, err := store.GetProgram(ctx, "o99999")
	if err != nil {
		t.Fatalf("GetProgram missing: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for unknown identifier")
	}
}

func TestGetProgramByPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.InsertProgram(t, store, "o01010", "/programs/o01010.nc")

	got, err := store.GetProgramByPath(ctx, "/programs/o01010.nc")
	if err != nil {
		t.Fatalf("GetProgramByPath: %v", err)
	}
	if got == nil || got.Identifier != "o01010" {
		t.Fatalf("got %+v, want identifier o01010", got)
	}
}

func TestUpdateProgram(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	p := testsupport.InsertProgram(t, store, "o70000", "/programs/o70000.nc")
	created := p.CreatedAt

	p.Title = "7 INCH FLANGE"
	p.ValidationStatus = catalog.StatusWarning
	if err := store.UpdateProgram(ctx, p); err != nil {
		t.Fatalf("UpdateProgram: %v", err)
	}

	got, err := store.GetProgram(ctx, "o70000")
	if err != nil {
		t.Fatalf("GetProgram: %v", err)
	}
	if got.Title != "7 INCH FLANGE" {
		t.Fatalf("title = %q after update", got.Title)
	}
	if got.ValidationStatus != catalog.StatusWarning {
		t.Fatalf("status = %q, want WARNING", got.ValidationStatus)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("created_at changed on update: %v -> %v", created, got.CreatedAt)
	}

	unknown := &catalog.Program{Identifier: "o88888", ValidationStatus: catalog.StatusPass}
	if err := store.UpdateProgram(ctx, unknown); err == nil {
		t.Fatal("expected error updating unknown record")
	}
}

func TestRenameProgramRewritesKey(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	p := testsupport.InsertProgram(t, store, "o01010", "/programs/o01010.nc")

	p.Identifier = "o62501"
	p.NumericCore = 62501
	p.FilePath = "/programs/o62501.nc"
	p.LegacyNames = []catalog.LegacyName{{Identifier: "o01010", Reason: "moved to 6-1/4 range"}}
	if err := store.RenameProgram(ctx, "o01010", p); err != nil {
		t.Fatalf("RenameProgram: %v", err)
	}

	old, err := store.GetProgram(ctx, "o01010")
	if err != nil {
		t.Fatalf("GetProgram old: %v", err)
	}
	if old != nil {
		t.Fatal("old identifier should be gone after rename")
	}

	got, err := store.GetProgram(ctx, "o62501")
	if err != nil {
		t.Fatalf("GetProgram new: %v", err)
	}
	if got == nil {
		t.Fatal("renamed record missing")
	}
	if len(got.LegacyNames) != 1 || got.LegacyNames[0].Identifier != "o01010" {
		t.Fatalf("legacy names = %+v, want prior identifier recorded", got.LegacyNames)
	}
}

func TestProgramsByCore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.InsertProgram(t, store, "o01010", "/programs/o01010.nc")
	testsupport.InsertProgram(t, store, "o01010(1)", "/programs/o01010(1).nc")
	testsupport.InsertProgram(t, store, "o01011", "/programs/o01011.nc")

	matches, err := store.ProgramsByCore(ctx, 1010)
	if err != nil {
		t.Fatalf("ProgramsByCore: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d records for core 1010, want 2", len(matches))
	}
	for _, m := range matches {
		if m.NumericCore != 1010 {
			t.Fatalf("record %q has core %d", m.Identifier, m.NumericCore)
		}
	}
}

func TestNaturalStatusPromotesRepeat(t *testing.T) {
	p := &catalog.Program{
		ValidationStatus: catalog.StatusRepeat,
		PriorStatus:      catalog.StatusWarning,
	}
	if got := p.NaturalStatus(); got != catalog.StatusWarning {
		t.Fatalf("NaturalStatus = %q, want WARNING", got)
	}

	p = &catalog.Program{ValidationStatus: catalog.StatusPass}
	if got := p.NaturalStatus(); got != catalog.StatusPass {
		t.Fatalf("NaturalStatus = %q, want PASS", got)
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	rows := make([]catalog.RegistryRow, 0, 5)
	for core := 62500; core <= 62504; core++ {
		rows = append(rows, catalog.RegistryRow{
			Identifier: ident.FromNumber(core).Canonical(),
			RoundSize:  6.25,
			RangeStart: 62500,
			RangeEnd:   62504,
			Status:     catalog.RegistryAvailable,
		})
	}
	rows[0].Status = catalog.RegistryInUse
	rows[0].FilePath = "/programs/o62500.nc"

	if err := store.ReplaceRegistry(ctx, rows); err != nil {
		t.Fatalf("ReplaceRegistry: %v", err)
	}

	count, err := store.CountRegistryRows(ctx)
	if err != nil {
		t.Fatalf("CountRegistryRows: %v", err)
	}
	if count != 5 {
		t.Fatalf("registry count = %d, want 5", count)
	}

	row, err := store.GetRegistryRow(ctx, "o62500")
	if err != nil {
		t.Fatalf("GetRegistryRow: %v", err)
	}
	if row == nil || row.Status != catalog.RegistryInUse {
		t.Fatalf("row = %+v, want IN_USE", row)
	}

	row.Status = catalog.RegistryAvailable
	row.FilePath = ""
	if err := store.UpdateRegistryRow(ctx, row); err != nil {
		t.Fatalf("UpdateRegistryRow: %v", err)
	}
	again, err := store.GetRegistryRow(ctx, "o62500")
	if err != nil {
		t.Fatalf("GetRegistryRow after update: %v", err)
	}
	if again.Status != catalog.RegistryAvailable || again.FilePath != "" {
		t.Fatalf("row after release = %+v", again)
	}
}

func TestAvailableIdentifiersOrderAndLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	var rows []catalog.RegistryRow
	for core := 70000; core <= 70004; core++ {
		rows = append(rows, catalog.RegistryRow{
			Identifier: ident.FromNumber(core).Canonical(),
			RoundSize:  7.0,
			RangeStart: 70000,
			RangeEnd:   70004,
			Status:     catalog.RegistryAvailable,
		})
	}
	rows[0].Status = catalog.RegistryInUse
	rows[2].Status = catalog.RegistryReserved
	if err := store.ReplaceRegistry(ctx, rows); err != nil {
		t.Fatalf("ReplaceRegistry: %v", err)
	}

	ids, err := store.AvailableIdentifiers(ctx, "o70000", "o70004", 0)
	if err != nil {
		t.Fatalf("AvailableIdentifiers: %v", err)
	}
	want := []string{"o70001", "o70003", "o70004"}
	if len(ids) != len(want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got %v, want %v", ids, want)
		}
	}

	limited, err := store.AvailableIdentifiers(ctx, "o70000", "o70004", 1)
	if err != nil {
		t.Fatalf("AvailableIdentifiers limited: %v", err)
	}
	if len(limited) != 1 || limited[0] != "o70001" {
		t.Fatalf("limited = %v, want [o70001]", limited)
	}
}

func TestRegistryStatsGroupsByInterval(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	rows := []catalog.RegistryRow{
		{Identifier: "o01000", RoundSize: 0, RangeStart: 1000, RangeEnd: 1049, Status: catalog.RegistryAvailable},
		{Identifier: "o01001", RoundSize: 0, RangeStart: 1000, RangeEnd: 1049, Status: catalog.RegistryInUse},
		{Identifier: "o62500", RoundSize: 6.25, RangeStart: 62500, RangeEnd: 62504, Status: catalog.RegistryAvailable},
	}
	if err := store.ReplaceRegistry(ctx, rows); err != nil {
		t.Fatalf("ReplaceRegistry: %v", err)
	}

	stats, err := store.RegistryStats(ctx)
	if err != nil {
		t.Fatalf("RegistryStats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("got %d intervals, want 2", len(stats))
	}
	if stats[0].RangeStart != 1000 || stats[1].RangeStart != 62500 {
		t.Fatalf("intervals out of order: %+v", stats)
	}
	first := stats[0]
	if first.Counts[catalog.RegistryAvailable] != 1 || first.Counts[catalog.RegistryInUse] != 1 {
		t.Fatalf("counts for first interval = %+v", first.Counts)
	}
}

func TestAuditAppendAndList(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := &catalog.AuditRecord{
		DuplicateType: catalog.DuplicateNameCollision,
		Identifiers:   []string{"o01010", "o01010(1)"},
		Action:        "rename",
		Files:         []string{"/programs/o01010(1).nc"},
		OldValues:     "o01010(1)",
		NewValues:     "o62501",
	}
	if err := store.AppendAudit(ctx, first); err != nil {
		t.Fatalf("AppendAudit: %v", err)
	}
	if first.ID == 0 {
		t.Fatal("expected audit id to be assigned")
	}

	second := &catalog.AuditRecord{Action: "classify", Notes: "no action needed"}
	if err := store.AppendAudit(ctx, second); err != nil {
		t.Fatalf("AppendAudit second: %v", err)
	}

	records, err := store.ListAudit(ctx, 0)
	if err != nil {
		t.Fatalf("ListAudit: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Action != "classify" {
		t.Fatalf("newest first: got %q", records[0].Action)
	}
	if len(records[1].Identifiers) != 2 || records[1].Identifiers[1] != "o01010(1)" {
		t.Fatalf("identifiers = %v", records[1].Identifiers)
	}

	limited, err := store.ListAudit(ctx, 1)
	if err != nil {
		t.Fatalf("ListAudit limited: %v", err)
	}
	if len(limited) != 1 || limited[0].Action != "classify" {
		t.Fatalf("limited = %+v", limited)
	}
}

func TestCheckHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.InsertProgram(t, store, "o01010", "/programs/o01010.nc")

	health, err := store.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable {
		t.Fatalf("health = %+v", health)
	}
	if len(health.MissingTables) != 0 {
		t.Fatalf("missing tables: %v", health.MissingTables)
	}
	if health.ProgramCount != 1 {
		t.Fatalf("program count = %d, want 1", health.ProgramCount)
	}
	if !health.IntegrityCheck {
		t.Fatal("integrity check failed")
	}
}
