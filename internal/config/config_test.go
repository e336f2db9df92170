package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ocat/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing config")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.Resolver.ExactTolerance != 0.1 {
		t.Fatalf("expected default exact tolerance, got %v", cfg.Resolver.ExactTolerance)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
catalog_dir = "` + filepath.Join(dir, "programs") + `"
data_dir = "` + filepath.Join(dir, "data") + `"

[resolver]
fallback_tolerance = 2.0

[logging]
format = "JSON"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Resolver.FallbackTolerance != 2.0 {
		t.Fatalf("expected fallback tolerance override, got %v", cfg.Resolver.FallbackTolerance)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected normalized logging format json, got %q", cfg.Logging.Format)
	}
	if !strings.HasSuffix(cfg.DatabasePath(), "catalog.db") {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath())
	}
}

func TestLoadRangesReplaceDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[[ranges]]
round_size = 0.0
start = 1000
end = 1049
label = "free range 1"

[[ranges]]
round_size = -1.0
start = 2000
end = 2049
label = "free range 2"

[[ranges]]
round_size = 7.0
start = 70000
end = 70004
label = "7 inch"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Ranges) != 3 {
		t.Fatalf("expected the file table to replace the default one, got %d ranges", len(cfg.Ranges))
	}
}

func TestValidateRejectsOverlappingRanges(t *testing.T) {
	cfg := config.Default()
	cfg.Ranges = append(cfg.Ranges, config.Range{RoundSize: 6.3, Start: 63000, End: 63500, Label: "overlap"})
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected overlap to be rejected")
	}
}

func TestValidateAllowsFusedRanges(t *testing.T) {
	cfg := config.Default()
	// 9.5 and 9.625 already share bounds in the default table.
	if err := cfg.Validate(); err != nil {
		t.Fatalf("fused ranges should validate: %v", err)
	}
}

func TestValidateRequiresFreeRanges(t *testing.T) {
	cfg := config.Default()
	var kept []config.Range
	for _, r := range cfg.Ranges {
		if r.RoundSize != -1.0 {
			kept = append(kept, r)
		}
	}
	cfg.Ranges = kept
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected missing free range 2 to be rejected")
	}
}

func TestValidateRejectsUnknownFreeRangeName(t *testing.T) {
	cfg := config.Default()
	cfg.Resolver.FreeRangeOrder = []string{"free3"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unknown free range name to be rejected")
	}
}
