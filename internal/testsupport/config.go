package testsupport

import (
	"path/filepath"
	"testing"

	"ocat/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test
// and a deliberately small range table so registry enumeration stays cheap.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.CatalogDir = filepath.Join(base, "programs")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Ranges = []config.Range{
		{RoundSize: 0.0, Start: 1000, End: 1049, Label: "free range 1"},
		{RoundSize: -1.0, Start: 2000, End: 2049, Label: "free range 2"},
		{RoundSize: 5.25, Start: 52500, End: 52504, Label: `5-1/4"`},
		{RoundSize: 6.25, Start: 62500, End: 62504, Label: `6-1/4"`},
		{RoundSize: 7.0, Start: 70000, End: 70004, Label: `7"`},
		{RoundSize: 9.5, Start: 92500, End: 92504, Label: `9-1/2"`},
		{RoundSize: 9.625, Start: 92500, End: 92504, Label: `9-5/8"`},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// WithRanges replaces the range table on the test config.
func WithRanges(entries ...config.Range) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Ranges = entries
	}
}

// WithFreeRangeOrder overrides the overflow fill order on the test config.
func WithFreeRangeOrder(names ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Resolver.FreeRangeOrder = names
	}
}
