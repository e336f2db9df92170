package config

const (
	defaultCatalogDir = "~/programs"
	defaultDataDir    = "~/.local/share/ocat"
	defaultLogDir     = "~/.local/share/ocat/logs"
	defaultLogFormat  = "console"
	defaultLogLevel   = "info"

	defaultRoundSizeMin      = 5.0
	defaultRoundSizeMax      = 15.0
	defaultExactTolerance    = 0.1
	defaultFallbackTolerance = 1.0
)

// FreeRange1Name and FreeRange2Name are the tokens accepted in
// resolver.free_range_order.
const (
	FreeRange1Name = "free1"
	FreeRange2Name = "free2"
)

// Default returns a Config populated with repository defaults. The range
// table mirrors the shop numbering scheme the catalog was built around:
// program numbers encode the round size in their leading digits, the two
// free ranges absorb programs whose round size is unknown, and 9.5/9.625
// intentionally share one physical range because they run the same tooling.
func Default() Config {
	return Config{
		Paths: Paths{
			CatalogDir: defaultCatalogDir,
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
		},
		Resolver: Resolver{
			RoundSizeMin:      defaultRoundSizeMin,
			RoundSizeMax:      defaultRoundSizeMax,
			ExactTolerance:    defaultExactTolerance,
			FallbackTolerance: defaultFallbackTolerance,
			FreeRangeOrder:    []string{FreeRange1Name, FreeRange2Name},
		},
		Ranges: []Range{
			{RoundSize: 0.0, Start: 1000, End: 9999, Label: "free range 1"},
			{RoundSize: -1.0, Start: 20000, End: 29999, Label: "free range 2"},
			{RoundSize: 5.25, Start: 52500, End: 54999, Label: `5-1/4"`},
			{RoundSize: 5.5, Start: 55000, End: 57499, Label: `5-1/2"`},
			{RoundSize: 5.75, Start: 57500, End: 59999, Label: `5-3/4"`},
			{RoundSize: 6.0, Start: 60000, End: 62499, Label: `6"`},
			{RoundSize: 6.25, Start: 62500, End: 64999, Label: `6-1/4"`},
			{RoundSize: 6.5, Start: 65000, End: 67499, Label: `6-1/2"`},
			{RoundSize: 6.75, Start: 67500, End: 69999, Label: `6-3/4"`},
			{RoundSize: 7.0, Start: 70000, End: 74999, Label: `7"`},
			{RoundSize: 7.5, Start: 75000, End: 79999, Label: `7-1/2"`},
			{RoundSize: 8.0, Start: 80000, End: 84999, Label: `8"`},
			{RoundSize: 8.5, Start: 85000, End: 89999, Label: `8-1/2"`},
			{RoundSize: 9.0, Start: 90000, End: 92499, Label: `9"`},
			{RoundSize: 9.5, Start: 92500, End: 94999, Label: `9-1/2"`},
			{RoundSize: 9.625, Start: 92500, End: 94999, Label: `9-5/8"`},
			{RoundSize: 10.0, Start: 95000, End: 96999, Label: `10"`},
			{RoundSize: 10.75, Start: 30000, End: 34999, Label: `10-3/4"`},
			{RoundSize: 12.0, Start: 35000, End: 39999, Label: `12"`},
			{RoundSize: 14.0, Start: 40000, End: 44999, Label: `14"`},
			{RoundSize: 15.0, Start: 45000, End: 49999, Label: `15"`},
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
