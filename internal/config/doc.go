// Package config loads and validates the ocat configuration file.
//
// The numeric range table, the round-size matching tolerances, and the free
// range overflow order all live here rather than in code: their values are
// shop numbering policy, not algorithmic properties.
package config
