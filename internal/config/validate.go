package config

import (
	"errors"
	"fmt"
	"sort"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateResolver(); err != nil {
		return err
	}
	if err := c.validateRanges(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.CatalogDir == "" {
		return errors.New("paths.catalog_dir must be set")
	}
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateResolver() error {
	r := c.Resolver
	if r.RoundSizeMin <= 0 {
		return errors.New("resolver.round_size_min must be positive")
	}
	if r.RoundSizeMax <= r.RoundSizeMin {
		return errors.New("resolver.round_size_max must be greater than resolver.round_size_min")
	}
	if r.ExactTolerance <= 0 {
		return errors.New("resolver.exact_tolerance must be positive")
	}
	if r.FallbackTolerance < r.ExactTolerance {
		return errors.New("resolver.fallback_tolerance must be at least resolver.exact_tolerance")
	}
	seen := make(map[string]struct{}, len(r.FreeRangeOrder))
	for _, name := range r.FreeRangeOrder {
		if name != FreeRange1Name && name != FreeRange2Name {
			return fmt.Errorf("resolver.free_range_order: unknown range %q", name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("resolver.free_range_order: %q listed twice", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func (c *Config) validateRanges() error {
	if len(c.Ranges) == 0 {
		return errors.New("at least one [[ranges]] entry is required")
	}

	var haveFree1, haveFree2 bool
	for _, r := range c.Ranges {
		if r.Start <= 0 || r.End <= 0 {
			return fmt.Errorf("range %q: bounds must be positive", r.Label)
		}
		if r.End < r.Start {
			return fmt.Errorf("range %q: end %d precedes start %d", r.Label, r.End, r.Start)
		}
		switch r.RoundSize {
		case 0.0:
			haveFree1 = true
		case -1.0:
			haveFree2 = true
		default:
			if r.RoundSize < 0 {
				return fmt.Errorf("range %q: round_size %v is neither positive nor a free-range sentinel", r.Label, r.RoundSize)
			}
		}
	}
	if !haveFree1 || !haveFree2 {
		return errors.New("both free ranges (round_size 0.0 and -1.0) must be defined")
	}

	// Distinct round sizes may share one physical range (identical bounds);
	// any other overlap is a numbering-scheme error.
	sorted := make([]Range, len(c.Ranges))
	copy(sorted, c.Ranges)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.Start == prev.Start && cur.End == prev.End {
			continue
		}
		if cur.Start <= prev.End {
			return fmt.Errorf("ranges %q [%d-%d] and %q [%d-%d] overlap",
				prev.Label, prev.Start, prev.End, cur.Label, cur.Start, cur.End)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
