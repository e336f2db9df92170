package config

import "strings"

func (c *Config) normalize() error {
	var err error
	if c.Paths.CatalogDir, err = expandPath(c.Paths.CatalogDir); err != nil {
		return err
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	if len(c.Resolver.FreeRangeOrder) == 0 {
		c.Resolver.FreeRangeOrder = []string{FreeRange1Name, FreeRange2Name}
	}
	for i, name := range c.Resolver.FreeRangeOrder {
		c.Resolver.FreeRangeOrder[i] = strings.ToLower(strings.TrimSpace(name))
	}

	for i := range c.Ranges {
		c.Ranges[i].Label = strings.TrimSpace(c.Ranges[i].Label)
	}
	return nil
}
