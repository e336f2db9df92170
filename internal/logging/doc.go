// Package logging configures slog output for ocat and provides the
// standardized attribute helpers used across the repository.
package logging
