// Package faults defines the shared failure taxonomy for catalog operations
// and the request-scoped context values carried through them.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel failure classes. Every error surfaced by the registry, rename
// engine, or batch coordinator wraps exactly one of these so callers can
// classify without string matching.
var (
	// ErrNoAvailableIdentifier: the target range and any permitted overflow
	// are exhausted. Reported, never retried automatically.
	ErrNoAvailableIdentifier = errors.New("no available identifier")
	// ErrDestinationCollision: a file already exists at the rename target.
	ErrDestinationCollision = errors.New("destination collision")
	// ErrSourceFileMissing: the catalog references a path that no longer exists.
	ErrSourceFileMissing = errors.New("source file missing")
	// ErrRegistryInconsistency: an identifier is IN_USE with no catalog owner,
	// or owned by more than one record. Surfaced as a warning, never
	// auto-corrected.
	ErrRegistryInconsistency = errors.New("registry inconsistency")
	// ErrParseFailure: the program body could not be parsed. The record is
	// left unclassified.
	ErrParseFailure = errors.New("parse failure")
	// ErrValidation: bad input from a caller rather than bad state on disk.
	ErrValidation = errors.New("validation error")
)

// Wrap builds an error message that includes operation context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "operation failure"
	}
	return strings.Join(parts, ": ")
}
