// Package ident models CNC program identifiers (O-numbers) as a small value
// type with a single canonicalization path. Identifiers observed on disk may
// carry disambiguation suffixes left behind by folder scans; the numeric core
// is always recovered by stripping those before re-padding.
package ident

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Digits is the fixed width of the numeric portion of a canonical identifier.
const Digits = 5

// ProgramID is a parsed program identifier. Core is the numeric portion with
// any disambiguation suffix removed; Suffix preserves the raw suffix text
// (including its delimiter) when one was present.
type ProgramID struct {
	Core   int
	Suffix string
}

var (
	suffixPattern = regexp.MustCompile(`(\(\d+\)|_\d+)$`)
	corePattern   = regexp.MustCompile(`^[oO]?(\d+)$`)
)

// Parse extracts a ProgramID from a raw token. Accepted forms are an optional
// o/O prefix, a run of digits, and an optional trailing "(N)" or "_N"
// disambiguation suffix. Surrounding whitespace and a file extension are the
// caller's responsibility.
func Parse(raw string) (ProgramID, error) {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ProgramID{}, fmt.Errorf("parse identifier: empty token")
	}

	suffix := suffixPattern.FindString(token)
	base := strings.TrimSuffix(token, suffix)

	match := corePattern.FindStringSubmatch(base)
	if match == nil {
		return ProgramID{}, fmt.Errorf("parse identifier: %q is not a program number", raw)
	}
	core, err := strconv.Atoi(match[1])
	if err != nil {
		return ProgramID{}, fmt.Errorf("parse identifier %q: %w", raw, err)
	}
	return ProgramID{Core: core, Suffix: suffix}, nil
}

// MustParse is a test and initialization helper that panics on invalid input.
func MustParse(raw string) ProgramID {
	id, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// FromNumber builds a ProgramID directly from a numeric core.
func FromNumber(core int) ProgramID {
	return ProgramID{Core: core}
}

// Canonical renders the identifier in the canonical "o" + zero-padded form.
// The disambiguation suffix is intentionally dropped: canonical identifiers
// never carry one.
func (p ProgramID) Canonical() string {
	return fmt.Sprintf("o%0*d", Digits, p.Core)
}

// String renders the identifier including any preserved suffix. Used for
// display of on-disk names that have not been renamed yet.
func (p ProgramID) String() string {
	if p.Suffix == "" {
		return p.Canonical()
	}
	return p.Canonical() + p.Suffix
}

// HasSuffix reports whether the identifier carried a disambiguation suffix.
func (p ProgramID) HasSuffix() bool {
	return p.Suffix != ""
}

// Canonicalize parses a raw token and returns its canonical form.
func Canonicalize(raw string) (string, error) {
	id, err := Parse(raw)
	if err != nil {
		return "", err
	}
	return id.Canonical(), nil
}

// CoreOf parses a raw token and returns just the numeric core.
func CoreOf(raw string) (int, error) {
	id, err := Parse(raw)
	if err != nil {
		return 0, err
	}
	return id.Core, nil
}
