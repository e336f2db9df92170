// Package resolve determines a program's round size from weighted evidence
// sources and judges whether its identifier sits in the matching interval.
package resolve

import (
	"regexp"
	"strconv"
	"strings"

	"ocat/internal/catalog"
	"ocat/internal/config"
	"ocat/internal/ident"
	"ocat/internal/ranges"
)

// Result is one round-size determination.
type Result struct {
	RoundSize  float64
	Confidence catalog.Confidence
	Source     catalog.RoundSizeSource
	Resolved   bool
}

// Resolver applies the evidence priority order: title text, the embedded OB
// dimension, then the outer diameter. Title text is operator-authored and
// most reliable; OB is machine-derived from the body; outer diameter is a
// looser geometric proxy and is demoted accordingly.
type Resolver struct {
	table *ranges.Table
	min   float64
	max   float64
}

// NewResolver builds a Resolver from configuration and the range table.
func NewResolver(cfg *config.Config, table *ranges.Table) *Resolver {
	return &Resolver{
		table: table,
		min:   cfg.Resolver.RoundSizeMin,
		max:   cfg.Resolver.RoundSizeMax,
	}
}

var (
	// A decimal adjacent to a size marker word, e.g. "6.25 ROUND" or "RD 9.5".
	markedSizePattern = regexp.MustCompile(`(?i)(?:\b(?:ROUND|RND|RD|DIA|DIAMETER)\b[^\d]{0,3}(\d+(?:\.\d+)?))|(?:(\d+(?:\.\d+)?)[^\w]{0,3}\b(?:ROUND|RND|RD|DIA|DIAMETER|INCH|IN)\b)`)
	bareSizePattern   = regexp.MustCompile(`\d+\.\d+`)
)

// Resolve determines the round size for a catalog record. Unresolved records
// come back with confidence NONE and source MANUAL; the caller must either
// obtain manual input or accept a free-range assignment.
func (r *Resolver) Resolve(p *catalog.Program) Result {
	if size, ok := r.fromTitle(p.Title); ok {
		return Result{RoundSize: size, Confidence: catalog.ConfidenceHigh, Source: catalog.SourceTitle, Resolved: true}
	}
	if r.inBounds(p.OBValue) {
		return Result{RoundSize: p.OBValue, Confidence: catalog.ConfidenceHigh, Source: catalog.SourceGCode, Resolved: true}
	}
	if r.inBounds(p.OuterDiameter) {
		return Result{RoundSize: p.OuterDiameter, Confidence: catalog.ConfidenceMedium, Source: catalog.SourceDimension, Resolved: true}
	}
	return Result{Confidence: catalog.ConfidenceNone, Source: catalog.SourceManual}
}

// fromTitle scans operator-authored title text for a size. A number adjacent
// to a size marker word wins over a bare decimal; either way the value must
// fall inside the configured physical bounds.
func (r *Resolver) fromTitle(title string) (float64, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, false
	}

	if match := markedSizePattern.FindStringSubmatch(title); match != nil {
		token := match[1]
		if token == "" {
			token = match[2]
		}
		if size, err := strconv.ParseFloat(token, 64); err == nil && r.inBounds(size) {
			return size, true
		}
	}

	for _, token := range bareSizePattern.FindAllString(title, -1) {
		size, err := strconv.ParseFloat(token, 64)
		if err != nil {
			continue
		}
		if r.inBounds(size) {
			return size, true
		}
	}
	return 0, false
}

func (r *Resolver) inBounds(value float64) bool {
	return value >= r.min && value <= r.max
}

// InCorrectRange reports whether an identifier's numeric core falls inside
// the interval for its round size. Unknown round sizes are vacuously correct:
// placement cannot be judged without one.
func (r *Resolver) InCorrectRange(identifier string, roundSize float64, resolved bool) bool {
	if !resolved {
		return true
	}
	core, err := ident.CoreOf(identifier)
	if err != nil {
		return false
	}
	entry, _, ok := r.table.RangeFor(roundSize)
	if !ok {
		return true
	}
	return entry.Contains(core)
}
