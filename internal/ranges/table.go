// Package ranges maps round sizes to their reserved program-number intervals.
package ranges

import (
	"fmt"
	"math"
	"sort"

	"ocat/internal/config"
)

// Sentinel round sizes for the two free overflow ranges.
const (
	FreeRange1 = 0.0
	FreeRange2 = -1.0
)

// Entry is one reserved identifier interval.
type Entry struct {
	RoundSize float64
	Start     int
	End       int
	Label     string
}

// Size returns the number of identifiers in the interval.
func (e Entry) Size() int {
	return e.End - e.Start + 1
}

// Contains reports whether the numeric core falls inside the interval.
func (e Entry) Contains(core int) bool {
	return core >= e.Start && core <= e.End
}

// IsFree reports whether the entry is one of the sentinel overflow ranges.
func (e Entry) IsFree() bool {
	return e.RoundSize == FreeRange1 || e.RoundSize == FreeRange2
}

// Match describes how a round size was matched against the table.
type Match int

const (
	// MatchExact: the round size is a table key.
	MatchExact Match = iota
	// MatchNear: within the tight tolerance of a key (small recording drift).
	MatchNear
	// MatchFallback: within the loose tolerance (between defined families).
	MatchFallback
	// MatchNearest: beyond both tolerances; nearest positive key accepted so
	// classification is total over positive inputs.
	MatchNearest
)

func (m Match) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchNear:
		return "near"
	case MatchFallback:
		return "fallback"
	case MatchNearest:
		return "nearest"
	default:
		return "unknown"
	}
}

// Table is the static round size → interval mapping plus matching policy.
type Table struct {
	entries   []Entry
	exactTol  float64
	looseTol  float64
	freeOrder []float64
}

// NewTable builds a Table from validated configuration.
func NewTable(cfg *config.Config) (*Table, error) {
	if cfg == nil {
		return nil, fmt.Errorf("ranges: config is nil")
	}
	entries := make([]Entry, 0, len(cfg.Ranges))
	for _, r := range cfg.Ranges {
		entries = append(entries, Entry{
			RoundSize: r.RoundSize,
			Start:     r.Start,
			End:       r.End,
			Label:     r.Label,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Start < entries[j].Start })

	freeOrder := make([]float64, 0, len(cfg.Resolver.FreeRangeOrder))
	for _, name := range cfg.Resolver.FreeRangeOrder {
		switch name {
		case config.FreeRange1Name:
			freeOrder = append(freeOrder, FreeRange1)
		case config.FreeRange2Name:
			freeOrder = append(freeOrder, FreeRange2)
		default:
			return nil, fmt.Errorf("ranges: unknown free range %q", name)
		}
	}
	if len(freeOrder) == 0 {
		freeOrder = []float64{FreeRange1, FreeRange2}
	}

	return &Table{
		entries:   entries,
		exactTol:  cfg.Resolver.ExactTolerance,
		looseTol:  cfg.Resolver.FallbackTolerance,
		freeOrder: freeOrder,
	}, nil
}

// RangeFor resolves the interval for a round size using the graduated
// tolerance policy: exact key, then nearest positive key within the tight
// tolerance, then within the loose tolerance, then the nearest positive key
// unconditionally. Non-positive values that are not sentinels resolve to
// nothing.
func (t *Table) RangeFor(roundSize float64) (Entry, Match, bool) {
	for _, e := range t.entries {
		if e.RoundSize == roundSize {
			return e, MatchExact, true
		}
	}
	if roundSize <= 0 {
		return Entry{}, 0, false
	}

	best, ok := t.nearestPositive(roundSize)
	if !ok {
		return Entry{}, 0, false
	}
	distance := math.Abs(best.RoundSize - roundSize)
	switch {
	case distance <= t.exactTol:
		return best, MatchNear, true
	case distance <= t.looseTol:
		return best, MatchFallback, true
	default:
		return best, MatchNearest, true
	}
}

func (t *Table) nearestPositive(roundSize float64) (Entry, bool) {
	var best Entry
	bestDistance := math.Inf(1)
	found := false
	for _, e := range t.entries {
		if e.RoundSize <= 0 {
			continue
		}
		d := math.Abs(e.RoundSize - roundSize)
		if d < bestDistance {
			best = e
			bestDistance = d
			found = true
		}
	}
	return best, found
}

// Entries returns a copy of the configured intervals ordered by start.
func (t *Table) Entries() []Entry {
	cp := make([]Entry, len(t.entries))
	copy(cp, t.entries)
	return cp
}

// UniqueIntervals returns the distinct physical intervals, enumerating fused
// ranges exactly once. Used by registry initialization.
func (t *Table) UniqueIntervals() []Entry {
	seen := make(map[[2]int]struct{}, len(t.entries))
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		key := [2]int{e.Start, e.End}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}

// FreeRanges returns the sentinel overflow ranges in configured fill order.
func (t *Table) FreeRanges() []Entry {
	out := make([]Entry, 0, len(t.freeOrder))
	for _, sentinel := range t.freeOrder {
		for _, e := range t.entries {
			if e.RoundSize == sentinel {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// EntryContaining locates the interval holding a numeric core, if any.
func (t *Table) EntryContaining(core int) (Entry, bool) {
	for _, e := range t.entries {
		if e.Contains(core) {
			return e, true
		}
	}
	return Entry{}, false
}
