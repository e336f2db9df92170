// Package registry maintains the enumerated universe of legal program
// identifiers and their allocation state.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"ocat/internal/catalog"
	"ocat/internal/faults"
	"ocat/internal/ident"
	"ocat/internal/logging"
	"ocat/internal/ranges"
)

// Registry guards allocation state over the catalog store. All mutating
// operations serialize on one mutex: findNextAvailable followed by occupy is
// a check-then-act sequence that is not safe under concurrent mutation.
type Registry struct {
	mu     sync.Mutex
	store  *catalog.Store
	table  *ranges.Table
	logger *slog.Logger
}

// New builds a Registry over the catalog store and range table.
func New(store *catalog.Store, table *ranges.Table, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Registry{store: store, table: table, logger: logger}
}

// InitResult summarizes a registry initialization pass.
type InitResult struct {
	TotalIdentifiers int
	InUse            int
	Available        int
	MultiOwner       int
}

// Initialize rebuilds the registry: one row per legal identifier across every
// physical interval, IN_USE where a catalog record already owns the number.
// Fused intervals (two round sizes over one range) are enumerated exactly
// once. Identifiers owned by more than one catalog record get a duplicate
// count and a warning note; those collisions must be resolved before the
// registry can be trusted.
func (r *Registry) Initialize(ctx context.Context) (InitResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	programs, err := r.store.ListPrograms(ctx)
	if err != nil {
		return InitResult{}, fmt.Errorf("list catalog records: %w", err)
	}

	owners := make(map[string][]*catalog.Program)
	for _, p := range programs {
		canonical := ident.FromNumber(p.NumericCore).Canonical()
		owners[canonical] = append(owners[canonical], p)
	}

	var result InitResult
	var rows []catalog.RegistryRow
	for _, entry := range r.table.UniqueIntervals() {
		for core := entry.Start; core <= entry.End; core++ {
			identifier := ident.FromNumber(core).Canonical()
			row := catalog.RegistryRow{
				Identifier: identifier,
				RoundSize:  entry.RoundSize,
				RangeStart: entry.Start,
				RangeEnd:   entry.End,
				Status:     catalog.RegistryAvailable,
			}
			if records := owners[identifier]; len(records) > 0 {
				row.Status = catalog.RegistryInUse
				row.FilePath = records[0].FilePath
				result.InUse++
				if len(records) > 1 {
					row.DuplicateCount = len(records)
					row.Notes = fmt.Sprintf("WARNING: %d catalog records claim this identifier", len(records))
					result.MultiOwner++
					r.logger.Warn("identifier owned by multiple catalog records",
						logging.String("identifier", identifier),
						logging.Int("owners", len(records)))
				}
			} else {
				result.Available++
			}
			rows = append(rows, row)
			result.TotalIdentifiers++
		}
	}

	if err := r.store.ReplaceRegistry(ctx, rows); err != nil {
		return InitResult{}, fmt.Errorf("replace registry: %w", err)
	}

	r.logger.Info("registry initialized",
		logging.Int("identifiers", result.TotalIdentifiers),
		logging.Int("in_use", result.InUse),
		logging.Int("available", result.Available),
		logging.Int("multi_owner", result.MultiOwner))
	return result, nil
}

// FindNextAvailable returns the first AVAILABLE identifier in the interval
// for the round size, preferring the supplied identifier when it is inside
// the interval and free. Identifiers in skip are treated as taken; batch
// callers pass their reservation set here. The search never crosses into a
// different interval: exhaustion surfaces as ErrNoAvailableIdentifier and the
// caller decides whether a free range is an acceptable fallback.
func (r *Registry) FindNextAvailable(ctx context.Context, roundSize float64, preferred string, skip map[string]bool) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, _, ok := r.table.RangeFor(roundSize)
	if !ok {
		return "", faults.Wrap(faults.ErrNoAvailableIdentifier, "registry", "find next available",
			fmt.Sprintf("no interval for round size %v", roundSize), nil)
	}
	return r.nextAvailableInEntry(ctx, entry, preferred, skip)
}

// FindNextInEntry is FindNextAvailable scoped to one explicit interval. Used
// by callers walking the overflow order after a primary interval is full.
func (r *Registry) FindNextInEntry(ctx context.Context, entry ranges.Entry, preferred string, skip map[string]bool) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextAvailableInEntry(ctx, entry, preferred, skip)
}

func (r *Registry) nextAvailableInEntry(ctx context.Context, entry ranges.Entry, preferred string, skip map[string]bool) (string, error) {
	low := ident.FromNumber(entry.Start).Canonical()
	high := ident.FromNumber(entry.End).Canonical()

	if preferred != "" && !skip[preferred] {
		if core, err := ident.CoreOf(preferred); err == nil && entry.Contains(core) {
			canonical := ident.FromNumber(core).Canonical()
			row, err := r.store.GetRegistryRow(ctx, canonical)
			if err != nil {
				return "", err
			}
			if row != nil && row.Status == catalog.RegistryAvailable {
				return canonical, nil
			}
		}
	}

	candidates, err := r.store.AvailableIdentifiers(ctx, low, high, 0)
	if err != nil {
		return "", err
	}
	for _, candidate := range candidates {
		if !skip[candidate] {
			return candidate, nil
		}
	}
	return "", faults.Wrap(faults.ErrNoAvailableIdentifier, "registry", "find next available",
		fmt.Sprintf("interval [%d, %d] exhausted", entry.Start, entry.End), nil)
}

// Occupy marks an identifier IN_USE by the given file. Occupying a row that
// is already IN_USE is a logic error and is rejected.
func (r *Registry) Occupy(ctx context.Context, identifier, filePath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, err := r.store.GetRegistryRow(ctx, identifier)
	if err != nil {
		return err
	}
	if row == nil {
		return faults.Wrap(faults.ErrRegistryInconsistency, "registry", "occupy",
			fmt.Sprintf("%s is outside every configured interval", identifier), nil)
	}
	if row.Status == catalog.RegistryInUse {
		return faults.Wrap(faults.ErrRegistryInconsistency, "registry", "occupy",
			fmt.Sprintf("%s is already in use by %s", identifier, row.FilePath), nil)
	}
	row.Status = catalog.RegistryInUse
	row.FilePath = filePath
	return r.store.UpdateRegistryRow(ctx, row)
}

// Release marks an identifier AVAILABLE and clears its owning path.
func (r *Registry) Release(ctx context.Context, identifier string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, err := r.store.GetRegistryRow(ctx, identifier)
	if err != nil {
		return err
	}
	if row == nil {
		return faults.Wrap(faults.ErrRegistryInconsistency, "registry", "release",
			fmt.Sprintf("%s is outside every configured interval", identifier), nil)
	}
	row.Status = catalog.RegistryAvailable
	row.FilePath = ""
	row.DuplicateCount = 0
	row.Notes = ""
	return r.store.UpdateRegistryRow(ctx, row)
}

// Reserve marks an identifier RESERVED without assigning a file. Reserved
// rows are skipped by allocation until released.
func (r *Registry) Reserve(ctx context.Context, identifier, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, err := r.store.GetRegistryRow(ctx, identifier)
	if err != nil {
		return err
	}
	if row == nil {
		return faults.Wrap(faults.ErrRegistryInconsistency, "registry", "reserve",
			fmt.Sprintf("%s is outside every configured interval", identifier), nil)
	}
	if row.Status == catalog.RegistryInUse {
		return faults.Wrap(faults.ErrRegistryInconsistency, "registry", "reserve",
			fmt.Sprintf("%s is already in use by %s", identifier, row.FilePath), nil)
	}
	row.Status = catalog.RegistryReserved
	row.Notes = note
	return r.store.UpdateRegistryRow(ctx, row)
}

// Verify cross-checks IN_USE rows against the catalog and reports
// inconsistencies without correcting them.
func (r *Registry) Verify(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.store.InUseRows(ctx)
	if err != nil {
		return nil, err
	}

	var findings []string
	for _, row := range rows {
		core, err := ident.CoreOf(row.Identifier)
		if err != nil {
			findings = append(findings, fmt.Sprintf("%s: unparseable registry identifier", row.Identifier))
			continue
		}
		owners, err := r.store.ProgramsByCore(ctx, core)
		if err != nil {
			return nil, err
		}
		switch {
		case len(owners) == 0:
			findings = append(findings, fmt.Sprintf("%s: IN_USE with no catalog owner", row.Identifier))
		case len(owners) > 1:
			findings = append(findings, fmt.Sprintf("%s: owned by %d catalog records", row.Identifier, len(owners)))
		}
	}
	return findings, nil
}

// Stats returns occupancy counts per physical interval.
func (r *Registry) Stats(ctx context.Context) ([]catalog.IntervalStats, error) {
	return r.store.RegistryStats(ctx)
}

// Table exposes the range table the registry allocates from.
func (r *Registry) Table() *ranges.Table {
	return r.table
}
