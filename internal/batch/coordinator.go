// Package batch drives the rename engine over many records with dry-run and
// execute modes, progress reporting, and intra-batch collision avoidance.
package batch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"ocat/internal/catalog"
	"ocat/internal/faults"
	"ocat/internal/ident"
	"ocat/internal/logging"
	"ocat/internal/ranges"
	"ocat/internal/rename"
)

// Item is one batch work unit.
type Item struct {
	Identifier    string
	RoundSize     float64
	Reason        string
	AllowOverflow bool
}

// Action is one planned or executed old→new mapping.
type Action struct {
	OldIdentifier string
	NewIdentifier string
}

// ItemError couples a per-item failure to its identifier. One item's failure
// never aborts sibling items.
type ItemError struct {
	Identifier string
	Err        error
}

// Summary reports one batch run. In dry-run mode Actions is the exact plan
// that an execute run over the same starting state would carry out.
type Summary struct {
	RunID      string
	Total      int
	Successful int
	Failed     int
	Skipped    int
	Errors     []ItemError
	Actions    []Action
	DryRun     bool
}

// ProgressFunc receives (processed count, total, current identifier) once per
// processed item. A panic from the callback aborts the remaining batch.
type ProgressFunc func(processed, total int, current string)

// Coordinator sequences rename requests while holding a private reservation
// set, so two records in one pass are never offered the same slot. The
// reservation set lives in memory rather than as RESERVED registry rows to
// avoid a long-lived lock.
type Coordinator struct {
	engine *rename.Engine
	store  *catalog.Store
	table  *ranges.Table
	logger *slog.Logger
}

// NewCoordinator builds a Coordinator over the engine and catalog.
func NewCoordinator(engine *rename.Engine, store *catalog.Store, table *ranges.Table, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Coordinator{engine: engine, store: store, table: table, logger: logger}
}

// Run processes the items in order. Dry-run mode performs no filesystem or
// database mutation and returns the plan an execute run would follow.
func (c *Coordinator) Run(ctx context.Context, items []Item, dryRun bool, onProgress ProgressFunc) Summary {
	summary := Summary{
		RunID:  uuid.New().String(),
		Total:  len(items),
		DryRun: dryRun,
	}
	ctx = faults.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, c.logger)
	reserved := make(map[string]bool, len(items))

	aborted := false
	for i, item := range items {
		if aborted || ctx.Err() != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, ItemError{
				Identifier: item.Identifier,
				Err:        fmt.Errorf("not processed: batch aborted"),
			})
			continue
		}

		c.processItem(ctx, item, dryRun, reserved, &summary)

		if onProgress != nil && !invokeProgress(onProgress, i+1, summary.Total, item.Identifier) {
			logger.Warn("progress callback panicked, aborting batch",
				logging.String("identifier", item.Identifier))
			aborted = true
		}
	}

	logger.Info("batch finished",
		logging.Bool("dry_run", dryRun),
		logging.Int("total", summary.Total),
		logging.Int("successful", summary.Successful),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped))
	return summary
}

func (c *Coordinator) processItem(ctx context.Context, item Item, dryRun bool, reserved map[string]bool, summary *Summary) {
	skip, err := c.shouldSkip(ctx, item)
	if err != nil {
		summary.Failed++
		summary.Errors = append(summary.Errors, ItemError{Identifier: item.Identifier, Err: err})
		return
	}
	if skip {
		summary.Skipped++
		return
	}

	req := rename.Request{
		Identifier:    item.Identifier,
		RoundSize:     item.RoundSize,
		Reason:        item.Reason,
		Skip:          reserved,
		AllowOverflow: item.AllowOverflow,
	}

	if dryRun {
		target, err := c.engine.ResolveTarget(ctx, req)
		if err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, ItemError{Identifier: item.Identifier, Err: err})
			return
		}
		reserved[target] = true
		summary.Successful++
		summary.Actions = append(summary.Actions, Action{OldIdentifier: item.Identifier, NewIdentifier: target})
		return
	}

	outcome, err := c.engine.Execute(ctx, req)
	if err != nil {
		summary.Failed++
		summary.Errors = append(summary.Errors, ItemError{Identifier: item.Identifier, Err: err})
		return
	}
	reserved[outcome.NewIdentifier] = true
	summary.Successful++
	summary.Actions = append(summary.Actions, Action{OldIdentifier: outcome.OldIdentifier, NewIdentifier: outcome.NewIdentifier})
}

// shouldSkip drops items whose record already sits inside the interval for
// the requested round size: there is nothing to rename.
func (c *Coordinator) shouldSkip(ctx context.Context, item Item) (bool, error) {
	record, err := c.store.GetProgram(ctx, item.Identifier)
	if err != nil {
		return false, err
	}
	if record == nil {
		return false, faults.Wrap(faults.ErrValidation, "batch", "lookup",
			fmt.Sprintf("no catalog record for %q", item.Identifier), nil)
	}
	entry, _, ok := c.table.RangeFor(item.RoundSize)
	if !ok {
		return false, nil
	}
	id, err := ident.Parse(record.Identifier)
	if err != nil {
		return false, nil
	}
	// Suffixed records always need a rename even when the core lands right.
	return !id.HasSuffix() && entry.Contains(record.NumericCore), nil
}

// invokeProgress shields the batch from a panicking callback; it returns
// false when the callback panicked.
func invokeProgress(fn ProgressFunc, processed, total int, current string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	fn(processed, total, current)
	return true
}
