// Package rename performs the multi-store rename that keeps a program file,
// its embedded header, the catalog record, and the number registry mutually
// consistent. Each rename runs as an explicit state machine so a partial
// failure reports exactly how far it got.
package rename

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ocat/internal/catalog"
	"ocat/internal/faults"
	"ocat/internal/fileutil"
	"ocat/internal/ident"
	"ocat/internal/logging"
	"ocat/internal/registry"
	"ocat/internal/resolve"
)

// Request is one rename request.
type Request struct {
	// Identifier is the record's current catalog identifier, suffix included.
	Identifier string
	// RoundSize drives target interval selection.
	RoundSize float64
	// Preferred is offered to the registry before scanning the interval.
	Preferred string
	// Skip holds identifiers already promised elsewhere; batch runs pass
	// their reservation set here.
	Skip map[string]bool
	// AllowOverflow permits falling back to the free overflow ranges when
	// the primary interval is exhausted.
	AllowOverflow bool
	// Reason lands in the provenance comment, legacy-name entry, and audit
	// record.
	Reason string
}

// Outcome reports a completed or partially-completed rename.
type Outcome struct {
	OldIdentifier string
	NewIdentifier string
	OldPath       string
	NewPath       string
	Stage         Stage
}

// Engine executes rename requests. File operations and the relational store
// are two independently-failable resources with no transaction between them;
// the step order puts the irreversible part (removing the old file) as late
// as possible.
type Engine struct {
	store    *catalog.Store
	registry *registry.Registry
	resolver *resolve.Resolver
	logger   *slog.Logger
}

// NewEngine builds an Engine over the catalog, registry, and resolver.
func NewEngine(store *catalog.Store, reg *registry.Registry, resolver *resolve.Resolver, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{store: store, registry: reg, resolver: resolver, logger: logger}
}

// ResolveTarget picks the identifier a request would receive without mutating
// anything. The primary interval is tried first; when overflow is permitted
// and the interval is exhausted, the free overflow ranges are walked in
// configured order. Dry-run planning and execution share this path, which is
// what makes the dry-run plan binding.
func (e *Engine) ResolveTarget(ctx context.Context, req Request) (string, error) {
	target, err := e.registry.FindNextAvailable(ctx, req.RoundSize, req.Preferred, req.Skip)
	if err == nil {
		return target, nil
	}
	if !errors.Is(err, faults.ErrNoAvailableIdentifier) || !req.AllowOverflow {
		return "", err
	}
	for _, entry := range e.registry.Table().FreeRanges() {
		target, overflowErr := e.registry.FindNextInEntry(ctx, entry, "", req.Skip)
		if overflowErr == nil {
			return target, nil
		}
		if !errors.Is(overflowErr, faults.ErrNoAvailableIdentifier) {
			return "", overflowErr
		}
	}
	return "", err
}

// Execute runs the full state machine for one request. Any failure before
// the file move leaves the original file and catalog untouched, so the
// request is safe to retry as-is.
func (e *Engine) Execute(ctx context.Context, req Request) (*Outcome, error) {
	outcome := &Outcome{OldIdentifier: req.Identifier, Stage: StageRequested}
	ctx = faults.WithIdentifier(ctx, req.Identifier)

	record, err := e.store.GetProgram(ctx, req.Identifier)
	if err != nil {
		return outcome, err
	}
	if record == nil {
		return outcome, faults.Wrap(faults.ErrValidation, "rename", "lookup",
			fmt.Sprintf("no catalog record for %q", req.Identifier), nil)
	}
	outcome.OldPath = record.FilePath

	oldID, err := ident.Parse(record.Identifier)
	if err != nil {
		return outcome, faults.Wrap(faults.ErrValidation, "rename", "lookup",
			fmt.Sprintf("unparseable identifier %q", record.Identifier), err)
	}

	target, err := e.ResolveTarget(ctx, req)
	if err != nil {
		return outcome, err
	}
	outcome.NewIdentifier = target
	outcome.Stage = StageTargetResolved

	content, err := os.ReadFile(record.FilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return outcome, faults.Wrap(faults.ErrSourceFileMissing, "rename", string(StageContentRewritten),
				record.FilePath, nil)
		}
		return outcome, fmt.Errorf("read program file: %w", err)
	}
	now := time.Now().UTC()
	rewritten := rewriteContent(content, oldID.Core, target, req.Reason, now)
	outcome.Stage = StageContentRewritten

	newPath := filepath.Join(filepath.Dir(record.FilePath), target+filepath.Ext(record.FilePath))
	outcome.NewPath = newPath
	if fileutil.Exists(newPath) {
		return outcome, faults.Wrap(faults.ErrDestinationCollision, "rename", string(StageFileMoved),
			newPath, nil)
	}
	// Stage the rewritten body next to the target and move it into place, so
	// a failed write never leaves a truncated file under the final name.
	tmpPath := newPath + ".tmp"
	if err := os.WriteFile(tmpPath, rewritten, 0o644); err != nil {
		return outcome, fmt.Errorf("write renamed file: %w", err)
	}
	if err := fileutil.MoveFile(tmpPath, newPath); err != nil {
		_ = os.Remove(tmpPath)
		return outcome, fmt.Errorf("move renamed file into place: %w", err)
	}
	if err := os.Remove(record.FilePath); err != nil {
		// The new file exists; the old one could not be removed. Report it
		// rather than rolling back a verified write.
		return outcome, fmt.Errorf("remove old file %s: %w", record.FilePath, err)
	}
	outcome.Stage = StageFileMoved

	oldCanonical := oldID.Canonical()
	newID := ident.MustParse(target)

	record.LegacyNames = append(record.LegacyNames, catalog.LegacyName{
		Identifier: record.Identifier,
		RenamedAt:  now,
		Reason:     req.Reason,
	})
	record.Identifier = target
	record.NumericCore = newID.Core
	record.FilePath = newPath
	if req.RoundSize > 0 {
		record.RoundSize = req.RoundSize
	}
	record.InCorrectRange = e.resolver.InCorrectRange(target, record.RoundSize, record.RoundSize > 0)
	if err := e.store.RenameProgram(ctx, req.Identifier, record); err != nil {
		return outcome, err
	}
	outcome.Stage = StageCatalogUpdated

	if err := e.updateRegistry(ctx, oldCanonical, target, newPath); err != nil {
		return outcome, err
	}
	outcome.Stage = StageRegistryUpdated

	audit := &catalog.AuditRecord{
		DuplicateType: record.DuplicateType,
		Identifiers:   []string{req.Identifier, target},
		Action:        "rename",
		Files:         []string{outcome.OldPath, newPath},
		OldValues:     req.Identifier,
		NewValues:     target,
		Notes:         auditNotes(req),
	}
	if err := e.store.AppendAudit(ctx, audit); err != nil {
		return outcome, err
	}
	outcome.Stage = StageAudited

	logging.WithContext(ctx, e.logger).Info("program renamed",
		logging.String("new", target),
		logging.String("path", newPath))
	return outcome, nil
}

// updateRegistry releases the old identifier and occupies the new one. The
// old number stays held when another catalog record still claims the same
// numeric core (suffix siblings), or when it sits outside every interval.
func (e *Engine) updateRegistry(ctx context.Context, oldCanonical, newIdentifier, newPath string) error {
	if oldCanonical != newIdentifier {
		oldCore, _ := ident.CoreOf(oldCanonical)
		siblings, err := e.store.ProgramsByCore(ctx, oldCore)
		if err != nil {
			return err
		}
		row, err := e.store.GetRegistryRow(ctx, oldCanonical)
		if err != nil {
			return err
		}
		if row != nil && len(siblings) == 0 {
			if err := e.registry.Release(ctx, oldCanonical); err != nil {
				return err
			}
		}
	}
	return e.registry.Occupy(ctx, newIdentifier, newPath)
}

func auditNotes(req Request) string {
	parts := make([]string, 0, 2)
	if req.RoundSize > 0 {
		parts = append(parts, fmt.Sprintf("round size %v", req.RoundSize))
	}
	if req.Reason != "" {
		parts = append(parts, req.Reason)
	}
	return strings.Join(parts, "; ")
}
