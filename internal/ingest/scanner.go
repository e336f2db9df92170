// Package ingest walks scan folders and turns program files into catalog
// records. The domain text parser that extracts dimensions and tooling from a
// body is an external collaborator behind the BodyParser interface; the
// built-in parser reads only the header contract.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ocat/internal/catalog"
	"ocat/internal/contentid"
	"ocat/internal/ident"
	"ocat/internal/logging"
	"ocat/internal/resolve"
)

// ParseResult is what a body parser extracts from program text.
type ParseResult struct {
	Title               string
	Material            string
	OBValue             float64
	OuterDiameter       float64
	ValidationStatus    catalog.ValidationStatus
	DetectionConfidence catalog.Confidence
	DetectionMethod     string
}

// BodyParser extracts structured fields from a program body.
type BodyParser interface {
	Parse(content []byte) (ParseResult, error)
}

// HeaderOnlyParser is the built-in BodyParser: it trusts the header line and
// extracts nothing from the body itself.
type HeaderOnlyParser struct{}

// Parse implements BodyParser using only the header contract.
func (HeaderOnlyParser) Parse(content []byte) (ParseResult, error) {
	header, err := ParseHeader(content)
	if err != nil {
		return ParseResult{}, err
	}
	return ParseResult{
		Title:               header.Title,
		ValidationStatus:    catalog.StatusPass,
		DetectionConfidence: catalog.ConfidenceMedium,
		DetectionMethod:     "header",
	}, nil
}

// Summary reports one scan pass.
type Summary struct {
	Scanned int
	Added   int
	Updated int
	Failed  int
	Errors  []error
}

// Scanner ingests program files into the catalog.
type Scanner struct {
	store    *catalog.Store
	resolver *resolve.Resolver
	parser   BodyParser
	logger   *slog.Logger
}

// NewScanner builds a Scanner. A nil parser falls back to the header-only
// implementation.
func NewScanner(store *catalog.Store, resolver *resolve.Resolver, parser BodyParser, logger *slog.Logger) *Scanner {
	if parser == nil {
		parser = HeaderOnlyParser{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scanner{store: store, resolver: resolver, parser: parser, logger: logger}
}

// programExtensions are the file suffixes treated as part programs.
var programExtensions = map[string]bool{
	".nc":    true,
	".tap":   true,
	".txt":   true,
	".gcode": true,
}

// Scan walks root recursively and ingests every program file found. One
// file's failure never aborts the walk.
func (s *Scanner) Scan(ctx context.Context, root string) (Summary, error) {
	var summary Summary

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !programExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		summary.Scanned++
		if ingestErr := s.ingestFile(ctx, path, &summary); ingestErr != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Errorf("%s: %w", path, ingestErr))
			s.logger.Warn("ingest failed",
				logging.String("path", path),
				logging.Error(ingestErr))
		}
		return nil
	})
	if err != nil {
		return summary, fmt.Errorf("walk %s: %w", root, err)
	}

	s.logger.Info("scan finished",
		logging.String("root", root),
		logging.Int("scanned", summary.Scanned),
		logging.Int("added", summary.Added),
		logging.Int("updated", summary.Updated),
		logging.Int("failed", summary.Failed))
	return summary, nil
}

func (s *Scanner) ingestFile(ctx context.Context, path string, summary *Summary) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	header, err := ParseHeader(content)
	if err != nil {
		return err
	}
	id, err := ident.Parse(header.Identifier)
	if err != nil {
		return err
	}

	parsed, err := s.parser.Parse(content)
	if err != nil {
		return err
	}

	digest := contentid.DigestBytes(content)

	existing, err := s.store.GetProgramByPath(ctx, path)
	if err != nil {
		return err
	}
	if existing != nil {
		existing.Title = parsed.Title
		existing.Material = parsed.Material
		existing.OBValue = parsed.OBValue
		existing.OuterDiameter = parsed.OuterDiameter
		existing.ContentDigest = digest
		existing.DetectionConfidence = parsed.DetectionConfidence
		existing.DetectionMethod = parsed.DetectionMethod
		s.applyRoundSize(existing)
		if err := s.store.UpdateProgram(ctx, existing); err != nil {
			return err
		}
		summary.Updated++
		return nil
	}

	identifier, err := s.assignIdentifier(ctx, id)
	if err != nil {
		return err
	}

	record := &catalog.Program{
		Identifier:          identifier,
		NumericCore:         id.Core,
		Title:               parsed.Title,
		Material:            parsed.Material,
		OBValue:             parsed.OBValue,
		OuterDiameter:       parsed.OuterDiameter,
		FilePath:            path,
		ContentDigest:       digest,
		DetectionConfidence: parsed.DetectionConfidence,
		DetectionMethod:     parsed.DetectionMethod,
		ValidationStatus:    parsed.ValidationStatus,
	}
	s.applyRoundSize(record)
	if err := s.store.InsertProgram(ctx, record); err != nil {
		return err
	}
	summary.Added++
	return nil
}

// assignIdentifier keeps the file's own token unless another record already
// holds it, in which case the next free disambiguation suffix is appended.
// The collision is resolved properly later by classification plus rename.
func (s *Scanner) assignIdentifier(ctx context.Context, id ident.ProgramID) (string, error) {
	candidate := id.String()
	existing, err := s.store.GetProgram(ctx, candidate)
	if err != nil {
		return "", err
	}
	if existing == nil {
		return candidate, nil
	}

	siblings, err := s.store.ProgramsByCore(ctx, id.Core)
	if err != nil {
		return "", err
	}
	taken := make(map[string]bool, len(siblings))
	for _, p := range siblings {
		taken[p.Identifier] = true
	}
	base := ident.FromNumber(id.Core).Canonical()
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s(%d)", base, n)
		if !taken[candidate] {
			return candidate, nil
		}
	}
}

// applyRoundSize resolves and stamps round-size fields on the record.
func (s *Scanner) applyRoundSize(p *catalog.Program) {
	result := s.resolver.Resolve(p)
	p.RoundSizeConfidence = result.Confidence
	p.RoundSizeSource = result.Source
	if result.Resolved {
		p.RoundSize = result.RoundSize
	}
	p.InCorrectRange = s.resolver.InCorrectRange(p.Identifier, p.RoundSize, result.Resolved)
}
