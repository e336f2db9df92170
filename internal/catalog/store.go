package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"ocat/internal/config"
)

// Store manages catalog persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// InsertProgram adds a new catalog record.
func (s *Store) InsertProgram(ctx context.Context, p *Program) error {
	if p == nil {
		return errors.New("program is nil")
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	legacyJSON, err := encodeLegacyNames(p.LegacyNames)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO programs (`+programColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Identifier,
		p.NumericCore,
		nullableString(p.Title),
		nullableString(p.Material),
		p.OBValue,
		p.OuterDiameter,
		nullableString(p.FilePath),
		nullableString(p.ContentDigest),
		nullableString(string(p.DetectionConfidence)),
		nullableString(p.DetectionMethod),
		string(p.ValidationStatus),
		nullableString(string(p.PriorStatus)),
		nullableString(string(p.DuplicateType)),
		nullableString(p.ParentFile),
		nullableString(p.DuplicateGroup),
		nullableString(legacyJSON),
		p.RoundSize,
		nullableString(string(p.RoundSizeConfidence)),
		nullableString(string(p.RoundSizeSource)),
		boolToInt(p.InCorrectRange),
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert program: %w", err)
	}
	return nil
}

// GetProgram fetches a catalog record by identifier, or nil when absent.
func (s *Store) GetProgram(ctx context.Context, identifier string) (*Program, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+programColumns+` FROM programs WHERE identifier = ?`, identifier)
	p, err := scanProgram(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get program: %w", err)
	}
	return p, nil
}

// GetProgramByPath fetches the record owning a file path, or nil when absent.
func (s *Store) GetProgramByPath(ctx context.Context, path string) (*Program, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+programColumns+` FROM programs WHERE file_path = ? LIMIT 1`, path)
	p, err := scanProgram(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get program by path: %w", err)
	}
	return p, nil
}

// UpdateProgram persists changes to an existing catalog record.
func (s *Store) UpdateProgram(ctx context.Context, p *Program) error {
	return s.updateProgram(ctx, p.Identifier, p)
}

// RenameProgram rewrites a record's primary key together with its other
// fields. Used by the rename engine once the file move has succeeded.
func (s *Store) RenameProgram(ctx context.Context, oldIdentifier string, p *Program) error {
	return s.updateProgram(ctx, oldIdentifier, p)
}

func (s *Store) updateProgram(ctx context.Context, keyIdentifier string, p *Program) error {
	if p == nil {
		return errors.New("program is nil")
	}
	p.UpdatedAt = time.Now().UTC()

	legacyJSON, err := encodeLegacyNames(p.LegacyNames)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(
		ctx,
		`UPDATE programs
         SET identifier = ?, numeric_core = ?, title = ?, material = ?, ob_value = ?,
             outer_diameter = ?, file_path = ?, content_digest = ?, detection_confidence = ?,
             detection_method = ?, validation_status = ?, prior_status = ?, duplicate_type = ?,
             parent_file = ?, duplicate_group = ?, legacy_names_json = ?, round_size = ?,
             round_size_confidence = ?, round_size_source = ?, in_correct_range = ?, updated_at = ?
         WHERE identifier = ?`,
		p.Identifier,
		p.NumericCore,
		nullableString(p.Title),
		nullableString(p.Material),
		p.OBValue,
		p.OuterDiameter,
		nullableString(p.FilePath),
		nullableString(p.ContentDigest),
		nullableString(string(p.DetectionConfidence)),
		nullableString(p.DetectionMethod),
		string(p.ValidationStatus),
		nullableString(string(p.PriorStatus)),
		nullableString(string(p.DuplicateType)),
		nullableString(p.ParentFile),
		nullableString(p.DuplicateGroup),
		nullableString(legacyJSON),
		p.RoundSize,
		nullableString(string(p.RoundSizeConfidence)),
		nullableString(string(p.RoundSizeSource)),
		boolToInt(p.InCorrectRange),
		p.UpdatedAt.Format(time.RFC3339Nano),
		keyIdentifier,
	)
	if err != nil {
		return fmt.Errorf("update program: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update program: no record for %q", keyIdentifier)
	}
	return nil
}

// ListPrograms returns all catalog records ordered by identifier.
func (s *Store) ListPrograms(ctx context.Context) ([]*Program, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+programColumns+` FROM programs ORDER BY identifier`)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()

	var programs []*Program
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}
	return programs, rows.Err()
}

// ProgramsByCore returns the records sharing a numeric core, ordered by
// identifier. More than one result means disambiguation suffixes are in play.
func (s *Store) ProgramsByCore(ctx context.Context, core int) ([]*Program, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+programColumns+` FROM programs WHERE numeric_core = ? ORDER BY identifier`, core)
	if err != nil {
		return nil, fmt.Errorf("programs by core: %w", err)
	}
	defer rows.Close()

	var programs []*Program
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}
	return programs, rows.Err()
}

// CountPrograms returns the number of catalog records.
func (s *Store) CountPrograms(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM programs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count programs: %w", err)
	}
	return count, nil
}

const programColumns = "identifier, numeric_core, title, material, ob_value, outer_diameter, file_path, content_digest, detection_confidence, detection_method, validation_status, prior_status, duplicate_type, parent_file, duplicate_group, legacy_names_json, round_size, round_size_confidence, round_size_source, in_correct_range, created_at, updated_at"

func scanProgram(scanner interface{ Scan(dest ...any) error }) (*Program, error) {
	var (
		identifier      string
		numericCore     int
		title           sql.NullString
		material        sql.NullString
		obValue         sql.NullFloat64
		outerDiameter   sql.NullFloat64
		filePath        sql.NullString
		contentDigest   sql.NullString
		detConfidence   sql.NullString
		detMethod       sql.NullString
		validationStr   string
		priorStr        sql.NullString
		duplicateStr    sql.NullString
		parentFile      sql.NullString
		duplicateGroup  sql.NullString
		legacyJSON      sql.NullString
		roundSize       sql.NullFloat64
		roundConfidence sql.NullString
		roundSource     sql.NullString
		inCorrectRange  sql.NullInt64
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
	)

	if err := scanner.Scan(
		&identifier,
		&numericCore,
		&title,
		&material,
		&obValue,
		&outerDiameter,
		&filePath,
		&contentDigest,
		&detConfidence,
		&detMethod,
		&validationStr,
		&priorStr,
		&duplicateStr,
		&parentFile,
		&duplicateGroup,
		&legacyJSON,
		&roundSize,
		&roundConfidence,
		&roundSource,
		&inCorrectRange,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	legacy, err := decodeLegacyNames(legacyJSON.String)
	if err != nil {
		return nil, err
	}

	p := &Program{
		Identifier:          identifier,
		NumericCore:         numericCore,
		Title:               title.String,
		Material:            material.String,
		OBValue:             obValue.Float64,
		OuterDiameter:       outerDiameter.Float64,
		FilePath:            filePath.String,
		ContentDigest:       contentDigest.String,
		DetectionConfidence: Confidence(detConfidence.String),
		DetectionMethod:     detMethod.String,
		ValidationStatus:    ValidationStatus(validationStr),
		PriorStatus:         ValidationStatus(priorStr.String),
		DuplicateType:       DuplicateType(duplicateStr.String),
		ParentFile:          parentFile.String,
		DuplicateGroup:      duplicateGroup.String,
		LegacyNames:         legacy,
		RoundSize:           roundSize.Float64,
		RoundSizeConfidence: Confidence(roundConfidence.String),
		RoundSizeSource:     RoundSizeSource(roundSource.String),
		InCorrectRange:      inCorrectRange.Int64 != 0,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		p.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		p.UpdatedAt = updated
	}
	return p, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
