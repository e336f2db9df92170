package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
)

// ReplaceRegistry rebuilds the registry table from scratch inside one
// transaction. Used only by registry initialization; rows are never added or
// removed afterward.
func (s *Store) ReplaceRegistry(ctx context.Context, rows []RegistryRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registry tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM registry`); err != nil {
		return fmt.Errorf("clear registry: %w", err)
	}

	stmt, err := tx.PrepareContext(
		ctx,
		`INSERT INTO registry (identifier, round_size, range_start, range_end, status, file_path, duplicate_count, notes)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare registry insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(
			ctx,
			row.Identifier,
			row.RoundSize,
			row.RangeStart,
			row.RangeEnd,
			string(row.Status),
			nullableString(row.FilePath),
			row.DuplicateCount,
			nullableString(row.Notes),
		); err != nil {
			return fmt.Errorf("insert registry row %s: %w", row.Identifier, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registry: %w", err)
	}
	return nil
}

// GetRegistryRow fetches the allocation record for one identifier, or nil
// when the identifier is outside every range.
func (s *Store) GetRegistryRow(ctx context.Context, identifier string) (*RegistryRow, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT identifier, round_size, range_start, range_end, status, file_path, duplicate_count, notes
         FROM registry WHERE identifier = ?`,
		identifier,
	)
	r, err := scanRegistryRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get registry row: %w", err)
	}
	return r, nil
}

// UpdateRegistryRow persists the mutable fields of an allocation record.
func (s *Store) UpdateRegistryRow(ctx context.Context, row *RegistryRow) error {
	if row == nil {
		return errors.New("registry row is nil")
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE registry SET status = ?, file_path = ?, duplicate_count = ?, notes = ? WHERE identifier = ?`,
		string(row.Status),
		nullableString(row.FilePath),
		row.DuplicateCount,
		nullableString(row.Notes),
		row.Identifier,
	)
	if err != nil {
		return fmt.Errorf("update registry row: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update registry row: no row for %q", row.Identifier)
	}
	return nil
}

// AvailableIdentifiers returns the AVAILABLE identifiers between the two
// canonical bounds in ascending numeric order. Canonical identifiers are
// fixed width, so lexical order is numeric order.
func (s *Store) AvailableIdentifiers(ctx context.Context, lowIdentifier, highIdentifier string, limit int) ([]string, error) {
	query := `SELECT identifier FROM registry
              WHERE identifier >= ? AND identifier <= ? AND status = ?
              ORDER BY identifier`
	args := []any{lowIdentifier, highIdentifier, string(RegistryAvailable)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("available identifiers: %w", err)
	}
	defer rows.Close()

	var identifiers []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		identifiers = append(identifiers, id)
	}
	return identifiers, rows.Err()
}

// CountRegistryRows returns the total number of allocation records.
func (s *Store) CountRegistryRows(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM registry`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count registry rows: %w", err)
	}
	return count, nil
}

// IntervalStats aggregates allocation state for one physical interval.
type IntervalStats struct {
	RoundSize  float64
	RangeStart int
	RangeEnd   int
	Counts     map[RegistryStatus]int
}

// RegistryStats returns occupancy counts grouped by physical interval,
// ordered by range start.
func (s *Store) RegistryStats(ctx context.Context) ([]IntervalStats, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT range_start, range_end, MIN(round_size), status, COUNT(1)
         FROM registry GROUP BY range_start, range_end, status`,
	)
	if err != nil {
		return nil, fmt.Errorf("registry stats: %w", err)
	}
	defer rows.Close()

	byInterval := make(map[[2]int]*IntervalStats)
	for rows.Next() {
		var (
			start, end int
			roundSize  float64
			statusStr  string
			count      int
		)
		if err := rows.Scan(&start, &end, &roundSize, &statusStr, &count); err != nil {
			return nil, err
		}
		key := [2]int{start, end}
		stats, ok := byInterval[key]
		if !ok {
			stats = &IntervalStats{
				RoundSize:  roundSize,
				RangeStart: start,
				RangeEnd:   end,
				Counts:     make(map[RegistryStatus]int, 3),
			}
			byInterval[key] = stats
		}
		stats.Counts[RegistryStatus(statusStr)] += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]IntervalStats, 0, len(byInterval))
	for _, stats := range byInterval {
		out = append(out, *stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RangeStart < out[j].RangeStart })
	return out, nil
}

// InUseRows returns every allocation record currently marked IN_USE.
func (s *Store) InUseRows(ctx context.Context) ([]*RegistryRow, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT identifier, round_size, range_start, range_end, status, file_path, duplicate_count, notes
         FROM registry WHERE status = ? ORDER BY identifier`,
		string(RegistryInUse),
	)
	if err != nil {
		return nil, fmt.Errorf("in-use rows: %w", err)
	}
	defer rows.Close()

	var out []*RegistryRow
	for rows.Next() {
		r, err := scanRegistryRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRegistryRow(scanner interface{ Scan(dest ...any) error }) (*RegistryRow, error) {
	var (
		identifier     string
		roundSize      float64
		rangeStart     int
		rangeEnd       int
		statusStr      string
		filePath       sql.NullString
		duplicateCount sql.NullInt64
		notes          sql.NullString
	)
	if err := scanner.Scan(
		&identifier,
		&roundSize,
		&rangeStart,
		&rangeEnd,
		&statusStr,
		&filePath,
		&duplicateCount,
		&notes,
	); err != nil {
		return nil, err
	}
	return &RegistryRow{
		Identifier:     identifier,
		RoundSize:      roundSize,
		RangeStart:     rangeStart,
		RangeEnd:       rangeEnd,
		Status:         RegistryStatus(statusStr),
		FilePath:       filePath.String,
		DuplicateCount: int(duplicateCount.Int64),
		Notes:          notes.String,
	}, nil
}
