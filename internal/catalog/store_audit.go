package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// AppendAudit writes one append-only resolution record. There is no update
// or delete counterpart on purpose.
func (s *Store) AppendAudit(ctx context.Context, record *AuditRecord) error {
	if record == nil {
		return fmt.Errorf("audit record is nil")
	}
	now := time.Now().UTC()
	record.CreatedAt = now

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO audit_log (created_at, duplicate_type, identifiers, action, files, old_values, new_values, notes)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		now.Format(time.RFC3339Nano),
		nullableString(string(record.DuplicateType)),
		nullableString(strings.Join(record.Identifiers, ",")),
		record.Action,
		nullableString(strings.Join(record.Files, ",")),
		nullableString(record.OldValues),
		nullableString(record.NewValues),
		nullableString(record.Notes),
	)
	if err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	record.ID = id
	return nil
}

// ListAudit returns the most recent audit records, newest first. A limit of
// zero returns everything.
func (s *Store) ListAudit(ctx context.Context, limit int) ([]*AuditRecord, error) {
	query := `SELECT id, created_at, duplicate_type, identifiers, action, files, old_values, new_values, notes
              FROM audit_log ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	defer rows.Close()

	var records []*AuditRecord
	for rows.Next() {
		var (
			id            int64
			createdRaw    string
			duplicateType sql.NullString
			identifiers   sql.NullString
			action        string
			files         sql.NullString
			oldValues     sql.NullString
			newValues     sql.NullString
			notes         sql.NullString
		)
		if err := rows.Scan(&id, &createdRaw, &duplicateType, &identifiers, &action, &files, &oldValues, &newValues, &notes); err != nil {
			return nil, err
		}
		record := &AuditRecord{
			ID:            id,
			DuplicateType: DuplicateType(duplicateType.String),
			Action:        action,
			OldValues:     oldValues.String,
			NewValues:     newValues.String,
			Notes:         notes.String,
		}
		if identifiers.String != "" {
			record.Identifiers = strings.Split(identifiers.String, ",")
		}
		if files.String != "" {
			record.Files = strings.Split(files.String, ",")
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			record.CreatedAt = created
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
