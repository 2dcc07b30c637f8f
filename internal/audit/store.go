package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/turnguard/internal/db"
	"github.com/ziadkadry99/turnguard/internal/schema"
)

// Store provides append and query operations for the audit trail.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Log inserts a new audit entry. If entry.ID is empty a UUID is
// generated; a zero timestamp gets the current time.
func (s *Store) Log(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (
			id, timestamp, turn_id, session_id, module, decision, detail,
			safety_verdict, fallback_level, quality_overall, emitted
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Timestamp.UTC().Format(time.DateTime), entry.TurnID, entry.SessionID,
		string(entry.Module), entry.Decision, entry.Detail,
		entry.SafetyVerdict, int(entry.FallbackLevel), entry.QualityOverall, entry.Emitted)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// QueryFilter controls which audit entries are returned by Query.
type QueryFilter struct {
	TurnID    string
	SessionID string
	Module    Module
	Since     *time.Time
	Limit     int
	Offset    int
}

// Query returns audit entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.TurnID != "" {
		clauses = append(clauses, "turn_id = ?")
		args = append(args, filter.TurnID)
	}
	if filter.SessionID != "" {
		clauses = append(clauses, "session_id = ?")
		args = append(args, filter.SessionID)
	}
	if filter.Module != "" {
		clauses = append(clauses, "module = ?")
		args = append(args, string(filter.Module))
	}
	if filter.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.Since.UTC().Format(time.DateTime))
	}

	query := `SELECT id, timestamp, turn_id, session_id, module, decision, detail,
		safety_verdict, fallback_level, quality_overall, emitted FROM audit_entries`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts, module string
		var level int
		if err := rows.Scan(&e.ID, &ts, &e.TurnID, &e.SessionID, &module,
			&e.Decision, &e.Detail, &e.SafetyVerdict, &level, &e.QualityOverall, &e.Emitted); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		if parsed, parseErr := time.Parse(time.DateTime, ts); parseErr == nil {
			e.Timestamp = parsed
		}
		e.Module = Module(module)
		e.FallbackLevel = schema.FallbackLevel(level)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteBefore removes all audit entries older than the given time.
// Returns the number of deleted rows.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM audit_entries WHERE timestamp < ?", before.UTC().Format(time.DateTime))
	if err != nil {
		return 0, fmt.Errorf("deleting old audit entries: %w", err)
	}
	return res.RowsAffected()
}
