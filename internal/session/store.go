// Package session persists cross-turn state in SQLite. The store
// serializes writers per session: concurrent turns on the same session
// queue up instead of clobbering each other.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/turnguard/internal/db"
	"github.com/ziadkadry99/turnguard/internal/schema"
)

// ErrNotFound is returned when a session id has no row.
var ErrNotFound = errors.New("session not found")

// Store reads and writes sessions and turn history.
type Store struct {
	db *db.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a store on the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, locks: make(map[string]*sync.Mutex)}
}

func (s *Store) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[id]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[id] = l
	return l
}

// Snapshot returns a point-in-time copy of the session, creating it
// with defaults on first use.
func (s *Store) Snapshot(ctx context.Context, id string, defaultThreshold float64) (*Session, error) {
	sess, err := s.get(ctx, id)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	sess = &Session{
		ID:                 id,
		AmbiguityThreshold: defaultThreshold,
		OpenDecisions:      []string{},
		ResolvedDecisions:  []string{},
		CarriedAssumptions: []string{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, ambiguity_threshold, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		id, defaultThreshold, now.Format(time.DateTime), now.Format(time.DateTime))
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return sess, nil
}

// Get returns the session without creating it. Callers that want
// first-use defaults should use Snapshot.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	return s.get(ctx, id)
}

// Update applies fn to the session under its writer lock and commits
// the result in one write. fn sees current state, not the caller's
// possibly stale snapshot.
func (s *Store) Update(ctx context.Context, id string, defaultThreshold float64, fn func(*Session) error) (*Session, error) {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	sess, err := s.Snapshot(ctx, id, defaultThreshold)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Store) get(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, fallback_level, consecutive_failed_checks, ambiguity_threshold,
		       open_decisions, resolved_decisions, carried_assumptions, suspended_state,
		       created_at, updated_at
		FROM sessions WHERE id = ?`, id)

	var sess Session
	var open, resolved, carried, suspended, createdAt, updatedAt string
	err := row.Scan(&sess.ID, &sess.FallbackLevel, &sess.ConsecutiveFailedChecks,
		&sess.AmbiguityThreshold, &open, &resolved, &carried, &suspended,
		&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	if t, parseErr := time.Parse(time.DateTime, createdAt); parseErr == nil {
		sess.CreatedAt = t
	}
	if t, parseErr := time.Parse(time.DateTime, updatedAt); parseErr == nil {
		sess.UpdatedAt = t
	}

	if err := json.Unmarshal([]byte(open), &sess.OpenDecisions); err != nil {
		sess.OpenDecisions = []string{}
	}
	if err := json.Unmarshal([]byte(resolved), &sess.ResolvedDecisions); err != nil {
		sess.ResolvedDecisions = []string{}
	}
	if err := json.Unmarshal([]byte(carried), &sess.CarriedAssumptions); err != nil {
		sess.CarriedAssumptions = []string{}
	}
	if suspended != "" {
		var st SuspendedTurn
		if err := json.Unmarshal([]byte(suspended), &st); err == nil {
			sess.Suspended = &st
		}
	}
	return &sess, nil
}

func (s *Store) commit(ctx context.Context, sess *Session) error {
	open, _ := json.Marshal(sess.OpenDecisions)
	resolved, _ := json.Marshal(sess.ResolvedDecisions)
	carried, _ := json.Marshal(sess.CarriedAssumptions)

	suspended := ""
	if sess.Suspended != nil {
		b, err := json.Marshal(sess.Suspended)
		if err != nil {
			return fmt.Errorf("encoding suspended turn: %w", err)
		}
		suspended = string(b)
	}

	sess.UpdatedAt = time.Now().UTC()
	sess.AmbiguityThreshold = math.Round(sess.AmbiguityThreshold*100) / 100

	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET fallback_level = ?, consecutive_failed_checks = ?, ambiguity_threshold = ?,
		    open_decisions = ?, resolved_decisions = ?, carried_assumptions = ?,
		    suspended_state = ?, updated_at = ?
		WHERE id = ?`,
		int(sess.FallbackLevel), sess.ConsecutiveFailedChecks, sess.AmbiguityThreshold,
		string(open), string(resolved), string(carried), suspended,
		sess.UpdatedAt.Format(time.DateTime), sess.ID)
	if err != nil {
		return fmt.Errorf("committing session: %w", err)
	}
	return nil
}

// RecordTurn appends a turn summary row with the next sequence number.
func (s *Store) RecordTurn(ctx context.Context, rec *TurnRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = time.Now().UTC()

	row := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM turns WHERE session_id = ?`, rec.SessionID)
	if err := row.Scan(&rec.Seq); err != nil {
		return fmt.Errorf("allocating turn seq: %w", err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO turns (id, session_id, seq, task, complexity, mode, ambiguity_score,
		                   pqs_overall, fallback_level, safety_verdict, emitted, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.Seq, rec.Task, string(rec.Complexity), string(rec.Mode),
		rec.AmbiguityScore, rec.PQSOverall, int(rec.FallbackLevel), rec.SafetyVerdict,
		rec.Emitted, rec.DurationMS, rec.CreatedAt.Format(time.DateTime))
	if err != nil {
		return fmt.Errorf("recording turn: %w", err)
	}
	return nil
}

// Turns lists a session's turn history, oldest first.
func (s *Store) Turns(ctx context.Context, sessionID string) ([]TurnRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, seq, task, complexity, mode, ambiguity_score,
		       pqs_overall, fallback_level, safety_verdict, emitted, duration_ms, created_at
		FROM turns WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing turns: %w", err)
	}
	defer rows.Close()

	var out []TurnRecord
	for rows.Next() {
		var rec TurnRecord
		var complexity, mode, createdAt string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Seq, &rec.Task, &complexity, &mode,
			&rec.AmbiguityScore, &rec.PQSOverall, &rec.FallbackLevel, &rec.SafetyVerdict,
			&rec.Emitted, &rec.DurationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		if t, parseErr := time.Parse(time.DateTime, createdAt); parseErr == nil {
			rec.CreatedAt = t
		}
		rec.Complexity = schema.Complexity(complexity)
		rec.Mode = schema.Mode(mode)
		out = append(out, rec)
	}
	return out, rows.Err()
}
