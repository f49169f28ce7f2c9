// Package session persists stream sessions and decides, tick by tick, when a
// new broadcast session begins. Session records are plain data; all I/O goes
// through Store.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mi-thom/birthday-herald/db"
)

// Record is one stream session. SessionEnd is refreshed on every live tick as
// a heartbeat and is null while the session has never been heartbeated.
type Record struct {
	ID           int64
	SessionStart time.Time
	SessionEnd   sql.NullTime
}

// Store reads and writes session records through the guarded handle.
type Store struct {
	h *db.Handle
}

func NewStore(h *db.Handle) *Store { return &Store{h: h} }

// Create appends a new session starting at start and returns it with its
// assigned id. SessionStart is immutable after this.
func (s *Store) Create(ctx context.Context, start time.Time) (Record, error) {
	conn, release, err := s.h.Acquire(ctx)
	if err != nil {
		return Record{}, err
	}
	defer release()

	rec := Record{SessionStart: start}
	row := conn.QueryRowContext(ctx, `INSERT INTO sessions (session_start) VALUES ($1) RETURNING id`, start)
	if err := row.Scan(&rec.ID); err != nil {
		return Record{}, fmt.Errorf("create session: %w", err)
	}
	return rec, nil
}

// UpdateEnd sets the session's end heartbeat. Idempotent: repeating the same
// timestamp leaves the row unchanged.
func (s *Store) UpdateEnd(ctx context.Context, id int64, end time.Time) error {
	conn, release, err := s.h.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	if _, err := conn.ExecContext(ctx, `UPDATE sessions SET session_end=$1 WHERE id=$2`, end, id); err != nil {
		return fmt.Errorf("update session end: %w", err)
	}
	return nil
}

// FindLatest returns the session with the greatest start time, or nil when the
// log is empty.
func (s *Store) FindLatest(ctx context.Context) (*Record, error) {
	return s.findTop(ctx, `SELECT id, session_start, session_end FROM sessions ORDER BY session_start DESC, id DESC LIMIT 1`)
}

// FindPrevious returns the latest session whose id differs from excludingID,
// or nil when there is none.
func (s *Store) FindPrevious(ctx context.Context, excludingID int64) (*Record, error) {
	return s.findTop(ctx, `SELECT id, session_start, session_end FROM sessions WHERE id != $1 ORDER BY session_start DESC, id DESC LIMIT 1`, excludingID)
}

func (s *Store) findTop(ctx context.Context, query string, args ...any) (*Record, error) {
	conn, release, err := s.h.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var rec Record
	row := conn.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&rec.ID, &rec.SessionStart, &rec.SessionEnd); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &rec, nil
}

// MarkTick records the tracker's last tick time in the kv table, the same
// job-heartbeat row the monitoring endpoint reads.
func (s *Store) MarkTick(ctx context.Context, at time.Time) error {
	conn, release, err := s.h.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	_, err = conn.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES ('job_session_tick_last', $1, $2)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		at.UTC().Format(time.RFC3339), at)
	if err != nil {
		return fmt.Errorf("mark tick: %w", err)
	}
	return nil
}
