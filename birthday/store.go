// Package birthday persists tracked user birthdays and answers recurrence
// queries against them. Records are plain data; all I/O goes through Store.
package birthday

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mi-thom/birthday-herald/db"
)

// Record is one tracked birthday. The stored year is kept for display but is
// not significant for recurrence matching.
type Record struct {
	UserID   string
	Username string
	Birthday time.Time
}

// Store reads and writes birthday records through the guarded handle.
type Store struct {
	h *db.Handle
}

func NewStore(h *db.Handle) *Store { return &Store{h: h} }

// Upsert inserts or replaces the record for userID. A later write for the same
// user replaces the prior record, never errors on duplicates.
func (s *Store) Upsert(ctx context.Context, userID, username string, birthday time.Time) (Record, error) {
	conn, release, err := s.h.Acquire(ctx)
	if err != nil {
		return Record{}, err
	}
	defer release()

	rec := Record{UserID: userID, Username: username, Birthday: Civil(birthday)}
	_, err = conn.ExecContext(ctx,
		`INSERT INTO birthdays (user_id, username, birthday, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT(user_id) DO UPDATE SET username=excluded.username, birthday=excluded.birthday, updated_at=excluded.updated_at`,
		rec.UserID, rec.Username, rec.Birthday, time.Now())
	if err != nil {
		return Record{}, fmt.Errorf("upsert birthday: %w", err)
	}
	return rec, nil
}

// Find returns the record for userID, or nil when none exists.
func (s *Store) Find(ctx context.Context, userID string) (*Record, error) {
	conn, release, err := s.h.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var rec Record
	row := conn.QueryRowContext(ctx, `SELECT user_id, username, birthday FROM birthdays WHERE user_id=$1`, userID)
	if err := row.Scan(&rec.UserID, &rec.Username, &rec.Birthday); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find birthday: %w", err)
	}
	return &rec, nil
}

// FindAllOn returns every record whose birthday falls on the given month/day.
func (s *Store) FindAllOn(ctx context.Context, month time.Month, day int) ([]Record, error) {
	all, err := s.findAll(ctx)
	if err != nil {
		return nil, err
	}
	out := []Record{}
	for _, rec := range all {
		if _, m, d := rec.Birthday.Date(); m == month && d == day {
			out = append(out, rec)
		}
	}
	return out, nil
}

// FindRecurringInRange returns every record whose birthday, re-anchored to the
// year of end, falls in the interval (start, end]. Each record appears at most
// once; a recurrence exactly on end is included.
func (s *Store) FindRecurringInRange(ctx context.Context, start, end time.Time) ([]Record, error) {
	all, err := s.findAll(ctx)
	if err != nil {
		return nil, err
	}
	out := []Record{}
	for _, rec := range all {
		if RecursInWindow(rec.Birthday, start, end) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// List returns every tracked record ordered by username. Never nil on success.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	all, err := s.findAll(ctx)
	if err != nil {
		return nil, err
	}
	if all == nil {
		all = []Record{}
	}
	return all, nil
}

// Count returns the number of tracked records.
func (s *Store) Count(ctx context.Context) (int, error) {
	conn, release, err := s.h.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	var n int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM birthdays`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count birthdays: %w", err)
	}
	return n, nil
}

// findAll loads every record. The tracked set is a chat community, small
// enough that month/day filters run in process and stay dialect-portable.
func (s *Store) findAll(ctx context.Context) ([]Record, error) {
	conn, release, err := s.h.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := conn.QueryContext(ctx, `SELECT user_id, username, birthday FROM birthdays ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list birthdays: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.UserID, &rec.Username, &rec.Birthday); err != nil {
			return nil, fmt.Errorf("scan birthday: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate birthdays: %w", err)
	}
	return out, nil
}
