package db

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/mi-thom/birthday-herald/telemetry"
)

// ErrLockTimeout is returned when the store lock could not be acquired within the
// configured bound. Callers treat it as non-fatal: the operation is skipped and
// logged, never retried automatically.
var ErrLockTimeout = errors.New("db: lock acquisition timed out")

// Handle wraps a *sql.DB behind a single mutual-exclusion guard so that every
// store read and write is serialized. Acquisition waits at most the configured
// bound; release must happen on every exit path, which Acquire enforces by
// handing back an idempotent release func.
type Handle struct {
	sqldb *sql.DB
	sem   chan struct{}
	wait  time.Duration
}

// NewHandle wraps db with a bounded-wait guard. A non-positive wait falls back
// to 5 seconds.
func NewHandle(db *sql.DB, wait time.Duration) *Handle {
	if wait <= 0 {
		wait = 5 * time.Second
	}
	return &Handle{sqldb: db, sem: make(chan struct{}, 1), wait: wait}
}

// Acquire takes the guard and returns the database plus a release func. The
// release func is safe to call more than once, so callers can defer it and
// still release early. On timeout it returns ErrLockTimeout.
func (h *Handle) Acquire(ctx context.Context) (*sql.DB, func(), error) {
	timer := time.NewTimer(h.wait)
	defer timer.Stop()
	select {
	case h.sem <- struct{}{}:
		var once sync.Once
		release := func() { once.Do(func() { <-h.sem }) }
		return h.sqldb, release, nil
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case <-timer.C:
		telemetry.CountLockTimeout()
		return nil, nil, ErrLockTimeout
	}
}

// Ping checks connectivity through the guard.
func (h *Handle) Ping(ctx context.Context) error {
	conn, release, err := h.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return conn.PingContext(ctx)
}

// Close closes the underlying database.
func (h *Handle) Close() error { return h.sqldb.Close() }
