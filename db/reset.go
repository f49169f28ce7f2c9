package db

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ResetAll deletes every row in the durable store: birthdays, sessions, and the
// kv scratch table. It is destructive and must only be reached through a
// confirmed ResetGuard.
func ResetAll(ctx context.Context, h *Handle) error {
	conn, release, err := h.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("reset begin tx: %w", err)
	}
	for _, table := range []string{"birthdays", "sessions", "kv"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("reset commit: %w", err)
	}
	slog.Info("store reset successful")
	return nil
}

// ResetGuard gates the destructive reset behind repeated confirmation: the
// caller must invoke Confirm the threshold number of times within the window.
// The observed chatbot behavior (5 presses within 5 seconds) is the default.
type ResetGuard struct {
	mu        sync.Mutex
	threshold int
	window    time.Duration
	count     int
	deadline  time.Time

	now func() time.Time
}

// NewResetGuard builds a guard; non-positive arguments fall back to the
// defaults of 5 confirmations within 5 seconds.
func NewResetGuard(threshold int, window time.Duration) *ResetGuard {
	if threshold <= 0 {
		threshold = 5
	}
	if window <= 0 {
		window = 5 * time.Second
	}
	return &ResetGuard{threshold: threshold, window: window, now: time.Now}
}

// Confirm registers one confirmation press and reports whether the threshold
// has been reached. Reaching the threshold arms the reset and clears the
// counter for the next cycle.
func (g *ResetGuard) Confirm() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if now.After(g.deadline) {
		g.count = 0
		g.deadline = now.Add(g.window)
	}
	g.count++
	if g.count >= g.threshold {
		g.count = 0
		g.deadline = time.Time{}
		return true
	}
	return false
}

// Remaining reports how many more confirmations are needed in the current window.
func (g *ResetGuard) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.now().After(g.deadline) {
		return g.threshold
	}
	return g.threshold - g.count
}
