// Package server exposes the HTTP API handlers.
package server

import (
	"database/sql"

	"github.com/mi-thom/birthday-herald/birthday"
	"github.com/mi-thom/birthday-herald/db"
	"github.com/mi-thom/birthday-herald/session"
)

// SessionSource is the slice of the tracker the status endpoint needs.
type SessionSource interface {
	CurrentSession() *session.Record
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	sqldb     *sql.DB
	handle    *db.Handle
	birthdays *birthday.Store
	sessions  *session.Store
	tracker   SessionSource
	reset     *db.ResetGuard
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(sqldb *sql.DB, handle *db.Handle, birthdays *birthday.Store, sessions *session.Store, tracker SessionSource) *Handlers {
	return &Handlers{
		sqldb:     sqldb,
		handle:    handle,
		birthdays: birthdays,
		sessions:  sessions,
		tracker:   tracker,
		reset:     db.NewResetGuard(5, 0),
	}
}
