package session

import (
	"context"
	"time"

	"github.com/mi-thom/birthday-herald/birthday"
)

// PreviousFinder is the slice of Store the matcher needs.
type PreviousFinder interface {
	FindPrevious(ctx context.Context, excludingID int64) (*Record, error)
}

// BirthdayFinder answers recurrence queries; *birthday.Store satisfies it.
type BirthdayFinder interface {
	FindRecurringInRange(ctx context.Context, start, end time.Time) ([]birthday.Record, error)
}

// Matcher computes which birthdays recurred in the gap between the previous
// session and the current one.
type Matcher struct {
	sessions  PreviousFinder
	birthdays BirthdayFinder

	now func() time.Time
}

func NewMatcher(sessions PreviousFinder, birthdays BirthdayFinder) *Matcher {
	return &Matcher{sessions: sessions, birthdays: birthdays, now: time.Now}
}

// SincePreviousSession returns every birthday that recurred in the window
// (previous session's start, today]. Without a previous session the window
// opens yesterday. The result is never nil on success.
func (m *Matcher) SincePreviousSession(ctx context.Context, current Record) ([]birthday.Record, error) {
	prev, err := m.sessions.FindPrevious(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	today := birthday.Civil(m.now())
	windowStart := today.AddDate(0, 0, -1)
	if prev != nil {
		windowStart = birthday.Civil(prev.SessionStart)
	}
	recs, err := m.birthdays.FindRecurringInRange(ctx, windowStart, today)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []birthday.Record{}
	}
	return recs, nil
}
