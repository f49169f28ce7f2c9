package birthday

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRecursInWindow(t *testing.T) {
	tests := []struct {
		name     string
		birthday time.Time
		start    time.Time
		end      time.Time
		want     bool
	}{
		{
			name:     "inside window",
			birthday: date(1990, time.March, 2),
			start:    date(2024, time.March, 1),
			end:      date(2024, time.March, 5),
			want:     true,
		},
		{
			name:     "after window",
			birthday: date(1985, time.March, 10),
			start:    date(2024, time.March, 1),
			end:      date(2024, time.March, 5),
			want:     false,
		},
		{
			name:     "exactly on end is included",
			birthday: date(1990, time.March, 5),
			start:    date(2024, time.March, 1),
			end:      date(2024, time.March, 5),
			want:     true,
		},
		{
			name:     "exactly on start is excluded",
			birthday: date(1990, time.March, 1),
			start:    date(2024, time.March, 1),
			end:      date(2024, time.March, 5),
			want:     false,
		},
		{
			name:     "year wraparound catches january birthday",
			birthday: date(1999, time.January, 1),
			start:    date(2023, time.December, 28),
			end:      date(2024, time.January, 3),
			want:     true,
		},
		{
			name:     "year wraparound catches december birthday",
			birthday: date(1999, time.December, 30),
			start:    date(2023, time.December, 28),
			end:      date(2024, time.January, 3),
			want:     true,
		},
		{
			name:     "recurred before window opened",
			birthday: date(1999, time.December, 20),
			start:    date(2023, time.December, 28),
			end:      date(2024, time.January, 3),
			want:     false,
		},
		{
			name:     "stored year is ignored",
			birthday: date(2024, time.March, 2),
			start:    date(2024, time.March, 1),
			end:      date(2024, time.March, 5),
			want:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RecursInWindow(tt.birthday, tt.start, tt.end); got != tt.want {
				t.Errorf("RecursInWindow(%v, %v, %v) = %v, want %v",
					tt.birthday.Format("2006-01-02"), tt.start.Format("2006-01-02"),
					tt.end.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

// Feb 29 clamps to Feb 28 in non-leap candidate years. This pins the policy.
func TestLeapDayClampsToFeb28(t *testing.T) {
	leapling := date(1996, time.February, 29)

	if got := Anchored(leapling, 2025); !got.Equal(date(2025, time.February, 28)) {
		t.Fatalf("Anchored(%v, 2025) = %v, want 2025-02-28", leapling, got)
	}
	if got := Anchored(leapling, 2024); !got.Equal(date(2024, time.February, 29)) {
		t.Fatalf("Anchored(%v, 2024) = %v, want 2024-02-29", leapling, got)
	}

	// Non-leap 2025: the clamped Feb 28 recurrence matches a window ending there.
	if !RecursInWindow(leapling, date(2025, time.February, 25), date(2025, time.February, 28)) {
		t.Error("clamped Feb 28 recurrence should match window ending 2025-02-28")
	}
	// And a window that ends on Feb 27 misses it.
	if RecursInWindow(leapling, date(2025, time.February, 25), date(2025, time.February, 27)) {
		t.Error("clamped Feb 28 recurrence should not match window ending 2025-02-27")
	}
}

// For any month/day and any window of at most one year, at most one recurrence
// matches: the one anchored to the window's end year (or the year before).
func TestSingleRecurrencePerYearWindow(t *testing.T) {
	bday := date(1990, time.June, 15)
	start := date(2023, time.July, 1)
	end := start.AddDate(1, 0, 0) // exactly one year

	if !RecursInWindow(bday, start, end) {
		t.Fatal("expected the single recurrence inside a full-year window")
	}

	// Slide the window so the recurrence sits outside it.
	if RecursInWindow(bday, date(2023, time.July, 1), date(2024, time.June, 14)) {
		t.Fatal("recurrence on 2024-06-15 should be outside a window ending 2024-06-14")
	}
}

func TestCivilDropsClock(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 9, 42, 11, 0, time.Local)
	if got := Civil(ts); !got.Equal(date(2024, time.March, 5)) {
		t.Fatalf("Civil(%v) = %v, want 2024-03-05", ts, got)
	}
}
