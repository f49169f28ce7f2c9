package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mi-thom/birthday-herald/birthday"
	"github.com/mi-thom/birthday-herald/config"
	"github.com/mi-thom/birthday-herald/telemetry"
)

// Liveness is the external stream-status signal, polled once per tick.
type Liveness interface {
	IsLive(ctx context.Context) (bool, error)
}

// Announcer receives the birthdays matched at a new-session boundary.
type Announcer interface {
	AnnounceBirthdays(ctx context.Context, recs []birthday.Record)
}

// TrackerStore is the slice of Store the tracker needs.
type TrackerStore interface {
	Create(ctx context.Context, start time.Time) (Record, error)
	UpdateEnd(ctx context.Context, id int64, end time.Time) error
	FindLatest(ctx context.Context) (*Record, error)
	MarkTick(ctx context.Context, at time.Time) error
}

// BirthdayMatcher computes birthdays since the previous session.
type BirthdayMatcher interface {
	SincePreviousSession(ctx context.Context, current Record) ([]birthday.Record, error)
}

// Tracker owns the open/close/extend decisions for sessions. It polls the
// liveness signal on a fixed cadence, heartbeats the current session while
// live, and announces birthdays when a genuinely new session begins. A failed
// tick never stops the loop.
type Tracker struct {
	store     TrackerStore
	matcher   BirthdayMatcher
	liveness  Liveness
	announcer Announcer
	tickEvery time.Duration
	grace     time.Duration

	mu        sync.Mutex
	current   *Record
	timer     *time.Timer
	deadline  time.Time
	paused    bool
	remaining time.Duration

	now func() time.Time
}

func NewTracker(cfg *config.Config, store TrackerStore, matcher BirthdayMatcher, liveness Liveness, announcer Announcer) *Tracker {
	return &Tracker{
		store:     store,
		matcher:   matcher,
		liveness:  liveness,
		announcer: announcer,
		tickEvery: cfg.TickInterval,
		grace:     cfg.GracePeriod,
		now:       time.Now,
	}
}

// Run drives the tick loop until ctx is done. An immediate tick fires on start
// so a live stream is picked up without waiting a full interval.
func (t *Tracker) Run(ctx context.Context) {
	slog.Info("session tracker starting",
		slog.Duration("interval", t.tickEvery), slog.Duration("grace", t.grace))
	t.Tick(ctx)

	t.mu.Lock()
	t.timer = time.NewTimer(t.tickEvery)
	t.deadline = t.now().Add(t.tickEvery)
	timer := t.timer
	t.mu.Unlock()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session tracker stopped")
			return
		case <-timer.C:
			t.Tick(ctx)
			t.mu.Lock()
			if !t.paused {
				timer.Reset(t.tickEvery)
				t.deadline = t.now().Add(t.tickEvery)
			}
			t.mu.Unlock()
		}
	}
}

// Pause suspends the cadence, preserving the time remaining until the next
// tick so a pause/resume cycle does not drift the schedule.
func (t *Tracker) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.paused {
		return
	}
	t.paused = true
	t.remaining = 0
	if t.timer != nil && t.timer.Stop() {
		t.remaining = time.Until(t.deadline)
		if t.remaining < 0 {
			t.remaining = 0
		}
	}
}

// Resume restarts the cadence with whatever time was left when Pause hit.
func (t *Tracker) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.paused {
		return
	}
	t.paused = false
	if t.timer != nil {
		t.timer.Reset(t.remaining)
		t.deadline = t.now().Add(t.remaining)
	}
}

// CurrentSession returns a snapshot of the in-memory current session, or nil
// when idle.
func (t *Tracker) CurrentSession() *Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return nil
	}
	rec := *t.current
	return &rec
}

func (t *Tracker) setCurrent(rec *Record) {
	t.mu.Lock()
	t.current = rec
	t.mu.Unlock()
}

// Tick runs one poll-and-decide cycle. Every failure is logged and absorbed
// here so the driver keeps ticking.
func (t *Tracker) Tick(ctx context.Context) {
	inc(telemetry.TicksTotal)
	telemetry.TimeFunc(telemetry.TickDuration, func() { t.tickOnce(ctx) })
}

func (t *Tracker) tickOnce(ctx context.Context) {
	if err := t.store.MarkTick(ctx, t.now()); err != nil {
		slog.Debug("tick heartbeat not recorded", slog.Any("err", err))
	}

	live, err := t.liveness.IsLive(ctx)
	if err != nil {
		slog.Warn("liveness poll failed", slog.Any("err", err))
		return
	}

	if !live {
		if t.CurrentSession() != nil {
			slog.Info("stream offline; session left to age out")
			t.setCurrent(nil)
		}
		telemetry.UpdateSessionGauge(false)
		return
	}
	telemetry.UpdateSessionGauge(true)

	cur := t.CurrentSession()
	if cur == nil {
		t.openOrAdopt(ctx)
		return
	}

	// Heartbeat: session_end doubles as last-seen-alive for the next
	// grace-period check.
	if err := t.store.UpdateEnd(ctx, cur.ID, t.now()); err != nil {
		slog.Error("session heartbeat failed", slog.Int64("session_id", cur.ID), slog.Any("err", err))
		t.setCurrent(nil)
	}
}

// openOrAdopt resolves a liveness rise with no current session: adopt the
// latest stored session when it ended within the grace period, otherwise open
// a new one and announce the birthdays accrued since the previous session.
func (t *Tracker) openOrAdopt(ctx context.Context) {
	now := t.now()
	latest, err := t.store.FindLatest(ctx)
	if err != nil {
		slog.Error("latest session lookup failed", slog.Any("err", err))
		t.setCurrent(nil)
		return
	}

	if latest != nil && !t.expired(latest, now) {
		slog.Info("continuing session within grace period", slog.Int64("session_id", latest.ID))
		t.setCurrent(latest)
		inc(telemetry.SessionsContinued)
		return
	}

	rec, err := t.store.Create(ctx, now)
	if err != nil {
		slog.Error("session create failed", slog.Any("err", err))
		t.setCurrent(nil)
		return
	}
	t.setCurrent(&rec)
	inc(telemetry.SessionsStarted)
	slog.Info("new session started", slog.Int64("session_id", rec.ID), slog.Time("start", rec.SessionStart))

	matches, err := t.matcher.SincePreviousSession(ctx, rec)
	if err != nil {
		slog.Error("birthday match failed", slog.Int64("session_id", rec.ID), slog.Any("err", err))
		return
	}
	t.announcer.AnnounceBirthdays(ctx, matches)
}

// expired reports whether a session ended long enough ago that a liveness
// resumption counts as a new session. A resumption exactly at end+grace is a
// new session; one second earlier is a continuation. A session without a
// heartbeat (null end) is adopted as-is.
func (t *Tracker) expired(rec *Record, now time.Time) bool {
	if !rec.SessionEnd.Valid {
		return false
	}
	return now.Sub(rec.SessionEnd.Time) >= t.grace
}

func inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}
