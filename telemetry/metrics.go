// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	TicksTotal          prometheus.Counter
	SessionsStarted     prometheus.Counter
	SessionsContinued   prometheus.Counter
	BirthdaysAnnounced  prometheus.Counter
	BirthdaysSubmitted  prometheus.Counter
	LockTimeouts        prometheus.Counter
	AnnouncementsFailed prometheus.Counter

	// Histograms (seconds)
	TickDuration prometheus.Observer

	// Gauges
	SessionLiveGauge     prometheus.Gauge // 1=live, 0=idle
	TrackedBirthdayGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		TicksTotal = promauto.NewCounter(prometheus.CounterOpts{Name: "bday_ticks_total", Help: "Number of session tracker ticks"})
		SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{Name: "bday_sessions_started_total", Help: "Number of new stream sessions created"})
		SessionsContinued = promauto.NewCounter(prometheus.CounterOpts{Name: "bday_sessions_continued_total", Help: "Number of sessions adopted as continuations within the grace period"})
		BirthdaysAnnounced = promauto.NewCounter(prometheus.CounterOpts{Name: "bday_birthdays_announced_total", Help: "Number of birthday records announced"})
		BirthdaysSubmitted = promauto.NewCounter(prometheus.CounterOpts{Name: "bday_birthdays_submitted_total", Help: "Number of birthday submissions accepted"})
		LockTimeouts = promauto.NewCounter(prometheus.CounterOpts{Name: "bday_store_lock_timeouts_total", Help: "Number of bounded store lock acquisitions that timed out"})
		AnnouncementsFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "bday_announcements_failed_total", Help: "Number of birthday records skipped during announcement formatting"})
		TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "bday_tick_duration_seconds", Help: "Session tracker tick duration seconds", Buckets: prometheus.DefBuckets})
		SessionLiveGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "bday_session_live", Help: "Current session state live=1 idle=0"})
		TrackedBirthdayGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "bday_tracked_birthdays", Help: "Current number of tracked birthday records"})
	})
}

// UpdateSessionGauge sets gauge to 1 if a session is live else 0.
func UpdateSessionGauge(live bool) {
	if SessionLiveGauge != nil {
		if live {
			SessionLiveGauge.Set(1)
		} else {
			SessionLiveGauge.Set(0)
		}
	}
}

// SetTrackedBirthdays records the current birthday record count.
func SetTrackedBirthdays(n int) {
	if TrackedBirthdayGauge != nil {
		TrackedBirthdayGauge.Set(float64(n))
	}
}

// CountLockTimeout increments the lock-timeout counter if metrics are initialized.
func CountLockTimeout() {
	if LockTimeouts != nil {
		LockTimeouts.Inc()
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
