package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mi-thom/birthday-herald/db"
	"github.com/mi-thom/birthday-herald/telemetry"
)

// HandleAdminReset wipes every birthday and session record. The destructive
// operation is armed only after repeated confirmations inside the guard
// window; earlier calls report how many presses remain.
func (h *Handlers) HandleAdminReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	log := telemetry.LoggerWithCorr(ctx)

	if !h.reset.Confirm() {
		remaining := h.reset.Remaining()
		log.Info("reset confirmation registered", slog.Int("remaining", remaining))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "pending", "remaining": remaining})
		return
	}

	if err := db.ResetAll(ctx, h.handle); err != nil {
		log.Error("reset failed", slog.Any("err", err))
		http.Error(w, "reset failed", http.StatusInternalServerError)
		return
	}
	telemetry.SetTrackedBirthdays(0)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "reset"})
}

// HandleAdminMonitor returns monitoring summary including job timestamps.
func (h *Handlers) HandleAdminMonitor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	stats := map[string]any{}
	for _, k := range []string{"job_session_tick_last"} {
		var val string
		row := h.sqldb.QueryRowContext(ctx, `SELECT value FROM kv WHERE key=$1`, k)
		_ = row.Scan(&val)
		if val != "" {
			stats[k] = val
		}
	}
	if n, err := h.birthdays.Count(ctx); err == nil {
		stats["tracked_birthdays"] = n
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}
