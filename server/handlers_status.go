package server

import (
	"encoding/json"
	"net/http"
	"time"
)

type sessionPayload struct {
	ID    int64      `json:"id"`
	Start time.Time  `json:"session_start"`
	End   *time.Time `json:"session_end,omitempty"`
}

// HandleStatus returns the live state of the session engine and the size of
// the tracked birthday set.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	out := map[string]any{"live": false}

	if cur := h.tracker.CurrentSession(); cur != nil {
		out["live"] = true
		p := sessionPayload{ID: cur.ID, Start: cur.SessionStart}
		if cur.SessionEnd.Valid {
			end := cur.SessionEnd.Time
			p.End = &end
		}
		out["current_session"] = p
	}

	if latest, err := h.sessions.FindLatest(ctx); err == nil && latest != nil {
		p := sessionPayload{ID: latest.ID, Start: latest.SessionStart}
		if latest.SessionEnd.Valid {
			end := latest.SessionEnd.Time
			p.End = &end
		}
		out["latest_session"] = p
	}

	if n, err := h.birthdays.Count(ctx); err == nil {
		out["tracked_birthdays"] = n
	}

	var lastTick string
	if err := h.sqldb.QueryRowContext(ctx, `SELECT value FROM kv WHERE key=$1`, "job_session_tick_last").Scan(&lastTick); err == nil {
		out["last_tick"] = lastTick
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
