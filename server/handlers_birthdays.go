package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mi-thom/birthday-herald/birthday"
	"github.com/mi-thom/birthday-herald/telemetry"
)

type birthdayPayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Birthday string `json:"birthday"` // YYYY-MM-DD
}

func toPayload(recs []birthday.Record) []birthdayPayload {
	out := make([]birthdayPayload, 0, len(recs))
	for _, r := range recs {
		out = append(out, birthdayPayload{
			UserID:   r.UserID,
			Username: r.Username,
			Birthday: r.Birthday.Format("2006-01-02"),
		})
	}
	return out
}

// HandleBirthdays lists every tracked birthday.
func (h *Handlers) HandleBirthdays(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	recs, err := h.birthdays.List(r.Context())
	if err != nil {
		telemetry.LoggerWithCorr(r.Context()).Error("failed to list birthdays", slog.Any("err", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"birthdays": toPayload(recs), "count": len(recs)})
}

// HandleBirthdaysToday lists the birthdays recurring on the current civil day.
// Feb 29 birthdays show up on Feb 28 in non-leap years.
func (h *Handlers) HandleBirthdaysToday(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	today := birthday.Civil(time.Now())
	recs, err := h.birthdays.FindRecurringInRange(r.Context(), today.AddDate(0, 0, -1), today)
	if err != nil {
		telemetry.LoggerWithCorr(r.Context()).Error("failed to query today's birthdays", slog.Any("err", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"date": today.Format("2006-01-02"), "birthdays": toPayload(recs), "count": len(recs)})
}
