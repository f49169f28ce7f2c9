// Package announce renders matched birthdays into chat (or whisper) messages.
package announce

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mi-thom/birthday-herald/birthday"
	"github.com/mi-thom/birthday-herald/config"
	"github.com/mi-thom/birthday-herald/telemetry"
)

// Sender delivers a rendered announcement. The chat bot satisfies it.
type Sender interface {
	SendMessage(ctx context.Context, text string) error
	SendWhisper(ctx context.Context, target, text string) error
}

// Emitter formats birthday batches and hands them to a Sender. It implements
// session.Announcer.
type Emitter struct {
	cfg    *config.Config
	sender Sender
}

func NewEmitter(cfg *config.Config, sender Sender) *Emitter {
	return &Emitter{cfg: cfg, sender: sender}
}

// AnnounceBirthdays sends one message listing every record in the batch.
// Empty batches are skipped silently; records without a usable date are
// dropped with a warning instead of corrupting the message.
func (e *Emitter) AnnounceBirthdays(ctx context.Context, recs []birthday.Record) {
	log := telemetry.LoggerWithCorr(ctx)

	parts := make([]string, 0, len(recs))
	for _, r := range recs {
		if r.Birthday.IsZero() {
			log.Warn("skipping birthday record without date", slog.String("user_id", r.UserID), slog.String("username", r.Username))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", r.Username, r.Birthday.Format(e.cfg.AnnounceFormat)))
	}
	if len(parts) == 0 {
		return
	}

	text := fmt.Sprintf("Birthdays since the last stream: %s", strings.Join(parts, ", "))

	var err error
	if e.cfg.AnnounceWhisper {
		err = e.sender.SendWhisper(ctx, e.cfg.TwitchChannel, text)
	} else {
		if e.cfg.AddMe {
			text = "/me " + text
		}
		err = e.sender.SendMessage(ctx, text)
	}
	if err != nil {
		if telemetry.AnnouncementsFailed != nil {
			telemetry.AnnouncementsFailed.Inc()
		}
		log.Error("failed to deliver birthday announcement", slog.Any("err", err), slog.Int("count", len(parts)))
		return
	}
	if telemetry.BirthdaysAnnounced != nil {
		telemetry.BirthdaysAnnounced.Add(float64(len(parts)))
	}
	log.Info("announced birthdays", slog.Int("count", len(parts)), slog.Bool("whisper", e.cfg.AnnounceWhisper))
}
