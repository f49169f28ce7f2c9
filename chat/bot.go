// Package chat runs the Twitch IRC bot: it accepts birthday submissions from
// viewers and delivers announcements produced by the session engine.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	twitch "github.com/gempir/go-twitch-irc/v4"

	"github.com/mi-thom/birthday-herald/birthday"
	"github.com/mi-thom/birthday-herald/config"
	"github.com/mi-thom/birthday-herald/telemetry"
)

// FollowChecker gates self-service submissions on channel followage.
type FollowChecker interface {
	IsFollower(ctx context.Context, channel, user string) (bool, error)
}

// UserResolver turns a login name into a Twitch user ID for mod overrides.
type UserResolver interface {
	GetUserID(ctx context.Context, login string) (string, error)
}

// ircConn is the outbound slice of *twitch.Client the bot uses.
type ircConn interface {
	Say(channel, text string)
}

// Bot listens for the birthday command and writes submissions to the store.
// It also satisfies announce.Sender so the emitter can speak through it.
type Bot struct {
	cfg       *config.Config
	birthdays *birthday.Store
	follows   FollowChecker
	users     UserResolver

	client *twitch.Client
	conn   ircConn
}

func NewBot(cfg *config.Config, birthdays *birthday.Store, follows FollowChecker, users UserResolver) *Bot {
	client := twitch.NewClient(cfg.TwitchBotUsername, cfg.TwitchOAuthToken)
	return &Bot{
		cfg:       cfg,
		birthdays: birthdays,
		follows:   follows,
		users:     users,
		client:    client,
		conn:      client,
	}
}

// Run connects to IRC and blocks until the context is cancelled or the
// connection fails.
func (b *Bot) Run(ctx context.Context) error {
	b.client.OnPrivateMessage(func(msg twitch.PrivateMessage) {
		b.handleMessage(ctx, msg)
	})

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		if err := b.client.Disconnect(); err != nil {
			slog.Warn("twitch chat disconnect error", slog.Any("err", err))
		}
		close(done)
	}()

	b.client.Join(b.cfg.TwitchChannel)
	slog.Info("twitch chat bot connecting", slog.String("channel", b.cfg.TwitchChannel))
	err := b.client.Connect()
	select {
	case <-ctx.Done():
		<-done
		return nil
	default:
		return err
	}
}

// SendMessage speaks in the joined channel.
func (b *Bot) SendMessage(ctx context.Context, text string) error {
	b.conn.Say(b.cfg.TwitchChannel, text)
	return nil
}

// SendWhisper sends a whisper via the legacy /w chat command.
func (b *Bot) SendWhisper(ctx context.Context, target, text string) error {
	b.conn.Say(b.cfg.TwitchChannel, fmt.Sprintf("/w %s %s", target, text))
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg twitch.PrivateMessage) {
	fields := strings.Fields(msg.Message)
	if len(fields) == 0 || !strings.EqualFold(fields[0], b.cfg.BirthdayCommand) {
		return
	}

	switch len(fields) {
	case 2:
		b.handleSelfSubmission(ctx, msg, fields[1])
	case 3:
		b.handleModOverride(ctx, msg, fields[1], fields[2])
	default:
		b.reply(msg.User.Name, fmt.Sprintf("usage: %s <date> (format %s)", b.cfg.BirthdayCommand, b.cfg.DateFormat))
	}
}

func (b *Bot) handleSelfSubmission(ctx context.Context, msg twitch.PrivateMessage, raw string) {
	if !isPrivileged(msg) {
		ok, err := b.follows.IsFollower(ctx, b.cfg.TwitchChannel, msg.User.Name)
		if err != nil {
			// Fail open: a flaky lookup API shouldn't block submissions.
			slog.Warn("followage lookup failed", slog.Any("err", err), slog.String("user", msg.User.Name))
		} else if !ok {
			b.reply(msg.User.Name, "only followers can register a birthday, follow the channel first!")
			return
		}
	}

	date, err := b.parseDate(raw)
	if err != nil {
		b.reply(msg.User.Name, fmt.Sprintf("could not read that date, use the format %s", b.cfg.DateFormat))
		return
	}
	b.save(ctx, msg.User.ID, msg.User.Name, date, msg.User.Name)
}

func (b *Bot) handleModOverride(ctx context.Context, msg twitch.PrivateMessage, target, raw string) {
	if !isPrivileged(msg) {
		b.reply(msg.User.Name, "only moderators can set someone else's birthday")
		return
	}

	target = strings.TrimPrefix(strings.ToLower(target), "@")
	date, err := b.parseDate(raw)
	if err != nil {
		b.reply(msg.User.Name, fmt.Sprintf("could not read that date, use the format %s", b.cfg.DateFormat))
		return
	}
	targetID, err := b.users.GetUserID(ctx, target)
	if err != nil {
		slog.Error("failed to resolve user id", slog.Any("err", err), slog.String("login", target))
		b.reply(msg.User.Name, fmt.Sprintf("could not find a Twitch user named %s", target))
		return
	}
	b.save(ctx, targetID, target, date, msg.User.Name)
}

func (b *Bot) save(ctx context.Context, userID, username string, date time.Time, replyTo string) {
	rec, err := b.birthdays.Upsert(ctx, userID, username, date)
	if err != nil {
		slog.Error("failed to store birthday", slog.Any("err", err), slog.String("user_id", userID))
		b.reply(replyTo, "something went wrong storing that birthday, try again in a bit")
		return
	}
	if telemetry.BirthdaysSubmitted != nil {
		telemetry.BirthdaysSubmitted.Inc()
	}
	if n, err := b.birthdays.Count(ctx); err == nil {
		telemetry.SetTrackedBirthdays(n)
	}
	slog.Info("stored birthday", slog.String("user_id", rec.UserID), slog.String("username", rec.Username))
	b.reply(replyTo, fmt.Sprintf("saved %s's birthday: %s", username, rec.Birthday.Format(b.cfg.AnnounceFormat)))
}

// parseDate accepts the configured layout and normalizes to a civil UTC date.
func (b *Bot) parseDate(raw string) (time.Time, error) {
	t, err := time.Parse(b.cfg.DateFormat, raw)
	if err != nil {
		return time.Time{}, err
	}
	return birthday.Civil(t), nil
}

func (b *Bot) reply(user, text string) {
	out := fmt.Sprintf("@%s %s", user, text)
	if b.cfg.AddMe {
		out = "/me " + out
	}
	b.conn.Say(b.cfg.TwitchChannel, out)
}

func isPrivileged(msg twitch.PrivateMessage) bool {
	return msg.User.Badges["broadcaster"] > 0 || msg.User.Badges["moderator"] > 0
}
