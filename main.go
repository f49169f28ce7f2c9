// Command birthday-herald tracks chat-submitted birthdays for a Twitch
// community and announces the ones that recurred between streams.
// It:
//   - Loads configuration and initializes structured logging.
//   - Connects to Postgres and runs idempotent migrations.
//   - Polls Helix for stream liveness and maintains the session log, so a
//     short disconnect is not mistaken for a new stream.
//   - Runs the IRC bot that accepts birthday submissions.
//   - Exposes a minimal HTTP server with /healthz, /status, and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mi-thom/birthday-herald/announce"
	"github.com/mi-thom/birthday-herald/birthday"
	"github.com/mi-thom/birthday-herald/chat"
	"github.com/mi-thom/birthday-herald/config"
	"github.com/mi-thom/birthday-herald/db"
	"github.com/mi-thom/birthday-herald/server"
	"github.com/mi-thom/birthday-herald/session"
	"github.com/mi-thom/birthday-herald/telemetry"
	"github.com/mi-thom/birthday-herald/twitchapi"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	setupLogging()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	telemetry.Init()
	shutdown, err := telemetry.InitTracing("birthday-herald", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	database, err := db.Connect()
	if err != nil {
		slog.Error("failed to open db", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("failed to close database", slog.Any("err", err))
		}
	}()

	// Versioned migrations first, embedded SQL as fallback for old deployments
	// that predate the schema_migrations table.
	slog.Info("running database migrations", slog.String("component", "db_migrate"))
	if err := db.RunMigrations(database); err != nil {
		slog.Warn("versioned migrations failed, attempting fallback to embedded SQL",
			slog.Any("err", err), slog.String("component", "db_migrate"))
		if err := db.Migrate(context.Background(), database); err != nil {
			slog.Error("failed to migrate db", slog.Any("err", err))
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handle := db.NewHandle(database, cfg.LockWait)
	birthdays := birthday.NewStore(handle)
	sessions := session.NewStore(handle)
	matcher := session.NewMatcher(sessions, birthdays)

	if n, err := birthdays.Count(ctx); err == nil {
		telemetry.SetTrackedBirthdays(n)
	}

	// The announcer speaks through the IRC bot when chat creds are present,
	// otherwise announcements land in the log.
	var sender announce.Sender = logSender{}
	var bot *chat.Bot
	if err := cfg.ValidateChatReady(); err != nil {
		slog.Warn("chat bot disabled", slog.Any("err", err))
	} else {
		helix := &twitchapi.HelixClient{
			TokenSource: twitchapi.AppTokenSource(cfg.TwitchClientID, cfg.TwitchClientSecret),
			ClientID:    cfg.TwitchClientID,
		}
		bot = chat.NewBot(cfg, birthdays, &twitchapi.FollowClient{}, helix)
		sender = bot
		go func() {
			if err := bot.Run(ctx); err != nil {
				slog.Error("twitch chat bot exited", slog.Any("err", err))
			}
		}()
	}
	emitter := announce.NewEmitter(cfg, sender)

	var tracker *session.Tracker
	if err := cfg.ValidateLivenessReady(); err != nil {
		slog.Warn("session tracker disabled", slog.Any("err", err))
	} else {
		probe := &twitchapi.LivenessProbe{
			Client: &twitchapi.HelixClient{
				TokenSource: twitchapi.AppTokenSource(cfg.TwitchClientID, cfg.TwitchClientSecret),
				ClientID:    cfg.TwitchClientID,
			},
			Channel: cfg.TwitchChannel,
		}
		tracker = session.NewTracker(cfg, sessions, matcher, probe, emitter)
		go tracker.Run(ctx)
	}

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	deps := server.Deps{
		SQLDB:     database,
		Handle:    handle,
		Birthdays: birthdays,
		Sessions:  sessions,
		Tracker:   trackerSource{tracker},
	}
	slog.Info("starting http server", slog.String("addr", addr))
	if err := server.Start(ctx, deps, addr); err != nil {
		slog.Error("http server failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func setupLogging() {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	var handler slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()))
}

// logSender is the announcement fallback when no chat bot is configured.
type logSender struct{}

func (logSender) SendMessage(ctx context.Context, text string) error {
	slog.Info("announcement (chat disabled)", slog.String("text", text))
	return nil
}

func (logSender) SendWhisper(ctx context.Context, target, text string) error {
	slog.Info("announcement whisper (chat disabled)", slog.String("target", target), slog.String("text", text))
	return nil
}

// trackerSource adapts the (possibly nil) tracker to the status endpoint.
type trackerSource struct{ t *session.Tracker }

func (s trackerSource) CurrentSession() *session.Record {
	if s.t == nil {
		return nil
	}
	return s.t.CurrentSession()
}
