package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"BDAY_COMMAND", "BDAY_DATE_FORMAT", "BDAY_ANNOUNCE_FORMAT", "TICK_INTERVAL", "GRACE_PERIOD", "DB_LOCK_WAIT", "BDAY_ADD_ME", "BDAY_ANNOUNCE_WHISPER"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.BirthdayCommand != "!birthday" {
		t.Errorf("BirthdayCommand = %q, want !birthday", cfg.BirthdayCommand)
	}
	if cfg.DateFormat != "02/01/2006" {
		t.Errorf("DateFormat = %q, want 02/01/2006", cfg.DateFormat)
	}
	if cfg.AnnounceFormat != "02/01" {
		t.Errorf("AnnounceFormat = %q, want 02/01", cfg.AnnounceFormat)
	}
	if cfg.TickInterval != 30*time.Second {
		t.Errorf("TickInterval = %v, want 30s", cfg.TickInterval)
	}
	if cfg.GracePeriod != 45*time.Minute {
		t.Errorf("GracePeriod = %v, want 45m", cfg.GracePeriod)
	}
	if cfg.LockWait != 5*time.Second {
		t.Errorf("LockWait = %v, want 5s", cfg.LockWait)
	}
	if !cfg.AddMe {
		t.Errorf("AddMe default should be true")
	}
	if cfg.AnnounceWhisper {
		t.Errorf("AnnounceWhisper default should be false")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TICK_INTERVAL", "10s")
	t.Setenv("GRACE_PERIOD", "1h")
	t.Setenv("BDAY_ADD_ME", "0")
	t.Setenv("BDAY_ANNOUNCE_WHISPER", "1")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.TickInterval != 10*time.Second {
		t.Errorf("TickInterval = %v, want 10s", cfg.TickInterval)
	}
	if cfg.GracePeriod != time.Hour {
		t.Errorf("GracePeriod = %v, want 1h", cfg.GracePeriod)
	}
	if cfg.AddMe {
		t.Errorf("AddMe should be disabled by BDAY_ADD_ME=0")
	}
	if !cfg.AnnounceWhisper {
		t.Errorf("AnnounceWhisper should be enabled by BDAY_ANNOUNCE_WHISPER=1")
	}
}

func TestLoadRejectsBadDurations(t *testing.T) {
	t.Setenv("GRACE_PERIOD", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unparseable GRACE_PERIOD")
	}
	t.Setenv("GRACE_PERIOD", "-5m")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for negative GRACE_PERIOD")
	}
}

func TestValidateChatReady(t *testing.T) {
	t.Setenv("TWITCH_CHANNEL", "chan")
	t.Setenv("TWITCH_BOT_USERNAME", "bot")
	t.Setenv("TWITCH_OAUTH_TOKEN", "oauth:token")
	cfg, _ := Load()
	if err := cfg.ValidateChatReady(); err != nil {
		t.Errorf("expected valid chat config, got %v", err)
	}
	if err := os.Unsetenv("TWITCH_CHANNEL"); err != nil {
		t.Fatalf("failed to unset TWITCH_CHANNEL: %v", err)
	}
	cfg, _ = Load()
	if err := cfg.ValidateChatReady(); err == nil {
		t.Errorf("expected error when missing twitch envs")
	}
}
