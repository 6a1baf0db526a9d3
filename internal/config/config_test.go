package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 8080 {
		t.Fatalf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Reminder.TickInterval != 60*time.Second {
		t.Fatalf("default tick interval = %s, want 60s", cfg.Reminder.TickInterval)
	}
	if cfg.Reminder.AttemptTimeout != 20*time.Second {
		t.Fatalf("default attempt timeout = %s, want 20s", cfg.Reminder.AttemptTimeout)
	}
	if cfg.Reminder.MaxAttempts != 3 {
		t.Fatalf("default max attempts = %d, want 3", cfg.Reminder.MaxAttempts)
	}
	if cfg.Face.Tolerance != 0.6 {
		t.Fatalf("default tolerance = %v, want 0.6", cfg.Face.Tolerance)
	}
	if cfg.Face.Convention != "higher" {
		t.Fatalf("default convention = %q, want higher", cfg.Face.Convention)
	}
	if len(cfg.Voice.ConfirmationPhrases) == 0 {
		t.Fatal("default confirmation phrases should not be empty")
	}
}

func TestLoad(t *testing.T) {
	yaml := `
server:
  port: 9090
reminder:
  tick_interval: 30s
  max_attempts: 5
  timezone: UTC
face:
  tolerance: 0.45
  convention: distance
voice:
  confirmation_phrases:
    - done
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Reminder.TickInterval != 30*time.Second {
		t.Fatalf("tick interval = %s, want 30s", cfg.Reminder.TickInterval)
	}
	if cfg.Reminder.MaxAttempts != 5 {
		t.Fatalf("max attempts = %d, want 5", cfg.Reminder.MaxAttempts)
	}
	if cfg.Face.Tolerance != 0.45 {
		t.Fatalf("tolerance = %v, want 0.45", cfg.Face.Tolerance)
	}
	if cfg.Face.Convention != "distance" {
		t.Fatalf("convention = %q, want distance", cfg.Face.Convention)
	}
	if len(cfg.Voice.ConfirmationPhrases) != 1 || cfg.Voice.ConfirmationPhrases[0] != "done" {
		t.Fatalf("phrases = %v, want [done]", cfg.Voice.ConfirmationPhrases)
	}

	// Untouched fields still fall back to defaults.
	if cfg.Reminder.AttemptTimeout != 20*time.Second {
		t.Fatalf("attempt timeout = %s, want default 20s", cfg.Reminder.AttemptTimeout)
	}

	loc, err := cfg.Reminder.Location()
	if err != nil {
		t.Fatalf("Location returned error: %v", err)
	}
	if loc != time.UTC {
		t.Fatalf("location = %v, want UTC", loc)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8080\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("MED_SERVER_PORT", "7070")
	t.Setenv("MED_FACE_TOLERANCE", "0.8")
	t.Setenv("MED_FACE_CONVENTION", "distance")
	t.Setenv("MED_CONFIRMATION_PHRASES", "i took it, all done , ")
	t.Setenv("MED_TIMEZONE", "UTC")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Fatalf("port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Face.Tolerance != 0.8 {
		t.Fatalf("tolerance = %v, want 0.8", cfg.Face.Tolerance)
	}
	if cfg.Face.Convention != "distance" {
		t.Fatalf("convention = %q, want distance", cfg.Face.Convention)
	}
	want := []string{"i took it", "all done"}
	if len(cfg.Voice.ConfirmationPhrases) != len(want) {
		t.Fatalf("phrases = %v, want %v", cfg.Voice.ConfirmationPhrases, want)
	}
	for i := range want {
		if cfg.Voice.ConfirmationPhrases[i] != want[i] {
			t.Fatalf("phrases = %v, want %v", cfg.Voice.ConfirmationPhrases, want)
		}
	}
	if cfg.Reminder.Timezone != "UTC" {
		t.Fatalf("timezone = %q, want UTC", cfg.Reminder.Timezone)
	}
}
