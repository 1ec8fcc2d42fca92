package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/coach")
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("REMINDER_SCHEDULE", "")

	cfg := Load()

	if cfg.Port != "5000" {
		t.Errorf("Port = %q, want default 5000", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want development", cfg.Env)
	}
	if cfg.ReminderSchedule != "* * * * *" {
		t.Errorf("ReminderSchedule = %q", cfg.ReminderSchedule)
	}
	if cfg.DedupeTTLSecs != 86400 {
		t.Errorf("DedupeTTLSecs = %d", cfg.DedupeTTLSecs)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("TWILIO_STUB_MODE", "true")
	t.Setenv("ARK_TIMEOUT_SECONDS", "10")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if !cfg.TwilioStubMode {
		t.Error("TwilioStubMode should be true")
	}
	if cfg.ArkTimeoutSecs != 10 {
		t.Errorf("ArkTimeoutSecs = %d", cfg.ArkTimeoutSecs)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("TWILIO_STUB_MODE", "definitely")
	t.Setenv("ARK_TIMEOUT_SECONDS", "soon")

	cfg := Load()

	if cfg.TwilioStubMode {
		t.Error("invalid bool should fall back to default false")
	}
	if cfg.ArkTimeoutSecs != 30 {
		t.Errorf("invalid int should fall back to 30, got %d", cfg.ArkTimeoutSecs)
	}
}

func TestAIEnabled(t *testing.T) {
	t.Setenv("ARK_API_KEY", "key")
	t.Setenv("ARK_MODEL", "")
	if Load().AIEnabled() {
		t.Error("AIEnabled should require both key and model")
	}

	t.Setenv("ARK_MODEL", "some-model")
	if !Load().AIEnabled() {
		t.Error("AIEnabled should be true with key and model set")
	}
}
