package app

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfigFromEnv()

	if cfg.HTTPAddr != ":8000" {
		t.Errorf("HTTPAddr = %q, want :8000", cfg.HTTPAddr)
	}
	if cfg.WhisperURL != "http://localhost:9000" {
		t.Errorf("WhisperURL = %q", cfg.WhisperURL)
	}
	if cfg.WhisperModel != "base" {
		t.Errorf("WhisperModel = %q, want base", cfg.WhisperModel)
	}
	if cfg.AIModel != "gpt-4o-mini" {
		t.Errorf("AIModel = %q, want gpt-4o-mini", cfg.AIModel)
	}
	if cfg.EmbedModel != "text-embedding-3-small" {
		t.Errorf("EmbedModel = %q", cfg.EmbedModel)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("WHISPER_MODEL", "large-v3")
	t.Setenv("SESSION_TOKEN_SECRET", "hunter2")

	cfg := LoadConfigFromEnv()

	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr = %q, want :9999", cfg.HTTPAddr)
	}
	if cfg.WhisperModel != "large-v3" {
		t.Errorf("WhisperModel = %q, want large-v3", cfg.WhisperModel)
	}
	if cfg.SessionTokenSecret != "hunter2" {
		t.Errorf("SessionTokenSecret = %q", cfg.SessionTokenSecret)
	}
}
