package app

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewProbesWhisperAtStartup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/status" {
			t.Errorf("path = %q, want /v1/status", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "online",
			"model":  "base",
			"device": "cpu",
		})
	}))
	defer srv.Close()

	var buf bytes.Buffer
	cfg := Config{
		WhisperURL:   srv.URL,
		WhisperModel: "base",
		AIModel:      "gpt-4o-mini",
	}

	a, err := New(cfg, log.New(&buf, "", 0))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer func() { _ = a.Close() }()

	logged := buf.String()
	if !strings.Contains(logged, "model=base") || !strings.Contains(logged, "device=cpu") {
		t.Errorf("startup log missing probe result: %q", logged)
	}
}

func TestNewStartsWithWhisperDown(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{
		WhisperURL:   "http://127.0.0.1:1",
		WhisperModel: "base",
		AIModel:      "gpt-4o-mini",
	}

	a, err := New(cfg, log.New(&buf, "", 0))
	if err != nil {
		t.Fatalf("an unreachable backend must not fail startup: %v", err)
	}
	defer func() { _ = a.Close() }()

	if !strings.Contains(buf.String(), "unavailable at startup") {
		t.Errorf("startup log missing degraded probe notice: %q", buf.String())
	}
}
