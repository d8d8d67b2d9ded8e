package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.Addr() != ":8080" {
		t.Errorf("unexpected addr %s", cfg.Server.Addr())
	}
	if cfg.Backend.BaseURL != "" {
		t.Errorf("expected empty backend url, got %s", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != defaultBackendTimeout {
		t.Errorf("unexpected backend timeout: %s", cfg.Backend.Timeout)
	}
	if cfg.Session.WorkflowTTL != 30*time.Minute {
		t.Errorf("unexpected workflow ttl: %s", cfg.Session.WorkflowTTL)
	}
	if cfg.Web.DefaultLang != "ko" {
		t.Errorf("expected ko default lang, got %s", cfg.Web.DefaultLang)
	}
	if cfg.Session.Secure {
		t.Errorf("expected insecure cookies outside prod")
	}
	if cfg.RateLimits.SpinPerMinute != defaultSpinPerMinute {
		t.Errorf("unexpected spin limit: %d", cfg.RateLimits.SpinPerMinute)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"PORT":                         "9000",
		"TRAVEL_WEB_ENV":               "prod",
		"TRAVEL_WEB_API_BASE_URL":      "https://api.example.com/",
		"TRAVEL_WEB_API_TIMEOUT":       "3s",
		"TRAVEL_WEB_SESSION_HASH_KEY":  "0123456789abcdef0123456789abcdef",
		"TRAVEL_WEB_SESSION_BLOCK_KEY": "abcdefghijklmnop",
		"TRAVEL_WEB_WORKFLOW_TTL":      "5m",
		"TRAVEL_WEB_DEFAULT_LANG":      "EN",
		"TRAVEL_WEB_SPIN_PER_MINUTE":   "0",
	}
	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "9000" {
		t.Errorf("expected PORT fallback, got %s", cfg.Server.Port)
	}
	if cfg.Backend.BaseURL != "https://api.example.com" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 3*time.Second {
		t.Errorf("unexpected timeout %s", cfg.Backend.Timeout)
	}
	if !cfg.Session.Secure {
		t.Errorf("expected secure cookies in prod")
	}
	if cfg.Session.WorkflowTTL != 5*time.Minute {
		t.Errorf("unexpected ttl %s", cfg.Session.WorkflowTTL)
	}
	if cfg.Web.DefaultLang != "en" {
		t.Errorf("expected lowercased lang, got %s", cfg.Web.DefaultLang)
	}
	if cfg.RateLimits.SpinPerMinute != 0 {
		t.Errorf("expected disabled spin limit, got %d", cfg.RateLimits.SpinPerMinute)
	}
}

func TestLoadPrefixedPortWins(t *testing.T) {
	env := map[string]string{"PORT": "9000", "TRAVEL_WEB_PORT": "9100"}
	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "9100" {
		t.Fatalf("expected prefixed port, got %s", cfg.Server.Port)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	env := map[string]string{
		"TRAVEL_WEB_ENV":          "prod",
		"TRAVEL_WEB_API_TIMEOUT":  "soon",
		"TRAVEL_WEB_API_BASE_URL": "not a url",
	}
	_, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	fields := map[string]bool{}
	for _, f := range verr.Fields() {
		fields[f] = true
	}
	for _, want := range []string{"TRAVEL_WEB_API_TIMEOUT", "TRAVEL_WEB_SESSION_HASH_KEY", "Backend.BaseURL"} {
		if !fields[want] {
			t.Errorf("expected %s in invalid fields, got %v", want, verr.Fields())
		}
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("TRAVEL_WEB_API_BASE_URL=http://localhost:18080\nTRAVEL_WEB_DEV=true\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	cfg, err := Load(WithoutSystemEnv(), WithEnvFile(path), WithEnvMap(map[string]string{"TRAVEL_WEB_DEV": "false"}))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Backend.BaseURL != "http://localhost:18080" {
		t.Errorf("expected base url from .env, got %s", cfg.Backend.BaseURL)
	}
	if cfg.Web.DevMode {
		t.Errorf("expected env map to override .env")
	}
}

func TestLoadMissingDotEnvIsIgnored(t *testing.T) {
	_, err := Load(WithoutSystemEnv(), WithEnvFile(filepath.Join(t.TempDir(), "missing.env")))
	if err != nil {
		t.Fatalf("expected missing .env to be ignored, got %v", err)
	}
}
