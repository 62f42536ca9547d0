package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/handoff/pkg/config"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.App.Mode != ModeStdio || cfg.App.HTTP.Port != 3001 || cfg.Handoff.Root != "./handoff-system" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Journal.Enabled() {
		t.Error("journal enabled by default")
	}
}

func TestAppConfig_InvalidMode(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.Mode = "carrier-pigeon"
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestAppConfig_PortCheckedOnlyInHTTPMode(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.HTTP.Port = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("stdio mode should ignore port: %v", err)
	}
	cfg.App.Mode = ModeHTTP
	if err := cfg.Validate(); err == nil {
		t.Fatal("http mode with port 0 should fail")
	}
}

func TestHandoffConfig_RootRequired(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Handoff.Root = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty root should fail")
	}
}

func TestEventsConfig_NegativeDurations(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Events.Throttle = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative throttle should fail")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled || cfg.AuthEnabled() {
		t.Errorf("mode = %q", cfg.Mode)
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: AuthModeToken}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: AuthModeToken, Token: "s3cret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestLoadYAMLWithEnvExpansion(t *testing.T) {
	t.Setenv("HANDOFF_TEST_TOKEN", "from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `app:
  log_level: debug
  mode: http
  http:
    port: 4000
handoff:
  root: /tmp/handoffs
journal:
  path: /tmp/handoffs/journal.db
events:
  watch: false
  throttle: 5s
auth:
  mode: token
  token: ${HANDOFF_TEST_TOKEN}
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Mode != ModeHTTP || cfg.App.HTTP.Port != 4000 {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Auth.Token != "from-env" {
		t.Errorf("token = %q", cfg.Auth.Token)
	}
	if !cfg.Journal.Enabled() || cfg.Events.Watch || cfg.Events.Throttle != 5*time.Second {
		t.Errorf("journal/events = %+v %+v", cfg.Journal, cfg.Events)
	}
	if cfg.Events.Debounce != 150*time.Millisecond {
		t.Errorf("debounce default lost: %v", cfg.Events.Debounce)
	}
}

func TestLoadIfExists_MissingFileKeepsDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := pkgconfig.LoadIfExists(filepath.Join(t.TempDir(), "absent.yaml"), cfg); err != nil {
		t.Fatalf("LoadIfExists: %v", err)
	}
	if cfg.App.HTTP.Port != 3001 {
		t.Errorf("port = %d", cfg.App.HTTP.Port)
	}
}
