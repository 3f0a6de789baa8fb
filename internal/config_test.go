package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/quillmark/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfigValid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestProjectConfig_PathRequired(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Project.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty project path should fail validation")
	}
}

func TestEventsConfig_ThrottleTooSmall(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Events.Throttle = time.Millisecond
	if err := cfg.Validate(); err == nil {
		t.Fatal("1ms throttle should fail validation")
	}
}

func TestLoadYAMLWithEnvExpansion(t *testing.T) {
	t.Setenv("QUILLMARK_TEST_PROJECT", "/tmp/novel")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `app:
  http:
    port: 9090
project:
  path: ${QUILLMARK_TEST_PROJECT}
  title: "My Novel"
sqlite:
  path: ./novel.db
events:
  throttle: 500ms
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Project.Path != "/tmp/novel" || cfg.Project.Title != "My Novel" {
		t.Errorf("project = %+v", cfg.Project)
	}
	if cfg.Events.Throttle != 500*time.Millisecond {
		t.Errorf("throttle = %v", cfg.Events.Throttle)
	}
	if cfg.App.HTTP.Port != 9090 || !cfg.Project.Watch {
		t.Errorf("port = %d watch = %v", cfg.App.HTTP.Port, cfg.Project.Watch)
	}
}
