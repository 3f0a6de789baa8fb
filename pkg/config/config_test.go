package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Limit int    `yaml:"limit"`
}

func (s *sample) Validate() error {
	if s.Name == "" {
		return errors.New("name required")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "draft")
	path := writeFile(t, "name: ${SAMPLE_NAME}\n")

	s := sample{Limit: 5}
	if err := Load(path, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "draft" {
		t.Errorf("Name = %q, want draft", s.Name)
	}
	if s.Limit != 5 {
		t.Errorf("Limit = %d, want default 5 kept", s.Limit)
	}
}

func TestLoadValidates(t *testing.T) {
	path := writeFile(t, "limit: 3\n")
	var s sample
	if err := Load(path, &s); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	var s sample
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &s); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadIfExistsKeepsDefaults(t *testing.T) {
	s := sample{Name: "default", Limit: 1}
	if err := LoadIfExists(filepath.Join(t.TempDir(), "nope.yaml"), &s); err != nil {
		t.Fatalf("LoadIfExists: %v", err)
	}
	if s.Name != "default" || s.Limit != 1 {
		t.Errorf("defaults changed: %+v", s)
	}
}

func TestLoadIfExistsBadYAML(t *testing.T) {
	path := writeFile(t, "name: [unterminated\n")
	s := sample{Name: "x"}
	if err := LoadIfExists(path, &s); err == nil {
		t.Fatal("expected parse error")
	}
}
