package internal

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func exportConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.App.LogLevel = slog.LevelError
	cfg.Project.Path = filepath.Join(dir, "novel")
	cfg.SQLite.Path = filepath.Join(dir, "index.db")

	chapters := filepath.Join(cfg.Project.Path, "chapters")
	if err := os.MkdirAll(chapters, 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"002-night.md": "---\norder: 2\ntitle: \"Night\"\n---\n\nStars came out.",
		"001-dawn.md":  "---\norder: 1\ntitle: \"Dawn\"\n---\n\nThe sun rose.",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(chapters, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return cfg
}

func TestRunExportText(t *testing.T) {
	cfg := exportConfig(t)
	var out bytes.Buffer
	if err := RunExport(context.Background(), FormatText, WithConfig(cfg), WithOutput(&out)); err != nil {
		t.Fatalf("RunExport: %v", err)
	}
	want := "Dawn\n\nThe sun rose.\n\nNight\n\nStars came out.\n"
	if out.String() != want {
		t.Errorf("export = %q, want %q", out.String(), want)
	}
}

func TestRunExportHTML(t *testing.T) {
	cfg := exportConfig(t)
	var out bytes.Buffer
	if err := RunExport(context.Background(), FormatHTML, WithConfig(cfg), WithOutput(&out)); err != nil {
		t.Fatalf("RunExport: %v", err)
	}
	if !strings.Contains(out.String(), "Stars came out.") {
		t.Errorf("html missing chapter body: %s", out.String())
	}
}

func TestRunExportUnknownFormat(t *testing.T) {
	cfg := exportConfig(t)
	if err := RunExport(context.Background(), "pdf", WithConfig(cfg), WithOutput(&bytes.Buffer{})); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if err := RunExport(context.Background(), FormatText); err != errConfigRequired {
		t.Fatalf("err = %v, want errConfigRequired", err)
	}
}
