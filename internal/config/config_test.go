package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
claude_root = "/data/claude"
codex_root = "~/codex-sessions"
db_path = "/var/lib/agent-sessions/index.db"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ClaudeRoot != "/data/claude" {
		t.Errorf("ClaudeRoot = %q", cfg.ClaudeRoot)
	}
	if strings.HasPrefix(cfg.CodexRoot, "~") {
		t.Errorf("CodexRoot = %q, want ~ expanded", cfg.CodexRoot)
	}
	if !strings.HasSuffix(cfg.CodexRoot, "codex-sessions") {
		t.Errorf("CodexRoot = %q", cfg.CodexRoot)
	}
	if cfg.DBPath != "/var/lib/agent-sessions/index.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	// cursor_db was not set; the adapter default applies
	if cfg.CursorDB != "" {
		t.Errorf("CursorDB = %q, want empty", cfg.CursorDB)
	}
}

func TestLoadMissingDefaultFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DBPath == "" {
		t.Error("Expected a default DBPath")
	}
	if !strings.HasSuffix(cfg.DBPath, filepath.Join("agent-sessions", "index.db")) {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
}

func TestLoadBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("claude_root = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Expected an error for malformed TOML")
	}
}
