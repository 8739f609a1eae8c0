package config

import (
	"os"
	"path/filepath"
	"testing"

	"aiswitch/internal/model"
)

func TestDefaults_MatchRecognizedKeysTable(t *testing.T) {
	cfg := Defaults()

	if len(cfg.ProviderOrder) != 2 || cfg.ProviderOrder[0] != "claude" || cfg.ProviderOrder[1] != "codex" {
		t.Fatalf("ProviderOrder = %v", cfg.ProviderOrder)
	}
	if len(cfg.Claude.AllowedTools) != 0 {
		t.Fatalf("Claude.AllowedTools = %v", cfg.Claude.AllowedTools)
	}
	if cfg.Codex.Sandbox != "read-only" {
		t.Fatalf("Codex.Sandbox = %q", cfg.Codex.Sandbox)
	}
	if cfg.Limits.MaxDiffLines != 200 || cfg.Limits.MaxDiffBytes != 8000 || cfg.Limits.MaxHandoffLines != 350 {
		t.Fatalf("Limits = %+v", cfg.Limits)
	}
	if cfg.Retry.MaxRetries != 3 || cfg.Retry.BackoffBase != 2.0 || cfg.Retry.BackoffMax != 30.0 {
		t.Fatalf("Retry = %+v", cfg.Retry)
	}
	if cfg.Retry.CooldownMinutes != 60 || cfg.Retry.TransientCooldownMinutes != 5 {
		t.Fatalf("Retry cooldowns = %+v", cfg.Retry)
	}
}

func TestLoad_NoFilesReturnsDefaults(t *testing.T) {
	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Retry.MaxRetries != 3 {
		t.Fatalf("expected default retry count, got %+v", cfg.Retry)
	}
}

func TestLoad_RepoLocalOverridesUserGlobal(t *testing.T) {
	dir := t.TempDir()
	userPath := filepath.Join(dir, "user.toml")
	repoPath := filepath.Join(dir, "repo.toml")

	writeFile(t, userPath, `
provider_order = ["codex", "claude"]

[retry]
max_retries = 5
cooldown_minutes = 90
`)
	writeFile(t, repoPath, `
[retry]
max_retries = 1
`)

	cfg, err := Load(userPath, repoPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Retry.MaxRetries != 1 {
		t.Fatalf("expected repo-local override to win, MaxRetries = %d", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.CooldownMinutes != 90 {
		t.Fatalf("expected user-global value to survive deep-merge, CooldownMinutes = %d", cfg.Retry.CooldownMinutes)
	}
	if cfg.ProviderOrder[0] != "codex" {
		t.Fatalf("expected user-global provider order to survive, got %v", cfg.ProviderOrder)
	}
}

func TestLoad_UnknownSandboxFallsBackToReadOnly(t *testing.T) {
	dir := t.TempDir()
	repoPath := filepath.Join(dir, "repo.toml")
	writeFile(t, repoPath, `
[codex]
sandbox = "whatever-mode"
`)

	cfg, err := Load("", repoPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Codex.Sandbox != "read-only" {
		t.Fatalf("expected fallback to read-only, got %q", cfg.Codex.Sandbox)
	}
}

func TestProviderOrderTyped_SkipsUnrecognizedNames(t *testing.T) {
	cfg := Config{ProviderOrder: []string{"claude", "bogus", "codex"}}
	order := cfg.ProviderOrderTyped()
	if len(order) != 2 || order[0] != model.ProviderClaude || order[1] != model.ProviderCodex {
		t.Fatalf("ProviderOrderTyped = %v", order)
	}
}

func TestRouterConfig_CarriesLimitsAndRetryThrough(t *testing.T) {
	cfg := Defaults()
	rc := cfg.RouterConfig()
	if rc.HandoffLimits.MaxDiffLines != 200 {
		t.Fatalf("HandoffLimits.MaxDiffLines = %d", rc.HandoffLimits.MaxDiffLines)
	}
	if rc.Retry.Cooldown.TransientCooldownMinutes != 5 {
		t.Fatalf("Retry.Cooldown.TransientCooldownMinutes = %d", rc.Retry.Cooldown.TransientCooldownMinutes)
	}
	if len(rc.ProviderOrder) != 2 {
		t.Fatalf("ProviderOrder = %v", rc.ProviderOrder)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}
