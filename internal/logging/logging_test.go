package logging

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestDefaultConfig_BuildsPathUnderAiswitchDir(t *testing.T) {
	cfg := DefaultConfig("/repo")
	want := filepath.Join("/repo", ".aiswitch", "logs", "aiswitch.log")
	if cfg.OutputPath != want {
		t.Fatalf("OutputPath = %q, want %q", cfg.OutputPath, want)
	}
	if cfg.Level != LevelInfo {
		t.Fatalf("Level = %q, want info", cfg.Level)
	}
}

func TestNew_ConsoleOnlyWhenOutputPathEmpty(t *testing.T) {
	log, err := New(Config{Level: LevelDebug})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer log.Sync()
	log.Info("hello", zap.String("k", "v"))
}

func TestNew_WritesRotatingFileUnderTempDir(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)

	log, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer log.Sync()
	log.Info("turn completed", zap.String("provider", "claude"))
}

func TestNew_UnknownLevelErrors(t *testing.T) {
	if _, err := New(Config{Level: "very-loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
