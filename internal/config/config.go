// Package config loads layered TOML configuration via viper: built-in
// defaults, overridden by the user-global file, overridden by the
// repo-local file, with nested groups deep-merged and scalars/sequences
// shallow-overridden.
//
// Grounded on the teacher's pkg/config.Loader (viper setup, SetConfigType,
// merge-in-config idiom) and pkg/config.Watcher (fsnotify-backed hot
// reload via viper.WatchConfig); the three-layer precedence and group/key
// shape follow original_source/src/claudex/config.py's DEFAULT_CONFIG and
// _deep_merge.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"aiswitch/internal/adapter"
	"aiswitch/internal/cooldown"
	"aiswitch/internal/handoff"
	"aiswitch/internal/model"
	"aiswitch/internal/router"
)

// RepoConfigFileName is the repo-local config, highest precedence.
const RepoConfigFileName = "config.toml"

// Claude holds the `[claude]` (A) config group.
type Claude struct {
	AllowedTools []string `mapstructure:"allowed_tools"`
}

// Codex holds the `[codex]` (B) config group.
type Codex struct {
	Model   string `mapstructure:"model"`
	Sandbox string `mapstructure:"sandbox"`
}

// Limits holds the `[limits]` config group.
type Limits struct {
	MaxDiffLines    int `mapstructure:"max_diff_lines"`
	MaxDiffBytes    int `mapstructure:"max_diff_bytes"`
	MaxHandoffLines int `mapstructure:"max_handoff_lines"`
}

// RetryGroup holds the `[retry]` config group.
type RetryGroup struct {
	MaxRetries               int     `mapstructure:"max_retries"`
	BackoffBase              float64 `mapstructure:"backoff_base"`
	BackoffMax               float64 `mapstructure:"backoff_max"`
	CooldownMinutes          int     `mapstructure:"cooldown_minutes"`
	TransientCooldownMinutes int     `mapstructure:"transient_cooldown_minutes"`
}

// Config is the fully merged, typed configuration for one invocation.
type Config struct {
	ProviderOrder []string   `mapstructure:"provider_order"`
	Claude        Claude     `mapstructure:"claude"`
	Codex         Codex      `mapstructure:"codex"`
	Limits        Limits     `mapstructure:"limits"`
	Retry         RetryGroup `mapstructure:"retry"`
}

// Defaults returns the built-in configuration, the base of the merge
// chain.
func Defaults() Config {
	return Config{
		ProviderOrder: []string{string(model.ProviderClaude), string(model.ProviderCodex)},
		Claude:        Claude{AllowedTools: []string{}},
		Codex:         Codex{Sandbox: "read-only"},
		Limits:        Limits{MaxDiffLines: 200, MaxDiffBytes: 8000, MaxHandoffLines: 350},
		Retry: RetryGroup{
			MaxRetries:               3,
			BackoffBase:              2.0,
			BackoffMax:               30.0,
			CooldownMinutes:          60,
			TransientCooldownMinutes: 5,
		},
	}
}

// UserGlobalPath returns ~/.config/aiswitch/config.toml.
func UserGlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "aiswitch", RepoConfigFileName)
}

// Load merges defaults ← userGlobalPath ← repoLocalPath. Either path may be
// "" or non-existent; a missing file is silently skipped, matching the
// teacher's "file not found falls back to defaults" Loader.Load behavior.
func Load(userGlobalPath, repoLocalPath string) (Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	cfg := Defaults()
	setDefaults(v, cfg)

	for _, path := range []string{userGlobalPath, repoLocalPath} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		layer := viper.New()
		layer.SetConfigType("toml")
		layer.SetConfigFile(path)
		if err := layer.ReadInConfig(); err != nil {
			return cfg, err
		}
		// MergeConfigMap deep-merges nested maps and shallow-overrides
		// scalars/sequences, matching _deep_merge's semantics.
		if err := v.MergeConfigMap(layer.AllSettings()); err != nil {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.Codex.Sandbox = normalizeSandbox(cfg.Codex.Sandbox)
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("provider_order", cfg.ProviderOrder)
	v.SetDefault("claude.allowed_tools", cfg.Claude.AllowedTools)
	v.SetDefault("codex.model", cfg.Codex.Model)
	v.SetDefault("codex.sandbox", cfg.Codex.Sandbox)
	v.SetDefault("limits.max_diff_lines", cfg.Limits.MaxDiffLines)
	v.SetDefault("limits.max_diff_bytes", cfg.Limits.MaxDiffBytes)
	v.SetDefault("limits.max_handoff_lines", cfg.Limits.MaxHandoffLines)
	v.SetDefault("retry.max_retries", cfg.Retry.MaxRetries)
	v.SetDefault("retry.backoff_base", cfg.Retry.BackoffBase)
	v.SetDefault("retry.backoff_max", cfg.Retry.BackoffMax)
	v.SetDefault("retry.cooldown_minutes", cfg.Retry.CooldownMinutes)
	v.SetDefault("retry.transient_cooldown_minutes", cfg.Retry.TransientCooldownMinutes)
}

var validSandboxValues = map[string]bool{
	"read-only":                               true,
	"workspace-write":                          true,
	"danger-full-access":                       true,
	"full-auto":                                true,
	"dangerously-bypass-approvals-and-sandbox": true,
}

func normalizeSandbox(v string) string {
	if validSandboxValues[v] {
		return v
	}
	return "read-only"
}

// ProviderOrderTyped converts the configured string order into
// model.Provider values, skipping unrecognized names.
func (c Config) ProviderOrderTyped() []model.Provider {
	var out []model.Provider
	for _, name := range c.ProviderOrder {
		if p, ok := model.ParseProvider(name); ok {
			out = append(out, p)
		}
	}
	return out
}

// RouterConfig builds the router.Config this configuration implies.
func (c Config) RouterConfig() router.Config {
	return router.Config{
		ProviderOrder: c.ProviderOrderTyped(),
		Retry: router.Retry{
			MaxRetries:  c.Retry.MaxRetries,
			BackoffBase: c.Retry.BackoffBase,
			BackoffMax:  c.Retry.BackoffMax,
			Cooldown: cooldown.Config{
				DefaultMinutes:           c.Retry.CooldownMinutes,
				TransientCooldownMinutes: c.Retry.TransientCooldownMinutes,
			},
		},
		Adapter: adapter.Config{
			ClaudeAllowedTools: c.Claude.AllowedTools,
			CodexModel:         c.Codex.Model,
			CodexSandbox:       c.Codex.Sandbox,
		},
		HandoffLimits: handoff.Limits{
			MaxDiffLines:    c.Limits.MaxDiffLines,
			MaxDiffBytes:    c.Limits.MaxDiffBytes,
			MaxHandoffLines: c.Limits.MaxHandoffLines,
		},
	}
}
