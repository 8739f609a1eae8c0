// Package adapter spawns the two provider CLIs as subprocesses and parses
// their output into a unified Result.
//
// Grounded on the teacher's pkg/process.Manager for the subprocess-spawning
// idiom (adapted here from a long-lived PTY session to a single bounded
// exec.CommandContext call per turn, since each provider invocation is a
// one-shot batch command rather than an interactive shell), and on
// original_source/src/claudex/providers/{base,claude,codex}.py for the
// exact flags, JSON/JSONL parsing, and fallback-classification behavior.
package adapter

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"aiswitch/internal/classify"
	"aiswitch/internal/model"
)

// Timeout is the hard per-turn limit for a provider subprocess, matching
// the 300s timeout in both original providers.
const Timeout = 5 * time.Minute

// innerCallEnvVar marks the child process as a provider invocation made by
// this router, so the provider CLI (or its own tooling) can distinguish a
// direct user invocation from one we're driving.
const innerCallEnvVar = "AISWITCH_INNER_PROVIDER_CALL=1"

// maxErrorMessageChars bounds the error text persisted to state/transcript.
const maxErrorMessageChars = 800

// Result is the unified outcome of one provider invocation.
type Result struct {
	Success      bool
	Text         string
	SessionID    string
	ErrorClass   model.ErrorClass
	ErrorMessage string
	RawOutput    string
}

// Config carries the per-provider settings recognized under the top-level
// A/B (claude/codex) config groups.
type Config struct {
	ClaudeAllowedTools []string
	ClaudeExecutable   string // defaults to "claude"

	// ClaudeAlternateExecutable is tried once, in place of ClaudeExecutable,
	// when the primary name isn't found on PATH — recovering the common
	// real-world case where `claude` is a wrapper shim and the underlying
	// binary is installed under a different name. Defaults to "claude-code".
	ClaudeAlternateExecutable string

	CodexModel   string
	CodexSandbox string // defaults to "read-only"
}

// Adapter runs a single turn against one provider CLI.
type Adapter interface {
	Provider() model.Provider
	Run(ctx context.Context, prompt, sessionID string, cfg Config) Result
}

// New returns the Adapter for p.
func New(p model.Provider) Adapter {
	switch p {
	case model.ProviderClaude:
		return ClaudeAdapter{}
	case model.ProviderCodex:
		return CodexAdapter{}
	default:
		panic("adapter: unknown provider " + string(p))
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// runSubprocess executes cmd under Timeout, marking it as an inner provider
// call, and returns combined output plus a not-found / timeout verdict the
// caller can turn into a Result without duplicating exec-error handling.
func runSubprocess(ctx context.Context, name string, args []string) (stdout, combined string, exitCode int, timedOut bool, notFound bool) {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), innerCallEnvVar)

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()

	// os/exec copies Stdout and Stderr on separate goroutines when they
	// aren't the same writer value, so the two buffers must stay distinct
	// during Run and only be combined afterward, matching the Python
	// adapters' `raw = stdout + stderr`.
	combined = outBuf.String() + errBuf.String()

	if isNotFound(err) {
		return "", "", -1, false, true
	}
	if ctx.Err() == context.DeadlineExceeded {
		return "", "", -1, true, false
	}

	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return outBuf.String(), combined, ee.ExitCode(), false, false
	}
	if err != nil {
		return outBuf.String(), combined, -1, false, false
	}
	return outBuf.String(), combined, 0, false, false
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, exec.ErrNotFound) {
		return true
	}
	return strings.Contains(err.Error(), "executable file not found")
}

func classifyFallback(raw string, exitCode int) model.ErrorClass {
	return classify.Classify(raw, httpishStatus(exitCode))
}

// httpishStatus has no real meaning for a CLI exit code; it exists only so
// classify.Classify's status-aware rules (429/401 shortcuts) stay inert
// here and text matching does the work, matching the Python fallback
// classifiers which never pass a status code either.
func httpishStatus(exitCode int) int { return 0 }
