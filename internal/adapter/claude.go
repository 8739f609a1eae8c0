package adapter

import (
	"context"
	"encoding/json"
	"strings"

	"aiswitch/internal/model"
)

// ClaudeAdapter drives the `claude` CLI (npm i -g @anthropic-ai/claude-code).
//
// New session:    claude -p "<prompt>" --output-format json
// Resume session: claude -r <session_id> -p "<prompt>" --output-format json
//
// --output-format json returns a single JSON envelope:
//
//	{"type":"result","result":"...","session_id":"...","is_error":false}
type ClaudeAdapter struct{}

func (ClaudeAdapter) Provider() model.Provider { return model.ProviderClaude }

type claudeEnvelope struct {
	Type      string `json:"type"`
	Result    string `json:"result"`
	SessionID string `json:"session_id"`
	IsError   bool   `json:"is_error"`
}

func (ClaudeAdapter) Run(ctx context.Context, prompt, sessionID string, cfg Config) Result {
	executable := cfg.ClaudeExecutable
	if executable == "" {
		executable = "claude"
	}
	alternate := cfg.ClaudeAlternateExecutable
	if alternate == "" {
		alternate = "claude-code"
	}

	var args []string
	if sessionID != "" {
		args = append(args, "-r", sessionID)
	}
	args = append(args, "-p", prompt, "--output-format", "json")
	for _, tool := range cfg.ClaudeAllowedTools {
		args = append(args, "--allowedTools", tool)
	}

	stdout, raw, exitCode, timedOut, notFound := runSubprocess(ctx, executable, args)

	// The primary executable name wasn't found: retry once with the
	// alternate name before giving up, covering the common shim install
	// where `claude` wraps a differently named binary.
	if notFound && alternate != executable {
		executable = alternate
		stdout, raw, exitCode, timedOut, notFound = runSubprocess(ctx, executable, args)
	}

	if timedOut {
		return Result{
			Success:      false,
			ErrorClass:   model.OtherError,
			ErrorMessage: "claude CLI timed out after 5 minutes.",
		}
	}
	if notFound {
		return Result{
			Success:      false,
			ErrorClass:   model.OtherError,
			ErrorMessage: "'" + executable + "' command not found. Install with: npm i -g @anthropic-ai/claude-code",
		}
	}

	return parseClaudeOutput(stdout, raw, exitCode)
}

func parseClaudeOutput(stdout, raw string, exitCode int) Result {
	trimmed := strings.TrimSpace(stdout)

	var envelope claudeEnvelope
	if trimmed != "" && json.Unmarshal([]byte(trimmed), &envelope) == nil && envelope.Type != "" {
		if !envelope.IsError && envelope.Result != "" {
			return Result{
				Success:   true,
				Text:      envelope.Result,
				SessionID: envelope.SessionID,
				RawOutput: raw,
			}
		}

		errMsg := envelope.Result
		if errMsg == "" {
			errMsg = raw
		}
		return Result{
			Success:      false,
			SessionID:    envelope.SessionID,
			ErrorClass:   classifyFallback(errMsg, exitCode),
			ErrorMessage: truncate(errMsg, maxErrorMessageChars),
			RawOutput:    raw,
		}
	}

	// No valid JSON envelope.
	if exitCode == 0 && trimmed != "" {
		return Result{Success: true, Text: trimmed, RawOutput: raw}
	}

	errMsg := raw
	if errMsg == "" {
		errMsg = "Unknown error from claude CLI"
	}
	return Result{
		Success:      false,
		ErrorClass:   classifyFallback(raw, exitCode),
		ErrorMessage: truncate(errMsg, maxErrorMessageChars),
		RawOutput:    raw,
	}
}
