package adapter

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"aiswitch/internal/model"
)

// CodexAdapter drives the `codex exec` CLI (OpenAI Codex CLI).
//
// New session:    codex exec --json "<prompt>"
// Resume session: codex exec resume <session_id> --json "<prompt>"
//
// Output is a stream of newline-delimited JSON events; the events of
// interest are thread.started (captures the thread id), item.completed
// with item.type == "agent_message" (the assistant's reply, keeping the
// last one seen), and error (a structured failure).
type CodexAdapter struct{}

func (CodexAdapter) Provider() model.Provider { return model.ProviderCodex }

var validSandboxModes = map[string]bool{
	"read-only":          true,
	"workspace-write":    true,
	"danger-full-access": true,
}

func (CodexAdapter) Run(ctx context.Context, prompt, sessionID string, cfg Config) Result {
	args := []string{"exec"}

	if cfg.CodexModel != "" {
		args = append(args, "--model", cfg.CodexModel)
	}

	switch sandbox := cfg.CodexSandbox; {
	case sandbox == "full-auto":
		args = append(args, "--full-auto")
	case sandbox == "dangerously-bypass-approvals-and-sandbox":
		args = append(args, "--dangerously-bypass-approvals-and-sandbox")
	case validSandboxModes[sandbox]:
		args = append(args, "--sandbox", sandbox)
	default:
		// Empty or unrecognized value falls back to read-only for safety.
		args = append(args, "--sandbox", "read-only")
	}

	if sessionID != "" {
		args = append(args, "resume", sessionID)
	}
	args = append(args, "--json", prompt)

	stdout, raw, exitCode, timedOut, notFound := runSubprocess(ctx, "codex", args)

	if timedOut {
		return Result{
			Success:      false,
			ErrorClass:   model.OtherError,
			ErrorMessage: "codex CLI timed out after 5 minutes.",
		}
	}
	if notFound {
		return Result{
			Success:      false,
			ErrorClass:   model.OtherError,
			ErrorMessage: "'codex' command not found. Install with: npm i -g @openai/codex",
		}
	}

	return parseCodexJSONL(stdout, raw, exitCode)
}

type codexEvent struct {
	Type      string          `json:"type"`
	ThreadID  string          `json:"thread_id"`
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Item      codexItem       `json:"item"`
	Message   string          `json:"message"`
	Status    json.RawMessage `json:"status"`
}

type codexItem struct {
	Type    string             `json:"type"`
	Content []codexContentItem `json:"content"`
}

type codexContentItem struct {
	Text       string `json:"text"`
	OutputText string `json:"output_text"`
}

func parseCodexJSONL(stdout, raw string, exitCode int) Result {
	var threadID, assistantText string
	var lastError *codexEvent

	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var ev codexEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}

		switch ev.Type {
		case "thread.started":
			switch {
			case ev.ThreadID != "":
				threadID = ev.ThreadID
			case ev.ID != "":
				threadID = ev.ID
			case ev.SessionID != "":
				threadID = ev.SessionID
			}
		case "item.completed":
			if ev.Item.Type == "agent_message" {
				var parts []string
				for _, block := range ev.Item.Content {
					text := block.Text
					if text == "" {
						text = block.OutputText
					}
					if text != "" {
						parts = append(parts, text)
					}
				}
				if len(parts) > 0 {
					assistantText = strings.Join(parts, "\n")
				}
			}
		case "error":
			evCopy := ev
			lastError = &evCopy
		}
	}

	if lastError != nil {
		msg := lastError.Message
		if msg == "" {
			msg = string(lastError.Status)
		}
		return Result{
			Success:      false,
			SessionID:    threadID,
			ErrorClass:   classifyCodexErrorEvent(lastError),
			ErrorMessage: truncate(msg, maxErrorMessageChars),
			RawOutput:    raw,
		}
	}

	if exitCode != 0 && assistantText == "" {
		errMsg := raw
		if errMsg == "" {
			errMsg = "Unknown error from codex CLI"
		}
		return Result{
			Success:      false,
			SessionID:    threadID,
			ErrorClass:   classifyFallback(raw, exitCode),
			ErrorMessage: truncate(errMsg, maxErrorMessageChars),
			RawOutput:    raw,
		}
	}

	if assistantText != "" {
		return Result{
			Success:   true,
			Text:      assistantText,
			SessionID: threadID,
			RawOutput: raw,
		}
	}

	return Result{
		Success:      false,
		SessionID:    threadID,
		ErrorClass:   model.OtherError,
		ErrorMessage: "No assistant message found in codex JSONL output.",
		RawOutput:    raw,
	}
}

func classifyCodexErrorEvent(ev *codexEvent) model.ErrorClass {
	message := strings.ToLower(ev.Message)
	status := 0
	if len(ev.Status) > 0 {
		if n, err := strconv.Atoi(string(ev.Status)); err == nil {
			status = n
		}
	}

	if status == 429 || strings.Contains(message, "rate limit") || strings.Contains(message, "quota") {
		if strings.Contains(message, "quota") || strings.Contains(message, "usage limit") || strings.Contains(message, "exhausted") {
			return model.QuotaExhausted
		}
		return model.TransientRateLimit
	}
	if status == 401 || strings.Contains(message, "unauthorized") || strings.Contains(message, "authentication") {
		return model.AuthRequired
	}
	return model.OtherError
}
