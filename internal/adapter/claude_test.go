package adapter

import (
	"context"
	"strings"
	"testing"

	"aiswitch/internal/model"
)

func TestParseClaudeOutput_SuccessEnvelope(t *testing.T) {
	stdout := `{"type":"result","result":"done!","session_id":"sess-1","is_error":false}`
	r := parseClaudeOutput(stdout, stdout, 0)

	if !r.Success {
		t.Fatalf("expected success, got %+v", r)
	}
	if r.Text != "done!" || r.SessionID != "sess-1" {
		t.Fatalf("unexpected result: %+v", r)
	}
}

func TestParseClaudeOutput_ErrorEnvelope(t *testing.T) {
	stdout := `{"type":"result","result":"usage limit reached","session_id":"sess-2","is_error":true}`
	r := parseClaudeOutput(stdout, stdout, 1)

	if r.Success {
		t.Fatalf("expected failure, got %+v", r)
	}
	if r.ErrorClass != model.QuotaExhausted {
		t.Fatalf("ErrorClass = %s, want QUOTA_EXHAUSTED", r.ErrorClass)
	}
	if r.SessionID != "sess-2" {
		t.Fatalf("expected session id carried through even on error, got %q", r.SessionID)
	}
}

func TestParseClaudeOutput_InvalidJSONFallsBackToTextClassification(t *testing.T) {
	raw := "Error: rate limit exceeded, please retry"
	r := parseClaudeOutput("", raw, 1)

	if r.Success {
		t.Fatalf("expected failure")
	}
	if r.ErrorClass != model.TransientRateLimit {
		t.Fatalf("ErrorClass = %s, want TRANSIENT_RATE_LIMIT", r.ErrorClass)
	}
}

func TestParseClaudeOutput_PlainTextSuccessFallback(t *testing.T) {
	r := parseClaudeOutput("just some text", "just some text", 0)
	if !r.Success || r.Text != "just some text" {
		t.Fatalf("unexpected result: %+v", r)
	}
}

func TestParseClaudeOutput_EmptyOutputIsUnknownError(t *testing.T) {
	r := parseClaudeOutput("", "", 1)
	if r.Success {
		t.Fatalf("expected failure")
	}
	if r.ErrorMessage != "Unknown error from claude CLI" {
		t.Fatalf("ErrorMessage = %q", r.ErrorMessage)
	}
}

func TestRun_RetriesAlternateExecutableWhenPrimaryNotFound(t *testing.T) {
	cfg := Config{
		ClaudeExecutable:          "definitely-not-a-real-claude-binary",
		ClaudeAlternateExecutable: "also-not-a-real-binary",
	}
	r := ClaudeAdapter{}.Run(context.Background(), "hello", "", cfg)

	if r.Success {
		t.Fatalf("expected failure, got %+v", r)
	}
	if !strings.Contains(r.ErrorMessage, cfg.ClaudeAlternateExecutable) {
		t.Fatalf("expected error to name the alternate executable after both attempts failed, got %q", r.ErrorMessage)
	}
}
