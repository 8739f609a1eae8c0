package handoff

import (
	"strconv"
	"strings"
	"testing"

	"aiswitch/internal/model"
)

func TestBuildProviderPrompt_NotResumingPassesThrough(t *testing.T) {
	got := BuildProviderPrompt("fix the bug", DefaultLimits(), false, "## Current Goal\n\nship it")
	if got != "fix the bug" {
		t.Fatalf("got %q, want passthrough", got)
	}
}

func TestBuildProviderPrompt_ResumingIncludesHandoffAndTask(t *testing.T) {
	got := BuildProviderPrompt("continue the refactor", DefaultLimits(), true, "## Current Goal\n\nship it")
	if !strings.Contains(got, "Context Handoff") {
		t.Fatalf("expected handoff section, got %q", got)
	}
	if !strings.Contains(got, "## Current Task") {
		t.Fatalf("expected task section, got %q", got)
	}
	if !strings.Contains(got, "continue the refactor") {
		t.Fatalf("expected user prompt present, got %q", got)
	}
}

func TestBuildProviderPrompt_ResumingWithEmptyHandoffSkipsSection(t *testing.T) {
	got := BuildProviderPrompt("do it", DefaultLimits(), true, "")
	if strings.Contains(got, "Context Handoff") {
		t.Fatalf("expected no handoff section, got %q", got)
	}
}

func TestUpdateHandoff_CarriesForwardGoalPlanAndBlockersVerbatim(t *testing.T) {
	previous := strings.Join([]string{
		"## Current Goal",
		"",
		"Ship the failover router.",
		"",
		"## Current Plan",
		"",
		"1. Write the classifier.",
		"2. Write the router.",
		"",
		"## What Changed This Turn",
		"",
		"- did some stuff",
		"",
		"## Open Questions / Blockers",
		"",
		"- need to confirm cooldown defaults",
		"",
		"## Next Concrete Steps",
		"",
		"- write tests",
	}, "\n")

	next := UpdateHandoff("add retry logic", "added exponential backoff", model.ProviderCodex, DefaultLimits(), previous)

	if got := extractSection(next, sectionGoal); got != "Ship the failover router." {
		t.Fatalf("goal not carried forward verbatim: %q", got)
	}
	if got := extractSection(next, sectionPlan); got != "1. Write the classifier.\n2. Write the router." {
		t.Fatalf("plan not carried forward verbatim: %q", got)
	}
	if got := extractSection(next, sectionBlockers); got != "- need to confirm cooldown defaults" {
		t.Fatalf("blockers not carried forward verbatim: %q", got)
	}
	if !strings.Contains(next, "codex") {
		t.Fatalf("expected provider name in changed section, got %q", next)
	}
}

func TestUpdateHandoff_MissingSectionsGetPlaceholders(t *testing.T) {
	next := UpdateHandoff("first turn ever", "did the thing", model.ProviderClaude, DefaultLimits(), "")

	if got := extractSection(next, sectionGoal); got != "_not yet set_" {
		t.Fatalf("goal placeholder = %q", got)
	}
	if got := extractSection(next, sectionBlockers); got != "_none recorded_" {
		t.Fatalf("blockers placeholder = %q", got)
	}
}

func TestEnforceLineLimit_IsIdentityWhenAlreadyCompliant(t *testing.T) {
	text := strings.Repeat("line\n", 10)
	got := enforceLineLimit(text, 350)
	if got != text {
		t.Fatalf("expected identity, got different output")
	}
}

func TestEnforceLineLimit_TruncatesOversizedDocument(t *testing.T) {
	lines := make([]string, 500)
	for i := range lines {
		lines[i] = "line " + strconv.Itoa(i)
	}
	text := strings.Join(lines, "\n")

	got := enforceLineLimit(text, 100)

	if !strings.Contains(got, "lines omitted") {
		t.Fatalf("expected omission marker, got %q", got)
	}
	if !strings.HasPrefix(got, "line 0\n") {
		t.Fatalf("expected head retained, got prefix %q", got[:20])
	}
	if !strings.HasSuffix(got, "line 499") {
		t.Fatalf("expected tail retained, got suffix %q", got[len(got)-20:])
	}
}

func TestTruncate_AppendsCharCountSuffix(t *testing.T) {
	long := strings.Repeat("x", 700)
	got := truncate(long, 600)
	if !strings.Contains(got, "chars truncated") {
		t.Fatalf("expected truncation suffix, got %q", got)
	}
	if !strings.HasPrefix(got, strings.Repeat("x", 600)) {
		t.Fatalf("expected 600 char prefix retained")
	}
}

func TestTruncate_ShortTextPassesThroughUnchanged(t *testing.T) {
	short := "short text"
	if got := truncate(short, 600); got != short {
		t.Fatalf("got %q, want unchanged passthrough", got)
	}
}

func TestExtractSection_MissingHeadingReturnsEmpty(t *testing.T) {
	if got := extractSection("no headings here", sectionGoal); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}
