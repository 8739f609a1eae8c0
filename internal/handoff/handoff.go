// Package handoff assembles the fallback prompt sent to a newly-selected
// provider and maintains the rolling handoff.md document that carries goal
// / plan / blockers across turns and across a provider switch.
//
// Grounded on original_source/src/claudex/handoff.py, the only place in the
// corpus that builds this kind of git-snapshot + rolling-summary context
// injection; written in the teacher's idiom of invoking external tools via
// os/exec with bounded timeouts (see internal/adapter for the same pattern
// applied to the provider CLIs themselves).
package handoff

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"aiswitch/internal/model"
)

const gitQueryTimeout = 10 * time.Second

// Limits bounds the repo snapshot and the rolling handoff document.
type Limits struct {
	MaxDiffLines    int
	MaxDiffBytes    int
	MaxHandoffLines int
}

// DefaultLimits mirrors the §6 config table defaults.
func DefaultLimits() Limits {
	return Limits{MaxDiffLines: 200, MaxDiffBytes: 8000, MaxHandoffLines: 350}
}

const sectionSeparator = "\n\n---\n\n"

// BuildProviderPrompt assembles the text sent to a provider for this turn.
//
// When isResuming is false the preferred provider has its own session
// history, so the user prompt passes through unchanged. When true (we are
// falling back to an alternate provider, or resuming with no prior
// session), the handoff content and a live repo snapshot are prepended.
func BuildProviderPrompt(userPrompt string, limits Limits, isResuming bool, handoffContent string) string {
	if !isResuming {
		return userPrompt
	}

	var sections []string
	if strings.TrimSpace(handoffContent) != "" {
		sections = append(sections, "## Context Handoff\n\n"+handoffContent)
	}
	if snapshot := RepoSnapshot(limits); snapshot != "" {
		sections = append(sections, snapshot)
	}
	sections = append(sections, "## Current Task\n\n"+userPrompt)

	return strings.Join(sections, sectionSeparator)
}

// RepoSnapshot assembles a compact Markdown summary of the working tree:
// status, recent commits, diff stats, and (bounded) the full diff. Returns
// "" if the working directory is not inside a version-control checkout, or
// if the inside-work-tree probe itself fails.
func RepoSnapshot(limits Limits) string {
	if !insideGitWorkTree() {
		return ""
	}

	var parts []string
	parts = append(parts, "## Repo Snapshot\n")

	if status := runGit("status", "--porcelain"); status != "" {
		parts = append(parts, "**Status:**\n```\n"+strings.TrimSpace(status)+"\n```\n")
	}
	if log := runGit("log", "-n", "5", "--oneline"); log != "" {
		parts = append(parts, "**Recent commits:**\n```\n"+strings.TrimSpace(log)+"\n```\n")
	}
	if diffStat := runGit("diff", "--stat"); diffStat != "" {
		parts = append(parts, "**Diff stat:**\n```\n"+strings.TrimSpace(diffStat)+"\n```\n")
	}

	if diff := runGit("diff"); diff != "" {
		lines := strings.Count(diff, "\n")
		size := len(diff)
		if lines <= limits.MaxDiffLines && size <= limits.MaxDiffBytes {
			parts = append(parts, "**Full diff:**\n```diff\n"+strings.TrimSpace(diff)+"\n```\n")
		} else {
			parts = append(parts, fmt.Sprintf(
				"**Full diff omitted** (%d lines, %d bytes). Inspect individual files as needed.\n",
				lines, size,
			))
		}
	}

	// Only the header was produced: nothing to show.
	if len(parts) == 1 {
		return ""
	}
	return strings.Join(parts, "\n")
}

const (
	sectionGoal      = "Current Goal"
	sectionPlan      = "Current Plan"
	sectionChanged   = "What Changed This Turn"
	sectionBlockers  = "Open Questions / Blockers"
	sectionNextSteps = "Next Concrete Steps"

	maxUserPromptChars   = 600
	maxAssistantTextChars = 2000
)

// UpdateHandoff produces the next rolling handoff.md body after a turn.
// Current Goal, Current Plan, and Open Questions/Blockers carry forward
// verbatim from previousHandoff: this router never summarizes or edits
// them. What Changed This Turn is rewritten for the turn just run (the
// previous turn's entry is dropped), and Next Concrete Steps is a fixed
// placeholder.
func UpdateHandoff(userPrompt, assistantText string, provider model.Provider, limits Limits, previousHandoff string) string {
	goal := extractSection(previousHandoff, sectionGoal)
	if goal == "" {
		goal = "_not yet set_"
	}
	plan := extractSection(previousHandoff, sectionPlan)
	if plan == "" {
		plan = "_not yet set_"
	}
	blockers := extractSection(previousHandoff, sectionBlockers)
	if blockers == "" {
		blockers = "_none recorded_"
	}

	changed := fmt.Sprintf(
		"- **Provider:** %s\n- **Prompt:** %s\n- **Result:** %s",
		provider, truncate(userPrompt, maxUserPromptChars), truncate(assistantText, maxAssistantTextChars),
	)

	nextSteps := "_carry forward from Current Plan above; revise once the next turn's outcome is known._"

	body := strings.Join([]string{
		"## " + sectionGoal + "\n\n" + goal,
		"## " + sectionPlan + "\n\n" + plan,
		"## " + sectionChanged + "\n\n" + changed,
		"## " + sectionBlockers + "\n\n" + blockers,
		"## " + sectionNextSteps + "\n\n" + nextSteps,
	}, "\n\n")

	maxLines := limits.MaxHandoffLines
	if maxLines <= 0 {
		maxLines = 350
	}
	return enforceLineLimit(body, maxLines)
}

// extractSection returns the body text of a "## <sectionName>" heading in
// text, up to (but excluding) the next "## " heading or end of string.
// Returns "" if the heading is not present.
func extractSection(text, sectionName string) string {
	heading := "## " + sectionName
	idx := strings.Index(text, heading)
	if idx == -1 {
		return ""
	}
	rest := text[idx+len(heading):]
	if next := strings.Index(rest, "\n## "); next != -1 {
		rest = rest[:next]
	}
	return strings.TrimSpace(rest)
}

// truncate caps s at maxChars runes, appending a note with the number of
// runes dropped.
func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	dropped := len(runes) - maxChars
	return string(runes[:maxChars]) + fmt.Sprintf("…[%d chars truncated]", dropped)
}

// enforceLineLimit caps text at maxLines total lines. When over the limit
// it keeps the first third and the last two-thirds of the remaining
// budget, replacing the dropped middle with a 3-line omission marker — an
// already-compliant document passes through unchanged.
func enforceLineLimit(text string, maxLines int) string {
	lines := strings.Split(text, "\n")
	if len(lines) <= maxLines {
		return text
	}

	budget := maxLines - 3
	if budget < 2 {
		return strings.Join(lines[:maxLines], "\n")
	}
	head := budget / 3
	tail := budget - head

	kept := make([]string, 0, maxLines)
	kept = append(kept, lines[:head]...)
	kept = append(kept, "", fmt.Sprintf("_[%d lines omitted]_", len(lines)-head-tail), "")
	kept = append(kept, lines[len(lines)-tail:]...)
	return strings.Join(kept, "\n")
}

func insideGitWorkTree() bool {
	out, err := runGitErr("rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// runGit runs a git subcommand and returns stdout, treating any failure
// (non-zero exit, timeout, missing binary) as an empty result — a snapshot
// query must never fail a turn.
func runGit(args ...string) string {
	out, err := runGitErr(args...)
	if err != nil {
		return ""
	}
	return out
}

func runGitErr(args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), gitQueryTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}
