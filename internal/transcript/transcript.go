// Package transcript assembles the append-only per-turn record written to
// transcript.ndjson, separating record-shaping logic from the raw NDJSON
// I/O that internal/store performs.
//
// Grounded on original_source/src/aiswitch/transcript.py's record_turn;
// the error field follows its "ERROR_CLASS: message" convention, with
// cooldown and switch metadata added per the expanded transcript record
// shape.
package transcript

import (
	"time"

	"aiswitch/internal/model"
	"aiswitch/internal/store"
)

// SwitchMetadata records a provider switch decision for this turn, when
// one occurred.
type SwitchMetadata struct {
	From     model.Provider
	To       model.Provider
	Decision string // "approved", "denied", or "" when no switch happened
}

// Success builds the transcript entry for a completed turn. turnID
// correlates this record with the active-run marker for the same turn;
// it may be "" if no marker was written.
func Success(
	turnID string,
	now time.Time,
	provider model.Provider,
	userPrompt, assistantText, sessionID string,
	switchMeta *SwitchMetadata,
) store.TranscriptEntry {
	e := store.TranscriptEntry{
		TurnID:        turnID,
		Timestamp:     now,
		Provider:      provider,
		UserPrompt:    userPrompt,
		AssistantText: assistantText,
		SessionID:     sessionID,
	}
	applySwitchMeta(&e, switchMeta)
	return e
}

// Failure builds the transcript entry for a turn that ended in failure,
// optionally carrying cooldown bookkeeping when the failure triggered one.
func Failure(
	turnID string,
	now time.Time,
	provider model.Provider,
	userPrompt string,
	errorClass model.ErrorClass,
	errorMessage string,
	sessionID string,
	cooldown *model.Cooldown,
	switchMeta *SwitchMetadata,
) store.TranscriptEntry {
	e := store.TranscriptEntry{
		TurnID:     turnID,
		Timestamp:  now,
		Provider:   provider,
		UserPrompt: userPrompt,
		SessionID:  sessionID,
		Error:      string(errorClass) + ": " + errorMessage,
		ErrorClass: errorClass,
	}
	if cooldown != nil {
		until := cooldown.Until
		e.CooldownUntil = &until
		e.CooldownSource = cooldown.Source
	}
	applySwitchMeta(&e, switchMeta)
	return e
}

func applySwitchMeta(e *store.TranscriptEntry, meta *SwitchMetadata) {
	if meta == nil {
		return
	}
	e.SwitchFrom = meta.From
	e.SwitchTo = meta.To
	e.SwitchDecision = meta.Decision
}
