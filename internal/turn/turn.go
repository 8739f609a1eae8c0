// Package turn orchestrates one end-to-end prompt turn: load durable
// state, write the active-run marker, invoke the Router, persist state,
// update the handoff document after a success, and append a transcript
// record for the turn. The marker is cleared on every exit path. A turn in
// which every provider is in cooldown appends no transcript record.
//
// Grounded on original_source/src/claudex/main.py's _run_turn, the shared
// executor both the `chat` REPL and the `ask` one-shot command call
// through; rewritten here as a reusable Driver instead of a module-level
// function, matching the teacher's preference for small stateful structs
// over free functions (see pkg/providers/rotation.go's RotationManager).
package turn

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"aiswitch/internal/handoff"
	"aiswitch/internal/model"
	"aiswitch/internal/router"
	"aiswitch/internal/store"
	"aiswitch/internal/transcript"
)

// Mode identifies which command is driving this turn, recorded on the
// active-run marker so `status` can report what crashed.
type Mode string

const (
	ModeAsk  Mode = "ask"
	ModeChat Mode = "chat"
)

const activeRunExcerptChars = 200

// Driver executes turns against one repo's .aiswitch/ directory.
type Driver struct {
	Store  *store.Store
	Config router.Config
	Log    *zap.Logger
}

// New builds a Driver rooted at the given store.
func New(st *store.Store, cfg router.Config, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{Store: st, Config: cfg, Log: log}
}

// Outcome is what the CLI layer needs to render after a turn: whether it
// succeeded, who answered, and — on failure — why.
type Outcome struct {
	Success          bool
	Provider         model.Provider
	PreviousProvider model.Provider
	Text             string
	ErrorClass       model.ErrorClass
	ErrorMessage     string
	AllInCooldown    bool
}

// Run executes one prompt turn. onProviderStart is forwarded to the Router
// unchanged (nil means no hook). confirmSwitch is wrapped so the switch
// decision is recorded on the transcript entry; nil means implicit
// approval. now is injectable for tests; nil uses time.Now.
func (d *Driver) Run(
	ctx context.Context,
	mode Mode,
	userPrompt string,
	confirmSwitch router.ConfirmSwitch,
	onProviderStart router.OnProviderStart,
	now func() time.Time,
) (Outcome, error) {
	if now == nil {
		now = time.Now
	}
	start := now()

	state := d.Store.LoadState(start)
	previousProvider := state.LastProvider
	handoffContent := d.Store.LoadHandoff()

	run := store.NewActiveRun(string(mode), previousProvider, truncateExcerpt(userPrompt), start)
	if err := d.Store.SaveActiveRun(run); err != nil {
		return Outcome{}, fmt.Errorf("writing active-run marker: %w", err)
	}
	defer func() {
		if err := d.Store.ClearActiveRun(); err != nil {
			d.Log.Warn("failed to clear active-run marker", zap.Error(err))
		}
	}()

	var switchMeta *transcript.SwitchMetadata
	wrappedConfirm := func(from, to model.Provider, lastFailed *router.Result) bool {
		approved := true
		if confirmSwitch != nil {
			approved = confirmSwitch(from, to, lastFailed)
		}
		decision := "approved"
		if !approved {
			decision = "denied"
		}
		switchMeta = &transcript.SwitchMetadata{From: from, To: to, Decision: decision}
		return approved
	}

	result, provider, updatedState := router.RunWithRetry(
		ctx, userPrompt, state, d.Config, handoffContent, wrappedConfirm, onProviderStart, now, nil, d.Config.NewAdapter,
	)

	// State persistence failures are fatal and must propagate, never be
	// swallowed by a later success/failure branch.
	if err := d.Store.SaveState(updatedState, now()); err != nil {
		return Outcome{}, fmt.Errorf("persisting state: %w", err)
	}

	if result == nil {
		return Outcome{AllInCooldown: true, PreviousProvider: previousProvider}, nil
	}

	if result.Success {
		newHandoff := handoff.UpdateHandoff(userPrompt, result.Text, provider, d.Config.HandoffLimits, handoffContent)
		if err := d.Store.SaveHandoff(newHandoff); err != nil {
			return Outcome{}, fmt.Errorf("saving handoff: %w", err)
		}

		ps := updatedState.Get(provider)
		entry := transcript.Success(run.TurnID, now(), provider, userPrompt, result.Text, ps.SessionID, switchMeta)
		if err := d.Store.AppendTranscript(entry); err != nil {
			return Outcome{}, fmt.Errorf("appending transcript: %w", err)
		}

		return Outcome{
			Success:          true,
			Provider:         provider,
			PreviousProvider: previousProvider,
			Text:             result.Text,
		}, nil
	}

	ps := updatedState.Get(provider)
	sessionID := result.SessionID
	if sessionID == "" {
		sessionID = ps.SessionID
	}
	entry := transcript.Failure(run.TurnID, now(), provider, userPrompt, result.EffectiveErrorClass, result.ErrorMessage, sessionID, ps.Cooldown, switchMeta)
	if err := d.Store.AppendTranscript(entry); err != nil {
		return Outcome{}, fmt.Errorf("appending transcript: %w", err)
	}

	return Outcome{
		Success:          false,
		Provider:         provider,
		PreviousProvider: previousProvider,
		ErrorClass:       result.EffectiveErrorClass,
		ErrorMessage:     result.ErrorMessage,
	}, nil
}

func truncateExcerpt(s string) string {
	if len(s) <= activeRunExcerptChars {
		return s
	}
	return s[:activeRunExcerptChars]
}
