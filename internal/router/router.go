// Package router implements the core failover algorithm: pick the best
// available provider, retry transient failures with backoff, apply
// cooldowns on quota/transient exhaustion, and fail over to the next
// provider in configured order.
//
// Grounded on the teacher's pkg/providers/rotation.go (RotationManager's
// availability-ordering and cooldown application) and, for the exact
// retry/backoff/reclassification algorithm, original_source's
// src/claudex/router.py run_with_retry.
package router

import (
	"context"
	"time"

	"aiswitch/internal/adapter"
	"aiswitch/internal/classify"
	"aiswitch/internal/cooldown"
	"aiswitch/internal/handoff"
	"aiswitch/internal/model"
)

// Retry carries the retry/backoff/cooldown tunables from the retry config
// group (§6).
type Retry struct {
	MaxRetries  int
	BackoffBase float64
	BackoffMax  float64
	Cooldown    cooldown.Config
}

// Config bundles everything the router needs that isn't part of mutable
// per-turn state: provider preference order, retry tunables, the adapter
// config each provider is invoked with, and handoff-builder limits.
type Config struct {
	ProviderOrder []model.Provider
	Retry         Retry
	Adapter       adapter.Config
	HandoffLimits handoff.Limits

	// NewAdapter overrides adapter construction; nil uses adapter.New. Only
	// ever set by tests to inject a fake adapter.
	NewAdapter AdapterFactory
}

// ConfirmSwitch is asked before the first attempt on any non-preferred
// provider. Returning false aborts the turn without attempting the
// switch. A nil callback implicitly approves every switch.
type ConfirmSwitch func(from, to model.Provider, lastFailed *Result) bool

// OnProviderStart is an observability hook fired before each provider is
// attempted. Panics/errors from it must never affect routing, so the
// Router recovers around each call.
type OnProviderStart func(provider model.Provider)

// Result mirrors adapter.Result plus the fields the router itself derives
// (the effective, possibly-reclassified error class).
type Result struct {
	adapter.Result
	EffectiveErrorClass model.ErrorClass
}

// Clock is overridable for deterministic tests.
type Clock func() time.Time

// Sleeper is overridable so backoff tests don't actually sleep.
type Sleeper func(time.Duration)

// AdapterFactory resolves the Adapter to use for a provider. Tests inject a
// fake factory instead of spawning the real CLIs; production passes nil to
// get adapter.New.
type AdapterFactory func(model.Provider) adapter.Adapter

// RunWithRetry is the router's single public operation. state is mutated
// in place and also returned for convenience; persistence is the Turn
// Driver's responsibility, not the router's.
func RunWithRetry(
	ctx context.Context,
	userPrompt string,
	state *model.RepoState,
	cfg Config,
	handoffContent string,
	confirmSwitch ConfirmSwitch,
	onProviderStart OnProviderStart,
	now Clock,
	sleep Sleeper,
	newAdapter AdapterFactory,
) (*Result, model.Provider, *model.RepoState) {
	if now == nil {
		now = time.Now
	}
	if sleep == nil {
		sleep = time.Sleep
	}
	if newAdapter == nil {
		newAdapter = adapter.New
	}

	available := availableProviders(state, cfg.ProviderOrder, now())
	if len(available) == 0 {
		return nil, "", state
	}

	var result *Result
	var lastProvider model.Provider
	var previousProvider model.Provider

providers:
	for idx, provider := range available {
		notify(onProviderStart, provider)

		if idx > 0 {
			if confirmSwitch != nil && !confirmSwitch(previousProvider, provider, result) {
				return result, previousProvider, state
			}
		}

		ps := state.Get(provider)
		isFallback := idx > 0

		var prompt, sessionID string
		if isFallback {
			prompt = handoff.BuildProviderPrompt(userPrompt, cfg.HandoffLimits, true, handoffContent)
			sessionID = ""
		} else {
			prompt = userPrompt
			sessionID = ps.SessionID
		}

		a := newAdapter(provider)
		lastProvider = provider

		for attempt := 0; attempt <= cfg.Retry.MaxRetries; attempt++ {
			res := a.Run(ctx, prompt, sessionID, cfg.Adapter)
			result = &Result{Result: res, EffectiveErrorClass: res.ErrorClass}

			if res.Success {
				t := now()
				ps.SessionID = firstNonEmpty(res.SessionID, ps.SessionID)
				ps.LastUsed = &t
				ps.ConsecutiveErrors = 0
				ps.ClearCooldown()
				state.Set(provider, ps)
				state.LastProvider = provider
				state.TurnCount++
				return result, provider, state
			}

			ps.ConsecutiveErrors++
			state.Set(provider, ps)

			effective := res.ErrorClass
			if effective == model.OtherError && classify.LooksLikeLimitExhaustion(res.ErrorMessage) {
				effective = model.QuotaExhausted
			}
			result.EffectiveErrorClass = effective

			switch effective {
			case model.QuotaExhausted:
				t := now()
				d := cooldown.ForQuotaExhausted(res.ErrorMessage, t, cfg.Retry.Cooldown)
				cooldown.Apply(ps, d, t)
				state.Set(provider, ps)
				previousProvider = provider
				continue providers

			case model.TransientRateLimit:
				if attempt < cfg.Retry.MaxRetries {
					wait := backoffWait(cfg.Retry.BackoffBase, cfg.Retry.BackoffMax, attempt)
					if wait > 0 {
						sleep(wait)
					}
					continue
				}
				t := now()
				d := cooldown.ForTransientExhausted(res.ErrorMessage, t, cfg.Retry.Cooldown)
				cooldown.Apply(ps, d, t)
				state.Set(provider, ps)
				previousProvider = provider
				continue providers

			case model.AuthRequired, model.OtherError:
				return result, provider, state
			}
		}
	}

	return result, lastProvider, state
}

func availableProviders(state *model.RepoState, order []model.Provider, now time.Time) []model.Provider {
	var out []model.Provider
	for _, p := range order {
		if p != model.ProviderClaude && p != model.ProviderCodex {
			continue
		}
		if state.Get(p).IsAvailable(now) {
			out = append(out, p)
		}
	}
	return out
}

// backoffWait computes min(backoffBase**attempt, backoffMax), clamped to
// a non-negative duration.
func backoffWait(base, max float64, attempt int) time.Duration {
	wait := pow(base, attempt)
	if wait > max {
		wait = max
	}
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait * float64(time.Second))
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// notify fires onProviderStart, recovering from any panic so an
// observability hook can never affect routing.
func notify(onProviderStart OnProviderStart, provider model.Provider) {
	if onProviderStart == nil {
		return
	}
	defer func() { recover() }()
	onProviderStart(provider)
}
