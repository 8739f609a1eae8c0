// Package classify maps raw provider output (text plus an optional HTTP-ish
// status code) to the closed error taxonomy in model.ErrorClass.
//
// Grounded on the teacher's pkg/providers/failover.go ClassifyError, adapted
// to the four-class taxonomy and rule ordering spec'd for this router
// instead of the teacher's six-reason FailoverReason enum.
package classify

import (
	"strings"

	"aiswitch/internal/model"
)

const (
	statusRateLimit = 429
	statusAuth      = 401
)

var rateLimitPhrases = []string{"rate limit", "rate_limit", "too many requests"}

var quotaPhrases = []string{"quota", "usage limit", "exhausted"}

var authPhrases = []string{
	"unauthorized",
	"authentication",
	"invalid api key",
	"log in",
	"not authenticated",
}

// Plan-exhaustion phrases specific to these two provider CLIs — recognized
// even without an explicit rate-limit signal.
var planExhaustionPhrases = []string{
	"usage limit reached",
	"monthly limit",
	"you've reached your",
	"claude.ai/settings/limits",
}

// DefensiveLimitPhrases are used by the Router (not here) to reclassify an
// OTHER_ERROR that actually looks like a missed quota signal. Exported so
// the router package shares one source of truth for the phrase list.
var DefensiveLimitPhrases = []string{
	"usage limit",
	"quota",
	"hit your limit",
	"limit reached",
	"billing period",
	"resets",
	"claude.ai/settings/limits",
}

// Classify applies the ordered rules from the spec, case-insensitively.
// status is the provider's reported numeric status if any were observed
// (0 when none was available).
func Classify(text string, status int) model.ErrorClass {
	lower := strings.ToLower(text)

	triggersRule1 := containsAny(lower, rateLimitPhrases) || containsAny(lower, quotaPhrases)
	if status == statusRateLimit || triggersRule1 {
		if containsAny(lower, quotaPhrases) {
			return model.QuotaExhausted
		}
		return model.TransientRateLimit
	}

	if status == statusAuth || containsAny(lower, authPhrases) {
		return model.AuthRequired
	}

	if containsAny(lower, planExhaustionPhrases) {
		return model.QuotaExhausted
	}

	return model.OtherError
}

// LooksLikeLimitExhaustion reports whether message contains one of the
// defensive quota/limit phrases the Router uses to reclassify a stray
// OTHER_ERROR as QUOTA_EXHAUSTED.
func LooksLikeLimitExhaustion(message string) bool {
	if message == "" {
		return false
	}
	return containsAny(strings.ToLower(message), DefensiveLimitPhrases)
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
