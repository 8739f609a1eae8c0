// Package cooldown decides how long a provider should be benched after a
// classified failure, and extracts provider-stated reset times from error
// text when present.
//
// Grounded on the teacher's pkg/providers/rotation.go (Profile.SetCooldown /
// IsAvailable); the reset-time regex parsing follows
// original_source/src/claudex/router.py's _extract_reset_time_utc.
package cooldown

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"aiswitch/internal/model"
)

const excerptLimit = 240

var reset12h = regexp.MustCompile(
	`(?i)resets?\s+(?:at\s+)?(\d{1,2})(?::(\d{2}))?\s*(am|pm)\s*[.,:;\-·]?\s*\(([^)]+)\)`,
)

var reset24h = regexp.MustCompile(
	`(?i)resets?\s+(?:at\s+)?([01]?\d|2[0-3]):([0-5]\d)\s*[.,:;\-·]?\s*\(([^)]+)\)`,
)

// Decision is the outcome of applying the cooldown policy to a failure.
type Decision struct {
	Until          time.Time
	Source         string
	Reason         string
	MessageExcerpt string
}

// Config carries the tunables from the retry config group (§6).
type Config struct {
	DefaultMinutes           int
	TransientCooldownMinutes int
}

// ForQuotaExhausted computes the cooldown for a QUOTA_EXHAUSTED failure,
// preferring a provider-stated reset time embedded in errMessage.
func ForQuotaExhausted(errMessage string, now time.Time, cfg Config) Decision {
	if until, ok := extractResetTimeUTC(errMessage, now); ok && until.After(now) {
		return Decision{
			Until:          until,
			Source:         "quota_reset_time",
			Reason:         "quota-exhausted:provider-reset-time",
			MessageExcerpt: excerpt(errMessage),
		}
	}

	minutes := cfg.DefaultMinutes
	if minutes <= 0 {
		minutes = 60
	}
	return Decision{
		Until:          now.Add(time.Duration(minutes) * time.Minute),
		Source:         "quota_default",
		Reason:         "quota-exhausted:default-cooldown",
		MessageExcerpt: excerpt(errMessage),
	}
}

// ForTransientExhausted computes the cooldown applied once a provider has
// exhausted its TRANSIENT_RATE_LIMIT retries.
func ForTransientExhausted(errMessage string, now time.Time, cfg Config) Decision {
	minutes := cfg.TransientCooldownMinutes
	if minutes <= 0 {
		minutes = 5
	}
	return Decision{
		Until:          now.Add(time.Duration(minutes) * time.Minute),
		Source:         "transient_retry_exhausted",
		Reason:         "transient-rate-limit:retries-exhausted",
		MessageExcerpt: excerpt(errMessage),
	}
}

// Apply writes a Decision into a ProviderState's Cooldown fields.
func Apply(ps *model.ProviderState, d Decision, now time.Time) {
	ps.Cooldown = &model.Cooldown{
		Until:          d.Until,
		StartedAt:      now,
		Source:         d.Source,
		Reason:         d.Reason,
		MessageExcerpt: d.MessageExcerpt,
	}
}

func excerpt(message string) string {
	if message == "" {
		return ""
	}
	normalized := strings.Join(strings.Fields(message), " ")
	if len(normalized) <= excerptLimit {
		return normalized
	}
	return normalized[:excerptLimit] + "..."
}

// extractResetTimeUTC tries the 12h format first, then 24h, matching the
// order in spec.md §4.4.
func extractResetTimeUTC(message string, now time.Time) (time.Time, bool) {
	if message == "" {
		return time.Time{}, false
	}
	if t, ok := extract12h(message, now); ok {
		return t, true
	}
	return extract24h(message, now)
}

func extract12h(message string, now time.Time) (time.Time, bool) {
	m := reset12h.FindStringSubmatch(message)
	if m == nil {
		return time.Time{}, false
	}
	hour12, err := strconv.Atoi(m[1])
	if err != nil || hour12 < 1 || hour12 > 12 {
		return time.Time{}, false
	}
	minute := 0
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil {
			return time.Time{}, false
		}
	}
	ampm := strings.ToLower(m[3])
	hour24 := hour12 % 12
	if ampm == "pm" {
		hour24 += 12
	}
	return buildResetTime(now, m[4], hour24, minute)
}

func extract24h(message string, now time.Time) (time.Time, bool) {
	m := reset24h.FindStringSubmatch(message)
	if m == nil {
		return time.Time{}, false
	}
	hour24, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	minute, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, false
	}
	return buildResetTime(now, m[3], hour24, minute)
}

func buildResetTime(now time.Time, tzName string, hour24, minute int) (time.Time, bool) {
	if hour24 < 0 || hour24 > 23 || minute < 0 || minute > 59 {
		return time.Time{}, false
	}
	loc, err := time.LoadLocation(strings.TrimSpace(tzName))
	if err != nil {
		return time.Time{}, false
	}

	localNow := now.In(loc)
	localReset := time.Date(
		localNow.Year(), localNow.Month(), localNow.Day(),
		hour24, minute, 0, 0, loc,
	)
	if !localReset.After(localNow) {
		localReset = localReset.AddDate(0, 0, 1)
	}
	return localReset.UTC(), true
}
