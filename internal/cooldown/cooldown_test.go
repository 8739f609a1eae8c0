package cooldown

import (
	"testing"
	"time"
)

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parsing %q: %v", value, err)
	}
	return ts
}

func TestForQuotaExhausted_ParsesTwelveHourResetTime(t *testing.T) {
	now := mustParse(t, "2026-02-27T23:11:00Z")
	msg := "You've hit your limit · resets 6pm (America/Los_Angeles)"

	d := ForQuotaExhausted(msg, now, Config{DefaultMinutes: 60})

	want := mustParse(t, "2026-02-28T02:00:00Z")
	if !d.Until.Equal(want) {
		t.Fatalf("Until = %s, want %s", d.Until, want)
	}
	if d.Source != "quota_reset_time" {
		t.Fatalf("Source = %q, want quota_reset_time", d.Source)
	}
}

func TestForQuotaExhausted_ParsesTwentyFourHourResetTime(t *testing.T) {
	now := mustParse(t, "2026-02-27T23:11:00Z")
	msg := "Usage limit reached. resets 18:00 (America/Los_Angeles)"

	d := ForQuotaExhausted(msg, now, Config{DefaultMinutes: 60})

	want := mustParse(t, "2026-02-28T02:00:00Z")
	if !d.Until.Equal(want) {
		t.Fatalf("Until = %s, want %s", d.Until, want)
	}
}

func TestForQuotaExhausted_FallsBackToDefaultWhenUnparseable(t *testing.T) {
	now := mustParse(t, "2026-02-27T23:11:00Z")
	msg := "usage limit reached, no reset time given"

	d := ForQuotaExhausted(msg, now, Config{DefaultMinutes: 45})

	want := now.Add(45 * time.Minute)
	if !d.Until.Equal(want) {
		t.Fatalf("Until = %s, want %s", d.Until, want)
	}
	if d.Source != "quota_default" {
		t.Fatalf("Source = %q, want quota_default", d.Source)
	}
}

func TestForQuotaExhausted_RollsToNextDayWhenResetAlreadyPassed(t *testing.T) {
	// 23:59 UTC in Los_Angeles (UTC-8) is 15:59 local — a 6am reset has
	// already passed for the local day, so it must roll forward.
	now := mustParse(t, "2026-02-27T23:59:00Z")
	msg := "resets 6am (America/Los_Angeles)"

	d := ForQuotaExhausted(msg, now, Config{DefaultMinutes: 60})

	if !d.Until.After(now) {
		t.Fatalf("Until %s must be after now %s", d.Until, now)
	}
}

func TestForTransientExhausted(t *testing.T) {
	now := mustParse(t, "2026-02-27T23:11:00Z")
	d := ForTransientExhausted("rate limited", now, Config{TransientCooldownMinutes: 5})

	want := now.Add(5 * time.Minute)
	if !d.Until.Equal(want) {
		t.Fatalf("Until = %s, want %s", d.Until, want)
	}
	if d.Source != "transient_retry_exhausted" {
		t.Fatalf("Source = %q, want transient_retry_exhausted", d.Source)
	}
}

func TestExcerptTruncatesAndNormalizesWhitespace(t *testing.T) {
	now := mustParse(t, "2026-02-27T23:11:00Z")
	long := ""
	for i := 0; i < 50; i++ {
		long += "quota exceeded badly  "
	}
	d := ForQuotaExhausted(long, now, Config{DefaultMinutes: 60})
	if len(d.MessageExcerpt) > excerptLimit+3 {
		t.Fatalf("excerpt too long: %d chars", len(d.MessageExcerpt))
	}
	if d.MessageExcerpt[len(d.MessageExcerpt)-3:] != "..." {
		t.Fatalf("excerpt missing ellipsis suffix: %q", d.MessageExcerpt)
	}
}

func TestBuildResetTime_UnknownTimezoneFails(t *testing.T) {
	now := mustParse(t, "2026-02-27T23:11:00Z")
	_, ok := buildResetTime(now, "Not/AZone", 6, 0)
	if ok {
		t.Fatalf("expected failure for unknown timezone")
	}
}
