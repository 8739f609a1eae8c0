// Package model holds the closed data types shared by every routing
// component: provider identity, error classification, and the per-repo
// state that is persisted across turns.
package model

import "time"

// Provider is the closed set of supported coding-assistant CLIs.
type Provider string

const (
	ProviderClaude Provider = "claude"
	ProviderCodex  Provider = "codex"
)

// ParseProvider validates a config/CLI-supplied provider name.
func ParseProvider(name string) (Provider, bool) {
	switch Provider(name) {
	case ProviderClaude:
		return ProviderClaude, true
	case ProviderCodex:
		return ProviderCodex, true
	default:
		return "", false
	}
}

func (p Provider) String() string { return string(p) }

// ErrorClass is the closed taxonomy every provider failure is mapped to.
type ErrorClass string

const (
	// QuotaExhausted is a plan/monthly limit hit: long cooldown, switch immediately.
	QuotaExhausted ErrorClass = "QUOTA_EXHAUSTED"
	// TransientRateLimit is backpressure: retry same provider with backoff, then short cooldown and switch.
	TransientRateLimit ErrorClass = "TRANSIENT_RATE_LIMIT"
	// AuthRequired is a credential/token problem: surface to user, no retry, no switch.
	AuthRequired ErrorClass = "AUTH_REQUIRED"
	// OtherError is anything else: surface to user, no retry, no switch.
	OtherError ErrorClass = "OTHER_ERROR"
)

// Cooldown captures why and until-when a provider is unavailable.
type Cooldown struct {
	Until          time.Time `json:"cooldown_until"`
	StartedAt      time.Time `json:"cooldown_started_at"`
	Source         string    `json:"cooldown_source"`
	Reason         string    `json:"cooldown_reason"`
	MessageExcerpt string    `json:"cooldown_message_excerpt,omitempty"`
}

// Active reports whether the cooldown is still in effect at instant t.
func (c *Cooldown) Active(t time.Time) bool {
	return c != nil && !c.Until.IsZero() && c.Until.After(t)
}

// ProviderState is the per-provider bookkeeping carried across turns.
type ProviderState struct {
	SessionID         string     `json:"session_id,omitempty"`
	LastUsed          *time.Time `json:"last_used,omitempty"`
	Cooldown          *Cooldown  `json:"cooldown,omitempty"`
	ConsecutiveErrors int        `json:"consecutive_errors"`
}

// IsAvailable reports whether this provider may be selected at instant t.
func (ps *ProviderState) IsAvailable(t time.Time) bool {
	return ps.Cooldown == nil || !ps.Cooldown.Active(t)
}

// ClearCooldown drops any active cooldown (called on a successful turn).
func (ps *ProviderState) ClearCooldown() {
	ps.Cooldown = nil
}

// RepoState is the root object persisted to .aiswitch/state.json, one per
// working directory.
type RepoState struct {
	LastProvider Provider                   `json:"last_provider,omitempty"`
	Providers    map[Provider]*ProviderState `json:"providers"`
	TurnCount    int                         `json:"turn_count"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

// NewRepoState returns a fresh, empty state for both known providers.
func NewRepoState(now time.Time) *RepoState {
	return &RepoState{
		Providers: map[Provider]*ProviderState{
			ProviderClaude: {},
			ProviderCodex:  {},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Get returns the ProviderState for p, creating a zero-value one if absent.
// Missing providers are defaulted rather than causing a lookup failure, so
// state files written before a new provider was added still load cleanly.
func (s *RepoState) Get(p Provider) *ProviderState {
	if s.Providers == nil {
		s.Providers = make(map[Provider]*ProviderState)
	}
	ps, ok := s.Providers[p]
	if !ok {
		ps = &ProviderState{}
		s.Providers[p] = ps
	}
	return ps
}

// Set stores the ProviderState for p.
func (s *RepoState) Set(p Provider, ps *ProviderState) {
	if s.Providers == nil {
		s.Providers = make(map[Provider]*ProviderState)
	}
	s.Providers[p] = ps
}
