package model

import (
	"testing"
	"time"
)

func TestParseProvider_RejectsUnknownNames(t *testing.T) {
	if _, ok := ParseProvider("gemini"); ok {
		t.Fatal("expected gemini to be rejected")
	}
	if p, ok := ParseProvider("codex"); !ok || p != ProviderCodex {
		t.Fatalf("ParseProvider(codex) = %v, %v", p, ok)
	}
}

func TestProviderState_IsAvailable(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ps := &ProviderState{}
	if !ps.IsAvailable(now) {
		t.Fatal("expected a fresh ProviderState to be available")
	}

	ps.Cooldown = &Cooldown{Until: now.Add(time.Hour)}
	if ps.IsAvailable(now) {
		t.Fatal("expected provider in active cooldown to be unavailable")
	}

	ps.ClearCooldown()
	if !ps.IsAvailable(now) {
		t.Fatal("expected provider to be available again after ClearCooldown")
	}
}

func TestRepoState_GetCreatesMissingProviderState(t *testing.T) {
	s := &RepoState{}
	ps := s.Get(ProviderClaude)
	if ps == nil {
		t.Fatal("expected a non-nil ProviderState")
	}
	if s.Get(ProviderClaude) != ps {
		t.Fatal("expected repeated Get to return the same ProviderState")
	}
}

func TestNewRepoState_SeedsBothKnownProviders(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewRepoState(now)
	if _, ok := s.Providers[ProviderClaude]; !ok {
		t.Fatal("expected claude to be seeded")
	}
	if _, ok := s.Providers[ProviderCodex]; !ok {
		t.Fatal("expected codex to be seeded")
	}
}
