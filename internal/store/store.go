// Package store provides atomic, file-based persistence for one repo's
// .aiswitch/ directory: durable provider/cooldown state, the rolling
// handoff document, the append-only transcript, and the active-run marker
// used to detect a crashed or still-running turn.
//
// Grounded on the teacher's pkg/state.FileStore (temp-file-then-rename
// atomic saves) and pkg/session/jsonl.go (append-only JSONL writes),
// adapted from a generic key-value store to the four fixed files this
// router actually needs (state.json, handoff.md, transcript.ndjson,
// active.json); file layout and corrupt-state-defaults-to-fresh
// behavior follow original_source/src/claudex/state.py.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"aiswitch/internal/model"
)

// DirName is the per-repo state directory, relative to the current
// working directory.
const DirName = ".aiswitch"

// Store reads and writes the .aiswitch/ directory rooted at Dir.
type Store struct {
	Dir string
}

// New roots a Store at DirName under dir (typically the repo's CWD).
func New(dir string) *Store {
	return &Store{Dir: filepath.Join(dir, DirName)}
}

func (s *Store) path(name string) string { return filepath.Join(s.Dir, name) }

func (s *Store) ensureDir() error {
	return os.MkdirAll(s.Dir, 0o755)
}

// writeAtomic writes data to a temp file in the same directory and
// renames it into place, so a crash mid-write never leaves a partially
// written file behind.
func (s *Store) writeAtomic(path string, data []byte) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ── Repo state ───────────────────────────────────────────────────────────

// LoadState reads state.json, returning a fresh RepoState if the file is
// missing or fails to parse — a corrupt or schema-changed state file must
// never crash the router.
func (s *Store) LoadState(now time.Time) *model.RepoState {
	data, err := os.ReadFile(s.path("state.json"))
	if err != nil {
		return model.NewRepoState(now)
	}
	var st model.RepoState
	if err := json.Unmarshal(data, &st); err != nil {
		return model.NewRepoState(now)
	}
	if st.Providers == nil {
		st.Providers = make(map[model.Provider]*model.ProviderState)
	}
	return &st
}

// SaveState persists state to state.json, stamping UpdatedAt. Failures
// here are never swallowed — the caller must surface them.
func (s *Store) SaveState(st *model.RepoState, now time.Time) error {
	st.UpdatedAt = now
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return s.writeAtomic(s.path("state.json"), data)
}

// ── Handoff document ─────────────────────────────────────────────────────

// LoadHandoff returns the contents of handoff.md, or "" if absent.
func (s *Store) LoadHandoff() string {
	data, err := os.ReadFile(s.path("handoff.md"))
	if err != nil {
		return ""
	}
	return string(data)
}

// SaveHandoff overwrites handoff.md with content.
func (s *Store) SaveHandoff(content string) error {
	return s.writeAtomic(s.path("handoff.md"), []byte(content))
}

// ── Transcript ───────────────────────────────────────────────────────────

// TranscriptEntry is one record in transcript.ndjson, matching the fields
// named in the transcript record spec: timestamp, provider (nullable),
// user prompt, assistant text (nullable), session id (nullable), error
// (nullable), cooldown metadata (nullable), and switch metadata (nullable).
type TranscriptEntry struct {
	TurnID         string           `json:"turn_id,omitempty"`
	Timestamp      time.Time        `json:"ts"`
	Provider       model.Provider   `json:"provider,omitempty"`
	UserPrompt     string           `json:"user_prompt"`
	AssistantText  string           `json:"assistant_text,omitempty"`
	SessionID      string           `json:"session_id,omitempty"`
	Error          string           `json:"error,omitempty"`
	ErrorClass     model.ErrorClass `json:"error_class,omitempty"`
	CooldownUntil  *time.Time       `json:"cooldown_until,omitempty"`
	CooldownSource string           `json:"cooldown_source,omitempty"`
	SwitchFrom     model.Provider   `json:"switch_from,omitempty"`
	SwitchTo       model.Provider   `json:"switch_to,omitempty"`
	SwitchDecision string           `json:"switch_prompt_decision,omitempty"`
}

// AppendTranscript appends one NDJSON line to transcript.ndjson. The
// transcript is append-only and never truncated or rewritten.
func (s *Store) AppendTranscript(entry TranscriptEntry) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(s.path("transcript.ndjson"), os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(line, '\n'))
	return err
}

// ── Active-run marker ────────────────────────────────────────────────────

// ActiveRun records the in-flight turn so `status` can report whether a
// previous invocation crashed mid-turn.
type ActiveRun struct {
	TurnID        string         `json:"turn_id"`
	PID           int            `json:"pid"`
	Mode          string         `json:"mode"` // "ask" or "chat"
	StartedAt     time.Time      `json:"started_at"`
	Provider      model.Provider `json:"provider"`
	PromptExcerpt string         `json:"prompt_excerpt,omitempty"`
}

// NewActiveRun builds an ActiveRun for the current process.
func NewActiveRun(mode string, provider model.Provider, promptExcerpt string, now time.Time) ActiveRun {
	return ActiveRun{
		TurnID:        uuid.NewString(),
		PID:           os.Getpid(),
		Mode:          mode,
		StartedAt:     now,
		Provider:      provider,
		PromptExcerpt: promptExcerpt,
	}
}

// LoadActiveRun returns the current active-run marker, or nil if missing
// or unparseable (an invalid marker is treated as no active run).
func (s *Store) LoadActiveRun() *ActiveRun {
	data, err := os.ReadFile(s.path("active.json"))
	if err != nil {
		return nil
	}
	var run ActiveRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil
	}
	return &run
}

// SaveActiveRun overwrites active.json with the in-flight run's metadata.
func (s *Store) SaveActiveRun(run ActiveRun) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}
	return s.writeAtomic(s.path("active.json"), data)
}

// ClearActiveRun removes active.json. Missing file is not an error.
func (s *Store) ClearActiveRun() error {
	err := os.Remove(s.path("active.json"))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ── Reset ────────────────────────────────────────────────────────────────

// Wipe removes the entire .aiswitch/ directory (used by `aiswitch reset`).
func (s *Store) Wipe() error {
	return os.RemoveAll(s.Dir)
}
