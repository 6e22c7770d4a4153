// Package syncer drives resumable fetch -> transform -> index cycles
// against a remote content source.
//
// Work is an ordered list of phases; each phase enumerates frameworks,
// each framework enumerates files. Progress is checkpointed to a JSON
// state file after every file, framework, and phase so an interrupted
// multi-hour sync resumes where it stopped instead of starting over.
package syncer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/Aman-CERP/appledocs-mcp/internal/errors"
)

// StateSchemaVersion is the checkpoint format version. A state file
// written by a different engine version is refused, never partially
// applied.
const StateSchemaVersion = 1

// Phase is a named stage of a multi-stage sync pass.
type Phase string

const (
	PhaseDocs      Phase = "docs"
	PhaseEvolution Phase = "evolution"
	PhaseSamples   Phase = "samples"
)

// DefaultPhases is the canonical phase order.
var DefaultPhases = []Phase{PhaseDocs, PhaseEvolution, PhaseSamples}

// State is the persisted sync checkpoint.
type State struct {
	SchemaVersion       int       `json:"schema_version"`
	Phase               Phase     `json:"phase"`
	PhasesCompleted     []Phase   `json:"phases_completed"`
	CurrentFramework    string    `json:"current_framework,omitempty"`
	FrameworksCompleted int       `json:"frameworks_completed"`
	FrameworksTotal     int       `json:"frameworks_total"`
	CurrentFileIndex    int       `json:"current_file_index"`
	FilesTotal          int       `json:"files_total"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// NewState returns a fresh checkpoint positioned before the first phase.
func NewState(phases []Phase) *State {
	s := &State{SchemaVersion: StateSchemaVersion}
	if len(phases) > 0 {
		s.Phase = phases[0]
	}
	return s
}

// Validate checks checkpoint invariants.
func (s *State) Validate() error {
	if s.SchemaVersion != StateSchemaVersion {
		return apperrors.New(apperrors.ErrCodeSchemaMismatch,
			fmt.Sprintf("sync state schema version %d, engine expects %d", s.SchemaVersion, StateSchemaVersion), nil).
			WithSuggestion("delete the state file and run a fresh sync")
	}
	if s.CurrentFileIndex > s.FilesTotal {
		return apperrors.New(apperrors.ErrCodeCheckpointWrite,
			fmt.Sprintf("file index %d exceeds total %d", s.CurrentFileIndex, s.FilesTotal), nil)
	}
	seen := make(map[Phase]struct{}, len(s.PhasesCompleted))
	for _, p := range s.PhasesCompleted {
		if _, dup := seen[p]; dup {
			return apperrors.New(apperrors.ErrCodeCheckpointWrite,
				fmt.Sprintf("phase %q completed twice", p), nil)
		}
		seen[p] = struct{}{}
	}
	return nil
}

// PhaseCompleted reports whether a phase already finished.
func (s *State) PhaseCompleted(p Phase) bool {
	for _, done := range s.PhasesCompleted {
		if done == p {
			return true
		}
	}
	return false
}

// CompletePhase appends the phase to the completed list exactly once
// and resets per-phase counters.
func (s *State) CompletePhase(p Phase) {
	if !s.PhaseCompleted(p) {
		s.PhasesCompleted = append(s.PhasesCompleted, p)
	}
	s.CurrentFramework = ""
	s.FrameworksCompleted = 0
	s.FrameworksTotal = 0
	s.CurrentFileIndex = 0
	s.FilesTotal = 0
}

// CompleteFramework moves the current framework to completed and
// resets file counters.
func (s *State) CompleteFramework() {
	s.FrameworksCompleted++
	s.CurrentFramework = ""
	s.CurrentFileIndex = 0
	s.FilesTotal = 0
}

// Progress returns overall completion in [0, 1]: the completed-phases
// fraction plus the current phase's framework- and file-adjusted share.
func (s *State) Progress(totalPhases int) float64 {
	if totalPhases == 0 {
		return 0
	}
	phaseShare := 1.0 / float64(totalPhases)
	progress := float64(len(s.PhasesCompleted)) * phaseShare

	if s.FrameworksTotal > 0 && !s.PhaseCompleted(s.Phase) {
		frameworkShare := phaseShare / float64(s.FrameworksTotal)
		progress += float64(s.FrameworksCompleted) * frameworkShare
		if s.FilesTotal > 0 {
			progress += frameworkShare * float64(s.CurrentFileIndex) / float64(s.FilesTotal)
		}
	}

	if progress > 1 {
		progress = 1
	}
	return progress
}

// StateStore persists checkpoints as JSON at a fixed path.
type StateStore struct {
	path string
}

// NewStateStore creates a state store writing to path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Path returns the checkpoint file path.
func (ss *StateStore) Path() string {
	return ss.path
}

// Exists reports whether a checkpoint is present on disk.
func (ss *StateStore) Exists() bool {
	_, err := os.Stat(ss.path)
	return err == nil
}

// Load reads and validates the checkpoint. A schema version mismatch is
// a hard error, not a silent partial apply.
func (ss *StateStore) Load() (*State, error) {
	data, err := os.ReadFile(ss.path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeCheckpointWrite, err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, apperrors.New(apperrors.ErrCodeCheckpointWrite,
			"sync state file is corrupt", err).
			WithDetail("path", ss.path)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save atomically writes the checkpoint (temp file + rename) so a crash
// mid-write never leaves a torn state file.
func (ss *StateStore) Save(s *State) error {
	s.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeCheckpointWrite, err)
	}

	if err := os.MkdirAll(filepath.Dir(ss.path), 0o755); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeCheckpointWrite, err)
	}

	tmp := ss.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeCheckpointWrite, err)
	}
	if err := os.Rename(tmp, ss.path); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeCheckpointWrite, err)
	}
	return nil
}

// Delete removes the checkpoint after a fully successful sync.
func (ss *StateStore) Delete() error {
	err := os.Remove(ss.path)
	if err != nil && !os.IsNotExist(err) {
		return apperrors.Wrap(apperrors.ErrCodeCheckpointWrite, err)
	}
	return nil
}
