package syncer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Aman-CERP/appledocs-mcp/internal/errors"
)

func newTestStateStore(t *testing.T) *StateStore {
	t.Helper()
	return NewStateStore(filepath.Join(t.TempDir(), "sync-state.json"))
}

func TestStateStore_RoundTrip(t *testing.T) {
	ss := newTestStateStore(t)

	in := &State{
		SchemaVersion:       StateSchemaVersion,
		Phase:               PhaseDocs,
		CurrentFramework:    "swiftui",
		FrameworksCompleted: 3,
		FrameworksTotal:     12,
		CurrentFileIndex:    456,
		FilesTotal:          1000,
	}
	require.NoError(t, ss.Save(in))
	require.True(t, ss.Exists())

	out, err := ss.Load()
	require.NoError(t, err)
	assert.Equal(t, PhaseDocs, out.Phase)
	assert.Equal(t, "swiftui", out.CurrentFramework)
	assert.Equal(t, 456, out.CurrentFileIndex)
	assert.Equal(t, 1000, out.FilesTotal)
	assert.False(t, out.UpdatedAt.IsZero())
}

func TestStateStore_SchemaMismatchIsHardError(t *testing.T) {
	ss := newTestStateStore(t)
	require.NoError(t, os.WriteFile(ss.Path(), []byte(`{"schema_version": 99, "phase": "docs"}`), 0o644))

	_, err := ss.Load()
	require.Error(t, err)
	var derr *apperrors.DocsError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, apperrors.ErrCodeSchemaMismatch, derr.Code)
}

func TestStateStore_CorruptFile(t *testing.T) {
	ss := newTestStateStore(t)
	require.NoError(t, os.WriteFile(ss.Path(), []byte("{truncated"), 0o644))

	_, err := ss.Load()
	assert.Error(t, err)
}

func TestStateStore_SaveLeavesNoTempFile(t *testing.T) {
	ss := newTestStateStore(t)
	require.NoError(t, ss.Save(NewState(DefaultPhases)))

	_, err := os.Stat(ss.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestStateStore_DeleteIdempotent(t *testing.T) {
	ss := newTestStateStore(t)
	require.NoError(t, ss.Save(NewState(DefaultPhases)))
	require.NoError(t, ss.Delete())
	assert.False(t, ss.Exists())
	assert.NoError(t, ss.Delete())
}

func TestState_ValidateRejectsInvariantViolations(t *testing.T) {
	s := NewState(DefaultPhases)
	s.CurrentFileIndex = 10
	s.FilesTotal = 5
	assert.Error(t, s.Validate())

	s = NewState(DefaultPhases)
	s.PhasesCompleted = []Phase{PhaseDocs, PhaseDocs}
	assert.Error(t, s.Validate())
}

func TestState_PhaseTransitions(t *testing.T) {
	s := NewState(DefaultPhases)
	assert.Equal(t, PhaseDocs, s.Phase)
	assert.False(t, s.PhaseCompleted(PhaseDocs))

	s.CurrentFramework = "uikit"
	s.CurrentFileIndex = 7
	s.CompletePhase(PhaseDocs)
	assert.True(t, s.PhaseCompleted(PhaseDocs))
	assert.Empty(t, s.CurrentFramework)
	assert.Zero(t, s.CurrentFileIndex)

	// Completing twice does not duplicate.
	s.CompletePhase(PhaseDocs)
	assert.Len(t, s.PhasesCompleted, 1)
}

func TestState_Progress(t *testing.T) {
	s := NewState(DefaultPhases)
	assert.Zero(t, s.Progress(3))

	s.PhasesCompleted = []Phase{PhaseDocs}
	s.Phase = PhaseEvolution
	assert.InDelta(t, 1.0/3.0, s.Progress(3), 1e-9)

	// Halfway through framework 1 of 2 in the second phase.
	s.FrameworksTotal = 2
	s.FrameworksCompleted = 1
	s.FilesTotal = 10
	s.CurrentFileIndex = 5
	assert.InDelta(t, 1.0/3.0+1.0/6.0+1.0/12.0, s.Progress(3), 1e-9)

	s.PhasesCompleted = DefaultPhases
	assert.InDelta(t, 1.0, s.Progress(3), 1e-9)
}
