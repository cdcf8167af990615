package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun(started time.Time) Run {
	return Run{
		ID:            uuid.NewString(),
		StartedAt:     started,
		Duration:      1500 * time.Millisecond,
		Seed:          42,
		ObjectSetHash: "abcdef012345",
		ConfigHash:    "0123456789ab",
		Objects:       45,
		Batches:       3,
		Capped:        2,
		OutDir:        "/tmp/out",
	}
}

func TestRecordAndGetRun(t *testing.T) {
	s := newTestStore(t)
	started := time.Date(2026, 3, 1, 12, 30, 0, 123456789, time.UTC)
	run := sampleRun(started)
	run.FreshSeed = true

	require.NoError(t, s.RecordRun(run))

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.True(t, got.StartedAt.Equal(started))
	assert.Equal(t, run.Duration, got.Duration)
	assert.Equal(t, int64(42), got.Seed)
	assert.True(t, got.FreshSeed)
	assert.Equal(t, run.ObjectSetHash, got.ObjectSetHash)
	assert.Equal(t, run.ConfigHash, got.ConfigHash)
	assert.Equal(t, 45, got.Objects)
	assert.Equal(t, 3, got.Batches)
	assert.Equal(t, 2, got.Capped)
	assert.Equal(t, "/tmp/out", got.OutDir)
}

func TestGetRun_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetRun("missing")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestRecordRun_EmptyID(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.RecordRun(Run{}))
}

func TestRecordRun_Replaces(t *testing.T) {
	s := newTestStore(t)
	run := sampleRun(time.Now())
	require.NoError(t, s.RecordRun(run))
	run.Batches = 9
	require.NoError(t, s.RecordRun(run))

	runs, err := s.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 9, runs[0].Batches)
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := range 3 {
		run := sampleRun(base.Add(time.Duration(i) * time.Hour))
		ids = append(ids, run.ID)
		require.NoError(t, s.RecordRun(run))
	}

	runs, err := s.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{runs[0].ID, runs[1].ID, runs[2].ID})

	limited, err := s.ListRuns(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestRunsForObjectSet(t *testing.T) {
	s := newTestStore(t)
	a := sampleRun(time.Now())
	b := sampleRun(time.Now())
	b.ObjectSetHash = "ffffffffffff"
	require.NoError(t, s.RecordRun(a))
	require.NoError(t, s.RecordRun(b))

	runs, err := s.RunsForObjectSet("ffffffffffff")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, b.ID, runs[0].ID)
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := NewLocalStore(path)
	require.NoError(t, err)
	run := sampleRun(time.Now())
	require.NoError(t, s.RecordRun(run))
	require.NoError(t, s.Close())

	s, err = NewLocalStore(path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, path, s.Path())
	_, err = s.GetRun(run.ID)
	assert.NoError(t, err)
}
