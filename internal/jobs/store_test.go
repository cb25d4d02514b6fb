package jobs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "jobs"))
	require.NoError(t, err)
	return store
}

func newTestJob(id string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        id,
		Filename:  id + ".mp4",
		Status:    StatusQueued,
		Progress:  ProgressQueued,
		Options:   Options{Language: AutoLanguage, BurnIn: true},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestStore_CreateReadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	job := newTestJob("job-a")

	require.NoError(t, store.Create(job))

	got, err := store.Read("job-a")
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, StatusQueued, got.Status)
	assert.Equal(t, ProgressQueued, got.Progress)
	assert.True(t, got.Options.BurnIn)

	// The record lives inside the namespace directory.
	_, err = os.Stat(filepath.Join(store.JobDir("job-a"), "meta.json"))
	require.NoError(t, err)
}

func TestStore_CreateRejectsExistingNamespace(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Create(newTestJob("job-a")))

	err := store.Create(newTestJob("job-a"))
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestStore_ReadUnknownJob(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Read("nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_WriteReplacesWholeRecord(t *testing.T) {
	store := newTestStore(t)
	job := newTestJob("job-a")
	require.NoError(t, store.Create(job))

	job.Status = StatusFailed
	job.Error = "ffmpeg exited with status 1"
	require.NoError(t, store.Write(job))

	got, err := store.Read("job-a")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "ffmpeg exited with status 1", got.Error)
}

func TestStore_WriteRefusesDeletedNamespace(t *testing.T) {
	store := newTestStore(t)
	job := newTestJob("job-a")
	require.NoError(t, store.Create(job))
	require.NoError(t, store.Delete("job-a"))

	job.Status = StatusProcessing
	err := store.Write(job)
	require.ErrorIs(t, err, ErrNotFound)

	// The write must not have resurrected the namespace.
	_, statErr := os.Stat(store.JobDir("job-a"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestStore_DeleteRemovesRecordAndArtifacts(t *testing.T) {
	store := newTestStore(t)
	job := newTestJob("job-a")
	require.NoError(t, store.Create(job))
	require.NoError(t, store.SaveSource("job-a", job.Filename, strings.NewReader("fake media")))
	require.NoError(t, os.WriteFile(filepath.Join(store.JobDir("job-a"), SubtitleFile), []byte("1\n"), 0o644))

	require.NoError(t, store.Delete("job-a"))

	_, err := store.Read("job-a")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = store.ResolveSubtitle("job-a")
	require.ErrorIs(t, err, ErrNotFound)

	err = store.Delete("job-a")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListNewestFirst(t *testing.T) {
	store := newTestStore(t)

	older := newTestJob("job-old")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, store.Create(older))

	newer := newTestJob("job-new")
	require.NoError(t, store.Create(newer))

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "job-new", list[0].ID)
	assert.Equal(t, "job-old", list[1].ID)
}

func TestStore_ResolveArtifacts(t *testing.T) {
	store := newTestStore(t)
	job := newTestJob("job-a")
	require.NoError(t, store.Create(job))

	_, err := store.ResolveSubtitle("job-a")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = store.ResolveTranscript("job-a")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = store.ResolveRenderedVideo("job-a")
	require.ErrorIs(t, err, ErrNotFound)

	dir := store.JobDir("job-a")
	require.NoError(t, os.WriteFile(filepath.Join(dir, SubtitleFile), []byte("1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, TranscriptFile), []byte("hello"), 0o644))

	subtitle, err := store.ResolveSubtitle("job-a")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, SubtitleFile), subtitle)

	transcript, err := store.ResolveTranscript("job-a")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, TranscriptFile), transcript)

	// Rendered video stays absent until burn-in produces it.
	_, err = store.ResolveRenderedVideo("job-a")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_SaveSource(t *testing.T) {
	store := newTestStore(t)
	job := newTestJob("job-a")
	require.NoError(t, store.Create(job))

	require.NoError(t, store.SaveSource("job-a", job.Filename, strings.NewReader("media bytes")))

	data, err := os.ReadFile(store.SourcePath("job-a", job.Filename))
	require.NoError(t, err)
	assert.Equal(t, "media bytes", string(data))
}
