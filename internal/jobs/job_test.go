package jobs

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJob(t *testing.T) {
	job := NewJob("ep1.srt", 3)

	_, err := uuid.Parse(job.ID)
	require.NoError(t, err)
	assert.Equal(t, "ep1.srt", job.Name)
	assert.Equal(t, StatusPending, job.Status)
	assert.Empty(t, job.CompletedIDs)
	assert.Nil(t, job.AnalysisContext)
	assert.Equal(t, 3, job.TotalUnits)
}

func TestJob_MergeAndCovers(t *testing.T) {
	job := NewJob("ep1.srt", 3)

	added := job.Merge(map[string]string{"1": "Un"}, nil)
	assert.Equal(t, 1, added)
	assert.True(t, job.Covers([]string{"1"}))
	assert.False(t, job.Covers([]string{"1", "2"}))

	// overwrite keeps completion count stable
	added = job.Merge(map[string]string{"1": "Une", "2": "Deux", "9": "stray"}, func(id string) bool { return id != "9" })
	assert.Equal(t, 1, added)
	assert.Equal(t, map[string]string{"1": "Une", "2": "Deux"}, job.TranslationMap)
	assert.True(t, job.Covers([]string{"1", "2"}))
	assert.False(t, job.CompletedIDs["9"])
}

func TestJob_CloneIsDeep(t *testing.T) {
	analysis := "drama"
	job := NewJob("a.vtt", 1)
	job.AnalysisContext = &analysis
	job.Merge(map[string]string{"1": "x"}, nil)

	clone := job.Clone()
	clone.TranslationMap["1"] = "changed"
	clone.CompletedIDs["2"] = true
	*clone.AnalysisContext = "comedy"

	assert.Equal(t, "x", job.TranslationMap["1"])
	assert.False(t, job.CompletedIDs["2"])
	assert.Equal(t, "drama", *job.AnalysisContext)
	assert.Nil(t, (*Job)(nil).Clone())
}

func TestJob_SetStatusClearsErrorOnCompletion(t *testing.T) {
	job := NewJob("a.srt", 1)
	job.Error = "batch 2 failed"

	job.SetStatus(StatusInProgress)
	assert.Equal(t, "batch 2 failed", job.Error)

	job.SetStatus(StatusCompleted)
	assert.Empty(t, job.Error)
	assert.Equal(t, StatusCompleted, job.Status)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	got, err := store.Get(ctx, "missing.srt")
	require.NoError(t, err)
	assert.Nil(t, got)

	job := NewJob("b.srt", 2)
	require.NoError(t, store.Put(ctx, job))
	require.NoError(t, store.Put(ctx, NewJob("a.srt", 1)))

	// stored copy is isolated from later mutation
	job.Merge(map[string]string{"1": "x"}, nil)
	got, err = store.Get(ctx, "b.srt")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.CompletedIDs)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a.srt", list[0].Name)
	assert.Equal(t, "b.srt", list[1].Name)

	require.NoError(t, store.Delete(ctx, "a.srt"))
	list, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("1\n00:00:01,000 --> 00:00:02,000\nHi\n"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, Fingerprint([]byte("1\n00:00:01,000 --> 00:00:02,000\nHi\n")))
	assert.NotEqual(t, a, Fingerprint([]byte("1\n00:00:01,000 --> 00:00:02,000\nHello\n")))
}
