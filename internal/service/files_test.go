package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/subtitle-batch-translator/internal/jobs"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFindAndLoadInputs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.vtt"), "WEBVTT\n")
	writeFile(t, filepath.Join(dir, "s1", "a.srt"), threeCues)
	writeFile(t, filepath.Join(dir, "s1", "a.pre.txt"), "[2]\nEdited\n")
	writeFile(t, filepath.Join(dir, "s1", "a.post.txt"), "[1]\nManuel\n")
	writeFile(t, filepath.Join(dir, "s1", "trans_a.srt"), threeCues)
	writeFile(t, filepath.Join(dir, "notes.txt"), "hello")

	paths, err := FindInputs(dir)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "b.vtt"), filepath.Join(dir, "s1", "a.srt")}, paths)

	inputs, err := LoadInputs(dir, paths, map[string]bool{"b.vtt": true})
	require.NoError(t, err)
	require.Len(t, inputs, 2)

	assert.Equal(t, "b.vtt", inputs[0].Name)
	assert.True(t, inputs[0].Skip)
	assert.Empty(t, inputs[0].PreOverlay)

	assert.Equal(t, "s1/a.srt", inputs[1].Name)
	assert.False(t, inputs[1].Skip)
	assert.Equal(t, threeCues, string(inputs[1].Raw))
	assert.Equal(t, "[2]\nEdited\n", inputs[1].PreOverlay)
	assert.Equal(t, "[1]\nManuel\n", inputs[1].PostOverlay)
}

func TestFindInputs_MissingDir(t *testing.T) {
	_, err := FindInputs(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrFileRead))
}

func TestWriteOutputs(t *testing.T) {
	dir := t.TempDir()
	results := []FileResult{
		{Name: "s1/done.srt", Status: jobs.StatusCompleted, Output: "done", CompletedUnits: 1, TotalUnits: 1},
		{Name: "partial.srt", Status: jobs.StatusInProgress, Output: "partial", CompletedUnits: 1, TotalUnits: 2},
		{Name: "skipped.srt", Skipped: true},
		{Name: "broken.txt"},
	}

	written, err := WriteOutputs(dir, results, false)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "s1", "trans_done.srt")}, written)

	data, err := os.ReadFile(filepath.Join(dir, "s1", "trans_done.srt"))
	require.NoError(t, err)
	assert.Equal(t, "done", string(data))
	assert.NoFileExists(t, filepath.Join(dir, "trans_partial.srt"))

	written, err = WriteOutputs(dir, results, true)
	require.NoError(t, err)
	assert.Len(t, written, 2)
	assert.FileExists(t, filepath.Join(dir, "trans_partial.srt"))
}
