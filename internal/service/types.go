package service

import (
	"context"
	"time"

	"github.com/MimeLyc/subtitle-batch-translator/internal/jobs"
	"github.com/MimeLyc/subtitle-batch-translator/internal/translator"
)

// AutoLanguage asks the controller to detect the source language per file.
const AutoLanguage = "auto"

// Settings tunes one translation run.
type Settings struct {
	Model           string
	SourceLanguage  string
	TargetLanguage  string
	Instructions    string
	BatchSize       int
	Temperature     float64
	MaxOutputTokens int

	MemoryEnabled bool
	MemoryTail    int

	AnalysisEnabled bool
	AnalysisNotes   string
	AnalysisBudget  int

	RevisionEnabled  bool
	RevisionNotes    string
	RevisionAttempts int

	// MaxRetries bounds failed attempts per batch, including follow-ups
	// for units the model left out.
	MaxRetries       int
	FormatRetryDelay time.Duration
	ErrorRetryDelay  time.Duration
	BatchDelay       time.Duration

	CooldownEnabled bool
	Cooldown        time.Duration
	MaxCooldowns    int
}

func DefaultSettings() Settings {
	return Settings{
		Model:            "gemini-2.0-flash",
		SourceLanguage:   "English",
		BatchSize:        20,
		Temperature:      0.3,
		MaxOutputTokens:  8192,
		MemoryEnabled:    true,
		MemoryTail:       translator.DefaultMemoryTail,
		AnalysisBudget:   translator.DefaultAnalysisBudget,
		RevisionAttempts: 2,
		MaxRetries:       3,
		FormatRetryDelay: time.Second,
		ErrorRetryDelay:  2 * time.Second,
		BatchDelay:       500 * time.Millisecond,
		CooldownEnabled:  true,
		Cooldown:         90 * time.Second,
		MaxCooldowns:     3,
	}
}

// FileInput is one file handed to the pipeline.
//
// PreOverlay and PostOverlay are hand-edited [id]\ntext blobs applied to
// the source units before batching and to the translation before output.
type FileInput struct {
	Name        string
	Raw         []byte
	Skip        bool
	PreOverlay  string
	PostOverlay string
}

// FileResult is the outcome of one file. Output holds the serialized
// document, with source text for any unit not yet translated.
type FileResult struct {
	Name           string
	Status         jobs.Status
	Skipped        bool
	Output         string
	CompletedUnits int
	TotalUnits     int
	TokensUsed     int
	Revised        bool
	Err            error
}

// Completed reports whether every unit has a translation.
func (r FileResult) Completed() bool {
	return r.Status == jobs.StatusCompleted
}

// Reporter receives progress events. Calls happen on the controller's
// goroutine, one at a time.
type Reporter interface {
	BatchStarted(name string, batch translator.Batch, batches int)
	Fragment(name string, fragment string)
	Progress(name string, completed, total int)
	CooldownWait(name string, wait time.Duration, cycle, max int)
	FileFinished(result FileResult)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
