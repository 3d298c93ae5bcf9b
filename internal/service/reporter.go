package service

import (
	"time"

	"github.com/MimeLyc/subtitle-batch-translator/internal/translator"
	"github.com/MimeLyc/subtitle-batch-translator/pkg/log"
)

// LogReporter reports progress through the global logger.
type LogReporter struct{}

func (LogReporter) BatchStarted(name string, batch translator.Batch, batches int) {
	log.Info("%s: batch %d/%d (units %d-%d)", name, batch.Index+1, batches, batch.Start+1, batch.End())
}

func (LogReporter) Fragment(name string, fragment string) {
	log.Debug("%s: stream %q", name, fragment)
}

func (LogReporter) Progress(name string, completed, total int) {
	log.Info("%s: %d/%d units translated", name, completed, total)
}

func (LogReporter) CooldownWait(name string, wait time.Duration, cycle, max int) {
	log.Warn("%s: rate limited, cooling down for %s (%d/%d)", name, wait, cycle, max)
}

func (LogReporter) FileFinished(result FileResult) {
	switch {
	case result.Skipped:
		log.Info("%s: skipped", result.Name)
	case result.Err != nil:
		log.Error("%s: stopped at %d/%d units: %v", result.Name, result.CompletedUnits, result.TotalUnits, result.Err)
	default:
		log.Info("%s: %s, %d/%d units, %d tokens", result.Name, result.Status, result.CompletedUnits, result.TotalUnits, result.TokensUsed)
	}
}
