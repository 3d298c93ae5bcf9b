package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/MimeLyc/subtitle-batch-translator/internal/glossary"
	"github.com/MimeLyc/subtitle-batch-translator/internal/jobs"
	"github.com/MimeLyc/subtitle-batch-translator/internal/llm"
	"github.com/MimeLyc/subtitle-batch-translator/internal/subtitle"
	"github.com/MimeLyc/subtitle-batch-translator/internal/translator"
	"github.com/MimeLyc/subtitle-batch-translator/pkg/log"
)

// Controller drives files through parse, batch, translate, reconcile and
// serialize. It processes one file, one batch and one backend call at a
// time; every reconciled batch is checkpointed to the Store before the next
// one starts.
type Controller struct {
	settings Settings
	backend  llm.Backend
	store    jobs.Store
	glossary glossary.Glossary
	reporter Reporter
	sleep    SleepFunc
}

type Option func(*Controller)

func WithStore(store jobs.Store) Option {
	return func(c *Controller) { c.store = store }
}

func WithGlossary(g glossary.Glossary) Option {
	return func(c *Controller) { c.glossary = g }
}

func WithReporter(r Reporter) Option {
	return func(c *Controller) { c.reporter = r }
}

// WithSleep replaces the wait used for delays and cooldowns.
func WithSleep(sleep SleepFunc) Option {
	return func(c *Controller) { c.sleep = sleep }
}

func NewController(settings Settings, backend llm.Backend, opts ...Option) (*Controller, error) {
	if backend == nil {
		return nil, NewError(ErrConfig, "translation backend is required")
	}
	if settings.BatchSize < translator.MinBatchSize || settings.BatchSize > translator.MaxBatchSize {
		return nil, NewError(ErrValidation, "batch size out of range").
			WithContext("batch_size", settings.BatchSize)
	}
	if strings.TrimSpace(settings.TargetLanguage) == "" {
		return nil, NewError(ErrValidation, "target language is required")
	}
	if settings.MaxRetries < 1 {
		settings.MaxRetries = 1
	}

	c := &Controller{
		settings: settings,
		backend:  backend,
		store:    jobs.NewMemoryStore(),
		reporter: LogReporter{},
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// fileRun is the per-file state shared by the steps of TranslateFile.
type fileRun struct {
	name        string
	doc         *subtitle.Document
	units       []subtitle.Unit
	job         *jobs.Job
	sourceLang  string
	fileContext string
	calls       int
	tokens      int
}

// Run translates inputs in order. Stored jobs for files no longer in inputs
// are discarded first. A file that fails does not stop the following ones;
// their errors are joined. Cancelling ctx stops the run between batches.
func (c *Controller) Run(ctx context.Context, inputs []FileInput) ([]FileResult, error) {
	if err := c.prune(ctx, inputs); err != nil {
		log.Warn("Failed to prune stale jobs: %v", err)
	}

	results := make([]FileResult, 0, len(inputs))
	var errs []error
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, err := c.TranslateFile(ctx, in)
		if result == nil {
			result = &FileResult{Name: in.Name, Err: err}
			c.reporter.FileFinished(*result)
		}
		results = append(results, *result)
		if err != nil {
			if ctx.Err() != nil {
				return results, err
			}
			errs = append(errs, err)
		}
	}
	return results, errors.Join(errs...)
}

func (c *Controller) prune(ctx context.Context, inputs []FileInput) error {
	keep := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		keep[in.Name] = true
	}

	stored, err := c.store.List(ctx)
	if err != nil {
		return err
	}
	for _, job := range stored {
		if keep[job.Name] {
			continue
		}
		log.Warn("Discarding job for %s (%d units done), file is no longer in the input set", job.Name, len(job.CompletedIDs))
		if err := c.store.Delete(ctx, job.Name); err != nil {
			return err
		}
	}
	return nil
}

// TranslateFile translates one file, resuming from its stored job. The
// returned result always carries a serialized document in which untranslated
// units keep their source text. The error is a *TransError of type
// ErrBatchFatal when a batch exhausted its retries or cooldowns.
func (c *Controller) TranslateFile(ctx context.Context, in FileInput) (*FileResult, error) {
	if in.Skip {
		result := &FileResult{Name: in.Name, Skipped: true}
		c.reporter.FileFinished(*result)
		return result, nil
	}

	doc, err := subtitle.Parse(in.Name, in.Raw)
	if err != nil {
		return nil, WrapError(err, ErrValidation, "unsupported subtitle file").WithContext("file", in.Name)
	}
	if overlay := translator.ParseOverlay(in.PreOverlay); len(overlay) > 0 {
		applied := doc.ApplyOverlay(overlay)
		log.Info("%s: manual edits replaced %d source units", in.Name, applied)
	}
	if doc.Len() == 0 {
		log.Warn("%s: no subtitle units found", in.Name)
	}

	job, err := c.loadJob(ctx, in.Name, jobs.Fingerprint(in.Raw), doc)
	if err != nil {
		return nil, err
	}

	run := &fileRun{
		name:  in.Name,
		doc:   doc,
		units: doc.Units(),
		job:   job,
	}
	err = c.process(ctx, run)

	result := c.result(run, in.PostOverlay, err)
	c.reporter.FileFinished(*result)
	return result, err
}

// loadJob resumes the stored job for name unless it was recorded for
// different file content, in which case translation starts over.
func (c *Controller) loadJob(ctx context.Context, name, fingerprint string, doc *subtitle.Document) (*jobs.Job, error) {
	job, err := c.store.Get(ctx, name)
	if err != nil {
		return nil, WrapError(err, ErrUnknown, "failed to load job").WithContext("file", name)
	}
	if job != nil && job.Fingerprint != "" && job.Fingerprint != fingerprint {
		log.Warn("%s: content changed since job %s was saved, discarding %d stored units", name, job.ID, len(job.CompletedIDs))
		job = nil
	}
	if job == nil {
		job = jobs.NewJob(name, doc.Len())
		job.Fingerprint = fingerprint
		log.Info("%s: new job %s with %d units", name, job.ID, doc.Len())
		return job, nil
	}

	job.Fingerprint = fingerprint
	job.TotalUnits = doc.Len()
	log.Info("%s: resuming job %s (%s), %d/%d units done", name, job.ID, job.Status, countCompleted(job, doc), doc.Len())
	return job, nil
}

func (c *Controller) process(ctx context.Context, run *fileRun) error {
	ids := run.doc.IDs()
	needsTranslation := !run.job.Covers(ids)
	needsRevision := c.settings.RevisionEnabled && !run.job.Revised

	if !needsTranslation && !needsRevision {
		if run.job.Status != jobs.StatusCompleted {
			run.job.SetStatus(jobs.StatusCompleted)
			return c.save(ctx, run.job)
		}
		log.Info("%s: already completed, nothing to translate", run.name)
		return nil
	}

	run.sourceLang = c.sourceLanguage(run)
	run.fileContext = c.analyze(ctx, run)

	if needsTranslation {
		run.job.SetStatus(jobs.StatusInProgress)
		if err := c.save(ctx, run.job); err != nil {
			return err
		}
		if err := c.translateBatches(ctx, run); err != nil {
			run.job.Error = err.Error()
			if saveErr := c.save(ctx, run.job); saveErr != nil {
				log.Error("%s: failed to record error: %v", run.name, saveErr)
			}
			return err
		}
	}

	if !run.job.Covers(ids) {
		log.Warn("%s: %d units are still untranslated, run again to resume", run.name, len(ids)-countCompleted(run.job, run.doc))
		return c.save(ctx, run.job)
	}

	if needsRevision {
		c.revise(ctx, run)
	}
	run.job.SetStatus(jobs.StatusCompleted)
	return c.save(ctx, run.job)
}

func (c *Controller) sourceLanguage(run *fileRun) string {
	if !strings.EqualFold(c.settings.SourceLanguage, AutoLanguage) {
		return c.settings.SourceLanguage
	}

	tag := subtitle.DetectLanguage(run.units)
	if name := subtitle.LanguageName(tag); name != "" {
		log.Info("%s: detected source language %s", run.name, name)
		return name
	}
	log.Warn("%s: could not detect the source language", run.name)
	return "the original language"
}

// analyze returns the file context for prompts. A successful analysis is
// cached on the job; a failure yields a placeholder and is retried on the
// next run.
func (c *Controller) analyze(ctx context.Context, run *fileRun) string {
	if !c.settings.AnalysisEnabled {
		return translator.NoAnalysisPlaceholder
	}
	if run.job.AnalysisContext != nil {
		return *run.job.AnalysisContext
	}

	log.Info("%s: analyzing %d units", run.name, len(run.units))
	prompt := translator.BuildAnalysisPrompt(translator.AnalysisPromptInput{
		Units:        run.units,
		Instructions: c.settings.AnalysisNotes,
		Budget:       c.settings.AnalysisBudget,
	})
	completion, err := c.complete(ctx, run, prompt)
	if err == nil && strings.TrimSpace(completion.Text) == "" {
		err = errors.New("empty analysis")
	}
	if err != nil {
		log.Warn("%v", WrapError(err, ErrAnalysis, "analysis failed, continuing without it").WithContext("file", run.name))
		return translator.AnalysisFailedPlaceholder
	}

	analysis := strings.TrimSpace(completion.Text)
	run.job.AnalysisContext = &analysis
	if err := c.save(ctx, run.job); err != nil {
		log.Warn("%s: failed to cache analysis: %v", run.name, err)
	}
	return analysis
}

func (c *Controller) translateBatches(ctx context.Context, run *fileRun) error {
	batches, err := translator.Split(run.units, c.settings.BatchSize)
	if err != nil {
		return WrapError(err, ErrValidation, "failed to split units")
	}

	for _, b := range batches {
		if translator.IsComplete(b, run.job.CompletedIDs) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		c.reporter.BatchStarted(run.name, b, len(batches))
		if err := c.translateBatch(ctx, run, b); err != nil {
			return err
		}
		c.reporter.Progress(run.name, countCompleted(run.job, run.doc), run.doc.Len())
	}
	return nil
}

// translateBatch requests the batch until every unit is covered or the retry
// budget runs out. Rate limits wait out a cooldown without spending retries.
// Units the model leaves out are requested again on their own; if they are
// still missing when retries run out they stay pending for the next run.
func (c *Controller) translateBatch(ctx context.Context, run *fileRun, b translator.Batch) error {
	pending := b.Missing(run.job.CompletedIDs)
	failures, cooldowns := 0, 0

	for {
		prompt := translator.BuildTranslationPrompt(translator.TranslationPromptInput{
			SourceLang:   run.sourceLang,
			TargetLang:   c.settings.TargetLanguage,
			Instructions: c.settings.Instructions,
			Glossary:     c.glossary,
			FileContext:  run.fileContext,
			Memory:       c.memory(run, b.Start),
			Units:        pending,
		})

		completion, err := c.complete(ctx, run, prompt)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if c.settings.CooldownEnabled && llm.IsRateLimit(err) {
				cooldowns++
				if cooldowns > c.settings.MaxCooldowns {
					return c.batchFatal(run, b, WrapError(err, ErrRateLimit, "cooldown budget exhausted").
						WithContext("cooldowns", c.settings.MaxCooldowns))
				}
				c.reporter.CooldownWait(run.name, c.settings.Cooldown, cooldowns, c.settings.MaxCooldowns)
				if err := c.sleep(ctx, c.settings.Cooldown); err != nil {
					return err
				}
				continue
			}

			failures++
			log.Warn("%s: batch %d attempt %d/%d failed: %v", run.name, b.Index+1, failures, c.settings.MaxRetries, err)
			if failures >= c.settings.MaxRetries {
				return c.batchFatal(run, b, err)
			}
			if err := c.sleep(ctx, c.settings.ErrorRetryDelay); err != nil {
				return err
			}
			continue
		}

		partial, err := translator.Reconcile(completion.Text)
		if err != nil {
			failures++
			log.Warn("%s: batch %d attempt %d/%d returned no [ID] blocks", run.name, b.Index+1, failures, c.settings.MaxRetries)
			if failures >= c.settings.MaxRetries {
				return c.batchFatal(run, b, WrapError(err, ErrReconciliation, "reply could not be reconciled"))
			}
			if err := c.sleep(ctx, c.settings.FormatRetryDelay); err != nil {
				return err
			}
			continue
		}

		added := run.job.Merge(partial, run.doc.Has)
		log.Debug("%s: batch %d merged %d new units from %d blocks", run.name, b.Index+1, added, len(partial))
		if err := c.save(ctx, run.job); err != nil {
			return err
		}

		missing := b.Missing(run.job.CompletedIDs)
		if len(missing) == 0 {
			return nil
		}
		failures++
		if failures >= c.settings.MaxRetries {
			log.Warn("%s: batch %d still misses %d units after %d attempts, leaving them for the next run",
				run.name, b.Index+1, len(missing), failures)
			return nil
		}
		log.Warn("%s: batch %d reply missed %d units, requesting them again", run.name, b.Index+1, len(missing))
		pending = missing
		if err := c.sleep(ctx, c.settings.FormatRetryDelay); err != nil {
			return err
		}
	}
}

// memory returns up to MemoryTail translated units preceding start, in file
// order.
func (c *Controller) memory(run *fileRun, start int) []translator.MemoryEntry {
	if !c.settings.MemoryEnabled || c.settings.MemoryTail <= 0 {
		return nil
	}

	var ret []translator.MemoryEntry
	for i := start - 1; i >= 0 && len(ret) < c.settings.MemoryTail; i-- {
		u := run.units[i]
		if !run.job.CompletedIDs[u.ID] {
			continue
		}
		ret = append(ret, translator.MemoryEntry{ID: u.ID, Text: run.job.TranslationMap[u.ID]})
	}
	slices.Reverse(ret)
	return ret
}

// revise polishes the complete draft. Only ids already in the draft are
// overwritten, and a line that loses a protected glossary term keeps its
// draft text. Failure leaves the draft untouched.
func (c *Controller) revise(ctx context.Context, run *fileRun) {
	draft := make(subtitle.TranslationMap, len(run.units))
	sources := make([]string, 0, len(run.units))
	for _, u := range run.units {
		draft[u.ID] = run.job.TranslationMap[u.ID]
		sources = append(sources, u.Text)
	}
	protected := glossary.Match(c.glossary, sources)

	prompt := translator.BuildRevisionPrompt(translator.RevisionPromptInput{
		Draft:       draft,
		Order:       run.doc.IDs(),
		FileContext: run.fileContext,
		Notes:       c.settings.RevisionNotes,
		Glossary:    protected,
	})

	attempts := max(c.settings.RevisionAttempts, 1)
	for attempt := 1; attempt <= attempts; attempt++ {
		completion, err := c.complete(ctx, run, prompt)
		var revised map[string]string
		if err == nil {
			revised, err = translator.Reconcile(completion.Text)
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("%v", WrapError(err, ErrRevision, fmt.Sprintf("revision attempt %d/%d failed", attempt, attempts)).
				WithContext("file", run.name))
			continue
		}

		applied, rejected := 0, 0
		for id, text := range revised {
			old, ok := draft[id]
			if !ok {
				continue
			}
			if dropped := glossary.DroppedTargets(protected, old, text); len(dropped) > 0 {
				log.Debug("%s: revision of [%s] dropped glossary terms %v, keeping draft", run.name, id, dropped)
				rejected++
				continue
			}
			run.job.TranslationMap[id] = text
			applied++
		}
		run.job.Revised = true
		log.Info("%s: revision updated %d/%d units, %d rejected for glossary drift", run.name, applied, len(draft), rejected)
		return
	}
	log.Warn("%s: revision skipped, keeping the draft", run.name)
}

// complete performs one backend call, waiting BatchDelay before every call
// but the first of a file.
func (c *Controller) complete(ctx context.Context, run *fileRun, prompt string) (*llm.Completion, error) {
	if run.calls > 0 && c.settings.BatchDelay > 0 {
		if err := c.sleep(ctx, c.settings.BatchDelay); err != nil {
			return nil, err
		}
	}
	run.calls++

	completion, err := c.backend.Complete(ctx, llm.CompletionRequest{
		Model:           c.settings.Model,
		Prompt:          prompt,
		Temperature:     c.settings.Temperature,
		MaxOutputTokens: c.settings.MaxOutputTokens,
	}, func(fragment string) {
		c.reporter.Fragment(run.name, fragment)
	})
	if err != nil {
		return nil, err
	}

	run.tokens += completion.TotalTokens
	run.job.TokensUsed += completion.TotalTokens
	return completion, nil
}

// save checkpoints the job even when ctx has been cancelled so an aborted
// run keeps the batches it finished.
func (c *Controller) save(ctx context.Context, job *jobs.Job) error {
	if err := c.store.Put(context.WithoutCancel(ctx), job); err != nil {
		return WrapError(err, ErrFileWrite, "failed to checkpoint job").WithContext("file", job.Name)
	}
	return nil
}

func (c *Controller) batchFatal(run *fileRun, b translator.Batch, cause error) error {
	return WrapError(cause, ErrBatchFatal, fmt.Sprintf("batch %d could not be completed", b.Index+1)).
		WithContext("file", run.name).
		WithContext("units", fmt.Sprintf("%d-%d", b.Start+1, b.End()))
}

func (c *Controller) result(run *fileRun, postOverlay string, err error) *FileResult {
	output := make(subtitle.TranslationMap, len(run.job.TranslationMap))
	for id, text := range run.job.TranslationMap {
		output[id] = text
	}
	for id, text := range translator.ParseOverlay(postOverlay) {
		if run.doc.Has(id) {
			output[id] = text
		}
	}

	return &FileResult{
		Name:           run.name,
		Status:         run.job.Status,
		Output:         run.doc.Serialize(output),
		CompletedUnits: countCompleted(run.job, run.doc),
		TotalUnits:     run.doc.Len(),
		TokensUsed:     run.tokens,
		Revised:        run.job.Revised,
		Err:            err,
	}
}

func countCompleted(job *jobs.Job, doc *subtitle.Document) int {
	n := 0
	for _, id := range doc.IDs() {
		if job.CompletedIDs[id] {
			n++
		}
	}
	return n
}
