package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/MimeLyc/subtitle-batch-translator/pkg/icron"
	"github.com/MimeLyc/subtitle-batch-translator/pkg/log"
)

// WatchConfig describes a scheduled folder run.
type WatchConfig struct {
	InputDir     string
	OutputDir    string
	CronExpr     string
	AllowPartial bool
	Skip         map[string]bool
}

// Watcher runs the controller over a directory on a cron schedule. Runs
// never overlap: a tick that fires while a run is active joins it.
type Watcher struct {
	controller *Controller
	cfg        WatchConfig
	cron       *cron.Cron
	group      singleflight.Group
}

func NewWatcher(controller *Controller, cfg WatchConfig, c *cron.Cron) *Watcher {
	if cfg.OutputDir == "" {
		cfg.OutputDir = cfg.InputDir
	}
	return &Watcher{
		controller: controller,
		cfg:        cfg,
		cron:       c,
	}
}

// Schedule registers the run with the cron runner. The caller starts and
// stops the runner.
func (w *Watcher) Schedule(ctx context.Context) error {
	log.Info("Watching %s with schedule %q", w.cfg.InputDir, w.cfg.CronExpr)

	runFunc := func() {
		if err := w.RunOnce(ctx); err != nil {
			log.Error("Scheduled run in %s failed: %v", w.cfg.InputDir, err)
		}
		if info, err := icron.GetTriggerInfo(w.cfg.CronExpr, time.Now()); err == nil {
			log.Info("Next run at %s (in %s)", info.Next.Format(time.DateTime), info.TimeUntilNext.Round(time.Second))
		}
	}
	_, err := w.cron.AddFunc(w.cfg.CronExpr, runFunc)
	if err != nil {
		return WrapError(err, ErrConfig, "invalid watch schedule").WithContext("cron", w.cfg.CronExpr)
	}
	return nil
}

// RunOnce scans the input directory, translates every subtitle found and
// writes the outputs.
func (w *Watcher) RunOnce(ctx context.Context) error {
	_, err, shared := w.group.Do("run", func() (any, error) {
		return nil, w.run(ctx)
	})
	if shared {
		log.Debug("Joined an in-flight run of %s", w.cfg.InputDir)
	}
	return err
}

func (w *Watcher) run(ctx context.Context) error {
	paths, err := FindInputs(w.cfg.InputDir)
	if err != nil {
		return err
	}
	log.Info("Found %d subtitle files in %s", len(paths), w.cfg.InputDir)

	inputs, err := LoadInputs(w.cfg.InputDir, paths, w.cfg.Skip)
	if err != nil {
		return err
	}

	results, runErr := w.controller.Run(ctx, inputs)
	if _, err := WriteOutputs(w.cfg.OutputDir, results, w.cfg.AllowPartial); err != nil {
		return err
	}
	return runErr
}
