package main

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/subtitle-batch-translator/internal/config"
	"github.com/MimeLyc/subtitle-batch-translator/internal/service"
	"github.com/MimeLyc/subtitle-batch-translator/pkg/icron"
	"github.com/MimeLyc/subtitle-batch-translator/pkg/log"
)

type watchOptions struct {
	inputDir  string
	outputDir string
	cronExpr  string
	runNow    bool
}

func newWatchCmd(root *rootOptions) *cobra.Command {
	opts := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Translate a folder on a cron schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.inputDir, "input", "i", "", "Directory to scan (default: INPUT_DIR)")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "Output directory (default: OUTPUT_DIR or the input)")
	cmd.Flags().StringVar(&opts.cronExpr, "cron", "", `Schedule, e.g. "0 */30 * * * *" or "@hourly"`)
	cmd.Flags().BoolVar(&opts.runNow, "now", false, "Run once immediately before waiting for the schedule")
	return cmd
}

func (o *watchOptions) apply(c *config.Config) {
	if o.inputDir != "" {
		c.Watch.InputDir = o.inputDir
	}
	if o.outputDir != "" {
		c.Watch.OutputDir = o.outputDir
	}
	if o.cronExpr != "" {
		c.Watch.CronExpr = o.cronExpr
	}
}

func runWatch(root *rootOptions, opts *watchOptions) error {
	cfg, closeLog, err := loadConfig(root, opts.apply)
	if err != nil {
		return err
	}
	defer closeLog()

	if cfg.Watch.InputDir == "" {
		return fmt.Errorf("an input directory is required (--input or INPUT_DIR)")
	}

	ctx, stop := signalContext()
	defer stop()

	controller, closeStore, err := newController(ctx, cfg, cfg.Watch.InputDir)
	if err != nil {
		return err
	}
	defer closeStore()

	runner := icron.New()
	watcher := service.NewWatcher(controller, cfg.WatchSettings(), runner)
	if err := watcher.Schedule(ctx); err != nil {
		return err
	}

	var initial sync.WaitGroup
	if opts.runNow {
		initial.Add(1)
		go func() {
			defer initial.Done()
			if err := watcher.RunOnce(ctx); err != nil {
				log.Error("Initial run failed: %v", err)
			}
		}()
	}

	runner.Start()
	<-ctx.Done()
	log.Info("Stopping, waiting for the current run to checkpoint")
	<-runner.Stop().Done()
	initial.Wait()
	return nil
}
