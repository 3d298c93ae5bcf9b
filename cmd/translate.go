package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/subtitle-batch-translator/internal/config"
	"github.com/MimeLyc/subtitle-batch-translator/internal/service"
)

type translateOptions struct {
	target       string
	source       string
	outputDir    string
	batchSize    int
	glossaryFile string
	instructions string
	analysis     bool
	revision     bool
	partial      bool
	skip         []string
}

func newTranslateCmd(root *rootOptions) *cobra.Command {
	opts := &translateOptions{}
	cmd := &cobra.Command{
		Use:   "translate <file or directory>...",
		Short: "Translate subtitle files, resuming any unfinished job",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, root, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.target, "target", "t", "", "Target language name or tag")
	cmd.Flags().StringVarP(&opts.source, "source", "s", "", `Source language name, tag or "auto"`)
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "Output directory (default: next to the input)")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "Subtitle units per request (1-500)")
	cmd.Flags().StringVar(&opts.glossaryFile, "glossary", "", "Glossary file (JSON or YAML)")
	cmd.Flags().StringVar(&opts.instructions, "instructions", "", "Extra guidance for every batch")
	cmd.Flags().BoolVar(&opts.analysis, "analysis", false, "Run the whole-file analysis pass first")
	cmd.Flags().BoolVar(&opts.revision, "revision", false, "Polish the finished draft")
	cmd.Flags().BoolVar(&opts.partial, "partial", false, "Write output for files that are not complete")
	cmd.Flags().StringSliceVar(&opts.skip, "skip", nil, "File names to leave untouched")
	return cmd
}

func (o *translateOptions) apply(c *config.Config) {
	if o.target != "" {
		c.Translate.TargetLanguage = o.target
	}
	if o.source != "" {
		c.Translate.SourceLanguage = o.source
	}
	if o.batchSize != 0 {
		c.Translate.BatchSize = o.batchSize
	}
	if o.glossaryFile != "" {
		c.Translate.GlossaryFile = o.glossaryFile
	}
	if o.instructions != "" {
		c.Translate.Instructions = o.instructions
	}
	if o.analysis {
		c.Translate.AnalysisEnabled = true
	}
	if o.revision {
		c.Translate.RevisionEnabled = true
	}
	if o.partial {
		c.Watch.AllowPartial = true
	}
	if len(o.skip) > 0 {
		c.Watch.SkipFiles = append(c.Watch.SkipFiles, o.skip...)
	}
}

func runTranslate(cmd *cobra.Command, root *rootOptions, opts *translateOptions, args []string) error {
	cfg, closeLog, err := loadConfig(root, opts.apply)
	if err != nil {
		return err
	}
	defer closeLog()

	baseDir, paths, err := collectInputs(args)
	if err != nil {
		return err
	}
	inputs, err := service.LoadInputs(baseDir, paths, cfg.WatchSettings().Skip)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no subtitle files found in %v", args)
	}

	ctx, stop := signalContext()
	defer stop()

	controller, closeStore, err := newController(ctx, cfg, baseDir)
	if err != nil {
		return err
	}
	defer closeStore()

	results, runErr := controller.Run(ctx, inputs)

	outputDir := opts.outputDir
	if outputDir == "" {
		outputDir = baseDir
	}
	if _, err := service.WriteOutputs(outputDir, results, cfg.Watch.AllowPartial); err != nil {
		return err
	}
	printResults(cmd.OutOrStdout(), results)

	if runErr != nil && ctx.Err() != nil {
		return fmt.Errorf("interrupted, progress is saved: %w", runErr)
	}
	return runErr
}

// collectInputs expands args into subtitle paths and the directory their job
// names are relative to. A directory argument is scanned recursively.
func collectInputs(args []string) (string, []string, error) {
	var baseDir string
	var paths []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return "", nil, service.WrapError(err, service.ErrFileRead, "cannot read input").WithContext("path", arg)
		}

		dir := filepath.Dir(arg)
		found := []string{arg}
		if info.IsDir() {
			dir = arg
			if found, err = service.FindInputs(arg); err != nil {
				return "", nil, err
			}
		}

		if baseDir == "" {
			baseDir = dir
		} else if filepath.Clean(baseDir) != filepath.Clean(dir) {
			return "", nil, service.NewError(service.ErrValidation, "inputs must share one directory").
				WithContext("first", baseDir).
				WithContext("other", dir)
		}
		paths = append(paths, found...)
	}
	return baseDir, paths, nil
}

func printResults(w io.Writer, results []service.FileResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSTATUS\tUNITS\tTOKENS\tREVISED")

	total := 0
	for _, r := range results {
		status := string(r.Status)
		switch {
		case r.Skipped:
			status = "skipped"
		case r.Err != nil && r.TotalUnits == 0:
			status = "failed"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%d\t%t\n", r.Name, status, r.CompletedUnits, r.TotalUnits, r.TokensUsed, r.Revised)
		total += r.TokensUsed
	}
	fmt.Fprintf(tw, "\t\t\t%d\t\n", total)
	_ = tw.Flush()
}
