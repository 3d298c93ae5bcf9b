package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/subtitle-batch-translator/internal/config"
	"github.com/MimeLyc/subtitle-batch-translator/internal/glossary"
	"github.com/MimeLyc/subtitle-batch-translator/internal/llm"
	"github.com/MimeLyc/subtitle-batch-translator/internal/persistence"
	"github.com/MimeLyc/subtitle-batch-translator/internal/service"
	"github.com/MimeLyc/subtitle-batch-translator/pkg/log"
)

// rootOptions are the flags shared by every command.
type rootOptions struct {
	settingsFile string
	logLevel     string
	dataDir      string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "subtrans",
		Short: "Translate SRT, VTT and ASS subtitles in resumable batches",
		Long: `subtrans sends subtitle files to a language model in numbered batches,
checkpoints every finished batch and resumes where it stopped on the next run.

Configuration comes from the environment (and a .env file), an optional YAML
settings file (--config or SETTINGS_FILE) and the flags below.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.settingsFile, "config", "", "YAML settings file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "DEBUG, INFO, WARN or ERROR")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "Directory holding the job database")

	root.AddCommand(
		newTranslateCmd(opts),
		newWatchCmd(opts),
		newJobsCmd(opts),
		newGlossaryCmd(opts),
		newConfigCmd(opts),
	)
	return root
}

func main() {
	os.Exit(run(newRootCmd(), service.NewDefaultErrorHandler()))
}

// run executes root and returns the process exit code. Failures are logged
// with advice by handler.
func run(root *cobra.Command, handler service.ErrorHandler) int {
	if err := root.Execute(); err != nil {
		handler.Handle(err)
		return 1
	}
	return 0
}

// loadConfig reads the configuration and applies the shared flags plus any
// command specific options, then sets up logging.
func loadConfig(opts *rootOptions, extra ...config.Option) (*config.Config, func(), error) {
	options := []config.Option{func(c *config.Config) {
		if opts.logLevel != "" {
			c.System.LogLevel = opts.logLevel
		}
		if opts.dataDir != "" {
			c.System.DataDir = opts.dataDir
		}
	}}
	options = append(options, extra...)

	cfg, err := config.Load(opts.settingsFile, options...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	closeLog, err := setupLogging(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, closeLog, nil
}

func setupLogging(cfg *config.Config) (func(), error) {
	level := log.ParseLevel(cfg.System.LogLevel)
	if cfg.System.LogFile == "" {
		log.InitLogger(level)
		return func() {}, nil
	}

	fileLogger, err := log.NewFileLogger(cfg.System.LogFile, level)
	if err != nil {
		return nil, err
	}
	log.SetLogger(fileLogger.Logger)
	return func() { _ = fileLogger.Close() }, nil
}

func openStore(cfg *config.Config) (*persistence.SQLiteStore, error) {
	store, err := persistence.NewSQLiteStore(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open job database %s: %w", cfg.DBPath(), err)
	}
	return store, nil
}

// loadGlossary uses the configured glossary file, or the nearest one found
// above baseDir. No glossary is not an error.
func loadGlossary(cfg *config.Config, baseDir string) (glossary.Glossary, error) {
	path := cfg.Translate.GlossaryFile
	if path == "" {
		path = glossary.FindInAncestors(baseDir)
	}
	if path == "" {
		return nil, nil
	}

	g, err := glossary.Load(path)
	if err != nil {
		return nil, err
	}
	log.Info("Loaded %d glossary entries from %s", len(g), path)
	return g, nil
}

// newController wires the backend, job store and glossary into a controller.
// The returned cleanup closes the store.
func newController(ctx context.Context, cfg *config.Config, baseDir string) (*service.Controller, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, service.WrapError(err, service.ErrConfig, "invalid configuration")
	}

	g, err := loadGlossary(cfg, baseDir)
	if err != nil {
		return nil, nil, service.WrapError(err, service.ErrConfig, "failed to load glossary")
	}

	backend, err := llm.NewBackend(ctx, cfg.BackendConfig())
	if err != nil {
		return nil, nil, service.WrapError(err, service.ErrConfig, "failed to create backend")
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	controller, err := service.NewController(cfg.Settings(), backend,
		service.WithStore(store),
		service.WithGlossary(g),
	)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return controller, func() { _ = store.Close() }, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
