package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/strrl/pixgrid/internal/config"
	"github.com/strrl/pixgrid/internal/journal"
	"github.com/strrl/pixgrid/internal/logging"
	"github.com/strrl/pixgrid/internal/pixabay"
	"github.com/strrl/pixgrid/internal/tui"
)

var (
	configPath string
	envFile    string
	logFile    string
	debugMode  bool
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pixgrid [query]",
		Short: "Search and browse Pixabay images in the terminal",
		Long: `pixgrid is a TUI application for searching Pixabay images.
Type a query, browse the results as a grid and load more pages until the
results run out. A query given on the command line is searched right away.`,
		RunE:          runTUI,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to the TOML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional .env file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", logging.DefaultLogFile(), "Where the TUI writes its log")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.AddCommand(NewSearchCommand())
	rootCmd.AddCommand(NewConfigCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(w io.Writer) *slog.Logger {
	cfg := logging.DefaultConfig()
	if debugMode {
		cfg.Level = slog.LevelDebug
	}
	return logging.New(w, cfg)
}

func newClient(cfg *config.Config) *pixabay.Client {
	return pixabay.NewClient(cfg.APIKey,
		pixabay.WithBaseURL(cfg.BaseURL),
		pixabay.WithPerPage(cfg.PerPage),
		pixabay.WithSafeSearch(cfg.SafeSearch),
	)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	f, err := logging.OpenFile(logFile)
	if err != nil {
		return err
	}
	defer f.Close()
	logger := newLogger(f)

	opts := tui.Options{
		InitialQuery:  strings.Join(args, " "),
		CardWidth:     cfg.UI.CardWidth,
		ToastDuration: cfg.UI.ToastDuration.Duration,
		ScrollDelay:   cfg.UI.ScrollDelay.Duration,
		Timeout:       cfg.RequestTimeout.Duration,
		Logger:        logger,
	}

	j, err := journal.Open()
	if err != nil {
		logger.Warn("fetch journal disabled", "error", err)
	} else {
		defer j.Close()
		opts.Recorder = j
	}

	logger.Info("starting TUI", "initial_query", opts.InitialQuery, "per_page", cfg.PerPage)
	if err := tui.Run(newClient(cfg), opts); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	if j != nil {
		logJournal(cmd.Context(), logger, j)
	}
	return nil
}

func logJournal(ctx context.Context, logger *slog.Logger, j *journal.Journal) {
	if ctx == nil {
		ctx = context.Background()
	}
	stats, err := j.Summary(ctx)
	if err != nil {
		logger.Warn("failed to summarise fetch journal", "error", err)
		return
	}
	for _, s := range stats {
		logger.Info("search summary",
			"query", s.Query,
			"fetches", s.Fetches,
			"failures", s.Failures,
			"max_page", s.MaxPage,
			"hits", s.Hits,
			"avg_elapsed_ms", s.AvgElapsedMs)
	}
}
