package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/tally"
	"github.com/discochess/tally/fx/tallyfx"
	"github.com/discochess/tally/internal/config"
	"github.com/discochess/tally/internal/source/chesscom"
	promstats "github.com/discochess/tally/internal/stats/prometheus"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [USERNAME...]",
	Short: "Analyze recent games for one or more players",
	Long: `Fetch each player's recent games and print an analysis.

Without --start or --end, months are fetched backwards from now until
--games games were collected or a year was covered. With either bound,
every calendar month in the range is fetched and only games ending in
the range are kept. Usernames default to the configured subjects.

Examples:
  # Last 100 games as JSON
  tally analyze hikaru --games 100 --json

  # Persist games to a local SQLite database
  tally analyze hikaru --db --db-driver sqlite3 --dsn tally.db

  # Analyze from a previously harvested archive
  tally analyze hikaru --from-archive --archive-dir ./archive`,
	RunE: runAnalyze,
}

var (
	analyzeGames       int
	analyzeStart       string
	analyzeEnd         string
	analyzeDedupe      bool
	analyzeJSON        bool
	analyzeDB          bool
	analyzeDriver      string
	analyzeDSN         string
	analyzeDelay       time.Duration
	analyzeConcurrency int
	analyzeMetricsAddr string
	analyzeFromArchive bool
	analyzeArchiveDir  string
	analyzeRecent      int
)

func init() {
	f := analyzeCmd.Flags()
	f.IntVarP(&analyzeGames, "games", "n", 50, "number of most recent games to analyze (0 for all in range)")
	f.StringVar(&analyzeStart, "start", "", "first day to include (YYYY-MM-DD or YYYY-MM-DD HH:MM:SS)")
	f.StringVar(&analyzeEnd, "end", "", "last day to include (YYYY-MM-DD includes the whole day)")
	f.BoolVar(&analyzeDedupe, "dedupe", false, "drop games repeated across months")
	f.BoolVar(&analyzeJSON, "json", false, "output results as JSON")
	f.BoolVar(&analyzeDB, "db", false, "persist analyzed games and rollups")
	f.StringVar(&analyzeDriver, "db-driver", "sqlite3", "database driver: sqlite3, postgres")
	f.StringVar(&analyzeDSN, "dsn", "", "database connection string")
	f.DurationVar(&analyzeDelay, "delay", 0, "minimum delay between players")
	f.IntVar(&analyzeConcurrency, "concurrency", 1, "players analyzed at once")
	f.StringVar(&analyzeMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	f.BoolVar(&analyzeFromArchive, "from-archive", false, "read harvested months instead of the API")
	f.StringVar(&analyzeArchiveDir, "archive-dir", "", "archive directory for --from-archive")
	f.IntVar(&analyzeRecent, "recent", 10, "recent games listed per player in text output")
	rootCmd.AddCommand(analyzeCmd)
}

// applyAnalyzeFlags copies explicitly set flags over the loaded config.
func applyAnalyzeFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("games") {
		cfg.TargetCount = analyzeGames
	}
	if f.Changed("start") {
		cfg.StartDate = analyzeStart
	}
	if f.Changed("end") {
		cfg.EndDate = analyzeEnd
	}
	if f.Changed("dedupe") {
		cfg.Dedupe = analyzeDedupe
	}
	if f.Changed("db") {
		cfg.Database.Enabled = analyzeDB
	}
	if f.Changed("db-driver") {
		cfg.Database.Driver = analyzeDriver
	}
	if f.Changed("dsn") {
		cfg.Database.DSN = analyzeDSN
	}
	if f.Changed("delay") {
		cfg.SubjectDelay = analyzeDelay
	}
	if f.Changed("concurrency") {
		cfg.Concurrency = analyzeConcurrency
	}
	if f.Changed("metrics-addr") {
		cfg.Metrics.Addr = analyzeMetricsAddr
	}
	if f.Changed("from-archive") {
		cfg.Source.FromArchive = analyzeFromArchive
	}
	if f.Changed("archive-dir") {
		cfg.Archive.Backend = "disk"
		cfg.Archive.Dir = analyzeArchiveDir
	}
	return cfg.Validate()
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyAnalyzeFlags(cmd, cfg); err != nil {
		return err
	}

	subjects := args
	if len(subjects) == 0 {
		subjects = cfg.Subjects
	}
	if len(subjects) == 0 {
		return errors.New("no usernames given and no subjects configured")
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	var (
		client *tally.Client
		prom   *promstats.Collector
	)
	app := fx.New(
		fx.Supply(*cfg, logger),
		tallyfx.Module,
		fx.Populate(&client, &prom),
		fx.NopLogger,
	)
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("starting: %w", err)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := app.Stop(stopCtx); err != nil {
			logger.Warn("shutdown failed", zap.Error(err))
		}
	}()

	if prom != nil {
		stop, err := serveMetrics(cfg.Metrics.Addr, prom.Handler(), logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	results, runErr := client.AnalyzeMany(ctx, subjects)

	out := cmd.OutOrStdout()
	if analyzeJSON {
		if err := printAnalysesJSON(out, results); err != nil {
			return err
		}
		return runErr
	}

	var profiles *chesscom.Client
	if !cfg.Source.FromArchive {
		profiles = newAPIClient(cfg.Source, logger)
		defer profiles.Close()
	}

	for _, a := range results {
		if a == nil {
			continue
		}
		var profile *chesscom.Profile
		if profiles != nil {
			if profile, err = profiles.Profile(ctx, a.Username); err != nil {
				logger.Debug("profile unavailable", zap.String("username", a.Username), zap.Error(err))
			}
		}
		printAnalysisText(out, a, profile, analyzeRecent)
	}
	if len(subjects) > 1 {
		printComparison(out, results)
	}
	return runErr
}
