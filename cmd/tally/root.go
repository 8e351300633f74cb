package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discochess/tally/internal/config"
)

var (
	// Global flags.
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "tally",
	Short: "Win rates, ratings and openings from chess.com game archives",
	Long: `Tally fetches a player's recent games from the chess.com public API and
summarizes them from the player's side of the board: results, rating
trajectory, openings, time controls and accuracy.

Configuration is read from defaults, an optional YAML file (--config),
a .env file and TALLY_* environment variables, in that order. Flags
override all of them.

Examples:
  # Analyze the last 50 games
  tally analyze hikaru

  # Compare two players over January 2024
  tally analyze hikaru magnuscarlsen --start 2024-01-01 --end 2024-01-31

  # Archive a year of monthly payloads to S3
  tally harvest hikaru --backend s3 --bucket my-archive`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// newLogger builds a development logger with --verbose, else a production
// logger that only reports warnings.
func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// signalContext is cancelled on interrupt or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
