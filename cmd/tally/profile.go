package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discochess/tally/internal/config"
	"github.com/discochess/tally/internal/source/chesscom"
)

var profileCmd = &cobra.Command{
	Use:   "profile USERNAME",
	Short: "Show a player's profile and per-mode ratings",
	Long: `Fetch a player's public profile and current standing in each game mode
(rapid, blitz, bullet, daily) plus their best puzzle rush run.`,
	Args: cobra.ExactArgs(1),
	RunE: runProfile,
}

var profileJSON bool

func init() {
	profileCmd.Flags().BoolVar(&profileJSON, "json", false, "output result as JSON")
	rootCmd.AddCommand(profileCmd)
}

// newAPIClient builds a chess.com client from the source settings.
func newAPIClient(sc config.SourceConfig, logger *zap.Logger) *chesscom.Client {
	return chesscom.New(chesscom.Config{
		BaseURL:           sc.BaseURL,
		UserAgent:         sc.UserAgent,
		Timeout:           sc.Timeout,
		RequestsPerSecond: sc.RequestsPerSecond,
		Burst:             sc.Burst,
		MaxRetries:        sc.MaxRetries,
	}, chesscom.WithLogger(logger))
}

func runProfile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	client := newAPIClient(cfg.Source, logger)
	defer client.Close()

	profile, err := client.Profile(ctx, args[0])
	if err != nil {
		return err
	}
	st, err := client.Stats(ctx, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if profileJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*chesscom.Profile
			Stats *chesscom.PlayerStats `json:"stats"`
		}{profile, st})
	}
	printProfile(out, profile, st)
	return nil
}
