package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/discochess/tally/internal/source/chesscom"
)

var leaderboardsCmd = &cobra.Command{
	Use:   "leaderboards",
	Short: "Show the top players in each category",
	Args:  cobra.NoArgs,
	RunE:  runLeaderboards,
}

var (
	leaderboardsTop        int
	leaderboardsCategories []string
)

func init() {
	leaderboardsCmd.Flags().IntVarP(&leaderboardsTop, "top", "n", 5, "players to show per category")
	leaderboardsCmd.Flags().StringSliceVar(&leaderboardsCategories, "category", chesscom.LeaderboardCategories, "categories to show")
	rootCmd.AddCommand(leaderboardsCmd)
}

func runLeaderboards(cmd *cobra.Command, args []string) error {
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

	lb, err := client.Leaderboards(ctx)
	if err != nil {
		return err
	}
	printLeaderboards(cmd.OutOrStdout(), lb, leaderboardsCategories, leaderboardsTop)
	return nil
}
