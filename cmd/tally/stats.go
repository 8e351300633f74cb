package main

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/discochess/tally/internal/sink"
	"github.com/discochess/tally/internal/sink/sqlsink"
)

var statsCmd = &cobra.Command{
	Use:   "stats USERNAME",
	Short: "Show a player's stored statistics",
	Long: `Read the rollup kept in the database for a player whose games were
persisted with 'tally analyze --db'.`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

var (
	statsDriver string
	statsDSN    string
	statsJSON   bool
)

func init() {
	statsCmd.Flags().StringVar(&statsDriver, "db-driver", "", "database driver: sqlite3, postgres")
	statsCmd.Flags().StringVar(&statsDSN, "dsn", "", "database connection string")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output result as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	driver, dsn := cfg.Database.Driver, cfg.Database.DSN
	if cmd.Flags().Changed("db-driver") {
		driver = statsDriver
	}
	if cmd.Flags().Changed("dsn") {
		dsn = statsDSN
	}
	if dsn == "" {
		return errors.New("no database configured; pass --dsn or set TALLY_DATABASE__DSN")
	}

	ctx, cancel := signalContext()
	defer cancel()

	s, err := sqlsink.Open(ctx, driver, dsn)
	if err != nil {
		return err
	}
	defer s.Close()

	st, err := s.UserStatistics(ctx, args[0])
	if errors.Is(err, sink.ErrNotFound) {
		return fmt.Errorf("no stored statistics for %s; run 'tally analyze --db' first", args[0])
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if statsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	fmt.Fprintf(out, "Player:       %s\n", st.Username)
	fmt.Fprintf(out, "Games:        %d\n", st.TotalGames)
	fmt.Fprintf(out, "Wins:         %d\n", st.Wins)
	fmt.Fprintf(out, "Losses:       %d\n", st.Losses)
	fmt.Fprintf(out, "Draws:        %d\n", st.Draws)
	if st.AvgAccuracyWhite != nil {
		fmt.Fprintf(out, "Accuracy (W): %.1f%%\n", *st.AvgAccuracyWhite)
	}
	if st.AvgAccuracyBlack != nil {
		fmt.Fprintf(out, "Accuracy (B): %.1f%%\n", *st.AvgAccuracyBlack)
	}
	if st.HighestRating != nil {
		fmt.Fprintf(out, "Highest:      %d\n", *st.HighestRating)
	}
	if st.CurrentRating != nil {
		fmt.Fprintf(out, "Current:      %d\n", *st.CurrentRating)
	}
	fmt.Fprintf(out, "Updated:      %s\n", st.LastUpdated.Format("2006-01-02 15:04:05 MST"))
	return nil
}
