package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/discochess/tally/internal/window"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the months an analysis would fetch",
	Long: `Print the monthly archives an analysis started now would request.

Without a date range this is the full walk back from the current month;
an analysis stops earlier once it has collected enough games. The walk
steps back 30 days at a time, so near the end of a month it can land on
the same month twice; the second visit is marked "(repeat)".`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

var planStart, planEnd string

func init() {
	planCmd.Flags().StringVar(&planStart, "start", "", "first day to include")
	planCmd.Flags().StringVar(&planEnd, "end", "", "last day to include")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("start") {
		cfg.StartDate = planStart
	}
	if cmd.Flags().Changed("end") {
		cfg.EndDate = planEnd
	}
	r, err := cfg.DateRange()
	if err != nil {
		return err
	}

	p, err := window.NewPlanner(time.Now(), cfg.TargetCount, r)
	if err != nil {
		return err
	}
	mode := "recent"
	if p.Filtered() {
		mode = "date range"
	}
	printPlan(cmd.OutOrStdout(), mode, p.Buckets())
	return nil
}

// printPlan lists buckets in request order. A month the walk lands on twice
// is fetched again and marked as a repeat.
func printPlan(w io.Writer, mode string, buckets []window.Bucket) {
	fmt.Fprintf(w, "Mode: %s\n", mode)
	seen := make(map[window.Bucket]bool, len(buckets))
	for i, b := range buckets {
		if seen[b] {
			fmt.Fprintf(w, "%3d  %s  (repeat)\n", i+1, b)
			continue
		}
		seen[b] = true
		fmt.Fprintf(w, "%3d  %s\n", i+1, b)
	}
}
