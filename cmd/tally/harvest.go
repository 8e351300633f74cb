package main

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/discochess/tally/internal/archive/backend"
	"github.com/discochess/tally/internal/harvest"
	"github.com/discochess/tally/internal/stats/logger"
	"github.com/discochess/tally/internal/window"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest USERNAME...",
	Short: "Archive monthly game payloads for later analysis",
	Long: `Download each player's monthly archives from chess.com and store the
raw payloads in the configured archive, together with a manifest of the
months written. Months that fail to download are skipped.

Archived months can be analyzed offline with 'tally analyze --from-archive'.

Examples:
  # The last year into ./archive
  tally harvest hikaru --dir ./archive

  # 2023 into a GCS bucket, gzip compressed
  tally harvest hikaru --start 2023-01-01 --end 2023-12-31 --backend gcs --bucket my-archive --codec gzip`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHarvest,
}

var (
	harvestStart   string
	harvestEnd     string
	harvestBackend string
	harvestDir     string
	harvestBucket  string
	harvestPrefix  string
	harvestCodec   string
	harvestWorkers int
	harvestQuiet   bool
)

func init() {
	f := harvestCmd.Flags()
	f.StringVar(&harvestStart, "start", "", "first day to include")
	f.StringVar(&harvestEnd, "end", "", "last day to include")
	f.StringVar(&harvestBackend, "backend", "", "archive backend: disk, s3, gcs")
	f.StringVar(&harvestDir, "dir", "", "archive directory (disk backend)")
	f.StringVar(&harvestBucket, "bucket", "", "bucket name (s3 and gcs backends)")
	f.StringVar(&harvestPrefix, "prefix", "", "object name prefix (s3 and gcs backends)")
	f.StringVar(&harvestCodec, "codec", "", "compression: zstd, gzip, none")
	f.IntVar(&harvestWorkers, "workers", 2, "months downloaded at once")
	f.BoolVarP(&harvestQuiet, "quiet", "q", false, "suppress progress output")
	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	f := cmd.Flags()
	if f.Changed("start") {
		cfg.StartDate = harvestStart
	}
	if f.Changed("end") {
		cfg.EndDate = harvestEnd
	}
	if f.Changed("backend") {
		cfg.Archive.Backend = harvestBackend
	}
	if f.Changed("dir") {
		cfg.Archive.Dir = harvestDir
	}
	if f.Changed("bucket") {
		cfg.Archive.Bucket = harvestBucket
	}
	if f.Changed("prefix") {
		cfg.Archive.Prefix = harvestPrefix
	}
	if f.Changed("codec") {
		cfg.Archive.Codec = harvestCodec
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	r, err := cfg.DateRange()
	if err != nil {
		return err
	}
	p, err := window.NewPlanner(time.Now(), cfg.TargetCount, r)
	if err != nil {
		return err
	}
	buckets := p.Buckets()
	slices.SortFunc(buckets, func(a, b window.Bucket) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		}
		return 0
	})
	buckets = slices.Compact(buckets)

	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	a, err := backend.Open(ctx, cfg.Archive)
	if err != nil {
		return err
	}
	defer a.Close()

	client := newAPIClient(cfg.Source, log)
	defer client.Close()

	opts := []harvest.Option{
		harvest.WithLogger(log),
		harvest.WithStats(logger.New(log.Named("tally.stats"))),
		harvest.WithWorkers(harvestWorkers),
		harvest.WithSourceName(cfg.Source.BaseURL),
	}
	if !harvestQuiet {
		opts = append(opts, harvest.WithProgress(harvest.WriterProgress(cmd.ErrOrStderr())))
	}
	h := harvest.New(client, a, opts...)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Harvesting %d months into %s archive (%s)\n", len(buckets), cfg.Archive.Backend, a.Codec().Name())
	for _, user := range args {
		res, err := h.Harvest(ctx, user, buckets)
		if err != nil {
			return fmt.Errorf("harvesting %s: %w", user, err)
		}
		fmt.Fprintf(out, "%s: %d archived, %d skipped, %s\n",
			user, len(res.Archived), len(res.Skipped), harvest.FormatBytes(res.Bytes))
	}
	return nil
}
