//go:build e2e

package tally_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/discochess/tally"
	"github.com/discochess/tally/internal/archive"
	"github.com/discochess/tally/internal/archive/diskarchive"
	"github.com/discochess/tally/internal/harvest"
	"github.com/discochess/tally/internal/sink/sqlsink"
	"github.com/discochess/tally/internal/source/archivesource"
	"github.com/discochess/tally/internal/source/chesscom"
	"github.com/discochess/tally/internal/window"
)

func e2eUser() string {
	if u := os.Getenv("TALLY_E2E_USER"); u != "" {
		return u
	}
	return "hikaru"
}

func TestE2E_LiveAnalyze(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	api := chesscom.New(chesscom.DefaultConfig())
	if _, err := api.Profile(ctx, e2eUser()); err != nil {
		t.Skipf("Skipping: chess.com API unreachable: %v", err)
	}

	db, err := sqlsink.Open(ctx, sqlsink.SQLite, filepath.Join(t.TempDir(), "tally.db"))
	if err != nil {
		t.Fatalf("Error opening database: %v", err)
	}

	client, err := tally.New(
		tally.WithSource(api),
		tally.WithSink(db),
		tally.WithTargetCount(20),
	)
	if err != nil {
		t.Fatalf("Error creating client: %v", err)
	}
	defer client.Close()

	start := time.Now()
	a, err := client.Analyze(ctx, e2eUser())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	t.Logf("Analyzed %d games over %d months in %v", a.Report.Total, len(a.Buckets), time.Since(start))

	r := a.Report
	if r.Wins+r.Losses+r.Draws+r.Unknown() != r.Total {
		t.Errorf("outcomes do not add up: %+v", r)
	}
	if r.Total > 20 {
		t.Errorf("Total = %d, want at most 20", r.Total)
	}
	for i := 1; i < len(a.Games); i++ {
		if a.Games[i].EndTime > a.Games[i-1].EndTime {
			t.Fatalf("games not ordered most recent first at %d", i)
		}
	}
	if a.Stored == nil || a.Stored.TotalGames != r.Total {
		t.Errorf("Stored = %+v, want %d games", a.Stored, r.Total)
	}
}

func TestE2E_HarvestThenAnalyzeOffline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	api := chesscom.New(chesscom.DefaultConfig())
	if _, err := api.Profile(ctx, e2eUser()); err != nil {
		t.Skipf("Skipping: chess.com API unreachable: %v", err)
	}

	store, err := diskarchive.New(t.TempDir())
	if err != nil {
		t.Fatalf("Error creating archive: %v", err)
	}
	codec, err := archive.CodecByName(archive.CodecZstd)
	if err != nil {
		t.Fatalf("Error selecting codec: %v", err)
	}
	a := archive.New(store, codec)

	last := window.BucketOf(time.Now().AddDate(0, -1, 0))
	res, err := harvest.New(api, a).Harvest(ctx, e2eUser(), []window.Bucket{last})
	if err != nil {
		t.Fatalf("Harvest() error = %v", err)
	}
	if len(res.Archived) != 1 {
		t.Skipf("Skipping: month %s not archived (skipped %v)", last, res.Skipped)
	}

	online, err := api.FetchMonth(ctx, e2eUser(), last)
	if err != nil {
		t.Fatalf("FetchMonth() error = %v", err)
	}
	offline, err := archivesource.New(a).FetchMonth(ctx, e2eUser(), last)
	if err != nil {
		t.Fatalf("archived FetchMonth() error = %v", err)
	}
	if len(offline) != len(online) {
		t.Errorf("archived month has %d games, API has %d", len(offline), len(online))
	}
}

func TestE2E_PlanCommand(t *testing.T) {
	cmd := exec.Command("go", "run", "./cmd/tally", "plan", "--start", "2024-01-15", "--end", "2024-03-02")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			t.Fatalf("tally plan exited with %d", exitErr.ExitCode())
		}
		t.Fatalf("Error running tally plan: %v", err)
	}

	got := out.String()
	for _, want := range []string{"date range", "2024/01", "2024/02", "2024/03"} {
		if !strings.Contains(got, want) {
			t.Errorf("plan output missing %q:\n%s", want, got)
		}
	}
}
