package harvest

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/discochess/tally/internal/archive"
	"github.com/discochess/tally/internal/archive/memarchive"
	"github.com/discochess/tally/internal/window"
)

type fakeFetcher struct {
	payloads map[window.Bucket][]byte
	err      error
}

func (f *fakeFetcher) FetchMonthRaw(ctx context.Context, username string, b window.Bucket) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, ok := f.payloads[b]
	if !ok {
		return nil, f.err
	}
	return data, nil
}

func TestHarvest(t *testing.T) {
	ctx := context.Background()
	jan := window.Bucket{Year: 2024, Month: time.January}
	feb, mar := jan.Next(), jan.Next().Next()

	f := &fakeFetcher{
		payloads: map[window.Bucket][]byte{
			jan: []byte(`{"games":[]}`),
			mar: []byte(`{"games":[{}]}`),
		},
		err: errors.New("HTTP 502"),
	}
	store := memarchive.New()
	a := archive.New(store, nil)
	fixed := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	var phases []string
	h := New(f, a,
		WithWorkers(2),
		WithSourceName("chess.com"),
		WithClock(func() time.Time { return fixed }),
		WithProgress(func(p Progress) { phases = append(phases, p.Phase) }),
	)

	res, err := h.Harvest(ctx, "Alice", []window.Bucket{jan, feb, mar})
	if err != nil {
		t.Fatalf("Harvest() error = %v", err)
	}
	if len(res.Archived) != 2 || res.Archived[0] != jan || res.Archived[1] != mar {
		t.Errorf("Archived = %v, want [jan mar]", res.Archived)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != feb {
		t.Errorf("Skipped = %v, want [feb]", res.Skipped)
	}
	if res.Bytes != int64(len(`{"games":[]}`)+len(`{"games":[{}]}`)) {
		t.Errorf("Bytes = %d", res.Bytes)
	}
	if len(phases) != 4 || phases[3] != PhaseDone {
		t.Errorf("progress phases = %v", phases)
	}

	data, err := a.ReadMonth(ctx, "alice", mar)
	if err != nil {
		t.Fatalf("ReadMonth() error = %v", err)
	}
	if string(data) != `{"games":[{}]}` {
		t.Errorf("ReadMonth() = %s", data)
	}

	m, err := a.ReadManifest(ctx, "alice")
	if err != nil {
		t.Fatalf("ReadManifest() error = %v", err)
	}
	if strings.Join(m.Months, ",") != "2024/01,2024/03" {
		t.Errorf("Months = %v", m.Months)
	}
	if m.Source != "chess.com" || !m.UpdatedAt.Equal(fixed) {
		t.Errorf("manifest = %+v", m)
	}

	// A second run merges months into the existing manifest.
	f.payloads[feb] = []byte(`{"games":[]}`)
	if _, err := h.Harvest(ctx, "alice", []window.Bucket{feb}); err != nil {
		t.Fatalf("Harvest() second run error = %v", err)
	}
	m, err = a.ReadManifest(ctx, "alice")
	if err != nil {
		t.Fatalf("ReadManifest() error = %v", err)
	}
	if strings.Join(m.Months, ",") != "2024/01,2024/02,2024/03" {
		t.Errorf("Months after merge = %v", m.Months)
	}
}

func TestHarvest_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jan := window.Bucket{Year: 2024, Month: time.January}
	h := New(&fakeFetcher{err: errors.New("unused")}, archive.New(memarchive.New(), nil))
	if _, err := h.Harvest(ctx, "alice", []window.Bucket{jan}); !errors.Is(err, context.Canceled) {
		t.Errorf("Harvest() error = %v, want context.Canceled", err)
	}
}

func TestWriterProgress(t *testing.T) {
	var buf bytes.Buffer
	fn := WriterProgress(&buf)
	fn(Progress{Phase: PhaseFetch, Username: "alice",
		Bucket: window.Bucket{Year: 2024, Month: time.May}, MonthsDone: 1, MonthsTotal: 3})
	if got := buf.String(); got != "[Fetch] alice 2024/05 (1 / 3)\n" {
		t.Errorf("output = %q", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 << 20, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
