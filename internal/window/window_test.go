package window

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func mustRange(t *testing.T, start, end string) DateRange {
	t.Helper()
	r, err := NewRange(start, end)
	if err != nil {
		t.Fatalf("NewRange(%q, %q) error = %v", start, end, err)
	}
	return r
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in       string
		want     time.Time
		dateOnly bool
		wantErr  bool
	}{
		{"2024-01-31", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), true, false},
		{"2024-01-31 12:30:00", time.Date(2024, 1, 31, 12, 30, 0, 0, time.UTC), false, false},
		{"2024-01-31T12:30:00", time.Date(2024, 1, 31, 12, 30, 0, 0, time.UTC), false, false},
		{"2024-01-31T12:30:00Z", time.Date(2024, 1, 31, 12, 30, 0, 0, time.UTC), false, false},
		{"31/01/2024", time.Time{}, false, true},
		{"", time.Time{}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, dateOnly, err := ParseDate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if dateOnly != tt.dateOnly {
				t.Errorf("ParseDate(%q) dateOnly = %v, want %v", tt.in, dateOnly, tt.dateOnly)
			}
		})
	}
}

func TestNewRange_EndOfDay(t *testing.T) {
	r := mustRange(t, "2024-01-01", "2024-01-31")

	inside := time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC)
	if !r.Contains(inside) {
		t.Errorf("Contains(%v) = false, want true", inside)
	}
	lastSecond := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)
	if !r.Contains(lastSecond) {
		t.Errorf("Contains(%v) = false, want true", lastSecond)
	}
	outside := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if r.Contains(outside) {
		t.Errorf("Contains(%v) = true, want false", outside)
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !r.Contains(start) {
		t.Errorf("Contains(%v) = false, want true", start)
	}
}

func TestNewRange_Invalid(t *testing.T) {
	_, err := NewRange("2024-03-01", "2024-02-01")
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("NewRange() error = %v, want ErrInvalidRange", err)
	}

	_, err = NewRange("yesterday", "")
	if err == nil {
		t.Error("NewRange() with bad start should fail")
	}
}

func TestBucket(t *testing.T) {
	b := Bucket{Year: 2023, Month: time.December}
	if got := b.String(); got != "2023/12" {
		t.Errorf("String() = %q, want %q", got, "2023/12")
	}
	next := b.Next()
	if next != (Bucket{Year: 2024, Month: time.January}) {
		t.Errorf("Next() = %v, want 2024/01", next)
	}
	if !b.Before(next) || next.Before(b) {
		t.Errorf("Before() ordering broken for %v and %v", b, next)
	}
}

func TestPlanner_Unfiltered(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	p, err := NewPlanner(now, 50, DateRange{})
	if err != nil {
		t.Fatalf("NewPlanner() error = %v", err)
	}
	if p.Filtered() {
		t.Fatal("Filtered() = true, want false")
	}

	// 20 games per month reaches 50 after the third bucket.
	var got []Bucket
	accumulated := 0
	for {
		b, ok := p.Next(accumulated)
		if !ok {
			break
		}
		got = append(got, b)
		accumulated += 20
	}

	want := []Bucket{{2024, time.June}, {2024, time.May}, {2024, time.April}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("planned %v, want %v", got, want)
	}
}

func TestPlanner_UnfilteredCap(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	p, err := NewPlanner(now, 1000, DateRange{})
	if err != nil {
		t.Fatalf("NewPlanner() error = %v", err)
	}

	n := 0
	for {
		if _, ok := p.Next(0); !ok {
			break
		}
		n++
	}
	if n != MaxBuckets {
		t.Errorf("emitted %d buckets, want %d", n, MaxBuckets)
	}
}

func TestPlanner_UnfilteredRepeatsMonth(t *testing.T) {
	// March 31 minus 30 days is March 1.
	now := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	p, err := NewPlanner(now, 100, DateRange{})
	if err != nil {
		t.Fatalf("NewPlanner() error = %v", err)
	}

	first, _ := p.Next(0)
	second, _ := p.Next(0)
	if first != second {
		t.Errorf("Next() = %v then %v, want the same month twice", first, second)
	}
}

func TestPlanner_Filtered(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		start     string
		end       string
		wantFirst Bucket
		wantLast  Bucket
		wantLen   int
	}{
		{
			name:      "both bounds",
			start:     "2024-01-15",
			end:       "2024-03-10",
			wantFirst: Bucket{2024, time.January},
			wantLast:  Bucket{2024, time.March},
			wantLen:   3,
		},
		{
			name:      "end only defaults start to a year ago",
			end:       "2024-06-15",
			wantFirst: Bucket{2023, time.June},
			wantLast:  Bucket{2024, time.June},
			wantLen:   13,
		},
		{
			name:      "start only defaults end to now",
			start:     "2024-04-02",
			wantFirst: Bucket{2024, time.April},
			wantLast:  Bucket{2024, time.June},
			wantLen:   3,
		},
		{
			name:      "single month",
			start:     "2024-01-01",
			end:       "2024-01-31",
			wantFirst: Bucket{2024, time.January},
			wantLast:  Bucket{2024, time.January},
			wantLen:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPlanner(now, 10, mustRange(t, tt.start, tt.end))
			if err != nil {
				t.Fatalf("NewPlanner() error = %v", err)
			}

			var got []Bucket
			for {
				// A large accumulated count must not stop a filtered plan.
				b, ok := p.Next(1 << 20)
				if !ok {
					break
				}
				got = append(got, b)
			}
			if len(got) != tt.wantLen {
				t.Fatalf("planned %d buckets (%v), want %d", len(got), got, tt.wantLen)
			}
			if got[0] != tt.wantFirst || got[len(got)-1] != tt.wantLast {
				t.Errorf("planned %v..%v, want %v..%v", got[0], got[len(got)-1], tt.wantFirst, tt.wantLast)
			}
			if !reflect.DeepEqual(p.Buckets(), got) {
				t.Errorf("Buckets() = %v, want %v", p.Buckets(), got)
			}
		})
	}
}

func TestPlanner_StartAfterDefaultEnd(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	_, err := NewPlanner(now, 10, mustRange(t, "2025-01-01", ""))
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("NewPlanner() error = %v, want ErrInvalidRange", err)
	}
}

func TestPlanner_InvalidRange(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	_, err := NewPlanner(time.Now(), 10, DateRange{Start: &start, End: &end})
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("NewPlanner() error = %v, want ErrInvalidRange", err)
	}
}
