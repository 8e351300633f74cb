// Package window plans which monthly archives to fetch for a subject and
// bounds games by an optional date range.
package window

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRange is returned when a range starts after it ends.
var ErrInvalidRange = errors.New("window: start date after end date")

// Bucket identifies one calendar month of archived games.
type Bucket struct {
	Year  int
	Month time.Month
}

// BucketOf returns the bucket containing t.
func BucketOf(t time.Time) Bucket {
	return Bucket{Year: t.Year(), Month: t.Month()}
}

// String formats the bucket as YYYY/MM, the layout used in archive URLs.
func (b Bucket) String() string {
	return fmt.Sprintf("%04d/%02d", b.Year, int(b.Month))
}

// MarshalText encodes the bucket as its String form.
func (b Bucket) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Before reports whether b is chronologically earlier than o.
func (b Bucket) Before(o Bucket) bool {
	if b.Year != o.Year {
		return b.Year < o.Year
	}
	return b.Month < o.Month
}

// Next returns the following calendar month.
func (b Bucket) Next() Bucket {
	if b.Month == time.December {
		return Bucket{Year: b.Year + 1, Month: time.January}
	}
	return Bucket{Year: b.Year, Month: b.Month + 1}
}

// DateRange bounds games by end time. A nil bound is open.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.Start == nil && r.End == nil
}

// Validate returns ErrInvalidRange when both bounds are set and Start is after End.
func (r DateRange) Validate() error {
	if r.Start != nil && r.End != nil && r.Start.After(*r.End) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidRange,
			r.Start.Format(time.DateTime), r.End.Format(time.DateTime))
	}
	return nil
}

// Contains reports whether t falls inside the range. Both ends are inclusive.
func (r DateRange) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

var layouts = []string{time.DateTime, "2006-01-02T15:04:05", time.RFC3339}

// ParseDate parses a date-only (YYYY-MM-DD) or date-time value in UTC.
// dateOnly reports which form was given.
func ParseDate(s string) (t time.Time, dateOnly bool, err error) {
	if t, err := time.ParseInLocation(time.DateOnly, s, time.UTC); err == nil {
		return t, true, nil
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), false, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("window: invalid date %q: want YYYY-MM-DD or YYYY-MM-DD HH:MM:SS", s)
}

// NewRange parses optional start and end values. Empty strings leave the
// bound open. A date-only end is widened to 23:59:59 of that day.
func NewRange(start, end string) (DateRange, error) {
	var r DateRange
	if start != "" {
		t, _, err := ParseDate(start)
		if err != nil {
			return DateRange{}, err
		}
		r.Start = &t
	}
	if end != "" {
		t, dateOnly, err := ParseDate(end)
		if err != nil {
			return DateRange{}, err
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Second)
		}
		r.End = &t
	}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}
