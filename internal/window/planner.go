package window

import "time"

const (
	// MaxBuckets caps how many months an unfiltered plan walks back.
	MaxBuckets = 12

	// StepDays is the approximate month length used when walking back.
	StepDays = 30
)

// Planner emits the month buckets to fetch for one analysis run.
//
// With an empty range the planner walks back from now in StepDays steps and
// stops once the caller has accumulated target games or MaxBuckets buckets
// were emitted. Consecutive steps can land in the same calendar month; such
// buckets are emitted as-is. With any bound set, the planner emits every
// calendar month between the bounds in ascending order.
type Planner struct {
	now      time.Time
	target   int
	filtered bool
	buckets  []Bucket
	next     int
}

// NewPlanner returns a planner for a run started at now. Range defaults
// are applied in filtered mode: start defaults to one year before now and
// end defaults to now. It returns ErrInvalidRange before anything is planned.
func NewPlanner(now time.Time, target int, r DateRange) (*Planner, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	p := &Planner{now: now, target: target, filtered: !r.IsZero()}
	if !p.filtered {
		return p, nil
	}

	start := now.AddDate(-1, 0, 0)
	if r.Start != nil {
		start = *r.Start
	}
	end := now
	if r.End != nil {
		end = *r.End
	}
	if err := (DateRange{Start: &start, End: &end}).Validate(); err != nil {
		return nil, err
	}
	last := BucketOf(end)
	for b := BucketOf(start); !last.Before(b); b = b.Next() {
		p.buckets = append(p.buckets, b)
	}
	return p, nil
}

// Filtered reports whether the planner runs in date-range mode.
func (p *Planner) Filtered() bool {
	return p.filtered
}

// Next returns the next bucket to fetch. accumulated is the number of games
// fetched so far; it only matters in unfiltered mode.
func (p *Planner) Next(accumulated int) (Bucket, bool) {
	if p.filtered {
		if p.next >= len(p.buckets) {
			return Bucket{}, false
		}
		b := p.buckets[p.next]
		p.next++
		return b, true
	}

	if p.next >= MaxBuckets {
		return Bucket{}, false
	}
	if p.target > 0 && accumulated >= p.target {
		return Bucket{}, false
	}
	b := BucketOf(p.now.AddDate(0, 0, -StepDays*p.next))
	p.next++
	return b, true
}

// Buckets returns the full plan, ignoring the count-based stop.
func (p *Planner) Buckets() []Bucket {
	if p.filtered {
		return append([]Bucket(nil), p.buckets...)
	}
	out := make([]Bucket, 0, MaxBuckets)
	for i := 0; i < MaxBuckets; i++ {
		out = append(out, BucketOf(p.now.AddDate(0, 0, -StepDays*i)))
	}
	return out
}
