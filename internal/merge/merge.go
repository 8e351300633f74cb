// Package merge reconciles per-month game batches into one ordered window.
package merge

import (
	"sort"

	"github.com/discochess/tally/internal/game"
	"github.com/discochess/tally/internal/window"
)

// Options controls how batches are merged.
type Options struct {
	// Range filters games by end time. Both ends are inclusive.
	Range window.DateRange

	// Target truncates the result to the most recent Target games.
	// Zero or less keeps every game.
	Target int

	// Dedupe drops repeated game IDs, keeping the first after sorting.
	Dedupe bool
}

// Merge concatenates batches, filters by range, sorts by end time
// descending and truncates to the target.
func Merge(batches [][]game.Raw, opts Options) []game.Raw {
	n := 0
	for _, b := range batches {
		n += len(b)
	}

	out := make([]game.Raw, 0, n)
	for _, batch := range batches {
		for _, g := range batch {
			if !opts.Range.Contains(g.EndedAt()) {
				continue
			}
			out = append(out, g)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EndTime > out[j].EndTime
	})

	if opts.Dedupe {
		out = dedupe(out)
	}

	if opts.Target > 0 && len(out) > opts.Target {
		out = out[:opts.Target]
	}
	return out
}

func dedupe(games []game.Raw) []game.Raw {
	seen := make(map[string]struct{}, len(games))
	out := games[:0]
	for _, g := range games {
		if g.GameID != "" {
			if _, ok := seen[g.GameID]; ok {
				continue
			}
			seen[g.GameID] = struct{}{}
		}
		out = append(out, g)
	}
	return out
}
