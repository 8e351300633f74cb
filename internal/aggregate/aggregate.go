// Package aggregate folds analyzed games into summary statistics.
package aggregate

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/discochess/tally/internal/game"
)

// RatingPoint is the subject's rating after one game.
type RatingPoint struct {
	EndTime int64 `json:"end_time"`
	Rating  int   `json:"rating"`
}

// Rating summarizes the subject's rating series.
type Rating struct {
	Current int     `json:"current"`
	Highest int     `json:"highest"`
	Lowest  int     `json:"lowest"`
	Average float64 `json:"average"`
	// Change is last minus first, or zero with fewer than two points.
	Change int     `json:"change"`
	StdDev float64 `json:"std_dev"`
}

// OpeningStats counts outcomes for one opening label.
type OpeningStats struct {
	Count  int `json:"count"`
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

// WinRate returns wins / count for the opening.
func (o OpeningStats) WinRate() float64 {
	return Ratio(o.Wins, o.Count)
}

// Report is the aggregate view over one subject's analyzed games.
type Report struct {
	Total  int `json:"total"`
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`

	// Series holds rated games in ascending end time.
	Series []RatingPoint `json:"series,omitempty"`
	// Rating is nil when no game carried a rating.
	Rating *Rating `json:"rating,omitempty"`

	Openings     map[string]OpeningStats `json:"openings"`
	TimeControls map[string]int          `json:"time_controls"`

	// AccuracyWhite and AccuracyBlack pool every game's white and black
	// accuracy, whichever side the subject played.
	AccuracyWhite *float64 `json:"accuracy_white,omitempty"`
	AccuracyBlack *float64 `json:"accuracy_black,omitempty"`
	// OwnAccuracy averages only the subject's own side.
	OwnAccuracy *float64 `json:"own_accuracy,omitempty"`
}

// Unknown returns games whose outcome could not be classified.
func (r Report) Unknown() int {
	return r.Total - r.Wins - r.Losses - r.Draws
}

// WinRate returns wins / total in [0, 1]. ok is false when no games were
// analyzed.
func (r Report) WinRate() (rate float64, ok bool) {
	if r.Total == 0 {
		return 0, false
	}
	return Ratio(r.Wins, r.Total), true
}

// Ratio returns count / total, or zero when total is zero.
func Ratio(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}

// Aggregate computes a Report over games.
func Aggregate(games []game.Analyzed) Report {
	r := Report{
		Total:        len(games),
		Openings:     make(map[string]OpeningStats),
		TimeControls: make(map[string]int),
	}

	var white, black, own []float64
	for _, g := range games {
		o := r.Openings[g.OpeningName]
		o.Count++
		switch g.Result {
		case game.Win:
			r.Wins++
			o.Wins++
		case game.Loss:
			r.Losses++
			o.Losses++
		case game.Draw:
			r.Draws++
			o.Draws++
		}
		r.Openings[g.OpeningName] = o
		r.TimeControls[g.TimeControl]++

		if g.Rating != nil {
			r.Series = append(r.Series, RatingPoint{EndTime: g.EndTime, Rating: *g.Rating})
		}
		if g.AccuracyWhite != nil {
			white = append(white, *g.AccuracyWhite)
		}
		if g.AccuracyBlack != nil {
			black = append(black, *g.AccuracyBlack)
		}
		if a := g.Accuracy(); a != nil {
			own = append(own, *a)
		}
	}

	sort.SliceStable(r.Series, func(i, j int) bool {
		return r.Series[i].EndTime < r.Series[j].EndTime
	})
	r.Rating = summarize(r.Series)
	r.AccuracyWhite = mean(white)
	r.AccuracyBlack = mean(black)
	r.OwnAccuracy = mean(own)
	return r
}

func summarize(series []RatingPoint) *Rating {
	if len(series) == 0 {
		return nil
	}
	xs := make([]float64, len(series))
	for i, p := range series {
		xs[i] = float64(p.Rating)
	}

	first, last := series[0].Rating, series[len(series)-1].Rating
	out := &Rating{
		Current: last,
		Highest: int(floats.Max(xs)),
		Lowest:  int(floats.Min(xs)),
		Average: stat.Mean(xs, nil),
	}
	if len(series) >= 2 {
		out.Change = last - first
		out.StdDev = stat.StdDev(xs, nil)
	}
	return out
}

func mean(xs []float64) *float64 {
	if len(xs) == 0 {
		return nil
	}
	m := stat.Mean(xs, nil)
	return &m
}
