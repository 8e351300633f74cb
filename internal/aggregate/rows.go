package aggregate

import "sort"

// OpeningRow is one opening label with its counts.
type OpeningRow struct {
	Name string `json:"name"`
	OpeningStats
}

// OpeningsByCount returns openings ordered by games played, most first.
func (r Report) OpeningsByCount() []OpeningRow {
	rows := make([]OpeningRow, 0, len(r.Openings))
	for name, s := range r.Openings {
		rows = append(rows, OpeningRow{Name: name, OpeningStats: s})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

// TimeControlRow is one time control with its share of all games.
type TimeControlRow struct {
	TimeControl string  `json:"time_control"`
	Count       int     `json:"count"`
	// Share is count / total games.
	Share float64 `json:"share"`
}

// TimeControlsByCount returns time controls ordered by games played, most first.
func (r Report) TimeControlsByCount() []TimeControlRow {
	rows := make([]TimeControlRow, 0, len(r.TimeControls))
	for tc, n := range r.TimeControls {
		rows = append(rows, TimeControlRow{TimeControl: tc, Count: n, Share: Ratio(n, r.Total)})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].TimeControl < rows[j].TimeControl
	})
	return rows
}

// Summary is one row of a multi-subject comparison.
type Summary struct {
	Username    string   `json:"username"`
	Games       int      `json:"games"`
	Wins        int      `json:"wins"`
	Losses      int      `json:"losses"`
	Draws       int      `json:"draws"`
	WinRate     *float64 `json:"win_rate,omitempty"`
	Rating      *int     `json:"current_rating,omitempty"`
	OwnAccuracy *float64 `json:"own_accuracy,omitempty"`
}

// Summarize reduces a report to a comparison row.
func Summarize(username string, r Report) Summary {
	s := Summary{
		Username:    username,
		Games:       r.Total,
		Wins:        r.Wins,
		Losses:      r.Losses,
		Draws:       r.Draws,
		OwnAccuracy: r.OwnAccuracy,
	}
	if rate, ok := r.WinRate(); ok {
		s.WinRate = &rate
	}
	if r.Rating != nil {
		current := r.Rating.Current
		s.Rating = &current
	}
	return s
}

// Compare returns one summary per subject, highest win rate first.
// Subjects without games sort last.
func Compare(reports map[string]Report) []Summary {
	out := make([]Summary, 0, len(reports))
	for name, r := range reports {
		out = append(out, Summarize(name, r))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].WinRate, out[j].WinRate
		switch {
		case a == nil && b == nil:
			return out[i].Username < out[j].Username
		case a == nil:
			return false
		case b == nil:
			return true
		case *a != *b:
			return *a > *b
		}
		return out[i].Username < out[j].Username
	})
	return out
}
