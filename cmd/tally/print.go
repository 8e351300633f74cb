package main

import (
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/discochess/tally"
	"github.com/discochess/tally/internal/aggregate"
	"github.com/discochess/tally/internal/source/chesscom"
)

const rule = "============================================================"

// percent returns count / total scaled for display.
func percent(count, total int) float64 {
	return 100 * aggregate.Ratio(count, total)
}

func printAnalysisText(w io.Writer, a *tally.Analysis, profile *chesscom.Profile, recent int) {
	r := a.Report

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Player: %s\n", a.Username)
	if profile != nil {
		if profile.Name != "" {
			fmt.Fprintf(w, "Name:   %s\n", profile.Name)
		}
		if profile.Title != "" {
			fmt.Fprintf(w, "Title:  %s\n", profile.Title)
		}
		if profile.Joined > 0 {
			fmt.Fprintf(w, "Joined: %s\n", time.Unix(profile.Joined, 0).UTC().Format(time.DateOnly))
		}
	}
	fmt.Fprintln(w, rule)

	if len(a.FailedBuckets) > 0 {
		names := make([]string, len(a.FailedBuckets))
		for i, b := range a.FailedBuckets {
			names[i] = b.String()
		}
		fmt.Fprintf(w, "Skipped months: %s\n", strings.Join(names, ", "))
	}
	if r.Total == 0 {
		fmt.Fprintln(w, "No games found.")
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintln(w, "\nOverall:")
	fmt.Fprintf(w, "  Games:   %d\n", r.Total)
	fmt.Fprintf(w, "  Wins:    %d (%.1f%%)\n", r.Wins, percent(r.Wins, r.Total))
	fmt.Fprintf(w, "  Losses:  %d (%.1f%%)\n", r.Losses, percent(r.Losses, r.Total))
	fmt.Fprintf(w, "  Draws:   %d (%.1f%%)\n", r.Draws, percent(r.Draws, r.Total))
	if u := r.Unknown(); u > 0 {
		fmt.Fprintf(w, "  Unknown: %d\n", u)
	}

	if rt := r.Rating; rt != nil {
		fmt.Fprintln(w, "\nRating:")
		fmt.Fprintf(w, "  Current: %d\n", rt.Current)
		fmt.Fprintf(w, "  Highest: %d\n", rt.Highest)
		fmt.Fprintf(w, "  Lowest:  %d\n", rt.Lowest)
		fmt.Fprintf(w, "  Average: %.1f\n", rt.Average)
		fmt.Fprintf(w, "  Change:  %+d\n", rt.Change)
	}

	fmt.Fprintln(w, "\nTime controls:")
	for _, tc := range r.TimeControlsByCount() {
		fmt.Fprintf(w, "  %-10s %4d games (%.1f%%)\n", tc.TimeControl, tc.Count, 100*tc.Share)
	}

	fmt.Fprintln(w, "\nOpenings:")
	for _, o := range r.OpeningsByCount() {
		fmt.Fprintf(w, "  %-32s %4d games (win rate %.1f%%)\n", o.Name, o.Count, 100*o.WinRate())
	}

	if r.AccuracyWhite != nil || r.AccuracyBlack != nil {
		fmt.Fprintln(w, "\nAccuracy:")
		if r.AccuracyWhite != nil {
			fmt.Fprintf(w, "  White: %.1f%%\n", *r.AccuracyWhite)
		}
		if r.AccuracyBlack != nil {
			fmt.Fprintf(w, "  Black: %.1f%%\n", *r.AccuracyBlack)
		}
		if r.OwnAccuracy != nil {
			fmt.Fprintf(w, "  Own:   %.1f%%\n", *r.OwnAccuracy)
		}
	}

	if st := a.Stored; st != nil {
		fmt.Fprintln(w, "\nStored history:")
		fmt.Fprintf(w, "  Games: %d (%d W / %d L / %d D)\n", st.TotalGames, st.Wins, st.Losses, st.Draws)
		if st.HighestRating != nil {
			fmt.Fprintf(w, "  Highest rating: %d\n", *st.HighestRating)
		}
	}

	if recent > 0 {
		fmt.Fprintln(w, "\nRecent games:")
		fmt.Fprintf(w, "  %-10s %-16s %-6s %-7s %-6s %s\n", "Date", "Opponent", "Color", "Result", "Rating", "Opening")
		for i, g := range a.Games {
			if i == recent {
				break
			}
			rating := "-"
			if g.Rating != nil {
				rating = fmt.Sprint(*g.Rating)
			}
			fmt.Fprintf(w, "  %-10s %-16s %-6s %-7s %-6s %s\n",
				g.EndedAt().Format(time.DateOnly), g.OpponentUsername, g.Color, g.Result, rating, g.OpeningName)
		}
	}
	fmt.Fprintln(w)
}

func printComparison(w io.Writer, results []*tally.Analysis) {
	reports := make(map[string]aggregate.Report, len(results))
	for _, a := range results {
		if a != nil {
			reports[a.Username] = a.Report
		}
	}
	if len(reports) < 2 {
		return
	}

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Comparison")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  %-20s %6s %9s %7s\n", "Player", "Games", "Win rate", "Rating")
	for _, s := range aggregate.Compare(reports) {
		rate, rating := "-", "-"
		if s.WinRate != nil {
			rate = fmt.Sprintf("%.1f%%", 100 * *s.WinRate)
		}
		if s.Rating != nil {
			rating = fmt.Sprint(*s.Rating)
		}
		fmt.Fprintf(w, "  %-20s %6d %9s %7s\n", s.Username, s.Games, rate, rating)
	}
	fmt.Fprintln(w)
}

// analysisJSON is the --json shape of one analysis.
type analysisJSON struct {
	*tally.Analysis
	Openings     []aggregate.OpeningRow     `json:"openings"`
	TimeControls []aggregate.TimeControlRow `json:"time_controls"`
	WinRate      *float64                   `json:"win_rate,omitempty"`
}

func printAnalysesJSON(w io.Writer, results []*tally.Analysis) error {
	out := make([]analysisJSON, 0, len(results))
	for _, a := range results {
		if a == nil {
			continue
		}
		v := analysisJSON{
			Analysis:     a,
			Openings:     a.Report.OpeningsByCount(),
			TimeControls: a.Report.TimeControlsByCount(),
		}
		if rate, ok := a.Report.WinRate(); ok {
			v.WinRate = &rate
		}
		out = append(out, v)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printProfile(w io.Writer, p *chesscom.Profile, st *chesscom.PlayerStats) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Player: %s\n", p.Username)
	if p.Name != "" {
		fmt.Fprintf(w, "Name:   %s\n", p.Name)
	}
	if p.Title != "" {
		fmt.Fprintf(w, "Title:  %s\n", p.Title)
	}
	if p.Country != "" {
		fmt.Fprintf(w, "Country: %s\n", path.Base(p.Country))
	}
	fmt.Fprintf(w, "Followers: %d\n", p.Followers)
	if p.Joined > 0 {
		fmt.Fprintf(w, "Joined: %s\n", time.Unix(p.Joined, 0).UTC().Format(time.DateOnly))
	}
	if p.LastOnline > 0 {
		fmt.Fprintf(w, "Last online: %s\n", time.Unix(p.LastOnline, 0).UTC().Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(w, rule)
	if st == nil {
		return
	}

	for _, m := range st.Modes() {
		fmt.Fprintf(w, "\n%s:\n", m.Name)
		if m.Last != nil {
			fmt.Fprintf(w, "  Current: %d\n", m.Last.Rating)
		}
		if m.Best != nil {
			fmt.Fprintf(w, "  Best:    %d on %s\n", m.Best.Rating,
				time.Unix(m.Best.Date, 0).UTC().Format(time.DateOnly))
		}
		if rec := m.Record; rec != nil {
			fmt.Fprintf(w, "  Record:  %d W / %d L / %d D (%.1f%%)\n",
				rec.Win, rec.Loss, rec.Draw, percent(rec.Win, rec.Total()))
		}
	}
	if pr := st.PuzzleRush; pr != nil && pr.Best != nil {
		fmt.Fprintln(w, "\nPuzzle rush:")
		fmt.Fprintf(w, "  Best score: %d (%d attempts)\n", pr.Best.Score, pr.Best.TotalAttempts)
	}
	fmt.Fprintln(w)
}

func printLeaderboards(w io.Writer, lb chesscom.Leaderboards, categories []string, top int) {
	for _, c := range categories {
		entries := lb.Top(c, top)
		if len(entries) == 0 {
			continue
		}
		fmt.Fprintf(w, "Top %s:\n", c)
		for i, e := range entries {
			name := e.Username
			if e.Title != "" {
				name = e.Title + " " + name
			}
			fmt.Fprintf(w, "  %2d. %-24s %d\n", i+1, name, e.Score)
		}
		fmt.Fprintln(w)
	}
}
