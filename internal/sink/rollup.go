package sink

import (
	"sort"
	"time"

	"github.com/discochess/tally/internal/game"
)

// Rollup computes a user's statistics from stored records. It is the
// in-process equivalent of the SQL rollup used by sqlsink.
func Rollup(username string, records []Record, now time.Time) *UserStatistics {
	s := &UserStatistics{Username: Key(username), LastUpdated: now}

	var whiteSum, blackSum float64
	var whiteN, blackN int
	var latest string
	for _, r := range records {
		s.TotalGames++
		switch game.Result(r.Result) {
		case game.Win:
			s.Wins++
		case game.Loss:
			s.Losses++
		case game.Draw:
			s.Draws++
		}
		if r.AccuracyWhite != nil {
			whiteSum += *r.AccuracyWhite
			whiteN++
		}
		if r.AccuracyBlack != nil {
			blackSum += *r.AccuracyBlack
			blackN++
		}
		if r.PlayerRating != nil {
			if s.HighestRating == nil || *r.PlayerRating > *s.HighestRating {
				v := *r.PlayerRating
				s.HighestRating = &v
			}
			if s.CurrentRating == nil || r.GameDate > latest {
				v := *r.PlayerRating
				s.CurrentRating = &v
				latest = r.GameDate
			}
		}
	}
	if whiteN > 0 {
		v := whiteSum / float64(whiteN)
		s.AvgAccuracyWhite = &v
	}
	if blackN > 0 {
		v := blackSum / float64(blackN)
		s.AvgAccuracyBlack = &v
	}
	return s
}

// SortRecords orders records by game date, most recent first.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].GameDate > records[j].GameDate
	})
}
