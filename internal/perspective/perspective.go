// Package perspective reinterprets raw games from one subject's side.
package perspective

import (
	"strings"

	"github.com/discochess/tally/internal/game"
	"github.com/discochess/tally/internal/openings"
	"github.com/discochess/tally/internal/pgn"
)

var results = map[string]game.Result{
	"win":          game.Win,
	"checkmated":   game.Loss,
	"resigned":     game.Loss,
	"timeout":      game.Loss,
	"abandoned":    game.Loss,
	"agreed":       game.Draw,
	"repetition":   game.Draw,
	"stalemate":    game.Draw,
	"insufficient": game.Draw,
}

// ClassifyResult maps a side's raw result token to a canonical result.
// Unlisted tokens, such as "timevsinsufficient", map to game.Unknown.
func ClassifyResult(token string) game.Result {
	if r, ok := results[token]; ok {
		return r
	}
	return game.Unknown
}

// Normalize views raw from subject's side. It reports false when subject
// played neither side.
func Normalize(raw game.Raw, subject string) (game.Analyzed, bool) {
	var self, opp game.Side
	var color game.Color
	switch {
	case strings.EqualFold(raw.White.Username, subject):
		self, opp, color = raw.White, raw.Black, game.White
	case strings.EqualFold(raw.Black.Username, subject):
		self, opp, color = raw.Black, raw.White, game.Black
	default:
		return game.Analyzed{}, false
	}

	rules := raw.Rules
	if rules == "" {
		rules = game.DefaultRules
	}

	prefix := pgn.OpeningPrefix(raw.PGN)
	a := game.Analyzed{
		GameID:           raw.GameID,
		URL:              raw.URL,
		EndTime:          raw.EndTime,
		Color:            color,
		Rating:           self.Rating,
		OpponentUsername: opp.Username,
		OpponentRating:   opp.Rating,
		Result:           ClassifyResult(self.Result),
		Termination:      self.Result,
		TimeControl:      raw.TimeControl,
		Rated:            raw.Rated,
		Rules:            rules,
		OpeningMoves:     prefix,
		OpeningName:      openings.Label(prefix),
		OpeningFEN:       pgn.OpeningFEN(prefix),
		AccuracyWhite:    raw.AccuracyWhite,
		AccuracyBlack:    raw.AccuracyBlack,
		PGN:              raw.PGN,
	}
	return a, true
}
