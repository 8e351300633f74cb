// Package game defines the game records that flow through the analysis pipeline.
package game

import "time"

// Color is the side a player had in a game.
type Color string

// Colors.
const (
	White Color = "white"
	Black Color = "black"
)

// Result is a game outcome from one player's perspective.
type Result string

// Results.
const (
	Win     Result = "Win"
	Loss    Result = "Loss"
	Draw    Result = "Draw"
	Unknown Result = "Unknown"
)

// DefaultRules is the variant assumed when a payload omits it.
const DefaultRules = "chess"

// Side is one player's half of a raw game.
type Side struct {
	Username string `json:"username"`
	Rating   *int   `json:"rating,omitempty"`
	// Result is the provider's raw result token, e.g. "win" or "resigned".
	Result string `json:"result"`
}

// Raw is a game exactly as the provider reported it.
type Raw struct {
	GameID        string   `json:"game_id"`
	URL           string   `json:"url,omitempty"`
	White         Side     `json:"white"`
	Black         Side     `json:"black"`
	EndTime       int64    `json:"end_time"`
	TimeControl   string   `json:"time_control"`
	Rated         bool     `json:"rated"`
	Rules         string   `json:"rules"`
	PGN           string   `json:"pgn,omitempty"`
	AccuracyWhite *float64 `json:"accuracy_white,omitempty"`
	AccuracyBlack *float64 `json:"accuracy_black,omitempty"`
}

// EndedAt returns the game's end time in UTC.
func (r Raw) EndedAt() time.Time {
	return time.Unix(r.EndTime, 0).UTC()
}

// Analyzed is a game seen from a single subject's side of the board.
type Analyzed struct {
	GameID           string   `json:"game_id"`
	URL              string   `json:"url,omitempty"`
	EndTime          int64    `json:"end_time"`
	Color            Color    `json:"color"`
	Rating           *int     `json:"rating,omitempty"`
	OpponentUsername string   `json:"opponent_username"`
	OpponentRating   *int     `json:"opponent_rating,omitempty"`
	Result           Result   `json:"result"`
	Termination      string   `json:"termination"`
	TimeControl      string   `json:"time_control"`
	Rated            bool     `json:"rated"`
	Rules            string   `json:"rules"`
	OpeningMoves     string   `json:"opening_moves"`
	OpeningName      string   `json:"opening_name"`
	OpeningFEN       string   `json:"opening_fen,omitempty"`
	AccuracyWhite    *float64 `json:"accuracy_white,omitempty"`
	AccuracyBlack    *float64 `json:"accuracy_black,omitempty"`
	PGN              string   `json:"-"`
}

// EndedAt returns the game's end time in UTC.
func (a Analyzed) EndedAt() time.Time {
	return time.Unix(a.EndTime, 0).UTC()
}

// Accuracy returns the subject's own accuracy, if the provider reported one.
func (a Analyzed) Accuracy() *float64 {
	if a.Color == White {
		return a.AccuracyWhite
	}
	return a.AccuracyBlack
}
