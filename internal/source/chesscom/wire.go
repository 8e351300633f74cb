package chesscom

import (
	"fmt"
	"path"

	"github.com/goccy/go-json"

	"github.com/discochess/tally/internal/game"
	"github.com/discochess/tally/internal/pgn"
)

type monthPayload struct {
	Games []wireGame `json:"games"`
}

type wireSide struct {
	Username string `json:"username"`
	Rating   *int   `json:"rating"`
	Result   string `json:"result"`
}

type wireGame struct {
	URL         string   `json:"url"`
	PGN         string   `json:"pgn"`
	TimeControl string   `json:"time_control"`
	EndTime     int64    `json:"end_time"`
	Rated       bool     `json:"rated"`
	UUID        string   `json:"uuid"`
	Rules       string   `json:"rules"`
	White       wireSide `json:"white"`
	Black       wireSide `json:"black"`
	Accuracies  *struct {
		White *float64 `json:"white"`
		Black *float64 `json:"black"`
	} `json:"accuracies"`
}

// DecodeMonth decodes a chess.com monthly archive payload.
func DecodeMonth(data []byte) ([]game.Raw, error) {
	var p monthPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding month payload: %w", err)
	}
	out := make([]game.Raw, 0, len(p.Games))
	for _, g := range p.Games {
		out = append(out, g.raw())
	}
	return out, nil
}

func (g wireGame) raw() game.Raw {
	r := game.Raw{
		GameID:      g.UUID,
		URL:         g.URL,
		White:       game.Side(g.White),
		Black:       game.Side(g.Black),
		EndTime:     g.EndTime,
		TimeControl: g.TimeControl,
		Rated:       g.Rated,
		Rules:       g.Rules,
		PGN:         g.PGN,
	}
	if r.GameID == "" && g.URL != "" {
		r.GameID = path.Base(g.URL)
	}
	if r.Rules == "" {
		r.Rules = game.DefaultRules
	}
	if g.Accuracies != nil {
		r.AccuracyWhite = g.Accuracies.White
		r.AccuracyBlack = g.Accuracies.Black
	}
	// Older payloads only carry accuracy in the PGN headers.
	if r.AccuracyWhite == nil {
		r.AccuracyWhite = pgn.Accuracy(g.PGN, game.White)
	}
	if r.AccuracyBlack == nil {
		r.AccuracyBlack = pgn.Accuracy(g.PGN, game.Black)
	}
	return r
}

// Profile is a chess.com player profile.
type Profile struct {
	Username   string `json:"username"`
	Name       string `json:"name,omitempty"`
	Title      string `json:"title,omitempty"`
	Country    string `json:"country,omitempty"`
	Followers  int    `json:"followers"`
	Joined     int64  `json:"joined"`
	LastOnline int64  `json:"last_online"`
	Status     string `json:"status,omitempty"`
}

// RatingPoint is a rating at a moment in time.
type RatingPoint struct {
	Rating int    `json:"rating"`
	Date   int64  `json:"date"`
	RD     int    `json:"rd,omitempty"`
	Game   string `json:"game,omitempty"`
}

// ModeRecord is a win/loss/draw count for one game mode.
type ModeRecord struct {
	Win  int `json:"win"`
	Loss int `json:"loss"`
	Draw int `json:"draw"`
}

// Total returns the number of recorded games.
func (r ModeRecord) Total() int {
	return r.Win + r.Loss + r.Draw
}

// ModeStats is a player's standing in one game mode.
type ModeStats struct {
	Last   *RatingPoint `json:"last,omitempty"`
	Best   *RatingPoint `json:"best,omitempty"`
	Record *ModeRecord  `json:"record,omitempty"`
}

// PuzzleRush holds a player's best puzzle rush run.
type PuzzleRush struct {
	Best *struct {
		TotalAttempts int `json:"total_attempts"`
		Score         int `json:"score"`
	} `json:"best,omitempty"`
}

// PlayerStats is the per-mode summary chess.com keeps for a player.
type PlayerStats struct {
	Rapid      *ModeStats  `json:"chess_rapid,omitempty"`
	Blitz      *ModeStats  `json:"chess_blitz,omitempty"`
	Bullet     *ModeStats  `json:"chess_bullet,omitempty"`
	Daily      *ModeStats  `json:"chess_daily,omitempty"`
	PuzzleRush *PuzzleRush `json:"puzzle_rush,omitempty"`
}

// NamedMode pairs a mode label with its stats.
type NamedMode struct {
	Name string
	*ModeStats
}

// Modes returns the modes the player has stats for, in rapid, blitz,
// bullet, daily order.
func (s *PlayerStats) Modes() []NamedMode {
	var out []NamedMode
	for _, m := range []NamedMode{
		{"Rapid", s.Rapid},
		{"Blitz", s.Blitz},
		{"Bullet", s.Bullet},
		{"Daily", s.Daily},
	} {
		if m.ModeStats != nil {
			out = append(out, m)
		}
	}
	return out
}

// LeaderboardEntry is one ranked player.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Score    int    `json:"score"`
	Title    string `json:"title,omitempty"`
}

// Leaderboards maps a category name to its ranked players.
type Leaderboards map[string][]LeaderboardEntry

// LeaderboardCategories are the categories Top is usually asked for.
var LeaderboardCategories = []string{"daily", "rapid", "blitz", "bullet"}

// Top returns at most n entries of category. Live categories are published
// with a "live_" prefix; either spelling is accepted.
func (l Leaderboards) Top(category string, n int) []LeaderboardEntry {
	entries, ok := l[category]
	if !ok {
		entries = l["live_"+category]
	}
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
