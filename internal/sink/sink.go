// Package sink defines where analyzed games and per-user rollups are persisted.
package sink

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/discochess/tally/internal/game"
)

// ErrNotFound is returned when a user has no stored rollup.
var ErrNotFound = errors.New("sink: user statistics not found")

// GameDateLayout formats Record.GameDate.
const GameDateLayout = time.DateTime

// Sink persists games and maintains a rollup per username.
type Sink interface {
	// UpsertGame inserts or replaces one game for username.
	UpsertGame(ctx context.Context, username string, r Record) error

	// RefreshUserRollup recomputes username's rollup from its stored games.
	RefreshUserRollup(ctx context.Context, username string) error

	// UserStatistics reads username's rollup, or ErrNotFound.
	UserStatistics(ctx context.Context, username string) (*UserStatistics, error)

	// Close releases resources held by the sink.
	Close() error
}

// Record is one stored game. Field names match the stored column names.
type Record struct {
	Username         string   `json:"username"`
	GameID           string   `json:"game_id"`
	GameDate         string   `json:"game_date"`
	TimeControl      string   `json:"time_control"`
	Rated            int      `json:"rated"`
	Rules            string   `json:"rules"`
	Result           string   `json:"result"`
	Termination      string   `json:"termination"`
	PlayerColor      string   `json:"player_color"`
	PlayerRating     *int     `json:"player_rating"`
	OpponentUsername string   `json:"opponent_username"`
	OpponentRating   *int     `json:"opponent_rating"`
	OpeningMoves     string   `json:"opening_moves"`
	OpeningName      string   `json:"opening_name"`
	AccuracyWhite    *float64 `json:"accuracy_white"`
	AccuracyBlack    *float64 `json:"accuracy_black"`
	PGN              string   `json:"pgn"`
}

// UserStatistics is the stored rollup for one username.
type UserStatistics struct {
	Username         string    `json:"username"`
	TotalGames       int       `json:"total_games"`
	Wins             int       `json:"wins"`
	Losses           int       `json:"losses"`
	Draws            int       `json:"draws"`
	AvgAccuracyWhite *float64  `json:"avg_accuracy_white,omitempty"`
	AvgAccuracyBlack *float64  `json:"avg_accuracy_black,omitempty"`
	HighestRating    *int      `json:"highest_rating,omitempty"`
	CurrentRating    *int      `json:"current_rating,omitempty"`
	LastUpdated      time.Time `json:"last_updated"`
}

// Key normalizes a username for storage. Chess.com usernames are case-insensitive.
func Key(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// NewRecord builds the stored form of g for username.
func NewRecord(username string, g game.Analyzed) Record {
	rated := 0
	if g.Rated {
		rated = 1
	}
	return Record{
		Username:         Key(username),
		GameID:           g.GameID,
		GameDate:         g.EndedAt().Format(GameDateLayout),
		TimeControl:      g.TimeControl,
		Rated:            rated,
		Rules:            g.Rules,
		Result:           string(g.Result),
		Termination:      g.Termination,
		PlayerColor:      string(g.Color),
		PlayerRating:     g.Rating,
		OpponentUsername: g.OpponentUsername,
		OpponentRating:   g.OpponentRating,
		OpeningMoves:     g.OpeningMoves,
		OpeningName:      g.OpeningName,
		AccuracyWhite:    g.AccuracyWhite,
		AccuracyBlack:    g.AccuracyBlack,
		PGN:              g.PGN,
	}
}
