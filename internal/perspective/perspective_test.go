package perspective

import (
	"testing"

	"github.com/discochess/tally/internal/game"
)

func intp(v int) *int { return &v }

func floatp(v float64) *float64 { return &v }

func TestClassifyResult(t *testing.T) {
	tests := []struct {
		token string
		want  game.Result
	}{
		{"win", game.Win},
		{"checkmated", game.Loss},
		{"resigned", game.Loss},
		{"timeout", game.Loss},
		{"abandoned", game.Loss},
		{"agreed", game.Draw},
		{"repetition", game.Draw},
		{"stalemate", game.Draw},
		{"insufficient", game.Draw},
		{"timevsinsufficient", game.Unknown},
		{"50move", game.Unknown},
		{"", game.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := ClassifyResult(tt.token); got != tt.want {
				t.Errorf("ClassifyResult(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	raw := game.Raw{
		GameID:        "g1",
		White:         game.Side{Username: "Alice", Rating: intp(1500), Result: "win"},
		Black:         game.Side{Username: "bob", Rating: intp(1480), Result: "resigned"},
		EndTime:       1704067200,
		TimeControl:   "600",
		Rated:         true,
		PGN:           "1. e4 c5 2. Nf3 d6 3. d4 cxd4",
		AccuracyWhite: floatp(88.1),
		AccuracyBlack: floatp(70.3),
	}

	tests := []struct {
		name         string
		subject      string
		wantColor    game.Color
		wantResult   game.Result
		wantOpponent string
		wantRating   int
	}{
		{"white subject", "alice", game.White, game.Win, "bob", 1500},
		{"black subject", "BOB", game.Black, game.Loss, "Alice", 1480},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(raw, tt.subject)
			if !ok {
				t.Fatalf("Normalize(%q) ok = false, want true", tt.subject)
			}
			if got.Color != tt.wantColor {
				t.Errorf("Color = %v, want %v", got.Color, tt.wantColor)
			}
			if got.Result != tt.wantResult {
				t.Errorf("Result = %v, want %v", got.Result, tt.wantResult)
			}
			if got.OpponentUsername != tt.wantOpponent {
				t.Errorf("OpponentUsername = %q, want %q", got.OpponentUsername, tt.wantOpponent)
			}
			if got.Rating == nil || *got.Rating != tt.wantRating {
				t.Errorf("Rating = %v, want %d", got.Rating, tt.wantRating)
			}
			if got.OpeningName != "Sicilian Defense" {
				t.Errorf("OpeningName = %q, want %q", got.OpeningName, "Sicilian Defense")
			}
			if got.Rules != game.DefaultRules {
				t.Errorf("Rules = %q, want %q", got.Rules, game.DefaultRules)
			}
			// Accuracies are carried for both colors whatever the subject played.
			if got.AccuracyWhite == nil || *got.AccuracyWhite != 88.1 {
				t.Errorf("AccuracyWhite = %v, want 88.1", got.AccuracyWhite)
			}
			if got.AccuracyBlack == nil || *got.AccuracyBlack != 70.3 {
				t.Errorf("AccuracyBlack = %v, want 70.3", got.AccuracyBlack)
			}
		})
	}
}

func TestNormalize_DrawAndUnknown(t *testing.T) {
	draw := game.Raw{
		White: game.Side{Username: "carol", Result: "agreed"},
		Black: game.Side{Username: "dave", Result: "agreed"},
	}
	got, ok := Normalize(draw, "dave")
	if !ok || got.Result != game.Draw {
		t.Errorf("Normalize() = %v, %v, want Draw", got.Result, ok)
	}

	odd := game.Raw{
		White: game.Side{Username: "carol", Result: "timevsinsufficient"},
		Black: game.Side{Username: "dave", Result: "timeout"},
	}
	got, ok = Normalize(odd, "carol")
	if !ok || got.Result != game.Unknown {
		t.Errorf("Normalize() = %v, %v, want Unknown", got.Result, ok)
	}
	if got.Termination != "timevsinsufficient" {
		t.Errorf("Termination = %q, want raw token", got.Termination)
	}
	if got.OpeningMoves != "N/A" || got.OpeningName != "Unknown" {
		t.Errorf("opening = %q / %q, want N/A / Unknown", got.OpeningMoves, got.OpeningName)
	}
}

func TestNormalize_NotAParticipant(t *testing.T) {
	raw := game.Raw{
		White: game.Side{Username: "carol"},
		Black: game.Side{Username: "dave"},
	}
	if _, ok := Normalize(raw, "eve"); ok {
		t.Error("Normalize() ok = true for a non-participant, want false")
	}
}
