package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/discochess/tally"
	"github.com/discochess/tally/internal/aggregate"
	"github.com/discochess/tally/internal/game"
	"github.com/discochess/tally/internal/source/chesscom"
	"github.com/discochess/tally/internal/window"
)

func intp(v int) *int { return &v }

func testAnalysis(username string, results ...game.Result) *tally.Analysis {
	games := make([]game.Analyzed, len(results))
	for i, r := range results {
		games[i] = game.Analyzed{
			GameID:           string(rune('a' + i)),
			EndTime:          1706745540 - int64(i)*3600,
			Color:            game.White,
			Rating:           intp(1500 - i),
			OpponentUsername: "opp",
			Result:           r,
			TimeControl:      "600",
			OpeningName:      "Italian Game / Spanish Opening",
		}
	}
	return &tally.Analysis{
		Username: username,
		Games:    games,
		Report:   aggregate.Aggregate(games),
	}
}

func TestPrintAnalysisText(t *testing.T) {
	a := testAnalysis("alice", game.Win, game.Loss, game.Draw)
	a.FailedBuckets = []window.Bucket{{Year: 2024, Month: 1}}

	var buf bytes.Buffer
	printAnalysisText(&buf, a, &chesscom.Profile{Name: "Alice A.", Title: "FM", Joined: 1389043258}, 2)
	got := buf.String()

	for _, want := range []string{
		"Player: alice",
		"Title:  FM",
		"Joined: 2014-01-06",
		"Skipped months: 2024/01",
		"Wins:    1 (33.3%)",
		"Current: 1500",
		"Italian Game / Spanish Opening",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if n := strings.Count(got, " opp "); n != 2 {
		t.Errorf("recent games listed = %d, want 2", n)
	}
}

func TestPrintAnalysisText_NoGames(t *testing.T) {
	var buf bytes.Buffer
	printAnalysisText(&buf, testAnalysis("ghost"), nil, 10)
	if !strings.Contains(buf.String(), "No games found.") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestPrintComparison(t *testing.T) {
	var buf bytes.Buffer
	printComparison(&buf, []*tally.Analysis{
		testAnalysis("bob", game.Loss, game.Loss),
		nil,
		testAnalysis("alice", game.Win, game.Loss),
	})
	got := buf.String()
	if strings.Index(got, "alice") > strings.Index(got, "bob") {
		t.Errorf("alice (50%%) should rank above bob (0%%):\n%s", got)
	}
}

func TestPrintAnalysesJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printAnalysesJSON(&buf, []*tally.Analysis{testAnalysis("alice", game.Win), nil}); err != nil {
		t.Fatalf("printAnalysesJSON() error = %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d analyses, want 1", len(got))
	}
	if got[0]["username"] != "alice" || got[0]["win_rate"] != 1.0 {
		t.Errorf("analysis = %v", got[0])
	}
	if _, ok := got[0]["openings"].([]any); !ok {
		t.Errorf("openings = %v, want a list", got[0]["openings"])
	}
}

func TestMetricsRouter(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tally_runs_total 1\n"))
	})
	srv := httptest.NewServer(newMetricsRouter(metrics))
	defer srv.Close()

	tests := []struct {
		path string
		code int
		body string
	}{
		{"/metrics", http.StatusOK, "tally_runs_total 1\n"},
		{"/healthz", http.StatusOK, "ok"},
		{"/missing", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		resp, err := http.Get(srv.URL + tt.path)
		if err != nil {
			t.Fatalf("GET %s error = %v", tt.path, err)
		}
		var body bytes.Buffer
		body.ReadFrom(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != tt.code {
			t.Errorf("GET %s status = %d, want %d", tt.path, resp.StatusCode, tt.code)
		}
		if tt.body != "" && body.String() != tt.body {
			t.Errorf("GET %s body = %q, want %q", tt.path, body.String(), tt.body)
		}
	}
}

func TestPrintProfile(t *testing.T) {
	st := &chesscom.PlayerStats{
		Blitz: &chesscom.ModeStats{
			Last:   &chesscom.RatingPoint{Rating: 3250},
			Best:   &chesscom.RatingPoint{Rating: 3300, Date: 1640995200},
			Record: &chesscom.ModeRecord{Win: 3, Loss: 1},
		},
		Daily: &chesscom.ModeStats{Last: &chesscom.RatingPoint{Rating: 2100}},
	}
	p := &chesscom.Profile{
		Username: "hikaru",
		Title:    "GM",
		Country:  "https://api.chess.com/pub/country/US",
	}

	var buf bytes.Buffer
	printProfile(&buf, p, st)
	got := buf.String()

	for _, want := range []string{
		"Player: hikaru",
		"Country: US",
		"Blitz:\n  Current: 3250\n  Best:    3300 on 2022-01-01",
		"Record:  3 W / 1 L / 0 D (75.0%)",
		"Daily:\n  Current: 2100",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Rapid") || strings.Contains(got, "Puzzle rush") {
		t.Errorf("output lists modes without stats:\n%s", got)
	}
}

func TestPrintLeaderboards(t *testing.T) {
	lb := chesscom.Leaderboards{
		"daily":      {{Username: "d1", Score: 2700}, {Username: "d2", Score: 2650}},
		"live_blitz": {{Username: "b1", Score: 3300, Title: "GM"}},
	}

	var buf bytes.Buffer
	printLeaderboards(&buf, lb, chesscom.LeaderboardCategories, 1)
	got := buf.String()

	if !strings.Contains(got, "Top daily:\n   1. d1") {
		t.Errorf("daily section missing:\n%s", got)
	}
	if strings.Contains(got, "d2") {
		t.Errorf("top 1 listed d2:\n%s", got)
	}
	if !strings.Contains(got, "GM b1") {
		t.Errorf("blitz section missing:\n%s", got)
	}
	if strings.Contains(got, "bullet") {
		t.Errorf("empty category printed:\n%s", got)
	}
}

func TestPrintPlan(t *testing.T) {
	may := window.Bucket{Year: 2024, Month: 5}
	apr := window.Bucket{Year: 2024, Month: 4}

	var buf bytes.Buffer
	printPlan(&buf, "recent", []window.Bucket{may, may, apr})

	want := "Mode: recent\n  1  2024/05\n  2  2024/05  (repeat)\n  3  2024/04\n"
	if got := buf.String(); got != want {
		t.Errorf("printPlan() = %q, want %q", got, want)
	}
}
