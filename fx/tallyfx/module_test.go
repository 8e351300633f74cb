package tallyfx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/discochess/tally"
	"github.com/discochess/tally/internal/config"
	promstats "github.com/discochess/tally/internal/stats/prometheus"
)

func TestModule(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"games":[{"url":"https://www.chess.com/game/live/1","end_time":1706745540,
			"time_control":"600","white":{"username":"alice","rating":1500,"result":"win"},
			"black":{"username":"bob","rating":1490,"result":"resigned"}}]}`))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Source.BaseURL = srv.URL
	cfg.Source.RequestsPerSecond = 0
	cfg.TargetCount = 1
	cfg.Database = config.DatabaseConfig{Enabled: true, Driver: "sqlite3", DSN: ":memory:"}

	var (
		client *tally.Client
		prom   *promstats.Collector
	)
	app := fxtest.New(t,
		fx.Supply(cfg, zap.NewNop()),
		Module,
		fx.Populate(&client, &prom),
	)
	app.RequireStart()
	defer app.RequireStop()

	if prom != nil {
		t.Error("Prometheus collector should be nil without a metrics address")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a, err := client.Analyze(ctx, "alice")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if a.Report.Wins != 1 {
		t.Errorf("Wins = %d, want 1", a.Report.Wins)
	}
	if a.Stored == nil || a.Stored.TotalGames != 1 {
		t.Errorf("Stored = %+v, want one persisted game", a.Stored)
	}
}

func TestModule_UnreachableDatabase(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.Addr = "127.0.0.1:0"
	cfg.Database = config.DatabaseConfig{Enabled: true, Driver: "sqlite3", DSN: "file:/nonexistent/dir/tally.db?mode=ro"}

	var (
		client *tally.Client
		prom   *promstats.Collector
	)
	app := fxtest.New(t,
		fx.Supply(cfg, zap.NewNop()),
		Module,
		fx.Populate(&client, &prom),
	)
	app.RequireStart()
	app.RequireStop()

	if client == nil {
		t.Fatal("client not provided")
	}
	if prom == nil {
		t.Error("Prometheus collector should be set with a metrics address")
	}
}
