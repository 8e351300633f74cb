// Package sqlsink persists games and rollups in PostgreSQL or SQLite.
package sqlsink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/discochess/tally/internal/sink"
)

var _ sink.Sink = (*Store)(nil)

// Store is a sink.Sink backed by database/sql.
type Store struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
	logger  *zap.Logger
	ownsDB  bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for last_updated.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open connects to dsn with driver ("postgres" or "sqlite3") and creates
// the schema if needed.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	if _, err := dialectFor(driver); err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}
	if driver == SQLite {
		// A shared in-memory database only lives as long as one connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", driver, err)
	}

	s, err := New(ctx, db, driver, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// New wraps an open database and creates the schema if needed. Close does
// not close db.
func New(ctx context.Context, db *sql.DB, driver string, opts ...Option) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	s := &Store{
		db:      db,
		dialect: d,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// UpsertGame inserts r or replaces the stored game with the same id.
func (s *Store) UpsertGame(ctx context.Context, username string, r sink.Record) error {
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(upsertGame),
		sink.Key(username), r.GameID, r.GameDate, r.TimeControl, r.Rated, r.Rules,
		r.Result, r.Termination, r.PlayerColor, nullInt(r.PlayerRating),
		r.OpponentUsername, nullInt(r.OpponentRating), r.OpeningMoves, r.OpeningName,
		nullFloat(r.AccuracyWhite), nullFloat(r.AccuracyBlack), r.PGN,
	)
	if err != nil {
		return fmt.Errorf("upserting game %s: %w", r.GameID, err)
	}
	return nil
}

// RefreshUserRollup recomputes username's rollup in a single statement.
func (s *Store) RefreshUserRollup(ctx context.Context, username string) error {
	key := sink.Key(username)
	updated := s.now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx, s.dialect.rebind(refreshRollup), key, key, updated, key); err != nil {
		return fmt.Errorf("refreshing rollup for %s: %w", key, err)
	}
	s.logger.Debug("refreshed user rollup", zap.String("username", key))
	return nil
}

// UserStatistics reads username's rollup.
func (s *Store) UserStatistics(ctx context.Context, username string) (*sink.UserStatistics, error) {
	var (
		st            sink.UserStatistics
		white, black  sql.NullFloat64
		highest, curr sql.NullInt64
		updated       string
	)
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(selectUserStatistics), sink.Key(username))
	err := row.Scan(&st.Username, &st.TotalGames, &st.Wins, &st.Losses, &st.Draws,
		&white, &black, &highest, &curr, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sink.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading user statistics: %w", err)
	}

	st.AvgAccuracyWhite = floatPtr(white)
	st.AvgAccuracyBlack = floatPtr(black)
	st.HighestRating = intPtr(highest)
	st.CurrentRating = intPtr(curr)
	if st.LastUpdated, err = time.Parse(time.RFC3339, updated); err != nil {
		return nil, fmt.Errorf("parsing last_updated %q: %w", updated, err)
	}
	return &st, nil
}

// Games returns username's stored games, most recent first.
func (s *Store) Games(ctx context.Context, username string) ([]sink.Record, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(selectGames), sink.Key(username))
	if err != nil {
		return nil, fmt.Errorf("querying games: %w", err)
	}
	defer rows.Close()

	var out []sink.Record
	for rows.Next() {
		var (
			r            sink.Record
			pr, or       sql.NullInt64
			white, black sql.NullFloat64
		)
		if err := rows.Scan(&r.Username, &r.GameID, &r.GameDate, &r.TimeControl, &r.Rated,
			&r.Rules, &r.Result, &r.Termination, &r.PlayerColor, &pr, &r.OpponentUsername,
			&or, &r.OpeningMoves, &r.OpeningName, &white, &black, &r.PGN); err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		r.PlayerRating = intPtr(pr)
		r.OpponentRating = intPtr(or)
		r.AccuracyWhite = floatPtr(white)
		r.AccuracyBlack = floatPtr(black)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database if Open created it.
func (s *Store) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
