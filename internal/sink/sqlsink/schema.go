package sqlsink

// Both dialects accept this schema. Dates are stored as sortable text.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS games (
		username          TEXT NOT NULL,
		game_id           TEXT NOT NULL,
		game_date         TEXT NOT NULL,
		time_control      TEXT NOT NULL,
		rated             INTEGER NOT NULL,
		rules             TEXT NOT NULL,
		result            TEXT NOT NULL,
		termination       TEXT NOT NULL,
		player_color      TEXT NOT NULL,
		player_rating     INTEGER,
		opponent_username TEXT NOT NULL,
		opponent_rating   INTEGER,
		opening_moves     TEXT NOT NULL,
		opening_name      TEXT NOT NULL,
		accuracy_white    DOUBLE PRECISION,
		accuracy_black    DOUBLE PRECISION,
		pgn               TEXT NOT NULL,
		PRIMARY KEY (username, game_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_games_username_date ON games (username, game_date)`,
	`CREATE TABLE IF NOT EXISTS user_statistics (
		username           TEXT PRIMARY KEY,
		total_games        INTEGER NOT NULL,
		wins               INTEGER NOT NULL,
		losses             INTEGER NOT NULL,
		draws              INTEGER NOT NULL,
		avg_accuracy_white DOUBLE PRECISION,
		avg_accuracy_black DOUBLE PRECISION,
		highest_rating     INTEGER,
		current_rating     INTEGER,
		last_updated       TEXT NOT NULL
	)`,
}

const upsertGame = `
INSERT INTO games (
	username, game_id, game_date, time_control, rated, rules, result, termination,
	player_color, player_rating, opponent_username, opponent_rating,
	opening_moves, opening_name, accuracy_white, accuracy_black, pgn
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (username, game_id) DO UPDATE SET
	game_date = excluded.game_date,
	time_control = excluded.time_control,
	rated = excluded.rated,
	rules = excluded.rules,
	result = excluded.result,
	termination = excluded.termination,
	player_color = excluded.player_color,
	player_rating = excluded.player_rating,
	opponent_username = excluded.opponent_username,
	opponent_rating = excluded.opponent_rating,
	opening_moves = excluded.opening_moves,
	opening_name = excluded.opening_name,
	accuracy_white = excluded.accuracy_white,
	accuracy_black = excluded.accuracy_black,
	pgn = excluded.pgn`

// refreshRollup arguments: username, username, last_updated, username.
// Without GROUP BY a user with no games still gets an all-zero row.
const refreshRollup = `
INSERT INTO user_statistics (
	username, total_games, wins, losses, draws,
	avg_accuracy_white, avg_accuracy_black, highest_rating, current_rating, last_updated
)
SELECT
	CAST(? AS TEXT),
	COUNT(*),
	COALESCE(SUM(CASE WHEN result = 'Win' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN result = 'Loss' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN result = 'Draw' THEN 1 ELSE 0 END), 0),
	AVG(accuracy_white),
	AVG(accuracy_black),
	MAX(player_rating),
	(SELECT g.player_rating FROM games g
		WHERE g.username = ? AND g.player_rating IS NOT NULL
		ORDER BY g.game_date DESC LIMIT 1),
	CAST(? AS TEXT)
FROM games
WHERE username = ?
ON CONFLICT (username) DO UPDATE SET
	total_games = excluded.total_games,
	wins = excluded.wins,
	losses = excluded.losses,
	draws = excluded.draws,
	avg_accuracy_white = excluded.avg_accuracy_white,
	avg_accuracy_black = excluded.avg_accuracy_black,
	highest_rating = excluded.highest_rating,
	current_rating = excluded.current_rating,
	last_updated = excluded.last_updated`

const selectUserStatistics = `
SELECT username, total_games, wins, losses, draws,
	avg_accuracy_white, avg_accuracy_black, highest_rating, current_rating, last_updated
FROM user_statistics
WHERE username = ?`

const selectGames = `
SELECT username, game_id, game_date, time_control, rated, rules, result, termination,
	player_color, player_rating, opponent_username, opponent_rating,
	opening_moves, opening_name, accuracy_white, accuracy_black, pgn
FROM games
WHERE username = ?
ORDER BY game_date DESC`
