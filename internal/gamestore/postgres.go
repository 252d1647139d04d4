package gamestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the game tables. Execute it via
// [Postgres.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS players (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL DEFAULT '',
    first_seen TIMESTAMPTZ NOT NULL DEFAULT now(),
    last_seen  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS games (
    id             BIGSERIAL PRIMARY KEY,
    player_id      TEXT NOT NULL REFERENCES players(id),
    character_id   TEXT NOT NULL,
    character_name TEXT NOT NULL DEFAULT '',
    completed      BOOLEAN NOT NULL,
    total_score    INTEGER NOT NULL DEFAULT 0,
    max_possible   INTEGER NOT NULL DEFAULT 0,
    percentage     INTEGER NOT NULL DEFAULT 0,
    tier           TEXT NOT NULL DEFAULT '',
    started_at     TIMESTAMPTZ NOT NULL,
    ended_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_games_player ON games(player_id, ended_at DESC);
CREATE INDEX IF NOT EXISTS idx_games_character ON games(character_id);

CREATE TABLE IF NOT EXISTS game_decisions (
    game_id        BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
    decision_index INTEGER NOT NULL,
    choice_key     TEXT NOT NULL,
    score          INTEGER NOT NULL,
    correct        BOOLEAN NOT NULL,
    PRIMARY KEY (game_id, decision_index)
);

CREATE TABLE IF NOT EXISTS feedback (
    id           BIGSERIAL PRIMARY KEY,
    player_id    TEXT NOT NULL,
    character_id TEXT NOT NULL DEFAULT '',
    rating       INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
    comments     TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// DB is the database interface used by [Postgres]. *pgxpool.Pool satisfies
// this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Postgres is a [Store] backed by a PostgreSQL database.
type Postgres struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*Postgres)(nil)

// NewPostgres creates a [Postgres] on the given connection pool. The caller
// is responsible for calling [Postgres.Migrate] before issuing queries.
func NewPostgres(db DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate executes the [Schema] DDL, creating the tables and indexes if they
// do not already exist.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("gamestore: migrate: %w", err)
	}
	return nil
}

// SavePlayer upserts the player's display name and bumps last_seen.
func (s *Postgres) SavePlayer(ctx context.Context, playerID, playerName string) error {
	const query = `
		INSERT INTO players (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET
			name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE players.name END,
			last_seen = now()`
	if _, err := s.db.Exec(ctx, query, playerID, playerName); err != nil {
		return fmt.Errorf("gamestore: save player %s: %w", playerID, err)
	}
	return nil
}

// SaveResult stores a finished game and its decision rows in one
// transaction, upserting the player first so the foreign key holds.
func (s *Postgres) SaveResult(ctx context.Context, res Result) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("gamestore: begin save result: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	const upsertPlayer = `
		INSERT INTO players (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET
			name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE players.name END,
			last_seen = now()`
	if _, err := tx.Exec(ctx, upsertPlayer, res.PlayerID, res.PlayerName); err != nil {
		return fmt.Errorf("gamestore: save result player: %w", err)
	}

	const insertGame = `
		INSERT INTO games (
			player_id, character_id, character_name, completed,
			total_score, max_possible, percentage, tier, started_at, ended_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id`
	var gameID int64
	err = tx.QueryRow(ctx, insertGame,
		res.PlayerID, res.CharacterID, res.CharacterName, res.Completed,
		res.TotalScore, res.MaxPossible, res.Percentage, res.Tier,
		res.StartedAt, res.EndedAt,
	).Scan(&gameID)
	if err != nil {
		return fmt.Errorf("gamestore: insert game: %w", err)
	}

	const insertDecision = `
		INSERT INTO game_decisions (game_id, decision_index, choice_key, score, correct)
		VALUES ($1,$2,$3,$4,$5)`
	for _, d := range res.Decisions {
		if _, err := tx.Exec(ctx, insertDecision, gameID, d.Index, d.ChoiceKey, d.Score, d.Correct); err != nil {
			if isDuplicateKeyError(err) {
				return fmt.Errorf("gamestore: insert decision %d: duplicate index for game %d", d.Index, gameID)
			}
			return fmt.Errorf("gamestore: insert decision %d: %w", d.Index, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("gamestore: commit save result: %w", err)
	}
	return nil
}

// SaveFeedback stores one feedback entry.
func (s *Postgres) SaveFeedback(ctx context.Context, fb Feedback) error {
	const query = `
		INSERT INTO feedback (player_id, character_id, rating, comments, created_at)
		VALUES ($1,$2,$3,$4,$5)`
	if _, err := s.db.Exec(ctx, query, fb.PlayerID, fb.CharacterID, fb.Rating, fb.Comments, fb.CreatedAt); err != nil {
		return fmt.Errorf("gamestore: save feedback: %w", err)
	}
	return nil
}

// Leaderboard ranks players by their best completed percentage, ties broken
// by completion count. An empty characterID ranks across all characters.
func (s *Postgres) Leaderboard(ctx context.Context, characterID string, limit int) ([]LeaderboardEntry, error) {
	const query = `
		SELECT g.player_id, p.name,
		       MAX(g.percentage) AS best,
		       COUNT(*) AS completions
		FROM games g
		JOIN players p ON p.id = g.player_id
		WHERE g.completed AND ($1 = '' OR g.character_id = $1)
		GROUP BY g.player_id, p.name
		ORDER BY best DESC, completions DESC, g.player_id
		LIMIT $2`
	rows, err := s.db.Query(ctx, query, characterID, limit)
	if err != nil {
		return nil, fmt.Errorf("gamestore: leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.PlayerID, &e.PlayerName, &e.BestPercentage, &e.GamesCompleted); err != nil {
			return nil, fmt.Errorf("gamestore: leaderboard scan: %w", err)
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("gamestore: leaderboard: %w", err)
	}
	return entries, nil
}

// PlayerStats aggregates one player's games. Returns [ErrNotFound] when the
// player has none.
func (s *Postgres) PlayerStats(ctx context.Context, playerID string) (PlayerStats, error) {
	const query = `
		SELECT p.name,
		       COUNT(*) AS played,
		       COUNT(*) FILTER (WHERE g.completed) AS completed,
		       COALESCE(MAX(g.percentage) FILTER (WHERE g.completed), 0) AS best,
		       COALESCE(ROUND(AVG(g.percentage) FILTER (WHERE g.completed)), 0) AS avg
		FROM games g
		JOIN players p ON p.id = g.player_id
		WHERE g.player_id = $1
		GROUP BY p.name`
	stats := PlayerStats{PlayerID: playerID}
	err := s.db.QueryRow(ctx, query, playerID).Scan(
		&stats.PlayerName, &stats.GamesPlayed, &stats.GamesCompleted,
		&stats.BestPercentage, &stats.AvgPercentage,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PlayerStats{}, fmt.Errorf("gamestore: stats for player %s: %w", playerID, ErrNotFound)
		}
		return PlayerStats{}, fmt.Errorf("gamestore: player stats: %w", err)
	}

	const favorite = `
		SELECT character_id FROM games
		WHERE player_id = $1
		GROUP BY character_id
		ORDER BY COUNT(*) DESC, character_id
		LIMIT 1`
	if err := s.db.QueryRow(ctx, favorite, playerID).Scan(&stats.FavoriteCharacter); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return PlayerStats{}, fmt.Errorf("gamestore: favorite character: %w", err)
	}
	return stats, nil
}

// PopularCharacters lists characters by play count, most played first.
func (s *Postgres) PopularCharacters(ctx context.Context, limit int) ([]CharacterPopularity, error) {
	const query = `
		SELECT character_id, MAX(character_name),
		       COUNT(*) AS plays,
		       COUNT(*) FILTER (WHERE completed) AS completions
		FROM games
		GROUP BY character_id
		ORDER BY plays DESC, character_id
		LIMIT $1`
	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("gamestore: popular characters: %w", err)
	}
	defer rows.Close()

	var out []CharacterPopularity
	for rows.Next() {
		var c CharacterPopularity
		if err := rows.Scan(&c.CharacterID, &c.CharacterName, &c.Plays, &c.Completions); err != nil {
			return nil, fmt.Errorf("gamestore: popular characters scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("gamestore: popular characters: %w", err)
	}
	return out, nil
}

// CharacterAverages lists per-character mean completed percentages.
func (s *Postgres) CharacterAverages(ctx context.Context) ([]CharacterAverage, error) {
	const query = `
		SELECT character_id, MAX(character_name),
		       ROUND(AVG(percentage)) AS avg,
		       COUNT(*) AS completions
		FROM games
		WHERE completed
		GROUP BY character_id
		ORDER BY avg DESC, character_id`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("gamestore: character averages: %w", err)
	}
	defer rows.Close()

	var out []CharacterAverage
	for rows.Next() {
		var c CharacterAverage
		if err := rows.Scan(&c.CharacterID, &c.CharacterName, &c.AvgPercentage, &c.Completions); err != nil {
			return nil, fmt.Errorf("gamestore: character averages scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("gamestore: character averages: %w", err)
	}
	return out, nil
}

// RecentResults lists the player's latest games, newest first.
func (s *Postgres) RecentResults(ctx context.Context, playerID string, limit int) ([]RecentResult, error) {
	const query = `
		SELECT character_id, character_name, completed, percentage, tier, ended_at
		FROM games
		WHERE player_id = $1
		ORDER BY ended_at DESC
		LIMIT $2`
	rows, err := s.db.Query(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("gamestore: recent results: %w", err)
	}
	defer rows.Close()

	var out []RecentResult
	for rows.Next() {
		var r RecentResult
		if err := rows.Scan(&r.CharacterID, &r.CharacterName, &r.Completed, &r.Percentage, &r.Tier, &r.EndedAt); err != nil {
			return nil, fmt.Errorf("gamestore: recent results scan: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("gamestore: recent results: %w", err)
	}
	return out, nil
}

// Ping verifies the database is reachable.
func (s *Postgres) Ping(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, "SELECT 1"); err != nil {
		return fmt.Errorf("gamestore: ping: %w", err)
	}
	return nil
}

// isDuplicateKeyError checks whether a PostgreSQL error is a
// unique-violation (SQLSTATE 23505).
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
