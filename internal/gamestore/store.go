// Package gamestore persists finished game results, per-decision history,
// and player feedback, and answers the leaderboard and statistics queries
// built on them. The game core never talks to this package directly; the
// [SessionArchiver] adapter bridges terminal session snapshots into it.
package gamestore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by lookups that match no rows.
var ErrNotFound = errors.New("gamestore: not found")

// Result is a finished game: one terminal session flattened for storage.
type Result struct {
	// PlayerID is the Discord user ID; PlayerName is the display name at
	// the time of play (best-effort, may be empty).
	PlayerID   string
	PlayerName string

	// CharacterID and CharacterName identify the definition played.
	CharacterID   string
	CharacterName string

	// Completed is true for finished runs, false for abandoned ones.
	Completed bool

	// TotalScore, MaxPossible, Percentage and Tier describe the final
	// evaluation. Abandoned runs carry the partial total with zero
	// percentage and an empty tier.
	TotalScore  int
	MaxPossible int
	Percentage  int
	Tier        string

	// Decisions is the per-decision history in sequence order.
	Decisions []DecisionRow

	StartedAt time.Time
	EndedAt   time.Time
}

// DecisionRow is one stored decision of a game.
type DecisionRow struct {
	Index     int
	ChoiceKey string
	Score     int
	Correct   bool
}

// Feedback is one player rating of the game experience.
type Feedback struct {
	PlayerID    string
	CharacterID string

	// Rating is clamped to [1,5] by the collection layer.
	Rating int

	Comments  string
	CreatedAt time.Time
}

// LeaderboardEntry is one row of the completed-games leaderboard,
// ranked by best percentage.
type LeaderboardEntry struct {
	Rank           int
	PlayerID       string
	PlayerName     string
	BestPercentage int
	GamesCompleted int
}

// PlayerStats aggregates one player's history.
type PlayerStats struct {
	PlayerID       string
	PlayerName     string
	GamesPlayed    int
	GamesCompleted int
	BestPercentage int
	AvgPercentage  int

	// FavoriteCharacter is the most-played character ID, empty when the
	// player has no games.
	FavoriteCharacter string
}

// CharacterPopularity is one row of the most-played characters query.
type CharacterPopularity struct {
	CharacterID   string
	CharacterName string
	Plays         int
	Completions   int
}

// CharacterAverage is the mean completed-game percentage for one character.
type CharacterAverage struct {
	CharacterID   string
	CharacterName string
	AvgPercentage int
	Completions   int
}

// RecentResult is one row of a player's recent-games listing.
type RecentResult struct {
	CharacterID   string
	CharacterName string
	Completed     bool
	Percentage    int
	Tier          string
	EndedAt       time.Time
}

// Store is the persistence interface the rest of the system consumes.
// Implementations must be safe for concurrent use.
type Store interface {
	// SavePlayer upserts a player's display name.
	SavePlayer(ctx context.Context, playerID, playerName string) error

	// SaveResult stores a finished game with its decision history.
	SaveResult(ctx context.Context, res Result) error

	// SaveFeedback stores one feedback entry.
	SaveFeedback(ctx context.Context, fb Feedback) error

	// Leaderboard ranks players by best completed percentage.
	// characterID narrows to one character; empty means all.
	Leaderboard(ctx context.Context, characterID string, limit int) ([]LeaderboardEntry, error)

	// PlayerStats aggregates one player's games.
	// Returns [ErrNotFound] when the player has no recorded games.
	PlayerStats(ctx context.Context, playerID string) (PlayerStats, error)

	// PopularCharacters lists characters by play count.
	PopularCharacters(ctx context.Context, limit int) ([]CharacterPopularity, error)

	// CharacterAverages lists per-character mean completed percentages.
	CharacterAverages(ctx context.Context) ([]CharacterAverage, error)

	// RecentResults lists a player's latest games, newest first.
	RecentResults(ctx context.Context, playerID string, limit int) ([]RecentResult, error)

	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error
}
