package gamestore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemStore is an in-memory [Store] used in tests and in deployments without
// a database. Safe for concurrent use.
type MemStore struct {
	mu       sync.RWMutex
	players  map[string]string
	results  []Result
	feedback []Feedback
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{players: make(map[string]string)}
}

// SavePlayer upserts the player's display name.
func (m *MemStore) SavePlayer(_ context.Context, playerID, playerName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if playerName != "" || m.players[playerID] == "" {
		m.players[playerID] = playerName
	}
	return nil
}

// SaveResult stores a finished game.
func (m *MemStore) SaveResult(_ context.Context, res Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if res.PlayerName != "" || m.players[res.PlayerID] == "" {
		m.players[res.PlayerID] = res.PlayerName
	}
	m.results = append(m.results, res)
	return nil
}

// SaveFeedback stores one feedback entry.
func (m *MemStore) SaveFeedback(_ context.Context, fb Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedback = append(m.feedback, fb)
	return nil
}

// Leaderboard ranks players by best completed percentage.
func (m *MemStore) Leaderboard(_ context.Context, characterID string, limit int) ([]LeaderboardEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byPlayer := make(map[string]*LeaderboardEntry)
	for _, res := range m.results {
		if !res.Completed {
			continue
		}
		if characterID != "" && res.CharacterID != characterID {
			continue
		}
		e, ok := byPlayer[res.PlayerID]
		if !ok {
			e = &LeaderboardEntry{PlayerID: res.PlayerID, PlayerName: m.players[res.PlayerID]}
			byPlayer[res.PlayerID] = e
		}
		e.GamesCompleted++
		if res.Percentage > e.BestPercentage {
			e.BestPercentage = res.Percentage
		}
	}

	entries := make([]LeaderboardEntry, 0, len(byPlayer))
	for _, e := range byPlayer {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].BestPercentage != entries[j].BestPercentage {
			return entries[i].BestPercentage > entries[j].BestPercentage
		}
		if entries[i].GamesCompleted != entries[j].GamesCompleted {
			return entries[i].GamesCompleted > entries[j].GamesCompleted
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// PlayerStats aggregates one player's games, or [ErrNotFound].
func (m *MemStore) PlayerStats(_ context.Context, playerID string) (PlayerStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := PlayerStats{PlayerID: playerID, PlayerName: m.players[playerID]}
	plays := make(map[string]int)
	sum, completed := 0, 0
	for _, res := range m.results {
		if res.PlayerID != playerID {
			continue
		}
		stats.GamesPlayed++
		plays[res.CharacterID]++
		if !res.Completed {
			continue
		}
		completed++
		sum += res.Percentage
		if res.Percentage > stats.BestPercentage {
			stats.BestPercentage = res.Percentage
		}
	}
	if stats.GamesPlayed == 0 {
		return PlayerStats{}, fmt.Errorf("gamestore: stats for player %s: %w", playerID, ErrNotFound)
	}
	stats.GamesCompleted = completed
	if completed > 0 {
		stats.AvgPercentage = int(math.Round(float64(sum) / float64(completed)))
	}
	best := ""
	for id, n := range plays {
		if best == "" || n > plays[best] || (n == plays[best] && id < best) {
			best = id
		}
	}
	stats.FavoriteCharacter = best
	return stats, nil
}

// PopularCharacters lists characters by play count.
func (m *MemStore) PopularCharacters(_ context.Context, limit int) ([]CharacterPopularity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byChar := make(map[string]*CharacterPopularity)
	for _, res := range m.results {
		c, ok := byChar[res.CharacterID]
		if !ok {
			c = &CharacterPopularity{CharacterID: res.CharacterID, CharacterName: res.CharacterName}
			byChar[res.CharacterID] = c
		}
		c.Plays++
		if res.Completed {
			c.Completions++
		}
	}

	out := make([]CharacterPopularity, 0, len(byChar))
	for _, c := range byChar {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Plays != out[j].Plays {
			return out[i].Plays > out[j].Plays
		}
		return out[i].CharacterID < out[j].CharacterID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CharacterAverages lists per-character mean completed percentages.
func (m *MemStore) CharacterAverages(_ context.Context) ([]CharacterAverage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type agg struct {
		name string
		sum  int
		n    int
	}
	byChar := make(map[string]*agg)
	for _, res := range m.results {
		if !res.Completed {
			continue
		}
		a, ok := byChar[res.CharacterID]
		if !ok {
			a = &agg{name: res.CharacterName}
			byChar[res.CharacterID] = a
		}
		a.sum += res.Percentage
		a.n++
	}

	out := make([]CharacterAverage, 0, len(byChar))
	for id, a := range byChar {
		out = append(out, CharacterAverage{
			CharacterID:   id,
			CharacterName: a.name,
			AvgPercentage: int(math.Round(float64(a.sum) / float64(a.n))),
			Completions:   a.n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgPercentage != out[j].AvgPercentage {
			return out[i].AvgPercentage > out[j].AvgPercentage
		}
		return out[i].CharacterID < out[j].CharacterID
	})
	return out, nil
}

// RecentResults lists the player's latest games, newest first.
func (m *MemStore) RecentResults(_ context.Context, playerID string, limit int) ([]RecentResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []RecentResult
	for _, res := range m.results {
		if res.PlayerID != playerID {
			continue
		}
		out = append(out, RecentResult{
			CharacterID:   res.CharacterID,
			CharacterName: res.CharacterName,
			Completed:     res.Completed,
			Percentage:    res.Percentage,
			Tier:          res.Tier,
			EndedAt:       res.EndedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndedAt.After(out[j].EndedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Ping always succeeds.
func (m *MemStore) Ping(context.Context) error { return nil }

// FeedbackCount returns the number of stored feedback entries, for tests.
func (m *MemStore) FeedbackCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.feedback)
}
