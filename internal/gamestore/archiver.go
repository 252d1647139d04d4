package gamestore

import (
	"context"
	"fmt"

	"github.com/magnate-game/magnate/internal/game"
)

// SessionArchiver adapts a [Store] to the registry's archiver seam,
// flattening terminal session snapshots into stored results.
type SessionArchiver struct {
	store Store
}

// Compile-time interface check.
var _ game.Archiver = (*SessionArchiver)(nil)

// NewSessionArchiver creates an archiver writing to store.
func NewSessionArchiver(store Store) *SessionArchiver {
	return &SessionArchiver{store: store}
}

// Archive persists one terminal snapshot. Completed runs carry the full
// analysis; abandoned runs store their partial totals without a tier.
func (a *SessionArchiver) Archive(ctx context.Context, snap game.Snapshot) error {
	res := Result{
		PlayerID:      snap.PlayerID,
		CharacterID:   snap.CharacterID,
		CharacterName: snap.CharacterName,
		Completed:     snap.Status == game.StatusCompleted,
		TotalScore:    snap.TotalScore,
		StartedAt:     snap.StartedAt,
		EndedAt:       snap.EndedAt,
	}
	if snap.Result != nil {
		res.MaxPossible = snap.Result.MaxPossible
		res.Percentage = snap.Result.Percentage
		res.Tier = string(snap.Result.Tier)
	}
	for _, rec := range snap.Records {
		res.Decisions = append(res.Decisions, DecisionRow{
			Index:     rec.Index,
			ChoiceKey: rec.ChoiceKey,
			Score:     rec.Score,
			Correct:   rec.Correct,
		})
	}
	if err := a.store.SaveResult(ctx, res); err != nil {
		return fmt.Errorf("gamestore: archive session: %w", err)
	}
	return nil
}
