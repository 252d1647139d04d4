package game

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/magnate-game/magnate/internal/character"
)

// CharacterSource resolves character IDs to definitions.
// Satisfied by [*character.Catalog].
type CharacterSource interface {
	Get(id string) (character.Definition, error)
}

// Archiver receives terminal session snapshots. Implementations must be safe
// for concurrent use; the registry calls Archive from its own goroutines and
// only logs failures, so archiving never blocks or fails the game path.
type Archiver interface {
	Archive(ctx context.Context, snap Snapshot) error
}

// Snapshot is the immutable record of a session that reached a terminal
// state, handed to the [Archiver] and to idle-expiry notifications.
type Snapshot struct {
	PlayerID      string
	CharacterID   string
	CharacterName string
	Status        Status
	TotalScore    int
	Records       []DecisionRecord
	Result        *AnalysisResult
	StartedAt     time.Time
	EndedAt       time.Time
}

// SessionView is a read-only description of an active session.
type SessionView struct {
	PlayerID     string
	CharacterID  string
	CurrentIndex int
	Total        int
	TotalScore   int
	StartedAt    time.Time
	LastActivity time.Time
	Prompt       NextPrompt
}

// Hooks are optional callbacks fired on session transitions, used to drive
// metrics without coupling the core to an instrumentation library. All
// callbacks may be nil and are invoked while the registry lock is held, so
// they must be fast and must not call back into the registry.
type Hooks struct {
	OnStart    func(characterID string)
	OnSubmit   func(characterID string, correct bool)
	OnComplete func(characterID string, tier character.Tier)
	OnAbandon  func(characterID string)
}

// sessionKey identifies one player's run of one character. A player can run
// different characters concurrently but only one session per character.
type sessionKey struct {
	playerID    string
	characterID string
}

// Registry owns all active sessions and serializes access to them.
// All exported methods are safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	sessions map[sessionKey]*Session

	characters CharacterSource
	archiver   Archiver
	hooks      Hooks
	logger     *slog.Logger
	now        func() time.Time
}

// RegistryConfig holds the dependencies for a [Registry].
type RegistryConfig struct {
	// Characters resolves character IDs. Required.
	Characters CharacterSource

	// Archiver receives terminal snapshots. Optional; nil disables
	// archiving.
	Archiver Archiver

	// Hooks fire on transitions. Optional.
	Hooks Hooks

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// NewRegistry creates an empty registry with the given dependencies.
func NewRegistry(cfg RegistryConfig) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Registry{
		sessions:   make(map[sessionKey]*Session),
		characters: cfg.Characters,
		archiver:   cfg.Archiver,
		hooks:      cfg.Hooks,
		logger:     logger,
		now:        now,
	}
}

// StartInfo describes a freshly started session.
type StartInfo struct {
	// Character is the definition being played.
	Character character.Definition

	// Prompt is the first decision to present.
	Prompt NextPrompt

	// Superseded is true when an earlier active session for the same
	// (player, character) pair was abandoned to make room.
	Superseded bool
}

// StartSession begins a new session for the player on the given character.
// An existing active session for the same pair is abandoned and its snapshot
// flushed to the archiver; starting is never rejected because of a stale run.
func (r *Registry) StartSession(playerID, characterID string) (StartInfo, error) {
	def, err := r.characters.Get(characterID)
	if err != nil {
		if errors.Is(err, character.ErrNotFound) {
			return StartInfo{}, &UnknownCharacterError{CharacterID: characterID}
		}
		return StartInfo{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := sessionKey{playerID: playerID, characterID: characterID}
	now := r.now()
	superseded := false

	if old, ok := r.sessions[key]; ok {
		_ = old.Abandon(now) // registry never keeps terminal sessions, so old is active
		r.dispatchArchive(r.snapshotLocked(old, now))
		delete(r.sessions, key)
		superseded = true
		if r.hooks.OnAbandon != nil {
			r.hooks.OnAbandon(characterID)
		}
		r.logger.Info("session superseded",
			"player_id", playerID,
			"character", characterID,
			"decisions_made", len(old.Records))
	}

	sess := NewSession(playerID, def, now)
	r.sessions[key] = sess
	if r.hooks.OnStart != nil {
		r.hooks.OnStart(characterID)
	}

	first, _ := def.Decision(1)
	r.logger.Info("session started",
		"player_id", playerID,
		"character", characterID,
		"decisions", def.TotalDecisions())

	return StartInfo{
		Character:  def,
		Prompt:     NextPrompt{Index: 1, Total: def.TotalDecisions(), Decision: first},
		Superseded: superseded,
	}, nil
}

// ActiveSession returns a view of the player's active session for the
// character, or a [NoActiveSessionError].
func (r *Registry) ActiveSession(playerID, characterID string) (SessionView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[sessionKey{playerID: playerID, characterID: characterID}]
	if !ok {
		return SessionView{}, &NoActiveSessionError{PlayerID: playerID, CharacterID: characterID}
	}
	dp, _ := sess.CurrentDecision()
	return SessionView{
		PlayerID:     sess.PlayerID,
		CharacterID:  sess.Character.ID,
		CurrentIndex: sess.CurrentIndex,
		Total:        sess.Character.TotalDecisions(),
		TotalScore:   sess.TotalScore(),
		StartedAt:    sess.StartedAt,
		LastActivity: sess.LastActivity,
		Prompt: NextPrompt{
			Index:    sess.CurrentIndex,
			Total:    sess.Character.TotalDecisions(),
			Decision: dp,
		},
	}, nil
}

// SubmitChoice resolves the player's current decision for the character.
// Completion removes the session from the registry and flushes its snapshot.
// An unknown choice key leaves the session untouched.
func (r *Registry) SubmitChoice(playerID, characterID, choiceKey string) (DecisionOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := sessionKey{playerID: playerID, characterID: characterID}
	sess, ok := r.sessions[key]
	if !ok {
		return DecisionOutcome{}, &NoActiveSessionError{PlayerID: playerID, CharacterID: characterID}
	}

	now := r.now()
	outcome, err := sess.SubmitChoice(choiceKey, now)
	if err != nil {
		return DecisionOutcome{}, err
	}
	if r.hooks.OnSubmit != nil {
		r.hooks.OnSubmit(characterID, outcome.Correct)
	}

	if outcome.Completed {
		delete(r.sessions, key)
		r.dispatchArchive(r.snapshotLocked(sess, now))
		if r.hooks.OnComplete != nil {
			r.hooks.OnComplete(characterID, outcome.Result.Tier)
		}
		r.logger.Info("session completed",
			"player_id", playerID,
			"character", characterID,
			"percentage", outcome.Result.Percentage,
			"tier", string(outcome.Result.Tier))
	}

	return outcome, nil
}

// Abandon cancels the player's active session for the character and flushes
// its snapshot. Returns the snapshot for presentation.
func (r *Registry) Abandon(playerID, characterID string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := sessionKey{playerID: playerID, characterID: characterID}
	sess, ok := r.sessions[key]
	if !ok {
		return Snapshot{}, &NoActiveSessionError{PlayerID: playerID, CharacterID: characterID}
	}

	now := r.now()
	if err := sess.Abandon(now); err != nil {
		return Snapshot{}, err
	}
	delete(r.sessions, key)
	snap := r.snapshotLocked(sess, now)
	r.dispatchArchive(snap)
	if r.hooks.OnAbandon != nil {
		r.hooks.OnAbandon(characterID)
	}
	r.logger.Info("session abandoned",
		"player_id", playerID,
		"character", characterID,
		"decisions_made", len(sess.Records))
	return snap, nil
}

// ExpireIdle abandons every session whose last activity is older than
// maxIdle, flushes their snapshots, and returns them so the caller can
// notify the players. Sessions touched within the window are untouched.
func (r *Registry) ExpireIdle(maxIdle time.Duration) []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cutoff := now.Add(-maxIdle)
	var expired []Snapshot

	for key, sess := range r.sessions {
		if sess.LastActivity.After(cutoff) {
			continue
		}
		_ = sess.Abandon(now)
		delete(r.sessions, key)
		snap := r.snapshotLocked(sess, now)
		r.dispatchArchive(snap)
		if r.hooks.OnAbandon != nil {
			r.hooks.OnAbandon(key.characterID)
		}
		expired = append(expired, snap)
		r.logger.Info("session expired",
			"player_id", key.playerID,
			"character", key.characterID,
			"idle", now.Sub(sess.LastActivity).String())
	}
	return expired
}

// Count returns the number of active sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// snapshotLocked builds a terminal snapshot. Caller holds r.mu; the session
// must already be terminal so the copied state can no longer change.
func (r *Registry) snapshotLocked(sess *Session, endedAt time.Time) Snapshot {
	records := make([]DecisionRecord, len(sess.Records))
	copy(records, sess.Records)
	return Snapshot{
		PlayerID:      sess.PlayerID,
		CharacterID:   sess.Character.ID,
		CharacterName: sess.Character.Name,
		Status:        sess.Status,
		TotalScore:    sess.TotalScore(),
		Records:       records,
		Result:        sess.Result,
		StartedAt:     sess.StartedAt,
		EndedAt:       endedAt,
	}
}

// dispatchArchive hands a snapshot to the archiver on its own goroutine.
// Archive failures are logged and dropped; the game path never waits on or
// fails because of persistence.
func (r *Registry) dispatchArchive(snap Snapshot) {
	if r.archiver == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.archiver.Archive(ctx, snap); err != nil {
			r.logger.Warn("archive session snapshot failed",
				"player_id", snap.PlayerID,
				"character", snap.CharacterID,
				"status", string(snap.Status),
				"err", err)
		}
	}()
}
