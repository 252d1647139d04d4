package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/magnate-game/magnate/internal/game"
)

// SessionExpirer abandons idle game sessions and returns their snapshots.
// Satisfied by [*game.Registry].
type SessionExpirer interface {
	ExpireIdle(maxIdle time.Duration) []game.Snapshot
}

// defaultSweepInterval is how often the sweeper checks for idle sessions.
const defaultSweepInterval = time.Minute

// Sweeper periodically expires idle game sessions and notifies the affected
// players by DM. Notification is best-effort; players with DMs disabled just
// find their run gone.
//
// Thread-safe for concurrent use.
type Sweeper struct {
	expirer  SessionExpirer
	maxIdle  time.Duration
	interval time.Duration
	notify   func(snap game.Snapshot)
	done     chan struct{}
	stopOnce sync.Once
}

// SweeperConfig holds dependencies for creating a Sweeper.
type SweeperConfig struct {
	// Session is used to DM expired players. Ignored when Notify is set.
	Session *discordgo.Session

	// Expirer sweeps the idle sessions.
	Expirer SessionExpirer

	// MaxIdle is the inactivity window after which a session expires.
	// Zero disables the sweeper entirely.
	MaxIdle time.Duration

	// Interval between sweeps. Default: one minute.
	Interval time.Duration

	// Notify overrides the DM notification, for tests.
	Notify func(snap game.Snapshot)
}

// NewSweeper creates a Sweeper.
func NewSweeper(cfg SweeperConfig) *Sweeper {
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultSweepInterval
	}
	notify := cfg.Notify
	if notify == nil {
		notify = dmNotifier(cfg.Session)
	}
	return &Sweeper{
		expirer:  cfg.Expirer,
		maxIdle:  cfg.MaxIdle,
		interval: interval,
		notify:   notify,
		done:     make(chan struct{}),
	}
}

// Start begins the periodic sweep loop in a background goroutine.
// A zero MaxIdle makes Start a no-op.
func (w *Sweeper) Start(ctx context.Context) {
	if w.maxIdle <= 0 {
		slog.Info("sweeper: disabled, sessions never expire")
		return
	}
	go w.loop(ctx)
}

// Stop halts the sweep loop.
func (w *Sweeper) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
}

// loop sweeps until Stop is called or ctx is cancelled.
func (w *Sweeper) loop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

// sweep expires idle sessions and fires the per-player notifications.
func (w *Sweeper) sweep() {
	expired := w.expirer.ExpireIdle(w.maxIdle)
	if len(expired) == 0 {
		return
	}
	slog.Info("sweeper: expired idle sessions", "count", len(expired))
	for _, snap := range expired {
		w.notify(snap)
	}
}

// dmNotifier returns a notify function that DMs the expired player.
func dmNotifier(s *discordgo.Session) func(snap game.Snapshot) {
	return func(snap game.Snapshot) {
		if s == nil {
			return
		}
		ch, err := s.UserChannelCreate(snap.PlayerID)
		if err != nil {
			slog.Warn("sweeper: failed to open DM channel", "player_id", snap.PlayerID, "err", err)
			return
		}
		msg := fmt.Sprintf(
			"Your **%s** run timed out after %d decision(s) with %d points. Use `/play` to start over.",
			snap.CharacterName, len(snap.Records), snap.TotalScore)
		if _, err := s.ChannelMessageSend(ch.ID, msg); err != nil {
			slog.Warn("sweeper: failed to send expiry notice", "player_id", snap.PlayerID, "err", err)
		}
	}
}
