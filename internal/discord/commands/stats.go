package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/magnate-game/magnate/internal/character"
	"github.com/magnate-game/magnate/internal/discord"
	"github.com/magnate-game/magnate/internal/gamestore"
)

const recentResultsLimit = 5

// StatsStore answers per-player statistics queries.
type StatsStore interface {
	PlayerStats(ctx context.Context, playerID string) (gamestore.PlayerStats, error)
	RecentResults(ctx context.Context, playerID string, limit int) ([]gamestore.RecentResult, error)
}

// StatsCommands handles /stats.
type StatsCommands struct {
	store StatsStore
}

// NewStatsCommands creates a StatsCommands handler.
func NewStatsCommands(store StatsStore) *StatsCommands {
	return &StatsCommands{store: store}
}

// Register registers /stats with the router.
func (sc *StatsCommands) Register(router *discord.CommandRouter) {
	router.RegisterCommand("stats", sc.Definition(), sc.handleStats)
}

// Definition returns the /stats ApplicationCommand for Discord registration.
func (sc *StatsCommands) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "stats",
		Description: "Show a player's game statistics",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "player",
				Description: "Player to look up (defaults to you)",
				Type:        discordgo.ApplicationCommandOptionUser,
				Required:    false,
			},
		},
	}
}

// handleStats looks up and renders a player's aggregate statistics.
func (sc *StatsCommands) handleStats(s *discordgo.Session, i *discordgo.InteractionCreate) {
	target := userOption(s, i, "player")
	if target == nil {
		target = interactionUser(i)
	}
	if target == nil {
		discord.RespondEphemeral(s, i, "Could not identify the player.")
		return
	}

	discord.DeferReply(s, i)

	ctx, cancel := storeContext()
	defer cancel()

	stats, err := sc.store.PlayerStats(ctx, target.ID)
	if err != nil {
		if errors.Is(err, gamestore.ErrNotFound) {
			discord.FollowUp(s, i, fmt.Sprintf("%s has no recorded games yet. `/play` to change that.", target.Username))
			return
		}
		slog.Error("discord: failed to load player stats", "player_id", target.ID, "error", err)
		discord.FollowUp(s, i, "Statistics are unavailable right now.")
		return
	}

	recent, err := sc.store.RecentResults(ctx, target.ID, recentResultsLimit)
	if err != nil {
		slog.Warn("discord: failed to load recent results", "player_id", target.ID, "error", err)
		// Render the aggregate without the recent list.
	}

	discord.FollowUpEmbed(s, i, statsEmbed(target, stats, recent))
}

// statsEmbed renders aggregate statistics plus a recent-games list.
func statsEmbed(target *discordgo.User, stats gamestore.PlayerStats, recent []gamestore.RecentResult) *discordgo.MessageEmbed {
	name := stats.PlayerName
	if name == "" {
		name = target.Username
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Statistics — %s", name),
		Color: colorDecision,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Games Played", Value: fmt.Sprintf("%d", stats.GamesPlayed), Inline: true},
			{Name: "Completed", Value: fmt.Sprintf("%d", stats.GamesCompleted), Inline: true},
			{Name: "Best Score", Value: fmt.Sprintf("%d%%", stats.BestPercentage), Inline: true},
			{Name: "Average Score", Value: fmt.Sprintf("%d%%", stats.AvgPercentage), Inline: true},
		},
	}
	if stats.FavoriteCharacter != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Favorite Character", Value: stats.FavoriteCharacter, Inline: true,
		})
	}

	if len(recent) > 0 {
		var b strings.Builder
		for _, r := range recent {
			if r.Completed {
				fmt.Fprintf(&b, "**%s** — %d%% (%s), %s\n",
					r.CharacterName, r.Percentage, tierLabel(character.Tier(r.Tier)), r.EndedAt.Format("2006-01-02"))
			} else {
				fmt.Fprintf(&b, "**%s** — abandoned, %s\n", r.CharacterName, r.EndedAt.Format("2006-01-02"))
			}
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Recent Games",
			Value: strings.TrimRight(b.String(), "\n"),
		})
	}
	return embed
}
