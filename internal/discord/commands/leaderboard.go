package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/magnate-game/magnate/internal/character"
	"github.com/magnate-game/magnate/internal/discord"
	"github.com/magnate-game/magnate/internal/gamestore"
)

const leaderboardLimit = 10

// LeaderboardStore answers ranking and character-aggregate queries.
type LeaderboardStore interface {
	Leaderboard(ctx context.Context, characterID string, limit int) ([]gamestore.LeaderboardEntry, error)
	PopularCharacters(ctx context.Context, limit int) ([]gamestore.CharacterPopularity, error)
	CharacterAverages(ctx context.Context) ([]gamestore.CharacterAverage, error)
}

// LeaderboardCommands handles /leaderboard.
type LeaderboardCommands struct {
	store   LeaderboardStore
	catalog *character.Catalog
}

// NewLeaderboardCommands creates a LeaderboardCommands handler.
func NewLeaderboardCommands(store LeaderboardStore, catalog *character.Catalog) *LeaderboardCommands {
	return &LeaderboardCommands{store: store, catalog: catalog}
}

// Register registers /leaderboard with the router.
func (lc *LeaderboardCommands) Register(router *discord.CommandRouter) {
	router.RegisterCommand("leaderboard", lc.Definition(), lc.handleLeaderboard)
	router.RegisterAutocomplete("leaderboard", lc.handleAutocomplete)
}

// Definition returns the /leaderboard ApplicationCommand for Discord
// registration.
func (lc *LeaderboardCommands) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "leaderboard",
		Description: "Show the best scores across all players",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:         "character",
				Description:  "Limit the ranking to one character",
				Type:         discordgo.ApplicationCommandOptionString,
				Required:     false,
				Autocomplete: true,
			},
		},
	}
}

// handleLeaderboard renders the ranking, optionally scoped to one character.
// The unscoped board also carries the character popularity and average
// sections.
func (lc *LeaderboardCommands) handleLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate) {
	characterID := ""
	title := "Leaderboard — All Characters"
	if query := stringOption(i, "character"); query != "" {
		def, ok := matchCharacter(lc.catalog.List(), query)
		if !ok {
			discord.RespondEphemeral(s, i, fmt.Sprintf(
				"No character matches %q. Available: %s.", query, strings.Join(lc.catalog.IDs(), ", ")))
			return
		}
		characterID = def.ID
		title = fmt.Sprintf("Leaderboard — %s", def.Name)
	}

	discord.DeferReply(s, i)

	ctx, cancel := storeContext()
	defer cancel()

	entries, err := lc.store.Leaderboard(ctx, characterID, leaderboardLimit)
	if err != nil {
		slog.Error("discord: failed to load leaderboard", "character", characterID, "error", err)
		discord.FollowUp(s, i, "The leaderboard is unavailable right now.")
		return
	}
	if len(entries) == 0 {
		discord.FollowUp(s, i, "No completed games yet. Be the first: `/play`.")
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: leaderboardLines(entries),
		Color:       colorIntro,
	}

	if characterID == "" {
		if popular, err := lc.store.PopularCharacters(ctx, 5); err != nil {
			slog.Warn("discord: failed to load character popularity", "error", err)
		} else if len(popular) > 0 {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:  "Most Played",
				Value: popularityLines(popular),
			})
		}
		if averages, err := lc.store.CharacterAverages(ctx); err != nil {
			slog.Warn("discord: failed to load character averages", "error", err)
		} else if len(averages) > 0 {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:  "Average Score by Character",
				Value: averageLines(averages),
			})
		}
	}

	discord.FollowUpEmbed(s, i, embed)
}

// handleAutocomplete suggests characters for the leaderboard filter.
func (lc *LeaderboardCommands) handleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	choices := characterChoices(lc.catalog.List(), focusedOption(i))
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
	if err != nil {
		slog.Warn("discord: failed to send autocomplete choices", "error", err)
	}
}

func leaderboardLines(entries []gamestore.LeaderboardEntry) string {
	var b strings.Builder
	for _, e := range entries {
		name := e.PlayerName
		if name == "" {
			name = e.PlayerID
		}
		fmt.Fprintf(&b, "%s **%s** — %d%% best, %d completed\n", rankMedal(e.Rank), name, e.BestPercentage, e.GamesCompleted)
	}
	return strings.TrimRight(b.String(), "\n")
}

func popularityLines(popular []gamestore.CharacterPopularity) string {
	var b strings.Builder
	for _, p := range popular {
		fmt.Fprintf(&b, "**%s** — %d plays, %d completed\n", p.CharacterName, p.Plays, p.Completions)
	}
	return strings.TrimRight(b.String(), "\n")
}

func averageLines(averages []gamestore.CharacterAverage) string {
	var b strings.Builder
	for _, a := range averages {
		fmt.Fprintf(&b, "**%s** — %d%% over %d games\n", a.CharacterName, a.AvgPercentage, a.Completions)
	}
	return strings.TrimRight(b.String(), "\n")
}

// rankMedal decorates the top three ranks.
func rankMedal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	}
	return fmt.Sprintf("`#%d`", rank)
}
