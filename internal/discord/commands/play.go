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
	"github.com/magnate-game/magnate/internal/game"
)

// PlayerStore records player display names so leaderboards and stats can show
// names instead of raw Discord IDs.
type PlayerStore interface {
	SavePlayer(ctx context.Context, playerID, playerName string) error
}

// GameCommands handles /play and the in-game button interactions.
type GameCommands struct {
	registry *game.Registry
	catalog  *character.Catalog
	players  PlayerStore
	gate     *discord.ChannelGate
}

// NewGameCommands creates a GameCommands handler. players may be nil when no
// store is configured.
func NewGameCommands(registry *game.Registry, catalog *character.Catalog, players PlayerStore, gate *discord.ChannelGate) *GameCommands {
	return &GameCommands{
		registry: registry,
		catalog:  catalog,
		players:  players,
		gate:     gate,
	}
}

// Register registers /play and the game component handlers with the router.
func (gc *GameCommands) Register(router *discord.CommandRouter) {
	router.RegisterCommand("play", gc.Definition(), gc.handlePlay)
	router.RegisterAutocomplete("play", gc.handleAutocomplete)
	router.RegisterComponent(characterSelectID, gc.handleCharacterSelect)
	router.RegisterComponentPrefix(choicePrefix, gc.handleChoice)
	router.RegisterComponentPrefix(giveUpPrefix, gc.handleGiveUp)
}

// Definition returns the /play ApplicationCommand for Discord registration.
func (gc *GameCommands) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "play",
		Description: "Start a decision game as a historical magnate",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:         "character",
				Description:  "Character to play (leave empty to pick from a menu)",
				Type:         discordgo.ApplicationCommandOptionString,
				Required:     false,
				Autocomplete: true,
			},
		},
	}
}

// handlePlay starts a run, or offers the character menu when no character was
// named.
func (gc *GameCommands) handlePlay(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !gc.gate.AllowGame(i) {
		discord.RespondEphemeral(s, i, fmt.Sprintf("Games run in <#%s>. Head over there to play.", gc.gate.GameChannelID()))
		return
	}

	query := stringOption(i, "character")
	if query == "" {
		gc.respondCharacterMenu(s, i)
		return
	}

	def, ok := matchCharacter(gc.catalog.List(), query)
	if !ok {
		discord.RespondEphemeral(s, i, fmt.Sprintf(
			"No character matches %q. Available: %s.", query, strings.Join(gc.catalog.IDs(), ", ")))
		return
	}
	gc.startRun(s, i, def, false)
}

// respondCharacterMenu offers a select menu over the catalog.
func (gc *GameCommands) respondCharacterMenu(s *discordgo.Session, i *discordgo.InteractionCreate) {
	defs := gc.catalog.List()
	options := make([]discordgo.SelectMenuOption, 0, len(defs))
	for _, def := range defs {
		options = append(options, discordgo.SelectMenuOption{
			Label:       def.Name,
			Description: def.Title,
			Value:       def.ID,
		})
		if len(options) == 25 { // Discord's select menu cap
			break
		}
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Choose Your Magnate",
		Description: "Pick a character and relive their defining decisions.",
		Color:       colorIntro,
	}
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				CustomID:    characterSelectID,
				Placeholder: "Select a character",
				Options:     options,
			},
		}},
	}
	discord.RespondGame(s, i, []*discordgo.MessageEmbed{embed}, components)
}

// handleAutocomplete suggests characters for the /play character option.
func (gc *GameCommands) handleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	choices := characterChoices(gc.catalog.List(), focusedOption(i))
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
	if err != nil {
		slog.Warn("discord: failed to send autocomplete choices", "error", err)
	}
}

// handleCharacterSelect starts a run from the character select menu.
func (gc *GameCommands) handleCharacterSelect(s *discordgo.Session, i *discordgo.InteractionCreate) {
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		discord.RespondEphemeral(s, i, "Nothing selected.")
		return
	}
	def, err := gc.catalog.Get(values[0])
	if err != nil {
		discord.RespondEphemeral(s, i, fmt.Sprintf("Unknown character %q.", values[0]))
		return
	}
	gc.startRun(s, i, def, true)
}

// startRun begins the session and presents the intro plus the first decision.
// update replaces the originating message instead of posting a new one.
func (gc *GameCommands) startRun(s *discordgo.Session, i *discordgo.InteractionCreate, def character.Definition, update bool) {
	user := interactionUser(i)
	if user == nil {
		discord.RespondEphemeral(s, i, "Could not identify you. Try again.")
		return
	}
	gc.recordPlayer(user)

	info, err := gc.registry.StartSession(user.ID, def.ID)
	if err != nil {
		slog.Error("discord: failed to start session", "character", def.ID, "error", err)
		discord.RespondError(s, i, err)
		return
	}

	embeds := []*discordgo.MessageEmbed{
		introEmbed(info.Character, info.Superseded),
		decisionEmbed(info.Character, info.Prompt),
	}
	components := choiceComponents(info.Character.ID, info.Prompt)
	if update {
		discord.UpdateGame(s, i, embeds, components)
	} else {
		discord.RespondGame(s, i, embeds, components)
	}
}

// handleChoice resolves a decision button click.
func (gc *GameCommands) handleChoice(s *discordgo.Session, i *discordgo.InteractionCreate) {
	rest := strings.TrimPrefix(i.MessageComponentData().CustomID, choicePrefix)
	key, characterID, ok := strings.Cut(rest, ":")
	if !ok {
		discord.RespondEphemeral(s, i, "Malformed choice button.")
		return
	}
	user := interactionUser(i)
	if user == nil {
		discord.RespondEphemeral(s, i, "Could not identify you. Try again.")
		return
	}

	outcome, err := gc.registry.SubmitChoice(user.ID, characterID, key)
	if err != nil {
		var noSession *game.NoActiveSessionError
		var badChoice *game.UnknownChoiceError
		switch {
		case errors.As(err, &noSession):
			discord.RespondEphemeral(s, i, "You have no active run of this character. Start one with `/play`.")
		case errors.As(err, &badChoice):
			discord.RespondEphemeral(s, i, fmt.Sprintf(
				"That option is not available. Valid choices: %s.", strings.Join(badChoice.ValidKeys, ", ")))
		default:
			slog.Error("discord: failed to submit choice", "character", characterID, "error", err)
			discord.RespondError(s, i, err)
		}
		return
	}

	embeds := []*discordgo.MessageEmbed{outcomeEmbed(outcome)}
	var components []discordgo.MessageComponent

	if outcome.Completed {
		embeds = append(embeds, resultEmbed(outcome.Result))
		components = feedbackComponents(characterID)
	} else {
		def, err := gc.catalog.Get(characterID)
		if err != nil {
			// Session accepted the choice, so the character must exist.
			slog.Error("discord: catalog lookup failed mid-game", "character", characterID, "error", err)
			discord.RespondError(s, i, err)
			return
		}
		embeds = append(embeds, decisionEmbed(def, *outcome.Next))
		components = choiceComponents(characterID, *outcome.Next)
	}
	discord.UpdateGame(s, i, embeds, components)
}

// handleGiveUp abandons the clicker's run of the character.
func (gc *GameCommands) handleGiveUp(s *discordgo.Session, i *discordgo.InteractionCreate) {
	characterID := strings.TrimPrefix(i.MessageComponentData().CustomID, giveUpPrefix)
	user := interactionUser(i)
	if user == nil {
		discord.RespondEphemeral(s, i, "Could not identify you. Try again.")
		return
	}

	snap, err := gc.registry.Abandon(user.ID, characterID)
	if err != nil {
		var noSession *game.NoActiveSessionError
		if errors.As(err, &noSession) {
			discord.RespondEphemeral(s, i, "You have no active run of this character.")
			return
		}
		slog.Error("discord: failed to abandon session", "character", characterID, "error", err)
		discord.RespondError(s, i, err)
		return
	}
	discord.UpdateGame(s, i, []*discordgo.MessageEmbed{abandonedEmbed(snap)}, []discordgo.MessageComponent{})
}

// recordPlayer upserts the player's display name, best-effort.
func (gc *GameCommands) recordPlayer(user *discordgo.User) {
	if gc.players == nil {
		return
	}
	ctx, cancel := storeContext()
	defer cancel()
	name := user.GlobalName
	if name == "" {
		name = user.Username
	}
	if err := gc.players.SavePlayer(ctx, user.ID, name); err != nil {
		slog.Warn("discord: failed to save player name", "player_id", user.ID, "error", err)
	}
}
