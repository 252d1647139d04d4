package commands

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/magnate-game/magnate/internal/character"
	"github.com/magnate-game/magnate/internal/discord"
)

// HelpCommands handles /help.
type HelpCommands struct {
	catalog *character.Catalog
}

// NewHelpCommands creates a HelpCommands handler.
func NewHelpCommands(catalog *character.Catalog) *HelpCommands {
	return &HelpCommands{catalog: catalog}
}

// Register registers /help with the router.
func (hc *HelpCommands) Register(router *discord.CommandRouter) {
	router.RegisterCommand("help", hc.Definition(), hc.handleHelp)
}

// Definition returns the /help ApplicationCommand for Discord registration.
func (hc *HelpCommands) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "help",
		Description: "How to play Magnate",
	}
}

func (hc *HelpCommands) handleHelp(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var characters strings.Builder
	for _, def := range hc.catalog.List() {
		fmt.Fprintf(&characters, "**%s** (`%s`) — %s, %d decisions\n", def.Name, def.ID, def.Title, def.TotalDecisions())
	}

	embed := &discordgo.MessageEmbed{
		Title: "Magnate — How to Play",
		Description: "Step into the shoes of a historical magnate and face the decisions they faced. " +
			"Each decision is scored against what actually happened; finish the run to see your analysis.",
		Color: colorIntro,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "Commands",
				Value: "`/play [character]` — start a run (menu when no character given)\n" +
					"`/stats [player]` — game statistics\n" +
					"`/leaderboard [character]` — best scores\n" +
					"`/feedback` — rate the game\n" +
					"`/help` — this message",
			},
			{
				Name:  "Characters",
				Value: strings.TrimRight(characters.String(), "\n"),
			},
			{
				Name: "Scoring",
				Value: "Every decision is worth up to 100 points. 80%+ is excellent, " +
					"50-79% is good, below that means history still has lessons for you.",
			},
		},
	}
	discord.RespondEmbed(s, i, embed)
}
