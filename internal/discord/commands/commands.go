// Package commands implements the Magnate slash commands: starting and
// playing decision games, leaderboards, player statistics, and feedback
// collection.
package commands

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
)

// storeTimeout bounds store calls issued from interaction handlers.
// Discord gives three seconds to acknowledge, so stay under that.
const storeTimeout = 2500 * time.Millisecond

// storeContext returns a bounded context for a store call made inside an
// interaction handler.
func storeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}

// interactionUser returns the invoking user for both guild and DM
// interactions.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// stringOption extracts a top-level string option value.
func stringOption(i *discordgo.InteractionCreate, name string) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}

// userOption extracts a top-level user option value, or nil.
func userOption(s *discordgo.Session, i *discordgo.InteractionCreate, name string) *discordgo.User {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionUser {
			return opt.UserValue(s)
		}
	}
	return nil
}

// focusedOption returns the value of the option currently being typed in an
// autocomplete interaction.
func focusedOption(i *discordgo.InteractionCreate) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Focused {
			return opt.StringValue()
		}
	}
	return ""
}
