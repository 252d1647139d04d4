package discord

import "github.com/bwmarrin/discordgo"

// ChannelGate restricts game commands to a configured text channel so
// long-running decision threads don't flood general channels.
type ChannelGate struct {
	gameChannelID string
}

// NewChannelGate creates a ChannelGate for the given channel ID.
// An empty ID allows game commands everywhere.
func NewChannelGate(gameChannelID string) *ChannelGate {
	return &ChannelGate{gameChannelID: gameChannelID}
}

// AllowGame reports whether the interaction's channel may run game commands.
// DMs with the bot are always allowed; read-only commands are expected to
// skip the gate entirely.
func (g *ChannelGate) AllowGame(i *discordgo.InteractionCreate) bool {
	if g.gameChannelID == "" {
		return true
	}
	if i.Member == nil {
		// No guild member means a DM channel.
		return true
	}
	return i.ChannelID == g.gameChannelID
}

// GameChannelID returns the configured channel, empty when unrestricted.
func (g *ChannelGate) GameChannelID() string {
	return g.gameChannelID
}
