package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func guildInteraction(channelID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			ChannelID: channelID,
			Member: &discordgo.Member{
				User: &discordgo.User{ID: "user-1"},
			},
		},
	}
}

func dmInteraction(channelID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			ChannelID: channelID,
			User:      &discordgo.User{ID: "user-1"},
		},
	}
}

func TestChannelGate_AllowGame(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		gameChannelID string
		inter         *discordgo.InteractionCreate
		want          bool
	}{
		{
			name:          "matching channel",
			gameChannelID: "chan-1",
			inter:         guildInteraction("chan-1"),
			want:          true,
		},
		{
			name:          "other channel",
			gameChannelID: "chan-1",
			inter:         guildInteraction("chan-2"),
			want:          false,
		},
		{
			name:          "unrestricted gate allows any channel",
			gameChannelID: "",
			inter:         guildInteraction("chan-2"),
			want:          true,
		},
		{
			name:          "DM bypasses the gate",
			gameChannelID: "chan-1",
			inter:         dmInteraction("dm-chan"),
			want:          true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gate := NewChannelGate(tt.gameChannelID)
			if got := gate.AllowGame(tt.inter); got != tt.want {
				t.Errorf("AllowGame() = %v, want %v", got, tt.want)
			}
		})
	}
}
