package discord

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

func componentInteraction(customID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionMessageComponent,
			Data: discordgo.MessageComponentInteractionData{
				CustomID: customID,
			},
		},
	}
}

func modalInteraction(customID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionModalSubmit,
			Data: discordgo.ModalSubmitInteractionData{
				CustomID: customID,
			},
		},
	}
}

func TestCommandRouter_ComponentPrefixMatching(t *testing.T) {
	t.Parallel()

	router := NewCommandRouter()

	var exactCalls, prefixCalls int
	router.RegisterComponent("character_select", func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		exactCalls++
	})
	router.RegisterComponentPrefix("choice:", func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		prefixCalls++
	})

	router.Handle(nil, componentInteraction("character_select"))
	if exactCalls != 1 {
		t.Errorf("exact handler calls = %d, want 1", exactCalls)
	}

	router.Handle(nil, componentInteraction("choice:a:rockefeller"))
	router.Handle(nil, componentInteraction("choice:b:carnegie"))
	if prefixCalls != 2 {
		t.Errorf("prefix handler calls = %d, want 2", prefixCalls)
	}
}

func TestCommandRouter_ModalPrefixMatching(t *testing.T) {
	t.Parallel()

	router := NewCommandRouter()

	var calls []string
	router.RegisterModal("settings", func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		calls = append(calls, "exact")
	})
	router.RegisterModalPrefix("feedback:", func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		calls = append(calls, "prefix")
	})

	router.Handle(nil, modalInteraction("settings"))
	router.Handle(nil, modalInteraction("feedback:rockefeller"))

	if len(calls) != 2 || calls[0] != "exact" || calls[1] != "prefix" {
		t.Errorf("calls = %v, want [exact prefix]", calls)
	}
}

func TestCommandRouter_ObserverReportsPrefixName(t *testing.T) {
	t.Parallel()

	router := NewCommandRouter()
	router.RegisterComponentPrefix("choice:", func(s *discordgo.Session, i *discordgo.InteractionCreate) {})

	type observation struct {
		kind, name string
	}
	var seen []observation
	router.SetObserver(func(kind, name string, elapsed time.Duration) {
		if elapsed < 0 {
			t.Errorf("elapsed = %v, want >= 0", elapsed)
		}
		seen = append(seen, observation{kind: kind, name: name})
	})

	router.Handle(nil, componentInteraction("choice:a:rockefeller"))

	if len(seen) != 1 {
		t.Fatalf("observations = %d, want 1", len(seen))
	}
	if seen[0].kind != "component" || seen[0].name != "choice:" {
		t.Errorf("observed %+v, want kind=component name=choice:", seen[0])
	}
}

func TestCommandRouter_ApplicationCommandsDeduplicates(t *testing.T) {
	t.Parallel()

	router := NewCommandRouter()
	noop := func(s *discordgo.Session, i *discordgo.InteractionCreate) {}

	playCmd := &discordgo.ApplicationCommand{Name: "play"}
	router.RegisterCommand("play", playCmd, noop)
	router.RegisterCommand("play/again", playCmd, noop)
	router.RegisterCommand("stats", &discordgo.ApplicationCommand{Name: "stats"}, noop)
	router.RegisterHandler("stats/detail", noop)

	cmds := router.ApplicationCommands()
	if len(cmds) != 2 {
		t.Fatalf("ApplicationCommands() = %d commands, want 2", len(cmds))
	}
	names := map[string]bool{}
	for _, c := range cmds {
		names[c.Name] = true
	}
	if !names["play"] || !names["stats"] {
		t.Errorf("command names = %v, want play and stats", names)
	}
}
