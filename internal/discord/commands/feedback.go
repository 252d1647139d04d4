package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/magnate-game/magnate/internal/discord"
	"github.com/magnate-game/magnate/internal/gamestore"
)

// FeedbackStore persists post-game feedback.
type FeedbackStore interface {
	SaveFeedback(ctx context.Context, fb gamestore.Feedback) error
}

// FeedbackCommands handles /feedback, the post-game feedback button, and the
// rating modal both open.
type FeedbackCommands struct {
	store    FeedbackStore
	cooldown time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last map[string]time.Time // playerID → last accepted submission
}

// NewFeedbackCommands creates a FeedbackCommands handler. cooldown is the
// minimum time between submissions from one player; zero allows unlimited
// feedback.
func NewFeedbackCommands(store FeedbackStore, cooldown time.Duration) *FeedbackCommands {
	return &FeedbackCommands{
		store:    store,
		cooldown: cooldown,
		now:      time.Now,
		last:     make(map[string]time.Time),
	}
}

// Register registers /feedback plus the button and modal handlers with the
// router.
func (fc *FeedbackCommands) Register(router *discord.CommandRouter) {
	router.RegisterCommand("feedback", fc.Definition(), fc.handleCommand)
	router.RegisterComponentPrefix(feedbackOpenPrefix, fc.handleOpen)
	router.RegisterModalPrefix(feedbackModal, fc.handleModal)
}

// Definition returns the /feedback ApplicationCommand for Discord
// registration.
func (fc *FeedbackCommands) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "feedback",
		Description: "Rate the Magnate game",
	}
}

// handleCommand opens the rating modal without a character context.
func (fc *FeedbackCommands) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	fc.openModal(s, i, "")
}

// handleOpen opens the feedback modal for the character the button carries.
func (fc *FeedbackCommands) handleOpen(s *discordgo.Session, i *discordgo.InteractionCreate) {
	fc.openModal(s, i, strings.TrimPrefix(i.MessageComponentData().CustomID, feedbackOpenPrefix))
}

func (fc *FeedbackCommands) openModal(s *discordgo.Session, i *discordgo.InteractionCreate, characterID string) {
	if user := interactionUser(i); user != nil {
		if remaining, held := fc.onCooldown(user.ID); held {
			discord.RespondEphemeral(s, i, fmt.Sprintf(
				"You rated the game recently. Try again in %s.", remaining.Round(time.Minute)))
			return
		}
	}

	discord.RespondModal(s, i, &discordgo.InteractionResponseData{
		CustomID: feedbackModal + characterID,
		Title:    "Rate This Game",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "rating",
						Label:       "Rating (1=poor, 5=great)",
						Style:       discordgo.TextInputShort,
						Placeholder: "1-5",
						Required:    new(true),
						MinLength:   1,
						MaxLength:   1,
					},
				},
			},
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "comments",
						Label:       "Comments (optional)",
						Style:       discordgo.TextInputParagraph,
						Placeholder: "What worked well? What needs improvement?",
						Required:    new(false),
						MaxLength:   1000,
					},
				},
			},
		},
	})
}

// handleModal processes the submitted feedback form.
func (fc *FeedbackCommands) handleModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	fb, err := feedbackFromModal(i.ModalSubmitData())
	if err != nil {
		// Nothing is stored; the player can reopen the modal and retry.
		discord.RespondEphemeral(s, i, "That rating didn't look like a number. Please enter a rating from 1 to 5.")
		return
	}
	if user := interactionUser(i); user != nil {
		fb.PlayerID = user.ID
	}

	if fc.store != nil {
		ctx, cancel := storeContext()
		defer cancel()
		if err := fc.store.SaveFeedback(ctx, fb); err != nil {
			slog.Error("discord: failed to save feedback", "character", fb.CharacterID, "error", err)
			discord.RespondEphemeral(s, i, fmt.Sprintf("Failed to save feedback: %v", err))
			return
		}
	}
	if fb.PlayerID != "" {
		fc.markSubmitted(fb.PlayerID)
	}

	discord.RespondEphemeral(s, i, fmt.Sprintf("Thank you for your feedback! Rating: %d/5", fb.Rating))
}

// onCooldown reports whether the player submitted feedback within the
// cooldown window, and how long remains.
func (fc *FeedbackCommands) onCooldown(playerID string) (time.Duration, bool) {
	if fc.cooldown <= 0 {
		return 0, false
	}
	fc.mu.Lock()
	defer fc.mu.Unlock()
	at, ok := fc.last[playerID]
	if !ok {
		return 0, false
	}
	elapsed := fc.now().Sub(at)
	if elapsed >= fc.cooldown {
		return 0, false
	}
	return fc.cooldown - elapsed, true
}

func (fc *FeedbackCommands) markSubmitted(playerID string) {
	if fc.cooldown <= 0 {
		return
	}
	fc.mu.Lock()
	fc.last[playerID] = fc.now()
	fc.mu.Unlock()
}

// feedbackFromModal extracts a feedback row from the submitted form. An
// unusable rating is an error and the submission is discarded.
func feedbackFromModal(data discordgo.ModalSubmitInteractionData) (gamestore.Feedback, error) {
	fb := gamestore.Feedback{
		CharacterID: strings.TrimPrefix(data.CustomID, feedbackModal),
		CreatedAt:   time.Now(),
	}

	var ratingInput string
	for _, row := range data.Components {
		ar, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, comp := range ar.Components {
			ti, ok := comp.(*discordgo.TextInput)
			if !ok {
				continue
			}
			switch ti.CustomID {
			case "rating":
				ratingInput = ti.Value
			case "comments":
				fb.Comments = strings.TrimSpace(ti.Value)
			}
		}
	}

	rating, err := parseRating(ratingInput)
	if err != nil {
		return gamestore.Feedback{}, err
	}
	fb.Rating = rating
	return fb, nil
}

// parseRating parses a 1-5 rating, clamping out-of-range numbers. Input that
// is not a number at all is an error; a score must never be invented for the
// player.
func parseRating(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("commands: rating %q is not a number", s)
	}
	if n < 1 {
		return 1, nil
	}
	if n > 5 {
		return 5, nil
	}
	return n, nil
}
