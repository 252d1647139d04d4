package commands

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/magnate-game/magnate/internal/character"
	"github.com/magnate-game/magnate/internal/game"
)

// Embed colors.
const (
	colorIntro    = 0xc9a227 // gold
	colorDecision = 0x3498db // blue
	colorCorrect  = 0x2ecc71 // green
	colorWrong    = 0xe74c3c // red
	colorNeutral  = 0x95a5a6 // gray

	colorExcellent = 0xc9a227
	colorGood      = 0x2ecc71
	colorNeedsWork = 0xe67e22
)

// Component custom_id scheme. Dynamic suffixes carry the character ID so a
// handler can recover the (player, character) session key from the click
// alone.
const (
	characterSelectID  = "character_select"
	choicePrefix       = "choice:"        // choice:<key>:<characterID>
	giveUpPrefix       = "giveup:"        // giveup:<characterID>
	feedbackOpenPrefix = "feedback_open:" // feedback_open:<characterID>
	feedbackModal      = "feedback:"      // feedback:<characterID>
)

// introEmbed presents a character before the first decision.
func introEmbed(def character.Definition, superseded bool) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s — %s", def.Name, def.Title),
		Description: fmt.Sprintf("The year is **%d**. You have **%s** and a decision to make.\n\nStep into %s's shoes: %d decisions stand between you and history's verdict.",
			def.StartingYear, formatDollars(def.InitialCapital), def.Name, def.TotalDecisions()),
		Color: colorIntro,
	}
	if len(def.KeyPrinciples) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Key Principles",
			Value: bulletList(def.KeyPrinciples),
		})
	}
	if superseded {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "Your previous run of this character was abandoned."}
	}
	return embed
}

// decisionEmbed renders one decision prompt. The historical outcome stays
// hidden until the player answers.
func decisionEmbed(def character.Definition, p game.NextPrompt) *discordgo.MessageEmbed {
	var b strings.Builder
	b.WriteString(p.Decision.Context)
	b.WriteString("\n\n**")
	b.WriteString(p.Decision.Question)
	b.WriteString("**")

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Decision %d of %d — %d", p.Index, p.Total, p.Decision.Year),
		Description: b.String(),
		Color:       colorDecision,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%s • decision %d/%d", def.Name, p.Index, p.Total),
		},
	}
	for _, entry := range p.Decision.Choices {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  strings.ToUpper(entry.Key),
			Value: entry.Choice.Text,
		})
	}
	return embed
}

// choiceComponents builds the button rows for a decision: one button per
// choice plus a give-up button. Discord caps a row at five buttons.
func choiceComponents(characterID string, p game.NextPrompt) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	var row []discordgo.MessageComponent
	for _, entry := range p.Decision.Choices {
		row = append(row, discordgo.Button{
			Label:    strings.ToUpper(entry.Key),
			Style:    discordgo.PrimaryButton,
			CustomID: choicePrefix + entry.Key + ":" + characterID,
		})
		if len(row) == 5 {
			rows = append(rows, discordgo.ActionsRow{Components: row})
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: row})
	}
	rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{
			Label:    "Give up",
			Style:    discordgo.SecondaryButton,
			CustomID: giveUpPrefix + characterID,
		},
	}})
	return rows
}

// outcomeEmbed reveals the consequence of a submitted choice.
func outcomeEmbed(o game.DecisionOutcome) *discordgo.MessageEmbed {
	title := fmt.Sprintf("Decision %d: historically correct!", o.DecisionIndex)
	color := colorCorrect
	if !o.Correct {
		title = fmt.Sprintf("Decision %d: history went another way", o.DecisionIndex)
		color = colorWrong
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: o.Choice.Outcome,
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Score",
				Value:  fmt.Sprintf("%d / 100", o.Score),
				Inline: true,
			},
			{
				Name:   "Running Total",
				Value:  fmt.Sprintf("%d", o.TotalScore),
				Inline: true,
			},
		},
	}
	if !o.Correct {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Historical Choice",
			Value:  strings.ToUpper(o.CorrectChoice),
			Inline: true,
		})
	}
	if o.HistoricalContext != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "What Actually Happened",
			Value: o.HistoricalContext,
		})
	}
	if o.Choice.Lesson != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Lesson",
			Value: o.Choice.Lesson,
		})
	}
	return embed
}

// resultEmbed renders the final analysis of a completed run.
func resultEmbed(res *game.AnalysisResult) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s — Final Analysis", res.CharacterName),
		Description: fmt.Sprintf("**%d / %d points (%d%%)** — %s\n\n%s",
			res.TotalScore, res.MaxPossible, res.Percentage, tierLabel(res.Tier), res.Analysis.Text),
		Color: tierColor(res.Tier),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Historical Accuracy",
				Value:  fmt.Sprintf("%d of %d decisions (%d%%)", res.CorrectCount, len(res.History), res.Accuracy),
				Inline: true,
			},
		},
	}
	if len(res.Analysis.Principles) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Takeaways",
			Value: bulletList(res.Analysis.Principles),
		})
	}
	if len(res.History) > 0 {
		var b strings.Builder
		for _, rec := range res.History {
			mark := "✅"
			if !rec.Correct {
				mark = "❌"
			}
			fmt.Fprintf(&b, "%s **%d** (%d) — picked %s, %d pts\n", mark, rec.Index, rec.Year, strings.ToUpper(rec.ChoiceKey), rec.Score)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Decision History",
			Value: b.String(),
		})
	}
	return embed
}

// abandonedEmbed renders the end card of a given-up run.
func abandonedEmbed(snap game.Snapshot) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s — Run Abandoned", snap.CharacterName),
		Description: fmt.Sprintf("You stepped away after %d decision(s) with %d points. History waits; `/play` to try again.",
			len(snap.Records), snap.TotalScore),
		Color: colorNeutral,
	}
}

// feedbackComponents builds the post-game feedback button row.
func feedbackComponents(characterID string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Rate this game",
				Style:    discordgo.SecondaryButton,
				CustomID: feedbackOpenPrefix + characterID,
			},
		}},
	}
}

// tierLabel maps a tier to its display form.
func tierLabel(t character.Tier) string {
	switch t {
	case character.TierExcellent:
		return "Excellent"
	case character.TierGood:
		return "Good"
	default:
		return "Needs Improvement"
	}
}

func tierColor(t character.Tier) int {
	switch t {
	case character.TierExcellent:
		return colorExcellent
	case character.TierGood:
		return colorGood
	default:
		return colorNeedsWork
	}
}

// bulletList renders items as a Markdown bullet list.
func bulletList(items []string) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString("• ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatDollars renders an amount with thousands separators, e.g. "$4,000".
func formatDollars(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := fmt.Sprintf("%d", amount)
	var b strings.Builder
	if neg {
		b.WriteString("-")
	}
	b.WriteString("$")
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteString(",")
		}
		b.WriteRune(d)
	}
	return b.String()
}
