package commands

import (
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/magnate-game/magnate/internal/character"
	"github.com/magnate-game/magnate/internal/game"
)

func testPrompt(choiceKeys ...string) game.NextPrompt {
	choices := make(character.ChoiceList, 0, len(choiceKeys))
	for _, key := range choiceKeys {
		choices = append(choices, character.ChoiceEntry{
			Key:    key,
			Choice: character.Choice{Text: "Option " + key, Score: 50},
		})
	}
	return game.NextPrompt{
		Index: 2,
		Total: 4,
		Decision: character.DecisionPoint{
			Year:          1870,
			Context:       "The market is turning.",
			Question:      "What do you do?",
			Choices:       choices,
			CorrectChoice: choiceKeys[0],
		},
	}
}

func TestFormatDollars(t *testing.T) {
	t.Parallel()

	cases := []struct {
		amount int64
		want   string
	}{
		{0, "$0"},
		{900, "$900"},
		{4000, "$4,000"},
		{1500000, "$1,500,000"},
		{-25000, "-$25,000"},
	}
	for _, tc := range cases {
		if got := formatDollars(tc.amount); got != tc.want {
			t.Errorf("formatDollars(%d) = %q, want %q", tc.amount, got, tc.want)
		}
	}
}

func TestDecisionEmbedListsChoicesInOrder(t *testing.T) {
	t.Parallel()

	def := character.Definition{ID: "rockefeller", Name: "John D. Rockefeller"}
	embed := decisionEmbed(def, testPrompt("a", "b", "c"))

	if !strings.Contains(embed.Title, "Decision 2 of 4") {
		t.Errorf("Title = %q, want decision index and total", embed.Title)
	}
	if len(embed.Fields) != 3 {
		t.Fatalf("Fields = %d, want 3", len(embed.Fields))
	}
	for i, want := range []string{"A", "B", "C"} {
		if embed.Fields[i].Name != want {
			t.Errorf("Fields[%d].Name = %q, want %q", i, embed.Fields[i].Name, want)
		}
	}
	if !strings.Contains(embed.Description, "What do you do?") {
		t.Errorf("Description missing question: %q", embed.Description)
	}
}

func TestChoiceComponentsLayout(t *testing.T) {
	t.Parallel()

	rows := choiceComponents("rockefeller", testPrompt("a", "b", "c"))
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (choices + give up)", len(rows))
	}

	choiceRow, ok := rows[0].(discordgo.ActionsRow)
	if !ok {
		t.Fatalf("rows[0] is %T, want ActionsRow", rows[0])
	}
	if len(choiceRow.Components) != 3 {
		t.Fatalf("choice buttons = %d, want 3", len(choiceRow.Components))
	}
	first, ok := choiceRow.Components[0].(discordgo.Button)
	if !ok {
		t.Fatalf("choice component is %T, want Button", choiceRow.Components[0])
	}
	if first.CustomID != "choice:a:rockefeller" {
		t.Errorf("CustomID = %q, want %q", first.CustomID, "choice:a:rockefeller")
	}

	giveUpRow, ok := rows[1].(discordgo.ActionsRow)
	if !ok {
		t.Fatalf("rows[1] is %T, want ActionsRow", rows[1])
	}
	giveUp, ok := giveUpRow.Components[0].(discordgo.Button)
	if !ok {
		t.Fatalf("give-up component is %T, want Button", giveUpRow.Components[0])
	}
	if giveUp.CustomID != "giveup:rockefeller" {
		t.Errorf("give-up CustomID = %q, want %q", giveUp.CustomID, "giveup:rockefeller")
	}
}

func TestChoiceComponentsChunksLongRows(t *testing.T) {
	t.Parallel()

	rows := choiceComponents("x", testPrompt("a", "b", "c", "d", "e", "f", "g"))
	// 7 choices split 5+2, plus the give-up row.
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if first := rows[0].(discordgo.ActionsRow); len(first.Components) != 5 {
		t.Errorf("first row = %d buttons, want 5", len(first.Components))
	}
	if second := rows[1].(discordgo.ActionsRow); len(second.Components) != 2 {
		t.Errorf("second row = %d buttons, want 2", len(second.Components))
	}
}

func TestOutcomeEmbedRevealsCorrectChoiceOnMiss(t *testing.T) {
	t.Parallel()

	outcome := game.DecisionOutcome{
		DecisionIndex:     1,
		ChoiceKey:         "b",
		Choice:            character.Choice{Text: "Option b", Outcome: "It backfires.", Score: 20, Lesson: "Patience."},
		Score:             20,
		Correct:           false,
		CorrectChoice:     "a",
		HistoricalContext: "He chose differently.",
		TotalScore:        20,
	}
	embed := outcomeEmbed(outcome)

	if embed.Color != colorWrong {
		t.Errorf("Color = %#x, want %#x", embed.Color, colorWrong)
	}
	var haveCorrect, haveLesson, haveHistory bool
	for _, f := range embed.Fields {
		switch f.Name {
		case "Historical Choice":
			haveCorrect = f.Value == "A"
		case "Lesson":
			haveLesson = true
		case "What Actually Happened":
			haveHistory = true
		}
	}
	if !haveCorrect {
		t.Error("missing or wrong Historical Choice field")
	}
	if !haveLesson {
		t.Error("missing Lesson field")
	}
	if !haveHistory {
		t.Error("missing What Actually Happened field")
	}
}

func TestResultEmbedTierPresentation(t *testing.T) {
	t.Parallel()

	res := &game.AnalysisResult{
		CharacterID:   "rockefeller",
		CharacterName: "John D. Rockefeller",
		TotalScore:    250,
		MaxPossible:   300,
		Percentage:    83,
		Tier:          character.TierExcellent,
		Analysis:      character.AnalysisTemplate{Text: "Masterful.", Principles: []string{"Discipline"}},
		CorrectCount:  2,
		Accuracy:      67,
		History: []game.RecordDetail{
			{Index: 1, Year: 1870, ChoiceKey: "a", Score: 100, Correct: true},
			{Index: 2, Year: 1875, ChoiceKey: "b", Score: 50, Correct: false},
			{Index: 3, Year: 1880, ChoiceKey: "a", Score: 100, Correct: true},
		},
	}
	embed := resultEmbed(res)

	if embed.Color != colorExcellent {
		t.Errorf("Color = %#x, want %#x", embed.Color, colorExcellent)
	}
	if !strings.Contains(embed.Description, "250 / 300") {
		t.Errorf("Description missing score: %q", embed.Description)
	}
	if !strings.Contains(embed.Description, "Excellent") {
		t.Errorf("Description missing tier label: %q", embed.Description)
	}

	var history string
	for _, f := range embed.Fields {
		if f.Name == "Decision History" {
			history = f.Value
		}
	}
	if history == "" {
		t.Fatal("missing Decision History field")
	}
	if got := strings.Count(history, "\n"); got != 3 {
		t.Errorf("history lines = %d, want 3", got)
	}
}
