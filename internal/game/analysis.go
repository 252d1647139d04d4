package game

import (
	"math"

	"github.com/magnate-game/magnate/internal/character"
)

// Tier boundaries, applied uniformly to every character.
const (
	tierExcellentMin = 80
	tierGoodMin      = 50
)

// TierFor maps a final percentage to its performance tier:
// >= 80 excellent, 50-79 good, below 50 needs improvement.
func TierFor(percentage int) character.Tier {
	switch {
	case percentage >= tierExcellentMin:
		return character.TierExcellent
	case percentage >= tierGoodMin:
		return character.TierGood
	default:
		return character.TierNeedsImprovement
	}
}

// RecordDetail is one decision of the final recap, joining the player's
// record with the catalog data needed to contrast it against history.
type RecordDetail struct {
	Index         int
	Year          int
	Question      string
	ChoiceKey     string
	ChoiceText    string
	Score         int
	Correct       bool
	CorrectChoice string
}

// AnalysisResult is the final evaluation of a completed session.
type AnalysisResult struct {
	// CharacterID and CharacterName identify the definition played.
	CharacterID   string
	CharacterName string

	// TotalScore is the sum of awarded scores; MaxPossible is 100 per
	// decision.
	TotalScore  int
	MaxPossible int

	// Percentage is round(100*TotalScore/MaxPossible), clamped to [0,100].
	Percentage int

	// Tier is the performance bucket for Percentage.
	Tier character.Tier

	// Analysis is the character's narrative for the tier, with its key
	// principles, verbatim from the definition.
	Analysis character.AnalysisTemplate

	// CorrectCount is how many decisions matched the historical choice;
	// Accuracy is its percentage of the decision count.
	CorrectCount int
	Accuracy     int

	// History is the full per-decision recap in sequence order.
	History []RecordDetail
}

// Finalize computes the analysis for a finished decision sequence. It is
// pure: same records and definition always produce the same result, and
// nothing is mutated.
func Finalize(records []DecisionRecord, def character.Definition) AnalysisResult {
	n := def.TotalDecisions()
	res := AnalysisResult{
		CharacterID:   def.ID,
		CharacterName: def.Name,
		MaxPossible:   100 * n,
		History:       make([]RecordDetail, 0, len(records)),
	}

	for _, rec := range records {
		res.TotalScore += rec.Score
		detail := RecordDetail{
			Index:     rec.Index,
			ChoiceKey: rec.ChoiceKey,
			Score:     rec.Score,
		}
		if dp, ok := def.Decision(rec.Index); ok {
			detail.Year = dp.Year
			detail.Question = dp.Question
			detail.CorrectChoice = dp.CorrectChoice
			detail.Correct = rec.ChoiceKey == dp.CorrectChoice
			if c, ok := dp.Choices.Get(rec.ChoiceKey); ok {
				detail.ChoiceText = c.Text
			}
		}
		if detail.Correct {
			res.CorrectCount++
		}
		res.History = append(res.History, detail)
	}

	res.Percentage = clampPercent(res.TotalScore, res.MaxPossible)
	res.Tier = TierFor(res.Percentage)
	res.Analysis = def.AnalysisTemplates.ForTier(res.Tier)
	if n > 0 {
		res.Accuracy = clampPercent(res.CorrectCount, n)
	}
	return res
}

// clampPercent rounds 100*part/whole to the nearest integer and clamps the
// result to [0,100]. A zero whole yields 0.
func clampPercent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	pct := int(math.Round(100 * float64(part) / float64(whole)))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
