package character

import (
	"errors"
	"fmt"
)

// Validate checks a [Definition] for the structural guarantees the rest of
// the system relies on, so no consumer ever has to re-check them.
//
// Rules:
//   - Name and Title must be non-empty; StartingYear positive;
//     InitialCapital non-negative.
//   - Decision indices must be contiguous starting at 1.
//   - Every decision needs a question, at least two choices, and a
//     correct_choice key that references an existing choice.
//   - Every choice needs text and a score in [0, 100]; at least one choice
//     per decision must score 100 so the maximum attainable total is
//     100 per decision.
//   - All three analysis templates must carry text.
//
// Violations are reported as a [MalformedCharacterError]; the first decision
// with defects determines DecisionIndex.
func Validate(def Definition) error {
	if err := validateHeader(def); err != nil {
		return &MalformedCharacterError{CharacterID: def.ID, Err: err}
	}
	for i := 1; i <= len(def.Decisions); i++ {
		dp, ok := def.Decisions[i]
		if !ok {
			return &MalformedCharacterError{
				CharacterID: def.ID,
				Err:         fmt.Errorf("decision indices must be contiguous from 1: index %d missing", i),
			}
		}
		if err := validateDecision(dp); err != nil {
			return &MalformedCharacterError{CharacterID: def.ID, DecisionIndex: i, Err: err}
		}
	}
	return nil
}

func validateHeader(def Definition) error {
	var errs []error

	if def.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if def.Title == "" {
		errs = append(errs, errors.New("title must not be empty"))
	}
	if def.StartingYear <= 0 {
		errs = append(errs, fmt.Errorf("starting_year %d must be positive", def.StartingYear))
	}
	if def.InitialCapital < 0 {
		errs = append(errs, fmt.Errorf("initial_capital %d must not be negative", def.InitialCapital))
	}
	if len(def.Decisions) == 0 {
		errs = append(errs, errors.New("decisions must not be empty"))
	}
	if def.AnalysisTemplates.Excellent.Text == "" {
		errs = append(errs, errors.New("analysis_templates.excellent must have text"))
	}
	if def.AnalysisTemplates.Good.Text == "" {
		errs = append(errs, errors.New("analysis_templates.good must have text"))
	}
	if def.AnalysisTemplates.NeedsImprovement.Text == "" {
		errs = append(errs, errors.New("analysis_templates.needs_improvement must have text"))
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

func validateDecision(dp DecisionPoint) error {
	var errs []error

	if dp.Question == "" {
		errs = append(errs, errors.New("question must not be empty"))
	}
	if len(dp.Choices) < 2 {
		errs = append(errs, fmt.Errorf("needs at least 2 choices, has %d", len(dp.Choices)))
	}

	seen := make(map[string]bool, len(dp.Choices))
	top := false
	for _, e := range dp.Choices {
		if seen[e.Key] {
			errs = append(errs, fmt.Errorf("choice key %q duplicated", e.Key))
		}
		seen[e.Key] = true
		if e.Choice.Text == "" {
			errs = append(errs, fmt.Errorf("choice %q: text must not be empty", e.Key))
		}
		if e.Choice.Score < 0 || e.Choice.Score > 100 {
			errs = append(errs, fmt.Errorf("choice %q: score %d out of range [0,100]", e.Key, e.Choice.Score))
		}
		if e.Choice.Score == 100 {
			top = true
		}
	}
	if !top && len(dp.Choices) > 0 {
		errs = append(errs, errors.New("at least one choice must score 100"))
	}

	if dp.CorrectChoice == "" {
		errs = append(errs, errors.New("correct_choice must not be empty"))
	} else if !seen[dp.CorrectChoice] {
		errs = append(errs, fmt.Errorf("correct_choice %q references no choice", dp.CorrectChoice))
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
