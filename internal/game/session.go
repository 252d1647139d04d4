// Package game implements the decision-game core: the per-player session
// state machine, the scoring and analysis engine, and the registry that
// serializes access to active sessions and hands terminal snapshots to an
// archiver.
//
// The state machine and scoring are pure and deterministic; everything
// observable (Discord, persistence, metrics) lives outside this package and
// is attached through the [Archiver] and [Hooks] seams.
package game

import (
	"time"

	"github.com/magnate-game/magnate/internal/character"
)

// Status is a session's lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

// DecisionRecord is one resolved decision within a session.
type DecisionRecord struct {
	// Index is the 1-based decision index.
	Index int

	// ChoiceKey is the key the player picked.
	ChoiceKey string

	// Score awarded for the pick.
	Score int

	// Correct reports whether the pick matched the historical choice,
	// captured at submit time so partial runs keep it too.
	Correct bool
}

// Session is one player's run through one character's decision sequence.
//
// Invariant: len(Records) == CurrentIndex-1 while the session is active,
// i.e. every decision before the current one has exactly one record.
// Sessions are not safe for concurrent use; the [Registry] serializes
// access to them.
type Session struct {
	// PlayerID identifies the player (a Discord user ID in this deployment).
	PlayerID string

	// Character is the definition being played. Immutable.
	Character character.Definition

	// CurrentIndex is the 1-based index of the decision awaiting an answer.
	// After the final decision resolves it equals TotalDecisions()+1.
	CurrentIndex int

	// Records holds the resolved decisions in order.
	Records []DecisionRecord

	// StartedAt is when the session was created.
	StartedAt time.Time

	// LastActivity is updated on every accepted submission; the idle
	// sweeper compares against it.
	LastActivity time.Time

	// Status is the lifecycle state.
	Status Status

	// Result is set when the session completes.
	Result *AnalysisResult
}

// NewSession starts a fresh active session at the first decision.
func NewSession(playerID string, def character.Definition, now time.Time) *Session {
	return &Session{
		PlayerID:     playerID,
		Character:    def,
		CurrentIndex: 1,
		StartedAt:    now,
		LastActivity: now,
		Status:       StatusActive,
	}
}

// TotalScore returns the sum of the recorded scores so far.
func (s *Session) TotalScore() int {
	total := 0
	for _, r := range s.Records {
		total += r.Score
	}
	return total
}

// CurrentDecision returns the decision point awaiting an answer.
// ok is false when the session has no pending decision (terminal, or past
// the final index).
func (s *Session) CurrentDecision() (character.DecisionPoint, bool) {
	if s.Status != StatusActive {
		return character.DecisionPoint{}, false
	}
	return s.Character.Decision(s.CurrentIndex)
}

// NextPrompt describes the decision to present next.
type NextPrompt struct {
	Index    int
	Total    int
	Decision character.DecisionPoint
}

// DecisionOutcome is the full result of one accepted choice submission:
// everything the presentation layer needs to render the reveal, plus the
// next prompt or the final analysis.
type DecisionOutcome struct {
	// DecisionIndex is the decision that was just resolved.
	DecisionIndex int

	// ChoiceKey is the submitted key; Choice is its full data, including
	// the outcome text and any lesson annotation.
	ChoiceKey string
	Choice    character.Choice

	// Score awarded for the pick.
	Score int

	// Correct reports whether the pick was the historically correct choice.
	Correct bool

	// CorrectChoice is the key of the historically correct choice.
	CorrectChoice string

	// HistoricalContext describes what actually happened. Revealed only
	// after the answer, never before.
	HistoricalContext string

	// TotalScore is the running total including this decision.
	TotalScore int

	// Completed is true when this was the final decision.
	Completed bool

	// Next is the following decision prompt; nil when Completed.
	Next *NextPrompt

	// Result is the final analysis; nil unless Completed.
	Result *AnalysisResult
}

// SubmitChoice resolves the current decision with the given choice key and
// advances the session. On the final decision it transitions the session to
// completed and attaches the analysis result.
//
// An unknown key returns [UnknownChoiceError] and leaves the session exactly
// as it was. A terminal session returns [InvalidStateError].
func (s *Session) SubmitChoice(key string, now time.Time) (DecisionOutcome, error) {
	if s.Status != StatusActive {
		return DecisionOutcome{}, &InvalidStateError{Status: s.Status}
	}

	dp, ok := s.Character.Decision(s.CurrentIndex)
	if !ok {
		// Unreachable on validated definitions: an active session always
		// points at an existing decision.
		return DecisionOutcome{}, &InvalidStateError{Status: s.Status}
	}

	choice, ok := dp.Choices.Get(key)
	if !ok {
		return DecisionOutcome{}, &UnknownChoiceError{
			ChoiceKey:     key,
			DecisionIndex: s.CurrentIndex,
			ValidKeys:     dp.Choices.Keys(),
		}
	}

	outcome := DecisionOutcome{
		DecisionIndex:     s.CurrentIndex,
		ChoiceKey:         key,
		Choice:            choice,
		Score:             choice.Score,
		Correct:           key == dp.CorrectChoice,
		CorrectChoice:     dp.CorrectChoice,
		HistoricalContext: dp.HistoricalContext,
	}

	s.Records = append(s.Records, DecisionRecord{
		Index:     s.CurrentIndex,
		ChoiceKey: key,
		Score:     choice.Score,
		Correct:   outcome.Correct,
	})
	s.CurrentIndex++
	s.LastActivity = now
	outcome.TotalScore = s.TotalScore()

	if s.CurrentIndex > s.Character.TotalDecisions() {
		s.Status = StatusCompleted
		result := Finalize(s.Records, s.Character)
		s.Result = &result
		outcome.Completed = true
		outcome.Result = &result
		return outcome, nil
	}

	next, _ := s.Character.Decision(s.CurrentIndex)
	outcome.Next = &NextPrompt{
		Index:    s.CurrentIndex,
		Total:    s.Character.TotalDecisions(),
		Decision: next,
	}
	return outcome, nil
}

// Abandon transitions an active session to abandoned. Returns
// [InvalidStateError] if the session is already terminal.
func (s *Session) Abandon(now time.Time) error {
	if s.Status != StatusActive {
		return &InvalidStateError{Status: s.Status}
	}
	s.Status = StatusAbandoned
	s.LastActivity = now
	return nil
}
