package game

import "fmt"

// UnknownCharacterError is returned by [Registry.StartSession] when the
// requested character ID is not in the catalog.
type UnknownCharacterError struct {
	CharacterID string
}

func (e *UnknownCharacterError) Error() string {
	return fmt.Sprintf("game: unknown character %q", e.CharacterID)
}

// NoActiveSessionError is returned when an operation needs an active session
// for the (player, character) pair and none exists.
type NoActiveSessionError struct {
	PlayerID    string
	CharacterID string
}

func (e *NoActiveSessionError) Error() string {
	return fmt.Sprintf("game: player %s has no active session for character %q", e.PlayerID, e.CharacterID)
}

// InvalidStateError is returned when an operation is attempted on a session
// that has already reached a terminal status.
type InvalidStateError struct {
	Status Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("game: session is %s, not active", e.Status)
}

// UnknownChoiceError is returned by SubmitChoice when the given key does not
// identify a choice of the current decision. The session is left untouched;
// the same submission can be retried with a valid key.
type UnknownChoiceError struct {
	ChoiceKey     string
	DecisionIndex int
	ValidKeys     []string
}

func (e *UnknownChoiceError) Error() string {
	return fmt.Sprintf("game: decision %d has no choice %q (valid: %v)", e.DecisionIndex, e.ChoiceKey, e.ValidKeys)
}
