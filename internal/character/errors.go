package character

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a character ID is not present in the catalog.
var ErrNotFound = errors.New("character: not found")

// MalformedCharacterError describes a structural defect in a character file
// found during load-time validation. The whole load fails on the first
// malformed file; a character is never partially loaded.
type MalformedCharacterError struct {
	// CharacterID is the catalog ID of the offending file.
	CharacterID string

	// DecisionIndex is the 1-based decision the defect was found in,
	// or 0 for character-level defects.
	DecisionIndex int

	// Err carries the validation findings, usually an errors.Join of
	// individual rule violations.
	Err error
}

func (e *MalformedCharacterError) Error() string {
	if e.DecisionIndex > 0 {
		return fmt.Sprintf("character: malformed character %q decision %d: %v", e.CharacterID, e.DecisionIndex, e.Err)
	}
	return fmt.Sprintf("character: malformed character %q: %v", e.CharacterID, e.Err)
}

func (e *MalformedCharacterError) Unwrap() error { return e.Err }
