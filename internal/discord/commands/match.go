package commands

import (
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/bwmarrin/discordgo"

	"github.com/magnate-game/magnate/internal/character"
)

// matchThreshold is the minimum Jaro-Winkler similarity for a fuzzy
// character match. Below it, misspellings are rejected rather than guessed.
const matchThreshold = 0.82

// matchCharacter resolves a free-text query to a catalog character.
// Resolution order: exact ID, exact name (case-insensitive), then the best
// Jaro-Winkler score across IDs, names, and name tokens (so "rockefeler" and
// a bare surname both resolve). ok is false when nothing scores above the
// threshold.
func matchCharacter(defs []character.Definition, query string) (character.Definition, bool) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return character.Definition{}, false
	}

	for _, def := range defs {
		if query == def.ID || query == strings.ToLower(def.Name) {
			return def, true
		}
	}

	var best character.Definition
	bestScore := 0.0
	for _, def := range defs {
		if score := similarity(query, def); score > bestScore {
			best, bestScore = def, score
		}
	}
	if bestScore < matchThreshold {
		return character.Definition{}, false
	}
	return best, true
}

// similarity scores a query against one definition: the best Jaro-Winkler
// score over the ID, the full name, and each name token.
func similarity(query string, def character.Definition) float64 {
	score := matchr.JaroWinkler(query, def.ID, false)
	name := strings.ToLower(def.Name)
	if s := matchr.JaroWinkler(query, name, false); s > score {
		score = s
	}
	for _, token := range strings.Fields(name) {
		if s := matchr.JaroWinkler(query, token, false); s > score {
			score = s
		}
	}
	return score
}

// characterChoices builds autocomplete choices for a partial query, ranked
// by prefix match first and similarity second. Discord caps the list at 25.
func characterChoices(defs []character.Definition, partial string) []*discordgo.ApplicationCommandOptionChoice {
	partial = strings.ToLower(strings.TrimSpace(partial))

	var choices []*discordgo.ApplicationCommandOptionChoice
	for _, def := range defs {
		if partial == "" ||
			strings.HasPrefix(def.ID, partial) ||
			strings.HasPrefix(strings.ToLower(def.Name), partial) ||
			similarity(partial, def) >= matchThreshold {
			choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: def.Name, Value: def.ID})
		}
		if len(choices) >= 25 {
			break
		}
	}
	return choices
}
