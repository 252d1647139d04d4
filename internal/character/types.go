// Package character provides the playable-character catalog for Magnate.
//
// Characters are defined declaratively in YAML files, one file per character,
// and describe an ordered sequence of historical decision points with scored
// choices plus the analysis narratives shown when a game concludes. The
// catalog is loaded once at startup ([LoadDir]), validated structurally
// ([Validate]), and is read-only afterwards.
package character

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Definition is a playable character: identity, framing metadata, the ordered
// decision sequence, and the per-tier analysis templates.
//
// Definitions are immutable after load. Decision indices are 1-based and
// contiguous; [Definition.Decision] resolves a decision point by index.
type Definition struct {
	// ID is the catalog identifier, derived from the source filename
	// (without extension). Never present in the YAML itself.
	ID string `yaml:"-"`

	// Name is the character's display name (e.g., "John D. Rockefeller").
	Name string `yaml:"name"`

	// Title is a short epithet shown alongside the name.
	Title string `yaml:"title"`

	// StartingYear is the year the simulation begins.
	StartingYear int `yaml:"starting_year"`

	// InitialCapital is the character's starting capital in dollars.
	InitialCapital int64 `yaml:"initial_capital"`

	// KeyPrinciples are display-only guiding principles listed in the
	// character intro.
	KeyPrinciples []string `yaml:"key_principles"`

	// Decisions maps the 1-based sequence index to its decision point.
	// Validation guarantees the keys are contiguous starting at 1.
	Decisions map[int]DecisionPoint `yaml:"decisions"`

	// AnalysisTemplates holds the three performance-tier narratives.
	AnalysisTemplates AnalysisTemplates `yaml:"analysis_templates"`
}

// TotalDecisions returns the number of decision points in the sequence.
func (d Definition) TotalDecisions() int {
	return len(d.Decisions)
}

// Decision returns the decision point at the given 1-based index.
// ok is false when the index is out of range.
func (d Definition) Decision(index int) (DecisionPoint, bool) {
	dp, ok := d.Decisions[index]
	return dp, ok
}

// DecisionPoint is one step of a character's decision sequence: a scenario,
// a question, and a set of labeled choices of which exactly one is the
// historically correct path.
type DecisionPoint struct {
	// Year the decision takes place.
	Year int `yaml:"year"`

	// Context is the narrative scene-setting shown before the question.
	Context string `yaml:"context"`

	// Question is the decision prompt.
	Question string `yaml:"question"`

	// Choices are the labeled options, in presentation order.
	Choices ChoiceList `yaml:"choices"`

	// CorrectChoice is the key of the historically correct choice.
	// Validation guarantees it references an existing key.
	CorrectChoice string `yaml:"correct_choice"`

	// HistoricalContext is shown after the player answers, describing what
	// actually happened.
	HistoricalContext string `yaml:"historical_context"`
}

// Choice is a single selectable option within a decision point.
type Choice struct {
	// Text is the option label shown to the player before choosing.
	Text string `yaml:"text"`

	// Outcome is the narrative consequence shown after choosing.
	Outcome string `yaml:"outcome"`

	// Score awarded for this choice, in [0, 100].
	Score int `yaml:"score"`

	// Lesson is optional display-only commentary attached to some choices.
	// It never affects scoring.
	Lesson string `yaml:"lesson"`
}

// ChoiceEntry pairs a choice key (a short identifier such as "a") with its
// choice data.
type ChoiceEntry struct {
	Key    string
	Choice Choice
}

// ChoiceList holds a decision point's choices in YAML insertion order.
// Presentation order is significant, so the usual map decoding is not enough.
type ChoiceList []ChoiceEntry

// UnmarshalYAML decodes a YAML mapping into a ChoiceList, preserving the
// order in which keys appear in the document.
func (l *ChoiceList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("character: choices must be a mapping, got %s", kindName(node.Kind))
	}
	entries := make(ChoiceList, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		var entry ChoiceEntry
		if err := keyNode.Decode(&entry.Key); err != nil {
			return fmt.Errorf("character: decode choice key: %w", err)
		}
		if err := valNode.Decode(&entry.Choice); err != nil {
			return fmt.Errorf("character: decode choice %q: %w", entry.Key, err)
		}
		entries = append(entries, entry)
	}
	*l = entries
	return nil
}

// Get returns the choice for the given key. ok is false when no choice with
// that key exists.
func (l ChoiceList) Get(key string) (Choice, bool) {
	for _, e := range l {
		if e.Key == key {
			return e.Choice, true
		}
	}
	return Choice{}, false
}

// Keys returns the choice keys in presentation order.
func (l ChoiceList) Keys() []string {
	keys := make([]string, len(l))
	for i, e := range l {
		keys[i] = e.Key
	}
	return keys
}

// Tier is a qualitative performance bucket assigned from the final
// percentage score.
type Tier string

const (
	TierExcellent        Tier = "excellent"
	TierGood             Tier = "good"
	TierNeedsImprovement Tier = "needs_improvement"
)

// IsValid reports whether t is a recognised tier.
func (t Tier) IsValid() bool {
	switch t {
	case TierExcellent, TierGood, TierNeedsImprovement:
		return true
	}
	return false
}

// AnalysisTemplate is the narrative shown for one performance tier.
type AnalysisTemplate struct {
	// Text is the tier's analysis narrative.
	Text string `yaml:"text"`

	// Principles are the key takeaways listed under the narrative.
	Principles []string `yaml:"principles"`
}

// AnalysisTemplates bundles the narratives for all three tiers. All three
// must be present; the loader rejects characters with a missing tier.
type AnalysisTemplates struct {
	Excellent        AnalysisTemplate `yaml:"excellent"`
	Good             AnalysisTemplate `yaml:"good"`
	NeedsImprovement AnalysisTemplate `yaml:"needs_improvement"`
}

// ForTier returns the template for the given tier. Unrecognised tiers fall
// back to the needs-improvement template.
func (a AnalysisTemplates) ForTier(t Tier) AnalysisTemplate {
	switch t {
	case TierExcellent:
		return a.Excellent
	case TierGood:
		return a.Good
	default:
		return a.NeedsImprovement
	}
}

// kindName maps a yaml.Kind to a human-readable name for error messages.
func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}
