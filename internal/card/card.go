// Package card defines the knowledge card entity model and its on-disk
// markdown representation.
package card

import "path"

// Score bounds and starting values.
const (
	MinScore = 0.0
	MaxScore = 1.0

	// DefaultScore is the starting score for a freshly drafted card.
	DefaultScore = 0.50

	// LowConfidenceScore is the starting score when the drafting
	// collaborator marked the input as vague or low-confidence.
	LowConfidenceScore = 0.30
)

// DefaultCategories are the predefined storage partitions. The set is
// open-ended: user-created categories are equally valid.
var DefaultCategories = []string{
	"prompting",
	"python",
	"workflow",
	"tools",
	"testing",
	"architecture",
	"debugging",
}

// Triggers describes what signals make a card relevant to a session.
type Triggers struct {
	// Keywords are words that appear in prompts or code when this
	// technique is relevant.
	Keywords []string `yaml:"keywords" json:"keywords,omitempty"`

	// FilePatterns are glob patterns for relevant file types ("*.py").
	FilePatterns []string `yaml:"file_patterns" json:"file_patterns,omitempty"`

	// TaskTypes are high-level task labels ("debugging", "refactoring").
	TaskTypes []string `yaml:"task_types" json:"task_types,omitempty"`
}

// KnowledgeCard is the unit of stored knowledge. It maps 1:1 to the YAML
// frontmatter plus markdown sections of the card's .md file.
type KnowledgeCard struct {
	// Name is the kebab-case identifier; doubles as the storage key and
	// is unique across the whole store, not just within a category.
	Name string

	// Category determines the storage partition under the knowledge dir.
	Category string

	// Source is free-form provenance: a URL, "pasted-text", "screenshot".
	Source string

	// Captured is the creation date as an ISO string "2026-02-12".
	Captured string

	// Score is the feedback-adjusted relevance weight in [0.0, 1.0].
	Score float64

	// TimesSurfaced counts sessions this card was injected into.
	TimesSurfaced int

	// TimesUseful counts positive feedback signals.
	TimesUseful int

	Triggers Triggers

	// InjectionTokens caches the token count of InjectionText. The
	// canonical count is always a fresh recount; this field is rewritten
	// on every write.
	InjectionTokens int

	// Insight is a short human-facing summary. Never injected, never scored.
	Insight string

	// InjectionText is the instruction payload surfaced into sessions.
	InjectionText string

	// Example is human-facing before/after prose. Never injected.
	Example string
}

// RelativePath returns the card file's path relative to the knowledge
// directory, e.g. "prompting/ultrathink.md".
func (c *KnowledgeCard) RelativePath() string {
	return path.Join(c.Category, c.Name+".md")
}

// Entry is the index projection of a card: every field except the
// human-facing Insight and Example prose.
type Entry struct {
	Name            string   `json:"name"`
	File            string   `json:"file"`
	Category        string   `json:"category"`
	Source          string   `json:"source,omitempty"`
	Captured        string   `json:"captured,omitempty"`
	Score           float64  `json:"score"`
	TimesSurfaced   int      `json:"times_surfaced"`
	TimesUseful     int      `json:"times_useful"`
	InjectionTokens int      `json:"injection_tokens"`
	Keywords        []string `json:"keywords,omitempty"`
	FilePatterns    []string `json:"file_patterns,omitempty"`
	TaskTypes       []string `json:"task_types,omitempty"`
}

// ToEntry converts a card to its index projection.
func (c *KnowledgeCard) ToEntry() Entry {
	return Entry{
		Name:            c.Name,
		File:            c.RelativePath(),
		Category:        c.Category,
		Source:          c.Source,
		Captured:        c.Captured,
		Score:           c.Score,
		TimesSurfaced:   c.TimesSurfaced,
		TimesUseful:     c.TimesUseful,
		InjectionTokens: c.InjectionTokens,
		Keywords:        c.Triggers.Keywords,
		FilePatterns:    c.Triggers.FilePatterns,
		TaskTypes:       c.Triggers.TaskTypes,
	}
}

// Clamp returns score forced into [MinScore, MaxScore].
func Clamp(score float64) float64 {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
