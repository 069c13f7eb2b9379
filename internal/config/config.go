package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// MaxInjectionTokens caps a single card's injection text.
	MaxInjectionTokens int `json:"max_injection_tokens"`

	// SessionTokenBudget is the total injection budget per session.
	SessionTokenBudget int `json:"session_token_budget"`

	// MaxCardsPerSession limits how many cards are surfaced at once.
	MaxCardsPerSession int `json:"max_cards_per_session"`

	// KeywordOverlapThreshold is the Jaccard overlap (intersection/union,
	// stopwords stripped) at or above which a proposed card is a duplicate.
	KeywordOverlapThreshold float64 `json:"keyword_overlap_threshold,omitempty"`

	// NameSimilarityThreshold is the name-token Jaccard at or above which
	// two card names belong to the same family.
	NameSimilarityThreshold float64 `json:"name_similarity_threshold,omitempty"`

	// MinRelevance is the floor below which a card is never surfaced.
	MinRelevance float64 `json:"min_relevance,omitempty"`

	// PlanningCategories lists categories that match planning-heavy
	// sessions during feedback. Every other category matches code-heavy
	// sessions. Mixed sessions match everything.
	PlanningCategories []string `json:"planning_categories,omitempty"`

	// LockRetries is how many times lock acquisition is retried before
	// the store reports Unavailable.
	LockRetries int `json:"lock_retries,omitempty"`

	// LockBackoffMS is the base backoff between lock retries, in
	// milliseconds. Each retry doubles it.
	LockBackoffMS int `json:"lock_backoff_ms,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from
	// registration. Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxInjectionTokens:      250,
		SessionTokenBudget:      400,
		MaxCardsPerSession:      3,
		KeywordOverlapThreshold: 0.5,
		NameSimilarityThreshold: 0.5,
		MinRelevance:            0.2,
		PlanningCategories:      []string{"workflow", "prompting"},
		LockRetries:             5,
		LockBackoffMS:           25,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.feedfwd.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.MaxInjectionTokens = overlay.MaxInjectionTokens
	if result.MaxInjectionTokens == 0 {
		result.MaxInjectionTokens = base.MaxInjectionTokens
	}

	result.SessionTokenBudget = overlay.SessionTokenBudget
	if result.SessionTokenBudget == 0 {
		result.SessionTokenBudget = base.SessionTokenBudget
	}

	result.MaxCardsPerSession = overlay.MaxCardsPerSession
	if result.MaxCardsPerSession == 0 {
		result.MaxCardsPerSession = base.MaxCardsPerSession
	}

	result.KeywordOverlapThreshold = overlay.KeywordOverlapThreshold
	if result.KeywordOverlapThreshold == 0 {
		result.KeywordOverlapThreshold = base.KeywordOverlapThreshold
	}

	result.NameSimilarityThreshold = overlay.NameSimilarityThreshold
	if result.NameSimilarityThreshold == 0 {
		result.NameSimilarityThreshold = base.NameSimilarityThreshold
	}

	result.MinRelevance = overlay.MinRelevance
	if result.MinRelevance == 0 {
		result.MinRelevance = base.MinRelevance
	}

	result.LockRetries = overlay.LockRetries
	if result.LockRetries == 0 {
		result.LockRetries = base.LockRetries
	}

	result.LockBackoffMS = overlay.LockBackoffMS
	if result.LockBackoffMS == 0 {
		result.LockBackoffMS = base.LockBackoffMS
	}

	// PlanningCategories: overlay replaces rather than merges, so a user
	// can shrink the set. Empty overlay inherits the base.
	result.PlanningCategories = overlay.PlanningCategories
	if len(result.PlanningCategories) == 0 {
		result.PlanningCategories = base.PlanningCategories
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// IsPlanningCategory reports whether category belongs to the planning set.
// Comparison is case-insensitive; categories are an open-ended set, so any
// category not listed is treated as a code category.
func (c *Config) IsPlanningCategory(category string) bool {
	category = strings.ToLower(strings.TrimSpace(category))
	for _, p := range c.PlanningCategories {
		if strings.ToLower(strings.TrimSpace(p)) == category {
			return true
		}
	}
	return false
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
