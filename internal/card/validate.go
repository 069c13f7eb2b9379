package card

import (
	"fmt"
	"strings"

	"github.com/adityarbhat/feedfwd/internal/errors"
)

// Validate checks a card payload for structural problems and returns an
// Invalid error describing the first one found.
//
// An unknown category is not an error: the category set is open-ended and
// user-created categories are legitimate. An empty name is.
func Validate(c *KnowledgeCard) error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.NewInvalid("name must not be empty")
	}
	if !ValidName(c.Name) {
		return errors.NewInvalid(fmt.Sprintf("name %q must be lowercase-hyphenated (kebab-case)", c.Name))
	}
	if strings.TrimSpace(c.Category) == "" {
		return errors.NewInvalid("category must not be empty")
	}
	if strings.ContainsAny(c.Category, "/\\") {
		return errors.NewInvalid(fmt.Sprintf("category %q must not contain path separators", c.Category))
	}
	if c.Score < MinScore || c.Score > MaxScore {
		return errors.NewInvalid(fmt.Sprintf("score %.2f is outside [%.1f, %.1f]", c.Score, MinScore, MaxScore))
	}
	if strings.TrimSpace(c.InjectionText) == "" {
		return errors.NewInvalid("injection text must not be empty")
	}
	return nil
}
