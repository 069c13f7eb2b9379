package ops

import (
	"github.com/adityarbhat/feedfwd/internal/config"
	"github.com/adityarbhat/feedfwd/internal/token"
)

// CountTokensInput contains parameters for the CountTokens operation.
type CountTokensInput struct {
	Text string
}

// CountTokensOutput contains the result of the CountTokens operation.
type CountTokensOutput struct {
	Tokens int `json:"tokens"`

	// WithinCardLimit reports whether the text would pass the per-card
	// injection cap as-is.
	WithinCardLimit bool `json:"within_card_limit"`
}

// CountTokens estimates the token cost of a piece of text with the same
// counter the authoring and selection paths use.
func CountTokens(cfg *config.Config, input CountTokensInput) *CountTokensOutput {
	n := token.Count(input.Text)
	return &CountTokensOutput{Tokens: n, WithinCardLimit: n <= cfg.MaxInjectionTokens}
}
