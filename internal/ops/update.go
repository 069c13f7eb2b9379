package ops

import (
	"context"

	"github.com/adityarbhat/feedfwd/internal/card"
	"github.com/adityarbhat/feedfwd/internal/config"
	"github.com/adityarbhat/feedfwd/internal/errors"
	"github.com/adityarbhat/feedfwd/internal/store"
	"github.com/adityarbhat/feedfwd/internal/token"
)

// UpdateInput contains parameters for the Update operation. Nil pointer
// fields are left unchanged; counters are preserved unless overridden.
type UpdateInput struct {
	Name string

	Category      *string
	Source        *string
	Insight       *string
	InjectionText *string
	Example       *string
	Keywords      *[]string
	FilePatterns  *[]string
	TaskTypes     *[]string
	Score         *float64
}

// UpdateOutput contains the result of the Update operation.
type UpdateOutput struct {
	Card   card.Entry `json:"card"`
	Tokens int        `json:"tokens"`
}

// Update edits an existing card in place. The injection token count is
// always recomputed from the (possibly new) injection text, and validation
// re-runs against the edited card. A category change moves the file.
func Update(ctx context.Context, st *store.Store, cfg *config.Config, input UpdateInput) (*UpdateOutput, error) {
	name := card.Normalize(input.Name)
	if name == "" {
		return nil, errors.NewInvalid("name is required")
	}

	lock, err := st.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	idx, err := loadIndexOrRebuild(st)
	if err != nil {
		return nil, err
	}

	hint := ""
	if e := idx.Find(name); e != nil {
		hint = e.Category
	}
	c, err := st.ReadCard(name, hint)
	if err != nil {
		return nil, err
	}

	oldCategory := c.Category
	if input.Category != nil {
		c.Category = card.Normalize(*input.Category)
	}
	if input.Source != nil {
		c.Source = *input.Source
	}
	if input.Insight != nil {
		c.Insight = *input.Insight
	}
	if input.InjectionText != nil {
		c.InjectionText = *input.InjectionText
	}
	if input.Example != nil {
		c.Example = *input.Example
	}
	if input.Keywords != nil {
		c.Triggers.Keywords = *input.Keywords
	}
	if input.FilePatterns != nil {
		c.Triggers.FilePatterns = *input.FilePatterns
	}
	if input.TaskTypes != nil {
		c.Triggers.TaskTypes = *input.TaskTypes
	}
	if input.Score != nil {
		c.Score = *input.Score
	}

	if err := card.Validate(c); err != nil {
		return nil, err
	}
	c.InjectionTokens = token.Count(c.InjectionText)
	if c.InjectionTokens > cfg.MaxInjectionTokens {
		return nil, errors.NewTooLong(cfg.MaxInjectionTokens, c.InjectionTokens)
	}

	if err := st.WriteCard(c); err != nil {
		return nil, err
	}
	if c.Category != oldCategory {
		// Moved partitions; the old file is now stale.
		if err := st.RemoveCardFile(oldCategory, c.Name); err != nil && !errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
	}
	idx.Upsert(c.ToEntry())
	if err := st.SaveIndex(idx); err != nil {
		return nil, err
	}

	return &UpdateOutput{Card: c.ToEntry(), Tokens: c.InjectionTokens}, nil
}
