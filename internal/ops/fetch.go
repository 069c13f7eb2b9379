package ops

import (
	"context"

	"github.com/adityarbhat/feedfwd/internal/card"
	"github.com/adityarbhat/feedfwd/internal/errors"
	"github.com/adityarbhat/feedfwd/internal/store"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	Name string
}

// FetchOutput contains the full card, prose sections included.
type FetchOutput struct {
	Name          string        `json:"name"`
	Category      string        `json:"category"`
	Source        string        `json:"source,omitempty"`
	Captured      string        `json:"captured,omitempty"`
	Score         float64       `json:"score"`
	TimesSurfaced int           `json:"times_surfaced"`
	TimesUseful   int           `json:"times_useful"`
	Tokens        int           `json:"tokens"`
	Triggers      card.Triggers `json:"triggers"`
	Insight       string        `json:"insight,omitempty"`
	InjectionText string        `json:"injection_text"`
	Example       string        `json:"example,omitempty"`
}

// Fetch loads a card by name. The index supplies the category hint; a stale
// or missing index degrades to a category scan rather than failing.
func Fetch(ctx context.Context, st *store.Store, input FetchInput) (*FetchOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := card.Normalize(input.Name)
	if name == "" {
		return nil, errors.NewInvalid("name is required")
	}

	hint := ""
	if idx, err := st.LoadIndex(); err == nil {
		if e := idx.Find(name); e != nil {
			hint = e.Category
		}
	}

	c, err := st.ReadCard(name, hint)
	if err != nil {
		return nil, err
	}

	return &FetchOutput{
		Name:          c.Name,
		Category:      c.Category,
		Source:        c.Source,
		Captured:      c.Captured,
		Score:         c.Score,
		TimesSurfaced: c.TimesSurfaced,
		TimesUseful:   c.TimesUseful,
		Tokens:        c.InjectionTokens,
		Triggers:      c.Triggers,
		Insight:       c.Insight,
		InjectionText: c.InjectionText,
		Example:       c.Example,
	}, nil
}
