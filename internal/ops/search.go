package ops

import (
	"context"

	"github.com/adityarbhat/feedfwd/internal/card"
	"github.com/adityarbhat/feedfwd/internal/errors"
	"github.com/adityarbhat/feedfwd/internal/store"
)

// SearchInput contains parameters for the Search operation.
type SearchInput struct {
	Term string
}

// SearchOutput contains the ranked matches.
type SearchOutput struct {
	Cards []card.Entry `json:"cards"`
	Total int          `json:"total"`
}

// Search matches term against card names, keywords, and categories,
// case-insensitive, ranked by how many fields matched.
func Search(ctx context.Context, st *store.Store, input SearchInput) (*SearchOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if card.Normalize(input.Term) == "" {
		return nil, errors.NewInvalid("search term is required")
	}

	idx, err := loadIndexOrRebuild(st)
	if err != nil {
		return nil, err
	}

	cards := idx.Search(input.Term)
	if cards == nil {
		cards = []card.Entry{}
	}
	return &SearchOutput{Cards: cards, Total: len(cards)}, nil
}
