package ops

import (
	"context"

	"github.com/adityarbhat/feedfwd/internal/card"
	"github.com/adityarbhat/feedfwd/internal/store"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Category string // empty lists every category
}

// CategoryGroup is one category's slice of a listing.
type CategoryGroup struct {
	Category string       `json:"category"`
	Cards    []card.Entry `json:"cards"`
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Groups []CategoryGroup `json:"groups"`
	Total  int             `json:"total"`
}

// List returns index entries grouped by category, categories and names both
// sorted. Works off the index alone; no card file is opened.
func List(ctx context.Context, st *store.Store, input ListInput) (*ListOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx, err := loadIndexOrRebuild(st)
	if err != nil {
		return nil, err
	}

	entries := idx.List(card.Normalize(input.Category))
	out := &ListOutput{Groups: []CategoryGroup{}, Total: len(entries)}
	for _, e := range entries {
		n := len(out.Groups)
		if n == 0 || out.Groups[n-1].Category != e.Category {
			out.Groups = append(out.Groups, CategoryGroup{Category: e.Category})
			n++
		}
		out.Groups[n-1].Cards = append(out.Groups[n-1].Cards, e)
	}
	return out, nil
}
