package ops

import (
	"context"
	"log"

	"github.com/adityarbhat/feedfwd/internal/card"
	"github.com/adityarbhat/feedfwd/internal/errors"
	"github.com/adityarbhat/feedfwd/internal/store"
)

// RemoveInput contains parameters for the Remove operation.
type RemoveInput struct {
	Name string
}

// RemoveOutput contains the result of the Remove operation.
type RemoveOutput struct {
	Name     string `json:"name"`
	Category string `json:"category"`

	// Repaired is set when the file and the index disagreed and the index
	// was rebuilt as part of the removal.
	Repaired bool `json:"repaired,omitempty"`
}

// Remove deletes a card's file and its index entry under one index lock.
// A file/index mismatch is repaired by rebuilding rather than surfaced to
// the caller, as long as the card itself was found somewhere.
func Remove(ctx context.Context, st *store.Store, input RemoveInput) (*RemoveOutput, error) {
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

	entry := idx.Find(name)
	if entry == nil {
		// The index may be stale: the file can still exist on disk.
		c, rerr := st.ReadCard(name, "")
		if rerr != nil {
			return nil, errors.NewNotFound(name)
		}
		log.Printf("warning: card %s present on disk but missing from index; repairing", name)
		if err := st.RemoveCardFile(c.Category, c.Name); err != nil {
			return nil, err
		}
		if _, _, err := st.Rebuild(); err != nil {
			return nil, err
		}
		return &RemoveOutput{Name: name, Category: c.Category, Repaired: true}, nil
	}

	category := entry.Category
	repaired := false
	if err := st.RemoveCardFile(category, name); err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
		// Indexed but no file: drop the stale entry and move on.
		log.Printf("warning: card %s indexed but missing on disk; dropping stale entry", name)
		repaired = true
	}

	idx.Remove(name)
	if err := st.SaveIndex(idx); err != nil {
		return nil, err
	}
	return &RemoveOutput{Name: name, Category: category, Repaired: repaired}, nil
}
