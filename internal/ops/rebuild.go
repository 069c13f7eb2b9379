package ops

import (
	"context"

	"github.com/adityarbhat/feedfwd/internal/store"
)

// RebuildOutput contains the result of the Rebuild operation.
type RebuildOutput struct {
	Cards   int      `json:"cards"`
	Skipped []string `json:"skipped,omitempty"`
}

// Rebuild reconstructs the index from the card files on disk, under the
// index lock. Unparsable files are skipped and reported.
func Rebuild(ctx context.Context, st *store.Store) (*RebuildOutput, error) {
	lock, err := st.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	idx, skipped, err := st.Rebuild()
	if err != nil {
		return nil, err
	}
	return &RebuildOutput{Cards: len(idx.Cards), Skipped: skipped}, nil
}
