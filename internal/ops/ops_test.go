package ops

import (
	"context"
	"testing"

	"github.com/adityarbhat/feedfwd/internal/config"
	"github.com/adityarbhat/feedfwd/internal/store"
)

func newTestStore(t *testing.T) (*store.Store, *config.Config) {
	t.Helper()
	cfg := config.DefaultConfig()
	return store.Open(t.TempDir(), cfg), cfg
}

func strPtr(s string) *string {
	return &s
}

// seedCard creates a card through the normal create path.
func seedCard(t *testing.T, st *store.Store, cfg *config.Config, input CreateInput) {
	t.Helper()
	if input.InjectionText == "" {
		input.InjectionText = "Always check the error return before using the result."
	}
	if input.Category == "" {
		input.Category = "testing"
	}
	if _, err := Create(context.Background(), st, cfg, input); err != nil {
		t.Fatalf("seed Create(%s) failed: %v", input.Name, err)
	}
}
