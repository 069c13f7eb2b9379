package ops

import (
	"context"
	"os"
	"testing"

	"github.com/adityarbhat/feedfwd/internal/errors"
)

func TestFetch_HappyPath(t *testing.T) {
	st, cfg := newTestStore(t)
	seedCard(t, st, cfg, CreateInput{
		Name:     "full-card",
		Category: "python",
		Source:   "pasted-text",
		Insight:  "A short summary.",
		Example:  "Before: x. After: y.",
		Keywords: []string{"full", "fetching"},
	})

	out, err := Fetch(context.Background(), st, FetchInput{Name: "full-card"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if out.Category != "python" || out.Source != "pasted-text" {
		t.Errorf("metadata = %q/%q", out.Category, out.Source)
	}
	if out.Insight != "A short summary." {
		t.Errorf("Insight = %q", out.Insight)
	}
	if out.Example == "" || out.InjectionText == "" {
		t.Error("prose sections should round-trip")
	}
	if out.Tokens <= 0 {
		t.Errorf("Tokens = %d, want > 0", out.Tokens)
	}
}

func TestFetch_NotFound(t *testing.T) {
	st, _ := newTestStore(t)

	_, err := Fetch(context.Background(), st, FetchInput{Name: "missing"})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestFetch_SurvivesMissingIndex(t *testing.T) {
	st, cfg := newTestStore(t)
	seedCard(t, st, cfg, CreateInput{Name: "indexless", Category: "tools"})

	if err := os.Remove(st.Paths().IndexPath()); err != nil {
		t.Fatalf("removing index: %v", err)
	}

	out, err := Fetch(context.Background(), st, FetchInput{Name: "indexless"})
	if err != nil {
		t.Fatalf("Fetch without index failed: %v", err)
	}
	if out.Name != "indexless" {
		t.Errorf("Name = %q", out.Name)
	}
}
