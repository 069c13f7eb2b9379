package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adityarbhat/feedfwd/internal/card"
	"github.com/adityarbhat/feedfwd/internal/config"
	"github.com/adityarbhat/feedfwd/internal/errors"
)

func testCard(name, category string, keywords ...string) *card.KnowledgeCard {
	return &card.KnowledgeCard{
		Name:            name,
		Category:        category,
		Source:          "pasted-text",
		Captured:        "2026-03-01",
		Score:           card.DefaultScore,
		Triggers:        card.Triggers{Keywords: keywords},
		InjectionTokens: 12,
		Insight:         "An insight.",
		InjectionText:   "Do this thing in a particular way.",
		Example:         "Before and after.",
	}
}

func TestWriteCard_ReadCard_RoundTrip(t *testing.T) {
	s := Open(t.TempDir(), config.DefaultConfig())
	c := testCard("ultrathink", "prompting", "reasoning", "prompt")

	if err := s.WriteCard(c); err != nil {
		t.Fatalf("WriteCard failed: %v", err)
	}

	got, err := s.ReadCard("ultrathink", "prompting")
	if err != nil {
		t.Fatalf("ReadCard failed: %v", err)
	}

	if got.Name != c.Name || got.Category != c.Category {
		t.Errorf("got %s/%s, want %s/%s", got.Category, got.Name, c.Category, c.Name)
	}
	if got.InjectionText != c.InjectionText {
		t.Errorf("InjectionText = %q, want %q", got.InjectionText, c.InjectionText)
	}
}

func TestReadCard_ScansCategoriesWithoutHint(t *testing.T) {
	s := Open(t.TempDir(), config.DefaultConfig())
	if err := s.WriteCard(testCard("deep-modules", "architecture")); err != nil {
		t.Fatalf("WriteCard failed: %v", err)
	}

	got, err := s.ReadCard("deep-modules", "")
	if err != nil {
		t.Fatalf("ReadCard without hint failed: %v", err)
	}
	if got.Category != "architecture" {
		t.Errorf("Category = %q, want architecture", got.Category)
	}
}

func TestReadCard_StaleHintFallsBack(t *testing.T) {
	s := Open(t.TempDir(), config.DefaultConfig())
	if err := s.WriteCard(testCard("deep-modules", "architecture")); err != nil {
		t.Fatalf("WriteCard failed: %v", err)
	}

	got, err := s.ReadCard("deep-modules", "python")
	if err != nil {
		t.Fatalf("ReadCard with stale hint failed: %v", err)
	}
	if got.Category != "architecture" {
		t.Errorf("Category = %q, want architecture", got.Category)
	}
}

func TestReadCard_NotFound(t *testing.T) {
	s := Open(t.TempDir(), config.DefaultConfig())

	_, err := s.ReadCard("missing", "")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestWriteCard_OverwritesAtomically(t *testing.T) {
	tmpDir := t.TempDir()
	s := Open(tmpDir, config.DefaultConfig())
	c := testCard("ultrathink", "prompting")
	if err := s.WriteCard(c); err != nil {
		t.Fatalf("WriteCard failed: %v", err)
	}

	c.Score = 0.65
	if err := s.WriteCard(c); err != nil {
		t.Fatalf("second WriteCard failed: %v", err)
	}

	got, err := s.ReadCard("ultrathink", "prompting")
	if err != nil {
		t.Fatalf("ReadCard failed: %v", err)
	}
	if got.Score != 0.65 {
		t.Errorf("Score = %v, want 0.65", got.Score)
	}

	// No temp droppings left behind.
	entries, err := os.ReadDir(filepath.Join(tmpDir, "knowledge", "prompting"))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("category dir has %d entries, want 1", len(entries))
	}
}

func TestRemoveCardFile(t *testing.T) {
	s := Open(t.TempDir(), config.DefaultConfig())
	if err := s.WriteCard(testCard("ultrathink", "prompting")); err != nil {
		t.Fatalf("WriteCard failed: %v", err)
	}

	if err := s.RemoveCardFile("prompting", "ultrathink"); err != nil {
		t.Fatalf("RemoveCardFile failed: %v", err)
	}

	err := s.RemoveCardFile("prompting", "ultrathink")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second remove: err = %v, want NOT_FOUND", err)
	}
}

func TestCardFiles(t *testing.T) {
	s := Open(t.TempDir(), config.DefaultConfig())
	for _, c := range []*card.KnowledgeCard{
		testCard("b-card", "python"),
		testCard("a-card", "workflow"),
		testCard("c-card", "python"),
	} {
		if err := s.WriteCard(c); err != nil {
			t.Fatalf("WriteCard failed: %v", err)
		}
	}

	files, err := s.CardFiles()
	if err != nil {
		t.Fatalf("CardFiles failed: %v", err)
	}

	want := []string{"python/b-card.md", "python/c-card.md", "workflow/a-card.md"}
	if len(files) != len(want) {
		t.Fatalf("CardFiles = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}
