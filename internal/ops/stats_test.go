package ops

import (
	"context"
	"testing"

	"github.com/adityarbhat/feedfwd/internal/db"
	"github.com/adityarbhat/feedfwd/internal/session"
)

func TestStats_Empty(t *testing.T) {
	st, _ := newTestStore(t)

	out, err := Stats(context.Background(), st, nil)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if out.Total != 0 || out.Active != 0 || out.AverageScore != 0 {
		t.Errorf("empty store stats = %+v", out)
	}
}

func TestStats_Bands(t *testing.T) {
	st, cfg := newTestStore(t)
	seedCard(t, st, cfg, CreateInput{Name: "fresh-default", Category: "tools"})
	seedCard(t, st, cfg, CreateInput{Name: "fresh-vague", Category: "python", LowConfidence: true})
	seedCard(t, st, cfg, CreateInput{Name: "proven-winner", Category: "workflow"})

	// Promote one card past the top band.
	applyFeedback(t, st, cfg, FeedbackSignals{
		SessionKind: session.KindMixed,
		Explicit:    map[string]string{"proven-winner": ExplicitUseful},
	}, "proven-winner")
	applyFeedback(t, st, cfg, FeedbackSignals{
		SessionKind: session.KindMixed,
		Explicit:    map[string]string{"proven-winner": ExplicitUseful},
	}, "proven-winner")

	out, err := Stats(context.Background(), st, nil)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if out.Total != 3 {
		t.Errorf("Total = %d, want 3", out.Total)
	}
	// 0.30 sits at the active floor, not above it.
	if out.Active != 2 {
		t.Errorf("Active = %d, want 2", out.Active)
	}
	if len(out.TopPerformers) != 1 || out.TopPerformers[0].Name != "proven-winner" {
		t.Errorf("TopPerformers = %+v, want proven-winner", out.TopPerformers)
	}
	if len(out.LowPerformers) != 1 || out.LowPerformers[0].Name != "fresh-vague" {
		t.Errorf("LowPerformers = %+v, want fresh-vague", out.LowPerformers)
	}
	if out.Categories["tools"] != 1 || out.Categories["python"] != 1 || out.Categories["workflow"] != 1 {
		t.Errorf("Categories = %v", out.Categories)
	}
}

func TestStats_SessionCountFromLedger(t *testing.T) {
	st, cfg := newTestStore(t)
	seedCard(t, st, cfg, CreateInput{
		Name:     "ledger-card",
		Category: "tools",
		Keywords: []string{"ledger"},
	})

	history, err := db.Init(st.Paths().Base)
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	defer history.Close()

	if _, err := Inject(context.Background(), st, cfg, history, InjectInput{
		ContextText: "writing to the ledger",
	}); err != nil {
		t.Fatalf("Inject failed: %v", err)
	}

	out, err := Stats(context.Background(), st, history)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if out.Sessions != 1 {
		t.Errorf("Sessions = %d, want 1", out.Sessions)
	}
}
