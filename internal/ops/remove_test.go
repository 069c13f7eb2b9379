package ops

import (
	"context"
	"os"
	"testing"

	"github.com/adityarbhat/feedfwd/internal/errors"
)

func TestRemove_HappyPath(t *testing.T) {
	st, cfg := newTestStore(t)
	seedCard(t, st, cfg, CreateInput{Name: "short-lived", Category: "tools"})

	out, err := Remove(context.Background(), st, RemoveInput{Name: "short-lived"})
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if out.Category != "tools" {
		t.Errorf("Category = %q, want tools", out.Category)
	}

	if _, err := os.Stat(st.Paths().CardPath("tools", "short-lived")); !os.IsNotExist(err) {
		t.Error("card file should be deleted")
	}
	idx, _ := st.LoadIndex()
	if idx.Find("short-lived") != nil {
		t.Error("index entry should be deleted")
	}
}

func TestRemove_NotFound(t *testing.T) {
	st, _ := newTestStore(t)

	_, err := Remove(context.Background(), st, RemoveInput{Name: "never-existed"})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestRemove_StaleIndexEntry(t *testing.T) {
	st, cfg := newTestStore(t)
	seedCard(t, st, cfg, CreateInput{Name: "vanished", Category: "tools"})

	// Delete the file behind the index's back.
	if err := os.Remove(st.Paths().CardPath("tools", "vanished")); err != nil {
		t.Fatalf("removing file: %v", err)
	}

	out, err := Remove(context.Background(), st, RemoveInput{Name: "vanished"})
	if err != nil {
		t.Fatalf("Remove should repair, got: %v", err)
	}
	if !out.Repaired {
		t.Error("Repaired should be set for a stale index entry")
	}
	idx, _ := st.LoadIndex()
	if idx.Find("vanished") != nil {
		t.Error("stale index entry should be dropped")
	}
}

func TestRemove_UnindexedFile(t *testing.T) {
	st, cfg := newTestStore(t)
	seedCard(t, st, cfg, CreateInput{Name: "shadow", Category: "tools"})

	// Drop the entry but keep the file: the remove must still find it.
	idx, err := st.LoadIndex()
	if err != nil {
		t.Fatalf("LoadIndex failed: %v", err)
	}
	idx.Remove("shadow")
	if err := st.SaveIndex(idx); err != nil {
		t.Fatalf("SaveIndex failed: %v", err)
	}

	out, err := Remove(context.Background(), st, RemoveInput{Name: "shadow"})
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !out.Repaired {
		t.Error("Repaired should be set for an unindexed file")
	}
	if _, err := os.Stat(st.Paths().CardPath("tools", "shadow")); !os.IsNotExist(err) {
		t.Error("card file should be deleted")
	}
}
