package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adityarbhat/feedfwd/internal/card"
	"github.com/adityarbhat/feedfwd/internal/errors"
)

// indexVersion identifies the index file format.
const indexVersion = 1

// Index is the derived projection of every card's metadata. Canonical data
// lives in the per-card files; the index exists so listing, searching, and
// ranking never reparse every card. It is rebuildable from the files at
// any time.
type Index struct {
	Version     int          `json:"version"`
	LastUpdated string       `json:"last_updated,omitempty"`
	Cards       []card.Entry `json:"cards"`
}

// EmptyIndex returns a fresh index with no cards.
func EmptyIndex() *Index {
	return &Index{Version: indexVersion, Cards: []card.Entry{}}
}

// LoadIndex reads the index file. A missing file yields an empty index;
// a present but unparsable file is an error (Inconsistent), so callers can
// decide between rebuilding and failing.
func (s *Store) LoadIndex() (*Index, error) {
	data, err := os.ReadFile(s.paths.IndexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return EmptyIndex(), nil
		}
		return nil, errors.NewUnavailable(fmt.Sprintf("read index: %v", err))
	}

	idx := &Index{}
	if err := json.Unmarshal(data, idx); err != nil {
		return nil, errors.NewInconsistent(
			fmt.Sprintf("index file is not parsable: %v", err),
			map[string]any{"path": s.paths.IndexPath()},
		)
	}
	if idx.Cards == nil {
		idx.Cards = []card.Entry{}
	}
	return idx, nil
}

// SaveIndex writes the index atomically, stamping last_updated and keeping
// entries sorted by name for deterministic output.
func (s *Store) SaveIndex(idx *Index) error {
	idx.Version = indexVersion
	idx.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	sort.Slice(idx.Cards, func(i, j int) bool {
		return idx.Cards[i].Name < idx.Cards[j].Name
	})

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return errors.NewInternal(err)
	}
	data = append(data, '\n')

	if err := writeFileAtomic(s.paths.IndexPath(), data, 0o644); err != nil {
		return errors.NewUnavailable(fmt.Sprintf("write index: %v", err))
	}
	return nil
}

// Rebuild discards the current index and reconstructs it by scanning every
// card file. Unparsable files are skipped with a warning rather than
// aborting the rebuild; their relative paths are returned. Callers doing a
// read-modify-write must hold the index lock.
func (s *Store) Rebuild() (*Index, []string, error) {
	idx := EmptyIndex()

	files, err := s.CardFiles()
	if err != nil {
		return nil, nil, err
	}

	var skipped []string
	for _, rel := range files {
		c, err := s.readCardFile(filepath.Join(s.paths.KnowledgeDir(), filepath.FromSlash(rel)))
		if err != nil {
			log.Printf("warning: skipping unparsable card %s: %v", rel, err)
			skipped = append(skipped, rel)
			continue
		}
		idx.Cards = append(idx.Cards, c.ToEntry())
	}

	if err := s.SaveIndex(idx); err != nil {
		return nil, skipped, err
	}
	return idx, skipped, nil
}

// Find returns the entry for name, or nil.
func (idx *Index) Find(name string) *card.Entry {
	for i := range idx.Cards {
		if idx.Cards[i].Name == name {
			return &idx.Cards[i]
		}
	}
	return nil
}

// Upsert adds or replaces the entry with e's name.
func (idx *Index) Upsert(e card.Entry) {
	for i := range idx.Cards {
		if idx.Cards[i].Name == e.Name {
			idx.Cards[i] = e
			return
		}
	}
	idx.Cards = append(idx.Cards, e)
}

// Remove deletes the entry for name. Reports whether it was present.
func (idx *Index) Remove(name string) bool {
	for i := range idx.Cards {
		if idx.Cards[i].Name == name {
			idx.Cards = append(idx.Cards[:i], idx.Cards[i+1:]...)
			return true
		}
	}
	return false
}

// List returns entries sorted by category then name. A non-empty
// categoryFilter restricts the result to that category.
func (idx *Index) List(categoryFilter string) []card.Entry {
	result := make([]card.Entry, 0, len(idx.Cards))
	for _, e := range idx.Cards {
		if categoryFilter != "" && e.Category != categoryFilter {
			continue
		}
		result = append(result, e)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Category != result[j].Category {
			return result[i].Category < result[j].Category
		}
		return result[i].Name < result[j].Name
	})
	return result
}

// Search returns entries whose name, keywords, or category contain term
// (case-insensitive), ranked by how many of those fields matched; ties go
// to the higher score, then name order for stability.
func (idx *Index) Search(term string) []card.Entry {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}

	type ranked struct {
		entry   card.Entry
		matches int
	}

	var hits []ranked
	for _, e := range idx.Cards {
		matches := 0
		if strings.Contains(strings.ToLower(e.Name), term) {
			matches++
		}
		if strings.Contains(strings.ToLower(e.Category), term) {
			matches++
		}
		for _, kw := range e.Keywords {
			if strings.Contains(strings.ToLower(kw), term) {
				matches++
				break
			}
		}
		if matches > 0 {
			hits = append(hits, ranked{entry: e, matches: matches})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].matches != hits[j].matches {
			return hits[i].matches > hits[j].matches
		}
		if hits[i].entry.Score != hits[j].entry.Score {
			return hits[i].entry.Score > hits[j].entry.Score
		}
		return hits[i].entry.Name < hits[j].entry.Name
	})

	result := make([]card.Entry, len(hits))
	for i, h := range hits {
		result[i] = h.entry
	}
	return result
}
