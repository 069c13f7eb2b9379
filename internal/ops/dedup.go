package ops

import (
	"context"
	"log"

	"github.com/adityarbhat/feedfwd/internal/card"
	"github.com/adityarbhat/feedfwd/internal/config"
	"github.com/adityarbhat/feedfwd/internal/store"
)

// Duplicate-match reasons.
const (
	ReasonExactName      = "exact-name"
	ReasonNameSimilarity = "name-similarity"
	ReasonKeywordOverlap = "keyword-overlap"
)

// DuplicateMatch describes an existing card a proposal collides with.
type DuplicateMatch struct {
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Reason     string  `json:"reason"`
	Similarity float64 `json:"similarity"`
}

// CheckDuplicateInput contains parameters for the CheckDuplicate operation.
type CheckDuplicateInput struct {
	Name     string
	Keywords []string
}

// CheckDuplicateOutput contains the result of the CheckDuplicate operation.
type CheckDuplicateOutput struct {
	Duplicate bool            `json:"duplicate"`
	Match     *DuplicateMatch `json:"match,omitempty"`

	// Warning is set when the verdict is degraded: the index could not be
	// read or rebuilt, so no-duplicate is a best-effort answer.
	Warning string `json:"warning,omitempty"`
}

// CheckDuplicate reports whether a proposed card collides with an existing
// one. Two independent triggers: name-token similarity and keyword overlap.
// An unreadable index is rebuilt and the load retried once; only after both
// rebuild attempts fail does it answer no-duplicate, with the failure noted.
func CheckDuplicate(ctx context.Context, st *store.Store, cfg *config.Config, input CheckDuplicateInput) (*CheckDuplicateOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx, err := st.LoadIndex()
	if err != nil {
		// Rebuild saves the index, so it runs under the index lock like
		// every other index write.
		lock, lockErr := st.Lock(ctx)
		if lockErr != nil {
			return nil, lockErr
		}
		defer lock.Release()

		for attempt := 1; attempt <= 2; attempt++ {
			log.Printf("warning: duplicate check rebuild attempt %d: %v", attempt, err)
			idx, _, err = st.Rebuild()
			if err == nil {
				break
			}
		}
		if err != nil {
			log.Printf("warning: duplicate check degraded, index unavailable: %v", err)
			return &CheckDuplicateOutput{
				Duplicate: false,
				Warning:   "index unavailable; duplicate check skipped",
			}, nil
		}
	}

	match := findDuplicate(idx, input.Name, input.Keywords, cfg)
	return &CheckDuplicateOutput{Duplicate: match != nil, Match: match}, nil
}

// findDuplicate runs the detection triggers against an already loaded index.
// The create path calls this directly under its lock.
func findDuplicate(idx *store.Index, name string, keywords []string, cfg *config.Config) *DuplicateMatch {
	name = card.Normalize(name)
	nameTokens := card.NameTokens(name)
	keywordSet := card.KeywordSet(keywords)

	for i := range idx.Cards {
		e := &idx.Cards[i]

		if e.Name == name {
			return &DuplicateMatch{
				Name:       e.Name,
				Category:   e.Category,
				Reason:     ReasonExactName,
				Similarity: 1.0,
			}
		}

		if sim := card.Jaccard(nameTokens, card.NameTokens(e.Name)); sim >= cfg.NameSimilarityThreshold {
			return &DuplicateMatch{
				Name:       e.Name,
				Category:   e.Category,
				Reason:     ReasonNameSimilarity,
				Similarity: sim,
			}
		}

		if sim := card.Jaccard(keywordSet, card.KeywordSet(e.Keywords)); sim >= cfg.KeywordOverlapThreshold {
			return &DuplicateMatch{
				Name:       e.Name,
				Category:   e.Category,
				Reason:     ReasonKeywordOverlap,
				Similarity: sim,
			}
		}
	}
	return nil
}
