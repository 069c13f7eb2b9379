package ops

import (
	"context"
	"database/sql"
	"log"
	"math"
	"sort"

	"github.com/adityarbhat/feedfwd/internal/card"
	"github.com/adityarbhat/feedfwd/internal/db"
	"github.com/adityarbhat/feedfwd/internal/store"
)

// Stats score bands. Cards drifting at or below the low band are the prune
// candidates; the high band marks proven performers.
const (
	activeScoreFloor = 0.3
	topScoreFloor    = 0.7
)

// StatsOutput summarizes the store.
type StatsOutput struct {
	Total         int            `json:"total"`
	Active        int            `json:"active"`
	AverageScore  float64        `json:"average_score"`
	Categories    map[string]int `json:"categories"`
	TopPerformers []card.Entry   `json:"top_performers"`
	LowPerformers []card.Entry   `json:"low_performers"`
	Sessions      int            `json:"sessions,omitempty"`
}

// Stats computes store-wide counters from the index: totals, score bands,
// per-category counts, and (when the ledger is open) recorded sessions.
func Stats(ctx context.Context, st *store.Store, history *sql.DB) (*StatsOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx, err := loadIndexOrRebuild(st)
	if err != nil {
		return nil, err
	}

	out := &StatsOutput{
		Total:         len(idx.Cards),
		Categories:    map[string]int{},
		TopPerformers: []card.Entry{},
		LowPerformers: []card.Entry{},
	}

	sum := 0.0
	for _, e := range idx.Cards {
		sum += e.Score
		out.Categories[e.Category]++
		if e.Score > activeScoreFloor {
			out.Active++
		}
		if e.Score >= topScoreFloor {
			out.TopPerformers = append(out.TopPerformers, e)
		}
		if e.Score <= activeScoreFloor {
			out.LowPerformers = append(out.LowPerformers, e)
		}
	}
	if out.Total > 0 {
		out.AverageScore = math.Round(sum/float64(out.Total)*100) / 100
	}

	sort.Slice(out.TopPerformers, func(i, j int) bool {
		if out.TopPerformers[i].Score != out.TopPerformers[j].Score {
			return out.TopPerformers[i].Score > out.TopPerformers[j].Score
		}
		return out.TopPerformers[i].Name < out.TopPerformers[j].Name
	})
	sort.Slice(out.LowPerformers, func(i, j int) bool {
		if out.LowPerformers[i].Score != out.LowPerformers[j].Score {
			return out.LowPerformers[i].Score < out.LowPerformers[j].Score
		}
		return out.LowPerformers[i].Name < out.LowPerformers[j].Name
	})

	if history != nil {
		n, err := db.SessionCount(history)
		if err != nil {
			log.Printf("warning: session count unavailable: %v", err)
		} else {
			out.Sessions = n
		}
	}
	return out, nil
}
