package ops

import (
	"context"
	"database/sql"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/adityarbhat/feedfwd/internal/card"
	"github.com/adityarbhat/feedfwd/internal/config"
	"github.com/adityarbhat/feedfwd/internal/db"
	"github.com/adityarbhat/feedfwd/internal/session"
	"github.com/adityarbhat/feedfwd/internal/store"
	"github.com/adityarbhat/feedfwd/internal/token"
)

// Relevance weights: trigger-keyword overlap dominates, the feedback score
// breaks the rest.
const (
	overlapWeight = 0.6
	scoreWeight   = 0.4
)

// InjectInput contains parameters for the Inject operation.
type InjectInput struct {
	// ContextText is the flattened session context: prompt text, recent
	// file extensions, instruction-file contents. The caller gathers it;
	// the ranker only matches against it.
	ContextText string

	// ChangedFiles classifies the session kind for the history ledger.
	ChangedFiles []string

	ProjectDir string

	// TokenBudget overrides the configured session budget when positive.
	TokenBudget int
}

// InjectedCard is one selected card's injection payload.
type InjectedCard struct {
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	InjectionText   string  `json:"injection_text"`
	InjectionTokens int     `json:"injection_tokens"`
	Relevance       float64 `json:"relevance"`
}

// InjectOutput contains the result of the Inject operation.
type InjectOutput struct {
	SessionID  string         `json:"session_id"`
	Cards      []InjectedCard `json:"cards"`
	TokensUsed int            `json:"tokens_used"`
	Budget     int            `json:"budget"`
}

// Inject selects the cards most relevant to the session context, within the
// token budget, and records the selection in the session log for the
// feedback step. Selection never mutates a card: surfacing counters move at
// feedback time, when the outcome is known.
func Inject(ctx context.Context, st *store.Store, cfg *config.Config, history *sql.DB, input InjectInput) (*InjectOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	budget := cfg.SessionTokenBudget
	if input.TokenBudget > 0 {
		budget = input.TokenBudget
	}
	contextText := strings.ToLower(input.ContextText)

	idx, err := loadIndexOrRebuild(st)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		entry     card.Entry
		relevance float64
	}
	var candidates []candidate
	for _, e := range idx.Cards {
		rel := keywordOverlap(e.Keywords, contextText)*overlapWeight + e.Score*scoreWeight
		if rel < cfg.MinRelevance {
			continue
		}
		candidates = append(candidates, candidate{entry: e, relevance: rel})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].relevance != candidates[j].relevance {
			return candidates[i].relevance > candidates[j].relevance
		}
		if candidates[i].entry.TimesUseful != candidates[j].entry.TimesUseful {
			return candidates[i].entry.TimesUseful > candidates[j].entry.TimesUseful
		}
		if candidates[i].entry.Captured != candidates[j].entry.Captured {
			return candidates[i].entry.Captured > candidates[j].entry.Captured
		}
		return candidates[i].entry.Name < candidates[j].entry.Name
	})

	out := &InjectOutput{Cards: []InjectedCard{}, Budget: budget}
	for _, cand := range candidates {
		if len(out.Cards) >= cfg.MaxCardsPerSession {
			break
		}
		c, err := st.ReadCard(cand.entry.Name, cand.entry.Category)
		if err != nil {
			log.Printf("warning: indexed card %s unreadable, skipping: %v", cand.entry.Name, err)
			continue
		}
		tokens := token.Count(c.InjectionText)
		if tokens > cfg.MaxInjectionTokens {
			continue
		}
		// Over the remaining budget: skip this card, keep looking for a
		// smaller one.
		if out.TokensUsed+tokens > budget {
			continue
		}
		out.Cards = append(out.Cards, InjectedCard{
			Name:            c.Name,
			Category:        c.Category,
			InjectionText:   c.InjectionText,
			InjectionTokens: tokens,
			Relevance:       cand.relevance,
		})
		out.TokensUsed += tokens
	}

	sessionID, err := session.NewSessionID()
	if err != nil {
		return nil, err
	}
	out.SessionID = sessionID

	names := make([]string, len(out.Cards))
	for i, ic := range out.Cards {
		names[i] = ic.Name
	}
	sessionLog := &session.Log{
		SessionID:     sessionID,
		StartedAt:     time.Now().UTC().Format(time.RFC3339),
		ProjectDir:    input.ProjectDir,
		InjectedCards: names,
	}
	if err := session.SaveLog(st.Paths().SessionLogPath(), sessionLog); err != nil {
		return nil, err
	}

	// Ledger is best-effort; a broken history db never blocks injection.
	if history != nil {
		kind := session.Classify(input.ChangedFiles)
		if err := db.RecordSession(history, sessionLog, kind); err != nil {
			log.Printf("warning: history ledger write failed: %v", err)
		}
	}

	return out, nil
}

// keywordOverlap is the fraction of a card's trigger keywords that appear
// in the flattened session context. No keywords means no overlap signal.
func keywordOverlap(keywords []string, contextText string) float64 {
	if len(keywords) == 0 || contextText == "" {
		return 0
	}
	hits := 0
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(contextText, kw) {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords))
}
