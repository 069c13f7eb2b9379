package ops

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/adityarbhat/feedfwd/internal/card"
	"github.com/adityarbhat/feedfwd/internal/config"
	"github.com/adityarbhat/feedfwd/internal/db"
	"github.com/adityarbhat/feedfwd/internal/errors"
	"github.com/adityarbhat/feedfwd/internal/session"
	"github.com/adityarbhat/feedfwd/internal/store"
)

// Score deltas. Implicit signals move scores slowly; explicit human
// feedback moves them hard and is the only way past the implicit ceiling.
const (
	deltaStrongMatch = 0.10
	deltaWeakMatch   = 0.05
	deltaNoMatch     = -0.02

	deltaExplicitUseful    = 0.15
	deltaExplicitNotUseful = -0.10

	// implicitScoreCeiling is the highest score implicit signals can
	// reach. Promotion beyond it takes an explicit useful signal.
	implicitScoreCeiling = 0.70
)

// Explicit feedback values.
const (
	ExplicitUseful    = "useful"
	ExplicitNotUseful = "not-useful"
)

// FeedbackSignals carries the end-of-session evidence for each surfaced card.
type FeedbackSignals struct {
	// SessionKind classifies what the session mostly did; cards in
	// matching categories earn the category half of the implicit signal.
	SessionKind session.Kind

	// KeywordHits marks cards whose trigger keywords appeared in the
	// session's activity.
	KeywordHits map[string]bool

	// Explicit holds direct human verdicts, ExplicitUseful or
	// ExplicitNotUseful, which override the implicit rules entirely.
	Explicit map[string]string
}

// FeedbackInput contains parameters for the ApplySessionFeedback operation.
type FeedbackInput struct {
	// Surfaced lists the card names to score. Empty means "use the
	// session log from the last inject".
	Surfaced []string

	Signals FeedbackSignals
}

// CardUpdate reports one card's score movement.
type CardUpdate struct {
	Name     string  `json:"name"`
	OldScore float64 `json:"old_score"`
	NewScore float64 `json:"new_score"`
	Delta    float64 `json:"delta"`
}

// FeedbackOutput contains the result of the ApplySessionFeedback operation.
type FeedbackOutput struct {
	SessionID string       `json:"session_id,omitempty"`
	Updates   []CardUpdate `json:"updates"`

	// Skipped lists surfaced names whose cards no longer exist. They are
	// reported, not fatal: the rest of the batch still lands.
	Skipped []string `json:"skipped,omitempty"`
}

// ApplySessionFeedback adjusts the score of every surfaced card from the
// session's signals, updating card files and index together under one index
// lock. Missing cards are skipped; a best-effort batch beats an aborted one.
// On success the session log is cleared so feedback cannot apply twice.
func ApplySessionFeedback(ctx context.Context, st *store.Store, cfg *config.Config, history *sql.DB, input FeedbackInput) (*FeedbackOutput, error) {
	for name, v := range input.Signals.Explicit {
		if v != ExplicitUseful && v != ExplicitNotUseful {
			return nil, errors.NewInvalid("explicit feedback for " + name + " must be useful or not-useful")
		}
	}
	kind := input.Signals.SessionKind
	if kind == "" {
		kind = session.KindMixed
	}

	sessionLog := session.LoadLog(st.Paths().SessionLogPath())
	surfaced := input.Surfaced
	if len(surfaced) == 0 {
		surfaced = sessionLog.InjectedCards
	}

	out := &FeedbackOutput{SessionID: sessionLog.SessionID, Updates: []CardUpdate{}}
	if len(surfaced) == 0 {
		return out, nil
	}

	lock, err := st.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	idx, err := loadIndexOrRebuild(st)
	if err != nil {
		return nil, err
	}

	for _, rawName := range surfaced {
		name := card.Normalize(rawName)

		hint := ""
		if e := idx.Find(name); e != nil {
			hint = e.Category
		}
		c, err := st.ReadCard(name, hint)
		if err != nil {
			log.Printf("warning: feedback for missing card %s skipped: %v", name, err)
			out.Skipped = append(out.Skipped, name)
			continue
		}

		old := c.Score
		delta, explicit := scoreDelta(c, kind, cfg, input.Signals, name)
		c.Score = card.Clamp(old + delta)
		c.TimesSurfaced++
		if explicit == ExplicitUseful {
			c.TimesUseful++
		}

		if err := st.WriteCard(c); err != nil {
			log.Printf("warning: feedback write for %s failed: %v", name, err)
			out.Skipped = append(out.Skipped, name)
			continue
		}
		idx.Upsert(c.ToEntry())

		update := CardUpdate{Name: name, OldScore: old, NewScore: c.Score, Delta: c.Score - old}
		out.Updates = append(out.Updates, update)

		if history != nil {
			signal := explicit
			if signal == "" {
				signal = implicitSignalName(c, kind, cfg, input.Signals, name)
			}
			ev := &db.FeedbackEvent{
				SessionID: sessionLog.SessionID,
				CardName:  name,
				Signal:    signal,
				OldScore:  update.OldScore,
				NewScore:  update.NewScore,
				Delta:     update.Delta,
				CreatedAt: time.Now().UTC(),
			}
			if err := db.RecordFeedback(history, ev); err != nil {
				log.Printf("warning: history ledger write failed: %v", err)
			}
		}
	}

	if err := st.SaveIndex(idx); err != nil {
		return nil, err
	}

	// Feedback consumed the log; clear it so a re-run is a no-op.
	if err := session.SaveLog(st.Paths().SessionLogPath(), session.EmptyLog()); err != nil {
		log.Printf("warning: clearing session log failed: %v", err)
	}

	return out, nil
}

// scoreDelta computes one card's score movement. Explicit feedback bypasses
// the implicit ceiling; implicit positive movement is truncated so the
// result never passes it, and suppressed entirely once the score is at or
// above it.
func scoreDelta(c *card.KnowledgeCard, kind session.Kind, cfg *config.Config, signals FeedbackSignals, name string) (delta float64, explicit string) {
	if v, ok := signals.Explicit[name]; ok {
		if v == ExplicitUseful {
			return deltaExplicitUseful, ExplicitUseful
		}
		return deltaExplicitNotUseful, ExplicitNotUseful
	}

	categoryMatch := kindMatches(kind, c.Category, cfg)
	keywordHit := signals.KeywordHits[name]

	switch {
	case categoryMatch && keywordHit:
		delta = deltaStrongMatch
	case categoryMatch || keywordHit:
		delta = deltaWeakMatch
	default:
		delta = deltaNoMatch
	}

	if delta > 0 {
		if c.Score >= implicitScoreCeiling {
			return 0, ""
		}
		if c.Score+delta > implicitScoreCeiling {
			delta = implicitScoreCeiling - c.Score
		}
	}
	return delta, ""
}

// kindMatches reports whether a card's category fits the session kind.
// Mixed sessions match every category; planning sessions match the
// configured planning categories; code sessions match the rest.
func kindMatches(kind session.Kind, category string, cfg *config.Config) bool {
	switch kind {
	case session.KindMixed:
		return true
	case session.KindPlanning:
		return cfg.IsPlanningCategory(category)
	default:
		return !cfg.IsPlanningCategory(category)
	}
}

// implicitSignalName labels the implicit rule that fired, for the ledger.
func implicitSignalName(c *card.KnowledgeCard, kind session.Kind, cfg *config.Config, signals FeedbackSignals, name string) string {
	categoryMatch := kindMatches(kind, c.Category, cfg)
	keywordHit := signals.KeywordHits[name]
	switch {
	case categoryMatch && keywordHit:
		return "match-and-hit"
	case categoryMatch || keywordHit:
		return "partial-match"
	default:
		return "no-match"
	}
}
