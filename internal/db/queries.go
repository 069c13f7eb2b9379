package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/adityarbhat/feedfwd/internal/errors"
	"github.com/adityarbhat/feedfwd/internal/session"
)

// FeedbackEvent is one row of the feedback ledger.
type FeedbackEvent struct {
	SessionID string    `json:"sessionId"`
	CardName  string    `json:"cardName"`
	Signal    string    `json:"signal"`
	OldScore  float64   `json:"oldScore"`
	NewScore  float64   `json:"newScore"`
	Delta     float64   `json:"delta"`
	CreatedAt time.Time `json:"createdAt"`
}

// RecordSession stores an injection session in the ledger.
// Re-recording the same session ID replaces the earlier row.
func RecordSession(db *sql.DB, log *session.Log, kind session.Kind) error {
	cards, err := json.Marshal(log.InjectedCards)
	if err != nil {
		return errors.NewInternal(err)
	}
	query := `
		INSERT OR REPLACE INTO sessions (id, started_at, project_dir, session_kind, injected_cards)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err = db.Exec(query, log.SessionID, log.StartedAt, log.ProjectDir, string(kind), string(cards))
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// RecordFeedback appends one feedback event to the ledger.
func RecordFeedback(db *sql.DB, ev *FeedbackEvent) error {
	query := `
		INSERT INTO feedback_events (session_id, card_name, signal, old_score, new_score, delta, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query, ev.SessionID, ev.CardName, ev.Signal, ev.OldScore, ev.NewScore, ev.Delta, ev.CreatedAt.Unix())
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// CardHistory returns feedback events for a card, newest first.
func CardHistory(db *sql.DB, cardName string, limit int) ([]FeedbackEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT session_id, card_name, signal, old_score, new_score, delta, created_at
		FROM feedback_events
		WHERE card_name = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	rows, err := db.Query(query, cardName, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var events []FeedbackEvent
	for rows.Next() {
		var ev FeedbackEvent
		var createdAt int64
		if err := rows.Scan(&ev.SessionID, &ev.CardName, &ev.Signal, &ev.OldScore, &ev.NewScore, &ev.Delta, &createdAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		ev.CreatedAt = time.Unix(createdAt, 0).UTC()
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return events, nil
}

// SessionCount returns the number of recorded sessions.
func SessionCount(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}
