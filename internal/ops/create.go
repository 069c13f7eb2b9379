package ops

import (
	"context"
	"fmt"

	"github.com/adityarbhat/feedfwd/internal/card"
	"github.com/adityarbhat/feedfwd/internal/config"
	"github.com/adityarbhat/feedfwd/internal/errors"
	"github.com/adityarbhat/feedfwd/internal/store"
	"github.com/adityarbhat/feedfwd/internal/token"
)

// CreateInput contains the full card payload from the drafting collaborator.
type CreateInput struct {
	Name          string
	Category      string
	Source        string
	Captured      string // "2006-01-02"; defaults to today
	Insight       string
	InjectionText string
	Example       string
	Keywords      []string
	FilePatterns  []string
	TaskTypes     []string

	// LowConfidence starts the card at the reduced score instead of the
	// default, for vague or uncertain source material.
	LowConfidence bool
}

// CreateOutput contains the result of the Create operation.
type CreateOutput struct {
	Card   card.Entry `json:"card"`
	Tokens int        `json:"tokens"`
}

// Create validates, duplicate-gates, and persists a new card. The duplicate
// check and the index update happen under one index lock, so two concurrent
// creates of near-identical cards cannot both pass the gate. Nothing is
// written when any step fails.
func Create(ctx context.Context, st *store.Store, cfg *config.Config, input CreateInput) (*CreateOutput, error) {
	score := card.DefaultScore
	if input.LowConfidence {
		score = card.LowConfidenceScore
	}

	c := &card.KnowledgeCard{
		Name:     card.Normalize(input.Name),
		Category: card.Normalize(input.Category),
		Source:   input.Source,
		Captured: input.Captured,
		Score:    score,
		Triggers: card.Triggers{
			Keywords:     input.Keywords,
			FilePatterns: input.FilePatterns,
			TaskTypes:    input.TaskTypes,
		},
		Insight:       input.Insight,
		InjectionText: input.InjectionText,
		Example:       input.Example,
	}
	if c.Captured == "" {
		c.Captured = today()
	}

	if err := card.Validate(c); err != nil {
		return nil, err
	}

	c.InjectionTokens = token.Count(c.InjectionText)
	if c.InjectionTokens > cfg.MaxInjectionTokens {
		return nil, errors.NewTooLong(cfg.MaxInjectionTokens, c.InjectionTokens)
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

	if match := findDuplicate(idx, c.Name, c.Triggers.Keywords, cfg); match != nil {
		return nil, errors.NewDuplicate(c.Name, match.Name,
			fmt.Sprintf("%s (similarity %.2f)", match.Reason, match.Similarity))
	}

	if err := st.WriteCard(c); err != nil {
		return nil, err
	}
	idx.Upsert(c.ToEntry())
	if err := st.SaveIndex(idx); err != nil {
		return nil, err
	}

	return &CreateOutput{Card: c.ToEntry(), Tokens: c.InjectionTokens}, nil
}
