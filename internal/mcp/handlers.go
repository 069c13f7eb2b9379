package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/adityarbhat/feedfwd/internal/config"
	"github.com/adityarbhat/feedfwd/internal/errors"
	"github.com/adityarbhat/feedfwd/internal/ops"
	"github.com/adityarbhat/feedfwd/internal/session"
	"github.com/adityarbhat/feedfwd/internal/store"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	st      *store.Store
	cfg     *config.Config
	history *sql.DB
}

// NewHandlers creates a new Handlers instance. history may be nil; the
// ledger is optional.
func NewHandlers(st *store.Store, cfg *config.Config, history *sql.DB) *Handlers {
	return &Handlers{st: st, cfg: cfg, history: history}
}

// Request types for each tool

// LearnRequest represents the arguments for card_learn.
type LearnRequest struct {
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	Source        string   `json:"source,omitempty"`
	Insight       string   `json:"insight,omitempty"`
	InjectionText string   `json:"injection_text"`
	Example       string   `json:"example,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
	FilePatterns  []string `json:"file_patterns,omitempty"`
	TaskTypes     []string `json:"task_types,omitempty"`
	LowConfidence bool     `json:"low_confidence,omitempty"`
}

// FetchRequest represents the arguments for card_fetch.
type FetchRequest struct {
	Name string `json:"name"`
}

// ListRequest represents the arguments for card_list.
type ListRequest struct {
	Category string `json:"category,omitempty"`
}

// SearchRequest represents the arguments for card_search.
type SearchRequest struct {
	Term string `json:"term"`
}

// RemoveRequest represents the arguments for card_remove.
type RemoveRequest struct {
	Name string `json:"name"`
}

// UpdateRequest represents the arguments for card_update.
type UpdateRequest struct {
	Name          string    `json:"name"`
	Category      *string   `json:"category,omitempty"`
	Source        *string   `json:"source,omitempty"`
	Insight       *string   `json:"insight,omitempty"`
	InjectionText *string   `json:"injection_text,omitempty"`
	Example       *string   `json:"example,omitempty"`
	Keywords      *[]string `json:"keywords,omitempty"`
	FilePatterns  *[]string `json:"file_patterns,omitempty"`
	TaskTypes     *[]string `json:"task_types,omitempty"`
	Score         *float64  `json:"score,omitempty"`
}

// InjectRequest represents the arguments for card_inject.
type InjectRequest struct {
	ContextText  string   `json:"context_text,omitempty"`
	ChangedFiles []string `json:"changed_files,omitempty"`
	ProjectDir   string   `json:"project_dir,omitempty"`
	TokenBudget  int      `json:"token_budget,omitempty"`
}

// FeedbackRequest represents the arguments for card_feedback.
type FeedbackRequest struct {
	Surfaced    []string          `json:"surfaced,omitempty"`
	SessionKind string            `json:"session_kind,omitempty"`
	KeywordHits map[string]bool   `json:"keyword_hits,omitempty"`
	Explicit    map[string]string `json:"explicit,omitempty"`
}

// TokensRequest represents the arguments for card_tokens.
type TokensRequest struct {
	Text string `json:"text"`
}

// CheckDupRequest represents the arguments for card_check_dup.
type CheckDupRequest struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords,omitempty"`
}

// Handler implementations

// HandleLearn handles the card_learn tool call.
func (h *Handlers) HandleLearn(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LearnRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalid(err.Error())), nil
	}

	result, err := ops.Create(ctx, h.st, h.cfg, ops.CreateInput{
		Name:          input.Name,
		Category:      input.Category,
		Source:        input.Source,
		Insight:       input.Insight,
		InjectionText: input.InjectionText,
		Example:       input.Example,
		Keywords:      input.Keywords,
		FilePatterns:  input.FilePatterns,
		TaskTypes:     input.TaskTypes,
		LowConfidence: input.LowConfidence,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFetch handles the card_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalid(err.Error())), nil
	}

	result, err := ops.Fetch(ctx, h.st, ops.FetchInput{Name: input.Name})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the card_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalid(err.Error())), nil
	}

	result, err := ops.List(ctx, h.st, ops.ListInput{Category: input.Category})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSearch handles the card_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalid(err.Error())), nil
	}

	result, err := ops.Search(ctx, h.st, ops.SearchInput{Term: input.Term})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRemove handles the card_remove tool call.
func (h *Handlers) HandleRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RemoveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalid(err.Error())), nil
	}

	result, err := ops.Remove(ctx, h.st, ops.RemoveInput{Name: input.Name})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleUpdate handles the card_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalid(err.Error())), nil
	}

	result, err := ops.Update(ctx, h.st, h.cfg, ops.UpdateInput{
		Name:          input.Name,
		Category:      input.Category,
		Source:        input.Source,
		Insight:       input.Insight,
		InjectionText: input.InjectionText,
		Example:       input.Example,
		Keywords:      input.Keywords,
		FilePatterns:  input.FilePatterns,
		TaskTypes:     input.TaskTypes,
		Score:         input.Score,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleInject handles the card_inject tool call.
func (h *Handlers) HandleInject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[InjectRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalid(err.Error())), nil
	}

	result, err := ops.Inject(ctx, h.st, h.cfg, h.history, ops.InjectInput{
		ContextText:  input.ContextText,
		ChangedFiles: input.ChangedFiles,
		ProjectDir:   input.ProjectDir,
		TokenBudget:  input.TokenBudget,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFeedback handles the card_feedback tool call.
func (h *Handlers) HandleFeedback(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FeedbackRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalid(err.Error())), nil
	}

	kind := session.KindMixed
	if input.SessionKind != "" {
		parsed, ok := session.ParseKind(input.SessionKind)
		if !ok {
			return errorResult(errors.NewInvalid("session_kind must be planning, code, or mixed")), nil
		}
		kind = parsed
	}

	result, err := ops.ApplySessionFeedback(ctx, h.st, h.cfg, h.history, ops.FeedbackInput{
		Surfaced: input.Surfaced,
		Signals: ops.FeedbackSignals{
			SessionKind: kind,
			KeywordHits: input.KeywordHits,
			Explicit:    input.Explicit,
		},
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleStats handles the card_stats tool call.
func (h *Handlers) HandleStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Stats(ctx, h.st, h.history)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleRebuild handles the card_rebuild tool call.
func (h *Handlers) HandleRebuild(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Rebuild(ctx, h.st)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleTokens handles the card_tokens tool call.
func (h *Handlers) HandleTokens(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TokensRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalid(err.Error())), nil
	}
	return successResult(ops.CountTokens(h.cfg, ops.CountTokensInput{Text: input.Text}))
}

// HandleCheckDup handles the card_check_dup tool call.
func (h *Handlers) HandleCheckDup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CheckDupRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalid(err.Error())), nil
	}

	result, err := ops.CheckDuplicate(ctx, h.st, h.cfg, ops.CheckDuplicateInput{
		Name:     input.Name,
		Keywords: input.Keywords,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if fErr, ok := err.(*errors.Error); ok {
		errorObj := map[string]any{
			"code":    fErr.Code,
			"message": fErr.Message,
			"status":  fErr.Status,
		}
		if fErr.Code != errors.ErrInternal && fErr.Details != nil {
			errorObj["details"] = fErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
