package web

import (
	"database/sql"
	"log"
	"math"
	"net/http"
	"strings"

	"github.com/adityarbhat/feedfwd/internal/config"
	"github.com/adityarbhat/feedfwd/internal/db"
	"github.com/adityarbhat/feedfwd/internal/ops"
	"github.com/adityarbhat/feedfwd/internal/store"
)

// cardHistoryLimit caps how many feedback events the detail page shows.
const cardHistoryLimit = 20

// Handlers contains HTTP route handlers for the viewer.
type Handlers struct {
	st       *store.Store
	cfg      *config.Config
	history  *sql.DB
	renderer *Renderer
}

// HandleList handles GET /cards — the grouped card listing. An optional
// ?category= query restricts it to one category.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	result, err := ops.List(r.Context(), h.st, ops.ListInput{Category: category})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "list", ListPageData{
		PageData: PageData{
			Title:   "Knowledge Cards",
			Version: h.renderer.version,
		},
		Groups:   result.Groups,
		Total:    result.Total,
		Category: category,
	})
}

// HandleDetail handles GET /cards/{name} — one card in full, with the
// prose sections rendered as markdown.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	result, err := ops.Fetch(r.Context(), h.st, ops.FetchInput{Name: name})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// The ledger is best-effort: no ledger, no history section.
	var events []db.FeedbackEvent
	if h.history != nil {
		events, err = db.CardHistory(h.history, result.Name, cardHistoryLimit)
		if err != nil {
			log.Printf("warning: card history for %s unavailable: %v", result.Name, err)
			events = nil
		}
	}

	h.renderer.renderPage(w, "detail", DetailPageData{
		PageData: PageData{
			Title:   result.Name,
			Version: h.renderer.version,
		},
		Card:            result,
		InsightHTML:     renderMarkdown(result.Insight),
		ExampleHTML:     renderMarkdown(result.Example),
		Keywords:        strings.Join(result.Triggers.Keywords, ", "),
		ScorePercentage: int(math.Round(result.Score * 100)),
		History:         events,
	})
}
