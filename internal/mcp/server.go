package mcp

import (
	"database/sql"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/adityarbhat/feedfwd/internal/config"
	"github.com/adityarbhat/feedfwd/internal/store"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"card_learn": {
		def:     learnToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLearn },
	},
	"card_fetch": {
		def:     fetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFetch },
	},
	"card_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"card_search": {
		def:     searchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch },
	},
	"card_remove": {
		def:     removeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRemove },
	},
	"card_update": {
		def:     updateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUpdate },
	},
	"card_inject": {
		def:     injectToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleInject },
	},
	"card_feedback": {
		def:     feedbackToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFeedback },
	},
	"card_stats": {
		def:     statsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStats },
	},
	"card_rebuild": {
		def:     rebuildToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRebuild },
	},
	"card_tokens": {
		def:     tokensToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTokens },
	},
	"card_check_dup": {
		def:     checkDupToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCheckDup },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with FeedFwd tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(st *store.Store, cfg *config.Config, history *sql.DB, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"feedfwd",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(st, cfg, history)

	disabled := make(map[string]bool)
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(st *store.Store, cfg *config.Config, history *sql.DB, version string) error {
	s := NewServer(st, cfg, history, version)
	return server.ServeStdio(s)
}
