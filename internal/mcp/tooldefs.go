package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var learnToolDef = mcp.NewTool("card_learn",
	mcp.WithDescription(
		"Save a new knowledge card. The card is duplicate-checked against "+
			"existing cards and rejected when its name or trigger keywords "+
			"overlap an existing card too closely.",
	),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("Kebab-case card identifier, unique across the store"),
	),
	mcp.WithString("category",
		mcp.Required(),
		mcp.Description("Storage category, e.g. prompting, python, workflow, tools, testing, architecture, debugging — or any custom one"),
	),
	mcp.WithString("injection_text",
		mcp.Required(),
		mcp.Description("The instruction payload surfaced into sessions (max 250 tokens)"),
	),
	mcp.WithString("insight",
		mcp.Description("Short human-facing summary; never injected"),
	),
	mcp.WithString("example",
		mcp.Description("Before/after prose for the human reader; never injected"),
	),
	mcp.WithString("source",
		mcp.Description("Provenance: a URL, 'pasted-text', 'screenshot'"),
	),
	mcp.WithArray("keywords",
		mcp.Description("Trigger keywords that mark a session as relevant"),
	),
	mcp.WithArray("file_patterns",
		mcp.Description("Glob patterns for relevant file types, e.g. *.py"),
	),
	mcp.WithArray("task_types",
		mcp.Description("High-level task labels, e.g. debugging, refactoring"),
	),
	mcp.WithBoolean("low_confidence",
		mcp.Description("Start at score 0.30 instead of 0.50 for vague source material"),
	),
)

var fetchToolDef = mcp.NewTool("card_fetch",
	mcp.WithDescription("Fetch one card in full, prose sections included."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("Card name"),
	),
)

var listToolDef = mcp.NewTool("card_list",
	mcp.WithDescription("List cards grouped by category."),
	mcp.WithString("category",
		mcp.Description("Restrict the listing to one category"),
	),
)

var searchToolDef = mcp.NewTool("card_search",
	mcp.WithDescription("Search cards by name, keyword, or category (case-insensitive)."),
	mcp.WithString("term",
		mcp.Required(),
		mcp.Description("Search term"),
	),
)

var removeToolDef = mcp.NewTool("card_remove",
	mcp.WithDescription("Delete a card and its index entry."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("Card name"),
	),
)

var updateToolDef = mcp.NewTool("card_update",
	mcp.WithDescription("Edit fields of an existing card. Omitted fields are left unchanged; the token count is recomputed."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("Card name"),
	),
	mcp.WithString("category",
		mcp.Description("Move the card to another category"),
	),
	mcp.WithString("injection_text",
		mcp.Description("Replacement injection payload (max 250 tokens)"),
	),
	mcp.WithString("insight",
		mcp.Description("Replacement summary"),
	),
	mcp.WithString("example",
		mcp.Description("Replacement example prose"),
	),
	mcp.WithString("source",
		mcp.Description("Replacement provenance"),
	),
	mcp.WithArray("keywords",
		mcp.Description("Replacement trigger keywords"),
	),
	mcp.WithArray("file_patterns",
		mcp.Description("Replacement file patterns"),
	),
	mcp.WithArray("task_types",
		mcp.Description("Replacement task types"),
	),
	mcp.WithNumber("score",
		mcp.Description("Override the relevance score directly (0.0-1.0)"),
	),
)

var injectToolDef = mcp.NewTool("card_inject",
	mcp.WithDescription(
		"Select the cards most relevant to the current session context, "+
			"within the token budget, and record the selection for later feedback.",
	),
	mcp.WithString("context_text",
		mcp.Description("Flattened session context: prompt text, file extensions, instruction-file contents"),
	),
	mcp.WithArray("changed_files",
		mcp.Description("Recently changed file paths, used to classify the session"),
	),
	mcp.WithString("project_dir",
		mcp.Description("Project directory for the session record"),
	),
	mcp.WithNumber("token_budget",
		mcp.Description("Override the session token budget (default 400)"),
	),
)

var feedbackToolDef = mcp.NewTool("card_feedback",
	mcp.WithDescription(
		"Apply end-of-session feedback to the cards surfaced by the last "+
			"inject. Implicit signals nudge scores; explicit useful/not-useful "+
			"verdicts move them hard and can pass the 0.70 implicit ceiling.",
	),
	mcp.WithArray("surfaced",
		mcp.Description("Card names to score; defaults to the last inject's session log"),
	),
	mcp.WithString("session_kind",
		mcp.Description("planning, code, or mixed (default mixed)"),
	),
	mcp.WithObject("keyword_hits",
		mcp.Description("Map of card name -> true when its keywords appeared in the session"),
	),
	mcp.WithObject("explicit",
		mcp.Description("Map of card name -> 'useful' or 'not-useful'"),
	),
)

var statsToolDef = mcp.NewTool("card_stats",
	mcp.WithDescription("Store-wide counters: totals, score bands, per-category counts."),
)

var rebuildToolDef = mcp.NewTool("card_rebuild",
	mcp.WithDescription("Rebuild the index from the card files on disk."),
)

var tokensToolDef = mcp.NewTool("card_tokens",
	mcp.WithDescription("Estimate the token cost of a piece of text with the store's counter."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Text to count"),
	),
)

var checkDupToolDef = mcp.NewTool("card_check_dup",
	mcp.WithDescription("Check whether a proposed card would collide with an existing one, without writing anything."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("Proposed card name"),
	),
	mcp.WithArray("keywords",
		mcp.Description("Proposed trigger keywords"),
	),
)
