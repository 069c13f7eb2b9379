package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/adityarbhat/feedfwd/internal/config"
	"github.com/adityarbhat/feedfwd/internal/errors"
	"github.com/adityarbhat/feedfwd/internal/ops"
	"github.com/adityarbhat/feedfwd/internal/session"
	"github.com/adityarbhat/feedfwd/internal/store"
	"github.com/adityarbhat/feedfwd/internal/web"
)

// maxStdinBytes caps piped input so a runaway pipe cannot balloon memory.
const maxStdinBytes = 1 << 20

// newCLIApp creates the CLI application with all commands.
func newCLIApp(st *store.Store, cfg *config.Config, history *sql.DB) *cli.App {
	app := &cli.App{
		Name:    "feedfwd",
		Usage:   "Personal knowledge card store",
		Version: Version,
		Commands: []*cli.Command{
			learnCmd(st, cfg),
			showCmd(st),
			listCmd(st),
			searchCmd(st),
			removeCmd(st),
			updateCmd(st, cfg),
			injectCmd(st, cfg, history),
			feedbackCmd(st, cfg, history),
			statsCmd(st, history),
			rebuildCmd(st),
			tokensCmd(cfg),
			checkDupCmd(st, cfg),
			webCmd(st, cfg, history),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// learnCmd creates the learn command.
func learnCmd(st *store.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "learn",
		Usage: "Capture a new knowledge card (injection text may be piped via stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true, Usage: "Card name (kebab-case)"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Required: true, Usage: "Card category"},
			&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Usage: "Where the insight came from"},
			&cli.StringFlag{Name: "captured", Usage: "Capture date (YYYY-MM-DD, defaults to today)"},
			&cli.StringFlag{Name: "insight", Usage: "Full prose insight"},
			&cli.StringFlag{Name: "injection-text", Usage: "Condensed injection text (or pipe via stdin)"},
			&cli.StringFlag{Name: "example", Usage: "Worked example"},
			&cli.StringFlag{Name: "keywords", Aliases: []string{"k"}, Usage: "Comma-separated trigger keywords"},
			&cli.StringFlag{Name: "file-patterns", Usage: "Comma-separated trigger file patterns"},
			&cli.StringFlag{Name: "task-types", Usage: "Comma-separated trigger task types"},
			&cli.BoolFlag{Name: "low-confidence", Usage: "Start the card at the reduced confidence score"},
		},
		Action: func(c *cli.Context) error {
			input := ops.CreateInput{
				Name:          c.String("name"),
				Category:      c.String("category"),
				Source:        c.String("source"),
				Captured:      c.String("captured"),
				Insight:       c.String("insight"),
				InjectionText: c.String("injection-text"),
				Example:       c.String("example"),
				Keywords:      parseList(c.String("keywords")),
				FilePatterns:  parseList(c.String("file-patterns")),
				TaskTypes:     parseList(c.String("task-types")),
				LowConfidence: c.Bool("low-confidence"),
			}

			// Piped stdin wins over the flag for the injection text.
			if stdinHasData() {
				text, err := readStdin(maxStdinBytes)
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				if text != "" {
					input.InjectionText = text
				}
			}

			output, err := ops.Create(c.Context, st, cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// showCmd creates the show command.
func showCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a card in full, prose sections included",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalid("card name is required"))
			}

			output, err := ops.Fetch(c.Context, st, ops.FetchInput{Name: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List cards grouped by category",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Only list this category"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(c.Context, st, ops.ListInput{Category: c.String("category")})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// searchCmd creates the search command.
func searchCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search cards by name, category, and keywords",
		ArgsUsage: "<term>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalid("search term is required"))
			}

			output, err := ops.Search(c.Context, st, ops.SearchInput{Term: strings.Join(c.Args().Slice(), " ")})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// removeCmd creates the remove command.
func removeCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Remove a card and its index entry",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalid("card name is required"))
			}

			output, err := ops.Remove(c.Context, st, ops.RemoveInput{Name: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// updateCmd creates the update command.
func updateCmd(st *store.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Edit fields of an existing card",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "New category"},
			&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Usage: "New source"},
			&cli.StringFlag{Name: "insight", Usage: "New insight text"},
			&cli.StringFlag{Name: "injection-text", Usage: "New injection text"},
			&cli.StringFlag{Name: "example", Usage: "New example"},
			&cli.StringFlag{Name: "keywords", Aliases: []string{"k"}, Usage: "New comma-separated keywords"},
			&cli.StringFlag{Name: "file-patterns", Usage: "New comma-separated file patterns"},
			&cli.StringFlag{Name: "task-types", Usage: "New comma-separated task types"},
			&cli.Float64Flag{Name: "score", Usage: "Manual score override (0.0-1.0)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalid("card name is required"))
			}

			input := ops.UpdateInput{Name: c.Args().First()}

			if c.IsSet("category") {
				v := c.String("category")
				input.Category = &v
			}
			if c.IsSet("source") {
				v := c.String("source")
				input.Source = &v
			}
			if c.IsSet("insight") {
				v := c.String("insight")
				input.Insight = &v
			}
			if c.IsSet("injection-text") {
				v := c.String("injection-text")
				input.InjectionText = &v
			}
			if c.IsSet("example") {
				v := c.String("example")
				input.Example = &v
			}
			if c.IsSet("keywords") {
				v := parseList(c.String("keywords"))
				input.Keywords = &v
			}
			if c.IsSet("file-patterns") {
				v := parseList(c.String("file-patterns"))
				input.FilePatterns = &v
			}
			if c.IsSet("task-types") {
				v := parseList(c.String("task-types"))
				input.TaskTypes = &v
			}
			if c.IsSet("score") {
				v := c.Float64("score")
				input.Score = &v
			}

			output, err := ops.Update(c.Context, st, cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// injectCmd creates the inject command.
func injectCmd(st *store.Store, cfg *config.Config, history *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "inject",
		Usage: "Select the cards most relevant to the current session context",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "context", Usage: "Session context text (or pipe via stdin)"},
			&cli.StringFlag{Name: "project-dir", Aliases: []string{"p"}, Usage: "Project directory to scan for context"},
			&cli.StringFlag{Name: "changed", Usage: "Comma-separated changed file paths"},
			&cli.IntFlag{Name: "budget", Aliases: []string{"b"}, Usage: "Token budget override"},
		},
		Action: func(c *cli.Context) error {
			input := ops.InjectInput{
				ContextText:  c.String("context"),
				ChangedFiles: parseList(c.String("changed")),
				ProjectDir:   c.String("project-dir"),
				TokenBudget:  c.Int("budget"),
			}

			if stdinHasData() {
				text, err := readStdin(maxStdinBytes)
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				if text != "" {
					input.ContextText = text
				}
			}

			// Enrich the match text from the project tree when a dir is given.
			if input.ProjectDir != "" {
				input.ContextText = strings.TrimSpace(input.ContextText + "\n" + gatherProjectContext(input.ProjectDir))
			}

			if input.ContextText == "" {
				return outputError(errors.NewInvalid("context is required: pass --context, pipe stdin, or set --project-dir"))
			}

			output, err := ops.Inject(c.Context, st, cfg, history, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// feedbackCmd creates the feedback command.
func feedbackCmd(st *store.Store, cfg *config.Config, history *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "feedback",
		Usage: "Score the cards surfaced in the last session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "surfaced", Usage: "Comma-separated card names (defaults to the session log)"},
			&cli.StringFlag{Name: "session-kind", Value: "mixed", Usage: "Session kind: planning|code|mixed"},
			&cli.StringFlag{Name: "keyword-hits", Usage: "Comma-separated names whose keywords appeared in the session"},
			&cli.StringFlag{Name: "useful", Usage: "Comma-separated names explicitly marked useful"},
			&cli.StringFlag{Name: "not-useful", Usage: "Comma-separated names explicitly marked not useful"},
		},
		Action: func(c *cli.Context) error {
			kind, ok := session.ParseKind(c.String("session-kind"))
			if !ok {
				return outputError(errors.NewInvalid(fmt.Sprintf("unknown session kind %q", c.String("session-kind"))))
			}

			signals := ops.FeedbackSignals{
				SessionKind: kind,
				KeywordHits: map[string]bool{},
				Explicit:    map[string]string{},
			}
			for _, name := range parseList(c.String("keyword-hits")) {
				signals.KeywordHits[name] = true
			}
			for _, name := range parseList(c.String("useful")) {
				signals.Explicit[name] = ops.ExplicitUseful
			}
			for _, name := range parseList(c.String("not-useful")) {
				signals.Explicit[name] = ops.ExplicitNotUseful
			}

			input := ops.FeedbackInput{
				Surfaced: parseList(c.String("surfaced")),
				Signals:  signals,
			}

			output, err := ops.ApplySessionFeedback(c.Context, st, cfg, history, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// statsCmd creates the stats command.
func statsCmd(st *store.Store, history *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show score distribution and session counts",
		Action: func(c *cli.Context) error {
			output, err := ops.Stats(c.Context, st, history)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// rebuildCmd creates the rebuild command.
func rebuildCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "rebuild",
		Usage: "Rebuild the index from the card files on disk",
		Action: func(c *cli.Context) error {
			output, err := ops.Rebuild(c.Context, st)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// tokensCmd creates the tokens command.
func tokensCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "tokens",
		Usage:     "Estimate the token cost of a text (argument or stdin)",
		ArgsUsage: "[text]",
		Action: func(c *cli.Context) error {
			text := strings.Join(c.Args().Slice(), " ")
			if text == "" && stdinHasData() {
				piped, err := readStdin(maxStdinBytes)
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				text = piped
			}

			return outputJSON(ops.CountTokens(cfg, ops.CountTokensInput{Text: text}))
		},
	}
}

// checkDupCmd creates the check-dup command.
func checkDupCmd(st *store.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "check-dup",
		Usage: "Check whether a proposed card would collide with an existing one",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true, Usage: "Proposed card name"},
			&cli.StringFlag{Name: "keywords", Aliases: []string{"k"}, Usage: "Comma-separated proposed keywords"},
		},
		Action: func(c *cli.Context) error {
			input := ops.CheckDuplicateInput{
				Name:     c.String("name"),
				Keywords: parseList(c.String("keywords")),
			}

			output, err := ops.CheckDuplicate(c.Context, st, cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// webCmd creates the web command.
func webCmd(st *store.Store, cfg *config.Config, history *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Serve a read-only web view of the knowledge base",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Value: 7171, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(st, cfg, history, Version, c.String("bind"), c.Int("port"))
			fmt.Fprintf(os.Stderr, "feedfwd web listening on http://%s\n", srv.Addr)
			return web.Run(srv)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if ffErr, ok := err.(*errors.Error); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", ffErr.Code, ffErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads at most limit bytes from stdin.
func readStdin(limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("stdin input exceeds %d bytes", limit)
	}
	return strings.TrimSpace(string(data)), nil
}

// parseList splits a comma-separated string into a slice.
func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		v := strings.TrimSpace(p)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
