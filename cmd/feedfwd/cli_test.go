package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/adityarbhat/feedfwd/internal/config"
	"github.com/adityarbhat/feedfwd/internal/ops"
	"github.com/adityarbhat/feedfwd/internal/store"
)

// setupTestStore creates a store rooted in a temp dir.
func setupTestStore(t *testing.T) (*store.Store, *config.Config) {
	t.Helper()
	cfg := config.DefaultConfig()
	return store.Open(t.TempDir(), cfg), cfg
}

// runApp runs the CLI app with captured stdout and returns the output.
func runApp(t *testing.T, app *cli.App, args ...string) (string, error) {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	runErr := app.Run(append([]string{"feedfwd"}, args...))

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	return buf.String(), runErr
}

// withStdin pipes content into os.Stdin for the duration of fn.
func withStdin(t *testing.T, content string, fn func()) {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	go func() {
		_, _ = w.WriteString(content)
		w.Close()
	}()

	oldStdin := os.Stdin
	os.Stdin = r
	defer func() { os.Stdin = oldStdin }()

	fn()
}

// seedCLICard stores a card directly through ops, bypassing the CLI.
func seedCLICard(t *testing.T, st *store.Store, cfg *config.Config, name, category string, keywords []string) {
	t.Helper()
	_, err := ops.Create(context.Background(), st, cfg, ops.CreateInput{
		Name:          name,
		Category:      category,
		InjectionText: "When working on " + name + ", prefer the documented approach.",
		Keywords:      keywords,
	})
	if err != nil {
		t.Fatalf("failed to seed card %s: %v", name, err)
	}
}

// TestParseList tests the parseList helper function.
func TestParseList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "single item",
			input:    "foo",
			expected: []string{"foo"},
		},
		{
			name:     "multiple items",
			input:    "foo,bar,baz",
			expected: []string{"foo", "bar", "baz"},
		},
		{
			name:     "items with spaces",
			input:    " foo , bar , baz ",
			expected: []string{"foo", "bar", "baz"},
		},
		{
			name:     "empty items filtered",
			input:    "foo,,bar,",
			expected: []string{"foo", "bar"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseList(tt.input)
			if len(result) != len(tt.expected) {
				t.Errorf("expected %d items, got %d", len(tt.expected), len(result))
				return
			}
			for i, v := range result {
				if v != tt.expected[i] {
					t.Errorf("expected item[%d]=%q, got %q", i, tt.expected[i], v)
				}
			}
		})
	}
}

// TestCLILearn tests the learn command with injection text piped via stdin.
func TestCLILearn(t *testing.T) {
	st, cfg := setupTestStore(t)
	app := newCLIApp(st, cfg, nil)

	var out string
	var runErr error
	withStdin(t, "Always close response bodies before returning.", func() {
		out, runErr = runApp(t, app, "learn",
			"--name=close-response-bodies",
			"--category=golang",
			"--keywords=http,defer,body")
	})

	if runErr != nil {
		t.Fatalf("learn command failed: %v", runErr)
	}

	var output ops.CreateOutput
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}

	if output.Card.Name != "close-response-bodies" {
		t.Errorf("expected name=close-response-bodies, got %s", output.Card.Name)
	}
	if output.Card.Score != 0.5 {
		t.Errorf("expected score=0.5, got %.2f", output.Card.Score)
	}
	if output.Tokens == 0 {
		t.Error("expected non-zero token count")
	}
}

// TestCLIShow tests the show command.
func TestCLIShow(t *testing.T) {
	st, cfg := setupTestStore(t)
	seedCLICard(t, st, cfg, "show-me", "testing", []string{"subtest"})

	app := newCLIApp(st, cfg, nil)

	out, err := runApp(t, app, "show", "show-me")
	if err != nil {
		t.Fatalf("show command failed: %v", err)
	}

	var output ops.FetchOutput
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}

	if output.Name != "show-me" {
		t.Errorf("expected name=show-me, got %s", output.Name)
	}
	if output.Category != "testing" {
		t.Errorf("expected category=testing, got %s", output.Category)
	}
	if output.InjectionText == "" {
		t.Error("expected non-empty injection text")
	}
}

// TestCLIList tests the list command with and without a category filter.
func TestCLIList(t *testing.T) {
	st, cfg := setupTestStore(t)
	seedCLICard(t, st, cfg, "goroutine-leaks", "golang", []string{"goroutine"})
	seedCLICard(t, st, cfg, "table-tests", "testing", []string{"fixture"})

	app := newCLIApp(st, cfg, nil)

	t.Run("all categories", func(t *testing.T) {
		out, err := runApp(t, app, "list")
		if err != nil {
			t.Fatalf("list command failed: %v", err)
		}

		var output ops.ListOutput
		if err := json.Unmarshal([]byte(out), &output); err != nil {
			t.Fatalf("failed to parse output: %v", err)
		}
		if output.Total != 2 {
			t.Errorf("expected total=2, got %d", output.Total)
		}
	})

	t.Run("category filter", func(t *testing.T) {
		out, err := runApp(t, app, "list", "--category=golang")
		if err != nil {
			t.Fatalf("list command failed: %v", err)
		}

		var output ops.ListOutput
		if err := json.Unmarshal([]byte(out), &output); err != nil {
			t.Fatalf("failed to parse output: %v", err)
		}
		if output.Total != 1 {
			t.Errorf("expected total=1, got %d", output.Total)
		}
		if len(output.Groups) != 1 || output.Groups[0].Category != "golang" {
			t.Errorf("expected single golang group, got %+v", output.Groups)
		}
	})
}

// TestCLISearch tests the search command.
func TestCLISearch(t *testing.T) {
	st, cfg := setupTestStore(t)
	seedCLICard(t, st, cfg, "goroutine-leaks", "golang", []string{"goroutine", "leak"})
	seedCLICard(t, st, cfg, "table-tests", "testing", []string{"table", "subtest"})

	app := newCLIApp(st, cfg, nil)

	out, err := runApp(t, app, "search", "goroutine")
	if err != nil {
		t.Fatalf("search command failed: %v", err)
	}

	var output ops.SearchOutput
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if output.Total != 1 {
		t.Fatalf("expected 1 match, got %d", output.Total)
	}
	if output.Cards[0].Name != "goroutine-leaks" {
		t.Errorf("expected match goroutine-leaks, got %s", output.Cards[0].Name)
	}
}

// TestCLIRemove tests the remove command.
func TestCLIRemove(t *testing.T) {
	st, cfg := setupTestStore(t)
	seedCLICard(t, st, cfg, "doomed", "testing", nil)

	app := newCLIApp(st, cfg, nil)

	out, err := runApp(t, app, "remove", "doomed")
	if err != nil {
		t.Fatalf("remove command failed: %v", err)
	}

	var output ops.RemoveOutput
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if output.Name != "doomed" {
		t.Errorf("expected name=doomed, got %s", output.Name)
	}

	// Gone afterwards.
	if _, err := runApp(t, app, "show", "doomed"); err == nil {
		t.Error("expected show after remove to fail")
	}
}

// TestCLIUpdate tests the update command.
func TestCLIUpdate(t *testing.T) {
	st, cfg := setupTestStore(t)
	seedCLICard(t, st, cfg, "mutable", "testing", []string{"old"})

	app := newCLIApp(st, cfg, nil)

	out, err := runApp(t, app, "update",
		"--insight=Prefer table-driven tests for matrix coverage.",
		"--keywords=table,subtest",
		"mutable")
	if err != nil {
		t.Fatalf("update command failed: %v", err)
	}

	var output ops.UpdateOutput
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if len(output.Card.Keywords) != 2 {
		t.Errorf("expected 2 keywords, got %v", output.Card.Keywords)
	}

	showOut, err := runApp(t, app, "show", "mutable")
	if err != nil {
		t.Fatalf("show command failed: %v", err)
	}
	var fetched ops.FetchOutput
	if err := json.Unmarshal([]byte(showOut), &fetched); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if !strings.Contains(fetched.Insight, "table-driven") {
		t.Errorf("expected updated insight, got %q", fetched.Insight)
	}
}

// TestCLIInjectFeedback tests the inject→feedback round trip.
func TestCLIInjectFeedback(t *testing.T) {
	st, cfg := setupTestStore(t)
	seedCLICard(t, st, cfg, "goroutine-leaks", "golang", []string{"goroutine", "leak", "channel"})

	app := newCLIApp(st, cfg, nil)

	out, err := runApp(t, app, "inject",
		"--context=hunting a goroutine leak, the channel never closes")
	if err != nil {
		t.Fatalf("inject command failed: %v", err)
	}

	var injected ops.InjectOutput
	if err := json.Unmarshal([]byte(out), &injected); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if len(injected.Cards) != 1 {
		t.Fatalf("expected 1 injected card, got %d", len(injected.Cards))
	}
	if injected.SessionID == "" {
		t.Error("expected non-empty session ID")
	}

	// Feedback from the session log written by inject.
	out, err = runApp(t, app, "feedback",
		"--session-kind=code",
		"--keyword-hits=goroutine-leaks")
	if err != nil {
		t.Fatalf("feedback command failed: %v", err)
	}

	var fb ops.FeedbackOutput
	if err := json.Unmarshal([]byte(out), &fb); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if len(fb.Updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(fb.Updates))
	}
	if fb.Updates[0].NewScore <= fb.Updates[0].OldScore {
		t.Errorf("expected score to rise, got %.2f -> %.2f",
			fb.Updates[0].OldScore, fb.Updates[0].NewScore)
	}
}

// TestCLITokens tests the tokens command.
func TestCLITokens(t *testing.T) {
	st, cfg := setupTestStore(t)
	app := newCLIApp(st, cfg, nil)

	out, err := runApp(t, app, "tokens", "four", "plain", "words", "here")
	if err != nil {
		t.Fatalf("tokens command failed: %v", err)
	}

	var output ops.CountTokensOutput
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if output.Tokens == 0 {
		t.Error("expected non-zero token count")
	}
	if !output.WithinCardLimit {
		t.Error("expected short text to fit the card limit")
	}
}

// TestCLICheckDup tests the check-dup command.
func TestCLICheckDup(t *testing.T) {
	st, cfg := setupTestStore(t)
	seedCLICard(t, st, cfg, "use-context-timeouts", "golang", []string{"context", "timeout", "deadline"})

	app := newCLIApp(st, cfg, nil)

	t.Run("duplicate by keywords", func(t *testing.T) {
		out, err := runApp(t, app, "check-dup",
			"--name=wrap-slow-calls",
			"--keywords=context,timeout,retry")
		if err != nil {
			t.Fatalf("check-dup command failed: %v", err)
		}

		var output ops.CheckDuplicateOutput
		if err := json.Unmarshal([]byte(out), &output); err != nil {
			t.Fatalf("failed to parse output: %v", err)
		}
		if !output.Duplicate || output.Match == nil {
			t.Fatal("expected a duplicate match")
		}
		if output.Match.Name != "use-context-timeouts" {
			t.Errorf("expected match use-context-timeouts, got %s", output.Match.Name)
		}
	})

	t.Run("distinct card passes", func(t *testing.T) {
		out, err := runApp(t, app, "check-dup",
			"--name=pin-dependency-versions",
			"--keywords=gomod,vendor")
		if err != nil {
			t.Fatalf("check-dup command failed: %v", err)
		}

		var output ops.CheckDuplicateOutput
		if err := json.Unmarshal([]byte(out), &output); err != nil {
			t.Fatalf("failed to parse output: %v", err)
		}
		if output.Duplicate {
			t.Errorf("expected no duplicate, got %+v", output.Match)
		}
	})
}

// TestCLIErrorHandling tests error paths across commands.
func TestCLIErrorHandling(t *testing.T) {
	st, cfg := setupTestStore(t)
	app := newCLIApp(st, cfg, nil)

	t.Run("show not found returns error", func(t *testing.T) {
		_, err := runApp(t, app, "show", "nonexistent")
		if err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("remove not found returns error", func(t *testing.T) {
		_, err := runApp(t, app, "remove", "nonexistent")
		if err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("show without name returns error", func(t *testing.T) {
		_, err := runApp(t, app, "show")
		if err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("bad session kind returns error", func(t *testing.T) {
		_, err := runApp(t, app, "feedback", "--session-kind=sideways")
		if err == nil {
			t.Error("expected error, got nil")
		}
	})
}

// TestIsCLIMode tests the isCLIMode function.
func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{
			name:     "no args",
			args:     []string{"feedfwd"},
			expected: false,
		},
		{
			name:     "learn command",
			args:     []string{"feedfwd", "learn"},
			expected: true,
		},
		{
			name:     "inject command",
			args:     []string{"feedfwd", "inject"},
			expected: true,
		},
		{
			name:     "web command",
			args:     []string{"feedfwd", "web"},
			expected: true,
		},
		{
			name:     "help flag",
			args:     []string{"feedfwd", "--help"},
			expected: true,
		},
		{
			name:     "version flag",
			args:     []string{"feedfwd", "--version"},
			expected: true,
		},
		{
			name:     "unknown arg defaults to MCP",
			args:     []string{"feedfwd", "--unknown"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if result := isCLIMode(); result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

// TestIsHelpOrVersion tests the isHelpOrVersion function.
func TestIsHelpOrVersion(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{
			name:     "no args",
			args:     []string{"feedfwd"},
			expected: false,
		},
		{
			name:     "help flag",
			args:     []string{"feedfwd", "--help"},
			expected: true,
		},
		{
			name:     "short version flag",
			args:     []string{"feedfwd", "-v"},
			expected: true,
		},
		{
			name:     "help subcommand",
			args:     []string{"feedfwd", "help"},
			expected: true,
		},
		{
			name:     "learn command is not help",
			args:     []string{"feedfwd", "learn"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if result := isHelpOrVersion(); result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

// TestReadStdinWithLimit tests that readStdin respects size limits.
func TestReadStdinWithLimit(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		content := "small content"
		var result string
		var err error
		withStdin(t, content, func() {
			result, err = readStdin(1000)
		})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if result != content {
			t.Errorf("expected %q, got %q", content, result)
		}
	})

	t.Run("exceeds limit", func(t *testing.T) {
		var err error
		withStdin(t, strings.Repeat("x", 100), func() {
			_, err = readStdin(50)
		})
		if err == nil {
			t.Error("expected error for content exceeding limit, got nil")
		}
	})
}

// TestOpenHistoryBestEffort tests that an unusable history database degrades
// to a nil ledger instead of blocking startup.
func TestOpenHistoryBestEffort(t *testing.T) {
	t.Run("corrupt database yields nil handle", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "history.db"), []byte("not a database"), 0o600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		if history := openHistory(dir); history != nil {
			history.Close()
			t.Error("expected nil handle for corrupt database")
		}
	})

	t.Run("healthy dir yields handle", func(t *testing.T) {
		history := openHistory(t.TempDir())
		if history == nil {
			t.Fatal("expected a usable history handle")
		}
		history.Close()
	})

	t.Run("store commands run without a ledger", func(t *testing.T) {
		st, cfg := setupTestStore(t)
		seedCLICard(t, st, cfg, "ledgerless", "testing", []string{"ledger"})
		app := newCLIApp(st, cfg, nil)

		if _, err := runApp(t, app, "list"); err != nil {
			t.Errorf("list without ledger failed: %v", err)
		}
		if _, err := runApp(t, app, "inject", "--context=ledger work in testing"); err != nil {
			t.Errorf("inject without ledger failed: %v", err)
		}
	})
}

// TestGatherProjectContext tests the project-dir context scan.
func TestGatherProjectContext(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "web"), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "web", "app.tsx"), []byte("export {}"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "CLAUDE.md"), []byte("Always run the linter."), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	got := gatherProjectContext(dir)

	for _, want := range []string{"go", "tsx", "Always run the linter."} {
		if !strings.Contains(got, want) {
			t.Errorf("expected context to contain %q, got %q", want, got)
		}
	}

	t.Run("missing dir yields empty", func(t *testing.T) {
		if got := gatherProjectContext(filepath.Join(dir, "nope")); got != "" {
			t.Errorf("expected empty context, got %q", got)
		}
	})
}
