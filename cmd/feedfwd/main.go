package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/adityarbhat/feedfwd/internal/config"
	"github.com/adityarbhat/feedfwd/internal/db"
	"github.com/adityarbhat/feedfwd/internal/mcp"
	"github.com/adityarbhat/feedfwd/internal/store"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"learn": true, "show": true, "list": true, "search": true,
	"remove": true, "update": true, "inject": true, "feedback": true,
	"stats": true, "rebuild": true, "tokens": true, "check-dup": true,
	"web": true, "help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   ___            _  ___             _
  | __|__ ___ ___| || __|__ __ _____| |
  | _/ -_) -_) _  || _|\ V  V / _   |
  |_|\___\___\__,_||_|  \_/\_/ \__,_|

  Personal knowledge card store

  Usage: feedfwd <command> [options]
         feedfwd --help

  MCP server mode requires piped input.`)
}

// openHistory opens the session-history ledger. The ledger is best-effort:
// an unusable history.db degrades session accounting, never a store command.
func openHistory(baseDir string) *sql.DB {
	history, err := db.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: session history unavailable: %v\n", err)
		return nil
	}
	return history
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before any setup (no store needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil, nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	baseDir, err := store.DefaultBase()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine base directory: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	st := store.Open(baseDir, cfg)

	history := openHistory(baseDir)
	if history != nil {
		defer history.Close()
	}

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(st, cfg, history)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'feedfwd --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(st, cfg, history, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
