// Package store owns the on-disk layout of the knowledge base: per-card
// markdown files partitioned by category, the derived JSON index, and the
// advisory lock that serializes index read-modify-write sequences across
// short-lived processes.
package store

import (
	"os"
	"path/filepath"
)

const (
	// knowledgeDirName holds category subdirectories of card files.
	knowledgeDirName = "knowledge"

	// indexFileName is the derived projection of every card's metadata.
	indexFileName = "_index.json"

	// lockFileName is the advisory lock scoped to the index file.
	lockFileName = "_index.lock"

	// sessionLogFileName records what the last inject surfaced.
	sessionLogFileName = "_session_log.json"

	// historyDBFileName is the SQLite session-history ledger.
	historyDBFileName = "history.db"
)

// Paths resolves the persisted directory contract rooted at a base dir.
type Paths struct {
	Base string
}

// DefaultBase returns the knowledge base root: $FEEDFWD_HOME if set,
// otherwise ~/.feedfwd. It lives outside any project directory so cards
// survive across projects.
func DefaultBase() (string, error) {
	if env := os.Getenv("FEEDFWD_HOME"); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".feedfwd"), nil
}

// KnowledgeDir is the root of the category partitions.
func (p Paths) KnowledgeDir() string {
	return filepath.Join(p.Base, knowledgeDirName)
}

// CardPath is the full path of a card file.
func (p Paths) CardPath(category, name string) string {
	return filepath.Join(p.KnowledgeDir(), category, name+".md")
}

// IndexPath is the full path of the index file.
func (p Paths) IndexPath() string {
	return filepath.Join(p.Base, indexFileName)
}

// LockPath is the full path of the index lock file.
func (p Paths) LockPath() string {
	return filepath.Join(p.Base, lockFileName)
}

// SessionLogPath is the full path of the session log file.
func (p Paths) SessionLogPath() string {
	return filepath.Join(p.Base, sessionLogFileName)
}

// HistoryDBPath is the full path of the session-history database.
func (p Paths) HistoryDBPath() string {
	return filepath.Join(p.Base, historyDBFileName)
}
