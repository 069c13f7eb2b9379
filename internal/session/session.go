// Package session tracks what a single assistant session was shown and
// classifies what kind of work the session did. The log is the handoff
// between inject (which writes it) and feedback (which consumes and
// clears it).
package session

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind is the binary-ish classification of a session's activity.
type Kind string

const (
	KindPlanning Kind = "planning"
	KindCode     Kind = "code"
	KindMixed    Kind = "mixed"
)

// Log records what the last inject surfaced, for the feedback step.
type Log struct {
	SessionID     string   `json:"session_id,omitempty"`
	StartedAt     string   `json:"started_at,omitempty"`
	ProjectDir    string   `json:"project_dir,omitempty"`
	InjectedCards []string `json:"injected_cards"`
}

// EmptyLog returns a cleared session log.
func EmptyLog() *Log {
	return &Log{InjectedCards: []string{}}
}

// NewSessionID generates a ULID for a session.
func NewSessionID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// LoadLog reads the session log at path. Missing or corrupt files yield an
// empty log: a half-written or absent log just means there is nothing to
// give feedback on.
func LoadLog(path string) *Log {
	data, err := os.ReadFile(path)
	if err != nil {
		return EmptyLog()
	}
	l := &Log{}
	if err := json.Unmarshal(data, l); err != nil {
		return EmptyLog()
	}
	if l.InjectedCards == nil {
		l.InjectedCards = []string{}
	}
	return l
}

// SaveLog writes the session log atomically.
func SaveLog(path string, l *Log) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace session log: %w", err)
	}
	return nil
}

// planningExtensions indicate planning or documentation work.
var planningExtensions = map[string]bool{
	".md": true, ".txt": true, ".rst": true, ".adoc": true, ".doc": true,
}

// codeExtensions indicate implementation work.
var codeExtensions = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".tsx": true, ".jsx": true,
	".go": true, ".rs": true, ".java": true, ".rb": true, ".php": true,
	".c": true, ".cpp": true, ".h": true, ".cs": true, ".swift": true,
	".kt": true, ".sh": true, ".bash": true, ".zsh": true, ".sql": true,
	".yaml": true, ".yml": true, ".json": true, ".toml": true,
	".cfg": true, ".ini": true, ".html": true, ".css": true, ".scss": true,
}

// Classify decides the session kind from the files the session changed.
// The list is supplied by the caller; this function never inspects a
// repository itself. Mostly-documentation sessions classify as planning,
// mostly-code sessions as code, everything else (including no signal at
// all) as mixed.
func Classify(changedFiles []string) Kind {
	planning, code := 0, 0
	for _, f := range changedFiles {
		ext := filepath.Ext(f)
		switch {
		case planningExtensions[ext]:
			planning++
		case codeExtensions[ext]:
			code++
		}
	}

	total := planning + code
	if total == 0 {
		return KindMixed
	}

	ratio := float64(planning) / float64(total)
	switch {
	case ratio > 0.6:
		return KindPlanning
	case ratio < 0.4:
		return KindCode
	default:
		return KindMixed
	}
}

// ParseKind validates a kind string supplied by an external caller.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindPlanning, KindCode, KindMixed:
		return Kind(s), true
	}
	return "", false
}
