package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adityarbhat/feedfwd/internal/card"
	"github.com/adityarbhat/feedfwd/internal/config"
	"github.com/adityarbhat/feedfwd/internal/errors"
)

// Store bundles the card repository and the index under one base directory.
type Store struct {
	paths   Paths
	retries int
	backoff time.Duration
}

// Open creates a Store over baseDir. Nothing is created on disk until the
// first write.
func Open(baseDir string, cfg *config.Config) *Store {
	return &Store{
		paths:   Paths{Base: baseDir},
		retries: cfg.LockRetries,
		backoff: time.Duration(cfg.LockBackoffMS) * time.Millisecond,
	}
}

// Paths exposes the resolved directory layout.
func (s *Store) Paths() Paths {
	return s.paths
}

// Lock acquires the index lock for a read-modify-write sequence.
func (s *Store) Lock(ctx context.Context) (*Lock, error) {
	return AcquireLock(ctx, s.paths.LockPath(), s.retries, s.backoff)
}

// WriteCard persists a card's full content under its category/name path,
// atomically replacing any prior content.
func (s *Store) WriteCard(c *card.KnowledgeCard) error {
	data, err := card.Encode(c)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := writeFileAtomic(s.paths.CardPath(c.Category, c.Name), data, 0o644); err != nil {
		return errors.NewUnavailable(fmt.Sprintf("write card %s: %v", c.Name, err))
	}
	return nil
}

// ReadCard loads a card by name. The categoryHint (usually from the index)
// is tried first; an empty hint or a stale one falls back to scanning the
// category partitions. Returns NotFound if no partition holds the card.
func (s *Store) ReadCard(name, categoryHint string) (*card.KnowledgeCard, error) {
	if categoryHint != "" {
		c, err := s.readCardFile(s.paths.CardPath(categoryHint, name))
		if err == nil || !errors.Is(err, errors.ErrNotFound) {
			return c, err
		}
	}

	categories, err := s.Categories()
	if err != nil {
		return nil, err
	}
	for _, category := range categories {
		if category == categoryHint {
			continue
		}
		c, err := s.readCardFile(s.paths.CardPath(category, name))
		if err == nil || !errors.Is(err, errors.ErrNotFound) {
			return c, err
		}
	}

	return nil, errors.NewNotFound(name)
}

// RemoveCardFile deletes a card's file. Returns NotFound if absent.
// Callers are responsible for removing the index entry in the same locked
// operation.
func (s *Store) RemoveCardFile(category, name string) error {
	err := os.Remove(s.paths.CardPath(category, name))
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFound(name)
		}
		return errors.NewUnavailable(fmt.Sprintf("remove card %s: %v", name, err))
	}
	return nil
}

// Categories lists the existing category partitions, sorted.
func (s *Store) Categories() ([]string, error) {
	entries, err := os.ReadDir(s.paths.KnowledgeDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewUnavailable(fmt.Sprintf("read knowledge dir: %v", err))
	}

	var categories []string
	for _, e := range entries {
		if e.IsDir() {
			categories = append(categories, e.Name())
		}
	}
	sort.Strings(categories)
	return categories, nil
}

// CardFiles enumerates every card file as category/name.md relative paths,
// sorted. This is the rebuild scan.
func (s *Store) CardFiles() ([]string, error) {
	categories, err := s.Categories()
	if err != nil {
		return nil, err
	}

	var files []string
	for _, category := range categories {
		entries, err := os.ReadDir(filepath.Join(s.paths.KnowledgeDir(), category))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
				continue
			}
			files = append(files, category+"/"+e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// readCardFile reads and decodes one card file.
func (s *Store) readCardFile(path string) (*card.KnowledgeCard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound(path)
		}
		return nil, errors.NewUnavailable(fmt.Sprintf("read card file %s: %v", path, err))
	}
	return card.Decode(data)
}
