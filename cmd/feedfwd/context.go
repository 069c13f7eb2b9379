package main

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// instructionFiles are project files whose contents describe what the
// project is about, in rough order of usefulness.
var instructionFiles = []string{"CLAUDE.md", "AGENTS.md", ".cursorrules", "README.md"}

const (
	// maxInstructionBytes limits how much of each instruction file feeds
	// the match text.
	maxInstructionBytes = 4096

	// maxScanEntries bounds the directory walk on very large trees.
	maxScanEntries = 2000
)

// gatherProjectContext builds match text from a project directory: the file
// extensions present in the tree plus the head of any instruction files.
// Everything here is best-effort; a missing or unreadable dir yields "".
func gatherProjectContext(projectDir string) string {
	var parts []string

	if exts := scanExtensions(projectDir); len(exts) > 0 {
		parts = append(parts, strings.Join(exts, " "))
	}

	for _, name := range instructionFiles {
		data, err := os.ReadFile(filepath.Join(projectDir, name))
		if err != nil {
			continue
		}
		if len(data) > maxInstructionBytes {
			data = data[:maxInstructionBytes]
		}
		parts = append(parts, string(data))
	}

	return strings.Join(parts, "\n")
}

// scanExtensions walks at most two directory levels and returns the sorted
// set of file extensions seen, without the leading dot.
func scanExtensions(projectDir string) []string {
	seen := map[string]bool{}
	count := 0

	var visit func(dir string, depth int)
	visit = func(dir string, depth int) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}
		for _, e := range entries {
			if count >= maxScanEntries {
				return
			}
			count++
			name := e.Name()
			if strings.HasPrefix(name, ".") {
				continue
			}
			if e.IsDir() {
				if depth < 2 {
					visit(filepath.Join(dir, name), depth+1)
				}
				continue
			}
			if ext := strings.TrimPrefix(filepath.Ext(name), "."); ext != "" {
				seen[strings.ToLower(ext)] = true
			}
		}
	}

	visit(projectDir, 1)

	exts := make([]string, 0, len(seen))
	for ext := range seen {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
