// Package ops implements the operation layer: every externally visible
// action over the card store, shared by the CLI and MCP surfaces. Operations
// take Input structs, return Output structs, and surface typed errors from
// internal/errors.
package ops

import (
	"log"
	"time"

	"github.com/adityarbhat/feedfwd/internal/store"
)

// loadIndexOrRebuild loads the index, falling back to a rebuild when the
// the file exists but is unparsable. Callers doing read-modify-write must
// hold the index lock before calling this.
func loadIndexOrRebuild(st *store.Store) (*store.Index, error) {
	idx, err := st.LoadIndex()
	if err == nil {
		return idx, nil
	}
	log.Printf("warning: index unreadable, rebuilding: %v", err)
	idx, _, rerr := st.Rebuild()
	if rerr != nil {
		return nil, rerr
	}
	return idx, nil
}

// today returns the current date as an ISO "2006-01-02" string, the
// capture-date format used in card frontmatter.
func today() string {
	return time.Now().UTC().Format("2006-01-02")
}
