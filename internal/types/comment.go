// Package types defines the core data structures shared across the watcher pipeline.
package types

// Comment is a single customer NPS comment recovered from the dashboard page.
type Comment struct {
	Store     string // store header line verbatim, e.g. "5 Downtown Store"
	Timestamp string // opaque token; part of identity, never parsed as a date
	Comment   string // body lines rejoined with "\n"; may be empty
	Score     string // literal 1-2 digit score; may be empty
}

// Identity is the deduplication key for a comment. Score is deliberately
// excluded: a re-scrape of the same comment carrying a different score is
// still the same comment.
type Identity struct {
	Store     string
	Timestamp string
	Comment   string
}

// Identity returns the deduplication key for the comment.
func (c Comment) Identity() Identity {
	return Identity{Store: c.Store, Timestamp: c.Timestamp, Comment: c.Comment}
}
