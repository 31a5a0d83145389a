// Package parsing recovers structured NPS comments from the raw text lines
// scraped off the dashboard page.
package parsing

import (
	"regexp"
	"strings"

	"github.com/jonathan/nps-watcher/internal/types"
)

var (
	// storePattern matches a store header line: a numeric store code,
	// whitespace, then the store name.
	storePattern = regexp.MustCompile(`^\d+\s+.*`)
	// scorePattern matches a bare 1-2 digit score line and nothing else.
	scorePattern = regexp.MustCompile(`^[0-9]{1,2}$`)
)

// Parse scans the raw line sequence and returns the comments found, in page
// order. The layout is positional: a store header line, then one timestamp
// line, then body lines until a bare score line (or the end of input). The
// timestamp line is consumed without inspection, so a header directly
// followed by another header absorbs it as the timestamp; the scan never
// looks ahead to disambiguate. Lines outside a record that do not look like
// a header are skipped one at a time.
//
// Parse holds no state across calls.
func Parse(lines []string) []types.Comment {
	comments := make([]types.Comment, 0)
	idx, n := 0, len(lines)
	for idx < n {
		line := strings.TrimSpace(lines[idx])
		if !storePattern.MatchString(line) {
			idx++
			continue
		}

		store := line
		idx++

		timestamp := ""
		if idx < n {
			timestamp = strings.TrimSpace(lines[idx])
		}
		idx++

		var body []string
		score := ""
		for idx < n && !scorePattern.MatchString(strings.TrimSpace(lines[idx])) {
			body = append(body, strings.TrimSpace(lines[idx]))
			idx++
		}
		if idx < n {
			score = strings.TrimSpace(lines[idx])
			idx++
		}

		comments = append(comments, types.Comment{
			Store:     store,
			Timestamp: timestamp,
			Comment:   strings.TrimSpace(strings.Join(body, "\n")),
			Score:     score,
		})
	}
	return comments
}
