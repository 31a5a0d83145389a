// Package ledger persists every comment that has already been relayed, so an
// identity is never notified twice, even across process restarts.
package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/jonathan/nps-watcher/internal/types"
)

// FileLedger is the default backend: an append-only CSV file with the fixed
// field order store, timestamp, comment, score. Prior content is never
// rewritten or truncated.
type FileLedger struct {
	path string

	// mu guards the read-then-append sequence against overlapping scheduled
	// invocations sharing one process.
	mu sync.Mutex
}

// NewFileLedger returns a ledger backed by the CSV file at path. The file is
// created on first Append.
func NewFileLedger(path string) *FileLedger {
	return &FileLedger{path: path}
}

// LoadSeen reads the identities of every previously committed comment. A
// ledger file that does not exist yet reads as an empty set. A file that
// cannot be parsed is an error: proceeding on a partial set risks duplicate
// notifications.
func (l *FileLedger) LoadSeen(_ context.Context) (map[types.Identity]struct{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	seen := make(map[types.Identity]struct{})

	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return seen, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", l.path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 4
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ledger %s is corrupt: %w", l.path, err)
		}
		seen[types.Identity{Store: record[0], Timestamp: record[1], Comment: record[2]}] = struct{}{}
	}
	return seen, nil
}

// Append durably records the given comments, in order, including their
// literal score. Callers pass only comments whose identity is not yet
// present; Append does not deduplicate.
func (l *FileLedger) Append(_ context.Context, comments []types.Comment) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger %s for append: %w", l.path, err)
	}

	w := csv.NewWriter(f)
	for _, c := range comments {
		if err := w.Write([]string{c.Store, c.Timestamp, c.Comment, c.Score}); err != nil {
			_ = f.Close()
			return fmt.Errorf("write ledger record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush ledger %s: %w", l.path, err)
	}

	// A commit must be durable before the next cycle can read it back.
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync ledger %s: %w", l.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close ledger %s: %w", l.path, err)
	}
	return nil
}

// Close implements the ledger contract; a FileLedger holds no open handles
// between calls.
func (l *FileLedger) Close() {}
