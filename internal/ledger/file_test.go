package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/nps-watcher/internal/types"
)

func ledgerPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "comments_log.csv")
}

func TestFileLedger_MissingFileReadsAsEmpty(t *testing.T) {
	l := NewFileLedger(ledgerPath(t))

	seen, err := l.LoadSeen(context.Background())
	require.NoError(t, err)
	assert.Empty(t, seen)
}

func TestFileLedger_AppendThenLoadSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := ledgerPath(t)

	r1 := types.Comment{Store: "5 Downtown Store", Timestamp: "2024-01-01 10:00", Comment: "Great service", Score: "9"}
	r2 := types.Comment{Store: "12 Airport Kiosk", Timestamp: "2024-01-02 11:30", Comment: "Line was long\nbut staff were kind", Score: "6"}

	require.NoError(t, NewFileLedger(path).Append(ctx, []types.Comment{r1, r2}))

	// Fresh ledger on the same path simulates a process restart.
	seen, err := NewFileLedger(path).LoadSeen(ctx)
	require.NoError(t, err)

	assert.Len(t, seen, 2)
	assert.Contains(t, seen, r1.Identity())
	assert.Contains(t, seen, r2.Identity())
}

func TestFileLedger_AppendPreservesPriorContent(t *testing.T) {
	ctx := context.Background()
	path := ledgerPath(t)
	l := NewFileLedger(path)

	first := types.Comment{Store: "5 Downtown Store", Timestamp: "a", Comment: "one", Score: "3"}
	second := types.Comment{Store: "5 Downtown Store", Timestamp: "b", Comment: "two", Score: "7"}

	require.NoError(t, l.Append(ctx, []types.Comment{first}))
	require.NoError(t, l.Append(ctx, []types.Comment{second}))

	seen, err := l.LoadSeen(ctx)
	require.NoError(t, err)
	assert.Contains(t, seen, first.Identity())
	assert.Contains(t, seen, second.Identity())
}

func TestFileLedger_IdentityIgnoresScore(t *testing.T) {
	ctx := context.Background()
	l := NewFileLedger(ledgerPath(t))

	committed := types.Comment{Store: "5 Downtown Store", Timestamp: "2024-01-01 10:00", Comment: "Great service", Score: "9"}
	require.NoError(t, l.Append(ctx, []types.Comment{committed}))

	seen, err := l.LoadSeen(ctx)
	require.NoError(t, err)

	// Same identity with a different score still counts as seen.
	rescored := committed
	rescored.Score = "2"
	assert.Contains(t, seen, rescored.Identity())
}

func TestFileLedger_EmptyScoreRoundTrips(t *testing.T) {
	ctx := context.Background()
	l := NewFileLedger(ledgerPath(t))

	c := types.Comment{Store: "5 Downtown Store", Timestamp: "2024-01-01 10:00", Comment: "", Score: ""}
	require.NoError(t, l.Append(ctx, []types.Comment{c}))

	seen, err := l.LoadSeen(ctx)
	require.NoError(t, err)
	assert.Contains(t, seen, c.Identity())
}

func TestFileLedger_CorruptFileFailsLoud(t *testing.T) {
	path := ledgerPath(t)
	require.NoError(t, os.WriteFile(path, []byte("only,three,fields\n"), 0o644))

	_, err := NewFileLedger(path).LoadSeen(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt")
}
