package syncstate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/eknihy-sync/internal/entities"
)

func TestFileStore_LoadMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "state.json"))

	state, err := store.Load(context.Background())

	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestFileStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "mlp_sync_state.json"))
	ctx := context.Background()

	in := &entities.SyncState{
		LastSyncDate: "2026-10-16",
		LastRun:      "2026-10-16 03:00:05",
		LastNewCount: 12,
		TotalRuns:    40,
	}
	require.NoError(t, store.Save(ctx, in))

	out, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-16", out.LastSyncDate)
	assert.Equal(t, "2026-10-16 03:00:05", out.LastRun)
	assert.Equal(t, 12, out.LastNewCount)
	assert.Equal(t, 40, out.TotalRuns)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp file left behind")
	assert.Equal(t, "mlp_sync_state.json", entries[0].Name())
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &entities.SyncState{LastSyncDate: "2026-10-01", TotalRuns: 1}))
	require.NoError(t, store.Save(ctx, &entities.SyncState{LastSyncDate: "2026-10-02", TotalRuns: 2}))

	out, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-02", out.LastSyncDate)
	assert.Equal(t, 2, out.TotalRuns)
}

func TestFileStore_ReadsOriginalLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	content := `{
  "last_sync_date": "2026-03-01",
  "last_run": "2026-03-01 03:00:01",
  "last_new_count": 3,
  "total_runs": 7
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	out, err := NewFileStore(path).Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", out.LastSyncDate)
	assert.Equal(t, 7, out.TotalRuns)
	assert.Equal(t, entities.DefaultFeedKey, out.FeedKey)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(path).Load(context.Background())

	assert.Error(t, err)
}

func TestFileStore_WritesKnownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, NewFileStore(path).Save(context.Background(), &entities.SyncState{ID: 5, FeedKey: "x", LastSyncDate: "2026-10-16"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"last_sync_date": "2026-10-16"`)
	assert.NotContains(t, string(data), "FeedKey")
	assert.NotContains(t, string(data), "updated")
}
