package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/whisperclip/whisperclip/internal/session"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "history.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	return store
}

func TestOpenCreatesParentDir(t *testing.T) {
	store := openTestStore(t)

	entries, err := store.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestRecordAndRecentOrdering(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, text := range []string{"first", "second", "third"} {
		require.NoError(t, store.Record(ctx, session.DictationRecord{
			Model:   "base",
			Text:    text,
			Seconds: 1.25,
		}))
	}

	entries, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "third", entries[0].Text)
	require.Equal(t, "first", entries[2].Text)
	require.Equal(t, "base", entries[0].Model)
	require.InDelta(t, 1.25, entries[0].Seconds, 0.001)
	require.WithinDuration(t, time.Now(), entries[0].RecordedAt, 5*time.Second)
}

func TestRecentHonorsLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, session.DictationRecord{Model: "base", Text: "row"}))
	}

	entries, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Zero limit falls back to the default window.
	entries, err = store.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 5)
}

func TestCorrectedFlagRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, session.DictationRecord{Model: "small", Text: "raw"}))
	require.NoError(t, store.Record(ctx, session.DictationRecord{Model: "small", Text: "fixed", Corrected: true}))

	entries, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.True(t, entries[0].Corrected)
	require.False(t, entries[1].Corrected)
}

func TestReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.sqlite")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(context.Background(), session.DictationRecord{Model: "base", Text: "persisted"}))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "persisted", entries[0].Text)
}
