package boltdb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkade/ytgrab/internal/history"
)

func newTestDatabase(t *testing.T) Database {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestWriteListDelete(t *testing.T) {
	assert := assert.New(t)
	db := newTestDatabase(t)

	records, err := db.ListDownloads()
	assert.NoError(err)
	assert.Empty(records)

	older := history.Record{
		ID:      "aaa",
		URL:     "https://example.com/1",
		Mode:    "video",
		Format:  "mp4",
		AddedAt: time.Now().Add(-time.Hour),
		Status:  history.StatusComplete,
	}
	newer := history.Record{
		ID:      "bbb",
		URL:     "https://example.com/2",
		Mode:    "playlist",
		Format:  "mp3",
		AddedAt: time.Now(),
		Status:  history.StatusError,
		Error:   "boom",
	}
	assert.NoError(db.WriteDownload(&older))
	assert.NoError(db.WriteDownload(&newer))

	records, err = db.ListDownloads()
	assert.NoError(err)
	require.Len(t, records, 2)
	assert.Equal("bbb", records[0].ID, "newest first")
	assert.Equal("aaa", records[1].ID)
	assert.Equal(history.StatusError, records[0].Status)

	// Rewrites update in place rather than duplicating.
	older.Status = history.StatusError
	assert.NoError(db.WriteDownload(&older))
	records, err = db.ListDownloads()
	assert.NoError(err)
	assert.Len(records, 2)

	assert.NoError(db.DeleteDownload(&older))
	records, err = db.ListDownloads()
	assert.NoError(err)
	require.Len(t, records, 1)
	assert.Equal("bbb", records[0].ID)
}

func TestReopenKeepsRecords(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(t.TempDir(), "history.db")

	db, err := New(path)
	require.NoError(t, err)
	assert.NoError(db.WriteDownload(&history.Record{ID: "persist", AddedAt: time.Now()}))
	assert.NoError(db.Close())

	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()
	records, err := db.ListDownloads()
	assert.NoError(err)
	require.Len(t, records, 1)
	assert.Equal("persist", records[0].ID)
}
