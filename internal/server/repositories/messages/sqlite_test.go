package messages

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dmitrijs2005/safedrop/internal/common"
	"github.com/dmitrijs2005/safedrop/internal/dbx"
	"github.com/dmitrijs2005/safedrop/internal/server/migrations"
	"github.com/dmitrijs2005/safedrop/internal/server/models"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newSQLiteRepo(t *testing.T) *SQLRepository {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.Up(db, "sqlite"))

	return NewSQLRepository(db, dbx.DialectSQLite)
}

func send(t *testing.T, r *SQLRepository, from, to models.Identity, text string, file *models.FileRef) *models.Message {
	t.Helper()
	m, err := r.Create(context.Background(), &models.Message{
		Sender: from, Receiver: to, Text: text, File: file,
		VisibleToSender: true, VisibleToReceiver: true,
	})
	require.NoError(t, err)
	return m
}

func TestSQLite_HistoryOrderingAndVisibility(t *testing.T) {
	r := newSQLiteRepo(t)
	ctx := context.Background()

	m1 := send(t, r, "alice", "bob", "one", nil)
	m2 := send(t, r, "bob", "alice", "two", &models.FileRef{FileID: "ID000001", FileKey: "k", Filename: "a.png"})
	send(t, r, "alice", "carol", "elsewhere", nil)
	m4 := send(t, r, "alice", "bob", "three", nil)

	assert.Less(t, m1.ID, m2.ID)
	assert.Less(t, m2.ID, m4.ID)

	hist, err := r.History(ctx, "alice", "bob")
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, []int64{m1.ID, m2.ID, m4.ID}, []int64{hist[0].ID, hist[1].ID, hist[2].ID})
	assert.Equal(t, "a.png", hist[1].File.Filename)

	// alice hides her own message: gone for her, still there for bob.
	require.NoError(t, r.SetVisibleToSender(ctx, m1.ID, false))
	// alice hides the message she received.
	require.NoError(t, r.SetVisibleToReceiver(ctx, m2.ID, false))

	hist, err = r.History(ctx, "alice", "bob")
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, m4.ID, hist[0].ID)

	hist, err = r.History(ctx, "bob", "alice")
	require.NoError(t, err)
	require.Len(t, hist, 3)
}

func TestSQLite_MarkBurnedIsTerminalAndIdempotent(t *testing.T) {
	r := newSQLiteRepo(t)
	ctx := context.Background()

	withFile := send(t, r, "alice", "bob", "", &models.FileRef{FileID: "ID000001", FileKey: "k", Filename: "a.bin"})
	textOnly := send(t, r, "alice", "bob", "hi", nil)

	require.NoError(t, r.MarkBurned(ctx, withFile.ID))
	require.NoError(t, r.MarkBurned(ctx, withFile.ID))

	got, err := r.GetByID(ctx, withFile.ID)
	require.NoError(t, err)
	assert.True(t, got.File.Burned())
	assert.Equal(t, "a.bin", got.File.Filename)
	assert.True(t, got.VisibleToSender)
	assert.True(t, got.VisibleToReceiver)

	require.ErrorIs(t, r.MarkBurned(ctx, textOnly.ID), common.ErrorNotFound)
	got, err = r.GetByID(ctx, textOnly.ID)
	require.NoError(t, err)
	assert.Nil(t, got.File)

	require.ErrorIs(t, r.MarkBurned(ctx, 9999), common.ErrorNotFound)
}

func TestSQLite_ConcurrentCreateAssignsUniqueIDs(t *testing.T) {
	r := newSQLiteRepo(t)

	const n = 20
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := r.Create(context.Background(), &models.Message{Sender: "a", Receiver: "b", VisibleToSender: true, VisibleToReceiver: true})
			if err == nil {
				ids <- m.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestSQLite_GetByIDSentAtRoundTrip(t *testing.T) {
	r := newSQLiteRepo(t)

	m := send(t, r, "alice", "bob", "hello", nil)
	got, err := r.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.True(t, got.SentAt.Equal(m.SentAt), "want %v got %v", m.SentAt, got.SentAt)
	assert.Equal(t, 0, got.SentAt.Second())
}
