package services

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/safedrop/internal/dbx"
	"github.com/dmitrijs2005/safedrop/internal/logging"
	"github.com/dmitrijs2005/safedrop/internal/server/config"
	"github.com/dmitrijs2005/safedrop/internal/server/models"
	"github.com/dmitrijs2005/safedrop/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/safedrop/internal/server/storeclient"
	"github.com/stretchr/testify/require"
)

// newLedger opens a migrated SQLite database in a temp dir.
func newLedger(t *testing.T) (*sql.DB, *repomanager.SQLRepositoryManager) {
	t.Helper()
	ctx := context.Background()

	db, err := repomanager.Open(ctx, dbx.DialectSQLite, filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m := repomanager.NewRepositoryManager(dbx.DialectSQLite)
	require.NoError(t, m.RunMigrations(ctx, db))
	return db, m
}

type storedObject struct {
	ext       string
	data      []byte
	remaining uint32
}

// fakeStore is an in-memory CoreStore that enforces max downloads.
type fakeStore struct {
	mu       sync.Mutex
	objects  map[string]*storedObject
	next     int
	deposits int
	redeems  int

	depositErr error
	redeemErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]*storedObject{}}
}

func (f *fakeStore) Deposit(_ context.Context, ext string, body io.Reader, policy models.RetentionPolicy) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deposits++
	if f.depositErr != nil {
		return "", "", f.depositErr
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", "", err
	}

	f.next++
	id := fmt.Sprintf("ID%06d", f.next)
	f.objects[id] = &storedObject{ext: ext, data: data, remaining: policy.MaxDownloads}
	return id, "key-" + id, nil
}

func (f *fakeStore) Redeem(_ context.Context, fileID, fileKey string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.redeems++
	if f.redeemErr != nil {
		return nil, f.redeemErr
	}

	obj, ok := f.objects[fileID]
	if !ok || fileKey != "key-"+fileID || obj.remaining == 0 {
		return nil, storeclient.ErrBurned
	}
	obj.remaining--
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (f *fakeStore) counts() (deposits, redeems int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deposits, f.redeems
}

func testConfig() *config.Config {
	return &config.Config{SecretKey: "test-secret", AccessTokenValidityDuration: time.Hour}
}

func newExchange(t *testing.T, store CoreStore) (*ExchangeService, *repomanager.SQLRepositoryManager, *sql.DB) {
	t.Helper()
	db, m := newLedger(t)
	return NewExchangeService(db, m, store, logging.Nop{}), m, db
}
