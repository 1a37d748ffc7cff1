// Package corestore is a development Core Store: an ephemeral object store
// that seals each upload with its own key, hands out a capability token
// pair and destroys the object after its download budget or lifetime is
// spent.
package corestore

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/safedrop/internal/common"
	"github.com/dmitrijs2005/safedrop/internal/corestore/blob"
	"github.com/dmitrijs2005/safedrop/internal/cryptox"
	"github.com/dmitrijs2005/safedrop/internal/logging"
	"github.com/dmitrijs2005/safedrop/internal/wire"
)

const (
	idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	DefaultMaxDownloads  = 1
	DefaultExpirySeconds = 86400

	maxIDAttempts = 16
)

// ErrGone covers every reason an object cannot be redeemed: unknown id,
// wrong key, exhausted budget or expiry. Callers cannot tell them apart.
var ErrGone = errors.New("object gone")

type entry struct {
	remaining uint32
	expires   time.Time
}

// Vault tracks object metadata in memory and keeps sealed bytes in a blob
// store. Metadata does not survive a restart; orphaned blobs are
// unreachable.
type Vault struct {
	mu      sync.Mutex
	entries map[string]*entry
	blobs   blob.Store
	logger  logging.Logger
	now     func() time.Time
}

func NewVault(blobs blob.Store, l logging.Logger) *Vault {
	return &Vault{
		entries: make(map[string]*entry),
		blobs:   blobs,
		logger:  l.With("module", "vault"),
		now:     time.Now,
	}
}

// Deposit seals plaintext and stores it under a fresh id. Zero policy
// fields fall back to one download and one day.
func (v *Vault) Deposit(ctx context.Context, plaintext []byte, h wire.UploadHeader) (fileID, fileKey string, err error) {
	if h.MaxDownloads == 0 {
		h.MaxDownloads = DefaultMaxDownloads
	}
	if h.ExpirySeconds == 0 {
		h.ExpirySeconds = DefaultExpirySeconds
	}

	sealed, key, err := cryptox.SealBlob(plaintext)
	if err != nil {
		return "", "", fmt.Errorf("seal: %w", err)
	}
	defer common.WipeByteArray(key)

	id, err := v.reserveID()
	if err != nil {
		return "", "", err
	}

	if err := v.blobs.Put(ctx, id, sealed); err != nil {
		v.release(id)
		return "", "", fmt.Errorf("store blob: %w", err)
	}

	v.mu.Lock()
	v.entries[id] = &entry{
		remaining: h.MaxDownloads,
		expires:   v.now().Add(time.Duration(h.ExpirySeconds) * time.Second),
	}
	v.mu.Unlock()

	objectsStored.Inc()
	v.logger.Info(ctx, "object stored", "file_id", id, "max_downloads", h.MaxDownloads, "expiry_seconds", h.ExpirySeconds)

	return id, hex.EncodeToString(key), nil
}

// reserveID picks an unused id and blocks it with a placeholder entry that
// cannot be redeemed until the blob is written.
func (v *Vault) reserveID() (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i := 0; i < maxIDAttempts; i++ {
		id, err := common.MakeRandString(wire.FileIDSize, idAlphabet)
		if err != nil {
			return "", err
		}
		if _, taken := v.entries[id]; !taken {
			v.entries[id] = &entry{}
			return id, nil
		}
	}
	return "", errors.New("could not allocate file id")
}

func (v *Vault) release(id string) {
	v.mu.Lock()
	delete(v.entries, id)
	v.mu.Unlock()
}

// Redeem returns the plaintext of the object and spends one download. A
// failed decryption does not spend anything. Concurrent redemptions never
// hand out more downloads than the budget allows.
func (v *Vault) Redeem(ctx context.Context, fileID, fileKey string) ([]byte, error) {
	key, err := hex.DecodeString(fileKey)
	if err != nil || len(key) != cryptox.KeySize {
		return nil, ErrGone
	}
	defer common.WipeByteArray(key)

	if !v.live(ctx, fileID) {
		return nil, ErrGone
	}

	sealed, err := v.blobs.Get(ctx, fileID)
	if err != nil {
		if !errors.Is(err, blob.ErrNotFound) {
			v.logger.Error(ctx, "blob read failed", "file_id", fileID, "error", err)
		}
		return nil, ErrGone
	}

	plaintext, err := cryptox.OpenBlob(sealed, key)
	if err != nil {
		return nil, ErrGone
	}

	last, ok := v.claim(fileID)
	if !ok {
		return nil, ErrGone
	}
	if last {
		v.destroy(ctx, fileID, "exhausted")
	}

	redemptionsTotal.Inc()
	return plaintext, nil
}

// live reports whether the object exists and has not expired. Expired
// objects are destroyed on the spot.
func (v *Vault) live(ctx context.Context, id string) bool {
	v.mu.Lock()
	e, ok := v.entries[id]
	alive := ok && e.remaining > 0
	expired := alive && !v.now().Before(e.expires)
	if expired {
		delete(v.entries, id)
	}
	v.mu.Unlock()

	if expired {
		v.deleteBlob(ctx, id, "expired")
		return false
	}
	return alive
}

// claim spends one download. last is true when the budget is now empty and
// the entry was removed.
func (v *Vault) claim(id string) (last, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	e, found := v.entries[id]
	if !found || e.remaining == 0 || !v.now().Before(e.expires) {
		return false, false
	}

	e.remaining--
	if e.remaining == 0 {
		delete(v.entries, id)
		return true, true
	}
	return false, true
}

func (v *Vault) destroy(ctx context.Context, id, reason string) {
	v.mu.Lock()
	delete(v.entries, id)
	v.mu.Unlock()
	v.deleteBlob(ctx, id, reason)
}

func (v *Vault) deleteBlob(ctx context.Context, id, reason string) {
	if err := v.blobs.Delete(ctx, id); err != nil {
		v.logger.Error(ctx, "blob delete failed", "file_id", id, "error", err)
	}
	objectsBurned.WithLabelValues(reason).Inc()
	v.logger.Info(ctx, "object burned", "file_id", id, "reason", reason)
}

// Purge destroys every expired object and returns how many were removed.
func (v *Vault) Purge(ctx context.Context) int {
	now := v.now()

	v.mu.Lock()
	var expired []string
	for id, e := range v.entries {
		if e.remaining > 0 && !now.Before(e.expires) {
			expired = append(expired, id)
			delete(v.entries, id)
		}
	}
	v.mu.Unlock()

	for _, id := range expired {
		v.deleteBlob(ctx, id, "expired")
	}
	return len(expired)
}

// Len returns the number of redeemable objects.
func (v *Vault) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	n := 0
	for _, e := range v.entries {
		if e.remaining > 0 {
			n++
		}
	}
	return n
}
