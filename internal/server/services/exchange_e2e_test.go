package services

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/safedrop/internal/common"
	"github.com/dmitrijs2005/safedrop/internal/corestore"
	"github.com/dmitrijs2005/safedrop/internal/corestore/blob"
	"github.com/dmitrijs2005/safedrop/internal/logging"
	"github.com/dmitrijs2005/safedrop/internal/server/models"
	"github.com/dmitrijs2005/safedrop/internal/server/storeclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startCoreStore(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	v := corestore.NewVault(blob.NewMemory(), logging.Nop{})
	s := corestore.NewServer("", v, 2*time.Second, 0, logging.Nop{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = s.Serve(ctx, ln)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ln.Addr().String()
}

func storeClient(addr string) *storeclient.Client {
	return storeclient.New(storeclient.Config{
		Address:        addr,
		ConnectTimeout: time.Second,
		IdleTimeout:    2 * time.Second,
	}, logging.Nop{})
}

func TestExchange_EndToEnd_OneShotAttachment(t *testing.T) {
	s, m, db := newExchange(t, storeClient(startCoreStore(t)))
	ctx := context.Background()

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{7}, 70000)...)
	msg, err := s.Send(ctx, alice, SendRequest{
		Receiver: bob,
		Attachment: &Attachment{
			Filename: "photo.png",
			Content:  bytes.NewReader(png),
			Policy:   models.RetentionPolicy{MaxDownloads: 1, ExpirySeconds: 3600},
		},
	})
	require.NoError(t, err)

	d, err := s.Download(ctx, bob, msg.ID)
	require.NoError(t, err)
	got, err := io.ReadAll(d.Content)
	require.NoError(t, err)
	require.NoError(t, d.Content.Close())
	assert.Equal(t, png, got)
	assert.Equal(t, "photo.png", d.Filename)

	_, err = s.Download(ctx, bob, msg.ID)
	require.ErrorIs(t, err, common.ErrorGone)

	stored, err := m.Messages(db).GetByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, common.BurnedFileID, stored.File.FileID)
}

func TestExchange_EndToEnd_StoreDown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	s, m, db := newExchange(t, storeClient(addr))
	ctx := context.Background()

	// Deposit while the store is up, then take it away.
	accepted := make(chan struct{})
	go func() {
		defer close(accepted)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = io.Copy(io.Discard, conn)
		_, _ = conn.Write([]byte("ABCDEFGH|" + string(bytes.Repeat([]byte("a"), 64))))
	}()

	msg, err := s.Send(ctx, alice, SendRequest{
		Receiver: bob,
		Attachment: &Attachment{
			Filename: "a.txt",
			Content:  bytes.NewReader([]byte("x")),
			Policy:   models.DefaultRetentionPolicy(),
		},
	})
	require.NoError(t, err)
	<-accepted
	require.NoError(t, ln.Close())

	_, err = s.Download(ctx, bob, msg.ID)
	require.ErrorIs(t, err, common.ErrorService)
	require.ErrorIs(t, err, storeclient.ErrStoreUnavailable)

	stored, err := m.Messages(db).GetByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "ABCDEFGH", stored.File.FileID, "outage must not burn")
}

func TestExchange_EndToEnd_ReplyWithoutDelimiter(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_, _ = io.Copy(io.Discard, conn)
			_, _ = conn.Write([]byte("NOPIPEHERE"))
			_ = conn.Close()
		}
	}()

	s, _, _ := newExchange(t, storeClient(ln.Addr().String()))
	ctx := context.Background()

	_, err = s.Send(ctx, alice, SendRequest{
		Receiver: bob,
		Attachment: &Attachment{
			Filename: "a.txt",
			Content:  bytes.NewReader([]byte("x")),
			Policy:   models.DefaultRetentionPolicy(),
		},
	})
	require.ErrorIs(t, err, common.ErrorService)
	require.ErrorIs(t, err, storeclient.ErrProtocolViolation)

	history, err := s.History(ctx, alice, bob)
	require.NoError(t, err)
	assert.Empty(t, history, "no row is inserted")
}
