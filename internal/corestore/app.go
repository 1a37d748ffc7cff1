package corestore

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/safedrop/internal/corestore/blob"
	"github.com/dmitrijs2005/safedrop/internal/corestore/config"
	"github.com/dmitrijs2005/safedrop/internal/logging"
)

type App struct {
	config *config.Config
	logger logging.Logger
	vault  *Vault
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	blobs, err := blob.Open(ctx, c.BlobOptions())
	if err != nil {
		return nil, err
	}

	return &App{config: c, logger: logger, vault: NewVault(blobs, logger)}, nil
}

// Run serves until SIGINT/SIGTERM or ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		RunJanitor(ctx, app.vault, app.config.JanitorInterval, app.logger)
	}()

	s := NewServer(app.config.ListenAddr, app.vault, app.config.IdleTimeout, app.config.MaxObjectSize(), app.logger)
	err := s.Run(ctx)

	stop()
	wg.Wait()
	return err
}
