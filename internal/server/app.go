// Package server wires the SafeDrop gateway: ledger database, Core Store
// client, identity gate, services, the gRPC endpoint and the ops HTTP port.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/safedrop/internal/dbx"
	"github.com/dmitrijs2005/safedrop/internal/logging"
	"github.com/dmitrijs2005/safedrop/internal/server/auth"
	"github.com/dmitrijs2005/safedrop/internal/server/config"
	"github.com/dmitrijs2005/safedrop/internal/server/metrics"
	"github.com/dmitrijs2005/safedrop/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/safedrop/internal/server/services"
	"github.com/dmitrijs2005/safedrop/internal/server/storeclient"

	gs "github.com/dmitrijs2005/safedrop/internal/server/grpc"
)

type App struct {
	config          *config.Config
	logger          logging.Logger
	db              *sql.DB
	gate            *auth.Gate
	userService     *services.UserService
	exchangeService *services.ExchangeService
}

// NewApp opens the ledger, applies migrations and builds the services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	dialect, err := dbx.ParseDialect(c.DatabaseDialect)
	if err != nil {
		return nil, err
	}

	db, err := repomanager.Open(ctx, dialect, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewRepositoryManager(dialect)
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	store := storeclient.New(storeclient.Config{
		Address:        c.StoreAddr,
		ConnectTimeout: c.StoreConnectTimeout,
		IdleTimeout:    c.StoreIdleTimeout,
	}, logger)

	return &App{
		config:          c,
		logger:          logger,
		db:              db,
		gate:            auth.NewGate([]byte(c.SecretKey), rm.Users(db)),
		userService:     services.NewUserService(db, rm, c),
		exchangeService: services.NewExchangeService(db, rm, store, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.userService, app.exchangeService, app.gate,
		gs.RateLimit{Rate: app.config.AuthRateLimit, Burst: app.config.AuthRateBurst})

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startOpsServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if app.config.OpsAddr == "" {
		return
	}

	s := metrics.NewServer(app.config.OpsAddr, app.logger, app.db)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a signal arrives or ctx is cancelled.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startOpsServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
