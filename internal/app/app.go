package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotel-pms/internal/config"
	"hotel-pms/internal/database"
	"hotel-pms/internal/demo"
	"hotel-pms/internal/event"
	"hotel-pms/internal/handler"
	"hotel-pms/internal/middleware"
	"hotel-pms/internal/model"
	"hotel-pms/internal/persist"
	"hotel-pms/internal/repository"
	"hotel-pms/internal/router"
	"hotel-pms/internal/service"
	"hotel-pms/internal/store"
	"hotel-pms/internal/websocket"
)

type App struct {
	server       *http.Server
	services     *Services
	cancel       context.CancelFunc
	cleanupFuncs []func()
}

// Services is every business module wired to its store.
type Services struct {
	Auth          *service.AuthService
	RecycleBin    *service.RecycleBinService
	CapTable      *service.CapTableService
	Securities    *service.SecuritiesService
	Transactions  *service.TransactionService
	Leads         *service.LeadService
	Guests        *service.GuestService
	GuestServices *service.GuestServicesService

	modules []module
}

func New(cfg *config.Config) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{cancel: cancel}

	adapter, db, err := openAdapter(ctx, cfg)
	if err != nil {
		cancel()
		return nil, err
	}
	if db != nil {
		app.cleanupFuncs = append(app.cleanupFuncs, db.Close)
	}

	bus := event.NewBus()
	services := NewServices(cfg, adapter, bus)
	app.services = services

	if err := services.Load(ctx, cfg, demoLoader(cfg)); err != nil {
		app.cleanup()
		cancel()
		return nil, err
	}

	hub := websocket.NewHub(bus)
	go hub.Run(ctx)

	var pinger handler.Pinger
	if db != nil {
		pinger = db
	}

	appRouter := services.Router(cfg, pinger, websocket.NewHandler(ctx, hub, cfg.CORSOrigins))

	if cfg.RetentionSweepInterval > 0 {
		go services.RunSweeper(ctx, cfg.RetentionSweepInterval)
	}

	app.server = &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return app, nil
}

// Router builds the HTTP surface over the services. pinger may be nil for
// the in-process backends.
func (s *Services) Router(cfg *config.Config, pinger handler.Pinger, live http.Handler) http.Handler {
	authMiddleware := middleware.NewAuthMiddleware(s.Auth)
	return router.New(cfg, authMiddleware, router.Handlers{
		Health:        handler.NewHealthHandler(pinger, cfg.PersistenceBackend),
		Auth:          handler.NewAuthHandler(s.Auth),
		User:          handler.NewUserHandler(s.Auth),
		RecycleBin:    handler.NewRecycleBinHandler(s.RecycleBin),
		CapTable:      handler.NewCapTableHandler(s.CapTable),
		Securities:    handler.NewSecuritiesHandler(s.Securities),
		Transactions:  handler.NewTransactionHandler(s.Transactions),
		Leads:         handler.NewLeadHandler(s.Leads),
		Guests:        handler.NewGuestHandler(s.Guests),
		GuestServices: handler.NewGuestServicesHandler(s.GuestServices),
		Live:          live,
	})
}

func openAdapter(ctx context.Context, cfg *config.Config) (persist.Adapter, *database.DB, error) {
	switch cfg.PersistenceBackend {
	case config.BackendPostgres:
		slog.Info("connecting to PostgreSQL")
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to ensure database schema: %w", err)
		}
		slog.Info("database ready")
		return repository.NewSnapshotRepository(db.Pool), db, nil
	case config.BackendFile:
		adapter, err := persist.NewFile(cfg.StateDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize state dir: %w", err)
		}
		slog.Info("using file persistence", "dir", cfg.StateDir)
		return adapter, nil, nil
	default:
		slog.Info("using in-memory persistence")
		return persist.NewMemory(), nil, nil
	}
}

func demoLoader(cfg *config.Config) *demo.Loader {
	if cfg.DemoDataURL != "" {
		return demo.NewHTTP(cfg.DemoDataURL, &http.Client{Timeout: 10 * time.Second})
	}
	return demo.NewEmbedded()
}

func NewServices(cfg *config.Config, adapter persist.Adapter, bus event.Bus) *Services {
	users := store.New(service.UsersStoreKey, adapter, service.DefaultUsersState())
	recycleBin := store.New(service.RecycleBinStoreKey, adapter, service.DefaultRecycleBinState(cfg.RetentionDays))
	capTable := store.New(service.CapTableStoreKey, adapter, service.DefaultCapTableState())
	securities := store.New(service.SecuritiesStoreKey, adapter, service.DefaultSecuritiesState())
	transactions := store.New(service.TransactionsStoreKey, adapter, service.DefaultTransactionsState())
	leads := store.New(service.LeadsStoreKey, adapter, service.DefaultLeadsState())
	guests := store.New(service.GuestsStoreKey, adapter, service.DefaultGuestsState())
	guestServices := store.New(service.GuestServicesStoreKey, adapter, service.DefaultGuestServicesState())

	s := &Services{
		Auth:          service.NewAuthService(users, bus, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, cfg.BcryptCost),
		RecycleBin:    service.NewRecycleBinService(recycleBin, bus),
		CapTable:      service.NewCapTableService(capTable, bus),
		Securities:    service.NewSecuritiesService(securities, bus),
		Transactions:  service.NewTransactionService(transactions, bus),
		Leads:         service.NewLeadService(leads, bus),
		Guests:        service.NewGuestService(guests, bus),
		GuestServices: service.NewGuestServicesService(guestServices, bus),
	}

	s.modules = []module{
		{store: users, seed: s.Auth.Seed, always: true},
		{store: recycleBin, seed: counted(s.RecycleBin.Seed)},
		{store: capTable, seed: counted(s.CapTable.Seed)},
		{store: securities, seed: counted(s.Securities.Seed)},
		{store: transactions, seed: counted(s.Transactions.Seed)},
		{store: leads, seed: counted(s.Leads.Seed)},
		{store: guests, seed: counted(s.Guests.Seed)},
		{store: guestServices, seed: counted(s.GuestServices.Seed)},
	}
	return s
}

// hydrater is the part of store.Store the startup sequence needs.
type hydrater interface {
	Key() string
	Hydrate(ctx context.Context) (bool, error)
}

type seedFunc func(ctx context.Context, loader *demo.Loader) (int, error)

type module struct {
	store hydrater
	seed  seedFunc
	// always seeds an empty store even when demo seeding is off.
	always bool
}

func counted(seed func(context.Context, *demo.Loader) int) seedFunc {
	return func(ctx context.Context, loader *demo.Loader) (int, error) {
		return seed(ctx, loader), nil
	}
}

// Load restores every store from its snapshot. Stores with no snapshot are
// seeded from the demo fixtures when seeding is enabled; the users store is
// always seeded so the first login is possible.
func (s *Services) Load(ctx context.Context, cfg *config.Config, loader *demo.Loader) error {
	for _, m := range s.modules {
		found, err := m.store.Hydrate(ctx)
		if err != nil {
			return fmt.Errorf("failed to hydrate %s: %w", m.store.Key(), err)
		}
		if found {
			slog.Info("store hydrated", "store", m.store.Key())
			continue
		}
		if !cfg.SeedDemoData && !m.always {
			continue
		}

		count, err := m.seed(ctx, loader)
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", m.store.Key(), err)
		}
		slog.Info("store seeded from demo data", "store", m.store.Key(), "records", count)
	}
	return nil
}

// RunSweeper applies retention and expiry on a fixed interval until ctx ends.
func (s *Services) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Services) sweep(ctx context.Context) {
	if err := s.RecycleBin.Sweep(ctx); err != nil {
		slog.Error("retention sweep failed", "error", err)
	}
	expired, err := s.Securities.ExpireDue(ctx, time.Now().UTC())
	if err != nil {
		slog.Error("securities expiry failed", "error", err)
		return
	}
	if expired > 0 {
		slog.Info("securities expired", "count", expired, "status", model.SecurityStatusExpired)
	}
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Background workers stop first so nothing mutates during shutdown.
	a.cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cleanup()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	a.cleanup()
	slog.Info("server stopped")
	return nil
}

func (a *App) cleanup() {
	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}
}
