// Package server initializes and runs the user directory: it opens the
// database, applies migrations, wires the API key validator and user
// service, and serves HTTP and gRPC health until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/userdirectory/internal/cryptox"
	"github.com/dmitrijs2005/userdirectory/internal/logging"
	"github.com/dmitrijs2005/userdirectory/internal/server/apikeys"
	"github.com/dmitrijs2005/userdirectory/internal/server/config"
	"github.com/dmitrijs2005/userdirectory/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/userdirectory/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	gs "github.com/dmitrijs2005/userdirectory/internal/server/grpc"
	hs "github.com/dmitrijs2005/userdirectory/internal/server/http"
)

const (
	metricsNamespace = "userdirectory"
	migrationTimeout = 30 * time.Second
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	registry    *prometheus.Registry
	validator   *apikeys.Validator
	userService *services.UserService
	httpMetrics *hs.Metrics
}

// NewApp opens the database, migrates it and wires the application.
func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()

	ctx, cancel := context.WithTimeout(context.Background(), migrationTimeout)
	defer cancel()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	app, err := newApp(c, logger, db, rm)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) (*App, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	cache, err := apikeys.NewCache(c.APIKeyCacheSize)
	if err != nil {
		return nil, err
	}

	keyMetrics := apikeys.NewMetrics(metricsNamespace, registry)
	keyMetrics.Init()

	validator := apikeys.NewValidator(rm.Clients(db), cache,
		apikeys.WithLogger(logger),
		apikeys.WithMetrics(keyMetrics),
	)

	us := services.NewUserService(db, rm, cryptox.NewPasswordHasher(), logger)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		registry:    registry,
		validator:   validator,
		userService: us,
		httpMetrics: hs.NewMetrics(metricsNamespace, registry),
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

func (app *App) routerConfig() hs.RouterConfig {
	return hs.RouterConfig{
		Validator: app.validator,
		Users:     app.userService,
		Pinger:    app.db,
		Gatherer:  app.registry,
		Metrics:   app.httpMetrics,
		Logger:    app.logger,
	}
}

// registerGRPCServices adds the key-gated gRPC services. Reflection lets
// clients holding an API key discover the API.
func registerGRPCServices(s *grpc.Server) {
	reflection.Register(s)
}

// Run serves HTTP and gRPC until ctx is cancelled, a signal arrives or
// either server fails. The database is closed on return.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	httpServer := hs.NewHTTPServer(app.config.EndpointAddrHTTP, hs.NewRouter(app.routerConfig()), app.logger, app.config.ShutdownTimeout)
	grpcServer := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.db, app.validator, app.config.HealthCheckInterval,
		gs.WithServices(registerGRPCServices))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpServer.Run(gctx)
	})
	g.Go(func() error {
		return grpcServer.Run(gctx)
	})

	err := g.Wait()
	if err != nil {
		app.logger.Error(ctx, "server stopped", "error", err)
	}

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "closing database", "error", cerr)
	}

	app.logger.Info(ctx, "App stopped")
	return err
}
