package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"                   // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // panic recovery
	"github.com/sirupsen/logrus"                    // structured logging
	"golang.org/x/sync/errgroup"                    // runs the servers and shutdown together

	"github.com/iliyamo/event-reservation/internal/config"     // Internal config loader
	"github.com/iliyamo/event-reservation/internal/database"   // MySQL connection and schema
	"github.com/iliyamo/event-reservation/internal/handler"    // HTTP handlers
	"github.com/iliyamo/event-reservation/internal/logging"    // logrus setup
	"github.com/iliyamo/event-reservation/internal/middleware" // request logging and response cache
	"github.com/iliyamo/event-reservation/internal/queue"      // RabbitMQ event publisher
	"github.com/iliyamo/event-reservation/internal/repository" // storage backends
	"github.com/iliyamo/event-reservation/internal/router"     // Internal router setup
	"github.com/iliyamo/event-reservation/internal/service"    // reservation core
)

const shutdownTimeout = 10 * time.Second

// store is what the services need from a storage backend.  Both
// repository.MySQLStore and repository.MemoryStore implement it.
type store interface {
	service.ReservationStore
	service.CatalogStore
	service.AdminStore
}

func main() {
	cfg := config.Load() // Load environment config
	logging.Init(cfg.LogLevel, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
	logrus.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config) error {
	st, ping, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

	var publisher service.Publisher
	if cfg.EventsOn {
		p := queue.NewPublisher(cfg.RabbitMQURL)
		defer p.Close()
		publisher = p
	}

	catalog := service.NewCatalogService(st, cfg.DisplayLoc)
	manager := service.NewReservationManager(st, publisher, cfg.OpTimeout)
	admin := service.NewAdminService(st)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())

	separateMetrics := cfg.MetricsPort != "" && cfg.MetricsPort != cfg.Port
	router.RegisterRoutes(e, ping, !separateMetrics)
	router.RegisterPublic(e, handler.NewCatalogHandler(catalog), cache)
	router.RegisterCustomer(e, handler.NewReservationHandler(manager, catalog), cfg.JWTSecret, cache)
	router.RegisterAdmin(e, handler.NewAdminHandler(admin), cfg.JWTSecret, cache)

	var metricsSrv *http.Server
	if separateMetrics {
		metricsSrv = &http.Server{
			Addr:              ":" + cfg.MetricsPort,
			Handler:           router.MetricsHandler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port // Address string with port
		logrus.WithFields(logrus.Fields{
			"addr":   addr,
			"env":    cfg.Env,
			"store":  cfg.StoreDriver,
			"cache":  cache.Enabled(),
			"events": cfg.EventsOn,
		}).Info("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if metricsSrv != nil {
		g.Go(func() error {
			logrus.WithField("addr", metricsSrv.Addr).Info("starting metrics server")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		// Shut down
		<-ctx.Done()

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := e.Shutdown(sctx)
		if metricsSrv != nil {
			err = errors.Join(err, metricsSrv.Shutdown(sctx))
		}
		if err != nil {
			logrus.WithError(err).Error("error stopping server")
		}
		return err
	})

	// Will block until all goroutines finish
	return g.Wait()
}

// openStore returns the backend chosen by STORE_DRIVER together with its
// readiness check and a close function.
func openStore(ctx context.Context, cfg config.Config) (store, func(context.Context) error, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		logrus.Warn("using the in-memory store, data is lost on restart")
		return repository.NewMemoryStore(), nil, func() {}, nil
	}

	db, err := database.Open(database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("closing database")
		}
	}
	return repository.NewMySQLStore(db), db.PingContext, closeDB, nil
}
