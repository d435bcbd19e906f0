package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timestudy/adapters/postgres"
	"timestudy/internal"
	"timestudy/internal/config"
	"timestudy/internal/container"
	"timestudy/internal/errors"
	"timestudy/internal/migration"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const sweepInterval = 15 * time.Minute

// initDatabase connects to the configured database and applies the schema
func initDatabase(ctx context.Context, appConfig *config.Config) (*sqlx.DB, error) {
	db, err := postgres.Open(appConfig.Database.Driver, appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	migrator := migration.NewRunner()
	if appConfig.Database.Reset {
		if err := migrator.Reset(ctx, db); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "database reset failed")
		}
	}
	if err := migrator.Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}
	return db, nil
}

// opsRouter serves health checks and the profiler on a separate listener
func opsRouter(db *sqlx.DB) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ready"))
	})
	r.Mount("/debug", middleware.Profiler())
	return r
}

// serve runs srv until ctx is cancelled, then shuts it down within timeout
func serve(ctx context.Context, srv *http.Server, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)
	logger := internal.DefaultLogger.Named("Main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := initDatabase(ctx, appConfig)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	if err := appContainer.InitWithDatabase(db); err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	api := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           appContainer.Server().Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		logger.Info("Starting time study API on port %s", appConfig.Server.Port)
		return serve(ctx, api, appConfig.Server.ShutdownTimeout)
	})

	if appConfig.Ops.Enabled {
		ops := &http.Server{
			Addr:              ":" + appConfig.Ops.Port,
			Handler:           opsRouter(db),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("Ops listener (health, profiler) on port %s", appConfig.Ops.Port)
			return serve(ctx, ops, appConfig.Server.ShutdownTimeout)
		})
	}

	g.Go(func() error {
		return appContainer.Sweeper.Run(ctx, sweepInterval)
	})

	err = g.Wait()
	if shutdownErr := appContainer.Shutdown(context.Background()); shutdownErr != nil {
		logger.Warn("failed to close database: %v", shutdownErr)
	}
	if err != nil {
		logger.Error("server stopped: %v", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
