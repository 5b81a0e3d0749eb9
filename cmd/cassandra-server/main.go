package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	internalhttp "github.com/cassandra-vlf/cassandra/internal/api/http"
	"github.com/cassandra-vlf/cassandra/internal/catalog"
	"github.com/cassandra-vlf/cassandra/internal/db"
	"github.com/cassandra-vlf/cassandra/internal/discovery"
	"github.com/cassandra-vlf/cassandra/internal/frames"
	"github.com/cassandra-vlf/cassandra/internal/remote"
	"github.com/cassandra-vlf/cassandra/internal/search"
	"github.com/cassandra-vlf/cassandra/internal/station"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var AppVersion string

func main() {
	InitConfig()

	slog.Info("Cassandra server", "version", AppVersion)

	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	registry, err := station.LoadRegistry(config.Stations.File)
	if err != nil {
		return err
	}

	dialer, err := remote.NewSSHDialer(config.Remote)
	if err != nil {
		return err
	}
	pool := remote.NewPool(dialer, config.Remote.ProbeTimeout)
	defer pool.Close()

	var reader search.CatalogReader
	if config.Catalog.Enabled() {
		if err := db.RunMigrations(ctx, config.Catalog); err != nil {
			return fmt.Errorf("catalog migrations: %w", err)
		}
		dbPool, err := db.InitDB(ctx, config.Catalog)
		if err != nil {
			return err
		}
		defer dbPool.Close()
		reader = catalog.NewStore(dbPool)
	}

	strategy, err := search.New(config.Search, pool, reader)
	if err != nil {
		return err
	}
	slog.Info("Search strategy selected", "strategy", strategy.Name())

	service, err := discovery.NewService(
		registry,
		strategy,
		frames.NewNormalizer(config.Files.BaseURL),
		pool,
		config.Cache,
		discovery.WithDefaultStation(config.Stations.Default),
	)
	if err != nil {
		return err
	}

	origins := config.Http.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET"},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))
	engine.Use(gin.Recovery())
	internalhttp.SetupRoute(engine, &internalhttp.Services{
		Discovery:   service,
		AdminAPIKey: config.Http.AdminAPIKey,
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.Http.Port),
		Handler: engine,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server",
			"address", httpServer.Addr,
			"stations", len(registry.Names()),
			"default_station", service.DefaultStation())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig)
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete", "sessions_closed", pool.Clear())
	return nil
}
