package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	internalhttp "github.com/EternisAI/sketch-provisioner/internal/api/http"
	"github.com/EternisAI/sketch-provisioner/internal/archives"
	"github.com/EternisAI/sketch-provisioner/internal/auth"
	"github.com/EternisAI/sketch-provisioner/internal/controlqueue"
	"github.com/EternisAI/sketch-provisioner/internal/credentials"
	"github.com/EternisAI/sketch-provisioner/internal/db"
	"github.com/EternisAI/sketch-provisioner/internal/db/sqlc"
	"github.com/EternisAI/sketch-provisioner/internal/inventory"
	"github.com/EternisAI/sketch-provisioner/internal/metrics"
	"github.com/EternisAI/sketch-provisioner/internal/provisioning"
	"github.com/EternisAI/sketch-provisioner/internal/sketch"
	"github.com/EternisAI/sketch-provisioner/internal/users"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var AppVersion string

const (
	grantSweepInterval   = time.Hour
	defaultSweepInterval = 5 * time.Minute
)

func main() {
	config := InitConfig()

	slog.Info("Sketch Provisioner", "version", AppVersion)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, dir := range []string{config.Provisioning.TemplatesRoot, config.Provisioning.ArchivesRoot} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			slog.Error("Failed to create directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	if err := db.Migrate(ctx, config.DB); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	pool, err := db.Connect(ctx, config.DB)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	queries := sqlc.New(pool)

	ledger := credentials.NewPostgresLedger(queries)
	authority := credentials.NewAuthority(config.Credentials, ledger)

	var queue controlqueue.Service = controlqueue.Disabled{}
	if config.ControlQueue.Enabled {
		queue = controlqueue.NewBrokerStore(queries, config.ControlQueue)
		slog.Info("Control queue accounts enabled", "endpoint", config.ControlQueue.Endpoint)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	provisioner := provisioning.NewService(
		config.Provisioning,
		authority,
		inventory.NewPostgresStore(queries),
		queue,
		sketch.NewAssembler(),
		metrics.New(registry),
	)

	services := &internalhttp.Services{
		JWTSecret:     config.JWT.Secret,
		AdminAPIKey:   config.Http.AdminAPIKey,
		TemplatesRoot: config.Provisioning.TemplatesRoot,
		Auth:          auth.NewService(queries, config.JWT),
		Users:         users.NewService(queries),
		Provisioner:   provisioner,
		Devices:       provisioner,
		DeviceTokens:  provisioner,
		Database:      pool,
		Gatherer:      registry,
	}
	if config.Archives.S3.Enabled {
		publisher, err := archives.NewS3Publisher(ctx, config.Archives.S3)
		if err != nil {
			slog.Error("Failed to set up archive publication", "error", err)
			os.Exit(1)
		}
		services.Publisher = publisher
	}

	sweepInterval := config.Archives.SweepInterval
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}
	janitor := archives.NewJanitor(config.Provisioning.ArchivesRoot, config.Archives.Retention)

	var background sync.WaitGroup
	background.Add(2)
	go func() {
		defer background.Done()
		janitor.StartCleanup(ctx, sweepInterval)
	}()
	go func() {
		defer background.Done()
		ledger.StartCleanup(ctx, grantSweepInterval)
	}()

	origins := config.Http.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"PUT", "PATCH", "GET", "POST", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-API-Key"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Device-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(gin.Recovery())
	internalhttp.SetupRoute(engine, services)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Http.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		slog.Error("Server error", "error", err)
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig)
	}

	slog.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	cancel()
	background.Wait()
	slog.Info("Shutdown complete")
}
