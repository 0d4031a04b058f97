package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scout-sync-go/pkg/api"
	"scout-sync-go/pkg/config"
	"scout-sync-go/pkg/db"
	"scout-sync-go/pkg/jobs"
	"scout-sync-go/pkg/models"
	"scout-sync-go/pkg/scraper"
	"scout-sync-go/pkg/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(log *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := context.Background()

	// Initialize database
	database, err := db.New(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return err
	}

	store, closeStore, err := newTaskStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	manager := jobs.NewManager(store, log.Named("jobs"))
	runner := &scraper.Runner{
		Fetcher: scraper.NewClient(cfg.Scraper.TransfermarktURL, time.Duration(cfg.Scraper.TimeoutSeconds)*time.Second),
		Players: database,
		Delay:   time.Duration(cfg.Scraper.RequestDelayMS) * time.Millisecond,
		Log:     log.Named("scraper"),
	}
	manager.Register(models.JobPhotos, runner.PhotoJob)
	manager.Register(models.JobData, runner.DataJob)

	syncService := services.NewSyncService(
		database,
		&http.Client{Timeout: time.Duration(cfg.Scraper.TimeoutSeconds) * time.Second},
		cfg.Sheets.CSVURL,
		cfg.Sheets.ExportPath,
		log.Named("sync"),
	)

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.Deps{
		Tasks:    manager,
		Sync:     syncService,
		Users:    database,
		AdminKey: cfg.API.AdminKey,
		Log:      log,
	})

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("API server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return err
	case <-quit:
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if err := manager.Shutdown(shutdownCtx); err != nil {
		log.Warn("jobs did not stop in time", zap.Error(err))
	}

	log.Info("server exited")
	return nil
}

// newTaskStore picks Redis when an address is configured, memory otherwise.
func newTaskStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (jobs.Store, func(), error) {
	if cfg.Redis.Addr == "" {
		log.Info("using in-memory task store")
		return jobs.NewMemoryStore(), func() {}, nil
	}

	rdb, err := jobs.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, err
	}
	log.Info("using redis task store", zap.String("addr", cfg.Redis.Addr))
	ttl := time.Duration(cfg.Redis.StatusTTLMinutes) * time.Minute
	return jobs.NewRedisStore(rdb, ttl), func() { _ = rdb.Close() }, nil
}
