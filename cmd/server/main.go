// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/ipnexus-backend/internal/config"
	"github.com/javajoker/ipnexus-backend/internal/database"
	"github.com/javajoker/ipnexus-backend/internal/i18n"
	"github.com/javajoker/ipnexus-backend/internal/repository"
	"github.com/javajoker/ipnexus-backend/internal/router"
	"github.com/javajoker/ipnexus-backend/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	setupLogging(cfg)

	// Initialize i18n
	if err := i18n.Initialize(); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open store")
	}
	defer closeStore()

	if cfg.Store.Seed {
		seeder := services.NewSeeder(rand.New(rand.NewSource(time.Now().UnixNano())), nil)
		seeded, err := seeder.Seed(ctx, store)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to seed store")
		}
		logrus.WithField("seeded", seeded).Info("Seed check complete")
	}

	container, err := services.NewContainer(cfg, store)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize services")
	}

	if cfg.Store.ExpirySweepInterval > 0 {
		go container.Listings.RunExpirySweeper(ctx, cfg.Store.ExpirySweepInterval)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := router.Initialize(ctx, container)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logrus.WithFields(logrus.Fields{
			"port":  cfg.Server.Port,
			"store": cfg.Store.Driver,
		}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()
	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Fatal("Server forced to shutdown")
	}

	logrus.Info("Server exited")
}

func setupLogging(cfg *config.Config) {
	logrus.SetOutput(os.Stdout)
	if cfg.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// openStore returns the configured store and a function releasing it.
func openStore(cfg *config.Config) (*repository.Store, func(), error) {
	if cfg.Store.Driver == "memory" {
		return repository.NewMemoryStore(), func() {}, nil
	}

	db, err := database.Open(cfg.Store.Driver, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := database.RunMigrations(db); err != nil {
		database.Close(db)
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return repository.NewGormStore(db), func() { database.Close(db) }, nil
}
