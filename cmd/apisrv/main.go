package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CourseFlow-Devs/IntegraGate/pkg/config"
	"github.com/CourseFlow-Devs/IntegraGate/pkg/db"
	"github.com/CourseFlow-Devs/IntegraGate/pkg/integration"
	"github.com/CourseFlow-Devs/IntegraGate/pkg/log"
	"github.com/CourseFlow-Devs/IntegraGate/pkg/webserver"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := log.Init(&cfg.Logging); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger := log.GetLogger()

	logger.Info("Starting IntegraGate API Server")
	logger.WithField("version", "1.0.0").Info("Server initialization")

	// Initialize database
	logger.Info("Connecting to database...")
	database, err := db.New(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.WithError(err).Error("Failed to close database connection")
		}
	}()

	// Initialize integration manager. Initialize runs migrations, seeds the
	// template catalog and warms the active-integration cache.
	logger.Info("Initializing integration manager...")
	manager, err := integration.NewManager(cfg, database, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize integration manager")
	}
	if err := manager.Initialize(); err != nil {
		logger.WithError(err).Fatal("Failed to initialize integration manager")
	}

	// Initialize web server
	logger.Info("Initializing web server...")
	server, err := webserver.New(cfg, database, logger, manager)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize web server")
	}

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	logger.WithField("address", cfg.Server.GetServerAddr()).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create a context with timeout for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.GracefulStop)*time.Second)
	defer shutdownCancel()

	// Gracefully stop the web server
	if err := server.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	} else {
		logger.Info("Web server exited gracefully")
	}

	// Stop sync timers and drain in-flight work
	manager.Shutdown()

	logger.Info("Application exited gracefully")
}
