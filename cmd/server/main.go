package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/tbaxter/workshift/internal/config"
	"github.com/tbaxter/workshift/internal/db"
	"github.com/tbaxter/workshift/internal/events"
	"github.com/tbaxter/workshift/internal/export"
	"github.com/tbaxter/workshift/internal/middleware"
	"github.com/tbaxter/workshift/internal/repository"
	"github.com/tbaxter/workshift/internal/scheduler"
)

func main() {
	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load("./")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Setup database connection
	conn, err := db.NewConnection(ctx, cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.DB, "./migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create repositories
	shiftRepo := repository.NewShiftRepository(conn.Pool)
	historyRepo := repository.NewHistoryRepository(conn.Pool)

	// Create services
	broker := events.NewBroker()
	schedulerService := scheduler.NewService(conn, shiftRepo, historyRepo)
	exportService := export.NewService(shiftRepo, historyRepo)

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	apiHandler := corsHandler.Handler(middleware.LoggingMiddleware(
		scheduler.NewHTTPHandler(schedulerService, broker),
	))

	mux := http.NewServeMux()
	mux.Handle("/api/shifts", apiHandler)
	mux.Handle("/api/shifts/", apiHandler)
	mux.Handle("/api/undo", apiHandler)
	mux.Handle("/api/history", apiHandler)
	mux.Handle("/api/shift_types", apiHandler)
	mux.Handle("/api/next_shift", apiHandler)
	mux.Handle("/api/export", corsHandler.Handler(middleware.LoggingMiddleware(
		export.NewHTTPHandler(exportService),
	)))
	// The events feed hijacks the connection, so it skips the logging
	// wrapper (the wrapped writer hides http.Hijacker).
	mux.Handle("/api/events", events.NewFeedHandler(broker))

	// Create HTTP server. No WriteTimeout: the events socket stays open.
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting work schedule server on %s", cfg.Addr)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
