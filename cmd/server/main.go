package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rpattn/planimport/internal/catalog"
	"github.com/rpattn/planimport/internal/config"
	"github.com/rpattn/planimport/internal/db"
	"github.com/rpattn/planimport/internal/importer"
	"github.com/rpattn/planimport/internal/middleware"
	"github.com/rpattn/planimport/internal/repository"

	"github.com/rs/cors"
)

func main() {
	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup database connection
	conn, err := db.NewConnection(ctx, cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath, cfg.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Load the declared column mappings once at startup
	cat, err := catalog.Load(cfg.MappingsPath)
	if err != nil {
		log.Fatalf("Failed to load mapping catalog: %v", err)
	}

	// Create repositories and the import service
	tableRepo := repository.NewTableRepository(conn.Pool)
	ledgerRepo := repository.NewLedgerRepository(conn.Pool)
	service := importer.NewService(cat, tableRepo, ledgerRepo)

	importHandler := importer.NewHTTPHandler(service)

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	wrapped := middleware.LoggingMiddleware(importHandler)

	mux := http.NewServeMux()
	mux.Handle("/api/imports", corsHandler.Handler(wrapped))
	mux.Handle("/api/imports/", corsHandler.Handler(wrapped))
	mux.Handle("/api/categories", corsHandler.Handler(wrapped))

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      mux,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting import server on %s", cfg.ServerAddr)
		log.Printf("Upload endpoint available at POST %s/api/imports", cfg.ServerAddr)

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
