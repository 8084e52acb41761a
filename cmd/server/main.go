package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codyseavey/cardscout/internal/api"
	"github.com/codyseavey/cardscout/internal/config"
	"github.com/codyseavey/cardscout/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	analysis, cleanup, err := services.Bootstrap(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer cleanup()

	sessions := services.NewSessionStore(cfg.Session.Capacity, cfg.Session.TTL.Std())

	// Create a cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Watch list refreshes only make sense with somewhere to keep the results
	var watch *services.WatchService
	if cfg.History.Enabled() && len(cfg.History.WatchCardIDs) > 0 {
		watch, err = services.NewWatchService(analysis, cfg.History.WatchCardIDs, cfg.History.WatchSchedule)
		if err != nil {
			log.Fatalf("Failed to initialize watch service: %v", err)
		}
		go func() {
			if err := watch.Start(ctx); err != nil {
				log.Printf("Watch service: %v", err)
			}
		}()
	} else if len(cfg.History.WatchCardIDs) > 0 {
		log.Println("WATCH_CARD_IDS ignored: price history is disabled")
	}

	router := api.SetupRouter(cfg, analysis, sessions, watch)

	// Create HTTP server for graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Cancel the context to stop the watch service
	cancel()

	// Give outstanding requests a deadline to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
