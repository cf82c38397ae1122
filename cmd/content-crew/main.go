package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nieveai/content-crew/internal/app"
	"github.com/nieveai/content-crew/internal/config"
	"github.com/nieveai/content-crew/internal/web"
)

func main() {
	cfg, err := config.LoadFromArgs(os.Args[0], os.Args[1:])
	if err != nil {
		log.Fatalf("Error loading configuration: %s", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("Error initializing content crew: %s", err)
	}

	log.Printf("Starting content crew on %s with %d workers", cfg.Addr, cfg.Workers)
	srv := web.NewServer(cfg.Addr, a.Model.ModelID, a.Pool, a.Store)
	srv.ReadTimeout = cfg.ReadTimeout()
	srv.WriteTimeout = cfg.WriteTimeout()
	if err := srv.ListenAndServe(ctx); err != nil {
		log.Printf("Server error: %s", err)
	}

	log.Println("Shutting down...")
	if err := a.Close(); err != nil {
		log.Printf("Error during shutdown: %s", err)
	}
}
