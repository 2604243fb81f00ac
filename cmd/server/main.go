package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scrapeq/internal/api"
	"scrapeq/internal/config"
	"scrapeq/internal/core"
	"scrapeq/internal/engine"
	"scrapeq/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	store := core.NewStore()
	gate := core.NewGate(store, cfg.QueueCapacity)
	snapshots := storage.NewSnapshots(cfg.SnapshotDir)
	eng := engine.NewPlaywright(cfg.BrowserPath)
	pool := core.NewPool(gate, store, eng, cfg.Workers, cfg.ScrapeTimeout()).WithSnapshots(snapshots)
	reaper := core.NewReaper(store, cfg.Retention(), cfg.ReaperInterval())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	go reaper.Run(ctx)

	h := &api.Handlers{Gate: gate, Store: store}
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("scrapeq listening on %s (%d workers, queue %d, timeout %s)",
			cfg.ListenAddr, cfg.Workers, cfg.QueueCapacity, cfg.ScrapeTimeout())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	// Stop taking submissions first, then let workers drain. In-flight jobs
	// either finish or get marked failed when their context dies; the pool
	// never leaves a record stuck between states.
	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)

	cancel()
	pool.Wait()

	log.Print("shutdown complete")
}
