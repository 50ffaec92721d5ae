package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/calebmorrow/daylight/backend/internal/auth"
	"github.com/calebmorrow/daylight/backend/internal/config"
	"github.com/calebmorrow/daylight/backend/internal/handler"
	"github.com/calebmorrow/daylight/backend/internal/handler/events"
	"github.com/calebmorrow/daylight/backend/internal/model/child"
	escalationService "github.com/calebmorrow/daylight/backend/internal/service/escalation"
	reportService "github.com/calebmorrow/daylight/backend/internal/service/report"
	scheduleService "github.com/calebmorrow/daylight/backend/internal/service/schedule"
	sessionService "github.com/calebmorrow/daylight/backend/internal/service/session"
	"github.com/calebmorrow/daylight/backend/internal/storage"
	"github.com/calebmorrow/daylight/backend/internal/storage/memory"
	"github.com/calebmorrow/daylight/backend/internal/storage/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	authCfg, err := auth.LoadConfigFromEnv(nil)
	if err != nil {
		log.Fatalf("failed to load auth configuration: %v", err)
	}

	var store storage.Store
	if cfg.Storage.DataPath != "" {
		store, err = sqlite.Open(cfg.Storage.DataPath)
		if err != nil {
			log.Fatalf("failed to open sqlite store: %v", err)
		}
		log.Printf("sqlite store opened at %s", cfg.Storage.DataPath)
	} else {
		store = memory.NewStore()
		log.Println("DAYLIGHT_DATA_PATH not set, using in-memory store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("warning: failed to close store: %v", err)
		}
	}()

	children := child.NewMemoryStore(child.Seed())
	hub := events.NewHub()

	scheduleSvc := scheduleService.NewService(children, store, store)
	sessionSvc := sessionService.NewService(store, children)
	reportSvc := reportService.NewService(store, store, children)
	escalationSvc := escalationService.NewService(store, store, children, hub)

	router := handler.NewRouter(authCfg, scheduleSvc, sessionSvc, reportSvc, escalationSvc, hub)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Daylight backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
