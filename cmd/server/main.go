package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cloudzz-dev/gigmsg/internal/money"
	"github.com/cloudzz-dev/gigmsg/internal/server/config"
	"github.com/cloudzz-dev/gigmsg/internal/server/handlers"
	"github.com/cloudzz-dev/gigmsg/internal/server/ratelimit"
	"github.com/cloudzz-dev/gigmsg/internal/server/storage"
	"github.com/cloudzz-dev/gigmsg/internal/server/ws"
)

func main() {
	cfg := config.Load()

	store := storage.New(cfg.DatabaseURL)
	defer store.Close()

	converter := money.NewConverter()
	if cfg.RatesURL != "" {
		if err := converter.Refresh(cfg.RatesURL); err != nil {
			log.Printf("Rate refresh failed, using fallback table: %v", err)
		}
	}

	limiter := ratelimit.New(cfg.MaxConnsPerIP, cfg.MessagesPerMin)
	hub := ws.NewHub(store)
	handler := handlers.New(store, hub, converter, limiter)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: handler.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	g.Go(func() error {
		log.Printf("Server starting on %s", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
}
