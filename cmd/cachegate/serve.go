package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"cachegate/internal/auth"
	"cachegate/internal/cache"
	"cachegate/internal/config"
	"cachegate/internal/fetcher"
	"cachegate/internal/http/handler"
	"cachegate/internal/http/middleware"
	"cachegate/internal/metrics"
	"cachegate/internal/store"
)

func runServer(source string) error {
	cfg, err := config.Load(source)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	authState, err := auth.New(cfg.Auth.PublicKey, cfg.Auth.PrivateKey, cfg.Auth.BearerToken)
	if err != nil {
		return fmt.Errorf("initialize auth: %w", err)
	}

	stores, err := config.BuildStores(cfg)
	if err != nil {
		return fmt.Errorf("build stores: %w", err)
	}

	maxBytes, err := cfg.Cache.MaxBytes()
	if err != nil {
		return fmt.Errorf("cache.max_bytes: %w", err)
	}
	c := cache.New(maxBytes, cfg.Cache.TTL())
	m := metrics.New()

	registry := store.NewRegistry(stores)
	f := fetcher.New(c, registry, m)

	app := fiber.New(fiber.Config{
		ErrorHandler: handler.ErrorHandler(),
	})
	app.Use(middleware.RequestID())
	app.Use(middleware.Metrics(m))
	app.Use(middleware.Logger())

	handler.RegisterRoutes(app, f, authState, m, c)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("cachegate listening on %s", cfg.Listen)
		errCh <- app.Listen(cfg.Listen)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-sigCh:
		log.Print("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(ctx)
	}
}
