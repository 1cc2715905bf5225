package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/servicecart/internal/api"
	"github.com/jafarshop/servicecart/internal/bootstrap"
	"github.com/jafarshop/servicecart/internal/config"
	"github.com/jafarshop/servicecart/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := bootstrap.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Identity store and resolver
	repos, err := bootstrap.OpenRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open identity store", zap.Error(err))
	}
	defer repos.Identity.Close()

	resolver, err := bootstrap.NewResolver(cfg, repos, logger)
	if err != nil {
		logger.Fatal("Failed to create identity resolver", zap.Error(err))
	}

	// Remote API and services
	client, err := bootstrap.NewGateway(cfg, logger)
	if err != nil {
		logger.Fatal("Invalid remote API configuration", zap.Error(err))
	}
	carts := service.NewCartService(client, cfg.Cart.PageLimit, logger)

	router := api.NewRouter(cfg, api.Services{
		Identity:  resolver,
		Cart:      carts,
		Coupons:   service.NewCouponService(client, carts, logger),
		Bookings:  service.NewBookingService(client, carts, logger),
		Favorites: service.NewFavoriteService(client, logger),
	}, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	logger.Info("Starting storefront edge",
		zap.String("addr", srv.Addr),
		zap.String("api_base_url", cfg.API.BaseURL),
		zap.String("identity_store", cfg.Identity.Store),
	)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down storefront edge")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
}
