package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/jafarshop/servicecart/internal/bootstrap"
	"github.com/jafarshop/servicecart/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/sign-in/main.go <bearer-token>")
		fmt.Println("       go run cmd/sign-in/main.go --sign-out")
		os.Exit(1)
	}

	arg := strings.TrimSpace(os.Args[1])

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if !cfg.Identity.Durable() {
		fmt.Fprintf(os.Stderr, "IDENTITY_STORE=%s does not persist between runs; use postgres or redis\n", cfg.Identity.Store)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	ctx := context.Background()

	repos, err := bootstrap.OpenRepositories(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open identity store: %v\n", err)
		os.Exit(1)
	}
	defer repos.Identity.Close()

	resolver, err := bootstrap.NewResolver(cfg, repos, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create identity resolver: %v\n", err)
		os.Exit(1)
	}

	if arg == "--sign-out" {
		if err := resolver.SignOut(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to sign out: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Signed out profile %q; requests now use guest id %s\n",
			cfg.Identity.Profile, resolver.GuestID(ctx))
		return
	}

	token := strings.TrimSpace(strings.TrimPrefix(arg, "Bearer "))
	if token == "" {
		fmt.Fprintln(os.Stderr, "Token is empty")
		os.Exit(1)
	}

	if err := resolver.SignIn(ctx, token); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to store token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Token stored for profile %q (%s store)\n", cfg.Identity.Profile, cfg.Identity.Store)
	if cfg.Identity.SealKey == "" {
		fmt.Println("IDENTITY_SEAL_KEY is not set; the token is stored unencrypted.")
	}
}
