package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/jafarshop/servicecart/internal/bootstrap"
	"github.com/jafarshop/servicecart/internal/config"
	"github.com/jafarshop/servicecart/internal/domain"
	"github.com/jafarshop/servicecart/internal/service"
)

func main() {
	pageSize := 20
	if len(os.Args) > 1 {
		n, err := strconv.Atoi(os.Args[1])
		if err != nil || n < 1 {
			fmt.Println("Usage: go run cmd/cart-dump/main.go [page-size]")
			os.Exit(1)
		}
		pageSize = n
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
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

	client, err := bootstrap.NewGateway(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid remote API configuration: %v\n", err)
		os.Exit(1)
	}

	id := resolver.Current(ctx)
	carts := service.NewCartService(client, pageSize, logger)
	coupons := service.NewCouponService(nil, carts, logger)

	fmt.Printf("Cart for %s identity\n\n", id.Kind())

	// Page through the server cart
	var first *domain.Cart
	offset := 0
	lines := 0
	for {
		cart, err := carts.GetCart(ctx, id, pageSize, offset)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to fetch cart: %v\n", err)
			os.Exit(1)
		}
		if first == nil {
			first = cart
		}

		for _, item := range cart.Items {
			fmt.Printf("%-12s service=%-12s variant=%-10s qty=%-3d unit=%s total=%s",
				item.ID, item.ServiceID, item.VariantKey, item.Quantity,
				item.UnitCost.StringFixed(2), item.TotalCost.StringFixed(2))
			if item.CouponCode != "" {
				fmt.Printf(" coupon=%s", item.CouponCode)
			}
			fmt.Println()
		}
		lines += len(cart.Items)

		offset += len(cart.Items)
		if len(cart.Items) == 0 || offset >= cart.Page.Total {
			break
		}
	}

	fmt.Printf("\n%d line(s)\n", lines)
	fmt.Printf("Total: %s  Wallet: %s  Referral: %s\n",
		first.TotalCost.StringFixed(2), first.WalletBalance.StringFixed(2), first.ReferralAmount.StringFixed(2))
	if codes := coupons.GetAppliedCouponCodes(*first); len(codes) > 0 {
		fmt.Printf("Coupons: %v\n", codes)
	}
}
