package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/servicecart/internal/api/handlers"
	"github.com/jafarshop/servicecart/internal/api/middleware"
	"github.com/jafarshop/servicecart/internal/config"
	"github.com/jafarshop/servicecart/internal/identity"
	"github.com/jafarshop/servicecart/internal/service"
)

// Services bundles what the router exposes.
type Services struct {
	Identity  *identity.Resolver
	Cart      *service.CartService
	Coupons   *service.CouponService
	Bookings  *service.BookingService
	Favorites *service.FavoriteService
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, svc Services, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))
	router.Use(cors.New(corsConfig(cfg.CORS)))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	{
		// Session routes manage the identity itself and run without it
		v1.POST("/session", handlers.HandleSignIn(svc.Identity, logger))
		v1.DELETE("/session", handlers.HandleSignOut(svc.Identity, logger))

		routes := v1.Group("")
		routes.Use(middleware.IdentityMiddleware(svc.Identity, logger))
		{
			routes.GET("/cart", handlers.HandleGetCart(svc.Cart, logger))
			routes.DELETE("/cart", handlers.HandleEmptyCart(svc.Cart, logger))
			routes.POST("/cart/items", handlers.HandleAddToCart(svc.Cart, logger))
			routes.PUT("/cart/items/:id", handlers.HandleUpdateQuantity(svc.Cart, logger))
			routes.DELETE("/cart/items/:id", handlers.HandleRemoveItem(svc.Cart, logger))

			routes.POST("/cart/coupon", handlers.HandleApplyCoupon(svc.Coupons, logger))
			routes.DELETE("/cart/coupon", handlers.HandleRemoveCoupon(svc.Coupons, logger))
			routes.GET("/cart/coupon-codes", handlers.HandleAppliedCouponCodes(svc.Coupons, svc.Cart))

			routes.POST("/favorites/:serviceId/toggle", handlers.HandleToggleFavorite(svc.Favorites, logger))

			routes.POST("/bookings/validate", handlers.HandleValidateBooking(svc.Bookings, svc.Cart, cfg.API.ZoneID, logger))
			routes.POST("/bookings", handlers.HandleCreateBooking(svc.Bookings, svc.Cart, cfg.API.ZoneID, logger))
		}
	}

	return router
}

func corsConfig(cfg config.CORSConfig) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	if len(cfg.AllowedOrigins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowedOrigins
	}
	return c
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
