package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/servicecart/internal/domain"
)

const identityContextKey = "identity"

// IdentitySource yields the identity requests are made under.
type IdentitySource interface {
	Current(ctx context.Context) domain.Identity
}

// IdentityMiddleware resolves the device identity once per request and
// stores it in the gin context.
func IdentityMiddleware(source IdentitySource, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := source.Current(c.Request.Context())
		if id.IsZero() {
			logger.Error("No identity available for request", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no identity available"})
			return
		}

		c.Set(identityContextKey, id)
		c.Next()
	}
}

// GetIdentityFromContext retrieves the identity set by IdentityMiddleware
func GetIdentityFromContext(c *gin.Context) (domain.Identity, bool) {
	v, exists := c.Get(identityContextKey)
	if !exists {
		return domain.Identity{}, false
	}
	id, ok := v.(domain.Identity)
	return id, ok
}
