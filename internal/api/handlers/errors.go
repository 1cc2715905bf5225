package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/servicecart/internal/api/middleware"
	"github.com/jafarshop/servicecart/internal/domain"
	"github.com/jafarshop/servicecart/pkg/errors"
)

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		validation errors.ValidationErrors
		quantity   *errors.ErrInvalidQuantity
		emptyCode  *errors.ErrEmptyCouponCode
		authn      *errors.ErrAuthenticationRequired
		identity   *errors.ErrMissingIdentity
		notFound   *errors.ErrNotFound
		inflight   *errors.ErrAlreadyInFlight
		stale      *errors.ErrStaleResponse
		rejected   *errors.ErrRejected
		transport  *errors.ErrTransport
	)

	switch {
	case stderrors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "validation failed",
			"details": validation,
		})
	case stderrors.As(err, &quantity), stderrors.As(err, &emptyCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case stderrors.As(err, &authn), stderrors.As(err, &identity):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case stderrors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case stderrors.As(err, &inflight), stderrors.As(err, &stale):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case stderrors.As(err, &rejected):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":         rejected.Message,
			"response_code": rejected.Code,
			"details":       rejected.Errors,
		})
	case stderrors.As(err, &transport):
		logger.Warn("Remote API unavailable", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "remote service unavailable"})
	default:
		logger.Error("Unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func requireIdentity(c *gin.Context) (domain.Identity, bool) {
	id, ok := middleware.GetIdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return id, ok
}
