package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionStore persists the bearer token for the device.
type SessionStore interface {
	SignIn(ctx context.Context, token string) error
	SignOut(ctx context.Context) error
}

// SignInRequest represents the sign-in payload
type SignInRequest struct {
	Token string `json:"token" binding:"required"`
}

// HandleSignIn handles POST /v1/session
func HandleSignIn(sessions SessionStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SignInRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(req.Token, "Bearer "))
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token is empty"})
			return
		}

		if err := sessions.SignIn(c.Request.Context(), token); err != nil {
			logger.Error("Failed to sign in", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"authenticated": true})
	}
}

// HandleSignOut handles DELETE /v1/session
func HandleSignOut(sessions SessionStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := sessions.SignOut(c.Request.Context()); err != nil {
			logger.Error("Failed to sign out", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
	}
}
