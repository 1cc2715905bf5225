package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/servicecart/internal/service"
)

// HandleToggleFavorite handles POST /v1/favorites/:serviceId/toggle
func HandleToggleFavorite(favorites *service.FavoriteService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := requireIdentity(c)
		if !ok {
			return
		}

		serviceID := c.Param("serviceId")
		favorite, err := favorites.Toggle(c.Request.Context(), id, serviceID)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"service_id":  serviceID,
			"is_favorite": favorite,
		})
	}
}
