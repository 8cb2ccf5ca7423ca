package routes

import (
	"github.com/gin-gonic/gin"

	"pricewatch_back_end/internal/handlers"
	"pricewatch_back_end/internal/middleware"
)

func RegisterRoutes(r *gin.Engine, h *handlers.Handler) {
	r.Use(middleware.RequestID())

	api := r.Group("/api/products")
	api.Use(middleware.APIRateLimit())
	{
		api.POST("/track", middleware.TrackRateLimit(), h.TrackProduct)
		api.GET("/history/:id", h.GetHistory)
		api.GET("/:id", h.GetProduct)
	}
}
