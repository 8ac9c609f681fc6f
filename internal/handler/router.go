package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/concierge/internal/middleware"
)

type RouterDeps struct {
	Chat          *ChatHandler
	Documents     *DocumentHandler
	ChatRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	chat := api.Group("/chat")
	chat.Use(middleware.RateLimit(deps.ChatRateLimit))
	chat.POST("", deps.Chat.Chat)
	chat.GET("/:session_id/history", deps.Chat.History)
	chat.DELETE("/:session_id", deps.Chat.Reset)

	api.POST("/documents", deps.Documents.Upload)
	api.GET("/documents/stats", deps.Documents.Stats)
}
