package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/askbase/askbase/internal/middleware"
)

type RouterDeps struct {
	Chat          *ChatHandler
	Documents     *DocumentHandler
	Threads       *ThreadHandler
	Files         *FileHandler
	ChatRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	chatGroup := api.Group("")
	chatGroup.Use(middleware.RateLimit(deps.ChatRateLimit))
	chatGroup.POST("/chat", deps.Chat.Stream)

	api.GET("/threads", deps.Threads.List)
	api.GET("/threads/:id", deps.Threads.Get)
	api.GET("/threads/:id/messages", deps.Chat.History)
	api.DELETE("/threads/:id", deps.Threads.Delete)

	api.POST("/documents", deps.Documents.Upload)
	api.GET("/documents", deps.Documents.List)
	api.GET("/documents/:id", deps.Documents.Get)
	api.GET("/documents/:id/file", deps.Files.Download)
	api.DELETE("/documents/:id", deps.Documents.Delete)
}
