package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/unihub-app/unihub-backend/internal/middleware"
)

func RegisterChatRoutes(r gin.IRouter, d Deps) {
	chat := r.Group("/chat")
	chat.Use(middleware.AuthMiddleware(d.DB, d.JWTSecret))
	{
		chat.POST("/direct", d.Chat.OpenDirect)
		chat.GET("/projects/:projectId", d.Chat.OpenGroup)
		chat.GET("/channels", d.Chat.ListChannels)
		chat.GET("/channels/:id/messages", d.Chat.ListMessages)
		chat.POST("/channels/:id/messages", middleware.ChatRateLimit(), d.Chat.SendMessage)
		chat.PUT("/channels/:id/read", d.Chat.MarkRead)
		chat.PUT("/channels/:id/name", d.Chat.RenameGroup)
	}
}
