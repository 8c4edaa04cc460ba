package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/unihub-app/unihub-backend/internal/middleware"
)

func RegisterNotificationRoutes(r gin.IRouter, d Deps) {
	notifications := r.Group("/notifications")
	notifications.Use(middleware.AuthMiddleware(d.DB, d.JWTSecret))
	{
		notifications.GET("", d.Notifications.List)
		notifications.GET("/unread-count", d.Notifications.UnreadCount)
		notifications.PUT("/read", d.Notifications.MarkRead)
		notifications.PUT("/read-all", d.Notifications.MarkAllRead)
		notifications.DELETE("/:id", d.Notifications.Delete)
	}

	admin := r.Group("/admin/notifications")
	admin.Use(middleware.AuthMiddleware(d.DB, d.JWTSecret), middleware.AdminMiddleware(d.DB))
	{
		admin.POST("/broadcast", d.Notifications.Broadcast)
	}
}
