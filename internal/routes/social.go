package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/unihub-app/unihub-backend/internal/middleware"
)

func RegisterSocialRoutes(r gin.IRouter, d Deps) {
	social := r.Group("/social")
	social.Use(middleware.AuthMiddleware(d.DB, d.JWTSecret))
	{
		// Per-user cap on outgoing requests keeps invite spam down.
		social.POST("/requests", middleware.UserRateLimit(d.Cache, 30, time.Minute), d.Social.SendRequest)
		social.GET("/requests", d.Social.ListRequests)
		social.PUT("/requests/:id/accept", d.Social.AcceptRequest)
		social.PUT("/requests/:id/reject", d.Social.RejectRequest)

		social.GET("/connections", d.Social.ListConnections)
		social.DELETE("/connections/:userId", d.Social.Disconnect)
		social.GET("/following", d.Social.ListFollowing)
	}
}
