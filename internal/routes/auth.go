package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/unihub-app/unihub-backend/internal/middleware"
)

func RegisterAuthRoutes(r gin.IRouter, d Deps) {
	auth := r.Group("/auth")
	auth.Use(middleware.AuthRateLimit())
	{
		auth.POST("/register", d.Auth.Register)
		auth.POST("/login", d.Auth.Login)
	}

	me := r.Group("/auth")
	me.Use(middleware.AuthMiddleware(d.DB, d.JWTSecret))
	{
		me.GET("/me", d.Auth.Me)
	}
}
