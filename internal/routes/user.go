package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/unihub-app/unihub-backend/internal/middleware"
)

func RegisterUserRoutes(r gin.IRouter, d Deps) {
	users := r.Group("/users")
	users.Use(middleware.AuthMiddleware(d.DB, d.JWTSecret))
	{
		users.GET("/search", d.Users.SearchUsers)
		users.GET("/:id", d.Users.GetUser)
		users.PUT("/me", d.Users.UpdateProfile)
	}
}
