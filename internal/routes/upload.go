package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/unihub-app/unihub-backend/internal/middleware"
)

func RegisterUploadRoutes(r gin.IRouter, d Deps) {
	upload := r.Group("/upload")
	upload.Use(middleware.AuthMiddleware(d.DB, d.JWTSecret))
	{
		upload.POST("", d.Upload.Upload)
		upload.POST("/project-cover", d.Upload.UploadProjectCover)
		upload.POST("/chat", d.Upload.UploadChatAttachment)
		upload.POST("/profile", d.Upload.UploadProfileImage)
	}
}
