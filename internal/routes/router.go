package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unihub-app/unihub-backend/internal/database"
	"github.com/unihub-app/unihub-backend/internal/handlers"
	"github.com/unihub-app/unihub-backend/internal/realtime"
	"gorm.io/gorm"
)

// Deps carries everything route registration needs. Handlers are constructed
// in main and passed down; middleware that needs the DB or config gets it here.
type Deps struct {
	DB        *gorm.DB
	Cache     *database.Cache
	JWTSecret string

	Auth          *handlers.AuthHandler
	Users         *handlers.UserHandler
	Social        *handlers.SocialHandler
	Projects      *handlers.ProjectHandler
	Chat          *handlers.ChatHandler
	Notifications *handlers.NotificationHandler
	Upload        *handlers.UploadHandler

	Socket *realtime.SocketServer
}

// Register mounts every route group under /api plus the socket endpoint and
// the health probe.
func Register(r *gin.Engine, d Deps) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if d.Socket != nil {
		r.GET("/socket.io/*any", gin.WrapH(d.Socket))
		r.POST("/socket.io/*any", gin.WrapH(d.Socket))
	}

	api := r.Group("/api")
	RegisterAuthRoutes(api, d)
	RegisterUserRoutes(api, d)
	RegisterSocialRoutes(api, d)
	RegisterProjectRoutes(api, d)
	RegisterChatRoutes(api, d)
	RegisterNotificationRoutes(api, d)
	RegisterUploadRoutes(api, d)
}
