package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/unihub-app/unihub-backend/internal/config"
	"github.com/unihub-app/unihub-backend/internal/database"
	"github.com/unihub-app/unihub-backend/internal/handlers"
	"github.com/unihub-app/unihub-backend/internal/middleware"
	"github.com/unihub-app/unihub-backend/internal/models"
	"github.com/unihub-app/unihub-backend/internal/realtime"
	"github.com/unihub-app/unihub-backend/internal/routes"
	"github.com/unihub-app/unihub-backend/internal/services"
	"github.com/unihub-app/unihub-backend/internal/storage"
	"github.com/unihub-app/unihub-backend/pkg/logger"
)

func main() {
	cfg := config.Load()

	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}
	logger.Init(env)
	logger.Info().Str("environment", env).Msg("Starting UniHub Backend...")

	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	cache := database.NewNoopCache()
	if cfg.RedisAddr != "" {
		cache, err = database.NewCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, directory cache disabled")
			cache = database.NewNoopCache()
		}
	}

	logger.Info().Msg("Running database migrations...")
	if err := db.AutoMigrate(
		&models.User{},
		&models.ConnectionRequest{},
		&models.UserConnection{},
		&models.UserFollow{},
		&models.Project{},
		&models.Milestone{},
		&models.ProjectMember{},
		&models.ProjectApplicant{},
		&models.ChatChannel{},
		&models.ChannelParticipant{},
		&models.Message{},
		&models.Notification{},
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}
	logger.Info().Msg("Database migrations complete")

	var assets *storage.AssetStore
	if cfg.R2BucketName != "" {
		assets, err = storage.New(cfg)
		if err != nil {
			logger.Warn().Err(err).Msg("Asset store unavailable, uploads disabled")
		}
	}

	// Service graph. Services own transitions; handlers only translate HTTP.
	hub := realtime.NewHub()
	notifSvc := services.NewNotificationService(db, hub)
	chatSvc := services.NewChatService(db, notifSvc, hub)
	connSvc := services.NewConnectionService(db, notifSvc, hub)
	var remover services.AssetRemover
	if assets != nil {
		remover = assets
	}
	projectSvc := services.NewProjectService(db, notifSvc, chatSvc, hub, remover)
	dirSvc := services.NewDirectoryService(db, cache)

	socketServer := realtime.NewSocketServer(hub, cfg.JWTSecret)
	defer socketServer.Close()

	r := gin.New()
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.FrontendURL))

	// The socket endpoint is long-polling heavy; keep it out of the limiter.
	r.Use(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/socket.io") {
			c.Next()
			return
		}
		middleware.GeneralRateLimit()(c)
	})

	routes.Register(r, routes.Deps{
		DB:            db,
		Cache:         cache,
		JWTSecret:     cfg.JWTSecret,
		Auth:          handlers.NewAuthHandler(db, notifSvc, cfg.JWTSecret),
		Users:         handlers.NewUserHandler(db, dirSvc),
		Social:        handlers.NewSocialHandler(connSvc, dirSvc),
		Projects:      handlers.NewProjectHandler(projectSvc),
		Chat:          handlers.NewChatHandler(chatSvc),
		Notifications: handlers.NewNotificationHandler(notifSvc),
		Upload:        handlers.NewUploadHandler(assets),
		Socket:        socketServer,
	})

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Forced shutdown")
	}
	logger.Info().Msg("Server exited")
}
