package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/unihub-app/unihub-backend/internal/middleware"
)

func RegisterProjectRoutes(r gin.IRouter, d Deps) {
	projects := r.Group("/projects")
	projects.Use(middleware.AuthMiddleware(d.DB, d.JWTSecret))
	{
		projects.POST("", d.Projects.Create)
		projects.GET("", d.Projects.List)
		projects.GET("/mine", d.Projects.Mine)
		projects.GET("/:id", d.Projects.Get)
		projects.DELETE("/:id", d.Projects.Delete)
		projects.PUT("/:id/status", d.Projects.ToggleStatus)

		projects.POST("/:id/join", middleware.UserRateLimit(d.Cache, 30, time.Minute), d.Projects.RequestToJoin)
		projects.POST("/:id/invite", middleware.UserRateLimit(d.Cache, 30, time.Minute), d.Projects.Invite)
		projects.POST("/:id/invite/accept", d.Projects.AcceptInvite)
		projects.POST("/:id/invite/decline", d.Projects.DeclineInvite)
		projects.PUT("/:id/applicants/:userId/accept", d.Projects.AcceptApplicant)
		projects.PUT("/:id/applicants/:userId/reject", d.Projects.RejectApplicant)
		projects.DELETE("/:id/members/:userId", d.Projects.RemoveMember)

		projects.POST("/:id/milestones", d.Projects.AddMilestone)
		projects.PUT("/:id/milestones/:milestoneId", d.Projects.ToggleMilestone)
	}
}
