package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unihub-app/unihub-backend/internal/services"
)

// ProjectHandler serves the project lifecycle and membership endpoints.
type ProjectHandler struct {
	projects *services.ProjectService
}

func NewProjectHandler(projects *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// Create POST /projects
func (h *ProjectHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input services.ProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.projects.CreateProject(userID, input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project": project})
}

// Get GET /projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	detail, err := h.projects.GetProject(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": detail})
}

// List GET /projects?active=true
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projects.ListProjects(c.Query("active") == "true")
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// Mine GET /projects/mine
func (h *ProjectHandler) Mine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projects, err := h.projects.ListByUser(userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// RequestToJoin POST /projects/:id/join
func (h *ProjectHandler) RequestToJoin(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.projects.RequestToJoin(c.Param("id"), userID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Application submitted"})
}

type inviteInput struct {
	UserID string `json:"userId" binding:"required"`
}

// Invite POST /projects/:id/invite
func (h *ProjectHandler) Invite(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input inviteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.projects.Invite(c.Param("id"), input.UserID, userID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invite sent"})
}

// AcceptApplicant PUT /projects/:id/applicants/:userId/accept
func (h *ProjectHandler) AcceptApplicant(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.projects.AcceptApplicant(c.Param("id"), c.Param("userId"), userID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Applicant accepted"})
}

// RejectApplicant PUT /projects/:id/applicants/:userId/reject
func (h *ProjectHandler) RejectApplicant(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.projects.RejectApplicant(c.Param("id"), c.Param("userId"), userID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Applicant rejected"})
}

// AcceptInvite POST /projects/:id/invite/accept
func (h *ProjectHandler) AcceptInvite(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.projects.AcceptInvite(c.Param("id"), userID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invite accepted"})
}

// DeclineInvite POST /projects/:id/invite/decline
func (h *ProjectHandler) DeclineInvite(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.projects.DeclineInvite(c.Param("id"), userID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invite declined"})
}

// RemoveMember DELETE /projects/:id/members/:userId
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.projects.RemoveMember(c.Param("id"), c.Param("userId"), userID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

// ToggleStatus PUT /projects/:id/status
func (h *ProjectHandler) ToggleStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	project, err := h.projects.ToggleStatus(c.Param("id"), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

type milestoneInput struct {
	Title string `json:"title" binding:"required"`
}

// AddMilestone POST /projects/:id/milestones
func (h *ProjectHandler) AddMilestone(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input milestoneInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	milestone, err := h.projects.AddMilestone(c.Param("id"), userID, input.Title)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"milestone": milestone})
}

// ToggleMilestone PUT /projects/:id/milestones/:milestoneId
func (h *ProjectHandler) ToggleMilestone(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	milestone, err := h.projects.ToggleMilestone(c.Param("id"), c.Param("milestoneId"), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"milestone": milestone})
}

// Delete DELETE /projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.projects.DeleteProject(c.Param("id"), userID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
}
