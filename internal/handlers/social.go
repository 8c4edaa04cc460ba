package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unihub-app/unihub-backend/internal/services"
)

// SocialHandler serves the connection-request state machine and the resulting
// social graph.
type SocialHandler struct {
	connections *services.ConnectionService
	directory   *services.DirectoryService
}

func NewSocialHandler(connections *services.ConnectionService, directory *services.DirectoryService) *SocialHandler {
	return &SocialHandler{connections: connections, directory: directory}
}

type sendRequestInput struct {
	UserID string `json:"userId" binding:"required"`
}

// SendRequest POST /social/requests
func (h *SocialHandler) SendRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input sendRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.connections.SendRequest(userID, input.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request": req})
}

// AcceptRequest PUT /social/requests/:id/accept
func (h *SocialHandler) AcceptRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.connections.AcceptRequest(c.Param("id"), userID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request accepted"})
}

// RejectRequest PUT /social/requests/:id/reject
func (h *SocialHandler) RejectRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.connections.RejectRequest(c.Param("id"), userID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request rejected"})
}

// ListRequests GET /social/requests
func (h *SocialHandler) ListRequests(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	requests, err := h.connections.ListIncoming(userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// ListConnections GET /social/connections
func (h *SocialHandler) ListConnections(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ids, err := h.connections.ListConnectionIDs(userID)
	if err != nil {
		fail(c, err)
		return
	}
	users, err := h.directory.Users(c.Request.Context(), ids)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": users})
}

// ListFollowing GET /social/following
func (h *SocialHandler) ListFollowing(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ids, err := h.connections.ListFollowingIDs(userID)
	if err != nil {
		fail(c, err)
		return
	}
	users, err := h.directory.Users(c.Request.Context(), ids)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": users})
}

// Disconnect DELETE /social/connections/:userId
func (h *SocialHandler) Disconnect(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.connections.Disconnect(userID, c.Param("userId")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Disconnected"})
}
