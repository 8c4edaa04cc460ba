package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unihub-app/unihub-backend/internal/models"
	"github.com/unihub-app/unihub-backend/internal/services"
)

// NotificationHandler serves the recipient-facing notification endpoints.
type NotificationHandler struct {
	notifs *services.NotificationService
}

func NewNotificationHandler(notifs *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifs: notifs}
}

// List GET /notifications?unread=true
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	notifications, err := h.notifs.List(userID, c.Query("unread") == "true")
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// UnreadCount GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	count, err := h.notifs.UnreadCount(userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

type markReadInput struct {
	IDs []string `json:"ids" binding:"required"`
}

// MarkRead PUT /notifications/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input markReadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.notifs.MarkRead(userID, input.IDs)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// MarkAllRead PUT /notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.notifs.MarkAllRead(userID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All marked as read"})
}

// Delete DELETE /notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.notifs.Delete(userID, c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
}

type broadcastInput struct {
	Type      models.NotificationType `json:"type" binding:"required"`
	Title     string                  `json:"title" binding:"required"`
	Message   string                  `json:"message"`
	RelatedID string                  `json:"relatedId"`
}

// Broadcast POST /admin/notifications/broadcast. Admin-only via middleware.
func (h *NotificationHandler) Broadcast(c *gin.Context) {
	var input broadcastInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Type != models.NotificationTypeSystemAlert && input.Type != models.NotificationTypeNewEvent {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only SYSTEM_ALERT and NEW_EVENT can be broadcast"})
		return
	}

	if err := h.notifs.Broadcast(input.Type, input.Title, input.Message, input.RelatedID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Broadcast sent"})
}
