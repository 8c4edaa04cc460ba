package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unihub-app/unihub-backend/internal/services"
)

// ChatHandler serves channels and messages.
type ChatHandler struct {
	chat *services.ChatService
}

func NewChatHandler(chat *services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type openDirectInput struct {
	UserID string `json:"userId" binding:"required"`
}

// OpenDirect POST /chat/direct
func (h *ChatHandler) OpenDirect(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input openDirectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	channel, err := h.chat.GetOrCreateDirectChannel(userID, input.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channel": channel})
}

// OpenGroup GET /chat/projects/:projectId
func (h *ChatHandler) OpenGroup(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	channel, err := h.chat.GetOrCreateGroupChannel(c.Param("projectId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channel": channel})
}

// ListChannels GET /chat/channels
func (h *ChatHandler) ListChannels(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	summaries, err := h.chat.ListChannels(userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": summaries})
}

type sendMessageInput struct {
	Content    string               `json:"content"`
	Attachment *services.Attachment `json:"attachment"`
}

// SendMessage POST /chat/channels/:id/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input sendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.chat.SendMessage(c.Param("id"), userID, input.Content, input.Attachment)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// ListMessages GET /chat/channels/:id/messages
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	messages, err := h.chat.ListMessages(c.Param("id"), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// MarkRead PUT /chat/channels/:id/read
func (h *ChatHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.chat.MarkChannelRead(c.Param("id"), userID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Channel marked read"})
}

type renameGroupInput struct {
	Name string `json:"name" binding:"required"`
}

// RenameGroup PUT /chat/channels/:id/name
func (h *ChatHandler) RenameGroup(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input renameGroupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.chat.RenameGroup(c.Param("id"), input.Name, userID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Channel renamed"})
}
