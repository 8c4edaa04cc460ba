package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unihub-app/unihub-backend/internal/storage"
)

// UploadHandler streams multipart files into the asset store.
type UploadHandler struct {
	assets *storage.AssetStore
}

func NewUploadHandler(assets *storage.AssetStore) *UploadHandler {
	return &UploadHandler{assets: assets}
}

// Upload POST /upload?folder=...
func (h *UploadHandler) Upload(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	if h.assets == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "File storage not configured"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		// Older clients use different field names.
		file, header, err = c.Request.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No valid file field found"})
			return
		}
	}
	defer file.Close()

	folder := c.DefaultQuery("folder", "uploads")
	url, err := h.assets.Upload(c.Request.Context(), folder, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":      url,
		"mimetype": header.Header.Get("Content-Type"),
		"size":     header.Size,
	})
}

// UploadProjectCover POST /upload/project-cover
func (h *UploadHandler) UploadProjectCover(c *gin.Context) {
	c.Request.URL.RawQuery = "folder=unihub/covers"
	h.Upload(c)
}

// UploadChatAttachment POST /upload/chat
func (h *UploadHandler) UploadChatAttachment(c *gin.Context) {
	c.Request.URL.RawQuery = "folder=unihub/chat"
	h.Upload(c)
}

// UploadProfileImage POST /upload/profile
func (h *UploadHandler) UploadProfileImage(c *gin.Context) {
	c.Request.URL.RawQuery = "folder=unihub/profiles"
	h.Upload(c)
}
