package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unihub-app/unihub-backend/internal/models"
	"github.com/unihub-app/unihub-backend/internal/services"
	"gorm.io/gorm"
)

// UserHandler serves profile reads and updates through the directory cache.
type UserHandler struct {
	db        *gorm.DB
	directory *services.DirectoryService
}

func NewUserHandler(db *gorm.DB, directory *services.DirectoryService) *UserHandler {
	return &UserHandler{db: db, directory: directory}
}

// GetUser GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.directory.User(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// SearchUsers GET /users/search?q=
func (h *UserHandler) SearchUsers(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusOK, gin.H{"users": []models.User{}})
		return
	}

	users, err := h.directory.Search(query, userID, 20)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type updateProfileInput struct {
	Name           *string `json:"name"`
	Bio            *string `json:"bio"`
	Image          *string `json:"image"`
	University     *string `json:"university"`
	Course         *string `json:"course"`
	GraduationYear *int    `json:"graduationYear"`
}

// UpdateProfile PUT /users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input updateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Bio != nil {
		updates["bio"] = *input.Bio
	}
	if input.Image != nil {
		updates["image"] = *input.Image
	}
	if input.University != nil {
		updates["university"] = *input.University
	}
	if input.Course != nil {
		updates["course"] = *input.Course
	}
	if input.GraduationYear != nil {
		updates["graduation_year"] = *input.GraduationYear
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	if err := h.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}
	h.directory.Invalidate(c.Request.Context(), userID)

	var user models.User
	h.db.First(&user, "id = ?", userID)
	c.JSON(http.StatusOK, gin.H{"user": user})
}
