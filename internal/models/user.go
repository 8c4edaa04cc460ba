package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID        string         `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name     string `json:"name"`
	Email    string `gorm:"uniqueIndex" json:"email"`
	Username string `gorm:"uniqueIndex" json:"username"`
	Image    string `json:"image"`
	Bio      string `json:"bio"`

	// Student profile
	University     string `json:"university"`
	Course         string `json:"course"`
	GraduationYear int    `json:"graduationYear"`

	Role Role `gorm:"type:text;default:'USER'" json:"role"`

	// Cached counters. Only the service owning the transition writes these,
	// always via SQL expressions.
	ConnectionsCount  int `gorm:"column:connectionsCount;default:0" json:"connectionsCount"`
	FollowingCount    int `gorm:"column:followingCount;default:0" json:"followingCount"`
	ProjectsCompleted int `gorm:"column:projectsCompleted;default:0" json:"projectsCompleted"`

	Password string `json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}
