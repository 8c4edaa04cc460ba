package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
)

type ProjectMemberRole string

const (
	MemberRoleCreator ProjectMemberRole = "CREATOR"
	MemberRoleMember  ProjectMemberRole = "MEMBER"
)

type Project struct {
	ID        string         `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CreatorID string `gorm:"index;not null" json:"creatorId"`
	Creator   User   `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`

	Title               string         `gorm:"not null" json:"title"`
	Description         string         `gorm:"type:text" json:"description"`
	Tags                pq.StringArray `gorm:"type:text[]" json:"tags"`
	RecruitmentDeadline string         `json:"recruitmentDeadline"`
	TargetTeamSize      int            `gorm:"default:0" json:"targetTeamSize"`
	Status              ProjectStatus  `gorm:"type:text;default:'ACTIVE'" json:"status"`
	CoverImageURL       string         `json:"coverImageUrl"`

	Milestones []Milestone `gorm:"foreignKey:ProjectID" json:"milestones,omitempty"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}

type Milestone struct {
	ID          string    `gorm:"primaryKey;type:text" json:"id"`
	ProjectID   string    `gorm:"index;not null" json:"projectId"`
	Title       string    `gorm:"not null" json:"title"`
	IsCompleted bool      `gorm:"default:false" json:"isCompleted"`
	Position    int       `gorm:"default:0" json:"position"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (m *Milestone) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}

// Progress returns completed/total over milestones, 0 when there are none.
func Progress(milestones []Milestone) float64 {
	if len(milestones) == 0 {
		return 0
	}
	done := 0
	for _, m := range milestones {
		if m.IsCompleted {
			done++
		}
	}
	return float64(done) / float64(len(milestones))
}

// ProjectMember is one row of the ordered member list; ordering is by join
// time with the creator row first. The unique index keeps a user from being
// added twice by concurrent accepts.
type ProjectMember struct {
	ID        string            `gorm:"primaryKey;type:text" json:"id"`
	ProjectID string            `gorm:"uniqueIndex:idx_project_member;not null" json:"projectId"`
	UserID    string            `gorm:"uniqueIndex:idx_project_member;not null" json:"userId"`
	User      User              `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role      ProjectMemberRole `gorm:"type:text;default:'MEMBER'" json:"role"`
	CreatedAt time.Time         `json:"createdAt"`
}

func (pm *ProjectMember) BeforeCreate(tx *gorm.DB) (err error) {
	if pm.ID == "" {
		pm.ID = uuid.New().String()
	}
	return
}

// ProjectApplicant is the pending-applicant set.
// Invariant: a (project, user) pair never appears in both project_members and
// project_applicants; the membership service moves rows between the two in
// one transaction.
type ProjectApplicant struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	ProjectID string    `gorm:"uniqueIndex:idx_project_applicant;not null" json:"projectId"`
	UserID    string    `gorm:"uniqueIndex:idx_project_applicant;not null" json:"userId"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (pa *ProjectApplicant) BeforeCreate(tx *gorm.DB) (err error) {
	if pa.ID == "" {
		pa.ID = uuid.New().String()
	}
	return
}
