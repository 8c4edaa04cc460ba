package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationTypeProjectInvite      NotificationType = "PROJECT_INVITE"
	NotificationTypeProjectDecline     NotificationType = "PROJECT_DECLINE"
	NotificationTypeNewFollower        NotificationType = "NEW_FOLLOWER"
	NotificationTypeNewDM              NotificationType = "NEW_DM"
	NotificationTypeSystemAlert        NotificationType = "SYSTEM_ALERT"
	NotificationTypeConnectionAccepted NotificationType = "CONNECTION_ACCEPTED"
	NotificationTypeProjectJoinRequest NotificationType = "PROJECT_JOIN_REQUEST"
	NotificationTypeProjectRemoval     NotificationType = "PROJECT_REMOVAL"
	NotificationTypeProjectAccepted    NotificationType = "PROJECT_ACCEPTED"
	NotificationTypeNewEvent           NotificationType = "NEW_EVENT"
	NotificationTypeWelcomeMessage     NotificationType = "WELCOME_MESSAGE"
)

// IsActionable reports whether the kind expects a user decision (shown with
// accept/decline affordances). Read-side concern, not stored.
func (t NotificationType) IsActionable() bool {
	return t == NotificationTypeProjectInvite || t == NotificationTypeProjectJoinRequest
}

type Notification struct {
	ID     string           `gorm:"primaryKey;type:text" json:"id"`
	UserID string           `gorm:"index;type:text;not null" json:"userId"` // Recipient
	Type   NotificationType `gorm:"type:varchar(32);not null" json:"type"`

	Title   string `json:"title"`
	Message string `gorm:"type:text" json:"message"`

	// RelatedID points at a project, user or request depending on Type.
	RelatedID string `gorm:"index;type:text" json:"relatedId"`
	SenderID  string `gorm:"index;type:text" json:"senderId"`

	IsRead    bool      `gorm:"default:false" json:"isRead"`
	CreatedAt time.Time `json:"timestamp"`

	Sender User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	return
}
