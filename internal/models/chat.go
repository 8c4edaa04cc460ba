package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChannelType string

const (
	ChannelTypeDirect       ChannelType = "DIRECT"
	ChannelTypeProjectGroup ChannelType = "PROJECT_GROUP"
)

// ChatChannel is a direct or project-group conversation. Direct channel ids
// are derived from the participant pair (utils.DirectChannelID) so exactly one
// exists per pair; group channels are keyed by project via the unique index.
// The last* fields are a denormalized preview owned by the chat service.
type ChatChannel struct {
	ID        string      `gorm:"primaryKey;type:text" json:"id"`
	Type      ChannelType `gorm:"type:text;not null" json:"type"`
	ProjectID *string     `gorm:"uniqueIndex;type:text" json:"projectId,omitempty"`

	GroupName     string `json:"groupName"`
	GroupImageURL string `json:"groupImageUrl"`

	LastMessage   string     `json:"lastMessage"`
	LastMessageAt *time.Time `json:"lastMessageTimestamp"`
	LastSenderID  string     `json:"lastSenderId"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (cc *ChatChannel) BeforeCreate(tx *gorm.DB) (err error) {
	if cc.ID == "" {
		cc.ID = uuid.New().String()
	}
	return
}

// ChannelParticipant tracks who is in a channel. LastReadAt drives derived
// unread counts; it is never written by message sends.
type ChannelParticipant struct {
	ID         string     `gorm:"primaryKey;type:text" json:"id"`
	ChannelID  string     `gorm:"uniqueIndex:idx_channel_user;not null" json:"channelId"`
	UserID     string     `gorm:"uniqueIndex:idx_channel_user;not null" json:"userId"`
	User       User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	LastReadAt *time.Time `json:"lastReadAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func (cp *ChannelParticipant) BeforeCreate(tx *gorm.DB) (err error) {
	if cp.ID == "" {
		cp.ID = uuid.New().String()
	}
	return
}

type Message struct {
	ID        string `gorm:"primaryKey;type:text" json:"id"`
	ChannelID string `gorm:"index;type:text;not null" json:"channelId"`

	SenderID   string `gorm:"index;type:text;not null" json:"senderId"`
	SenderName string `json:"senderName,omitempty"`
	Content    string `gorm:"type:text" json:"content"`

	// Attachment descriptor, all optional
	AttachmentURL  string `json:"attachmentUrl,omitempty"`
	AttachmentType string `json:"attachmentType,omitempty"`
	AttachmentName string `json:"attachmentName,omitempty"`
	AttachmentSize int64  `json:"attachmentSize,omitempty"`

	IsRead    bool      `gorm:"default:false" json:"isRead"`
	CreatedAt time.Time `json:"timestamp"`

	Sender User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}

// HasBody reports whether the message carries content or an attachment.
func (m *Message) HasBody() bool {
	return m.Content != "" || m.AttachmentURL != ""
}
