package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConnectionRequestStatus represents the status of a connection request
type ConnectionRequestStatus string

const (
	ConnectionRequestPending  ConnectionRequestStatus = "PENDING"
	ConnectionRequestAccepted ConnectionRequestStatus = "ACCEPTED"
	ConnectionRequestRejected ConnectionRequestStatus = "REJECTED"
)

// ConnectionRequest is the pending edge of the connection state machine.
// Accepted requests are archived in place so retried accepts can recognize an
// already-resolved request; rejected requests are deleted.
type ConnectionRequest struct {
	ID         string                  `gorm:"primaryKey;type:text" json:"id"`
	SenderID   string                  `gorm:"index" json:"senderId"`
	Sender     User                    `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	ReceiverID string                  `gorm:"index" json:"receiverId"`
	Receiver   User                    `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
	Status     ConnectionRequestStatus `gorm:"type:text;default:'PENDING'" json:"status"`
	CreatedAt  time.Time               `json:"createdAt"`
	UpdatedAt  time.Time               `json:"updatedAt"`
}

func (cr *ConnectionRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if cr.ID == "" {
		cr.ID = uuid.New().String()
	}
	return
}

// UserConnection is one direction of a mutual connection. Acceptance inserts
// both directions, so listing a user's connections is a single indexed scan.
// The unique index makes concurrent inserts converge.
type UserConnection struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	UserID    string    `gorm:"uniqueIndex:idx_user_peer" json:"userId"`
	PeerID    string    `gorm:"uniqueIndex:idx_user_peer" json:"peerId"`
	Peer      User      `gorm:"foreignKey:PeerID" json:"peer,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (uc *UserConnection) BeforeCreate(tx *gorm.DB) (err error) {
	if uc.ID == "" {
		uc.ID = uuid.New().String()
	}
	return
}

// UserFollow is the asymmetric relation recorded when a connection request is
// accepted (requester follows the recipient).
type UserFollow struct {
	ID         string    `gorm:"primaryKey;type:text" json:"id"`
	FollowerID string    `gorm:"uniqueIndex:idx_follower_followed" json:"followerId"`
	FollowedID string    `gorm:"uniqueIndex:idx_follower_followed" json:"followedId"`
	Followed   User      `gorm:"foreignKey:FollowedID" json:"followed,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (uf *UserFollow) BeforeCreate(tx *gorm.DB) (err error) {
	if uf.ID == "" {
		uf.ID = uuid.New().String()
	}
	return
}
