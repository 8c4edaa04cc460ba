package services

import (
	"time"

	"github.com/unihub-app/unihub-backend/internal/models"
	"github.com/unihub-app/unihub-backend/internal/realtime"
	"github.com/unihub-app/unihub-backend/pkg/errors"
	"github.com/unihub-app/unihub-backend/pkg/logger"
	"github.com/unihub-app/unihub-backend/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatService provisions direct and project-group channels and owns the
// denormalized last-message preview on each channel.
type ChatService struct {
	db     *gorm.DB
	notifs *NotificationService
	hub    *realtime.Hub
}

func NewChatService(db *gorm.DB, notifs *NotificationService, hub *realtime.Hub) *ChatService {
	return &ChatService{db: db, notifs: notifs, hub: hub}
}

// Attachment is the optional file descriptor on a message.
type Attachment struct {
	URL  string `json:"url"`
	Type string `json:"type"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// ChannelSummary is a channel plus the caller's derived unread count.
type ChannelSummary struct {
	Channel     models.ChatChannel `json:"channel"`
	UnreadCount int64              `json:"unreadCount"`
}

// GetOrCreateDirectChannel returns the single direct channel between two
// users, creating it with empty preview fields on first use. The id is
// derived locally, so concurrent first messages from both sides converge on
// the same row.
func (s *ChatService) GetOrCreateDirectChannel(userA, userB string) (*models.ChatChannel, error) {
	if userA == userB {
		return nil, errors.ErrInvalidTarget
	}
	channelID, err := utils.DirectChannelID(userA, userB)
	if err != nil {
		return nil, errors.BadRequest("invalid participant id")
	}

	var count int64
	s.db.Model(&models.User{}).Where("id IN ?", []string{userA, userB}).Count(&count)
	if count != 2 {
		return nil, errors.NotFound("User not found")
	}

	channel := models.ChatChannel{
		ID:   channelID,
		Type: models.ChannelTypeDirect,
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&channel).Error; err != nil {
			return err
		}
		participants := []models.ChannelParticipant{
			{ChannelID: channelID, UserID: userA},
			{ChannelID: channelID, UserID: userB},
		}
		for i := range participants {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&participants[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, errors.Internal("failed to create channel")
	}

	var out models.ChatChannel
	if err := s.db.First(&out, "id = ?", channelID).Error; err != nil {
		return nil, errors.Internal("failed to load channel")
	}
	return &out, nil
}

// GetOrCreateGroupChannel ensures the project's single group channel exists,
// seeded with the project's current members.
func (s *ChatService) GetOrCreateGroupChannel(projectID string) (*models.ChatChannel, error) {
	var project models.Project
	if err := s.db.First(&project, "id = ?", projectID).Error; err != nil {
		return nil, errors.NotFound("Project not found")
	}

	var channel *models.ChatChannel
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		channel, err = s.EnsureGroupChannelTx(tx, &project)
		return err
	})
	if txErr != nil {
		return nil, errors.Internal("failed to create group channel")
	}
	return channel, nil
}

// EnsureGroupChannelTx is the transactional create-if-absent used both by the
// public accessor and by the membership service when an accept activates the
// project's chat.
func (s *ChatService) EnsureGroupChannelTx(tx *gorm.DB, project *models.Project) (*models.ChatChannel, error) {
	var channel models.ChatChannel
	err := tx.Where("project_id = ?", project.ID).First(&channel).Error
	if err == gorm.ErrRecordNotFound {
		pid := project.ID
		channel = models.ChatChannel{
			Type:      models.ChannelTypeProjectGroup,
			ProjectID: &pid,
			GroupName: project.Title,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&channel).Error; err != nil {
			return nil, err
		}
		// A concurrent creator may have won the conflict; re-read by project.
		if err := tx.Where("project_id = ?", project.ID).First(&channel).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	var memberIDs []string
	if err := tx.Model(&models.ProjectMember{}).
		Where("project_id = ?", project.ID).
		Pluck("user_id", &memberIDs).Error; err != nil {
		return nil, err
	}
	for _, uid := range memberIDs {
		p := models.ChannelParticipant{ChannelID: channel.ID, UserID: uid}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&p).Error; err != nil {
			return nil, err
		}
	}
	return &channel, nil
}

// AddParticipantTx adds one user to a channel, converging under concurrent calls.
func (s *ChatService) AddParticipantTx(tx *gorm.DB, channelID, userID string) error {
	p := models.ChannelParticipant{ChannelID: channelID, UserID: userID}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&p).Error
}

// RemoveParticipantTx removes one user from a channel; absent rows are a no-op.
func (s *ChatService) RemoveParticipantTx(tx *gorm.DB, channelID, userID string) error {
	return tx.Where("channel_id = ? AND user_id = ?", channelID, userID).
		Delete(&models.ChannelParticipant{}).Error
}

// SendMessage appends a message and updates the channel preview in the same
// transaction, so list consumers never observe one without the other.
// NEW_DM notifications and realtime pushes happen post-commit and are
// best-effort.
func (s *ChatService) SendMessage(channelID, senderID, content string, attachment *Attachment) (*models.Message, error) {
	msg := models.Message{
		ChannelID: channelID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if attachment != nil {
		msg.AttachmentURL = attachment.URL
		msg.AttachmentType = attachment.Type
		msg.AttachmentName = attachment.Name
		msg.AttachmentSize = attachment.Size
	}
	if !msg.HasBody() {
		return nil, errors.ErrEmptyMessage
	}

	var channel models.ChatChannel
	if err := s.db.First(&channel, "id = ?", channelID).Error; err != nil {
		return nil, errors.NotFound("Channel not found")
	}

	var member int64
	s.db.Model(&models.ChannelParticipant{}).
		Where("channel_id = ? AND user_id = ?", channelID, senderID).
		Count(&member)
	if member == 0 {
		return nil, errors.ErrForbidden
	}

	var sender models.User
	if err := s.db.Select("id", "name", "username").First(&sender, "id = ?", senderID).Error; err == nil {
		msg.SenderName = sender.Name
	}

	preview := msg.Content
	if preview == "" {
		preview = "Sent an attachment"
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.ChatChannel{}).Where("id = ?", channelID).
			Updates(map[string]interface{}{
				"last_message":    preview,
				"last_message_at": msg.CreatedAt,
				"last_sender_id":  senderID,
			}).Error
	})
	if txErr != nil {
		return nil, errors.Internal("failed to send message")
	}

	s.hub.Publish(realtime.TopicChannelMessages(channelID), "receive_message", msg)

	// Fan out to the other participants. A failed notification must not fail
	// the send.
	go func() {
		var peerIDs []string
		if err := s.db.Model(&models.ChannelParticipant{}).
			Where("channel_id = ? AND user_id <> ?", channelID, senderID).
			Pluck("user_id", &peerIDs).Error; err != nil {
			logger.Warn().Err(err).Str("channel_id", channelID).Msg("failed to load peers for DM fan-out")
			return
		}
		for _, peer := range peerIDs {
			s.hub.Publish(realtime.TopicUserChannels(peer), "channel_updated", channelID)
			err := s.notifs.Emit(models.Notification{
				UserID:    peer,
				Type:      models.NotificationTypeNewDM,
				Title:     "New message",
				Message:   preview,
				RelatedID: channelID,
				SenderID:  senderID,
			})
			if err != nil {
				logger.Warn().Err(err).Str("user_id", peer).Msg("DM notification failed")
			}
		}
	}()

	return &msg, nil
}

// ListMessages returns a channel's messages oldest-first. Caller must be a
// participant.
func (s *ChatService) ListMessages(channelID, userID string) ([]models.Message, error) {
	var member int64
	s.db.Model(&models.ChannelParticipant{}).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		Count(&member)
	if member == 0 {
		return nil, errors.ErrForbidden
	}

	var messages []models.Message
	err := s.db.Where("channel_id = ?", channelID).
		Order("created_at asc").
		Find(&messages).Error
	if err != nil {
		return nil, errors.Internal("failed to fetch messages")
	}
	return messages, nil
}

// ListChannels returns the user's channels ordered by preview recency, with
// unread counts derived from the participant's last-read timestamp.
func (s *ChatService) ListChannels(userID string) ([]ChannelSummary, error) {
	var participants []models.ChannelParticipant
	if err := s.db.Where("user_id = ?", userID).Find(&participants).Error; err != nil {
		return nil, errors.Internal("failed to fetch channels")
	}
	if len(participants) == 0 {
		return []ChannelSummary{}, nil
	}

	lastRead := make(map[string]*time.Time, len(participants))
	channelIDs := make([]string, 0, len(participants))
	for _, p := range participants {
		channelIDs = append(channelIDs, p.ChannelID)
		lastRead[p.ChannelID] = p.LastReadAt
	}

	var channels []models.ChatChannel
	err := s.db.Where("id IN ?", channelIDs).
		Order("last_message_at desc").
		Find(&channels).Error
	if err != nil {
		return nil, errors.Internal("failed to fetch channels")
	}

	summaries := make([]ChannelSummary, 0, len(channels))
	for _, ch := range channels {
		q := s.db.Model(&models.Message{}).
			Where("channel_id = ? AND sender_id <> ?", ch.ID, userID)
		if t := lastRead[ch.ID]; t != nil {
			q = q.Where("created_at > ?", *t)
		}
		var unread int64
		q.Count(&unread)
		summaries = append(summaries, ChannelSummary{Channel: ch, UnreadCount: unread})
	}
	return summaries, nil
}

// MarkChannelRead stamps the participant's last-read marker. Unread counts
// are derived, so this is the only write a read performs.
func (s *ChatService) MarkChannelRead(channelID, userID string) error {
	now := time.Now()
	res := s.db.Model(&models.ChannelParticipant{}).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		Update("last_read_at", now)
	if res.Error != nil {
		return errors.Internal("failed to mark channel read")
	}
	if res.RowsAffected == 0 {
		return errors.ErrForbidden
	}

	// Per-message read flags for DM read receipts.
	s.db.Model(&models.Message{}).
		Where("channel_id = ? AND sender_id <> ? AND is_read = ?", channelID, userID, false).
		Update("is_read", true)
	return nil
}

// RenameGroup renames a project-group channel. Only the project creator may
// rename; the project lookup is the authority.
func (s *ChatService) RenameGroup(channelID, newName, callerID string) error {
	if newName == "" {
		return errors.BadRequest("name required")
	}

	var channel models.ChatChannel
	if err := s.db.First(&channel, "id = ?", channelID).Error; err != nil {
		return errors.NotFound("Channel not found")
	}
	if channel.Type != models.ChannelTypeProjectGroup || channel.ProjectID == nil {
		return errors.BadRequest("not a group channel")
	}

	var project models.Project
	if err := s.db.First(&project, "id = ?", *channel.ProjectID).Error; err != nil {
		return errors.NotFound("Project not found")
	}
	if project.CreatorID != callerID {
		return errors.ErrForbidden
	}

	if err := s.db.Model(&channel).Update("group_name", newName).Error; err != nil {
		return errors.Internal("failed to rename channel")
	}
	return nil
}

// DeleteChannelTx removes a channel with its participants and messages.
// Used by project deletion.
func (s *ChatService) DeleteChannelTx(tx *gorm.DB, channelID string) error {
	if err := tx.Where("channel_id = ?", channelID).Delete(&models.Message{}).Error; err != nil {
		return err
	}
	if err := tx.Where("channel_id = ?", channelID).Delete(&models.ChannelParticipant{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.ChatChannel{}, "id = ?", channelID).Error
}
