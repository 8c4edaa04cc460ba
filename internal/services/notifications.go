package services

import (
	"github.com/unihub-app/unihub-backend/internal/models"
	"github.com/unihub-app/unihub-backend/internal/realtime"
	"github.com/unihub-app/unihub-backend/pkg/errors"
	"github.com/unihub-app/unihub-backend/pkg/logger"
	"gorm.io/gorm"
)

// NotificationService owns the notifications collection: append on behalf of
// the component performing a transition, read/unread state for the recipient.
type NotificationService struct {
	db  *gorm.DB
	hub *realtime.Hub
}

func NewNotificationService(db *gorm.DB, hub *realtime.Hub) *NotificationService {
	return &NotificationService{db: db, hub: hub}
}

// Emit appends a notification and pushes it to the recipient's live stream.
func (s *NotificationService) Emit(n models.Notification) error {
	return s.EmitTx(s.db, n)
}

// EmitTx appends inside the caller's transaction so the notification commits
// or rolls back together with the transition that caused it.
func (s *NotificationService) EmitTx(tx *gorm.DB, n models.Notification) error {
	if n.UserID == "" {
		return errors.BadRequest("notification requires a recipient")
	}

	if err := tx.Create(&n).Error; err != nil {
		return errors.Internal("failed to create notification")
	}

	s.hub.Publish(realtime.TopicUserNotifications(n.UserID), "notification", n)
	return nil
}

// List returns the recipient's inbox, newest first.
func (s *NotificationService) List(userID string, unreadOnly bool) ([]models.Notification, error) {
	q := s.db.Preload("Sender").Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}

	var notifications []models.Notification
	if err := q.Order("created_at desc").Limit(100).Find(&notifications).Error; err != nil {
		return nil, errors.Internal("failed to fetch notifications")
	}
	return notifications, nil
}

func (s *NotificationService) UnreadCount(userID string) (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, errors.Internal("failed to count notifications")
	}
	return count, nil
}

// MarkRead flips the given notifications to read. Scoped to the owner, so ids
// belonging to other users are ignored; already-read ids are no-ops. Returns
// the number of rows actually updated.
func (s *NotificationService) MarkRead(userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND id IN ? AND is_read = ?", userID, ids, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, errors.Internal("failed to mark notifications read")
	}
	return res.RowsAffected, nil
}

func (s *NotificationService) MarkAllRead(userID string) error {
	err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
	if err != nil {
		return errors.Internal("failed to mark notifications read")
	}
	return nil
}

// Delete removes one notification, owner-checked.
func (s *NotificationService) Delete(userID, id string) error {
	var n models.Notification
	if err := s.db.First(&n, "id = ?", id).Error; err != nil {
		return errors.NotFound("Notification not found")
	}
	if n.UserID != userID {
		return errors.ErrForbidden
	}
	if err := s.db.Delete(&n).Error; err != nil {
		return errors.Internal("failed to delete notification")
	}
	return nil
}

// DeleteResolvedTx removes actionable notifications that point at relatedID so
// resolved invites and join requests do not linger in the inbox. Used inside
// the membership transactions.
func (s *NotificationService) DeleteResolvedTx(tx *gorm.DB, userID, relatedID string, types ...models.NotificationType) error {
	return tx.Where("user_id = ? AND related_id = ? AND type IN ?", userID, relatedID, types).
		Delete(&models.Notification{}).Error
}

// Broadcast appends the same notification for every user, in batches. Used
// for SYSTEM_ALERT and NEW_EVENT announcements.
func (s *NotificationService) Broadcast(typ models.NotificationType, title, message, relatedID string) error {
	var ids []string
	if err := s.db.Model(&models.User{}).Pluck("id", &ids).Error; err != nil {
		return errors.Internal("failed to list recipients")
	}

	batch := make([]models.Notification, 0, len(ids))
	for _, id := range ids {
		batch = append(batch, models.Notification{
			UserID:    id,
			Type:      typ,
			Title:     title,
			Message:   message,
			RelatedID: relatedID,
		})
	}
	if len(batch) == 0 {
		return nil
	}
	if err := s.db.CreateInBatches(batch, 500).Error; err != nil {
		return errors.Internal("failed to broadcast notification")
	}

	for _, n := range batch {
		s.hub.Publish(realtime.TopicUserNotifications(n.UserID), "notification", n)
	}
	logger.Info().Str("type", string(typ)).Int("recipients", len(batch)).Msg("broadcast notification")
	return nil
}
