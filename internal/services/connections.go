package services

import (
	"sort"

	"github.com/unihub-app/unihub-backend/internal/models"
	"github.com/unihub-app/unihub-backend/internal/realtime"
	"github.com/unihub-app/unihub-backend/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConnectionService owns the connection-request state machine and the
// resulting mutual link rows. All multi-row mutations run in a transaction
// with set-style inserts/deletes so concurrent duplicate calls converge.
type ConnectionService struct {
	db     *gorm.DB
	notifs *NotificationService
	hub    *realtime.Hub
}

func NewConnectionService(db *gorm.DB, notifs *NotificationService, hub *realtime.Hub) *ConnectionService {
	return &ConnectionService{db: db, notifs: notifs, hub: hub}
}

// SendRequest creates a pending connection request from -> to and notifies
// the target. A retry that races an identical pending request returns the
// existing request rather than an error.
func (s *ConnectionService) SendRequest(fromID, toID string) (*models.ConnectionRequest, error) {
	if fromID == toID {
		return nil, errors.ErrInvalidTarget
	}

	var target models.User
	if err := s.db.Select("id").First(&target, "id = ?", toID).Error; err != nil {
		return nil, errors.NotFound("User not found")
	}

	var connCount int64
	s.db.Model(&models.UserConnection{}).
		Where("user_id = ? AND peer_id = ?", fromID, toID).
		Count(&connCount)
	if connCount > 0 {
		return nil, errors.ErrAlreadyConnected
	}

	// Pending request in either direction blocks a new one; returning the
	// existing row makes a double-tap a no-op success.
	var existing models.ConnectionRequest
	err := s.db.Where(
		"((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)) AND status = ?",
		fromID, toID, toID, fromID, models.ConnectionRequestPending,
	).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, errors.Internal("failed to check pending requests")
	}

	req := models.ConnectionRequest{
		SenderID:   fromID,
		ReceiverID: toID,
		Status:     models.ConnectionRequestPending,
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&req).Error; err != nil {
			return err
		}
		return s.notifs.EmitTx(tx, models.Notification{
			UserID:    toID,
			Type:      models.NotificationTypeNewFollower,
			Title:     "New connection request",
			Message:   "wants to connect with you",
			RelatedID: req.ID,
			SenderID:  fromID,
		})
	})
	if txErr != nil {
		return nil, errors.Internal("failed to create connection request")
	}

	s.hub.Publish(realtime.TopicUserRequests(toID), "connection_request", req)
	return &req, nil
}

// AcceptRequest resolves a pending request addressed to callerID. The request
// row is archived as ACCEPTED so a duplicate tap finds the resolved row and
// returns success without re-applying side effects.
func (s *ConnectionService) AcceptRequest(requestID, callerID string) error {
	var req models.ConnectionRequest
	if err := s.db.First(&req, "id = ?", requestID).Error; err != nil {
		return errors.NotFound("Request not found")
	}

	if req.ReceiverID != callerID {
		return errors.ErrForbidden
	}

	if req.Status == models.ConnectionRequestAccepted {
		return nil // already resolved, no-op
	}
	if req.Status != models.ConnectionRequestPending {
		return errors.ErrAlreadyResolved
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Flip only if still pending; a concurrent accept loses the race and
		// applies nothing.
		res := tx.Model(&models.ConnectionRequest{}).
			Where("id = ? AND status = ?", requestID, models.ConnectionRequestPending).
			Update("status", models.ConnectionRequestAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		links := []models.UserConnection{
			{UserID: req.SenderID, PeerID: req.ReceiverID},
			{UserID: req.ReceiverID, PeerID: req.SenderID},
		}
		inserted := int64(0)
		for i := range links {
			r := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links[i])
			if r.Error != nil {
				return r.Error
			}
			inserted += r.RowsAffected
		}

		follow := models.UserFollow{FollowerID: req.SenderID, FollowedID: req.ReceiverID}
		fr := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&follow)
		if fr.Error != nil {
			return fr.Error
		}

		// Counters move only when link rows were actually created, in
		// deterministic id order to avoid deadlocks between concurrent
		// accepts.
		if inserted > 0 {
			ids := []string{req.SenderID, req.ReceiverID}
			sort.Strings(ids)
			for _, id := range ids {
				if err := tx.Model(&models.User{}).Where("id = ?", id).
					UpdateColumn("connectionsCount", gorm.Expr(`"connectionsCount" + 1`)).Error; err != nil {
					return err
				}
			}
		}
		if fr.RowsAffected > 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", req.SenderID).
				UpdateColumn("followingCount", gorm.Expr(`"followingCount" + 1`)).Error; err != nil {
				return err
			}
		}

		return s.notifs.EmitTx(tx, models.Notification{
			UserID:    req.SenderID,
			Type:      models.NotificationTypeConnectionAccepted,
			Title:     "Connection accepted",
			Message:   "accepted your connection request",
			RelatedID: req.ID,
			SenderID:  req.ReceiverID,
		})
	})
	if err != nil {
		return errors.Internal("failed to accept request")
	}

	s.hub.Publish(realtime.TopicUserRequests(callerID), "request_resolved", req.ID)
	return nil
}

// RejectRequest deletes a pending request. A retried reject on a missing row
// succeeds as a no-op.
func (s *ConnectionService) RejectRequest(requestID, callerID string) error {
	var req models.ConnectionRequest
	if err := s.db.First(&req, "id = ?", requestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return errors.Internal("failed to load request")
	}

	if req.ReceiverID != callerID {
		return errors.ErrForbidden
	}
	if req.Status != models.ConnectionRequestPending {
		return errors.ErrAlreadyResolved
	}

	if err := s.db.Delete(&req).Error; err != nil {
		return errors.Internal("failed to reject request")
	}

	s.hub.Publish(realtime.TopicUserRequests(callerID), "request_resolved", req.ID)
	return nil
}

// ListIncoming returns pending requests addressed to the user, sender
// preloaded for inbox rendering.
func (s *ConnectionService) ListIncoming(userID string) ([]models.ConnectionRequest, error) {
	var requests []models.ConnectionRequest
	err := s.db.Preload("Sender").
		Where("receiver_id = ? AND status = ?", userID, models.ConnectionRequestPending).
		Order("created_at desc").
		Find(&requests).Error
	if err != nil {
		return nil, errors.Internal("failed to fetch requests")
	}
	return requests, nil
}

// ListConnectionIDs returns the ids of the user's mutual connections; the
// Directory hydrates full profiles on demand.
func (s *ConnectionService) ListConnectionIDs(userID string) ([]string, error) {
	var ids []string
	err := s.db.Model(&models.UserConnection{}).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Pluck("peer_id", &ids).Error
	if err != nil {
		return nil, errors.Internal("failed to fetch connections")
	}
	return ids, nil
}

// ListFollowingIDs returns ids of users this user follows.
func (s *ConnectionService) ListFollowingIDs(userID string) ([]string, error) {
	var ids []string
	err := s.db.Model(&models.UserFollow{}).
		Where("follower_id = ?", userID).
		Order("created_at desc").
		Pluck("followed_id", &ids).Error
	if err != nil {
		return nil, errors.Internal("failed to fetch following")
	}
	return ids, nil
}

// Disconnect removes the mutual link between two users. Idempotent: absent
// rows mean nothing to do.
func (s *ConnectionService) Disconnect(userID, peerID string) error {
	if userID == peerID {
		return errors.ErrInvalidTarget
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where(
			"(user_id = ? AND peer_id = ?) OR (user_id = ? AND peer_id = ?)",
			userID, peerID, peerID, userID,
		).Delete(&models.UserConnection{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		var follows []models.UserFollow
		tx.Where(
			"(follower_id = ? AND followed_id = ?) OR (follower_id = ? AND followed_id = ?)",
			userID, peerID, peerID, userID,
		).Find(&follows)
		for _, f := range follows {
			if err := tx.Delete(&models.UserFollow{}, "id = ?", f.ID).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.User{}).Where("id = ?", f.FollowerID).
				UpdateColumn("followingCount", gorm.Expr(`CASE WHEN "followingCount" > 0 THEN "followingCount" - 1 ELSE 0 END`)).Error; err != nil {
				return err
			}
		}

		ids := []string{userID, peerID}
		sort.Strings(ids)
		for _, id := range ids {
			if err := tx.Model(&models.User{}).Where("id = ?", id).
				UpdateColumn("connectionsCount", gorm.Expr(`CASE WHEN "connectionsCount" > 0 THEN "connectionsCount" - 1 ELSE 0 END`)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
