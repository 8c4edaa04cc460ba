package services

import (
	"context"

	"github.com/unihub-app/unihub-backend/internal/models"
	"github.com/unihub-app/unihub-backend/internal/realtime"
	"github.com/unihub-app/unihub-backend/pkg/errors"
	"github.com/unihub-app/unihub-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssetRemover deletes a stored asset by its public URL. Implemented by the
// storage package; a nil remover disables the cascade.
type AssetRemover interface {
	DeleteByURL(ctx context.Context, url string) error
}

// MembershipEventKind distinguishes the two ways a user ends up a member:
// the creator accepting a join request, or the invitee accepting an invite.
// Both resolve through the same path.
type MembershipEventKind string

const (
	MembershipEventJoinRequest MembershipEventKind = "JOIN_REQUEST"
	MembershipEventInvite      MembershipEventKind = "INVITE"
)

// ProjectService owns the project membership lifecycle: applications,
// invites, accept/reject, removal, status and deletion.
type ProjectService struct {
	db     *gorm.DB
	notifs *NotificationService
	chat   *ChatService
	hub    *realtime.Hub
	assets AssetRemover
}

func NewProjectService(db *gorm.DB, notifs *NotificationService, chat *ChatService, hub *realtime.Hub, assets AssetRemover) *ProjectService {
	return &ProjectService{db: db, notifs: notifs, chat: chat, hub: hub, assets: assets}
}

// ProjectInput is the creator-supplied part of a project.
type ProjectInput struct {
	Title               string   `json:"title" binding:"required"`
	Description         string   `json:"description"`
	Tags                []string `json:"tags"`
	RecruitmentDeadline string   `json:"recruitmentDeadline"`
	TargetTeamSize      int      `json:"targetTeamSize"`
	CoverImageURL       string   `json:"coverImageUrl"`
}

// ProjectDetail is a project with its hydrated member and applicant lists.
type ProjectDetail struct {
	models.Project
	Members    []models.ProjectMember    `json:"members"`
	Applicants []models.ProjectApplicant `json:"pendingApplicants"`
	Progress   float64                   `json:"progress"`
}

// CreateProject creates the project with the creator as its first member.
func (s *ProjectService) CreateProject(creatorID string, in ProjectInput) (*models.Project, error) {
	project := models.Project{
		CreatorID:           creatorID,
		Title:               in.Title,
		Description:         in.Description,
		Tags:                in.Tags,
		RecruitmentDeadline: in.RecruitmentDeadline,
		TargetTeamSize:      in.TargetTeamSize,
		CoverImageURL:       in.CoverImageURL,
		Status:              models.ProjectStatusActive,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		member := models.ProjectMember{
			ProjectID: project.ID,
			UserID:    creatorID,
			Role:      models.MemberRoleCreator,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, errors.Internal("failed to create project")
	}
	return &project, nil
}

// GetProject returns the project with members (join order, creator first),
// pending applicants and milestone progress.
func (s *ProjectService) GetProject(projectID string) (*ProjectDetail, error) {
	var project models.Project
	if err := s.db.Preload("Milestones", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc, created_at asc")
	}).First(&project, "id = ?", projectID).Error; err != nil {
		return nil, errors.NotFound("Project not found")
	}

	detail := &ProjectDetail{Project: project, Progress: models.Progress(project.Milestones)}

	if err := s.db.Preload("User").
		Where("project_id = ?", projectID).
		Order("created_at asc").
		Find(&detail.Members).Error; err != nil {
		return nil, errors.Internal("failed to fetch members")
	}
	if err := s.db.Preload("User").
		Where("project_id = ?", projectID).
		Order("created_at asc").
		Find(&detail.Applicants).Error; err != nil {
		return nil, errors.Internal("failed to fetch applicants")
	}
	return detail, nil
}

// ListProjects returns recently created projects, optionally only active ones.
func (s *ProjectService) ListProjects(activeOnly bool) ([]models.Project, error) {
	q := s.db.Preload("Creator").Order("created_at desc").Limit(50)
	if activeOnly {
		q = q.Where("status = ?", models.ProjectStatusActive)
	}
	var projects []models.Project
	if err := q.Find(&projects).Error; err != nil {
		return nil, errors.Internal("failed to fetch projects")
	}
	return projects, nil
}

// ListByUser returns projects the user is a member of, join order.
func (s *ProjectService) ListByUser(userID string) ([]models.Project, error) {
	var ids []string
	if err := s.db.Model(&models.ProjectMember{}).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Pluck("project_id", &ids).Error; err != nil {
		return nil, errors.Internal("failed to fetch memberships")
	}
	if len(ids) == 0 {
		return []models.Project{}, nil
	}
	var projects []models.Project
	if err := s.db.Where("id IN ?", ids).Find(&projects).Error; err != nil {
		return nil, errors.Internal("failed to fetch projects")
	}
	return projects, nil
}

// RequestToJoin adds the applicant to the pending set and notifies the
// creator. The unique index keeps a double-tap from creating two rows.
func (s *ProjectService) RequestToJoin(projectID, applicantID string) error {
	var project models.Project
	if err := s.db.First(&project, "id = ?", projectID).Error; err != nil {
		return errors.NotFound("Project not found")
	}

	var memberCount int64
	s.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, applicantID).
		Count(&memberCount)
	if memberCount > 0 {
		return errors.ErrAlreadyMember
	}

	applicant := models.ProjectApplicant{ProjectID: projectID, UserID: applicantID}
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&applicant)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.ErrAlreadyPending
		}
		return s.notifs.EmitTx(tx, models.Notification{
			UserID:    project.CreatorID,
			Type:      models.NotificationTypeProjectJoinRequest,
			Title:     "Join request",
			Message:   "wants to join " + project.Title,
			RelatedID: projectID,
			SenderID:  applicantID,
		})
	})
	if txErr != nil {
		if appErr, ok := txErr.(*errors.AppError); ok {
			return appErr
		}
		return errors.Internal("failed to request to join")
	}
	return nil
}

// Invite notifies the target about the project. It deliberately does not
// touch the applicant set; the target becomes a member only by accepting.
// A still-unread invite to the same target is a no-op.
func (s *ProjectService) Invite(projectID, targetID, callerID string) error {
	var project models.Project
	if err := s.db.First(&project, "id = ?", projectID).Error; err != nil {
		return errors.NotFound("Project not found")
	}
	if project.CreatorID != callerID {
		return errors.ErrForbidden
	}
	if targetID == callerID {
		return errors.ErrInvalidTarget
	}

	var target models.User
	if err := s.db.Select("id").First(&target, "id = ?", targetID).Error; err != nil {
		return errors.NotFound("User not found")
	}

	var memberCount int64
	s.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, targetID).
		Count(&memberCount)
	if memberCount > 0 {
		return errors.ErrAlreadyMember
	}

	var pendingInvites int64
	s.db.Model(&models.Notification{}).
		Where("user_id = ? AND related_id = ? AND type = ?", targetID, projectID, models.NotificationTypeProjectInvite).
		Count(&pendingInvites)
	if pendingInvites > 0 {
		return nil
	}

	return s.notifs.Emit(models.Notification{
		UserID:    targetID,
		Type:      models.NotificationTypeProjectInvite,
		Title:     "Project invite",
		Message:   "invited you to join " + project.Title,
		RelatedID: projectID,
		SenderID:  callerID,
	})
}

// ResolveMembership is the single path that turns a user into a member,
// whether the event was a join request (actor = creator) or an invite
// (actor = the invited user). The capacity policy applies to both kinds.
// A user who is already a member resolves as a no-op, so duplicate taps and
// retried calls are safe.
func (s *ProjectService) ResolveMembership(kind MembershipEventKind, projectID, userID, actorID string) error {
	var project models.Project
	if err := s.db.First(&project, "id = ?", projectID).Error; err != nil {
		return errors.NotFound("Project not found")
	}

	switch kind {
	case MembershipEventJoinRequest:
		if project.CreatorID != actorID {
			return errors.ErrForbidden
		}
	case MembershipEventInvite:
		if userID != actorID {
			return errors.ErrForbidden
		}
	default:
		return errors.BadRequest("unknown membership event kind")
	}

	var already int64
	s.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&already)
	if already > 0 {
		return nil
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if project.TargetTeamSize > 0 {
			var members int64
			if err := tx.Model(&models.ProjectMember{}).
				Where("project_id = ?", projectID).
				Count(&members).Error; err != nil {
				return err
			}
			if members >= int64(project.TargetTeamSize) {
				return errors.ErrCapacityExceeded
			}
		}

		// Move from pending to member as one unit.
		if err := tx.Where("project_id = ? AND user_id = ?", projectID, userID).
			Delete(&models.ProjectApplicant{}).Error; err != nil {
			return err
		}
		member := models.ProjectMember{
			ProjectID: projectID,
			UserID:    userID,
			Role:      models.MemberRoleMember,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&member)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil // concurrent accept already applied everything
		}

		channel, err := s.chat.EnsureGroupChannelTx(tx, &project)
		if err != nil {
			return err
		}
		if err := s.chat.AddParticipantTx(tx, channel.ID, userID); err != nil {
			return err
		}

		// Resolved invites and join requests leave the inbox.
		if err := s.notifs.DeleteResolvedTx(tx, userID, projectID, models.NotificationTypeProjectInvite); err != nil {
			return err
		}
		if err := s.notifs.DeleteResolvedTx(tx, project.CreatorID, projectID, models.NotificationTypeProjectJoinRequest); err != nil {
			return err
		}

		switch kind {
		case MembershipEventJoinRequest:
			return s.notifs.EmitTx(tx, models.Notification{
				UserID:    userID,
				Type:      models.NotificationTypeProjectAccepted,
				Title:     "Application accepted",
				Message:   "You joined " + project.Title,
				RelatedID: projectID,
				SenderID:  actorID,
			})
		default:
			return s.notifs.EmitTx(tx, models.Notification{
				UserID:    project.CreatorID,
				Type:      models.NotificationTypeProjectAccepted,
				Title:     "Invite accepted",
				Message:   "accepted your invite to " + project.Title,
				RelatedID: projectID,
				SenderID:  userID,
			})
		}
	})
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok {
			return appErr
		}
		return errors.Internal("failed to resolve membership")
	}
	return nil
}

// AcceptApplicant is the creator approving a join request.
func (s *ProjectService) AcceptApplicant(projectID, applicantID, callerID string) error {
	return s.ResolveMembership(MembershipEventJoinRequest, projectID, applicantID, callerID)
}

// AcceptInvite is the invited user joining the project.
func (s *ProjectService) AcceptInvite(projectID, userID string) error {
	return s.ResolveMembership(MembershipEventInvite, projectID, userID, userID)
}

// RejectApplicant removes the applicant from the pending set and tells them.
// Removing an absent applicant is a no-op (retried reject).
func (s *ProjectService) RejectApplicant(projectID, applicantID, callerID string) error {
	var project models.Project
	if err := s.db.First(&project, "id = ?", projectID).Error; err != nil {
		return errors.NotFound("Project not found")
	}
	if project.CreatorID != callerID {
		return errors.ErrForbidden
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("project_id = ? AND user_id = ?", projectID, applicantID).
			Delete(&models.ProjectApplicant{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := s.notifs.DeleteResolvedTx(tx, project.CreatorID, projectID, models.NotificationTypeProjectJoinRequest); err != nil {
			return err
		}
		return s.notifs.EmitTx(tx, models.Notification{
			UserID:    applicantID,
			Type:      models.NotificationTypeProjectDecline,
			Title:     "Application declined",
			Message:   "Your application to " + project.Title + " was declined",
			RelatedID: projectID,
			SenderID:  callerID,
		})
	})
}

// DeclineInvite clears a pending invite notification without joining.
func (s *ProjectService) DeclineInvite(projectID, userID string) error {
	return s.notifs.DeleteResolvedTx(s.db, userID, projectID, models.NotificationTypeProjectInvite)
}

// RemoveMember removes a member and their group-channel participation.
func (s *ProjectService) RemoveMember(projectID, memberID, callerID string) error {
	var project models.Project
	if err := s.db.First(&project, "id = ?", projectID).Error; err != nil {
		return errors.NotFound("Project not found")
	}
	if project.CreatorID != callerID {
		return errors.ErrForbidden
	}
	if memberID == project.CreatorID {
		return errors.ErrInvalidTarget
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("project_id = ? AND user_id = ?", projectID, memberID).
			Delete(&models.ProjectMember{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		var channel models.ChatChannel
		if err := tx.Where("project_id = ?", projectID).First(&channel).Error; err == nil {
			if err := s.chat.RemoveParticipantTx(tx, channel.ID, memberID); err != nil {
				return err
			}
		}

		return s.notifs.EmitTx(tx, models.Notification{
			UserID:    memberID,
			Type:      models.NotificationTypeProjectRemoval,
			Title:     "Removed from project",
			Message:   "You were removed from " + project.Title,
			RelatedID: projectID,
			SenderID:  callerID,
		})
	})
}

// ToggleStatus flips Active <-> Completed and keeps the creator's completed
// counter in step with the flag.
func (s *ProjectService) ToggleStatus(projectID, callerID string) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, "id = ?", projectID).Error; err != nil {
		return nil, errors.NotFound("Project not found")
	}
	if project.CreatorID != callerID {
		return nil, errors.ErrForbidden
	}

	newStatus := models.ProjectStatusCompleted
	counter := gorm.Expr(`"projectsCompleted" + 1`)
	if project.Status == models.ProjectStatusCompleted {
		newStatus = models.ProjectStatusActive
		counter = gorm.Expr(`CASE WHEN "projectsCompleted" > 0 THEN "projectsCompleted" - 1 ELSE 0 END`)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&project).Update("status", newStatus).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", project.CreatorID).
			UpdateColumn("projectsCompleted", counter).Error
	})
	if err != nil {
		return nil, errors.Internal("failed to toggle project status")
	}
	project.Status = newStatus
	return &project, nil
}

// AddMilestone appends a milestone; creator-only.
func (s *ProjectService) AddMilestone(projectID, callerID, title string) (*models.Milestone, error) {
	if title == "" {
		return nil, errors.BadRequest("title required")
	}
	var project models.Project
	if err := s.db.First(&project, "id = ?", projectID).Error; err != nil {
		return nil, errors.NotFound("Project not found")
	}
	if project.CreatorID != callerID {
		return nil, errors.ErrForbidden
	}

	var count int64
	s.db.Model(&models.Milestone{}).Where("project_id = ?", projectID).Count(&count)

	milestone := models.Milestone{
		ProjectID: projectID,
		Title:     title,
		Position:  int(count),
	}
	if err := s.db.Create(&milestone).Error; err != nil {
		return nil, errors.Internal("failed to add milestone")
	}
	return &milestone, nil
}

// ToggleMilestone flips a milestone's completion; any member may toggle.
func (s *ProjectService) ToggleMilestone(projectID, milestoneID, callerID string) (*models.Milestone, error) {
	var member int64
	s.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, callerID).
		Count(&member)
	if member == 0 {
		return nil, errors.ErrForbidden
	}

	var milestone models.Milestone
	if err := s.db.First(&milestone, "id = ? AND project_id = ?", milestoneID, projectID).Error; err != nil {
		return nil, errors.NotFound("Milestone not found")
	}

	milestone.IsCompleted = !milestone.IsCompleted
	if err := s.db.Model(&milestone).Update("is_completed", milestone.IsCompleted).Error; err != nil {
		return nil, errors.Internal("failed to update milestone")
	}
	return &milestone, nil
}

// DeleteProject cascades to milestones, applicants, members, the group
// channel and project notifications. The cover asset is removed best-effort
// after commit.
func (s *ProjectService) DeleteProject(projectID, callerID string) error {
	var project models.Project
	if err := s.db.First(&project, "id = ?", projectID).Error; err != nil {
		return errors.NotFound("Project not found")
	}
	if project.CreatorID != callerID {
		return errors.ErrForbidden
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Milestone{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectApplicant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}

		var channel models.ChatChannel
		if err := tx.Where("project_id = ?", projectID).First(&channel).Error; err == nil {
			if err := s.chat.DeleteChannelTx(tx, channel.ID); err != nil {
				return err
			}
		}

		if err := tx.Where("related_id = ?", projectID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&project).Error
	})
	if err != nil {
		return errors.Internal("failed to delete project")
	}

	if s.assets != nil && project.CoverImageURL != "" {
		if err := s.assets.DeleteByURL(context.Background(), project.CoverImageURL); err != nil {
			logger.Warn().Err(err).Str("project_id", projectID).Msg("cover asset cleanup failed")
		}
	}
	return nil
}
