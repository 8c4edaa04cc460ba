package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/unihub-app/unihub-backend/internal/models"
	"github.com/unihub-app/unihub-backend/pkg/errors"
)

func TestCreateProjectAddsCreatorAsMember(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createUser(t, "creator", "Creator")

	project := env.createProject(t, creator.ID, "Study Buddy App", 4)

	detail, err := env.projects.GetProject(project.ID)
	assert.NoError(t, err)
	assert.Len(t, detail.Members, 1)
	assert.Equal(t, creator.ID, detail.Members[0].UserID)
	assert.Equal(t, models.MemberRoleCreator, detail.Members[0].Role)
	assert.Empty(t, detail.Applicants)
}

func TestRequestToJoinTwiceLeavesOneApplicant(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createUser(t, "creator", "Creator")
	u3 := env.createUser(t, "u3", "Third")
	project := env.createProject(t, creator.ID, "Hack Night", 0)

	assert.NoError(t, env.projects.RequestToJoin(project.ID, u3.ID))
	assert.Equal(t, errors.ErrAlreadyPending, env.projects.RequestToJoin(project.ID, u3.ID))

	var count int64
	env.db.Model(&models.ProjectApplicant{}).
		Where("project_id = ?", project.ID).
		Count(&count)
	assert.Equal(t, int64(1), count)

	// Creator got exactly one join-request notification.
	notifs, _ := env.notifs.List(creator.ID, false)
	joinRequests := 0
	for _, n := range notifs {
		if n.Type == models.NotificationTypeProjectJoinRequest {
			joinRequests++
		}
	}
	assert.Equal(t, 1, joinRequests)
}

func TestAcceptApplicantFlow(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createUser(t, "creator", "Creator")
	u3 := env.createUser(t, "u3", "Third")
	project := env.createProject(t, creator.ID, "Campus Radio", 5)

	assert.NoError(t, env.projects.RequestToJoin(project.ID, u3.ID))
	assert.NoError(t, env.projects.AcceptApplicant(project.ID, u3.ID, creator.ID))

	detail, _ := env.projects.GetProject(project.ID)
	memberIDs := make([]string, 0, len(detail.Members))
	for _, m := range detail.Members {
		memberIDs = append(memberIDs, m.UserID)
	}
	assert.Equal(t, []string{creator.ID, u3.ID}, memberIDs)
	assert.Empty(t, detail.Applicants)

	// The group channel exists with both members as participants.
	var channel models.ChatChannel
	assert.NoError(t, env.db.Where("project_id = ?", project.ID).First(&channel).Error)
	var participantIDs []string
	env.db.Model(&models.ChannelParticipant{}).
		Where("channel_id = ?", channel.ID).
		Pluck("user_id", &participantIDs)
	assert.Contains(t, participantIDs, creator.ID)
	assert.Contains(t, participantIDs, u3.ID)

	// The applicant got PROJECT_ACCEPTED; the creator's join-request row is gone.
	notifs, _ := env.notifs.List(u3.ID, false)
	assert.Len(t, notifs, 1)
	assert.Equal(t, models.NotificationTypeProjectAccepted, notifs[0].Type)

	creatorNotifs, _ := env.notifs.List(creator.ID, false)
	for _, n := range creatorNotifs {
		assert.NotEqual(t, models.NotificationTypeProjectJoinRequest, n.Type)
	}

	// Retried accept is a no-op.
	assert.NoError(t, env.projects.AcceptApplicant(project.ID, u3.ID, creator.ID))
	detail, _ = env.projects.GetProject(project.ID)
	assert.Len(t, detail.Members, 2)
}

func TestAcceptApplicantCreatorOnly(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createUser(t, "creator", "Creator")
	u3 := env.createUser(t, "u3", "Third")
	eve := env.createUser(t, "eve", "Eve")
	project := env.createProject(t, creator.ID, "Quiz Bowl", 0)

	env.projects.RequestToJoin(project.ID, u3.ID)

	assert.Equal(t, errors.ErrForbidden, env.projects.AcceptApplicant(project.ID, u3.ID, eve.ID))
	assert.Equal(t, errors.ErrForbidden, env.projects.AcceptApplicant(project.ID, u3.ID, u3.ID))
}

func TestRejectApplicant(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createUser(t, "creator", "Creator")
	u3 := env.createUser(t, "u3", "Third")
	project := env.createProject(t, creator.ID, "Robotics Club", 0)

	env.projects.RequestToJoin(project.ID, u3.ID)
	assert.NoError(t, env.projects.RejectApplicant(project.ID, u3.ID, creator.ID))

	detail, _ := env.projects.GetProject(project.ID)
	assert.Len(t, detail.Members, 1)
	assert.Empty(t, detail.Applicants)

	notifs, _ := env.notifs.List(u3.ID, false)
	assert.Len(t, notifs, 1)
	assert.Equal(t, models.NotificationTypeProjectDecline, notifs[0].Type)

	// Retried reject after the row is gone succeeds without a second decline.
	assert.NoError(t, env.projects.RejectApplicant(project.ID, u3.ID, creator.ID))
	notifs, _ = env.notifs.List(u3.ID, false)
	assert.Len(t, notifs, 1)
}

func TestResolveMembershipCapacity(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createUser(t, "creator", "Creator")
	u2 := env.createUser(t, "u2", "Second")
	u3 := env.createUser(t, "u3", "Third")
	project := env.createProject(t, creator.ID, "Duo Project", 2)

	env.projects.RequestToJoin(project.ID, u2.ID)
	env.projects.RequestToJoin(project.ID, u3.ID)

	assert.NoError(t, env.projects.AcceptApplicant(project.ID, u2.ID, creator.ID))
	err := env.projects.AcceptApplicant(project.ID, u3.ID, creator.ID)
	assert.Equal(t, errors.ErrCapacityExceeded, err)

	// The blocked applicant stays in the pending set.
	var pending int64
	env.db.Model(&models.ProjectApplicant{}).
		Where("project_id = ? AND user_id = ?", project.ID, u3.ID).
		Count(&pending)
	assert.Equal(t, int64(1), pending)
}

func TestInviteAndAccept(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createUser(t, "creator", "Creator")
	u3 := env.createUser(t, "u3", "Third")
	project := env.createProject(t, creator.ID, "Design Jam", 0)

	assert.NoError(t, env.projects.Invite(project.ID, u3.ID, creator.ID))

	// A second invite while the first is unread is swallowed.
	assert.NoError(t, env.projects.Invite(project.ID, u3.ID, creator.ID))
	notifs, _ := env.notifs.List(u3.ID, false)
	assert.Len(t, notifs, 1)
	assert.Equal(t, models.NotificationTypeProjectInvite, notifs[0].Type)

	// Invite never touches the applicant set.
	var pending int64
	env.db.Model(&models.ProjectApplicant{}).Where("project_id = ?", project.ID).Count(&pending)
	assert.Equal(t, int64(0), pending)

	// Only the invitee can accept their invite.
	assert.Equal(t, errors.ErrForbidden,
		env.projects.ResolveMembership(MembershipEventInvite, project.ID, u3.ID, creator.ID))

	assert.NoError(t, env.projects.AcceptInvite(project.ID, u3.ID))

	detail, _ := env.projects.GetProject(project.ID)
	assert.Len(t, detail.Members, 2)

	// The invite notification is resolved away; the creator hears about it.
	notifs, _ = env.notifs.List(u3.ID, false)
	for _, n := range notifs {
		assert.NotEqual(t, models.NotificationTypeProjectInvite, n.Type)
	}
	creatorNotifs, _ := env.notifs.List(creator.ID, false)
	assert.Len(t, creatorNotifs, 1)
	assert.Equal(t, models.NotificationTypeProjectAccepted, creatorNotifs[0].Type)
}

func TestInviteGuards(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createUser(t, "creator", "Creator")
	u3 := env.createUser(t, "u3", "Third")
	project := env.createProject(t, creator.ID, "Band Practice", 0)

	assert.Equal(t, errors.ErrForbidden, env.projects.Invite(project.ID, creator.ID, u3.ID))
	assert.Equal(t, errors.ErrInvalidTarget, env.projects.Invite(project.ID, creator.ID, creator.ID))
	assert.Equal(t, errors.ErrAlreadyMember, func() error {
		env.projects.RequestToJoin(project.ID, u3.ID)
		env.projects.AcceptApplicant(project.ID, u3.ID, creator.ID)
		return env.projects.Invite(project.ID, u3.ID, creator.ID)
	}())
}

func TestRemoveMember(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createUser(t, "creator", "Creator")
	u3 := env.createUser(t, "u3", "Third")
	project := env.createProject(t, creator.ID, "Podcast", 0)

	env.projects.RequestToJoin(project.ID, u3.ID)
	env.projects.AcceptApplicant(project.ID, u3.ID, creator.ID)

	// Creator cannot remove themselves.
	assert.Equal(t, errors.ErrInvalidTarget, env.projects.RemoveMember(project.ID, creator.ID, creator.ID))
	// Non-creator cannot remove anyone.
	assert.Equal(t, errors.ErrForbidden, env.projects.RemoveMember(project.ID, creator.ID, u3.ID))

	assert.NoError(t, env.projects.RemoveMember(project.ID, u3.ID, creator.ID))

	detail, _ := env.projects.GetProject(project.ID)
	assert.Len(t, detail.Members, 1)

	// Removed from the group channel too.
	var channel models.ChatChannel
	env.db.Where("project_id = ?", project.ID).First(&channel)
	var participant int64
	env.db.Model(&models.ChannelParticipant{}).
		Where("channel_id = ? AND user_id = ?", channel.ID, u3.ID).
		Count(&participant)
	assert.Equal(t, int64(0), participant)

	notifs, _ := env.notifs.List(u3.ID, false)
	found := false
	for _, n := range notifs {
		if n.Type == models.NotificationTypeProjectRemoval {
			found = true
		}
	}
	assert.True(t, found)
}

func TestToggleStatusMovesCompletedCounter(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createUser(t, "creator", "Creator")
	project := env.createProject(t, creator.ID, "Thesis", 0)

	updated, err := env.projects.ToggleStatus(project.ID, creator.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.ProjectStatusCompleted, updated.Status)

	var row models.User
	env.db.First(&row, "id = ?", creator.ID)
	assert.Equal(t, 1, row.ProjectsCompleted)

	updated, err = env.projects.ToggleStatus(project.ID, creator.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.ProjectStatusActive, updated.Status)

	env.db.First(&row, "id = ?", creator.ID)
	assert.Equal(t, 0, row.ProjectsCompleted)
}

func TestMilestones(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createUser(t, "creator", "Creator")
	u3 := env.createUser(t, "u3", "Third")
	project := env.createProject(t, creator.ID, "Mobile App", 0)

	_, err := env.projects.AddMilestone(project.ID, u3.ID, "Wireframes")
	assert.Equal(t, errors.ErrForbidden, err)

	m1, err := env.projects.AddMilestone(project.ID, creator.ID, "Wireframes")
	assert.NoError(t, err)
	m2, err := env.projects.AddMilestone(project.ID, creator.ID, "Backend")
	assert.NoError(t, err)
	assert.Equal(t, 0, m1.Position)
	assert.Equal(t, 1, m2.Position)

	// Members can toggle; outsiders cannot.
	env.projects.RequestToJoin(project.ID, u3.ID)
	env.projects.AcceptApplicant(project.ID, u3.ID, creator.ID)
	toggled, err := env.projects.ToggleMilestone(project.ID, m1.ID, u3.ID)
	assert.NoError(t, err)
	assert.True(t, toggled.IsCompleted)

	detail, _ := env.projects.GetProject(project.ID)
	assert.InDelta(t, 0.5, detail.Progress, 0.001)
}

func TestDeleteProjectCascades(t *testing.T) {
	env := newTestEnv(t)
	creator := env.createUser(t, "creator", "Creator")
	u3 := env.createUser(t, "u3", "Third")
	project := env.createProject(t, creator.ID, "Game Jam", 0)

	env.projects.AddMilestone(project.ID, creator.ID, "Prototype")
	env.projects.RequestToJoin(project.ID, u3.ID)
	env.projects.AcceptApplicant(project.ID, u3.ID, creator.ID)

	var channel models.ChatChannel
	env.db.Where("project_id = ?", project.ID).First(&channel)
	env.chat.SendMessage(channel.ID, creator.ID, "kickoff at 6", nil)

	assert.Equal(t, errors.ErrForbidden, env.projects.DeleteProject(project.ID, u3.ID))
	assert.NoError(t, env.projects.DeleteProject(project.ID, creator.ID))

	for _, probe := range []struct {
		name  string
		model interface{}
	}{
		{"members", &models.ProjectMember{}},
		{"applicants", &models.ProjectApplicant{}},
		{"milestones", &models.Milestone{}},
	} {
		var count int64
		env.db.Model(probe.model).Where("project_id = ?", project.ID).Count(&count)
		assert.Zero(t, count, probe.name)
	}

	var channels, messages, notifs int64
	env.db.Model(&models.ChatChannel{}).Where("id = ?", channel.ID).Count(&channels)
	env.db.Model(&models.Message{}).Where("channel_id = ?", channel.ID).Count(&messages)
	env.db.Model(&models.Notification{}).Where("related_id = ?", project.ID).Count(&notifs)
	assert.Zero(t, channels)
	assert.Zero(t, messages)
	assert.Zero(t, notifs)

	_, err := env.projects.GetProject(project.ID)
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}
