package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/unihub-app/unihub-backend/internal/database"
	"github.com/unihub-app/unihub-backend/internal/models"
	"github.com/unihub-app/unihub-backend/internal/realtime"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// testEnv wires the full service graph against a fresh in-memory database.
type testEnv struct {
	db          *gorm.DB
	hub         *realtime.Hub
	notifs      *NotificationService
	connections *ConnectionService
	chat        *ChatService
	projects    *ProjectService
	directory   *DirectoryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.ConnectionRequest{},
		&models.UserConnection{},
		&models.UserFollow{},
		&models.Project{},
		&models.Milestone{},
		&models.ProjectMember{},
		&models.ProjectApplicant{},
		&models.ChatChannel{},
		&models.ChannelParticipant{},
		&models.Message{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	hub := realtime.NewHub()
	notifs := NewNotificationService(db, hub)
	chat := NewChatService(db, notifs, hub)
	return &testEnv{
		db:          db,
		hub:         hub,
		notifs:      notifs,
		connections: NewConnectionService(db, notifs, hub),
		chat:        chat,
		projects:    NewProjectService(db, notifs, chat, hub, nil),
		directory:   NewDirectoryService(db, database.NewNoopCache()),
	}
}

func (e *testEnv) createUser(t *testing.T, id, name string) models.User {
	t.Helper()
	u := models.User{
		ID:       id,
		Name:     name,
		Username: id,
		Email:    id + "@example.com",
	}
	if err := e.db.Create(&u).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", id, err)
	}
	return u
}

func (e *testEnv) createProject(t *testing.T, creatorID, title string, teamSize int) *models.Project {
	t.Helper()
	p, err := e.projects.CreateProject(creatorID, ProjectInput{
		Title:          title,
		TargetTeamSize: teamSize,
	})
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	return p
}
