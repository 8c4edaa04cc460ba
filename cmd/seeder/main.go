package main

import (
	"log"

	"github.com/unihub-app/unihub-backend/internal/config"
	"github.com/unihub-app/unihub-backend/internal/database"
	"github.com/unihub-app/unihub-backend/internal/models"
	"github.com/unihub-app/unihub-backend/internal/realtime"
	"github.com/unihub-app/unihub-backend/internal/services"
	"golang.org/x/crypto/bcrypt"
)

// Development seeder: a handful of students, a couple of projects and a
// connected pair, enough to click through the frontend.
func main() {
	cfg := config.Load()
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}

	log.Println("Running migrations...")
	if err := db.AutoMigrate(
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
	); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	hub := realtime.NewHub()
	notifSvc := services.NewNotificationService(db, hub)
	chatSvc := services.NewChatService(db, notifSvc, hub)
	connSvc := services.NewConnectionService(db, notifSvc, hub)
	projectSvc := services.NewProjectService(db, notifSvc, chatSvc, hub, nil)

	hash, _ := bcrypt.GenerateFromPassword([]byte("Password123!"), bcrypt.DefaultCost)
	students := []models.User{
		{ID: "seed-maya", Name: "Maya Lindqvist", Username: "maya", Email: "maya@unihub.dev", University: "KTH", Course: "Computer Science", GraduationYear: 2027},
		{ID: "seed-dev", Name: "Dev Patel", Username: "devp", Email: "dev@unihub.dev", University: "KTH", Course: "Media Technology", GraduationYear: 2026},
		{ID: "seed-lena", Name: "Lena Okafor", Username: "lena", Email: "lena@unihub.dev", University: "SU", Course: "Economics", GraduationYear: 2027},
	}
	for i := range students {
		students[i].Password = string(hash)
		if err := db.Where("id = ?", students[i].ID).FirstOrCreate(&students[i]).Error; err != nil {
			log.Fatalf("failed to seed user %s: %v", students[i].ID, err)
		}
	}
	log.Printf("Seeded %d students", len(students))

	project, err := projectSvc.CreateProject("seed-maya", services.ProjectInput{
		Title:          "Campus Carpool",
		Description:    "Ride sharing for commuting students.",
		Tags:           []string{"go", "react", "maps"},
		TargetTeamSize: 4,
	})
	if err != nil {
		log.Fatalf("failed to seed project: %v", err)
	}

	if err := projectSvc.RequestToJoin(project.ID, "seed-dev"); err != nil {
		log.Printf("join request skipped: %v", err)
	}
	if err := projectSvc.AcceptApplicant(project.ID, "seed-dev", "seed-maya"); err != nil {
		log.Printf("accept skipped: %v", err)
	}

	req, err := connSvc.SendRequest("seed-lena", "seed-maya")
	if err != nil {
		log.Printf("connection request skipped: %v", err)
	} else if err := connSvc.AcceptRequest(req.ID, "seed-maya"); err != nil {
		log.Printf("connection accept skipped: %v", err)
	}

	log.Println("Seeding complete")
}
