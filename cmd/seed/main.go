package main

import (
	"fmt"
	"log"
	"time"

	"courtbooking/internal/config"
	"courtbooking/internal/database"
	"courtbooking/internal/domain"
	jwtsvc "courtbooking/internal/pkg/jwt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.IsProdLike() {
		log.Fatal("refusing to seed a production database")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	// Cleanup old data (in safe order to avoid foreign key errors)
	log.Println("Cleaning old data...")
	for _, table := range []string{"notifications", "join_requests", "team_members", "bookings", "courts", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.Fatalf("clean %s: %v", table, err)
		}
	}

	// ================== COURTS ==================
	log.Println("Creating courts...")
	courts := []domain.Court{
		{Name: "Court 1", PricePerHour: 4000, OpenTime: "07:00", CloseTime: "23:00", IsActive: true},
		{Name: "Court 2", PricePerHour: 4000, OpenTime: "07:00", CloseTime: "23:00", IsActive: true},
		{Name: "Court 3 (indoor)", PricePerHour: 6000, OpenTime: "08:00", CloseTime: "22:00", IsActive: true},
	}
	for i := range courts {
		if err := db.Create(&courts[i]).Error; err != nil {
			log.Fatal(err)
		}
	}

	// ================== USERS ==================
	log.Println("Creating users...")
	today := domain.Day(time.Now().In(cfg.Location()))
	expiry := func(days int) *time.Time {
		t := today.AddDate(0, 0, days)
		return &t
	}

	users := []domain.User{
		{Email: "admin@courtbooking.local", Name: "Admin", Role: domain.RoleAdmin, MembershipStatus: domain.MembershipActive, MembershipExpiry: expiry(365)},
		{Email: "alice@courtbooking.local", Name: "Alice", Role: domain.RolePlayer, MembershipStatus: domain.MembershipActive, MembershipExpiry: expiry(30)},
		{Email: "bob@courtbooking.local", Name: "Bob", Role: domain.RolePlayer, MembershipStatus: domain.MembershipActive, MembershipExpiry: expiry(5)},
		{Email: "carol@courtbooking.local", Name: "Carol", Role: domain.RolePlayer, MembershipStatus: domain.MembershipActive, MembershipExpiry: expiry(1)},
		{Email: "dan@courtbooking.local", Name: "Dan", Role: domain.RolePlayer, MembershipStatus: domain.MembershipActive, MembershipExpiry: expiry(-1)},
		{Email: "erin@courtbooking.local", Name: "Erin", Role: domain.RolePlayer, MembershipStatus: domain.MembershipInactive},
	}
	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			log.Fatal(err)
		}
		token, err := j.GenerateToken(users[i].ID, string(users[i].Role))
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%-26s id=%d role=%s token=%s\n", users[i].Email, users[i].ID, users[i].Role, token)
	}

	log.Printf("Seed complete: %d courts, %d users", len(courts), len(users))
}
