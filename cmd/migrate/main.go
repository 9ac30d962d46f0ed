package main

import (
	"fmt"
	"log"
	"strings"

	"cleaning-reservation-be/internal/config"
	"cleaning-reservation-be/internal/entity"
	"cleaning-reservation-be/internal/model"
	"cleaning-reservation-be/pkg/database"

	"gorm.io/gorm/clause"
)

// notificationTypes seeds the registry read by the notification worker.
var notificationTypes = []model.NotificationType{
	{Code: string(entity.NotificationKindStatusChanged), DisplayName: "Reservation status changed", IsActive: true, EmailEnabled: false},
	{Code: string(entity.NotificationKindCancelled), DisplayName: "Reservation cancelled", IsActive: true, EmailEnabled: true},
	{Code: string(entity.NotificationKindRescheduled), DisplayName: "Reservation rescheduled", IsActive: true, EmailEnabled: true},
	{Code: string(entity.NotificationKindLateArrival), DisplayName: "Cleaner running late", IsActive: true, EmailEnabled: false},
	{Code: string(entity.NotificationKindServiceRequest), DisplayName: "Additional service requested", IsActive: true, EmailEnabled: false},
	{Code: string(entity.NotificationKindServiceResolved), DisplayName: "Additional service resolved", IsActive: true, EmailEnabled: false},
}

func main() {
	// 1. Load Environment Variables
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Pre-Migration: Extensions
	log.Println("Step 1: Setting up Extensions...")
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
	}

	// 4. AutoMigrate All Models
	models := []interface{}{
		&model.User{},
		&model.Reservation{},
		&model.ReservationServiceRequest{},
		&model.OutboxEvent{},
		&model.NotificationType{},
		&model.Notification{},
	}
	log.Printf("Step 2: Running AutoMigrate for %d Tables...", len(models))

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: constraints and defaults AutoMigrate cannot express
	log.Println("Step 3: Applying constraints and defaults...")

	statuses := make([]string, 0, len(entity.ReservationStatuses))
	for _, s := range entity.ReservationStatuses {
		statuses = append(statuses, fmt.Sprintf("'%s'", s))
	}

	postMigrationSQL := []string{
		fmt.Sprintf(`ALTER TABLE users ALTER COLUMN monthly_cancellation_limit SET DEFAULT %d;`, cfg.Reservation.DefaultCancellationLimit),

		`ALTER TABLE reservations DROP CONSTRAINT IF EXISTS chk_reservations_status;`,
		fmt.Sprintf(`ALTER TABLE reservations ADD CONSTRAINT chk_reservations_status CHECK (status IN (%s));`, strings.Join(statuses, ", ")),

		`ALTER TABLE reservation_service_requests DROP CONSTRAINT IF EXISTS chk_service_requests_status;`,
		`ALTER TABLE reservation_service_requests ADD CONSTRAINT chk_service_requests_status CHECK (status IN ('pending', 'approved', 'declined'));`,

		`ALTER TABLE users DROP CONSTRAINT IF EXISTS chk_users_cancellations;`,
		`ALTER TABLE users ADD CONSTRAINT chk_users_cancellations CHECK (monthly_cancellations >= 0);`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	// 6. Seed the notification registry without overwriting operator edits
	log.Println("Step 4: Seeding notification types...")
	if err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).
		Create(&notificationTypes).Error; err != nil {
		log.Fatalf("Error: Failed to seed notification types: %v", err)
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
