// database/migrate.go - Database Migration Runner
package database

import (
	"log"

	"shelfquest/models"
)

// RunMigrations runs all database migrations
func RunMigrations() {
	db := GetDB()
	log.Println("🔄 Running database migrations...")

	if err := db.AutoMigrate(
		&models.Award{},
	); err != nil {
		log.Fatalf("❌ Failed to run migrations: %v", err)
	}

	createIndexes()

	log.Println("✅ All migrations completed successfully")
}

// createIndexes creates indexes beyond what AutoMigrate handles
func createIndexes() {
	db := GetDB()

	// Dashboard reads are "everything, newest first" and "per user"
	db.Exec("CREATE INDEX IF NOT EXISTS idx_awards_awarded_at ON awards(awarded_at DESC)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_awards_user ON awards(user_id)")
}
