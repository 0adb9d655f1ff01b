// database/migrate.go - Database Migration Runner
package database

import (
	"taaltoren/logger"
	"taaltoren/models"
)

// RunMigrations runs all database migrations
func RunMigrations() {
	db := GetDB()
	logger.Log.Info("Running database migrations...")

	if err := db.AutoMigrate(
		&models.User{},
		&models.UserStats{},
		&models.GameRound{},
		&models.ScoreSnapshot{},
	); err != nil {
		logger.Log.Fatalf("Failed to run migrations: %v", err)
	}

	createIndexes()

	logger.Log.Info("Migrations completed")
}

func createIndexes() {
	db := GetDB()

	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_guest ON users(is_guest)")

	// Leaderboard reads order by total
	db.Exec("CREATE INDEX IF NOT EXISTS idx_user_stats_total ON user_stats(total DESC)")

	db.Exec("CREATE INDEX IF NOT EXISTS idx_game_rounds_user ON game_rounds(user_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_game_rounds_created ON game_rounds(created_at DESC)")
}
