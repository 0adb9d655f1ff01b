// handlers/leaderboard.go
package handlers

import (
	"taaltoren/database"
	"taaltoren/utils"

	"github.com/gofiber/fiber/v2"
)

const leaderboardLimit = 50

type LeaderboardItem struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Total int    `json:"total"`
}

// GetLeaderboard returns the top users by withdrawn total, ties broken
// by ascending id.
// GET /api/leaderboard
func GetLeaderboard(c *fiber.Ctx) error {
	db := database.GetDB()

	var items []LeaderboardItem
	err := db.Table("users").
		Select("users.id AS id, users.username AS name, COALESCE(user_stats.total, 0) AS total").
		Joins("LEFT JOIN user_stats ON user_stats.user_id = users.id").
		Order("total DESC, users.id ASC").
		Limit(leaderboardLimit).
		Scan(&items).Error
	if err != nil {
		return utils.Fail(c, fiber.StatusInternalServerError, "server_error")
	}

	if items == nil {
		items = []LeaderboardItem{}
	}
	return utils.OK(c, fiber.Map{"items": items})
}
