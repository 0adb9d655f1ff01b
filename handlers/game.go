// handlers/game.go - slot machine and points economy endpoints
package handlers

import (
	"taaltoren/middleware"
	"taaltoren/utils"

	"github.com/gofiber/fiber/v2"
)

type PlayRequest struct {
	Bet int `json:"bet"`
}

type AmountRequest struct {
	Amount int `json:"amount"`
}

// MyStats returns the caller's ledger balances, creating the row on
// first read.
// GET /api/my-stats
func MyStats(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	stats, err := ledger.GetOrCreate(userID)
	if err != nil {
		return failFor(c, err)
	}
	return utils.OK(c, fiber.Map{"stats": stats})
}

// Play runs one slot machine spin.
// POST /api/game/play {bet}
func Play(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req PlayRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "min_bet_10")
	}

	result, err := slots.Play(userID, req.Bet)
	if err != nil {
		return failFor(c, err)
	}

	return utils.OK(c, fiber.Map{
		"reels": result.Reels,
		"prize": result.Prize,
		"bet":   result.Bet,
		"stats": result.Stats,
	})
}

// Deposit moves points from score into the slot machine balance.
// POST /api/game/deposit {amount}
func Deposit(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req AmountRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "bad_amount")
	}

	stats, err := transfers.Deposit(userID, req.Amount)
	if err != nil {
		return failFor(c, err)
	}
	return utils.OK(c, fiber.Map{"stats": stats})
}

// Withdraw moves points from balance into the public total.
// POST /api/game/withdraw {amount}
func Withdraw(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req AmountRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "bad_amount")
	}

	stats, err := transfers.Withdraw(userID, req.Amount)
	if err != nil {
		return failFor(c, err)
	}
	return utils.OK(c, fiber.Map{"stats": stats})
}

// GameHistory returns the caller's recent slot rounds, newest first.
// GET /api/game/history?limit=50
func GameHistory(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	rounds, err := slots.History(userID, c.QueryInt("limit", 50))
	if err != nil {
		return failFor(c, err)
	}
	return utils.OK(c, fiber.Map{"rounds": rounds})
}
