// handlers/handlers.go - handler wiring
package handlers

import (
	"errors"

	"taaltoren/services"
	"taaltoren/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var (
	ledger     *services.Ledger
	quiz       *services.Quiz
	slots      *services.SlotMachine
	transfers  *services.Transfer
	scoreboard *services.Scoreboard
)

// InitServices wires the domain services the handlers dispatch to.
// The scoreboard is owned by the caller (main starts and stops it).
func InitServices(db *gorm.DB, words *services.WordBank, sb *services.Scoreboard, secret []byte) {
	ledger = services.NewLedger(db)
	quiz = services.NewQuiz(words, ledger, secret)
	slots = services.NewSlotMachine(db, ledger)
	transfers = services.NewTransfer(db, ledger)
	scoreboard = sb
}

// failFor maps service errors onto the stable wire codes.
func failFor(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrMinBet):
		return utils.Fail(c, fiber.StatusBadRequest, "min_bet_10")
	case errors.Is(err, services.ErrBadAmount):
		return utils.Fail(c, fiber.StatusBadRequest, "bad_amount")
	case errors.Is(err, services.ErrInsufficientBalance):
		return utils.Fail(c, fiber.StatusBadRequest, "insufficient_balance")
	case errors.Is(err, services.ErrInsufficientScore):
		return utils.Fail(c, fiber.StatusBadRequest, "insufficient_score")
	case errors.Is(err, services.ErrBadKey):
		return utils.Fail(c, fiber.StatusBadRequest, "bad_key")
	case errors.Is(err, services.ErrNoWords):
		return utils.Fail(c, fiber.StatusNotFound, "no_words_for_level")
	case errors.Is(err, services.ErrUserNotFound):
		return utils.Fail(c, fiber.StatusNotFound, "user_not_found")
	default:
		return utils.Fail(c, fiber.StatusInternalServerError, "server_error")
	}
}
