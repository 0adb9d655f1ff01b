// handlers/words.go - vocabulary quiz endpoints
package handlers

import (
	"taaltoren/middleware"
	"taaltoren/utils"

	"github.com/gofiber/fiber/v2"
)

type AnswerRequest struct {
	Key    string `json:"key"`
	Choice string `json:"choice"`
	Level  string `json:"level"`
}

// GetQuestion returns a random multiple-choice question for the level.
// GET /api/words/question?level=A1
func GetQuestion(c *fiber.Ctx) error {
	question, err := quiz.NextQuestion(c.Query("level"))
	if err != nil {
		return failFor(c, err)
	}
	return utils.OK(c, fiber.Map{"question": question})
}

// AnswerQuestion grades a submitted answer, applies the ±1 score delta
// and feeds the session leaderboard.
// POST /api/words/answer {key, choice, level}
func AnswerQuestion(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req AnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "bad_request")
	}
	if req.Key == "" || req.Choice == "" {
		return utils.Fail(c, fiber.StatusBadRequest, "bad_request")
	}

	result, err := quiz.Grade(userID, req.Key, req.Choice)
	if err != nil {
		return failFor(c, err)
	}

	if username, err := middleware.GetUsername(c); err == nil {
		if result.Correct {
			scoreboard.Increment(username, req.Level, 1)
		} else {
			scoreboard.Decrement(username, req.Level, 1)
		}
	}

	return utils.OK(c, fiber.Map{
		"correct": result.Correct,
		"stats":   result.Stats,
	})
}
