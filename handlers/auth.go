// handlers/auth.go
package handlers

import (
	"fmt"
	"os"
	"time"

	"taaltoren/database"
	"taaltoren/models"
	"taaltoren/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type GuestLoginRequest struct {
	GuestName string `json:"guest_name,omitempty"`
}

type UserInfo struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsGuest   bool      `json:"is_guest"`
	CreatedAt time.Time `json:"created_at"`
}

// Register creates a new user account
func Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "bad_request")
	}

	if req.Username == "" || req.Password == "" {
		return utils.Fail(c, fiber.StatusBadRequest, "missing_credentials")
	}
	if len(req.Password) < 6 {
		return utils.Fail(c, fiber.StatusBadRequest, "weak_password")
	}

	db := database.GetDB()

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.Fail(c, fiber.StatusInternalServerError, "server_error")
	}

	user := models.User{
		Username: req.Username,
		Password: string(hashed),
		IsGuest:  false,
	}
	if req.Email != "" {
		user.Email = &req.Email
	}

	// The unique index is the arbiter: a failed insert against an
	// existing username reports the conflict, whoever inserted first.
	if err := db.Create(&user).Error; err != nil {
		var existing models.User
		if ferr := db.Where("username = ?", req.Username).First(&existing).Error; ferr == nil {
			return utils.Fail(c, fiber.StatusBadRequest, "username_taken")
		}
		return utils.Fail(c, fiber.StatusInternalServerError, "server_error")
	}

	// Stats row exists from the first login onward
	if _, err := ledger.GetOrCreate(user.ID); err != nil {
		return utils.Fail(c, fiber.StatusInternalServerError, "server_error")
	}

	return respondWithToken(c, user)
}

// Login authenticates a registered user
func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "bad_request")
	}

	if req.Username == "" || req.Password == "" {
		return utils.Fail(c, fiber.StatusBadRequest, "missing_credentials")
	}

	db := database.GetDB()

	var user models.User
	if err := db.Where("username = ? AND is_guest = ?", req.Username, false).First(&user).Error; err != nil {
		return utils.Fail(c, fiber.StatusUnauthorized, "invalid_credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return utils.Fail(c, fiber.StatusUnauthorized, "invalid_credentials")
	}

	db.Model(&user).Update("last_login", time.Now())

	if _, err := ledger.GetOrCreate(user.ID); err != nil {
		return utils.Fail(c, fiber.StatusInternalServerError, "server_error")
	}

	return respondWithToken(c, user)
}

// GuestLogin creates a throwaway guest account
func GuestLogin(c *fiber.Ctx) error {
	var req GuestLoginRequest
	// An empty body is fine for guests
	_ = c.BodyParser(&req)

	db := database.GetDB()

	guestName := req.GuestName
	if guestName == "" {
		guestName = fmt.Sprintf("Guest_%s", uuid.New().String()[:8])
	}

	user := models.User{
		Username: guestName,
		Password: "",
		IsGuest:  true,
	}

	if err := db.Create(&user).Error; err != nil {
		return utils.Fail(c, fiber.StatusInternalServerError, "server_error")
	}

	if _, err := ledger.GetOrCreate(user.ID); err != nil {
		return utils.Fail(c, fiber.StatusInternalServerError, "server_error")
	}

	return respondWithToken(c, user)
}

func respondWithToken(c *fiber.Ctx, user models.User) error {
	token, err := generateToken(user)
	if err != nil {
		return utils.Fail(c, fiber.StatusInternalServerError, "server_error")
	}

	email := ""
	if user.Email != nil {
		email = *user.Email
	}

	return utils.OK(c, fiber.Map{
		"token": token,
		"user": UserInfo{
			ID:        user.ID,
			Username:  user.Username,
			Email:     email,
			IsGuest:   user.IsGuest,
			CreatedAt: user.CreatedAt,
		},
	})
}

func generateToken(user models.User) (string, error) {
	jwtSecret := os.Getenv("JWT_SECRET")

	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"is_guest": user.IsGuest,
		"exp":      time.Now().Add(time.Hour * 720).Unix(), // 30 days
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}
