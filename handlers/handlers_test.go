package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"taaltoren/database"
	"taaltoren/logger"
	"taaltoren/middleware"
	"taaltoren/models"
	"taaltoren/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	code := m.Run()
	logger.Sync()
	os.Exit(code)
}

// newTestApp wires a fiber app against a fresh in-memory database with
// the same route table the server mounts.
func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET", "handlers-test-secret-0123456789abcdef")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.UserStats{},
		&models.GameRound{},
		&models.ScoreSnapshot{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	database.SetDB(db)

	sb := services.NewScoreboard(services.NewDBSnapshotStore(db), 60)
	InitServices(db, services.NewWordBank(), sb, []byte(os.Getenv("JWT_SECRET")))

	app := fiber.New()
	api := app.Group("/api")
	api.Post("/auth/register", Register)
	api.Post("/auth/login", Login)
	api.Post("/auth/guest", GuestLogin)
	api.Get("/words/question", GetQuestion)
	api.Post("/words/answer", middleware.AuthMiddleware, AnswerQuestion)
	api.Get("/my-stats", middleware.AuthMiddleware, MyStats)
	api.Post("/game/play", middleware.AuthMiddleware, Play)
	api.Post("/game/deposit", middleware.AuthMiddleware, Deposit)
	api.Post("/game/withdraw", middleware.AuthMiddleware, Withdraw)
	api.Get("/game/history", middleware.AuthMiddleware, GameHistory)
	api.Get("/leaderboard", GetLeaderboard)
	app.Get("/scores/public", PublicScores)

	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("%s %s: decode response: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func registerUser(t *testing.T, app *fiber.App, username string) string {
	t.Helper()

	status, body := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"password": "hunter22",
	})
	if status != http.StatusOK {
		t.Fatalf("register %s: status %d, body %v", username, status, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("register %s: no token in %v", username, body)
	}
	return token
}

func TestRegisterAndLogin(t *testing.T) {
	app, _ := newTestApp(t)

	token := registerUser(t, app, "anna")

	// The stats row exists from registration on.
	status, body := doJSON(t, app, http.MethodGet, "/api/my-stats", token, nil)
	if status != http.StatusOK {
		t.Fatalf("my-stats: status %d, body %v", status, body)
	}
	stats, _ := body["stats"].(map[string]interface{})
	if stats["score"] != float64(0) {
		t.Errorf("expected zero score, got %v", stats)
	}

	// Duplicate username is rejected.
	status, body = doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "anna",
		"password": "hunter22",
	})
	if status != http.StatusBadRequest || body["error"] != "username_taken" {
		t.Errorf("expected username_taken, got %d %v", status, body)
	}

	// Login with the right and wrong password.
	status, _ = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "anna",
		"password": "hunter22",
	})
	if status != http.StatusOK {
		t.Errorf("login: expected 200, got %d", status)
	}
	status, body = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "anna",
		"password": "wrong",
	})
	if status != http.StatusUnauthorized || body["error"] != "invalid_credentials" {
		t.Errorf("expected invalid_credentials, got %d %v", status, body)
	}
}

func TestGuestLogin(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doJSON(t, app, http.MethodPost, "/api/auth/guest", "", nil)
	if status != http.StatusOK {
		t.Fatalf("guest login: status %d, body %v", status, body)
	}
	user, _ := body["user"].(map[string]interface{})
	if user["is_guest"] != true {
		t.Errorf("expected a guest user, got %v", user)
	}
	if body["token"] == "" {
		t.Error("expected a token for the guest")
	}
}

func TestAuthRequired(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/api/my-stats", "", nil)
	if status != http.StatusUnauthorized || body["error"] != "missing_token" {
		t.Errorf("expected missing_token, got %d %v", status, body)
	}

	status, body = doJSON(t, app, http.MethodPost, "/api/game/play", "garbage.token.here", map[string]int{"bet": 10})
	if status != http.StatusUnauthorized || body["error"] != "bad_token" {
		t.Errorf("expected bad_token, got %d %v", status, body)
	}
}

func TestQuizFlow(t *testing.T) {
	app, _ := newTestApp(t)
	token := registerUser(t, app, "boris")

	status, body := doJSON(t, app, http.MethodGet, "/api/words/question?level=A0", "", nil)
	if status != http.StatusOK {
		t.Fatalf("question: status %d, body %v", status, body)
	}
	question, _ := body["question"].(map[string]interface{})
	key, _ := question["key"].(string)
	options, _ := question["options"].([]interface{})
	if key == "" || len(options) != 3 {
		t.Fatalf("malformed question: %v", question)
	}

	// Submit every option; exactly one must grade correct. The same key
	// stays valid, so the net score is +1 for the hit and -1 per miss.
	correct := 0
	for _, raw := range options {
		opt, _ := raw.(map[string]interface{})
		status, body := doJSON(t, app, http.MethodPost, "/api/words/answer", token, map[string]string{
			"key":    key,
			"choice": opt["text"].(string),
			"level":  "A0",
		})
		if status != http.StatusOK {
			t.Fatalf("answer: status %d, body %v", status, body)
		}
		if body["correct"] == true {
			correct++
		}
	}
	if correct != 1 {
		t.Errorf("expected exactly one correct option, got %d", correct)
	}

	status, body = doJSON(t, app, http.MethodGet, "/api/my-stats", token, nil)
	if status != http.StatusOK {
		t.Fatalf("my-stats: status %d", status)
	}
	stats, _ := body["stats"].(map[string]interface{})
	if stats["score"] != float64(-1) {
		t.Errorf("expected score -1 after 1 hit and 2 misses, got %v", stats["score"])
	}

	// Forged keys are rejected without touching the score.
	status, body = doJSON(t, app, http.MethodPost, "/api/words/answer", token, map[string]string{
		"key":    "forged-key",
		"choice": "huis",
		"level":  "A0",
	})
	if status != http.StatusBadRequest || body["error"] != "bad_key" {
		t.Errorf("expected bad_key, got %d %v", status, body)
	}
}

func TestAnswerFeedsPublicScores(t *testing.T) {
	app, _ := newTestApp(t)
	token := registerUser(t, app, "carol")

	_, body := doJSON(t, app, http.MethodGet, "/api/words/question?level=A1", "", nil)
	question, _ := body["question"].(map[string]interface{})
	key, _ := question["key"].(string)
	options, _ := question["options"].([]interface{})

	for _, raw := range options {
		opt, _ := raw.(map[string]interface{})
		doJSON(t, app, http.MethodPost, "/api/words/answer", token, map[string]string{
			"key":    key,
			"choice": opt["text"].(string),
			"level":  "A1",
		})
	}

	status, body := doJSON(t, app, http.MethodGet, "/scores/public", "", nil)
	if status != http.StatusOK {
		t.Fatalf("scores/public: status %d", status)
	}
	session, _ := body["sessionScores"].(map[string]interface{})
	levelScores, _ := session["A1"].(map[string]interface{})
	if _, ok := levelScores["carol"]; !ok {
		t.Errorf("expected carol on the A1 session board, got %v", session)
	}
	if _, ok := body["timer"]; !ok {
		t.Error("expected a countdown timer in the snapshot")
	}
}

func TestGameEconomyFlow(t *testing.T) {
	app, db := newTestApp(t)
	token := registerUser(t, app, "dave")

	// Give dave quiz points to stake.
	var user models.User
	if err := db.Where("username = ?", "dave").First(&user).Error; err != nil {
		t.Fatalf("find user: %v", err)
	}
	if err := db.Model(&models.UserStats{}).Where("user_id = ?", user.ID).
		Update("score", 100).Error; err != nil {
		t.Fatalf("seed score: %v", err)
	}

	// Deposit more than the score is rejected.
	status, body := doJSON(t, app, http.MethodPost, "/api/game/deposit", token, map[string]int{"amount": 101})
	if status != http.StatusBadRequest || body["error"] != "insufficient_score" {
		t.Errorf("expected insufficient_score, got %d %v", status, body)
	}

	status, body = doJSON(t, app, http.MethodPost, "/api/game/deposit", token, map[string]int{"amount": 60})
	if status != http.StatusOK {
		t.Fatalf("deposit: status %d, body %v", status, body)
	}
	stats, _ := body["stats"].(map[string]interface{})
	if stats["score"] != float64(40) || stats["balance"] != float64(60) {
		t.Errorf("expected score=40 balance=60, got %v", stats)
	}

	// Undersized bets never reach the reels.
	status, body = doJSON(t, app, http.MethodPost, "/api/game/play", token, map[string]int{"bet": 5})
	if status != http.StatusBadRequest || body["error"] != "min_bet_10" {
		t.Errorf("expected min_bet_10, got %d %v", status, body)
	}

	status, body = doJSON(t, app, http.MethodPost, "/api/game/play", token, map[string]int{"bet": 10})
	if status != http.StatusOK {
		t.Fatalf("play: status %d, body %v", status, body)
	}
	reels, _ := body["reels"].([]interface{})
	if len(reels) != 3 {
		t.Errorf("expected 3 reels, got %v", body["reels"])
	}

	status, body = doJSON(t, app, http.MethodGet, "/api/game/history", token, nil)
	if status != http.StatusOK {
		t.Fatalf("history: status %d", status)
	}
	rounds, _ := body["rounds"].([]interface{})
	if len(rounds) != 1 {
		t.Errorf("expected 1 recorded round, got %d", len(rounds))
	}

	// Withdraw what is left after the spin.
	status, body = doJSON(t, app, http.MethodGet, "/api/my-stats", token, nil)
	if status != http.StatusOK {
		t.Fatalf("my-stats: status %d", status)
	}
	stats, _ = body["stats"].(map[string]interface{})
	balance := int(stats["balance"].(float64))

	if balance > 0 {
		status, body = doJSON(t, app, http.MethodPost, "/api/game/withdraw", token, map[string]int{"amount": balance})
		if status != http.StatusOK {
			t.Fatalf("withdraw: status %d, body %v", status, body)
		}
		stats, _ = body["stats"].(map[string]interface{})
		if stats["balance"] != float64(0) || stats["total"] != float64(balance) {
			t.Errorf("expected balance=0 total=%d, got %v", balance, stats)
		}
	}

	// Zero and negative amounts are rejected up front.
	status, body = doJSON(t, app, http.MethodPost, "/api/game/withdraw", token, map[string]int{"amount": 0})
	if status != http.StatusBadRequest || body["error"] != "bad_amount" {
		t.Errorf("expected bad_amount, got %d %v", status, body)
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	app, db := newTestApp(t)

	totals := map[string]int{"erin": 30, "frank": 50, "gina": 30}
	for _, name := range []string{"erin", "frank", "gina"} {
		registerUser(t, app, name)
		var user models.User
		if err := db.Where("username = ?", name).First(&user).Error; err != nil {
			t.Fatalf("find %s: %v", name, err)
		}
		if err := db.Model(&models.UserStats{}).Where("user_id = ?", user.ID).
			Update("total", totals[name]).Error; err != nil {
			t.Fatalf("seed total for %s: %v", name, err)
		}
	}

	status, body := doJSON(t, app, http.MethodGet, "/api/leaderboard", "", nil)
	if status != http.StatusOK {
		t.Fatalf("leaderboard: status %d, body %v", status, body)
	}
	items, _ := body["items"].([]interface{})
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	var names []string
	for _, raw := range items {
		item, _ := raw.(map[string]interface{})
		names = append(names, fmt.Sprintf("%v", item["name"]))
	}

	// frank leads; erin registered before gina, so the 30-point tie
	// breaks on ascending id.
	want := []string{"frank", "erin", "gina"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s (full order %v)", i, want[i], names[i], names)
		}
	}
}
