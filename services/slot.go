package services

import (
	"errors"
	"math/rand"
	"sync"

	"taaltoren/models"

	"gorm.io/gorm"
)

// MinBet is the minimum slot machine stake.
const MinBet = 10

var ErrMinBet = errors.New("min_bet_10")

// Reel symbols with their relative draw weights. Draws are independent
// per reel; weights are frequencies, normalized by their sum.
var reelWeights = []struct {
	Key    string
	Weight int
}{
	{"star", 10},
	{"banana", 8},
	{"cherry", 14},
	{"lemon", 14},
	{"grape", 14},
	{"bell", 8},
	{"clover", 8},
	{"gem", 6},
	{"seven", 2},
}

var totalReelWeight = func() int {
	sum := 0
	for _, rw := range reelWeights {
		sum += rw.Weight
	}
	return sum
}()

// Payout rules per symbol, indexed by count of that symbol among the
// three reels. Rules are evaluated independently; the final prize is
// the maximum across triggered rules, never a sum.
var payoutRules = map[string][4]int{
	// count:    0  1   2    3
	"star":   {0, 5, 10, 50},
	"banana": {0, 5, 50, 100},
	"seven":  {0, 0, 0, 200},
}

type SpinResult struct {
	Reels []string
	Prize int
	Bet   int
	Stats *models.UserStats
}

// SlotMachine runs weighted three-reel spins against the ledger. Each
// spin is one transaction: stake check, balance update and audit record
// commit together or not at all.
type SlotMachine struct {
	db     *gorm.DB
	ledger *Ledger

	mu  sync.Mutex
	rng *rand.Rand
	// drawFn is swapped in tests to force specific reels.
	drawFn func() [3]string
}

func NewSlotMachine(db *gorm.DB, ledger *Ledger) *SlotMachine {
	s := &SlotMachine{
		db:     db,
		ledger: ledger,
		rng:    rand.New(rand.NewSource(rand.Int63())),
	}
	s.drawFn = s.draw
	return s
}

// Play validates the bet, draws the reels and settles the spin.
func (s *SlotMachine) Play(userID uint, bet int) (*SpinResult, error) {
	if bet < MinBet {
		return nil, ErrMinBet
	}

	if _, err := s.ledger.GetOrCreate(userID); err != nil {
		return nil, err
	}

	reels := s.drawFn()
	prize := Payout(reels)
	delta := prize - bet

	outcome := models.OutcomeLose
	if prize > 0 {
		outcome = models.OutcomeWin
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		ok, err := applyGuardedDelta(tx, userID, StatsDelta{Balance: delta}, "balance", bet)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInsufficientBalance
		}

		round := models.GameRound{
			UserID:  userID,
			Bet:     bet,
			Prize:   prize,
			Delta:   delta,
			Outcome: outcome,
			Reel1:   reels[0],
			Reel2:   reels[1],
			Reel3:   reels[2],
		}
		return tx.Create(&round).Error
	})
	if err != nil {
		return nil, err
	}

	stats, err := loadStats(s.db, userID)
	if err != nil {
		return nil, err
	}

	return &SpinResult{
		Reels: reels[:],
		Prize: prize,
		Bet:   bet,
		Stats: stats,
	}, nil
}

// History returns the user's most recent rounds, newest first.
func (s *SlotMachine) History(userID uint, limit int) ([]models.GameRound, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var rounds []models.GameRound
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rounds).Error
	return rounds, err
}

func (s *SlotMachine) draw() [3]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reels [3]string
	for i := range reels {
		reels[i] = drawSymbol(s.rng)
	}
	return reels
}

func drawSymbol(rng *rand.Rand) string {
	n := rng.Intn(totalReelWeight)
	for _, rw := range reelWeights {
		n -= rw.Weight
		if n < 0 {
			return rw.Key
		}
	}
	return reelWeights[len(reelWeights)-1].Key
}

// Payout evaluates the payout table for a drawn combination.
func Payout(reels [3]string) int {
	counts := make(map[string]int, 3)
	for _, r := range reels {
		counts[r]++
	}

	prize := 0
	for symbol, rules := range payoutRules {
		if p := rules[counts[symbol]]; p > prize {
			prize = p
		}
	}
	return prize
}
