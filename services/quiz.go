package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/rand"
	"strings"

	"taaltoren/models"
)

var (
	ErrNoWords = errors.New("no_words_for_level")
	ErrBadKey  = errors.New("bad_key")
)

type QuestionOption struct {
	Text string `json:"text"`
}

// Question is what the client renders: a prompt, three shuffled options
// and an opaque key the answer is graded against. Nothing is kept
// server-side between question and answer.
type Question struct {
	Key     string           `json:"key"`
	Prompt  string           `json:"prompt"`
	Options []QuestionOption `json:"options"`
}

type GradeResult struct {
	Correct bool
	Stats   *models.UserStats
}

// Quiz serves multiple-choice vocabulary questions and grades answers.
type Quiz struct {
	words  *WordBank
	ledger *Ledger
	secret []byte
}

func NewQuiz(words *WordBank, ledger *Ledger, secret []byte) *Quiz {
	return &Quiz{words: words, ledger: ledger, secret: secret}
}

// NextQuestion picks a random word for the level and builds a question
// with the three answer options in random order.
func (q *Quiz) NextQuestion(level string) (*Question, error) {
	entry, ok := q.words.Random(level)
	if !ok {
		return nil, ErrNoWords
	}

	options := []QuestionOption{
		{Text: entry.Correct},
		{Text: entry.Wrong1},
		{Text: entry.Wrong2},
	}
	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	return &Question{
		Key:     q.encodeKey(entry.UA, entry.Correct),
		Prompt:  entry.UA,
		Options: options,
	}, nil
}

// Grade decodes and re-validates the question key, compares the
// submitted choice against the embedded answer and applies the ±1
// score delta. The client-supplied choice is the only input trusted
// from the request; correctness is always derived server-side.
func (q *Quiz) Grade(userID uint, key, choice string) (*GradeResult, error) {
	_, answer, err := q.decodeKey(key)
	if err != nil {
		return nil, ErrBadKey
	}

	correct := strings.TrimSpace(choice) == strings.TrimSpace(answer)
	delta := StatsDelta{Score: 1}
	if !correct {
		delta.Score = -1
	}

	stats, err := q.ledger.ApplyDelta(userID, delta)
	if err != nil {
		return nil, err
	}
	return &GradeResult{Correct: correct, Stats: stats}, nil
}

type questionKey struct {
	Prompt string `json:"p"`
	Answer string `json:"a"`
}

// encodeKey packs (prompt, answer) into base64 and signs it with
// HMAC-SHA256 so clients cannot forge a key for an arbitrary answer.
func (q *Quiz) encodeKey(prompt, answer string) string {
	payload, _ := json.Marshal(questionKey{Prompt: prompt, Answer: answer})
	mac := hmac.New(sha256.New, q.secret)
	mac.Write(payload)

	return base64.RawURLEncoding.EncodeToString(payload) +
		"." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (q *Quiz) decodeKey(key string) (prompt, answer string, err error) {
	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 {
		return "", "", ErrBadKey
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", "", ErrBadKey
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", "", ErrBadKey
	}

	mac := hmac.New(sha256.New, q.secret)
	mac.Write(payload)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return "", "", ErrBadKey
	}

	var qk questionKey
	if err := json.Unmarshal(payload, &qk); err != nil {
		return "", "", ErrBadKey
	}
	return qk.Prompt, qk.Answer, nil
}
