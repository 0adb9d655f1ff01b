package services

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"taaltoren/logger"
)

// Levels is the fixed CEFR-style level enumeration used by the word
// lists and the leaderboard aggregates.
var Levels = []string{"A0", "A1", "A2", "B1", "B2", "C1"}

const DefaultLevel = "A0"

// NormalizeLevel maps any input onto the level enumeration; unknown
// values fall back to the default level.
func NormalizeLevel(level string) string {
	lv := strings.ToUpper(strings.TrimSpace(level))
	for _, known := range Levels {
		if lv == known {
			return lv
		}
	}
	return DefaultLevel
}

// WordEntry is one vocabulary item: a Ukrainian prompt, the correct
// Dutch translation and two Dutch distractors.
type WordEntry struct {
	UA      string `json:"ua"`
	Correct string `json:"correct"`
	Wrong1  string `json:"wrong1"`
	Wrong2  string `json:"wrong2"`
}

type wordFile struct {
	Level string      `json:"level"`
	Words []WordEntry `json:"words"`
}

// WordBank holds the per-level word lists. Entries are static after
// startup; Random is safe for concurrent use.
type WordBank struct {
	mu    sync.RWMutex
	words map[string][]WordEntry
}

func NewWordBank() *WordBank {
	wb := &WordBank{
		words: make(map[string][]WordEntry, len(Levels)),
	}
	for level, entries := range seedWords {
		wb.words[level] = append(wb.words[level], entries...)
	}
	return wb
}

// LoadFromDir merges word lists from JSON files in dir. Each file holds
// {"level": "A1", "words": [{"ua":..., "correct":..., "wrong1":..., "wrong2":...}]}.
// A missing directory gets created with a sample file.
func (wb *WordBank) LoadFromDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Log.Infof("Words directory %s not found, creating it", dir)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create words directory: %w", err)
		}
		return writeSampleWordFile(dir)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return fmt.Errorf("failed to read words directory: %w", err)
	}

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			logger.Log.Warnf("Failed to read word file %s: %v", file, err)
			continue
		}

		var wf wordFile
		if err := json.Unmarshal(data, &wf); err != nil {
			logger.Log.Warnf("Failed to parse word file %s: %v", file, err)
			continue
		}

		level := NormalizeLevel(wf.Level)
		added := 0
		wb.mu.Lock()
		for _, w := range wf.Words {
			w.UA = strings.TrimSpace(w.UA)
			w.Correct = strings.TrimSpace(w.Correct)
			w.Wrong1 = strings.TrimSpace(w.Wrong1)
			w.Wrong2 = strings.TrimSpace(w.Wrong2)
			if w.UA == "" || w.Correct == "" || w.Wrong1 == "" || w.Wrong2 == "" {
				continue
			}
			wb.words[level] = append(wb.words[level], w)
			added++
		}
		wb.mu.Unlock()

		logger.Log.Infof("Loaded %d words for level %s from %s", added, level, filepath.Base(file))
	}

	return nil
}

// Random returns a uniformly random entry for the level, or false when
// the level has no words.
func (wb *WordBank) Random(level string) (WordEntry, bool) {
	level = NormalizeLevel(level)

	wb.mu.RLock()
	defer wb.mu.RUnlock()

	entries := wb.words[level]
	if len(entries) == 0 {
		return WordEntry{}, false
	}
	// Top-level rand is internally locked, so concurrent readers only
	// need the read lock on the word map.
	return entries[rand.Intn(len(entries))], true
}

// Count returns the number of entries loaded for the level.
func (wb *WordBank) Count(level string) int {
	wb.mu.RLock()
	defer wb.mu.RUnlock()
	return len(wb.words[NormalizeLevel(level)])
}

func writeSampleWordFile(dir string) error {
	sample := wordFile{
		Level: "A0",
		Words: []WordEntry{
			{UA: "дім", Correct: "huis", Wrong1: "boom", Wrong2: "straat"},
			{UA: "вода", Correct: "water", Wrong1: "melk", Wrong2: "brood"},
		},
	}

	data, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sample: %w", err)
	}

	filename := filepath.Join(dir, "sample_a0.json")
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write sample file: %w", err)
	}

	logger.Log.Infof("Created sample word file: %s", filename)
	return nil
}

// Built-in word lists so a fresh checkout works without word files.
var seedWords = map[string][]WordEntry{
	"A0": {
		{UA: "дім", Correct: "huis", Wrong1: "boom", Wrong2: "straat"},
		{UA: "кіт", Correct: "kat", Wrong1: "hond", Wrong2: "vogel"},
		{UA: "собака", Correct: "hond", Wrong1: "kat", Wrong2: "vis"},
		{UA: "хліб", Correct: "brood", Wrong1: "kaas", Wrong2: "melk"},
		{UA: "молоко", Correct: "melk", Wrong1: "water", Wrong2: "koffie"},
		{UA: "вода", Correct: "water", Wrong1: "thee", Wrong2: "bier"},
		{UA: "стіл", Correct: "tafel", Wrong1: "stoel", Wrong2: "deur"},
		{UA: "книга", Correct: "boek", Wrong1: "pen", Wrong2: "krant"},
	},
	"A1": {
		{UA: "велосипед", Correct: "fiets", Wrong1: "auto", Wrong2: "trein"},
		{UA: "вулиця", Correct: "straat", Wrong1: "plein", Wrong2: "brug"},
		{UA: "робота", Correct: "werk", Wrong1: "school", Wrong2: "winkel"},
		{UA: "друг", Correct: "vriend", Wrong1: "buurman", Wrong2: "leraar"},
		{UA: "місто", Correct: "stad", Wrong1: "dorp", Wrong2: "land"},
		{UA: "тиждень", Correct: "week", Wrong1: "maand", Wrong2: "jaar"},
	},
	"A2": {
		{UA: "кухня", Correct: "keuken", Wrong1: "badkamer", Wrong2: "zolder"},
		{UA: "лікарня", Correct: "ziekenhuis", Wrong1: "apotheek", Wrong2: "gemeente"},
		{UA: "бібліотека", Correct: "bibliotheek", Wrong1: "boekhandel", Wrong2: "museum"},
		{UA: "погода", Correct: "weer", Wrong1: "wind", Wrong2: "lucht"},
		{UA: "запитання", Correct: "vraag", Wrong1: "antwoord", Wrong2: "verhaal"},
	},
	"B1": {
		{UA: "зустріч", Correct: "vergadering", Wrong1: "afspraak", Wrong2: "feest"},
		{UA: "суспільство", Correct: "maatschappij", Wrong1: "overheid", Wrong2: "vereniging"},
		{UA: "досвід", Correct: "ervaring", Wrong1: "opleiding", Wrong2: "kennis"},
		{UA: "рішення", Correct: "beslissing", Wrong1: "oplossing", Wrong2: "mening"},
	},
	"B2": {
		{UA: "відповідальність", Correct: "verantwoordelijkheid", Wrong1: "verplichting", Wrong2: "vergunning"},
		{UA: "розвиток", Correct: "ontwikkeling", Wrong1: "onderzoek", Wrong2: "omgeving"},
		{UA: "пропозиція", Correct: "voorstel", Wrong1: "voorbeeld", Wrong2: "voordeel"},
	},
	"C1": {
		{UA: "точність", Correct: "nauwkeurigheid", Wrong1: "zorgvuldigheid", Wrong2: "snelheid"},
		{UA: "сталість", Correct: "duurzaamheid", Wrong1: "zekerheid", Wrong2: "stabiliteit"},
		{UA: "упередження", Correct: "vooroordeel", Wrong1: "overtuiging", Wrong2: "misverstand"},
	},
}
