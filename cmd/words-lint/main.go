package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type wordEntry struct {
	UA      string `json:"ua"`
	Correct string `json:"correct"`
	Wrong1  string `json:"wrong1"`
	Wrong2  string `json:"wrong2"`
}

type wordFile struct {
	Level string      `json:"level"`
	Words []wordEntry `json:"words"`
}

var knownLevels = map[string]bool{
	"A0": true, "A1": true, "A2": true,
	"B1": true, "B2": true, "C1": true,
}

func main() {
	files, err := filepath.Glob("./words/*.json")
	if err != nil {
		fmt.Println("error: cannot read ./words:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Println("no .json word files found in ./words")
		return
	}

	exitCode := 0
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			fmt.Printf("%s: read error: %v\n", f, err)
			exitCode = 1
			continue
		}

		var wf wordFile
		if err := json.Unmarshal(data, &wf); err != nil {
			fmt.Printf("%s: parse error: %v\n", f, err)
			exitCode = 1
			continue
		}

		bad := 0
		if !knownLevels[strings.ToUpper(strings.TrimSpace(wf.Level))] {
			fmt.Printf("%s: unknown level %q (expected A0/A1/A2/B1/B2/C1)\n", f, wf.Level)
			bad++
		}
		if len(wf.Words) == 0 {
			fmt.Printf("%s: no words\n", f)
			bad++
		}

		seen := make(map[string]int)
		for i, w := range wf.Words {
			ua := strings.TrimSpace(w.UA)
			correct := strings.TrimSpace(w.Correct)
			wrong1 := strings.TrimSpace(w.Wrong1)
			wrong2 := strings.TrimSpace(w.Wrong2)

			if ua == "" || correct == "" || wrong1 == "" || wrong2 == "" {
				fmt.Printf("%s: word %d: empty field (need ua, correct, wrong1, wrong2)\n", f, i+1)
				bad++
				continue
			}
			if correct == wrong1 || correct == wrong2 || wrong1 == wrong2 {
				fmt.Printf("%s: word %d (%s): duplicate answer options\n", f, i+1, ua)
				bad++
			}
			if prev, ok := seen[ua]; ok {
				fmt.Printf("%s: word %d (%s): duplicate prompt, first seen at word %d\n", f, i+1, ua, prev)
				bad++
			}
			seen[ua] = i + 1
		}

		if bad == 0 {
			fmt.Printf("%s: OK (%d words, level %s)\n", f, len(wf.Words), wf.Level)
		} else {
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}
