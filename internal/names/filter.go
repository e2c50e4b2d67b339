// Package names extracts plausible creature-name tokens from recognized
// text lines, rejecting UI chrome, level markers, and known OCR noise.
package names

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shinyhunt/encounterd/internal/ocr"
)

// levelMarker is the badge text that co-occurs with creature names in
// the encounter UI. Lines without it are never name lines.
const levelMarker = "Lv."

// digitOrSpace flags tokens contaminated by level numbers or merged
// whitespace; names never contain either.
var digitOrSpace = regexp.MustCompile(`[0-9\s]`)

// banned substrings: level-marker leakage plus the rare-variant prefix
// that otherwise slips through the other rules.
var bannedWords = []string{"lv.", "llv.", "alpha"}

// mergeArtifact is a known OCR merge of the level badge into the name
// token; it gets stripped rather than costing the whole token.
const mergeArtifact = "llv."

// Extract applies the name heuristics to recognized lines, in order:
// only lines carrying the level marker are considered; a word survives
// if it is title-cased, longer than three bytes once lowercased, free
// of digits and whitespace, and free of banned substrings. Duplicates
// are preserved in encounter order.
func Extract(lines []ocr.Line) []string {
	var out []string
	for _, line := range lines {
		if !strings.Contains(line.Text(), levelMarker) {
			continue
		}
		for _, w := range line.Words {
			first, _ := utf8.DecodeRuneInString(w)
			if first == utf8.RuneError || !unicode.IsUpper(first) {
				continue
			}
			w = strings.ToLower(w)
			if len(w) <= 3 {
				continue
			}
			if digitOrSpace.MatchString(w) {
				continue
			}
			if containsBanned(w) {
				continue
			}
			out = append(out, strings.ReplaceAll(w, mergeArtifact, ""))
		}
	}
	return out
}

func containsBanned(w string) bool {
	for _, b := range bannedWords {
		if strings.Contains(w, b) {
			return true
		}
	}
	return false
}
