package names

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"card-redact/internal/vocab"

	"golang.org/x/text/width"
)

// Mode selects how permissive name detection is.
type Mode string

const (
	// ModeStrict accepts only the explicit name shapes.
	ModeStrict Mode = "strict"
	// ModeBalanced also accepts lines that are mostly letters.
	ModeBalanced Mode = "balanced"
	// ModeLoose additionally lifts every candidate's score.
	ModeLoose Mode = "loose"
)

// ParseMode validates a mode name. The empty string selects ModeBalanced.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeBalanced, nil
	case ModeStrict, ModeBalanced, ModeLoose:
		return m, nil
	default:
		return "", fmt.Errorf("unknown name mode %q", s)
	}
}

const minAlphaDensity = 0.6

var (
	latinName    = regexp.MustCompile(`^[A-Za-z][A-Za-z.\-'\s]+$`)
	initialsName = regexp.MustCompile(`^(?:[A-Za-z]\.?\s?)+[A-Z][A-Za-z\-']+$`)
	hangulName   = regexp.MustCompile(`^[가-힣][가-힣\s·\-]+$`)
)

// normalizeText folds full-width forms and trims surrounding space.
func normalizeText(s string) string {
	return strings.TrimSpace(width.Fold.String(s))
}

// IsNameCandidate reports whether text has the shape of a cardholder name.
func IsNameCandidate(text string, v *vocab.Vocabulary, mode Mode) bool {
	t := normalizeText(text)
	if t == "" {
		return false
	}
	for _, r := range t {
		if unicode.IsDigit(r) {
			return false
		}
	}
	compact := strings.ReplaceAll(t, " ", "")
	if utf8.RuneCountInString(compact) < 2 {
		return false
	}
	for _, w := range strings.Fields(t) {
		if v.IsStopword(w) {
			return false
		}
	}
	if latinName.MatchString(t) || initialsName.MatchString(t) || hangulName.MatchString(t) {
		return true
	}
	if mode == ModeStrict {
		return false
	}
	return alphaRatio(compact) >= minAlphaDensity
}

// alphaRatio returns the share of letters among the runes of s.
func alphaRatio(s string) float64 {
	letters, total := 0, 0
	for _, r := range s {
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return float64(letters) / float64(max(1, total))
}
