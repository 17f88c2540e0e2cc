// Package expiry finds card expiry dates in OCR token text.
package expiry

import (
	"regexp"

	"card-redact/internal/ocr"
	"card-redact/pkg/geometry"
)

// pattern matches MM/YY, MMYY, MM-YY, MM.YY, MM YY and the 20YY forms.
var pattern = regexp.MustCompile(`\b(0[1-9]|1[0-2])[/\-.\s]?(?:20)?(\d{2})\b`)

// Match is one expiry hit and the box of the token it came from.
type Match struct {
	Text       string
	TokenIndex int
	Rect       geometry.RectInt
}

// Find scans every token and returns one match per hit token, in token order.
// The matched text is kept verbatim.
func Find(tokens []ocr.Token) []Match {
	var out []Match
	for i, tok := range tokens {
		if tok.Text == "" {
			continue
		}
		m := pattern.FindString(tok.Text)
		if m == "" {
			continue
		}
		r, ok := tok.Quad.BoundingRect()
		if !ok {
			continue
		}
		out = append(out, Match{Text: m, TokenIndex: i, Rect: r})
	}
	return out
}

// Texts returns the distinct matched strings in first-seen order.
func Texts(matches []Match) []string {
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m.Text]; ok {
			continue
		}
		seen[m.Text] = struct{}{}
		out = append(out, m.Text)
	}
	return out
}

// Rects returns the token boxes of all matches.
func Rects(matches []Match) []geometry.RectInt {
	out := make([]geometry.RectInt, len(matches))
	for i, m := range matches {
		out[i] = m.Rect
	}
	return out
}
