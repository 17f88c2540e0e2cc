// Package cardnum finds payment-card numbers in OCR tokens: it repairs
// common OCR confusions, stitches grouped digits back together, validates
// candidates and collapses near-duplicates.
package cardnum

import (
	"strings"

	"golang.org/x/text/width"
)

// confusions maps characters OCR commonly reads in place of digits.
var confusions = map[rune]rune{
	'S': '5', 's': '5',
	'O': '0', 'o': '0', 'Q': '0', 'D': '0',
	'I': '1', 'i': '1', 'l': '1', '|': '1',
	'B': '8', 'b': '8',
	'Z': '2', 'z': '2',
	'G': '6', 'g': '6',
}

// DigitText folds full-width forms, repairs letter/digit confusions and
// drops everything that is not an ASCII digit.
func DigitText(s string) string {
	s = width.Fold.String(strings.TrimSpace(s))
	var sb strings.Builder
	for _, r := range s {
		if d, ok := confusions[r]; ok {
			r = d
		}
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// LuhnValid reports whether the digits of s pass the Luhn checksum.
// Non-digit characters are ignored; an empty digit string is invalid.
func LuhnValid(s string) bool {
	n := onlyDigits(s)
	if n == "" {
		return false
	}
	sum := 0
	double := false
	for i := len(n) - 1; i >= 0; i-- {
		d := int(n[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// Mask keeps the first six and last four digits and stars the rest. Inputs
// with fewer than ten digits are starred entirely.
func Mask(s string) string {
	n := onlyDigits(s)
	if len(n) < 10 {
		return strings.Repeat("*", len(n))
	}
	return n[:6] + strings.Repeat("*", len(n)-10) + n[len(n)-4:]
}
