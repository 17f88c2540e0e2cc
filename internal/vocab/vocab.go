// Package vocab holds the static brand/issuer vocabulary, name stopwords and
// card-network prefix rules. The tables are data: they can be replaced from a
// YAML file without touching detection code.
package vocab

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// UnknownBrand is reported when no prefix rule matches.
const UnknownBrand = "Unknown"

// PrefixRange is an inclusive range of leading digits. From and To must have
// the same number of digits.
type PrefixRange struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// BrandRule maps leading-digit ranges and lengths to a card network.
type BrandRule struct {
	Name     string        `yaml:"name"`
	Lengths  []int         `yaml:"lengths"`
	Prefixes []PrefixRange `yaml:"prefixes"`
}

// Matches reports whether digits fall under the rule.
func (r BrandRule) Matches(digits string) bool {
	if len(r.Lengths) > 0 && !slices.Contains(r.Lengths, len(digits)) {
		return false
	}
	for _, p := range r.Prefixes {
		n := len(p.From)
		if n == 0 || len(digits) < n {
			continue
		}
		v, err := strconv.Atoi(digits[:n])
		if err != nil {
			continue
		}
		lo, _ := strconv.Atoi(p.From)
		hi, _ := strconv.Atoi(p.To)
		if lo <= v && v <= hi {
			return true
		}
	}
	return false
}

// Vocabulary is the brand/issuer table consulted by name detection and brand
// guessing.
type Vocabulary struct {
	BrandWords    []string    `yaml:"brand_words"`
	BrandPhrases  []string    `yaml:"brand_phrases"`
	NameStopwords []string    `yaml:"name_stopwords"`
	BrandRules    []BrandRule `yaml:"brand_rules"`

	brandWords map[string]struct{}
	stopwords  map[string]struct{}
	phrases    []*regexp.Regexp
}

var brandSplit = regexp.MustCompile(`[^A-Za-zØ\-]+`)

// Default returns the built-in vocabulary.
func Default() *Vocabulary {
	v := &Vocabulary{
		BrandWords: []string{
			"VISA", "SIGNATURE", "MASTERCARD", "DISCOVER", "AMERICAN", "EXPRESS", "AMEX",
			"UNIONPAY", "WORLD", "GOOD", "DAY", "KB", "KBCARD", "PLATINUM", "GOLD", "SILVER", "INFINITE",
		},
		BrandPhrases: []string{
			`\bVISA\b`,
			`\bSIGNATURE\b`,
			`\bAMERICAN\s+EXPRESS\b`,
			`\bUNION\s*PAY\b`,
		},
		NameStopwords: []string{"THRU", "GOOD", "VALID", "CARD", "HOLDER", "CARDHOLDER"},
		BrandRules: []BrandRule{
			{Name: "American Express", Lengths: []int{15}, Prefixes: []PrefixRange{{"34", "34"}, {"37", "37"}}},
			{Name: "Visa", Lengths: []int{13, 16, 19}, Prefixes: []PrefixRange{{"4", "4"}}},
			{Name: "Mastercard", Lengths: []int{16}, Prefixes: []PrefixRange{{"51", "55"}, {"2221", "2720"}}},
			{Name: "Discover", Lengths: []int{16, 19}, Prefixes: []PrefixRange{
				{"6011", "6011"}, {"65", "65"}, {"644", "649"}, {"622126", "622925"},
			}},
		},
	}
	if err := v.compile(); err != nil {
		panic(err)
	}
	return v
}

// Load reads a vocabulary from a YAML file.
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML vocabulary. Sections left empty fall back to the
// built-in tables.
func Parse(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary: %w", err)
	}
	def := Default()
	if len(v.BrandWords) == 0 {
		v.BrandWords = def.BrandWords
	}
	if len(v.BrandPhrases) == 0 {
		v.BrandPhrases = def.BrandPhrases
	}
	if len(v.NameStopwords) == 0 {
		v.NameStopwords = def.NameStopwords
	}
	if len(v.BrandRules) == 0 {
		v.BrandRules = def.BrandRules
	}
	if err := v.compile(); err != nil {
		return nil, err
	}
	return &v, nil
}

func (v *Vocabulary) compile() error {
	v.brandWords = make(map[string]struct{}, len(v.BrandWords))
	for _, w := range v.BrandWords {
		v.brandWords[strings.ToUpper(w)] = struct{}{}
	}
	v.stopwords = make(map[string]struct{}, len(v.NameStopwords))
	for _, w := range v.NameStopwords {
		v.stopwords[strings.ToUpper(w)] = struct{}{}
	}
	v.phrases = v.phrases[:0]
	for _, p := range v.BrandPhrases {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			return fmt.Errorf("invalid brand phrase %q: %w", p, err)
		}
		v.phrases = append(v.phrases, re)
	}
	for _, r := range v.BrandRules {
		for _, p := range r.Prefixes {
			if len(p.From) != len(p.To) {
				return fmt.Errorf("brand %q: prefix range %s-%s has mismatched widths", r.Name, p.From, p.To)
			}
		}
	}
	return nil
}

// IsBrandText reports whether s contains a brand word or phrase.
func (v *Vocabulary) IsBrandText(s string) bool {
	if s == "" {
		return false
	}
	for _, tok := range brandSplit.Split(strings.ToUpper(s), -1) {
		if tok == "" {
			continue
		}
		if _, ok := v.brandWords[tok]; ok {
			return true
		}
	}
	for _, re := range v.phrases {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// IsStopword reports whether a single whitespace-delimited word can never be
// part of a cardholder name.
func (v *Vocabulary) IsStopword(word string) bool {
	_, ok := v.stopwords[strings.ToUpper(word)]
	return ok
}

// GuessBrand returns the first matching network name for a digit string.
func (v *Vocabulary) GuessBrand(digits string) string {
	for _, r := range v.BrandRules {
		if r.Matches(digits) {
			return r.Name
		}
	}
	return UnknownBrand
}
