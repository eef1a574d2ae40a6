package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// stopWords are dropped from both sides before token scoring. The list is
// the common English function words that show up in nearly every title.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"a", "an", "and", "are", "as", "at", "be", "but", "by", "for",
		"from", "has", "he", "her", "his", "i", "in", "is", "it", "its",
		"no", "not", "of", "on", "or", "s", "she", "so", "t",
		"that", "the", "their", "them", "they", "this", "to", "was",
		"we", "were", "will", "with", "you",
	} {
		stopWords[w] = struct{}{}
	}
}

var titleFolder = cases.Fold()

// NormalizeTitle lowercases a title and strips punctuation so two catalog
// spellings of the same name compare equal. Apostrophes vanish, any other
// punctuation separates words.
func NormalizeTitle(title string) string {
	folded := titleFolder.String(title)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r == '\'':
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// TitlesEqual compares two titles ignoring case and punctuation.
func TitlesEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return NormalizeTitle(a) == NormalizeTitle(b)
}

// Tokenize lowercases text, splits it on word boundaries and drops stop
// words and punctuation. The result is a set: each token appears once.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	lowered := strings.ToLower(strings.ReplaceAll(text, ".", " "))
	fields := strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := map[string]struct{}{}
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, stop := stopWords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	return tokens
}

// OverlapScore counts how much evidence the source tokens carry for a
// target: non-numeric source tokens found in the target's title tokens,
// plus any source tokens found in the target's aired date (the date string
// with dashes replaced by spaces). Zero means no overlap at all.
func OverlapScore(source []string, targetTitle, airedDate string) int {
	titleTokens := toSet(Tokenize(targetTitle))
	dateTokens := toSet(Tokenize(strings.ReplaceAll(airedDate, "-", " ")))

	score := 0
	for _, tok := range source {
		if _, ok := titleTokens[tok]; ok && !isNumeric(tok) {
			score++
		}
		if _, ok := dateTokens[tok]; ok {
			score++
		}
	}
	return score
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func isNumeric(token string) bool {
	dots := 0
	for _, r := range token {
		if r == '.' {
			dots++
			if dots > 1 {
				return false
			}
			continue
		}
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(token) > dots
}
