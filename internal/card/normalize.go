package card

import (
	"regexp"
	"strings"
)

// whitespaceRegex matches one or more whitespace characters.
var whitespaceRegex = regexp.MustCompile(`\s+`)

// nameCharRegex validates kebab-case names: lowercase alphanumerics
// separated by single hyphens.
var nameCharRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// stopwords are words too common to carry signal in name or keyword
// comparisons.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "at": true, "be": true,
	"by": true, "for": true, "from": true, "how": true, "in": true,
	"is": true, "it": true, "of": true, "on": true, "or": true,
	"the": true, "to": true, "use": true, "using": true, "with": true,
	"when": true, "your": true,
}

// Normalize lowercases, trims, and collapses internal whitespace.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// ValidName reports whether name is a well-formed kebab-case identifier.
func ValidName(name string) bool {
	return nameCharRegex.MatchString(name)
}

// NameTokens splits a card name into significant, stemmed tokens.
// "pydantic-validation-tips" -> {"pydantic", "valid", "tip"}.
func NameTokens(name string) map[string]bool {
	tokens := make(map[string]bool)
	for _, part := range strings.FieldsFunc(Normalize(name), func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	}) {
		if stopwords[part] {
			continue
		}
		if stem := Stem(part); stem != "" {
			tokens[stem] = true
		}
	}
	return tokens
}

// KeywordSet lowercases keywords and drops stopwords and empties.
func KeywordSet(keywords []string) map[string]bool {
	set := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		kw = Normalize(kw)
		if kw == "" || stopwords[kw] {
			continue
		}
		set[kw] = true
	}
	return set
}

// stemSuffixes are stripped in order, longest first; only the first
// applicable suffix is removed, and only when enough of the word remains
// to stay distinctive.
var stemSuffixes = []string{"ations", "ation", "ating", "ators", "ator", "ings", "ing", "es", "ed", "s"}

// Stem reduces a word to a crude stem so "validation"/"validating" and
// "pattern"/"patterns" land on the same token. This is deliberately not a
// full stemmer; it only needs to make name-family comparisons tolerant of
// plural and gerund variants.
func Stem(word string) string {
	for _, suffix := range stemSuffixes {
		if strings.HasSuffix(word, suffix) && len(word)-len(suffix) >= 3 {
			return word[:len(word)-len(suffix)]
		}
	}
	return word
}

// Jaccard returns |a∩b| / |a∪b|, or 0 when both sets are empty.
func Jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for k := range a {
		if b[k] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection

	return float64(intersection) / float64(union)
}
