package ranking

import (
	"strings"
	"unicode"
)

// Terms splits query into lowercase terms, trimming edge punctuation but
// keeping the separators ids commonly use.
func Terms(query string) []string {
	var out []string
	for _, word := range strings.Fields(query) {
		word = strings.ToLower(word)
		word = strings.TrimFunc(word, func(r rune) bool {
			return unicode.IsPunct(r) && r != '-' && r != '_'
		})
		if word != "" {
			out = append(out, word)
		}
	}
	return out
}

// NormalizeID lowercases id and turns the usual separators into spaces, so
// "Order_Process", "order-process" and "order process" compare equal.
func NormalizeID(id string) string {
	r := strings.NewReplacer("_", " ", "-", " ", ".", " ", ":", " ")
	return strings.Join(strings.Fields(strings.ToLower(r.Replace(id))), " ")
}

// AllTermsMatch reports whether every term occurs in text as whole words.
func AllTermsMatch(terms []string, text string) bool {
	if len(terms) == 0 {
		return false
	}
	padded := " " + text + " "
	for _, term := range terms {
		norm := NormalizeID(term)
		if norm == "" || !strings.Contains(padded, " "+norm+" ") {
			return false
		}
	}
	return true
}

// CountMatchingTerms counts the terms that occur in text.
func CountMatchingTerms(terms []string, text string) int {
	n := 0
	for _, term := range terms {
		if norm := NormalizeID(term); norm != "" && strings.Contains(text, norm) {
			n++
		}
	}
	return n
}

// IsPrefixMatch checks if the term is a prefix of any word in text.
func IsPrefixMatch(term, text string) bool {
	term = NormalizeID(term)
	if term == "" {
		return false
	}
	for _, word := range strings.Fields(text) {
		if strings.HasPrefix(word, term) {
			return true
		}
	}
	return false
}
