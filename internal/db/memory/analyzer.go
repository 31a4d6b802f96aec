package memory

import (
	"strings"
	"unicode"
)

// matchText applies the "text" analyzer to value and the query text: every
// query token must match a document token. With prefix set (search_text
// analyzer) tokens of two or more characters match by prefix.
func matchText(value, query string, prefix bool) bool {
	docTokens := tokenize(value)
	for _, q := range tokenize(query) {
		if !containsToken(docTokens, q, prefix) {
			return false
		}
	}
	return true
}

func containsToken(tokens []string, q string, prefix bool) bool {
	qs := stem(q)
	for _, t := range tokens {
		if t == q || stem(t) == qs {
			return true
		}
		if prefix && len([]rune(q)) >= 2 && strings.HasPrefix(t, q) {
			return true
		}
	}
	return false
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// stem strips common English inflections.
func stem(tok string) string {
	for _, suffix := range []string{"ing", "ed", "es", "s"} {
		if len(tok) > len(suffix)+2 && strings.HasSuffix(tok, suffix) {
			return strings.TrimSuffix(tok, suffix)
		}
	}
	return tok
}
