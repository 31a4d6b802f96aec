package redis

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/kailas-cloud/facetdex/internal/db"
)

// renderClause translates a structured clause into an FT.SEARCH query string (DIALECT 2).
func renderClause(c db.Clause) (string, error) {
	switch c.Kind {
	case db.ClauseAll:
		return "*", nil
	case db.ClauseTerm:
		return renderTerm(c)
	case db.ClauseRange:
		return renderRange(c.Field, c.Range), nil
	case db.ClauseMatch:
		return renderMatch(c)
	case db.ClauseExists:
		return fmt.Sprintf("-ismissing(@%s)", c.Field), nil
	case db.ClauseMissing:
		return fmt.Sprintf("ismissing(@%s)", c.Field), nil
	case db.ClauseAnd, db.ClauseOr:
		parts := make([]string, 0, len(c.Children))
		for _, child := range c.Children {
			s, err := renderClause(child)
			if err != nil {
				return "", err
			}
			parts = append(parts, "("+s+")")
		}
		if c.Kind == db.ClauseAnd {
			return strings.Join(parts, " "), nil
		}
		return "(" + strings.Join(parts, " | ") + ")", nil
	case db.ClauseNot:
		if len(c.Children) != 1 {
			return "", fmt.Errorf("negation needs exactly one clause")
		}
		s, err := renderClause(c.Children[0])
		if err != nil {
			return "", err
		}
		return "-(" + s + ")", nil
	}
	return "", fmt.Errorf("unknown clause kind %d", c.Kind)
}

func renderTerm(c db.Clause) (string, error) {
	if len(c.Values) == 0 {
		return "", fmt.Errorf("term clause on %q has no values", c.Field)
	}
	switch c.Type {
	case db.IndexFieldTag:
		escaped := make([]string, len(c.Values))
		for i, v := range c.Values {
			escaped[i] = tagEscaper.Replace(v)
		}
		return fmt.Sprintf("@%s:{%s}", c.Field, strings.Join(escaped, " | ")), nil

	case db.IndexFieldNumeric:
		parts := make([]string, len(c.Values))
		for i, v := range c.Values {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return "", fmt.Errorf("numeric term on %q: %w", c.Field, err)
			}
			n := formatBound(f)
			parts[i] = fmt.Sprintf("@%s:[%s %s]", c.Field, n, n)
		}
		if len(parts) == 1 {
			return parts[0], nil
		}
		return "(" + strings.Join(parts, " | ") + ")", nil

	case db.IndexFieldText:
		phrases := make([]string, len(c.Values))
		for i, v := range c.Values {
			phrases[i] = `"` + escapeQuery(v) + `"`
		}
		return fmt.Sprintf("@%s:(%s)", c.Field, strings.Join(phrases, " | ")), nil
	}
	return "", fmt.Errorf("unknown field type %s", c.Type)
}

func renderRange(field string, r db.NumericRange) string {
	minBound := formatBound(r.Min)
	maxBound := formatBound(r.Max)
	if r.ExclusiveMin && !math.IsInf(r.Min, 0) {
		minBound = "(" + minBound
	}
	if r.ExclusiveMax && !math.IsInf(r.Max, 0) {
		maxBound = "(" + maxBound
	}
	return fmt.Sprintf("@%s:[%s %s]", field, minBound, maxBound)
}

func formatBound(v float64) string {
	switch {
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsInf(v, 1):
		return "+inf"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// renderMatch tokenizes the text and, for the search_text analyzer, matches
// every token by prefix.
func renderMatch(c db.Clause) (string, error) {
	tokens := tokenize(c.Text)
	if len(tokens) == 0 {
		return "", fmt.Errorf("match clause on %q has no terms", c.Field)
	}
	for i, tok := range tokens {
		tokens[i] = escapeQuery(tok)
		// prefix queries need at least two characters
		if c.Prefix && len([]rune(tok)) >= 2 {
			tokens[i] += "*"
		}
	}
	return fmt.Sprintf("@%s:(%s)", c.Field, strings.Join(tokens, " ")), nil
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

var tagEscaper = strings.NewReplacer(
	`\`, `\\`,
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	" ", "\\ ",
)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`:`, `\:`,
	`[`, `\[`,
	`]`, `\]`,
	`%`, `\%`,
	`$`, `\$`,
)
