package places

import (
	"regexp"
	"strings"
)

var zipRe = regexp.MustCompile(`^\d{5}$`)

// IsZipCode reports whether the keyword looks like a US postal code.
func IsZipCode(s string) bool {
	return zipRe.MatchString(strings.TrimSpace(s))
}

// KeywordTokens splits a keyword into lowercase match tokens. Tokens of a
// single character are dropped.
func KeywordTokens(keyword string) []string {
	var tokens []string
	for _, w := range strings.Fields(strings.ToLower(keyword)) {
		if len(w) > 1 {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// MatchesKeyword reports whether a place name contains any of the tokens,
// case-insensitively.
func MatchesKeyword(name string, tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	lower := strings.ToLower(name)
	for _, tok := range tokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}
